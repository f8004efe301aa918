package db

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/itemhub/backend/internal/model"
)

func (db *Store) ListItems(ctx context.Context) ([]model.Item, error) {
	query := `
		SELECT id, doc, created_at, updated_at
		FROM items
		ORDER BY created_at DESC
	`
	rows, err := db.Pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []model.Item{}
	for rows.Next() {
		var item model.Item
		if err := rows.Scan(&item.ID, &item.Data, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (db *Store) InsertItem(ctx context.Context, doc json.RawMessage) (uuid.UUID, error) {
	query := `
		INSERT INTO items (id, doc, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
	`
	id := uuid.New()
	if _, err := db.Pool.Exec(ctx, query, id, doc); err != nil {
		return uuid.Nil, err
	}
	return id, nil
}

func (db *Store) GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error) {
	query := `
		SELECT id, doc, created_at, updated_at
		FROM items
		WHERE id = $1
	`
	var item model.Item
	err := db.Pool.QueryRow(ctx, query, id).Scan(
		&item.ID,
		&item.Data,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &item, nil
}

// UpdateItem merges the partial document into the stored one at the top
// level, the JSONB equivalent of the document store's $set.
func (db *Store) UpdateItem(ctx context.Context, id uuid.UUID, doc json.RawMessage) error {
	query := `
		UPDATE items
		SET doc = doc || $2::jsonb, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := db.Pool.Exec(ctx, query, id, doc)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (db *Store) DeleteItem(ctx context.Context, id uuid.UUID) error {
	tag, err := db.Pool.Exec(ctx, `DELETE FROM items WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
