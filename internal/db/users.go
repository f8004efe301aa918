package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/itemhub/backend/internal/model"
)

func (db *Store) CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error) {
	query := `
		INSERT INTO users (id, username, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
		RETURNING id, username, password_hash, created_at
	`
	var user model.User
	err := db.Pool.QueryRow(ctx, query, uuid.New(), username, passwordHash).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &user, nil
}

func (db *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `
		SELECT id, username, password_hash, created_at
		FROM users
		WHERE username = $1
	`
	var user model.User
	err := db.Pool.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	)
	if err != nil {
		return nil, mapRowError(err)
	}
	return &user, nil
}
