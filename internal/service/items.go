package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/itemhub/backend/internal/db"
	"github.com/itemhub/backend/internal/model"
)

var (
	ErrInvalidItemID   = errors.New("invalid item id")
	ErrInvalidDocument = errors.New("invalid document")
	ErrItemNotFound    = errors.New("item not found")
)

type ItemRepo interface {
	ListItems(ctx context.Context) ([]model.Item, error)
	InsertItem(ctx context.Context, doc json.RawMessage) (uuid.UUID, error)
	GetItem(ctx context.Context, id uuid.UUID) (*model.Item, error)
	UpdateItem(ctx context.Context, id uuid.UUID, doc json.RawMessage) error
	DeleteItem(ctx context.Context, id uuid.UUID) error
}

type ItemService struct {
	repo ItemRepo
}

func NewItemService(repo ItemRepo) *ItemService {
	return &ItemService{repo: repo}
}

func (s *ItemService) List(ctx context.Context) ([]model.Item, error) {
	items, err := s.repo.ListItems(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []model.Item{}
	}
	return items, nil
}

func (s *ItemService) Create(ctx context.Context, doc json.RawMessage) (uuid.UUID, error) {
	if err := validateDocument(doc); err != nil {
		return uuid.Nil, err
	}
	return s.repo.InsertItem(ctx, doc)
}

func (s *ItemService) Get(ctx context.Context, id string) (*model.Item, error) {
	itemID, err := parseItemID(id)
	if err != nil {
		return nil, err
	}
	item, err := s.repo.GetItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}
	return item, nil
}

func (s *ItemService) Update(ctx context.Context, id string, doc json.RawMessage) error {
	itemID, err := parseItemID(id)
	if err != nil {
		return err
	}
	if err := validateDocument(doc); err != nil {
		return err
	}
	if err := s.repo.UpdateItem(ctx, itemID, doc); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	return nil
}

func (s *ItemService) Delete(ctx context.Context, id string) error {
	itemID, err := parseItemID(id)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return ErrItemNotFound
		}
		return err
	}
	return nil
}

func parseItemID(id string) (uuid.UUID, error) {
	itemID, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrInvalidItemID
	}
	return itemID, nil
}

// validateDocument requires a JSON object: top-level merge on update is only
// defined between objects.
func validateDocument(doc json.RawMessage) error {
	trimmed := bytes.TrimSpace(doc)
	if len(trimmed) == 0 || trimmed[0] != '{' || !json.Valid(trimmed) {
		return ErrInvalidDocument
	}
	return nil
}
