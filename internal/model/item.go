package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Item wraps a schema-less JSON document stored under a generated id.
type Item struct {
	ID        uuid.UUID       `json:"id"`
	Data      json.RawMessage `json:"data" swaggertype:"object"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
