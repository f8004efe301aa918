package model

import (
	"time"

	"github.com/google/uuid"
)

type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

// AuthUser is the principal a verified token asserts. It lives only for the
// duration of a single request.
type AuthUser struct {
	ID       uuid.UUID
	Username string
}

type User struct {
	ID           uuid.UUID
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}
