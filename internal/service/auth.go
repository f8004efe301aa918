package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/itemhub/backend/internal/config"
	"github.com/itemhub/backend/internal/db"
	"github.com/itemhub/backend/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// insecureDevSecret matches the fallback the original deployment shipped
// with. It is only reachable behind AUTH_ALLOW_DEV_SECRET=true.
const insecureDevSecret = "secret"

const passwordHashCost = 10

var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrConflict           = errors.New("conflict")
	ErrMisconfigured      = errors.New("auth config invalid")
)

type UserRepo interface {
	CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

type AuthService struct {
	repo      UserRepo
	jwtSecret []byte
	tokenTTL  time.Duration
}

type authClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

func NewAuthService(repo UserRepo, cfg config.AuthConfig) (*AuthService, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		allow, err := parseBool(cfg.AllowDevSecret, false)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid AUTH_ALLOW_DEV_SECRET", ErrMisconfigured)
		}
		if !allow {
			return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
		}
		log.Println("WARNING: JWT_SECRET is unset, signing tokens with the well-known dev secret")
		secret = insecureDevSecret
	}

	tokenTTL, err := time.ParseDuration(cfg.JWTTTL)
	if err != nil || tokenTTL <= 0 {
		return nil, fmt.Errorf("%w: invalid JWT_TTL", ErrMisconfigured)
	}

	return &AuthService{
		repo:      repo,
		jwtSecret: []byte(secret),
		tokenTTL:  tokenTTL,
	}, nil
}

// Register hashes the password and stores a new user record. The lookup is a
// fast path only; the unique index on username is the authoritative conflict
// signal, so a concurrent duplicate still surfaces as ErrConflict.
func (s *AuthService) Register(ctx context.Context, username, password string) error {
	if err := validateCredentials(username, password); err != nil {
		return err
	}

	_, err := s.repo.GetUserByUsername(ctx, username)
	if err == nil {
		return ErrConflict
	}
	if !errors.Is(err, db.ErrNotFound) {
		return err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return err
	}

	if _, err := s.repo.CreateUser(ctx, username, hash); err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			return ErrConflict
		}
		return err
	}
	return nil
}

// Login verifies the credentials and issues an access token. Unknown user
// and wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, string, error) {
	if err := validateCredentials(username, password); err != nil {
		return "", "", ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			return "", "", ErrInvalidCredentials
		}
		return "", "", err
	}

	if !verifyPassword(password, user.PasswordHash) {
		return "", "", ErrInvalidCredentials
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", "", err
	}
	return token, user.Username, nil
}

// ParseAccessToken verifies signature and expiry and returns the principal
// embedded in the token. The store is not consulted: the token stays valid
// for its full TTL regardless of later account changes.
func (s *AuthService) ParseAccessToken(tokenStr string) (*model.AuthUser, error) {
	claims := &authClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &model.AuthUser{
		ID:       userID,
		Username: claims.Username,
	}, nil
}

func (s *AuthService) issueToken(user *model.User) (string, error) {
	now := time.Now()
	claims := authClaims{
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

func hashPassword(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), passwordHashCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// verifyPassword reports whether plaintext matches the stored hash. A
// malformed hash counts as a mismatch, not an error.
func verifyPassword(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}

func validateCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" || password == "" {
		return ErrInvalidInput
	}
	return nil
}

func parseBool(value string, fallback bool) (bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	return strconv.ParseBool(value)
}
