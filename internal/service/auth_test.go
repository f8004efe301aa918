package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/itemhub/backend/internal/config"
	"github.com/itemhub/backend/internal/db"
	"github.com/itemhub/backend/internal/model"
)

type fakeUserRepo struct {
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error) {
	if _, ok := f.users[username]; ok {
		return nil, db.ErrDuplicate
	}
	user := &model.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now(),
	}
	f.users[username] = user
	return user, nil
}

func (f *fakeUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	user, ok := f.users[username]
	if !ok {
		return nil, db.ErrNotFound
	}
	return user, nil
}

func newTestAuthService(t *testing.T, repo UserRepo, ttl string) *AuthService {
	t.Helper()
	svc, err := NewAuthService(repo, config.AuthConfig{JWTSecret: "test-secret", JWTTTL: ttl})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

func TestRegisterThenLogin(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, "1h")
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, username, err := svc.Login(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token == "" || username != "alice" {
		t.Fatalf("unexpected login result: %q %q", token, username)
	}

	user, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if user.Username != "alice" || user.ID != repo.users["alice"].ID {
		t.Fatalf("principal mismatch: %+v", user)
	}
}

func TestPasswordHashIsSalted(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, "1h")
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("register alice: %v", err)
	}
	if err := svc.Register(ctx, "bob", "pw1"); err != nil {
		t.Fatalf("register bob: %v", err)
	}

	aliceHash := repo.users["alice"].PasswordHash
	bobHash := repo.users["bob"].PasswordHash
	if aliceHash == "pw1" || aliceHash == bobHash {
		t.Fatalf("expected distinct salted hashes, got %q and %q", aliceHash, bobHash)
	}
	if !verifyPassword("pw1", aliceHash) {
		t.Fatalf("verify should succeed for the original password")
	}
	if verifyPassword("pw2", aliceHash) {
		t.Fatalf("verify should fail for a wrong password")
	}
	if verifyPassword("pw1", "not-a-bcrypt-hash") {
		t.Fatalf("verify should fail for a malformed hash")
	}
}

func TestRegisterDuplicate(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, "1h")
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := svc.Register(ctx, "alice", "pw2"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(repo.users) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(repo.users))
	}
}

func TestRegisterDuplicateRace(t *testing.T) {
	// The fast-path lookup can miss a concurrent insert; the store's unique
	// violation must still come back as a conflict.
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, "1h")
	ctx := context.Background()

	repo.users["alice"] = &model.User{ID: uuid.New(), Username: "alice"}
	raced := &racingUserRepo{inner: repo}
	svc.repo = raced

	if err := svc.Register(ctx, "alice", "pw1"); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict from unique violation, got %v", err)
	}
}

// racingUserRepo reports no user on lookup but still enforces uniqueness on
// insert, simulating a concurrent registration winning the race.
type racingUserRepo struct {
	inner *fakeUserRepo
}

func (r *racingUserRepo) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	return nil, db.ErrNotFound
}

func (r *racingUserRepo) CreateUser(ctx context.Context, username, passwordHash string) (*model.User, error) {
	return r.inner.CreateUser(ctx, username, passwordHash)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, "1h")
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, unknownErr := svc.Login(ctx, "nosuchuser", "pw1")
	_, _, wrongPwErr := svc.Login(ctx, "alice", "wrong")

	if !errors.Is(unknownErr, ErrInvalidCredentials) || !errors.Is(wrongPwErr, ErrInvalidCredentials) {
		t.Fatalf("expected identical ErrInvalidCredentials, got %v and %v", unknownErr, wrongPwErr)
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, "1h")
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := svc.Login(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	for _, pos := range []int{0, len(token) / 2, len(token) - 1} {
		flipped := byte('x')
		if token[pos] == flipped {
			flipped = 'y'
		}
		tampered := token[:pos] + string(flipped) + token[pos+1:]
		if _, err := svc.ParseAccessToken(tampered); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("tamper at %d: expected ErrInvalidToken, got %v", pos, err)
		}
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	repo := newFakeUserRepo()
	svc := newTestAuthService(t, repo, "1ms")
	ctx := context.Background()

	if err := svc.Register(ctx, "alice", "pw1"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := svc.Login(ctx, "alice", "pw1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := svc.ParseAccessToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken after expiry, got %v", err)
	}
}

func TestGarbageTokenRejected(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserRepo(), "1h")

	for _, tok := range []string{"", "garbage", "a.b.c", strings.Repeat("x", 512)} {
		if _, err := svc.ParseAccessToken(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestSecretRequiredUnlessDevOptIn(t *testing.T) {
	repo := newFakeUserRepo()

	if _, err := NewAuthService(repo, config.AuthConfig{JWTTTL: "1h"}); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured without JWT_SECRET, got %v", err)
	}

	svc, err := NewAuthService(repo, config.AuthConfig{JWTTTL: "1h", AllowDevSecret: "true"})
	if err != nil {
		t.Fatalf("dev opt-in should succeed: %v", err)
	}
	if string(svc.jwtSecret) != insecureDevSecret {
		t.Fatalf("expected dev secret fallback")
	}

	if _, err := NewAuthService(repo, config.AuthConfig{JWTSecret: "s", JWTTTL: "nope"}); !errors.Is(err, ErrMisconfigured) {
		t.Fatalf("expected ErrMisconfigured for bad TTL, got %v", err)
	}
}
