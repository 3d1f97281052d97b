package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/shoebox/backoffice/internal/authz"
	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/roles"
	"github.com/shoebox/backoffice/internal/shared"
	"github.com/shoebox/backoffice/internal/users"
)

type stubDirectory struct {
	user      *users.User
	lastLogin time.Time
}

func (s *stubDirectory) FindByEmail(ctx context.Context, email string) (users.User, error) {
	if s.user == nil {
		return users.User{}, shared.ErrNotFound
	}
	return *s.user, nil
}

func (s *stubDirectory) RecordLogin(ctx context.Context, email string, at time.Time) {
	s.lastLogin = at
}

func newLimiter(t *testing.T, maxAttempts int) *LoginLimiter {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewLoginLimiter(client, maxAttempts, time.Minute)
}

func directoryUser() *users.User {
	return &users.User{
		ID:        9,
		FirstName: "Admin",
		LastName:  "User",
		Email:     "admin@shoebox.com",
		Status:    users.StatusActive,
		Role: roles.Role{
			ID:          1,
			Name:        "Administrator",
			Permissions: catalog.Seed(),
		},
	}
}

func TestAuthenticateSuccessEnrichesIdentity(t *testing.T) {
	directory := &stubDirectory{user: directoryUser()}
	svc := NewService(NewCredentialTable(DemoCredentials()), directory, newLimiter(t, 5), nil, nil)

	identity, err := svc.Authenticate(context.Background(), "admin@shoebox.com", "admin123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if identity.UserID != 9 {
		t.Fatalf("expected directory user id, got %d", identity.UserID)
	}
	if identity.Role != authz.RoleAdmin {
		t.Fatalf("expected admin coarse role, got %s", identity.Role)
	}
	if identity.RoleName != "Administrator" {
		t.Fatalf("expected directory role name, got %q", identity.RoleName)
	}
	if len(identity.Grants) != len(catalog.Seed()) {
		t.Fatalf("expected grants from directory snapshot, got %d", len(identity.Grants))
	}
	if directory.lastLogin.IsZero() {
		t.Fatal("expected last login to be recorded")
	}
}

func TestAuthenticateCaseInsensitiveEmail(t *testing.T) {
	svc := NewService(NewCredentialTable(DemoCredentials()), nil, newLimiter(t, 5), nil, nil)

	if _, err := svc.Authenticate(context.Background(), "  ADMIN@shoebox.com ", "admin123"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
}

func TestAuthenticateWithoutDirectoryProfile(t *testing.T) {
	svc := NewService(NewCredentialTable(DemoCredentials()), &stubDirectory{}, newLimiter(t, 5), nil, nil)

	identity, err := svc.Authenticate(context.Background(), "staff@shoebox.com", "staff123")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if len(identity.Grants) != 0 {
		t.Fatal("credential without directory profile must carry no grants")
	}
	if identity.Role != authz.RoleStaff {
		t.Fatalf("expected staff coarse role, got %s", identity.Role)
	}
}

func TestAuthenticateWrongPassword(t *testing.T) {
	svc := NewService(NewCredentialTable(DemoCredentials()), nil, newLimiter(t, 5), nil, nil)

	_, err := svc.Authenticate(context.Background(), "admin@shoebox.com", "wrong")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateUnknownEmail(t *testing.T) {
	svc := NewService(NewCredentialTable(DemoCredentials()), nil, newLimiter(t, 5), nil, nil)

	_, err := svc.Authenticate(context.Background(), "ghost@shoebox.com", "whatever")
	if !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthenticateEmptyInput(t *testing.T) {
	svc := NewService(NewCredentialTable(DemoCredentials()), nil, nil, nil, nil)

	if _, err := svc.Authenticate(context.Background(), "", "admin123"); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty email, got %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), "admin@shoebox.com", ""); !errors.Is(err, shared.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

func TestAuthenticateLockout(t *testing.T) {
	svc := NewService(NewCredentialTable(DemoCredentials()), nil, newLimiter(t, 3), nil, nil)

	for i := 0; i < 3; i++ {
		if _, err := svc.Authenticate(context.Background(), "admin@shoebox.com", "wrong"); !errors.Is(err, shared.ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// Even the correct password is refused while locked.
	_, err := svc.Authenticate(context.Background(), "admin@shoebox.com", "admin123")
	if !errors.Is(err, shared.ErrLoginLocked) {
		t.Fatalf("expected ErrLoginLocked, got %v", err)
	}
}

func TestAuthenticateResetsCounterOnSuccess(t *testing.T) {
	svc := NewService(NewCredentialTable(DemoCredentials()), nil, newLimiter(t, 3), nil, nil)

	for i := 0; i < 2; i++ {
		_, _ = svc.Authenticate(context.Background(), "admin@shoebox.com", "wrong")
	}
	if _, err := svc.Authenticate(context.Background(), "admin@shoebox.com", "admin123"); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	// The earlier failures must be forgotten.
	for i := 0; i < 2; i++ {
		_, _ = svc.Authenticate(context.Background(), "admin@shoebox.com", "wrong")
	}
	if _, err := svc.Authenticate(context.Background(), "admin@shoebox.com", "admin123"); err != nil {
		t.Fatalf("authenticate after reset: %v", err)
	}
}

func TestLimiterDisabledWithoutRedis(t *testing.T) {
	svc := NewService(NewCredentialTable(DemoCredentials()), nil, nil, nil, nil)

	for i := 0; i < 10; i++ {
		_, _ = svc.Authenticate(context.Background(), "admin@shoebox.com", "wrong")
	}
	if _, err := svc.Authenticate(context.Background(), "admin@shoebox.com", "admin123"); err != nil {
		t.Fatalf("authenticate without limiter: %v", err)
	}
}
