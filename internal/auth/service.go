package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/shoebox/backoffice/internal/authz"
	"github.com/shoebox/backoffice/internal/shared"
	"github.com/shoebox/backoffice/internal/users"
)

// DirectoryPort resolves the directory profile behind a credential so the
// identity carries the user's role grants.
type DirectoryPort interface {
	FindByEmail(ctx context.Context, email string) (users.User, error)
	RecordLogin(ctx context.Context, email string, at time.Time)
}

// Service authenticates credentials and manages session records.
type Service struct {
	credentials *CredentialTable
	directory   DirectoryPort
	limiter     *LoginLimiter
	repo        Repository
	logger      *slog.Logger
	clock       func() time.Time
}

// NewService constructs the authentication service. The directory and
// repository are optional; without them identities carry no grants and session
// rows are not recorded.
func NewService(credentials *CredentialTable, directory DirectoryPort, limiter *LoginLimiter, repo Repository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		credentials: credentials,
		directory:   directory,
		limiter:     limiter,
		repo:        repo,
		logger:      logger,
		clock:       time.Now,
	}
}

// Authenticate verifies the email and password pair and returns the resolved
// identity. Failures count toward the login lockout window.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*authz.Identity, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("authenticate: %w", shared.ErrInvalidCredentials)
	}

	if s.limiter.Locked(ctx, email) {
		return nil, fmt.Errorf("authenticate: %w", shared.ErrLoginLocked)
	}

	cred, ok := s.credentials.Lookup(email)
	if !ok {
		s.limiter.RecordFailure(ctx, email)
		return nil, fmt.Errorf("authenticate: %w", shared.ErrInvalidCredentials)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		s.limiter.RecordFailure(ctx, email)
		return nil, fmt.Errorf("authenticate: %w", shared.ErrInvalidCredentials)
	}

	s.limiter.Reset(ctx, email)

	identity := &authz.Identity{
		Email:    cred.Email,
		Name:     cred.Name,
		Role:     cred.Role,
		RoleName: string(cred.Role),
	}

	if s.directory != nil {
		user, err := s.directory.FindByEmail(ctx, email)
		switch {
		case err == nil:
			identity.UserID = user.ID
			identity.Name = user.FullName()
			identity.RoleName = user.Role.Name
			identity.Grants = user.Role.Grants()
			s.directory.RecordLogin(ctx, email, s.clock().UTC())
		case errors.Is(err, shared.ErrNotFound):
			// Credential without a directory profile signs in with no grants.
		default:
			s.logger.Warn("directory lookup failed", slog.String("email", email), slog.Any("error", err))
		}
	}

	return identity, nil
}

// RegisterSession records a session row for the audit trail.
func (s *Service) RegisterSession(ctx context.Context, sessionID, email string, ttl time.Duration, ip, ua string) {
	if s.repo == nil || sessionID == "" {
		return
	}
	expires := s.clock().UTC().Add(ttl)
	if err := s.repo.CreateSession(ctx, sessionID, email, expires, ip, ua); err != nil {
		s.logger.Warn("register session failed", slog.Any("error", err))
	}
}

// RemoveSession deletes the session row on logout.
func (s *Service) RemoveSession(ctx context.Context, sessionID string) {
	if s.repo == nil || sessionID == "" {
		return
	}
	if err := s.repo.DeleteSession(ctx, sessionID); err != nil {
		s.logger.Warn("remove session failed", slog.Any("error", err))
	}
}

// PurgeExpiredSessions removes session rows past their expiry.
func (s *Service) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	if s.repo == nil {
		return 0, nil
	}
	return s.repo.DeleteExpiredSessions(ctx, s.clock().UTC())
}

