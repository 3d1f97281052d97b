package users

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shoebox/backoffice/internal/roles"
	"github.com/shoebox/backoffice/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	ListUsers(ctx context.Context, filters shared.ListFilters) ([]User, int, error)
	GetUser(ctx context.Context, id int64) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	CreateUser(ctx context.Context, user User) (User, error)
	UpdateUser(ctx context.Context, user User) (User, error)
	DeleteUser(ctx context.Context, id int64) error
	CountUsersWithRole(ctx context.Context, roleID int64) (int, error)
}

// RoleResolver fetches role definitions for snapshot embedding. Satisfied by
// the role registry service.
type RoleResolver interface {
	Get(ctx context.Context, id int64) (roles.Role, error)
}

// CreateUserInput carries fields for a new account.
type CreateUserInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Avatar    string
	RoleID    int64
	CreatedBy string
}

// UpdateUserInput carries a partial account update. Nil fields are left
// as-is. Providing RoleID re-embeds a fresh snapshot of that role.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Avatar    *string
	Status    *Status
	RoleID    *int64
}

// Service handles user directory business logic.
type Service struct {
	repo  RepositoryPort
	roles RoleResolver
	clock func() time.Time
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, roles RoleResolver) *Service {
	return &Service{
		repo:  repo,
		roles: roles,
		clock: func() time.Time { return time.Now().UTC() },
	}
}

// List returns users with paging metadata.
func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]User, shared.Pagination, error) {
	filters = filters.Normalize()
	items, total, err := s.repo.ListUsers(ctx, filters)
	if err != nil {
		return nil, shared.Pagination{}, err
	}
	return items, shared.NewPagination(filters.Page, filters.PerPage, total), nil
}

// Get fetches a user by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	return s.repo.GetUser(ctx, id)
}

// Create validates input, embeds a snapshot of the selected role, and stores
// a new account in active state.
func (s *Service) Create(ctx context.Context, input CreateUserInput) (User, error) {
	firstName := strings.TrimSpace(input.FirstName)
	lastName := strings.TrimSpace(input.LastName)
	email := strings.TrimSpace(input.Email)
	if firstName == "" {
		return User{}, fmt.Errorf("first name is required: %w", shared.ErrValidation)
	}
	if lastName == "" {
		return User{}, fmt.Errorf("last name is required: %w", shared.ErrValidation)
	}
	if err := validateEmail(email); err != nil {
		return User{}, err
	}

	role, err := s.roles.Get(ctx, input.RoleID)
	if err != nil {
		return User{}, err
	}

	now := s.clock()
	user := User{
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Phone:     strings.TrimSpace(input.Phone),
		Avatar:    strings.TrimSpace(input.Avatar),
		Status:    StatusActive,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
		CreatedBy: input.CreatedBy,
	}
	return s.repo.CreateUser(ctx, user)
}

// Update merges the provided fields into the stored account. A role change
// re-resolves the role and embeds a fresh snapshot.
func (s *Service) Update(ctx context.Context, id int64, input UpdateUserInput) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}

	if input.FirstName != nil {
		firstName := strings.TrimSpace(*input.FirstName)
		if firstName == "" {
			return User{}, fmt.Errorf("first name is required: %w", shared.ErrValidation)
		}
		user.FirstName = firstName
	}
	if input.LastName != nil {
		lastName := strings.TrimSpace(*input.LastName)
		if lastName == "" {
			return User{}, fmt.Errorf("last name is required: %w", shared.ErrValidation)
		}
		user.LastName = lastName
	}
	if input.Email != nil {
		email := strings.TrimSpace(*input.Email)
		if err := validateEmail(email); err != nil {
			return User{}, err
		}
		user.Email = email
	}
	if input.Phone != nil {
		user.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Avatar != nil {
		user.Avatar = strings.TrimSpace(*input.Avatar)
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return User{}, fmt.Errorf("unknown status %q: %w", *input.Status, shared.ErrValidation)
		}
		user.Status = *input.Status
	}
	if input.RoleID != nil {
		role, err := s.roles.Get(ctx, *input.RoleID)
		if err != nil {
			return User{}, err
		}
		user.Role = role
	}

	user.UpdatedAt = s.clock()
	return s.repo.UpdateUser(ctx, user)
}

// Delete removes a user unconditionally.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.DeleteUser(ctx, id)
}

// SetStatus updates only the status field. Setting the current status again
// is a plain update: updated_at still advances.
func (s *Service) SetStatus(ctx context.Context, id int64, status Status) (User, error) {
	if !status.Valid() {
		return User{}, fmt.Errorf("unknown status %q: %w", status, shared.ErrValidation)
	}
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	user.Status = status
	user.UpdatedAt = s.clock()
	return s.repo.UpdateUser(ctx, user)
}

// ToggleStatus applies the single toggle action to the user's current state.
func (s *Service) ToggleStatus(ctx context.Context, id int64) (User, error) {
	user, err := s.repo.GetUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	return s.SetStatus(ctx, id, user.Status.Toggled())
}

// RecordLogin stamps the last login time for the account matching email.
// Missing accounts are ignored: the credential table and the directory are
// separate populations.
func (s *Service) RecordLogin(ctx context.Context, email string, at time.Time) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return
	}
	user.LastLogin = &at
	user.UpdatedAt = s.clock()
	_, _ = s.repo.UpdateUser(ctx, user)
}

// FindByEmail returns the directory account matching email, if any.
func (s *Service) FindByEmail(ctx context.Context, email string) (User, error) {
	return s.repo.GetUserByEmail(ctx, email)
}

// CountWithRole reports how many users hold the role id as their active
// assignment. Exposed so the role registry can be composed with the
// directory for delete-time referential checks.
func (s *Service) CountUsersWithRole(ctx context.Context, roleID int64) (int, error) {
	return s.repo.CountUsersWithRole(ctx, roleID)
}

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email is required: %w", shared.ErrValidation)
	}
	if !strings.Contains(email, "@") {
		return fmt.Errorf("email %q is not valid: %w", email, shared.ErrValidation)
	}
	return nil
}
