package users

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoebox/backoffice/internal/roles"
	"github.com/shoebox/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed persistence. The assigned role is
// stored as a jsonb snapshot alongside its id; the id column exists only for
// the delete-time referential check, never for joins.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"first_name": "first_name",
	"last_name":  "last_name",
	"email":      "email",
	"status":     "status",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

const userColumns = `id, first_name, last_name, email, phone, avatar, status, role_id, role_snapshot, last_login, created_at, updated_at, created_by`

// ListUsers returns users matching the filters plus the matching total.
func (r *Repository) ListUsers(ctx context.Context, filters shared.ListFilters) ([]User, int, error) {
	column, ok := sortColumns[filters.SortBy]
	if !ok {
		column = "id"
	}
	direction := "ASC"
	if filters.SortDir == "desc" {
		direction = "DESC"
	}

	search := "%" + filters.Search + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE ($1 = '%%' OR first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1)`, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM users
		WHERE ($1 = '%%%%' OR first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1)
		ORDER BY %s %s
		LIMIT $2 OFFSET $3`, userColumns, column, direction)
	rows, err := r.pool.Query(ctx, query, search, filters.PerPage, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, user)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetUser fetches a user by id.
func (r *Repository) GetUser(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
		}
		return User{}, err
	}
	return user, nil
}

// GetUserByEmail fetches a user by email, case-insensitively.
func (r *Repository) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, fmt.Errorf("user %q: %w", email, shared.ErrNotFound)
		}
		return User{}, err
	}
	return user, nil
}

// CreateUser inserts a new account with its role snapshot.
func (r *Repository) CreateUser(ctx context.Context, user User) (User, error) {
	snapshot, err := json.Marshal(user.Role)
	if err != nil {
		return User{}, err
	}
	err = r.pool.QueryRow(ctx, `INSERT INTO users (first_name, last_name, email, phone, avatar, status, role_id, role_snapshot, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		user.FirstName, user.LastName, user.Email, user.Phone, user.Avatar, user.Status,
		user.Role.ID, snapshot, user.CreatedAt, user.UpdatedAt, user.CreatedBy,
	).Scan(&user.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("email %q already registered: %w", user.Email, shared.ErrValidation)
		}
		return User{}, err
	}
	return user, nil
}

// UpdateUser replaces the stored account fields.
func (r *Repository) UpdateUser(ctx context.Context, user User) (User, error) {
	snapshot, err := json.Marshal(user.Role)
	if err != nil {
		return User{}, err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE users SET first_name = $2, last_name = $3, email = $4, phone = $5, avatar = $6, status = $7, role_id = $8, role_snapshot = $9, last_login = $10, updated_at = $11 WHERE id = $1`,
		user.ID, user.FirstName, user.LastName, user.Email, user.Phone, user.Avatar, user.Status,
		user.Role.ID, snapshot, user.LastLogin, user.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("email %q already registered: %w", user.Email, shared.ErrValidation)
		}
		return User{}, err
	}
	if tag.RowsAffected() == 0 {
		return User{}, fmt.Errorf("user %d: %w", user.ID, shared.ErrNotFound)
	}
	return user, nil
}

// DeleteUser removes a user by id.
func (r *Repository) DeleteUser(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// CountUsersWithRole reports how many users hold the role id.
func (r *Repository) CountUsersWithRole(ctx context.Context, roleID int64) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func scanUser(row interface{ Scan(dest ...any) error }) (User, error) {
	var user User
	var roleID int64
	var snapshot []byte
	if err := row.Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Phone, &user.Avatar, &user.Status, &roleID, &snapshot, &user.LastLogin, &user.CreatedAt, &user.UpdatedAt, &user.CreatedBy); err != nil {
		return User{}, err
	}
	if len(snapshot) > 0 {
		var role roles.Role
		if err := json.Unmarshal(snapshot, &role); err != nil {
			return User{}, err
		}
		user.Role = role
	}
	return user, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ RepositoryPort = (*Repository)(nil)
