package roles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shoebox/backoffice/internal/catalog"
	"github.com/shoebox/backoffice/internal/shared"
)

// Repository provides PostgreSQL backed persistence. The permission set is
// stored as a jsonb snapshot, not as foreign keys into the catalog.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var sortColumns = map[string]string{
	"name":       "name",
	"created_at": "created_at",
	"updated_at": "updated_at",
}

// ListRoles returns roles matching the filters plus the unfiltered total.
func (r *Repository) ListRoles(ctx context.Context, filters shared.ListFilters) ([]Role, int, error) {
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
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM roles WHERE ($1 = '%%' OR name ILIKE $1 OR description ILIKE $1)`, search).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, name, description, permissions, is_default, created_at, updated_at, created_by
		FROM roles
		WHERE ($1 = '%%%%' OR name ILIKE $1 OR description ILIKE $1)
		ORDER BY %s %s
		LIMIT $2 OFFSET $3`, column, direction)
	rows, err := r.pool.Query(ctx, query, search, filters.PerPage, filters.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var roles []Role
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, 0, err
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return roles, total, nil
}

// GetRole fetches a role by id.
func (r *Repository) GetRole(ctx context.Context, id int64) (Role, error) {
	row := r.pool.QueryRow(ctx, `SELECT id, name, description, permissions, is_default, created_at, updated_at, created_by FROM roles WHERE id = $1`, id)
	role, err := scanRole(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
		}
		return Role{}, err
	}
	return role, nil
}

// CreateRole inserts a new role with its permission snapshot.
func (r *Repository) CreateRole(ctx context.Context, role Role) (Role, error) {
	snapshot, err := json.Marshal(role.Permissions)
	if err != nil {
		return Role{}, err
	}
	err = r.pool.QueryRow(ctx, `INSERT INTO roles (name, description, permissions, is_default, created_at, updated_at, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`,
		role.Name, role.Description, snapshot, role.IsDefault, role.CreatedAt, role.UpdatedAt, role.CreatedBy,
	).Scan(&role.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return Role{}, fmt.Errorf("role name %q already exists: %w", role.Name, shared.ErrValidation)
		}
		return Role{}, err
	}
	return role, nil
}

// UpdateRole replaces the stored role fields.
func (r *Repository) UpdateRole(ctx context.Context, role Role) (Role, error) {
	snapshot, err := json.Marshal(role.Permissions)
	if err != nil {
		return Role{}, err
	}
	tag, err := r.pool.Exec(ctx, `UPDATE roles SET name = $2, description = $3, permissions = $4, updated_at = $5 WHERE id = $1`,
		role.ID, role.Name, role.Description, snapshot, role.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Role{}, fmt.Errorf("role name %q already exists: %w", role.Name, shared.ErrValidation)
		}
		return Role{}, err
	}
	if tag.RowsAffected() == 0 {
		return Role{}, fmt.Errorf("role %d: %w", role.ID, shared.ErrNotFound)
	}
	return role, nil
}

// DeleteRole removes a role by id.
func (r *Repository) DeleteRole(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (Role, error) {
	var role Role
	var snapshot []byte
	if err := row.Scan(&role.ID, &role.Name, &role.Description, &snapshot, &role.IsDefault, &role.CreatedAt, &role.UpdatedAt, &role.CreatedBy); err != nil {
		return Role{}, err
	}
	if len(snapshot) > 0 {
		var perms []catalog.Permission
		if err := json.Unmarshal(snapshot, &perms); err != nil {
			return Role{}, err
		}
		role.Permissions = perms
	}
	return role, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ RepositoryPort = (*Repository)(nil)
