package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/repository"
)

const roleTable = "gateway.dynamic_roles"

var roleColumns = []string{
	"id",
	"slug",
	"name",
	"email",
	"permissions",
}

// DynamicRoleRepository implements port.DynamicRoleRepository using PostgreSQL.
// Permission sets are stored as JSONB.
type DynamicRoleRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewDynamicRoleRepository wires a PostgreSQL-backed dynamic role repository.
func NewDynamicRoleRepository(pool *pgxpool.Pool) *DynamicRoleRepository {
	return &DynamicRoleRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// List returns every dynamic role.
func (r *DynamicRoleRepository) List(ctx context.Context) ([]domain.DynamicRole, error) {
	stmt, args, err := r.builder.
		Select(roleColumns...).
		From(roleTable).
		OrderBy("slug").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select roles sql: %w", err)
	}

	rows, err := r.pool.Query(ctx, stmt, args...)
	if err != nil {
		return nil, fmt.Errorf("query dynamic roles: %w", err)
	}
	defer rows.Close()

	var roles []domain.DynamicRole
	for rows.Next() {
		role, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		roles = append(roles, *role)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dynamic roles: %w", err)
	}

	return roles, nil
}

// GetByID retrieves a dynamic role by identifier.
func (r *DynamicRoleRepository) GetByID(ctx context.Context, id string) (*domain.DynamicRole, error) {
	return r.getWhere(ctx, squirrel.Eq{"id": id})
}

// GetBySlug retrieves a dynamic role by its canonical slug.
func (r *DynamicRoleRepository) GetBySlug(ctx context.Context, slug string) (*domain.DynamicRole, error) {
	return r.getWhere(ctx, squirrel.Eq{"slug": slug})
}

// Create inserts a new dynamic role row.
func (r *DynamicRoleRepository) Create(ctx context.Context, role domain.DynamicRole) error {
	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}

	stmt, args, err := r.builder.
		Insert(roleTable).
		Columns(roleColumns...).
		Values(role.ID, role.Slug, role.Name, role.Email, permissions).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert role sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert dynamic role: %w", err)
	}

	return nil
}

// Update replaces the mutable fields of a dynamic role.
func (r *DynamicRoleRepository) Update(ctx context.Context, role domain.DynamicRole) error {
	permissions, err := json.Marshal(role.Permissions)
	if err != nil {
		return fmt.Errorf("marshal permissions: %w", err)
	}

	stmt, args, err := r.builder.
		Update(roleTable).
		Set("name", role.Name).
		Set("email", role.Email).
		Set("permissions", permissions).
		Where(squirrel.Eq{"id": role.ID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update role sql: %w", err)
	}

	tag, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("update dynamic role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Delete removes a dynamic role row.
func (r *DynamicRoleRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete(roleTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete role sql: %w", err)
	}

	tag, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete dynamic role: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *DynamicRoleRepository) getWhere(ctx context.Context, pred squirrel.Eq) (*domain.DynamicRole, error) {
	stmt, args, err := r.builder.
		Select(roleColumns...).
		From(roleTable).
		Where(pred).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select role sql: %w", err)
	}

	role, err := scanRole(r.pool.QueryRow(ctx, stmt, args...))
	if err != nil {
		return nil, err
	}

	return role, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRole(row rowScanner) (*domain.DynamicRole, error) {
	var (
		role        domain.DynamicRole
		permissions []byte
	)

	if err := row.Scan(&role.ID, &role.Slug, &role.Name, &role.Email, &permissions); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan dynamic role: %w", err)
	}

	if len(permissions) > 0 {
		if err := json.Unmarshal(permissions, &role.Permissions); err != nil {
			return nil, fmt.Errorf("unmarshal permissions: %w", err)
		}
	}

	return &role, nil
}
