package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
	"github.com/husnainn01/dealership-gateway/internal/repository"
)

const adminTable = "gateway.admin_accounts"

var adminColumns = []string{
	"id",
	"email",
	"name",
	"password_hash",
	"role",
	"is_active",
	"created_at",
	"last_login",
}

// AdminAccountRepository implements port.AdminAccountRepository using PostgreSQL.
type AdminAccountRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewAdminAccountRepository wires a PostgreSQL-backed admin account repository.
func NewAdminAccountRepository(pool *pgxpool.Pool) *AdminAccountRepository {
	return &AdminAccountRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByEmail retrieves an admin account by login email.
func (r *AdminAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.AdminAccount, error) {
	stmt, args, err := r.builder.
		Select(adminColumns...).
		From(adminTable).
		Where(squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select admin sql: %w", err)
	}

	return r.scanOne(ctx, stmt, args)
}

// GetByID retrieves an admin account by identifier.
func (r *AdminAccountRepository) GetByID(ctx context.Context, id string) (*domain.AdminAccount, error) {
	stmt, args, err := r.builder.
		Select(adminColumns...).
		From(adminTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select admin sql: %w", err)
	}

	return r.scanOne(ctx, stmt, args)
}

// Create inserts a new admin account row.
func (r *AdminAccountRepository) Create(ctx context.Context, account domain.AdminAccount) error {
	stmt, args, err := r.builder.
		Insert(adminTable).
		Columns(adminColumns...).
		Values(
			account.ID,
			strings.ToLower(strings.TrimSpace(account.Email)),
			account.Name,
			account.PasswordHash,
			account.Role,
			account.IsActive,
			account.CreatedAt,
			account.LastLogin,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert admin sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert admin account: %w", err)
	}

	return nil
}

// Delete removes an admin account row.
func (r *AdminAccountRepository) Delete(ctx context.Context, id string) error {
	stmt, args, err := r.builder.
		Delete(adminTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete admin sql: %w", err)
	}

	tag, err := r.pool.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("delete admin account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// TouchLastLogin records the timestamp of a successful login.
func (r *AdminAccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.
		Update(adminTable).
		Set("last_login", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update admin sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("update admin last login: %w", err)
	}

	return nil
}

func (r *AdminAccountRepository) scanOne(ctx context.Context, stmt string, args []any) (*domain.AdminAccount, error) {
	row := r.pool.QueryRow(ctx, stmt, args...)

	var (
		account   domain.AdminAccount
		lastLogin *time.Time
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.Role,
		&account.IsActive,
		&account.CreatedAt,
		&lastLogin,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan admin account: %w", err)
	}

	account.LastLogin = lastLogin
	return &account, nil
}
