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

const customerTable = "gateway.customer_accounts"

var customerColumns = []string{
	"id",
	"email",
	"name",
	"password_hash",
	"is_active",
	"created_at",
	"last_login",
}

// CustomerAccountRepository implements port.CustomerAccountRepository using PostgreSQL.
type CustomerAccountRepository struct {
	pool    *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

// NewCustomerAccountRepository wires a PostgreSQL-backed customer repository.
func NewCustomerAccountRepository(pool *pgxpool.Pool) *CustomerAccountRepository {
	return &CustomerAccountRepository{
		pool:    pool,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetByEmail retrieves a customer account by login email.
func (r *CustomerAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error) {
	stmt, args, err := r.builder.
		Select(customerColumns...).
		From(customerTable).
		Where(squirrel.Eq{"email": strings.ToLower(strings.TrimSpace(email))}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select customer sql: %w", err)
	}

	return r.scanOne(ctx, stmt, args)
}

// GetByID retrieves a customer account by identifier.
func (r *CustomerAccountRepository) GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error) {
	stmt, args, err := r.builder.
		Select(customerColumns...).
		From(customerTable).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select customer sql: %w", err)
	}

	return r.scanOne(ctx, stmt, args)
}

// TouchLastLogin records the timestamp of a successful login.
func (r *CustomerAccountRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	stmt, args, err := r.builder.
		Update(customerTable).
		Set("last_login", at).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build update customer sql: %w", err)
	}

	if _, err := r.pool.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("update customer last login: %w", err)
	}

	return nil
}

func (r *CustomerAccountRepository) scanOne(ctx context.Context, stmt string, args []any) (*domain.CustomerAccount, error) {
	row := r.pool.QueryRow(ctx, stmt, args...)

	var (
		account   domain.CustomerAccount
		lastLogin *time.Time
	)

	if err := row.Scan(
		&account.ID,
		&account.Email,
		&account.Name,
		&account.PasswordHash,
		&account.IsActive,
		&account.CreatedAt,
		&lastLogin,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan customer account: %w", err)
	}

	account.LastLogin = lastLogin
	return &account, nil
}
