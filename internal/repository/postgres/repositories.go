package postgres

import "github.com/jackc/pgx/v5/pgxpool"

// Repositories groups concrete PostgreSQL repository implementations.
type Repositories struct {
	Admins    *AdminAccountRepository
	Customers *CustomerAccountRepository
	Roles     *DynamicRoleRepository
}

// NewRepositories wires all repositories backed by the provided pool.
func NewRepositories(pool *pgxpool.Pool) *Repositories {
	return &Repositories{
		Admins:    NewAdminAccountRepository(pool),
		Customers: NewCustomerAccountRepository(pool),
		Roles:     NewDynamicRoleRepository(pool),
	}
}
