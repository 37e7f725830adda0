package port

import (
	"context"
	"time"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
)

// CustomerAccountRepository exposes the customer portal account collaborator.
type CustomerAccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.CustomerAccount, error)
	GetByID(ctx context.Context, id string) (*domain.CustomerAccount, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
