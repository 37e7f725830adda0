package port

import (
	"context"
	"time"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
)

// AdminAccountRepository exposes the back-office account collaborator.
type AdminAccountRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.AdminAccount, error)
	GetByID(ctx context.Context, id string) (*domain.AdminAccount, error)
	Create(ctx context.Context, account domain.AdminAccount) error
	Delete(ctx context.Context, id string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
}
