package port

import (
	"context"

	"github.com/husnainn01/dealership-gateway/internal/core/domain"
)

// DynamicRoleRepository handles operator-defined role records.
type DynamicRoleRepository interface {
	List(ctx context.Context) ([]domain.DynamicRole, error)
	GetByID(ctx context.Context, id string) (*domain.DynamicRole, error)
	GetBySlug(ctx context.Context, slug string) (*domain.DynamicRole, error)
	Create(ctx context.Context, role domain.DynamicRole) error
	Update(ctx context.Context, role domain.DynamicRole) error
	Delete(ctx context.Context, id string) error
}
