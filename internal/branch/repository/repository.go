package repository

import (
	"context"

	"prismtrack/backend/internal/branch/domain"
)

// Repository defines persistence for branches.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Branch, error)
	GetActiveByOrgID(ctx context.Context, orgID string) (*domain.Branch, error)
	// Create persists the branch and registers its org id in the shared
	// org registry in the same transaction. Sets b.ID and b.CreatedAt.
	Create(ctx context.Context, b *domain.Branch) error
	Update(ctx context.Context, b *domain.Branch) error
	ListActiveByCompany(ctx context.Context, companyID int64, skip, limit int) ([]*domain.Branch, int, error)
	// AllActiveByTenant returns active branches whose owning company is
	// active and belongs to the tenant. Used for visibility computation.
	AllActiveByTenant(ctx context.Context, tenantID int64) ([]*domain.Branch, error)
}
