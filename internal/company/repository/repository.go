package repository

import (
	"context"

	"prismtrack/backend/internal/company/domain"
)

// Repository defines persistence for companies.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Company, error)
	GetActiveByOrgID(ctx context.Context, orgID string) (*domain.Company, error)
	// Create persists the company and registers its org id in the shared
	// org registry in the same transaction. Sets c.ID and c.CreatedAt.
	Create(ctx context.Context, c *domain.Company) error
	Update(ctx context.Context, c *domain.Company) error
	ListActiveByTenant(ctx context.Context, tenantID int64, skip, limit int) ([]*domain.Company, int, error)
	// AllActiveByTenant returns every active company of the tenant, unpaged.
	// Used for visibility computation, which must see the whole subtree.
	AllActiveByTenant(ctx context.Context, tenantID int64) ([]*domain.Company, error)
}
