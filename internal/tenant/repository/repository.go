package repository

import (
	"context"

	"prismtrack/backend/internal/tenant/domain"
)

// Repository defines persistence for tenants.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Tenant, error)
	GetByAdminEmail(ctx context.Context, email string) (*domain.Tenant, error)
	GetActiveByOrgID(ctx context.Context, orgID string) (*domain.Tenant, error)
	// Create persists the tenant and registers its org id in the shared
	// org registry in the same transaction. Sets t.ID and t.CreatedAt.
	Create(ctx context.Context, t *domain.Tenant) error
	Update(ctx context.Context, t *domain.Tenant) error
	List(ctx context.Context, skip, limit int) ([]*domain.Tenant, int, error)
}
