package repository

import (
	"context"

	"prismtrack/backend/internal/audit/domain"
)

// Repository defines persistence for audit log entries.
type Repository interface {
	Create(ctx context.Context, e *domain.AuditLog) error
	ListByOrg(ctx context.Context, orgID string, skip, limit int) ([]*domain.AuditLog, error)
}
