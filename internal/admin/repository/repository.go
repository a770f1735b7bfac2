package repository

import (
	"context"

	"prismtrack/backend/internal/admin/domain"
)

// Repository defines persistence for platform admins.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.PlatformAdmin, error)
	// GetByLogin matches username or email (admins log in with either).
	GetByLogin(ctx context.Context, login string) (*domain.PlatformAdmin, error)
	Create(ctx context.Context, a *domain.PlatformAdmin) error
}
