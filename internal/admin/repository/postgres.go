package repository

import (
	"context"
	"database/sql"
	"errors"

	"prismtrack/backend/internal/admin/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a platform admin repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const adminColumns = `id, username, email, password_hash, is_active, created_at`

// GetByID returns the platform admin for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.PlatformAdmin, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+adminColumns+` FROM platform_admins WHERE id = $1`, id)
	return scanAdmin(row)
}

// GetByLogin returns the platform admin whose username or email is login, or nil if not found.
func (r *PostgresRepository) GetByLogin(ctx context.Context, login string) (*domain.PlatformAdmin, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+adminColumns+` FROM platform_admins WHERE username = $1 OR email = $1`, login)
	return scanAdmin(row)
}

// Create inserts the platform admin. Sets a.ID and a.CreatedAt on success.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.PlatformAdmin) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO platform_admins (username, email, password_hash, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		a.Username, a.Email, a.PasswordHash, a.IsActive,
	).Scan(&a.ID, &a.CreatedAt)
}

func scanAdmin(row *sql.Row) (*domain.PlatformAdmin, error) {
	var a domain.PlatformAdmin
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
