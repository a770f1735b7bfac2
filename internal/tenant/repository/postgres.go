package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prismtrack/backend/internal/tenant/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a tenant repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const tenantColumns = `id, org_id, name, admin_email, admin_password_hash, admin_api_key, created_by, is_active, created_at`

// GetByID returns the tenant for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE id = $1`, id)
	return scanTenant(row)
}

// GetByAdminEmail returns the tenant whose admin login is email, or nil if not found.
func (r *PostgresRepository) GetByAdminEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE admin_email = $1`, email)
	return scanTenant(row)
}

// GetActiveByOrgID returns the active tenant for orgID, or nil if absent or inactive.
func (r *PostgresRepository) GetActiveByOrgID(ctx context.Context, orgID string) (*domain.Tenant, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+tenantColumns+` FROM tenants WHERE org_id = $1 AND is_active`, orgID)
	return scanTenant(row)
}

// Create persists the tenant and registers its org id in org_registry in one
// transaction, so org ids stay unique across tenants, companies, and branches.
// Sets t.ID and t.CreatedAt on success.
func (r *PostgresRepository) Create(ctx context.Context, t *domain.Tenant) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO org_registry (org_id, kind) VALUES ($1, 'TENANT')`, t.OrgID); err != nil {
		return err
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO tenants (org_id, name, admin_email, admin_password_hash, admin_api_key, created_by, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		t.OrgID, t.Name, t.AdminEmail, t.AdminPasswordHash, t.AdminAPIKey, t.CreatedBy, t.IsActive,
	).Scan(&t.ID, &t.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Update updates the tenant's mutable fields (name, admin email, active flag).
func (r *PostgresRepository) Update(ctx context.Context, t *domain.Tenant) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE tenants SET name = $2, admin_email = $3, is_active = $4 WHERE id = $1`,
		t.ID, t.Name, t.AdminEmail, t.IsActive)
	return err
}

// List returns a page of tenants ordered by id, plus the total count.
func (r *PostgresRepository) List(ctx context.Context, skip, limit int) ([]*domain.Tenant, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+tenantColumns+` FROM tenants ORDER BY id OFFSET $1 LIMIT $2`, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Tenant
	for rows.Next() {
		t, err := scanTenantRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM tenants`).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenantRow(s rowScanner) (*domain.Tenant, error) {
	var t domain.Tenant
	err := s.Scan(&t.ID, &t.OrgID, &t.Name, &t.AdminEmail, &t.AdminPasswordHash,
		&t.AdminAPIKey, &t.CreatedBy, &t.IsActive, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func scanTenant(row *sql.Row) (*domain.Tenant, error) {
	t, err := scanTenantRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return t, nil
}
