package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prismtrack/backend/internal/company/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a company repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const companyColumns = `id, tenant_id, org_id, name, is_active, created_at`

// GetByID returns the company for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE id = $1`, id)
	return scanCompany(row)
}

// GetActiveByOrgID returns the active company for orgID, or nil if absent or inactive.
func (r *PostgresRepository) GetActiveByOrgID(ctx context.Context, orgID string) (*domain.Company, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+companyColumns+` FROM companies WHERE org_id = $1 AND is_active`, orgID)
	return scanCompany(row)
}

// Create persists the company and registers its org id in org_registry in one
// transaction. Sets c.ID and c.CreatedAt on success.
func (r *PostgresRepository) Create(ctx context.Context, c *domain.Company) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO org_registry (org_id, kind) VALUES ($1, 'COMPANY')`, c.OrgID); err != nil {
		return err
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO companies (tenant_id, org_id, name, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		c.TenantID, c.OrgID, c.Name, c.IsActive,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Update updates the company's name and active flag.
func (r *PostgresRepository) Update(ctx context.Context, c *domain.Company) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE companies SET name = $2, is_active = $3 WHERE id = $1`,
		c.ID, c.Name, c.IsActive)
	return err
}

// ListActiveByTenant returns a page of the tenant's active companies ordered
// by id, plus the total count of active companies.
func (r *PostgresRepository) ListActiveByTenant(ctx context.Context, tenantID int64, skip, limit int) ([]*domain.Company, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies
		 WHERE tenant_id = $1 AND is_active
		 ORDER BY id OFFSET $2 LIMIT $3`, tenantID, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Company
	for rows.Next() {
		c, err := scanCompanyRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM companies WHERE tenant_id = $1 AND is_active`, tenantID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllActiveByTenant returns every active company of the tenant, unpaged.
func (r *PostgresRepository) AllActiveByTenant(ctx context.Context, tenantID int64) ([]*domain.Company, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+companyColumns+` FROM companies
		 WHERE tenant_id = $1 AND is_active
		 ORDER BY id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Company
	for rows.Next() {
		c, err := scanCompanyRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCompanyRow(s rowScanner) (*domain.Company, error) {
	var c domain.Company
	if err := s.Scan(&c.ID, &c.TenantID, &c.OrgID, &c.Name, &c.IsActive, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

func scanCompany(row *sql.Row) (*domain.Company, error) {
	c, err := scanCompanyRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}
