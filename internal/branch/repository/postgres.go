package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"prismtrack/backend/internal/branch/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a branch repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const branchColumns = `id, company_id, org_id, name, COALESCE(location, ''), is_active, created_at`

// GetByID returns the branch for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Branch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+branchColumns+` FROM branches WHERE id = $1`, id)
	return scanBranch(row)
}

// GetActiveByOrgID returns the active branch for orgID, or nil if absent or inactive.
func (r *PostgresRepository) GetActiveByOrgID(ctx context.Context, orgID string) (*domain.Branch, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+branchColumns+` FROM branches WHERE org_id = $1 AND is_active`, orgID)
	return scanBranch(row)
}

// Create persists the branch and registers its org id in org_registry in one
// transaction. Sets b.ID and b.CreatedAt on success.
func (r *PostgresRepository) Create(ctx context.Context, b *domain.Branch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO org_registry (org_id, kind) VALUES ($1, 'BRANCH')`, b.OrgID); err != nil {
		return err
	}
	err = tx.QueryRowContext(ctx,
		`INSERT INTO branches (company_id, org_id, name, location, is_active)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5)
		 RETURNING id, created_at`,
		b.CompanyID, b.OrgID, b.Name, b.Location, b.IsActive,
	).Scan(&b.ID, &b.CreatedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

// Update updates the branch's name, location, and active flag.
func (r *PostgresRepository) Update(ctx context.Context, b *domain.Branch) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE branches SET name = $2, location = NULLIF($3, ''), is_active = $4 WHERE id = $1`,
		b.ID, b.Name, b.Location, b.IsActive)
	return err
}

// ListActiveByCompany returns a page of the company's active branches ordered
// by id, plus the total count.
func (r *PostgresRepository) ListActiveByCompany(ctx context.Context, companyID int64, skip, limit int) ([]*domain.Branch, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+branchColumns+` FROM branches
		 WHERE company_id = $1 AND is_active
		 ORDER BY id OFFSET $2 LIMIT $3`, companyID, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Branch
	for rows.Next() {
		b, err := scanBranchRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM branches WHERE company_id = $1 AND is_active`, companyID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// AllActiveByTenant returns all active branches of the tenant's active companies.
func (r *PostgresRepository) AllActiveByTenant(ctx context.Context, tenantID int64) ([]*domain.Branch, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT b.id, b.company_id, b.org_id, b.name, COALESCE(b.location, ''), b.is_active, b.created_at
		 FROM branches b
		 JOIN companies c ON c.id = b.company_id
		 WHERE c.tenant_id = $1 AND c.is_active AND b.is_active
		 ORDER BY b.id`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Branch
	for rows.Next() {
		b, err := scanBranchRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBranchRow(s rowScanner) (*domain.Branch, error) {
	var b domain.Branch
	if err := s.Scan(&b.ID, &b.CompanyID, &b.OrgID, &b.Name, &b.Location, &b.IsActive, &b.CreatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}

func scanBranch(row *sql.Row) (*domain.Branch, error) {
	b, err := scanBranchRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return b, nil
}
