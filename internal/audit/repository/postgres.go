package repository

import (
	"context"
	"database/sql"

	"prismtrack/backend/internal/audit/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an audit log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts the audit entry. The entry must have ID set (UUID).
func (r *PostgresRepository) Create(ctx context.Context, e *domain.AuditLog) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO audit_logs (id, org_id, principal, action, resource, ip, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID, e.OrgID, e.Principal, e.Action, e.Resource, e.IP, e.Metadata, e.CreatedAt)
	return err
}

// ListByOrg returns a page of the org's audit entries, newest first.
func (r *PostgresRepository) ListByOrg(ctx context.Context, orgID string, skip, limit int) ([]*domain.AuditLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, org_id, principal, action, resource, ip, COALESCE(metadata, ''), created_at
		 FROM audit_logs
		 WHERE org_id = $1
		 ORDER BY created_at DESC OFFSET $2 LIMIT $3`, orgID, skip, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.AuditLog
	for rows.Next() {
		var e domain.AuditLog
		if err := rows.Scan(&e.ID, &e.OrgID, &e.Principal, &e.Action, &e.Resource,
			&e.IP, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}
