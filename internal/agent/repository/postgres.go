package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"prismtrack/backend/internal/agent/domain"
	hierarchydomain "prismtrack/backend/internal/hierarchy/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns an agent repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const agentColumns = `id, org_id, org_kind, machine_name, hardware_uuid, agent_token, status, last_seen, registered_at`

// GetByID returns the agent for id, or nil if not found.
// It returns an error only for database failures, not for missing rows.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE id = $1`, id)
	return scanAgent(row)
}

// GetByHardwareUUID returns the agent for the hardware fingerprint, or nil if not found.
func (r *PostgresRepository) GetByHardwareUUID(ctx context.Context, hardwareUUID string) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE hardware_uuid = $1`, hardwareUUID)
	return scanAgent(row)
}

// GetByToken returns the agent holding the bearer token, or nil if not found.
func (r *PostgresRepository) GetByToken(ctx context.Context, token string) (*domain.Agent, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+agentColumns+` FROM agents WHERE agent_token = $1`, token)
	return scanAgent(row)
}

// Create inserts the agent. Sets a.ID and a.RegisteredAt on success. Unique
// violations on hardware_uuid or agent_token surface as pgconn errors for the
// service to inspect.
func (r *PostgresRepository) Create(ctx context.Context, a *domain.Agent) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO agents (org_id, org_kind, machine_name, hardware_uuid, agent_token, status, last_seen)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, registered_at`,
		a.OrgID, string(a.OrgKind), a.MachineName, a.HardwareUUID, a.AgentToken, string(a.Status), a.LastSeen,
	).Scan(&a.ID, &a.RegisteredAt)
}

// Update rewrites the mutable registration fields for a.ID.
func (r *PostgresRepository) Update(ctx context.Context, a *domain.Agent) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE agents SET org_id = $2, org_kind = $3, machine_name = $4, status = $5, last_seen = $6
		 WHERE id = $1`,
		a.ID, a.OrgID, string(a.OrgKind), a.MachineName, string(a.Status), a.LastSeen)
	return err
}

// Touch sets last_seen and status for the given agent id.
func (r *PostgresRepository) Touch(ctx context.Context, id int64, at time.Time, status domain.AgentStatus) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE agents SET last_seen = $2, status = $3 WHERE id = $1`,
		id, at, string(status))
	return err
}

// List returns a page of agents matching the filter ordered by id, plus the
// total count of matches. An empty filter lists everything.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) ([]*domain.Agent, int, error) {
	where := ""
	args := []any{}
	switch {
	case len(f.OrgIDs) > 0:
		args = append(args, f.OrgIDs)
		where = fmt.Sprintf(" WHERE org_id = ANY($%d)", len(args))
	case f.OrgID != "":
		args = append(args, f.OrgID)
		where = fmt.Sprintf(" WHERE org_id = $%d", len(args))
	}

	countArgs := make([]any, len(args))
	copy(countArgs, args)

	args = append(args, f.Skip)
	skipArg := len(args)
	args = append(args, f.Limit)
	limitArg := len(args)

	query := `SELECT ` + agentColumns + ` FROM agents` + where +
		fmt.Sprintf(` ORDER BY id OFFSET $%d LIMIT $%d`, skipArg, limitArg)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Agent
	for rows.Next() {
		a, err := scanAgentRow(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM agents`+where, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgentRow(s rowScanner) (*domain.Agent, error) {
	var a domain.Agent
	var kind, status string
	err := s.Scan(&a.ID, &a.OrgID, &kind, &a.MachineName, &a.HardwareUUID,
		&a.AgentToken, &status, &a.LastSeen, &a.RegisteredAt)
	if err != nil {
		return nil, err
	}
	a.OrgKind = hierarchydomain.OrgKind(kind)
	a.Status = domain.AgentStatus(status)
	return &a, nil
}

func scanAgent(row *sql.Row) (*domain.Agent, error) {
	a, err := scanAgentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return a, nil
}
