package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	agentdomain "prismtrack/backend/internal/agent/domain"
	"prismtrack/backend/internal/telemetry/domain"
)

type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository returns a telemetry repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// CreateBatch persists all records and the agent liveness update in a single
// transaction. A failure on any record rolls back the whole batch.
func (r *PostgresRepository) CreateBatch(ctx context.Context, agentID int64, records []*domain.Record, seenAt time.Time, status agentdomain.AgentStatus) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO telemetry (agent_id, window_title, process_name, ts, is_idle, screenshot_url)
		 VALUES ($1, $2, $3, $4, $5, $6)`)
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx,
			agentID, rec.WindowTitle, rec.ProcessName, rec.Timestamp, rec.IsIdle, rec.ScreenshotURL); err != nil {
			return 0, err
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE agents SET last_seen = $2, status = $3 WHERE id = $1`,
		agentID, seenAt, string(status)); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(records), nil
}

// ListByAgent returns a page of the agent's records ordered by observation
// timestamp, plus the total count.
func (r *PostgresRepository) ListByAgent(ctx context.Context, agentID int64, skip, limit int) ([]*domain.Record, int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, agent_id, window_title, process_name, ts, is_idle, screenshot_url, created_at
		 FROM telemetry
		 WHERE agent_id = $1
		 ORDER BY ts OFFSET $2 LIMIT $3`, agentID, skip, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*domain.Record
	for rows.Next() {
		var rec domain.Record
		if err := rows.Scan(&rec.ID, &rec.AgentID, &rec.WindowTitle, &rec.ProcessName,
			&rec.Timestamp, &rec.IsIdle, &rec.ScreenshotURL, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM telemetry WHERE agent_id = $1`, agentID).Scan(&total); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
