package repository

import (
	"context"
	"time"

	"prismtrack/backend/internal/agent/domain"
	telemetrydomain "prismtrack/backend/internal/telemetry/domain"
)

// Repository defines persistence for telemetry records.
type Repository interface {
	// CreateBatch persists all records for the agent and advances the
	// agent's last_seen/status in one transaction: either every record in
	// the batch lands or none does. Returns the number of records written.
	CreateBatch(ctx context.Context, agentID int64, records []*telemetrydomain.Record, seenAt time.Time, status domain.AgentStatus) (int, error)
	// ListByAgent returns a page of the agent's records ordered by the
	// caller-supplied observation timestamp, plus the total count.
	ListByAgent(ctx context.Context, agentID int64, skip, limit int) ([]*telemetrydomain.Record, int, error)
}
