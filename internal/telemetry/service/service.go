// Package service implements telemetry batch ingestion and reads.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	agentdomain "prismtrack/backend/internal/agent/domain"
	"prismtrack/backend/internal/events"
	"prismtrack/backend/internal/telemetry/domain"
	"prismtrack/backend/internal/telemetry/repository"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	// ErrTokenMismatch means the batch body named a different agent token
	// than the one that authenticated the call.
	ErrTokenMismatch = errors.New("body agent token does not match authenticated agent")
	// ErrInvalidRecord means a record in the batch failed validation; the
	// whole batch is rejected.
	ErrInvalidRecord = errors.New("invalid telemetry record")
)

// SubmitInput is a decoded telemetry batch. BodyToken is the optional token
// echo some agent builds place in the body; when present it must match the
// authenticated agent's token. Records may be empty, which makes the call a
// pure liveness signal.
type SubmitInput struct {
	BodyToken string
	Status    string
	Records   []*domain.Record
}

// Service carries telemetry ingestion logic.
type Service struct {
	records repository.Repository
	emitter events.Emitter
	now     func() time.Time
}

// NewService returns a telemetry service.
func NewService(records repository.Repository, emitter events.Emitter) *Service {
	return &Service{records: records, emitter: emitter, now: time.Now}
}

// Submit ingests a batch for the authenticated agent. The batch is atomic:
// every record is validated up front and written in one transaction together
// with the agent's liveness update, so a failure leaves nothing behind. An
// empty batch still advances last_seen. Returns the number of records stored.
func (s *Service) Submit(ctx context.Context, agent *agentdomain.Agent, in SubmitInput) (int, error) {
	if in.BodyToken != "" && in.BodyToken != agent.AgentToken {
		return 0, ErrTokenMismatch
	}
	for i, r := range in.Records {
		if err := r.Validate(); err != nil {
			return 0, fmt.Errorf("%w: record %d: %v", ErrInvalidRecord, i, err)
		}
		r.AgentID = agent.ID
	}

	status := agentdomain.StatusOnline
	if in.Status != "" {
		var err error
		status, err = agentdomain.ParseStatus(in.Status)
		if err != nil {
			return 0, err
		}
	}

	n, err := s.records.CreateBatch(ctx, agent.ID, in.Records, s.now().UTC(), status)
	if err != nil {
		return 0, fmt.Errorf("store telemetry batch: %w", err)
	}
	if n > 0 {
		events.EmitAsync(s.emitter, events.Event{
			Type:  events.TypeTelemetryIngested,
			OrgID: agent.OrgID,
			Data: map[string]any{
				"agent_id": agent.ID,
				"records":  n,
			},
		})
	}
	return n, nil
}

// ListByAgent returns a page of the agent's records plus the unpaged total.
func (s *Service) ListByAgent(ctx context.Context, agentID int64, skip, limit int) ([]*domain.Record, int, error) {
	records, total, err := s.records.ListByAgent(ctx, agentID, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list telemetry: %w", err)
	}
	return records, total, nil
}
