package repository

import (
	"context"
	"time"

	"prismtrack/backend/internal/agent/domain"
)

// ListFilter narrows an agent listing. OrgIDs restricts to a visible-scope
// set (tenant reads); OrgID restricts to one scope (admin filter). An empty
// filter means unrestricted.
type ListFilter struct {
	OrgIDs []string
	OrgID  string
	Skip   int
	Limit  int
}

// Repository defines persistence for agents.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Agent, error)
	GetByHardwareUUID(ctx context.Context, hardwareUUID string) (*domain.Agent, error)
	GetByToken(ctx context.Context, token string) (*domain.Agent, error)
	// Create inserts the agent. Sets a.ID and a.RegisteredAt. Uniqueness of
	// hardware_uuid and agent_token is enforced by constraints; callers
	// inspect violations to drive the upsert/retry contract.
	Create(ctx context.Context, a *domain.Agent) error
	// Update rewrites the mutable registration fields (org scope, machine
	// name, status, last seen) for a.ID.
	Update(ctx context.Context, a *domain.Agent) error
	// Touch sets last_seen and status for the given agent id.
	Touch(ctx context.Context, id int64, at time.Time, status domain.AgentStatus) error
	List(ctx context.Context, f ListFilter) ([]*domain.Agent, int, error)
}
