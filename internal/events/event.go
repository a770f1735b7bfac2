// Package events defines the domain event envelope and the emitter contract.
// Services emit events for registrations, ingestion, and administrative
// changes; producers fan them out to Kafka and OTel without blocking the
// request path.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the services.
const (
	TypeAgentRegistered      = "agent.registered"
	TypeAgentReregistered    = "agent.reregistered"
	TypeAgentHeartbeat       = "agent.heartbeat"
	TypeTelemetryIngested    = "telemetry.ingested"
	TypeTenantCreated        = "tenant.created"
	TypeTenantUpdated        = "tenant.updated"
	TypeCompanyCreated       = "company.created"
	TypeCompanyUpdated       = "company.updated"
	TypeBranchCreated        = "branch.created"
	TypeBranchUpdated        = "branch.updated"
	TypeAdminLoginSucceeded  = "auth.admin_login"
	TypeTenantLoginSucceeded = "auth.tenant_login"
)

// Event is the wire envelope for a domain event. ID and Timestamp are filled
// by Finalize if the emitting site leaves them zero.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	OrgID     string         `json:"org_id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

// Finalize fills ID and Timestamp when unset. It returns the receiver for
// call-site chaining.
func (e Event) Finalize() Event {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	return e
}

// Marshal renders the event as JSON.
func (e Event) Marshal() ([]byte, error) {
	return json.Marshal(e)
}
