package domain

import (
	"errors"
	"fmt"
	"time"

	hierarchydomain "prismtrack/backend/internal/hierarchy/domain"
)

// AgentStatus is the last status an agent reported. It is written on
// register, heartbeat, and telemetry submission, and is never flipped by the
// server: an agent that crashes stays ONLINE in storage. Readers judge
// liveness from LastSeen recency, not from this field alone.
type AgentStatus string

const (
	StatusOnline  AgentStatus = "ONLINE"
	StatusOffline AgentStatus = "OFFLINE"
)

// ErrUnknownStatus is returned by ParseStatus for values outside the closed set.
var ErrUnknownStatus = errors.New("unknown agent status")

// ParseStatus converts a wire string to an AgentStatus. Unknown values are
// rejected rather than coerced.
func ParseStatus(s string) (AgentStatus, error) {
	switch AgentStatus(s) {
	case StatusOnline, StatusOffline:
		return AgentStatus(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
}

// Agent is an endpoint machine bound to an organizational scope. HardwareUUID
// is the natural key: re-registering the same machine updates the existing
// row instead of creating a new one. AgentToken authenticates every call the
// agent makes after registration and is minted exactly once.
type Agent struct {
	ID           int64
	OrgID        string
	OrgKind      hierarchydomain.OrgKind
	MachineName  string
	HardwareUUID string
	AgentToken   string
	Status       AgentStatus
	LastSeen     time.Time
	RegisteredAt time.Time
}

// Stale reports whether the agent has not been heard from within the given
// window. This is the liveness judgment; Status is only the agent's last word.
func (a *Agent) Stale(now time.Time, window time.Duration) bool {
	return now.Sub(a.LastSeen) > window
}
