package domain

import (
	"errors"
	"time"
)

// Record is one activity observation reported by an agent: the foreground
// window, owning process, and idle flag at Timestamp. Timestamp is the moment
// of observation on the agent's clock, not ingestion time; consumers order by
// it, never by arrival. Records are immutable once written and are deleted
// with their agent.
type Record struct {
	ID            int64
	AgentID       int64
	WindowTitle   *string
	ProcessName   *string
	Timestamp     time.Time
	IsIdle        bool
	ScreenshotURL *string
	CreatedAt     time.Time
}

// Validate validates the record for persistence.
func (r *Record) Validate() error {
	if r.Timestamp.IsZero() {
		return errors.New("timestamp is required")
	}
	return nil
}
