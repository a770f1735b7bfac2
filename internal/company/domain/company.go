package domain

import (
	"errors"
	"time"
)

// Company is a mid-level organizational scope owned by a tenant.
type Company struct {
	ID        int64
	TenantID  int64
	OrgID     string
	Name      string
	IsActive  bool
	CreatedAt time.Time
}

// Validate validates the company for persistence.
func (c *Company) Validate() error {
	if c.Name == "" {
		return errors.New("name is required")
	}
	if c.TenantID == 0 {
		return errors.New("tenant id is required")
	}
	return nil
}
