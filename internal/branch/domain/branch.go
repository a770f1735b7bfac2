package domain

import (
	"errors"
	"time"
)

// Branch is a leaf organizational scope owned by a company.
type Branch struct {
	ID        int64
	CompanyID int64
	OrgID     string
	Name      string
	Location  string
	IsActive  bool
	CreatedAt time.Time
}

// Validate validates the branch for persistence.
func (b *Branch) Validate() error {
	if b.Name == "" {
		return errors.New("name is required")
	}
	if b.CompanyID == 0 {
		return errors.New("company id is required")
	}
	return nil
}
