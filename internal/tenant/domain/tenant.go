package domain

import (
	"errors"
	"time"
)

// Tenant is a root organizational scope: a paying customer of the platform.
// Its admin credentials double as the tenant login (one admin per tenant).
type Tenant struct {
	ID                int64
	OrgID             string
	Name              string
	AdminEmail        string
	AdminPasswordHash string
	AdminAPIKey       string
	CreatedBy         int64
	IsActive          bool
	CreatedAt         time.Time
}

// Validate validates the tenant for persistence.
func (t *Tenant) Validate() error {
	if t.Name == "" {
		return errors.New("name is required")
	}
	if t.AdminEmail == "" {
		return errors.New("admin email is required")
	}
	if t.AdminPasswordHash == "" {
		return errors.New("admin password hash is required")
	}
	return nil
}
