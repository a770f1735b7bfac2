package domain

import "time"

// PlatformAdmin operates the platform itself: creating tenants and reading
// the whole agent fleet. Not tied to any organizational scope.
type PlatformAdmin struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
}
