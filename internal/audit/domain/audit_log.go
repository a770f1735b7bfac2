package domain

import "time"

// AuditLog is one recorded admin mutation (tenant created, company
// deactivated, ...). Principal identifies who acted (e.g. "platform_admin:1"
// or "tenant:4"); OrgID is the affected tenant's org id where applicable.
type AuditLog struct {
	ID        string
	OrgID     string
	Principal string
	Action    string
	Resource  string
	IP        string
	Metadata  string
	CreatedAt time.Time
}
