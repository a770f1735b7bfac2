// Package audit records admin mutations (tenant/company/branch lifecycle)
// best-effort: a failed audit write is logged, never surfaced to the caller.
package audit

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"prismtrack/backend/internal/audit/domain"
	auditrepo "prismtrack/backend/internal/audit/repository"
)

// SentinelOrgID is used for entries with no affected org (e.g. failed logins).
const SentinelOrgID = "_system"

// IPExtractor returns the client IP for the request in ctx.
type IPExtractor func(context.Context) string

// Recorder writes a single audit entry with explicit action/resource.
type Recorder interface {
	Record(ctx context.Context, orgID, principal, action, resource, metadata string)
}

// Logger implements Recorder using the audit repository and an optional IP extractor.
type Logger struct {
	repo        auditrepo.Repository
	ipExtractor IPExtractor
}

// NewLogger returns a Recorder that persists to repo and uses ipExtractor for
// client IP. ipExtractor may be nil; then IP is recorded as "unknown".
func NewLogger(repo auditrepo.Repository, ipExtractor IPExtractor) *Logger {
	return &Logger{repo: repo, ipExtractor: ipExtractor}
}

// Record writes one audit entry. Best-effort: errors are logged and not returned.
func (l *Logger) Record(ctx context.Context, orgID, principal, action, resource, metadata string) {
	if l == nil || l.repo == nil {
		return
	}
	ip := "unknown"
	if l.ipExtractor != nil {
		ip = l.ipExtractor(ctx)
	}
	if orgID == "" {
		orgID = SentinelOrgID
	}
	entry := &domain.AuditLog{
		ID:        uuid.New().String(),
		OrgID:     orgID,
		Principal: principal,
		Action:    action,
		Resource:  resource,
		IP:        ip,
		Metadata:  metadata,
		CreatedAt: time.Now().UTC(),
	}
	if err := l.repo.Create(ctx, entry); err != nil {
		log.Printf("audit: record %s %s failed: %v", action, resource, err)
	}
}
