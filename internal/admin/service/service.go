// Package service implements the platform-admin surface: tenant lifecycle
// management across the whole installation.
package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"prismtrack/backend/internal/audit"
	"prismtrack/backend/internal/events"
	"prismtrack/backend/internal/hierarchy"
	"prismtrack/backend/internal/security"
	tenantdomain "prismtrack/backend/internal/tenant/domain"
	tenantrepository "prismtrack/backend/internal/tenant/repository"
)

// ErrNotFound means the tenant id does not exist.
var ErrNotFound = errors.New("tenant not found")

// Service carries the platform-admin logic.
type Service struct {
	tenants tenantrepository.Repository
	hasher  *security.Hasher
	auditor audit.Recorder
	emitter events.Emitter
}

// NewService returns a platform-admin service.
func NewService(tenants tenantrepository.Repository, hasher *security.Hasher, auditor audit.Recorder, emitter events.Emitter) *Service {
	return &Service{tenants: tenants, hasher: hasher, auditor: auditor, emitter: emitter}
}

// CreateTenantInput is a decoded tenant creation request.
type CreateTenantInput struct {
	Name          string
	AdminEmail    string
	AdminPassword string
}

// CreateTenantResult carries the stored tenant plus the one-time plain API
// key. The key is returned exactly once, at creation.
type CreateTenantResult struct {
	Tenant *tenantdomain.Tenant
	APIKey string
}

// CreateTenant provisions a tenant: mints its org id, hashes the admin
// password, and mints the admin API key. adminID is the acting platform
// admin, recorded for audit.
func (s *Service) CreateTenant(ctx context.Context, adminID int64, in CreateTenantInput) (*CreateTenantResult, error) {
	passwordHash, err := s.hasher.Hash([]byte(in.AdminPassword))
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	apiKey, err := security.NewAPIKey()
	if err != nil {
		return nil, fmt.Errorf("mint api key: %w", err)
	}
	t := &tenantdomain.Tenant{
		Name:              in.Name,
		AdminEmail:        in.AdminEmail,
		AdminPasswordHash: passwordHash,
		AdminAPIKey:       apiKey,
		CreatedBy:         adminID,
		IsActive:          true,
	}
	err = hierarchy.AllocateOrgID(ctx, func(orgID string) error {
		t.OrgID = orgID
		if err := t.Validate(); err != nil {
			return err
		}
		return s.tenants.Create(ctx, t)
	})
	if err != nil {
		return nil, fmt.Errorf("create tenant: %w", err)
	}
	s.record(ctx, adminID, t.OrgID, "tenant.create", "tenant/"+strconv.FormatInt(t.ID, 10))
	events.EmitAsync(s.emitter, events.Event{
		Type:  events.TypeTenantCreated,
		OrgID: t.OrgID,
		Data:  map[string]any{"tenant_id": t.ID, "name": t.Name},
	})
	return &CreateTenantResult{Tenant: t, APIKey: apiKey}, nil
}

// GetTenant returns one tenant by id, active or not. Platform admins see the
// whole installation, including deactivated tenants.
func (s *Service) GetTenant(ctx context.Context, id int64) (*tenantdomain.Tenant, error) {
	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// ListTenants returns a page of tenants plus the total.
func (s *Service) ListTenants(ctx context.Context, skip, limit int) ([]*tenantdomain.Tenant, int, error) {
	tenants, total, err := s.tenants.List(ctx, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list tenants: %w", err)
	}
	return tenants, total, nil
}

// TenantUpdate carries the mutable tenant fields. Nil means unchanged.
type TenantUpdate struct {
	Name       *string
	AdminEmail *string
	IsActive   *bool
}

// UpdateTenant applies the update to the tenant.
func (s *Service) UpdateTenant(ctx context.Context, adminID, id int64, up TenantUpdate) (*tenantdomain.Tenant, error) {
	t, err := s.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if up.Name != nil {
		t.Name = *up.Name
	}
	if up.AdminEmail != nil {
		t.AdminEmail = *up.AdminEmail
	}
	if up.IsActive != nil {
		t.IsActive = *up.IsActive
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if err := s.tenants.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update tenant: %w", err)
	}
	s.record(ctx, adminID, t.OrgID, "tenant.update", "tenant/"+strconv.FormatInt(t.ID, 10))
	events.EmitAsync(s.emitter, events.Event{
		Type:  events.TypeTenantUpdated,
		OrgID: t.OrgID,
		Data:  map[string]any{"tenant_id": t.ID, "is_active": t.IsActive},
	})
	return t, nil
}

// DeactivateTenant soft-deletes the tenant. Its whole subtree becomes
// invisible: logins fail, agents can no longer register against its org ids.
func (s *Service) DeactivateTenant(ctx context.Context, adminID, id int64) error {
	inactive := false
	_, err := s.UpdateTenant(ctx, adminID, id, TenantUpdate{IsActive: &inactive})
	return err
}

func (s *Service) record(ctx context.Context, adminID int64, orgID, action, resource string) {
	if s.auditor == nil {
		return
	}
	principal := security.PrincipalPlatformAdmin + ":" + strconv.FormatInt(adminID, 10)
	s.auditor.Record(ctx, orgID, principal, action, resource, "")
}
