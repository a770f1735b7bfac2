// Package service implements the tenant self-service surface: company and
// branch management under the tenant's own subtree, the org-id listing used
// by agent installers, and scope-gated fleet reads.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	agentdomain "prismtrack/backend/internal/agent/domain"
	agentrepository "prismtrack/backend/internal/agent/repository"
	agentservice "prismtrack/backend/internal/agent/service"
	branchdomain "prismtrack/backend/internal/branch/domain"
	branchrepository "prismtrack/backend/internal/branch/repository"
	companydomain "prismtrack/backend/internal/company/domain"
	companyrepository "prismtrack/backend/internal/company/repository"
	"prismtrack/backend/internal/events"
	"prismtrack/backend/internal/hierarchy"
	hierarchydomain "prismtrack/backend/internal/hierarchy/domain"
	"prismtrack/backend/internal/scope"
	telemetrydomain "prismtrack/backend/internal/telemetry/domain"
	telemetryservice "prismtrack/backend/internal/telemetry/service"
	"prismtrack/backend/internal/tenant/domain"
	tenantrepository "prismtrack/backend/internal/tenant/repository"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	// ErrNotFound covers both genuinely missing resources and resources
	// owned by another tenant; the two are indistinguishable on the wire.
	ErrNotFound = errors.New("resource not found")
	// ErrForbidden means the requested org scope is outside the tenant's
	// subtree. Re-exported so handlers need only this package.
	ErrForbidden = scope.ErrForbidden
	// ErrTenantInactive means the authenticated tenant has been deactivated
	// since its token was issued.
	ErrTenantInactive = errors.New("tenant is deactivated")
)

// OrgIDEntry is one row of the org-id listing agents register against.
type OrgIDEntry struct {
	OrgID string
	Kind  hierarchydomain.OrgKind
	Name  string
}

// Service carries the tenant-facing logic.
type Service struct {
	tenants   tenantrepository.Repository
	companies companyrepository.Repository
	branches  branchrepository.Repository
	agents    *agentservice.Service
	telemetry *telemetryservice.Service
	scope     *scope.Service
	emitter   events.Emitter
}

// NewService returns a tenant service.
func NewService(
	tenants tenantrepository.Repository,
	companies companyrepository.Repository,
	branches branchrepository.Repository,
	agents *agentservice.Service,
	telemetry *telemetryservice.Service,
	scopes *scope.Service,
	emitter events.Emitter,
) *Service {
	return &Service{
		tenants:   tenants,
		companies: companies,
		branches:  branches,
		agents:    agents,
		telemetry: telemetry,
		scope:     scopes,
		emitter:   emitter,
	}
}

// CurrentTenant loads the principal's tenant and rejects deactivated ones.
func (s *Service) CurrentTenant(ctx context.Context, tenantID int64) (*domain.Tenant, error) {
	t, err := s.tenants.GetByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("lookup tenant: %w", err)
	}
	if t == nil {
		return nil, ErrNotFound
	}
	if !t.IsActive {
		return nil, ErrTenantInactive
	}
	return t, nil
}

// OrgIDs returns every org id under the tenant with its kind and display
// name: the tenant itself, active companies, and active branches of active
// companies. This is the listing installers present when binding an agent.
func (s *Service) OrgIDs(ctx context.Context, tenant *domain.Tenant) ([]OrgIDEntry, error) {
	entries := []OrgIDEntry{{OrgID: tenant.OrgID, Kind: hierarchydomain.OrgKindTenant, Name: tenant.Name}}
	companies, err := s.companies.AllActiveByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	for _, c := range companies {
		entries = append(entries, OrgIDEntry{OrgID: c.OrgID, Kind: hierarchydomain.OrgKindCompany, Name: c.Name})
	}
	branches, err := s.branches.AllActiveByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	for _, b := range branches {
		entries = append(entries, OrgIDEntry{OrgID: b.OrgID, Kind: hierarchydomain.OrgKindBranch, Name: b.Name})
	}
	return entries, nil
}

// CreateCompany creates a company under the tenant, minting its org id.
func (s *Service) CreateCompany(ctx context.Context, tenant *domain.Tenant, name string) (*companydomain.Company, error) {
	c := &companydomain.Company{TenantID: tenant.ID, Name: name, IsActive: true}
	err := hierarchy.AllocateOrgID(ctx, func(orgID string) error {
		c.OrgID = orgID
		if err := c.Validate(); err != nil {
			return err
		}
		return s.companies.Create(ctx, c)
	})
	if err != nil {
		return nil, fmt.Errorf("create company: %w", err)
	}
	events.EmitAsync(s.emitter, events.Event{
		Type:  events.TypeCompanyCreated,
		OrgID: tenant.OrgID,
		Data:  map[string]any{"company_id": c.ID, "company_org_id": c.OrgID},
	})
	return c, nil
}

// ListCompanies returns a page of the tenant's active companies plus the total.
func (s *Service) ListCompanies(ctx context.Context, tenant *domain.Tenant, skip, limit int) ([]*companydomain.Company, int, error) {
	companies, total, err := s.companies.ListActiveByTenant(ctx, tenant.ID, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list companies: %w", err)
	}
	return companies, total, nil
}

// GetCompany returns the tenant's company by id. Another tenant's company is
// reported as missing, not forbidden.
func (s *Service) GetCompany(ctx context.Context, tenant *domain.Tenant, id int64) (*companydomain.Company, error) {
	c, err := s.companies.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup company: %w", err)
	}
	if c == nil || c.TenantID != tenant.ID {
		return nil, ErrNotFound
	}
	return c, nil
}

// CompanyUpdate carries the mutable company fields. Nil means unchanged.
type CompanyUpdate struct {
	Name     *string
	IsActive *bool
}

// UpdateCompany applies the update to the tenant's company.
func (s *Service) UpdateCompany(ctx context.Context, tenant *domain.Tenant, id int64, up CompanyUpdate) (*companydomain.Company, error) {
	c, err := s.GetCompany(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if up.Name != nil {
		c.Name = *up.Name
	}
	if up.IsActive != nil {
		c.IsActive = *up.IsActive
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.companies.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update company: %w", err)
	}
	events.EmitAsync(s.emitter, events.Event{
		Type:  events.TypeCompanyUpdated,
		OrgID: tenant.OrgID,
		Data:  map[string]any{"company_id": c.ID, "is_active": c.IsActive},
	})
	return c, nil
}

// DeactivateCompany soft-deletes the company. Its branches drop out of the
// visible scope immediately; their rows are untouched.
func (s *Service) DeactivateCompany(ctx context.Context, tenant *domain.Tenant, id int64) error {
	inactive := false
	_, err := s.UpdateCompany(ctx, tenant, id, CompanyUpdate{IsActive: &inactive})
	return err
}

// CreateBranch creates a branch under the tenant's company, minting its org id.
func (s *Service) CreateBranch(ctx context.Context, tenant *domain.Tenant, companyID int64, name, location string) (*branchdomain.Branch, error) {
	if _, err := s.GetCompany(ctx, tenant, companyID); err != nil {
		return nil, err
	}
	b := &branchdomain.Branch{CompanyID: companyID, Name: name, Location: location, IsActive: true}
	err := hierarchy.AllocateOrgID(ctx, func(orgID string) error {
		b.OrgID = orgID
		if err := b.Validate(); err != nil {
			return err
		}
		return s.branches.Create(ctx, b)
	})
	if err != nil {
		return nil, fmt.Errorf("create branch: %w", err)
	}
	events.EmitAsync(s.emitter, events.Event{
		Type:  events.TypeBranchCreated,
		OrgID: tenant.OrgID,
		Data:  map[string]any{"branch_id": b.ID, "branch_org_id": b.OrgID},
	})
	return b, nil
}

// ListBranches returns a page of the company's active branches plus the total.
func (s *Service) ListBranches(ctx context.Context, tenant *domain.Tenant, companyID int64, skip, limit int) ([]*branchdomain.Branch, int, error) {
	if _, err := s.GetCompany(ctx, tenant, companyID); err != nil {
		return nil, 0, err
	}
	branches, total, err := s.branches.ListActiveByCompany(ctx, companyID, skip, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("list branches: %w", err)
	}
	return branches, total, nil
}

// GetBranch returns the tenant's branch by id, walking ownership through the
// owning company.
func (s *Service) GetBranch(ctx context.Context, tenant *domain.Tenant, id int64) (*branchdomain.Branch, error) {
	b, err := s.branches.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup branch: %w", err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	if _, err := s.GetCompany(ctx, tenant, b.CompanyID); err != nil {
		return nil, err
	}
	return b, nil
}

// BranchUpdate carries the mutable branch fields. Nil means unchanged.
type BranchUpdate struct {
	Name     *string
	Location *string
	IsActive *bool
}

// UpdateBranch applies the update to the tenant's branch.
func (s *Service) UpdateBranch(ctx context.Context, tenant *domain.Tenant, id int64, up BranchUpdate) (*branchdomain.Branch, error) {
	b, err := s.GetBranch(ctx, tenant, id)
	if err != nil {
		return nil, err
	}
	if up.Name != nil {
		b.Name = *up.Name
	}
	if up.Location != nil {
		b.Location = *up.Location
	}
	if up.IsActive != nil {
		b.IsActive = *up.IsActive
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.branches.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update branch: %w", err)
	}
	events.EmitAsync(s.emitter, events.Event{
		Type:  events.TypeBranchUpdated,
		OrgID: tenant.OrgID,
		Data:  map[string]any{"branch_id": b.ID, "is_active": b.IsActive},
	})
	return b, nil
}

// DeactivateBranch soft-deletes the branch.
func (s *Service) DeactivateBranch(ctx context.Context, tenant *domain.Tenant, id int64) error {
	inactive := false
	_, err := s.UpdateBranch(ctx, tenant, id, BranchUpdate{IsActive: &inactive})
	return err
}

// ListAgents returns the tenant's visible agents: those registered under any
// org id in the tenant's subtree.
func (s *Service) ListAgents(ctx context.Context, tenant *domain.Tenant, skip, limit int) ([]*agentdomain.Agent, int, error) {
	ids, err := s.scope.VisibleOrgIDs(ctx, tenant)
	if err != nil {
		return nil, 0, fmt.Errorf("compute visible scope: %w", err)
	}
	return s.agents.List(ctx, agentrepository.ListFilter{OrgIDs: ids, Skip: skip, Limit: limit})
}

// GetAgent returns one agent if its scope is inside the tenant's subtree.
// An agent outside the subtree answers ErrForbidden regardless of whether it
// exists, so org ids cannot be probed across tenants.
func (s *Service) GetAgent(ctx context.Context, tenant *domain.Tenant, id int64) (*agentdomain.Agent, error) {
	a, err := s.agents.Get(ctx, id)
	if err != nil {
		if errors.Is(err, agentservice.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if err := s.scope.Authorize(ctx, tenant, a.OrgID); err != nil {
		return nil, err
	}
	return a, nil
}

// AgentTelemetry returns a page of a visible agent's telemetry ordered by
// observation timestamp.
func (s *Service) AgentTelemetry(ctx context.Context, tenant *domain.Tenant, agentID int64, skip, limit int) ([]*telemetrydomain.Record, int, error) {
	if _, err := s.GetAgent(ctx, tenant, agentID); err != nil {
		return nil, 0, err
	}
	return s.telemetry.ListByAgent(ctx, agentID, skip, limit)
}

// StaleAfter exposes the agent staleness window for response rendering.
func (s *Service) StaleAfter() time.Duration {
	return s.agents.StaleAfter()
}
