// Package scope computes which org ids a tenant principal may see and
// enforces that visibility on reads. Authorization is structural: a tenant
// sees its own org id plus the org ids of its active companies and of the
// active branches under those companies, nothing else.
package scope

import (
	"context"
	"errors"

	branchdomain "prismtrack/backend/internal/branch/domain"
	companydomain "prismtrack/backend/internal/company/domain"
	tenantdomain "prismtrack/backend/internal/tenant/domain"
)

// ErrForbidden means the requested org id is outside the tenant's subtree.
// Unknown org ids also map here: the response must not reveal whether an
// org id exists in another tenant's tree.
var ErrForbidden = errors.New("org id outside tenant scope")

// CompanyRepo is the slice of the company repository the scope needs.
type CompanyRepo interface {
	AllActiveByTenant(ctx context.Context, tenantID int64) ([]*companydomain.Company, error)
}

// BranchRepo is the slice of the branch repository the scope needs.
type BranchRepo interface {
	AllActiveByTenant(ctx context.Context, tenantID int64) ([]*branchdomain.Branch, error)
}

// Service computes and checks tenant visibility.
type Service struct {
	companies CompanyRepo
	branches  BranchRepo
}

// NewService returns a scope service over the given repositories.
func NewService(companies CompanyRepo, branches BranchRepo) *Service {
	return &Service{companies: companies, branches: branches}
}

// VisibleOrgIDs returns every org id the tenant may see: the tenant's own id,
// its active companies, and the active branches of those companies. Branches
// of a deactivated company are excluded even if the branch row itself is
// still active. The result order is tenant, companies, branches.
func (s *Service) VisibleOrgIDs(ctx context.Context, tenant *tenantdomain.Tenant) ([]string, error) {
	ids := []string{tenant.OrgID}
	companies, err := s.companies.AllActiveByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	for _, c := range companies {
		ids = append(ids, c.OrgID)
	}
	branches, err := s.branches.AllActiveByTenant(ctx, tenant.ID)
	if err != nil {
		return nil, err
	}
	for _, b := range branches {
		ids = append(ids, b.OrgID)
	}
	return ids, nil
}

// Authorize returns nil only when orgID is inside the tenant's subtree.
// Repository errors propagate unchanged so callers answer 500, not 403;
// everything else that is not a proven member is ErrForbidden.
func (s *Service) Authorize(ctx context.Context, tenant *tenantdomain.Tenant, orgID string) error {
	ids, err := s.VisibleOrgIDs(ctx, tenant)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == orgID {
			return nil
		}
	}
	return ErrForbidden
}
