// Package hierarchy resolves org ids against the tenant → company → branch
// tree and allocates new org ids with a collision-retry contract.
package hierarchy

import (
	"context"
	"errors"

	branchdomain "prismtrack/backend/internal/branch/domain"
	companydomain "prismtrack/backend/internal/company/domain"
	"prismtrack/backend/internal/db"
	"prismtrack/backend/internal/hierarchy/domain"
	"prismtrack/backend/internal/security"
	tenantdomain "prismtrack/backend/internal/tenant/domain"
)

// Sentinel errors; handlers map them to HTTP statuses.
var (
	// ErrOrgNotFound means the org id does not exist or is inactive.
	ErrOrgNotFound = errors.New("org id not found or inactive")
	// ErrOrgIDExhausted means allocation kept colliding after the bounded
	// retries. Practically unreachable with a 36^5 id space; surfaced
	// rather than masked so operators notice registry corruption.
	ErrOrgIDExhausted = errors.New("could not allocate a unique org id")
)

// allocAttempts bounds the mint-insert-retry loop for new org ids.
const allocAttempts = 5

// TenantRepo is the minimal tenant repository needed by the resolver.
type TenantRepo interface {
	GetActiveByOrgID(ctx context.Context, orgID string) (*tenantdomain.Tenant, error)
}

// CompanyRepo is the minimal company repository needed by the resolver.
type CompanyRepo interface {
	GetActiveByOrgID(ctx context.Context, orgID string) (*companydomain.Company, error)
}

// BranchRepo is the minimal branch repository needed by the resolver.
type BranchRepo interface {
	GetActiveByOrgID(ctx context.Context, orgID string) (*branchdomain.Branch, error)
}

// Service resolves org ids to their kind and allocates new ones.
type Service struct {
	tenants   TenantRepo
	companies CompanyRepo
	branches  BranchRepo
}

// NewService returns a hierarchy service over the given repositories.
func NewService(tenants TenantRepo, companies CompanyRepo, branches BranchRepo) *Service {
	return &Service{tenants: tenants, companies: companies, branches: branches}
}

// Resolve returns the kind of the active scope identified by orgID, checking
// tenants, then companies, then branches. Inactive scopes resolve to
// ErrOrgNotFound: they are invisible to new registrations. Any caller-supplied
// kind hint is ignored; the tree is the source of truth.
func (s *Service) Resolve(ctx context.Context, orgID string) (domain.OrgKind, error) {
	if !domain.ValidOrgID(orgID) {
		return "", ErrOrgNotFound
	}
	t, err := s.tenants.GetActiveByOrgID(ctx, orgID)
	if err != nil {
		return "", err
	}
	if t != nil {
		return domain.OrgKindTenant, nil
	}
	c, err := s.companies.GetActiveByOrgID(ctx, orgID)
	if err != nil {
		return "", err
	}
	if c != nil {
		return domain.OrgKindCompany, nil
	}
	b, err := s.branches.GetActiveByOrgID(ctx, orgID)
	if err != nil {
		return "", err
	}
	if b != nil {
		return domain.OrgKindBranch, nil
	}
	return "", ErrOrgNotFound
}

// AllocateOrgID mints a random org id and invokes create with it. create is
// expected to insert the id into org_registry (in the same transaction as the
// owning row); a unique violation on the registry primary key means the id
// collided with an existing tenant, company, or branch id, and allocation is
// retried with a fresh id. Any other error from create is returned as-is.
func AllocateOrgID(ctx context.Context, create func(orgID string) error) error {
	for i := 0; i < allocAttempts; i++ {
		orgID, err := security.NewOrgID()
		if err != nil {
			return err
		}
		err = create(orgID)
		if err == nil {
			return nil
		}
		if db.IsUniqueViolation(err, "org_registry_pkey") {
			continue
		}
		return err
	}
	return ErrOrgIDExhausted
}
