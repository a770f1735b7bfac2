package hierarchy

import (
	"context"
	"errors"
	"testing"

	branchdomain "prismtrack/backend/internal/branch/domain"
	companydomain "prismtrack/backend/internal/company/domain"
	"prismtrack/backend/internal/hierarchy/domain"
	tenantdomain "prismtrack/backend/internal/tenant/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

type fakeTenantRepo struct {
	byOrgID map[string]*tenantdomain.Tenant
}

func (f *fakeTenantRepo) GetActiveByOrgID(_ context.Context, orgID string) (*tenantdomain.Tenant, error) {
	return f.byOrgID[orgID], nil
}

type fakeCompanyRepo struct {
	byOrgID map[string]*companydomain.Company
}

func (f *fakeCompanyRepo) GetActiveByOrgID(_ context.Context, orgID string) (*companydomain.Company, error) {
	return f.byOrgID[orgID], nil
}

type fakeBranchRepo struct {
	byOrgID map[string]*branchdomain.Branch
}

func (f *fakeBranchRepo) GetActiveByOrgID(_ context.Context, orgID string) (*branchdomain.Branch, error) {
	return f.byOrgID[orgID], nil
}

func newTestService() *Service {
	return NewService(
		&fakeTenantRepo{byOrgID: map[string]*tenantdomain.Tenant{
			"TNT01": {ID: 1, OrgID: "TNT01", Name: "Acme", IsActive: true},
		}},
		&fakeCompanyRepo{byOrgID: map[string]*companydomain.Company{
			"CMP01": {ID: 1, TenantID: 1, OrgID: "CMP01", Name: "Acme West", IsActive: true},
		}},
		&fakeBranchRepo{byOrgID: map[string]*branchdomain.Branch{
			"BRN01": {ID: 1, CompanyID: 1, OrgID: "BRN01", Name: "Downtown", IsActive: true},
		}},
	)
}

func TestResolveKinds(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	cases := []struct {
		orgID string
		want  domain.OrgKind
	}{
		{"TNT01", domain.OrgKindTenant},
		{"CMP01", domain.OrgKindCompany},
		{"BRN01", domain.OrgKindBranch},
	}
	for _, tc := range cases {
		kind, err := svc.Resolve(ctx, tc.orgID)
		if err != nil {
			t.Fatalf("Resolve(%s): %v", tc.orgID, err)
		}
		if kind != tc.want {
			t.Errorf("Resolve(%s) = %s, want %s", tc.orgID, kind, tc.want)
		}
	}
}

func TestResolveUnknownOrInvalid(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	for _, orgID := range []string{"ZZZZZ", "abc", "TOOLONGID", "TNT-1", ""} {
		if _, err := svc.Resolve(ctx, orgID); !errors.Is(err, ErrOrgNotFound) {
			t.Errorf("Resolve(%q) err = %v, want ErrOrgNotFound", orgID, err)
		}
	}
}

func registryCollision() error {
	return &pgconn.PgError{Code: "23505", ConstraintName: "org_registry_pkey"}
}

func TestAllocateOrgIDFirstTry(t *testing.T) {
	var got string
	err := AllocateOrgID(context.Background(), func(orgID string) error {
		got = orgID
		return nil
	})
	if err != nil {
		t.Fatalf("AllocateOrgID: %v", err)
	}
	if !domain.ValidOrgID(got) {
		t.Errorf("allocated org id %q is not well-formed", got)
	}
}

func TestAllocateOrgIDRetriesOnCollision(t *testing.T) {
	seen := make(map[string]bool)
	calls := 0
	err := AllocateOrgID(context.Background(), func(orgID string) error {
		calls++
		if seen[orgID] {
			t.Errorf("retried with repeated org id %q", orgID)
		}
		seen[orgID] = true
		if calls < 3 {
			return registryCollision()
		}
		return nil
	})
	if err != nil {
		t.Fatalf("AllocateOrgID: %v", err)
	}
	if calls != 3 {
		t.Errorf("create called %d times, want 3", calls)
	}
}

func TestAllocateOrgIDExhaustion(t *testing.T) {
	calls := 0
	err := AllocateOrgID(context.Background(), func(string) error {
		calls++
		return registryCollision()
	})
	if !errors.Is(err, ErrOrgIDExhausted) {
		t.Fatalf("err = %v, want ErrOrgIDExhausted", err)
	}
	if calls != allocAttempts {
		t.Errorf("create called %d times, want %d", calls, allocAttempts)
	}
}

func TestAllocateOrgIDStopsOnOtherError(t *testing.T) {
	boom := errors.New("connection reset")
	calls := 0
	err := AllocateOrgID(context.Background(), func(string) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped %v", err, boom)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
}
