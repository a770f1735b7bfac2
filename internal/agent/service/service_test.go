package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"prismtrack/backend/internal/agent/domain"
	"prismtrack/backend/internal/agent/repository"
	"prismtrack/backend/internal/hierarchy"
	hierarchydomain "prismtrack/backend/internal/hierarchy/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

// fakeAgentRepo mimics the Postgres repository including its unique
// constraints, so the register race and token-collision contracts can be
// exercised without a database.
type fakeAgentRepo struct {
	mu     sync.Mutex
	nextID int64
	agents map[int64]*domain.Agent
}

func newFakeAgentRepo() *fakeAgentRepo {
	return &fakeAgentRepo{agents: make(map[int64]*domain.Agent)}
}

func (f *fakeAgentRepo) GetByID(_ context.Context, id int64) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.agents[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, nil
}

func (f *fakeAgentRepo) GetByHardwareUUID(_ context.Context, hardwareUUID string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.agents {
		if a.HardwareUUID == hardwareUUID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAgentRepo) GetByToken(_ context.Context, token string) (*domain.Agent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.agents {
		if a.AgentToken == token {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAgentRepo) Create(_ context.Context, a *domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.agents {
		if existing.HardwareUUID == a.HardwareUUID {
			return &pgconn.PgError{Code: "23505", ConstraintName: "agents_hardware_uuid_key"}
		}
		if existing.AgentToken == a.AgentToken {
			return &pgconn.PgError{Code: "23505", ConstraintName: "agents_agent_token_key"}
		}
	}
	f.nextID++
	a.ID = f.nextID
	a.RegisteredAt = time.Now().UTC()
	cp := *a
	f.agents[a.ID] = &cp
	return nil
}

func (f *fakeAgentRepo) Update(_ context.Context, a *domain.Agent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.agents[a.ID]; !ok {
		return errors.New("update of missing agent")
	}
	cp := *a
	f.agents[a.ID] = &cp
	return nil
}

func (f *fakeAgentRepo) Touch(_ context.Context, id int64, at time.Time, status domain.AgentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.agents[id]
	if !ok {
		return errors.New("touch of missing agent")
	}
	a.LastSeen = at
	a.Status = status
	return nil
}

func (f *fakeAgentRepo) List(_ context.Context, filter repository.ListFilter) ([]*domain.Agent, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Agent
	for _, a := range f.agents {
		if filter.OrgID != "" && a.OrgID != filter.OrgID {
			continue
		}
		if len(filter.OrgIDs) > 0 {
			found := false
			for _, id := range filter.OrgIDs {
				if a.OrgID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		cp := *a
		out = append(out, &cp)
	}
	return out, len(out), nil
}

// fakeResolver knows a fixed set of org ids.
type fakeResolver struct {
	kinds map[string]hierarchydomain.OrgKind
}

func (f *fakeResolver) Resolve(_ context.Context, orgID string) (hierarchydomain.OrgKind, error) {
	if k, ok := f.kinds[orgID]; ok {
		return k, nil
	}
	return "", hierarchy.ErrOrgNotFound
}

func newTestService(repo *fakeAgentRepo) *Service {
	resolver := &fakeResolver{kinds: map[string]hierarchydomain.OrgKind{
		"TNT01": hierarchydomain.OrgKindTenant,
		"CMP01": hierarchydomain.OrgKindCompany,
		"BRN01": hierarchydomain.OrgKindBranch,
	}}
	return NewService(repo, resolver, nil, 32, 120*time.Second)
}

func TestRegisterNewAgent(t *testing.T) {
	repo := newFakeAgentRepo()
	svc := newTestService(repo)

	res, err := svc.Register(context.Background(), RegisterInput{
		OrgID:        "BRN01",
		MachineName:  "DESK-042",
		HardwareUUID: "hw-0001",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if !res.Created {
		t.Error("Created = false, want true for first registration")
	}
	if res.Agent.AgentToken == "" {
		t.Error("no agent token minted")
	}
	if res.Agent.OrgKind != hierarchydomain.OrgKindBranch {
		t.Errorf("OrgKind = %s, want BRANCH", res.Agent.OrgKind)
	}
	if res.Agent.Status != domain.StatusOnline {
		t.Errorf("Status = %s, want ONLINE", res.Agent.Status)
	}
}

func TestRegisterIdempotentKeepsToken(t *testing.T) {
	repo := newFakeAgentRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterInput{OrgID: "BRN01", MachineName: "DESK-042", HardwareUUID: "hw-0001"})
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}
	second, err := svc.Register(ctx, RegisterInput{OrgID: "CMP01", MachineName: "DESK-042b", HardwareUUID: "hw-0001"})
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}
	if second.Created {
		t.Error("Created = true, want false for re-registration")
	}
	if second.Agent.ID != first.Agent.ID {
		t.Errorf("re-registration produced a new row: id %d vs %d", second.Agent.ID, first.Agent.ID)
	}
	if second.Agent.AgentToken != first.Agent.AgentToken {
		t.Error("re-registration changed the agent token")
	}
	if second.Agent.OrgID != "CMP01" || second.Agent.OrgKind != hierarchydomain.OrgKindCompany {
		t.Errorf("scope not refreshed: %s/%s", second.Agent.OrgID, second.Agent.OrgKind)
	}
	if second.Agent.MachineName != "DESK-042b" {
		t.Errorf("machine name not refreshed: %s", second.Agent.MachineName)
	}
}

func TestRegisterUnknownOrg(t *testing.T) {
	svc := newTestService(newFakeAgentRepo())
	_, err := svc.Register(context.Background(), RegisterInput{OrgID: "ZZZZZ", MachineName: "m", HardwareUUID: "hw"})
	if !errors.Is(err, ErrOrgNotFound) {
		t.Fatalf("err = %v, want ErrOrgNotFound", err)
	}
}

func TestRegisterConcurrentSameHardware(t *testing.T) {
	repo := newFakeAgentRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	const n = 8
	results := make([]*RegisterResult, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Register(ctx, RegisterInput{
				OrgID:        "TNT01",
				MachineName:  "DESK-RACE",
				HardwareUUID: "hw-race",
			})
		}(i)
	}
	wg.Wait()

	created := 0
	var token string
	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("Register[%d]: %v", i, errs[i])
		}
		if results[i].Created {
			created++
		}
		if token == "" {
			token = results[i].Agent.AgentToken
		} else if results[i].Agent.AgentToken != token {
			t.Error("racing registrations returned different tokens")
		}
	}
	if created != 1 {
		t.Errorf("created count = %d, want exactly 1", created)
	}
	if len(repo.agents) != 1 {
		t.Errorf("stored %d agents for one hardware uuid", len(repo.agents))
	}
}

func TestHeartbeat(t *testing.T) {
	repo := newFakeAgentRepo()
	svc := newTestService(repo)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterInput{OrgID: "TNT01", MachineName: "m", HardwareUUID: "hw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	token := res.Agent.AgentToken

	a, err := svc.Heartbeat(ctx, HeartbeatInput{Token: token, Status: "OFFLINE"})
	if err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	if a.Status != domain.StatusOffline {
		t.Errorf("Status = %s, want OFFLINE", a.Status)
	}

	// An absent status records ONLINE.
	a, err = svc.Heartbeat(ctx, HeartbeatInput{Token: token, Status: ""})
	if err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	if a.Status != domain.StatusOnline {
		t.Errorf("status = %s, want ONLINE", a.Status)
	}

	// Values outside the closed status set are rejected, not coerced.
	for _, status := range []string{"resting", "online", "OFF"} {
		if _, err := svc.Heartbeat(ctx, HeartbeatInput{Token: token, Status: status}); !errors.Is(err, domain.ErrUnknownStatus) {
			t.Errorf("Heartbeat(%q) err = %v, want ErrUnknownStatus", status, err)
		}
	}
	if a, _ := svc.Get(ctx, res.Agent.ID); a.Status != domain.StatusOnline {
		t.Errorf("status after rejected heartbeat = %s, want ONLINE", a.Status)
	}
}

func TestHeartbeatBadToken(t *testing.T) {
	svc := newTestService(newFakeAgentRepo())
	for _, token := range []string{"", "not-a-token"} {
		if _, err := svc.Heartbeat(context.Background(), HeartbeatInput{Token: token}); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Heartbeat(token=%q) err = %v, want ErrInvalidToken", token, err)
		}
	}
}

func TestGetNotFound(t *testing.T) {
	svc := newTestService(newFakeAgentRepo())
	if _, err := svc.Get(context.Background(), 404); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestStale(t *testing.T) {
	now := time.Now().UTC()
	a := &domain.Agent{LastSeen: now.Add(-3 * time.Minute)}
	if !a.Stale(now, 120*time.Second) {
		t.Error("agent silent for 3m not reported stale with a 120s window")
	}
	a.LastSeen = now.Add(-30 * time.Second)
	if a.Stale(now, 120*time.Second) {
		t.Error("agent seen 30s ago reported stale")
	}
}
