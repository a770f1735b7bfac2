package service

import (
	"context"
	"errors"
	"testing"
	"time"

	agentdomain "prismtrack/backend/internal/agent/domain"
	"prismtrack/backend/internal/telemetry/domain"
)

// fakeTelemetryRepo stores batches atomically like the transactional
// Postgres implementation: a failure injected mid-batch leaves no records.
type fakeTelemetryRepo struct {
	records  []*domain.Record
	lastSeen map[int64]time.Time
	statuses map[int64]agentdomain.AgentStatus
	failAt   int // fail when the stored total would reach this count; 0 disables
}

func newFakeTelemetryRepo() *fakeTelemetryRepo {
	return &fakeTelemetryRepo{
		lastSeen: make(map[int64]time.Time),
		statuses: make(map[int64]agentdomain.AgentStatus),
	}
}

func (f *fakeTelemetryRepo) CreateBatch(_ context.Context, agentID int64, records []*domain.Record, seenAt time.Time, status agentdomain.AgentStatus) (int, error) {
	if f.failAt > 0 && len(f.records)+len(records) >= f.failAt {
		return 0, errors.New("disk full")
	}
	for _, r := range records {
		cp := *r
		cp.AgentID = agentID
		f.records = append(f.records, &cp)
	}
	f.lastSeen[agentID] = seenAt
	f.statuses[agentID] = status
	return len(records), nil
}

func (f *fakeTelemetryRepo) ListByAgent(_ context.Context, agentID int64, skip, limit int) ([]*domain.Record, int, error) {
	var all []*domain.Record
	for _, r := range f.records {
		if r.AgentID == agentID {
			all = append(all, r)
		}
	}
	total := len(all)
	if skip > total {
		skip = total
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func strptr(s string) *string { return &s }

func testAgent() *agentdomain.Agent {
	return &agentdomain.Agent{ID: 7, OrgID: "BRN01", AgentToken: "tok-7"}
}

func testRecords(n int) []*domain.Record {
	out := make([]*domain.Record, n)
	base := time.Now().UTC()
	for i := range out {
		out[i] = &domain.Record{
			WindowTitle: strptr("editor"),
			ProcessName: strptr("code"),
			Timestamp:   base.Add(time.Duration(i) * time.Second),
		}
	}
	return out
}

func TestSubmitBatch(t *testing.T) {
	repo := newFakeTelemetryRepo()
	svc := NewService(repo, nil)

	n, err := svc.Submit(context.Background(), testAgent(), SubmitInput{Records: testRecords(3)})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n != 3 {
		t.Errorf("stored = %d, want 3", n)
	}
	if len(repo.records) != 3 {
		t.Errorf("repo holds %d records, want 3", len(repo.records))
	}
	for _, r := range repo.records {
		if r.AgentID != 7 {
			t.Errorf("record bound to agent %d, want 7", r.AgentID)
		}
	}
	if repo.statuses[7] != agentdomain.StatusOnline {
		t.Errorf("status = %s, want ONLINE", repo.statuses[7])
	}
}

func TestSubmitEmptyBatchIsLivenessOnly(t *testing.T) {
	repo := newFakeTelemetryRepo()
	svc := NewService(repo, nil)

	n, err := svc.Submit(context.Background(), testAgent(), SubmitInput{})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if n != 0 {
		t.Errorf("stored = %d, want 0", n)
	}
	if _, ok := repo.lastSeen[7]; !ok {
		t.Error("empty batch did not advance last_seen")
	}
}

func TestSubmitBodyTokenMismatch(t *testing.T) {
	repo := newFakeTelemetryRepo()
	svc := NewService(repo, nil)

	_, err := svc.Submit(context.Background(), testAgent(), SubmitInput{
		BodyToken: "someone-elses-token",
		Records:   testRecords(1),
	})
	if !errors.Is(err, ErrTokenMismatch) {
		t.Fatalf("err = %v, want ErrTokenMismatch", err)
	}
	if len(repo.records) != 0 {
		t.Error("mismatched batch left records behind")
	}

	// A matching echo is accepted; an absent echo is not required.
	if _, err := svc.Submit(context.Background(), testAgent(), SubmitInput{BodyToken: "tok-7", Records: testRecords(1)}); err != nil {
		t.Fatalf("Submit with matching body token: %v", err)
	}
}

func TestSubmitRejectsInvalidRecord(t *testing.T) {
	repo := newFakeTelemetryRepo()
	svc := NewService(repo, nil)

	records := testRecords(2)
	records[1].Timestamp = time.Time{}
	_, err := svc.Submit(context.Background(), testAgent(), SubmitInput{Records: records})
	if !errors.Is(err, ErrInvalidRecord) {
		t.Fatalf("err = %v, want ErrInvalidRecord", err)
	}
	if len(repo.records) != 0 {
		t.Error("batch with an invalid record was partially stored")
	}
}

func TestSubmitStatus(t *testing.T) {
	repo := newFakeTelemetryRepo()
	svc := NewService(repo, nil)

	if _, err := svc.Submit(context.Background(), testAgent(), SubmitInput{Status: "OFFLINE"}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if repo.statuses[7] != agentdomain.StatusOffline {
		t.Errorf("status = %s, want OFFLINE", repo.statuses[7])
	}
	if _, err := svc.Submit(context.Background(), testAgent(), SubmitInput{Status: "sleeping"}); !errors.Is(err, agentdomain.ErrUnknownStatus) {
		t.Fatalf("Submit with unknown status err = %v, want ErrUnknownStatus", err)
	}
	if repo.statuses[7] != agentdomain.StatusOffline {
		t.Errorf("rejected status overwrote the stored one: %s", repo.statuses[7])
	}
}

func TestSubmitStorageFailureStoresNothing(t *testing.T) {
	repo := newFakeTelemetryRepo()
	repo.failAt = 1
	svc := NewService(repo, nil)

	_, err := svc.Submit(context.Background(), testAgent(), SubmitInput{Records: testRecords(5)})
	if err == nil {
		t.Fatal("expected storage error")
	}
	if len(repo.records) != 0 {
		t.Errorf("failed batch left %d records", len(repo.records))
	}
}

func TestListByAgentPaging(t *testing.T) {
	repo := newFakeTelemetryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	if _, err := svc.Submit(ctx, testAgent(), SubmitInput{Records: testRecords(5)}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	page, total, err := svc.ListByAgent(ctx, 7, 2, 2)
	if err != nil {
		t.Fatalf("ListByAgent: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}
}
