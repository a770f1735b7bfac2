package otel

import (
	"context"
	"testing"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"prismtrack/backend/internal/events"
)

func TestNewEmitterNilProviderReturnsNoop(t *testing.T) {
	em := NewEmitter(nil)
	if em == nil {
		t.Fatal("NewEmitter(nil) returned nil")
	}
	if err := em.Emit(context.Background(), events.Event{Type: "agent.heartbeat"}); err != nil {
		t.Errorf("noop Emit: %v", err)
	}
}

func TestNewEmitterWithProvider(t *testing.T) {
	provider := sdklog.NewLoggerProvider()
	defer func() { _ = provider.Shutdown(context.Background()) }()
	em := NewEmitter(provider)
	if err := em.Emit(context.Background(), events.Event{Type: "agent.registered"}); err != nil {
		t.Errorf("Emit: %v", err)
	}
}

// recordCapture stores the last Record passed to Emit for assertion.
type recordCapture struct {
	rec otellog.Record
}

func (r *recordCapture) Emit(_ context.Context, rec otellog.Record) {
	r.rec = rec
}

func TestEmitAttributeAndBodyMapping(t *testing.T) {
	cap := &recordCapture{}
	em := newEmitterWithLogger(cap)
	ts := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	event := events.Event{
		ID:        "evt-1",
		Type:      "agent.registered",
		OrgID:     "BRN01",
		Timestamp: ts,
		Data:      map[string]any{"agent_id": float64(7)},
	}
	if err := em.Emit(context.Background(), event); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	rec := cap.rec

	if !rec.Timestamp().Equal(ts) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp(), ts)
	}
	if rec.Body().Empty() {
		t.Error("body should carry the data payload")
	}
	if got := string(rec.Body().AsBytes()); got != `{"agent_id":7}` {
		t.Errorf("body = %q", got)
	}

	attrs := make(map[string]string)
	rec.WalkAttributes(func(kv otellog.KeyValue) bool {
		attrs[kv.Key] = kv.Value.AsString()
		return true
	})
	want := map[string]string{
		"event_id": "evt-1", "event_type": "agent.registered", "org_id": "BRN01",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attr %q = %q, want %q", k, attrs[k], v)
		}
	}
}

func TestEmitEmptyDataNoBodySet(t *testing.T) {
	cap := &recordCapture{}
	em := newEmitterWithLogger(cap)
	if err := em.Emit(context.Background(), events.Event{Type: "agent.heartbeat", OrgID: "TNT01"}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if !cap.rec.Body().Empty() {
		t.Error("body should be empty when the event carries no data")
	}
}
