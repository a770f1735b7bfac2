package otel

import (
	"context"
	"encoding/json"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"prismtrack/backend/internal/events"
)

// NewEmitter returns an events.Emitter that sends domain events as OTel log
// records via the given LoggerProvider. A nil provider yields a no-op.
func NewEmitter(provider *sdklog.LoggerProvider) events.Emitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &logEmitter{logger: provider.Logger("prismtrack.events")}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, events.Event) error { return nil }
func (noopEmitter) Close() error                             { return nil }

// recordLogger is the slice of otellog.Logger the emitter uses.
type recordLogger interface {
	Emit(ctx context.Context, rec otellog.Record)
}

func newEmitterWithLogger(l recordLogger) events.Emitter {
	return &logEmitter{logger: l}
}

type logEmitter struct {
	logger recordLogger
}

// Emit converts the event to an OTel log record. The structured Data payload
// becomes the record body as JSON; the rest becomes attributes.
func (e *logEmitter) Emit(ctx context.Context, event events.Event) error {
	rec := otellog.Record{}
	if !event.Timestamp.IsZero() {
		rec.SetTimestamp(event.Timestamp)
	}
	if len(event.Data) > 0 {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return err
		}
		rec.SetBody(otellog.BytesValue(payload))
	}
	if event.ID != "" {
		rec.AddAttributes(otellog.String("event_id", event.ID))
	}
	if event.Type != "" {
		rec.AddAttributes(otellog.String("event_type", event.Type))
	}
	if event.OrgID != "" {
		rec.AddAttributes(otellog.String("org_id", event.OrgID))
	}
	e.logger.Emit(ctx, rec)
	return nil
}

func (e *logEmitter) Close() error { return nil }
