package events

import (
	"context"
	"log"
	"time"
)

// emitTimeout caps how long a background emit may run after the originating
// request has returned.
const emitTimeout = 5 * time.Second

// EmitAsync publishes the event on a background goroutine so the request path
// never waits on a broker. Failures are logged and dropped; events are
// best-effort telemetry, not ledger entries. The event is finalized before
// the goroutine starts so ID and Timestamp reflect the emitting site.
func EmitAsync(em Emitter, e Event) {
	if em == nil {
		return
	}
	e = e.Finalize()
	go func() {
		// The originating request context is not carried: the emit must
		// outlive the request that triggered it.
		ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
		defer cancel()
		if err := em.Emit(ctx, e); err != nil {
			log.Printf("event emit failed: type=%s id=%s: %v", e.Type, e.ID, err)
		}
	}()
}
