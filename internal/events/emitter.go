package events

import "context"

// Emitter publishes a domain event to a sink. Implementations must be safe
// for concurrent use.
type Emitter interface {
	Emit(ctx context.Context, e Event) error
	Close() error
}

// Multi fans one event out to several sinks. The first error is returned but
// every sink is attempted.
type Multi []Emitter

func (m Multi) Emit(ctx context.Context, e Event) error {
	var first error
	for _, em := range m {
		if err := em.Emit(ctx, e); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (m Multi) Close() error {
	var first error
	for _, em := range m {
		if err := em.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
