package audit

import (
	"context"
	"log/slog"
	"time"
)

// Publisher captures structured audit events. It is append-only and uses the
// storage layer for persistence so tests can swap sinks easily. A nil
// Publisher drops events, which keeps callers free of nil checks.
type Publisher struct {
	store  Store
	logger *slog.Logger
}

func NewPublisher(store Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// Emit appends an event, stamping it when the caller did not. Audit
// failures are logged, never propagated: the business operation already
// happened.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, event); err != nil && p.logger != nil {
		p.logger.ErrorContext(ctx, "audit append failed",
			"action", string(event.Action),
			"subject", event.Subject,
			"error", err,
		)
	}
}

// List returns the audit trail for one subject.
func (p *Publisher) List(ctx context.Context, subject string) ([]Event, error) {
	return p.store.ListBySubject(ctx, subject)
}
