package audit

import (
	"context"
	"log/slog"
	"time"

	id "custos/pkg/domain"
)

// Sink receives events beside the store, typically a Kafka publisher. nil
// disables fan-out.
type Sink interface {
	Publish(ctx context.Context, event Event) error
}

// Recorder accepts audit events from domain logic and persists them on a
// background worker. Emission is fire-and-forget: a slow or failing audit
// pipeline never blocks or fails a spend.
type Recorder struct {
	inbox  chan Event
	store  Store
	sink   Sink
	logger *slog.Logger
}

// NewRecorder constructs a Recorder with the given inbox capacity. sink may
// be nil.
func NewRecorder(store Store, sink Sink, logger *slog.Logger, buffer int) *Recorder {
	return &Recorder{
		inbox:  make(chan Event, buffer),
		store:  store,
		sink:   sink,
		logger: logger,
	}
}

// Emit queues an event without blocking. When the inbox is full the event is
// dropped and counted in the log, never propagated as a failure.
func (r *Recorder) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case r.inbox <- event:
	default:
		r.logger.Warn("audit inbox full, dropping event",
			"dependent_id", event.DependentID,
			"action", event.Action,
			"decision", event.Decision,
		)
	}
}

// Run consumes the inbox until ctx is cancelled. Persistence errors are
// logged and the worker keeps going.
func (r *Recorder) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-r.inbox:
			r.process(ctx, event)
		}
	}
}

func (r *Recorder) process(ctx context.Context, event Event) {
	if err := r.store.Append(ctx, event); err != nil {
		r.logger.ErrorContext(ctx, "failed to persist audit event", "error", err)
	}
	if r.sink == nil {
		return
	}
	if err := r.sink.Publish(ctx, event); err != nil {
		r.logger.WarnContext(ctx, "failed to publish audit event", "error", err)
	}
}

// List returns the audit trail for one dependent.
func (r *Recorder) List(ctx context.Context, dependentID id.DependentID) ([]Event, error) {
	return r.store.ListByDependent(ctx, dependentID)
}
