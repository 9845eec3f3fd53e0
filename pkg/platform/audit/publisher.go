package audit

import (
	"context"
	"time"

	"studbook/pkg/requestcontext"
)

// Sink is anywhere audit events can be appended: the in-memory store, the
// Postgres store, or the Kafka producer.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher decouples domain services from audit persistence. Services emit;
// the worker drains the inbox into a sink. A nil Publisher is a disabled one,
// so tests don't have to wire the pipeline.
type Publisher struct {
	inbox chan Event
}

// NewPublisher creates a publisher with a buffered inbox. Pair it with a
// Worker draining Inbox into a sink.
func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Event, buffer)}
}

// Inbox exposes the receive side for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// Emit stamps and enqueues an event. When the inbox is full the event is
// dropped rather than stalling the request path; audit is best-effort in
// process, durable once the worker hands it to a sink.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.Category == "" {
		event.Category = CategoryFor(event.Name)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	select {
	case p.inbox <- event:
	default:
	}
}

// EmitAt is Emit with an explicit timestamp, for callers outside a request.
func (p *Publisher) EmitAt(ctx context.Context, event Event, at time.Time) {
	event.Timestamp = at
	p.Emit(ctx, event)
}
