package audit

import (
	"context"
	"time"

	"github.com/google/uuid"

	"fundgate/pkg/domain"
)

// Store is an append-only event log.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProposal(ctx context.Context, id domain.ProposalID) ([]Event, error)
}

// Sink ships events off-process (Kafka, files). Sinks are best-effort; a
// failing sink never blocks a state transition.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// Publisher captures structured audit events. The store write is
// synchronous so the trail is queryable immediately; sink delivery goes
// through the inbox and happens off the request path.
type Publisher struct {
	store Store
	inbox chan<- Event
}

type PublisherOption func(*Publisher)

// WithInbox routes emitted events to a worker-drained channel. Events are
// dropped when the inbox is full rather than blocking a state transition.
func WithInbox(inbox chan<- Event) PublisherOption {
	return func(p *Publisher) { p.inbox = inbox }
}

func NewPublisher(store Store, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Publisher) Emit(ctx context.Context, base Event) error {
	if base.ID == "" {
		base.ID = uuid.NewString()
	}
	if base.Timestamp.IsZero() {
		base.Timestamp = time.Now()
	}
	if err := p.store.Append(ctx, base); err != nil {
		return err
	}
	if p.inbox != nil {
		select {
		case p.inbox <- base:
		default:
		}
	}
	return nil
}

func (p *Publisher) List(ctx context.Context, id domain.ProposalID) ([]Event, error) {
	return p.store.ListByProposal(ctx, id)
}
