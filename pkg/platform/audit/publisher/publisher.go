// Package publisher emits audit events for the case lifecycle.
//
// In sync mode Emit blocks until the store accepts the event and returns the
// store error. In async mode events are buffered and persisted by a
// background worker; a full buffer drops the event and returns ErrBufferFull.
package publisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	id "kycflow/pkg/domain"
	audit "kycflow/pkg/platform/audit"
	"kycflow/pkg/platform/audit/worker"
)

var ErrBufferFull = errors.New("audit buffer full")

// Publisher writes audit events to a Store.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
	now    func() time.Time

	buffer int
	inbox  chan audit.Event
	done   chan struct{}
	once   sync.Once
}

type Option func(*Publisher)

// WithAsyncBuffer switches the publisher to buffered, non-blocking mode.
func WithAsyncBuffer(size int) Option {
	return func(p *Publisher) {
		p.buffer = size
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(p *Publisher) {
		if now != nil {
			p.now = now
		}
	}
}

func NewPublisher(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	if p.buffer > 0 {
		p.inbox = make(chan audit.Event, p.buffer)
		p.done = make(chan struct{})
		w := worker.NewWorker(store, p.inbox, p.logger)
		go func() {
			defer close(p.done)
			_ = w.Run(context.Background())
		}()
	}
	return p
}

// Emit records event, filling in the ID, timestamp and category.
func (p *Publisher) Emit(ctx context.Context, event audit.Event) error {
	if event.Action == "" {
		return fmt.Errorf("audit event requires Action")
	}
	if uuidNil(event.ID) {
		event.ID = id.NewEventID()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = p.now()
	}
	event.Category = audit.AuditEvent(event.Action).Category()

	if p.inbox == nil {
		if err := p.store.Append(ctx, event); err != nil {
			p.logger.ErrorContext(ctx, "audit persistence failed",
				"action", event.Action, "case_id", event.CaseID, "error", err)
			return fmt.Errorf("audit persistence failed: %w", err)
		}
		return nil
	}

	select {
	case p.inbox <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		p.logger.WarnContext(ctx, "audit buffer full, dropping event",
			"action", event.Action, "case_id", event.CaseID)
		return ErrBufferFull
	}
}

// List returns the events recorded for a case.
func (p *Publisher) List(ctx context.Context, caseID id.CaseID) ([]audit.Event, error) {
	return p.store.ListByCase(ctx, caseID)
}

// Close drains buffered events. Emit must not be called after Close.
func (p *Publisher) Close() error {
	p.once.Do(func() {
		if p.inbox != nil {
			close(p.inbox)
			<-p.done
		}
	})
	return nil
}

func uuidNil(e id.EventID) bool {
	return e == id.EventID{}
}
