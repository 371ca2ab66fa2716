// Package live fans completed results out to in-process subscribers such
// as the server-sent events route.
package live

import (
	"context"
	"log/slog"
	"sync"

	"kycflow/internal/kyc/models"
)

const DefaultBuffer = 16

// Hub delivers each published result to every current subscriber. A
// subscriber whose buffer is full misses the result; publishers never block.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]chan *models.CaseResult
	next    uint64
	buffer  int
	dropped uint64
	closed  bool
	logger  *slog.Logger
}

type Option func(*Hub)

func WithBuffer(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.buffer = n
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		subs:   make(map[uint64]chan *models.CaseResult),
		buffer: DefaultBuffer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) Name() string { return "live" }

// Subscribe registers a subscriber. The channel is closed by Unsubscribe or
// Close.
func (h *Hub) Subscribe() (uint64, <-chan *models.CaseResult) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	ch := make(chan *models.CaseResult, h.buffer)
	if h.closed {
		close(ch)
		return h.next, ch
	}
	h.subs[h.next] = ch
	return h.next, ch
}

func (h *Hub) Unsubscribe(subID uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[subID]; ok {
		delete(h.subs, subID)
		close(ch)
	}
}

func (h *Hub) Publish(ctx context.Context, res *models.CaseResult) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for subID, ch := range h.subs {
		select {
		case ch <- res:
		default:
			h.dropped++
			h.logger.DebugContext(ctx, "live subscriber too slow, dropping result",
				"subscriber", subID, "case_id", res.CaseID)
		}
	}
	return nil
}

// Subscribers returns the number of active subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped returns how many deliveries were skipped for slow subscribers.
func (h *Hub) Dropped() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Close ends every subscription. Later subscribers get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for subID, ch := range h.subs {
		delete(h.subs, subID)
		close(ch)
	}
}
