package status

import (
	"context"
	"sync"
	"time"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

// InMemoryTracker mirrors the redis tracker's expiry: an entry lives for ttl
// after its last write. Expired entries are swept on write.
type InMemoryTracker struct {
	mu        sync.RWMutex
	statuses  map[id.CaseID]trackedStatus
	ttl       time.Duration
	now       func() time.Time
	lastSweep time.Time
}

type trackedStatus struct {
	status    models.CaseStatus
	expiresAt time.Time
}

type InMemoryTrackerOption func(*InMemoryTracker)

// WithMemoryTTL sets how long an entry stays queryable after its last write.
func WithMemoryTTL(ttl time.Duration) InMemoryTrackerOption {
	return func(t *InMemoryTracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) InMemoryTrackerOption {
	return func(t *InMemoryTracker) {
		if now != nil {
			t.now = now
		}
	}
}

func NewInMemoryTracker(opts ...InMemoryTrackerOption) *InMemoryTracker {
	t := &InMemoryTracker{
		statuses: make(map[id.CaseID]trackedStatus),
		ttl:      DefaultTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	t.lastSweep = t.now()
	return t
}

func (t *InMemoryTracker) Transition(_ context.Context, st models.CaseStatus) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.now()
	t.sweepLocked(now)

	var current models.CaseStatus
	if entry, ok := t.statuses[st.CaseID]; ok && now.Before(entry.expiresAt) {
		current = entry.status
	}
	apply, err := checkTransition(current, st)
	if err != nil || !apply {
		return err
	}
	t.statuses[st.CaseID] = trackedStatus{status: st, expiresAt: now.Add(t.ttl)}
	return nil
}

func (t *InMemoryTracker) Get(_ context.Context, caseID id.CaseID) (models.CaseStatus, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	entry, ok := t.statuses[caseID]
	if !ok || !t.now().Before(entry.expiresAt) {
		return models.CaseStatus{}, sentinel.ErrNotFound
	}
	return entry.status, nil
}

// Len reports the number of entries held, expired ones included until the
// next sweep.
func (t *InMemoryTracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.statuses)
}

// sweepLocked drops expired entries at most once per sweep interval.
func (t *InMemoryTracker) sweepLocked(now time.Time) {
	if now.Sub(t.lastSweep) < t.sweepInterval() {
		return
	}
	for caseID, entry := range t.statuses {
		if !now.Before(entry.expiresAt) {
			delete(t.statuses, caseID)
		}
	}
	t.lastSweep = now
}

func (t *InMemoryTracker) sweepInterval() time.Duration {
	return min(t.ttl, time.Minute)
}
