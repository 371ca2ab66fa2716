package store

import (
	"context"
	"sort"
	"sync"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

// InMemoryResultStore keeps results by value in a map.
type InMemoryResultStore struct {
	mu      sync.RWMutex
	results map[id.CaseID]models.CaseResult
}

func NewInMemoryResultStore() *InMemoryResultStore {
	return &InMemoryResultStore{results: make(map[id.CaseID]models.CaseResult)}
}

func (s *InMemoryResultStore) Save(_ context.Context, res *models.CaseResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.results[res.CaseID]; ok {
		return sentinel.ErrConflict
	}
	s.results[res.CaseID] = *res
	return nil
}

func (s *InMemoryResultStore) FindByID(_ context.Context, caseID id.CaseID) (*models.CaseResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.results[caseID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &res, nil
}

// ListRecent returns up to limit results, latest completion first.
func (s *InMemoryResultStore) ListRecent(_ context.Context, limit int) ([]*models.CaseResult, error) {
	s.mu.RLock()
	out := make([]*models.CaseResult, 0, len(s.results))
	for _, res := range s.results {
		res := res
		out = append(out, &res)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if limit = normalizeLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
