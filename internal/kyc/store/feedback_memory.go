package store

import (
	"context"
	"sync"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
)

type InMemoryFeedbackStore struct {
	mu       sync.RWMutex
	feedback map[id.CaseID][]models.Feedback
}

func NewInMemoryFeedbackStore() *InMemoryFeedbackStore {
	return &InMemoryFeedbackStore{feedback: make(map[id.CaseID][]models.Feedback)}
}

func (s *InMemoryFeedbackStore) Save(_ context.Context, fb models.Feedback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.feedback[fb.CaseID] = append(s.feedback[fb.CaseID], fb)
	return nil
}

func (s *InMemoryFeedbackStore) ListByCase(_ context.Context, caseID id.CaseID) ([]models.Feedback, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Feedback(nil), s.feedback[caseID]...), nil
}
