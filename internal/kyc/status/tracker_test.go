package status

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"kycflow/internal/kyc/models"
	"kycflow/pkg/platform/sentinel"
)

// TrackerSuite runs the same lifecycle checks against every implementation.
type TrackerSuite struct {
	suite.Suite
	newTracker func() Tracker
	tracker    Tracker
}

func TestInMemoryTracker(t *testing.T) {
	suite.Run(t, &TrackerSuite{newTracker: func() Tracker { return NewInMemoryTracker() }})
}

func TestRedisTracker(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	suite.Run(t, &TrackerSuite{newTracker: func() Tracker {
		mr.FlushAll()
		return NewRedisTracker(client)
	}})
}

func (s *TrackerSuite) SetupTest() {
	s.tracker = s.newTracker()
}

var at = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func caseStatus(state models.CaseState, step models.StepName) models.CaseStatus {
	return models.CaseStatus{CaseID: "case-1", State: state, Step: step, UpdatedAt: at}
}

func (s *TrackerSuite) TestLifecycle() {
	ctx := context.Background()
	for _, st := range []models.CaseStatus{
		caseStatus(models.CaseStatePending, ""),
		caseStatus(models.CaseStateRunning, models.StepDocumentVerification),
		caseStatus(models.CaseStateRunning, models.StepBiometricMatch),
		caseStatus(models.CaseStateAggregating, ""),
		caseStatus(models.CaseStateAssembled, ""),
	} {
		s.Require().NoError(s.tracker.Transition(ctx, st), "transition to %s", st.State)
	}

	got, err := s.tracker.Get(ctx, "case-1")
	s.Require().NoError(err)
	s.Equal(models.CaseStateAssembled, got.State)
	s.True(at.Equal(got.UpdatedAt))
}

func (s *TrackerSuite) TestTerminalStateIsFinal() {
	ctx := context.Background()
	s.Require().NoError(s.tracker.Transition(ctx, caseStatus(models.CaseStateErrored, "")))

	err := s.tracker.Transition(ctx, caseStatus(models.CaseStateRunning, models.StepDataIntegration))
	s.ErrorIs(err, sentinel.ErrInvalidState)

	got, err := s.tracker.Get(ctx, "case-1")
	s.Require().NoError(err)
	s.Equal(models.CaseStateErrored, got.State)
}

func (s *TrackerSuite) TestIllegalTransition() {
	ctx := context.Background()
	s.Require().NoError(s.tracker.Transition(ctx, caseStatus(models.CaseStateAggregating, "")))

	s.ErrorIs(s.tracker.Transition(ctx, caseStatus(models.CaseStateRunning, models.StepQualityAssurance)), sentinel.ErrInvalidState)
}

func (s *TrackerSuite) TestRepeatedStatusIsNoop() {
	ctx := context.Background()
	st := caseStatus(models.CaseStateRunning, models.StepWatchlistScreening)
	s.Require().NoError(s.tracker.Transition(ctx, st))
	s.NoError(s.tracker.Transition(ctx, st))
}

func (s *TrackerSuite) TestUnknownCase() {
	_, err := s.tracker.Get(context.Background(), "missing")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func TestRedisTrackerExpiry(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	tracker := NewRedisTracker(client, WithTTL(time.Minute))
	ctx := context.Background()

	require.NoError(t, tracker.Transition(ctx, caseStatus(models.CaseStatePending, "")))
	assert.Equal(t, time.Minute, mr.TTL("kyc:case:case-1"))

	mr.FastForward(2 * time.Minute)
	_, err := tracker.Get(ctx, "case-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestInMemoryTrackerExpiry(t *testing.T) {
	now := at
	tracker := NewInMemoryTracker(WithMemoryTTL(time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	require.NoError(t, tracker.Transition(ctx, caseStatus(models.CaseStateAssembled, "")))
	_, err := tracker.Get(ctx, "case-1")
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = tracker.Get(ctx, "case-1")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	other := caseStatus(models.CaseStatePending, "")
	other.CaseID = "case-2"
	require.NoError(t, tracker.Transition(ctx, other))
	assert.Equal(t, 1, tracker.Len(), "expired entries are swept on write")
}
