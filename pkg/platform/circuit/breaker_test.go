package circuit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
)

type BreakerSuite struct {
	suite.Suite
	now time.Time
}

func TestBreakerSuite(t *testing.T) {
	suite.Run(t, new(BreakerSuite))
}

func (s *BreakerSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
}

func (s *BreakerSuite) breaker(opts ...Option) *Breaker {
	opts = append([]Option{WithClock(func() time.Time { return s.now })}, opts...)
	return New("watchlist-screening", opts...)
}

func (s *BreakerSuite) trip(b *Breaker, n int) {
	for range n {
		b.RecordFailure()
	}
}

func (s *BreakerSuite) TestDefaults() {
	b := New("ocr")
	s.Equal("ocr", b.Name())
	s.Equal(StateClosed, b.State())
	s.True(b.Allow())

	s.trip(b, 4)
	s.False(b.IsOpen(), "default threshold is five failures")
	b.RecordFailure()
	s.True(b.IsOpen())
	s.Equal(StateOpen, b.State())
	s.False(b.Allow(), "a tripped breaker rejects calls during the default cooldown")
}

func (s *BreakerSuite) TestDefaultCooldown() {
	b := s.breaker(WithFailureThreshold(1))
	b.RecordFailure()
	s.Equal(StateOpen, b.State())
	s.False(b.Allow())

	s.now = s.now.Add(DefaultCooldown - time.Second)
	s.False(b.Allow())

	s.now = s.now.Add(time.Second)
	s.Equal(StateHalfOpen, b.State())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestOpening() {
	s.Run("opens on the threshold failure only", func() {
		b := s.breaker(WithFailureThreshold(2))

		tripped, change := b.RecordFailure()
		s.False(tripped)
		s.False(change.Opened)

		tripped, change = b.RecordFailure()
		s.True(tripped)
		s.True(change.Opened)
		s.Equal(StateOpen, b.State())
		s.False(b.Allow())
	})

	s.Run("a success in between restarts the run", func() {
		b := s.breaker(WithFailureThreshold(2))
		b.RecordFailure()
		closed, change := b.RecordSuccess()
		s.True(closed)
		s.Equal(StateChange{}, change)

		b.RecordFailure()
		s.False(b.IsOpen())
	})

	s.Run("failures while open report no new transition", func() {
		b := s.breaker(WithFailureThreshold(1))
		b.RecordFailure()

		tripped, change := b.RecordFailure()
		s.True(tripped)
		s.False(change.Opened)
	})
}

func (s *BreakerSuite) TestCooldown() {
	b := s.breaker(WithFailureThreshold(1), WithCooldown(30*time.Second))
	b.RecordFailure()

	s.Run("rejects calls until the cooldown elapses", func() {
		s.now = s.now.Add(29 * time.Second)
		s.Equal(StateOpen, b.State())
		s.False(b.Allow())
	})

	s.Run("half-open lets a probe through", func() {
		s.now = s.now.Add(time.Second)
		s.Equal(StateHalfOpen, b.State())
		s.True(b.Allow())
		s.True(b.IsOpen())
	})

	s.Run("a failed probe re-arms the cooldown", func() {
		b.RecordFailure()
		s.False(b.Allow())
		s.now = s.now.Add(30 * time.Second)
		s.True(b.Allow())
	})
}

func (s *BreakerSuite) TestClosing() {
	s.Run("needs consecutive successes", func() {
		b := s.breaker(WithFailureThreshold(1), WithSuccessThreshold(3))
		b.RecordFailure()

		b.RecordSuccess()
		b.RecordSuccess()
		b.RecordFailure()
		s.True(b.IsOpen(), "a failure resets the success run")

		b.RecordSuccess()
		b.RecordSuccess()
		closed, change := b.RecordSuccess()
		s.True(closed)
		s.True(change.Closed)
		s.Equal(StateClosed, b.State())
	})

	s.Run("reset closes immediately", func() {
		b := s.breaker(WithFailureThreshold(1))
		b.RecordFailure()
		b.Reset()
		s.Equal(StateClosed, b.State())
		s.True(b.Allow())
	})
}

func (s *BreakerSuite) TestInvalidOptionsKeepDefaults() {
	b := s.breaker(WithFailureThreshold(0), WithSuccessThreshold(-1), WithCooldown(-time.Second))
	s.trip(b, 4)
	s.False(b.IsOpen())
	b.RecordFailure()
	s.True(b.IsOpen())
	s.Equal(StateOpen, b.State(), "a negative cooldown keeps the default")

	s.now = s.now.Add(DefaultCooldown)
	s.Equal(StateHalfOpen, b.State())
}

func (s *BreakerSuite) TestZeroCooldownProbesAtOnce() {
	b := s.breaker(WithFailureThreshold(1), WithCooldown(0))
	b.RecordFailure()
	s.Equal(StateHalfOpen, b.State())
	s.True(b.Allow())
}

func (s *BreakerSuite) TestConcurrentUse() {
	b := New("biometric-match", WithFailureThreshold(1000))
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 10 {
				b.RecordFailure()
				b.Allow()
			}
		}()
	}
	wg.Wait()
	s.False(b.IsOpen(), "500 failures stay under the threshold")
}
