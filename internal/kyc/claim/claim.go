// Package claim reserves case IDs so a case is processed at most once
// across service instances. A claim expires after its TTL so abandoned
// claims do not block resubmission forever.
package claim

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

const (
	claimKeyPrefix = "kyc:claim:"
	DefaultTTL     = 24 * time.Hour
)

// RedisClaimer claims with SET NX and a TTL.
type RedisClaimer struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisClaimer(client *redis.Client, ttl time.Duration) *RedisClaimer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisClaimer{client: client, ttl: ttl}
}

// Claim returns sentinel.ErrConflict when caseID is already held.
func (c *RedisClaimer) Claim(ctx context.Context, caseID id.CaseID) error {
	ok, err := c.client.SetNX(ctx, claimKeyPrefix+caseID.String(), "1", c.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim case %s: %v: %w", caseID, err, sentinel.ErrUnavailable)
	}
	if !ok {
		return sentinel.ErrConflict
	}
	return nil
}

func (c *RedisClaimer) Release(ctx context.Context, caseID id.CaseID) error {
	return c.client.Del(ctx, claimKeyPrefix+caseID.String()).Err()
}

// InMemoryClaimer is the single-process claimer.
type InMemoryClaimer struct {
	mu   sync.Mutex
	held map[id.CaseID]time.Time
	ttl  time.Duration
	now  func() time.Time
}

func NewInMemoryClaimer(ttl time.Duration) *InMemoryClaimer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &InMemoryClaimer{held: make(map[id.CaseID]time.Time), ttl: ttl, now: time.Now}
}

func (c *InMemoryClaimer) Claim(_ context.Context, caseID id.CaseID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if expires, ok := c.held[caseID]; ok && now.Before(expires) {
		return sentinel.ErrConflict
	}
	c.held[caseID] = now.Add(c.ttl)
	return nil
}

func (c *InMemoryClaimer) Release(_ context.Context, caseID id.CaseID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.held, caseID)
	return nil
}
