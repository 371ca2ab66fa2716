package status

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"kycflow/internal/kyc/models"
	id "kycflow/pkg/domain"
	"kycflow/pkg/platform/sentinel"
)

const (
	caseKeyPrefix = "kyc:case:"
	maxTxRetries  = 3

	// DefaultTTL bounds how long a finished case stays queryable.
	DefaultTTL = 24 * time.Hour
)

// RedisTracker keeps one hash per case with state, step and updated_at
// fields. Transitions run under WATCH so concurrent writers cannot skip the
// lifecycle check.
type RedisTracker struct {
	client *redis.Client
	ttl    time.Duration
}

type RedisTrackerOption func(*RedisTracker)

func WithTTL(ttl time.Duration) RedisTrackerOption {
	return func(t *RedisTracker) {
		if ttl > 0 {
			t.ttl = ttl
		}
	}
}

func NewRedisTracker(client *redis.Client, opts ...RedisTrackerOption) *RedisTracker {
	t := &RedisTracker{client: client, ttl: DefaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(t)
		}
	}
	return t
}

func caseKey(caseID id.CaseID) string {
	return caseKeyPrefix + caseID.String()
}

func (t *RedisTracker) Transition(ctx context.Context, st models.CaseStatus) error {
	key := caseKey(st.CaseID)
	txf := func(tx *redis.Tx) error {
		fields, err := tx.HGetAll(ctx, key).Result()
		if err != nil {
			return err
		}
		apply, err := checkTransition(decodeStatus(st.CaseID, fields), st)
		if err != nil || !apply {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key,
				"state", string(st.State),
				"step", string(st.Step),
				"updated_at", st.UpdatedAt.UTC().Format(time.RFC3339Nano),
			)
			pipe.Expire(ctx, key, t.ttl)
			return nil
		})
		return err
	}

	for range maxTxRetries {
		err := t.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, sentinel.ErrInvalidState) {
			return fmt.Errorf("record case status: %w", err)
		}
		return err
	}
	return fmt.Errorf("record case status %s: %w", st.CaseID, sentinel.ErrUnavailable)
}

func (t *RedisTracker) Get(ctx context.Context, caseID id.CaseID) (models.CaseStatus, error) {
	fields, err := t.client.HGetAll(ctx, caseKey(caseID)).Result()
	if err != nil {
		return models.CaseStatus{}, fmt.Errorf("read case status: %w", err)
	}
	if len(fields) == 0 {
		return models.CaseStatus{}, sentinel.ErrNotFound
	}
	return decodeStatus(caseID, fields), nil
}

func decodeStatus(caseID id.CaseID, fields map[string]string) models.CaseStatus {
	if len(fields) == 0 {
		return models.CaseStatus{}
	}
	st := models.CaseStatus{
		CaseID: caseID,
		State:  models.CaseState(fields["state"]),
		Step:   models.StepName(fields["step"]),
	}
	if ts, err := time.Parse(time.RFC3339Nano, fields["updated_at"]); err == nil {
		st.UpdatedAt = ts
	}
	return st
}
