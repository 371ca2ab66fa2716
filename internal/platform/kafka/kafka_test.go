package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
)

type fakeAdmin struct {
	partitions int32
	rf         int16
	resp       kadm.CreateTopicResponses
	err        error
}

func (f *fakeAdmin) CreateTopics(_ context.Context, partitions int32, rf int16, _ map[string]*string, topics ...string) (kadm.CreateTopicResponses, error) {
	f.partitions, f.rf = partitions, rf
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func TestEnsureTopics(t *testing.T) {
	ctx := context.Background()

	t.Run("existing topics are fine", func(t *testing.T) {
		adm := &fakeAdmin{resp: kadm.CreateTopicResponses{
			"kyc_request": {Topic: "kyc_request"},
			"kyc_result":  {Topic: "kyc_result", Err: kerr.TopicAlreadyExists},
		}}
		created, err := EnsureTopics(ctx, adm, 0, 0, "kyc_request", "kyc_result")
		require.NoError(t, err)
		assert.Equal(t, []string{"kyc_request"}, created)
		assert.Equal(t, int32(1), adm.partitions)
		assert.Equal(t, int16(1), adm.rf)
	})

	t.Run("per-topic failures are joined", func(t *testing.T) {
		adm := &fakeAdmin{resp: kadm.CreateTopicResponses{
			"kyc_feedback": {Topic: "kyc_feedback", Err: kerr.PolicyViolation},
		}}
		_, err := EnsureTopics(ctx, adm, 3, 1, "kyc_feedback")
		assert.ErrorIs(t, err, kerr.PolicyViolation)
	})

	t.Run("request failure", func(t *testing.T) {
		_, err := EnsureTopics(ctx, &fakeAdmin{err: errors.New("no brokers")}, 1, 1, "t")
		assert.ErrorContains(t, err, "create topics")
	})

	t.Run("nothing to create", func(t *testing.T) {
		created, err := EnsureTopics(ctx, &fakeAdmin{}, 1, 1)
		assert.NoError(t, err)
		assert.Empty(t, created)
	})
}

func TestTopicsAll(t *testing.T) {
	assert.Equal(t, []string{"a", "c"}, Topics{Request: "a", Feedback: "c"}.All())
}

func TestNewClientRequiresBrokers(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
