package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"kycflow/internal/kyc/models"
	"kycflow/internal/kyc/service"
)

// fakePoller replays queued fetches, then cancels the consumer.
type fakePoller struct {
	mu      sync.Mutex
	queue   []kgo.Fetches
	cancel  context.CancelFunc
	commits int
}

func (f *fakePoller) PollFetches(context.Context) kgo.Fetches {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		f.cancel()
		return nil
	}
	next := f.queue[0]
	f.queue = f.queue[1:]
	return next
}

func (f *fakePoller) CommitUncommittedOffsets(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	return nil
}

func fetchOf(topic string, values ...[]byte) kgo.Fetches {
	records := make([]*kgo.Record, 0, len(values))
	for i, v := range values {
		records = append(records, &kgo.Record{Topic: topic, Offset: int64(i), Value: v})
	}
	return kgo.Fetches{{Topics: []kgo.FetchTopic{{
		Topic:      topic,
		Partitions: []kgo.FetchPartition{{Partition: 0, Records: records}},
	}}}}
}

type recordingProcessor struct {
	batches [][]models.CaseRequest
}

func (p *recordingProcessor) ProcessBatch(_ context.Context, reqs []models.CaseRequest) []service.BatchItem {
	p.batches = append(p.batches, reqs)
	items := make([]service.BatchItem, len(reqs))
	for i, r := range reqs {
		items[i] = service.BatchItem{CaseID: r.CaseID}
	}
	return items
}

type recordingFeedback struct {
	got []models.Feedback
	err error
}

func (r *recordingFeedback) RecordFeedback(_ context.Context, fb models.Feedback) error {
	r.got = append(r.got, fb)
	return r.err
}

func requestEvent(t *testing.T, caseID string) []byte {
	t.Helper()
	event := cloudevents.NewEvent()
	event.SetID("evt-" + caseID)
	event.SetSource("test")
	event.SetType(TypeCaseRequest)
	require.NoError(t, event.SetData(cloudevents.ApplicationJSON, map[string]any{
		"case_id":       caseID,
		"customer_data": map[string]any{"name": "Grace Hopper"},
	}))
	b, err := json.Marshal(event)
	require.NoError(t, err)
	return b
}

func TestDecodeRequest(t *testing.T) {
	t.Run("cloudevent", func(t *testing.T) {
		req, err := DecodeRequest(requestEvent(t, "case-1"))
		require.NoError(t, err)
		assert.Equal(t, "case-1", req.CaseID.String())
		assert.True(t, req.Config.EnableQA, "omitted processing flags default to enabled")
	})

	t.Run("bare json", func(t *testing.T) {
		req, err := DecodeRequest([]byte(`{"case_id":"case-2","customer_data":{"name":"x"}}`))
		require.NoError(t, err)
		assert.Equal(t, "case-2", req.CaseID.String())
	})

	t.Run("wrong event type", func(t *testing.T) {
		event := cloudevents.NewEvent()
		event.SetID("1")
		event.SetSource("test")
		event.SetType(TypeCaseResult)
		b, err := json.Marshal(event)
		require.NoError(t, err)

		_, err = DecodeRequest(b)
		assert.ErrorIs(t, err, ErrUnexpectedType)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := DecodeRequest([]byte("not json"))
		assert.Error(t, err)
	})
}

func TestRequestConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	poller := &fakePoller{cancel: cancel, queue: []kgo.Fetches{
		fetchOf("kyc_request", requestEvent(t, "case-1"), []byte("{broken"), requestEvent(t, "case-2")),
		fetchOf("kyc_request", []byte("{broken")),
	}}
	processor := &recordingProcessor{}

	err := NewRequestConsumer(poller, processor, nil).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, processor.batches, 1, "a batch of only malformed records is not processed")
	assert.Len(t, processor.batches[0], 2)
	assert.Equal(t, 2, poller.commits, "offsets are committed after every batch")
}

func TestFeedbackConsumer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	fb, err := json.Marshal(models.Feedback{CaseID: "case-1", Reviewer: "officer", Decision: models.RecommendationApprove})
	require.NoError(t, err)
	poller := &fakePoller{cancel: cancel, queue: []kgo.Fetches{fetchOf("kyc_feedback", fb, []byte("?"))}}
	recorder := &recordingFeedback{err: errors.New("store down")}

	err = NewFeedbackConsumer(poller, recorder, nil).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, recorder.got, 1)
	assert.Equal(t, "officer", recorder.got[0].Reviewer)
	assert.Equal(t, 1, poller.commits)
}

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.records = append(f.records, rs...)
	out := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func TestResultPublisher(t *testing.T) {
	res := &models.CaseResult{
		CaseID:      "case-7",
		CompletedAt: time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC),
		Summary:     models.ExecutiveSummary{Recommendation: models.RecommendationApprove},
	}

	t.Run("produces a cloudevent keyed by case", func(t *testing.T) {
		producer := &fakeProducer{}
		require.NoError(t, NewResultPublisher(producer, "kyc_result", "kycflow-test").Publish(context.Background(), res))
		require.Len(t, producer.records, 1)

		rec := producer.records[0]
		assert.Equal(t, "kyc_result", rec.Topic)
		assert.Equal(t, "case-7", string(rec.Key))

		var event cloudevents.Event
		require.NoError(t, json.Unmarshal(rec.Value, &event))
		assert.Equal(t, TypeCaseResult, event.Type())
		assert.Equal(t, "kycflow-test", event.Source())
		assert.Equal(t, "case-7", event.Subject())

		var decoded models.CaseResult
		require.NoError(t, event.DataAs(&decoded))
		assert.Equal(t, models.RecommendationApprove, decoded.Summary.Recommendation)
	})

	t.Run("produce failure", func(t *testing.T) {
		producer := &fakeProducer{err: errors.New("leader not available")}
		err := NewResultPublisher(producer, "kyc_result", "").Publish(context.Background(), res)
		assert.ErrorContains(t, err, "produce to kyc_result")
	})
}
