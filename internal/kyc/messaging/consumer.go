package messaging

import (
	"context"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"

	"kycflow/internal/kyc/models"
	"kycflow/internal/kyc/service"
)

// Poller is the consume half of *kgo.Client.
type Poller interface {
	PollFetches(ctx context.Context) kgo.Fetches
	CommitUncommittedOffsets(ctx context.Context) error
}

// BatchProcessor is implemented by service.Service.
type BatchProcessor interface {
	ProcessBatch(ctx context.Context, reqs []models.CaseRequest) []service.BatchItem
}

// FeedbackRecorder is implemented by service.Service.
type FeedbackRecorder interface {
	RecordFeedback(ctx context.Context, fb models.Feedback) error
}

// RequestConsumer feeds polled case requests through the service in
// batches, committing offsets once each batch has been handled. Records
// that cannot be decoded are logged and skipped.
type RequestConsumer struct {
	poller    Poller
	processor BatchProcessor
	logger    *slog.Logger
}

func NewRequestConsumer(poller Poller, processor BatchProcessor, logger *slog.Logger) *RequestConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &RequestConsumer{poller: poller, processor: processor, logger: logger}
}

// Run polls until ctx is done or the client is closed.
func (c *RequestConsumer) Run(ctx context.Context) error {
	return pollLoop(ctx, c.poller, c.logger, func(records []*kgo.Record) {
		reqs := make([]models.CaseRequest, 0, len(records))
		for _, r := range records {
			req, err := DecodeRequest(r.Value)
			if err != nil {
				c.logger.WarnContext(ctx, "skipping malformed case request",
					"topic", r.Topic, "partition", r.Partition, "offset", r.Offset, "error", err)
				continue
			}
			reqs = append(reqs, req)
		}
		if len(reqs) == 0 {
			return
		}
		for _, item := range c.processor.ProcessBatch(ctx, reqs) {
			if item.Err != nil {
				c.logger.ErrorContext(ctx, "case from kafka failed",
					"case_id", item.CaseID, "error", item.Err)
			}
		}
	})
}

// FeedbackConsumer stores reviewer feedback events.
type FeedbackConsumer struct {
	poller   Poller
	recorder FeedbackRecorder
	logger   *slog.Logger
}

func NewFeedbackConsumer(poller Poller, recorder FeedbackRecorder, logger *slog.Logger) *FeedbackConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &FeedbackConsumer{poller: poller, recorder: recorder, logger: logger}
}

func (c *FeedbackConsumer) Run(ctx context.Context) error {
	return pollLoop(ctx, c.poller, c.logger, func(records []*kgo.Record) {
		for _, r := range records {
			fb, err := DecodeFeedback(r.Value)
			if err != nil {
				c.logger.WarnContext(ctx, "skipping malformed feedback",
					"topic", r.Topic, "partition", r.Partition, "offset", r.Offset, "error", err)
				continue
			}
			if err := c.recorder.RecordFeedback(ctx, fb); err != nil {
				c.logger.ErrorContext(ctx, "failed to record feedback",
					"case_id", fb.CaseID, "error", err)
			}
		}
	})
}

func pollLoop(ctx context.Context, poller Poller, logger *slog.Logger, handle func([]*kgo.Record)) error {
	for {
		fetches := poller.PollFetches(ctx)
		if err := ctx.Err(); err != nil {
			return err
		}
		if fetches.IsClientClosed() {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			logger.ErrorContext(ctx, "kafka fetch failed",
				"topic", topic, "partition", partition, "error", err)
		})

		records := fetches.Records()
		if len(records) == 0 {
			continue
		}
		handle(records)
		if err := poller.CommitUncommittedOffsets(ctx); err != nil {
			logger.ErrorContext(ctx, "failed to commit offsets", "error", err)
		}
	}
}
