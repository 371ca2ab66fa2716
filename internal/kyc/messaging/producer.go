package messaging

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/twmb/franz-go/pkg/kgo"

	"kycflow/internal/kyc/models"
)

// Producer is the produce half of *kgo.Client.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// ResultPublisher produces each finished result to the result topic.
type ResultPublisher struct {
	producer Producer
	topic    string
	source   string
}

func NewResultPublisher(producer Producer, topic, source string) *ResultPublisher {
	return &ResultPublisher{producer: producer, topic: topic, source: source}
}

func (p *ResultPublisher) Name() string { return "kafka" }

func (p *ResultPublisher) Publish(ctx context.Context, res *models.CaseResult) error {
	event, err := NewResultEvent(p.source, res)
	if err != nil {
		return err
	}
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal result event: %w", err)
	}
	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(res.CaseID.String()),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "content-type", Value: []byte("application/cloudevents+json")},
			{Key: "ce_type", Value: []byte(TypeCaseResult)},
		},
	}
	if err := p.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", p.topic, err)
	}
	return nil
}
