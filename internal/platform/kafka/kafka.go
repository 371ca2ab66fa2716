// Package kafka builds franz-go clients and provisions topics.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"
)

type Topics struct {
	Request  string `mapstructure:"request"`
	Result   string `mapstructure:"result"`
	Feedback string `mapstructure:"feedback"`
}

// All lists the configured topics, skipping empty names.
func (t Topics) All() []string {
	var out []string
	for _, name := range []string{t.Request, t.Result, t.Feedback} {
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}

type Config struct {
	Brokers           []string      `mapstructure:"brokers"`
	Group             string        `mapstructure:"group"`
	FeedbackGroup     string        `mapstructure:"feedback_group"`
	Source            string        `mapstructure:"source"`
	Topics            Topics        `mapstructure:"topics"`
	EnsureTopics      bool          `mapstructure:"ensure_topics"`
	Partitions        int32         `mapstructure:"partitions"`
	ReplicationFactor int16         `mapstructure:"replication_factor"`
	DialTimeout       time.Duration `mapstructure:"dial_timeout"`
}

func (c Config) Enabled() bool { return len(c.Brokers) > 0 }

// NewClient connects to the configured brokers. Extra options select the
// consumer group and topics for consumers.
func NewClient(cfg Config, extra ...kgo.Opt) (*kgo.Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("kafka: no brokers configured")
	}
	opts := []kgo.Opt{kgo.SeedBrokers(cfg.Brokers...)}
	if cfg.DialTimeout > 0 {
		opts = append(opts, kgo.DialTimeout(cfg.DialTimeout))
	}
	opts = append(opts, extra...)
	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kafka client: %w", err)
	}
	return client, nil
}

// ConsumerOpts subscribes a client to one topic in a consumer group with
// manual commits.
func ConsumerOpts(group, topic string) []kgo.Opt {
	return []kgo.Opt{
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
	}
}

// TopicCreator is the admin call EnsureTopics needs. *kadm.Client satisfies it.
type TopicCreator interface {
	CreateTopics(ctx context.Context, partitions int32, replicationFactor int16, configs map[string]*string, topics ...string) (kadm.CreateTopicResponses, error)
}

// EnsureTopics creates the given topics. Topics that already exist are not
// an error. It returns the names that were newly created.
func EnsureTopics(ctx context.Context, adm TopicCreator, partitions int32, replicationFactor int16, topics ...string) ([]string, error) {
	if len(topics) == 0 {
		return nil, nil
	}
	if partitions <= 0 {
		partitions = 1
	}
	if replicationFactor <= 0 {
		replicationFactor = 1
	}
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, topics...)
	if err != nil {
		return nil, fmt.Errorf("create topics: %w", err)
	}

	var created []string
	var errs []error
	for name, r := range resp {
		switch {
		case r.Err == nil:
			created = append(created, name)
		case errors.Is(r.Err, kerr.TopicAlreadyExists):
		default:
			errs = append(errs, fmt.Errorf("topic %s: %w", name, r.Err))
		}
	}
	sort.Strings(created)
	return created, errors.Join(errs...)
}
