package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"kycflow/internal/platform/kafka"
)

func (a *app) topicsCmd() *cobra.Command {
	topics := &cobra.Command{
		Use:   "topics",
		Short: "Manage the Kafka topics kycflow uses",
	}
	var timeout time.Duration
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the request, result and feedback topics if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			return a.createTopics(ctx)
		},
	}
	create.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline for topic creation")
	topics.AddCommand(create)
	return topics
}

func (a *app) createTopics(ctx context.Context) error {
	cfg := a.cfg.Kafka
	if !cfg.Enabled() {
		return errors.New("kafka.brokers is not configured")
	}
	client, err := kafka.NewClient(cfg)
	if err != nil {
		return err
	}
	defer client.Close()
	if err := ensureTopics(ctx, client, cfg, a.logger); err != nil {
		return err
	}
	a.logger.Info("kafka topics ready", "topics", cfg.Topics.All())
	return nil
}
