package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"kycflow/internal/kyc/archive"
	"kycflow/internal/kyc/handler"
	"kycflow/internal/kyc/live"
	"kycflow/internal/kyc/messaging"
	"kycflow/internal/kyc/service"
	"kycflow/internal/platform/httpserver"
	"kycflow/internal/platform/kafka"
	httptransport "kycflow/internal/transport/http"
	"kycflow/internal/workflow"
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, Kafka consumers and the case worker pool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	cfg, logger := a.cfg, a.logger

	b, err := openBackends(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := b.Close(); err != nil {
			logger.Error("failed to close backends", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	p := newPipeline(cfg, logger, pipelineOptions{registerer: reg, observer: b.tracker})

	hub := live.NewHub(live.WithLogger(logger))
	defer hub.Close()
	fanout := workflow.NewPublishers(logger, p.metrics, hub)

	if cfg.Archive.Enabled() {
		s3Client, err := archive.NewClient(ctx, cfg.Archive)
		if err != nil {
			return err
		}
		fanout.Add(archive.NewS3Archiver(s3Client, cfg.Archive.Bucket, cfg.Archive.Prefix))
		logger.Info("archiving results", "bucket", cfg.Archive.Bucket, "prefix", cfg.Archive.Prefix)
	}

	var clients kafkaClients
	defer clients.Close()
	if cfg.Kafka.Enabled() {
		if err := clients.open(ctx, cfg.Kafka, logger); err != nil {
			return err
		}
		fanout.Add(messaging.NewResultPublisher(clients.producer, cfg.Kafka.Topics.Result, cfg.Kafka.Source))
	}

	svc := service.New(p.driver, b.results, b.tracker, b.claimer,
		service.WithLogger(logger),
		service.WithAuditPublisher(b.audit),
		service.WithPublishers(fanout),
		service.WithFeedbackStore(b.feedback),
		service.WithTxRunner(b.tx),
		service.WithConcurrency(cfg.Workers.Concurrency),
	)
	cases := handler.New(svc, logger,
		handler.WithResultStream(hub),
		handler.WithAgentHealth(p.health),
	)
	srv := httpserver.New(cfg.Server, httptransport.NewRouter(reg, cases))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting kycflow",
			"addr", cfg.Server.Addr,
			"workers", svc.Concurrency(),
			"publishers", fanout.Len(),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	if clients.requests != nil {
		g.Go(func() error {
			return ignoreCanceled(messaging.NewRequestConsumer(clients.requests, svc, logger).Run(gctx))
		})
		g.Go(func() error {
			return ignoreCanceled(messaging.NewFeedbackConsumer(clients.feedback, svc, logger).Run(gctx))
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(shutdownCtx), svc.Shutdown(shutdownCtx))
	})
	return g.Wait()
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// kafkaClients owns one producer and one client per consumer group.
type kafkaClients struct {
	producer *kgo.Client
	requests *kgo.Client
	feedback *kgo.Client
}

func (k *kafkaClients) open(ctx context.Context, cfg kafka.Config, logger *slog.Logger) error {
	var err error
	if k.producer, err = kafka.NewClient(cfg); err != nil {
		return err
	}
	if cfg.EnsureTopics {
		if err := ensureTopics(ctx, k.producer, cfg, logger); err != nil {
			return err
		}
	}
	if k.requests, err = kafka.NewClient(cfg, kafka.ConsumerOpts(cfg.Group, cfg.Topics.Request)...); err != nil {
		return err
	}
	if k.feedback, err = kafka.NewClient(cfg, kafka.ConsumerOpts(cfg.FeedbackGroup, cfg.Topics.Feedback)...); err != nil {
		return err
	}
	logger.Info("kafka enabled", "brokers", cfg.Brokers, "group", cfg.Group)
	return nil
}

// Close stops consumers before the producer so in-flight results still publish.
func (k *kafkaClients) Close() {
	for _, c := range []*kgo.Client{k.requests, k.feedback, k.producer} {
		if c != nil {
			c.Close()
		}
	}
}

func ensureTopics(ctx context.Context, client *kgo.Client, cfg kafka.Config, logger *slog.Logger) error {
	created, err := kafka.EnsureTopics(ctx, kadm.NewClient(client), cfg.Partitions, cfg.ReplicationFactor, cfg.Topics.All()...)
	if len(created) > 0 {
		logger.Info("created kafka topics", "topics", created)
	}
	return err
}
