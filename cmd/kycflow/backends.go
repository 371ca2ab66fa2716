package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"

	"kycflow/internal/kyc/claim"
	"kycflow/internal/kyc/service"
	"kycflow/internal/kyc/status"
	"kycflow/internal/kyc/store"
	"kycflow/internal/platform/config"
	platformredis "kycflow/internal/platform/redis"
	"kycflow/migrations"
	"kycflow/pkg/platform/audit/publisher"
	auditmemory "kycflow/pkg/platform/audit/store/memory"
	auditpostgres "kycflow/pkg/platform/audit/store/postgres"
	txcontext "kycflow/pkg/platform/tx"
)

const auditBuffer = 256

// backends are the stateful dependencies of the case service. Postgres and
// Redis are used when configured; otherwise everything lives in memory.
type backends struct {
	results  service.ResultStore
	feedback service.FeedbackStore
	tracker  status.Tracker
	claimer  service.Claimer
	audit    *publisher.Publisher
	tx       service.TxRunner

	closers []func() error
}

func openBackends(ctx context.Context, cfg config.Config, logger *slog.Logger) (b *backends, err error) {
	b = &backends{tx: txcontext.NoopRunner{}}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	if err := b.openPostgres(ctx, cfg.Postgres, logger); err != nil {
		return nil, err
	}
	if err := b.openRedis(ctx, cfg.Redis, logger); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *backends) openPostgres(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) error {
	if cfg.URL == "" {
		b.results = store.NewInMemoryResultStore()
		b.feedback = store.NewInMemoryFeedbackStore()
		b.audit = publisher.NewPublisher(auditmemory.NewInMemoryStore(),
			publisher.WithAsyncBuffer(auditBuffer), publisher.WithLogger(logger))
		b.closers = append(b.closers, b.audit.Close)
		logger.Info("using in-memory result, feedback and audit stores")
		return nil
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return fmt.Errorf("open postgres: %w", err)
	}
	b.closers = append(b.closers, db.Close)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	if cfg.Migrate {
		if err := migrations.Apply(ctx, db); err != nil {
			return err
		}
	}

	pool, err := pgxpool.New(ctx, cfg.URL)
	if err != nil {
		return fmt.Errorf("open pgx pool: %w", err)
	}
	b.closers = append(b.closers, func() error { pool.Close(); return nil })

	b.results = store.NewPostgresResultStore(db)
	b.feedback = store.NewPostgresFeedbackStore(pool)
	// Synchronous so audit rows commit with the result row.
	b.audit = publisher.NewPublisher(auditpostgres.New(db), publisher.WithLogger(logger))
	b.tx = txcontext.NewRunner(db, 0)
	logger.Info("using postgres stores", "migrated", cfg.Migrate)
	return nil
}

func (b *backends) openRedis(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) error {
	client, err := platformredis.New(ctx, cfg)
	if err != nil {
		return err
	}
	if client == nil {
		b.tracker = status.NewInMemoryTracker(status.WithMemoryTTL(cfg.StatusTTL))
		b.claimer = claim.NewInMemoryClaimer(cfg.ClaimTTL)
		logger.Info("using in-memory status tracker and case claims")
		return nil
	}
	b.closers = append(b.closers, client.Close)
	b.tracker = status.NewRedisTracker(client.Client, status.WithTTL(cfg.StatusTTL))
	b.claimer = claim.NewRedisClaimer(client.Client, cfg.ClaimTTL)
	logger.Info("using redis status tracker and case claims")
	return nil
}

// Close releases connections in reverse open order.
func (b *backends) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		errs = append(errs, b.closers[i]())
	}
	b.closers = nil
	return errors.Join(errs...)
}
