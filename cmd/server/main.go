package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"docverify/internal/app"
	"docverify/internal/batch"
	jwttoken "docverify/internal/jwt_token"
	"docverify/internal/ocr"
	"docverify/internal/platform/config"
	"docverify/internal/platform/httpserver"
	platformkafka "docverify/internal/platform/kafka"
	"docverify/internal/platform/logger"
	"docverify/internal/platform/metrics"
	"docverify/internal/platform/postgres"
	platformredis "docverify/internal/platform/redis"
	refstore "docverify/internal/reference/store"
	httptransport "docverify/internal/transport/http"
	"docverify/internal/verification/handler"
	"docverify/internal/verification/service"
	resultstore "docverify/internal/verification/store"
	audit "docverify/pkg/platform/audit"
	auditmetrics "docverify/pkg/platform/audit/metrics"
	"docverify/pkg/platform/audit/publisher"
	auditkafka "docverify/pkg/platform/audit/store/kafka"
	auditmemory "docverify/pkg/platform/audit/store/memory"
	"docverify/pkg/platform/tx"
)

const auditBuffer = 1024

type referenceStore interface {
	service.ReferenceStore
	batch.ReferenceLister
}

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger) error {
	var checks []httptransport.HealthCheck

	var (
		references referenceStore      = refstore.NewInMemory()
		results    service.ResultStore = resultstore.NewInMemory()
		transactor service.Transactor
	)
	if cfg.DatabaseURL != "" {
		db, err := openDatabase(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		references = refstore.NewPostgres(db)
		results = resultstore.NewPostgres(db)
		transactor = tx.NewSQL(db, 0)
		checks = append(checks, httptransport.HealthCheck{Name: "postgres", Check: db.PingContext})
		log.Info("using postgres stores")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
	}

	opts := app.Options{
		Logger:     log,
		References: references,
		Results:    results,
		Transactor: transactor,
		Metrics:    true,
	}

	rdb, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if rdb != nil {
		defer rdb.Close()
		opts.Redis = rdb
		checks = append(checks, httptransport.HealthCheck{Name: "redis", Check: rdb.Health})
		log.Info("ocr line cache enabled", "ttl", cfg.Redis.CacheTTL)
	}

	var auditStore audit.Store = auditmemory.NewInMemoryStore()
	kc, err := platformkafka.New(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("connect kafka: %w", err)
	}
	if kc != nil {
		defer kc.Close()
		auditStore = auditkafka.New(kc, cfg.Kafka.AuditTopic)
		checks = append(checks, httptransport.HealthCheck{Name: "kafka", Check: kc.Ping})
		log.Info("publishing audit events to kafka", "topic", cfg.Kafka.AuditTopic)
	}
	auditor := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(auditBuffer),
		publisher.WithLogger(log),
		publisher.WithMetrics(auditmetrics.New()),
	)
	defer auditor.Close()
	opts.Auditor = auditor

	pipeline, err := app.NewPipeline(cfg, opts)
	if err != nil {
		return err
	}

	pool, err := ocr.NewPool(ctx, cfg.OCR.Workers, pipeline.Engines, pipeline.OCRMetrics)
	if err != nil {
		return fmt.Errorf("start ocr pool: %w", err)
	}
	defer pool.Close()

	ocrHealth := ocr.NewClient(cfg.OCR.URL, cfg.OCR.Timeout)
	checks = append(checks, httptransport.HealthCheck{Name: "ocr", Check: ocrHealth.Health})

	runner := batch.NewRunner(pipeline.Service, pipeline.Engines,
		batch.WithWorkers(cfg.Batch.Workers),
		batch.WithLogger(log),
	)
	batches := batch.NewService(runner, references,
		batch.WithPendingOnly(cfg.Batch.PendingOnly),
		batch.WithAuditPublisher(auditor),
		batch.WithServiceLogger(log),
	)

	routerCfg := httptransport.RouterConfig{
		Logger:  log,
		Metrics: metrics.New(),
		Checks:  checks,
	}
	if cfg.JWTSigningKey != "" {
		routerCfg.Auth = jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience).Validator()
		routerCfg.RequiredScope = cfg.JWTScope
	} else {
		log.Warn("JWT_SIGNING_KEY not set, /v1 is unauthenticated")
	}
	router := httptransport.NewRouter(routerCfg, handler.New(pipeline.Service, pool, batches, log))

	budget := cfg.Document.FetchTimeout + cfg.Document.RasterTimeout + 4*cfg.OCR.Timeout
	srv := httpserver.New(cfg.Addr, router, budget)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting docverify", "addr", cfg.Addr, "ocr_workers", pool.Size())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.Batch.Interval > 0 {
		g.Go(func() error {
			log.Info("scheduled batch enabled", "interval", cfg.Batch.Interval, "pending_only", cfg.Batch.PendingOnly)
			if err := batches.Schedule(gctx, cfg.Batch.Interval); !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

func openDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := postgres.Open(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate postgres: %w", err)
	}
	return db, nil
}
