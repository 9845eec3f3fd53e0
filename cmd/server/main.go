package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"studbook/internal/directory"
	directoryhandler "studbook/internal/directory/handler"
	"studbook/internal/jwtauth"
	"studbook/internal/platform/config"
	"studbook/internal/platform/httpserver"
	"studbook/internal/platform/logger"
	"studbook/internal/platform/postgres"
	"studbook/internal/platform/redis"
	"studbook/internal/reconcile"
	reconcilehandler "studbook/internal/reconcile/handler"
	reconcilemetrics "studbook/internal/reconcile/metrics"
	"studbook/internal/reconcile/wildapricot"
	"studbook/internal/registry"
	registryhandler "studbook/internal/registry/handler"
	registrymetrics "studbook/internal/registry/metrics"
	"studbook/internal/stats"
	statshandler "studbook/internal/stats/handler"
	"studbook/internal/transfer"
	transferhandler "studbook/internal/transfer/handler"
	transfermetrics "studbook/internal/transfer/metrics"
	httptransport "studbook/internal/transport/http"
	"studbook/pkg/platform/audit"
	auditkafka "studbook/pkg/platform/audit/kafka"
	auditmemory "studbook/pkg/platform/audit/store/memory"
	auditpostgres "studbook/pkg/platform/audit/store/postgres"
	auditworker "studbook/pkg/platform/audit/worker"
	"studbook/pkg/platform/tx"
)

// main wires the dependency graph and runs the server plus the audit worker
// under one lifecycle. Business logic lives in the internal services.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service exited", "error", err.Error())
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	// Persistence: Postgres when a DSN is configured, in-memory otherwise.
	var (
		memberStore   directory.Store
		horseStore    registry.Store
		transferStore transfer.Store
		runner        tx.Runner = tx.NopRunner{}
		sinks         []audit.Sink
	)
	if cfg.Postgres.DSN != "" {
		if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
			return err
		}
		pool, err := postgres.NewPool(ctx, cfg.Postgres)
		if err != nil {
			return err
		}
		defer pool.Close()

		memberStore = directory.NewPostgresStore(pool)
		horseStore = registry.NewPostgresStore(pool)
		transferStore = transfer.NewPostgresStore(pool)
		runner = tx.NewPgxRunner(pool)
		sinks = append(sinks, auditpostgres.New(pool))
		log.Info("using postgres stores")
	} else {
		memberStore = directory.NewInMemoryStore()
		horseStore = registry.NewInMemoryStore()
		transferStore = transfer.NewInMemoryStore()
		log.Info("using in-memory stores")
	}

	// Audit pipeline: services emit, the worker drains into the sinks.
	publisher := audit.NewPublisher(cfg.AuditBuffer)
	sinks = append(sinks, auditmemory.New())
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaSink, err := auditkafka.New(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		sinks = append(sinks, kafkaSink)
		log.Info("audit events shipping to kafka", "topic", cfg.Kafka.Topic)
	}
	worker := auditworker.New(publisher.Inbox(), log, sinks...)

	// External membership platform client, with a Redis-shared token when
	// Redis is configured.
	waOpts := []wildapricot.Option{}
	redisClient, err := redis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		waOpts = append(waOpts, wildapricot.WithTokenCache(
			wildapricot.NewRedisTokenCache(redisClient.Client)))
		log.Info("sharing membership platform token via redis")
	}
	contacts := wildapricot.New(cfg.WildApricot.BaseURL, cfg.WildApricot.AuthURL,
		cfg.WildApricot.APIKey, log, waOpts...)

	// Services.
	jwtService := jwtauth.New(cfg.JWTSigningKey, "studbook")
	members := directory.NewService(memberStore, publisher)
	horses := registry.NewService(horseStore, members, publisher, registrymetrics.New())
	transfers := transfer.NewService(transferStore, horses, members, runner, publisher, transfermetrics.New())
	engine := reconcile.NewEngine(members, contacts, publisher, reconcilemetrics.New(), log)
	dashboard := stats.NewService(members, horses, transfers)

	// Without a seeded admin every admin route is dead weight; ensure one
	// whenever credentials are configured.
	if cfg.Admin.Email != "" && cfg.Admin.Password != "" {
		admin, err := members.BootstrapAdmin(ctx, directory.BootstrapInput{
			FirstName: cfg.Admin.FirstName,
			LastName:  cfg.Admin.LastName,
			Email:     cfg.Admin.Email,
			Password:  cfg.Admin.Password,
		})
		if err != nil {
			return err
		}
		log.Info("admin account ensured", "member_id", admin.ID)
	} else {
		log.Warn("no admin credentials configured; admin routes are unreachable")
	}

	// HTTP surface.
	router := httptransport.NewRouter(log,
		directoryhandler.New(members, jwtService, log, jwtService),
		registryhandler.New(horses, log, jwtService),
		transferhandler.New(transfers, log, jwtService),
		reconcilehandler.New(engine, log),
		statshandler.New(dashboard, log, jwtService),
	)
	srv := httpserver.New(cfg.Addr, cfg.HTTP, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting studbook service", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info("service stopped")
	return nil
}
