// main wires high-level dependencies and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/WenyeZhou51/rcssa-match-backend/internal/matching/cache"
	matchinghandler "github.com/WenyeZhou51/rcssa-match-backend/internal/matching/handler"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/matching/reconcile"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/matching/service"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/config"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/httpserver"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/kafka"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/logger"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/metrics"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/platform/postgres"
	platformredis "github.com/WenyeZhou51/rcssa-match-backend/internal/platform/redis"
	"github.com/WenyeZhou51/rcssa-match-backend/internal/registrant/store"
	httptransport "github.com/WenyeZhou51/rcssa-match-backend/internal/transport/http"
	auditpublisher "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit/publisher"
	auditmemory "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit/store/memory"
	auditworker "github.com/WenyeZhou51/rcssa-match-backend/pkg/platform/audit/worker"
	"github.com/WenyeZhou51/rcssa-match-backend/pkg/secrets"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogJSON)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	// Registrant store: Postgres when configured, in-memory otherwise.
	var (
		registrants store.RegistrantStore
		connector   *postgres.Connector
		storageGate func() bool
	)
	if cfg.DatabaseURL != "" {
		var err error
		connector, err = postgres.Open(cfg.DatabaseURL, log)
		if err != nil {
			log.Error("open postgres", "error", err)
			os.Exit(1)
		}
		defer connector.Close()

		schemaCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := store.EnsureSchema(schemaCtx, connector.DB()); err != nil {
			// Startup tolerates an unreachable database; the connector keeps
			// retrying and readiness stays false until it comes back.
			log.Warn("schema not ensured, storage gate stays closed", "error", err)
		}
		cancel()

		registrants = store.NewPostgres(connector.DB())
		storageGate = connector.Available
	} else {
		log.Info("DATABASE_URL not set, using in-memory registrant store")
		registrants = store.NewInMemory()
	}

	// Match summary cache (optional).
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connect redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	summaries := cache.New(redisClient, cfg.Redis.SummaryTTL)

	// Audit pipeline: channel publisher -> worker -> store (+ Kafka sink).
	publisher := auditpublisher.NewChannel(256, log)
	worker := auditworker.New(auditmemory.New(), publisher.Inbox(), log)
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("connect kafka", "error", err)
			os.Exit(1)
		}
		defer producer.Close()
		worker = worker.WithSink(producer)
	}

	// Admin token: generate one when no hash is configured so the admin
	// surface is never silently open.
	adminTokenHash := cfg.AdminTokenHash
	if adminTokenHash == "" {
		token, err := secrets.Generate()
		if err != nil {
			log.Error("generate admin token", "error", err)
			os.Exit(1)
		}
		adminTokenHash, err = secrets.Hash(token)
		if err != nil {
			log.Error("hash admin token", "error", err)
			os.Exit(1)
		}
		log.Info("generated admin token for this run", "token", token)
	}

	svc := service.New(registrants,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithAuditPublisher(publisher),
		service.WithSummaryCache(summaries),
		service.WithAvailability(storageGate),
		service.WithStoreTimeout(cfg.StoreTimeout),
	)

	h := matchinghandler.New(svc, log, m)
	router := httptransport.NewRouter(httptransport.Options{
		Matching:       h,
		AdminTokenHash: adminTokenHash,
		Storage:        storageHealth(connector),
	})

	srv := httpserver.New(cfg.Addr, router)
	reconciler := reconcile.New(registrants, cfg.ReconcileInterval, log)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting rcssa-match-backend", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error { return ignoreCancel(worker.Run(ctx)) })
	g.Go(func() error { return ignoreCancel(reconciler.Run(ctx)) })
	if connector != nil {
		g.Go(func() error { return ignoreCancel(connector.Run(ctx)) })
	}

	if err := g.Wait(); err != nil {
		log.Error("shutdown with error", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}

// storageHealth adapts a possibly-nil connector to the router's checker
// without handing it a typed nil.
func storageHealth(c *postgres.Connector) httptransport.HealthChecker {
	if c == nil {
		return nil
	}
	return c
}

func ignoreCancel(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
