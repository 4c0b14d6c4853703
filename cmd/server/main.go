// Command server runs the governance-and-disbursement engine: identity
// gating, proposal lifecycle, voting, donations, and milestone-gated fund
// release behind one HTTP API.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"fundgate/internal/audit"
	fundingservice "fundgate/internal/funding/service"
	"fundgate/internal/funding/transfer"
	identityservice "fundgate/internal/identity/service"
	identitystore "fundgate/internal/identity/store"
	"fundgate/internal/jwttoken"
	"fundgate/internal/lifecycle/handler"
	lifecycleservice "fundgate/internal/lifecycle/service"
	"fundgate/internal/metadata"
	milestoneservice "fundgate/internal/milestone/service"
	"fundgate/internal/platform/config"
	"fundgate/internal/platform/httpserver"
	"fundgate/internal/platform/logger"
	platformmetrics "fundgate/internal/platform/metrics"
	"fundgate/internal/platform/middleware"
	platformredis "fundgate/internal/platform/redis"
	propmetrics "fundgate/internal/proposal/metrics"
	proposalservice "fundgate/internal/proposal/service"
	proposalstore "fundgate/internal/proposal/store"
	votingservice "fundgate/internal/voting/service"
	"fundgate/pkg/domain"
)

func main() {
	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		proposals proposalstore.Store
		identity  identitystore.Store
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("opening postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		proposals = proposalstore.NewPostgres(db)
		identity = identitystore.NewPostgres(db)
		log.Info("using postgres stores")
	} else {
		proposals = proposalstore.NewMemory()
		identity = identitystore.NewMemory()
		log.Info("using in-memory stores")
	}

	// Audit pipeline: synchronous in-process store, plus a worker-drained
	// Kafka sink when brokers are configured.
	var (
		auditWorker   *audit.Worker
		publisherOpts []audit.PublisherOption
	)
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(ctx, cfg.KafkaBrokers, cfg.AuditTopic)
		if err != nil {
			log.Error("connecting kafka audit sink", "error", err)
			os.Exit(1)
		}
		defer kafkaSink.Close()
		inbox := make(chan audit.Event, 256)
		auditWorker = audit.NewWorker(inbox, log, kafkaSink)
		publisherOpts = append(publisherOpts, audit.WithInbox(inbox))
		log.Info("kafka audit sink enabled", "topic", cfg.AuditTopic)
	}
	auditPublisher := audit.NewPublisher(audit.NewInMemoryStore(), publisherOpts...)

	// Metadata cache: redis when configured, in-memory otherwise.
	var metadataStore metadata.Store
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("connecting redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		metadataStore = metadata.NewRedisStore(redisClient, 24*time.Hour)
		log.Info("redis metadata store enabled")
	} else {
		metadataStore = metadata.NewInMemoryStore()
	}

	// Value transfer: remote collaborator when configured, stub otherwise.
	var transferer transfer.Transferer
	if cfg.TransferServiceURL != "" {
		transferer = transfer.NewHTTPClient(cfg.TransferServiceURL, log)
	} else {
		transferer = transfer.NewStub()
		log.Warn("transfer service not configured, using in-process stub")
	}

	treasury := domain.Address(cfg.TreasuryAddress)
	proposalMetrics := propmetrics.New()

	gate := identityservice.New(identity,
		identityservice.WithLogger(log),
		identityservice.WithAuditPublisher(auditPublisher),
	)
	registry := proposalservice.New(proposals, gate,
		proposalservice.WithLogger(log),
		proposalservice.WithMetrics(proposalMetrics),
		proposalservice.WithAuditPublisher(auditPublisher),
	)
	voting := votingservice.New(proposals, cfg.ActivationThreshold, log)
	ledger := fundingservice.New(proposals, transferer, treasury,
		fundingservice.WithLogger(log),
		fundingservice.WithMetrics(proposalMetrics),
		fundingservice.WithAuditPublisher(auditPublisher),
	)
	executor := milestoneservice.New(proposals, transferer, treasury, cfg.AllowResubmission,
		milestoneservice.WithLogger(log),
		milestoneservice.WithMetrics(proposalMetrics),
		milestoneservice.WithAuditPublisher(auditPublisher),
	)
	controller := lifecycleservice.New(registry, voting, ledger, executor, gate, proposals,
		lifecycleservice.Policy{RejectExpired: cfg.RejectExpired},
		lifecycleservice.WithLogger(log),
		lifecycleservice.WithMetrics(proposalMetrics),
		lifecycleservice.WithAuditPublisher(auditPublisher),
		lifecycleservice.WithMetadataStore(metadataStore),
	)

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, "fundgate", "fundgate-api")
	httpMetrics := platformmetrics.New()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.Logger(log))
	r.Use(middleware.Latency(httpMetrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwttoken.NewMiddlewareAdapter(jwtService), domain.Address(cfg.OwnerAddress), log))
		r.Use(middleware.ContentTypeJSON)
		handler.New(controller, metadataStore, log, cfg.DefaultVotingDuration).Register(r)
	})

	srv := httpserver.New(cfg.Addr, r)

	g, gctx := errgroup.WithContext(ctx)
	if auditWorker != nil {
		g.Go(func() error {
			if err := auditWorker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		log.Info("starting fundgate", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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

	if err := g.Wait(); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("shutdown complete")
}
