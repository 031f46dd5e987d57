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

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"custos/internal/audit"
	"custos/internal/authorization"
	authzhandler "custos/internal/authorization/handler"
	authzmetrics "custos/internal/authorization/metrics"
	"custos/internal/chainrpc"
	"custos/internal/execution"
	execmetrics "custos/internal/execution/metrics"
	"custos/internal/family"
	"custos/internal/gas"
	gasmetrics "custos/internal/gas/metrics"
	httpapi "custos/internal/http"
	"custos/internal/jwttoken"
	"custos/internal/keyvault"
	"custos/internal/ledger"
	ledgerhandler "custos/internal/ledger/handler"
	"custos/internal/marketplace"
	"custos/internal/platform/config"
	"custos/internal/platform/httpserver"
	"custos/internal/platform/logger"
	platformpostgres "custos/internal/platform/postgres"
	platformredis "custos/internal/platform/redis"
	"custos/internal/policy"
	policyhandler "custos/internal/policy/handler"
	"custos/internal/priceoracle"
	"custos/internal/rates"
	ratesmetrics "custos/internal/rates/metrics"
)

// main wires dependencies explicitly and keeps the server lifecycle small.
// Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	healthChecks := map[string]httpapi.HealthCheck{}

	// Stores: postgres when a DSN is configured, in-memory otherwise.
	var (
		familyStore family.Store
		policyStore policy.Store
		ledgerStore ledger.Store
		execStore   execution.Store
		auditStore  audit.Store
	)
	if cfg.Postgres.DSN != "" {
		db, err := sql.Open("postgres", cfg.Postgres.DSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		healthChecks["postgres"] = db.PingContext

		migrateCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := platformpostgres.EnsureSchema(migrateCtx, db); err != nil {
			cancel()
			log.Error("failed to apply database schema", "error", err)
			os.Exit(1)
		}
		cancel()

		familyStore = family.NewPostgresStore(db)
		policyStore = policy.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgresStore(db)
		execStore = execution.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
	} else {
		log.Warn("no POSTGRES_DSN configured, using in-memory stores")
		familyStore = family.NewInMemoryStore()
		policyStore = policy.NewInMemoryStore()
		ledgerStore = ledger.NewInMemoryStore()
		execStore = execution.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
	}

	// Rate cache: redis when configured, otherwise no caching.
	var rateCache rates.Cache = rates.NoopCache{}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		healthChecks["redis"] = redisClient.Health
		rateCache = rates.NewRedisCache(redisClient, cfg.Spending.RateCacheTTL)
	}

	oracle := priceoracle.NewClient(cfg.Oracle.BaseURL, cfg.Oracle.Timeout)
	converter := rates.NewConverter(oracle, rateCache, log, ratesmetrics.New())

	vault := keyvault.PassthroughVault{}
	chain := chainrpc.NewClient(cfg.Chain.RPCURL, cfg.Chain.FinalityPollInterval, log)
	sponsor := gas.NewSponsor(chain, vault, log, gasmetrics.New(), cfg.Chain.SponsorAmount, cfg.Chain.FinalityTimeout)

	market := marketplace.NewClient(cfg.Marketplace.BaseURL, cfg.Marketplace.Timeout, log)
	executor := execution.NewExecutor(execStore, vault, market, log, execmetrics.New(), cfg.Marketplace.FeeRate)

	var auditSink audit.Sink
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		if err != nil {
			log.Error("failed to create kafka publisher", "error", err)
			os.Exit(1)
		}
		defer kafkaPub.Close()
		auditSink = kafkaPub
	}
	recorder := audit.NewRecorder(auditStore, auditSink, log, 256)

	familySvc := family.NewService(familyStore)
	policySvc := policy.NewService(policyStore)
	ledgerSvc := ledger.NewService(ledgerStore, converter)
	authorizer := authorization.NewService(familySvc, policySvc, ledgerSvc, sponsor, executor, recorder, log, authzmetrics.New(), authorization.Config{
		SerializeRequests: cfg.Spending.SerializeRequests,
		MinGasThreshold:   cfg.Chain.MinGasThreshold,
	})

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:         log,
		TokenValidator: jwttoken.NewService(cfg.Server.JWTSigningKey),
		Authorization:  authzhandler.New(authorizer, log),
		Ledger:         ledgerhandler.New(ledgerSvc, policySvc, log),
		Policy:         policyhandler.New(policySvc, log),
		HealthChecks:   healthChecks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting custos", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := recorder.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
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
