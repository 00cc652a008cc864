package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nm-digitalhub/sumit-gateway/internal/config"
	"github.com/nm-digitalhub/sumit-gateway/internal/crm"
	"github.com/nm-digitalhub/sumit-gateway/internal/event"
	"github.com/nm-digitalhub/sumit-gateway/internal/gateway"
	handler "github.com/nm-digitalhub/sumit-gateway/internal/handler/http"
	"github.com/nm-digitalhub/sumit-gateway/internal/listener"
	"github.com/nm-digitalhub/sumit-gateway/internal/notify"
	"github.com/nm-digitalhub/sumit-gateway/internal/repository"
	"github.com/nm-digitalhub/sumit-gateway/internal/repository/postgres"
	"github.com/nm-digitalhub/sumit-gateway/internal/service"
	"github.com/nm-digitalhub/sumit-gateway/migrations"
	"github.com/nm-digitalhub/sumit-gateway/pkg/database"
	"github.com/nm-digitalhub/sumit-gateway/pkg/health"
	"github.com/nm-digitalhub/sumit-gateway/pkg/httpclient"
	pkgkafka "github.com/nm-digitalhub/sumit-gateway/pkg/kafka"
	"github.com/nm-digitalhub/sumit-gateway/pkg/tracing"
)

const serviceName = "sumit-gateway"

// App wires together all dependencies and runs the gateway service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool // nil when persistence is off
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.TraceSampleAll,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Runtime-adjustable gateway settings, seeded from the environment.
	settings := config.NewSettingsStore(config.SettingsFromConfig(cfg))
	bus := notify.NewBus(logger)

	healthHandler := health.NewHandler()

	// Built-in persistence is optional: without it the service is a pure
	// pass-through to the gateway and listeners are the caller's concern.
	var (
		pool         *pgxpool.Pool
		transactions repository.TransactionStore
		tokens       repository.TokenStore
		customers    repository.CustomerStore
	)
	if cfg.PersistenceMode == config.PersistenceBuiltin {
		pgCfg := database.DefaultPostgresConfig()
		pgCfg.Host = cfg.PostgresHost
		pgCfg.Port = cfg.PostgresPort
		pgCfg.User = cfg.PostgresUser
		pgCfg.Password = cfg.PostgresPass
		pgCfg.DBName = cfg.PostgresDB
		pgCfg.SSLMode = cfg.PostgresSSL

		pool, err = database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		logger.Info("connected to PostgreSQL",
			slog.String("host", pgCfg.Host),
			slog.Int("port", pgCfg.Port),
			slog.String("database", pgCfg.DBName),
		)
		database.RegisterPoolMetrics(pool, serviceName)

		if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("database migrations completed")

		transactions = postgres.NewTransactionRepository(pool)
		tokens = postgres.NewTokenRepository(pool)
		customers = postgres.NewCustomerRepository(pool)

		listener.NewStorageListener(transactions, tokens, logger).Register(bus)

		healthHandler.Register("postgres", func(ctx context.Context) error {
			return pool.Ping(ctx)
		})
	}

	// Gateway transport: exactly one attempt per charge. A charge that timed
	// out may still have gone through, so retries are never safe here. The
	// client timeout sits above the per-request context deadline so the
	// deadline is what fires.
	apiTimeout := settings.Current().APITimeout
	baseClient := httpclient.New(httpclient.FireOnceConfig(apiTimeout + 10*time.Second))

	var doer gateway.Doer = baseClient
	if cfg.BreakerEnabled {
		cbClient := httpclient.NewCircuitBreakerClient(
			baseClient,
			httpclient.DefaultCircuitBreakerConfig("sumit-api"),
			logger,
		)
		doer = cbClient
		logger.Info("circuit breaker initialized", slog.String("name", "sumit-api"))
	}
	transport := gateway.NewClient(doer, settings, logger)

	orchestrator := service.NewOrchestrator(transport, settings, bus, transactions, tokens, logger)
	webhooks := service.NewWebhookProcessor(settings, bus, logger)
	syncer := crm.NewSyncer(transport, settings, customers, logger)

	// Optional Kafka audit relay.
	var producer *pkgkafka.Producer
	if cfg.KafkaRelayEnabled {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		event.NewKafkaRelay(producer, logger).Register(bus)
		healthHandler.Register("kafka", producer.Ping)
		logger.Info("kafka relay initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	router := handler.NewRouter(handler.RouterDeps{
		Orchestrator:  orchestrator,
		Webhooks:      webhooks,
		Syncer:        syncer,
		Transactions:  transactions,
		Tokens:        tokens,
		Customers:     customers,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      apiTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in order: HTTP server first so
// in-flight charges drain, then the tracer flushes their spans, then the
// Kafka producer and the pool.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	httpCtx, httpCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.pool != nil {
		a.pool.Close()
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
