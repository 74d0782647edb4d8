package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	httpAdapter "github.com/iho/fundsbook/internal/adapter/http"
	"github.com/iho/fundsbook/internal/adapter/http/handler"
	"github.com/iho/fundsbook/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/fundsbook/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/fundsbook/internal/adapter/repository/redis"
	"github.com/iho/fundsbook/internal/infrastructure/auth"
	"github.com/iho/fundsbook/internal/infrastructure/config"
	"github.com/iho/fundsbook/internal/infrastructure/eventpublisher"
	"github.com/iho/fundsbook/internal/infrastructure/logger"
	"github.com/iho/fundsbook/internal/infrastructure/metrics"
	"github.com/iho/fundsbook/internal/infrastructure/postgres"
	"github.com/iho/fundsbook/internal/infrastructure/redis"
	"github.com/iho/fundsbook/internal/usecase"
)

// limiterIdle is how long an idle client keeps its rate limiter.
const limiterIdle = 10 * time.Minute

func main() {
	// A missing .env file is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}

	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if cfg.AutoMigrate {
		if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
			return err
		}
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	shelfRepo := postgresRepo.NewBookshelfRepository(pool)
	bookRepo := postgresRepo.NewBookRepository(pool)
	entryRepo := postgresRepo.NewEntryRepository(pool)
	userRepo := postgresRepo.NewUserRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	idGen := postgresRepo.NewULIDGenerator()

	sessions := redisRepo.NewSessionStore(redisClient)
	notifier := redisRepo.NewChangeNotifier(redisClient)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)

	// Initialize use cases
	shelfUC := usecase.NewBookshelfUseCase(txManager, shelfRepo, outboxRepo, idGen, notifier, log)
	bookUC := usecase.NewBookUseCase(txManager, shelfRepo, bookRepo, outboxRepo, idGen, notifier, log)
	entryUC := usecase.NewEntryUseCase(usecase.EntryUseCaseConfig{
		TxManager:  txManager,
		ShelfRepo:  shelfRepo,
		BookRepo:   bookRepo,
		EntryRepo:  entryRepo,
		OutboxRepo: outboxRepo,
		IDGen:      idGen,
		Notifier:   notifier,
		Retrier:    postgresRepo.NewRetrier(log),
		Metrics:    appMetrics,
		Logger:     log,
	})
	authUC := usecase.NewAuthUseCase(usecase.AuthUseCaseConfig{
		TxManager:     txManager,
		UserRepo:      userRepo,
		OutboxRepo:    outboxRepo,
		Tokens:        jwtManager,
		Sessions:      sessions,
		ResetTokens:   redisRepo.NewResetTokenStore(redisClient),
		Shelves:       shelfUC,
		IDGen:         idGen,
		ResetTokenGen: auth.NewResetTokenGenerator(),
		ResetTokenTTL: cfg.PasswordResetTTL,
		SessionTTL:    cfg.JWTExpiration,
		BcryptCost:    cfg.BcryptCost,
		Metrics:       appMetrics,
		Logger:        log,
	})

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	rateLimiter.OnLimit(appMetrics.RateLimited)

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		AuthHandler:      handler.NewAuthHandler(authUC),
		BookshelfHandler: handler.NewBookshelfHandler(shelfUC),
		BookHandler:      handler.NewBookHandler(bookUC),
		EntryHandler:     handler.NewEntryHandler(entryUC),
		LedgerHandler:    handler.NewLedgerHandler(entryUC, appMetrics, cfg.StreamHeartbeat),
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		Authenticator:    middleware.NewAuthenticator(jwtManager, sessions),
		Logger:           log,
		IdempotencyStore: redisRepo.NewIdempotencyStore(redisClient),
		IdempotencyTTL:   cfg.IdempotencyTTL,
		OnReplay:         appMetrics.IdempotentReplay,
		RateLimiter:      rateLimiter,
		RequestMetrics:   appMetrics,
		MetricsHandler:   promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		ListStreams:      handler.NewListStreamHandler(shelfUC, bookUC, appMetrics, cfg.StreamHeartbeat),
	})

	sink, closeSink, err := newEventSink(cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()

	outbox := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Publisher:  sink,
		Recorder:   appMetrics,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		Retention:  cfg.OutboxRetention,
	})

	// Create server
	server := &http.Server{
		Addr:              httpAddr(cfg),
		Handler:           router,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
		BaseContext:       func(_ net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", server.Addr).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		return ignoreCanceled(outbox.Start(gctx))
	})

	g.Go(func() error {
		ticker := time.NewTicker(limiterIdle)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				rateLimiter.CleanupLimiters(limiterIdle)
			}
		}
	})

	return g.Wait()
}

// newEventSink picks where outbox events go: RabbitMQ when AMQP_URL is
// set, the log otherwise.
func newEventSink(cfg *config.Config, log zerolog.Logger) (eventpublisher.Publisher, func(), error) {
	if cfg.AMQPURL == "" {
		log.Warn().Msg("AMQP_URL not set, outbox events will only be logged")
		return eventpublisher.NewLogPublisher(log), func() {}, nil
	}

	publisher, err := eventpublisher.NewAMQPPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}
	log.Info().Str("exchange", cfg.AMQPExchange).Msg("publishing outbox events to rabbitmq")

	return publisher, func() {
		if err := publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close rabbitmq publisher")
		}
	}, nil
}

func httpAddr(cfg *config.Config) string {
	return ":" + cfg.HTTPPort
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
