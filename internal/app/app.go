package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/priyabakthisaran/SocialNetworkClone/internal/auth"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/config"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/event"
	handler "github.com/priyabakthisaran/SocialNetworkClone/internal/handler/http"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/metrics"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/password"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/repository/postgres"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/service"
	"github.com/priyabakthisaran/SocialNetworkClone/internal/throttle"
	"github.com/priyabakthisaran/SocialNetworkClone/migrations"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/database"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/health"
	pkgkafka "github.com/priyabakthisaran/SocialNetworkClone/pkg/kafka"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/middleware"
	"github.com/priyabakthisaran/SocialNetworkClone/pkg/tracing"
)

// App wires together all dependencies and runs the auth service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	redis          *redis.Client
	producer       *pkgkafka.Producer
	httpServer     *http.Server
	tracerShutdown tracing.ShutdownFunc
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTelEndpoint,
		SampleRate:     cfg.OTelSampleRate,
		Enabled:        cfg.OTelEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: cfg.DBMaxConnLife,
		MaxConnIdleTime: cfg.DBMaxConnIdle,
	}

	pool, err := database.NewPostgresPool(ctx, &pgCfg, logger)
	if err != nil {
		_ = tracerShutdown(context.Background())
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	prometheus.MustRegister(database.NewPoolStatsCollector(pool, cfg.ServiceName))

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		_ = tracerShutdown(context.Background())
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Redis backs the login throttle. Startup proceeds without it.
	var (
		redisClient *redis.Client
		limiter     *throttle.Limiter
	)
	if cfg.LoginThrottleEnabled {
		redisClient, err = database.NewRedisClient(ctx, database.RedisConfig{
			Host:        cfg.RedisHost,
			Port:        cfg.RedisPort,
			Password:    cfg.RedisPassword,
			DB:          cfg.RedisDB,
			DialTimeout: 3 * time.Second,
		})
		if err != nil {
			logger.Warn("redis unavailable, login throttling disabled", slog.String("error", err.Error()))
		} else {
			limiter = throttle.New(redisClient, throttle.Config{
				Enabled:     true,
				MaxAttempts: cfg.LoginMaxAttempts,
				Window:      cfg.LoginThrottleWindow,
			}, logger)
			logger.Info("login throttle enabled",
				slog.Int("max_attempts", cfg.LoginMaxAttempts),
				slog.Duration("window", cfg.LoginThrottleWindow),
			)
		}
	}

	// Kafka is optional; without brokers events are dropped.
	var (
		producer  *pkgkafka.Producer
		publisher event.Publisher
	)
	if len(cfg.KafkaBrokers) > 0 {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = producer
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	authMetrics := metrics.New(prometheus.DefaultRegisterer)
	tokens := auth.NewTokenIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	hasher := password.NewHasher(cfg.BcryptCost, cfg.HashConcurrency, authMetrics.ObserveHash)
	userRepo := postgres.NewUserRepository(pool, &database.QueryTracer{
		Threshold: cfg.SlowQueryThreshold(),
		Logger:    logger,
	})
	eventProducer := event.NewProducer(publisher, logger)
	authService := service.NewAuthService(userRepo, hasher, tokens, limiter, eventProducer, authMetrics, logger)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
			return producer.Ping(ctx)
		})
	}

	// HTTP router.
	cookie := auth.NewRefreshCookiePolicy(cfg.RefreshTokenExpiry, cfg.CookieSecure)
	router := handler.NewRouter(
		authService,
		tokens,
		cookie,
		healthHandler,
		logger,
		middleware.DefaultCORSConfig(cfg.CORSAllowedOrigins),
		cfg.ServiceName,
	)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		redis:          redisClient,
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
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components in the correct order:
// 1. HTTP server (drain in-flight requests)
// 2. Tracer (flush pending spans from drained requests)
// 3. Kafka producer
// 4. Redis client
// 5. PostgreSQL pool
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// 1. Drain in-flight HTTP requests.
	httpCtx, httpCancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer httpCancel()
	if err := a.httpServer.Shutdown(httpCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	// 2. Flush pending spans after HTTP drain so in-flight request spans are captured.
	if a.tracerShutdown != nil {
		tracerCtx, tracerCancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer tracerCancel()
		if err := a.tracerShutdown(tracerCtx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 3. Flush queued events.
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 4. Close Redis.
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	// 5. Close PostgreSQL pool.
	a.pool.Close()

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
