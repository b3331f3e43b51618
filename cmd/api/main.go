package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shareit/internal/api"
	"shareit/internal/config"
	"shareit/internal/database"
	"shareit/internal/domain"
	"shareit/internal/events"
	"shareit/internal/logging"
	"shareit/internal/metrics"
	"shareit/internal/repository"
	"shareit/internal/service"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}

	eventBus := events.NewEventBus()
	subscribeEventLog(eventBus, logging.Component(logger, "events"))

	clock := service.SystemClock{}
	bookings := service.NewBookingService(db, db, db, clock, eventBus, logging.Component(logger, "booking"))
	items := service.NewItemProjector(db, db, clock)

	httpServer := api.NewHTTPServer(cfg.API, api.Deps{
		Bookings: bookings,
		Items:    items,
		Health:   db,
		Limiter:  initRateLimiter(ctx, redisClient, logger),
	}, logging.Component(logger, "http"))

	startMetrics(ctx, cfg, logger)

	return startServer(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, baseLogger, closer, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	dbLogger := logging.Component(logger, "database")
	db, err := database.NewDB(cfg.Database.Path, dbLogger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if cfg.Fixtures.Path == "" {
		return db, nil
	}
	fx, err := config.LoadFixtures(cfg.Fixtures.Path)
	if err != nil {
		_ = db.Close()
		logger.Error().Err(err).Str("fixtures_path", cfg.Fixtures.Path).Msg("load fixtures")
		return nil, err
	}
	if err := db.SeedFixtures(ctx, fx.Users, fx.Items); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	policy := repository.RetryPolicy{
		MaxAttempts:   cfg.Redis.ConnectAttempts,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2,
	}
	if err := repository.PingWithRetry(ctx, redisClient, policy, logger); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initRateLimiter prefers the shared Redis counter and keeps the in-process
// bucket as its fallback.
func initRateLimiter(ctx context.Context, redisClient *redis.Client, logger *zerolog.Logger) domain.RateLimiter {
	memory := repository.NewMemoryRateLimiter(10 * time.Minute)
	go memory.RunSweeper(ctx, time.Minute)

	if redisClient == nil {
		return memory
	}
	return repository.NewFailoverRateLimiter(
		repository.NewRedisRateLimiter(redisClient),
		memory,
		logging.Component(logger, "rate-limit"),
	)
}

func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(e *events.Event) error {
		logger.Info().Str("event_type", e.Type).RawJSON("payload", e.Payload).Msg("booking event")
		return nil
	}
	for _, et := range []string{events.EventBookingCreated, events.EventBookingApproved, events.EventBookingRejected} {
		bus.Subscribe(et, handler)
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Start()
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("http server stopped")
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.API.HTTP.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
