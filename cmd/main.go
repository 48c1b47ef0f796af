package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"judokit/internal/adapters/devicesignal"
	"judokit/internal/adapters/gateway"
	httphandler "judokit/internal/adapters/http"
	"judokit/internal/adapters/messaging/kafka"
	"judokit/internal/adapters/messaging/mock"
	"judokit/internal/adapters/storage/postgres"
	"judokit/internal/adapters/storage/redis"
	"judokit/internal/app"
	"judokit/internal/config"
	"judokit/internal/core/domain"
	"judokit/internal/core/ports"
	"judokit/internal/observability"
)

const serviceName = "judokit-relay"

func main() {
	// --- 1. Configuration and Logging ---
	fallbackLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	configPath := os.Getenv("JUDOKIT_CONFIG")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		fallbackLogger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg.App.Env)
	logger.Info("relay starting", "env", cfg.App.Env, "port", cfg.Server.Port, "sandboxed", cfg.Gateway.Sandboxed)

	ctx := context.Background()

	// --- 2. Observability ---
	if cfg.Jaeger.Port != "" {
		shutdownTracer, err := observability.InitTracer(ctx, cfg.Jaeger.Port, serviceName)
		if err != nil {
			logger.Error("failed to initialize tracing", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := shutdownTracer(context.Background()); err != nil {
				logger.Warn("failed to shutdown tracer", "error", err)
			}
		}()
	}

	// --- 3. Gateway client ---
	session := gateway.NewSessionFromConfig(cfg.Gateway, logger)
	if !session.HasCredentials() {
		logger.Warn("gateway credentials are not set; every transaction will fail")
	}

	verify, err := domain.ParseAmount(cfg.RegisterCard.Amount, cfg.RegisterCard.Currency)
	if err != nil {
		logger.Error("invalid register_card amount", "error", err)
		os.Exit(1)
	}
	refs, err := app.NewReferenceGenerator(cfg.Reference.Strategy, cfg.Reference.DeviceID, cfg.Reference.TrimSuffix)
	if err != nil {
		logger.Error("invalid reference strategy", "error", err)
		os.Exit(1)
	}

	opts := []app.Option{
		app.WithLogger(logger),
		app.WithBuilder(app.NewBuilder(verify)),
		app.WithReferenceGenerator(refs),
		app.WithReferenceMaxLength(cfg.Reference.MaxLength),
	}

	// --- 4. Optional dependencies ---
	if cfg.Postgres.DSN != "" {
		repo, err := postgres.NewRepository(ctx, cfg.Postgres.DSN)
		if err != nil {
			logger.Error("failed to connect to PostgreSQL", "error", err)
			os.Exit(1)
		}
		defer repo.Close()
		opts = append(opts, app.WithRepository(repo))
		logger.Info("connected to PostgreSQL")
	}

	var limiter ports.RateLimiter
	if cfg.Redis.Addr != "" {
		rdb, err := redis.NewClient(ctx, cfg.Redis.Addr)
		if err != nil {
			logger.Error("failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("failed to close Redis", "error", err)
			}
		}()
		opts = append(opts, app.WithReferenceGuard(redis.NewReferenceGuard(rdb, cfg.ReferenceGuard.TTL)))
		limiter = redis.NewRateLimiter(rdb)
		logger.Info("connected to Redis")

		if cfg.DeviceSignal.URL != "" {
			upstream := devicesignal.NewHTTPProvider(cfg.DeviceSignal.URL, cfg.DeviceSignal.Timeout)
			opts = append(opts, app.WithDeviceSignalProvider(
				devicesignal.NewCachingProvider(rdb, upstream, cfg.Reference.DeviceID, cfg.DeviceSignal.CacheTTL, logger),
			))
		}
	} else if cfg.DeviceSignal.URL != "" {
		opts = append(opts, app.WithDeviceSignalProvider(devicesignal.NewHTTPProvider(cfg.DeviceSignal.URL, cfg.DeviceSignal.Timeout)))
	}

	if brokers := cfg.KafkaBrokers(); len(brokers) > 0 {
		broker, err := kafka.NewBroker(ctx, brokers, cfg.Kafka.Topic, logger)
		if err != nil {
			logger.Error("failed to create Kafka broker", "error", err)
			os.Exit(1)
		}
		defer broker.Close()
		opts = append(opts, app.WithBroker(broker))
		logger.Info("kafka broker created", "topic", cfg.Kafka.Topic)
	} else {
		opts = append(opts, app.WithBroker(mock.NewBroker(logger)))
	}

	client := app.NewClient(session, opts...)
	defer client.Close()

	// --- 5. HTTP Router ---
	checkoutHandler := httphandler.NewCheckoutHandler(app.NewCheckout(client, logger), logger)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		observability.NewLoggerMiddleware(logger),
		observability.NewMetricsMiddleware(serviceName),
		observability.NewTracingMiddleware(serviceName),
	)
	if limiter != nil {
		r.Use(httphandler.NewRateLimiterMiddleware(limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger).Handler)
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(map[string]any{
			"status":    "healthy",
			"service":   serviceName,
			"sandboxed": session.Sandboxed(),
		}); err != nil {
			logger.Error("failed to write health response", "error", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWT.Secret != "" {
			r.Use(httphandler.JWTMiddleware([]byte(cfg.JWT.Secret), logger))
		} else {
			logger.Warn("jwt.jwt_secret is not set; /api/v1 is unauthenticated")
		}
		checkoutHandler.Routes(r)
	})

	// --- 6. HTTP Server ---
	// WriteTimeout must outlast a full gateway round trip.
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Gateway.Timeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Gateway.Timeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}

	logger.Info("server exited properly")
}
