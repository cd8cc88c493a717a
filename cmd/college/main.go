package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"college/internal/api"
	gw "college/internal/gateway"
	"college/internal/gateway/adapter/inmem"
	"college/internal/gateway/adapter/redislimit"
	"college/internal/gateway/adapter/sqlstore"
	"college/internal/gateway/adapter/tokens"
	"college/internal/gateway/middleware"
	"college/internal/platform/config"
	"college/internal/platform/server"
	"college/internal/platform/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration invalid", "error", err)
		os.Exit(1)
	}

	logger := newLogger(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	// The signing key is derived once; a bad secret stops the process here.
	key, err := tokens.DeriveKey(cfg.JWTSecret)
	if err != nil {
		slog.Error("signing key invalid", "error", err)
		os.Exit(1)
	}
	codec := tokens.NewCodec(key)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	shutdown, err := telemetry.Setup(context.Background(), "college")
	if err != nil {
		slog.Error("telemetry setup failed", "error", err)
		os.Exit(1)
	}
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		slog.Error("metrics initialization failed", "error", err)
		os.Exit(1)
	}

	// Storage
	store, err := sqlstore.Open(cfg.DatabaseDriver, cfg.DatabaseURL, logger)
	if err != nil {
		slog.Error("opening database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.Migrate(ctx); err != nil {
		slog.Error("migrating database", "error", err)
		os.Exit(1)
	}

	// Rate limiters
	ipLimiter, loginLimiter, closeLimiters, err := newLimiters(ctx, cfg, logger)
	if err != nil {
		slog.Error("rate limiter setup failed", "error", err)
		os.Exit(1)
	}
	defer closeLimiters()

	router := api.NewRouter(api.Deps{
		Issuer:       codec,
		Directory:    store,
		Credentials:  store,
		Admins:       store,
		Registrar:    store,
		Health:       store,
		LoginLimiter: loginLimiter,
		TokenTTL:     cfg.TokenTTL(),
		Metrics:      metrics,
		Logger:       logger,
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", telemetry.MetricsHandler())
	mux.Handle("/", middleware.Chain(
		router,
		middleware.Metrics(metrics),
		middleware.RequestID,
		middleware.Logging(logger),
		middleware.Recovery,
		middleware.SecureHeaders(cfg.IsProduction()),
		middleware.MaxBodySize(cfg.MaxBodyBytes),
		middleware.RateLimit(ipLimiter, metrics),
		middleware.Auth(middleware.AuthConfig{
			Verifier:      codec,
			Directory:     store,
			PublicPaths:   api.PublicPaths,
			LookupTimeout: cfg.RoleLookupTimeout,
			Metrics:       metrics,
			Logger:        logger,
		}),
		middleware.RolePolicy(middleware.DefaultRoleRules(), metrics),
	))

	srv := server.New(cfg.Addr, mux, server.WithLogger(logger))

	slog.Info("college api starting",
		"addr", cfg.Addr,
		"env", cfg.AppEnv,
		"algorithm", key.Algorithm(),
		"token_ttl", cfg.TokenTTL().String(),
		"database_driver", cfg.DatabaseDriver,
		"redis", cfg.RedisAddr != "",
	)

	if err := srv.Run(ctx); err != nil {
		slog.Error("server error", "error", err)
	}

	if err := shutdown(context.Background()); err != nil {
		slog.Error("telemetry shutdown error", "error", err)
	}
}

func newLogger(w io.Writer, level, format string) *slog.Logger {
	var l slog.Level
	switch level {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: l}
	if format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// newLimiters returns the per-IP and login limiters. With REDIS_ADDR set both
// share Redis so limits hold across replicas; otherwise they live in memory.
func newLimiters(ctx context.Context, cfg config.Config, logger *slog.Logger) (ip, login gw.RateLimiter, closeFn func(), err error) {
	if cfg.RedisAddr != "" {
		client, err := redislimit.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, nil, nil, err
		}
		perSecond := int(cfg.RateLimit.Rate) + cfg.RateLimit.Burst
		closeFn = func() {
			if err := client.Close(); err != nil {
				logger.Warn("closing redis client", "error", err)
			}
		}
		return redislimit.New(client, perSecond, time.Second, logger),
			redislimit.New(client, cfg.Login.Limit, cfg.Login.Window, logger),
			closeFn, nil
	}

	ipRL := inmem.NewRateLimiter(cfg.RateLimit.Rate, cfg.RateLimit.Burst, time.Now)
	loginRL := inmem.NewWindowLimiter(cfg.Login.Limit, cfg.Login.Window, time.Now)
	go ipRL.Run(ctx, 5*time.Minute)
	go loginRL.Run(ctx, 5*time.Minute)
	return ipRL, loginRL, func() {}, nil
}
