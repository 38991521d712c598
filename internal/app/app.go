package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"genesis-api/internal/auth"
	"genesis-api/internal/config"
	"genesis-api/internal/database"
	"genesis-api/internal/handler"
	"genesis-api/internal/metrics"
	"genesis-api/internal/middleware"
	"genesis-api/internal/repository"
	"genesis-api/internal/router"
	"genesis-api/internal/service"
	"genesis-api/pkg/pagination"
)

const serviceName = "genesis-api"

type App struct {
	server       *http.Server
	cleanupFuncs []func()
}

func New(cfg *config.Config) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{}
	h, err := a.build(ctx, cfg)
	if err != nil {
		a.cleanup()
		return nil, err
	}

	a.server = &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           h,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return a, nil
}

// build wires storage, auth and handlers into the routed handler.
func (a *App) build(ctx context.Context, cfg *config.Config) (http.Handler, error) {
	var (
		items service.ItemStore
		users service.UserStore
	)
	checks := map[string]handler.Check{}

	if cfg.DatabaseURL != "" {
		slog.Info("connecting to PostgreSQL")
		db, err := database.New(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.cleanupFuncs = append(a.cleanupFuncs, db.Close)

		if err := db.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("failed to ensure database schema: %w", err)
		}

		items = repository.NewItemRepository(db.Pool)
		users = repository.NewUserRepository(db.Pool)
		checks["database"] = db.Health
		slog.Info("database ready")
	} else {
		slog.Warn("DATABASE_URL not set, using in-memory storage")
		items = repository.NewMemoryItemRepository()
		users = repository.NewMemoryUserRepository()
	}

	var limiter middleware.Limiter
	if cfg.RedisURL != "" {
		client, err := newRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		a.cleanupFuncs = append(a.cleanupFuncs, func() { _ = client.Close() })

		limiter = middleware.NewRedisLimiter(client, serviceName+":ratelimit")
		checks["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		slog.Info("rate limits shared through Redis")
	}

	reg := metrics.NewRegistry()

	var (
		verifier    auth.Verifier
		authHandler *handler.AuthHandler
	)
	switch cfg.AuthMode {
	case config.AuthModeEmbedded:
		issuer := auth.NewLocalIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAccessTTL)
		authService := service.NewAuthService(users, issuer)
		if err := authService.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
			return nil, fmt.Errorf("failed to seed admin account: %w", err)
		}
		verifier = issuer
		authHandler = handler.NewAuthHandler(authService)
	default:
		jwks := auth.NewJWKSVerifier(cfg.JWKSURL(), cfg.KeycloakIssuer(), cfg.JWKSCacheTTL, nil)
		verifier = jwks
		checks["jwks"] = jwks.Ping
	}
	slog.Info("auth configured", "mode", cfg.AuthMode)

	defaults := pagination.Defaults{
		Page:      1,
		Limit:     cfg.PaginationDefaultLimit,
		MaxLimit:  cfg.PaginationMaxLimit,
		SortBy:    pagination.DefaultDefaults.SortBy,
		SortOrder: pagination.DefaultDefaults.SortOrder,
	}

	return router.New(cfg, middleware.NewAuthMiddleware(verifier, reg), limiter, reg, router.Handlers{
		Health:  handler.NewHealthHandler(serviceName, cfg.APIVersion, cfg.AuthMode, checks),
		Account: handler.NewAccountHandler(),
		Item:    handler.NewItemHandler(service.NewItemService(items), defaults, reg),
		Auth:    authHandler,
	}), nil
}

func newRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.cleanup()
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	a.cleanup()
	slog.Info("server stopped")
	return nil
}

func (a *App) cleanup() {
	for i := len(a.cleanupFuncs) - 1; i >= 0; i-- {
		a.cleanupFuncs[i]()
	}
	a.cleanupFuncs = nil
}
