package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/csps/portal/internal/app"
	"github.com/csps/portal/internal/auth"
	authhttp "github.com/csps/portal/internal/auth/http"
	"github.com/csps/portal/internal/auth/refresh"
	"github.com/csps/portal/internal/auth/token"
	"github.com/csps/portal/internal/events"
	"github.com/csps/portal/internal/merch"
	"github.com/csps/portal/internal/observability"
	"github.com/csps/portal/internal/platform/cache"
	"github.com/csps/portal/internal/platform/db"
	"github.com/csps/portal/internal/rbac"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("portal exited", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *app.Config, logger *slog.Logger) error {
	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		return err
	}
	defer dbpool.Close()

	health := map[string]app.HealthChecker{"postgres": dbpool.Ping}

	var redisClient *redis.Client
	if cfg.RefreshStore == app.RefreshStoreRedis {
		redisClient, err = cache.New(ctx, cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Warn("redis close", slog.Any("error", err))
			}
		}()
		health["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	signer, err := token.NewSigner(cfg.JWTSecret, cfg.JWTIssuer)
	if err != nil {
		return err
	}

	var store refresh.Store
	switch cfg.RefreshStore {
	case app.RefreshStoreRedis:
		store = refresh.NewRedisStore(redisClient)
	default:
		store = refresh.NewPostgresStore(dbpool)
	}
	refresher := refresh.NewService(store, refresh.Config{TTL: cfg.RefreshTokenTTL, Rotate: cfg.RefreshRotate})

	authRepo := auth.NewRepository(dbpool)
	authService := auth.NewService(authRepo, signer, refresher, auth.Options{AccessTTL: cfg.AccessTokenTTL})

	rbacMiddleware := rbac.Middleware{
		Verifier: signer,
		Resolver: rbac.NewResolver(authRepo),
		Logger:   logger,
	}

	metrics := observability.NewMetrics()
	metrics.Registerer().MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	authHandler := authhttp.NewHandler(logger, authService, rbacMiddleware,
		authhttp.CookieConfig{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain},
		authhttp.WithMetrics(metrics),
		authhttp.WithLoginLimiter(app.LoginLimiter(cfg)),
	)
	eventsHandler := events.NewHandler(logger, events.NewService(events.NewRepository(dbpool)), rbacMiddleware)
	merchHandler := merch.NewHandler(logger, merch.NewService(merch.NewRepository(dbpool)), rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		AuthHandler:    authHandler,
		EventsHandler:  eventsHandler,
		MerchHandler:   merchHandler,
		RBACMiddleware: rbacMiddleware,
		Metrics:        metrics,
		Health:         health,
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("refresh_store", cfg.RefreshStore),
			slog.Bool("refresh_rotate", cfg.RefreshRotate),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
