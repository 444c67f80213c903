package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retechci/retechci-backend/api/routes"
	"github.com/retechci/retechci-backend/internal/applications"
	"github.com/retechci/retechci-backend/internal/auth"
	"github.com/retechci/retechci-backend/internal/finance"
	"github.com/retechci/retechci-backend/internal/members"
	"github.com/retechci/retechci-backend/internal/messages"
	"github.com/retechci/retechci-backend/internal/salaries"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/auth/session"
	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/metrics"
	"github.com/retechci/retechci-backend/pkg/migrate"
	"github.com/retechci/retechci-backend/pkg/redis"
	"github.com/retechci/retechci-backend/pkg/security"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeAutoRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to apply migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	deps, err := buildServices(cfg, logg, dbClient, redisClient, sessionManager, registry)
	if err != nil {
		logg.Error(context.Background(), "failed to wire services", err)
		os.Exit(1)
	}
	deps.DB = dbClient
	deps.Redis = redisClient
	deps.Sessions = sessionManager
	deps.Metrics = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	addr := ":" + cfg.App.Port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":    cfg.App.Env,
		"addr":   addr,
		"driver": dbClient.Driver(),
	})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, deps),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(ctx, "starting api server")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(ctx, "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(shutdownCtx, "graceful shutdown failed", err)
		}
	}
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	sessions *session.Manager,
	registry prometheus.Registerer,
) (routes.Dependencies, error) {
	st := store.NewGorm(dbClient.DB())
	hasher := security.NewHasher(cfg.Password)
	now := func() time.Time { return time.Now().UTC() }

	salarySvc, err := salaries.NewService(salaries.NewRepository(dbClient.DB()), redisClient, logg)
	if err != nil {
		return routes.Dependencies{}, err
	}
	appSvc, err := applications.NewService(applications.ServiceParams{
		Store:      st,
		Hasher:     hasher,
		Logger:     logg,
		Metrics:    metrics.NewLifecycleMetrics(registry),
		Membership: cfg.Membership,
		Now:        now,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	memberSvc, err := members.NewService(members.ServiceParams{
		Store:      st,
		Salaries:   salarySvc,
		Hasher:     hasher,
		Logger:     logg,
		Membership: cfg.Membership,
		Sessions:   sessions,
		Now:        now,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}
	financeSvc, err := finance.NewService(finance.NewRepository(dbClient.DB()), logg, cfg.Membership.Currency, now)
	if err != nil {
		return routes.Dependencies{}, err
	}
	messageSvc, err := messages.NewService(messages.NewRepository(dbClient.DB()), logg, now)
	if err != nil {
		return routes.Dependencies{}, err
	}
	authSvc, err := auth.NewService(auth.ServiceParams{
		Store:          st,
		Hasher:         hasher,
		SessionManager: sessions,
		JWTConfig:      cfg.JWT,
		Logger:         logg,
		Now:            now,
	})
	if err != nil {
		return routes.Dependencies{}, err
	}

	return routes.Dependencies{
		Auth:         authSvc,
		Applications: appSvc,
		Members:      memberSvc,
		Salaries:     salarySvc,
		Finance:      financeSvc,
		Messages:     messageSvc,
	}, nil
}
