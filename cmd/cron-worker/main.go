package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/retechci/retechci-backend/internal/cron"
	"github.com/retechci/retechci-backend/internal/messages"
	"github.com/retechci/retechci-backend/internal/store"
	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db"
	"github.com/retechci/retechci-backend/pkg/logger"
	"github.com/retechci/retechci-backend/pkg/metrics"
	"github.com/retechci/retechci-backend/pkg/migrate"
	"github.com/retechci/retechci-backend/pkg/redis"
)

const lockNameFormat = "cron-worker:%s"

func main() {
	once := flag.Bool("once", false, "run a single housekeeping cycle and exit")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	lock, closeLock, err := buildLock(cfg, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}
	defer closeLock()

	now := func() time.Time { return time.Now().UTC() }
	messageSvc, err := messages.NewService(messages.NewRepository(dbClient.DB()), logg, now)
	if err != nil {
		logg.Error(context.Background(), "failed to create messages service", err)
		os.Exit(1)
	}
	dues, err := cron.NewDuesRolloverJob(cron.DuesRolloverJobParams{
		Logger:    logg,
		Store:     store.NewGorm(dbClient.DB()),
		AnnualFee: cfg.Membership.AnnualFee,
		Now:       now,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create dues rollover job", err)
		os.Exit(1)
	}
	retention, err := cron.NewMessageRetentionJob(cron.MessageRetentionJobParams{
		Logger:        logg,
		Messages:      messageSvc,
		RetentionDays: cfg.Cron.MessageRetentionDays,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create message retention job", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:     logg,
		Registry:   cron.NewRegistry(dues, retention),
		Lock:       lock,
		Metrics:    metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval:   cfg.Cron.Interval,
		JobTimeout: cfg.Cron.JobTimeout,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"interval": cfg.Cron.Interval.String(),
	})
	if *once {
		report, err := service.RunOnce(ctx)
		if err != nil {
			logg.Error(ctx, "housekeeping cycle failed", err)
			os.Exit(1)
		}
		if len(report.Failed) > 0 {
			logg.Error(logg.WithField(ctx, "failed_jobs", report.Failed), "housekeeping jobs failed", nil)
			os.Exit(1)
		}
		return
	}

	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}

// buildLock prefers a Redis lease and falls back to an in-process lock when
// no Redis endpoint is configured.
func buildLock(cfg *config.Config, logg *logger.Logger) (cron.Lock, func(), error) {
	if cfg.Redis.URL == "" && cfg.Redis.Address == "" {
		logg.Warn(context.Background(), "redis not configured, using in-process cron lock")
		return &cron.LocalLock{}, func() {}, nil
	}
	client, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		return nil, nil, err
	}
	closer := func() {
		if err := client.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}
	lock, err := cron.NewRedisLock(client, lockName(cfg.App.Env), 0)
	if err != nil {
		closer()
		return nil, nil, err
	}
	return lock, closer, nil
}

func lockName(env string) string {
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf(lockNameFormat, env)
}
