package migrate

import (
	"context"
	"fmt"

	"github.com/retechci/retechci-backend/pkg/config"
	"github.com/retechci/retechci-backend/pkg/db"
	"github.com/retechci/retechci-backend/pkg/logger"
)

// ShouldAutoRun reports whether a binary should apply the embedded migrations
// at boot: always for SQLite, whose database file is local to the process, and
// for Postgres only outside prod with RETECHCI_AUTO_MIGRATE set.
func ShouldAutoRun(cfg *config.Config) bool {
	if cfg.DB.IsSQLite() {
		return true
	}
	return cfg.FeatureFlags.AutoMigrate && !cfg.App.IsProd()
}

// MaybeAutoRun applies the embedded migrations when ShouldAutoRun allows it.
func MaybeAutoRun(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !ShouldAutoRun(cfg) {
		return nil
	}
	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": client.Driver()})
	logg.Info(ctx, "applying embedded migrations")
	if err := Up(ctx, sqlDB, client.Driver()); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}
	logg.Info(ctx, "migrations up to date")
	return nil
}
