package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/lottodesk-backend/pkg/config"
	"github.com/angelmondragon/lottodesk-backend/pkg/db"
	"github.com/angelmondragon/lottodesk-backend/pkg/logger"
)

// MaybeRunDev brings the SQL schema up to date at boot when the app runs in
// dev mode with the auto-migrate flag. sqlite stores always migrate because
// they are local by definition.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if client == nil || !cfg.Store.UsesSQL() {
		return nil
	}
	sqlite := cfg.Store.Driver == config.StoreDriverSQLite
	if !sqlite && (!cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate) {
		return nil
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": cfg.Store.Driver})

	if sqlite {
		logg.Info(ctx, "running model auto-migration (sqlite)")
		return AutoMigrate(ctx, client.DB())
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	logg.Info(ctx, "running Goose migrations (dev auto-run)")
	if err := Run(ctx, sqlDB, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}
