package migrate

import (
	"context"
	"fmt"

	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/db"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
)

// MaybeRun applies the token-store migrations when auto-migrate is enabled.
func MaybeRun(ctx context.Context, cfg config.TokenStoreConfig, logg *logger.Logger, client *db.Client) error {
	if !cfg.AutoMigrate || client == nil {
		return nil
	}

	sqlDB, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"driver": cfg.Driver, "dialect": client.Dialect()})
	logg.Info(ctx, "running token store migrations")

	if err := Run(ctx, sqlDB, client.Dialect(), "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "token store migrations completed")
	return nil
}
