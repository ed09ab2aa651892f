package tokenstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/angelmondragon/marketplace-client/pkg/config"
	"github.com/angelmondragon/marketplace-client/pkg/db"
	"github.com/angelmondragon/marketplace-client/pkg/logger"
	"github.com/angelmondragon/marketplace-client/pkg/migrate"
	"github.com/angelmondragon/marketplace-client/pkg/redis"
)

// Persisted keys.
const (
	KeyBuyerToken  = "auth-token"
	KeySellerToken = "seller-auth-token"
	KeyUserType    = "user-type"
	KeyLanguage    = "user-language"
)

// ErrNotFound is returned by Get when no value is stored for the key.
var ErrNotFound = errors.New("tokenstore: key not found")

// Store is the on-device key/value storage used for credentials and preferences.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

// Open selects and initialises the backend named by cfg.TokenStore.Driver.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (Store, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	driver := strings.ToLower(strings.TrimSpace(cfg.TokenStore.Driver))
	ctx = logg.WithField(ctx, "token_store", driver)

	switch driver {
	case config.TokenStoreMemory:
		logg.Info(ctx, "using in-memory token store")
		return NewMemory(), nil

	case config.TokenStoreSQLite, config.TokenStorePostgres:
		client, err := db.New(ctx, cfg.TokenStore, logg)
		if err != nil {
			return nil, fmt.Errorf("opening token store database: %w", err)
		}
		if err := migrate.MaybeRun(ctx, cfg.TokenStore, logg, client); err != nil {
			return nil, multierr.Append(fmt.Errorf("migrating token store: %w", err), client.Close())
		}
		return NewSQL(client), nil

	case config.TokenStoreRedis:
		client, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			return nil, fmt.Errorf("opening token store redis: %w", err)
		}
		return NewRedis(client, cfg.TokenStore.DeviceID, cfg.Redis.TokenTTL)
	}

	return nil, fmt.Errorf("unsupported token store driver %q", cfg.TokenStore.Driver)
}
