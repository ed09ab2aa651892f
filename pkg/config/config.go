package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App        AppConfig
	API        APIConfig
	TokenStore TokenStoreConfig
	Redis      RedisConfig
	Checkout   CheckoutConfig
	DevServer  DevServerConfig
	Password   PasswordConfig
	Metrics    MetricsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.API.ensureRoleURLs(); err != nil {
		return nil, err
	}
	if err := cfg.TokenStore.validate(cfg.Redis); err != nil {
		return nil, err
	}
	if _, err := cfg.Checkout.WalletRegexp(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MARKET_APP_ENV" default:"dev"`
	LogLevel     string `envconfig:"MARKET_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MARKET_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type APIConfig struct {
	BaseURL        string        `envconfig:"MARKET_API_BASE_URL" required:"true"`
	BuyerBaseURL   string        `envconfig:"MARKET_API_BUYER_BASE_URL"`
	SellerBaseURL  string        `envconfig:"MARKET_API_SELLER_BASE_URL"`
	Timeout        time.Duration `envconfig:"MARKET_API_TIMEOUT" default:"20s"`
	LanguageHeader string        `envconfig:"MARKET_API_LANGUAGE_HEADER" default:"lang"`
	UserAgent      string        `envconfig:"MARKET_API_USER_AGENT" default:"marketplace-client/1"`
}

// ensureRoleURLs derives the per-role base URLs from the shared base when they
// are not configured explicitly.
func (a *APIConfig) ensureRoleURLs() error {
	base := strings.TrimRight(strings.TrimSpace(a.BaseURL), "/")
	if _, err := url.ParseRequestURI(base); err != nil {
		return fmt.Errorf("%s is not a valid url: %w", EnvAPIBaseURL, err)
	}
	a.BaseURL = base
	if strings.TrimSpace(a.BuyerBaseURL) == "" {
		a.BuyerBaseURL = base + BuyerPathPrefix
	}
	if strings.TrimSpace(a.SellerBaseURL) == "" {
		a.SellerBaseURL = base + SellerPathPrefix
	}
	return nil
}

type TokenStoreConfig struct {
	Driver      string `envconfig:"MARKET_TOKEN_STORE_DRIVER" default:"sqlite"`
	DSN         string `envconfig:"MARKET_TOKEN_STORE_DSN" default:"file:market-client.db?_busy_timeout=5000"`
	DeviceID    string `envconfig:"MARKET_DEVICE_ID"`
	AutoMigrate bool   `envconfig:"MARKET_TOKEN_STORE_AUTO_MIGRATE" default:"true"`
}

func (t TokenStoreConfig) validate(redis RedisConfig) error {
	switch strings.ToLower(t.Driver) {
	case TokenStoreMemory:
		return nil
	case TokenStoreSQLite, TokenStorePostgres:
		if strings.TrimSpace(t.DSN) == "" {
			return fmt.Errorf("%s is required for the %s token store", EnvTokenStoreDSN, t.Driver)
		}
		return nil
	case TokenStoreRedis:
		if redis.URL == "" && redis.Address == "" {
			return fmt.Errorf("either %s or %s is required for the redis token store", EnvRedisURL, EnvRedisAddr)
		}
		if strings.TrimSpace(t.DeviceID) == "" {
			return fmt.Errorf("%s is required for the redis token store", EnvDeviceID)
		}
		return nil
	}
	return fmt.Errorf("unsupported token store driver %q", t.Driver)
}

type RedisConfig struct {
	URL          string        `envconfig:"MARKET_REDIS_URL"`
	Address      string        `envconfig:"MARKET_REDIS_ADDR"`
	Password     string        `envconfig:"MARKET_REDIS_PASSWORD"`
	DB           int           `envconfig:"MARKET_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MARKET_REDIS_POOL_SIZE" default:"4"`
	MinIdleConns int           `envconfig:"MARKET_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"MARKET_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MARKET_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"MARKET_REDIS_WRITE_TIMEOUT" default:"3s"`
	TokenTTL     time.Duration `envconfig:"MARKET_REDIS_TOKEN_TTL" default:"0"`
}

type CheckoutConfig struct {
	// WalletPattern selects the payment methods still offered when the cart
	// holds a living good.
	WalletPattern string `envconfig:"MARKET_CHECKOUT_WALLET_PATTERN" default:"(?i)(mobile[ _-]?wallet|bkash|nagad|rocket|upay)"`
}

// WalletRegexp compiles the configured mobile-wallet pattern.
func (c CheckoutConfig) WalletRegexp() (*regexp.Regexp, error) {
	pattern := c.WalletPattern
	if strings.TrimSpace(pattern) == "" {
		pattern = DefaultWalletPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling %s: %w", EnvCheckoutWalletPattern, err)
	}
	return re, nil
}

type DevServerConfig struct {
	Port              string `envconfig:"MARKET_DEV_SERVER_PORT" default:"8089"`
	JWTSecret         string `envconfig:"MARKET_DEV_SERVER_JWT_SECRET" default:"dev-secret"`
	JWTIssuer         string `envconfig:"MARKET_DEV_SERVER_JWT_ISSUER" default:"market-dev"`
	ExpirationMinutes int    `envconfig:"MARKET_DEV_SERVER_JWT_EXPIRATION_MINUTES" default:"1440"`
	Seed              bool   `envconfig:"MARKET_DEV_SERVER_SEED" default:"true"`
	// SellerPassword is set on the seeded seller accounts.
	SellerPassword string `envconfig:"MARKET_DEV_SERVER_SELLER_PASSWORD" default:"seller-pass"`

	CORSOrigins []string `envconfig:"MARKET_DEV_SERVER_CORS_ORIGINS" default:"http://localhost:3000,http://localhost:8081,http://localhost:19006"`

	LoginWindow     time.Duration `envconfig:"MARKET_DEV_SERVER_LOGIN_WINDOW" default:"1m"`
	LoginIPLimit    int           `envconfig:"MARKET_DEV_SERVER_LOGIN_IP_LIMIT" default:"30"`
	LoginEmailLimit int           `envconfig:"MARKET_DEV_SERVER_LOGIN_EMAIL_LIMIT" default:"10"`
}

// TokenTTL returns the access token lifetime configured in minutes.
func (d DevServerConfig) TokenTTL() time.Duration {
	if d.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(d.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MARKET_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MARKET_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MARKET_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MARKET_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MARKET_ARGON_KEY_LEN" default:"32"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"MARKET_METRICS_ENABLED" default:"false"`
	Address string `envconfig:"MARKET_METRICS_ADDR" default:":9102"`
}
