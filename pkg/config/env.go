package config

// EnvPrefix is handed to envconfig; every field carries an explicit name so it
// only matters for fields that omit one.
const EnvPrefix = "MARKET"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	BuyerPathPrefix  = "/api/v1/customer"
	SellerPathPrefix = "/api/v1/seller"
)

const (
	TokenStoreMemory   = "memory"
	TokenStoreSQLite   = "sqlite"
	TokenStorePostgres = "postgres"
	TokenStoreRedis    = "redis"
)

const DefaultWalletPattern = `(?i)(mobile[ _-]?wallet|bkash|nagad|rocket|upay)`

const (
	EnvAppEnv                = "MARKET_APP_ENV"
	EnvLogLevel              = "MARKET_LOG_LEVEL"
	EnvAPIBaseURL            = "MARKET_API_BASE_URL"
	EnvAPIBuyerBaseURL       = "MARKET_API_BUYER_BASE_URL"
	EnvAPISellerBaseURL      = "MARKET_API_SELLER_BASE_URL"
	EnvAPITimeout            = "MARKET_API_TIMEOUT"
	EnvTokenStoreDriver      = "MARKET_TOKEN_STORE_DRIVER"
	EnvTokenStoreDSN         = "MARKET_TOKEN_STORE_DSN"
	EnvDeviceID              = "MARKET_DEVICE_ID"
	EnvRedisURL              = "MARKET_REDIS_URL"
	EnvRedisAddr             = "MARKET_REDIS_ADDR"
	EnvCheckoutWalletPattern = "MARKET_CHECKOUT_WALLET_PATTERN"
	EnvDevServerPort         = "MARKET_DEV_SERVER_PORT"
	EnvDevServerJWTSecret    = "MARKET_DEV_SERVER_JWT_SECRET"
	EnvMetricsEnabled        = "MARKET_METRICS_ENABLED"
)
