package config

// EnvPrefix scopes every environment variable consumed by the platform.
const EnvPrefix = "SOLMART"

const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

const (
	EnvAppEnv          = "SOLMART_APP_ENV"
	EnvPort            = "SOLMART_APP_PORT"
	EnvDBDSN           = "SOLMART_DB_DSN"
	EnvDBHost          = "SOLMART_DB_HOST"
	EnvDBUser          = "SOLMART_DB_USER"
	EnvDBName          = "SOLMART_DB_NAME"
	EnvRedisURL        = "SOLMART_REDIS_URL"
	EnvJWTSecret       = "SOLMART_JWT_SECRET"
	EnvJWTIssuer       = "SOLMART_JWT_ISSUER"
	EnvJWTExpMins      = "SOLMART_JWT_EXPIRATION_MINUTES"
	EnvLedgerRPCURL    = "SOLMART_LEDGER_RPC_URL"
	EnvMerchantWallet  = "SOLMART_MERCHANT_WALLET"
	EnvSessionTTLMins  = "SOLMART_SESSION_TTL_MINUTES"
	EnvAdminSecretHash = "SOLMART_ADMIN_SECRET_HASH"
)

var componentDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
