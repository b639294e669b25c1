package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Admin         AdminConfig
	FeatureFlags  FeatureFlagsConfig
	Ledger        LedgerConfig
	Payment       PaymentConfig
	Cart          CartConfig
	Reconciler    ReconcilerConfig
	AuthRateLimit AuthRateLimitConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"SOLMART_APP_ENV" required:"true"`
	Port         string `envconfig:"SOLMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SOLMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SOLMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SOLMART_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SOLMART_DB_DSN"`
	Driver string `envconfig:"SOLMART_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"SOLMART_DB_HOST"`
	Port     int    `envconfig:"SOLMART_DB_PORT" default:"5432"`
	User     string `envconfig:"SOLMART_DB_USER"`
	Password string `envconfig:"SOLMART_DB_PASSWORD"`
	Name     string `envconfig:"SOLMART_DB_NAME"`
	SSLMode  string `envconfig:"SOLMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SOLMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SOLMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SOLMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SOLMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SOLMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SOLMART_REDIS_ADDR"`
	Password     string        `envconfig:"SOLMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"SOLMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SOLMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SOLMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SOLMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SOLMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SOLMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"SOLMART_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"SOLMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"SOLMART_JWT_EXPIRATION_MINUTES" required:"true"`
	SessionTTLMinutes int    `envconfig:"SOLMART_SESSION_TTL_MINUTES" default:"43200"`
}

// SessionTTL returns the wallet session TTL configured in minutes.
func (j JWTConfig) SessionTTL() time.Duration {
	if j.SessionTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.SessionTTLMinutes) * time.Minute
}

type AdminConfig struct {
	SecretHash       string `envconfig:"SOLMART_ADMIN_SECRET_HASH"`
	ArgonMemoryKB    int    `envconfig:"SOLMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int    `envconfig:"SOLMART_ARGON_TIME" default:"3"`
	ArgonParallelism int    `envconfig:"SOLMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int    `envconfig:"SOLMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int    `envconfig:"SOLMART_ARGON_KEY_LEN" default:"32"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SOLMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SOLMART_AUTO_MIGRATE" default:"false"`
}

type LedgerConfig struct {
	RPCURL         string        `envconfig:"SOLMART_LEDGER_RPC_URL" required:"true"`
	Commitment     string        `envconfig:"SOLMART_LEDGER_COMMITMENT" default:"confirmed"`
	RequestTimeout time.Duration `envconfig:"SOLMART_LEDGER_REQUEST_TIMEOUT" default:"30s"`
	ConfirmPollMS  int           `envconfig:"SOLMART_LEDGER_CONFIRM_POLL_MS" default:"500"`
	ConfirmTimeout time.Duration `envconfig:"SOLMART_LEDGER_CONFIRM_TIMEOUT" default:"60s"`
}

type PaymentConfig struct {
	MerchantWallet string `envconfig:"SOLMART_MERCHANT_WALLET" required:"true"`
	TokenMint      string `envconfig:"SOLMART_TOKEN_MINT"`
	TokenDecimals  int    `envconfig:"SOLMART_TOKEN_DECIMALS" default:"9"`
	DefaultMemo    string `envconfig:"SOLMART_PAYMENT_MEMO" default:"SolMart Purchase"`

	// DevWalletSeed enables the server-custodied dev signer. Leave unset
	// in production so checkout refuses to sign on behalf of buyers.
	DevWalletSeed string `envconfig:"SOLMART_DEV_WALLET_SEED"`
}

type AuthRateLimitConfig struct {
	ConnectWindow      time.Duration `envconfig:"SOLMART_AUTH_RATE_CONNECT_WINDOW" default:"1m"`
	ConnectIPLimit     int           `envconfig:"SOLMART_AUTH_RATE_CONNECT_IP_LIMIT" default:"30"`
	ConnectWalletLimit int           `envconfig:"SOLMART_AUTH_RATE_CONNECT_WALLET_LIMIT" default:"10"`
	AdminWindow        time.Duration `envconfig:"SOLMART_AUTH_RATE_ADMIN_WINDOW" default:"5m"`
	AdminIPLimit       int           `envconfig:"SOLMART_AUTH_RATE_ADMIN_IP_LIMIT" default:"10"`
	AdminWalletLimit   int           `envconfig:"SOLMART_AUTH_RATE_ADMIN_WALLET_LIMIT" default:"5"`
}

type CartConfig struct {
	TTL time.Duration `envconfig:"SOLMART_CART_TTL" default:"720h"`
}

type ReconcilerConfig struct {
	BatchSize      int `envconfig:"SOLMART_RECONCILER_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"SOLMART_RECONCILER_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"SOLMART_RECONCILER_MAX_ATTEMPTS" default:"10"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range componentDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
