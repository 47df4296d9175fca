package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "CAMPUSBITE"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CAMPUSBITE_DB_DSN"
	EnvDBHost = "CAMPUSBITE_DB_HOST"
	EnvDBUser = "CAMPUSBITE_DB_USER"
	EnvDBName = "CAMPUSBITE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Orders       OrdersConfig
	Wallet       WalletConfig
	Outbox       OutboxConfig
	FeatureFlags FeatureFlagsConfig
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
	Env          string `envconfig:"CAMPUSBITE_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSBITE_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPUSBITE_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSBITE_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUSBITE_DB_DSN"`
	Driver string `envconfig:"CAMPUSBITE_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUSBITE_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUSBITE_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUSBITE_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUSBITE_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUSBITE_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUSBITE_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUSBITE_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUSBITE_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSBITE_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUSBITE_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSBITE_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUSBITE_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSBITE_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSBITE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSBITE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUSBITE_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUSBITE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSBITE_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSBITE_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"CAMPUSBITE_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"CAMPUSBITE_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"CAMPUSBITE_JWT_EXPIRATION_MINUTES" required:"true"`
}

type OrdersConfig struct {
	NumberPrefix      string `envconfig:"CAMPUSBITE_ORDER_NUMBER_PREFIX" default:"ORD"`
	PickupTokenLength int    `envconfig:"CAMPUSBITE_PICKUP_TOKEN_LENGTH" default:"8"`
}

type WalletConfig struct {
	PartitionPrefix string `envconfig:"CAMPUSBITE_WALLET_PARTITION_PREFIX" default:"transactions"`
	QueryMaxMonths  int    `envconfig:"CAMPUSBITE_WALLET_QUERY_MAX_MONTHS" default:"24"`
}

type OutboxConfig struct {
	BatchSize      int `envconfig:"CAMPUSBITE_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int `envconfig:"CAMPUSBITE_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int `envconfig:"CAMPUSBITE_OUTBOX_MAX_ATTEMPTS" default:"10"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"CAMPUSBITE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
