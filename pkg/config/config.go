package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = ""

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	APLBackendFile  = "file"
	APLBackendRedis = "redis"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	APL          APLConfig
	Saleor       SaleorConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.APL.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"ORDERHASH_APP_ENV" default:"dev"`
	Port         string `envconfig:"ORDERHASH_APP_PORT" default:"3000"`
	LogLevel     string `envconfig:"ORDERHASH_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ORDERHASH_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

// DBConfig deliberately has no required fields: a missing DSN must surface as a
// reportable store-unavailable condition at request time, not a boot failure.
type DBConfig struct {
	DSN    string `envconfig:"ORDERHASH_DB_DSN"`
	Driver string `envconfig:"ORDERHASH_DB_DRIVER" default:"postgres"`

	MaxOpenConns    int           `envconfig:"ORDERHASH_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"ORDERHASH_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"ORDERHASH_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ORDERHASH_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

func (d DBConfig) Configured() bool {
	return strings.TrimSpace(d.DSN) != ""
}

type RedisConfig struct {
	URL          string        `envconfig:"ORDERHASH_REDIS_URL"`
	Address      string        `envconfig:"ORDERHASH_REDIS_ADDR"`
	Password     string        `envconfig:"ORDERHASH_REDIS_PASSWORD"`
	DB           int           `envconfig:"ORDERHASH_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ORDERHASH_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ORDERHASH_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ORDERHASH_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ORDERHASH_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ORDERHASH_REDIS_WRITE_TIMEOUT" default:"5s"`
}

func (r RedisConfig) Configured() bool {
	return strings.TrimSpace(r.URL) != "" || strings.TrimSpace(r.Address) != ""
}

// APLConfig selects the auth persistence layer backend holding per-instance
// Saleor credentials.
type APLConfig struct {
	Backend  string `envconfig:"ORDERHASH_APL" default:"file"`
	FilePath string `envconfig:"ORDERHASH_APL_FILE_PATH" default:".auth-data.json"`
}

func (a APLConfig) validate() error {
	switch strings.ToLower(a.Backend) {
	case APLBackendFile, APLBackendRedis:
		return nil
	}
	return fmt.Errorf("unknown APL backend %q (expected %q or %q)", a.Backend, APLBackendFile, APLBackendRedis)
}

func (a APLConfig) IsRedis() bool {
	return strings.EqualFold(a.Backend, APLBackendRedis)
}

type SaleorConfig struct {
	AppID          string        `envconfig:"ORDERHASH_SALEOR_APP_ID" default:"openaegis.app.order-hash"`
	AppName        string        `envconfig:"ORDERHASH_SALEOR_APP_NAME" default:"Order Hash Generator"`
	AppVersion     string        `envconfig:"ORDERHASH_SALEOR_APP_VERSION" default:"0.1.0"`
	MetadataKey    string        `envconfig:"ORDERHASH_SALEOR_METADATA_KEY" default:"order_hash"`
	RequestTimeout time.Duration `envconfig:"ORDERHASH_SALEOR_REQUEST_TIMEOUT" default:"10s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"ORDERHASH_AUTO_MIGRATE" default:"false"`
}
