package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=3000"`
	Env      string `env:"ENV,       default=production"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	// CORSOrigins is a comma-separated allow-list; "*" allows any origin.
	CORSOrigins []string `env:"CORS_ORIGINS, default=*"`

	JWT      JWTConfig
	Security SecurityConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Mongo    MongoConfig
	Activity ActivityConfig
}

type JWTConfig struct {
	Secret        string        `env:"JWT_SECRET, required"`
	RefreshSecret string        `env:"JWT_REFRESH_SECRET, required"`
	AccessTTL     time.Duration `env:"JWT_EXPIRES_IN,         default=1h"`
	ExtendedTTL   time.Duration `env:"JWT_REMEMBER_EXPIRES_IN, default=168h"`
	RefreshTTL    time.Duration `env:"JWT_REFRESH_EXPIRES_IN, default=168h"`
}

type SecurityConfig struct {
	BcryptCost int `env:"BCRYPT_COST, default=10"`
}

type PostgresConfig struct {
	Host           string        `env:"DB_HOST,            default=localhost"`
	Port           int           `env:"DB_PORT,            default=5432"`
	Name           string        `env:"DB_NAME,            default=aidcore"`
	User           string        `env:"DB_USER,            default=postgres"`
	Password       string        `env:"DB_PASSWORD"`
	SSLMode        string        `env:"DB_SSLMODE,         default=disable"`
	PoolMax        int           `env:"DB_POOL_MAX,        default=10"`
	PoolMin        int           `env:"DB_POOL_MIN,        default=0"`
	IdleTimeout    time.Duration `env:"DB_IDLE_TIMEOUT,    default=10s"`
	ConnectTimeout time.Duration `env:"DB_CONNECT_TIMEOUT, default=2s"`
	QueryTimeout   time.Duration `env:"DB_QUERY_TIMEOUT,   default=5s"`
}

// DSN renders the connection string understood by pgx.ParseConfig.
func (p PostgresConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(p.User, p.Password),
		Host:     net.JoinHostPort(p.Host, strconv.Itoa(p.Port)),
		Path:     "/" + p.Name,
		RawQuery: "sslmode=" + url.QueryEscape(p.SSLMode),
	}
	return u.String()
}

type RedisConfig struct {
	Addr           string        `env:"REDIS_ADDR,            default=localhost:6379"`
	Password       string        `env:"REDIS_PASSWORD"`
	DB             int           `env:"REDIS_DB,              default=0"`
	IdempotencyTTL time.Duration `env:"REDIS_IDEMPOTENCY_TTL, default=24h"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=aidcore"`
}

type ActivityConfig struct {
	Workers   int `env:"ACTIVITY_WORKERS,    default=4"`
	QueueSize int `env:"ACTIVITY_QUEUE_SIZE, default=256"`
}

// IsDevelopment reports whether diagnostics may be exposed to clients.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadFrom(ctx, envconfig.OsLookuper())
}

// LoadFrom is Load with an explicit lookuper, used by tests.
func LoadFrom(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.JWT.Secret == c.JWT.RefreshSecret {
		return errors.New("JWT_SECRET and JWT_REFRESH_SECRET must differ")
	}
	if c.Postgres.PoolMax < 1 {
		return errors.New("DB_POOL_MAX must be at least 1")
	}
	if c.Postgres.PoolMin < 0 || c.Postgres.PoolMin > c.Postgres.PoolMax {
		return errors.New("DB_POOL_MIN must be between 0 and DB_POOL_MAX")
	}
	if c.Activity.Workers < 1 {
		return errors.New("ACTIVITY_WORKERS must be at least 1")
	}
	return nil
}
