package config

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	pkgconfig "github.com/priyabakthisaran/SocialNetworkClone/pkg/config"
)

// Development defaults. Load rejects them outside development.
const (
	defaultAccessSecret  = "dev-access-secret-change-me"
	defaultRefreshSecret = "dev-refresh-secret-change-me"
	minSecretLength      = 32
)

// Config holds all configuration for the auth service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"auth-service"`

	// HTTP server
	HTTPPort        int           `env:"HTTP_PORT" envDefault:"5000"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// PostgreSQL
	PostgresHost    string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort    int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser    string        `env:"POSTGRES_USER" envDefault:"social"`
	PostgresPass    string        `env:"POSTGRES_PASSWORD" envDefault:"social_secret"`
	PostgresDB      string        `env:"POSTGRES_DB" envDefault:"social"`
	PostgresSSL     string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns      int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns      int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLife   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdle   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	SlowQueryMillis int           `env:"SLOW_QUERY_THRESHOLD_MS" envDefault:"200"`

	// Kafka. An empty broker list disables event publishing.
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis backs the login throttle.
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LoginThrottleEnabled bool          `env:"LOGIN_THROTTLE_ENABLED" envDefault:"true"`
	LoginMaxAttempts     int           `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginThrottleWindow  time.Duration `env:"LOGIN_THROTTLE_WINDOW" envDefault:"15m"`

	// Tokens
	AccessTokenSecret  string        `env:"ACCESS_TOKEN_SECRET" envDefault:"dev-access-secret-change-me"`
	RefreshTokenSecret string        `env:"REFRESH_TOKEN_SECRET" envDefault:"dev-refresh-secret-change-me"`
	AccessTokenExpiry  time.Duration `env:"ACCESS_TOKEN_EXPIRY" envDefault:"24h"`
	RefreshTokenExpiry time.Duration `env:"REFRESH_TOKEN_EXPIRY" envDefault:"720h"`
	CookieSecure       bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Password hashing. HashConcurrency 0 means one slot per CPU.
	BcryptCost      int `env:"BCRYPT_COST" envDefault:"12"`
	HashConcurrency int `env:"HASH_CONCURRENCY" envDefault:"0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from the environment and the given dotenv files
// (".env" when none are given) and validates it.
func Load(envFiles ...string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg, envFiles...); err != nil {
		return nil, fmt.Errorf("load auth config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs with development defaults.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// Validate checks value ranges and secret hygiene.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.HashConcurrency < 0 {
		return fmt.Errorf("HASH_CONCURRENCY must not be negative, got %d", c.HashConcurrency)
	}
	if c.AccessTokenExpiry <= 0 || c.RefreshTokenExpiry <= 0 {
		return fmt.Errorf("token expiries must be positive")
	}
	if c.LoginThrottleEnabled && (c.LoginMaxAttempts < 1 || c.LoginThrottleWindow <= 0) {
		return fmt.Errorf("LOGIN_MAX_ATTEMPTS and LOGIN_THROTTLE_WINDOW must be positive when throttling is enabled")
	}

	if c.AccessTokenSecret == "" || c.RefreshTokenSecret == "" {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if c.AccessTokenSecret == c.RefreshTokenSecret {
		return fmt.Errorf("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ")
	}

	// Outside development, require explicitly set, strong secrets.
	if !c.IsDevelopment() {
		if c.AccessTokenSecret == defaultAccessSecret || c.RefreshTokenSecret == defaultRefreshSecret {
			return fmt.Errorf("token secrets must be explicitly set via environment variables in %q mode", c.Environment)
		}
		if len(c.AccessTokenSecret) < minSecretLength || len(c.RefreshTokenSecret) < minSecretLength {
			return fmt.Errorf("token secrets must be at least %d characters long", minSecretLength)
		}
	}
	return nil
}

// SlowQueryThreshold returns the slow query logging threshold.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.SlowQueryMillis) * time.Millisecond
}
