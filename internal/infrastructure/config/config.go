package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces every environment override, e.g. FULFILLMENT_DATABASE_HOST
const EnvPrefix = "FULFILLMENT"

type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Redis       RedisConfig       `mapstructure:"redis"`
	JWT         JWTConfig         `mapstructure:"jwt"`
	Log         LogConfig         `mapstructure:"log"`
	HTTP        HTTPConfig        `mapstructure:"http"`
	Event       EventConfig       `mapstructure:"event"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
	StockCache  StockCacheConfig  `mapstructure:"stock_cache"`
	Telemetry   TelemetryConfig   `mapstructure:"telemetry"`
}

type AppConfig struct {
	Name string `mapstructure:"name"`
	Env  string `mapstructure:"env"`
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int           `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int           `mapstructure:"conn_max_idle_time"` // minutes
	SlowQuery       time.Duration `mapstructure:"slow_query"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// JWTConfig signs and checks operator access tokens
type JWTConfig struct {
	Secret                string        `mapstructure:"secret"`
	Issuer                string        `mapstructure:"issuer"`
	AccessTokenExpiration time.Duration `mapstructure:"access_token_expiration"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, console
	Output string `mapstructure:"output"` // stdout, stderr, or a file path
}

type HTTPConfig struct {
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	MaxHeaderBytes  int           `mapstructure:"max_header_bytes"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	TrustedProxies  []string      `mapstructure:"trusted_proxies"`
}

// EventConfig drives the outbox processor
type EventConfig struct {
	ProcessorEnabled bool          `mapstructure:"processor_enabled"`
	BatchSize        int           `mapstructure:"batch_size"`
	PollInterval     time.Duration `mapstructure:"poll_interval"`
	MaxRetries       int           `mapstructure:"max_retries"`
	CleanupEnabled   bool          `mapstructure:"cleanup_enabled"`
	CleanupRetention time.Duration `mapstructure:"cleanup_retention"`
	CleanupInterval  time.Duration `mapstructure:"cleanup_interval"`
	// StaleAfter hands PROCESSING entries untouched this long back to the
	// retry pass; zero turns the reclaim off
	StaleAfter time.Duration `mapstructure:"stale_after"`
}

// IdempotencyConfig covers both the Idempotency-Key header and duplicate
// suppression in outbox handlers
type IdempotencyConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	TTL              time.Duration `mapstructure:"ttl"`
	RequireRedis     bool          `mapstructure:"require_redis"`
	HandlerKeyWindow time.Duration `mapstructure:"handler_key_window"`
}

type StockCacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type TelemetryConfig struct {
	Enabled           bool          `mapstructure:"enabled"`
	CollectorEndpoint string        `mapstructure:"collector_endpoint"`
	SamplingRatio     float64       `mapstructure:"sampling_ratio"`
	ServiceName       string        `mapstructure:"service_name"`
	Insecure          bool          `mapstructure:"insecure"`
	MetricsInterval   time.Duration `mapstructure:"metrics_interval"`
	LogExportEnabled  bool          `mapstructure:"log_export_enabled"`
	DBTraceEnabled    bool          `mapstructure:"db_trace_enabled"`
	DBLogFullSQL      bool          `mapstructure:"db_log_full_sql"`
	ProfilingEnabled  bool          `mapstructure:"profiling_enabled"`
	ProfilingServer   string        `mapstructure:"profiling_server"`
}

// defaults lists every key Load understands. A key missing here cannot be
// overridden from the environment.
var defaults = map[string]any{
	"app.name": "fulfillment",
	"app.env":  "development",
	"app.port": "8080",

	"database.host":               "localhost",
	"database.port":               5432,
	"database.user":               "postgres",
	"database.password":           "",
	"database.dbname":             "fulfillment",
	"database.sslmode":            "disable",
	"database.max_open_conns":     25,
	"database.max_idle_conns":     5,
	"database.conn_max_lifetime":  60,
	"database.conn_max_idle_time": 30,
	"database.slow_query":         200 * time.Millisecond,

	"redis.host":     "localhost",
	"redis.port":     6379,
	"redis.password": "",
	"redis.db":       0,

	"jwt.secret":                  "",
	"jwt.issuer":                  "fulfillment",
	"jwt.access_token_expiration": 15 * time.Minute,

	"log.level":  "info",
	"log.format": "console",
	"log.output": "stdout",

	"http.read_timeout":     15 * time.Second,
	"http.write_timeout":    15 * time.Second,
	"http.idle_timeout":     time.Minute,
	"http.shutdown_timeout": 30 * time.Second,
	"http.max_header_bytes": 1 << 20,
	"http.max_body_size":    int64(1 << 20),
	"http.trusted_proxies":  []string{},

	"event.processor_enabled": true,
	"event.batch_size":        100,
	"event.poll_interval":     time.Second,
	"event.max_retries":       5,
	"event.cleanup_enabled":   false,
	"event.cleanup_retention": 7 * 24 * time.Hour,
	"event.cleanup_interval":  time.Hour,
	"event.stale_after":       5 * time.Minute,

	"idempotency.enabled":            true,
	"idempotency.ttl":                24 * time.Hour,
	"idempotency.require_redis":      false,
	"idempotency.handler_key_window": 72 * time.Hour,

	"stock_cache.enabled": true,
	"stock_cache.ttl":     30 * time.Second,

	"telemetry.enabled":            false,
	"telemetry.collector_endpoint": "localhost:4317",
	"telemetry.sampling_ratio":     1.0,
	"telemetry.service_name":       "",
	"telemetry.insecure":           false,
	"telemetry.metrics_interval":   15 * time.Second,
	"telemetry.log_export_enabled": false,
	"telemetry.db_trace_enabled":   false,
	"telemetry.db_log_full_sql":    false,
	"telemetry.profiling_enabled":  false,
	"telemetry.profiling_server":   "http://localhost:4040",
}

// Load layers FULFILLMENT_* environment variables over an optional
// config.toml (working directory or /app) over the built-in defaults.
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	db := c.Database
	switch {
	case db.MaxOpenConns <= 0:
		return errors.New("database.max_open_conns must be positive")
	case db.MaxIdleConns < 0:
		return errors.New("database.max_idle_conns cannot be negative")
	case db.MaxIdleConns > db.MaxOpenConns:
		return fmt.Errorf("database.max_idle_conns (%d) exceeds database.max_open_conns (%d)", db.MaxIdleConns, db.MaxOpenConns)
	case c.Event.BatchSize <= 0:
		return errors.New("event.batch_size must be positive")
	case c.Event.PollInterval <= 0:
		return fmt.Errorf("event.poll_interval must be positive, got %s", c.Event.PollInterval)
	case c.Event.StaleAfter < 0:
		return fmt.Errorf("event.stale_after cannot be negative, got %s", c.Event.StaleAfter)
	case c.Event.CleanupEnabled && c.Event.CleanupInterval <= 0:
		return fmt.Errorf("event.cleanup_interval must be positive when cleanup is enabled, got %s", c.Event.CleanupInterval)
	case c.Event.CleanupEnabled && c.Event.CleanupRetention <= 0:
		return fmt.Errorf("event.cleanup_retention must be positive when cleanup is enabled, got %s", c.Event.CleanupRetention)
	case c.Telemetry.SamplingRatio < 0 || c.Telemetry.SamplingRatio > 1:
		return fmt.Errorf("telemetry.sampling_ratio must be within [0, 1], got %g", c.Telemetry.SamplingRatio)
	}
	if c.App.Env == "production" {
		return c.validateProduction()
	}
	return nil
}

func (c *Config) validateProduction() error {
	switch {
	case c.JWT.Secret == "":
		return errors.New("jwt.secret is required in production")
	case len(c.JWT.Secret) < 32:
		return errors.New("jwt.secret must be at least 32 characters in production")
	case c.Database.Password == "":
		return errors.New("database.password is required in production")
	case c.Database.SSLMode == "disable":
		return errors.New("database.sslmode cannot be disable in production")
	case c.Telemetry.DBLogFullSQL:
		return errors.New("telemetry.db_log_full_sql must be off in production")
	}
	return nil
}

// DSN renders a postgres:// URL with user info and database name escaped
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}
