package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// Config represents the runtime configuration for the badgegate service.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Access     AccessConfig     `mapstructure:"access"`
	Fallback   FallbackConfig   `mapstructure:"fallback"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	Auth       AuthConfig       `mapstructure:"auth"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port            int             `mapstructure:"port"`
	LogLevel        string          `mapstructure:"log_level"`
	LogFormat       string          `mapstructure:"log_format"`
	ReadTimeout     time.Duration   `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration   `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration   `mapstructure:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit"`
}

// RateLimitConfig throttles terminal endpoints per client address.
type RateLimitConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver             string        `mapstructure:"driver"`
	Path               string        `mapstructure:"path"`
	DSN                string        `mapstructure:"dsn"`
	SlowQueryThreshold time.Duration `mapstructure:"slow_query_threshold"`
	MaxOpenConns       int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime    time.Duration `mapstructure:"conn_max_lifetime"`
	Postgres           DBAuthConfig  `mapstructure:"postgres"`
	MySQL              DBAuthConfig  `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// CacheConfig selects the key/value backend behind the fallback cache and rate limiter.
type CacheConfig struct {
	Backend       string           `mapstructure:"backend"`
	PurgeSchedule string           `mapstructure:"purge_schedule"`
	Redis         RedisCacheConfig `mapstructure:"redis"`
}

// RedisCacheConfig holds Redis connection options.
type RedisCacheConfig struct {
	Address  string        `mapstructure:"address"`
	Username string        `mapstructure:"username"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TLS      bool          `mapstructure:"tls"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// AccessConfig toggles the checks of the decision pipeline.
type AccessConfig struct {
	CheckUserExists        bool          `mapstructure:"check_user_exists"`
	CheckUserStatus        bool          `mapstructure:"check_user_status"`
	CheckPausePayment      bool          `mapstructure:"check_pause_payment"`
	CheckUserHasPermission bool          `mapstructure:"check_user_has_permission"`
	CheckBadgeStatus       bool          `mapstructure:"check_badge_status"`
	AllowedRoles           []string      `mapstructure:"allowed_roles"`
	CatalogMemoTTL         time.Duration `mapstructure:"catalog_memo_ttl"`
}

// FallbackConfig controls the offline export.
type FallbackConfig struct {
	Secret           string `mapstructure:"secret"`
	CacheEnabled     bool   `mapstructure:"cache_enabled"`
	CacheMaxAge      int    `mapstructure:"cache_max_age"`
	IncludeUserNames bool   `mapstructure:"include_user_names"`
	IncludeUserEmail bool   `mapstructure:"include_user_email"`
	LimitPermissions string `mapstructure:"limit_permissions"`
	WarmSchedule     string `mapstructure:"warm_schedule"`
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus           PrometheusConfig `mapstructure:"prometheus"`
	Health               HealthConfig     `mapstructure:"health_check"`
	MaintenanceMaxAge    time.Duration    `mapstructure:"maintenance_max_age"`
	MaintenanceJobBudget time.Duration    `mapstructure:"maintenance_job_budget"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	ProbeTimeout time.Duration `mapstructure:"probe_timeout"`
}

// AuthConfig captures the admin API token settings.
type AuthConfig struct {
	JWT JWTSettings `mapstructure:"jwt"`
}

// JWTSettings configures admin bearer tokens.
type JWTSettings struct {
	Secret   string        `mapstructure:"secret"`
	Issuer   string        `mapstructure:"issuer"`
	Audience string        `mapstructure:"audience"`
	TTL      time.Duration `mapstructure:"token_ttl"`
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	v.AddConfigPath(".")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("BADGEGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configuration values the service cannot start with.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Cache.Backend)) {
	case CacheBackendMemory, CacheBackendDatabase, CacheBackendRedis:
	default:
		return fmt.Errorf("config: unsupported cache backend %q", c.Cache.Backend)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: invalid server port %d", c.Server.Port)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.log_format", "json")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("server.rate_limit.enabled", true)
	v.SetDefault("server.rate_limit.requests", 120)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/badgegate.sqlite")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.slow_query_threshold", "200ms")
	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.conn_max_lifetime", "30m")
	for _, driver := range []string{"postgres", "mysql"} {
		v.SetDefault("database."+driver+".host", "")
		v.SetDefault("database."+driver+".port", 0)
		v.SetDefault("database."+driver+".database", "")
		v.SetDefault("database."+driver+".username", "")
		v.SetDefault("database."+driver+".password", "")
	}

	v.SetDefault("cache.backend", CacheBackendDatabase)
	v.SetDefault("cache.purge_schedule", "@every 1h")
	v.SetDefault("cache.redis.address", "127.0.0.1:6379")
	v.SetDefault("cache.redis.username", "")
	v.SetDefault("cache.redis.password", "")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.tls", false)
	v.SetDefault("cache.redis.timeout", "5s")

	v.SetDefault("access.check_user_exists", true)
	v.SetDefault("access.check_user_status", true)
	v.SetDefault("access.check_pause_payment", true)
	v.SetDefault("access.check_user_has_permission", true)
	v.SetDefault("access.check_badge_status", true)
	v.SetDefault("access.allowed_roles", []string{"member", "services", "instructor"})
	v.SetDefault("access.catalog_memo_ttl", "1m")

	v.SetDefault("fallback.secret", "")
	v.SetDefault("fallback.cache_enabled", true)
	v.SetDefault("fallback.cache_max_age", 900)
	v.SetDefault("fallback.include_user_names", false)
	v.SetDefault("fallback.include_user_email", false)
	v.SetDefault("fallback.limit_permissions", "")
	v.SetDefault("fallback.warm_schedule", "@every 10m")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)
	v.SetDefault("monitoring.health_check.probe_timeout", "5s")
	v.SetDefault("monitoring.maintenance_max_age", "2h")
	v.SetDefault("monitoring.maintenance_job_budget", "2m")

	v.SetDefault("auth.jwt.secret", "")
	v.SetDefault("auth.jwt.issuer", "badgegate")
	v.SetDefault("auth.jwt.audience", "badgegate-admin")
	v.SetDefault("auth.jwt.token_ttl", "15m")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
