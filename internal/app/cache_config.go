package app

import (
	"strings"

	"github.com/openmakers/badgegate/internal/cache"
)

// Supported cache backends.
const (
	CacheBackendMemory   = "memory"
	CacheBackendDatabase = "database"
	CacheBackendRedis    = "redis"
)

// BackendName returns the normalised backend selection.
func (c CacheConfig) BackendName() string {
	backend := strings.ToLower(strings.TrimSpace(c.Backend))
	if backend == "" {
		return CacheBackendDatabase
	}
	return backend
}

// UsesRedis reports whether the Redis backend is selected.
func (c CacheConfig) UsesRedis() bool {
	return c.BackendName() == CacheBackendRedis
}

// RedisClientConfig converts the application cache configuration into the cache package representation.
func (c CacheConfig) RedisClientConfig() cache.RedisConfig {
	return cache.RedisConfig{
		Address:  strings.TrimSpace(c.Redis.Address),
		Username: strings.TrimSpace(c.Redis.Username),
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		TLS:      c.Redis.TLS,
		Timeout:  c.Redis.Timeout,
	}
}
