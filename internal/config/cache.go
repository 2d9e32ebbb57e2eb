package config

import "time"

// CacheBackend selects the persistence technology behind the cache store.
type CacheBackend string

const (
	CacheBackendBolt  CacheBackend = "bolt"
	CacheBackendRedis CacheBackend = "redis"
)

type CacheConfig struct {
	Backend    CacheBackend
	Path       string        // bolt file path
	DefaultTTL time.Duration // applied when callers pass ttl <= 0
}

func loadCacheConfig() CacheConfig {
	return CacheConfig{
		Backend:    CacheBackend(getEnv("CACHE_BACKEND", string(CacheBackendBolt))),
		Path:       getEnv("CACHE_PATH", "/var/lib/git-analytics/cache.db"),
		DefaultTTL: getEnvDuration("CACHE_DEFAULT_TTL", time.Hour),
	}
}
