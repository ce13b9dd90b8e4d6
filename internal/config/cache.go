package config

import "time"

// CacheConfig controls the Redis response cache in front of single
// donation-request reads.  The middleware only ever caches GET, so the
// knobs left here are the entry lifetime, the key namespace and the
// largest body worth storing.
type CacheConfig struct {
	Enabled      bool
	TTL          time.Duration
	Prefix       string
	MaxBodyBytes int64
}

// LoadCacheConfig reads the CACHE_* environment variables, falling back
// to defaults suitable for the donation API.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		TTL:          envDur("CACHE_TTL", 30*time.Second),
		Prefix:       envStr("CACHE_PREFIX", "donation:cache"),
		MaxBodyBytes: int64(envInt("CACHE_MAX_BODY_BYTES", 1<<20)),
	}
}
