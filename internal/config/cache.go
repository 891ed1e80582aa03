package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware used on
// the public catalog. When Enabled is false or no Redis client is
// configured, caching is disabled. KeyStrategy determines which parts of
// the request contribute to the cache key.
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED, default=true"`
	Methods      []string      `env:"CACHE_METHODS, default=GET"`
	TTL          time.Duration `env:"CACHE_TTL, default=30s"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY, default=route_query"`
	Prefix       string        `env:"CACHE_PREFIX, default=cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES, default=1048576"`
}

// Allows reports whether responses to the HTTP method may be cached.
func (c CacheConfig) Allows(method string) bool {
	for _, m := range c.Methods {
		if strings.EqualFold(strings.TrimSpace(m), method) {
			return true
		}
	}
	return false
}
