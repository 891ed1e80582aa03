package config

import "time"

// RateLimitConfig drives the Redis token bucket in front of /api/auth.
type RateLimitConfig struct {
	Enabled        bool          `env:"RATE_LIMIT_ENABLED, default=true"`
	Capacity       int           `env:"RATE_LIMIT_CAPACITY, default=20"`
	RefillTokens   int           `env:"RATE_LIMIT_REFILL_TOKENS, default=1"`
	RefillInterval time.Duration `env:"RATE_LIMIT_REFILL_INTERVAL, default=3s"`
	TTL            time.Duration `env:"RATE_LIMIT_TTL, default=10m"`
	KeyStrategy    string        `env:"RATE_LIMIT_KEY_STRATEGY, default=ip_route"`
	Prefix         string        `env:"RATE_LIMIT_PREFIX, default=rl"`
	Debug          bool          `env:"RATE_LIMIT_DEBUG, default=false"`
}

// normalize clamps values the Lua script cannot work with.
func (c *RateLimitConfig) normalize() {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	// keys must outlive a few refill intervals or buckets reset early
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
}
