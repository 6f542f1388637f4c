package middleware

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// RateLimitConfig holds per-client request rate settings.
type RateLimitConfig struct {
	Enabled           bool    `toml:"enabled"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	ClientTTL         string  `toml:"client_ttl"`
}

// RateLimitEnv maps rate limit config fields to environment variable names.
type RateLimitEnv struct {
	Enabled           string
	RequestsPerSecond string
	Burst             string
	ClientTTL         string
}

// ClientTTLDuration returns ClientTTL as a time.Duration.
func (c *RateLimitConfig) ClientTTLDuration() time.Duration {
	d, _ := time.ParseDuration(c.ClientTTL)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *RateLimitConfig) Finalize(env *RateLimitEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites fields from overlay. Enabled always applies.
func (c *RateLimitConfig) Merge(overlay *RateLimitConfig) {
	c.Enabled = overlay.Enabled

	if overlay.RequestsPerSecond > 0 {
		c.RequestsPerSecond = overlay.RequestsPerSecond
	}
	if overlay.Burst > 0 {
		c.Burst = overlay.Burst
	}
	if overlay.ClientTTL != "" {
		c.ClientTTL = overlay.ClientTTL
	}
}

func (c *RateLimitConfig) loadDefaults() {
	if c.RequestsPerSecond <= 0 {
		c.RequestsPerSecond = 10
	}
	if c.Burst <= 0 {
		c.Burst = 30
	}
	if c.ClientTTL == "" {
		c.ClientTTL = "10m"
	}
}

func (c *RateLimitConfig) loadEnv(env *RateLimitEnv) {
	if v, ok := envBool(env.Enabled); ok {
		c.Enabled = v
	}
	if v, ok := envFloat(env.RequestsPerSecond); ok {
		c.RequestsPerSecond = v
	}
	if v, ok := envInt(env.Burst); ok {
		c.Burst = v
	}
	if v, ok := envString(env.ClientTTL); ok {
		c.ClientTTL = v
	}
}

func (c *RateLimitConfig) validate() error {
	if c.RequestsPerSecond <= 0 {
		return fmt.Errorf("requests_per_second must be positive")
	}
	if c.Burst <= 0 {
		return fmt.Errorf("burst must be positive")
	}
	if _, err := time.ParseDuration(c.ClientTTL); err != nil {
		return fmt.Errorf("invalid client_ttl: %w", err)
	}
	return nil
}

// RateLimit returns middleware that applies a token bucket per client address.
// Idle client buckets expire after ClientTTL.
func RateLimit(cfg *RateLimitConfig, logger *slog.Logger) Middleware {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}

	ttl := cfg.ClientTTLDuration()
	clients := cache.New(ttl, 2*ttl)
	logger = logger.With("middleware", "ratelimit")

	limiter := func(key string) *rate.Limiter {
		if v, ok := clients.Get(key); ok {
			return v.(*rate.Limiter)
		}
		l := rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
		if err := clients.Add(key, l, cache.DefaultExpiration); err != nil {
			if v, ok := clients.Get(key); ok {
				return v.(*rate.Limiter)
			}
		}
		return l
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientAddr(r)
			if !limiter(key).Allow() {
				logger.Warn("rate limit exceeded", "client", key, "path", r.URL.Path)
				w.Header().Set("Retry-After", "1")
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
