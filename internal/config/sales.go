package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvSalesDSN             = "VERNE_SALES_DSN"
	EnvSalesMaxOpenConns    = "VERNE_SALES_MAX_OPEN_CONNS"
	EnvSalesConnMaxLifetime = "VERNE_SALES_CONN_MAX_LIFETIME"
	EnvSalesQueryTimeout    = "VERNE_SALES_QUERY_TIMEOUT"
)

// SalesConfig points the sales loader at an external MySQL/MariaDB database.
// An empty DSN reads sales from the application database.
type SalesConfig struct {
	DSN             string `toml:"dsn"`
	MaxOpenConns    int    `toml:"max_open_conns"`
	ConnMaxLifetime string `toml:"conn_max_lifetime"`
	QueryTimeout    string `toml:"query_timeout"`
}

// External reports whether a separate sales database is configured.
func (c *SalesConfig) External() bool {
	return c.DSN != ""
}

// ConnMaxLifetimeDuration returns ConnMaxLifetime as a time.Duration.
func (c *SalesConfig) ConnMaxLifetimeDuration() time.Duration {
	d, _ := time.ParseDuration(c.ConnMaxLifetime)
	return d
}

// QueryTimeoutDuration returns QueryTimeout as a time.Duration.
func (c *SalesConfig) QueryTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.QueryTimeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *SalesConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *SalesConfig) Merge(overlay *SalesConfig) {
	if overlay.DSN != "" {
		c.DSN = overlay.DSN
	}
	if overlay.MaxOpenConns != 0 {
		c.MaxOpenConns = overlay.MaxOpenConns
	}
	if overlay.ConnMaxLifetime != "" {
		c.ConnMaxLifetime = overlay.ConnMaxLifetime
	}
	if overlay.QueryTimeout != "" {
		c.QueryTimeout = overlay.QueryTimeout
	}
}

func (c *SalesConfig) loadDefaults() {
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 5
	}
	if c.ConnMaxLifetime == "" {
		c.ConnMaxLifetime = "5m"
	}
	if c.QueryTimeout == "" {
		c.QueryTimeout = "30s"
	}
}

func (c *SalesConfig) loadEnv() {
	if v := os.Getenv(EnvSalesDSN); v != "" {
		c.DSN = v
	}
	if v := os.Getenv(EnvSalesMaxOpenConns); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxOpenConns = n
		}
	}
	if v := os.Getenv(EnvSalesConnMaxLifetime); v != "" {
		c.ConnMaxLifetime = v
	}
	if v := os.Getenv(EnvSalesQueryTimeout); v != "" {
		c.QueryTimeout = v
	}
}

func (c *SalesConfig) validate() error {
	if c.MaxOpenConns < 1 {
		return fmt.Errorf("max_open_conns must be positive: %d", c.MaxOpenConns)
	}
	if _, err := time.ParseDuration(c.ConnMaxLifetime); err != nil {
		return fmt.Errorf("invalid conn_max_lifetime: %w", err)
	}
	if _, err := time.ParseDuration(c.QueryTimeout); err != nil {
		return fmt.Errorf("invalid query_timeout: %w", err)
	}
	return nil
}
