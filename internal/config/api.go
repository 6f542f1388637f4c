package config

import (
	"fmt"
	"os"

	"github.com/JaimeStill/verne/pkg/formatting"
	"github.com/JaimeStill/verne/pkg/middleware"
	"github.com/JaimeStill/verne/pkg/openapi"
	"github.com/JaimeStill/verne/pkg/pagination"
)

const (
	EnvAPIBasePath      = "VERNE_API_BASE_PATH"
	EnvAPIMaxUploadSize = "VERNE_API_MAX_UPLOAD_SIZE"
)

var corsEnv = &middleware.CORSEnv{
	Enabled:          "VERNE_CORS_ENABLED",
	Origins:          "VERNE_CORS_ORIGINS",
	AllowedMethods:   "VERNE_CORS_ALLOWED_METHODS",
	AllowedHeaders:   "VERNE_CORS_ALLOWED_HEADERS",
	ExposedHeaders:   "VERNE_CORS_EXPOSED_HEADERS",
	AllowCredentials: "VERNE_CORS_ALLOW_CREDENTIALS",
	MaxAge:           "VERNE_CORS_MAX_AGE",
}

var authEnv = &middleware.AuthEnv{
	Enabled:     "VERNE_AUTH_ENABLED",
	Mode:        "VERNE_AUTH_MODE",
	Secret:      "VERNE_AUTH_SECRET",
	Issuer:      "VERNE_AUTH_ISSUER",
	Audience:    "VERNE_AUTH_AUDIENCE",
	PublicPaths: "VERNE_AUTH_PUBLIC_PATHS",
}

var rateLimitEnv = &middleware.RateLimitEnv{
	Enabled:           "VERNE_RATE_LIMIT_ENABLED",
	RequestsPerSecond: "VERNE_RATE_LIMIT_RPS",
	Burst:             "VERNE_RATE_LIMIT_BURST",
	ClientTTL:         "VERNE_RATE_LIMIT_CLIENT_TTL",
}

var paginationEnv = &pagination.ConfigEnv{
	DefaultPageSize: "VERNE_PAGINATION_DEFAULT_PAGE_SIZE",
	MaxPageSize:     "VERNE_PAGINATION_MAX_PAGE_SIZE",
}

var openAPIEnv = &openapi.ConfigEnv{
	Title:       "VERNE_OPENAPI_TITLE",
	Description: "VERNE_OPENAPI_DESCRIPTION",
}

// APIConfig holds API routing, upload limits, and the nested HTTP policy configs.
type APIConfig struct {
	BasePath      string                     `toml:"base_path"`
	MaxUploadSize string                     `toml:"max_upload_size"`
	CORS          middleware.CORSConfig      `toml:"cors"`
	Auth          middleware.AuthConfig      `toml:"auth"`
	RateLimit     middleware.RateLimitConfig `toml:"rate_limit"`
	Pagination    pagination.Config          `toml:"pagination"`
	OpenAPI       openapi.Config             `toml:"openapi"`
}

// MaxUploadSizeBytes returns MaxUploadSize in bytes.
func (c *APIConfig) MaxUploadSizeBytes() int64 {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return 10 * 1024 * 1024
	}
	return size
}

// Finalize applies defaults, environment variable overrides, and validation
// for the API config and every nested config.
func (c *APIConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.CORS.Finalize(corsEnv); err != nil {
		return fmt.Errorf("cors: %w", err)
	}
	if err := c.Auth.Finalize(authEnv); err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	if err := c.RateLimit.Finalize(rateLimitEnv); err != nil {
		return fmt.Errorf("rate_limit: %w", err)
	}
	if err := c.Pagination.Finalize(paginationEnv); err != nil {
		return fmt.Errorf("pagination: %w", err)
	}
	if err := c.OpenAPI.Finalize(openAPIEnv); err != nil {
		return fmt.Errorf("openapi: %w", err)
	}
	return nil
}

// Merge overwrites non-zero fields from overlay across nested configs.
func (c *APIConfig) Merge(overlay *APIConfig) {
	if overlay.BasePath != "" {
		c.BasePath = overlay.BasePath
	}
	if overlay.MaxUploadSize != "" {
		c.MaxUploadSize = overlay.MaxUploadSize
	}

	c.CORS.Merge(&overlay.CORS)
	c.Auth.Merge(&overlay.Auth)
	c.RateLimit.Merge(&overlay.RateLimit)
	c.Pagination.Merge(&overlay.Pagination)
	c.OpenAPI.Merge(&overlay.OpenAPI)
}

func (c *APIConfig) loadDefaults() {
	if c.BasePath == "" {
		c.BasePath = "/api"
	}
	if c.MaxUploadSize == "" {
		c.MaxUploadSize = "10MB"
	}
}

func (c *APIConfig) loadEnv() {
	if v := os.Getenv(EnvAPIBasePath); v != "" {
		c.BasePath = v
	}
	if v := os.Getenv(EnvAPIMaxUploadSize); v != "" {
		c.MaxUploadSize = v
	}
}

func (c *APIConfig) validate() error {
	size, err := formatting.ParseBytes(c.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("invalid max_upload_size: %w", err)
	}
	if size <= 0 {
		return fmt.Errorf("max_upload_size must be positive")
	}
	return nil
}
