// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/internal/infrastructure"
	"github.com/JaimeStill/verne/pkg/middleware"
	"github.com/JaimeStill/verne/pkg/module"
)

// publicPaths never require a bearer token.
var publicPaths = []string{
	"/abcxyz/template",
	SpecPath,
}

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(ctx context.Context, cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(cfg, runtime)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	if err := registerRoutes(mux, domain, cfg, runtime); err != nil {
		return nil, err
	}

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Logger))
	m.Use(middleware.RateLimit(&cfg.API.RateLimit, runtime.Logger))

	if cfg.API.Auth.Enabled {
		auth := cfg.API.Auth
		auth.PublicPaths = slices.Clone(auth.PublicPaths)
		for _, p := range publicPaths {
			if !slices.Contains(auth.PublicPaths, p) {
				auth.PublicPaths = append(auth.PublicPaths, p)
			}
		}

		verifier, err := middleware.NewVerifier(ctx, &auth)
		if err != nil {
			return nil, fmt.Errorf("auth verifier: %w", err)
		}
		m.Use(middleware.Auth(&auth, verifier, runtime.Logger))

		runtime.Logger.Info("bearer authentication enabled", "mode", auth.Mode)
	}

	return m, nil
}
