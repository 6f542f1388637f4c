package main

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/JaimeStill/verne/internal/api"
	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/internal/infrastructure"
	"github.com/JaimeStill/verne/pkg/middleware"
	"github.com/JaimeStill/verne/pkg/module"
	"github.com/JaimeStill/verne/web/scalar"
)

// Modules are the prefix-mounted handlers served by the router.
type Modules struct {
	API    *module.Module
	Scalar *module.Module
}

// NewModules builds the API module and the API reference UI that reads its
// OpenAPI document.
func NewModules(ctx context.Context, infra *infrastructure.Infrastructure, cfg *config.Config) (*Modules, error) {
	apiModule, err := api.NewModule(ctx, cfg, infra)
	if err != nil {
		return nil, err
	}

	scalarModule, err := scalar.NewModule(
		"/scalar",
		cfg.API.OpenAPI.Title,
		cfg.API.BasePath+api.SpecPath,
	)
	if err != nil {
		return nil, err
	}
	scalarModule.Use(middleware.Logger(infra.Logger))

	return &Modules{
		API:    apiModule,
		Scalar: scalarModule,
	}, nil
}

// Mount registers every module with router.
func (m *Modules) Mount(router *module.Router) {
	router.Mount(m.API)
	router.Mount(m.Scalar)
}

// buildRouter creates the router with the liveness and readiness probes.
// Readiness lists each tracked subsystem.
func buildRouter(infra *infrastructure.Infrastructure) *module.Router {
	router := module.NewRouter()

	router.HandleNative("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	router.HandleNative("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		report := infra.Lifecycle.Report()

		w.Header().Set("Content-Type", "application/json")
		if !report.Ready {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}
		json.NewEncoder(w).Encode(report)
	})

	return router
}
