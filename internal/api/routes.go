package api

import (
	"fmt"
	"net/http"

	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/pkg/openapi"
	"github.com/JaimeStill/verne/pkg/routes"
)

// SpecPath serves the generated OpenAPI document within the API module.
const SpecPath = "/openapi.json"

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) error {
	groups := []routes.Group{
		domain.Criteria.Handler().Routes(),
		domain.Analysis.Handler().Routes(),
		newStorageHandler(
			runtime.Storage,
			runtime.Logger,
			cfg.Storage.MaxListSize,
		).routes(),
	}

	routes.Register(mux, groups...)

	serveSpec, err := openapi.Handler(BuildSpec(cfg, groups...))
	if err != nil {
		return fmt.Errorf("openapi spec: %w", err)
	}
	mux.HandleFunc("GET "+SpecPath, serveSpec)

	return nil
}

// BuildSpec documents groups as mounted under the configured base path.
func BuildSpec(cfg *config.Config, groups ...routes.Group) *openapi.Spec {
	spec := openapi.NewSpec(cfg.API.OpenAPI, cfg.Version, cfg.API.BasePath)
	routes.Document(spec, "", groups...)
	return spec
}
