package api

import (
	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/internal/infrastructure"
	"github.com/JaimeStill/verne/pkg/pagination"
)

// Runtime is the slice of infrastructure and API settings the domain
// systems are built from. Its logger is tagged with the api module.
type Runtime struct {
	*infrastructure.Infrastructure
	Pagination    pagination.Config
	MaxUploadSize int64
}

// NewRuntime scopes infra to the API module without altering the shared
// instance.
func NewRuntime(cfg *config.Config, infra *infrastructure.Infrastructure) *Runtime {
	scoped := *infra
	scoped.Logger = infra.Logger.With("module", "api")

	return &Runtime{
		Infrastructure: &scoped,
		Pagination:     cfg.API.Pagination,
		MaxUploadSize:  cfg.API.MaxUploadSizeBytes(),
	}
}
