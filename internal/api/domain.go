package api

import (
	"context"
	"database/sql"
	"fmt"
	"sync/atomic"

	"github.com/JaimeStill/verne/internal/analysis"
	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/internal/criteria"
	"github.com/JaimeStill/verne/internal/sales"
	"github.com/JaimeStill/verne/pkg/lifecycle"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Criteria criteria.System
	Sales    sales.System
	Analysis analysis.System
}

// NewDomain creates all domain systems from the API runtime. When an
// external sales DSN is configured the sales loader reads from its own
// MySQL/MariaDB pool, closed on shutdown.
func NewDomain(cfg *config.Config, runtime *Runtime) (*Domain, error) {
	criteriaSystem := criteria.New(
		runtime.Database.Connection(),
		runtime.Logger,
	)

	salesDB, dialect, err := salesConnection(cfg, runtime)
	if err != nil {
		return nil, err
	}

	salesSystem := sales.New(
		salesDB,
		dialect,
		sales.Options{
			WindowMonths: cfg.Analysis.WindowMonths,
			MinMonths:    cfg.Analysis.MinMonths,
			QueryTimeout: cfg.Sales.QueryTimeoutDuration(),
		},
		runtime.Logger,
	)

	analysisSystem := analysis.New(
		runtime.Database.Connection(),
		criteriaSystem,
		salesSystem,
		runtime.Storage,
		analysis.Options{
			Engine:        cfg.Analysis.Options(),
			MaxMonths:     cfg.Analysis.MaxMonths,
			MaxUploadSize: runtime.MaxUploadSize,
			ResultTTL:     cfg.Analysis.ResultTTLDuration(),
		},
		runtime.Logger,
		runtime.Pagination,
	)

	return &Domain{
		Criteria: criteriaSystem,
		Sales:    salesSystem,
		Analysis: analysisSystem,
	}, nil
}

func salesConnection(cfg *config.Config, runtime *Runtime) (*sql.DB, sales.Dialect, error) {
	if !cfg.Sales.External() {
		return runtime.Database.Connection(), sales.Postgres, nil
	}

	db, err := sales.Open(
		cfg.Sales.DSN,
		cfg.Sales.MaxOpenConns,
		cfg.Sales.ConnMaxLifetimeDuration(),
	)
	if err != nil {
		return nil, sales.Dialect{}, fmt.Errorf("sales database: %w", err)
	}

	lc := runtime.Lifecycle
	logger := runtime.Logger.With("system", "sales")

	var ready atomic.Bool
	lc.Track("sales", lifecycle.ReadyFunc(ready.Load))

	lc.OnStartup(func() {
		ctx, cancel := context.WithTimeout(lc.Context(), cfg.Sales.QueryTimeoutDuration())
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			logger.Error("sales database unreachable", "error", err)
			return
		}
		ready.Store(true)
		logger.Info("sales database connection established")
	})

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := db.Close(); err != nil {
			logger.Error("sales database close failed", "error", err)
			return
		}
		logger.Info("sales database closed")
	})

	return db, sales.MySQL, nil
}
