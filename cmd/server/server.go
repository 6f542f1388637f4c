package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/internal/infrastructure"
)

// Server owns the infrastructure, the mounted modules, and the HTTP
// listener. Every subsystem stops through the lifecycle coordinator.
type Server struct {
	infra           *infrastructure.Infrastructure
	http            *http.Server
	shutdownTimeout time.Duration
}

// NewServer wires infrastructure and modules without opening connections
// or listening.
func NewServer(cfg *config.Config) (*Server, error) {
	infra, err := infrastructure.New(cfg)
	if err != nil {
		return nil, err
	}

	modules, err := NewModules(infra.Lifecycle.Context(), infra, cfg)
	if err != nil {
		return nil, err
	}

	router := buildRouter(infra)
	modules.Mount(router)

	infra.Logger.Info(
		"server initialized",
		"addr", cfg.Server.Addr(),
		"version", cfg.Version,
		"env", cfg.Env(),
		"modules", router.Prefixes(),
	)

	return &Server{
		infra: infra,
		http: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
			WriteTimeout: cfg.Server.WriteTimeoutDuration(),
		},
		shutdownTimeout: cfg.Server.ShutdownTimeoutDuration(),
	}, nil
}

// Start starts the infrastructure, then listens in the background.
func (s *Server) Start() error {
	logger := s.infra.Logger
	lc := s.infra.Lifecycle

	if err := s.infra.Start(); err != nil {
		return err
	}

	go func() {
		logger.Info("server listening", "addr", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
		}
	}()

	lc.OnShutdown(func() {
		<-lc.Context().Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		defer cancel()

		if err := s.http.Shutdown(ctx); err != nil {
			logger.Error("server shutdown error", "error", err)
			return
		}
		logger.Info("server shutdown complete")
	})

	go func() {
		lc.WaitForStartup()
		logger.Info("startup complete", "ready", lc.Report().Systems)
	}()

	return nil
}

// Shutdown stops every subsystem within timeout.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.infra.Logger.Info("initiating shutdown")
	return s.infra.Lifecycle.Shutdown(timeout)
}
