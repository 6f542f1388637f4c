// Package infrastructure wires the process-wide systems every API module
// depends on: the lifecycle coordinator, the root logger, the application
// database and import archive storage.
package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/pkg/database"
	"github.com/JaimeStill/verne/pkg/lifecycle"
	"github.com/JaimeStill/verne/pkg/storage"
)

// Infrastructure is built once per process and shared by value-copy with
// module runtimes.
type Infrastructure struct {
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Database  database.System
	Storage   storage.System
}

// New constructs the systems without contacting the database or blob
// service. Call Start to register their lifecycle hooks.
func New(cfg *config.Config) (*Infrastructure, error) {
	logger := NewLogger(&cfg.Logging, os.Stderr).With("version", cfg.Version)

	db, err := database.New(&cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}

	store, err := storage.New(&cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	return &Infrastructure{
		Lifecycle: lifecycle.New(),
		Logger:    logger,
		Database:  db,
		Storage:   store,
	}, nil
}

// NewLogger builds a slog logger writing cfg.Format records (text or json)
// to w at cfg's level, tagged with the service name.
func NewLogger(cfg *config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}

	var h slog.Handler = slog.NewTextHandler(w, opts)
	if cfg.Format == "json" {
		h = slog.NewJSONHandler(w, opts)
	}

	return slog.New(h).With("service", "verne")
}

// Start registers database and storage with the lifecycle coordinator.
func (i *Infrastructure) Start() error {
	systems := []struct {
		name  string
		start func(*lifecycle.Coordinator) error
	}{
		{"database", i.Database.Start},
		{"storage", i.Storage.Start},
	}

	for _, s := range systems {
		if err := s.start(i.Lifecycle); err != nil {
			return fmt.Errorf("%s start: %w", s.name, err)
		}
	}
	return nil
}
