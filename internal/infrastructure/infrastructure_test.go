package infrastructure_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/JaimeStill/verne/internal/config"
	"github.com/JaimeStill/verne/internal/infrastructure"
	"github.com/JaimeStill/verne/pkg/database"
	"github.com/JaimeStill/verne/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=devstoreaccount1;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/devstoreaccount1;"

func validConfig() *config.Config {
	return &config.Config{
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "verne",
			User:            "verne",
			Password:        "verne",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "imports",
			ConnectionString: azuriteConnString,
		},
		Version: "0.1.0",
	}
}

func TestNew(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer infra.Database.Connection().Close()

	if infra.Lifecycle == nil || infra.Logger == nil || infra.Database == nil || infra.Storage == nil {
		t.Errorf("incomplete infrastructure: %+v", infra)
	}
}

func TestStart(t *testing.T) {
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := infra.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(func() { infra.Lifecycle.Shutdown(10 * time.Second) })

	report := infra.Lifecycle.Report()
	for _, name := range []string{"database", "storage"} {
		if _, tracked := report.Systems[name]; !tracked {
			t.Errorf("%s not tracked", name)
		}
	}
	if report.Ready {
		t.Error("report should not be ready before startup completes")
	}
}

func TestNewInvalidStorageConfig(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.ConnectionString = "not-a-connection-string"

	if _, err := infrastructure.New(cfg); err == nil {
		t.Fatal("expected error for invalid storage connection string")
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json at warn", func(t *testing.T) {
		var buf bytes.Buffer
		logger := infrastructure.NewLogger(&config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

		logger.Info("hidden")
		logger.Warn("run rejected", "stage", "loading")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("lines = %d, want 1: %s", len(lines), buf.String())
		}

		var record map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if record["msg"] != "run rejected" || record["service"] != "verne" || record["stage"] != "loading" {
			t.Errorf("record = %v", record)
		}
	})

	t.Run("text at debug", func(t *testing.T) {
		var buf bytes.Buffer
		logger := infrastructure.NewLogger(&config.LoggingConfig{Level: "debug", Format: "text"}, &buf)

		logger.Debug("dataset built", "products", 4)

		if !strings.Contains(buf.String(), "level=DEBUG") || !strings.Contains(buf.String(), "products=4") {
			t.Errorf("output = %s", buf.String())
		}
	})
}
