package api_test

import (
	"testing"

	gaconfig "github.com/JaimeStill/go-agents/pkg/config"

	"github.com/termstudio/taxon/internal/api"
	"github.com/termstudio/taxon/internal/config"
	"github.com/termstudio/taxon/internal/infrastructure"
	"github.com/termstudio/taxon/pkg/database"
	"github.com/termstudio/taxon/pkg/middleware"
	"github.com/termstudio/taxon/pkg/pagination"
	"github.com/termstudio/taxon/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=taxonstore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/taxonstore;"

func validConfig() *config.Config {
	return &config.Config{
		Agent: gaconfig.AgentConfig{
			Name: "test-agent",
			Provider: &gaconfig.ProviderConfig{
				Name:    "ollama",
				BaseURL: "http://localhost:11434",
				Options: make(map[string]any),
			},
			Model: &gaconfig.ModelConfig{
				Name: "llama3.1:8b",
			},
		},
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "5m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "taxon",
			User:            "taxon",
			Password:        "taxon",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "catalogs",
			ConnectionString: azuriteConnString,
		},
		Embedding: config.EmbeddingConfig{
			BaseURL:     "http://localhost:11434/v1",
			Model:       "nomic-embed-text",
			Timeout:     "30s",
			MaxRetries:  3,
			MaxInFlight: 8,
		},
		Chat: config.ChatConfig{
			Timeout:     "1m",
			MaxRetries:  3,
			MaxInFlight: 4,
		},
		Classifier: config.ClassifierConfig{
			Threshold:        0.7,
			ShortlistSize:    8,
			MaxRefinements:   3,
			Timeout:          "2m",
			BatchConcurrency: 5,
			MaxSynonyms:      10,
		},
		API: config.APIConfig{
			BasePath:      "/api",
			MaxUploadSize: "10MB",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Auth: middleware.AuthConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max page size: got %d, want 100", runtime.Pagination.MaxPageSize)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Storage == nil {
		t.Error("runtime storage is nil")
	}
	if runtime.Lifecycle == nil {
		t.Error("runtime lifecycle is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)
	runtime := api.NewRuntime(cfg, infra)

	domain, err := api.NewDomain(runtime)
	if err != nil {
		t.Fatalf("NewDomain() error = %v", err)
	}

	if domain.Catalog == nil {
		t.Error("domain catalog is nil")
	}
	if domain.Prompts == nil {
		t.Error("domain prompts is nil")
	}
	if domain.Classifier == nil {
		t.Error("domain classifier is nil")
	}
	if domain.Builder == nil {
		t.Error("domain builder is nil")
	}
}
