// Package api assembles the API module with all domain systems and route registration.
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/termstudio/taxon/internal/config"
	"github.com/termstudio/taxon/internal/infrastructure"
	"github.com/termstudio/taxon/pkg/middleware"
	"github.com/termstudio/taxon/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)

	domain, err := NewDomain(runtime)
	if err != nil {
		return nil, err
	}

	if err := domain.Builder.Start(runtime.Lifecycle); err != nil {
		return nil, fmt.Errorf("index builder start failed: %w", err)
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg, runtime)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.Logger(runtime.Infrastructure.Logger))

	auth, err := middleware.Auth(context.Background(), &cfg.API.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth init failed: %w", err)
	}
	m.Use(auth)

	return m, nil
}
