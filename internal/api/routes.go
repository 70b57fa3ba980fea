package api

import (
	"net/http"

	"github.com/termstudio/taxon/internal/config"
	"github.com/termstudio/taxon/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
	runtime *Runtime,
) {
	storage := newStorageHandler(runtime.Storage, runtime.Logger)

	routes.Register(
		mux,
		domain.Catalog.Handler(cfg.API.MaxUploadSizeBytes(), domain.Builder).Routes(),
		domain.Prompts.Handler().Routes(),
		domain.Classifier.Handler().Routes(),
		storage.routes(),
	)
}
