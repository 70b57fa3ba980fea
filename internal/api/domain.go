package api

import (
	"fmt"

	"github.com/termstudio/taxon/internal/catalog"
	"github.com/termstudio/taxon/internal/chat"
	"github.com/termstudio/taxon/internal/classifier"
	"github.com/termstudio/taxon/internal/embedding"
	"github.com/termstudio/taxon/internal/index"
	"github.com/termstudio/taxon/internal/prompts"
	"github.com/termstudio/taxon/internal/synonyms"
)

// Domain holds all domain systems that comprise the API.
type Domain struct {
	Catalog    catalog.System
	Prompts    prompts.System
	Classifier classifier.System
	Builder    *index.Builder
}

// NewDomain creates all domain systems from the API runtime. The index
// builder doubles as the catalog refresher so term loads trigger a rebuild.
func NewDomain(runtime *Runtime) (*Domain, error) {
	cfg := runtime.Config

	catalogSystem := catalog.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	promptsSystem := prompts.New(
		runtime.Database.Connection(),
		runtime.Logger,
		runtime.Pagination,
	)

	provider, err := embedding.New(&cfg.Embedding, runtime.Logger)
	if err != nil {
		return nil, fmt.Errorf("embedding provider init failed: %w", err)
	}

	chatCaller := chat.New(cfg.Agent, &cfg.Chat, runtime.Logger)

	generator := synonyms.New(
		chatCaller,
		promptsSystem,
		runtime.Logger,
		cfg.Classifier.MaxSynonyms,
	)

	ix := index.NewIndex()
	builder := index.NewBuilder(
		ix,
		catalogSystem,
		generator,
		provider,
		runtime.Logger,
	)

	scorer := classifier.NewScorer()

	shortlister := classifier.NewEmbeddingStrategy(
		ix,
		provider,
		catalogSystem,
		scorer,
		cfg.Classifier.ShortlistSize,
		runtime.Logger,
	)

	strategies := map[classifier.Method]classifier.Strategy{
		classifier.MethodEmbedding: shortlister,
		classifier.MethodLLM: classifier.NewLLMStrategy(
			shortlister,
			chatCaller,
			promptsSystem,
			cfg.Classifier.ShortlistSize,
			runtime.Logger,
		),
		classifier.MethodAgent: classifier.NewAgentStrategy(
			shortlister,
			chatCaller,
			promptsSystem,
			cfg.Classifier.ShortlistSize,
			cfg.Classifier.MaxRefinements,
			runtime.Logger,
		),
	}

	classifierSystem := classifier.New(
		strategies,
		catalogSystem,
		scorer,
		classifier.Config{
			Threshold:        cfg.Classifier.Threshold,
			Timeout:          cfg.Classifier.TimeoutDuration(),
			BatchConcurrency: cfg.Classifier.BatchConcurrency,
		},
		runtime.Logger,
	)

	return &Domain{
		Catalog:    catalogSystem,
		Prompts:    promptsSystem,
		Classifier: classifierSystem,
		Builder:    builder,
	}, nil
}
