// Package embedding provides text embedding generation for Taxon.
// It wraps a langchaingo OpenAI-compatible embedder with per-call timeouts,
// bounded retries, and an in-flight request cap so catalog rebuilds cannot
// overwhelm the provider.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/sync/semaphore"

	"github.com/termstudio/taxon/internal/config"
)

// Provider generates embedding vectors for classification inputs and
// catalog index entries.
type Provider interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

type provider struct {
	embedder   *embeddings.EmbedderImpl
	sem        *semaphore.Weighted
	timeout    time.Duration
	maxRetries int
	logger     *slog.Logger
}

// New creates a Provider backed by an OpenAI-compatible embedding endpoint.
func New(cfg *config.EmbeddingConfig, logger *slog.Logger) (Provider, error) {
	token := cfg.Token
	if token == "" {
		// langchaingo requires a token even for unauthenticated endpoints
		token = "none"
	}

	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithEmbeddingModel(cfg.Model),
		openai.WithToken(token),
	)
	if err != nil {
		return nil, fmt.Errorf("embedding client: %w", err)
	}

	embedder, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}

	return &provider{
		embedder:   embedder,
		sem:        semaphore.NewWeighted(int64(cfg.MaxInFlight)),
		timeout:    cfg.TimeoutDuration(),
		maxRetries: cfg.MaxRetries,
		logger:     logger.With("system", "embedding"),
	}, nil
}

func (p *provider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}

	var vec []float32
	err := p.call(ctx, func(callCtx context.Context) error {
		var err error
		vec, err = p.embedder.EmbedQuery(callCtx, text)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vec, nil
}

func (p *provider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}

	var vecs [][]float32
	err := p.call(ctx, func(callCtx context.Context) error {
		var err error
		vecs, err = p.embedder.EmbedDocuments(callCtx, texts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return vecs, nil
}

// call acquires an in-flight slot and runs fn with retries. Each attempt
// gets its own timeout; backoff doubles between attempts. Caller
// cancellation is returned as-is, never wrapped as a provider failure.
func (p *provider) call(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer p.sem.Release(1)

	backoff := 500 * time.Millisecond
	attempts := p.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, p.timeout)
		err := fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		if attempt < attempts {
			p.logger.Warn("embedding call failed, retrying",
				"attempt", attempt,
				"backoff", backoff,
				"error", err,
			)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff *= 2
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return fmt.Errorf("%w: timed out after %d attempts", ErrProviderUnavailable, attempts)
	}
	return fmt.Errorf("%w: %v", ErrProviderUnavailable, lastErr)
}
