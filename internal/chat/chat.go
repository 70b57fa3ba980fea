// Package chat wraps chat inference calls with per-call timeouts, bounded
// retries with backoff, and an in-flight cap shared across every caller,
// mirroring the posture the embedding provider applies to its calls.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/go-agents/pkg/agent"
	gaconfig "github.com/JaimeStill/go-agents/pkg/config"
	"golang.org/x/sync/semaphore"

	"github.com/termstudio/taxon/internal/config"
)

// ErrProviderUnavailable wraps chat failures that survived every retry.
var ErrProviderUnavailable = errors.New("chat provider unavailable")

// Client performs a single chat inference attempt.
type Client interface {
	Chat(ctx context.Context, prompt string) (string, error)
}

type agentClient struct {
	cfg gaconfig.AgentConfig
}

func (c *agentClient) Chat(ctx context.Context, prompt string) (string, error) {
	a, err := agent.New(&c.cfg)
	if err != nil {
		return "", fmt.Errorf("create agent: %w", err)
	}

	resp, err := a.Chat(ctx, prompt)
	if err != nil {
		return "", err
	}
	return resp.Content(), nil
}

// Caller runs chat inferences through a shared in-flight cap and a bounded
// retry loop.
type Caller struct {
	client     Client
	sem        *semaphore.Weighted
	timeout    time.Duration
	maxRetries int
	logger     *slog.Logger
}

// New creates a Caller backed by a go-agents agent.
func New(agentCfg gaconfig.AgentConfig, cfg *config.ChatConfig, logger *slog.Logger) *Caller {
	return NewWithClient(&agentClient{cfg: agentCfg}, cfg, logger)
}

// NewWithClient creates a Caller over an arbitrary chat client.
func NewWithClient(client Client, cfg *config.ChatConfig, logger *slog.Logger) *Caller {
	inFlight := cfg.MaxInFlight
	if inFlight < 1 {
		inFlight = 1
	}

	return &Caller{
		client:     client,
		sem:        semaphore.NewWeighted(int64(inFlight)),
		timeout:    cfg.TimeoutDuration(),
		maxRetries: cfg.MaxRetries,
		logger:     logger.With("system", "chat"),
	}
}

// Chat acquires an in-flight slot and runs the inference with retries.
// Each attempt gets its own timeout; backoff doubles between attempts.
// Caller cancellation is returned as-is, never wrapped as a provider
// failure.
func (c *Caller) Chat(ctx context.Context, prompt string) (string, error) {
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer c.sem.Release(1)

	backoff := 500 * time.Millisecond
	attempts := c.maxRetries
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		content, err := c.client.Chat(callCtx, prompt)
		cancel()

		if err == nil {
			return content, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		lastErr = err
		if attempt < attempts {
			c.logger.Warn("chat call failed, retrying",
				"attempt", attempt,
				"backoff", backoff,
				"error", err,
			)

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
			backoff *= 2
		}
	}

	if errors.Is(lastErr, context.DeadlineExceeded) {
		return "", fmt.Errorf("%w: timed out after %d attempts", ErrProviderUnavailable, attempts)
	}
	return "", fmt.Errorf("%w: %v", ErrProviderUnavailable, lastErr)
}
