package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvEmbeddingBaseURL     = "TAXON_EMBEDDING_BASE_URL"
	EnvEmbeddingModel       = "TAXON_EMBEDDING_MODEL"
	EnvEmbeddingToken       = "TAXON_EMBEDDING_TOKEN"
	EnvEmbeddingTimeout     = "TAXON_EMBEDDING_TIMEOUT"
	EnvEmbeddingMaxRetries  = "TAXON_EMBEDDING_MAX_RETRIES"
	EnvEmbeddingMaxInFlight = "TAXON_EMBEDDING_MAX_IN_FLIGHT"
)

// EmbeddingConfig holds embedding provider connection and resilience settings.
type EmbeddingConfig struct {
	BaseURL     string `toml:"base_url"`
	Model       string `toml:"model"`
	Token       string `toml:"token"`
	Timeout     string `toml:"timeout"`
	MaxRetries  int    `toml:"max_retries"`
	MaxInFlight int    `toml:"max_in_flight"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *EmbeddingConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *EmbeddingConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *EmbeddingConfig) Merge(overlay *EmbeddingConfig) {
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Token != "" {
		c.Token = overlay.Token
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.MaxInFlight != 0 {
		c.MaxInFlight = overlay.MaxInFlight
	}
}

func (c *EmbeddingConfig) loadDefaults() {
	if c.Model == "" {
		c.Model = "text-embedding-3-small"
	}
	if c.Timeout == "" {
		c.Timeout = "30s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = 8
	}
}

func (c *EmbeddingConfig) loadEnv() {
	if v := os.Getenv(EnvEmbeddingBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvEmbeddingModel); v != "" {
		c.Model = v
	}
	if v := os.Getenv(EnvEmbeddingToken); v != "" {
		c.Token = v
	}
	if v := os.Getenv(EnvEmbeddingTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvEmbeddingMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvEmbeddingMaxInFlight); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxInFlight = n
		}
	}
}

func (c *EmbeddingConfig) validate() error {
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid max_retries: %d", c.MaxRetries)
	}
	if c.MaxInFlight < 1 {
		return fmt.Errorf("invalid max_in_flight: %d", c.MaxInFlight)
	}
	return nil
}
