package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvChatTimeout     = "TAXON_CHAT_TIMEOUT"
	EnvChatMaxRetries  = "TAXON_CHAT_MAX_RETRIES"
	EnvChatMaxInFlight = "TAXON_CHAT_MAX_IN_FLIGHT"
)

// ChatConfig holds resilience settings for chat inference calls. The
// provider and model themselves come from the agent section.
type ChatConfig struct {
	Timeout     string `toml:"timeout"`
	MaxRetries  int    `toml:"max_retries"`
	MaxInFlight int    `toml:"max_in_flight"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ChatConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ChatConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ChatConfig) Merge(overlay *ChatConfig) {
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

func (c *ChatConfig) loadDefaults() {
	if c.Timeout == "" {
		c.Timeout = "1m"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.MaxInFlight == 0 {
		c.MaxInFlight = 4
	}
}

func (c *ChatConfig) loadEnv() {
	if v := os.Getenv(EnvChatTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvChatMaxRetries); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRetries = n
		}
	}
	if v := os.Getenv(EnvChatMaxInFlight); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxInFlight = n
		}
	}
}

func (c *ChatConfig) validate() error {
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
