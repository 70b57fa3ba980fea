package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	EnvClassifierThreshold        = "TAXON_CLASSIFIER_THRESHOLD"
	EnvClassifierShortlistSize    = "TAXON_CLASSIFIER_SHORTLIST_SIZE"
	EnvClassifierMaxRefinements   = "TAXON_CLASSIFIER_MAX_REFINEMENTS"
	EnvClassifierTimeout          = "TAXON_CLASSIFIER_TIMEOUT"
	EnvClassifierBatchConcurrency = "TAXON_CLASSIFIER_BATCH_CONCURRENCY"
	EnvClassifierMaxSynonyms      = "TAXON_CLASSIFIER_MAX_SYNONYMS"
)

// ClassifierConfig holds classification tuning parameters shared by all
// classification methods.
type ClassifierConfig struct {
	Threshold        float64 `toml:"threshold"`
	ShortlistSize    int     `toml:"shortlist_size"`
	MaxRefinements   int     `toml:"max_refinements"`
	Timeout          string  `toml:"timeout"`
	BatchConcurrency int     `toml:"batch_concurrency"`
	MaxSynonyms      int     `toml:"max_synonyms"`
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *ClassifierConfig) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *ClassifierConfig) Finalize() error {
	c.loadDefaults()
	c.loadEnv()
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *ClassifierConfig) Merge(overlay *ClassifierConfig) {
	if overlay.Threshold != 0 {
		c.Threshold = overlay.Threshold
	}
	if overlay.ShortlistSize != 0 {
		c.ShortlistSize = overlay.ShortlistSize
	}
	if overlay.MaxRefinements != 0 {
		c.MaxRefinements = overlay.MaxRefinements
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.BatchConcurrency != 0 {
		c.BatchConcurrency = overlay.BatchConcurrency
	}
	if overlay.MaxSynonyms != 0 {
		c.MaxSynonyms = overlay.MaxSynonyms
	}
}

func (c *ClassifierConfig) loadDefaults() {
	if c.Threshold == 0 {
		c.Threshold = 0.60
	}
	if c.ShortlistSize == 0 {
		c.ShortlistSize = 5
	}
	if c.MaxRefinements == 0 {
		c.MaxRefinements = 3
	}
	if c.Timeout == "" {
		c.Timeout = "2m"
	}
	if c.BatchConcurrency == 0 {
		c.BatchConcurrency = 5
	}
	if c.MaxSynonyms == 0 {
		c.MaxSynonyms = 10
	}
}

func (c *ClassifierConfig) loadEnv() {
	if v := os.Getenv(EnvClassifierThreshold); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			c.Threshold = f
		}
	}
	if v := os.Getenv(EnvClassifierShortlistSize); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ShortlistSize = n
		}
	}
	if v := os.Getenv(EnvClassifierMaxRefinements); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxRefinements = n
		}
	}
	if v := os.Getenv(EnvClassifierTimeout); v != "" {
		c.Timeout = v
	}
	if v := os.Getenv(EnvClassifierBatchConcurrency); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.BatchConcurrency = n
		}
	}
	if v := os.Getenv(EnvClassifierMaxSynonyms); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.MaxSynonyms = n
		}
	}
}

func (c *ClassifierConfig) validate() error {
	if c.Threshold < 0 || c.Threshold > 1 {
		return fmt.Errorf("invalid threshold: %f", c.Threshold)
	}
	if c.ShortlistSize < 1 {
		return fmt.Errorf("invalid shortlist_size: %d", c.ShortlistSize)
	}
	if c.MaxRefinements < 0 {
		return fmt.Errorf("invalid max_refinements: %d", c.MaxRefinements)
	}
	if _, err := time.ParseDuration(c.Timeout); err != nil {
		return fmt.Errorf("invalid timeout: %w", err)
	}
	if c.BatchConcurrency < 1 {
		return fmt.Errorf("invalid batch_concurrency: %d", c.BatchConcurrency)
	}
	if c.MaxSynonyms < 1 {
		return fmt.Errorf("invalid max_synonyms: %d", c.MaxSynonyms)
	}
	return nil
}
