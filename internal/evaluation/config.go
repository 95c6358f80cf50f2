package evaluation

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds the default scoring weights and judge concurrency. A zero
// weight in config means "use the default"; pass explicit Weights to
// Evaluate to score with a zero weight.
type Config struct {
	LLMWeight     float64 `toml:"llm_weight"`
	KeywordWeight float64 `toml:"keyword_weight"`
	Workers       int     `toml:"workers"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	LLMWeight     string
	KeywordWeight string
	Workers       string
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.LLMWeight != 0 {
		c.LLMWeight = overlay.LLMWeight
	}
	if overlay.KeywordWeight != 0 {
		c.KeywordWeight = overlay.KeywordWeight
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
}

// Weights returns the configured weight pair.
func (c *Config) Weights() Weights {
	return Weights{LLM: c.LLMWeight, Keyword: c.KeywordWeight}
}

func (c *Config) loadDefaults() {
	if c.LLMWeight == 0 {
		c.LLMWeight = DefaultWeights.LLM
	}
	if c.KeywordWeight == 0 {
		c.KeywordWeight = DefaultWeights.Keyword
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.LLMWeight != "" {
		if v := os.Getenv(env.LLMWeight); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.LLMWeight = f
			}
		}
	}
	if env.KeywordWeight != "" {
		if v := os.Getenv(env.KeywordWeight); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.KeywordWeight = f
			}
		}
	}
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
}

func (c *Config) validate() error {
	if err := c.Weights().Validate(); err != nil {
		return err
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	return nil
}
