package rubric

import (
	"fmt"
	"os"
	"strconv"
)

// Config locates the rubric and bounds each evaluation request.
type Config struct {
	File            string `toml:"file"`
	MaxContextChars int    `toml:"max_context_chars"`
	Workers         int    `toml:"workers"`
	// MaxQuestions limits how many parsed questions are evaluated; 0 means all.
	MaxQuestions int `toml:"max_questions"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	File            string
	MaxContextChars string
	Workers         string
	MaxQuestions    string
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
	if overlay.File != "" {
		c.File = overlay.File
	}
	if overlay.MaxContextChars != 0 {
		c.MaxContextChars = overlay.MaxContextChars
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.MaxQuestions != 0 {
		c.MaxQuestions = overlay.MaxQuestions
	}
}

func (c *Config) loadDefaults() {
	if c.MaxContextChars == 0 {
		c.MaxContextChars = 15000
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.File != "" {
		if v := os.Getenv(env.File); v != "" {
			c.File = v
		}
	}
	if env.MaxContextChars != "" {
		if v := os.Getenv(env.MaxContextChars); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxContextChars = n
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
	if env.MaxQuestions != "" {
		if v := os.Getenv(env.MaxQuestions); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxQuestions = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.MaxContextChars < 1 {
		return fmt.Errorf("max_context_chars must be positive: %d", c.MaxContextChars)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.MaxQuestions < 0 {
		return fmt.Errorf("max_questions must not be negative: %d", c.MaxQuestions)
	}
	return nil
}
