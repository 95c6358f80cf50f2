package generation

import (
	"fmt"
	"os"
	"strconv"
)

// Config sizes the document sections sent for Q&A generation.
type Config struct {
	ChunkSize int `toml:"chunk_size"`
	Workers   int `toml:"workers"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	ChunkSize string
	Workers   string
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
	if overlay.ChunkSize != 0 {
		c.ChunkSize = overlay.ChunkSize
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
}

func (c *Config) loadDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 8000
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.ChunkSize != "" {
		if v := os.Getenv(env.ChunkSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.ChunkSize = n
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
	if c.ChunkSize < 1 {
		return fmt.Errorf("chunk_size must be positive: %d", c.ChunkSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	return nil
}
