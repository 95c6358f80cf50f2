package risk

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds assessment concurrency and optionally narrows the catalog.
type Config struct {
	Workers    int      `toml:"workers"`
	Categories []string `toml:"categories"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Workers string
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
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if len(overlay.Categories) > 0 {
		c.Categories = overlay.Categories
	}
}

func (c *Config) loadDefaults() {
	if c.Workers == 0 {
		c.Workers = 10
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Workers != "" {
		if v := os.Getenv(env.Workers); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.Workers = n
			}
		}
	}
}

func (c *Config) validate() error {
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	return nil
}
