package extraction

import (
	"fmt"
	"os"
	"strconv"
)

// Config sizes extraction requests. Sizes are counted in characters.
type Config struct {
	RequestBudget        int    `toml:"request_budget"`
	MaxRequestSize       int    `toml:"max_request_size"`
	Workers              int    `toml:"workers"`
	SchemaFile           string `toml:"schema_file"`
	LargeDocumentWarning int    `toml:"large_document_warning"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	RequestBudget  string
	MaxRequestSize string
	Workers        string
	SchemaFile     string
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
	if overlay.RequestBudget != 0 {
		c.RequestBudget = overlay.RequestBudget
	}
	if overlay.MaxRequestSize != 0 {
		c.MaxRequestSize = overlay.MaxRequestSize
	}
	if overlay.Workers != 0 {
		c.Workers = overlay.Workers
	}
	if overlay.SchemaFile != "" {
		c.SchemaFile = overlay.SchemaFile
	}
	if overlay.LargeDocumentWarning != 0 {
		c.LargeDocumentWarning = overlay.LargeDocumentWarning
	}
}

func (c *Config) loadDefaults() {
	if c.RequestBudget == 0 {
		c.RequestBudget = 120000
	}
	if c.MaxRequestSize == 0 {
		c.MaxRequestSize = 60000
	}
	if c.Workers == 0 {
		c.Workers = 4
	}
	if c.LargeDocumentWarning == 0 {
		c.LargeDocumentWarning = 50000
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.RequestBudget != "" {
		if v := os.Getenv(env.RequestBudget); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.RequestBudget = n
			}
		}
	}
	if env.MaxRequestSize != "" {
		if v := os.Getenv(env.MaxRequestSize); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxRequestSize = n
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
	if env.SchemaFile != "" {
		if v := os.Getenv(env.SchemaFile); v != "" {
			c.SchemaFile = v
		}
	}
}

func (c *Config) validate() error {
	if c.RequestBudget < 1 {
		return fmt.Errorf("request_budget must be positive: %d", c.RequestBudget)
	}
	if c.MaxRequestSize < 1 {
		return fmt.Errorf("max_request_size must be positive: %d", c.MaxRequestSize)
	}
	if c.Workers < 1 {
		return fmt.Errorf("workers must be positive: %d", c.Workers)
	}
	if c.LargeDocumentWarning < 1 {
		return fmt.Errorf("large_document_warning must be positive: %d", c.LargeDocumentWarning)
	}
	return nil
}
