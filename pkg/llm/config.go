package llm

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
)

// Supported provider names.
const (
	ProviderOpenAI = "openai"
	ProviderEino   = "eino"
	ProviderGemini = "gemini"
)

var providers = []string{ProviderOpenAI, ProviderEino, ProviderGemini}

// Config describes one model endpoint and the call policy applied to it.
type Config struct {
	Provider    string  `toml:"provider"`
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`

	Timeout              string `toml:"timeout"`
	MaxRetries           int    `toml:"max_retries"`
	RetryInitialInterval string `toml:"retry_initial_interval"`
	RetryMaxInterval     string `toml:"retry_max_interval"`

	// RequestsPerMinute of zero leaves calls unthrottled.
	RequestsPerMinute float64 `toml:"requests_per_minute"`
	Burst             int     `toml:"burst"`

	BreakerFailures uint32 `toml:"breaker_failures"`
	BreakerTimeout  string `toml:"breaker_timeout"`
}

// Env maps config fields to environment variable names for override injection.
type Env struct {
	Provider          string
	BaseURL           string
	APIKey            string
	Model             string
	Temperature       string
	Timeout           string
	MaxRetries        string
	RequestsPerMinute string
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
	if overlay.Provider != "" {
		c.Provider = overlay.Provider
	}
	if overlay.BaseURL != "" {
		c.BaseURL = overlay.BaseURL
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.Model != "" {
		c.Model = overlay.Model
	}
	if overlay.Temperature != 0 {
		c.Temperature = overlay.Temperature
	}
	if overlay.Timeout != "" {
		c.Timeout = overlay.Timeout
	}
	if overlay.MaxRetries != 0 {
		c.MaxRetries = overlay.MaxRetries
	}
	if overlay.RetryInitialInterval != "" {
		c.RetryInitialInterval = overlay.RetryInitialInterval
	}
	if overlay.RetryMaxInterval != "" {
		c.RetryMaxInterval = overlay.RetryMaxInterval
	}
	if overlay.RequestsPerMinute != 0 {
		c.RequestsPerMinute = overlay.RequestsPerMinute
	}
	if overlay.Burst != 0 {
		c.Burst = overlay.Burst
	}
	if overlay.BreakerFailures != 0 {
		c.BreakerFailures = overlay.BreakerFailures
	}
	if overlay.BreakerTimeout != "" {
		c.BreakerTimeout = overlay.BreakerTimeout
	}
}

// TimeoutDuration returns Timeout as a time.Duration.
func (c *Config) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// RetryInitialIntervalDuration returns RetryInitialInterval as a time.Duration.
func (c *Config) RetryInitialIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryInitialInterval)
	return d
}

// RetryMaxIntervalDuration returns RetryMaxInterval as a time.Duration.
func (c *Config) RetryMaxIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(c.RetryMaxInterval)
	return d
}

// BreakerTimeoutDuration returns BreakerTimeout as a time.Duration.
func (c *Config) BreakerTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.BreakerTimeout)
	return d
}

// Retries returns the number of retries after the first attempt. A negative
// MaxRetries disables retrying.
func (c *Config) Retries() uint64 {
	if c.MaxRetries < 0 {
		return 0
	}
	return uint64(c.MaxRetries)
}

func (c *Config) loadDefaults() {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		c.Model = "gpt-4o"
	}
	if c.Timeout == "" {
		c.Timeout = "600s"
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 2
	}
	if c.RetryInitialInterval == "" {
		c.RetryInitialInterval = "1s"
	}
	if c.RetryMaxInterval == "" {
		c.RetryMaxInterval = "30s"
	}
	if c.Burst == 0 {
		c.Burst = 1
	}
	if c.BreakerFailures == 0 {
		c.BreakerFailures = 5
	}
	if c.BreakerTimeout == "" {
		c.BreakerTimeout = "60s"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env.Provider != "" {
		if v := os.Getenv(env.Provider); v != "" {
			c.Provider = v
		}
	}
	if env.BaseURL != "" {
		if v := os.Getenv(env.BaseURL); v != "" {
			c.BaseURL = v
		}
	}
	if env.APIKey != "" {
		if v := os.Getenv(env.APIKey); v != "" {
			c.APIKey = v
		}
	}
	if env.Model != "" {
		if v := os.Getenv(env.Model); v != "" {
			c.Model = v
		}
	}
	if env.Temperature != "" {
		if v := os.Getenv(env.Temperature); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				c.Temperature = f
			}
		}
	}
	if env.Timeout != "" {
		if v := os.Getenv(env.Timeout); v != "" {
			c.Timeout = v
		}
	}
	if env.MaxRetries != "" {
		if v := os.Getenv(env.MaxRetries); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				c.MaxRetries = n
			}
		}
	}
	if env.RequestsPerMinute != "" {
		if v := os.Getenv(env.RequestsPerMinute); v != "" {
			if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
				c.RequestsPerMinute = f
			}
		}
	}
}

func (c *Config) validate() error {
	if !slices.Contains(providers, c.Provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", c.Temperature)
	}
	if c.RequestsPerMinute < 0 {
		return fmt.Errorf("requests_per_minute must not be negative")
	}
	if c.Burst < 1 {
		return fmt.Errorf("burst must be at least 1")
	}

	durations := map[string]string{
		"timeout":                c.Timeout,
		"retry_initial_interval": c.RetryInitialInterval,
		"retry_max_interval":     c.RetryMaxInterval,
		"breaker_timeout":        c.BreakerTimeout,
	}
	for name, value := range durations {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}

	return nil
}
