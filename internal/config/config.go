// Package config loads the counsel configuration: a TOML base file, an
// optional per-environment overlay, then COUNSEL_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/JaimeStill/counsel/internal/evaluation"
	"github.com/JaimeStill/counsel/internal/extraction"
	"github.com/JaimeStill/counsel/internal/generation"
	"github.com/JaimeStill/counsel/internal/risk"
	"github.com/JaimeStill/counsel/internal/rubric"
	"github.com/JaimeStill/counsel/pkg/formatting"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvCounselEnv             = "COUNSEL_ENV"
	EnvCounselMaxDocumentSize = "COUNSEL_MAX_DOCUMENT_SIZE"
	EnvCounselShutdownTimeout = "COUNSEL_SHUTDOWN_TIMEOUT"
	EnvCounselVersion         = "COUNSEL_VERSION"
	EnvCounselPromptsDir      = "COUNSEL_PROMPTS_DIR"
)

var extractorEnv = &llm.Env{
	Provider:          "COUNSEL_EXTRACTOR_PROVIDER",
	BaseURL:           "COUNSEL_EXTRACTOR_BASE_URL",
	APIKey:            "COUNSEL_EXTRACTOR_API_KEY",
	Model:             "COUNSEL_EXTRACTOR_MODEL",
	Temperature:       "COUNSEL_EXTRACTOR_TEMPERATURE",
	Timeout:           "COUNSEL_EXTRACTOR_TIMEOUT",
	MaxRetries:        "COUNSEL_EXTRACTOR_MAX_RETRIES",
	RequestsPerMinute: "COUNSEL_EXTRACTOR_REQUESTS_PER_MINUTE",
}

var judgeEnv = &llm.Env{
	Provider:          "COUNSEL_JUDGE_PROVIDER",
	BaseURL:           "COUNSEL_JUDGE_BASE_URL",
	APIKey:            "COUNSEL_JUDGE_API_KEY",
	Model:             "COUNSEL_JUDGE_MODEL",
	Temperature:       "COUNSEL_JUDGE_TEMPERATURE",
	Timeout:           "COUNSEL_JUDGE_TIMEOUT",
	MaxRetries:        "COUNSEL_JUDGE_MAX_RETRIES",
	RequestsPerMinute: "COUNSEL_JUDGE_REQUESTS_PER_MINUTE",
}

var extractionEnv = &extraction.Env{
	RequestBudget:  "COUNSEL_EXTRACTION_REQUEST_BUDGET",
	MaxRequestSize: "COUNSEL_EXTRACTION_MAX_REQUEST_SIZE",
	Workers:        "COUNSEL_EXTRACTION_WORKERS",
	SchemaFile:     "COUNSEL_EXTRACTION_SCHEMA_FILE",
}

var evaluationEnv = &evaluation.Env{
	LLMWeight:     "COUNSEL_EVALUATION_LLM_WEIGHT",
	KeywordWeight: "COUNSEL_EVALUATION_KEYWORD_WEIGHT",
	Workers:       "COUNSEL_EVALUATION_WORKERS",
}

var riskEnv = &risk.Env{
	Workers: "COUNSEL_RISK_WORKERS",
}

var generationEnv = &generation.Env{
	ChunkSize: "COUNSEL_GENERATION_CHUNK_SIZE",
	Workers:   "COUNSEL_GENERATION_WORKERS",
}

var rubricEnv = &rubric.Env{
	File:            "COUNSEL_RUBRIC_FILE",
	MaxContextChars: "COUNSEL_RUBRIC_MAX_CONTEXT_CHARS",
	Workers:         "COUNSEL_RUBRIC_WORKERS",
	MaxQuestions:    "COUNSEL_RUBRIC_MAX_QUESTIONS",
}

var storageEnv = &storage.Env{
	Provider:         "COUNSEL_STORAGE_PROVIDER",
	ContainerName:    "COUNSEL_STORAGE_CONTAINER_NAME",
	ConnectionString: "COUNSEL_STORAGE_CONNECTION_STRING",
	ServiceURL:       "COUNSEL_STORAGE_SERVICE_URL",
	Bucket:           "COUNSEL_STORAGE_BUCKET",
	Region:           "COUNSEL_STORAGE_REGION",
	AccessKey:        "COUNSEL_STORAGE_ACCESS_KEY",
	SecretKey:        "COUNSEL_STORAGE_SECRET_KEY",
}

// PromptsConfig points at a directory of prompt overrides.
type PromptsConfig struct {
	Dir string `toml:"dir"`
}

// Config is the root configuration for counsel.
type Config struct {
	Log        LogConfig         `toml:"log"`
	Extractor  llm.Config        `toml:"extractor"`
	Judge      llm.Config        `toml:"judge"`
	Extraction extraction.Config `toml:"extraction"`
	Evaluation evaluation.Config `toml:"evaluation"`
	Risk       risk.Config       `toml:"risk"`
	Generation generation.Config `toml:"generation"`
	Rubric     rubric.Config     `toml:"rubric"`
	Storage    storage.Config    `toml:"storage"`
	Prompts    PromptsConfig     `toml:"prompts"`

	MaxDocumentSize string `toml:"max_document_size"`
	ShutdownTimeout string `toml:"shutdown_timeout"`
	Version         string `toml:"version"`
}

// Env returns the COUNSEL_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvCounselEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// MaxDocumentBytes returns MaxDocumentSize in bytes.
func (c *Config) MaxDocumentBytes() int64 {
	n, _ := formatting.ParseBytes(c.MaxDocumentSize)
	return n
}

// Load reads config.toml from the working directory.
func Load() (*Config, error) {
	return LoadFile(BaseConfigFile)
}

// LoadFile reads the base config at path (if present), applies the overlay
// named by COUNSEL_ENV from the same directory, and finalizes all values.
// Without a base file, defaults and environment variables provide all
// configuration.
func LoadFile(path string) (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(path); err == nil {
		loaded, err := load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("stat config: %w", err)
	}

	if overlay := overlayPath(filepath.Dir(path)); overlay != "" {
		o, err := load(overlay)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", overlay, err)
		}
		cfg.Merge(o)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.MaxDocumentSize != "" {
		c.MaxDocumentSize = overlay.MaxDocumentSize
	}
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	if overlay.Prompts.Dir != "" {
		c.Prompts.Dir = overlay.Prompts.Dir
	}
	c.Log.Merge(&overlay.Log)
	c.Extractor.Merge(&overlay.Extractor)
	c.Judge.Merge(&overlay.Judge)
	c.Extraction.Merge(&overlay.Extraction)
	c.Evaluation.Merge(&overlay.Evaluation)
	c.Risk.Merge(&overlay.Risk)
	c.Generation.Merge(&overlay.Generation)
	c.Rubric.Merge(&overlay.Rubric)
	c.Storage.Merge(&overlay.Storage)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Log.Finalize(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if err := c.Extractor.Finalize(extractorEnv); err != nil {
		return fmt.Errorf("extractor: %w", err)
	}

	// The judge starts from the finalized extractor settings.
	judge := c.Extractor
	judge.Merge(&c.Judge)
	c.Judge = judge
	if err := c.Judge.Finalize(judgeEnv); err != nil {
		return fmt.Errorf("judge: %w", err)
	}

	if err := c.Extraction.Finalize(extractionEnv); err != nil {
		return fmt.Errorf("extraction: %w", err)
	}
	if err := c.Evaluation.Finalize(evaluationEnv); err != nil {
		return fmt.Errorf("evaluation: %w", err)
	}
	if err := c.Risk.Finalize(riskEnv); err != nil {
		return fmt.Errorf("risk: %w", err)
	}
	if err := c.Generation.Finalize(generationEnv); err != nil {
		return fmt.Errorf("generation: %w", err)
	}
	if err := c.Rubric.Finalize(rubricEnv); err != nil {
		return fmt.Errorf("rubric: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.MaxDocumentSize == "" {
		c.MaxDocumentSize = "50MB"
	}
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvCounselMaxDocumentSize); v != "" {
		c.MaxDocumentSize = v
	}
	if v := os.Getenv(EnvCounselShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvCounselVersion); v != "" {
		c.Version = v
	}
	if v := os.Getenv(EnvCounselPromptsDir); v != "" {
		c.Prompts.Dir = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	n, err := formatting.ParseBytes(c.MaxDocumentSize)
	if err != nil {
		return fmt.Errorf("invalid max_document_size: %w", err)
	}
	if n <= 0 {
		return fmt.Errorf("max_document_size must be positive: %s", c.MaxDocumentSize)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath(dir string) string {
	if env := os.Getenv(EnvCounselEnv); env != "" {
		path := filepath.Join(dir, fmt.Sprintf(OverlayConfigPattern, env))
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
