// Package infrastructure provides core service initialization for a counsel run.
// It assembles the shared dependencies (logging, metrics, prompts, schema,
// storage and model clients) that the domain packages require.
package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/JaimeStill/counsel/internal/config"
	"github.com/JaimeStill/counsel/internal/prompts"
	"github.com/JaimeStill/counsel/internal/schema"
	"github.com/JaimeStill/counsel/pkg/lifecycle"
	"github.com/JaimeStill/counsel/pkg/llm"
	"github.com/JaimeStill/counsel/pkg/metrics"
	"github.com/JaimeStill/counsel/pkg/storage"
)

// Model client roles.
const (
	RoleExtractor = "extractor"
	RoleJudge     = "judge"
)

// Infrastructure holds the core systems required by all domain modules.
// Model clients are connected on first use so commands that never call a
// model need no credentials.
type Infrastructure struct {
	Config    *config.Config
	Lifecycle *lifecycle.Coordinator
	Logger    *slog.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Prompts   *prompts.System
	Schema    *schema.Node
	// Storage is nil when no provider is configured.
	Storage storage.System

	mu      sync.Mutex
	clients map[string]*llm.Client
}

// NewLogger builds the process logger from cfg, writing to stderr.
func NewLogger(cfg *config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

// New creates an Infrastructure from the application configuration. The
// lifecycle context derives from parent.
func New(parent context.Context, cfg *config.Config, logger *slog.Logger) (*Infrastructure, error) {
	lc := lifecycle.New(parent)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg)
	if err != nil {
		return nil, fmt.Errorf("metrics init failed: %w", err)
	}

	ps, err := prompts.Load(cfg.Prompts.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("prompts init failed: %w", err)
	}

	root := schema.Default()
	if cfg.Extraction.SchemaFile != "" {
		root, err = schema.LoadFile(cfg.Extraction.SchemaFile)
		if err != nil {
			return nil, fmt.Errorf("schema init failed: %w", err)
		}
		logger.Info("schema loaded", "file", cfg.Extraction.SchemaFile, "root", root.Name)
	}

	var store storage.System
	if cfg.Storage.Enabled() {
		store, err = storage.New(lc.Context(), &cfg.Storage, logger)
		if err != nil {
			return nil, fmt.Errorf("storage init failed: %w", err)
		}
	}

	return &Infrastructure{
		Config:    cfg,
		Lifecycle: lc,
		Logger:    logger,
		Registry:  reg,
		Metrics:   m,
		Prompts:   ps,
		Schema:    root,
		Storage:   store,
		clients:   make(map[string]*llm.Client),
	}, nil
}

// Start registers shutdown hooks with the lifecycle coordinator: model
// clients are closed and, when metricsFile is set, the registry is written
// there once the run ends.
func (i *Infrastructure) Start(metricsFile string) {
	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()

		i.mu.Lock()
		defer i.mu.Unlock()
		for role, c := range i.clients {
			if err := c.Close(); err != nil {
				i.Logger.Warn("llm client close failed", "role", role, "error", err)
			}
		}
	})

	if metricsFile == "" {
		return
	}
	i.Lifecycle.OnShutdown(func() {
		<-i.Lifecycle.Context().Done()
		if err := metrics.WriteFile(metricsFile, i.Registry); err != nil {
			i.Logger.Error("metrics write failed", "file", metricsFile, "error", err)
			return
		}
		i.Logger.Info("metrics written", "file", metricsFile)
	})
}

// Extractor returns the client used for extraction, Q&A generation and
// rubric scoring.
func (i *Infrastructure) Extractor() (*llm.Client, error) {
	return i.client(RoleExtractor, &i.Config.Extractor)
}

// Judge returns the client used to grade Q&A answers and score clause risk.
func (i *Infrastructure) Judge() (*llm.Client, error) {
	return i.client(RoleJudge, &i.Config.Judge)
}

func (i *Infrastructure) client(role string, cfg *llm.Config) (*llm.Client, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if c, ok := i.clients[role]; ok {
		return c, nil
	}

	c, err := llm.New(i.Lifecycle.Context(), role, cfg, i.Metrics, i.Logger)
	if err != nil {
		return nil, err
	}
	i.clients[role] = c
	i.Logger.Info("llm client ready", "role", role, "provider", cfg.Provider, "model", cfg.Model)
	return c, nil
}
