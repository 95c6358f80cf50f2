package main

import (
	"context"
	"fmt"
	"os"

	"github.com/JaimeStill/counsel/internal/config"
	"github.com/JaimeStill/counsel/internal/infrastructure"
	"github.com/JaimeStill/counsel/pkg/document"
)

// options are the persistent flags shared by every subcommand.
type options struct {
	configFile  string
	fromStorage bool
	metricsFile string
	output      string
}

// app is one command invocation: loaded configuration plus the shared
// infrastructure, shut down by close.
type app struct {
	opts  *options
	infra *infrastructure.Infrastructure
}

func newApp(ctx context.Context, opts *options) (*app, error) {
	cfg, err := config.LoadFile(opts.configFile)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}

	logger := infrastructure.NewLogger(&cfg.Log)

	infra, err := infrastructure.New(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	infra.Start(opts.metricsFile)

	logger.Debug("counsel initialized",
		"version", cfg.Version,
		"env", cfg.Env(),
		"storage", cfg.Storage.Provider,
	)

	return &app{opts: opts, infra: infra}, nil
}

func (a *app) close() {
	timeout := a.infra.Config.ShutdownTimeoutDuration()
	if err := a.infra.Lifecycle.Shutdown(timeout); err != nil {
		a.infra.Logger.Error("shutdown failed", "error", err)
	}
}

func (a *app) ctx() context.Context {
	return a.infra.Lifecycle.Context()
}

func (a *app) read(name string) ([]byte, error) {
	return a.infra.ReadInput(a.ctx(), name, a.opts.fromStorage)
}

// document reads name and extracts its text.
func (a *app) document(name string) (*document.Text, error) {
	data, err := a.read(name)
	if err != nil {
		return nil, err
	}
	return document.Extract(a.ctx(), name, data)
}

// text reads a plain UTF-8 input such as a rubric or a Q&A markdown file.
func (a *app) text(name string) (string, error) {
	data, err := a.read(name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// outputFile opens the -o target, or stdout when none is set.
func (a *app) outputFile() (*os.File, func() error, error) {
	if a.opts.output == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(a.opts.output)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}
