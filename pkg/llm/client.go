// Package llm provides the text completion collaborator used for extraction,
// judging, rubric scoring and Q&A generation.
//
// A Client wraps one model endpoint (OpenAI, an OpenAI-compatible server via
// eino, or Gemini) with the call policy every request goes through: a rate
// limiter, a circuit breaker, bounded exponential retry of transient failures
// and a per-attempt timeout.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/JaimeStill/counsel/pkg/metrics"
)

// Completer produces a completion for a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Client is a Completer that applies the configured call policy to a provider.
type Client struct {
	role     string
	provider provider
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	timeout  time.Duration
	retries  uint64
	initial  time.Duration
	maxDelay time.Duration
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// New connects to the provider named in cfg. Role labels logs and metrics
// (for example "extractor" or "judge"). cfg must already be finalized.
func New(ctx context.Context, role string, cfg *Config, m *metrics.Metrics, logger *slog.Logger) (*Client, error) {
	p, err := newProvider(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", role, err)
	}
	return newClient(role, p, cfg, m, logger), nil
}

// Wrap applies the call policy in cfg to an existing Completer.
func Wrap(role string, c Completer, cfg *Config, m *metrics.Metrics, logger *slog.Logger) *Client {
	return newClient(role, completerProvider{c}, cfg, m, logger)
}

func newClient(role string, p provider, cfg *Config, m *metrics.Metrics, logger *slog.Logger) *Client {
	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Limit(cfg.RequestsPerMinute / 60.0)
	}

	failures := cfg.BreakerFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "llm-" + role,
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeoutDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("llm circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		role:     role,
		provider: p,
		limiter:  rate.NewLimiter(limit, max(cfg.Burst, 1)),
		breaker:  breaker,
		timeout:  cfg.TimeoutDuration(),
		retries:  cfg.Retries(),
		initial:  cfg.RetryInitialIntervalDuration(),
		maxDelay: cfg.RetryMaxIntervalDuration(),
		metrics:  m,
		logger:   logger.With("component", "llm", "role", role),
	}
}

// Complete sends prompt to the model. Transient failures are retried with
// exponential backoff; the returned error wraps ErrTimeout when the final
// failure was a timeout.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	var out string

	op := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}

		res, err := c.breaker.Execute(func() (any, error) {
			return c.attempt(ctx, prompt)
		})
		if err != nil {
			if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
				return backoff.Permanent(fmt.Errorf("%w: %w", ErrCircuitOpen, err))
			}
			if ctx.Err() != nil || !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}

		out = res.(string)
		return nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.initial
	policy.MaxInterval = c.maxDelay
	policy.MaxElapsedTime = 0

	notify := func(err error, wait time.Duration) {
		c.logger.Warn("llm call failed, retrying", "error", err, "backoff", wait)
	}

	err := backoff.RetryNotify(op, backoff.WithContext(backoff.WithMaxRetries(policy, c.retries), ctx), notify)
	c.metrics.LLMRequest(c.role, time.Since(start), err)

	if err != nil {
		if IsTimeout(err) && !errors.Is(err, ErrTimeout) {
			err = fmt.Errorf("%w: %w", ErrTimeout, err)
		}
		c.logger.Error("llm call failed", "error", err, "duration", time.Since(start))
		return "", err
	}

	c.logger.Debug("llm call complete", "duration", time.Since(start), "response_chars", len(out))
	return out, nil
}

// Close releases provider resources.
func (c *Client) Close() error {
	return c.provider.close()
}

func (c *Client) attempt(ctx context.Context, prompt string) (string, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out, err := c.provider.complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(out) == "" {
		return "", ErrEmptyResponse
	}
	return out, nil
}

type completerProvider struct {
	Completer
}

func (p completerProvider) complete(ctx context.Context, prompt string) (string, error) {
	return p.Complete(ctx, prompt)
}

func (p completerProvider) close() error { return nil }
