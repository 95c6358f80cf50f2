// Package lifecycle coordinates cancellation and ordered cleanup for a run.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Coordinator owns the run context and the shutdown hooks waiting on it.
type Coordinator struct {
	ctx        context.Context
	cancel     context.CancelFunc
	shutdownWg sync.WaitGroup
	once       sync.Once
}

// New creates a Coordinator whose context is derived from parent. Cancelling
// parent (for example on SIGINT) starts shutdown hooks just as Shutdown does.
func New(parent context.Context) *Coordinator {
	ctx, cancel := context.WithCancel(parent)
	return &Coordinator{
		ctx:    ctx,
		cancel: cancel,
	}
}

// Context returns the coordinator's context, cancelled on shutdown.
func (c *Coordinator) Context() context.Context {
	return c.ctx
}

// OnShutdown registers a function to run concurrently during shutdown.
// Hooks should block on <-c.Context().Done() before executing cleanup.
func (c *Coordinator) OnShutdown(fn func()) {
	c.shutdownWg.Go(fn)
}

// Shutdown cancels the context and waits for shutdown hooks to complete
// within the given timeout. Calling it more than once is safe.
func (c *Coordinator) Shutdown(timeout time.Duration) error {
	c.once.Do(c.cancel)

	done := make(chan struct{})
	go func() {
		c.shutdownWg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return fmt.Errorf("shutdown timeout after %v", timeout)
	}
}
