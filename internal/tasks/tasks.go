// Package tasks runs fire-and-forget work: cache touches, reindex
// triggers, snapshot writes. Tasks never block the caller and their
// failures never propagate; errors go to the log and nowhere else.
package tasks

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultTimeout bounds each detached task so a slow upstream cannot
// leak goroutines indefinitely.
const DefaultTimeout = 10 * time.Second

// Runner dispatches detached tasks.
type Runner struct {
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a runner. A zero timeout means DefaultTimeout.
func NewRunner(timeout time.Duration) *Runner {
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Runner{timeout: timeout}
}

// Go runs fn on its own goroutine with a fresh timeout context. The
// task is detached from the caller's context on purpose: the parent
// request finishing or failing must not cancel it.
func (r *Runner) Go(name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer func() {
			if p := recover(); p != nil {
				slog.Error("detached task panicked", "task", name, "panic", p)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
		defer cancel()

		if err := fn(ctx); err != nil {
			slog.Warn("detached task failed", "task", name, "error", err)
		}
	}()
}

// Close waits for in-flight tasks to finish. Intended for shutdown and
// tests.
func (r *Runner) Close() {
	r.wg.Wait()
}
