// Package coordinator runs post-commit side effects of an order as detached
// tasks. Each task gets its own goroutine and deadline; its outcome is
// reported to a sink and never reaches the caller.
package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Task is a single unit of detached work.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to Task.
type TaskFunc struct {
	TaskName string
	Fn       func(ctx context.Context) error
}

func (t TaskFunc) Name() string                  { return t.TaskName }
func (t TaskFunc) Run(ctx context.Context) error { return t.Fn(ctx) }

// ErrorSink receives the failure of a task. It runs on the task's goroutine.
type ErrorSink func(ctx context.Context, task Task, err error)

// Dispatcher starts tasks without waiting for them.
type Dispatcher struct {
	timeout time.Duration
	onError ErrorSink
	wg      sync.WaitGroup
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithTimeout bounds every task run. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(o *Dispatcher) { o.timeout = d }
}

// WithErrorSink replaces the default sink, which logs at error level.
func WithErrorSink(sink ErrorSink) Option {
	return func(o *Dispatcher) { o.onError = sink }
}

// NewDispatcher returns a dispatcher with a 30s task timeout that logs
// task failures.
func NewDispatcher(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		timeout: 30 * time.Second,
		onError: logError,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Go starts every task on its own goroutine and returns immediately.
// Tasks are independent: one failing or panicking does not affect the rest.
func (d *Dispatcher) Go(ctx context.Context, tasks ...Task) {
	ctx = context.WithoutCancel(ctx)
	for _, task := range tasks {
		d.wg.Add(1)
		go d.run(ctx, task)
	}
}

// Wait blocks until all started tasks finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) run(ctx context.Context, task Task) {
	defer d.wg.Done()

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			d.onError(ctx, task, fmt.Errorf("panic: %v", r))
		}
	}()

	start := time.Now()
	if err := task.Run(ctx); err != nil {
		d.onError(ctx, task, err)
		return
	}
	slog.DebugContext(ctx, "task completed", "task", task.Name(), "elapsed", time.Since(start))
}

func logError(ctx context.Context, task Task, err error) {
	slog.ErrorContext(ctx, "task failed", "task", task.Name(), "error", err)
}
