// Package task supervises a single background unit of work and exposes its
// outcome to any number of waiters.
package task

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Status is the lifecycle state of a Task.
type Status int

const (
	StatusRunning Status = iota
	StatusSucceeded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusRunning:
		return "running"
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Task is a handle on work started by Start. The work runs exactly once;
// every waiter observes the same result.
type Task[T any] struct {
	done      chan struct{}
	cancel    context.CancelFunc
	startedAt time.Time

	mu         sync.RWMutex
	result     T
	err        error
	finishedAt time.Time
}

// Start runs fn in a new goroutine. The work stops early only if ctx is
// cancelled or Cancel is called; callers that want the work to outlive a
// request pass context.WithoutCancel. A panic in fn is reported as an error.
func Start[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{
		done:      make(chan struct{}),
		cancel:    cancel,
		startedAt: time.Now(),
	}
	go t.run(ctx, fn)
	return t
}

func (t *Task[T]) run(ctx context.Context, fn func(ctx context.Context) (T, error)) {
	var (
		result T
		err    error
	)
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
		t.mu.Lock()
		t.result, t.err = result, err
		t.finishedAt = time.Now()
		t.mu.Unlock()
		t.cancel()
		close(t.done)
	}()
	result, err = fn(ctx)
}

// Wait blocks until the work finishes or ctx is done. Giving up on the wait
// does not stop the work.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		t.mu.RLock()
		defer t.mu.RUnlock()
		return t.result, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Done is closed once the work has finished.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Status reports whether the work is still running, succeeded or failed.
func (t *Task[T]) Status() Status {
	select {
	case <-t.done:
	default:
		return StatusRunning
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.err != nil {
		return StatusFailed
	}
	return StatusSucceeded
}

// Err returns the terminal error, or nil while running or after success.
func (t *Task[T]) Err() error {
	select {
	case <-t.done:
	default:
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.err
}

// Cancel asks the work to stop. It has no effect once the work has finished.
func (t *Task[T]) Cancel() {
	t.cancel()
}

// StartedAt is when Start was called.
func (t *Task[T]) StartedAt() time.Time {
	return t.startedAt
}

// FinishedAt is when the work finished, or the zero time while running.
func (t *Task[T]) FinishedAt() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.finishedAt
}
