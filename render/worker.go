// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/pulse/base/errs"
)

// task is a submitted job with its future.
type task struct {
	job Job
	fut *Future
}

// Worker is the render goroutine: it owns the graphics [Backend] and runs
// submitted jobs one at a time, in submission order. Most graphics
// backends require all of their calls to come from one OS thread, so the
// goroutine is locked to its thread for its whole life.
//
// The goroutine starts, and the backend is initialized on it, the first
// time a job is submitted or [Worker.Ready] is called. A Worker is one-shot:
// after [Worker.Stop] a new Worker must be made.
type Worker struct {

	// factories are tried in order until one makes a backend.
	factories []BackendFactory

	mu       sync.Mutex
	queue    []*task
	started  bool
	stopping bool

	wake   chan struct{}
	quit   chan struct{}
	ready  chan struct{}
	exited chan struct{}

	stopOnce sync.Once

	// backend and initErr are only written by the render goroutine
	// before ready is closed.
	backend Backend
	initErr error
}

// NewWorker returns a new [Worker] that will initialize its backend with
// the first of the given factories that succeeds. Later factories are
// fallbacks for earlier ones.
func NewWorker(factories ...BackendFactory) *Worker {
	return &Worker{
		factories: factories,
		wake:      make(chan struct{}, 1),
		quit:      make(chan struct{}),
		ready:     make(chan struct{}),
		exited:    make(chan struct{}),
	}
}

// startLocked starts the render goroutine if needed; w.mu must be held.
func (w *Worker) startLocked() {
	if w.started {
		return
	}
	w.started = true
	go w.run()
}

// Submit queues the job and returns its [Future]. It never blocks.
// If the worker has been stopped, the job is not run: its OnComplete
// is called on the calling goroutine with [ErrStopped] and the
// returned future has already completed.
func (w *Worker) Submit(job Job) *Future {
	t := &task{job: job, fut: newFuture()}
	w.mu.Lock()
	if w.stopping {
		w.mu.Unlock()
		w.finish(t, ErrStopped)
		return t.fut
	}
	w.queue = append(w.queue, t)
	w.startLocked()
	w.mu.Unlock()
	select {
	case w.wake <- struct{}{}:
	default:
	}
	return t.fut
}

// Ready starts the render goroutine if needed and waits for the backend
// to be initialized, returning the initialization error, which wraps
// [ErrNoBackend] if every factory failed.
func (w *Worker) Ready(ctx context.Context) error {
	w.mu.Lock()
	if w.stopping {
		w.mu.Unlock()
		return ErrStopped
	}
	w.startLocked()
	w.mu.Unlock()
	select {
	case <-w.ready:
		return w.initErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Owner returns the identity of the render goroutine for a [Lock].
func (w *Worker) Owner() any {
	return w
}

// Stop stops the worker: new jobs are rejected, queued jobs that have not
// started are cancelled with [ErrStopped], the backend is released, and
// Stop waits for the render goroutine to exit. A job already running is
// allowed to finish. Stop must not be called from the render goroutine.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		w.mu.Lock()
		w.stopping = true
		started := w.started
		w.mu.Unlock()
		close(w.quit)
		if started {
			<-w.exited
		}
	})
}

// Stopped returns whether [Worker.Stop] has been called.
func (w *Worker) Stopped() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stopping
}

// run is the render goroutine.
func (w *Worker) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(w.exited)

	w.initErr = w.initBackend()
	close(w.ready)
	if w.initErr != nil {
		slog.Error("render: backend initialization failed", "err", w.initErr)
	}
	defer w.release()

	for {
		select {
		case <-w.quit:
			w.cancelPending()
			return
		default:
		}
		t, ok := w.pop()
		if !ok {
			select {
			case <-w.wake:
			case <-w.quit:
			}
			continue
		}
		w.exec(t)
	}
}

// initBackend makes the backend from the first factory that succeeds.
func (w *Worker) initBackend() error {
	if len(w.factories) == 0 {
		return fmt.Errorf("%w: no backend factories", ErrNoBackend)
	}
	var ferrs []error
	for i, f := range w.factories {
		var b Backend
		err := errs.Protect(func() error {
			var ferr error
			b, ferr = f()
			return ferr
		})
		if err == nil && b == nil {
			err = fmt.Errorf("backend factory %d returned no backend", i)
		}
		if err != nil {
			ferrs = append(ferrs, err)
			continue
		}
		w.backend = b
		if i > 0 {
			slog.Warn("render: using fallback backend", "backend", b.Name(), "err", errors.Join(ferrs...))
		} else {
			slog.Debug("render: backend initialized", "backend", b.Name())
		}
		return nil
	}
	return fmt.Errorf("%w: %w", ErrNoBackend, errors.Join(ferrs...))
}

func (w *Worker) release() {
	if w.backend == nil {
		return
	}
	errors.Log(errs.Protect(w.backend.Release))
	w.backend = nil
}

func (w *Worker) pop() (*task, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.queue) == 0 {
		return nil, false
	}
	t := w.queue[0]
	w.queue[0] = nil
	w.queue = w.queue[1:]
	return t, true
}

func (w *Worker) cancelPending() {
	w.mu.Lock()
	pending := w.queue
	w.queue = nil
	w.mu.Unlock()
	for _, t := range pending {
		w.finish(t, ErrStopped)
	}
}

// exec runs the job, logging any error or panic, and completes it.
func (w *Worker) exec(t *task) {
	err := w.initErr
	if err == nil && t.job.Run != nil {
		err = errs.Protect(func() error {
			return t.job.Run(w.backend)
		})
		if err != nil {
			slog.Error("render: job failed", "job", t.job.Name, "err", err)
		}
	}
	w.finish(t, err)
}

// finish calls OnComplete and then completes the future.
func (w *Worker) finish(t *task, err error) {
	if t.job.OnComplete != nil {
		errors.Log(errs.Protect(func() error {
			t.job.OnComplete(err)
			return nil
		}))
	}
	t.fut.complete(err)
}
