// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import "sync"

// Job is one unit of rendering work for a [Worker].
// A Job is consumed exactly once.
type Job struct {

	// Name identifies the job in log messages.
	Name string

	// Run does the work on the render goroutine, with the
	// initialized graphics backend.
	Run func(b Backend) error

	// OnComplete, if set, is called exactly once on the render goroutine
	// after Run returns or panics, or when the job is cancelled, with the
	// resulting error. It is called before the job's [Future] completes.
	OnComplete func(err error)
}

// Future is the handle for a submitted [Job]. It completes exactly once.
// Callers may wait on it or ignore it.
type Future struct {
	done chan struct{}
	once sync.Once
	err  error
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// complete sets the result; only the first call has any effect.
func (f *Future) complete(err error) {
	f.once.Do(func() {
		f.err = err
		close(f.done)
	})
}

// Done returns a channel that is closed when the job has completed.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Wait waits for the job to complete and returns its error.
func (f *Future) Wait() error {
	<-f.done
	return f.err
}

// Err returns the error of a completed job, and nil if the job
// succeeded or has not completed yet.
func (f *Future) Err() error {
	select {
	case <-f.done:
		return f.err
	default:
		return nil
	}
}
