// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package render provides the render worker: the single goroutine that
// owns the graphics backend and runs all paint jobs in order.
package render

import (
	"cogentcore.org/core/base/errors"
)

var (
	// ErrStopped is the error of jobs that were cancelled or submitted
	// after [Worker.Stop].
	ErrStopped = errors.New("render: worker stopped")

	// ErrNoBackend is the error wrapped when no graphics backend could be
	// initialized. It is fatal to the toolkit session.
	ErrNoBackend = errors.New("render: no graphics backend could be initialized")
)

// Backend is an initialized graphics device. It is created by a
// [BackendFactory] on the render goroutine and must only be used there.
type Backend interface {

	// Name returns the name of the backend, for logging.
	Name() string

	// Release releases the resources of the backend.
	// It is called once, on the render goroutine, when the worker stops.
	Release() error
}

// BackendFactory creates a [Backend]. It is only ever called on the
// render goroutine, the first time that goroutine runs.
type BackendFactory func() (Backend, error)
