// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package offscreen provides render backends and window presenters that
// need no native windowing system: surfaces are rasterized with gg and
// presented into in-memory framebuffers, which makes it usable for
// testing, headless rendering and capturing frames.
package offscreen

import (
	"fmt"
	"image"
	"log/slog"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/scene"
	"github.com/gogpu/gg"
)

// ErrNoAccelerator is returned by [Accelerated] when no gg GPU
// accelerator has been registered.
var ErrNoAccelerator = errors.New("offscreen: no GPU accelerator registered")

// Backend is a [render.Backend] drawing with gg. It keeps one drawing
// context per surface, resized as the surface is. It must only be used
// on the render goroutine.
type Backend struct {
	name        string
	accelerated bool
	contexts    map[string]*gg.Context
}

// Accelerated is a [render.BackendFactory] for a backend using the gg GPU
// accelerator. It fails with [ErrNoAccelerator] if none is registered,
// which is the case unless a gg GPU package is linked in.
func Accelerated() (render.Backend, error) {
	a := gg.Accelerator()
	if a == nil {
		return nil, ErrNoAccelerator
	}
	return &Backend{name: "gg/" + a.Name(), accelerated: true, contexts: map[string]*gg.Context{}}, nil
}

// Software is a [render.BackendFactory] for a backend using the gg
// software rasterizer. It always succeeds.
func Software() (render.Backend, error) {
	return &Backend{name: "gg/software", contexts: map[string]*gg.Context{}}, nil
}

// Factories returns the backend factories in order of preference:
// accelerated, then software.
func Factories() []render.BackendFactory {
	return []render.BackendFactory{Accelerated, Software}
}

// SetLogger makes gg log to the given logger.
func SetLogger(l *slog.Logger) {
	gg.SetLogger(l)
}

func (b *Backend) Name() string {
	return b.name
}

// Accelerated returns whether the backend uses the GPU accelerator.
func (b *Backend) Accelerated() bool {
	return b.accelerated
}

// Context returns the drawing context for the given surface, making it
// or resizing it as needed.
func (b *Backend) Context(surface string, size image.Point) (*gg.Context, error) {
	if size.X <= 0 || size.Y <= 0 {
		return nil, fmt.Errorf("offscreen: invalid size %v for %s", size, surface)
	}
	dc := b.contexts[surface]
	if dc == nil {
		dc = gg.NewContext(size.X, size.Y)
		b.contexts[surface] = dc
		return dc, nil
	}
	if err := dc.Resize(size.X, size.Y); err != nil {
		return nil, err
	}
	return dc, nil
}

// Forget closes and drops the drawing context of the given surface.
func (b *Backend) Forget(surface string) error {
	dc := b.contexts[surface]
	if dc == nil {
		return nil
	}
	delete(b.contexts, surface)
	return dc.Close()
}

// Release closes all drawing contexts.
func (b *Backend) Release() error {
	var errs []error
	for name, dc := range b.contexts {
		if err := dc.Close(); err != nil {
			errs = append(errs, fmt.Errorf("offscreen: closing %s: %w", name, err))
		}
	}
	clear(b.contexts)
	return errors.Join(errs...)
}

// DrawFunc draws the content of a surface of the given size.
type DrawFunc func(dc *gg.Context, size image.Point) error

// Painter returns a [scene.Painter] that draws the surface with f on the
// gg context for the given surface name, returning the rasterized pixels.
func Painter(surface string, f DrawFunc) scene.Painter {
	return scene.PainterFunc(func(rb render.Backend, size image.Point) (image.Image, error) {
		b, ok := rb.(*Backend)
		if !ok {
			return nil, fmt.Errorf("offscreen: cannot paint %s with backend %T", surface, rb)
		}
		dc, err := b.Context(surface, size)
		if err != nil {
			return nil, err
		}
		if err := f(dc, size); err != nil {
			return nil, err
		}
		if b.accelerated {
			if err := dc.FlushGPU(); err != nil {
				return nil, err
			}
		}
		return dc.Image(), nil
	})
}
