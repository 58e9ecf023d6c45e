// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/pulse/base/errs"
	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/system"
)

// SurfaceStates are the states of a [Surface].
type SurfaceStates int32

const (
	// Clean surfaces have nothing to paint.
	Clean SurfaceStates = iota

	// Dirty surfaces have changes that are not yet queued for painting,
	// for example because they are not attached to a stage.
	Dirty

	// PaintRequested surfaces are queued in the [Collector] for the next pass.
	PaintRequested

	// Painting surfaces have a paint job in flight on the render worker.
	// Changes made while painting put the surface back in the queue for
	// the next pass.
	Painting
)

func (st SurfaceStates) String() string {
	switch st {
	case Clean:
		return "Clean"
	case Dirty:
		return "Dirty"
	case PaintRequested:
		return "PaintRequested"
	case Painting:
		return "Painting"
	}
	return fmt.Sprintf("SurfaceStates(%d)", int32(st))
}

// Painter paints the content of a surface. It is called on the render
// goroutine with its initialized backend and the current surface size,
// and returns the painted pixels.
type Painter interface {
	Paint(b render.Backend, size image.Point) (image.Image, error)
}

// PainterFunc is a function that implements [Painter].
type PainterFunc func(b render.Backend, size image.Point) (image.Image, error)

func (f PainterFunc) Paint(b render.Backend, size image.Point) (image.Image, error) {
	return f(b, size)
}

// Presenter hands painted pixels to the native window or compositor.
// It is called on the render goroutine.
type Presenter interface {
	Present(pix image.Image) error
}

// PresenterFunc is a function that implements [Presenter].
type PresenterFunc func(pix image.Image) error

func (f PresenterFunc) Present(pix image.Image) error {
	return f(pix)
}

// SurfaceOptions are the options for [Collector.NewSurface].
type SurfaceOptions struct {

	// Name is the name of the surface, for logging.
	Name string

	// Size is the initial size of the surface in pixels.
	Size image.Point

	// Painter paints the surface.
	Painter Painter

	// Presenter presents the painted pixels; if nil, pixels are
	// painted but never presented.
	Presenter Presenter

	// Synchronous is whether presenting blocks until vsync.
	Synchronous bool

	// OnFrameRendered, if set, is called on the render goroutine each
	// time a paint job for the surface completes.
	OnFrameRendered func(s *Surface)
}

// Surface is one paintable area: the content of a window or of an
// embedded context. Surfaces are made by [Collector.NewSurface].
//
// Most methods must be called on the control thread and take its
// [system.Token]. The only state touched by the render goroutine is the
// painting flag, the owning stage and the size, which is guarded by the
// collector's render lock.
type Surface struct {
	name        string
	collector   *Collector
	painter     Painter
	presenter   Presenter
	synchronous bool
	onFrame     func(s *Surface)

	// stage is the owning stage; nil means detached.
	stage atomic.Pointer[Stage]

	// painting is whether a paint job is in flight.
	painting atomic.Bool

	// frames is the number of completed paint jobs.
	frames atomic.Int64

	// presents is the number of successful presentations.
	presents atomic.Int64

	// size is guarded by collector.lock.
	size image.Point

	// entireDirty, doPresent and disposed are control thread only.
	entireDirty bool
	doPresent   bool
	disposed    bool
}

// Name returns the name of the surface.
func (s *Surface) Name() string {
	return s.name
}

func (s *Surface) String() string {
	return s.name
}

// Stage returns the owning stage, or nil if the surface is detached.
func (s *Surface) Stage() *Stage {
	return s.stage.Load()
}

// Synchronous returns whether presenting the surface blocks until vsync.
func (s *Surface) Synchronous() bool {
	return s.synchronous
}

// IsPainting returns whether a paint job is in flight for the surface.
func (s *Surface) IsPainting() bool {
	return s.painting.Load()
}

// FramesRendered returns the number of paint jobs that have completed.
func (s *Surface) FramesRendered() int64 {
	return s.frames.Load()
}

// FramesPresented returns the number of frames presented.
func (s *Surface) FramesPresented() int64 {
	return s.presents.Load()
}

// State returns the current state of the surface.
func (s *Surface) State(tok system.Token) SurfaceStates {
	mustToken(tok)
	switch {
	case s.painting.Load():
		return Painting
	case s.collector.dirty.Has(s):
		return PaintRequested
	case s.entireDirty:
		return Dirty
	}
	return Clean
}

// IsEntireSurfaceDirty returns whether the whole surface needs painting.
func (s *Surface) IsEntireSurfaceDirty(tok system.Token) bool {
	mustToken(tok)
	return s.entireDirty
}

// DoPresent returns whether the last pass that painted the surface
// also presented it.
func (s *Surface) DoPresent(tok system.Token) bool {
	mustToken(tok)
	return s.doPresent
}

// MarkDirty records that the content of the surface changed and queues it
// for the next pass. It does nothing for a surface with no stage.
// Calling it again before the pass is a no-op.
func (s *Surface) MarkDirty(tok system.Token) {
	mustToken(tok)
	if s.disposed || s.Stage() == nil {
		return
	}
	s.entireDirty = true
	s.collector.AddDirty(tok, s)
}

// AttemptBeginPaint marks the surface as painting, returning false if a
// paint job is already in flight for it, in which case no other job may
// be submitted.
func (s *Surface) AttemptBeginPaint() bool {
	return s.painting.CompareAndSwap(false, true)
}

// OnPaintComplete clears the painting state. It must be called exactly
// once for each successful [Surface.AttemptBeginPaint].
func (s *Surface) OnPaintComplete() {
	if !s.painting.CompareAndSwap(true, false) {
		slog.Error("scene: paint completed for a surface that was not painting", "surface", s.name)
	}
}

// SetStage attaches the surface to the given stage, or detaches it for a
// nil stage. Attaching marks the whole surface dirty. Detaching removes
// it from the dirty queue, and a paint job still in flight completes
// without presenting.
func (s *Surface) SetStage(tok system.Token, st *Stage) {
	mustToken(tok)
	if s.disposed {
		return
	}
	if st == nil {
		s.collector.lock.Do(tok.Owner(), func() {
			s.stage.Store(nil)
		})
		s.collector.RemoveDirty(tok, s)
		return
	}
	old := s.stage.Swap(st)
	if old == nil {
		s.MarkDirty(tok)
	}
}

// Size returns the size of the surface.
func (s *Surface) Size(tok system.Token) image.Point {
	mustToken(tok)
	var sz image.Point
	s.collector.lock.Do(tok.Owner(), func() {
		sz = s.size
	})
	return sz
}

// Resize sets the size of the surface and marks it dirty.
func (s *Surface) Resize(tok system.Token, size image.Point) {
	mustToken(tok)
	s.collector.lock.Do(tok.Owner(), func() {
		s.size = size
	})
	s.MarkDirty(tok)
}

// Dispose detaches the surface and removes it from its collector.
// A disposed surface cannot be used again.
func (s *Surface) Dispose(tok system.Token) {
	mustToken(tok)
	if s.disposed {
		return
	}
	s.SetStage(tok, nil)
	s.collector.surfaces.Delete(s)
	s.entireDirty = false
	s.disposed = true
}

// paint is the body of a paint job, on the render goroutine.
// The surface is painted unlocked, since the scene state it reads was
// synchronized before the pass; the present is done under the render
// lock so that a detach cannot race with it.
func (s *Surface) paint(b render.Backend, present bool, owner any) error {
	var size image.Point
	attached := false
	s.collector.lock.Do(owner, func() {
		size = s.size
		attached = s.stage.Load() != nil
	})
	if !attached || s.painter == nil {
		return nil
	}
	pix, err := s.painter.Paint(b, size)
	if err != nil {
		return fmt.Errorf("scene: painting %s: %w", s.name, err)
	}
	if !present || s.presenter == nil || pix == nil {
		return nil
	}
	s.collector.lock.Do(owner, func() {
		if s.stage.Load() == nil {
			slog.Debug("scene: not presenting detached surface", "surface", s.name)
			return
		}
		err = s.presenter.Present(pix)
		if err == nil {
			s.presents.Add(1)
		}
	})
	if err != nil {
		return fmt.Errorf("scene: presenting %s: %w", s.name, err)
	}
	return nil
}

// frameRendered notifies the frame rendered observer, on the render goroutine.
func (s *Surface) frameRendered() {
	s.frames.Add(1)
	if s.onFrame == nil {
		return
	}
	errors.Log(errs.Protect(func() error {
		s.onFrame(s)
		return nil
	}))
}

// mustToken panics if tok was not issued by a main loop.
func mustToken(tok system.Token) {
	if !tok.Valid() {
		panic("scene: control thread operation called without a control thread token")
	}
}
