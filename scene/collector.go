// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene tracks which surfaces need painting and runs the render
// pass of each pulse: the [Collector] batches the dirty [Surface] values
// into paint jobs for the render worker and signals when they are done.
package scene

import (
	"cmp"
	"log/slog"
	"slices"
	"sync/atomic"
	"time"

	"cogentcore.org/pulse/base/ordset"
	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/system"
)

// Counter names reported to [Stats].
const (
	CounterDirty    = "dirty surfaces"
	CounterSkipped  = "surfaces still painting"
	CounterPainted  = "painted surfaces"
	CounterPresents = "presenting surfaces"
)

// Requester is told when pulses are needed. The pulse driver implements it.
type Requester interface {

	// RequestNextPulse asks for a pulse on the next timer tick.
	RequestNextPulse()

	// VsyncHint asks for a pulse as soon as possible, because a render
	// pass that waited for vsync has just finished.
	VsyncHint()
}

// Stats receives render pass timing and counters; the pulse logger
// implements it. RenderEnd and RenderIncrementCounter are called on
// the render goroutine in pipelined mode.
type Stats interface {
	IncrementCounter(name string)
	RenderStart()
	RenderIncrementCounter(name string)
	RenderEnd()
}

// CollectorOptions are the options for [NewCollector].
type CollectorOptions struct {

	// Strategy is the presentation strategy; nil means [PerWindowSwap].
	Strategy PresentationStrategy

	// SingleThreaded makes each pass submit its jobs one at a time and
	// wait for each, instead of pipelining the pass with the next pulse.
	SingleThreaded bool

	// NoRenderJobs completes passes without submitting paint jobs.
	NoRenderJobs bool

	// NativeVsync is whether the platform sends its own vsync
	// notifications, so that no vsync hints are needed.
	NativeVsync bool

	// WaitWarn is how long a wait for rendering to complete lasts before
	// logging a warning and waiting again; 0 means two seconds.
	WaitWarn time.Duration

	// Stats, if set, receives pass timing and counters.
	Stats Stats
}

// Collector is the registry of dirty surfaces. Once per pulse,
// [Collector.RenderAll] submits one paint job for each of them to the
// render worker, never more than one in flight per surface, and counts
// the completions to know when the pass has finished.
//
// There is one Collector per toolkit session. The dirty set is only
// touched on the control thread; the only state shared with the render
// goroutine is the pending completion count and the per surface
// painting flag, which are atomic.
type Collector struct {
	worker    *render.Worker
	requester Requester
	opts      CollectorOptions

	// lock is the render lock, held by the control thread while changing
	// surface state that paint jobs read.
	lock render.Lock

	// surfaces are all live surfaces, in creation order.
	surfaces ordset.Set[*Surface]

	// dirty are the surfaces queued for the next pass.
	dirty ordset.Set[*Surface]

	// hasDirty mirrors dirty.Len() > 0 for polling from other goroutines.
	hasDirty atomic.Bool

	// needsHint is whether the current pass presents a synchronous surface.
	needsHint atomic.Bool

	pending *countdown
}

// NewCollector returns a new [Collector] that submits paint jobs to the
// given worker and asks the requester for pulses.
func NewCollector(worker *render.Worker, requester Requester, opts CollectorOptions) *Collector {
	if opts.Strategy == nil {
		opts.Strategy = PerWindowSwap{}
	}
	if opts.WaitWarn <= 0 {
		opts.WaitWarn = 2 * time.Second
	}
	return &Collector{
		worker:    worker,
		requester: requester,
		opts:      opts,
		pending:   newCountdown(),
	}
}

// Lock returns the render lock.
func (c *Collector) Lock() *render.Lock {
	return &c.lock
}

// NewSurface makes a new detached [Surface]; use [Surface.SetStage] to
// attach it.
func (c *Collector) NewSurface(tok system.Token, opts SurfaceOptions) *Surface {
	mustToken(tok)
	s := &Surface{
		name:        opts.Name,
		collector:   c,
		painter:     opts.Painter,
		presenter:   opts.Presenter,
		synchronous: opts.Synchronous,
		onFrame:     opts.OnFrameRendered,
		size:        opts.Size,
	}
	c.surfaces.Add(s)
	return s
}

// Surfaces returns all live surfaces in creation order.
func (c *Collector) Surfaces(tok system.Token) []*Surface {
	mustToken(tok)
	return c.surfaces.Values()
}

// AddDirty queues the surface for the next pass, if it has a stage,
// and asks for a pulse. Adding a queued surface again is a no-op.
func (c *Collector) AddDirty(tok system.Token, s *Surface) {
	mustToken(tok)
	if s.disposed || s.Stage() == nil {
		return
	}
	if c.dirty.Add(s) && c.opts.Stats != nil {
		c.opts.Stats.IncrementCounter(CounterDirty)
	}
	c.hasDirty.Store(true)
	if c.requester != nil {
		c.requester.RequestNextPulse()
	}
}

// RemoveDirty removes the surface from the queue, for example because
// it was detached or hidden.
func (c *Collector) RemoveDirty(tok system.Token, s *Surface) {
	mustToken(tok)
	c.dirty.Delete(s)
	c.hasDirty.Store(c.dirty.Len() > 0)
}

// HasDirty returns whether any surface is queued. It may be called
// from any goroutine.
func (c *Collector) HasDirty() bool {
	return c.hasDirty.Load()
}

// IsDirty returns whether the surface is queued.
func (c *Collector) IsDirty(tok system.Token, s *Surface) bool {
	mustToken(tok)
	return c.dirty.Has(s)
}

// DirtyLen returns the number of queued surfaces.
func (c *Collector) DirtyLen(tok system.Token) int {
	mustToken(tok)
	return c.dirty.Len()
}

// Pending returns the number of paint jobs of the current pass that have
// not completed. It may be called from any goroutine.
func (c *Collector) Pending() int64 {
	return c.pending.Count()
}

// WaitForRenderingToComplete waits until every paint job of the current
// pass has completed. The wait is repeated, with a warning, each time
// it lasts longer than [CollectorOptions.WaitWarn]: it never returns
// before the pass is done, since starting another pass early would put
// two paint jobs for one surface in flight.
func (c *Collector) WaitForRenderingToComplete() {
	zero := c.pending.Zero()
	select {
	case <-zero:
		return
	default:
	}
	t := time.NewTimer(c.opts.WaitWarn)
	defer t.Stop()
	for {
		select {
		case <-zero:
			return
		case <-t.C:
			slog.Warn("scene: still waiting for rendering to complete", "pending", c.pending.Count())
			t.Reset(c.opts.WaitWarn)
		}
	}
}

// asyncFirst orders surfaces that present without waiting for vsync
// before those that wait, so that the one blocking wait comes last.
func asyncFirst(a, b *Surface) int {
	return cmp.Compare(btoi(a.synchronous), btoi(b.synchronous))
}

func btoi(b bool) int {
	if b {
		return 1
	}
	return 0
}

// attached returns the surfaces that have a stage, in stacking order.
func (c *Collector) attached() []*Surface {
	var att []*Surface
	for _, s := range c.surfaces.Values() {
		if s.Stage() != nil {
			att = append(att, s)
		}
	}
	slices.SortStableFunc(att, func(a, b *Surface) int {
		return cmp.Compare(a.Stage().Order, b.Stage().Order)
	})
	return att
}

// RenderAll runs the render pass of a pulse: it submits one paint job
// for each queued surface, asynchronous presenters first, and clears the
// queue. A queued surface that is still painting from an earlier pass
// stays queued for the next one. It does nothing when no surface is queued.
//
// In single threaded mode the jobs run one at a time and RenderAll
// returns when they are done; otherwise it returns once they are
// submitted, and [Collector.WaitForRenderingToComplete] waits for them.
func (c *Collector) RenderAll(tok system.Token) {
	mustToken(tok)
	if !c.hasDirty.Load() {
		return
	}
	// a new pass must not begin until the previous one has drained
	c.WaitForRenderingToComplete()

	c.dirty.SortStableFunc(asyncFirst)
	dirty := c.dirty.Values()
	pass := c.opts.Strategy.Pass(dirty, c.attached())
	slices.SortStableFunc(pass, asyncFirst)

	c.hasDirty.Store(false)
	c.dirty.Reset()

	wasDirty := make(map[*Surface]bool, len(dirty))
	for _, s := range dirty {
		wasDirty[s] = true
	}
	var jobs []*Surface
	needsHint := false
	for _, s := range pass {
		if !s.AttemptBeginPaint() {
			if c.opts.Stats != nil {
				c.opts.Stats.IncrementCounter(CounterSkipped)
			}
			if wasDirty[s] {
				c.AddDirty(tok, s)
			}
			continue
		}
		s.entireDirty = false
		jobs = append(jobs, s)
	}
	if len(jobs) == 0 {
		return
	}
	for i, s := range jobs {
		s.doPresent = c.opts.Strategy.Present(i, len(jobs))
		if !s.doPresent {
			continue
		}
		// only a presenting synchronous surface waits for vsync
		if s.synchronous {
			needsHint = true
		}
		if c.opts.Stats != nil {
			c.opts.Stats.IncrementCounter(CounterPresents)
		}
	}
	if c.opts.Stats != nil {
		c.opts.Stats.RenderStart()
	}

	switch {
	case c.opts.NoRenderJobs:
		for _, s := range jobs {
			c.completeSurface(s)
		}
		c.passDone(needsHint)
	case c.opts.SingleThreaded:
		for _, s := range jobs {
			c.worker.Submit(c.paintJob(s, s.doPresent, func(err error) {
				c.completeSurface(s)
			})).Wait()
		}
		c.passDone(needsHint)
	default:
		c.needsHint.Store(needsHint)
		c.pending.Reset(len(jobs))
		for _, s := range jobs {
			c.worker.Submit(c.paintJob(s, s.doPresent, func(err error) {
				c.renderCompleted(s)
			}))
		}
	}
}

// LiveRepaint paints and presents one surface immediately, waiting for
// the paint job to finish. It is used while a window is being resized,
// when waiting for the next pulse would show stale content.
func (c *Collector) LiveRepaint(tok system.Token, s *Surface) {
	mustToken(tok)
	if s.disposed || s.Stage() == nil {
		return
	}
	c.WaitForRenderingToComplete()
	if !s.AttemptBeginPaint() {
		return
	}
	c.RemoveDirty(tok, s)
	s.entireDirty = false
	s.doPresent = true
	c.worker.Submit(c.paintJob(s, true, func(err error) {
		c.completeSurface(s)
	})).Wait()
}

// paintJob returns the render job that paints s.
func (c *Collector) paintJob(s *Surface, present bool, done func(err error)) render.Job {
	owner := c.worker.Owner()
	return render.Job{
		Name: s.name,
		Run: func(b render.Backend) error {
			return s.paint(b, present, owner)
		},
		OnComplete: done,
	}
}

// completeSurface records the end of a paint job for s.
func (c *Collector) completeSurface(s *Surface) {
	s.OnPaintComplete()
	s.frameRendered()
	if c.opts.Stats != nil {
		c.opts.Stats.RenderIncrementCounter(CounterPainted)
	}
}

// renderCompleted is the completion of a pipelined paint job, on the
// render goroutine. The last one of a pass ends it.
func (c *Collector) renderCompleted(s *Surface) {
	c.completeSurface(s)
	c.pending.CountDown(func() {
		c.passDone(c.needsHint.Load())
	})
}

// passDone ends a render pass, asking for a pulse right away if the pass
// waited for vsync and the platform does not report vsync itself.
func (c *Collector) passDone(needsHint bool) {
	if c.opts.Stats != nil {
		c.opts.Stats.RenderEnd()
	}
	if needsHint && !c.opts.NativeVsync && c.requester != nil {
		c.requester.VsyncHint()
	}
}
