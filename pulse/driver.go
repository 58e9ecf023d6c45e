// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pulse drives the toolkit pulse: on each tick of a periodic
// timer, while something is animating or a repaint was requested, it
// runs a pulse on the control thread that advances animations,
// synchronizes the scene, and starts a render pass of the
// [scene.Collector]. The timer is paused while the toolkit is idle.
package pulse

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/pulse/base/errs"
	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/scene"
	"cogentcore.org/pulse/settings"
	"cogentcore.org/pulse/system"
)

// Options are the collaborators of a [Driver].
type Options struct {

	// Loop runs the pulses on the control thread. It is required.
	Loop system.Dispatcher

	// Worker is the render worker. It is required.
	Worker *render.Worker

	// Timer drives the pulses; nil means a new [TickerTimer].
	Timer Timer

	// Clock returns the current time; nil means [time.Now].
	Clock func() time.Time

	// Logger records the pulses; nil means a new [Logger] writing to
	// [slog.Default] with the configured threshold.
	Logger *Logger

	// Strategy is the presentation strategy; nil means the one
	// selected by [settings.Settings.Presentation].
	Strategy scene.PresentationStrategy
}

// Driver is the pulse driver of a toolkit session. It owns the pulse
// timer and the [scene.Collector], and is the requester that the
// collector asks for pulses.
//
// Its state is four independent flags that are read and written from
// several goroutines: running, animating, requested (a pulse was asked
// for), and in progress (a pulse is scheduled or running).
type Driver struct {
	cfg       *settings.Settings
	loop      system.Dispatcher
	worker    *render.Worker
	timer     Timer
	clock     func() time.Time
	logger    *Logger
	collector *scene.Collector

	// pipelined is whether render passes run concurrently with the
	// control thread, so that a pulse must wait for the previous pass.
	pipelined bool

	running    atomic.Bool
	animating  atomic.Bool
	requested  atomic.Bool
	inProgress atomic.Bool

	// pulses is the number of pulse bodies that have run.
	pulses atomic.Int64

	// idleMu guards the idle debounce state and the pausing and
	// resuming of the timer.
	idleMu sync.Mutex

	// idleSince is when the driver was first seen idle in the current
	// idle stretch; zero if it was not.
	idleSince time.Time
	paused    bool
	grace     time.Duration

	// animation and hooks are control thread only.
	animation func(tok system.Token, now time.Time)
	hooks     []func(tok system.Token)
}

// New returns a new [Driver] for the given settings, or [settings.Default]
// if cfg is nil.
func New(cfg *settings.Settings, opts Options) (*Driver, error) {
	if cfg == nil {
		cfg = settings.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if opts.Loop == nil {
		return nil, errors.New("pulse: a control thread loop is required")
	}
	if opts.Worker == nil {
		return nil, errors.New("pulse: a render worker is required")
	}
	d := &Driver{
		cfg:       cfg,
		loop:      opts.Loop,
		worker:    opts.Worker,
		timer:     opts.Timer,
		clock:     opts.Clock,
		logger:    opts.Logger,
		grace:     cfg.IdleGraceDuration(),
		pipelined: !cfg.SingleThreaded && !cfg.NoRenderJobs,
	}
	if d.timer == nil {
		d.timer = &TickerTimer{}
	}
	if d.clock == nil {
		d.clock = time.Now
	}
	if d.logger == nil {
		d.logger = NewLogger(nil, cfg.PulseLogThresholdDuration())
		d.logger.clock = d.clock
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = scene.StrategyFor(cfg.Presentation)
	}
	d.collector = scene.NewCollector(d.worker, d, scene.CollectorOptions{
		Strategy:       strategy,
		SingleThreaded: cfg.SingleThreaded,
		NoRenderJobs:   cfg.NoRenderJobs,
		NativeVsync:    cfg.NativeVsync,
		WaitWarn:       cfg.RenderWaitWarnDuration(),
		Stats:          d.logger,
	})
	return d, nil
}

// Collector returns the collector of dirty surfaces.
func (d *Driver) Collector() *scene.Collector {
	return d.collector
}

// Logger returns the pulse logger.
func (d *Driver) Logger() *Logger {
	return d.logger
}

// Start initializes the render backend, waiting for it until ctx is
// done, and starts the pulse timer. A backend that cannot be
// initialized is fatal: the error is returned and no pulse will run.
func (d *Driver) Start(ctx context.Context) error {
	if err := d.worker.Ready(ctx); err != nil {
		return fmt.Errorf("pulse: starting render worker: %w", err)
	}
	d.running.Store(true)
	d.timer.Start(d.cfg.PulseInterval(), d.Tick)
	slog.Info("pulse: started", "interval", d.cfg.PulseInterval(), "pipelined", d.pipelined, "presentation", d.cfg.Presentation)
	return nil
}

// Stop stops the timer, waits for the current render pass to finish,
// and stops the render worker.
func (d *Driver) Stop() {
	wasRunning := d.running.Swap(false)
	d.timer.Stop()
	d.collector.WaitForRenderingToComplete()
	d.worker.Stop()
	if wasRunning {
		slog.Info("pulse: stopped", "pulses", d.pulses.Load())
	}
}

// Reload applies the settings that can change while running; for now
// that is only the pulse log threshold.
func (d *Driver) Reload(cfg *settings.Settings) {
	d.logger.SetThreshold(cfg.PulseLogThresholdDuration())
}

// Running returns whether the driver is started.
func (d *Driver) Running() bool {
	return d.running.Load()
}

// Animating returns whether an animation function is set.
func (d *Driver) Animating() bool {
	return d.animating.Load()
}

// PulseRequested returns whether a pulse was requested and has not yet run.
func (d *Driver) PulseRequested() bool {
	return d.requested.Load()
}

// InProgress returns whether a pulse is scheduled or running.
func (d *Driver) InProgress() bool {
	return d.inProgress.Load()
}

// Paused returns whether the timer is paused because the driver is idle.
func (d *Driver) Paused() bool {
	d.idleMu.Lock()
	defer d.idleMu.Unlock()
	return d.paused
}

// Pulses returns the number of pulses that have run.
func (d *Driver) Pulses() int64 {
	return d.pulses.Load()
}

// RequestNextPulse asks for a pulse on the next tick, resuming the
// timer if it is paused. It may be called from any goroutine.
func (d *Driver) RequestNextPulse() {
	d.requested.Store(true)
	d.wake()
}

// VsyncHint asks for a pulse right away, without waiting for the next
// tick. It is called when a render pass that waited for vsync ends, on
// platforms that do not report vsync themselves.
func (d *Driver) VsyncHint() {
	d.RequestNextPulse()
	d.schedule()
}

// SetAnimation sets the function run at the start of every pulse, which
// keeps pulses running while it is set. A nil function stops animating.
func (d *Driver) SetAnimation(tok system.Token, f func(tok system.Token, now time.Time)) {
	mustToken(tok)
	d.animation = f
	d.animating.Store(f != nil)
	if f != nil {
		d.RequestNextPulse()
	}
}

// AddPulseHook adds a function run on every pulse, after the animation
// and before the render pass, to synchronize scene state into the
// surfaces to paint.
func (d *Driver) AddPulseHook(tok system.Token, f func(tok system.Token)) {
	mustToken(tok)
	d.hooks = append(d.hooks, f)
}

// Tick is the timer callback. It schedules a pulse if one is wanted and
// none is in progress, continues the idle debounce if nothing is
// wanted, and drops the tick otherwise.
func (d *Driver) Tick() {
	if !d.running.Load() {
		return
	}
	if d.animating.Load() || d.requested.Load() {
		d.clearIdle()
		d.schedule()
		return
	}
	if d.inProgress.Load() {
		d.clearIdle()
		return
	}
	d.idleTick()
}

// schedule schedules a pulse on the control thread unless one is
// already in progress, returning whether it did.
func (d *Driver) schedule() bool {
	if !d.running.Load() || !d.inProgress.CompareAndSwap(false, true) {
		return false
	}
	d.loop.GoRunOnMain(d.pulse)
	return true
}

// clearIdle ends the current idle stretch.
func (d *Driver) clearIdle() {
	d.idleMu.Lock()
	d.idleSince = time.Time{}
	d.idleMu.Unlock()
}

// wake ends the current idle stretch and resumes the timer if it is paused.
func (d *Driver) wake() {
	d.idleMu.Lock()
	defer d.idleMu.Unlock()
	d.idleSince = time.Time{}
	if d.paused {
		d.paused = false
		d.timer.Resume()
		slog.Debug("pulse: resumed timer")
	}
}

// idleTick records an idle sample, pausing the timer once the driver
// has been idle for the grace period.
func (d *Driver) idleTick() {
	now := d.clock()
	d.idleMu.Lock()
	defer d.idleMu.Unlock()
	if d.paused {
		return
	}
	if d.idleSince.IsZero() {
		d.idleSince = now
		return
	}
	if now.Sub(d.idleSince) < d.grace {
		return
	}
	// a request made since the flags were read has already called
	// wake, or is blocked on idleMu and will resume the timer
	if d.animating.Load() || d.requested.Load() || d.inProgress.Load() {
		d.idleSince = time.Time{}
		return
	}
	d.idleSince = time.Time{}
	d.paused = true
	d.timer.Pause()
	slog.Debug("pulse: idle, paused timer")
}

// pulse is the pulse body, on the control thread.
func (d *Driver) pulse(tok system.Token) {
	defer d.inProgress.Store(false)
	defer func() {
		if err := errs.Recover(recover()); err != nil {
			slog.Error("pulse: pulse failed", "err", err)
		}
	}()
	d.logger.PulseStart()
	defer d.logger.PulseEnd()
	d.pulses.Add(1)

	d.requested.Store(false)
	if d.animation != nil {
		d.animating.Store(true)
		d.logger.NewPhase("animate")
		d.animation(tok, d.clock())
	}
	if d.pipelined {
		d.logger.NewPhase("wait for rendering")
		d.collector.WaitForRenderingToComplete()
	}
	d.logger.NewPhase("synchronize")
	for _, h := range d.hooks {
		h(tok)
	}
	d.logger.NewPhase("render all")
	d.collector.RenderAll(tok)
}

func mustToken(tok system.Token) {
	if !tok.Valid() {
		panic("pulse: control thread operation called without a control thread token")
	}
}
