// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"image"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"cogentcore.org/pulse/driver/offscreen"
	"cogentcore.org/pulse/pulse"
	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/scene"
	"cogentcore.org/pulse/settings"
	"cogentcore.org/pulse/system"
	"github.com/gogpu/gg"
)

// windowSize is the size of each demo window.
var windowSize = image.Pt(160, 120)

var palette = []gg.RGBA{
	gg.Hex("#e53935"),
	gg.Hex("#1e88e5"),
	gg.Hex("#43a047"),
	gg.Hex("#fdd835"),
	gg.Hex("#8e24aa"),
}

var background = gg.Hex("#202124")

// ball is one demo window, showing a ball bouncing at its own speed.
type ball struct {
	name    string
	color   gg.RGBA
	speed   float64
	surface *scene.Surface
	window  *offscreen.Window

	// phase is the scene state, control thread only.
	phase float64

	// drawn is the render state, guarded by the render lock.
	drawn float64

	frames atomic.Int64
}

// demo is the scene of the demo: a few windows animated by the pulse
// driver. In the full recopy presentation they share one screen.
type demo struct {
	d      *pulse.Driver
	worker *render.Worker
	balls  []*ball
	screen *offscreen.Screen
	start  time.Time
}

func newDemo(d *pulse.Driver, worker *render.Worker, cfg *settings.Settings, n int) *demo {
	dm := &demo{d: d, worker: worker}
	for i := range n {
		dm.balls = append(dm.balls, &ball{
			name:  fmt.Sprintf("window%d", i),
			color: palette[i%len(palette)],
			speed: 1 + 0.5*float64(i),
		})
	}
	if cfg.Presentation == settings.FullRecopy {
		dm.screen = offscreen.NewScreen(image.Pt(windowSize.X*n, windowSize.Y))
	}
	return dm
}

// setup makes the surfaces and starts the animation.
func (dm *demo) setup(tok system.Token) {
	c := dm.d.Collector()
	for i, b := range dm.balls {
		opts := scene.SurfaceOptions{
			Name:        b.name,
			Size:        windowSize,
			Painter:     offscreen.Painter(b.name, dm.drawFunc(b)),
			Synchronous: i%2 == 1,
			OnFrameRendered: func(s *scene.Surface) {
				b.frames.Add(1)
			},
		}
		if dm.screen != nil {
			r := image.Rectangle{Min: image.Pt(i*windowSize.X, 0)}
			r.Max = r.Min.Add(windowSize)
			opts.Painter = dm.screen.Painter(r, i, opts.Painter)
			opts.Presenter = dm.screen
		} else {
			b.window = offscreen.NewWindow(b.name, windowSize)
			opts.Presenter = b.window
		}
		b.surface = c.NewSurface(tok, opts)
		b.surface.SetStage(tok, &scene.Stage{Name: b.name, Order: i})
	}
	dm.start = time.Now()
	dm.d.AddPulseHook(tok, dm.sync)
	dm.d.SetAnimation(tok, dm.animate)
}

// animate advances the scene state and marks the windows dirty.
func (dm *demo) animate(tok system.Token, now time.Time) {
	t := now.Sub(dm.start).Seconds()
	for _, b := range dm.balls {
		b.phase = t * b.speed
		b.surface.MarkDirty(tok)
	}
}

// sync copies the scene state into the render state.
func (dm *demo) sync(tok system.Token) {
	dm.d.Collector().Lock().Do(tok.Owner(), func() {
		for _, b := range dm.balls {
			b.drawn = b.phase
		}
	})
}

// drawFunc returns the function drawing b, on the render goroutine.
func (dm *demo) drawFunc(b *ball) offscreen.DrawFunc {
	return func(dc *gg.Context, size image.Point) error {
		var phase float64
		dm.d.Collector().Lock().Do(dm.worker.Owner(), func() {
			phase = b.drawn
		})
		w, h := float64(size.X), float64(size.Y)
		r := h / 8
		x := r + (w-2*r)*(0.5+0.5*math.Sin(phase))
		y := h - r - (h-2*r)*math.Abs(math.Sin(phase*2))
		dc.ClearWithColor(background)
		dc.SetRGBA(b.color.R, b.color.G, b.color.B, b.color.A)
		dc.DrawCircle(x, y, r)
		return dc.Fill()
	}
}

// report logs the pulse and frame counts.
func (dm *demo) report() {
	slog.Info("pulses", "count", dm.d.Pulses())
	for _, b := range dm.balls {
		presented := int64(0)
		if b.surface != nil {
			presented = b.surface.FramesPresented()
		}
		slog.Info("window", "name", b.name, "rendered", b.frames.Load(), "presented", presented)
	}
	if dm.screen != nil {
		slog.Info("screen", "flips", dm.screen.Flips())
	}
}

// save saves the last frame of each window, or of the screen, to dir.
func (dm *demo) save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if dm.screen != nil {
		return dm.screen.SavePNG(filepath.Join(dir, "screen.png"))
	}
	for _, b := range dm.balls {
		if b.window == nil {
			continue
		}
		if err := b.window.SavePNG(filepath.Join(dir, b.name+".png")); err != nil {
			return err
		}
	}
	return nil
}
