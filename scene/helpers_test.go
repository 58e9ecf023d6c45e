// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"

	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/system"
	"github.com/stretchr/testify/require"
)

type testBackend struct{}

func (testBackend) Name() string   { return "test" }
func (testBackend) Release() error { return nil }

type testRequester struct {
	requests atomic.Int32
	hints    atomic.Int32
}

func (r *testRequester) RequestNextPulse() { r.requests.Add(1) }
func (r *testRequester) VsyncHint()        { r.hints.Add(1) }

// paintLog records the order in which surfaces are painted.
type paintLog struct {
	mu    sync.Mutex
	names []string
}

func (pl *paintLog) add(name string) {
	pl.mu.Lock()
	pl.names = append(pl.names, name)
	pl.mu.Unlock()
}

func (pl *paintLog) get() []string {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	return append([]string(nil), pl.names...)
}

// gate blocks a painter until it is opened.
type gate struct {
	entered chan struct{}
	open    chan struct{}
}

func newGate() *gate {
	return &gate{entered: make(chan struct{}, 16), open: make(chan struct{})}
}

func (g *gate) wait() {
	g.entered <- struct{}{}
	<-g.open
}

type fixture struct {
	t       *testing.T
	loop    *system.MainLoop
	worker  *render.Worker
	req     *testRequester
	c       *Collector
	painted *paintLog
}

func newFixture(t *testing.T, opts CollectorOptions) *fixture {
	f := &fixture{
		t:       t,
		loop:    system.NewMainLoop(),
		worker:  render.NewWorker(func() (render.Backend, error) { return testBackend{}, nil }),
		req:     &testRequester{},
		painted: &paintLog{},
	}
	f.c = NewCollector(f.worker, f.req, opts)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		f.loop.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		f.c.WaitForRenderingToComplete()
		f.worker.Stop()
		cancel()
		<-done
	})
	return f
}

// run runs fn on the control thread.
func (f *fixture) run(fn func(tok system.Token)) {
	require.NoError(f.t, f.loop.RunOnMain(fn))
}

// surface makes an attached surface that records its paints, waiting
// on g if it is non-nil.
func (f *fixture) surface(name string, sync bool, g *gate, pr Presenter) *Surface {
	var s *Surface
	f.run(func(tok system.Token) {
		s = f.c.NewSurface(tok, SurfaceOptions{
			Name:        name,
			Size:        image.Pt(4, 4),
			Synchronous: sync,
			Presenter:   pr,
			Painter: PainterFunc(func(b render.Backend, size image.Point) (image.Image, error) {
				f.painted.add(name)
				if g != nil {
					g.wait()
				}
				return image.NewRGBA(image.Rectangle{Max: size}), nil
			}),
		})
		s.SetStage(tok, &Stage{Name: name})
	})
	return s
}

type countPresenter struct {
	n atomic.Int32
}

func (p *countPresenter) Present(pix image.Image) error {
	p.n.Add(1)
	return nil
}
