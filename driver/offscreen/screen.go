// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package offscreen

import (
	"cmp"
	"image"
	"image/draw"
	"slices"
	"sync"

	"cogentcore.org/pulse/render"
	"cogentcore.org/pulse/scene"
)

// Screen is a single screen buffer shared by several windows, as on
// platforms without a window manager. It is meant for the full recopy
// presentation: each painted surface is recopied into its own layer, and
// the surface that presents composes the layers into the back buffer in
// stacking order and flips it to the front one. The composed frame does
// not depend on the order in which the surfaces were painted.
type Screen struct {
	mu     sync.Mutex
	back   *image.RGBA
	front  *image.RGBA
	layers []*layer
	flips  int
}

// layer is the last painted content of one window on a [Screen].
type layer struct {
	r   image.Rectangle
	z   int
	pix *image.RGBA
}

// NewScreen returns a new [Screen] of the given size.
func NewScreen(size image.Point) *Screen {
	r := image.Rectangle{Max: size}
	return &Screen{back: image.NewRGBA(r), front: image.NewRGBA(r)}
}

// Painter wraps p so that the painted pixels are also recopied into a
// layer of the screen at the given rectangle. Layers with a higher z are
// composed over lower ones; equal z values keep the order in which their
// painters were made. z is normally the [scene.Stage] Order of the window.
func (sc *Screen) Painter(r image.Rectangle, z int, p scene.Painter) scene.Painter {
	sc.mu.Lock()
	l := &layer{r: r.Intersect(sc.back.Bounds()), z: z}
	sc.layers = append(sc.layers, l)
	slices.SortStableFunc(sc.layers, func(a, b *layer) int {
		return cmp.Compare(a.z, b.z)
	})
	sc.mu.Unlock()

	return scene.PainterFunc(func(b render.Backend, size image.Point) (image.Image, error) {
		pix, err := p.Paint(b, size)
		if err != nil || pix == nil {
			return pix, err
		}
		sc.mu.Lock()
		if l.pix == nil {
			l.pix = image.NewRGBA(l.r)
		}
		blit(l.pix, l.r, pix)
		sc.mu.Unlock()
		return pix, nil
	})
}

// Present composes the layers into the back buffer and flips it to the
// front buffer. The pixels of the presenting surface were already
// recopied by its painter.
func (sc *Screen) Present(pix image.Image) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	draw.Draw(sc.back, sc.back.Bounds(), image.Transparent, image.Point{}, draw.Src)
	for _, l := range sc.layers {
		if l.pix != nil {
			draw.Draw(sc.back, l.r, l.pix, l.r.Min, draw.Over)
		}
	}
	copy(sc.front.Pix, sc.back.Pix)
	sc.flips++
	return nil
}

// Flips returns the number of composed frames presented.
func (sc *Screen) Flips() int {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.flips
}

// Snapshot returns a copy of the front buffer.
func (sc *Screen) Snapshot() *image.RGBA {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return cloneRGBA(sc.front)
}

// SavePNG saves the front buffer to a PNG file.
func (sc *Screen) SavePNG(path string) error {
	return savePNG(path, sc.Snapshot())
}
