// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package offscreen

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"sync"

	xdraw "golang.org/x/image/draw"
)

// Window is an offscreen window: a [scene.Presenter] that copies presented
// pixels into its framebuffer, scaling them if their size differs from
// that of the window. It is safe for concurrent use.
type Window struct {
	name string

	mu     sync.Mutex
	fb     *image.RGBA
	frames int
}

// NewWindow returns a new [Window] with a framebuffer of the given size.
func NewWindow(name string, size image.Point) *Window {
	return &Window{name: name, fb: image.NewRGBA(image.Rectangle{Max: size})}
}

func (w *Window) Name() string {
	return w.name
}

// Present copies the pixels into the framebuffer.
func (w *Window) Present(pix image.Image) error {
	if pix == nil || pix.Bounds().Empty() {
		return fmt.Errorf("offscreen: nothing to present in %s", w.name)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	blit(w.fb, w.fb.Bounds(), pix)
	w.frames++
	return nil
}

// blit copies src into the rectangle r of dst, scaling it if needed.
func blit(dst *image.RGBA, r image.Rectangle, src image.Image) {
	sb := src.Bounds()
	if sb.Size() == r.Size() {
		draw.Draw(dst, r, src, sb.Min, draw.Src)
		return
	}
	xdraw.ApproxBiLinear.Scale(dst, r, src, sb, xdraw.Src, nil)
}

// Resize resizes the framebuffer, clearing it.
func (w *Window) Resize(size image.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.fb = image.NewRGBA(image.Rectangle{Max: size})
}

// Size returns the size of the framebuffer.
func (w *Window) Size() image.Point {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fb.Bounds().Size()
}

// Frames returns the number of frames presented.
func (w *Window) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

// Snapshot returns a copy of the framebuffer.
func (w *Window) Snapshot() *image.RGBA {
	w.mu.Lock()
	defer w.mu.Unlock()
	return cloneRGBA(w.fb)
}

func cloneRGBA(img *image.RGBA) *image.RGBA {
	c := image.NewRGBA(img.Bounds())
	copy(c.Pix, img.Pix)
	return c
}

// SavePNG saves the framebuffer to a PNG file.
func (w *Window) SavePNG(path string) error {
	return savePNG(path, w.Snapshot())
}

func savePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
