// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"cogentcore.org/pulse/settings"
)

// PresentationStrategy decides which surfaces a render pass paints and
// which of them present their pixels to the screen. It is chosen once
// at startup, based on whether the platform composites windows natively.
type PresentationStrategy interface {

	// Pass returns the surfaces to paint in a pass, given the dirty
	// surfaces and all surfaces attached to a stage, in stacking order.
	Pass(dirty, attached []*Surface) []*Surface

	// Present returns whether the surface at index i of the n surfaces
	// submitted in a pass presents its pixels.
	Present(i, n int) bool
}

// PerWindowSwap is the [PresentationStrategy] for platforms with a
// window manager: only dirty surfaces are painted, and each one swaps
// its own window buffer.
type PerWindowSwap struct{}

func (PerWindowSwap) Pass(dirty, attached []*Surface) []*Surface {
	return dirty
}

func (PerWindowSwap) Present(i, n int) bool {
	return true
}

// FullRecopyEachFrame is the [PresentationStrategy] for platforms without
// a window manager, where all windows are composed into one screen
// buffer: every attached surface is painted on every pass, dirty or not,
// and only the last one submitted presents the composed frame.
type FullRecopyEachFrame struct{}

func (FullRecopyEachFrame) Pass(dirty, attached []*Surface) []*Surface {
	pass := make([]*Surface, 0, len(attached))
	pass = append(pass, dirty...)
	in := make(map[*Surface]bool, len(dirty))
	for _, s := range dirty {
		in[s] = true
	}
	for _, s := range attached {
		if !in[s] {
			pass = append(pass, s)
		}
	}
	return pass
}

func (FullRecopyEachFrame) Present(i, n int) bool {
	return i == n-1
}

// StrategyFor returns the [PresentationStrategy] for the given
// [settings.Settings.Presentation] value; unknown values get [PerWindowSwap].
func StrategyFor(presentation string) PresentationStrategy {
	if presentation == settings.FullRecopy {
		return FullRecopyEachFrame{}
	}
	return PerWindowSwap{}
}
