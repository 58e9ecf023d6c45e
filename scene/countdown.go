// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/pulse/base/errs"
)

// countdown counts the paint jobs of a render pass that have not yet
// completed. It is reset by the control thread at the start of a pass
// and counted down by completions on the render goroutine.
type countdown struct {
	count atomic.Int64

	// mu guards replacing and closing zero.
	mu sync.Mutex

	// zero is closed while the count is zero.
	zero chan struct{}
}

func newCountdown() *countdown {
	cd := &countdown{zero: make(chan struct{})}
	close(cd.zero)
	return cd
}

// Reset starts a new phase of n completions. The previous phase must
// have drained: Reset panics otherwise.
func (cd *countdown) Reset(n int) {
	if n <= 0 {
		return
	}
	cd.mu.Lock()
	defer cd.mu.Unlock()
	select {
	case <-cd.zero:
	default:
		panic("scene: render pass started before the previous one completed")
	}
	cd.zero = make(chan struct{})
	cd.count.Store(int64(n))
}

// CountDown records one completion and returns the remaining count.
// The call that reaches zero runs atZero, if non-nil, and then releases
// the waiters. A count down at zero is logged and ignored, so the
// count never goes negative.
func (cd *countdown) CountDown(atZero func()) int64 {
	for {
		n := cd.count.Load()
		if n <= 0 {
			slog.Error("scene: render completion without a pending paint job")
			return 0
		}
		if !cd.count.CompareAndSwap(n, n-1) {
			continue
		}
		if n > 1 {
			return n - 1
		}
		if atZero != nil {
			errors.Log(errs.Protect(func() error {
				atZero()
				return nil
			}))
		}
		cd.mu.Lock()
		close(cd.zero)
		cd.mu.Unlock()
		return 0
	}
}

// Count returns the number of completions still pending.
func (cd *countdown) Count() int64 {
	return cd.count.Load()
}

// Zero returns a channel that is closed when the current phase has drained.
func (cd *countdown) Zero() <-chan struct{} {
	cd.mu.Lock()
	defer cd.mu.Unlock()
	return cd.zero
}
