// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pulse

import (
	"sync"
	"time"
)

// Timer is the periodic timer that drives pulses.
type Timer interface {

	// Start starts calling f every interval, on a goroutine of the timer.
	// It does nothing if the timer is already started.
	Start(interval time.Duration, f func())

	// Pause stops the calls to f until [Timer.Resume].
	Pause()

	// Resume restarts the calls to f after [Timer.Pause].
	Resume()

	// Stop stops the timer for good.
	Stop()
}

// TickerTimer is a [Timer] based on a [time.Ticker]. The zero value is
// ready to use. The ticker itself is stopped while paused, so an idle
// timer does not wake up the process.
type TickerTimer struct {
	mu       sync.Mutex
	ticker   *time.Ticker
	interval time.Duration
	f        func()
	paused   bool
	done     chan struct{}
}

func (tt *TickerTimer) Start(interval time.Duration, f func()) {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.ticker != nil {
		return
	}
	tt.interval = interval
	tt.f = f
	tt.paused = false
	tt.ticker = time.NewTicker(interval)
	tt.done = make(chan struct{})
	go tt.tickLoop(tt.ticker, tt.done)
}

// tickLoop is the main loop of the timer goroutine.
func (tt *TickerTimer) tickLoop(tk *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-tk.C:
		}
		tt.mu.Lock()
		f := tt.f
		paused := tt.paused
		tt.mu.Unlock()
		if !paused && f != nil {
			f() // called unlocked, since f may pause or resume the timer
		}
	}
}

func (tt *TickerTimer) Pause() {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.ticker == nil || tt.paused {
		return
	}
	tt.paused = true
	tt.ticker.Stop()
}

func (tt *TickerTimer) Resume() {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.ticker == nil || !tt.paused {
		return
	}
	tt.paused = false
	tt.ticker.Reset(tt.interval)
}

// Paused returns whether the timer is paused.
func (tt *TickerTimer) Paused() bool {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return tt.paused
}

func (tt *TickerTimer) Stop() {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	if tt.ticker == nil {
		return
	}
	tt.ticker.Stop()
	close(tt.done)
	tt.ticker = nil
	tt.f = nil
}
