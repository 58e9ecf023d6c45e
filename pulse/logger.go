// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pulse

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"
)

// MaxRecords is the number of recent pulse records kept by a [Logger].
const MaxRecords = 64

// Phase is a named phase of a pulse, starting at an offset from the
// start of the pulse.
type Phase struct {
	Name  string
	Start time.Duration
}

// Record is the timing and counters of one pulse.
type Record struct {

	// Pulse is the number of the pulse, starting at 1.
	Pulse int64

	// Start is when the pulse started.
	Start time.Time

	// Duration is how long the pulse body ran on the control thread.
	Duration time.Duration

	// Phases are the phases of the pulse body, in order.
	Phases []Phase

	// Counters are counted on the control thread during the pulse and
	// in between it and the previous one.
	Counters map[string]int

	// Rendered is whether the pulse started a render pass.
	Rendered bool

	// RenderStart is the offset of the start of the render pass.
	RenderStart time.Duration

	// RenderDuration is how long the render pass took.
	RenderDuration time.Duration

	// RenderCounters are counted on the render goroutine.
	RenderCounters map[string]int

	ended     bool
	rendering bool
}

// Total returns the time from the start of the pulse to the end of
// its pulse body or of its render pass, whichever is later.
func (r *Record) Total() time.Duration {
	if r.Rendered {
		return max(r.Duration, r.RenderStart+r.RenderDuration)
	}
	return r.Duration
}

func (r *Record) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "pulse %d: %v", r.Pulse, r.Total())
	for _, p := range r.Phases {
		fmt.Fprintf(&b, " [%s @%v]", p.Name, p.Start)
	}
	if r.Rendered {
		fmt.Fprintf(&b, " render %v+%v", r.RenderStart, r.RenderDuration)
	}
	return b.String()
}

// counterAttrs returns slog attributes for the counters, sorted by name.
func counterAttrs(counters map[string]int) []any {
	var attrs []any
	for _, k := range slices.Sorted(maps.Keys(counters)) {
		attrs = append(attrs, slog.Int(k, counters[k]))
	}
	return attrs
}

// Logger records the timing and counters of each pulse, keeps the most
// recent [MaxRecords] of them, and logs the pulses that take at least a
// threshold duration. It is purely observational. All methods are
// safe on a nil Logger, which records nothing.
//
// PulseStart, NewPhase, IncrementCounter and PulseEnd are called on the
// control thread; RenderStart is called there too, at the start of the
// render pass of a pulse, which then may end on the render goroutine
// after the pulse itself has ended.
type Logger struct {
	mu        sync.Mutex
	log       *slog.Logger
	threshold time.Duration
	clock     func() time.Time
	pulses    int64

	// fresh collects counters between pulses.
	fresh map[string]int

	// pulse is the record of the pulse in progress.
	pulse *Record

	// render is the record of the render pass in progress.
	render *Record

	records []*Record
}

// NewLogger returns a new [Logger] that logs to log, or [slog.Default] if
// it is nil, every pulse taking at least threshold. A negative threshold
// disables logging; the records are kept regardless.
func NewLogger(log *slog.Logger, threshold time.Duration) *Logger {
	if log == nil {
		log = slog.Default()
	}
	return &Logger{log: log, threshold: threshold, clock: time.Now, fresh: map[string]int{}}
}

// SetThreshold sets the logging threshold; a negative threshold disables logging.
func (l *Logger) SetThreshold(threshold time.Duration) {
	if l == nil {
		return
	}
	l.mu.Lock()
	l.threshold = threshold
	l.mu.Unlock()
}

// PulseStart starts the record of a new pulse.
func (l *Logger) PulseStart() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pulses++
	l.pulse = &Record{
		Pulse:          l.pulses,
		Start:          l.clock(),
		Counters:       l.fresh,
		RenderCounters: map[string]int{},
	}
	l.fresh = map[string]int{}
}

// NewPhase starts a new named phase of the pulse in progress.
func (l *Logger) NewPhase(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pulse == nil {
		return
	}
	l.pulse.Phases = append(l.pulse.Phases, Phase{Name: name, Start: l.clock().Sub(l.pulse.Start)})
}

// IncrementCounter increments the named counter of the pulse in
// progress, or of the next pulse if none is in progress.
func (l *Logger) IncrementCounter(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.pulse != nil {
		l.pulse.Counters[name]++
		return
	}
	l.fresh[name]++
}

// PulseEnd ends the pulse in progress. Its record is complete once its
// render pass, if any, has ended too.
func (l *Logger) PulseEnd() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.pulse
	if r == nil {
		return
	}
	l.pulse = nil
	r.Duration = l.clock().Sub(r.Start)
	r.ended = true
	if !r.rendering {
		l.finish(r)
	}
}

// RenderStart starts the render pass of the pulse in progress.
func (l *Logger) RenderStart() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.pulse
	if r == nil {
		return
	}
	r.Rendered = true
	r.rendering = true
	r.RenderStart = l.clock().Sub(r.Start)
	l.render = r
}

// RenderIncrementCounter increments the named counter of the render
// pass in progress.
func (l *Logger) RenderIncrementCounter(name string) {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.render != nil {
		l.render.RenderCounters[name]++
	}
}

// RenderEnd ends the render pass in progress.
func (l *Logger) RenderEnd() {
	if l == nil {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	r := l.render
	if r == nil {
		return
	}
	l.render = nil
	r.RenderDuration = l.clock().Sub(r.Start) - r.RenderStart
	r.rendering = false
	if r.ended {
		l.finish(r)
	}
}

// finish stores a complete record and logs it if it is slow;
// l.mu must be held.
func (l *Logger) finish(r *Record) {
	l.records = append(l.records, r)
	if len(l.records) > MaxRecords {
		l.records = slices.Delete(l.records, 0, len(l.records)-MaxRecords)
	}
	if l.threshold < 0 || r.Total() < l.threshold {
		return
	}
	attrs := []any{"pulse", r.Pulse, "total", r.Total(), "body", r.Duration}
	if r.Rendered {
		attrs = append(attrs, "render", r.RenderDuration)
	}
	if len(r.Phases) > 0 {
		names := make([]string, len(r.Phases))
		for i, p := range r.Phases {
			names[i] = fmt.Sprintf("%s@%v", p.Name, p.Start)
		}
		attrs = append(attrs, "phases", strings.Join(names, " "))
	}
	attrs = append(attrs, slog.Group("counters", counterAttrs(r.Counters)...))
	attrs = append(attrs, slog.Group("render_counters", counterAttrs(r.RenderCounters)...))
	l.log.Info("slow pulse", attrs...)
}

// Records returns copies of the most recent complete records, oldest first.
func (l *Logger) Records() []Record {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	recs := make([]Record, len(l.records))
	for i, r := range l.records {
		recs[i] = *r
		recs[i].Phases = slices.Clone(r.Phases)
		recs[i].Counters = maps.Clone(r.Counters)
		recs[i].RenderCounters = maps.Clone(r.RenderCounters)
	}
	return recs
}
