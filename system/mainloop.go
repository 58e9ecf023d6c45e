// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package system provides the control thread of the pulse toolkit:
// a main loop on which all scene mutation and pulse state transitions
// run, and the [Token] that proves code is running on it.
package system

import (
	"context"
	"runtime"
	"sync"

	"cogentcore.org/core/base/errors"
	"cogentcore.org/pulse/base/errs"
)

// ErrLoopStopped is returned by [MainLoop.RunOnMain] when the
// loop has stopped.
var ErrLoopStopped = errors.New("system: main loop stopped")

// Token is the capability of running on the control thread. It is only
// handed out by a [MainLoop] to functions it runs, and every operation
// that must be confined to the control thread requires one as an argument.
// A Token must not be retained or passed to other goroutines.
type Token struct {
	loop *MainLoop
}

// Valid returns whether the token was issued by a main loop.
func (t Token) Valid() bool {
	return t.loop != nil
}

// Owner returns the identity of the control thread, for use with
// reentrant locks shared with other goroutines.
func (t Token) Owner() any {
	return t.loop
}

// Dispatcher runs functions on the control thread.
// [MainLoop] is the standard implementation.
type Dispatcher interface {

	// RunOnMain runs the function on the control thread and waits
	// for it to return.
	RunOnMain(f func(tok Token)) error

	// GoRunOnMain queues the function to run on the control thread
	// and returns immediately.
	GoRunOnMain(f func(tok Token))
}

// funcRun is a function queued on the main loop, with an optional
// channel closed when it has run.
type funcRun struct {
	f    func(tok Token)
	done chan struct{}
}

// MainLoop is the control thread. Queued functions run one at a
// time, in the order they were queued, on the goroutine that calls
// [MainLoop.Run].
type MainLoop struct {
	mu      sync.Mutex
	queue   []funcRun
	wake    chan struct{}
	stopped chan struct{}
	stop    sync.Once
}

// NewMainLoop returns a new [MainLoop], which does nothing until
// [MainLoop.Run] is called.
func NewMainLoop() *MainLoop {
	return &MainLoop{
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
}

// Run processes queued functions until ctx is done or [MainLoop.Stop]
// is called. It locks the calling goroutine to its OS thread, since
// some platforms require window and event calls to happen there.
// A panic in a queued function is logged and does not stop the loop.
func (ml *MainLoop) Run(ctx context.Context) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer ml.Stop()
	tok := Token{loop: ml}
	for {
		for {
			fr, ok := ml.pop()
			if !ok {
				break
			}
			ml.call(tok, fr)
		}
		select {
		case <-ctx.Done():
			return
		case <-ml.stopped:
			return
		case <-ml.wake:
		}
	}
}

func (ml *MainLoop) call(tok Token, fr funcRun) {
	defer func() {
		if fr.done != nil {
			close(fr.done)
		}
	}()
	defer func() {
		errors.Log(errs.Recover(recover()))
	}()
	fr.f(tok)
}

func (ml *MainLoop) pop() (funcRun, bool) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	if len(ml.queue) == 0 {
		return funcRun{}, false
	}
	fr := ml.queue[0]
	ml.queue[0] = funcRun{}
	ml.queue = ml.queue[1:]
	return fr, true
}

func (ml *MainLoop) push(fr funcRun) bool {
	select {
	case <-ml.stopped:
		return false
	default:
	}
	ml.mu.Lock()
	ml.queue = append(ml.queue, fr)
	ml.mu.Unlock()
	select {
	case ml.wake <- struct{}{}:
	default:
	}
	return true
}

// RunOnMain runs the function on the control thread and waits for it
// to return. It must not be called from the control thread itself.
func (ml *MainLoop) RunOnMain(f func(tok Token)) error {
	done := make(chan struct{})
	if !ml.push(funcRun{f: f, done: done}) {
		return ErrLoopStopped
	}
	select {
	case <-done:
		return nil
	case <-ml.stopped:
		// it may have run just before stopping
		select {
		case <-done:
			return nil
		default:
			return ErrLoopStopped
		}
	}
}

// GoRunOnMain queues the function to run on the control thread and
// returns immediately. Functions queued after the loop has stopped
// are dropped.
func (ml *MainLoop) GoRunOnMain(f func(tok Token)) {
	ml.push(funcRun{f: f})
}

// Stop stops the loop after the function currently running, if any.
// Queued functions that have not started are dropped.
func (ml *MainLoop) Stop() {
	ml.stop.Do(func() { close(ml.stopped) })
}

// Stopped returns a channel that is closed when the loop stops.
func (ml *MainLoop) Stopped() <-chan struct{} {
	return ml.stopped
}
