// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testBackend struct {
	name     string
	released atomic.Int32
}

func (b *testBackend) Name() string { return b.name }

func (b *testBackend) Release() error {
	b.released.Add(1)
	return nil
}

func factoryFor(b *testBackend, calls *atomic.Int32) BackendFactory {
	return func() (Backend, error) {
		if calls != nil {
			calls.Add(1)
		}
		return b, nil
	}
}

func failingFactory(msg string) BackendFactory {
	return func() (Backend, error) {
		return nil, errors.New(msg)
	}
}

func TestLazyInit(t *testing.T) {
	var calls atomic.Int32
	be := &testBackend{name: "test"}
	w := NewWorker(factoryFor(be, &calls))
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load(), "backend must not be made at construction")

	var got Backend
	require.NoError(t, w.Submit(Job{Run: func(b Backend) error {
		got = b
		return nil
	}}).Wait())
	assert.Equal(t, Backend(be), got)
	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, w.Ready(context.Background()))
	assert.Equal(t, int32(1), calls.Load())

	w.Stop()
	assert.Equal(t, int32(1), be.released.Load())
}

func TestFIFO(t *testing.T) {
	w := NewWorker(factoryFor(&testBackend{name: "test"}, nil))
	defer w.Stop()

	var mu sync.Mutex
	var order []int
	var futs []*Future
	for i := range 100 {
		futs = append(futs, w.Submit(Job{Run: func(b Backend) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}}))
	}
	for _, f := range futs {
		require.NoError(t, f.Wait())
	}
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestJobFailureDoesNotStopWorker(t *testing.T) {
	w := NewWorker(factoryFor(&testBackend{name: "test"}, nil))
	defer w.Stop()

	var completions []error
	var mu sync.Mutex
	onComplete := func(err error) {
		mu.Lock()
		completions = append(completions, err)
		mu.Unlock()
	}
	boom := errors.New("boom")
	f1 := w.Submit(Job{Name: "error", Run: func(b Backend) error { return boom }, OnComplete: onComplete})
	f2 := w.Submit(Job{Name: "panic", Run: func(b Backend) error { panic("paint exploded") }, OnComplete: onComplete})
	f3 := w.Submit(Job{Name: "ok", Run: func(b Backend) error { return nil }, OnComplete: onComplete})

	assert.ErrorIs(t, f1.Wait(), boom)
	assert.ErrorContains(t, f2.Wait(), "paint exploded")
	assert.NoError(t, f3.Wait())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, completions, 3)
	assert.ErrorIs(t, completions[0], boom)
	assert.Error(t, completions[1])
	assert.NoError(t, completions[2])
}

func TestFallbackBackend(t *testing.T) {
	be := &testBackend{name: "software"}
	w := NewWorker(failingFactory("no gpu"), factoryFor(be, nil))
	defer w.Stop()
	require.NoError(t, w.Ready(context.Background()))

	var got string
	require.NoError(t, w.Submit(Job{Run: func(b Backend) error {
		got = b.Name()
		return nil
	}}).Wait())
	assert.Equal(t, "software", got)
}

func TestNoBackend(t *testing.T) {
	w := NewWorker(failingFactory("no gpu"), failingFactory("no cpu either"))
	defer w.Stop()

	var completed atomic.Bool
	f := w.Submit(Job{
		Run:        func(b Backend) error { t.Error("job ran without a backend"); return nil },
		OnComplete: func(err error) { completed.Store(true) },
	})
	err := f.Wait()
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.True(t, completed.Load())

	err = w.Ready(context.Background())
	assert.ErrorIs(t, err, ErrNoBackend)
	assert.ErrorContains(t, err, "no gpu")
	assert.ErrorContains(t, err, "no cpu either")

	assert.ErrorIs(t, NewWorker().Ready(context.Background()), ErrNoBackend)
}

func TestStopCancelsPending(t *testing.T) {
	be := &testBackend{name: "test"}
	w := NewWorker(factoryFor(be, nil))

	started := make(chan struct{})
	release := make(chan struct{})
	f1 := w.Submit(Job{Run: func(b Backend) error {
		close(started)
		<-release
		return nil
	}})
	var cancelled atomic.Int32
	f2 := w.Submit(Job{OnComplete: func(err error) {
		if errors.Is(err, ErrStopped) {
			cancelled.Add(1)
		}
	}})
	<-started

	stopped := make(chan struct{})
	go func() {
		w.Stop()
		close(stopped)
	}()
	require.Eventually(t, func() bool {
		select {
		case <-w.quit:
			return true
		default:
			return false
		}
	}, time.Second, time.Millisecond)
	close(release)
	<-stopped

	assert.NoError(t, f1.Wait())
	assert.ErrorIs(t, f2.Wait(), ErrStopped)
	assert.Equal(t, int32(1), cancelled.Load())
	assert.Equal(t, int32(1), be.released.Load())
	assert.True(t, w.Stopped())

	// one-shot
	var after atomic.Bool
	f3 := w.Submit(Job{OnComplete: func(err error) { after.Store(errors.Is(err, ErrStopped)) }})
	assert.ErrorIs(t, f3.Err(), ErrStopped)
	assert.True(t, after.Load())
	assert.ErrorIs(t, w.Ready(context.Background()), ErrStopped)
	w.Stop()
}

func TestStopNeverStarted(t *testing.T) {
	var calls atomic.Int32
	w := NewWorker(factoryFor(&testBackend{}, &calls))
	w.Stop()
	assert.Equal(t, int32(0), calls.Load())
}

func TestReadyContext(t *testing.T) {
	block := make(chan struct{})
	defer close(block)
	w := NewWorker(func() (Backend, error) {
		<-block
		return &testBackend{}, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, w.Ready(ctx), context.DeadlineExceeded)
}
