// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLockReentrant(t *testing.T) {
	var l Lock
	a, b := "control", "render"
	l.Lock(a)
	l.Lock(a)
	assert.True(t, l.HeldBy(a))

	got := make(chan struct{})
	go func() {
		l.Lock(b)
		close(got)
	}()
	l.Unlock(a)
	select {
	case <-got:
		t.Fatal("lock acquired while still held once")
	case <-time.After(20 * time.Millisecond):
	}
	l.Unlock(a)
	<-got
	assert.True(t, l.HeldBy(b))
	assert.False(t, l.HeldBy(a))
	l.Unlock(b)
}

func TestLockDoReleasesOnPanic(t *testing.T) {
	var l Lock
	assert.Panics(t, func() {
		l.Do("control", func() { panic("resize failed") })
	})
	assert.False(t, l.HeldBy("control"))
	l.Do("render", func() {
		assert.True(t, l.HeldBy("render"))
	})
}

func TestLockMisuse(t *testing.T) {
	var l Lock
	assert.Panics(t, func() { l.Unlock("control") })
	l.Lock("control")
	assert.Panics(t, func() { l.Unlock("render") })
	assert.Panics(t, func() { l.Lock(nil) })
	l.Unlock("control")
}
