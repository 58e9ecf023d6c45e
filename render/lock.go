// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package render

import (
	"fmt"
	"sync"
)

// Lock is a reentrant mutual exclusion lock, keyed by an owner identity
// instead of a goroutine: the same owner may lock it again without
// blocking, and must unlock it as many times. The control thread uses
// its [system.Token.Owner] and the render goroutine uses its [Worker].
// The zero value is an unlocked Lock.
type Lock struct {
	mu    sync.Mutex
	cond  *sync.Cond
	owner any
	depth int
}

func (l *Lock) init() {
	if l.cond == nil {
		l.cond = sync.NewCond(&l.mu)
	}
}

// Lock locks l for owner, which must be non-nil and comparable,
// blocking while another owner holds it.
func (l *Lock) Lock(owner any) {
	if owner == nil {
		panic("render.Lock: nil owner")
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.init()
	for l.depth > 0 && l.owner != owner {
		l.cond.Wait()
	}
	l.owner = owner
	l.depth++
}

// Unlock undoes one Lock by owner. It panics if owner does not hold l.
func (l *Lock) Unlock(owner any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.depth == 0 || l.owner != owner {
		panic(fmt.Sprintf("render.Lock: unlock by %v, which does not hold the lock", owner))
	}
	l.depth--
	if l.depth == 0 {
		l.owner = nil
		l.init()
		l.cond.Broadcast()
	}
}

// Do runs f with l locked by owner, unlocking on every exit path,
// including a panic in f.
func (l *Lock) Do(owner any, f func()) {
	l.Lock(owner)
	defer l.Unlock(owner)
	f()
}

// HeldBy returns whether owner currently holds l.
func (l *Lock) HeldBy(owner any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.depth > 0 && l.owner == owner
}
