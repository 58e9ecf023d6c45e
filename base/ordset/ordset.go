// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package ordset implements an insertion-ordered set: a slice of items
with a map from item to index, to support fast membership tests while
keeping a deterministic iteration order.
It is derived from the keylist package, with the key being the value.
*/
package ordset

import (
	"fmt"
	"slices"
)

// Set is an insertion-ordered set of comparable values.
// The zero value is an empty set ready to use.
// It is not safe for concurrent use.
type Set[T comparable] struct {
	// values is the ordered slice of items.
	values []T

	// indexes is the value-to-index mapping.
	indexes map[T]int
}

// New returns a new [Set] containing the given values, in order.
func New[T comparable](vals ...T) *Set[T] {
	s := &Set[T]{}
	for _, v := range vals {
		s.Add(v)
	}
	return s
}

func (s *Set[T]) makeIndexes() {
	s.indexes = make(map[T]int, len(s.values))
	for i, v := range s.values {
		s.indexes[v] = i
	}
}

// Add adds the value to the end of the set if it is not already
// present, returning whether it was added.
func (s *Set[T]) Add(v T) bool {
	if s.indexes == nil {
		s.makeIndexes()
	}
	if _, ok := s.indexes[v]; ok {
		return false
	}
	s.indexes[v] = len(s.values)
	s.values = append(s.values, v)
	return true
}

// Has returns whether the value is in the set.
func (s *Set[T]) Has(v T) bool {
	if s == nil {
		return false
	}
	_, ok := s.indexes[v]
	return ok
}

// Delete removes the value, returning false if it was not present.
// This is relatively slow because it needs to regenerate the
// index map.
func (s *Set[T]) Delete(v T) bool {
	idx, ok := s.indexes[v]
	if !ok {
		return false
	}
	s.values = slices.Delete(s.values, idx, idx+1)
	s.makeIndexes()
	return true
}

// Len returns the number of items in the set.
func (s *Set[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.values)
}

// Values returns a copy of the items in insertion order.
func (s *Set[T]) Values() []T {
	if s == nil {
		return nil
	}
	return slices.Clone(s.values)
}

// Reset removes all items.
func (s *Set[T]) Reset() {
	s.values = nil
	s.indexes = nil
}

// SortStableFunc stably sorts the set with the given comparison
// function, which becomes the new iteration order.
func (s *Set[T]) SortStableFunc(cmp func(a, b T) int) {
	if len(s.values) < 2 {
		return
	}
	slices.SortStableFunc(s.values, cmp)
	s.makeIndexes()
}

// String returns a string representation of the set.
func (s *Set[T]) String() string {
	return fmt.Sprintf("%v", s.values)
}
