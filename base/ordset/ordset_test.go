// Copyright (c) 2026, Cogent Core. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package ordset

import (
	"cmp"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSet(t *testing.T) {
	var s Set[string]
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has("a"))

	assert.True(t, s.Add("a"))
	assert.True(t, s.Add("b"))
	assert.False(t, s.Add("a"))
	assert.True(t, s.Add("c"))
	assert.Equal(t, []string{"a", "b", "c"}, s.Values())

	assert.True(t, s.Delete("b"))
	assert.False(t, s.Delete("b"))
	assert.Equal(t, []string{"a", "c"}, s.Values())
	assert.True(t, s.Has("c"))

	s.Reset()
	assert.Equal(t, 0, s.Len())
	assert.True(t, s.Add("c"))
}

func TestSortStable(t *testing.T) {
	s := New(5, 1, 4, 2, 3)
	s.SortStableFunc(func(a, b int) int { return cmp.Compare(a%2, b%2) })
	assert.Equal(t, []int{4, 2, 5, 1, 3}, s.Values())
	assert.True(t, s.Delete(2))
	assert.Equal(t, []int{4, 5, 1, 3}, s.Values())
	assert.True(t, s.Has(3))
}

func TestNilSet(t *testing.T) {
	var s *Set[int]
	assert.Equal(t, 0, s.Len())
	assert.False(t, s.Has(1))
	assert.Nil(t, s.Values())
}
