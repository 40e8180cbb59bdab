// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package sparse implements a generic sparse array
// with popcount compression.
package sparse

import (
	"github.com/poluyan/mveqf/internal/bitset"
)

// Array, a generic implementation of a sparse array
// with popcount compression and payload T.
type Array[T any] struct {
	bitset.BitSet
	Items []T
}

// Get the value at i from sparse array.
//
// example: Array.Get(5) -> Array.Items[1]
//
//	                   ⬇
//	BitSet: [0|0|1|0|0|1|0|1|...] <- 3 bits set
//	Items:  [*|*|*]               <- len(Items) = 3
//	           ⬆
//
//	BitSet.Test(5):     true
//	BitSet.popcount(5): 2, for interval [0,5]
//	BitSet.Rank0(5):    1, equal popcount(5)-1
func (s *Array[T]) Get(i uint) (value T, ok bool) {
	if s.Test(i) {
		return s.Items[s.Rank0(i)], true
	}
	return
}

// MustGet, use it only after a successful test
// or the behavior is undefined, maybe it panics.
func (s *Array[T]) MustGet(i uint) T {
	return s.Items[s.Rank0(i)]
}

// Len returns the number of items in sparse array.
func (s *Array[T]) Len() int {
	return len(s.Items)
}

// CountBefore returns the number of set bits strictly before i, i.e. the
// number of items whose original index is < i. Unlike Rank0, i need not
// itself be set — this is how the quantile kernel evaluates the
// conditional CDF at an arbitrary grid vertex in O(words) time instead of
// scanning every child linearly.
func (s *Array[T]) CountBefore(i uint) int {
	if i == 0 {
		return 0
	}
	return s.Rank(i - 1)
}

// Select returns the original index of the item at position pos in
// Items (the inverse of Rank0), and whether pos was in range. Used by
// the sample trie to recover a child's grid index from its storage
// position when enumerating all children.
func (s *Array[T]) Select(pos int) (uint, bool) {
	if pos < 0 || pos >= s.Len() {
		return 0, false
	}
	i, ok := s.NextSet(0)
	for count := 0; ok; i, ok = s.NextSet(i + 1) {
		if count == pos {
			return i, true
		}
		count++
	}
	return 0, false
}

// InsertAt inserts a value at i into the sparse array, keeping the
// popcount-compression invariant (Items stay ordered by ascending i).
// If the value already exists, it is overwritten and exists is true.
func (s *Array[T]) InsertAt(i uint, value T) (exists bool) {
	if s.Len() != 0 && s.Test(i) {
		s.Items[s.Rank0(i)] = value
		return true
	}

	s.BitSet.Set(i)
	s.insertItem(s.Rank0(i), value)

	return false
}

// insertItem inserts the item at index i, shifting the rest one pos right.
//
// It panics if i is out of range.
func (s *Array[T]) insertItem(i int, item T) {
	if len(s.Items) < cap(s.Items) {
		s.Items = s.Items[:len(s.Items)+1] // fast resize, no alloc
	} else {
		var zero T
		s.Items = append(s.Items, zero) // append one item, mostly enlarge cap by more than one item
	}

	copy(s.Items[i+1:], s.Items[i:])
	s.Items[i] = item
}
