// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package trie implements the sample trie (spec component C2/C3): a
// rooted, depth-d prefix tree whose root-to-leaf paths are grid
// multi-indices, with per-node aggregated counts.
//
// Two storage strategies share one Node capability interface, following
// the "tagged variant, not a subclass tree" guidance for the sample
// container boundary: Unsorted keeps children in an append-only slice
// with linear-scan lookup, Sorted keeps them in a popcount-compressed
// sparse array (adapted from gaissmai/bart's internal/sparse.Array) for
// O(words) conditional-CDF evaluation.
package trie

import "errors"

// errEmpty is returned by RemoveLast when the trie has no paths left.
var errEmpty = errors.New("trie: empty")

// Node is the read-only view of "the conditional population at one
// axis" that the quantile kernel is written against. Unsorted, Sorted,
// and (via a thin adapter) the layered sample representation all
// satisfy it, so the kernel is written once and reused by every
// variant.
type Node interface {
	// Count is the total weight of this node's subtree.
	Count() uint64

	// ChildCount is the number of distinct populated grid cells
	// (children) under this node.
	ChildCount() int

	// ChildIndex returns the grid index of the child at position pos,
	// 0 <= pos < ChildCount().
	ChildIndex(pos int) int

	// ChildWeight returns the weight (subtree count) of the child at
	// position pos.
	ChildWeight(pos int) uint64

	// Descend returns the node reached by following the child at
	// position pos.
	Descend(pos int) Node

	// CountBefore returns the conditional-CDF numerator: the sum of
	// ChildWeight over children whose grid index is strictly less
	// than m.
	CountBefore(m int) uint64

	// FindExact returns the position of the child with the given grid
	// index, if any.
	FindExact(index int) (pos int, ok bool)

	// Nearest returns the position of the populated child whose index
	// is closest to m, ties broken towards the smaller index. Only
	// called when ChildCount() > 0.
	Nearest(m int) (pos int)

	// First and Last return the positions of the smallest- and
	// largest-index children. Only called when ChildCount() > 0.
	First() int
	Last() int
}

// Trie is a finalized, read-only sample trie.
type Trie interface {
	Root() Node
	Dim() int
	Count() uint64
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
