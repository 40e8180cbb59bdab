// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package layered implements the "layered" alternative sample
// representation (spec §4.5): for each axis, a mapping from a parent's
// grid index at the previous axis to the sorted sequence of child grid
// indices at this axis, with every child contributing unit weight
// instead of an accumulated count. It exists for domains where only
// the support of the sample matters, not its multiplicities.
package layered

import (
	"sort"

	"github.com/poluyan/mveqf/internal/trie"
)

// Sample is the finalized, read-only layered representation.
type Sample struct {
	dim    int
	levels []level // len(levels) == dim
}

// level[k] maps a parent index (the grid index chosen at axis k-1, or
// the sentinel rootParent for axis 0) to the sorted, deduplicated
// sequence of child indices populated at axis k.
type level struct {
	children map[int][]int
}

const rootParent = -1

// Node adapts one (axis, parentIndex) pair to the shared trie.Node
// capability interface, so the quantile kernel can drive a Sample
// exactly as it drives an Unsorted or Sorted trie.
type Node struct {
	s      *Sample
	axis   int // level index this node's children are drawn from
	parent int // grid index chosen at axis-1, or rootParent at axis 0
}

// Root returns the axis-0 node of s. Sample satisfies trie.Trie so the
// quantile kernel can be driven identically regardless of which sample
// representation backs it.
func (s *Sample) Root() trie.Node { return Node{s, 0, rootParent} }

// Dim returns the configured number of axes.
func (s *Sample) Dim() int { return s.dim }

// Count returns the number of distinct axis-0 values in the sample
// (the root's child count), not the number of distinct rows: every
// layer uses unit weight, so root Count is only meaningful as
// "non-zero". Callers needing the true row count should use
// Builder.RowCount before Finalize.
func (s *Sample) Count() uint64 {
	if s.dim == 0 {
		return 0
	}
	return uint64(len(s.levels[0].children[rootParent]))
}

func (n Node) children() []int {
	if n.axis >= len(n.s.levels) {
		return nil
	}
	return n.s.levels[n.axis].children[n.parent]
}

func (n Node) Count() uint64   { return uint64(len(n.children())) }
func (n Node) ChildCount() int { return len(n.children()) }

func (n Node) ChildIndex(pos int) int { return n.children()[pos] }

// ChildWeight is always 1: the layered representation carries no
// per-child multiplicity, only support.
func (n Node) ChildWeight(pos int) uint64 { return 1 }

func (n Node) Descend(pos int) trie.Node {
	return Node{n.s, n.axis + 1, n.children()[pos]}
}

func (n Node) CountBefore(m int) uint64 {
	c := n.children()
	var count uint64
	for _, idx := range c {
		if idx < m {
			count++
		}
	}
	return count
}

func (n Node) FindExact(index int) (int, bool) {
	c := n.children()
	pos := sort.SearchInts(c, index)
	if pos < len(c) && c[pos] == index {
		return pos, true
	}
	return 0, false
}

func (n Node) Nearest(m int) int {
	c := n.children()
	pos := sort.SearchInts(c, m)
	switch {
	case pos == 0:
		return 0
	case pos == len(c):
		return len(c) - 1
	default:
		left, right := c[pos-1], c[pos]
		if m-left <= right-m {
			return pos - 1
		}
		return pos
	}
}

func (n Node) First() int { return 0 }
func (n Node) Last() int  { return len(n.children()) - 1 }

// Builder accumulates rows before Finalize compacts them into sorted,
// deduplicated adjacency lists.
type Builder struct {
	dim  int
	rows [][]int
}

// NewBuilder creates a builder for rows of length dim.
func NewBuilder(dim int) *Builder {
	return &Builder{dim: dim}
}

// Insert records one row; weight is not tracked (spec §4.5: "each
// distinct child contributes 1").
func (b *Builder) Insert(path []int) error {
	if len(path) != b.dim {
		return trie.ErrWrongPathLength
	}
	cp := make([]int, len(path))
	copy(cp, path)
	b.rows = append(b.rows, cp)
	return nil
}

// RowCount returns the number of rows inserted so far (including
// duplicates), for callers that need the raw sample size rather than
// the deduplicated support Count() reports after Finalize.
func (b *Builder) RowCount() int { return len(b.rows) }

// Finalize compacts the staged rows into sorted, deduplicated
// per-axis adjacency lists.
func (b *Builder) Finalize() *Sample {
	s := &Sample{dim: b.dim, levels: make([]level, b.dim)}
	for k := range s.levels {
		s.levels[k].children = make(map[int][]int)
	}

	for _, row := range b.rows {
		parent := rootParent
		for k := 0; k < b.dim; k++ {
			if !containsInt(s.levels[k].children[parent], row[k]) {
				s.levels[k].children[parent] = append(s.levels[k].children[parent], row[k])
			}
			parent = row[k]
		}
	}

	for k := range s.levels {
		for parent, children := range s.levels[k].children {
			sort.Ints(children)
			s.levels[k].children[parent] = children
		}
	}
	return s
}

func containsInt(s []int, v int) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

