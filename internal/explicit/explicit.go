// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package explicit implements the raw-sample baseline variant (spec
// §6, "Explicit"): the sample is stored as plain rows of real values,
// with no trie or adjacency structure at all. Conditional populations
// are derived on the fly by scanning the rows that reached a node and
// grouping them by the grid cell their axis value falls into. It
// exists purely as a conformance oracle for the Implicit-Unsorted,
// Implicit-Sorted and Layered variants (spec §8 property 4) and is not
// meant to be fast.
package explicit

import (
	"errors"
	"sort"

	"github.com/poluyan/mveqf/internal/trie"
)

// ErrShape is returned when a row's length does not match the number
// of axes described by edges.
var ErrShape = errors.New("explicit: row length does not match dimension")

// Sample holds raw sample rows and the grid edges used to classify
// each axis value into a cell index, exactly as a Grid would, without
// depending on the root package (avoiding an import cycle).
type Sample struct {
	rows  [][]float64
	edges [][]float64 // edges[k] has n[k]+1 entries, ascending
	dim   int
}

// NewSample copies rows and validates their shape against edges
// (len(edges) == dim, every row has length dim).
func NewSample(rows [][]float64, edges [][]float64) (*Sample, error) {
	dim := len(edges)
	for _, r := range rows {
		if len(r) != dim {
			return nil, ErrShape
		}
	}
	cp := make([][]float64, len(rows))
	for i, r := range rows {
		cp[i] = append([]float64(nil), r...)
	}
	return &Sample{rows: cp, edges: edges, dim: dim}, nil
}

// cellIndex returns the grid cell index on axis that v falls into,
// clamped to [0, n(axis)-1] so that a row exactly on the upper bound
// lands in the last cell rather than one past it.
func (s *Sample) cellIndex(axis int, v float64) int {
	e := s.edges[axis]
	m := len(e) - 1
	j := sort.Search(len(e), func(i int) bool { return e[i] > v }) - 1
	if j < 0 {
		j = 0
	}
	if j >= m {
		j = m - 1
	}
	return j
}

// Root returns the axis-0 node over every row, satisfying trie.Node so
// the quantile kernel can drive a Sample exactly as it drives an
// Unsorted/Sorted trie or a layered.Sample.
func (s *Sample) Root() trie.Node {
	all := make([]int, len(s.rows))
	for i := range all {
		all[i] = i
	}
	return Node{s: s, axis: 0, rows: all}
}

// Node is the conditional population reaching one axis: the subset of
// row indices whose preceding-axis cell choices matched the descent so
// far.
type Node struct {
	s    *Sample
	axis int
	rows []int
}

// group is one distinct populated grid index among rows, with the row
// indices that fall into it.
type group struct {
	index int
	rows  []int
}

// groups classifies n.rows by their axis-n.axis cell index and returns
// them sorted ascending by index. Recomputed on every call: this is a
// conformance oracle, not a hot path.
func (n Node) groups() []group {
	byIndex := make(map[int][]int)
	for _, ri := range n.rows {
		idx := n.s.cellIndex(n.axis, n.s.rows[ri][n.axis])
		byIndex[idx] = append(byIndex[idx], ri)
	}
	idxs := make([]int, 0, len(byIndex))
	for idx := range byIndex {
		idxs = append(idxs, idx)
	}
	sort.Ints(idxs)
	out := make([]group, len(idxs))
	for i, idx := range idxs {
		out[i] = group{index: idx, rows: byIndex[idx]}
	}
	return out
}

func (n Node) Count() uint64   { return uint64(len(n.rows)) }
func (n Node) ChildCount() int { return len(n.groups()) }

func (n Node) ChildIndex(pos int) int {
	return n.groups()[pos].index
}

func (n Node) ChildWeight(pos int) uint64 {
	return uint64(len(n.groups()[pos].rows))
}

func (n Node) Descend(pos int) trie.Node {
	g := n.groups()[pos]
	return Node{s: n.s, axis: n.axis + 1, rows: g.rows}
}

func (n Node) CountBefore(m int) uint64 {
	var sum uint64
	for _, g := range n.groups() {
		if g.index < m {
			sum += uint64(len(g.rows))
		}
	}
	return sum
}

func (n Node) FindExact(index int) (int, bool) {
	gs := n.groups()
	pos := sort.Search(len(gs), func(i int) bool { return gs[i].index >= index })
	if pos < len(gs) && gs[pos].index == index {
		return pos, true
	}
	return 0, false
}

func (n Node) Nearest(m int) int {
	gs := n.groups()
	pos := sort.Search(len(gs), func(i int) bool { return gs[i].index >= m })
	switch {
	case pos == 0:
		return 0
	case pos == len(gs):
		return len(gs) - 1
	case gs[pos].index == m:
		return pos
	default:
		left, right := gs[pos-1].index, gs[pos].index
		if m-left <= right-m {
			return pos - 1
		}
		return pos
	}
}

func (n Node) First() int { return 0 }
func (n Node) Last() int  { return len(n.groups()) - 1 }
