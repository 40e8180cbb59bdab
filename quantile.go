// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mveqf

import (
	"github.com/poluyan/mveqf/internal/explicit"
	"github.com/poluyan/mveqf/internal/layered"
	"github.com/poluyan/mveqf/internal/trie"
)

// Quantile is the chained conditional-quantile engine (spec C6): it
// applies the per-axis kernel along axes 0..d-1, descending a sample
// representation according to the child chosen at each step. It is a
// pure function of (Grid, sample, u) once built, and is safe for
// concurrent read-only Transform calls (spec §5).
type Quantile struct {
	grid *Grid
	root trie.Node
	d    int
}

// NewQuantile builds a chained transform over grid and a finalized
// sample trie (Unsorted or Sorted). The trie's Dim must equal grid's
// Dim, and the trie must hold at least one path.
func NewQuantile(grid *Grid, tr trie.Trie) (*Quantile, error) {
	if grid.Dim() != tr.Dim() {
		return nil, newError(ShapeMismatch, "grid dim (%d) != trie dim (%d)", grid.Dim(), tr.Dim())
	}
	if tr.Count() == 0 {
		return nil, newError(EmptySample, "trie root count is 0")
	}
	return &Quantile{grid: grid, root: tr.Root(), d: grid.Dim()}, nil
}

// NewLayeredQuantile builds a chained transform over grid and a
// finalized layered sample (spec §4.5), for domains where only the
// support of the sample matters and per-cell counts are unit weight.
func NewLayeredQuantile(grid *Grid, s *layered.Sample) (*Quantile, error) {
	if grid.Dim() != s.Dim() {
		return nil, newError(ShapeMismatch, "grid dim (%d) != layered sample dim (%d)", grid.Dim(), s.Dim())
	}
	root := s.Root()
	if root.Count() == 0 {
		return nil, newError(EmptySample, "layered sample root has no children")
	}
	return &Quantile{grid: grid, root: root, d: grid.Dim()}, nil
}

// NewExplicitQuantile builds a conformance-baseline transform over
// grid and raw sample rows (spec §6, "Explicit... included for
// conformance testing only"). It is not meant to be fast; it exists so
// internal/conformance can cross-check Implicit-Unsorted,
// Implicit-Sorted and Layered against a direct scan-and-sort oracle.
func NewExplicitQuantile(grid *Grid, rows [][]float64) (*Quantile, error) {
	edges := make([][]float64, grid.Dim())
	for k := range edges {
		edges[k] = grid.Edges(k)
	}
	s, err := explicit.NewSample(rows, edges)
	if err != nil {
		return nil, newError(ShapeMismatch, "%s", err)
	}
	root := s.Root()
	if root.Count() == 0 {
		return nil, newError(EmptySample, "explicit sample has no rows")
	}
	return &Quantile{grid: grid, root: root, d: grid.Dim()}, nil
}

// Dim returns the configured dimension.
func (q *Quantile) Dim() int { return q.d }

// Transform applies the chained conditional-quantile map to u,
// returning one real coordinate per axis (spec §4.4). u must have
// length Dim() and every coordinate must lie in [0, 1].
func (q *Quantile) Transform(u []float64) ([]float64, error) {
	if len(u) != q.d {
		return nil, newError(ShapeMismatch, "u has length %d, want %d", len(u), q.d)
	}
	for k, v := range u {
		if v < 0 || v > 1 {
			return nil, newError(InputOutOfUnit, "u[%d] = %g, want [0,1]", k, v)
		}
	}

	x := make([]float64, q.d)
	node := q.root
	for k := 0; k < q.d; k++ {
		pos, xk := kernel(node, q.grid.Edges(k), q.grid.Dx(k), u[k])
		x[k] = xk
		if k < q.d-1 {
			node = node.Descend(pos)
		}
	}
	return x, nil
}
