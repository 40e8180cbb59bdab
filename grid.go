// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

// Package mveqf implements the multivariate empirical quantile
// transform: a deterministic map from [0,1]^d into R^d built from an
// empirical sample discretized onto an axis-aligned grid. See the
// package-level components Grid, the internal/trie sample container,
// and Quantile for the chained conditional-quantile engine.
package mveqf

// Grid is an axis-aligned rectangular domain split into a fixed
// number of cells per axis. All fields are frozen after construction
// (spec C1).
type Grid struct {
	lb, ub []float64
	n      []int
	edges  [][]float64 // edges[i] has n[i]+1 entries
	dx     []float64
}

// NewGrid builds a Grid from per-axis bounds and cell counts. lb, ub,
// and n must have equal length; every n[i] must be >= 1 and every
// lb[i] <= ub[i].
func NewGrid(lb, ub []float64, n []int) (*Grid, error) {
	if len(lb) != len(ub) || len(lb) != len(n) {
		return nil, newError(ShapeMismatch, "lb (%d), ub (%d), n (%d) must have equal length", len(lb), len(ub), len(n))
	}
	d := len(lb)
	for i := 0; i < d; i++ {
		if n[i] < 1 {
			return nil, newError(ShapeMismatch, "n[%d] = %d, must be >= 1", i, n[i])
		}
		if lb[i] > ub[i] {
			return nil, newError(InvertedBounds, "lb[%d] = %g > ub[%d] = %g", i, lb[i], i, ub[i])
		}
	}

	g := &Grid{
		lb:    append([]float64(nil), lb...),
		ub:    append([]float64(nil), ub...),
		n:     append([]int(nil), n...),
		edges: make([][]float64, d),
		dx:    make([]float64, d),
	}
	for i := 0; i < d; i++ {
		step := (ub[i] - lb[i]) / float64(n[i])
		e := make([]float64, n[i]+1)
		for j := 0; j <= n[i]; j++ {
			e[j] = lb[i] + float64(j)*step
		}
		e[n[i]] = ub[i] // pin the exact upper bound against accumulated rounding
		g.edges[i] = e
		g.dx[i] = step / 2
	}
	return g, nil
}

// Dim returns the grid's dimension.
func (g *Grid) Dim() int { return len(g.lb) }

// Edges returns the n[axis]+1 cell boundaries of axis, from lb[axis]
// to ub[axis] inclusive. The returned slice must not be modified.
func (g *Grid) Edges(axis int) []float64 { return g.edges[axis] }

// Dx returns the half-cell width of axis.
func (g *Grid) Dx(axis int) float64 { return g.dx[axis] }

// N returns the cell count of axis.
func (g *Grid) N(axis int) int { return g.n[axis] }

// LowerBound returns lb[axis].
func (g *Grid) LowerBound(axis int) float64 { return g.lb[axis] }

// UpperBound returns ub[axis].
func (g *Grid) UpperBound(axis int) float64 { return g.ub[axis] }
