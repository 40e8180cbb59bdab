// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mveqf

import "github.com/poluyan/mveqf/internal/trie"

// cdfAt evaluates the conditional CDF numerator at grid vertex m under
// node: the summed weight of children with index < m (spec §4.3,
// F(m) = Σ_{c.index<m} c.count). Sorted nodes answer this with a
// popcount plus one prefix-sum lookup via their own CountBefore;
// Unsorted, layered and explicit nodes scan their children.
func cdfAt(node trie.Node, m int) uint64 {
	return node.CountBefore(m)
}

// kernel inverts the conditional CDF along one axis (spec §4.3, the
// heart of the system). node is the conditional population at this
// axis, edges/dx describe the axis's grid, and u is the input
// coordinate in [0,1]. It returns the position of the chosen child
// within node's children and the transformed real coordinate.
func kernel(node trie.Node, edges []float64, dx, u float64) (childPos int, x float64) {
	N := node.Count()
	M := len(edges) - 1

	first, count := 0, M
	var m int
	var f1, f2 uint64
	found := false

	for count > 0 {
		step := count / 2
		m = first + step
		f1 = cdfAt(node, m)
		if float64(f1) < u*float64(N) {
			f2 = cdfAt(node, m+1)
			if u*float64(N) < float64(f2) {
				found = true
				break
			}
			first = m + 1
			count -= step + 1
		} else {
			count = step
		}
	}
	if !found {
		m = first
		f2 = cdfAt(node, m+1)
		f1 = cdfAt(node, m)
	}

	c1, c2 := f1, f2

	if c1 == c2 {
		// Empty-cell policy: no child has index == m.
		var chPos, chIdx int
		switch {
		case c1 == 0:
			chPos = node.First()
			chIdx = node.ChildIndex(chPos)
		case c1 == N:
			chPos = node.Last()
			chIdx = node.ChildIndex(chPos)
		default:
			chPos = node.Nearest(m)
			chIdx = node.ChildIndex(chPos)
		}
		return chPos, edges[chIdx] + 2*u*dx
	}

	// Populated cell: the unique child with index == m.
	pos, ok := node.FindExact(m)
	if !ok {
		panic("mveqf: internal invariant violated, no child at populated cell")
	}
	frac := (u*float64(N) - float64(c1)) / float64(c2-c1)
	return pos, edges[m] + frac*(edges[m+1]-edges[m])
}
