// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie

import (
	"sort"

	"github.com/poluyan/mveqf/internal/sparse"
)

// child is the payload stored per populated grid index in a Sorted
// node's sparse.Array: the weight of the subtree and the arena id of
// the node it leads to.
type child struct {
	id     int32
	weight uint64
}

// sNode is one arena slot in a Sorted trie: a popcount-compressed
// sparse array keyed by grid index, giving O(words) CountBefore/Nearest
// instead of Unsorted's O(children) linear scan, per spec C3
// "Implicit-Sorted".
type sNode struct {
	count    uint64
	children sparse.Array[child]

	// psum[i] = sum of weight over children.Items[0:i], precomputed
	// once at Finalize time so CountBefore is a popcount over the
	// bitset words (children.CountBefore, for the position) plus one
	// psum lookup, instead of an O(C) resummation on every kernel
	// binary-search step, per spec C3 "Implicit-Sorted".
	psum []uint64
}

// Sorted is the finalized, read-only form of a sorted sample trie.
type Sorted struct {
	dim   int
	nodes []sNode // nodes[0] is root
}

func (t *Sorted) Root() Node    { return sortedRef{t, 0} }
func (t *Sorted) Dim() int      { return t.dim }
func (t *Sorted) Count() uint64 { return t.nodes[0].count }

type sortedRef struct {
	t  *Sorted
	id int32
}

func (n sortedRef) node() *sNode { return &n.t.nodes[n.id] }

func (n sortedRef) Count() uint64   { return n.node().count }
func (n sortedRef) ChildCount() int { return n.node().children.Len() }

func (n sortedRef) ChildIndex(pos int) int {
	idx, _ := n.node().children.Select(pos)
	return int(idx)
}

func (n sortedRef) ChildWeight(pos int) uint64 {
	return n.node().children.Items[pos].weight
}

func (n sortedRef) Descend(pos int) Node {
	return sortedRef{n.t, n.node().children.Items[pos].id}
}

func (n sortedRef) CountBefore(m int) uint64 {
	nd := n.node()
	if m <= 0 {
		return 0
	}
	limit := nd.children.CountBefore(uint(m))
	if limit == 0 {
		return 0
	}
	return nd.psum[limit]
}

func (n sortedRef) FindExact(index int) (int, bool) {
	nd := n.node()
	if !nd.children.Test(uint(index)) {
		return 0, false
	}
	return nd.children.Rank0(uint(index)), true
}

func (n sortedRef) Nearest(m int) int {
	nd := n.node()
	if pos, ok := n.FindExact(m); ok {
		return pos
	}
	lo, loOk := nd.children.PrevSet(uintClamp(m))
	hi, hiOk := nd.children.NextSet(uintClamp(m))
	switch {
	case loOk && hiOk:
		dLo, dHi := abs(m-int(lo)), abs(int(hi)-m)
		if dLo <= dHi {
			return nd.children.Rank0(lo)
		}
		return nd.children.Rank0(hi)
	case loOk:
		return nd.children.Rank0(lo)
	case hiOk:
		return nd.children.Rank0(hi)
	default:
		return 0
	}
}

func uintClamp(m int) uint {
	if m < 0 {
		return 0
	}
	return uint(m)
}

func (n sortedRef) First() int { return 0 }
func (n sortedRef) Last() int  { return n.node().children.Len() - 1 }

// SortedBuilder builds a Sorted sample trie by staging paths as plain
// rows and sorting/compacting them at Finalize time, matching the
// teacher's build-then-freeze lifecycle (gaissmai/bart's Lite/Table
// split between mutable construction and frozen, lookup-optimized
// storage).
type SortedBuilder struct {
	dim      int
	paths    [][]int
	weights  []uint64
	weighted bool
}

// NewSortedBuilder creates a builder for paths of length dim.
func NewSortedBuilder(dim int) *SortedBuilder {
	return &SortedBuilder{dim: dim}
}

func (b *SortedBuilder) Insert(path []int) error {
	return b.insert(path, 0, false)
}

func (b *SortedBuilder) InsertWeighted(path []int, weight uint64) error {
	b.weighted = true
	return b.insert(path, weight, true)
}

func (b *SortedBuilder) insert(path []int, weight uint64, weighted bool) error {
	if len(path) != b.dim {
		return ErrWrongPathLength
	}
	cp := make([]int, len(path))
	copy(cp, path)
	b.paths = append(b.paths, cp)
	if weighted {
		b.weights = append(b.weights, weight)
	} else {
		b.weights = append(b.weights, 0)
	}
	return nil
}

func (b *SortedBuilder) Search(path []int) bool {
	for _, p := range b.paths {
		if intsEqual(p, path) {
			return true
		}
	}
	return false
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TotalCount sums the weight of every distinct terminal grid index,
// mirroring the original's get_total_count().
func (b *SortedBuilder) TotalCount() uint64 {
	if len(b.paths) == 0 {
		return 0
	}
	seen := make(map[int]uint64)
	order := make([]int, 0)
	for i, p := range b.paths {
		last := p[b.dim-1]
		if _, ok := seen[last]; !ok {
			order = append(order, last)
		}
		if b.weighted {
			seen[last] += b.weights[i]
		} else {
			seen[last] = 1
		}
	}
	var total uint64
	for _, idx := range order {
		total += seen[idx]
	}
	return total
}

// RemoveLast removes and returns the lexicographically-last inserted
// path still present, matching Unsorted.RemoveLast's contract.
func (b *SortedBuilder) RemoveLast() ([]int, error) {
	if len(b.paths) == 0 {
		return nil, errEmpty
	}
	best := 0
	for i := 1; i < len(b.paths); i++ {
		if lexGreater(b.paths[i], b.paths[best]) {
			best = i
		}
	}
	path := b.paths[best]
	b.paths = append(b.paths[:best], b.paths[best+1:]...)
	if b.weighted {
		b.weights = append(b.weights[:best], b.weights[best+1:]...)
	}
	return path, nil
}

func lexGreater(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}

// Finalize builds the frozen arena: every distinct prefix at every
// depth becomes one sNode, with children compacted into ascending-index
// sparse arrays. Terminal nodes (depth == dim) are shared by grid
// index exactly as Unsorted shares them, per spec §3/§4.2.
func (b *SortedBuilder) Finalize() *Sorted {
	t := &Sorted{dim: b.dim, nodes: []sNode{{}}} // root at id 0

	type key struct {
		parent int32
		index  int
	}
	nodeOf := make(map[key]int32)
	terminals := make(map[int]int32)

	ensure := func(parent int32, index int, isTerminal bool) int32 {
		if isTerminal {
			if id, ok := terminals[index]; ok {
				return id
			}
			t.nodes = append(t.nodes, sNode{})
			id := int32(len(t.nodes) - 1)
			terminals[index] = id
			return id
		}
		k := key{parent, index}
		if id, ok := nodeOf[k]; ok {
			return id
		}
		t.nodes = append(t.nodes, sNode{})
		id := int32(len(t.nodes) - 1)
		nodeOf[k] = id
		return id
	}

	order := make([]int, len(b.paths))
	for i := range order {
		order[i] = i
	}
	sort.Slice(order, func(i, j int) bool {
		return lexLess(b.paths[order[i]], b.paths[order[j]])
	})

	for _, oi := range order {
		path := b.paths[oi]
		weight := b.weights[oi]
		cur := int32(0)
		for depth := 0; depth < b.dim; depth++ {
			index := path[depth]
			isTerminal := depth == b.dim-1
			childID := ensure(cur, index, isTerminal)

			nd := &t.nodes[cur]
			if c, ok := nd.children.Get(uint(index)); ok {
				if b.weighted {
					c.weight += weight
				}
				nd.children.InsertAt(uint(index), c)
			} else {
				w := uint64(0)
				if b.weighted {
					w = weight
				}
				nd.children.InsertAt(uint(index), child{id: childID, weight: w})
			}
			if b.weighted {
				nd.count += weight
			}
			cur = childID
		}
		if b.weighted {
			t.nodes[cur].count += weight
		}
	}

	if !b.weighted {
		fillTreeCountSorted(t, 0)
	}

	buildPsum(t)

	return t
}

// buildPsum fills every node's psum once, after every child's final
// weight is known (either accumulated during insertion, for a
// weighted trie, or set by fillTreeCountSorted, for an unweighted
// one). This is the one-time O(total children) cost that lets
// CountBefore answer with one popcount and one array lookup, matching the algorithm
// spec.md/SPEC_FULL.md describe for the Sorted variant.
func buildPsum(t *Sorted) {
	for i := range t.nodes {
		nd := &t.nodes[i]
		n := nd.children.Len()
		if n == 0 {
			continue
		}
		nd.psum = make([]uint64, n+1)
		for j := 0; j < n; j++ {
			nd.psum[j+1] = nd.psum[j] + nd.children.Items[j].weight
		}
	}
}

func lexLess(a, b []int) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// fillTreeCountSorted recomputes count for every node as the number of
// distinct completions reachable below it, mirroring
// fillTreeCountUnsorted for the sparse-array storage.
func fillTreeCountSorted(t *Sorted, id int32) uint64 {
	nd := &t.nodes[id]
	if nd.children.Len() == 0 {
		nd.count = 1
		return 1
	}
	var total uint64
	for i := range nd.children.Items {
		c := &nd.children.Items[i]
		w := fillTreeCountSorted(t, c.id)
		c.weight = w
		total += w
	}
	nd.count = total
	return total
}
