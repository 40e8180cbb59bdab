// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package trie

import (
	"math/rand/v2"
	"testing"
)

// builder is the common surface both concrete builders expose; tests
// are written once against it and run for each variant.
type builder interface {
	Insert(path []int) error
	InsertWeighted(path []int, weight uint64) error
	Search(path []int) bool
	TotalCount() uint64
	RemoveLast() ([]int, error)
}

func newUnsorted(dim int) builder { return NewUnsortedBuilder(dim) }
func newSorted(dim int) builder   { return NewSortedBuilder(dim) }

func finalize(b builder) Trie {
	switch v := b.(type) {
	case *UnsortedBuilder:
		return v.Finalize()
	case *SortedBuilder:
		return v.Finalize()
	default:
		panic("unknown builder type")
	}
}

func variants() map[string]func(int) builder {
	return map[string]func(int) builder{
		"Unsorted": newUnsorted,
		"Sorted":   newSorted,
	}
}

func TestBuilderRejectsWrongShape(t *testing.T) {
	t.Parallel()
	for name, newB := range variants() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			b := newB(3)
			if err := b.Insert([]int{1, 2}); err == nil {
				t.Error("expected error for short path")
			}
			if err := b.Insert([]int{1, 2, 3, 4}); err == nil {
				t.Error("expected error for long path")
			}
		})
	}
}

func TestSearchFindsInsertedPaths(t *testing.T) {
	t.Parallel()
	for name, newB := range variants() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			b := newB(3)
			paths := [][]int{
				{0, 0, 0},
				{0, 1, 2},
				{3, 1, 2},
				{3, 1, 5},
			}
			for _, p := range paths {
				if err := b.Insert(p); err != nil {
					t.Fatalf("Insert(%v): %v", p, err)
				}
			}
			for _, p := range paths {
				if !b.Search(p) {
					t.Errorf("Search(%v) = false, want true", p)
				}
			}
			if b.Search([]int{9, 9, 9}) {
				t.Error("Search found a path that was never inserted")
			}
		})
	}
}

func TestFinalizeCountsEqualDistinctLeaves(t *testing.T) {
	t.Parallel()
	for name, newB := range variants() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			b := newB(2)
			paths := [][]int{
				{0, 0},
				{0, 1},
				{1, 0},
				{1, 0}, // duplicate, does not add a distinct leaf
			}
			for _, p := range paths {
				_ = b.Insert(p)
			}
			tr := finalize(b)
			if got, want := tr.Count(), uint64(3); got != want {
				t.Errorf("root Count() = %d, want %d", got, want)
			}
		})
	}
}

func TestWeightedInsertAccumulates(t *testing.T) {
	t.Parallel()
	for name, newB := range variants() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			b := newB(2)
			_ = b.InsertWeighted([]int{0, 0}, 5)
			_ = b.InsertWeighted([]int{0, 0}, 3)
			_ = b.InsertWeighted([]int{1, 2}, 7)

			tr := finalize(b)
			if got, want := tr.Count(), uint64(15); got != want {
				t.Errorf("root Count() = %d, want %d", got, want)
			}
			if got, want := b.TotalCount(), uint64(15); got != want {
				t.Errorf("TotalCount() = %d, want %d", got, want)
			}
		})
	}
}

// childSet dumps every (index, weight) pair under a node, for order-
// independent comparison between variants.
func childSet(n Node) map[int]uint64 {
	out := make(map[int]uint64, n.ChildCount())
	for i := range n.ChildCount() {
		out[n.ChildIndex(i)] = n.ChildWeight(i)
	}
	return out
}

func TestUnsortedAndSortedAgree(t *testing.T) {
	t.Parallel()

	rng := rand.New(rand.NewPCG(1, 2))
	const dim, axisN, samples = 3, 6, 200

	ub := NewUnsortedBuilder(dim)
	sb := NewSortedBuilder(dim)

	paths := make([][]int, 0, samples)
	for range samples {
		p := make([]int, dim)
		for d := range p {
			p[d] = rng.IntN(axisN)
		}
		paths = append(paths, p)
		_ = ub.Insert(p)
		_ = sb.Insert(p)
	}

	ut := ub.Finalize()
	st := sb.Finalize()

	if ut.Count() != st.Count() {
		t.Fatalf("root Count mismatch: unsorted=%d sorted=%d", ut.Count(), st.Count())
	}

	var walk func(un, sn Node)
	walk = func(un, sn Node) {
		uc, sc := childSet(un), childSet(sn)
		if len(uc) != len(sc) {
			t.Fatalf("child count mismatch: unsorted=%d sorted=%d", len(uc), len(sc))
		}
		for idx, w := range uc {
			if sc[idx] != w {
				t.Fatalf("weight mismatch at index %d: unsorted=%d sorted=%d", idx, w, sc[idx])
			}
		}
		for i := range un.ChildCount() {
			walk(un.Descend(i), sn.Descend(sortedPos(sn, un.ChildIndex(i))))
		}
	}
	walk(ut.Root(), st.Root())

	for _, p := range paths {
		if !ub.Search(p) || !sb.Search(p) {
			t.Fatalf("path %v not found in one of the variants", p)
		}
	}
}

func sortedPos(n Node, index int) int {
	pos, ok := n.FindExact(index)
	if !ok {
		panic("index not found")
	}
	return pos
}

func TestRemoveLastShrinksCount(t *testing.T) {
	t.Parallel()
	for name, newB := range variants() {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			seed := [][]int{{0, 0}, {0, 1}, {1, 0}}

			baseline := newB(2)
			for _, p := range seed {
				_ = baseline.InsertWeighted(p, 1)
			}
			before := finalize(baseline).Count()

			b := newB(2)
			for _, p := range seed {
				_ = b.InsertWeighted(p, 1)
			}
			path, err := b.RemoveLast()
			if err != nil {
				t.Fatalf("RemoveLast: %v", err)
			}
			if path == nil {
				t.Fatal("RemoveLast returned nil path")
			}
			after := finalize(b).Count()
			if after != before-1 {
				t.Errorf("Count after RemoveLast = %d, want %d", after, before-1)
			}
		})
	}
}
