// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mveqf

import (
	"errors"

	"github.com/poluyan/mveqf/internal/layered"
	"github.com/poluyan/mveqf/internal/trie"
)

// ErrVariantUnsupported is returned by Builder operations that only
// make sense for a count-bearing sample container (InsertWeighted,
// RemoveLast) when called against the Layered variant, which tracks
// support only (spec §4.5). Search on a Layered Builder reports false.
var ErrVariantUnsupported = errors.New("mveqf: operation not supported by the Layered variant")

// Variant selects the sample-container strategy a Builder uses (spec
// §6, "Variant selection"). The Explicit variant is not built through
// Builder: it takes raw real rows directly via NewExplicitQuantile,
// since it carries no grid-index path at all.
type Variant int

const (
	// Unsorted stores children as an append-only slice with
	// linear-scan lookup (spec C3 "Implicit-Unsorted").
	Unsorted Variant = iota
	// Sorted stores children in a popcount-compressed sparse array
	// for O(log C) lookup (spec C3 "Implicit-Sorted").
	Sorted
	// Layered stores only the support of the sample as per-axis
	// adjacency lists with unit weight (spec §4.5).
	Layered
)

// Builder accumulates grid-index paths and produces a finalized
// Quantile, validating every inserted path against grid's shape before
// it reaches the underlying sample container (spec §7: ShapeMismatch,
// OutOfRangeIndex are detectable before any numeric work).
//
// Builder is not safe for concurrent use; per spec §5, build-time
// mutation must not overlap with other mutation or with Transform.
type Builder struct {
	grid    *Grid
	variant Variant
	u       *trie.UnsortedBuilder
	s       *trie.SortedBuilder
	l       *layered.Builder
}

// NewBuilder creates a Builder over grid using the given Variant.
func NewBuilder(grid *Grid, variant Variant) *Builder {
	b := &Builder{grid: grid, variant: variant}
	switch variant {
	case Sorted:
		b.s = trie.NewSortedBuilder(grid.Dim())
	case Layered:
		b.l = layered.NewBuilder(grid.Dim())
	default:
		b.u = trie.NewUnsortedBuilder(grid.Dim())
	}
	return b
}

// validate checks path against grid's shape, per spec §4.2's
// insert contract and §7's ShapeMismatch/OutOfRangeIndex errors.
func (b *Builder) validate(path []int) error {
	if len(path) != b.grid.Dim() {
		return newError(ShapeMismatch, "path has length %d, want %d", len(path), b.grid.Dim())
	}
	for k, idx := range path {
		if idx < 0 || idx >= b.grid.N(k) {
			return newError(OutOfRangeIndex, "path[%d] = %d, want [0,%d)", k, idx, b.grid.N(k))
		}
	}
	return nil
}

// Insert adds path with default weight-1 semantics: repeated insertion
// of an identical path is idempotent, and Finalize derives counts
// structurally via fillTreeCount (spec §4.2). For the Layered variant,
// which tracks support only, this is an ordinary unit-weight insert.
func (b *Builder) Insert(path []int) error {
	if err := b.validate(path); err != nil {
		return err
	}
	switch b.variant {
	case Sorted:
		return b.s.Insert(path)
	case Layered:
		return b.l.Insert(path)
	default:
		return b.u.Insert(path)
	}
}

// InsertWeighted adds path, accumulating weight along every node on
// the path (spec §4.2, "If weight != 1 semantics are used"). Not
// supported by the Layered variant, which carries no per-path weight.
func (b *Builder) InsertWeighted(path []int, weight uint64) error {
	if err := b.validate(path); err != nil {
		return err
	}
	switch b.variant {
	case Sorted:
		return b.s.InsertWeighted(path, weight)
	case Layered:
		return ErrVariantUnsupported
	default:
		return b.u.InsertWeighted(path, weight)
	}
}

// Search reports exact membership of path. Always false for paths of
// the wrong shape, and always false for the Layered variant.
func (b *Builder) Search(path []int) bool {
	if err := b.validate(path); err != nil {
		return false
	}
	switch b.variant {
	case Sorted:
		return b.s.Search(path)
	case Layered:
		return false // layered.Builder keeps no fast membership index
	default:
		return b.u.Search(path)
	}
}

// Finalize runs fillTreeCount (and, for Sorted, the sparse-array sort)
// and wraps the result in a ready-to-query Quantile over the Builder's
// grid, collapsing the spec's two-step "Trie::finalize()" +
// "Quantile::new(grid, trie)" into one call.
func (b *Builder) Finalize() (*Quantile, error) {
	switch b.variant {
	case Sorted:
		return NewQuantile(b.grid, b.s.Finalize())
	case Layered:
		return NewLayeredQuantile(b.grid, b.l.Finalize())
	default:
		return NewQuantile(b.grid, b.u.Finalize())
	}
}

// RemoveLast pops the lexicographically-last path still present,
// mirroring the original's get_and_remove_last (spec §4.2). Not
// supported by the Layered variant.
func (b *Builder) RemoveLast() ([]int, error) {
	switch b.variant {
	case Sorted:
		return b.s.RemoveLast()
	case Layered:
		return nil, ErrVariantUnsupported
	default:
		return b.u.RemoveLast()
	}
}
