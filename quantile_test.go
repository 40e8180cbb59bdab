// Copyright (c) 2024 Karl Gaissmaier
// SPDX-License-Identifier: MIT

package mveqf

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"
)

// TestTransformS3ConditionalDependence mirrors spec.md §8 scenario
// S3: d=2, lb=[0,0], ub=[2,2], n=[2,2], paths [0,0],[0,1],[1,1].
func TestTransformS3ConditionalDependence(t *testing.T) {
	t.Parallel()
	g, err := NewGrid([]float64{0, 0}, []float64{2, 2}, []int{2, 2})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	b := NewBuilder(g, Unsorted)
	for _, p := range [][]int{{0, 0}, {0, 1}, {1, 1}} {
		if err := b.Insert(p); err != nil {
			t.Fatalf("Insert(%v): %v", p, err)
		}
	}
	q, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	x, err := q.Transform([]float64{0.2, 0.2})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if !approxEqual(x[0], 0.3, 1e-12) {
		t.Errorf("x[0] = %g, want 0.3", x[0])
	}
	if !approxEqual(x[1], 0.4, 1e-12) {
		t.Errorf("x[1] = %g, want 0.4", x[1])
	}
}

func TestTransformRejectsWrongLength(t *testing.T) {
	t.Parallel()
	g, _ := NewGrid([]float64{0}, []float64{1}, []int{2})
	b := NewBuilder(g, Unsorted)
	_ = b.Insert([]int{0})
	q, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := q.Transform([]float64{0.1, 0.2}); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ShapeMismatch", err)
	}
}

func TestTransformRejectsOutOfUnitInput(t *testing.T) {
	t.Parallel()
	g, _ := NewGrid([]float64{0}, []float64{1}, []int{2})
	b := NewBuilder(g, Unsorted)
	_ = b.Insert([]int{0})
	q, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	for _, u := range []float64{-0.01, 1.01} {
		if _, err := q.Transform([]float64{u}); !errors.Is(err, ErrInputOutOfUnit) {
			t.Errorf("u=%g: got %v, want InputOutOfUnit", u, err)
		}
	}
}

func TestFinalizeRejectsEmptySample(t *testing.T) {
	t.Parallel()
	g, _ := NewGrid([]float64{0}, []float64{1}, []int{2})
	b := NewBuilder(g, Unsorted)
	if _, err := b.Finalize(); !errors.Is(err, ErrEmptySample) {
		t.Errorf("got %v, want EmptySample", err)
	}
}

func TestInsertRejectsOutOfRangeIndex(t *testing.T) {
	t.Parallel()
	g, _ := NewGrid([]float64{0}, []float64{1}, []int{4})
	b := NewBuilder(g, Unsorted)
	if err := b.Insert([]int{4}); !errors.Is(err, ErrOutOfRangeIndex) {
		t.Errorf("got %v, want OutOfRangeIndex", err)
	}
	if err := b.Insert([]int{-1}); !errors.Is(err, ErrOutOfRangeIndex) {
		t.Errorf("got %v, want OutOfRangeIndex", err)
	}
}

// TestTransformDeterministic covers spec.md §8 property 3: identical
// inputs yield bit-identical outputs.
func TestTransformDeterministic(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(1, 1))
	g, _ := NewGrid([]float64{0, 0}, []float64{5, 5}, []int{5, 5})
	b := NewBuilder(g, Sorted)
	for range 30 {
		_ = b.Insert([]int{rng.IntN(5), rng.IntN(5)})
	}
	q, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	u := []float64{0.37, 0.81}
	first, err := q.Transform(u)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	for range 5 {
		again, err := q.Transform(u)
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
		if again[0] != first[0] || again[1] != first[1] {
			t.Fatalf("Transform not deterministic: %v vs %v", first, again)
		}
	}
}

// TestTransformEmpiricalRecovery covers spec.md §8 property 6: drawing
// a large number of i.i.d. uniform draws through Transform and
// bucketing the recovered x values by grid cell reproduces the trie's
// per-terminal weights to within O(1/sqrt(N)).
func TestTransformEmpiricalRecovery(t *testing.T) {
	t.Parallel()
	g, err := NewGrid([]float64{0}, []float64{5}, []int{5})
	if err != nil {
		t.Fatalf("NewGrid: %v", err)
	}
	weights := []uint64{10, 20, 5, 30, 35}
	b := NewBuilder(g, Sorted)
	var total uint64
	for idx, w := range weights {
		if err := b.InsertWeighted([]int{idx}, w); err != nil {
			t.Fatalf("InsertWeighted: %v", err)
		}
		total += w
	}
	q, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	const n = 100_000
	counts := make([]int, len(weights))
	rng := rand.New(rand.NewPCG(42, 99))
	for range n {
		u := rng.Float64()
		x, err := q.Transform([]float64{u})
		if err != nil {
			t.Fatalf("Transform: %v", err)
		}
		idx := int((x[0] - g.LowerBound(0)) / (2 * g.Dx(0)))
		if idx < 0 {
			idx = 0
		}
		if idx >= len(weights) {
			idx = len(weights) - 1
		}
		counts[idx]++
	}

	tol := 6 / math.Sqrt(n)
	for idx, w := range weights {
		want := float64(w) / float64(total)
		got := float64(counts[idx]) / float64(n)
		if math.Abs(got-want) > tol {
			t.Errorf("cell %d: empirical frequency %g, want %g (tol %g)", idx, got, want, tol)
		}
	}
}

// TestTransformMonotonicInLastCoordinate covers spec.md §8 property 2.
func TestTransformMonotonicInLastCoordinate(t *testing.T) {
	t.Parallel()
	rng := rand.New(rand.NewPCG(2, 2))
	const dim = 3
	g, _ := NewGrid([]float64{0, 0, 0}, []float64{4, 4, 4}, []int{4, 4, 4})
	b := NewBuilder(g, Sorted)
	for range 60 {
		p := make([]int, dim)
		for k := range p {
			p[k] = rng.IntN(4)
		}
		_ = b.Insert(p)
	}
	q, err := b.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	for range 40 {
		prefix := []float64{rng.Float64(), rng.Float64()}
		steps := 25
		prevX := math.Inf(-1)
		for i := 0; i <= steps; i++ {
			uLast := float64(i) / float64(steps)
			u := append(append([]float64{}, prefix...), uLast)
			x, err := q.Transform(u)
			if err != nil {
				t.Fatalf("Transform: %v", err)
			}
			if x[dim-1] < prevX {
				t.Fatalf("monotonicity violated: x[%d]=%g < previous %g at uLast=%g, prefix=%v", dim-1, x[dim-1], prevX, uLast, prefix)
			}
			prevX = x[dim-1]
		}
	}
}
