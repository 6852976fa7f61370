package solver

import (
	"math/rand"
	"testing"

	"fleetplan/internal/geo"
)

func testMatrix(n int) [][]float64 {
	// Points on a ragged line so distances are distinct.
	pts := make([]geo.Point, n)
	for i := range pts {
		pts[i] = geo.Point{Lat: 52.0 + 0.05*float64(i), Lng: 4.0 + 0.07*float64(i%3)}
	}
	return geo.BuildMatrix(pts)
}

func TestAntColonyTourIsValidPermutation(t *testing.T) {
	for _, n := range []int{2, 3, 5, 12} {
		dist := testMatrix(n)
		res := NewAntColony(dist, DefaultACOConfig(n), rand.New(rand.NewSource(1))).Run()
		tour := res.Tour
		if len(tour) != n+1 {
			t.Fatalf("n=%d: tour length = %d, want %d", n, len(tour), n+1)
		}
		if tour[0] != 0 || tour[len(tour)-1] != 0 {
			t.Fatalf("n=%d: tour not closed at depot: %v", n, tour)
		}
		seen := make([]bool, n)
		for _, idx := range tour[:len(tour)-1] {
			if idx < 0 || idx >= n {
				t.Fatalf("n=%d: index %d out of range", n, idx)
			}
			if seen[idx] {
				t.Fatalf("n=%d: index %d visited twice in %v", n, idx, tour)
			}
			seen[idx] = true
		}
		for i, ok := range seen {
			if !ok {
				t.Fatalf("n=%d: index %d never visited in %v", n, i, tour)
			}
		}
	}
}

func TestAntColonyDeterministicWithSeed(t *testing.T) {
	dist := testMatrix(8)
	cfg := DefaultACOConfig(8)
	a := NewAntColony(dist, cfg, rand.New(rand.NewSource(42))).Run()
	b := NewAntColony(dist, cfg, rand.New(rand.NewSource(42))).Run()
	if a.DistanceKm != b.DistanceKm {
		t.Fatalf("distances differ for same seed: %v vs %v", a.DistanceKm, b.DistanceKm)
	}
	for i := range a.Tour {
		if a.Tour[i] != b.Tour[i] {
			t.Fatalf("tours differ for same seed: %v vs %v", a.Tour, b.Tour)
		}
	}
}

func TestAntColonyDegenerateInputs(t *testing.T) {
	res := NewAntColony(nil, DefaultACOConfig(0), rand.New(rand.NewSource(1))).Run()
	if len(res.Tour) != 0 {
		t.Fatalf("n=0: got tour %v, want empty", res.Tour)
	}
	res = NewAntColony([][]float64{{0}}, DefaultACOConfig(1), rand.New(rand.NewSource(1))).Run()
	if len(res.Tour) != 1 || res.Tour[0] != 0 {
		t.Fatalf("n=1: got tour %v, want [0]", res.Tour)
	}
	if res.DistanceKm != 0 {
		t.Fatalf("n=1: distance = %v, want 0", res.DistanceKm)
	}
}

func TestTourDistance(t *testing.T) {
	dist := [][]float64{
		{0, 1, 4},
		{1, 0, 2},
		{4, 2, 0},
	}
	if d := TourDistance(dist, []int{0, 1, 2, 0}); d != 7 {
		t.Fatalf("tour distance = %v, want 7", d)
	}
	if d := TourDistance(dist, []int{0}); d != 0 {
		t.Fatalf("single-element tour distance = %v, want 0", d)
	}
}
