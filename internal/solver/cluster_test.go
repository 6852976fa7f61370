package solver

import (
	"math"
	"testing"

	"fleetplan/internal/geo"
)

func clusterPoints() ([]geo.Point, []float64) {
	pts := []geo.Point{
		{Lat: 52.37, Lng: 4.89},
		{Lat: 52.36, Lng: 4.91},
		{Lat: 51.92, Lng: 4.48},
		{Lat: 51.93, Lng: 4.46},
		{Lat: 52.09, Lng: 5.12},
		{Lat: 52.10, Lng: 5.10},
	}
	demands := []float64{2, 3, 1, 4, 2, 2}
	return pts, demands
}

func TestClusterConservesLoad(t *testing.T) {
	pts, demands := clusterPoints()
	res := ClusterCapacitated(pts, demands, []float64{8, 8})

	if len(res.Assignment) != len(pts) {
		t.Fatalf("assignment covers %d stops, want %d", len(res.Assignment), len(pts))
	}
	totalDemand := 0.0
	for _, d := range demands {
		totalDemand += d
	}
	totalLoad := 0.0
	for _, l := range res.Loads {
		totalLoad += l
	}
	if math.Abs(totalLoad-totalDemand) > 1e-9 {
		t.Fatalf("sum of loads %.2f != sum of demands %.2f", totalLoad, totalDemand)
	}
	for si, v := range res.Assignment {
		if v < 0 || v >= 2 {
			t.Fatalf("stop %d assigned to invalid vehicle %d", si, v)
		}
	}
}

func TestClusterOverflowStillAssignsEverything(t *testing.T) {
	pts, demands := clusterPoints()
	// Total demand 14, total capacity 10: overflow is unavoidable.
	res := ClusterCapacitated(pts, demands, []float64{5, 5})

	if !res.Overloaded {
		t.Fatal("expected overload to be reported")
	}
	over := false
	for v, l := range res.Loads {
		if l > []float64{5, 5}[v] {
			over = true
		}
	}
	if !over {
		t.Fatalf("no vehicle exceeds capacity despite overload flag: %v", res.Loads)
	}
	totalLoad := 0.0
	for _, l := range res.Loads {
		totalLoad += l
	}
	if math.Abs(totalLoad-14) > 1e-9 {
		t.Fatalf("assignment incomplete under overflow: loads %v", res.Loads)
	}
}

func TestClusterExactCapacityNoOverflow(t *testing.T) {
	pts, demands := clusterPoints()
	res := ClusterCapacitated(pts, demands, []float64{14})
	if res.Overloaded {
		t.Fatalf("capacity equals demand, overload reported: loads %v", res.Loads)
	}
	if math.Abs(res.Loads[0]-14) > 1e-9 {
		t.Fatalf("load = %v, want 14", res.Loads[0])
	}
}

func TestClusterByCountSplitsGroups(t *testing.T) {
	pts, demands := clusterPoints()
	res := ClusterByCount(pts, demands, 3)
	if res.Overloaded {
		t.Fatal("count-only clustering can never overload")
	}
	// The three geographic pairs should not all land on one vehicle.
	first := res.Assignment[0]
	allSame := true
	for _, v := range res.Assignment {
		if v != first {
			allSame = false
			break
		}
	}
	if allSame {
		t.Fatalf("all stops in one cluster: %v", res.Assignment)
	}
}

func TestClusterEmptyInputs(t *testing.T) {
	res := ClusterCapacitated(nil, nil, []float64{5})
	if len(res.Assignment) != 0 || res.Loads[0] != 0 {
		t.Fatalf("empty input: %+v", res)
	}
}
