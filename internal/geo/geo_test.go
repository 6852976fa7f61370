package geo

import (
	"math"
	"testing"
)

var nl = []Point{
	{Lat: 52.37, Lng: 4.89}, // Amsterdam
	{Lat: 52.09, Lng: 5.12}, // Utrecht
	{Lat: 51.92, Lng: 4.48}, // Rotterdam
}

func TestHaversineKnownDistances(t *testing.T) {
	amsUtrecht := Distance(nl[0], nl[1])
	if math.Abs(amsUtrecht-35.5) > 1.0 {
		t.Fatalf("Amsterdam-Utrecht = %.2f km, want 35.5 +/- 1", amsUtrecht)
	}
	amsRotterdam := Distance(nl[0], nl[2])
	if math.Abs(amsRotterdam-57.0) > 1.0 {
		t.Fatalf("Amsterdam-Rotterdam = %.2f km, want 57 +/- 1", amsRotterdam)
	}
}

func TestHaversineZeroForSamePoint(t *testing.T) {
	if d := Haversine(52.37, 4.89, 52.37, 4.89); d != 0 {
		t.Fatalf("same point distance = %v, want 0", d)
	}
}

func TestBuildMatrixSymmetric(t *testing.T) {
	m := BuildMatrix(nl)
	if len(m) != 3 {
		t.Fatalf("matrix size = %d, want 3", len(m))
	}
	for i := range m {
		if m[i][i] != 0 {
			t.Fatalf("diagonal m[%d][%d] = %v, want 0", i, i, m[i][i])
		}
		for j := range m[i] {
			if m[i][j] != m[j][i] {
				t.Fatalf("m[%d][%d]=%v != m[%d][%d]=%v", i, j, m[i][j], j, i, m[j][i])
			}
			if m[i][j] < 0 {
				t.Fatalf("m[%d][%d]=%v negative", i, j, m[i][j])
			}
		}
	}
}

func TestBuildMatrixTrivial(t *testing.T) {
	if m := BuildMatrix(nil); len(m) != 0 {
		t.Fatalf("empty input: got %d rows", len(m))
	}
	m := BuildMatrix(nl[:1])
	if len(m) != 1 || m[0][0] != 0 {
		t.Fatalf("single point: got %v", m)
	}
}
