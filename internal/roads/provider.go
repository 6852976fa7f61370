// Package roads abstracts the external road-network distance service. The
// ordering core never consults it; the planner uses it only to enrich a fixed
// route with real-road metrics, falling back to geometric distance per edge.
package roads

import (
	"context"

	"fleetplan/internal/geo"
)

// EdgeResult carries road metrics for a single directed edge.
type EdgeResult struct {
	DistanceKm  float64
	DurationSec float64
	Geometry    string // encoded polyline, when the backend provides one
}

// Provider resolves road metrics between two coordinates. Implementations
// must honor ctx and return an error rather than block past its deadline.
type Provider interface {
	Edge(ctx context.Context, from, to geo.Point) (EdgeResult, error)
}
