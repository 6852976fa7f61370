package roads

import (
	"context"
	"fmt"
	"sync/atomic"

	"fleetplan/internal/geo"
)

// MockEdge is a canned lookup result for tests.
type MockEdge struct {
	From, To geo.Point
	Result   EdgeResult
}

// Mock is a static in-memory provider for tests. When Err is set every lookup
// fails with it, which exercises the planner's geometric fallback.
type Mock struct {
	Err   error
	m     map[string]EdgeResult
	calls atomic.Int64
}

func NewMock(edges []MockEdge) *Mock {
	m := make(map[string]EdgeResult, len(edges))
	for _, e := range edges {
		m[mockKey(e.From, e.To)] = e.Result
	}
	return &Mock{m: m}
}

func mockKey(from, to geo.Point) string {
	return fmt.Sprintf("%.5f,%.5f|%.5f,%.5f", from.Lat, from.Lng, to.Lat, to.Lng)
}

func (p *Mock) Edge(ctx context.Context, from, to geo.Point) (EdgeResult, error) {
	p.calls.Add(1)
	if p.Err != nil {
		return EdgeResult{}, p.Err
	}
	r, ok := p.m[mockKey(from, to)]
	if !ok {
		return EdgeResult{}, fmt.Errorf("no mock edge %s", mockKey(from, to))
	}
	return r, nil
}

// Calls reports how many lookups were made.
func (p *Mock) Calls() int64 { return p.calls.Load() }
