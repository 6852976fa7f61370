// Package planner composes the optimization core into the two planning
// pipelines: single-vehicle ordering and capacity-aware fleet planning.
package planner

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"fleetplan/internal/geo"
	"fleetplan/internal/model"
	"fleetplan/internal/roads"
	"fleetplan/internal/solver"
)

var (
	// ErrInsufficientInput is returned when fewer stops or vehicles are given
	// than the requested operation needs. Rejected before any optimization.
	ErrInsufficientInput = errors.New("insufficient input")
	// ErrInvalidCoordinate is returned for non-finite latitude or longitude.
	ErrInvalidCoordinate = errors.New("invalid coordinate")
)

// fallbackSpeedKmh converts geometric distance into a duration estimate when
// the roads provider cannot answer for an edge.
const fallbackSpeedKmh = 50.0

// Tuning overrides individual ant-colony parameters. Zero values keep the
// solver defaults; Evaporation must stay inside (0,1) to be applied.
type Tuning struct {
	Alpha       float64
	Beta        float64
	Evaporation float64
}

// Planner runs the planning pipelines. Construct one per request: Metrics is
// filled during a run and the seed is consumed by it.
type Planner struct {
	Roads  roads.Provider // optional; nil disables road enrichment
	Seed   int64          // 0 means time-derived
	Tuning Tuning

	Metrics solver.RunMetrics
}

// New returns a Planner with an optional roads provider.
func New(provider roads.Provider, seed int64) *Planner {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Planner{Roads: provider, Seed: seed}
}

// PlanSingleRoute orders stops for one vehicle: distance matrix over
// [depot, stops...], ant-colony construction, tabu refinement, then road
// enrichment of the fixed order. The closing depot return is dropped from the
// presented order but included in the totals.
func (p *Planner) PlanSingleRoute(ctx context.Context, stops []model.Stop, depot *model.Stop) (model.OrderedRoute, error) {
	if len(stops) == 0 && depot == nil {
		return model.OrderedRoute{}, fmt.Errorf("%w: at least one stop required", ErrInsufficientInput)
	}
	if err := validateStops(stops, depot); err != nil {
		return model.OrderedRoute{}, err
	}
	if err := ctx.Err(); err != nil {
		return model.OrderedRoute{}, err
	}
	return p.orderAndEnrich(ctx, stops, depot, p.Seed)
}

// PlanFleetRoutes assigns stops to vehicles and orders each vehicle's share.
// A single-vehicle fleet delegates to the single pipeline. Vehicles that
// received no stops appear as zero-valued entries; capacity overflow is
// reported in the plan, never as an error. Cancellation is checked between
// vehicle clusters.
func (p *Planner) PlanFleetRoutes(ctx context.Context, stops []model.Stop, vehicles []model.VehicleSpec, depot *model.Stop) (model.FleetPlan, error) {
	if len(vehicles) == 0 {
		return model.FleetPlan{}, fmt.Errorf("%w: at least one vehicle required", ErrInsufficientInput)
	}
	if err := validateStops(stops, depot); err != nil {
		return model.FleetPlan{}, err
	}
	if len(stops) == 0 {
		return model.FleetPlan{PerVehicle: []model.OrderedRoute{}, PerVehicleLoad: []float64{}}, nil
	}

	capacities := make([]float64, len(vehicles))
	for i, v := range vehicles {
		if v.Capacity > 0 {
			capacities[i] = v.Capacity
		} else {
			capacities[i] = math.Inf(1)
		}
	}

	if len(vehicles) == 1 {
		route, err := p.orderAndEnrich(ctx, stops, depot, p.Seed)
		if err != nil {
			return model.FleetPlan{}, err
		}
		load := 0.0
		for _, s := range stops {
			load += s.Demand
		}
		plan := model.FleetPlan{
			PerVehicle:         []model.OrderedRoute{route},
			PerVehicleLoad:     []float64{load},
			PerVehicleCapacity: []float64{vehicles[0].Capacity},
			TotalDistanceKm:    route.TotalDistanceKm,
			MeanDurationSec:    route.TotalDurationSec,
			Overloaded:         !math.IsInf(capacities[0], 1) && load > capacities[0],
		}
		return plan, nil
	}

	points := make([]geo.Point, len(stops))
	demands := make([]float64, len(stops))
	for i, s := range stops {
		points[i] = geo.Point{Lat: s.Lat, Lng: s.Lng}
		demands[i] = s.Demand
	}
	cluster := solver.ClusterCapacitated(points, demands, capacities)
	p.Metrics.ClusterRounds = cluster.Rounds
	p.Metrics.Vehicles = len(vehicles)

	plan := model.FleetPlan{
		PerVehicle:         make([]model.OrderedRoute, len(vehicles)),
		PerVehicleLoad:     cluster.Loads,
		PerVehicleCapacity: make([]float64, len(vehicles)),
		Overloaded:         cluster.Overloaded,
	}
	for i, v := range vehicles {
		plan.PerVehicleCapacity[i] = v.Capacity
	}

	served := 0
	var durationSum float64
	for v := range vehicles {
		if err := ctx.Err(); err != nil {
			return model.FleetPlan{}, err
		}
		var share []model.Stop
		for si, assigned := range cluster.Assignment {
			if assigned == v {
				share = append(share, stops[si])
			}
		}
		if len(share) == 0 {
			plan.PerVehicle[v] = model.OrderedRoute{Order: []model.Stop{}}
			continue
		}
		route, err := p.orderAndEnrich(ctx, share, depot, p.Seed+int64(v))
		if err != nil {
			return model.FleetPlan{}, err
		}
		plan.PerVehicle[v] = route
		plan.TotalDistanceKm += route.TotalDistanceKm
		durationSum += route.TotalDurationSec
		served++
	}
	if served > 0 {
		// Mean over vehicles that received at least one stop.
		plan.MeanDurationSec = durationSum / float64(served)
	}
	p.Metrics.BestDistanceKm = plan.TotalDistanceKm
	return plan, nil
}

// orderAndEnrich runs the ordering stages for one vehicle's stops and maps
// the index tour back to stop objects.
func (p *Planner) orderAndEnrich(ctx context.Context, stops []model.Stop, depot *model.Stop, seed int64) (model.OrderedRoute, error) {
	working := stops
	if depot != nil {
		working = append([]model.Stop{*depot}, stops...)
	}
	n := len(working)
	if n == 1 {
		return model.OrderedRoute{Order: []model.Stop{working[0]}}, nil
	}

	points := make([]geo.Point, n)
	for i, s := range working {
		points[i] = geo.Point{Lat: s.Lat, Lng: s.Lng}
	}
	dist := geo.BuildMatrix(points)

	rng := rand.New(rand.NewSource(seed))
	constructed := solver.NewAntColony(dist, p.acoConfig(n), rng).Run()
	refined := solver.TabuRefine(dist, constructed.Tour)

	p.Metrics.ACOIterations += constructed.Iterations
	p.Metrics.ACOImprovements += constructed.Improvements
	p.Metrics.TabuIterations += refined.Iterations

	order := make([]model.Stop, 0, n)
	for _, idx := range refined.Tour[:len(refined.Tour)-1] {
		order = append(order, working[idx])
	}

	route := model.OrderedRoute{Order: order}
	route.Legs, route.TotalDistanceKm, route.TotalDurationSec = p.enrich(ctx, order)
	return route, nil
}

// enrich resolves road metrics for every edge of the closed route. A failed
// lookup is substituted with the geometric distance and a speed-derived
// duration; failures are local and never abort the rest of the route.
func (p *Planner) enrich(ctx context.Context, order []model.Stop) ([]model.Leg, float64, float64) {
	if len(order) < 2 {
		return nil, 0, 0
	}
	legs := make([]model.Leg, 0, len(order))
	totalKm, totalSec := 0.0, 0.0
	for i := 0; i < len(order); i++ {
		from := order[i]
		to := order[(i+1)%len(order)] // closing return to the depot
		leg := model.Leg{FromStopID: from.ID, ToStopID: to.ID}

		resolved := false
		if p.Roads != nil {
			if res, err := p.Roads.Edge(ctx, geo.Point{Lat: from.Lat, Lng: from.Lng}, geo.Point{Lat: to.Lat, Lng: to.Lng}); err == nil {
				leg.DistanceKm = res.DistanceKm
				leg.DurationSec = res.DurationSec
				leg.Geometry = res.Geometry
				leg.RoadMetrics = true
				resolved = true
			}
		}
		if !resolved {
			km := geo.Haversine(from.Lat, from.Lng, to.Lat, to.Lng)
			leg.DistanceKm = km
			leg.DurationSec = km / fallbackSpeedKmh * 3600
		}
		legs = append(legs, leg)
		totalKm += leg.DistanceKm
		totalSec += leg.DurationSec
	}
	return legs, totalKm, totalSec
}

// acoConfig derives the per-run ant-colony configuration, applying any
// tuning overrides on top of the size-derived defaults.
func (p *Planner) acoConfig(n int) solver.ACOConfig {
	cfg := solver.DefaultACOConfig(n)
	if p.Tuning.Alpha > 0 {
		cfg.Alpha = p.Tuning.Alpha
	}
	if p.Tuning.Beta > 0 {
		cfg.Beta = p.Tuning.Beta
	}
	if p.Tuning.Evaporation > 0 && p.Tuning.Evaporation < 1 {
		cfg.Evaporation = p.Tuning.Evaporation
	}
	return cfg
}

func validateStops(stops []model.Stop, depot *model.Stop) error {
	for _, s := range stops {
		if !finite(s.Lat) || !finite(s.Lng) {
			return fmt.Errorf("%w: stop %q", ErrInvalidCoordinate, s.ID)
		}
	}
	if depot != nil && (!finite(depot.Lat) || !finite(depot.Lng)) {
		return fmt.Errorf("%w: depot %q", ErrInvalidCoordinate, depot.ID)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
