package model

// Core domain types shared by the solver, planner, store and API layers.

// Stop is a delivery or pickup location. Stops are immutable once created;
// callers replace rather than mutate.
type Stop struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	Demand     float64 `json:"demand,omitempty"`
	TimeWindow string  `json:"timeWindow,omitempty"`
	Locality   string  `json:"locality,omitempty"`
}

// GeoPoint is a bare coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// VehicleSpec describes one vehicle in a fleet request. Capacity 0 means
// unconstrained (cluster by count only).
type VehicleSpec struct {
	ID       string  `json:"id,omitempty"`
	Capacity float64 `json:"capacity,omitempty"`
}

// Leg is a single edge of an ordered route, enriched with road metrics when
// the roads provider answered, geometric metrics otherwise.
type Leg struct {
	FromStopID  string  `json:"fromStopId"`
	ToStopID    string  `json:"toStopId"`
	DistanceKm  float64 `json:"distanceKm"`
	DurationSec float64 `json:"durationSec"`
	Geometry    string  `json:"geometry,omitempty"`
	RoadMetrics bool    `json:"roadMetrics,omitempty"`
}

// OrderedRoute is the result of the single-vehicle pipeline: the visiting
// order with the closing depot return already dropped.
type OrderedRoute struct {
	Order            []Stop  `json:"order"`
	Legs             []Leg   `json:"legs,omitempty"`
	TotalDistanceKm  float64 `json:"totalDistanceKm"`
	TotalDurationSec float64 `json:"totalDurationSec,omitempty"`
}

// FleetPlan is the result of the multi-vehicle pipeline. PerVehicle and
// PerVehicleLoad are index-aligned with the requested vehicle specs; vehicles
// that received no stops appear as zero-valued entries.
type FleetPlan struct {
	PerVehicle         []OrderedRoute `json:"perVehicle"`
	PerVehicleLoad     []float64      `json:"perVehicleLoad"`
	PerVehicleCapacity []float64      `json:"perVehicleCapacity,omitempty"`
	TotalDistanceKm    float64        `json:"totalDistanceKm"`
	MeanDurationSec    float64        `json:"meanDurationSec,omitempty"`
	Overloaded         bool           `json:"overloaded,omitempty"`
}

// PlanRequest is the body of POST /v1/plans.
type PlanRequest struct {
	TenantID string        `json:"tenantId,omitempty"`
	Name     string        `json:"name,omitempty"`
	Stops    []Stop        `json:"stops"`
	Depot    *Stop         `json:"depot,omitempty"`
	Vehicles []VehicleSpec `json:"vehicles,omitempty"`
	Seed     int64         `json:"seed,omitempty"`
}

// Plan is a persisted planning result.
type Plan struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenantId"`
	Name      string    `json:"name,omitempty"`
	Status    string    `json:"status"`
	CreatedAt string    `json:"createdAt"`
	Fleet     FleetPlan `json:"fleet"`
}

// PlanEvent is published on the event broker while a plan is computed.
type PlanEvent struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data,omitempty"`
}

// SubscriptionRequest registers a webhook endpoint for plan events.
type SubscriptionRequest struct {
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret"`
}

// Subscription is a stored webhook subscription.
type Subscription struct {
	ID       string   `json:"id"`
	TenantID string   `json:"tenantId"`
	URL      string   `json:"url"`
	Events   []string `json:"events"`
	Secret   string   `json:"secret,omitempty"`
}
