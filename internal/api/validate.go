package api

import (
	"fmt"
	"math"

	"fleetplan/internal/model"
)

func validatePlanRequest(req *model.PlanRequest) error {
	if len(req.Stops) == 0 && req.Depot == nil {
		return fmt.Errorf("at least one stop or a depot is required")
	}
	seen := map[string]struct{}{}
	for i, s := range req.Stops {
		if !finiteCoord(s.Lat, s.Lng) {
			return fmt.Errorf("stop %d: latitude and longitude must be finite", i)
		}
		if s.Demand < 0 {
			return fmt.Errorf("stop %d: demand must be >= 0", i)
		}
		if s.ID != "" {
			if _, dup := seen[s.ID]; dup {
				return fmt.Errorf("duplicate stop id: %s", s.ID)
			}
			seen[s.ID] = struct{}{}
		}
	}
	if req.Depot != nil && !finiteCoord(req.Depot.Lat, req.Depot.Lng) {
		return fmt.Errorf("depot: latitude and longitude must be finite")
	}
	for i, v := range req.Vehicles {
		if v.Capacity < 0 {
			return fmt.Errorf("vehicle %d: capacity must be >= 0", i)
		}
	}
	return nil
}

func validateSubscriptionRequest(req *model.SubscriptionRequest) error {
	if req.URL == "" {
		return fmt.Errorf("url is required")
	}
	if len(req.Events) == 0 {
		return fmt.Errorf("at least one event type is required")
	}
	return nil
}

func finiteCoord(lat, lng float64) bool {
	return !math.IsNaN(lat) && !math.IsInf(lat, 0) && !math.IsNaN(lng) && !math.IsInf(lng, 0)
}
