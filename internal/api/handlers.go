package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fleetplan/internal/buildinfo"
	"fleetplan/internal/metrics"
	"fleetplan/internal/model"
	"fleetplan/internal/planner"
	"fleetplan/internal/solver"
	"fleetplan/internal/store"
)

// PlansHandler handles POST/GET /v1/plans
func (s *Server) PlansHandler(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		pr := s.getPrincipal(r)
		if !pr.canPlan() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "dispatcher or admin required", r.URL.Path)
			return
		}
		var req model.PlanRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.TenantID == "" {
			req.TenantID = pr.Tenant
		}
		if err := validatePlanRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid plan request", err.Error(), r.URL.Path)
			return
		}
		plan, err := s.computePlan(r.Context(), req)
		if err != nil {
			status := http.StatusInternalServerError
			title := "Plan computation failed"
			if errors.Is(err, planner.ErrInsufficientInput) || errors.Is(err, planner.ErrInvalidCoordinate) {
				status = http.StatusBadRequest
				title = "Invalid plan input"
			}
			metrics.PlansComputed.WithLabelValues("failed").Inc()
			writeProblem(w, status, title, err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, plan)
	case http.MethodGet:
		pr := s.getPrincipal(r)
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListPlans(r.Context(), pr.Tenant, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List plans failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// computePlan runs the optimization pipeline, persists the result, and
// publishes completion events. A missing fleet is planned as one
// unconstrained vehicle.
func (s *Server) computePlan(ctx context.Context, req model.PlanRequest) (model.Plan, error) {
	vehicles := req.Vehicles
	if len(vehicles) == 0 {
		vehicles = []model.VehicleSpec{{}}
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.Cfg.Solver.Seed
	}
	p := planner.New(s.Roads, seed)
	p.Tuning = planner.Tuning{
		Alpha:       s.Cfg.Solver.Alpha,
		Beta:        s.Cfg.Solver.Beta,
		Evaporation: s.Cfg.Solver.Evaporation,
	}
	fleet, err := p.PlanFleetRoutes(ctx, req.Stops, vehicles, req.Depot)
	if err != nil {
		return model.Plan{}, err
	}

	plan, err := s.Store.CreatePlan(ctx, model.Plan{
		TenantID: req.TenantID,
		Name:     req.Name,
		Status:   "completed",
		Fleet:    fleet,
	})
	if err != nil {
		return model.Plan{}, err
	}

	solver.RecordRun(plan.TenantID, plan.ID, p.Metrics)
	metrics.PlansComputed.WithLabelValues("completed").Inc()
	metrics.PlanDistance.Observe(fleet.TotalDistanceKm)
	metrics.SolverIterations.WithLabelValues("aco").Add(float64(p.Metrics.ACOIterations))
	metrics.SolverIterations.WithLabelValues("tabu").Add(float64(p.Metrics.TabuIterations))

	data := map[string]any{
		"planId":          plan.ID,
		"totalDistanceKm": fleet.TotalDistanceKm,
		"vehicles":        len(vehicles),
		"overloaded":      fleet.Overloaded,
	}
	s.Broker.Publish(plan.ID, model.PlanEvent{Type: "plan.completed", Data: data})
	s.Pub.Emit(ctx, plan.TenantID, "plan.completed", data)
	if fleet.Overloaded {
		s.Broker.Publish(plan.ID, model.PlanEvent{Type: "plan.overloaded", Data: data})
		s.Pub.Emit(ctx, plan.TenantID, "plan.overloaded", data)
	}
	return plan, nil
}

// PlanByIDHandler handles GET/DELETE /v1/plans/{id} and the SSE stream at
// /v1/plans/{id}/events/stream.
func (s *Server) PlanByIDHandler(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/v1/plans/")
	if rest == r.URL.Path || rest == "" {
		writeProblem(w, http.StatusNotFound, "Not Found", "missing id", r.URL.Path)
		return
	}
	parts := strings.Split(rest, "/")
	id := parts[0]

	if len(parts) > 2 && parts[1] == "events" && parts[2] == "stream" {
		s.streamPlanEvents(w, r, id)
		return
	}

	pr := s.getPrincipal(r)
	switch r.Method {
	case http.MethodGet:
		plan, err := s.Store.GetPlan(r.Context(), pr.Tenant, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
				return
			}
			writeProblem(w, http.StatusInternalServerError, "Get plan failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, plan)
	case http.MethodDelete:
		if !pr.IsAdmin() {
			writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
			return
		}
		if err := s.Store.DeletePlan(r.Context(), pr.Tenant, id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeProblem(w, http.StatusNotFound, "Plan not found", "", r.URL.Path)
				return
			}
			writeProblem(w, http.StatusInternalServerError, "Delete plan failed", err.Error(), r.URL.Path)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) streamPlanEvents(w http.ResponseWriter, r *http.Request, id string) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeProblem(w, http.StatusInternalServerError, "Streaming unsupported", "", r.URL.Path)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := s.Broker.Subscribe(id)
	defer s.Broker.Unsubscribe(id, ch)

	heartbeat := func() {
		fmt.Fprintf(w, "event: heartbeat\n")
		fmt.Fprintf(w, "data: {\"planId\":\"%s\",\"ts\":\"%s\"}\n\n", id, time.Now().Format(time.RFC3339))
		flusher.Flush()
	}
	heartbeat()

	notify := r.Context().Done()
	for {
		select {
		case <-notify:
			return
		case evt := <-ch:
			b, _ := json.Marshal(evt.Data)
			fmt.Fprintf(w, "event: %s\n", evt.Type)
			fmt.Fprintf(w, "data: %s\n\n", string(b))
			flusher.Flush()
		case <-time.After(15 * time.Second):
			heartbeat()
		}
	}
}

// SubscriptionsHandler handles POST/GET /v1/subscriptions
func (s *Server) SubscriptionsHandler(w http.ResponseWriter, r *http.Request) {
	pr := s.getPrincipal(r)
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	switch r.Method {
	case http.MethodPost:
		var req model.SubscriptionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
			return
		}
		if req.TenantID == "" {
			req.TenantID = pr.Tenant
		}
		if err := validateSubscriptionRequest(&req); err != nil {
			writeProblem(w, http.StatusBadRequest, "Invalid subscription", err.Error(), r.URL.Path)
			return
		}
		sub, err := s.Store.CreateSubscription(r.Context(), req)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "Create subscription failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusCreated, sub)
	case http.MethodGet:
		cursor := r.URL.Query().Get("cursor")
		limit := 100
		if v := r.URL.Query().Get("limit"); v != "" {
			fmt.Sscanf(v, "%d", &limit)
		}
		items, next, err := s.Store.ListSubscriptions(r.Context(), pr.Tenant, cursor, limit)
		if err != nil {
			writeProblem(w, http.StatusInternalServerError, "List subscriptions failed", err.Error(), r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items, "nextCursor": next})
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

// SubscriptionByIDHandler handles DELETE /v1/subscriptions/{id}
func (s *Server) SubscriptionByIDHandler(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.URL.Path, "/v1/subscriptions/") {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	if r.Method != http.MethodDelete {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	pr := s.getPrincipal(r)
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/v1/subscriptions/")
	if err := s.Store.DeleteSubscription(r.Context(), pr.Tenant, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeProblem(w, http.StatusNotFound, "Subscription not found", "", r.URL.Path)
			return
		}
		writeProblem(w, http.StatusInternalServerError, "Delete subscription failed", err.Error(), r.URL.Path)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SolverMetricsHandler handles GET /v1/admin/solver-metrics
func (s *Server) SolverMetricsHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/admin/solver-metrics" || r.Method != http.MethodGet {
		writeProblem(w, http.StatusNotFound, "Not Found", "", r.URL.Path)
		return
	}
	pr := s.getPrincipal(r)
	if !pr.IsAdmin() {
		writeProblem(w, http.StatusForbidden, "Forbidden", "admin required", r.URL.Path)
		return
	}
	if planID := r.URL.Query().Get("planId"); planID != "" {
		m, ok := solver.GetRun(pr.Tenant, planID)
		if !ok {
			writeProblem(w, http.StatusNotFound, "No metrics for plan", "", r.URL.Path)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"planId": planID, "metrics": m})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": solver.ListRuns(pr.Tenant)})
}

// Health
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	info := buildinfo.Info()
	info["status"] = "ok"
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) ReadyHandler(w http.ResponseWriter, r *http.Request) {
	// Check DB connectivity when using the Postgres store
	type pinger interface{ Ping(ctx context.Context) error }
	if pg, ok := s.Store.(pinger); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := pg.Ping(ctx); err != nil {
			writeProblem(w, http.StatusServiceUnavailable, "Not Ready", err.Error(), r.URL.Path)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
