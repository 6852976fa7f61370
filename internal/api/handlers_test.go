package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"fleetplan/internal/config"
	"fleetplan/internal/model"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config: %v", err)
	}
	s, err := NewServer(cfg)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	return s
}

func postJSON(t *testing.T, s *Server, h http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	b, _ := json.Marshal(body)
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-Id", "t_test")
	h(rr, req)
	return rr
}

func TestHealthReady(t *testing.T) {
	s := newTestServer(t)
	rr := httptest.NewRecorder()
	s.HealthHandler(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != 200 {
		t.Fatalf("health: got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	s.ReadyHandler(rr, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rr.Code != 200 {
		t.Fatalf("ready: got %d", rr.Code)
	}
}

func TestPlanCreateGetList(t *testing.T) {
	s := newTestServer(t)
	req := model.PlanRequest{
		Name: "randstad morning",
		Depot: &model.Stop{ID: "depot", Lat: 52.37, Lng: 4.89},
		Stops: []model.Stop{
			{ID: "utr", Lat: 52.09, Lng: 5.12, Demand: 2},
			{ID: "rot", Lat: 51.92, Lng: 4.48, Demand: 1},
		},
		Seed: 7,
	}
	rr := postJSON(t, s, s.PlansHandler, "/v1/plans", req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: got %d body %s", rr.Code, rr.Body.String())
	}
	var plan model.Plan
	if err := json.Unmarshal(rr.Body.Bytes(), &plan); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if plan.ID == "" || plan.Status != "completed" {
		t.Fatalf("plan %+v", plan)
	}
	if len(plan.Fleet.PerVehicle) != 1 || plan.Fleet.TotalDistanceKm <= 0 {
		t.Fatalf("fleet %+v", plan.Fleet)
	}
	if plan.Fleet.PerVehicle[0].Order[0].ID != "depot" {
		t.Fatalf("route must start at depot, got %+v", plan.Fleet.PerVehicle[0].Order)
	}

	// GET by id
	rr = httptest.NewRecorder()
	getReq := httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID, nil)
	getReq.Header.Set("X-Tenant-Id", "t_test")
	s.PlanByIDHandler(rr, getReq)
	if rr.Code != 200 {
		t.Fatalf("get: %d", rr.Code)
	}

	// list
	rr = httptest.NewRecorder()
	listReq := httptest.NewRequest(http.MethodGet, "/v1/plans?limit=5", nil)
	listReq.Header.Set("X-Tenant-Id", "t_test")
	s.PlansHandler(rr, listReq)
	if rr.Code != 200 {
		t.Fatalf("list: %d", rr.Code)
	}
	var idx struct {
		Items []model.Plan `json:"items"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &idx); err != nil || len(idx.Items) != 1 {
		t.Fatalf("list body: %s", rr.Body.String())
	}
}

func TestPlanCreateRejectsBadCoordinates(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s, s.PlansHandler, "/v1/plans", map[string]any{
		"stops": []map[string]any{{"id": "x", "lat": 91.0, "lng": "not-a-number"}},
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad body: got %d", rr.Code)
	}
	var prob Problem
	if err := json.Unmarshal(rr.Body.Bytes(), &prob); err != nil || prob.Status != 400 {
		t.Fatalf("problem body: %s", rr.Body.String())
	}
}

func TestPlanCreateRejectsEmptyRequest(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s, s.PlansHandler, "/v1/plans", model.PlanRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("empty request: got %d", rr.Code)
	}
}

func TestPlanCreateRequiresDispatcherRole(t *testing.T) {
	s := newTestServer(t)
	b, _ := json.Marshal(model.PlanRequest{Stops: []model.Stop{{ID: "a", Lat: 1, Lng: 2}}})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/v1/plans", bytes.NewReader(b))
	req.Header.Set("X-Tenant-Id", "t_test")
	req.Header.Set("X-Role", "viewer")
	s.PlansHandler(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("viewer create: got %d", rr.Code)
	}
}

func TestPlanFleetOverloadReported(t *testing.T) {
	s := newTestServer(t)
	req := model.PlanRequest{
		Stops: []model.Stop{
			{ID: "a", Lat: 52.37, Lng: 4.89, Demand: 3},
			{ID: "b", Lat: 52.09, Lng: 5.12, Demand: 3},
		},
		Vehicles: []model.VehicleSpec{{Capacity: 2}, {Capacity: 2}},
		Seed:     3,
	}
	rr := postJSON(t, s, s.PlansHandler, "/v1/plans", req)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d body %s", rr.Code, rr.Body.String())
	}
	var plan model.Plan
	_ = json.Unmarshal(rr.Body.Bytes(), &plan)
	if !plan.Fleet.Overloaded {
		t.Fatal("overload not reported in plan")
	}
}

func TestPlanDeleteAndTenantIsolation(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s, s.PlansHandler, "/v1/plans", model.PlanRequest{
		Stops: []model.Stop{{ID: "a", Lat: 52.0, Lng: 4.0}},
		Seed:  1,
	})
	var plan model.Plan
	_ = json.Unmarshal(rr.Body.Bytes(), &plan)

	// other tenant cannot see it
	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/plans/"+plan.ID, nil)
	req.Header.Set("X-Tenant-Id", "t_other")
	s.PlanByIDHandler(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-tenant get: %d", rr.Code)
	}

	// owner deletes
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/v1/plans/"+plan.ID, nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.PlanByIDHandler(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete: %d", rr.Code)
	}
}

func TestSubscriptionsLifecycle(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s, s.SubscriptionsHandler, "/v1/subscriptions", model.SubscriptionRequest{
		URL: "https://example.com/hook", Events: []string{"plan.completed"}, Secret: "s",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create sub: %d body %s", rr.Code, rr.Body.String())
	}
	var sub model.Subscription
	_ = json.Unmarshal(rr.Body.Bytes(), &sub)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/subscriptions", nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.SubscriptionsHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("list subs: %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodDelete, "/v1/subscriptions/"+sub.ID, nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.SubscriptionByIDHandler(rr, req)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete sub: %d", rr.Code)
	}
}

func TestSolverMetricsAfterPlan(t *testing.T) {
	s := newTestServer(t)
	rr := postJSON(t, s, s.PlansHandler, "/v1/plans", model.PlanRequest{
		Stops: []model.Stop{
			{ID: "a", Lat: 52.37, Lng: 4.89},
			{ID: "b", Lat: 52.09, Lng: 5.12},
			{ID: "c", Lat: 51.92, Lng: 4.48},
		},
		Seed: 11,
	})
	var plan model.Plan
	_ = json.Unmarshal(rr.Body.Bytes(), &plan)

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/admin/solver-metrics?planId="+plan.ID, nil)
	req.Header.Set("X-Tenant-Id", "t_test")
	s.SolverMetricsHandler(rr, req)
	if rr.Code != 200 {
		t.Fatalf("solver metrics: %d body %s", rr.Code, rr.Body.String())
	}
	var out struct {
		Metrics struct {
			ACOIterations int `json:"acoIterations"`
		} `json:"metrics"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil || out.Metrics.ACOIterations == 0 {
		t.Fatalf("metrics body: %s", rr.Body.String())
	}
}

func TestPlanEventBrokerReceivesCompletion(t *testing.T) {
	s := newTestServer(t)
	// Subscribing before the plan exists cannot work for synchronous plans,
	// so verify the publish path through the broker directly.
	done := make(chan model.PlanEvent, 1)
	orig := s.Broker
	s.Broker = &captureBroker{inner: orig, out: done}

	rr := postJSON(t, s, s.PlansHandler, "/v1/plans", model.PlanRequest{
		Stops: []model.Stop{{ID: "a", Lat: 52.0, Lng: 4.0}, {ID: "b", Lat: 52.1, Lng: 4.1}},
		Seed:  5,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create: %d", rr.Code)
	}
	select {
	case evt := <-done:
		if evt.Type != "plan.completed" {
			t.Fatalf("event type %q", evt.Type)
		}
	default:
		t.Fatal("no completion event published")
	}
}

type captureBroker struct {
	inner EventBroker
	out   chan model.PlanEvent
}

func (c *captureBroker) Subscribe(planID string) chan model.PlanEvent { return c.inner.Subscribe(planID) }
func (c *captureBroker) Unsubscribe(planID string, ch chan model.PlanEvent) {
	c.inner.Unsubscribe(planID, ch)
}
func (c *captureBroker) Publish(planID string, evt model.PlanEvent) {
	select {
	case c.out <- evt:
	default:
	}
	c.inner.Publish(planID, evt)
}
