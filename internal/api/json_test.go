package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestWriteProblemBody(t *testing.T) {
	rr := httptest.NewRecorder()
	writeProblem(rr, 404, "Plan not found", "no such plan", "/v1/plans/x")

	if ct := rr.Header().Get("Content-Type"); ct != "application/problem+json" {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Code != 404 {
		t.Fatalf("status = %d", rr.Code)
	}
	var prob Problem
	if err := json.Unmarshal(rr.Body.Bytes(), &prob); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if prob.Type != "urn:fleetplan:problem:plan-not-found" {
		t.Fatalf("type = %q", prob.Type)
	}
	if prob.Title != "Plan not found" || prob.Status != 404 || prob.Instance != "/v1/plans/x" {
		t.Fatalf("problem %+v", prob)
	}
}

func TestWriteJSONContentType(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, 201, map[string]string{"id": "p1"})
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content type = %q", ct)
	}
	if rr.Code != 201 {
		t.Fatalf("status = %d", rr.Code)
	}
}
