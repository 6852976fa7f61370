package api

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Problem is the RFC7807 error body every handler returns on failure. Type
// is a stable URN derived from the title so clients can match on it without
// parsing the human-readable text.
type Problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

const problemTypePrefix = "urn:fleetplan:problem:"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(Problem{
		Type:     problemType(title),
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: instance,
	})
}

func problemType(title string) string {
	return problemTypePrefix + strings.ReplaceAll(strings.ToLower(title), " ", "-")
}
