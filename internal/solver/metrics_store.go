package solver

import "sync"

// RunMetrics summarizes one planning run for admin inspection.
type RunMetrics struct {
	ACOIterations   int     `json:"acoIterations"`
	ACOImprovements int     `json:"acoImprovements"`
	TabuIterations  int     `json:"tabuIterations"`
	ClusterRounds   int     `json:"clusterRounds"`
	Vehicles        int     `json:"vehicles"`
	BestDistanceKm  float64 `json:"bestDistanceKm"`
}

type runKey struct {
	Tenant string
	PlanID string
}

var (
	runMu    sync.Mutex
	runStore = map[runKey]RunMetrics{}
)

// RecordRun stores the metrics of a finished planning run.
func RecordRun(tenant, planID string, m RunMetrics) {
	runMu.Lock()
	runStore[runKey{Tenant: tenant, PlanID: planID}] = m
	runMu.Unlock()
}

// GetRun returns the recorded metrics for a plan, if any.
func GetRun(tenant, planID string) (RunMetrics, bool) {
	runMu.Lock()
	defer runMu.Unlock()
	m, ok := runStore[runKey{Tenant: tenant, PlanID: planID}]
	return m, ok
}

// ListRuns returns all recorded metrics for a tenant keyed by plan id.
func ListRuns(tenant string) map[string]RunMetrics {
	runMu.Lock()
	defer runMu.Unlock()
	out := map[string]RunMetrics{}
	for k, v := range runStore {
		if k.Tenant == tenant {
			out[k.PlanID] = v
		}
	}
	return out
}
