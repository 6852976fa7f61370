// Package solver implements the route-ordering and clustering core: ant-colony
// tour construction, tabu-search refinement and capacity-aware clustering.
package solver

import (
	"math"
	"math/rand"
)

// distEpsilon keeps the heuristic term finite when two stops share coordinates.
const distEpsilon = 0.01

// ACOConfig tunes the ant-colony construction heuristic.
type ACOConfig struct {
	NumAnts       int
	NumIterations int
	Alpha         float64 // pheromone importance
	Beta          float64 // heuristic importance
	Evaporation   float64 // per-iteration pheromone decay
	Q             float64 // deposit scale
}

// DefaultACOConfig derives the standard configuration for n stops.
func DefaultACOConfig(n int) ACOConfig {
	ants := n
	if ants > 20 {
		ants = 20
	}
	iters := 2 * n
	if iters > 100 {
		iters = 100
	}
	return ACOConfig{
		NumAnts:       ants,
		NumIterations: iters,
		Alpha:         1.0,
		Beta:          2.5,
		Evaporation:   0.5,
		Q:             100,
	}
}

// ACOResult is the outcome of one ant-colony run.
type ACOResult struct {
	Tour         []int // depot-to-depot, closed at index 0
	DistanceKm   float64
	Iterations   int
	Improvements int
}

// AntColony owns the pheromone state for a single run. The matrix is created
// here and discarded with the run; nothing is shared across runs.
type AntColony struct {
	cfg        ACOConfig
	dist       [][]float64
	pheromones [][]float64
	rng        *rand.Rand
}

// NewAntColony prepares a run over the given distance matrix. The rng is the
// injected randomness source; identical seeds reproduce identical tours.
func NewAntColony(dist [][]float64, cfg ACOConfig, rng *rand.Rand) *AntColony {
	n := len(dist)
	pher := make([][]float64, n)
	for i := range pher {
		pher[i] = make([]float64, n)
		for j := range pher[i] {
			pher[i][j] = 1.0
		}
	}
	return &AntColony{cfg: cfg, dist: dist, pheromones: pher, rng: rng}
}

// Run executes the configured number of construction rounds and returns the
// best closed tour seen. Ties keep the first tour found.
func (a *AntColony) Run() ACOResult {
	n := len(a.dist)
	if n == 0 {
		return ACOResult{Tour: []int{}}
	}
	if n == 1 {
		return ACOResult{Tour: []int{0}}
	}

	res := ACOResult{DistanceKm: math.Inf(1)}
	for iter := 0; iter < a.cfg.NumIterations; iter++ {
		res.Iterations++
		tours := make([][]int, a.cfg.NumAnts)
		lengths := make([]float64, a.cfg.NumAnts)
		for ant := 0; ant < a.cfg.NumAnts; ant++ {
			tour := a.constructTour()
			length := TourDistance(a.dist, tour)
			tours[ant] = tour
			lengths[ant] = length
			if length < res.DistanceKm {
				res.DistanceKm = length
				res.Tour = append([]int(nil), tour...)
				res.Improvements++
			}
		}
		a.updatePheromones(tours, lengths)
	}
	return res
}

// constructTour builds one closed tour starting and ending at the depot
// (index 0) by repeated roulette-wheel selection over unvisited stops.
func (a *AntColony) constructTour() []int {
	n := len(a.dist)
	tour := make([]int, 0, n+1)
	visited := make([]bool, n)
	current := 0
	tour = append(tour, current)
	visited[current] = true

	weights := make([]float64, n)
	for len(tour) < n {
		total := 0.0
		for j := 0; j < n; j++ {
			weights[j] = 0
			if visited[j] {
				continue
			}
			pher := math.Pow(a.pheromones[current][j], a.cfg.Alpha)
			heur := math.Pow(1.0/(a.dist[current][j]+distEpsilon), a.cfg.Beta)
			weights[j] = pher * heur
			total += weights[j]
		}

		next := -1
		if total > 0 {
			r := a.rng.Float64() * total
			acc := 0.0
			for j := 0; j < n; j++ {
				if visited[j] || weights[j] == 0 {
					continue
				}
				acc += weights[j]
				if r <= acc {
					next = j
					break
				}
			}
		}
		if next == -1 {
			// All weights zero (or rounding spillover): first unvisited wins.
			for j := 0; j < n; j++ {
				if !visited[j] {
					next = j
					break
				}
			}
		}

		tour = append(tour, next)
		visited[next] = true
		current = next
	}
	return append(tour, 0)
}

// updatePheromones evaporates every cell, then deposits Q/length onto each
// traversed edge of every ant's tour. Both directions are updated so the
// matrix stays symmetric.
func (a *AntColony) updatePheromones(tours [][]int, lengths []float64) {
	for i := range a.pheromones {
		for j := range a.pheromones[i] {
			a.pheromones[i][j] *= 1 - a.cfg.Evaporation
		}
	}
	for t, tour := range tours {
		if lengths[t] <= 0 {
			continue
		}
		deposit := a.cfg.Q / lengths[t]
		for i := 0; i < len(tour)-1; i++ {
			from, to := tour[i], tour[i+1]
			a.pheromones[from][to] += deposit
			a.pheromones[to][from] += deposit
		}
	}
}

// TourDistance sums the consecutive-edge distances of a tour.
func TourDistance(dist [][]float64, tour []int) float64 {
	total := 0.0
	for i := 0; i < len(tour)-1; i++ {
		total += dist[tour[i]][tour[i+1]]
	}
	return total
}
