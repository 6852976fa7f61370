package solver

import (
	"math"
	"sort"

	"fleetplan/internal/geo"
)

const (
	clusterMaxRounds = 20
	clusterEpsilon   = 1e-6
)

// ClusterResult maps every stop to exactly one vehicle slot. Loads may exceed
// a vehicle's capacity after forced assignment; that is surfaced here as data,
// never as an error.
type ClusterResult struct {
	Assignment []int // stop index -> vehicle index
	Loads      []float64
	Centroids  []geo.Point
	Rounds     int
	Overloaded bool
}

// ClusterCapacitated assigns points to len(capacities) vehicles with an
// iterative constrained k-means. Stops are processed in descending demand
// order (first-fit-decreasing bias, reduces overload frequency). A stop that
// fits no vehicle is force-assigned to the one with the greatest remaining
// capacity, even past its limit.
func ClusterCapacitated(points []geo.Point, demands, capacities []float64) ClusterResult {
	k := len(capacities)
	n := len(points)
	res := ClusterResult{
		Assignment: make([]int, n),
		Loads:      make([]float64, k),
		Centroids:  initialCentroids(points, k),
	}
	if n == 0 || k == 0 {
		return res
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return demandAt(demands, order[a]) > demandAt(demands, order[b])
	})

	for round := 0; round < clusterMaxRounds; round++ {
		res.Rounds++
		for v := range res.Loads {
			res.Loads[v] = 0
		}

		var deferred []int
		for _, si := range order {
			d := demandAt(demands, si)
			bestVehicle := -1
			bestDist := math.Inf(1)
			for v := 0; v < k; v++ {
				if capacities[v]-res.Loads[v] < d {
					continue
				}
				dist := euclidean(points[si], res.Centroids[v])
				if dist < bestDist {
					bestDist = dist
					bestVehicle = v
				}
			}
			if bestVehicle == -1 {
				deferred = append(deferred, si)
				continue
			}
			res.Assignment[si] = bestVehicle
			res.Loads[bestVehicle] += d
		}

		// Forced overflow: most remaining capacity wins, load may exceed it.
		for _, si := range deferred {
			v := mostRemaining(capacities, res.Loads)
			res.Assignment[si] = v
			res.Loads[v] += demandAt(demands, si)
		}

		if recenter(points, res.Assignment, res.Centroids) < clusterEpsilon {
			break
		}
	}

	for v := 0; v < k; v++ {
		if res.Loads[v] > capacities[v] {
			res.Overloaded = true
			break
		}
	}
	return res
}

// ClusterByCount partitions points into k groups with plain k-means, no
// capacity constraint.
func ClusterByCount(points []geo.Point, demands []float64, k int) ClusterResult {
	caps := make([]float64, k)
	for i := range caps {
		caps[i] = math.Inf(1)
	}
	res := ClusterCapacitated(points, demands, caps)
	res.Overloaded = false
	return res
}

func demandAt(demands []float64, i int) float64 {
	if i >= len(demands) {
		return 0
	}
	return demands[i]
}

func euclidean(a, b geo.Point) float64 {
	dLat := a.Lat - b.Lat
	dLng := a.Lng - b.Lng
	return math.Sqrt(dLat*dLat + dLng*dLng)
}

// initialCentroids spreads k centroids evenly across the coordinate range of
// the points.
func initialCentroids(points []geo.Point, k int) []geo.Point {
	cs := make([]geo.Point, k)
	if len(points) == 0 || k == 0 {
		return cs
	}
	minLat, maxLat := points[0].Lat, points[0].Lat
	minLng, maxLng := points[0].Lng, points[0].Lng
	for _, p := range points[1:] {
		minLat = math.Min(minLat, p.Lat)
		maxLat = math.Max(maxLat, p.Lat)
		minLng = math.Min(minLng, p.Lng)
		maxLng = math.Max(maxLng, p.Lng)
	}
	for j := 0; j < k; j++ {
		frac := 0.5
		if k > 1 {
			frac = float64(j) / float64(k-1)
		}
		cs[j] = geo.Point{
			Lat: minLat + frac*(maxLat-minLat),
			Lng: minLng + frac*(maxLng-minLng),
		}
	}
	return cs
}

// recenter moves each centroid to the mean of its assigned points, leaving
// centroids with no members unchanged. Returns the largest movement.
func recenter(points []geo.Point, assignment []int, centroids []geo.Point) float64 {
	k := len(centroids)
	sumLat := make([]float64, k)
	sumLng := make([]float64, k)
	count := make([]int, k)
	for si, v := range assignment {
		sumLat[v] += points[si].Lat
		sumLng[v] += points[si].Lng
		count[v]++
	}
	moved := 0.0
	for v := 0; v < k; v++ {
		if count[v] == 0 {
			continue
		}
		next := geo.Point{Lat: sumLat[v] / float64(count[v]), Lng: sumLng[v] / float64(count[v])}
		moved = math.Max(moved, euclidean(centroids[v], next))
		centroids[v] = next
	}
	return moved
}

func mostRemaining(capacities, loads []float64) int {
	best := 0
	bestRem := math.Inf(-1)
	for v := range capacities {
		rem := capacities[v] - loads[v]
		if rem > bestRem {
			bestRem = rem
			best = v
		}
	}
	return best
}
