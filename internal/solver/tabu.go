package solver

import "math"

// moveKey identifies a 2-opt segment reversal by its boundary positions.
type moveKey struct {
	i, k int
}

// TabuResult is the outcome of one refinement run.
type TabuResult struct {
	Tour       []int
	DistanceKm float64
	Iterations int
}

// TabuRefine polishes a closed tour with 2-opt moves under a short-term
// memory. Recently applied moves are tabu for a fixed tenure, evicted strictly
// oldest-first; a tabu move is still eligible when it would beat the best
// distance seen (aspiration). The result is never worse than the input.
func TabuRefine(dist [][]float64, tour []int) TabuResult {
	interior := len(tour) - 2
	best := append([]int(nil), tour...)
	bestDist := TourDistance(dist, tour)
	if interior < 4 {
		// No improving 2-opt move exists on fewer than 4 interior stops.
		return TabuResult{Tour: best, DistanceKm: bestDist}
	}

	maxIterations := 3 * interior
	if maxIterations > 200 {
		maxIterations = 200
	}
	tenure := int(math.Floor(math.Sqrt(float64(interior))))

	current := append([]int(nil), tour...)
	tabu := map[moveKey]struct{}{}
	fifo := []moveKey{}

	res := TabuResult{}
	for iter := 0; iter < maxIterations; iter++ {
		res.Iterations++
		bestMove := moveKey{-1, -1}
		bestMoveDist := math.Inf(1)
		for i := 1; i < len(current)-2; i++ {
			for k := i + 1; k < len(current)-1; k++ {
				cand := twoOptSwap(current, i, k)
				d := TourDistance(dist, cand)
				_, isTabu := tabu[moveKey{i, k}]
				if isTabu && d >= bestDist {
					continue
				}
				if d < bestMoveDist {
					bestMoveDist = d
					bestMove = moveKey{i, k}
				}
			}
		}
		if bestMove.i < 0 {
			break // every move tabu and none aspirates
		}

		current = twoOptSwap(current, bestMove.i, bestMove.k)
		tabu[bestMove] = struct{}{}
		fifo = append(fifo, bestMove)
		if len(fifo) > tenure {
			oldest := fifo[0]
			fifo = fifo[1:]
			delete(tabu, oldest)
		}

		if bestMoveDist < bestDist {
			bestDist = bestMoveDist
			best = append([]int(nil), current...)
		}
	}

	res.Tour = best
	res.DistanceKm = bestDist
	return res
}

// twoOptSwap returns a copy of the tour with the segment [i,k] reversed.
func twoOptSwap(tour []int, i, k int) []int {
	out := make([]int, len(tour))
	copy(out, tour[:i])
	pos := i
	for j := k; j >= i; j-- {
		out[pos] = tour[j]
		pos++
	}
	copy(out[pos:], tour[k+1:])
	return out
}
