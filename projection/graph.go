package projection

import (
	"cmp"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

const (
	smoothIterations = 64
	smoothTolerance  = 1e-5
	minKDistScale    = 1e-3
)

type edge struct {
	head, tail int
	weight     float64
}

type neighbour struct {
	index int
	dist  float64
}

// nearest returns the k nearest points of every point by Euclidean
// distance, excluding the point itself. Ties go to the lower index.
func nearest(data [][]float64, k int) [][]neighbour {
	out := make([][]neighbour, len(data))
	for i := range data {
		cand := make([]neighbour, 0, len(data)-1)
		for j := range data {
			if i == j {
				continue
			}
			cand = append(cand, neighbour{index: j, dist: floats.Distance(data[i], data[j], 2)})
		}
		slices.SortStableFunc(cand, func(x, y neighbour) int {
			return cmp.Compare(x.dist, y.dist)
		})
		out[i] = cand[:k]
	}
	return out
}

// smoothDistances finds the per-point connectivity offset rho and the
// bandwidth sigma such that the membership strengths of the k neighbours
// sum to log2(k+1).
func smoothDistances(knn [][]neighbour, k int) (rhos, sigmas []float64) {
	target := math.Log2(float64(k + 1))
	rhos = make([]float64, len(knn))
	sigmas = make([]float64, len(knn))

	var total float64
	var count int
	for _, ns := range knn {
		for _, n := range ns {
			total += n.dist
			count++
		}
	}
	globalMean := total / float64(max(count, 1))

	for i, ns := range knn {
		for _, n := range ns {
			if n.dist > 0 {
				rhos[i] = n.dist
				break
			}
		}

		lo, hi, mid := 0.0, math.Inf(1), 1.0
		for range smoothIterations {
			var psum float64
			for _, n := range ns {
				psum += membership(n.dist, rhos[i], mid)
			}
			if math.Abs(psum-target) < smoothTolerance {
				break
			}
			if psum > target {
				hi = mid
				mid = (lo + hi) / 2
				continue
			}
			lo = mid
			if math.IsInf(hi, 1) {
				mid *= 2
			} else {
				mid = (lo + hi) / 2
			}
		}

		var local float64
		for _, n := range ns {
			local += n.dist
		}
		local /= float64(len(ns))
		floor := minKDistScale * globalMean
		if rhos[i] > 0 {
			floor = minKDistScale * local
		}
		sigmas[i] = math.Max(mid, floor)
	}
	return rhos, sigmas
}

func membership(dist, rho, sigma float64) float64 {
	d := dist - rho
	if d <= 0 {
		return 1
	}
	return math.Exp(-d / sigma)
}

// fuzzyGraph builds the symmetric fuzzy neighbour graph with the
// probabilistic union w = a + b - ab. Edges are returned once per
// unordered pair, sorted by endpoints.
func fuzzyGraph(data [][]float64, k int) []edge {
	knn := nearest(data, k)
	rhos, sigmas := smoothDistances(knn, k)

	type pair struct{ lo, hi int }
	directed := make(map[[2]int]float64, len(data)*k)
	pairs := make(map[pair]struct{}, len(data)*k)
	for i, ns := range knn {
		for _, n := range ns {
			directed[[2]int{i, n.index}] = membership(n.dist, rhos[i], sigmas[i])
			pairs[pair{min(i, n.index), max(i, n.index)}] = struct{}{}
		}
	}

	edges := make([]edge, 0, len(pairs))
	for p := range pairs {
		a := directed[[2]int{p.lo, p.hi}]
		b := directed[[2]int{p.hi, p.lo}]
		w := a + b - a*b
		if w > 0 {
			edges = append(edges, edge{head: p.lo, tail: p.hi, weight: w})
		}
	}
	slices.SortFunc(edges, func(x, y edge) int {
		if c := cmp.Compare(x.head, y.head); c != 0 {
			return c
		}
		return cmp.Compare(x.tail, y.tail)
	})
	return edges
}
