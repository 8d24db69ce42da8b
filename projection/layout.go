package projection

import (
	"context"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat"
)

const (
	initialAlpha   = 1.0
	negativeRate   = 5
	gradientClip   = 4.0
	initialExtent  = 10.0
	curveSamples   = 300
	repulsionFloor = 0.001
)

// Curve parameters for min_dist 0.1 and spread 1, used when the fit
// does not converge to something usable.
const (
	fallbackA = 1.577
	fallbackB = 0.895
)

func newRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// fitCurve fits 1 / (1 + a*x^(2b)) to the target membership curve that is
// 1 below minDist and decays as exp(-(x - minDist) / spread) above it.
func fitCurve(minDist, spread float64) (a, b float64) {
	xs := floats.Span(make([]float64, curveSamples), 0, 3*spread)
	ys := make([]float64, len(xs))
	for i, x := range xs {
		ys[i] = 1
		if x >= minDist {
			ys[i] = math.Exp(-(x - minDist) / spread)
		}
	}

	problem := optimize.Problem{
		Func: func(p []float64) float64 {
			a, b := p[0], p[1]
			if a <= 0 || b <= 0 {
				return math.Inf(1)
			}
			var sum float64
			for i, x := range xs {
				r := 1/(1+a*math.Pow(x, 2*b)) - ys[i]
				sum += r * r
			}
			return sum
		},
	}

	res, err := optimize.Minimize(problem, []float64{1, 1}, nil, &optimize.NelderMead{})
	if err != nil || !validCurve(res.X) {
		return fallbackA, fallbackB
	}
	return res.X[0], res.X[1]
}

func validCurve(x []float64) bool {
	if len(x) != 2 {
		return false
	}
	for _, v := range x {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// initialLayout projects the centred data onto its first two principal
// components and scales the result into [-10, 10]. Degenerate input gets a
// uniform random layout instead.
func initialLayout(data [][]float64, rng *rand.Rand) [][2]float64 {
	n, d := len(data), len(data[0])
	emb := make([][2]float64, n)

	var maxAbs float64
	if d > 0 {
		x := mat.NewDense(n, d, nil)
		for i, row := range data {
			x.SetRow(i, row)
		}
		for j := range d {
			col := mat.Col(nil, j, x)
			mean := stat.Mean(col, nil)
			for i := range n {
				x.Set(i, j, col[i]-mean)
			}
		}

		var pc stat.PC
		if pc.PrincipalComponents(x, nil) {
			var vecs mat.Dense
			pc.VectorsTo(&vecs)
			_, c := vecs.Dims()
			c = min(c, 2)

			var proj mat.Dense
			proj.Mul(x, vecs.Slice(0, d, 0, c))
			for i := range n {
				for j := range c {
					emb[i][j] = proj.At(i, j)
					maxAbs = math.Max(maxAbs, math.Abs(emb[i][j]))
				}
			}
		}
	}

	if maxAbs == 0 || math.IsNaN(maxAbs) {
		for i := range emb {
			emb[i] = [2]float64{
				rng.Float64()*2*initialExtent - initialExtent,
				rng.Float64()*2*initialExtent - initialExtent,
			}
		}
		return emb
	}

	scale := initialExtent / maxAbs
	for i := range emb {
		for j := range 2 {
			emb[i][j] = emb[i][j]*scale + rng.NormFloat64()*1e-4
		}
	}
	return emb
}

// optimizeLayout runs SGD over the fuzzy graph. Each edge is sampled in
// proportion to its weight, pulling its endpoints together, and every
// sample is followed by negativeRate repulsive samples against random
// points. The learning rate decays linearly to zero.
func optimizeLayout(ctx context.Context, emb [][2]float64, edges []edge, a, b float64, epochs int, rng *rand.Rand) error {
	directed := make([]edge, 0, 2*len(edges))
	var maxW float64
	for _, e := range edges {
		directed = append(directed, e, edge{head: e.tail, tail: e.head, weight: e.weight})
		maxW = math.Max(maxW, e.weight)
	}
	if maxW == 0 {
		return nil
	}

	n := len(emb)
	perSample := make([]float64, len(directed))
	perNegative := make([]float64, len(directed))
	nextSample := make([]float64, len(directed))
	nextNegative := make([]float64, len(directed))
	for i, e := range directed {
		// edges too weak to be sampled once in the whole run are dropped
		if e.weight*float64(epochs) < maxW {
			perSample[i] = -1
			continue
		}
		perSample[i] = maxW / e.weight
		perNegative[i] = perSample[i] / negativeRate
		nextSample[i] = perSample[i]
		nextNegative[i] = perNegative[i]
	}

	for epoch := range epochs {
		if err := ctx.Err(); err != nil {
			return err
		}
		alpha := initialAlpha * (1 - float64(epoch)/float64(epochs))
		now := float64(epoch)

		for i, e := range directed {
			if perSample[i] < 0 || nextSample[i] > now {
				continue
			}

			attract(&emb[e.head], &emb[e.tail], a, b, alpha)
			nextSample[i] += perSample[i]

			negatives := int((now - nextNegative[i]) / perNegative[i])
			for range negatives {
				k := rng.IntN(n)
				if k == e.head {
					continue
				}
				repel(&emb[e.head], &emb[k], a, b, alpha)
			}
			nextNegative[i] += float64(negatives) * perNegative[i]
		}
	}
	return nil
}

func attract(yi, yj *[2]float64, a, b, alpha float64) {
	d2 := sqDist(yi, yj)
	if d2 <= 0 {
		return
	}
	coef := -2 * a * b * math.Pow(d2, b-1) / (a*math.Pow(d2, b) + 1)
	for d := range 2 {
		g := clip(coef * (yi[d] - yj[d]))
		yi[d] += g * alpha
		yj[d] -= g * alpha
	}
}

func repel(yi, yk *[2]float64, a, b, alpha float64) {
	d2 := sqDist(yi, yk)
	var coef float64
	if d2 > 0 {
		coef = 2 * b / ((repulsionFloor + d2) * (a*math.Pow(d2, b) + 1))
	}
	for d := range 2 {
		g := gradientClip
		if coef > 0 {
			g = clip(coef * (yi[d] - yk[d]))
		}
		yi[d] += g * alpha
	}
}

func sqDist(x, y *[2]float64) float64 {
	dx, dy := x[0]-y[0], x[1]-y[1]
	return dx*dx + dy*dy
}

func clip(v float64) float64 {
	return math.Max(-gradientClip, math.Min(gradientClip, v))
}
