package engine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	solverMaxIter = 1000
	solverTol     = 1e-10
	// lambdaScans controls how finely the risk-aversion parameter is swept
	// when hunting for the tangency portfolio.
	lambdaScans = 50
)

// projectOntoBoundedSimplex projects v in place onto
// {x : lo <= x_i <= hi, sum x_i = 1} by bisecting on the dual variable of
// the sum constraint: x_i(t) = clamp(v_i - t, lo, hi) with sum x(t)
// non-increasing in t. Requires n*lo <= 1 <= n*hi (checked by the caller).
func projectOntoBoundedSimplex(v []float64, lo, hi float64) {
	n := len(v)
	if n == 0 {
		return
	}

	sumAt := func(t float64) float64 {
		s := 0.0
		for _, x := range v {
			s += clamp(x-t, lo, hi)
		}
		return s
	}

	tLo := floats.Min(v) - hi - 1 // sum == n*hi >= 1
	tHi := floats.Max(v) - lo + 1 // sum == n*lo <= 1
	for iter := 0; iter < 100; iter++ {
		mid := (tLo + tHi) / 2
		if sumAt(mid) > 1 {
			tLo = mid
		} else {
			tHi = mid
		}
	}
	t := (tLo + tHi) / 2
	for i := range v {
		v[i] = clamp(v[i]-t, lo, hi)
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

// solveBoundedQP solves min w'Σw − λ·μ'w  s.t. lo <= w_i <= hi, 1'w = 1
// via projected gradient descent onto the bounded simplex. λ controls the
// tradeoff between variance minimisation and return maximisation.
func solveBoundedQP(mu []float64, cov *mat.SymDense, lambda, lo, hi float64) []float64 {
	n := len(mu)
	if n == 0 {
		return nil
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	projectOntoBoundedSimplex(w, lo, hi)

	// Step size 1/(2·trace(Σ)): the Lipschitz constant of ∇(w'Σw) = 2Σw is
	// 2·λ_max(Σ) <= 2·trace(Σ). The linear term has zero Hessian.
	trace := 0.0
	for i := 0; i < n; i++ {
		trace += cov.At(i, i)
	}
	if trace <= 0 {
		return w
	}
	stepSize := 1.0 / (2 * trace)

	wVec := mat.NewVecDense(n, w)
	var grad mat.VecDense
	prev := make([]float64, n)

	for iter := 0; iter < solverMaxIter; iter++ {
		grad.MulVec(cov, wVec)

		copy(prev, w)
		for i := range w {
			w[i] -= stepSize * (2*grad.AtVec(i) - lambda*mu[i])
		}
		projectOntoBoundedSimplex(w, lo, hi)

		maxDiff := 0.0
		for i := range w {
			if d := math.Abs(w[i] - prev[i]); d > maxDiff {
				maxDiff = d
			}
		}
		if maxDiff < solverTol {
			break
		}
	}
	return w
}

// solveMinVolatility finds the minimum-variance portfolio within bounds.
func solveMinVolatility(cov *mat.SymDense, lo, hi float64) []float64 {
	n, _ := cov.Dims()
	return solveBoundedQP(make([]float64, n), cov, 0, lo, hi)
}

// solveMaxSharpe finds the tangency portfolio within bounds by sweeping the
// risk-aversion parameter and keeping the solution with the highest Sharpe
// ratio at the given risk-free rate. Robust for the small n used here.
func solveMaxSharpe(mu []float64, cov *mat.SymDense, riskFree, lo, hi float64) []float64 {
	n := len(mu)
	if n == 0 {
		return nil
	}

	bestSharpe := math.Inf(-1)
	var bestW []float64

	for k := 0; k <= lambdaScans; k++ {
		var lambda float64
		if k > 0 {
			t := float64(k) / float64(lambdaScans)
			lambda = 0.001 * math.Pow(100000, t) // 0.001 to 100, log-spaced
		}
		w := solveBoundedQP(mu, cov, lambda, lo, hi)
		vol := math.Sqrt(portfolioVariance(w, cov))
		if vol <= 0 {
			continue
		}
		sr := (floats.Dot(w, mu) - riskFree) / vol
		if sr > bestSharpe {
			bestSharpe = sr
			bestW = w
		}
	}

	if bestW == nil {
		bestW = solveMinVolatility(cov, lo, hi)
	}
	return bestW
}

// traceFrontier traces the efficient frontier within bounds by sweeping λ,
// removing dominated points, deduplicating and downsampling to numPoints.
func traceFrontier(mu []float64, cov *mat.SymDense, lo, hi float64, numPoints int) []FrontierPoint {
	if len(mu) == 0 || numPoints < 2 {
		return nil
	}

	type rawPoint struct {
		risk, ret float64
	}
	var raw []rawPoint
	for k := 0; k < numPoints*2; k++ {
		var lambda float64
		if k > 0 {
			t := float64(k) / float64(numPoints*2-1)
			lambda = 0.001 * math.Pow(1000000, t) // 0.001 to 1000
		}
		w := solveBoundedQP(mu, cov, lambda, lo, hi)
		raw = append(raw, rawPoint{
			risk: math.Sqrt(portfolioVariance(w, cov)),
			ret:  floats.Dot(w, mu),
		})
	}

	sort.Slice(raw, func(i, j int) bool { return raw[i].risk < raw[j].risk })

	// Keep only points with monotonically increasing return.
	var clean []rawPoint
	maxRet := math.Inf(-1)
	for _, p := range raw {
		if p.ret > maxRet {
			clean = append(clean, p)
			maxRet = p.ret
		}
	}
	if len(clean) == 0 {
		return nil
	}

	// Deduplicate points closer than 0.1% of the risk range.
	riskRange := clean[len(clean)-1].risk - clean[0].risk
	minGap := riskRange * 0.001
	if minGap < 1e-12 {
		minGap = 1e-12
	}
	frontier := []FrontierPoint{{Risk: clean[0].risk, Return: clean[0].ret}}
	for _, p := range clean[1:] {
		last := frontier[len(frontier)-1]
		if p.risk-last.Risk >= minGap {
			frontier = append(frontier, FrontierPoint{Risk: p.risk, Return: p.ret})
		}
	}

	if len(frontier) > numPoints {
		sampled := make([]FrontierPoint, numPoints)
		for i := 0; i < numPoints; i++ {
			idx := i * (len(frontier) - 1) / (numPoints - 1)
			sampled[i] = frontier[idx]
		}
		frontier = sampled
	}
	return frontier
}

func portfolioVariance(w []float64, cov *mat.SymDense) float64 {
	v := mat.NewVecDense(len(w), w)
	return mat.Inner(v, cov, v)
}
