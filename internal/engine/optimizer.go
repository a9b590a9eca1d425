package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"esg-folio/internal/marketdata"
)

const (
	// frontierPoints is how many points to sample on the efficient frontier.
	frontierPoints = 30
	// weightCutoff hides solver noise: weights smaller than this in
	// absolute value are treated as zero.
	weightCutoff = 1e-4
)

// Optimize computes expected returns and covariance from the price table,
// solves the selected objective within the weight bounds and returns the
// allocation together with the efficient frontier for plotting.
func Optimize(table *marketdata.PriceTable, p Params) (*Allocation, error) {
	n := len(table.Symbols)
	if n < 2 {
		return nil, fmt.Errorf("optimize: need at least 2 priced assets, have %d", n)
	}
	if err := checkBounds(n, p.MinWeight, p.MaxWeight); err != nil {
		return nil, err
	}

	rets, err := dailyReturns(table)
	if err != nil {
		return nil, err
	}
	mu := expectedReturns(rets)
	cov := sampleCovariance(rets)

	trace := 0.0
	for i := 0; i < n; i++ {
		trace += cov.At(i, i)
	}
	if trace <= 0 {
		return nil, fmt.Errorf("optimize: degenerate covariance (zero total variance)")
	}

	var w []float64
	switch p.Objective {
	case MinVolatility:
		w = solveMinVolatility(cov, p.MinWeight, p.MaxWeight)
	case MaxSharpe, "":
		w = solveMaxSharpe(mu, cov, p.RiskFreeRate, p.MinWeight, p.MaxWeight)
	default:
		return nil, fmt.Errorf("optimize: unknown objective %q", p.Objective)
	}

	ret := floats.Dot(w, mu)
	vol := math.Sqrt(portfolioVariance(w, cov))
	sharpe := 0.0
	if vol > 0 {
		sharpe = (ret - p.RiskFreeRate) / vol
	}

	weights := make(map[string]float64)
	for i, sym := range table.Symbols {
		if math.Abs(w[i]) > weightCutoff {
			weights[sym] = round5(w[i])
		}
	}

	assets := make([]AssetPoint, n)
	for i, sym := range table.Symbols {
		assets[i] = AssetPoint{
			Symbol: sym,
			Risk:   math.Sqrt(cov.At(i, i)),
			Return: mu[i],
		}
	}

	T, _ := rets.Dims()
	return &Allocation{
		Objective:    p.Objective,
		Weights:      weights,
		Return:       ret,
		Volatility:   vol,
		Sharpe:       sharpe,
		RiskFreeRate: p.RiskFreeRate,
		Frontier:     traceFrontier(mu, cov, p.MinWeight, p.MaxWeight, frontierPoints),
		Optimum:      FrontierPoint{Risk: vol, Return: ret},
		Assets:       assets,
		AssetCount:   n,
		Observations: T,
	}, nil
}

// checkBounds validates that the bounded simplex is non-empty.
func checkBounds(n int, lo, hi float64) error {
	if hi <= 0 || hi > 1 {
		return fmt.Errorf("optimize: max weight %g out of range (0, 1]", hi)
	}
	if lo < -1 || lo > hi {
		return fmt.Errorf("optimize: min weight %g out of range [-1, max]", lo)
	}
	if float64(n)*hi < 1 {
		return fmt.Errorf("optimize: %d assets at max weight %g cannot sum to 1", n, hi)
	}
	if float64(n)*lo > 1 {
		return fmt.Errorf("optimize: %d assets at min weight %g exceed 1", n, lo)
	}
	return nil
}

func round5(x float64) float64 {
	return math.Round(x*1e5) / 1e5
}
