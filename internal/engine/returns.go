package engine

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"esg-folio/internal/marketdata"
)

// tradingDays is the annualisation factor for daily observations.
const tradingDays = 252

// dailyReturns builds the T-1 x n matrix of simple daily returns from the
// price table, in table.Symbols order. Gaps are forward-filled before
// differencing so partially-missing tickers still contribute.
func dailyReturns(table *marketdata.PriceTable) (*mat.Dense, error) {
	n := len(table.Symbols)
	T := len(table.Dates)
	if T < 3 {
		return nil, fmt.Errorf("returns: need at least 3 price observations, have %d", T)
	}

	rets := mat.NewDense(T-1, n, nil)
	for j, sym := range table.Symbols {
		col := table.Filled(sym)
		for t := 1; t < T; t++ {
			r := 0.0
			if col[t-1] > 0 {
				r = col[t]/col[t-1] - 1
			}
			rets.Set(t-1, j, r)
		}
	}
	return rets, nil
}

// expectedReturns computes compounded annualised expected returns per asset
// from the daily return matrix.
func expectedReturns(rets *mat.Dense) []float64 {
	T, n := rets.Dims()
	mu := make([]float64, n)
	for j := 0; j < n; j++ {
		growth := 1.0
		for t := 0; t < T; t++ {
			growth *= 1 + rets.At(t, j)
		}
		if growth <= 0 {
			mu[j] = -1 // total loss floor
			continue
		}
		mu[j] = math.Pow(growth, tradingDays/float64(T)) - 1
	}
	return mu
}

// sampleCovariance computes the annualised sample covariance matrix of the
// daily return matrix.
func sampleCovariance(rets *mat.Dense) *mat.SymDense {
	_, n := rets.Dims()
	var daily mat.SymDense
	stat.CovarianceMatrix(&daily, rets, nil)

	annual := mat.NewSymDense(n, nil)
	annual.ScaleSym(tradingDays, &daily)
	return annual
}
