package engine

import (
	"fmt"
	"math"

	"esg-folio/internal/marketdata"
)

// PerformancePoint is one day of cumulative log return for the optimised
// portfolio and, when available, the benchmark.
type PerformancePoint struct {
	Date      string  `json:"date"`
	Portfolio float64 `json:"portfolio"`
	Benchmark float64 `json:"benchmark"`
}

// CumulativePerformance builds the cumulative log-return series of the
// weighted portfolio over the price table, aligned with a benchmark series
// fetched over the same window. Benchmark values on dates the benchmark did
// not trade carry the previous value.
func CumulativePerformance(table *marketdata.PriceTable, weights map[string]float64, bench *marketdata.PriceTable, benchSymbol string) ([]PerformancePoint, error) {
	T := len(table.Dates)
	if T < 2 {
		return nil, fmt.Errorf("performance: need at least 2 observations")
	}

	// Weighted sum of per-asset daily log returns.
	portfolio := make([]float64, T) // portfolio[0] = 0
	for sym, w := range weights {
		col := table.Filled(sym)
		if col == nil {
			return nil, fmt.Errorf("performance: %s not in price table", sym)
		}
		for t := 1; t < T; t++ {
			if col[t-1] > 0 && col[t] > 0 {
				portfolio[t] += w * math.Log(col[t]/col[t-1])
			}
		}
	}

	// Benchmark log returns keyed by date.
	benchRet := make(map[string]float64)
	if bench != nil {
		col := bench.Filled(benchSymbol)
		for t := 1; t < len(bench.Dates); t++ {
			if col[t-1] > 0 && col[t] > 0 {
				benchRet[bench.Dates[t]] = math.Log(col[t] / col[t-1])
			}
		}
	}

	out := make([]PerformancePoint, T)
	cumP, cumB := 0.0, 0.0
	for t, date := range table.Dates {
		cumP += portfolio[t]
		cumB += benchRet[date]
		out[t] = PerformancePoint{Date: date, Portfolio: cumP, Benchmark: cumB}
	}
	return out, nil
}
