package engine

import (
	"math"
	"testing"
)

// twoAssetPrices builds two imperfectly-correlated series so the covariance
// matrix is well conditioned.
func twoAssetPrices() map[string][]float64 {
	const days = 30
	a := make([]float64, days)
	b := make([]float64, days)
	a[0], b[0] = 100, 50
	for i := 1; i < days; i++ {
		if i%2 == 0 {
			a[i] = a[i-1] * 1.02
			b[i] = b[i-1] * 0.995
		} else {
			a[i] = a[i-1] * 0.99
			b[i] = b[i-1] * 1.015
		}
	}
	return map[string][]float64{"AAA": a, "BBB": b}
}

func TestOptimizeMaxSharpe(t *testing.T) {
	table := makeTable(t, twoAssetPrices())
	alloc, err := Optimize(table, Params{
		Objective:    MaxSharpe,
		MinWeight:    0,
		MaxWeight:    1,
		RiskFreeRate: 0.02,
	})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}

	total := 0.0
	for sym, w := range alloc.Weights {
		total += w
		if table.Column(sym) == nil {
			t.Errorf("weight for %s, which is not in the price table", sym)
		}
		if w < -1e-3 || w > 1+1e-3 {
			t.Errorf("weight %s = %v outside [0, 1]", sym, w)
		}
	}
	if math.Abs(total-1) > 0.01 {
		t.Errorf("weights sum to %v, want ~1", total)
	}
	if alloc.Volatility <= 0 {
		t.Errorf("volatility = %v, want > 0", alloc.Volatility)
	}
	wantSharpe := (alloc.Return - 0.02) / alloc.Volatility
	if !almostEqual(alloc.Sharpe, wantSharpe, 1e-9) {
		t.Errorf("sharpe = %v, want %v", alloc.Sharpe, wantSharpe)
	}
	if len(alloc.Frontier) < 2 {
		t.Errorf("frontier has %d points, want >= 2", len(alloc.Frontier))
	}
	if alloc.AssetCount != 2 {
		t.Errorf("asset count = %d, want 2", alloc.AssetCount)
	}
	if alloc.Observations != 29 {
		t.Errorf("observations = %d, want 29", alloc.Observations)
	}
	if len(alloc.Assets) != 2 {
		t.Errorf("assets = %d, want 2", len(alloc.Assets))
	}
}

func TestOptimizeMinVolatilityNoRiskier(t *testing.T) {
	table := makeTable(t, twoAssetPrices())
	minVol, err := Optimize(table, Params{Objective: MinVolatility, MinWeight: 0, MaxWeight: 1})
	if err != nil {
		t.Fatalf("Optimize min vol: %v", err)
	}
	maxSh, err := Optimize(table, Params{Objective: MaxSharpe, MinWeight: 0, MaxWeight: 1})
	if err != nil {
		t.Fatalf("Optimize max sharpe: %v", err)
	}
	if minVol.Volatility > maxSh.Volatility+1e-6 {
		t.Errorf("min-vol volatility %v exceeds max-sharpe volatility %v",
			minVol.Volatility, maxSh.Volatility)
	}
}

func TestOptimizeBoundsRespected(t *testing.T) {
	prices := twoAssetPrices()
	// Third series, mildly trending.
	c := make([]float64, 30)
	c[0] = 200
	for i := 1; i < 30; i++ {
		if i%3 == 0 {
			c[i] = c[i-1] * 0.992
		} else {
			c[i] = c[i-1] * 1.008
		}
	}
	prices["CCC"] = c

	table := makeTable(t, prices)
	lo, hi := 0.1, 0.5
	alloc, err := Optimize(table, Params{Objective: MaxSharpe, MinWeight: lo, MaxWeight: hi})
	if err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	for _, sym := range table.Symbols {
		w := alloc.Weights[sym] // zero if filtered out
		if w != 0 && (w < lo-1e-3 || w > hi+1e-3) {
			t.Errorf("weight %s = %v outside [%v, %v]", sym, w, lo, hi)
		}
	}
}

func TestOptimizeErrors(t *testing.T) {
	single := makeTable(t, map[string][]float64{"AAA": {100, 101, 102, 103}})
	if _, err := Optimize(single, Params{Objective: MaxSharpe, MaxWeight: 1}); err == nil {
		t.Error("expected error for single-asset table, got nil")
	}

	table := makeTable(t, twoAssetPrices())
	cases := []struct {
		name string
		p    Params
	}{
		{"max weight zero", Params{Objective: MaxSharpe, MinWeight: 0, MaxWeight: 0}},
		{"max weight above one", Params{Objective: MaxSharpe, MinWeight: 0, MaxWeight: 1.5}},
		{"min above max", Params{Objective: MaxSharpe, MinWeight: 0.8, MaxWeight: 0.5}},
		{"caps cannot reach one", Params{Objective: MaxSharpe, MinWeight: 0, MaxWeight: 0.3}},
		{"floors exceed one", Params{Objective: MaxSharpe, MinWeight: 0.8, MaxWeight: 1}},
		{"unknown objective", Params{Objective: "max_profit", MinWeight: 0, MaxWeight: 1}},
	}
	for _, tc := range cases {
		if _, err := Optimize(table, tc.p); err == nil {
			t.Errorf("%s: expected error, got nil", tc.name)
		}
	}
}

func TestOptimizeDegenerateCovariance(t *testing.T) {
	flat := makeTable(t, map[string][]float64{
		"AAA": {100, 100, 100, 100},
		"BBB": {50, 50, 50, 50},
	})
	if _, err := Optimize(flat, Params{Objective: MaxSharpe, MinWeight: 0, MaxWeight: 1}); err == nil {
		t.Error("expected error for constant prices, got nil")
	}
}
