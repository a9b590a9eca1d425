package engine

import (
	"math"
	"testing"
)

func TestCumulativePerformanceSingleAsset(t *testing.T) {
	table := makeTable(t, map[string][]float64{"AAA": {100, 110, 121}})
	points, err := CumulativePerformance(table, map[string]float64{"AAA": 1}, nil, "")
	if err != nil {
		t.Fatalf("CumulativePerformance: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}
	want := []float64{0, math.Log(1.1), math.Log(1.21)}
	for i, p := range points {
		if !almostEqual(p.Portfolio, want[i], 1e-9) {
			t.Errorf("portfolio[%d] = %v, want %v", i, p.Portfolio, want[i])
		}
		if p.Benchmark != 0 {
			t.Errorf("benchmark[%d] = %v, want 0 without a benchmark", i, p.Benchmark)
		}
	}
	if points[0].Date != "2025-01-01" {
		t.Errorf("date[0] = %q, want 2025-01-01", points[0].Date)
	}
}

func TestCumulativePerformanceWeightedWithBenchmark(t *testing.T) {
	table := makeTable(t, map[string][]float64{
		"AAA": {100, 110},
		"BBB": {50, 50},
	})
	bench := makeTable(t, map[string][]float64{"^GSPC": {4000, 4200}})

	points, err := CumulativePerformance(table,
		map[string]float64{"AAA": 0.5, "BBB": 0.5}, bench, "^GSPC")
	if err != nil {
		t.Fatalf("CumulativePerformance: %v", err)
	}
	wantP := 0.5 * math.Log(1.1)
	if !almostEqual(points[1].Portfolio, wantP, 1e-9) {
		t.Errorf("portfolio[1] = %v, want %v", points[1].Portfolio, wantP)
	}
	wantB := math.Log(4200.0 / 4000.0)
	if !almostEqual(points[1].Benchmark, wantB, 1e-9) {
		t.Errorf("benchmark[1] = %v, want %v", points[1].Benchmark, wantB)
	}
}

func TestCumulativePerformanceErrors(t *testing.T) {
	short := makeTable(t, map[string][]float64{"AAA": {100}})
	if _, err := CumulativePerformance(short, map[string]float64{"AAA": 1}, nil, ""); err == nil {
		t.Error("expected error for single observation, got nil")
	}

	table := makeTable(t, map[string][]float64{"AAA": {100, 110, 121}})
	if _, err := CumulativePerformance(table, map[string]float64{"ZZZ": 1}, nil, ""); err == nil {
		t.Error("expected error for unknown symbol, got nil")
	}
}
