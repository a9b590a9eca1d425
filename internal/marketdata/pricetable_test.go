package marketdata

import (
	"bytes"
	"math"
	"reflect"
	"strings"
	"testing"
	"time"
)

// helper: build a daily bar series from a start date and prices.
func bars(start string, prices ...float64) []Bar {
	t, _ := time.Parse("2006-01-02", start)
	out := make([]Bar, len(prices))
	for i, p := range prices {
		out[i] = Bar{Date: t.AddDate(0, 0, i).Format("2006-01-02"), AdjClose: p}
	}
	return out
}

func TestNewPriceTable_AlignsDates(t *testing.T) {
	table := NewPriceTable(map[string][]Bar{
		"A": bars("2025-01-02", 10, 11, 12),
		"B": bars("2025-01-03", 20, 21), // starts one day later
	})
	if len(table.Dates) != 3 {
		t.Fatalf("dates = %d, want 3", len(table.Dates))
	}
	if !reflect.DeepEqual(table.Symbols, []string{"A", "B"}) {
		t.Fatalf("symbols = %v", table.Symbols)
	}
	b := table.Column("B")
	if !math.IsNaN(b[0]) {
		t.Errorf("B[0] = %v, want NaN (no observation)", b[0])
	}
	if b[1] != 20 || b[2] != 21 {
		t.Errorf("B = %v, want [NaN 20 21]", b)
	}
}

func TestNewPriceTable_DropsAllMissingColumns(t *testing.T) {
	table := NewPriceTable(map[string][]Bar{
		"A": bars("2025-01-02", 10, 11),
		"B": bars("2025-01-02", 20, 21),
		"C": nil, // entirely missing, e.g. delisted
	})
	if !reflect.DeepEqual(table.Symbols, []string{"A", "B"}) {
		t.Errorf("symbols = %v, want [A B] (C dropped)", table.Symbols)
	}
	if table.Column("C") != nil {
		t.Errorf("column C should not exist")
	}
}

func TestLatest_SkipsTrailingGaps(t *testing.T) {
	series := map[string][]Bar{
		"A": bars("2025-01-02", 10, 11),
		"B": bars("2025-01-02", 20, 21, 22), // one extra day
	}
	table := NewPriceTable(series)
	if v, ok := table.Latest("A"); !ok || v != 11 {
		t.Errorf("Latest(A) = %v/%v, want 11", v, ok)
	}
	if v, ok := table.Latest("B"); !ok || v != 22 {
		t.Errorf("Latest(B) = %v/%v, want 22", v, ok)
	}
	if _, ok := table.Latest("missing"); ok {
		t.Error("Latest(missing) should report not ok")
	}
}

func TestFilled_ForwardAndBackFill(t *testing.T) {
	table := NewPriceTable(map[string][]Bar{
		"A": bars("2025-01-02", 10, 11, 12, 13),
		"B": {
			{Date: "2025-01-03", AdjClose: 20},
			{Date: "2025-01-05", AdjClose: 22},
		},
	})
	got := table.Filled("B")
	// Dates are 01-02..01-05; B observes on 01-03 and 01-05.
	want := []float64{20, 20, 20, 22} // back-fill, value, forward-fill, value
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filled(B) = %v, want %v", got, want)
	}
}

func TestWriteCSV_EmptyCellsForMissing(t *testing.T) {
	table := NewPriceTable(map[string][]Bar{
		"A": bars("2025-01-02", 10, 11),
		"B": {{Date: "2025-01-03", AdjClose: 21.5}},
	})
	var buf bytes.Buffer
	if err := table.WriteCSV(&buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if lines[0] != "Date,A,B" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != "2025-01-02,10," {
		t.Errorf("row 1 = %q, want empty cell for missing B", lines[1])
	}
	if lines[2] != "2025-01-03,11,21.5" {
		t.Errorf("row 2 = %q", lines[2])
	}
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)
	ytd, err := periodStart("ytd", now)
	if err != nil || !ytd.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ytd start = %v err=%v", ytd, err)
	}
	six, _ := periodStart("6mo", now)
	if six.Month() != time.February {
		t.Errorf("6mo start = %v", six)
	}
	if _, err := periodStart("2wk", now); err == nil {
		t.Error("expected error for unknown period")
	}
}
