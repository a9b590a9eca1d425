package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
)

// Bar is one daily observation of a ticker's adjusted closing price.
type Bar struct {
	Date     string  `json:"date"` // YYYY-MM-DD
	AdjClose float64 `json:"adj_close"`
}

// PriceTable is a date-aligned table of adjusted closing prices. Missing
// observations are NaN; columns that would be entirely missing are dropped
// at construction time.
type PriceTable struct {
	Dates   []string // sorted ascending
	Symbols []string // sorted ascending
	Columns map[string][]float64
}

// NewPriceTable aligns per-symbol series onto a common date index.
// Symbols with no observations at all do not appear in the result.
func NewPriceTable(series map[string][]Bar) *PriceTable {
	dateSet := make(map[string]bool)
	for _, bars := range series {
		for _, b := range bars {
			dateSet[b.Date] = true
		}
	}
	dates := make([]string, 0, len(dateSet))
	for d := range dateSet {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	idx := make(map[string]int, len(dates))
	for i, d := range dates {
		idx[d] = i
	}

	t := &PriceTable{
		Dates:   dates,
		Columns: make(map[string][]float64),
	}
	for sym, bars := range series {
		if len(bars) == 0 {
			continue
		}
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		any := false
		for _, b := range bars {
			if i, ok := idx[b.Date]; ok && !math.IsNaN(b.AdjClose) {
				col[i] = b.AdjClose
				any = true
			}
		}
		if !any {
			continue
		}
		t.Columns[sym] = col
		t.Symbols = append(t.Symbols, sym)
	}
	sort.Strings(t.Symbols)
	return t
}

// Column returns the aligned price column for a symbol, or nil.
func (t *PriceTable) Column(sym string) []float64 {
	return t.Columns[sym]
}

// Latest returns the most recent non-missing price for a symbol.
func (t *PriceTable) Latest(sym string) (float64, bool) {
	col := t.Columns[sym]
	for i := len(col) - 1; i >= 0; i-- {
		if !math.IsNaN(col[i]) {
			return col[i], true
		}
	}
	return 0, false
}

// Filled returns a copy of a column with missing values forward-filled and
// leading gaps back-filled from the first observation.
func (t *PriceTable) Filled(sym string) []float64 {
	col := t.Columns[sym]
	if col == nil {
		return nil
	}
	out := make([]float64, len(col))
	copy(out, col)

	last := math.NaN()
	for i, v := range out {
		if math.IsNaN(v) {
			out[i] = last
		} else {
			last = v
		}
	}
	// Back-fill any leading NaNs with the first real observation.
	first := math.NaN()
	for _, v := range out {
		if !math.IsNaN(v) {
			first = v
			break
		}
	}
	for i := range out {
		if math.IsNaN(out[i]) {
			out[i] = first
		} else {
			break
		}
	}
	return out
}

// WriteCSV writes the table as date-indexed CSV, one column per symbol.
// Missing observations are written as empty cells.
func (t *PriceTable) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{"Date"}, t.Symbols...)
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(header))
	for i, d := range t.Dates {
		row[0] = d
		for j, sym := range t.Symbols {
			v := t.Columns[sym][i]
			if math.IsNaN(v) {
				row[j+1] = ""
			} else {
				row[j+1] = strconv.FormatFloat(v, 'f', -1, 64)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write price csv: %w", err)
	}
	return nil
}
