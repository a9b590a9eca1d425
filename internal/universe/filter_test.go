package universe

import (
	"reflect"
	"testing"
)

// helper: build a scored security.
func sec(symbol, subIndustry string, score float64) Security {
	return Security{
		Symbol:      symbol,
		Name:        symbol + " Inc.",
		Sector:      "Test Sector",
		SubIndustry: subIndustry,
		CIK:         "0000000001",
		DateAdded:   "1999-01-01",
		Founded:     "1901",
		ESGScore:    score,
	}
}

func TestFilter_ExcludesAndThresholds(t *testing.T) {
	all := []Security{
		sec("A", "X", 90),
		sec("B", "Y", 70),
	}
	got := Filter(all, FilterParams{ExcludeSubIndustries: []string{"Y"}, MinESGScore: 80})
	if len(got) != 1 {
		t.Fatalf("filtered = %d securities, want 1", len(got))
	}
	if got[0].Symbol != "A" {
		t.Errorf("filtered[0].Symbol = %q, want A", got[0].Symbol)
	}
}

func TestFilter_ScoreIsStrictlyGreater(t *testing.T) {
	all := []Security{
		sec("EQ", "X", 80),
		sec("GT", "X", 80.01),
	}
	got := Filter(all, FilterParams{MinESGScore: 80})
	if len(got) != 1 || got[0].Symbol != "GT" {
		t.Errorf("Filter kept %v, want only GT (score must be strictly > threshold)", Symbols(got))
	}
}

func TestFilter_AllRecordsAboveThreshold(t *testing.T) {
	all := []Security{
		sec("A", "X", 10), sec("B", "X", 55), sec("C", "X", 80.5),
		sec("D", "Y", 99), sec("E", "Z", 80),
	}
	for _, threshold := range []float64{0, 10, 55, 80, 100} {
		got := Filter(all, FilterParams{MinESGScore: threshold})
		for _, s := range got {
			if !(s.ESGScore > threshold) {
				t.Errorf("threshold %v: %s has score %v", threshold, s.Symbol, s.ESGScore)
			}
		}
	}
}

func TestFilter_NoExcludedCategoryInOutput(t *testing.T) {
	all := []Security{
		sec("A", "Tobacco", 90),
		sec("B", "Casinos & Gaming", 95),
		sec("C", "Software", 85),
		sec("D", "Software", 82),
	}
	excluded := []string{"Tobacco", "Casinos & Gaming"}
	got := Filter(all, FilterParams{ExcludeSubIndustries: excluded, MinESGScore: 0})
	for _, s := range got {
		for _, ex := range excluded {
			if s.SubIndustry == ex {
				t.Errorf("excluded sub-industry %q present in output (%s)", ex, s.Symbol)
			}
		}
	}
	if len(got) != 2 {
		t.Errorf("filtered = %d securities, want 2", len(got))
	}
}

func TestFilter_Idempotent(t *testing.T) {
	all := []Security{
		sec("A", "X", 90), sec("B", "Y", 70), sec("C", "Z", 85), sec("D", "Y", 95),
	}
	p := FilterParams{ExcludeSubIndustries: []string{"Y"}, MinESGScore: 80}

	once := Filter(all, p)
	twice := Filter(once, p)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Filter not idempotent:\n once = %v\ntwice = %v", once, twice)
	}
}

func TestFilter_DropsAdministrativeColumns(t *testing.T) {
	got := Filter([]Security{sec("A", "X", 90)}, FilterParams{})
	if len(got) != 1 {
		t.Fatalf("filtered = %d, want 1", len(got))
	}
	if got[0].CIK != "" || got[0].DateAdded != "" || got[0].Founded != "" {
		t.Errorf("administrative fields not cleared: %+v", got[0])
	}
	if got[0].Name == "" || got[0].SubIndustry == "" {
		t.Errorf("descriptive fields should survive: %+v", got[0])
	}
}

func TestSubIndustries_SortedDistinct(t *testing.T) {
	all := []Security{
		sec("A", "Software", 1), sec("B", "Banks", 1),
		sec("C", "Software", 1), sec("D", "Airlines", 1),
	}
	got := SubIndustries(all)
	want := []string{"Airlines", "Banks", "Software"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SubIndustries = %v, want %v", got, want)
	}
}
