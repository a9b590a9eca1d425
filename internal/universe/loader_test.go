package universe

import (
	"strings"
	"testing"
)

const samplePage = `<html><body>
<table id="constituents" class="wikitable sortable">
<tbody>
<tr><th>Symbol</th><th>Security</th><th>GICS Sector</th><th>GICS Sub-Industry</th><th>Headquarters Location</th><th>Date added</th><th>CIK</th><th>Founded</th></tr>
<tr><td><a href="#">MMM</a></td><td>3M</td><td>Industrials</td><td>Industrial Conglomerates</td><td>Saint Paul, Minnesota</td><td>1957-03-04</td><td>0000066740</td><td>1902</td></tr>
<tr><td>AOS</td><td>A. O. Smith</td><td>Industrials</td><td>Building Products</td><td>Milwaukee, Wisconsin</td><td>2017-07-26</td><td>0000091142</td><td>1916</td></tr>
</tbody>
</table>
</body></html>`

func TestParseConstituents_ExtractsRows(t *testing.T) {
	secs, err := ParseConstituents(strings.NewReader(samplePage))
	if err != nil {
		t.Fatalf("ParseConstituents: %v", err)
	}
	if len(secs) != 2 {
		t.Fatalf("parsed %d securities, want 2", len(secs))
	}
	first := secs[0]
	if first.Symbol != "MMM" {
		t.Errorf("Symbol = %q, want MMM", first.Symbol)
	}
	if first.Name != "3M" {
		t.Errorf("Name = %q, want 3M", first.Name)
	}
	if first.SubIndustry != "Industrial Conglomerates" {
		t.Errorf("SubIndustry = %q", first.SubIndustry)
	}
	if first.CIK != "0000066740" {
		t.Errorf("CIK = %q", first.CIK)
	}
}

func TestParseConstituents_MissingJoinKeyFails(t *testing.T) {
	page := `<html><body><table id="constituents">
<tr><th>Ticker</th><th>Security</th></tr>
<tr><td>MMM</td><td>3M</td></tr>
</table></body></html>`
	_, err := ParseConstituents(strings.NewReader(page))
	if err == nil {
		t.Fatal("expected error for missing Symbol column")
	}
	if !strings.Contains(err.Error(), "join key") {
		t.Errorf("error = %v, want join key message", err)
	}
}

func TestParseConstituents_NoTableFails(t *testing.T) {
	_, err := ParseConstituents(strings.NewReader(`<html><body><p>nothing</p></body></html>`))
	if err == nil {
		t.Fatal("expected error for missing table")
	}
}

func TestParseScores_ReadsSymbolAndScore(t *testing.T) {
	csvData := "Symbol,ticker_name,esg_score\nMMM,3M Company,81.5\nAOS,A. O. Smith,77\n"
	scores, err := ParseScores(strings.NewReader(csvData))
	if err != nil {
		t.Fatalf("ParseScores: %v", err)
	}
	if len(scores) != 2 {
		t.Fatalf("parsed %d scores, want 2", len(scores))
	}
	if scores["MMM"] != 81.5 {
		t.Errorf("MMM score = %v, want 81.5", scores["MMM"])
	}
}

func TestParseScores_MissingColumnsFail(t *testing.T) {
	if _, err := ParseScores(strings.NewReader("ticker,esg_score\nMMM,81\n")); err == nil {
		t.Error("expected error for missing symbol column")
	}
	if _, err := ParseScores(strings.NewReader("symbol,rating\nMMM,81\n")); err == nil {
		t.Error("expected error for missing esg_score column")
	}
}

func TestParseScores_BadScoreFails(t *testing.T) {
	if _, err := ParseScores(strings.NewReader("symbol,esg_score\nMMM,high\n")); err == nil {
		t.Error("expected error for non-numeric score")
	}
}

func TestJoin_InnerJoinSortedBySymbol(t *testing.T) {
	secs := []Security{
		{Symbol: "ZTS"}, {Symbol: "MMM"}, {Symbol: "NOSCORE"},
	}
	scores := map[string]float64{"MMM": 81.5, "ZTS": 64, "UNLISTED": 50}
	joined := Join(secs, scores)
	if len(joined) != 2 {
		t.Fatalf("joined = %d rows, want 2 (inner join)", len(joined))
	}
	if joined[0].Symbol != "MMM" || joined[1].Symbol != "ZTS" {
		t.Errorf("join order = %v, want sorted by symbol", Symbols(joined))
	}
	if joined[0].ESGScore != 81.5 {
		t.Errorf("MMM score = %v, want 81.5", joined[0].ESGScore)
	}
}
