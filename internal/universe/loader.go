package universe

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"esg-folio/internal/logger"
)

// constituentsURL is the public reference page listing the S&P 500 members.
const constituentsURL = "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies"

// Store is a persistent L2 cache for the constituents table.
type Store interface {
	GetConstituents() ([]Security, bool)
	SetConstituents([]Security)
}

// Loader fetches the constituents table and joins it with an ESG score file.
// The table fetch is memoised for the process lifetime and additionally
// cached in SQLite across restarts.
type Loader struct {
	http  *http.Client
	url   string
	store Store

	mu   sync.Mutex
	memo []Security // constituents without scores
}

// NewLoader creates a Loader with the given persistent cache store.
func NewLoader(store Store) *Loader {
	return &Loader{
		http:  &http.Client{Timeout: 30 * time.Second},
		url:   constituentsURL,
		store: store,
	}
}

// Constituents returns the raw (unscored) constituents table, fetching it
// from the reference page on first use.
func (l *Loader) Constituents() ([]Security, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.memo != nil {
		return l.memo, nil
	}
	if l.store != nil {
		if secs, ok := l.store.GetConstituents(); ok {
			l.memo = secs
			return secs, nil
		}
	}

	req, err := http.NewRequest("GET", l.url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "esg-folio/1.0 (github.com)")

	resp, err := l.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch constituents: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("fetch constituents: HTTP %d", resp.StatusCode)
	}

	secs, err := ParseConstituents(resp.Body)
	if err != nil {
		return nil, err
	}
	logger.Success("Universe", fmt.Sprintf("Fetched %d constituents", len(secs)))

	l.memo = secs
	if l.store != nil {
		l.store.SetConstituents(secs)
	}
	return secs, nil
}

// Load fetches the constituents, loads ESG scores from scoreFile and returns
// the inner join on ticker symbol, sorted by symbol.
func (l *Loader) Load(scoreFile string) ([]Security, error) {
	secs, err := l.Constituents()
	if err != nil {
		return nil, err
	}
	scores, err := LoadScores(scoreFile)
	if err != nil {
		return nil, err
	}
	return Join(secs, scores), nil
}

// ParseConstituents extracts the constituents table from the reference page
// HTML. The join key column ("Symbol") must be present or an error is
// returned; there is no recovery.
func ParseConstituents(r io.Reader) ([]Security, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse constituents page: %w", err)
	}

	table := findTable(doc)
	if table == nil {
		return nil, fmt.Errorf("parse constituents page: no constituents table found")
	}

	rows := tableRows(table)
	if len(rows) < 2 {
		return nil, fmt.Errorf("parse constituents page: table has no data rows")
	}

	col := make(map[string]int)
	for i, h := range rows[0] {
		col[normalizeHeader(h)] = i
	}
	symIdx, ok := col["symbol"]
	if !ok {
		return nil, fmt.Errorf("parse constituents page: join key %q not found in table header", "Symbol")
	}

	cell := func(row []string, key string) string {
		idx, ok := col[key]
		if !ok || idx >= len(row) {
			return ""
		}
		return row[idx]
	}

	var secs []Security
	for _, row := range rows[1:] {
		if symIdx >= len(row) || row[symIdx] == "" {
			continue
		}
		secs = append(secs, Security{
			Symbol:       row[symIdx],
			Name:         cell(row, "security"),
			Sector:       cell(row, "gics sector"),
			SubIndustry:  cell(row, "gics sub-industry"),
			Headquarters: cell(row, "headquarters location"),
			DateAdded:    cell(row, "date added"),
			CIK:          cell(row, "cik"),
			Founded:      cell(row, "founded"),
		})
	}
	return secs, nil
}

// LoadScores reads the ESG score file (CSV with at least "symbol" and
// "esg_score" columns, case-insensitive) into a symbol-keyed map.
func LoadScores(path string) (map[string]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open score file: %w", err)
	}
	defer f.Close()
	return ParseScores(f)
}

// ParseScores parses the score CSV from a reader.
func ParseScores(r io.Reader) (map[string]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read score file header: %w", err)
	}
	symIdx, scoreIdx := -1, -1
	for i, h := range header {
		switch normalizeHeader(h) {
		case "symbol":
			symIdx = i
		case "esg_score":
			scoreIdx = i
		}
	}
	if symIdx < 0 {
		return nil, fmt.Errorf("score file: join key %q not found", "symbol")
	}
	if scoreIdx < 0 {
		return nil, fmt.Errorf("score file: column %q not found", "esg_score")
	}

	scores := make(map[string]float64)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read score file: %w", err)
		}
		sym := strings.TrimSpace(row[symIdx])
		if sym == "" {
			continue
		}
		score, err := strconv.ParseFloat(strings.TrimSpace(row[scoreIdx]), 64)
		if err != nil {
			return nil, fmt.Errorf("score file: bad esg_score for %s: %w", sym, err)
		}
		scores[sym] = score
	}
	return scores, nil
}

// Join performs an inner join of the constituents table and the score map on
// ticker symbol and returns the result sorted by symbol. Securities without
// a score are dropped.
func Join(secs []Security, scores map[string]float64) []Security {
	joined := make([]Security, 0, len(secs))
	for _, s := range secs {
		score, ok := scores[s.Symbol]
		if !ok {
			continue
		}
		s.ESGScore = score
		joined = append(joined, s)
	}
	sort.Slice(joined, func(i, j int) bool {
		return joined[i].Symbol < joined[j].Symbol
	})
	return joined
}

// --- HTML helpers ---

// findTable locates the constituents table: the node with id="constituents",
// falling back to the first wikitable on the page.
func findTable(doc *html.Node) *html.Node {
	var byID, first *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			for _, a := range n.Attr {
				if a.Key == "id" && a.Val == "constituents" {
					byID = n
				}
				if a.Key == "class" && strings.Contains(a.Val, "wikitable") && first == nil {
					first = n
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	if byID != nil {
		return byID
	}
	return first
}

// tableRows flattens a table node into rows of trimmed cell text.
func tableRows(table *html.Node) [][]string {
	var rows [][]string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, nodeText(c))
				}
			}
			if len(row) > 0 {
				rows = append(rows, row)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(table)
	return rows
}

// nodeText concatenates all text under a node, collapsing whitespace.
func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func normalizeHeader(h string) string {
	return strings.ToLower(strings.TrimSpace(h))
}
