package marketdata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"golang.org/x/sync/errgroup"

	"esg-folio/internal/logger"
)

// maxConcurrentDownloads bounds parallel chart requests against Yahoo.
const maxConcurrentDownloads = 8

// Store is a persistent L2 cache for per-symbol price history.
type Store interface {
	GetPrices(symbol, period string) ([]Bar, bool)
	SetPrices(symbol, period string, bars []Bar)
}

// Loader downloads daily adjusted-close history from Yahoo Finance.
type Loader struct {
	store Store
}

// NewLoader creates a price loader with the given persistent cache store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// History fetches daily adjusted closes for the given symbols over the
// requested period and aligns them into a PriceTable. Symbols with no data
// at all (delisted, unknown, provider gaps) are dropped from the table and
// returned in the second value. If no symbol yields any data the provider
// failure propagates as an error.
func (l *Loader) History(ctx context.Context, symbols []string, period string) (*PriceTable, []string, error) {
	if len(symbols) == 0 {
		return nil, nil, fmt.Errorf("price history: no symbols requested")
	}
	start, err := periodStart(period, time.Now().UTC())
	if err != nil {
		return nil, nil, err
	}
	end := time.Now().UTC()

	series := make(map[string][]Bar, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDownloads)
	for _, sym := range symbols {
		g.Go(func() error {
			if l.store != nil {
				if bars, ok := l.store.GetPrices(sym, period); ok {
					mu.Lock()
					series[sym] = bars
					mu.Unlock()
					return nil
				}
			}
			bars, err := fetchChart(gctx, sym, start, end)
			if err != nil {
				// A single unavailable ticker is dropped, not fatal.
				logger.Warn("Prices", fmt.Sprintf("%s: %v", sym, err))
				return nil
			}
			if l.store != nil && len(bars) > 0 {
				l.store.SetPrices(sym, period, bars)
			}
			mu.Lock()
			series[sym] = bars
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, fmt.Errorf("price history: %w", err)
	}

	table := NewPriceTable(series)
	if len(table.Symbols) == 0 {
		return nil, nil, fmt.Errorf("price history: no data for any of %d symbols", len(symbols))
	}

	kept := make(map[string]bool, len(table.Symbols))
	for _, s := range table.Symbols {
		kept[s] = true
	}
	var dropped []string
	for _, s := range symbols {
		if !kept[s] {
			dropped = append(dropped, s)
		}
	}
	sort.Strings(dropped)

	logger.Success("Prices", fmt.Sprintf("Loaded %d symbols x %d days (%d dropped)",
		len(table.Symbols), len(table.Dates), len(dropped)))
	return table, dropped, nil
}

// fetchChart pulls one symbol's daily bars from the Yahoo chart endpoint.
func fetchChart(ctx context.Context, symbol string, start, end time.Time) ([]Bar, error) {
	p := &chart.Params{
		Params:   finance.Params{Context: &ctx},
		Symbol:   symbol,
		Start:    datetime.New(&start),
		End:      datetime.New(&end),
		Interval: datetime.OneDay,
	}

	iter := chart.Get(p)
	var bars []Bar
	for iter.Next() {
		b := iter.Bar()
		adj, _ := b.AdjClose.Float64()
		if adj <= 0 {
			continue
		}
		date := time.Unix(int64(b.Timestamp), 0).UTC().Format("2006-01-02")
		bars = append(bars, Bar{Date: date, AdjClose: adj})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	return bars, nil
}

// periodStart maps a period label to its window start.
func periodStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "ytd", "":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC), nil
	case "6mo":
		return now.AddDate(0, -6, 0), nil
	case "1y":
		return now.AddDate(-1, 0, 0), nil
	default:
		return time.Time{}, fmt.Errorf("price history: unknown period %q", period)
	}
}
