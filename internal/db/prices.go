package db

import (
	"time"

	"esg-folio/internal/marketdata"
)

// GetPrices returns a symbol's cached daily bars for a period, or false
// when no fresh cache entry exists. Implements marketdata.Store.
func (d *DB) GetPrices(symbol, period string) ([]marketdata.Bar, bool) {
	var updatedAt string
	err := d.sql.QueryRow(
		"SELECT updated_at FROM price_meta WHERE symbol = ? AND period = ?",
		symbol, period,
	).Scan(&updatedAt)
	if err != nil || !fresh(updatedAt) {
		return nil, false
	}

	rows, err := d.sql.Query(
		"SELECT date, adj_close FROM price_history WHERE symbol = ? AND period = ? ORDER BY date",
		symbol, period,
	)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var bars []marketdata.Bar
	for rows.Next() {
		var b marketdata.Bar
		if err := rows.Scan(&b.Date, &b.AdjClose); err != nil {
			return nil, false
		}
		bars = append(bars, b)
	}
	if len(bars) == 0 {
		return nil, false
	}
	return bars, true
}

// SetPrices replaces a symbol's cached bars for a period and stamps the
// cache entry. Other periods of the same symbol are untouched.
func (d *DB) SetPrices(symbol, period string, bars []marketdata.Bar) {
	tx, err := d.sql.Begin()
	if err != nil {
		return
	}
	tx.Exec("DELETE FROM price_history WHERE symbol = ? AND period = ?", symbol, period)
	for _, b := range bars {
		tx.Exec(
			"INSERT INTO price_history (symbol, period, date, adj_close) VALUES (?, ?, ?, ?)",
			symbol, period, b.Date, b.AdjClose)
	}
	tx.Exec(`
		INSERT INTO price_meta (symbol, period, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(symbol, period) DO UPDATE SET updated_at = excluded.updated_at`,
		symbol, period, time.Now().Format(time.RFC3339))
	tx.Commit()
}
