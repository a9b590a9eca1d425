package db

import (
	"time"

	"esg-folio/internal/universe"
)

// GetConstituents returns cached index constituents, or false when the
// cache is empty or older than the TTL. Implements universe.Store.
func (d *DB) GetConstituents() ([]universe.Security, bool) {
	var updatedAt string
	err := d.sql.QueryRow("SELECT updated_at FROM constituents_meta WHERE id = 1").Scan(&updatedAt)
	if err != nil || !fresh(updatedAt) {
		return nil, false
	}

	rows, err := d.sql.Query(`
		SELECT symbol, name, sector, sub_industry, headquarters, date_added, cik, founded, esg_score
		FROM constituents ORDER BY symbol`)
	if err != nil {
		return nil, false
	}
	defer rows.Close()

	var secs []universe.Security
	for rows.Next() {
		var s universe.Security
		if err := rows.Scan(&s.Symbol, &s.Name, &s.Sector, &s.SubIndustry,
			&s.Headquarters, &s.DateAdded, &s.CIK, &s.Founded, &s.ESGScore); err != nil {
			return nil, false
		}
		secs = append(secs, s)
	}
	if len(secs) == 0 {
		return nil, false
	}
	return secs, true
}

// SetConstituents replaces the cached constituents and stamps the cache.
func (d *DB) SetConstituents(secs []universe.Security) {
	tx, err := d.sql.Begin()
	if err != nil {
		return
	}
	tx.Exec("DELETE FROM constituents")
	for _, s := range secs {
		tx.Exec(`
			INSERT INTO constituents (symbol, name, sector, sub_industry, headquarters, date_added, cik, founded, esg_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			s.Symbol, s.Name, s.Sector, s.SubIndustry,
			s.Headquarters, s.DateAdded, s.CIK, s.Founded, s.ESGScore)
	}
	tx.Exec(`
		INSERT INTO constituents_meta (id, updated_at) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		time.Now().Format(time.RFC3339))
	tx.Commit()
}
