package db

import (
	"encoding/json"
	"strconv"

	"esg-folio/internal/config"
)

// LoadConfig reads config from SQLite. If empty, returns defaults.
func (d *DB) LoadConfig() *config.Config {
	cfg := config.Default()

	rows, err := d.sql.Query("SELECT key, value FROM config")
	if err != nil {
		return cfg
	}
	defer rows.Close()

	m := make(map[string]string)
	for rows.Next() {
		var k, v string
		rows.Scan(&k, &v)
		m[k] = v
	}

	if len(m) == 0 {
		return cfg
	}

	if v, ok := m["excluded_sub_industries"]; ok {
		var names []string
		if err := json.Unmarshal([]byte(v), &names); err == nil {
			cfg.ExcludedSubIndustries = names
		}
	}
	if v, ok := m["min_esg_score"]; ok {
		cfg.MinESGScore, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["min_weight"]; ok {
		cfg.MinWeight, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["max_weight"]; ok {
		cfg.MaxWeight, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["objective"]; ok {
		cfg.Objective = v
	}
	if v, ok := m["risk_free_rate"]; ok {
		cfg.RiskFreeRate, _ = strconv.ParseFloat(v, 64)
	}
	if v, ok := m["price_period"]; ok {
		cfg.PricePeriod = v
	}
	if v, ok := m["score_file"]; ok {
		cfg.ScoreFile = v
	}

	return cfg
}

// SaveConfig writes config to SQLite (upsert all fields).
func (d *DB) SaveConfig(cfg *config.Config) error {
	excludedJSON := "[]"
	if b, err := json.Marshal(cfg.ExcludedSubIndustries); err == nil {
		excludedJSON = string(b)
	}

	pairs := map[string]string{
		"excluded_sub_industries": excludedJSON,
		"min_esg_score":           strconv.FormatFloat(cfg.MinESGScore, 'f', -1, 64),
		"min_weight":              strconv.FormatFloat(cfg.MinWeight, 'f', -1, 64),
		"max_weight":              strconv.FormatFloat(cfg.MaxWeight, 'f', -1, 64),
		"objective":               cfg.Objective,
		"risk_free_rate":          strconv.FormatFloat(cfg.RiskFreeRate, 'f', -1, 64),
		"price_period":            cfg.PricePeriod,
		"score_file":              cfg.ScoreFile,
	}

	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	for k, v := range pairs {
		if _, err := tx.Exec(
			"INSERT INTO config (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
			k, v,
		); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
