package db

import (
	"encoding/json"
	"time"

	"esg-folio/internal/engine"
)

// RunRecord is one saved optimisation run.
type RunRecord struct {
	ID         int64           `json:"id"`
	Timestamp  string          `json:"timestamp"`
	Objective  string          `json:"objective"`
	AssetCount int             `json:"asset_count"`
	Return     float64         `json:"annual_return"`
	Volatility float64         `json:"annual_volatility"`
	Sharpe     float64         `json:"sharpe_ratio"`
	Params     json.RawMessage `json:"params"`
	Weights    json.RawMessage `json:"weights"`
}

// InsertRun saves an optimisation result and returns its ID.
func (d *DB) InsertRun(alloc *engine.Allocation, params interface{}) int64 {
	paramsJSON, _ := json.Marshal(params)
	weightsJSON, _ := json.Marshal(alloc.Weights)
	result, err := d.sql.Exec(`
		INSERT INTO run_history (timestamp, objective, asset_count, annual_return, annual_volatility, sharpe_ratio, params_json, weights_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().Format(time.RFC3339), string(alloc.Objective), alloc.AssetCount,
		alloc.Return, alloc.Volatility, alloc.Sharpe,
		string(paramsJSON), string(weightsJSON),
	)
	if err != nil {
		return 0
	}
	id, _ := result.LastInsertId()
	return id
}

// GetRuns returns the last N optimisation runs (newest first).
func (d *DB) GetRuns(limit int) []RunRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(`
		SELECT id, timestamp, objective, asset_count, annual_return, annual_volatility, sharpe_ratio,
		 COALESCE(params_json, '{}'), COALESCE(weights_json, '{}')
		FROM run_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return []RunRecord{}
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		var r RunRecord
		var paramsStr, weightsStr string
		rows.Scan(&r.ID, &r.Timestamp, &r.Objective, &r.AssetCount,
			&r.Return, &r.Volatility, &r.Sharpe, &paramsStr, &weightsStr)
		r.Params = json.RawMessage(paramsStr)
		r.Weights = json.RawMessage(weightsStr)
		records = append(records, r)
	}
	if records == nil {
		return []RunRecord{}
	}
	return records
}

// GetRunByID returns a single saved run, or nil.
func (d *DB) GetRunByID(id int64) *RunRecord {
	row := d.sql.QueryRow(`
		SELECT id, timestamp, objective, asset_count, annual_return, annual_volatility, sharpe_ratio,
		 COALESCE(params_json, '{}'), COALESCE(weights_json, '{}')
		FROM run_history WHERE id = ?`,
		id,
	)
	var r RunRecord
	var paramsStr, weightsStr string
	if err := row.Scan(&r.ID, &r.Timestamp, &r.Objective, &r.AssetCount,
		&r.Return, &r.Volatility, &r.Sharpe, &paramsStr, &weightsStr); err != nil {
		return nil
	}
	r.Params = json.RawMessage(paramsStr)
	r.Weights = json.RawMessage(weightsStr)
	return &r
}

// DeleteRun deletes one saved run.
func (d *DB) DeleteRun(id int64) error {
	_, err := d.sql.Exec("DELETE FROM run_history WHERE id = ?", id)
	return err
}

// ClearRuns deletes all saved runs and returns how many were removed.
func (d *DB) ClearRuns() (int64, error) {
	result, err := d.sql.Exec("DELETE FROM run_history")
	if err != nil {
		return 0, err
	}
	count, _ := result.RowsAffected()
	return count, nil
}
