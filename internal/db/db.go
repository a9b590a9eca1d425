package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"esg-folio/internal/logger"
	_ "modernc.org/sqlite"
)

// cacheTTL is how long cached constituents and price history stay fresh.
const cacheTTL = 24 * time.Hour

// DB wraps a SQLite database connection.
type DB struct {
	sql *sql.DB
}

func dbPath() string {
	// Prefer working directory so the DB is stable across go run / go build.
	// Fall back to executable directory for deployed builds.
	if wd, err := os.Getwd(); err == nil {
		return filepath.Join(wd, "folio.db")
	}
	exe, _ := os.Executable()
	return filepath.Join(filepath.Dir(exe), "folio.db")
}

// Open opens (or creates) the SQLite database and runs migrations.
func Open() (*DB, error) {
	return OpenAt(dbPath())
}

// OpenAt opens the database at an explicit path.
func OpenAt(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping db: %w", err)
	}
	d := &DB{sql: sqlDB}
	if err := d.migrate(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrate db: %w", err)
	}
	logger.Success("DB", fmt.Sprintf("Opened %s", path))
	return d, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.sql.Close()
}

func (d *DB) migrate() error {
	version := 0
	d.sql.QueryRow("SELECT version FROM schema_version ORDER BY version DESC LIMIT 1").Scan(&version)

	if version < 1 {
		_, err := d.sql.Exec(`
			CREATE TABLE IF NOT EXISTS schema_version (version INTEGER PRIMARY KEY);

			CREATE TABLE IF NOT EXISTS config (
				key   TEXT PRIMARY KEY,
				value TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS constituents (
				symbol       TEXT PRIMARY KEY,
				name         TEXT NOT NULL,
				sector       TEXT,
				sub_industry TEXT,
				headquarters TEXT,
				date_added   TEXT,
				cik          TEXT,
				founded      TEXT,
				esg_score    REAL NOT NULL DEFAULT 0
			);

			CREATE TABLE IF NOT EXISTS constituents_meta (
				id         INTEGER PRIMARY KEY DEFAULT 1,
				updated_at TEXT NOT NULL
			);

			CREATE TABLE IF NOT EXISTS price_history (
				symbol    TEXT NOT NULL,
				period    TEXT NOT NULL,
				date      TEXT NOT NULL,
				adj_close REAL NOT NULL,
				PRIMARY KEY (symbol, period, date)
			);

			CREATE TABLE IF NOT EXISTS price_meta (
				symbol     TEXT NOT NULL,
				period     TEXT NOT NULL,
				updated_at TEXT NOT NULL,
				PRIMARY KEY (symbol, period)
			);

			CREATE TABLE IF NOT EXISTS run_history (
				id                INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp         TEXT NOT NULL,
				objective         TEXT NOT NULL,
				asset_count       INTEGER NOT NULL,
				annual_return     REAL NOT NULL,
				annual_volatility REAL NOT NULL,
				sharpe_ratio      REAL NOT NULL,
				params_json       TEXT DEFAULT '{}',
				weights_json      TEXT DEFAULT '{}'
			);
			CREATE INDEX IF NOT EXISTS idx_run_history_ts ON run_history(timestamp);

			INSERT OR IGNORE INTO schema_version (version) VALUES (1);
		`)
		if err != nil {
			return fmt.Errorf("migration v1: %w", err)
		}
		logger.Info("DB", "Applied migration v1")
	}

	return nil
}

// SqlDB returns the underlying *sql.DB for use by other packages.
func (d *DB) SqlDB() *sql.DB {
	return d.sql
}

// fresh reports whether an RFC3339 timestamp is within the cache TTL.
func fresh(updatedAt string) bool {
	t, err := time.Parse(time.RFC3339, updatedAt)
	if err != nil {
		return false
	}
	return time.Since(t) < cacheTTL
}
