package api

import (
	"encoding/json"
	"net/http"
	"sync"

	"esg-folio/internal/config"
	"esg-folio/internal/db"
	"esg-folio/internal/marketdata"
	"esg-folio/internal/search"
	"esg-folio/internal/universe"
)

// Server is the HTTP API server that connects the universe loader, the
// price loader, the optimiser and the database.
type Server struct {
	cfg      *config.Config
	db       *db.DB
	universe *universe.Loader
	prices   *marketdata.Loader
	version  string

	// Screened-universe and price-table memos. The universe memo is the
	// joined, filtered list the optimiser runs on; the price table memo
	// is what /api/optimize and the CSV export read.
	mu       sync.RWMutex
	screened []universe.Security
	index    *search.Engine
	table    *marketdata.PriceTable
	dropped  []string
	period   string
}

// NewServer creates a Server with the given config, loaders and database.
func NewServer(cfg *config.Config, database *db.DB, universeLoader *universe.Loader, priceLoader *marketdata.Loader, version string) *Server {
	return &Server{
		cfg:      cfg,
		db:       database,
		universe: universeLoader,
		prices:   priceLoader,
		version:  version,
	}
}

// configSnapshot returns a copy of the current config. Handlers read the
// copy so a concurrent config patch cannot race them.
func (s *Server) configSnapshot() config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return *s.cfg
}

// Handler returns the HTTP handler with all API routes and CORS middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/config", s.handleGetConfig)
	mux.HandleFunc("POST /api/config", s.handleSetConfig)
	mux.HandleFunc("GET /api/universe", s.handleUniverse)
	mux.HandleFunc("GET /api/universe/csv", s.handleUniverseCSV)
	mux.HandleFunc("GET /api/universe/sectors", s.handleSectors)
	mux.HandleFunc("GET /api/universe/search", s.handleSearch)
	mux.HandleFunc("POST /api/prices", s.handleLoadPrices)
	mux.HandleFunc("GET /api/prices/csv", s.handlePricesCSV)
	mux.HandleFunc("POST /api/optimize", s.handleOptimize)
	mux.HandleFunc("POST /api/performance", s.handlePerformance)
	mux.HandleFunc("POST /api/allocate", s.handleAllocate)
	mux.HandleFunc("GET /api/runs", s.handleGetRuns)
	mux.HandleFunc("DELETE /api/runs/{id}", s.handleDeleteRun)
	mux.HandleFunc("POST /api/runs/clear", s.handleClearRuns)
	return corsMiddleware(mux)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(204)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
