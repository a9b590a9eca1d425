package api

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"esg-folio/internal/engine"
	"esg-folio/internal/logger"
	"esg-folio/internal/marketdata"
	"esg-folio/internal/search"
	"esg-folio/internal/universe"
)

// defaultBenchmark is the index the performance chart compares against.
const defaultBenchmark = "^GSPC"

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	universeCount := len(s.screened)
	var priceDays, priceSymbols int
	if s.table != nil {
		priceDays = len(s.table.Dates)
		priceSymbols = len(s.table.Symbols)
	}
	period := s.period
	s.mu.RUnlock()

	writeJSON(w, map[string]interface{}{
		"version":         s.version,
		"universe_loaded": universeCount > 0,
		"universe_count":  universeCount,
		"prices_loaded":   priceDays > 0,
		"price_days":      priceDays,
		"price_symbols":   priceSymbols,
		"price_period":    period,
	})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg := s.configSnapshot()
	writeJSON(w, &cfg)
}

func (s *Server) handleSetConfig(w http.ResponseWriter, r *http.Request) {
	var patch map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	// Hold the lock for the whole patch; other handlers read s.cfg.
	s.mu.Lock()
	defer s.mu.Unlock()

	if v, ok := patch["excluded_sub_industries"]; ok {
		json.Unmarshal(v, &s.cfg.ExcludedSubIndustries)
	}
	if v, ok := patch["min_esg_score"]; ok {
		json.Unmarshal(v, &s.cfg.MinESGScore)
	}
	if v, ok := patch["min_weight"]; ok {
		json.Unmarshal(v, &s.cfg.MinWeight)
	}
	if v, ok := patch["max_weight"]; ok {
		json.Unmarshal(v, &s.cfg.MaxWeight)
	}
	if v, ok := patch["objective"]; ok {
		var obj string
		json.Unmarshal(v, &obj)
		parsed, err := engine.ParseObjective(obj)
		if err != nil {
			writeError(w, 400, err.Error())
			return
		}
		s.cfg.Objective = string(parsed)
	}
	if v, ok := patch["risk_free_rate"]; ok {
		json.Unmarshal(v, &s.cfg.RiskFreeRate)
	}
	if v, ok := patch["price_period"]; ok {
		var period string
		json.Unmarshal(v, &period)
		switch period {
		case "ytd", "6mo", "1y":
			s.cfg.PricePeriod = period
		default:
			writeError(w, 400, fmt.Sprintf("unknown price period %q", period))
			return
		}
	}
	if v, ok := patch["score_file"]; ok {
		json.Unmarshal(v, &s.cfg.ScoreFile)
	}

	// Clamp numeric fields.
	if s.cfg.MinESGScore < 0 {
		s.cfg.MinESGScore = 0
	} else if s.cfg.MinESGScore > 100 {
		s.cfg.MinESGScore = 100
	}
	if s.cfg.MaxWeight <= 0 || s.cfg.MaxWeight > 1 {
		s.cfg.MaxWeight = 1
	}
	if s.cfg.MinWeight < -1 {
		s.cfg.MinWeight = -1
	} else if s.cfg.MinWeight > s.cfg.MaxWeight {
		s.cfg.MinWeight = s.cfg.MaxWeight
	}
	if s.cfg.RiskFreeRate < 0 {
		s.cfg.RiskFreeRate = 0
	} else if s.cfg.RiskFreeRate > 1 {
		s.cfg.RiskFreeRate = 1
	}

	if err := s.db.SaveConfig(s.cfg); err != nil {
		logger.Error("Config", fmt.Sprintf("Save failed: %v", err))
	}

	// Screen parameters changed; drop the memos so the next request
	// rebuilds the universe and prices under the new config.
	s.screened = nil
	s.index = nil
	s.table = nil
	s.dropped = nil

	writeJSON(w, s.cfg)
}

// ensureUniverse returns the screened universe, loading and indexing it on
// first use (or after a config change).
func (s *Server) ensureUniverse() ([]universe.Security, error) {
	s.mu.RLock()
	screened := s.screened
	s.mu.RUnlock()
	if screened != nil {
		return screened, nil
	}

	cfg := s.configSnapshot()
	all, err := s.universe.Load(cfg.ScoreFile)
	if err != nil {
		return nil, err
	}
	screened = universe.Filter(all, universe.FilterParams{
		ExcludeSubIndustries: cfg.ExcludedSubIndustries,
		MinESGScore:          cfg.MinESGScore,
	})

	index, err := search.NewEngine(screened)
	if err != nil {
		logger.Warn("Universe", fmt.Sprintf("Search index unavailable: %v", err))
		index = nil
	}

	s.mu.Lock()
	s.screened = screened
	if s.index != nil {
		s.index.Close()
	}
	s.index = index
	s.mu.Unlock()

	logger.Success("Universe", fmt.Sprintf("Screened %d of %d constituents", len(screened), len(all)))
	return screened, nil
}

func (s *Server) handleUniverse(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// One-off screen overrides bypass the memo without touching config.
	if q.Has("min_esg") || q.Has("exclude") {
		cfg := s.configSnapshot()
		all, err := s.universe.Load(cfg.ScoreFile)
		if err != nil {
			writeError(w, 502, err.Error())
			return
		}
		minScore := cfg.MinESGScore
		if v, err := strconv.ParseFloat(q.Get("min_esg"), 64); err == nil {
			minScore = v
		}
		excluded := cfg.ExcludedSubIndustries
		if vs, ok := q["exclude"]; ok {
			excluded = vs
		}
		screened := universe.Filter(all, universe.FilterParams{
			ExcludeSubIndustries: excluded,
			MinESGScore:          minScore,
		})
		writeJSON(w, map[string]interface{}{
			"count":      len(screened),
			"securities": screened,
		})
		return
	}

	screened, err := s.ensureUniverse()
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"count":      len(screened),
		"securities": screened,
	})
}

func (s *Server) handleUniverseCSV(w http.ResponseWriter, r *http.Request) {
	screened, err := s.ensureUniverse()
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="universe.csv"`)

	cw := csv.NewWriter(w)
	cw.Write([]string{"Symbol", "Security", "GICS Sector", "GICS Sub-Industry", "Headquarters Location", "ESG Score"})
	for _, sec := range screened {
		cw.Write([]string{
			sec.Symbol, sec.Name, sec.Sector, sec.SubIndustry, sec.Headquarters,
			strconv.FormatFloat(sec.ESGScore, 'f', -1, 64),
		})
	}
	cw.Flush()
}

func (s *Server) handleSectors(w http.ResponseWriter, r *http.Request) {
	// Sub-industries come from the full joined universe so exclusion
	// choices are visible even when currently screened out.
	all, err := s.universe.Load(s.configSnapshot().ScoreFile)
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"sub_industries": universe.SubIndustries(all),
	})
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if _, err := s.ensureUniverse(); err != nil {
		writeError(w, 502, err.Error())
		return
	}

	q := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	s.mu.RLock()
	index := s.index
	s.mu.RUnlock()
	if index == nil {
		writeError(w, 503, "search index unavailable")
		return
	}

	results, err := index.Search(q, limit)
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"query":   q,
		"count":   len(results),
		"results": results,
	})
}

type loadPricesRequest struct {
	Period string `json:"period"`
}

func (s *Server) handleLoadPrices(w http.ResponseWriter, r *http.Request) {
	var req loadPricesRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}
	period := req.Period
	if period == "" {
		period = s.configSnapshot().PricePeriod
	}

	table, dropped, err := s.loadPrices(r, period)
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}

	writeJSON(w, map[string]interface{}{
		"period":  period,
		"symbols": len(table.Symbols),
		"days":    len(table.Dates),
		"dropped": dropped,
	})
}

// loadPrices downloads (or serves from cache) the screened universe's price
// history and memoises the aligned table.
func (s *Server) loadPrices(r *http.Request, period string) (*marketdata.PriceTable, []string, error) {
	screened, err := s.ensureUniverse()
	if err != nil {
		return nil, nil, err
	}

	start := time.Now()
	table, dropped, err := s.prices.History(r.Context(), universe.Symbols(screened), period)
	if err != nil {
		return nil, nil, err
	}
	logger.Success("Prices", fmt.Sprintf("Loaded %d symbols x %d days in %s",
		len(table.Symbols), len(table.Dates), time.Since(start).Round(time.Millisecond)))

	s.mu.Lock()
	s.table = table
	s.dropped = dropped
	s.period = period
	s.mu.Unlock()
	return table, dropped, nil
}

// priceTable returns the memoised table, loading it when absent.
func (s *Server) priceTable(r *http.Request) (*marketdata.PriceTable, error) {
	s.mu.RLock()
	table := s.table
	s.mu.RUnlock()
	if table != nil {
		return table, nil
	}
	table, _, err := s.loadPrices(r, s.configSnapshot().PricePeriod)
	return table, err
}

func (s *Server) handlePricesCSV(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	table := s.table
	s.mu.RUnlock()
	if table == nil {
		writeError(w, 409, "no price history loaded")
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="prices.csv"`)
	if err := table.WriteCSV(w); err != nil {
		logger.Error("Prices", fmt.Sprintf("CSV export: %v", err))
	}
}

type optimizeRequest struct {
	Objective    *string  `json:"objective"`
	MinWeight    *float64 `json:"min_weight"`
	MaxWeight    *float64 `json:"max_weight"`
	RiskFreeRate *float64 `json:"risk_free_rate"`
}

type optimizeResponse struct {
	RunID int64 `json:"run_id"`
	*engine.Allocation
}

func (s *Server) handleOptimize(w http.ResponseWriter, r *http.Request) {
	var req optimizeRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	cfg := s.configSnapshot()
	params := engine.Params{
		MinWeight:    cfg.MinWeight,
		MaxWeight:    cfg.MaxWeight,
		RiskFreeRate: cfg.RiskFreeRate,
	}
	objective := cfg.Objective
	if req.Objective != nil {
		objective = *req.Objective
	}
	parsed, err := engine.ParseObjective(objective)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	params.Objective = parsed
	if req.MinWeight != nil {
		params.MinWeight = *req.MinWeight
	}
	if req.MaxWeight != nil {
		params.MaxWeight = *req.MaxWeight
	}
	if req.RiskFreeRate != nil {
		params.RiskFreeRate = *req.RiskFreeRate
	}

	table, err := s.priceTable(r)
	if err != nil {
		writeError(w, 502, err.Error())
		return
	}

	start := time.Now()
	alloc, err := engine.Optimize(table, params)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	logger.Success("Optimizer", fmt.Sprintf("%s over %d assets in %s",
		params.Objective, alloc.AssetCount, time.Since(start).Round(time.Millisecond)))

	runID := s.db.InsertRun(alloc, params)
	writeJSON(w, optimizeResponse{RunID: runID, Allocation: alloc})
}

type performanceRequest struct {
	Weights   map[string]float64 `json:"weights"`
	Benchmark string             `json:"benchmark"`
}

func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	var req performanceRequest
	if r.Body != nil {
		json.NewDecoder(r.Body).Decode(&req)
	}

	weights, err := s.resolveWeights(req.Weights)
	if err != nil {
		writeError(w, 409, err.Error())
		return
	}

	s.mu.RLock()
	table := s.table
	period := s.period
	s.mu.RUnlock()
	if table == nil {
		writeError(w, 409, "no price history loaded")
		return
	}

	benchmark := req.Benchmark
	if benchmark == "" {
		benchmark = defaultBenchmark
	}
	var bench *marketdata.PriceTable
	benchTable, _, err := s.prices.History(r.Context(), []string{benchmark}, period)
	if err != nil || len(benchTable.Symbols) == 0 {
		logger.Warn("Prices", fmt.Sprintf("Benchmark %s unavailable", benchmark))
	} else {
		bench = benchTable
	}

	points, err := engine.CumulativePerformance(table, weights, bench, benchmark)
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{
		"benchmark": benchmark,
		"points":    points,
	})
}

type allocateRequest struct {
	Weights map[string]float64 `json:"weights"`
	Total   float64            `json:"total_amount"`
}

func (s *Server) handleAllocate(w http.ResponseWriter, r *http.Request) {
	var req allocateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, 400, "invalid json")
		return
	}

	weights, err := s.resolveWeights(req.Weights)
	if err != nil {
		writeError(w, 409, err.Error())
		return
	}

	s.mu.RLock()
	table := s.table
	s.mu.RUnlock()
	if table == nil {
		writeError(w, 409, "no price history loaded")
		return
	}

	latest := make(map[string]float64, len(weights))
	for sym := range weights {
		if px, ok := table.Latest(sym); ok {
			latest[sym] = px
		}
	}

	plan, err := engine.AllocateShares(weights, latest, decimal.NewFromFloat(req.Total))
	if err != nil {
		writeError(w, 400, err.Error())
		return
	}
	writeJSON(w, plan)
}

// resolveWeights falls back to the most recent saved run when the request
// does not carry its own weight map.
func (s *Server) resolveWeights(weights map[string]float64) (map[string]float64, error) {
	if len(weights) > 0 {
		return weights, nil
	}
	runs := s.db.GetRuns(1)
	if len(runs) == 0 {
		return nil, fmt.Errorf("no weights given and no saved runs")
	}
	var saved map[string]float64
	if err := json.Unmarshal(runs[0].Weights, &saved); err != nil || len(saved) == 0 {
		return nil, fmt.Errorf("no usable weights in last run")
	}
	return saved, nil
}

func (s *Server) handleGetRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	writeJSON(w, s.db.GetRuns(limit))
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, 400, "invalid run id")
		return
	}
	if s.db.GetRunByID(id) == nil {
		writeError(w, 404, "run not found")
		return
	}
	if err := s.db.DeleteRun(id); err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]bool{"deleted": true})
}

func (s *Server) handleClearRuns(w http.ResponseWriter, r *http.Request) {
	n, err := s.db.ClearRuns()
	if err != nil {
		writeError(w, 500, err.Error())
		return
	}
	writeJSON(w, map[string]int64{"cleared": n})
}
