package config

// Config holds the optimiser parameters (in-memory representation).
// Persistence is handled by internal/db package.
type Config struct {
	// Universe filters.
	ExcludedSubIndustries []string `json:"excluded_sub_industries"`
	MinESGScore           float64  `json:"min_esg_score"`

	// Per-asset weight bounds as fractions (-1..1).
	MinWeight float64 `json:"min_weight"`
	MaxWeight float64 `json:"max_weight"`

	// Objective: "max_sharpe" or "min_volatility".
	Objective string `json:"objective"`

	// Annual risk-free rate as a fraction (0.065 = 6.5%).
	RiskFreeRate float64 `json:"risk_free_rate"`

	// Price history window: "ytd", "6mo" or "1y".
	PricePeriod string `json:"price_period"`

	// Path to the ESG score file (CSV keyed by ticker symbol).
	ScoreFile string `json:"score_file"`
}

// Default returns a Config with sensible defaults.
// Exclusions mirror the classic ESG screen: sin stocks and defense.
func Default() *Config {
	return &Config{
		ExcludedSubIndustries: []string{
			"Tobacco",
			"Casinos & Gaming",
			"Aerospace & Defense",
		},
		MinESGScore:  80,
		MinWeight:    0,
		MaxWeight:    0.10,
		Objective:    "max_sharpe",
		RiskFreeRate: 0.065,
		PricePeriod:  "ytd",
		ScoreFile:    "esg_scores.csv",
	}
}
