package engine

import "fmt"

// Objective selects which point on the efficient frontier is extracted.
type Objective string

const (
	MaxSharpe     Objective = "max_sharpe"
	MinVolatility Objective = "min_volatility"
)

// ParseObjective validates an objective label from the API/config.
func ParseObjective(s string) (Objective, error) {
	switch s {
	case "", string(MaxSharpe):
		return MaxSharpe, nil
	case string(MinVolatility):
		return MinVolatility, nil
	default:
		return "", fmt.Errorf("unknown objective %q", s)
	}
}

// Params holds the optimiser inputs beyond the price table itself.
type Params struct {
	Objective    Objective
	MinWeight    float64 // per-asset lower bound, -1..0
	MaxWeight    float64 // per-asset upper bound, 0..1
	RiskFreeRate float64 // annual fraction, e.g. 0.065
}

// FrontierPoint is a point on the efficient frontier in annualised terms.
type FrontierPoint struct {
	Risk   float64 `json:"risk"`   // annualised volatility
	Return float64 `json:"return"` // annualised expected return
}

// AssetPoint is one asset's own risk/return, for the frontier scatter.
type AssetPoint struct {
	Symbol string  `json:"symbol"`
	Risk   float64 `json:"risk"`
	Return float64 `json:"return"`
}

// Allocation is the result of one optimisation run.
type Allocation struct {
	Objective    Objective          `json:"objective"`
	Weights      map[string]float64 `json:"weights"` // non-zero entries only
	Return       float64            `json:"annual_return"`
	Volatility   float64            `json:"annual_volatility"`
	Sharpe       float64            `json:"sharpe_ratio"`
	RiskFreeRate float64            `json:"risk_free_rate"`
	Frontier     []FrontierPoint    `json:"frontier"`
	Optimum      FrontierPoint      `json:"optimum"`
	Assets       []AssetPoint       `json:"assets"`
	AssetCount   int                `json:"asset_count"`
	Observations int                `json:"observations"`
}
