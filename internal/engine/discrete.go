package engine

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
)

// SharePlan converts fractional portfolio weights into whole-share counts
// for a given investment amount.
type SharePlan struct {
	Shares   map[string]int64 `json:"shares"`
	Spent    decimal.Decimal  `json:"spent"`
	Leftover decimal.Decimal  `json:"leftover"`
}

// AllocateShares greedily allocates whole shares at the latest prices:
// first the floor of each ideal position, then one share at a time to the
// most underweighted affordable asset until the cash runs out.
func AllocateShares(weights map[string]float64, latest map[string]float64, total decimal.Decimal) (*SharePlan, error) {
	if total.Sign() <= 0 {
		return nil, fmt.Errorf("allocate: total amount must be positive")
	}

	type position struct {
		symbol string
		price  decimal.Decimal
		ideal  decimal.Decimal // target value of the position
		value  decimal.Decimal // value bought so far
		shares int64
	}

	var positions []*position
	for sym, w := range weights {
		if w <= 0 {
			// Whole-share allocation is long-only; short weights are skipped.
			continue
		}
		px, ok := latest[sym]
		if !ok || px <= 0 {
			return nil, fmt.Errorf("allocate: no price for %s", sym)
		}
		positions = append(positions, &position{
			symbol: sym,
			price:  decimal.NewFromFloat(px),
			ideal:  total.Mul(decimal.NewFromFloat(w)),
		})
	}
	if len(positions) == 0 {
		return nil, fmt.Errorf("allocate: no positive weights to allocate")
	}

	cash := total
	for _, p := range positions {
		shares := p.ideal.Div(p.price).IntPart()
		cost := p.price.Mul(decimal.NewFromInt(shares))
		if cost.GreaterThan(cash) {
			continue
		}
		p.shares = shares
		p.value = cost
		cash = cash.Sub(cost)
	}

	// Spend remaining cash on the largest shortfalls first.
	for {
		sort.Slice(positions, func(i, j int) bool {
			di := positions[i].ideal.Sub(positions[i].value)
			dj := positions[j].ideal.Sub(positions[j].value)
			return di.GreaterThan(dj)
		})
		bought := false
		for _, p := range positions {
			if p.price.LessThanOrEqual(cash) && p.ideal.GreaterThan(p.value) {
				p.shares++
				p.value = p.value.Add(p.price)
				cash = cash.Sub(p.price)
				bought = true
				break
			}
		}
		if !bought {
			break
		}
	}

	plan := &SharePlan{
		Shares:   make(map[string]int64),
		Leftover: cash,
		Spent:    total.Sub(cash),
	}
	for _, p := range positions {
		if p.shares > 0 {
			plan.Shares[p.symbol] = p.shares
		}
	}
	return plan, nil
}
