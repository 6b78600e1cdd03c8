// Package execution models what it costs to move the legs of a pair position.
package execution

import (
	"fmt"
	"math"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
)

// Leg identifies one side of a pair.
type Leg string

const (
	// LegA is the dependent instrument, traded at the signal's sign.
	LegA Leg = "A"
	// LegB is the hedge instrument, traded at beta times the opposite sign.
	LegB Leg = "B"
)

// CostModel charges a fixed half spread plus slippage growing with the square of the
// volume fraction.
type CostModel struct {
	HalfSpread float64
	SlipCoef   float64
	// ADVWindow and ADVMultiple build the average daily volume proxy: the trailing mean
	// of the strategy's own held shares times ADVMultiple. No market volume is used.
	ADVWindow   int
	ADVMultiple float64
}

// NewCostModel returns a cost model with the 21 day x20 volume proxy.
func NewCostModel(halfSpread, slipCoef float64) CostModel {
	return CostModel{HalfSpread: halfSpread, SlipCoef: slipCoef, ADVWindow: 21, ADVMultiple: 20}
}

// Rate is the cost per share traded at volume fraction vf; monotone in vf.
func (m CostModel) Rate(vf float64) float64 {
	vf = stats.Clamp(vf, 0, 1)
	return m.HalfSpread + m.SlipCoef*vf*vf
}

// LegTrades holds the per-date share bookkeeping of one leg.
type LegTrades struct {
	Leg     Leg
	Held    []float64
	Traded  []float64
	ADV     []float64
	VolFrac []float64
	Cost    []float64
}

// Trades derives held and traded shares for a leg from its notional allocation and price.
// Holdings are absolute. Where notional or price is undefined the holding is undefined, and
// the day it becomes defined again trades nothing.
func (m CostModel) Trades(leg Leg, notional, price []float64) (LegTrades, error) {
	if len(notional) != len(price) {
		return LegTrades{}, fmt.Errorf("leg %s: notional %d vs price %d", leg, len(notional), len(price))
	}
	n := len(price)
	held := stats.NaNs(n)
	for i := range held {
		if stats.IsDefined(notional[i]) && price[i] > 0 {
			held[i] = math.Abs(notional[i]) / price[i]
		}
	}
	window := m.ADVWindow
	if window <= 0 {
		window = 21
	}
	mult := m.ADVMultiple
	if mult <= 0 {
		mult = 20
	}
	avg := stats.RollingMean(held, window)
	lt := LegTrades{
		Leg:     leg,
		Held:    held,
		Traded:  make([]float64, n),
		ADV:     make([]float64, n),
		VolFrac: make([]float64, n),
		Cost:    make([]float64, n),
	}
	for i := range held {
		if i > 0 && stats.IsDefined(held[i]) && stats.IsDefined(held[i-1]) {
			lt.Traded[i] = math.Abs(held[i] - held[i-1])
		}
		base := avg[i]
		if math.IsNaN(base) {
			base = held[i]
		}
		lt.ADV[i] = orZero(base * mult)
		if lt.ADV[i] > 0 {
			lt.VolFrac[i] = math.Min(held[i]/lt.ADV[i], 1)
		}
		lt.Cost[i] = m.Rate(lt.VolFrac[i]) * lt.Traded[i]
	}
	return lt, nil
}

// PairCost is the combined cost of both legs per date.
type PairCost struct {
	A, B  LegTrades
	Total []float64
}

// PairCosts computes both legs from the sized allocation, whatever the signal: leg A holds
// |notional| worth of the first instrument and leg B |notional*beta| of the hedge
// instrument. A flat book still pays to follow the allocation as notional, beta and
// prices drift.
func (m CostModel) PairCosts(notional, beta, priceA, priceB []float64) (PairCost, error) {
	n := len(notional)
	if len(beta) != n || len(priceA) != n || len(priceB) != n {
		return PairCost{}, fmt.Errorf("pair costs: misaligned inputs (%d dates)", n)
	}
	legB := make([]float64, n)
	for i := range legB {
		legB[i] = notional[i] * beta[i]
	}
	a, err := m.Trades(LegA, notional, priceA)
	if err != nil {
		return PairCost{}, err
	}
	b, err := m.Trades(LegB, legB, priceB)
	if err != nil {
		return PairCost{}, err
	}
	total := make([]float64, n)
	for i := range total {
		total[i] = a.Cost[i] + b.Cost[i]
	}
	return PairCost{A: a, B: b, Total: total}, nil
}

func orZero(v float64) float64 {
	if stats.IsDefined(v) {
		return v
	}
	return 0
}
