package backtest

import (
	"math"
	"slices"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/coint"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/strategy"
)

const (
	tradingDays = 252
	// stdFloor keeps a constant P&L series from dividing by zero.
	stdFloor = 1e-12
)

// AnnualSharpe is sqrt(252)*mean/std over the defined values of a daily P&L series.
// Fewer than two defined values gives NaN.
func AnnualSharpe(pnl []float64) float64 {
	mean, sd := stats.MeanStd(pnl)
	if math.IsNaN(sd) {
		return math.NaN()
	}
	return math.Sqrt(tradingDays) * mean / math.Max(sd, stdFloor)
}

// QuickSharpe scores a pair with a cheap policy: the previous day's position times the
// hedged return rA(t) - beta(t)*rB(t). Days following an undefined z-score are skipped.
func QuickSharpe(priceA, priceB, beta []float64, policy strategy.Policy) float64 {
	spread, err := strategy.Spread(stats.Log(priceA), stats.Log(priceB), beta)
	if err != nil {
		return math.NaN()
	}
	out := policy.Signals(spread)
	rA := stats.FillNaN(stats.PctChange(priceA), 0)
	rB := stats.FillNaN(stats.PctChange(priceB), 0)
	ret := stats.NaNs(len(spread))
	for t := 1; t < len(spread); t++ {
		if !stats.IsDefined(out.Z[t-1]) {
			continue
		}
		ret[t] = out.Positions[t-1].Sign() * (rA[t] - beta[t]*rB[t])
	}
	return AnnualSharpe(ret)
}

// Ranked is a candidate with its ranking score.
type Ranked struct {
	coint.Candidate
	Score float64
}

// Rank orders candidates by descending score. Undefined scores sort last and ties keep
// discovery order.
func Rank(cands []Ranked) []Ranked {
	out := slices.Clone(cands)
	slices.SortStableFunc(out, func(a, b Ranked) int {
		an, bn := math.IsNaN(a.Score), math.IsNaN(b.Score)
		switch {
		case an && bn:
			return 0
		case an:
			return 1
		case bn:
			return -1
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})
	return out
}
