package backtest

import (
	"fmt"
	"time"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/execution"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/hedge"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/paper"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/risk"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/strategy"
)

// PairInput is one selected pair on the dates where both legs trade.
type PairInput struct {
	A, B   string
	Dates  []time.Time
	PriceA []float64
	PriceB []float64
	Hedge  hedge.Result
}

// Name renders the pair as "A/B".
func (p PairInput) Name() string { return p.A + "/" + p.B }

// PairResult is the full-policy outcome for one pair.
type PairResult struct {
	A, B         string
	Dates        []time.Time
	Beta         []float64
	Method       hedge.Method
	Spread       []float64
	Positions    []signal.Position
	Notional     []float64
	PnL          []float64
	Cost         []float64
	HalfLife     float64
	ZWindow      int
	Trades       int
	GrossPnL     float64
	TotalCost    float64
	Sharpe       float64
	RankingScore float64
	States       []paper.PositionState
}

// Name renders the pair as "A/B".
func (r PairResult) Name() string { return r.A + "/" + r.B }

// RunPair trades one pair. Daily P&L is
//
//	notional(t-1) * position(t-1) * (rA(t) - beta(t)*rB(t)) - cost(t)
//
// Notional and position are yesterday's; the hedge ratio is the same-day estimate.
func RunPair(in PairInput, policy strategy.Policy, sizer *risk.Sizer, costs execution.CostModel) (PairResult, error) {
	n := len(in.Dates)
	if len(in.PriceA) != n || len(in.PriceB) != n || len(in.Hedge.Beta) != n {
		return PairResult{}, fmt.Errorf("pair %s: misaligned inputs dates=%d a=%d b=%d beta=%d",
			in.Name(), n, len(in.PriceA), len(in.PriceB), len(in.Hedge.Beta))
	}
	beta := in.Hedge.Beta
	spread, err := strategy.Spread(stats.Log(in.PriceA), stats.Log(in.PriceB), beta)
	if err != nil {
		return PairResult{}, fmt.Errorf("pair %s: %w", in.Name(), err)
	}
	out := policy.Signals(spread)
	notional := sizer.Notional(spread)
	pc, err := costs.PairCosts(notional, beta, in.PriceA, in.PriceB)
	if err != nil {
		return PairResult{}, fmt.Errorf("pair %s: %w", in.Name(), err)
	}

	rA := stats.FillNaN(stats.PctChange(in.PriceA), 0)
	rB := stats.FillNaN(stats.PctChange(in.PriceB), 0)
	res := PairResult{
		A:         in.A,
		B:         in.B,
		Dates:     in.Dates,
		Beta:      beta,
		Method:    in.Hedge.Method,
		Spread:    spread,
		Positions: out.Positions,
		Notional:  notional,
		PnL:       make([]float64, n),
		Cost:      pc.Total,
		HalfLife:  out.HalfLife,
		ZWindow:   out.ZWindow,
		Trades:    signal.Transitions(out.Positions),
		States:    make([]paper.PositionState, n),
	}
	for t := 0; t < n; t++ {
		var gross float64
		if t > 0 {
			prevPos := out.Positions[t-1].Sign()
			if prevPos != 0 && stats.IsDefined(notional[t-1]) && stats.IsDefined(beta[t]) {
				gross = notional[t-1] * prevPos * (rA[t] - beta[t]*rB[t])
			}
		}
		res.PnL[t] = gross - pc.Total[t]
		res.GrossPnL += gross
		res.TotalCost += pc.Total[t]

		pos := out.Positions[t]
		res.States[t] = paper.PositionState{
			Date:     in.Dates[t],
			Pair:     in.Name(),
			Position: pos,
			Notional: orZero(notional[t]),
			Beta:     orZero(beta[t]),
			SharesA:  pos.Sign() * orZero(pc.A.Held[t]),
			SharesB:  -pos.Sign() * signOf(beta[t]) * orZero(pc.B.Held[t]),
			PnL:      res.PnL[t],
			Cost:     pc.Total[t],
		}
	}
	res.Sharpe = AnnualSharpe(res.PnL)
	return res, nil
}

func orZero(v float64) float64 {
	if stats.IsDefined(v) {
		return v
	}
	return 0
}

func signOf(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
