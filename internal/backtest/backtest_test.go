package backtest

import (
	"context"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/coint"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/execution"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/hedge"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/market"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/paper"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/risk"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/strategy"
)

func businessDays(start time.Time, n int) []time.Time {
	out := make([]time.Time, 0, n)
	for d := start; len(out) < n; d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			out = append(out, d)
		}
	}
	return out
}

// syntheticUniverse has one cointegrated pair (AAA, BBB) and an unrelated walk (CCC).
func syntheticUniverse(n int) ([]time.Time, map[string][]float64) {
	rng := rand.New(rand.NewSource(42))
	dates := businessDays(time.Date(2016, 1, 4, 0, 0, 0, 0, time.UTC), n)
	a := make([]float64, n)
	b := make([]float64, n)
	c := make([]float64, n)
	lb, lc, noise := math.Log(40), math.Log(70), 0.0
	for i := 0; i < n; i++ {
		lb += 0.01 * rng.NormFloat64()
		lc += 0.01 * rng.NormFloat64()
		noise = 0.6*noise + 0.003*rng.NormFloat64()
		b[i] = math.Exp(lb)
		a[i] = math.Exp(0.5 + 0.9*lb + noise)
		c[i] = math.Exp(lc)
	}
	return dates, map[string][]float64{"AAA": a, "BBB": b, "CCC": c}
}

type alwaysLong struct{}

func (alwaysLong) Name() string { return "always_long" }

func (alwaysLong) Signals(spread []float64) strategy.Output {
	pos := make([]signal.Position, len(spread))
	for i := range pos {
		pos[i] = signal.Long
	}
	return strategy.Output{Positions: pos, Z: make([]float64, len(spread))}
}

type alwaysFlat struct{}

func (alwaysFlat) Name() string { return "always_flat" }

func (alwaysFlat) Signals(spread []float64) strategy.Output {
	return strategy.Output{Positions: make([]signal.Position, len(spread)), Z: make([]float64, len(spread))}
}

func TestAnnualSharpe(t *testing.T) {
	assert.True(t, math.IsNaN(AnnualSharpe(nil)))
	assert.True(t, math.IsNaN(AnnualSharpe([]float64{1, math.NaN()})))

	constant := AnnualSharpe([]float64{5, 5, 5, 5})
	assert.False(t, math.IsInf(constant, 0) || math.IsNaN(constant))
	assert.Greater(t, constant, 0.0)

	assert.InDelta(t, 0, AnnualSharpe([]float64{1, -1, 1, -1}), 1e-12)
	// mean 1, sample std 1
	assert.InDelta(t, math.Sqrt(252), AnnualSharpe([]float64{0, 1, 2}), 1e-9)
}

func TestRankOrdersAndKeepsTies(t *testing.T) {
	in := []Ranked{
		{Candidate: coint.Candidate{A: "A", B: "B"}, Score: 0.5},
		{Candidate: coint.Candidate{A: "C", B: "D"}, Score: math.NaN()},
		{Candidate: coint.Candidate{A: "E", B: "F"}, Score: 1.2},
		{Candidate: coint.Candidate{A: "G", B: "H"}, Score: 0.5},
		{Candidate: coint.Candidate{A: "I", B: "J"}, Score: -0.3},
	}
	got := Rank(in)
	var names []string
	for _, r := range got {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{"E/F", "A/B", "G/H", "I/J", "C/D"}, names)
	assert.Equal(t, "A/B", in[0].Name(), "input must not be reordered")
}

func TestRunPairConstantReturn(t *testing.T) {
	n := 80
	dates := businessDays(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), n)
	pa := make([]float64, n)
	pb := make([]float64, n)
	beta := make([]float64, n)
	for i := range pa {
		pa[i] = 100 * math.Pow(1.01, float64(i))
		pb[i] = 50
	}
	in := PairInput{A: "UP", B: "FLAT", Dates: dates, PriceA: pa, PriceB: pb, Hedge: hedge.Result{Beta: beta, Method: hedge.Kalman}}
	sizer := risk.NewSizer(1_000_000, 0.08, 1)
	res, err := RunPair(in, alwaysLong{}, sizer, execution.NewCostModel(0, 0))
	require.NoError(t, err)

	// notional is capped at 20% of capital once the 21 day volatility window is full
	for tt := 22; tt < n; tt++ {
		require.InDelta(t, 200_000*0.01, res.PnL[tt], 1e-6, "pnl at %d", tt)
	}
	for tt := 0; tt < 22; tt++ {
		require.Equal(t, 0.0, res.PnL[tt])
	}
	sharpe := AnnualSharpe(res.PnL[22:])
	assert.Greater(t, sharpe, 0.0)
	assert.False(t, math.IsInf(sharpe, 0))
	assert.Equal(t, 1, res.Trades)
	assert.Len(t, res.States, n)
	assert.Equal(t, signal.Long, res.States[30].Position)
	assert.InDelta(t, 200_000/pa[30], res.States[30].SharesA, 1e-9)
}

func TestConstantPnLEquityStrictlyIncreasing(t *testing.T) {
	n := 80
	dates := businessDays(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), n)
	pa := make([]float64, n)
	pb := make([]float64, n)
	for i := range pa {
		pa[i] = 100 * math.Pow(1.01, float64(i))
		pb[i] = 50
	}
	in := PairInput{A: "UP", B: "FLAT", Dates: dates, PriceA: pa, PriceB: pb, Hedge: hedge.Result{Beta: make([]float64, n), Method: hedge.Kalman}}
	res, err := RunPair(in, alwaysLong{}, risk.NewSizer(1_000_000, 0.08, 1), execution.NewCostModel(0, 0))
	require.NoError(t, err)

	account, err := paper.NewAccount(1_000_000)
	require.NoError(t, err)
	for tt := 22; tt < n; tt++ {
		_, err := account.Apply(dates[tt], res.PnL[tt])
		require.NoError(t, err)
	}
	curve := account.Curve()
	require.Len(t, curve, n-22)
	assert.Greater(t, curve[0].Equity, 1.0)
	for i := 1; i < len(curve); i++ {
		require.Greater(t, curve[i].Equity, curve[i-1].Equity, "equity at %d", i)
	}
	sharpe := AnnualSharpe(res.PnL[22:])
	assert.False(t, math.IsInf(sharpe, 0) || math.IsNaN(sharpe))
	assert.Greater(t, sharpe, 0.0)
	assert.InDelta(t, curve[len(curve)-1].Equity-1, account.TotalReturn(), 1e-12)
}

func TestRunPairHedgesWithSameDayBeta(t *testing.T) {
	n := 60
	dates := businessDays(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), n)
	pa := make([]float64, n)
	pb := make([]float64, n)
	beta := make([]float64, n)
	for i := range pa {
		pa[i] = 100
		pb[i] = 50 * math.Pow(1.01, float64(i))
		beta[i] = 1 + 0.1*float64(i)
	}
	in := PairInput{A: "FLAT", B: "UP", Dates: dates, PriceA: pa, PriceB: pb, Hedge: hedge.Result{Beta: beta, Method: hedge.Kalman}}
	res, err := RunPair(in, alwaysLong{}, risk.NewSizer(1_000_000, 0.08, 1), execution.NewCostModel(0, 0))
	require.NoError(t, err)

	for tt := 22; tt < n; tt++ {
		rB := pb[tt]/pb[tt-1] - 1
		want := res.Notional[tt-1] * (0 - beta[tt]*rB)
		require.InDelta(t, want, res.PnL[tt], 1e-6, "pnl at %d", tt)
		lagged := res.Notional[tt-1] * (0 - beta[tt-1]*rB)
		require.Greater(t, math.Abs(res.PnL[tt]-lagged), 1e-6, "pnl at %d used yesterday's beta", tt)
	}
}

func TestRunPairFlatBookPaysAllocationCosts(t *testing.T) {
	n := 60
	dates := businessDays(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), n)
	pa := make([]float64, n)
	pb := make([]float64, n)
	beta := make([]float64, n)
	for i := range pa {
		pa[i] = 100
		if i%2 == 1 {
			pa[i] = 102
		}
		pb[i] = 50
		beta[i] = 1
	}
	in := PairInput{A: "OSC", B: "FLAT", Dates: dates, PriceA: pa, PriceB: pb, Hedge: hedge.Result{Beta: beta, Method: hedge.Kalman}}
	res, err := RunPair(in, alwaysFlat{}, risk.NewSizer(1_000_000, 0.08, 1), execution.NewCostModel(0.00005, 0.1))
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.GrossPnL)
	assert.Greater(t, res.TotalCost, 0.0)
	for tt := 22; tt < n; tt++ {
		require.Greater(t, res.Cost[tt], 0.0, "cost at %d", tt)
		require.InDelta(t, -res.Cost[tt], res.PnL[tt], 1e-12)
		require.Equal(t, 0.0, res.States[tt].SharesA)
	}
}

func TestRunPairRejectsMisalignedBeta(t *testing.T) {
	in := PairInput{A: "A", B: "B", Dates: make([]time.Time, 3), PriceA: []float64{1, 2, 3}, PriceB: []float64{1, 2, 3}, Hedge: hedge.Result{Beta: []float64{1}}}
	_, err := RunPair(in, alwaysLong{}, risk.NewSizer(1, 0.1, 1), execution.NewCostModel(0, 0))
	require.Error(t, err)
}

func TestQuickSharpeSkipsUndefinedZ(t *testing.T) {
	n := 300
	pa := make([]float64, n)
	pb := make([]float64, n)
	beta := make([]float64, n)
	rng := rand.New(rand.NewSource(9))
	pa[0], pb[0] = 100, 100
	for i := 1; i < n; i++ {
		pa[i] = pa[i-1] * (1 + 0.01*rng.NormFloat64())
		pb[i] = pb[i-1] * (1 + 0.01*rng.NormFloat64())
		beta[i] = 1
	}
	beta[0] = 1
	s := QuickSharpe(pa, pb, beta, strategy.NewSignReversion(strategy.DefaultParams()))
	assert.False(t, math.IsNaN(s))

	short := QuickSharpe(pa[:100], pb[:100], beta[:100], strategy.NewSignReversion(strategy.DefaultParams()))
	assert.True(t, math.IsNaN(short), "no defined z within 120 days means no score")
}

func TestRunEndToEnd(t *testing.T) {
	dates, closes := syntheticUniverse(700)
	store := market.NewStore(market.NewStaticProviderFromCloses(dates, closes), zerolog.Nop())
	opts := DefaultOptions()
	opts.Universe = []string{"AAA", "BBB", "CCC", "ZZZ"}
	opts.Start = dates[0]
	opts.End = dates[len(dates)-1].AddDate(0, 0, 1)

	sink := &countingSink{}
	res, err := Run(context.Background(), opts, store, WithRecorder(sink), WithRunID("test-run"))
	require.NoError(t, err)

	assert.Equal(t, "test-run", res.RunID)
	require.Len(t, res.Inclusions, 4)
	assert.Equal(t, market.NoData, res.Inclusions[3].Reason)
	require.Len(t, res.Outcomes, 3)

	cands := res.Candidates()
	require.Len(t, cands, 1)
	assert.Equal(t, "AAA/BBB", cands[0].Name())
	require.Len(t, res.Pairs, 1)
	pr := res.Pairs[0]
	assert.Equal(t, hedge.Kalman, pr.Method)
	assert.GreaterOrEqual(t, pr.ZWindow, 60)
	assert.LessOrEqual(t, pr.ZWindow, 240)

	require.Len(t, res.PnL, len(dates))
	require.Len(t, res.Equity, len(dates))
	assert.Equal(t, len(dates), res.Ledger.Len())
	assert.Equal(t, len(dates), sink.n)
	assert.InDelta(t, res.Equity[len(res.Equity)-1].Equity-1, res.TotalReturn, 1e-12)
	assert.False(t, math.IsNaN(res.Sharpe))
	assert.Greater(t, res.Years, 2.0)
	assert.GreaterOrEqual(t, res.MaxDrawdown, 0.0)

	limits := risk.Limits{MaxNotionalPerTrade: opts.Capital * opts.MaxWeight}
	for _, st := range res.Ledger.Snapshot() {
		require.True(t, limits.Allow(st.Notional), "notional %v above cap on %s", st.Notional, st.Date)
	}
}

func TestRunWithoutCandidatesIsFlat(t *testing.T) {
	dates, closes := syntheticUniverse(400)
	table, _, err := market.BuildTable(barsFrom(dates, closes), []string{"AAA", "CCC"}, time.Time{}, time.Time{}, 252)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Universe = []string{"AAA", "CCC"}
	res, err := RunTable(context.Background(), opts, table)
	require.NoError(t, err)
	assert.Empty(t, res.Pairs)
	assert.Equal(t, 0.0, res.TotalReturn)
	assert.Equal(t, 0.0, res.Sharpe)
}

func TestRunHonoursCancellation(t *testing.T) {
	dates, closes := syntheticUniverse(400)
	store := market.NewStore(market.NewStaticProviderFromCloses(dates, closes), zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	opts := DefaultOptions()
	opts.Universe = []string{"AAA", "BBB"}
	opts.Start, opts.End = time.Time{}, time.Time{}
	_, err := Run(ctx, opts, store)
	require.ErrorIs(t, err, context.Canceled)
}

func TestOptionsValidate(t *testing.T) {
	require.NoError(t, DefaultOptions().Validate())
	bad := DefaultOptions()
	bad.Capital = 0
	bad.MaxPairs = 0
	bad.End = bad.Start
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capital")
	assert.Contains(t, err.Error(), "max pairs")
}

type countingSink struct{ n int }

func (c *countingSink) Record(paper.PositionState) { c.n++ }

func barsFrom(dates []time.Time, closes map[string][]float64) map[string][]signal.Bar {
	out := make(map[string][]signal.Bar, len(closes))
	for sym, col := range closes {
		for i, px := range col {
			out[sym] = append(out[sym], signal.Bar{Symbol: sym, Date: dates[i], Close: px})
		}
	}
	return out
}
