package backtest

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/coint"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/execution"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/hedge"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/market"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/metrics"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/paper"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/risk"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/strategy"
)

// Loader supplies the aligned universe; *market.Store implements it.
type Loader interface {
	Load(ctx context.Context, universe []string, start, end time.Time) (*market.Table, []market.Inclusion, error)
}

// Result is everything a run produced.
type Result struct {
	RunID      string
	Options    Options
	Inclusions []market.Inclusion
	Outcomes   []coint.Outcome
	Ranked     []Ranked
	Pairs      []PairResult

	Dates       []time.Time
	PnL         []float64
	Equity      []paper.EquityPoint
	Sharpe      float64
	TotalReturn float64
	Years       float64
	MaxDrawdown float64

	Ledger *paper.Ledger
}

// Candidates returns the pairs that passed screening, in discovery order.
func (r *Result) Candidates() []coint.Candidate {
	var out []coint.Candidate
	for _, o := range r.Outcomes {
		if o.Included {
			out = append(out, coint.Candidate{A: o.A, B: o.B, PValue: o.PValue})
		}
	}
	return out
}

// RunOption customizes a run.
type RunOption func(*runner)

// WithLogger routes run logs to log.
func WithLogger(log zerolog.Logger) RunOption {
	return func(r *runner) { r.log = log }
}

// WithRecorder forwards every position state to rec as it is appended to the ledger.
func WithRecorder(rec paper.StateRecorder) RunOption {
	return func(r *runner) {
		if rec != nil {
			r.sinks = append(r.sinks, rec)
		}
	}
}

// WithRunID fixes the run identifier instead of generating one.
func WithRunID(id string) RunOption {
	return func(r *runner) { r.runID = id }
}

type runner struct {
	opts  Options
	log   zerolog.Logger
	sinks []paper.StateRecorder
	runID string
}

// Run loads the universe, screens and ranks pairs, trades the top MaxPairs and
// aggregates their P&L on the union calendar.
func Run(ctx context.Context, opts Options, loader Loader, runOpts ...RunOption) (*Result, error) {
	r, err := newRunner(opts, runOpts)
	if err != nil {
		return nil, err
	}
	table, incl, err := loader.Load(ctx, r.opts.Universe, r.opts.Start, r.opts.End)
	if err != nil {
		return nil, fmt.Errorf("load universe: %w", err)
	}
	return r.run(ctx, table, incl)
}

// RunTable runs the pipeline on an already aligned table.
func RunTable(ctx context.Context, opts Options, table *market.Table, runOpts ...RunOption) (*Result, error) {
	r, err := newRunner(opts, runOpts)
	if err != nil {
		return nil, err
	}
	return r.run(ctx, table, nil)
}

func newRunner(opts Options, runOpts []RunOption) (*runner, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	r := &runner{opts: opts.clone(), log: zerolog.Nop()}
	for _, opt := range runOpts {
		opt(r)
	}
	if r.runID == "" {
		r.runID = uuid.NewString()
	}
	r.log = r.log.With().Str("run_id", r.runID).Logger()
	return r, nil
}

func (r *runner) run(ctx context.Context, table *market.Table, incl []market.Inclusion) (*Result, error) {
	opts := r.opts
	res := &Result{
		RunID:      r.runID,
		Options:    opts,
		Inclusions: incl,
		Ledger:     paper.NewLedger(0, r.sinks...),
	}

	screener := coint.NewScreener(opts.Screener, r.log)
	candidates, outcomes, err := screener.Screen(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("screen pairs: %w", err)
	}
	res.Outcomes = outcomes

	estimator := hedge.NewEstimator(opts.Hedge, r.log)
	inputs := make(map[string]PairInput, len(candidates))
	rankPolicy := strategy.Build(opts.RankPolicy, opts.Strategy)
	scored := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		in, err := r.pairInput(table, estimator, c)
		if err != nil {
			return nil, err
		}
		inputs[c.Name()] = in
		score := QuickSharpe(in.PriceA, in.PriceB, in.Hedge.Beta, rankPolicy)
		scored = append(scored, Ranked{Candidate: c, Score: score})
	}
	res.Ranked = Rank(scored)

	selected := res.Ranked
	if len(selected) > opts.MaxPairs {
		selected = selected[:opts.MaxPairs]
	}
	metrics.PairsTraded.Set(float64(len(selected)))
	names := make([]string, len(selected))
	for i, s := range selected {
		names[i] = s.Name()
	}
	r.log.Info().Strs("pairs", names).Msg("trading pairs")

	policy := strategy.Build(opts.Policy, opts.Strategy)
	costs := execution.NewCostModel(opts.HalfSpread, opts.SlipCoef)
	index := table.Index()
	res.Dates = table.Dates
	res.PnL = make([]float64, table.Len())
	for _, s := range selected {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		sizer := risk.NewSizer(opts.Capital, opts.TargetVol, len(selected),
			risk.WithMaxWeight(opts.MaxWeight), risk.WithVolWindow(opts.VolWindow))
		pr, err := RunPair(inputs[s.Name()], policy, sizer, costs)
		if err != nil {
			return nil, err
		}
		pr.RankingScore = s.Score
		for _, st := range pr.States {
			if err := res.Ledger.Append(st); err != nil {
				return nil, fmt.Errorf("record %s: %w", pr.Name(), err)
			}
		}
		for t, d := range pr.Dates {
			if v := pr.PnL[t]; !math.IsNaN(v) {
				res.PnL[index[d]] += v
			}
		}
		res.Pairs = append(res.Pairs, pr)
		r.log.Info().Str("pair", pr.Name()).Str("method", string(pr.Method)).
			Float64("half_life", pr.HalfLife).Int("z_window", pr.ZWindow).
			Int("trades", pr.Trades).Float64("sharpe", pr.Sharpe).Msg("pair complete")
	}

	if err := r.aggregate(res); err != nil {
		return nil, err
	}
	if !math.IsNaN(res.Sharpe) {
		metrics.PortfolioSharpe.Set(res.Sharpe)
	}
	r.log.Info().Float64("sharpe", res.Sharpe).Float64("total_return", res.TotalReturn).
		Float64("years", res.Years).Float64("max_drawdown", res.MaxDrawdown).Msg("backtest complete")
	return res, nil
}

func (r *runner) pairInput(table *market.Table, estimator *hedge.Estimator, c coint.Candidate) (PairInput, error) {
	dates, pa, pb := table.Pair(c.A, c.B)
	in := PairInput{A: c.A, B: c.B, Dates: dates, PriceA: pa, PriceB: pb}
	hr, err := estimator.Estimate(in.Name(), stats.Log(pa), stats.Log(pb))
	if err != nil {
		return PairInput{}, err
	}
	in.Hedge = hr
	return in, nil
}

func (r *runner) aggregate(res *Result) error {
	account, err := paper.NewAccount(r.opts.Capital)
	if err != nil {
		return err
	}
	for t, d := range res.Dates {
		if _, err := account.Apply(d, res.PnL[t]); err != nil {
			return err
		}
	}
	res.Equity = account.Curve()
	res.Sharpe = AnnualSharpe(res.PnL)
	res.TotalReturn = account.TotalReturn()
	res.Years = account.Years()
	res.MaxDrawdown = account.MaxDrawdown()
	return nil
}

