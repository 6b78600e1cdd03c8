// Package backtest ranks cointegrated pairs, runs each selected pair through the
// hedge, signal, sizing and cost pipeline, and compounds the combined P&L.
package backtest

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/coint"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/hedge"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/strategy"
)

// Options configures one backtest run. It is a value: Run works on its own copy and
// nothing in the pipeline mutates it.
type Options struct {
	Universe   []string
	Start      time.Time
	End        time.Time
	Capital    float64
	TargetVol  float64
	MaxPairs   int
	HalfSpread float64
	SlipCoef   float64

	// MaxWeight caps a pair's notional as a fraction of capital.
	MaxWeight float64
	VolWindow int

	Screener coint.ScreenerConfig
	Hedge    hedge.Config
	Strategy strategy.Params
	// Policy trades the selected pairs; RankPolicy scores candidates for selection.
	Policy     string
	RankPolicy string
}

// DefaultOptions mirrors the reference research setup: a 16 ETF universe traded from
// 2013-01-01 to 2025-05-01 on 1,000,000 of capital.
func DefaultOptions() Options {
	return Options{
		Universe: []string{
			"XLK", "XLY", "XLV", "XLE", "XLF", "XLB", "XLU", "XLP",
			"XLRE", "IYR", "SPY", "QQQ", "DIA", "IWM", "EEM", "HYG",
		},
		Start:      time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC),
		End:        time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC),
		Capital:    1_000_000,
		TargetVol:  0.08,
		MaxPairs:   6,
		HalfSpread: 0.00005,
		SlipCoef:   0.1,
		MaxWeight:  0.20,
		VolWindow:  21,
		Screener:   coint.DefaultScreenerConfig(),
		Hedge:      hedge.DefaultConfig(),
		Strategy:   strategy.DefaultParams(),
		Policy:     strategy.ModeAdaptiveBand,
		RankPolicy: strategy.ModeSignReversion,
	}
}

// Validate checks the fields a run cannot proceed without.
func (o Options) Validate() error {
	var errs []error
	if len(o.Universe) < 2 {
		errs = append(errs, errors.New("universe needs at least two instruments"))
	}
	if !o.End.IsZero() && !o.Start.Before(o.End) {
		errs = append(errs, fmt.Errorf("start %s must be before end %s", o.Start.Format(time.DateOnly), o.End.Format(time.DateOnly)))
	}
	if !(o.Capital > 0) {
		errs = append(errs, errors.New("capital must be positive"))
	}
	if !(o.TargetVol > 0) {
		errs = append(errs, errors.New("target vol must be positive"))
	}
	if o.MaxPairs < 1 {
		errs = append(errs, errors.New("max pairs must be at least 1"))
	}
	if o.HalfSpread < 0 || o.SlipCoef < 0 {
		errs = append(errs, errors.New("cost parameters must be non-negative"))
	}
	return errors.Join(errs...)
}

func (o Options) clone() Options {
	o.Universe = slices.Clone(o.Universe)
	if o.MaxWeight <= 0 {
		o.MaxWeight = 0.20
	}
	if o.VolWindow <= 0 {
		o.VolWindow = 21
	}
	return o
}
