package coint

import (
	"context"
	"math"

	"github.com/rs/zerolog"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/market"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/metrics"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
)

// Candidate is a pair that passed every screen. Immutable once produced.
type Candidate struct {
	A, B   string
	PValue float64
}

// Name renders the pair as "A/B".
func (c Candidate) Name() string { return c.A + "/" + c.B }

// Reason explains why a pair was dropped.
type Reason string

const (
	InsufficientOverlap Reason = "insufficient_overlap"
	ZeroVariance        Reason = "zero_variance"
	LowCorrelation      Reason = "low_correlation"
	NotCointegrated     Reason = "not_cointegrated"
	TestFailed          Reason = "test_failed"
)

// Outcome records the screening result for one pair.
type Outcome struct {
	A, B        string
	Included    bool
	Reason      Reason
	Overlap     int
	Correlation float64
	PValue      float64
}

// ScreenerConfig holds the screening thresholds.
type ScreenerConfig struct {
	MinOverlap     int
	MinCorrelation float64
	MaxPValue      float64
}

// DefaultScreenerConfig returns 252 overlapping days, 0.8 return correlation and p < 0.05.
func DefaultScreenerConfig() ScreenerConfig {
	return ScreenerConfig{MinOverlap: 252, MinCorrelation: 0.8, MaxPValue: 0.05}
}

// Screener runs the pairwise screens over a price table.
type Screener struct {
	cfg ScreenerConfig
	log zerolog.Logger
}

// NewScreener uses the defaults for a zero config. Otherwise only non-positive overlap and
// p-value thresholds are replaced; any correlation floor, zero included, is kept as given.
func NewScreener(cfg ScreenerConfig, log zerolog.Logger) *Screener {
	def := DefaultScreenerConfig()
	if cfg == (ScreenerConfig{}) {
		cfg = def
	}
	if cfg.MinOverlap <= 0 {
		cfg.MinOverlap = def.MinOverlap
	}
	if cfg.MaxPValue <= 0 {
		cfg.MaxPValue = def.MaxPValue
	}
	return &Screener{cfg: cfg, log: log}
}

// Screen evaluates every unordered pair of table columns in column order and returns
// the candidates in discovery order together with one outcome per pair.
func (s *Screener) Screen(ctx context.Context, table *market.Table) ([]Candidate, []Outcome, error) {
	var candidates []Candidate
	var outcomes []Outcome
	syms := table.Symbols
	for i := 0; i < len(syms); i++ {
		for j := i + 1; j < len(syms); j++ {
			if err := ctx.Err(); err != nil {
				return nil, nil, err
			}
			_, pa, pb := table.Pair(syms[i], syms[j])
			out := s.Evaluate(syms[i], syms[j], pa, pb)
			outcomes = append(outcomes, out)
			if out.Included {
				metrics.PairsScreened.WithLabelValues("cointegrated").Inc()
				candidates = append(candidates, Candidate{A: out.A, B: out.B, PValue: out.PValue})
				s.log.Debug().Str("pair", out.A+"/"+out.B).Float64("p_value", out.PValue).Float64("corr", out.Correlation).Msg("pair passes filters")
				continue
			}
			metrics.PairsScreened.WithLabelValues(string(out.Reason)).Inc()
			s.log.Debug().Str("pair", out.A+"/"+out.B).Str("reason", string(out.Reason)).Msg("pair excluded")
		}
	}
	s.log.Info().Int("pairs", len(outcomes)).Int("candidates", len(candidates)).Msg("cointegration scan complete")
	return candidates, outcomes, nil
}

// Evaluate runs the screens on two aligned price series.
func (s *Screener) Evaluate(a, b string, pa, pb []float64) Outcome {
	out := Outcome{A: a, B: b, Overlap: len(pa), Correlation: math.NaN(), PValue: math.NaN()}
	if len(pa) != len(pb) || len(pa) < s.cfg.MinOverlap {
		out.Reason = InsufficientOverlap
		return out
	}
	la, lb := stats.Log(pa), stats.Log(pb)
	if _, sd := stats.MeanStd(la); !(sd > 0) {
		out.Reason = ZeroVariance
		return out
	}
	if _, sd := stats.MeanStd(lb); !(sd > 0) {
		out.Reason = ZeroVariance
		return out
	}
	out.Correlation = stats.Correlation(stats.PctChange(pa), stats.PctChange(pb))
	if math.IsNaN(out.Correlation) || out.Correlation < s.cfg.MinCorrelation {
		out.Reason = LowCorrelation
		return out
	}
	p, err := Test(la, lb)
	if err != nil {
		out.Reason = TestFailed
		return out
	}
	out.PValue = p
	if math.IsNaN(p) || p >= s.cfg.MaxPValue {
		out.Reason = NotCointegrated
		return out
	}
	out.Included = true
	return out
}
