// Package risk sizes each pair's gross notional from a volatility budget.
package risk

import (
	"math"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
)

const (
	// TradingDays annualizes daily quantities.
	TradingDays = 252
	// VolFloor keeps the daily volatility away from zero.
	VolFloor = 1e-6
)

// Limits caps the notional a single position may carry.
type Limits struct {
	MaxNotionalPerTrade float64
}

// Allow reports whether a position of the given absolute notional fits the cap.
func (l Limits) Allow(notional float64) bool {
	return math.Abs(notional) <= l.MaxNotionalPerTrade
}

// Budget splits the portfolio volatility target evenly across n independent pairs.
func Budget(targetVol float64, n int) float64 {
	if n <= 0 {
		return math.NaN()
	}
	return targetVol / math.Sqrt(float64(n))
}

// DailyVol is the trailing mean absolute daily change of the spread, floored at VolFloor.
// Undefined while the window warms up.
func DailyVol(spread []float64, window int) []float64 {
	vol := stats.RollingMean(stats.Abs(stats.Diff(spread)), window)
	for i, v := range vol {
		if !math.IsNaN(v) && v < VolFloor {
			vol[i] = VolFloor
		}
	}
	return vol
}

// Sizer turns spread volatility into a capped notional per date.
type Sizer struct {
	capital   float64
	budget    float64
	maxWeight float64
	window    int
}

// SizerOption customizes a Sizer.
type SizerOption func(*Sizer)

// WithMaxWeight caps notional at weight*capital.
func WithMaxWeight(weight float64) SizerOption {
	return func(s *Sizer) {
		if weight > 0 {
			s.maxWeight = weight
		}
	}
}

// WithVolWindow sets the daily volatility lookback.
func WithVolWindow(days int) SizerOption {
	return func(s *Sizer) {
		if days > 0 {
			s.window = days
		}
	}
}

// NewSizer builds a sizer for one of nPairs pairs sharing targetVol. Defaults are a
// 21 day volatility window and a 20% of capital cap.
func NewSizer(capital, targetVol float64, nPairs int, opts ...SizerOption) *Sizer {
	s := &Sizer{capital: capital, budget: Budget(targetVol, nPairs), maxWeight: 0.20, window: 21}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limits exposes the per-position ceiling implied by the cap.
func (s *Sizer) Limits() Limits {
	return Limits{MaxNotionalPerTrade: s.capital * s.maxWeight}
}

// Notional returns min(capital*budget/(dailyVol*sqrt(252)), maxWeight*capital) per date.
func (s *Sizer) Notional(spread []float64) []float64 {
	vol := DailyVol(spread, s.window)
	ceiling := s.capital * s.maxWeight
	out := stats.NaNs(len(spread))
	for i, v := range vol {
		if math.IsNaN(v) {
			continue
		}
		w := s.budget / (v * math.Sqrt(TradingDays))
		out[i] = math.Min(s.capital*w, ceiling)
	}
	return out
}
