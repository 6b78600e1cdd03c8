// Package strategy turns a pair spread into a daily position series.
package strategy

import (
	"strings"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
)

// Policy maps a spread series to positions.
type Policy interface {
	Signals(spread []float64) Output
	Name() string
}

// Output is everything a policy derived from one spread.
type Output struct {
	Positions []signal.Position
	Z         []float64
	Entry     []float64
	Exit      []float64
	HalfLife  float64
	ZWindow   int
}

// Params expresses tunable knobs required by policy constructors.
type Params struct {
	HalfLifeMult    float64
	MinZWindow      int
	MaxZWindow      int
	BandWindow      int
	EntryQuantile   float64
	ExitQuantile    float64
	ReversionWindow int
}

// DefaultParams returns a 3x half-life z window in [60, 240], 252 day bands at the
// 95th/50th percentile of |z| and a 120 day window for sign reversion.
func DefaultParams() Params {
	return Params{
		HalfLifeMult:    3,
		MinZWindow:      60,
		MaxZWindow:      240,
		BandWindow:      252,
		EntryQuantile:   0.95,
		ExitQuantile:    0.5,
		ReversionWindow: 120,
	}
}

func (p Params) withDefaults() Params {
	def := DefaultParams()
	if p.HalfLifeMult <= 0 {
		p.HalfLifeMult = def.HalfLifeMult
	}
	if p.MinZWindow <= 1 {
		p.MinZWindow = def.MinZWindow
	}
	if p.MaxZWindow < p.MinZWindow {
		p.MaxZWindow = max(def.MaxZWindow, p.MinZWindow)
	}
	if p.BandWindow <= 0 {
		p.BandWindow = def.BandWindow
	}
	if p.EntryQuantile <= 0 || p.EntryQuantile > 1 {
		p.EntryQuantile = def.EntryQuantile
	}
	if p.ExitQuantile <= 0 || p.ExitQuantile > 1 {
		p.ExitQuantile = def.ExitQuantile
	}
	if p.ReversionWindow <= 1 {
		p.ReversionWindow = def.ReversionWindow
	}
	return p
}

// Policy modes accepted by Build.
const (
	ModeAdaptiveBand  = "adaptive_band"
	ModeSignReversion = "sign_reversion"
)

// Build returns a policy implementation matching the configured mode.
func Build(mode string, params Params) Policy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeAdaptiveBand, "adaptive", "band":
		return NewAdaptiveBand(params)
	case ModeSignReversion, "sign", "reversion":
		return NewSignReversion(params)
	default:
		return NewAdaptiveBand(params)
	}
}
