package strategy

import (
	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
)

// SignReversion always leans against the spread: short when z > 0, long when z < 0.
// It has no bands or flat rule and is used to rank candidate pairs cheaply, so its
// positions differ from what AdaptiveBand would trade for the same pair.
type SignReversion struct {
	window int
}

// NewSignReversion builds the sign reversion policy over a fixed z-score window.
func NewSignReversion(params Params) *SignReversion {
	return &SignReversion{window: params.withDefaults().ReversionWindow}
}

// Name returns the configured identifier for logging.
func (s *SignReversion) Name() string { return ModeSignReversion }

// Signals returns -sign(z); dates with an undefined z are flat.
func (s *SignReversion) Signals(spread []float64) Output {
	z := ZScore(spread, s.window)
	pos := make([]signal.Position, len(z))
	for i, v := range z {
		switch {
		case !stats.IsDefined(v), v == 0:
			pos[i] = signal.Flat
		case v > 0:
			pos[i] = signal.Short
		default:
			pos[i] = signal.Long
		}
	}
	hl := HalfLife(spread)
	return Output{Positions: pos, Z: z, HalfLife: hl, ZWindow: s.window}
}
