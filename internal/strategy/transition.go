package strategy

import (
	"math"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/signal"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
)

// Transition is the per-date position rule. The flat rule wins over entries, and a
// date with an undefined z-score or band keeps the previous position.
func Transition(prev signal.Position, z, entry, exit float64) signal.Position {
	if !stats.IsDefined(z) || !stats.IsDefined(entry) || !stats.IsDefined(exit) {
		return prev
	}
	switch {
	case math.Abs(z) < exit:
		return signal.Flat
	case z < -entry:
		return signal.Long
	case z > entry:
		return signal.Short
	default:
		return prev
	}
}

// Fold applies Transition over aligned series starting from a flat book.
func Fold(z, entry, exit []float64) []signal.Position {
	out := make([]signal.Position, len(z))
	prev := signal.Flat
	for i := range z {
		prev = Transition(prev, z[i], at(entry, i), at(exit, i))
		out[i] = prev
	}
	return out
}

func at(xs []float64, i int) float64 {
	if i < len(xs) {
		return xs[i]
	}
	return math.NaN()
}
