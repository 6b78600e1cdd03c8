package strategy

import (
	"fmt"
	"math"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
)

// Spread returns y - beta*x element-wise. All three series must be aligned.
func Spread(y, x, beta []float64) ([]float64, error) {
	if len(y) != len(x) || len(y) != len(beta) {
		return nil, fmt.Errorf("spread: misaligned series y=%d x=%d beta=%d", len(y), len(x), len(beta))
	}
	out := make([]float64, len(y))
	for i := range y {
		out[i] = y[i] - beta[i]*x[i]
	}
	return out, nil
}

// HalfLife estimates the mean-reversion half-life of the spread from the regression
// Δs(t) = a + b*s(t-1). A non-negative or undefined slope means no reversion (+Inf).
func HalfLife(spread []float64) float64 {
	_, slope := stats.OLS(stats.Shift(spread, 1), stats.Diff(spread))
	if math.IsNaN(slope) || slope >= 0 {
		return math.Inf(1)
	}
	return -math.Ln2 / slope
}

// ZWindow converts a half-life into a z-score lookback of mult*hl days clamped to [lo, hi].
func ZWindow(hl, mult float64, lo, hi int) int {
	if math.IsNaN(hl) {
		return hi
	}
	return int(stats.Clamp(hl*mult, float64(lo), float64(hi)))
}

// ZScore standardizes the spread against its trailing w-day mean and sample deviation.
func ZScore(spread []float64, w int) []float64 {
	mean := stats.RollingMean(spread, w)
	sd := stats.RollingStd(spread, w)
	z := stats.NaNs(len(spread))
	for i := range spread {
		if sd[i] > 0 {
			z[i] = (spread[i] - mean[i]) / sd[i]
		}
	}
	return z
}

// Bands returns the entry and exit thresholds: trailing quantiles of |z| over window days,
// lagged one day so a threshold never includes the value it is compared against.
func Bands(z []float64, window int, entryQ, exitQ float64) (entry, exit []float64) {
	abs := stats.Abs(z)
	entry = stats.Shift(stats.RollingQuantile(abs, window, entryQ), 1)
	exit = stats.Shift(stats.RollingQuantile(abs, window, exitQ), 1)
	return entry, exit
}
