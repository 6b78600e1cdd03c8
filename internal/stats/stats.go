// Package stats provides the series arithmetic used by the backtest.
//
// Series are plain float64 slices indexed by trading date. NaN marks an undefined value
// (missing close, rolling warm-up) and propagates through every transform the way a
// dataframe would: a window containing NaN yields NaN, aggregate statistics skip NaN.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// IsDefined reports whether v is a finite number.
func IsDefined(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// NaNs returns a slice of n undefined values.
func NaNs(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

// Log returns the natural log of each element; non-positive inputs become NaN.
func Log(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		if v > 0 {
			out[i] = math.Log(v)
		} else {
			out[i] = math.NaN()
		}
	}
	return out
}

// Diff returns x[t] - x[t-1]; the first element is NaN.
func Diff(xs []float64) []float64 {
	out := NaNs(len(xs))
	for i := 1; i < len(xs); i++ {
		out[i] = xs[i] - xs[i-1]
	}
	return out
}

// PctChange returns x[t]/x[t-1] - 1; the first element is NaN.
func PctChange(xs []float64) []float64 {
	out := NaNs(len(xs))
	for i := 1; i < len(xs); i++ {
		if xs[i-1] != 0 {
			out[i] = xs[i]/xs[i-1] - 1
		}
	}
	return out
}

// Shift lags the series by k >= 0 positions, filling the head with NaN.
func Shift(xs []float64, k int) []float64 {
	out := NaNs(len(xs))
	if k < 0 {
		return out
	}
	for i := k; i < len(xs); i++ {
		out[i] = xs[i-k]
	}
	return out
}

// FFill carries the last defined value forward over NaN gaps.
func FFill(xs []float64) []float64 {
	out := make([]float64, len(xs))
	last := math.NaN()
	for i, v := range xs {
		if !math.IsNaN(v) {
			last = v
		}
		out[i] = last
	}
	return out
}

// FillNaN replaces undefined values with v.
func FillNaN(xs []float64, v float64) []float64 {
	out := make([]float64, len(xs))
	for i, x := range xs {
		if math.IsNaN(x) {
			out[i] = v
		} else {
			out[i] = x
		}
	}
	return out
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Defined returns the defined values of xs.
func Defined(xs []float64) []float64 {
	out := make([]float64, 0, len(xs))
	for _, v := range xs {
		if IsDefined(v) {
			out = append(out, v)
		}
	}
	return out
}

// MeanStd returns the mean and sample standard deviation of the defined values.
// Fewer than two defined values yields NaN for the deviation.
func MeanStd(xs []float64) (float64, float64) {
	vals := Defined(xs)
	switch len(vals) {
	case 0:
		return math.NaN(), math.NaN()
	case 1:
		return vals[0], math.NaN()
	}
	return stat.MeanStdDev(vals, nil)
}

// pairwise keeps the indices where both series are defined.
func pairwise(x, y []float64) ([]float64, []float64) {
	n := min(len(x), len(y))
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if IsDefined(x[i]) && IsDefined(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

// Correlation is the Pearson correlation over pairwise-complete observations.
func Correlation(x, y []float64) float64 {
	xs, ys := pairwise(x, y)
	if len(xs) < 2 {
		return math.NaN()
	}
	if _, sx := stat.MeanStdDev(xs, nil); sx == 0 {
		return math.NaN()
	}
	if _, sy := stat.MeanStdDev(ys, nil); sy == 0 {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

// OLS fits y = alpha + beta*x over pairwise-complete observations.
func OLS(x, y []float64) (alpha, beta float64) {
	xs, ys := pairwise(x, y)
	if len(xs) < 2 {
		return math.NaN(), math.NaN()
	}
	if _, sx := stat.MeanStdDev(xs, nil); sx == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.LinearRegression(xs, ys, nil, false)
}

// Quantile returns the q-th quantile of sorted values using linear interpolation
// between the closest ranks (h = (n-1)q).
func Quantile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * Clamp(q, 0, 1)
	lo := int(math.Floor(h))
	hi := int(math.Ceil(h))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[hi]-sorted[lo])
}

// window returns xs[i-w+1:i+1] when it is fully defined.
func window(xs []float64, i, w int) ([]float64, bool) {
	if w <= 0 || i+1 < w {
		return nil, false
	}
	win := xs[i-w+1 : i+1]
	for _, v := range win {
		if !IsDefined(v) {
			return nil, false
		}
	}
	return win, true
}

// RollingMean is the trailing w-observation mean; NaN until w defined values are available.
func RollingMean(xs []float64, w int) []float64 {
	out := NaNs(len(xs))
	for i := range xs {
		if win, ok := window(xs, i, w); ok {
			out[i] = stat.Mean(win, nil)
		}
	}
	return out
}

// RollingStd is the trailing w-observation sample standard deviation.
func RollingStd(xs []float64, w int) []float64 {
	out := NaNs(len(xs))
	if w < 2 {
		return out
	}
	for i := range xs {
		if win, ok := window(xs, i, w); ok {
			out[i] = stat.StdDev(win, nil)
		}
	}
	return out
}

// RollingQuantile is the trailing w-observation q-th quantile.
func RollingQuantile(xs []float64, w int, q float64) []float64 {
	out := NaNs(len(xs))
	buf := make([]float64, w)
	for i := range xs {
		win, ok := window(xs, i, w)
		if !ok {
			continue
		}
		copy(buf, win)
		sort.Float64s(buf)
		out[i] = Quantile(buf, q)
	}
	return out
}

// RollingCorr is the trailing w-observation Pearson correlation of x and y.
// Windows where either side has zero variance are NaN.
func RollingCorr(x, y []float64, w int) []float64 {
	n := min(len(x), len(y))
	out := NaNs(n)
	for i := 0; i < n; i++ {
		wx, okx := window(x, i, w)
		wy, oky := window(y, i, w)
		if !okx || !oky {
			continue
		}
		if stat.StdDev(wx, nil) == 0 || stat.StdDev(wy, nil) == 0 {
			continue
		}
		out[i] = stat.Correlation(wx, wy, nil)
	}
	return out
}

// Abs returns |x| element-wise.
func Abs(xs []float64) []float64 {
	out := make([]float64, len(xs))
	for i, v := range xs {
		out[i] = math.Abs(v)
	}
	return out
}
