// Package hedge estimates the time-varying hedge ratio between the two legs of a pair.
package hedge

import (
	"errors"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/rishabh0022/Statistical-Arbitrage/internal/metrics"
	"github.com/rishabh0022/Statistical-Arbitrage/internal/stats"
)

// Method names the estimator that produced a beta series.
type Method string

const (
	// Kalman is the recursive filter estimate.
	Kalman Method = "kalman"
	// Rolling is the windowed regression fallback.
	Rolling Method = "rolling"
)

// Result is a beta series aligned index-for-index with the input prices.
type Result struct {
	Beta   []float64
	Method Method
}

// Config carries the estimator tunables.
type Config struct {
	// R sets the state transition variance R/(1-R).
	R float64
	// Q is the observation noise variance.
	Q             float64
	RollingWindow int
}

// DefaultConfig returns R=1e-5, Q=1e-4 and a 60 day fallback window.
func DefaultConfig() Config {
	return Config{R: 1e-5, Q: 1e-4, RollingWindow: 60}
}

// ErrFilterDiverged reports a numerical failure inside the Kalman recursion.
var ErrFilterDiverged = errors.New("kalman filter diverged")

// KalmanBeta runs a one-dimensional Kalman filter with beta as a random-walk state and
// y(t) = beta(t)*x(t) + noise as the observation. The returned series holds the
// filtered mean at every step, so beta(t) only uses data up to t.
func KalmanBeta(y, x []float64, r, q float64) ([]float64, error) {
	if len(y) != len(x) {
		return nil, fmt.Errorf("kalman: length mismatch %d vs %d", len(y), len(x))
	}
	if !(r >= 0 && r < 1) || !(q > 0) {
		return nil, fmt.Errorf("kalman: invalid noise parameters r=%g q=%g", r, q)
	}
	delta := r / (1 - r)
	out := make([]float64, len(y))
	mean, variance := 0.0, 1.0
	for t := range y {
		if !stats.IsDefined(y[t]) || !stats.IsDefined(x[t]) {
			return nil, fmt.Errorf("%w: undefined observation at %d", ErrFilterDiverged, t)
		}
		if t > 0 {
			variance += delta
		}
		s := x[t]*x[t]*variance + q
		if !(s > 0) || !stats.IsDefined(s) {
			return nil, fmt.Errorf("%w: innovation variance %g at %d", ErrFilterDiverged, s, t)
		}
		gain := variance * x[t] / s
		mean += gain * (y[t] - x[t]*mean)
		variance -= gain * x[t] * variance
		if !stats.IsDefined(mean) || !stats.IsDefined(variance) {
			return nil, fmt.Errorf("%w: state not finite at %d", ErrFilterDiverged, t)
		}
		out[t] = mean
	}
	return out, nil
}

// RollingBeta is corr(y, x) * std(y) / std(x) over a trailing window, forward filled.
// Positions from window-1 onward that are still undefined are set to 0.
func RollingBeta(y, x []float64, window int) []float64 {
	n := min(len(y), len(x))
	y, x = y[:n], x[:n]
	corr := stats.RollingCorr(y, x, window)
	sy := stats.RollingStd(y, window)
	sx := stats.RollingStd(x, window)
	beta := stats.NaNs(n)
	for i := range beta {
		if sx[i] > 0 {
			beta[i] = corr[i] * sy[i] / sx[i]
		}
	}
	beta = stats.FFill(beta)
	for i := max(window-1, 0); i < n; i++ {
		if math.IsNaN(beta[i]) {
			beta[i] = 0
		}
	}
	return beta
}

// Estimator tries the filter first and falls back to the rolling regression.
type Estimator struct {
	cfg Config
	log zerolog.Logger
}

// NewEstimator fills unset tunables with the defaults.
func NewEstimator(cfg Config, log zerolog.Logger) *Estimator {
	def := DefaultConfig()
	if cfg.R <= 0 {
		cfg.R = def.R
	}
	if cfg.Q <= 0 {
		cfg.Q = def.Q
	}
	if cfg.RollingWindow <= 1 {
		cfg.RollingWindow = def.RollingWindow
	}
	return &Estimator{cfg: cfg, log: log}
}

// Estimate returns the hedge ratio of y on x. The rolling fallback is the only recovery
// path; a length mismatch is returned as an error.
func (e *Estimator) Estimate(pair string, y, x []float64) (Result, error) {
	if len(y) != len(x) {
		return Result{}, fmt.Errorf("hedge %s: length mismatch %d vs %d", pair, len(y), len(x))
	}
	beta, err := KalmanBeta(y, x, e.cfg.R, e.cfg.Q)
	if err == nil {
		return Result{Beta: beta, Method: Kalman}, nil
	}
	metrics.HedgeFallbacks.Inc()
	e.log.Warn().Err(err).Str("pair", pair).Int("window", e.cfg.RollingWindow).Msg("kalman failed, using rolling beta")
	return Result{Beta: RollingBeta(y, x, e.cfg.RollingWindow), Method: Rolling}, nil
}
