package hedge

import (
	"bytes"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func logPrices(seed int64, n int, beta float64) ([]float64, []float64) {
	rng := rand.New(rand.NewSource(seed))
	x := make([]float64, n)
	y := make([]float64, n)
	lx := math.Log(50)
	for i := range x {
		lx += 0.01 * rng.NormFloat64()
		x[i] = lx
		y[i] = beta*lx + 0.005*rng.NormFloat64()
	}
	return y, x
}

func TestKalmanBetaTracksConstantRatio(t *testing.T) {
	y, x := logPrices(1, 400, 1.3)
	beta, err := KalmanBeta(y, x, 1e-5, 1e-4)
	require.NoError(t, err)
	require.Len(t, beta, len(y))
	for i := 100; i < len(beta); i++ {
		assert.InDelta(t, 1.3, beta[i], 0.05, "beta at %d", i)
	}
}

func TestKalmanBetaIsCausal(t *testing.T) {
	y, x := logPrices(2, 200, 0.8)
	full, err := KalmanBeta(y, x, 1e-5, 1e-4)
	require.NoError(t, err)
	head, err := KalmanBeta(y[:120], x[:120], 1e-5, 1e-4)
	require.NoError(t, err)
	assert.Equal(t, head, full[:120])
}

func TestKalmanBetaFirstStepUsesPrior(t *testing.T) {
	beta, err := KalmanBeta([]float64{2}, []float64{1}, 1e-5, 1e-4)
	require.NoError(t, err)
	// prior mean 0, variance 1: gain = 1/(1+Q)
	assert.InDelta(t, 2/(1+1e-4), beta[0], 1e-12)
}

func TestKalmanBetaRejectsUndefinedInput(t *testing.T) {
	_, err := KalmanBeta([]float64{1, math.NaN()}, []float64{1, 1}, 1e-5, 1e-4)
	require.ErrorIs(t, err, ErrFilterDiverged)

	_, err = KalmanBeta([]float64{1, math.Inf(1)}, []float64{1, 1}, 1e-5, 1e-4)
	require.ErrorIs(t, err, ErrFilterDiverged)
}

func TestRollingBetaFallbackDefinedAfterWarmup(t *testing.T) {
	y, x := logPrices(3, 150, 0.9)
	// a flat stretch in x gives zero-variance windows
	for i := 80; i < 150; i++ {
		x[i] = x[79]
	}
	beta := RollingBeta(y, x, 60)
	require.Len(t, beta, 150)
	for i := 0; i < 59; i++ {
		assert.True(t, math.IsNaN(beta[i]), "warm-up index %d should be undefined", i)
	}
	for i := 59; i < len(beta); i++ {
		assert.False(t, math.IsNaN(beta[i]), "index %d undefined after warm-up", i)
	}
	// windows fully inside the flat stretch carry the last estimate forward
	for i := 139; i < len(beta); i++ {
		assert.Equal(t, beta[138], beta[i])
	}
}

func TestRollingBetaAllFlatBecomesZero(t *testing.T) {
	n := 70
	y := make([]float64, n)
	x := make([]float64, n)
	for i := range x {
		x[i] = 3
		y[i] = float64(i)
	}
	beta := RollingBeta(y, x, 60)
	for i := 59; i < n; i++ {
		assert.Equal(t, 0.0, beta[i])
	}
}

func TestEstimateFallsBackAndLogs(t *testing.T) {
	var buf bytes.Buffer
	est := NewEstimator(Config{}, zerolog.New(&buf))

	y, x := logPrices(4, 120, 1.1)
	x[10] = math.NaN()
	res, err := est.Estimate("AAA/BBB", y, x)
	require.NoError(t, err)
	assert.Equal(t, Rolling, res.Method)
	assert.Len(t, res.Beta, 120)
	if !strings.Contains(buf.String(), "AAA/BBB") || !strings.Contains(buf.String(), "warn") {
		t.Fatalf("expected warn log for fallback, got %s", buf.String())
	}

	res, err = est.Estimate("AAA/BBB", y[20:], x[20:])
	require.NoError(t, err)
	assert.Equal(t, Kalman, res.Method)

	_, err = est.Estimate("AAA/BBB", y, x[:5])
	require.Error(t, err)
}
