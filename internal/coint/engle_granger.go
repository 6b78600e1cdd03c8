package coint

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// collinearR2 is the R² above which the two series are treated as perfectly collinear.
var collinearR2 = 1 - 100*math.Sqrt(2.220446049250313e-16)

// EGResult is one direction of the Engle-Granger two-step test.
type EGResult struct {
	Stat   float64
	PValue float64
	Beta   float64
	Lag    int
}

// EngleGranger regresses y on a constant and x, then runs ADF on the residuals.
// maxLag < 0 uses the automatic bound.
func EngleGranger(y, x []float64, maxLag int) (EGResult, error) {
	if len(y) != len(x) {
		return EGResult{}, errors.New("series length mismatch")
	}
	n := len(y)
	if n < 10 {
		return EGResult{}, errors.New("series too short for cointegration test")
	}
	X := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		X.Set(i, 0, x[i])
		X.Set(i, 1, 1)
	}
	fit, err := olsFit(y, X)
	if err != nil {
		return EGResult{}, err
	}
	resid := make([]float64, n)
	var mean, tss float64
	for i := range y {
		mean += y[i]
	}
	mean /= float64(n)
	for i := range y {
		resid[i] = y[i] - fit.coef[0]*x[i] - fit.coef[1]
		tss += (y[i] - mean) * (y[i] - mean)
	}
	if tss > 0 && 1-fit.ssr/tss >= collinearR2 {
		return EGResult{Stat: math.Inf(-1), PValue: 0, Beta: fit.coef[0]}, nil
	}

	adf, err := ADF(resid, maxLag)
	if err != nil {
		return EGResult{}, err
	}
	return EGResult{Stat: adf.Stat, PValue: MacKinnonP(adf.Stat), Beta: fit.coef[0], Lag: adf.UsedLag}, nil
}

// Test is the symmetric cointegration p-value of a and b: the larger of the two
// regression directions, so Test(a, b) == Test(b, a).
func Test(a, b []float64) (float64, error) {
	ab, err := EngleGranger(a, b, -1)
	if err != nil {
		return math.NaN(), err
	}
	ba, err := EngleGranger(b, a, -1)
	if err != nil {
		return math.NaN(), err
	}
	return math.Max(ab.PValue, ba.PValue), nil
}
