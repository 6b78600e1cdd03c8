// Package coint screens instrument pairs for cointegration of their log prices.
package coint

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// ADFResult is an augmented Dickey-Fuller regression without deterministic terms.
type ADFResult struct {
	Stat    float64
	UsedLag int
	NObs    int
}

var errSingular = errors.New("singular regression")

// ADF runs the augmented Dickey-Fuller test on x with no constant or trend, choosing
// the lag order in [0, maxLag] by AIC over a common sample. maxLag < 0 selects
// ceil(12*(n/100)^(1/4)) bounded by n/2-1.
func ADF(x []float64, maxLag int) (ADFResult, error) {
	n := len(x)
	if n < 4 {
		return ADFResult{}, errors.New("series too short for ADF")
	}
	if maxLag < 0 {
		maxLag = int(math.Ceil(12 * math.Pow(float64(n)/100, 0.25)))
	}
	if bound := n/2 - 1; maxLag > bound {
		maxLag = bound
	}
	if maxLag < 0 {
		return ADFResult{}, errors.New("series too short for ADF")
	}

	dx := make([]float64, n-1)
	for i := 1; i < n; i++ {
		dx[i-1] = x[i] - x[i-1]
	}

	bestLag, bestAIC := 0, math.Inf(1)
	if maxLag > 0 {
		y, X := adfDesign(x, dx, maxLag, maxLag)
		for lag := 0; lag <= maxLag; lag++ {
			fit, err := olsFit(y, X.Slice(0, len(y), 0, lag+1).(*mat.Dense))
			if err != nil {
				continue
			}
			if fit.aic < bestAIC {
				bestAIC, bestLag = fit.aic, lag
			}
		}
	}

	y, X := adfDesign(x, dx, bestLag, bestLag)
	fit, err := olsFit(y, X)
	if err != nil {
		return ADFResult{}, err
	}
	return ADFResult{Stat: fit.tvalue0, UsedLag: bestLag, NObs: len(y)}, nil
}

// adfDesign builds Δx_t on [x_{t-1}, Δx_{t-1}, ..., Δx_{t-cols}] over the sample that
// leaves room for trim lagged differences.
func adfDesign(x, dx []float64, trim, cols int) ([]float64, *mat.Dense) {
	nobs := len(dx) - trim
	y := make([]float64, nobs)
	X := mat.NewDense(nobs, cols+1, nil)
	for r := 0; r < nobs; r++ {
		t := trim + r // index into dx
		y[r] = dx[t]
		X.Set(r, 0, x[t])
		for k := 1; k <= cols; k++ {
			X.Set(r, k, dx[t-k])
		}
	}
	return y, X
}

type olsResult struct {
	coef    []float64
	tvalue0 float64
	ssr     float64
	aic     float64
}

// olsFit solves least squares and reports the t-value of the first coefficient.
func olsFit(y []float64, X *mat.Dense) (olsResult, error) {
	nobs, k := X.Dims()
	if nobs <= k {
		return olsResult{}, errSingular
	}
	Y := mat.NewVecDense(nobs, y)
	var b mat.VecDense
	if err := b.SolveVec(X, Y); err != nil {
		return olsResult{}, errSingular
	}
	var fitted mat.VecDense
	fitted.MulVec(X, &b)
	var ssr float64
	for i := 0; i < nobs; i++ {
		r := y[i] - fitted.AtVec(i)
		ssr += r * r
	}
	var xtx, inv mat.Dense
	xtx.Mul(X.T(), X)
	if err := inv.Inverse(&xtx); err != nil {
		return olsResult{}, errSingular
	}
	sigma2 := ssr / float64(nobs-k)
	se0 := math.Sqrt(sigma2 * inv.At(0, 0))
	coef := make([]float64, k)
	for i := range coef {
		coef[i] = b.AtVec(i)
	}
	llf := -float64(nobs) / 2 * (math.Log(2*math.Pi) + math.Log(ssr/float64(nobs)) + 1)
	return olsResult{
		coef:    coef,
		tvalue0: coef[0] / se0,
		ssr:     ssr,
		aic:     -2*llf + 2*float64(k),
	}, nil
}

// MacKinnon approximate asymptotic p-value surface for the cointegration t-statistic,
// two variables, constant in the cointegrating regression.
var (
	tauMaxC2    = 0.92
	tauMinC2    = -18.86
	tauStarC2   = -2.62
	tauSmallpC2 = []float64{2.92, 1.5012, 0.039796}
	tauLargepC2 = []float64{2.1945, 0.64695, -0.29198, -0.042377}
)

// MacKinnonP converts an Engle-Granger t-statistic into a p-value.
func MacKinnonP(stat float64) float64 {
	switch {
	case math.IsNaN(stat):
		return math.NaN()
	case stat > tauMaxC2:
		return 1
	case stat < tauMinC2:
		return 0
	}
	coef := tauLargepC2
	if stat <= tauStarC2 {
		coef = tauSmallpC2
	}
	var poly, pow float64 = 0, 1
	for _, c := range coef {
		poly += c * pow
		pow *= stat
	}
	return distuv.UnitNormal.CDF(poly)
}
