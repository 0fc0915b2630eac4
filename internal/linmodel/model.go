// Package linmodel implements the linear-family fitting strategies used by
// the regression dispatcher: least squares (ordinary, weighted,
// generalized), generalized linear models, ridge, coordinate-descent lasso
// and elastic net, least-angle regression, stochastic gradient descent, and
// quantile regression.
//
// All fitters consume a fully materialized design matrix; they never see
// formulas or tables. Coefficients are reported per design column, with any
// internally estimated intercept kept separate so that callers can
// reconstruct predictions as X*coef + intercept.
package linmodel

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoData is returned when the design matrix has no rows or columns.
	ErrNoData = errors.New("empty design matrix")
	// ErrDimensionMismatch is returned when x, y or weights disagree in length.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrSingular is returned when a solve fails and no fallback applies.
	ErrSingular = errors.New("singular system")
)

// Model is a fitted linear-family model.
type Model interface {
	// Predict returns point predictions for the rows of x.
	Predict(x *mat.Dense) []float64
	// Coefficients returns one coefficient per design column.
	Coefficients() []float64
	// Intercept returns the internally estimated intercept, zero for
	// fitters that treat the intercept as an ordinary design column.
	Intercept() float64
}

// coefModel is the shared fitted-model representation: a coefficient
// vector plus an optional separate intercept.
type coefModel struct {
	coef      []float64
	intercept float64
}

func (m *coefModel) Coefficients() []float64 { return m.coef }
func (m *coefModel) Intercept() float64      { return m.intercept }

func (m *coefModel) Predict(x *mat.Dense) []float64 {
	n, p := x.Dims()
	out := make([]float64, n)
	if p != len(m.coef) {
		for i := range out {
			out[i] = math.NaN()
		}

		return out
	}
	for i := 0; i < n; i++ {
		v := m.intercept
		for j := 0; j < p; j++ {
			v += x.At(i, j) * m.coef[j]
		}
		out[i] = v
	}

	return out
}

func checkDims(x *mat.Dense, y, w []float64) (n, p int, err error) {
	n, p = x.Dims()
	if n == 0 || p == 0 {
		return 0, 0, ErrNoData
	}
	if len(y) != n {
		return 0, 0, ErrDimensionMismatch
	}
	if w != nil && len(w) != n {
		return 0, 0, ErrDimensionMismatch
	}

	return n, p, nil
}

// weightedMeans returns the weighted column means of x and the weighted
// mean of y. A nil weight vector means equal weights.
func weightedMeans(x *mat.Dense, y, w []float64) (xm []float64, ym float64) {
	n, p := x.Dims()
	xm = make([]float64, p)
	var wsum float64
	for i := 0; i < n; i++ {
		wi := 1.0
		if w != nil {
			wi = w[i]
		}
		wsum += wi
		ym += wi * y[i]
		for j := 0; j < p; j++ {
			xm[j] += wi * x.At(i, j)
		}
	}
	if wsum == 0 {
		return xm, 0
	}
	ym /= wsum
	for j := range xm {
		xm[j] /= wsum
	}

	return xm, ym
}

// center returns copies of x and y with the given means subtracted.
func center(x *mat.Dense, y, xm []float64, ym float64) (*mat.Dense, []float64) {
	n, p := x.Dims()
	xc := mat.NewDense(n, p, nil)
	yc := make([]float64, n)
	for i := 0; i < n; i++ {
		yc[i] = y[i] - ym
		for j := 0; j < p; j++ {
			xc.Set(i, j, x.At(i, j)-xm[j])
		}
	}

	return xc, yc
}

// applyRowWeights scales each row of x and entry of y by sqrt(w), turning
// a weighted least-squares problem into an ordinary one.
func applyRowWeights(x *mat.Dense, y, w []float64) (*mat.Dense, []float64) {
	if w == nil {
		return x, y
	}
	n, p := x.Dims()
	xw := mat.NewDense(n, p, nil)
	yw := make([]float64, n)
	for i := 0; i < n; i++ {
		s := math.Sqrt(w[i])
		yw[i] = s * y[i]
		for j := 0; j < p; j++ {
			xw.Set(i, j, s*x.At(i, j))
		}
	}

	return xw, yw
}

// lstsq solves min ||X b - y||_2 via QR, falling back to a minimum-norm
// SVD solution when the system is rank deficient.
func lstsq(x *mat.Dense, y []float64) ([]float64, error) {
	n, p := x.Dims()
	yv := mat.NewVecDense(n, y)

	var b mat.VecDense
	if err := b.SolveVec(x, yv); err == nil && !hasNaN(b.RawVector().Data) {
		return rawCopy(&b, p), nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(x, mat.SVDThin); !ok {
		return nil, ErrSingular
	}
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return make([]float64, p), nil
	}

	ym := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		ym.Set(i, 0, y[i])
	}
	var sol mat.Dense
	svd.SolveTo(&sol, ym, rank)

	out := make([]float64, p)
	for j := 0; j < p; j++ {
		out[j] = sol.At(j, 0)
	}

	return out, nil
}

func rawCopy(v *mat.VecDense, p int) []float64 {
	out := make([]float64, p)
	for j := 0; j < p; j++ {
		out[j] = v.AtVec(j)
	}

	return out
}

func hasNaN(vals []float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}

	return false
}
