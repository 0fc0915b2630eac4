package linmodel

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// LeastSquaresOptions configures the least-squares family fitters.
type LeastSquaresOptions struct {
	// ComputeStats enables standard errors, t statistics and p values on
	// the fitted model (the generalized-least-squares family reports
	// these; the plain solver skips them).
	ComputeStats bool
}

// LeastSquaresModel is a fitted (ordinary, weighted or generalized)
// least-squares model. When stats are computed, it carries the classic
// inference quantities alongside the coefficients.
type LeastSquaresModel struct {
	coefModel

	// StdErr are the coefficient standard errors, nil unless computed.
	StdErr []float64
	// TValues are the coefficient t statistics, nil unless computed.
	TValues []float64
	// PValues are the two-sided p values, nil unless computed.
	PValues []float64
	// ResidualStd is the residual standard error estimate.
	ResidualStd float64
	// DFModel is the reported model degrees of freedom (column count
	// minus one when an intercept column is present). This is the
	// package-reported figure, intentionally kept separate from the
	// trace-based effective parameter count computed by callers.
	DFModel float64
	// DFResid is the residual degrees of freedom.
	DFResid float64
}

// FitOLS fits ordinary least squares on the design matrix as given.
// A QR solve is attempted first with a minimum-norm SVD fallback for rank
// deficient systems, so perfectly collinear columns do not fail the fit.
func FitOLS(x *mat.Dense, y []float64, opts *LeastSquaresOptions) (*LeastSquaresModel, error) {
	return FitWLS(x, y, nil, opts)
}

// FitWLS fits weighted least squares. A nil weight vector means equal
// weights. Rows with zero weight contribute nothing to the fit.
func FitWLS(x *mat.Dense, y, w []float64, opts *LeastSquaresOptions) (*LeastSquaresModel, error) {
	n, p, err := checkDims(x, y, w)
	if err != nil {
		return nil, err
	}

	xw, yw := applyRowWeights(x, y, w)
	coef, err := lstsq(xw, yw)
	if err != nil {
		return nil, err
	}

	m := &LeastSquaresModel{coefModel: coefModel{coef: coef}}
	if opts != nil && opts.ComputeStats {
		m.computeStats(x, y, w, n, p)
	}

	return m, nil
}

// FitGLS fits generalized least squares. With a nil error covariance the
// fit reduces to ordinary least squares; with a diagonal covariance it is
// equivalent to weighted least squares with inverse-variance weights.
func FitGLS(x *mat.Dense, y []float64, sigma []float64, opts *LeastSquaresOptions) (*LeastSquaresModel, error) {
	if sigma == nil {
		return FitWLS(x, y, nil, opts)
	}

	w := make([]float64, len(sigma))
	for i, s := range sigma {
		if s <= 0 {
			return nil, ErrDimensionMismatch
		}
		w[i] = 1 / s
	}

	return FitWLS(x, y, w, opts)
}

func (m *LeastSquaresModel) computeStats(x *mat.Dense, y, w []float64, n, p int) {
	fitted := m.Predict(x)
	var rss, wsum float64
	for i := 0; i < n; i++ {
		wi := 1.0
		if w != nil {
			wi = w[i]
		}
		r := y[i] - fitted[i]
		rss += wi * r * r
		wsum += wi
	}

	hasIntercept := constantCol(x) >= 0
	m.DFModel = float64(p)
	if hasIntercept {
		m.DFModel = float64(p - 1)
	}
	m.DFResid = float64(n - p)
	if m.DFResid <= 0 {
		m.ResidualStd = math.NaN()
		return
	}
	sigma2 := rss / m.DFResid
	m.ResidualStd = math.Sqrt(sigma2)

	// (X'WX)^-1 diagonal for standard errors; skipped if singular.
	xw, _ := applyRowWeights(x, y, w)
	var xtx mat.Dense
	xtx.Mul(xw.T(), xw)
	var inv mat.Dense
	if err := inv.Inverse(&xtx); err != nil {
		return
	}

	m.StdErr = make([]float64, p)
	m.TValues = make([]float64, p)
	m.PValues = make([]float64, p)
	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: m.DFResid}
	for j := 0; j < p; j++ {
		m.StdErr[j] = math.Sqrt(sigma2 * inv.At(j, j))
		if m.StdErr[j] == 0 {
			m.TValues[j] = math.Inf(1)
			m.PValues[j] = 0
			continue
		}
		m.TValues[j] = m.coef[j] / m.StdErr[j]
		m.PValues[j] = 2 * (1 - tdist.CDF(math.Abs(m.TValues[j])))
	}
}

// constantCol returns the index of the first column that is constant one,
// or -1 when there is none.
func constantCol(x *mat.Dense) int {
	n, p := x.Dims()
	for j := 0; j < p; j++ {
		all := true
		for i := 0; i < n; i++ {
			if x.At(i, j) != 1 {
				all = false
				break
			}
		}
		if all {
			return j
		}
	}

	return -1
}
