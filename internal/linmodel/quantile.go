package linmodel

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// QuantileOptions configures the quantile regression fitter.
type QuantileOptions struct {
	// Quantile is the target quantile in (0, 1). 0.5 fits the conditional
	// median.
	Quantile float64
	// Alpha is the L2 penalty strength applied during the reweighted
	// solves. Zero disables it.
	Alpha float64
	// Iterations caps the number of reweighting rounds.
	Iterations int
	// Tolerance stops iteration when the largest coefficient update falls
	// below it.
	Tolerance float64
}

// ErrBadQuantile is returned when the target quantile is outside (0, 1).
var ErrBadQuantile = errors.New("quantile must be in (0, 1)")

// DefaultQuantileOptions returns the default quantile-regression
// configuration, targeting the median.
func DefaultQuantileOptions() *QuantileOptions {
	return &QuantileOptions{
		Quantile:   0.5,
		Alpha:      0,
		Iterations: 100,
		Tolerance:  1e-6,
	}
}

// Validate checks the options and fills a nil receiver with defaults.
func (o *QuantileOptions) Validate() (*QuantileOptions, error) {
	if o == nil {
		return DefaultQuantileOptions(), nil
	}
	if o.Quantile <= 0 || o.Quantile >= 1 {
		return nil, ErrBadQuantile
	}
	if o.Alpha < 0 {
		return nil, ErrNegativeAlpha
	}
	if o.Iterations <= 0 {
		return nil, ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}

	return o, nil
}

// QuantileModel is a linear model minimizing the pinball loss at a target
// quantile.
type QuantileModel struct {
	coefModel

	// Quantile is the fitted target quantile.
	Quantile float64
	// Converged reports whether the reweighting tolerance was reached.
	Converged bool
}

// FitQuantile fits a linear quantile regression by iteratively reweighted
// least squares. Each round solves a weighted least-squares problem whose
// weights approximate the pinball loss at the current residuals; small
// residuals are floored to keep the weights bounded. The design matrix is
// taken as-is, so an intercept column must be part of it if wanted.
func FitQuantile(x *mat.Dense, y []float64, opts *QuantileOptions) (*QuantileModel, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	n, p, err := checkDims(x, y, nil)
	if err != nil {
		return nil, err
	}

	tau := opts.Quantile
	const floor = 1e-6

	// Start from the least-squares solution.
	coef, err := lstsq(x, y)
	if err != nil {
		return nil, err
	}

	w := make([]float64, n)
	resid := make([]float64, n)
	converged := false
	for it := 0; it < opts.Iterations; it++ {
		for i := 0; i < n; i++ {
			var pred float64
			for j := 0; j < p; j++ {
				pred += coef[j] * x.At(i, j)
			}
			resid[i] = y[i] - pred

			// Pinball loss as a weighted squared loss: the weight is
			// the asymmetric slope over |residual|.
			a := math.Abs(resid[i])
			if a < floor {
				a = floor
			}
			if resid[i] >= 0 {
				w[i] = tau / a
			} else {
				w[i] = (1 - tau) / a
			}
		}

		next, serr := solveWeighted(x, y, w, opts.Alpha)
		if serr != nil {
			return nil, serr
		}

		maxDelta := 0.0
		for j := 0; j < p; j++ {
			if d := math.Abs(next[j] - coef[j]); d > maxDelta {
				maxDelta = d
			}
		}
		coef = next
		if maxDelta < opts.Tolerance {
			converged = true
			break
		}
	}

	return &QuantileModel{
		coefModel: coefModel{coef: coef, intercept: 0},
		Quantile:  tau,
		Converged: converged,
	}, nil
}

// solveWeighted solves the (optionally ridge-stabilized) weighted
// least-squares normal equations X'WX b = X'Wy.
func solveWeighted(x *mat.Dense, y, w []float64, alpha float64) ([]float64, error) {
	n, p := x.Dims()

	xtx := mat.NewDense(p, p, nil)
	xty := make([]float64, p)
	for i := 0; i < n; i++ {
		wi := w[i]
		for j := 0; j < p; j++ {
			xij := x.At(i, j)
			xty[j] += wi * xij * y[i]
			for k := j; k < p; k++ {
				v := xtx.At(j, k) + wi*xij*x.At(i, k)
				xtx.Set(j, k, v)
				if k != j {
					xtx.Set(k, j, v)
				}
			}
		}
	}
	if alpha > 0 {
		for j := 0; j < p; j++ {
			xtx.Set(j, j, xtx.At(j, j)+alpha)
		}
	}

	return solveSym(xtx, xty)
}
