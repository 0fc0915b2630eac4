package linmodel

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"
)

// LarsOptions configures the least-angle regression fitters.
type LarsOptions struct {
	// MaxTerms caps how many predictors enter the active set. Zero means
	// all of them.
	MaxTerms int
	// Lambda is the L1 penalty used by the lasso variant. The plain LARS
	// fitter ignores it.
	Lambda float64
	// FitIntercept centers the data and estimates a separate intercept.
	FitIntercept bool
}

// ErrNegativeMaxTerms is returned for negative active-set caps.
var ErrNegativeMaxTerms = errors.New("max terms must be non-negative")

// DefaultLarsOptions returns the default LARS configuration.
func DefaultLarsOptions() *LarsOptions {
	return &LarsOptions{
		MaxTerms:     0,
		Lambda:       1.0,
		FitIntercept: true,
	}
}

// Validate checks the options and fills a nil receiver with defaults.
func (o *LarsOptions) Validate() (*LarsOptions, error) {
	if o == nil {
		return DefaultLarsOptions(), nil
	}
	if o.MaxTerms < 0 {
		return nil, ErrNegativeMaxTerms
	}
	if o.Lambda < 0 {
		return nil, ErrNegativeLambda
	}

	return o, nil
}

// LarsModel is a model fitted by least-angle regression, optionally with
// the lasso modification.
type LarsModel struct {
	coefModel

	// Active lists the predictor indices in the order they entered the
	// active set.
	Active []int
	// Lasso reports whether the lasso modification was applied.
	Lasso bool
}

// FitLars fits a model by least-angle regression. Predictors enter the
// active set in order of correlation with the running residual, and the
// coefficients advance along the equiangular direction until the next
// predictor ties. Sample weights are not supported.
func FitLars(x *mat.Dense, y []float64, opts *LarsOptions) (*LarsModel, error) {
	return fitLarsPath(x, y, opts, false)
}

// FitLassoLars fits a lasso model along the LARS path: the path is followed
// until the penalty level opts.Lambda is reached, and predictors whose
// coefficients hit zero are dropped from the active set.
func FitLassoLars(x *mat.Dense, y []float64, opts *LarsOptions) (*LarsModel, error) {
	return fitLarsPath(x, y, opts, true)
}

func fitLarsPath(x *mat.Dense, y []float64, opts *LarsOptions, lasso bool) (*LarsModel, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	n, p, err := checkDims(x, y, nil)
	if err != nil {
		return nil, err
	}

	xw := x
	yw := y
	var xm []float64
	var ym float64
	if opts.FitIntercept {
		xm, ym = weightedMeans(x, y, nil)
		xw, yw = center(x, y, xm, ym)
	}

	maxTerms := opts.MaxTerms
	if maxTerms == 0 || maxTerms > p {
		maxTerms = p
	}
	if maxTerms > n {
		maxTerms = n
	}
	// Lambda scales a 1/(2n) objective, so the path stops once the max
	// absolute correlation drops to n*lambda.
	stopCorr := 0.0
	if lasso {
		stopCorr = float64(n) * opts.Lambda
	}

	coef := make([]float64, p)
	resid := make([]float64, n)
	copy(resid, yw)

	active := make([]int, 0, maxTerms)
	inActive := make([]bool, p)

	const eps = 1e-12
	for len(active) < maxTerms {
		// Correlations of inactive predictors with the residual.
		corr := make([]float64, p)
		cMax := 0.0
		next := -1
		for j := 0; j < p; j++ {
			var c float64
			for i := 0; i < n; i++ {
				c += xw.At(i, j) * resid[i]
			}
			corr[j] = c
			if !inActive[j] && math.Abs(c) > cMax {
				cMax = math.Abs(c)
				next = j
			}
		}
		if next < 0 || cMax < eps || (lasso && cMax <= stopCorr) {
			break
		}
		active = append(active, next)
		inActive[next] = true

		// Equiangular direction: least-squares fit of the residual on the
		// active columns.
		xa := activeCols(xw, active)
		dir, derr := lstsq(xa, resid)
		if derr != nil {
			return nil, derr
		}

		// Step until an inactive predictor's correlation ties the active
		// set, the path is exhausted, or (lasso) a coefficient hits zero.
		xaDir := make([]float64, n)
		for i := 0; i < n; i++ {
			var s float64
			for k, j := range active {
				s += xw.At(i, j) * dir[k]
			}
			xaDir[i] = s
		}
		gamma := 1.0
		if len(active) < p {
			gamma = larsStep(xw, resid, xaDir, corr, inActive, cMax, n, p)
		}

		dropped := -1
		if lasso {
			// Shrink the step so no coefficient crosses zero.
			for k, j := range active {
				if dir[k] == 0 {
					continue
				}
				g := -coef[j] / dir[k]
				if g > eps && g < gamma {
					gamma = g
					dropped = k
				}
			}
		}

		for k, j := range active {
			coef[j] += gamma * dir[k]
		}
		for i := 0; i < n; i++ {
			resid[i] -= gamma * xaDir[i]
		}

		if dropped >= 0 {
			j := active[dropped]
			coef[j] = 0
			inActive[j] = false
			active = append(active[:dropped], active[dropped+1:]...)
		}
	}

	intercept := 0.0
	if opts.FitIntercept {
		intercept = ym
		for j := 0; j < p; j++ {
			intercept -= coef[j] * xm[j]
		}
	}

	return &LarsModel{
		coefModel: coefModel{coef: coef, intercept: intercept},
		Active:    active,
		Lasso:     lasso,
	}, nil
}

// larsStep returns the smallest positive step along the equiangular
// direction at which an inactive predictor's correlation ties the active
// set's.
func larsStep(xw *mat.Dense, resid, xaDir, corr []float64, inActive []bool, cMax float64, n, p int) float64 {
	const eps = 1e-12
	gamma := 1.0
	for j := 0; j < p; j++ {
		if inActive[j] {
			continue
		}
		var a float64
		for i := 0; i < n; i++ {
			a += xw.At(i, j) * xaDir[i]
		}
		// cMax shrinks at unit rate along the full-step direction.
		for _, g := range []float64{(cMax - corr[j]) / (cMax - a), (cMax + corr[j]) / (cMax + a)} {
			if g > eps && g < gamma {
				gamma = g
			}
		}
	}

	return gamma
}

func activeCols(x *mat.Dense, active []int) *mat.Dense {
	n, _ := x.Dims()
	out := mat.NewDense(n, len(active), nil)
	for k, j := range active {
		for i := 0; i < n; i++ {
			out.Set(i, k, x.At(i, j))
		}
	}

	return out
}
