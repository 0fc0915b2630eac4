package linmodel

import (
	"errors"

	"gonum.org/v1/gonum/mat"
)

// RidgeOptions configures the ridge fitter.
type RidgeOptions struct {
	// Penalty is the L2 penalty strength applied to the centered
	// coefficients. The intercept is never penalized.
	Penalty float64
}

// ErrNegativePenalty is returned for negative regularization strengths.
var ErrNegativePenalty = errors.New("penalty must be non-negative")

// DefaultRidgeOptions returns the default ridge configuration.
func DefaultRidgeOptions() *RidgeOptions {
	return &RidgeOptions{Penalty: 1.0}
}

// RidgeModel is a fitted ridge regression model. The coefficients apply to
// the original (uncentered) design columns; the intercept absorbs the
// centering, so predictions are X*coef + intercept.
type RidgeModel struct {
	coefModel

	// Penalty is the L2 penalty the model was fitted with.
	Penalty float64
	// XMean holds the (weighted) column means used for centering.
	XMean []float64
}

// FitRidge fits ridge regression by solving the penalized normal equations
// on weighted-centered data:
//
//	(Xc' W Xc + λI) b = Xc' W yc
//
// Centering before penalizing keeps the intercept unpenalized, matching
// the usual convention. A nil weight vector means equal weights.
func FitRidge(x *mat.Dense, y, w []float64, opts *RidgeOptions) (*RidgeModel, error) {
	if opts == nil {
		opts = DefaultRidgeOptions()
	}
	if opts.Penalty < 0 {
		return nil, ErrNegativePenalty
	}
	n, p, err := checkDims(x, y, w)
	if err != nil {
		return nil, err
	}

	xm, ym := weightedMeans(x, y, w)
	xc, yc := center(x, y, xm, ym)
	xw, yw := applyRowWeights(xc, yc, w)

	var xtx mat.Dense
	xtx.Mul(xw.T(), xw)
	for j := 0; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+opts.Penalty)
	}

	xty := make([]float64, p)
	for j := 0; j < p; j++ {
		var s float64
		for i := 0; i < n; i++ {
			s += xw.At(i, j) * yw[i]
		}
		xty[j] = s
	}

	coef, err := solveSym(&xtx, xty)
	if err != nil {
		return nil, err
	}

	intercept := ym
	for j := 0; j < p; j++ {
		intercept -= coef[j] * xm[j]
	}

	return &RidgeModel{
		coefModel: coefModel{coef: coef, intercept: intercept},
		Penalty:   opts.Penalty,
		XMean:     xm,
	}, nil
}

// solveSym solves A b = v for symmetric positive semi-definite A, using a
// Cholesky factorization when possible and a pseudo-inverse otherwise.
func solveSym(a *mat.Dense, v []float64) ([]float64, error) {
	p := len(v)
	sym := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			sym.SetSym(i, j, (a.At(i, j)+a.At(j, i))/2)
		}
	}

	vv := mat.NewVecDense(p, v)
	var chol mat.Cholesky
	if chol.Factorize(sym) {
		var b mat.VecDense
		if err := chol.SolveVecTo(&b, vv); err == nil && !hasNaN(b.RawVector().Data) {
			return rawCopy(&b, p), nil
		}
	}

	pinv, err := PInv(a)
	if err != nil {
		return nil, err
	}
	var b mat.VecDense
	b.MulVec(pinv, vv)

	return rawCopy(&b, p), nil
}

// PInv returns the Moore-Penrose pseudo-inverse computed from a thin SVD
// with singular values below 1e-12 of the largest treated as zero.
func PInv(a mat.Matrix) (*mat.Dense, error) {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, ErrSingular
	}

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)
	s := svd.Values(nil)

	tol := 1e-12
	if len(s) > 0 {
		tol *= s[0]
	}

	r, c := a.Dims()
	k := len(s)
	sInv := mat.NewDense(k, k, nil)
	for i, sv := range s {
		if sv > tol {
			sInv.Set(i, i, 1/sv)
		}
	}

	out := mat.NewDense(c, r, nil)
	var tmp mat.Dense
	tmp.Mul(&v, sInv)
	out.Mul(&tmp, u.T())

	return out, nil
}
