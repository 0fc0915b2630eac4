package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/internal/linmodel"
)

// condDigitThreshold is the digit-loss bound on the condition number of
// XᵀX + λI: below 10^8 a direct solve is trusted, above it the hat matrix
// falls back to a pseudo-inverse.
const condDigitThreshold = 8

// hatMatrix computes H = (XᵀX + λI)⁻¹ Xᵀ, so that X·H maps observed
// responses to fitted values. Well-conditioned systems use a Cholesky
// solve; the rest fall back to a pseudo-inverse.
func hatMatrix(x *mat.Dense, penalty float64) (*mat.Dense, error) {
	_, p := x.Dims()

	var xtx mat.Dense
	xtx.Mul(x.T(), x)
	for j := 0; j < p; j++ {
		xtx.Set(j, j, xtx.At(j, j)+penalty)
	}

	var inv *mat.Dense
	if log10Cond(&xtx) < condDigitThreshold {
		var sym mat.SymDense
		symFrom(&xtx, &sym)
		var chol mat.Cholesky
		if chol.Factorize(&sym) {
			inv = mat.NewDense(p, p, nil)
			var si mat.SymDense
			if err := chol.InverseTo(&si); err == nil {
				inv.Copy(&si)
			} else {
				inv = nil
			}
		}
	}
	if inv == nil {
		pinv, err := linmodel.PInv(&xtx)
		if err != nil {
			return nil, err
		}
		inv = pinv
	}

	var h mat.Dense
	h.Mul(inv, x.T())

	return &h, nil
}

// effectiveParams returns the hat matrix of x under the given penalty and
// the effective parameter count trace(HX). For an unpenalized fit the
// trace equals the numeric rank of x; under a penalty it is generally
// non-integer and smaller.
func effectiveParams(x *mat.Dense, penalty float64) (h *mat.Dense, pEffective float64, err error) {
	h, err = hatMatrix(x, penalty)
	if err != nil {
		return nil, 0, err
	}

	var hx mat.Dense
	hx.Mul(h, x)
	_, p := x.Dims()
	for j := 0; j < p; j++ {
		pEffective += hx.At(j, j)
	}

	return h, pEffective, nil
}

// sigmaScaler corrects the residual standard deviation for the effective
// parameter count: sqrt((n-1)/(n-p)). It returns NaN when the residual
// degrees of freedom are zero or negative, leaving the scaling undefined.
func sigmaScaler(n int, pEffective float64) float64 {
	df := float64(n) - pEffective
	if df < 1e-8 {
		return math.NaN()
	}

	return math.Sqrt(float64(n-1) / df)
}

// log10Cond estimates the base-10 log condition number of a via SVD.
func log10Cond(a *mat.Dense) float64 {
	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDNone); !ok {
		return math.Inf(1)
	}
	s := svd.Values(nil)
	if len(s) == 0 || s[len(s)-1] <= 0 {
		return math.Inf(1)
	}

	return math.Log10(s[0] / s[len(s)-1])
}

func symFrom(a *mat.Dense, dst *mat.SymDense) {
	p, _ := a.Dims()
	*dst = *mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		for j := i; j < p; j++ {
			dst.SetSym(i, j, (a.At(i, j)+a.At(j, i))/2)
		}
	}
}

// centerColumns returns a centered copy of x and its column means.
func centerColumns(x *mat.Dense) (*mat.Dense, []float64) {
	n, p := x.Dims()
	means := make([]float64, p)
	out := mat.NewDense(n, p, nil)
	for j := 0; j < p; j++ {
		var s float64
		for i := 0; i < n; i++ {
			s += x.At(i, j)
		}
		means[j] = s / float64(n)
		for i := 0; i < n; i++ {
			out.Set(i, j, x.At(i, j)-means[j])
		}
	}

	return out, means
}
