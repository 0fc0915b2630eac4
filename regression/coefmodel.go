package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// coefficientModel is a plain linear model rebuilt from persisted
// coefficients. It predicts but carries none of the original fitter's
// diagnostics.
type coefficientModel struct {
	coef      []float64
	intercept float64
}

// NewCoefficientModel builds a Model from a coefficient vector and
// intercept, for reconstructing persisted linear-family models.
func NewCoefficientModel(coef []float64, intercept float64) Model {
	return &coefficientModel{coef: coef, intercept: intercept}
}

func (m *coefficientModel) Coefficients() []float64 { return m.coef }

func (m *coefficientModel) Intercept() float64 { return m.intercept }

func (m *coefficientModel) Predict(x *mat.Dense) []float64 {
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
			v += m.coef[j] * x.At(i, j)
		}
		out[i] = v
	}

	return out
}
