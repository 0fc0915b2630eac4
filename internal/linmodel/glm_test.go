package linmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseGLMFamily(t *testing.T) {
	for _, f := range []GLMFamily{GLMGaussian, GLMGamma, GLMPoisson} {
		got, err := ParseGLMFamily(f.String())
		require.NoError(t, err)
		require.Equal(t, f, got)
	}

	_, err := ParseGLMFamily("binomial")
	require.Error(t, err)
}

func TestFitGLM(t *testing.T) {
	cols := noisyColumns(100, 1, 111)
	x := designWithIntercept(cols...)

	t.Run("gaussian family reduces to least squares", func(t *testing.T) {
		y := linearResponse(2, []float64{0.7}, cols...)
		m, err := FitGLM(x, y, nil, &GLMOptions{Family: GLMGaussian, Iterations: 50, Tolerance: 1e-10})
		require.NoError(t, err)
		require.True(t, m.Converged)

		ols, err := FitOLS(x, y, nil)
		require.NoError(t, err)
		for j := range ols.Coefficients() {
			require.InDelta(t, ols.Coefficients()[j], m.Coefficients()[j], 1e-8)
		}
	})

	t.Run("poisson family recovers a log-linear response", func(t *testing.T) {
		y := make([]float64, 100)
		for i := range y {
			y[i] = math.Exp(0.5 + 0.3*cols[0][i])
		}
		m, err := FitGLM(x, y, nil, &GLMOptions{Family: GLMPoisson, Iterations: 100, Tolerance: 1e-10})
		require.NoError(t, err)
		require.True(t, m.Converged)
		require.InDelta(t, 0.5, m.Coefficients()[0], 1e-6)
		require.InDelta(t, 0.3, m.Coefficients()[1], 1e-6)

		// Predictions are on the response scale.
		pred := m.Predict(x)
		for i := range y {
			require.InDelta(t, y[i], pred[i], 1e-5)
		}
	})

	t.Run("gamma family recovers an inverse-linear response", func(t *testing.T) {
		y := make([]float64, 100)
		for i := range y {
			// Keep the linear predictor away from zero.
			y[i] = 1 / (3 + 0.2*cols[0][i])
		}
		m, err := FitGLM(x, y, nil, &GLMOptions{Family: GLMGamma, Iterations: 100, Tolerance: 1e-10})
		require.NoError(t, err)
		require.True(t, m.Converged)
		require.InDelta(t, 3.0, m.Coefficients()[0], 1e-6)
		require.InDelta(t, 0.2, m.Coefficients()[1], 1e-6)
	})

	t.Run("rejects non-positive responses for count families", func(t *testing.T) {
		y := make([]float64, 100)
		for i := range y {
			y[i] = 1
		}
		y[10] = 0
		_, err := FitGLM(x, y, nil, &GLMOptions{Family: GLMPoisson, Iterations: 50, Tolerance: 1e-8})
		require.ErrorIs(t, err, ErrNonPositiveResponse)
	})

	t.Run("rejects unknown families", func(t *testing.T) {
		y := []float64{1, 2, 3}
		x3 := designWithIntercept([]float64{1, 2, 3})
		_, err := FitGLM(x3, y, nil, &GLMOptions{Family: GLMFamily(99), Iterations: 10, Tolerance: 1e-8})
		require.Error(t, err)
	})
}
