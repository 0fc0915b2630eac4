package linmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func rawDesign(cols [][]float64) *mat.Dense {
	n := len(cols[0])
	x := mat.NewDense(n, len(cols), nil)
	for i := 0; i < n; i++ {
		for j, c := range cols {
			x.Set(i, j, c[i])
		}
	}

	return x
}

func TestElasticNetOptions_Validate(t *testing.T) {
	t.Run("nil uses defaults", func(t *testing.T) {
		var o *ElasticNetOptions
		v, err := o.Validate()
		require.NoError(t, err)
		require.Equal(t, 1.0, v.Lambda)
		require.Equal(t, 0.5, v.L1Ratio)
	})

	t.Run("rejects negative lambda", func(t *testing.T) {
		_, err := (&ElasticNetOptions{Lambda: -1, L1Ratio: 0.5, Iterations: 10, Tolerance: 1e-4}).Validate()
		require.ErrorIs(t, err, ErrNegativeLambda)
	})

	t.Run("rejects out-of-range mix", func(t *testing.T) {
		_, err := (&ElasticNetOptions{Lambda: 1, L1Ratio: 1.5, Iterations: 10, Tolerance: 1e-4}).Validate()
		require.ErrorIs(t, err, ErrBadL1Ratio)
	})
}

func TestFitElasticNet(t *testing.T) {
	cols := noisyColumns(100, 3, 31)
	x := rawDesign(cols)
	// The third column carries no signal.
	y := linearResponse(3, []float64{2, -1.5, 0}, cols...)

	t.Run("tiny penalty approximates the true fit", func(t *testing.T) {
		m, err := FitElasticNet(x, y, &ElasticNetOptions{
			Lambda: 1e-6, L1Ratio: 0.5, Iterations: 5000, Tolerance: 1e-10, FitIntercept: true,
		})
		require.NoError(t, err)
		require.True(t, m.Converged)
		require.InDelta(t, 3.0, m.Intercept(), 1e-2)
		require.InDelta(t, 2.0, m.Coefficients()[0], 1e-2)
		require.InDelta(t, -1.5, m.Coefficients()[1], 1e-2)
		require.InDelta(t, 0.0, m.Coefficients()[2], 1e-2)
	})

	t.Run("large penalty zeroes every coefficient", func(t *testing.T) {
		m, err := FitElasticNet(x, y, &ElasticNetOptions{
			Lambda: 1e6, L1Ratio: 1, Iterations: 100, Tolerance: 1e-8, FitIntercept: true,
		})
		require.NoError(t, err)
		for _, c := range m.Coefficients() {
			require.Equal(t, 0.0, c)
		}
	})

	t.Run("penalty shrinks relative to the unpenalized fit", func(t *testing.T) {
		loose, err := FitElasticNet(x, y, &ElasticNetOptions{
			Lambda: 1e-8, L1Ratio: 0.5, Iterations: 5000, Tolerance: 1e-10, FitIntercept: true,
		})
		require.NoError(t, err)
		tight, err := FitElasticNet(x, y, &ElasticNetOptions{
			Lambda: 0.5, L1Ratio: 0.5, Iterations: 5000, Tolerance: 1e-10, FitIntercept: true,
		})
		require.NoError(t, err)
		require.Less(t, math.Abs(tight.Coefficients()[0]), math.Abs(loose.Coefficients()[0])+1e-12)
	})
}

func TestFitLasso_SelectsSignal(t *testing.T) {
	cols := noisyColumns(200, 4, 41)
	x := rawDesign(cols)
	y := linearResponse(0, []float64{5, 0, 0, 0}, cols...)

	m, err := FitLasso(x, y, &ElasticNetOptions{
		Lambda: 0.2, L1Ratio: 1, Iterations: 5000, Tolerance: 1e-10, FitIntercept: true,
	})
	require.NoError(t, err)
	require.Equal(t, 1.0, m.L1Ratio)

	coef := m.Coefficients()
	require.Greater(t, coef[0], 1.0)
	for j := 1; j < 4; j++ {
		require.InDelta(t, 0.0, coef[j], 0.1)
	}
}

func TestSoftThreshold(t *testing.T) {
	require.Equal(t, 0.0, softThreshold(0.5, 1))
	require.Equal(t, 0.0, softThreshold(-0.5, 1))
	require.InDelta(t, 1.0, softThreshold(2, 1), 1e-12)
	require.InDelta(t, -1.0, softThreshold(-2, 1), 1e-12)
}
