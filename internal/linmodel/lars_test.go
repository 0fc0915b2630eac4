package linmodel

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFitLars(t *testing.T) {
	cols := noisyColumns(120, 3, 51)
	x := rawDesign(cols)
	y := linearResponse(2, []float64{3, -2, 0.5}, cols...)

	t.Run("full path recovers the least-squares fit", func(t *testing.T) {
		m, err := FitLars(x, y, &LarsOptions{FitIntercept: true})
		require.NoError(t, err)
		require.Len(t, m.Active, 3)
		require.False(t, m.Lasso)
		require.InDelta(t, 2.0, m.Intercept(), 1e-6)
		require.InDelta(t, 3.0, m.Coefficients()[0], 1e-6)
		require.InDelta(t, -2.0, m.Coefficients()[1], 1e-6)
		require.InDelta(t, 0.5, m.Coefficients()[2], 1e-6)
	})

	t.Run("max terms caps the active set", func(t *testing.T) {
		m, err := FitLars(x, y, &LarsOptions{MaxTerms: 1, FitIntercept: true})
		require.NoError(t, err)
		require.Len(t, m.Active, 1)

		nonZero := 0
		for _, c := range m.Coefficients() {
			if c != 0 {
				nonZero++
			}
		}
		require.Equal(t, 1, nonZero)
	})

	t.Run("strongest predictor enters first", func(t *testing.T) {
		strong := linearResponse(0, []float64{10, 0.1, 0.1}, cols...)
		m, err := FitLars(x, strong, &LarsOptions{MaxTerms: 1, FitIntercept: true})
		require.NoError(t, err)
		require.Equal(t, []int{0}, m.Active)
	})

	t.Run("rejects negative max terms", func(t *testing.T) {
		_, err := FitLars(x, y, &LarsOptions{MaxTerms: -1})
		require.ErrorIs(t, err, ErrNegativeMaxTerms)
	})
}

func TestFitLassoLars(t *testing.T) {
	cols := noisyColumns(120, 3, 61)
	x := rawDesign(cols)
	y := linearResponse(1, []float64{4, -3, 0}, cols...)

	t.Run("huge penalty keeps everything at zero", func(t *testing.T) {
		m, err := FitLassoLars(x, y, &LarsOptions{Lambda: 1e9, FitIntercept: true})
		require.NoError(t, err)
		require.True(t, m.Lasso)
		require.Empty(t, m.Active)
		for _, c := range m.Coefficients() {
			require.Equal(t, 0.0, c)
		}
	})

	t.Run("vanishing penalty approaches the least-squares fit", func(t *testing.T) {
		m, err := FitLassoLars(x, y, &LarsOptions{Lambda: 1e-10, FitIntercept: true})
		require.NoError(t, err)
		require.InDelta(t, 4.0, m.Coefficients()[0], 1e-4)
		require.InDelta(t, -3.0, m.Coefficients()[1], 1e-4)
		require.InDelta(t, 0.0, m.Coefficients()[2], 1e-4)
	})
}
