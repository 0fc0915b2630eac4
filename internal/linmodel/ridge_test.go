package linmodel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestFitRidge(t *testing.T) {
	cols := noisyColumns(60, 2, 21)
	x := mat.NewDense(60, 2, nil)
	for i := 0; i < 60; i++ {
		x.Set(i, 0, cols[0][i])
		x.Set(i, 1, cols[1][i])
	}
	y := linearResponse(4, []float64{2, -1}, cols...)

	t.Run("zero penalty matches least squares", func(t *testing.T) {
		m, err := FitRidge(x, y, nil, &RidgeOptions{Penalty: 0})
		require.NoError(t, err)
		require.InDelta(t, 4.0, m.Intercept(), 1e-8)
		require.InDelta(t, 2.0, m.Coefficients()[0], 1e-8)
		require.InDelta(t, -1.0, m.Coefficients()[1], 1e-8)
	})

	t.Run("penalty shrinks coefficients toward zero", func(t *testing.T) {
		loose, err := FitRidge(x, y, nil, &RidgeOptions{Penalty: 0})
		require.NoError(t, err)
		tight, err := FitRidge(x, y, nil, &RidgeOptions{Penalty: 500})
		require.NoError(t, err)
		for j := range tight.Coefficients() {
			require.Less(t, math.Abs(tight.Coefficients()[j]), math.Abs(loose.Coefficients()[j]))
		}
	})

	t.Run("intercept survives heavy shrinkage", func(t *testing.T) {
		m, err := FitRidge(x, y, nil, &RidgeOptions{Penalty: 1e9})
		require.NoError(t, err)
		// All slope information is penalized away, leaving the mean.
		var ym float64
		for _, v := range y {
			ym += v
		}
		ym /= float64(len(y))
		require.InDelta(t, ym, m.Intercept(), 1e-3)
	})

	t.Run("binary weights equal subset fit", func(t *testing.T) {
		w := make([]float64, 60)
		var keep []int
		for i := range w {
			if i%4 != 0 {
				w[i] = 1
				keep = append(keep, i)
			}
		}
		weighted, err := FitRidge(x, y, w, &RidgeOptions{Penalty: 2.5})
		require.NoError(t, err)

		sub := mat.NewDense(len(keep), 2, nil)
		subY := make([]float64, len(keep))
		for k, i := range keep {
			sub.Set(k, 0, x.At(i, 0))
			sub.Set(k, 1, x.At(i, 1))
			subY[k] = y[i]
		}
		plain, err := FitRidge(sub, subY, nil, &RidgeOptions{Penalty: 2.5})
		require.NoError(t, err)

		require.InDelta(t, plain.Intercept(), weighted.Intercept(), 1e-8)
		for j := range plain.Coefficients() {
			require.InDelta(t, plain.Coefficients()[j], weighted.Coefficients()[j], 1e-8)
		}
	})

	t.Run("rejects negative penalty", func(t *testing.T) {
		_, err := FitRidge(x, y, nil, &RidgeOptions{Penalty: -1})
		require.ErrorIs(t, err, ErrNegativePenalty)
	})

	t.Run("nil options use the default penalty", func(t *testing.T) {
		m, err := FitRidge(x, y, nil, nil)
		require.NoError(t, err)
		require.Equal(t, 1.0, m.Penalty)
	})
}

func TestPInv(t *testing.T) {
	t.Run("inverts a full-rank matrix", func(t *testing.T) {
		a := mat.NewDense(2, 2, []float64{4, 0, 0, 2})
		inv, err := PInv(a)
		require.NoError(t, err)
		require.InDelta(t, 0.25, inv.At(0, 0), 1e-12)
		require.InDelta(t, 0.5, inv.At(1, 1), 1e-12)
	})

	t.Run("handles a singular matrix", func(t *testing.T) {
		a := mat.NewDense(2, 2, []float64{1, 1, 1, 1})
		inv, err := PInv(a)
		require.NoError(t, err)
		// A A+ A = A for a valid pseudo-inverse.
		var tmp, back mat.Dense
		tmp.Mul(a, inv)
		back.Mul(&tmp, a)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				require.InDelta(t, a.At(i, j), back.At(i, j), 1e-10)
			}
		}
	})
}
