package regression

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/dataset"
	"github.com/tsfit/tsfit/formula"
)

func TestPredict_TrainingIdentity(t *testing.T) {
	tbl := trainingTable(t, 90, 31)

	rec, err := Fit(tbl, "y ~ x1 + x2 + dow", AlgorithmLinear)
	require.NoError(t, err)

	preds, x, err := rec.Predict(tbl)
	require.NoError(t, err)
	require.NotNil(t, x)

	for i := range preds {
		require.InDelta(t, rec.FittedValues[i], preds[i], 1e-10)
	}
}

func TestPredict_FutureData(t *testing.T) {
	tbl := trainingTable(t, 90, 33)
	rec, err := Fit(tbl, "y ~ x1 + x2", AlgorithmLinear)
	require.NoError(t, err)

	future := dataset.New()
	require.NoError(t, future.AddNumeric("x1", []float64{1, -1}))
	require.NoError(t, future.AddNumeric("x2", []float64{0.5, 2}))

	preds, _, err := rec.Predict(future)
	require.NoError(t, err)
	require.InDelta(t, 10+2*1+4*0.5, preds[0], 1e-8)
	require.InDelta(t, 10-2*1+4*2, preds[1], 1e-8)
}

func TestPredict_UnseenLevel(t *testing.T) {
	tbl := trainingTable(t, 90, 35)
	rec, err := Fit(tbl, "y ~ x1 + dow", AlgorithmLinear)
	require.NoError(t, err)

	future := dataset.New()
	require.NoError(t, future.AddNumeric("x1", []float64{1}))
	require.NoError(t, future.AddCategorical("dow", []string{"Holiday"}))

	_, _, err = rec.Predict(future)
	require.ErrorIs(t, err, formula.ErrUnseenLevel)
}

func TestPredict_MissingColumn(t *testing.T) {
	tbl := trainingTable(t, 40, 37)
	rec, err := Fit(tbl, "y ~ x1 + x2", AlgorithmLinear)
	require.NoError(t, err)

	future := dataset.New()
	require.NoError(t, future.AddNumeric("x1", []float64{1}))

	_, _, err = rec.Predict(future)
	require.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestNewCoefficientModel(t *testing.T) {
	m := NewCoefficientModel([]float64{2, 4}, 10)
	require.Equal(t, []float64{2, 4}, m.Coefficients())
	require.Equal(t, 10.0, m.Intercept())

	x, y := designMatrix(10, 39)
	// designMatrix carries its own intercept column; rebuild without it.
	rows, _ := x.Dims()
	feat := x.Slice(0, rows, 1, 3).(*mat.Dense)
	pred := m.Predict(feat)
	for i := range y {
		require.InDelta(t, y[i], pred[i], 1e-12)
	}
}
