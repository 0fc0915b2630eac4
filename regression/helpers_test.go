package regression

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/dataset"
)

// trainingTable builds an n-row table with the exact relationship
// y = 10 + 2*x1 + 4*x2 plus a day-of-week column for conditioning.
func trainingTable(t *testing.T, n int, seed uint64) *dataset.Table {
	t.Helper()
	rng := rand.New(rand.NewPCG(seed, 0))

	x1 := make([]float64, n)
	x2 := make([]float64, n)
	y := make([]float64, n)
	dow := make([]string, n)
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}
	for i := 0; i < n; i++ {
		x1[i] = rng.NormFloat64()
		x2[i] = rng.NormFloat64()
		y[i] = 10 + 2*x1[i] + 4*x2[i]
		dow[i] = days[i%7]
	}

	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("y", y))
	require.NoError(t, tbl.AddNumeric("x1", x1))
	require.NoError(t, tbl.AddNumeric("x2", x2))
	require.NoError(t, tbl.AddCategorical("dow", dow))

	return tbl
}

// noisyTrainingTable is trainingTable with additive noise on the response.
func noisyTrainingTable(t *testing.T, n int, seed uint64, noise float64) *dataset.Table {
	t.Helper()
	tbl := trainingTable(t, n, seed)
	rng := rand.New(rand.NewPCG(seed+1, 0))
	y, err := tbl.Numeric("y")
	require.NoError(t, err)
	for i := range y {
		y[i] += noise * rng.NormFloat64()
	}

	return tbl
}

// designMatrix builds [1 | x1 | x2] directly, bypassing the formula layer.
func designMatrix(n int, seed uint64) (*mat.Dense, []float64) {
	rng := rand.New(rand.NewPCG(seed, 0))
	x := mat.NewDense(n, 3, nil)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		a := rng.NormFloat64()
		b := rng.NormFloat64()
		x.Set(i, 0, 1)
		x.Set(i, 1, a)
		x.Set(i, 2, b)
		y[i] = 10 + 2*a + 4*b
	}

	return x, y
}
