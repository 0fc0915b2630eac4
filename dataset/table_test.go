package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl := New()
	require.NoError(t, tbl.AddNumeric("y", []float64{1, 2, 3, 4}))
	require.NoError(t, tbl.AddNumeric("x", []float64{10, 20, 30, 40}))
	require.NoError(t, tbl.AddCategorical("dow", []string{"Mon", "Tue", "Mon", "Wed"}))

	return tbl
}

func TestTable_Add(t *testing.T) {
	t.Run("first column fixes the row count", func(t *testing.T) {
		tbl := New()
		require.NoError(t, tbl.AddNumeric("a", []float64{1, 2}))
		require.Equal(t, 2, tbl.NumRows())

		err := tbl.AddNumeric("b", []float64{1, 2, 3})
		require.ErrorIs(t, err, ErrLengthMismatch)
	})

	t.Run("rejects duplicate names", func(t *testing.T) {
		tbl := New()
		require.NoError(t, tbl.AddNumeric("a", []float64{1}))
		err := tbl.AddCategorical("a", []string{"x"})
		require.ErrorIs(t, err, ErrDuplicateColumn)
	})

	t.Run("preserves insertion order", func(t *testing.T) {
		tbl := sampleTable(t)
		require.Equal(t, []string{"y", "x", "dow"}, tbl.ColNames())
		require.Equal(t, 3, tbl.NumCols())
	})
}

func TestTable_Access(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("numeric access", func(t *testing.T) {
		vals, err := tbl.Numeric("x")
		require.NoError(t, err)
		require.Equal(t, []float64{10, 20, 30, 40}, vals)
	})

	t.Run("kind mismatch", func(t *testing.T) {
		_, err := tbl.Numeric("dow")
		require.Error(t, err)
		_, err = tbl.Categorical("x")
		require.Error(t, err)
	})

	t.Run("missing column", func(t *testing.T) {
		_, err := tbl.Col("nope")
		require.ErrorIs(t, err, ErrColumnNotFound)
		require.False(t, tbl.Has("nope"))
		require.True(t, tbl.Has("dow"))
	})
}

func TestTable_Select(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("reorders and repeats rows", func(t *testing.T) {
		out, err := tbl.Select([]int{3, 0, 0})
		require.NoError(t, err)
		require.Equal(t, 3, out.NumRows())

		y, err := out.Numeric("y")
		require.NoError(t, err)
		require.Equal(t, []float64{4, 1, 1}, y)

		dow, err := out.Categorical("dow")
		require.NoError(t, err)
		require.Equal(t, []string{"Wed", "Mon", "Mon"}, dow)
	})

	t.Run("out of range", func(t *testing.T) {
		_, err := tbl.Select([]int{4})
		require.Error(t, err)
	})
}

func TestTable_Split(t *testing.T) {
	tbl := sampleTable(t)

	t.Run("prefix and suffix", func(t *testing.T) {
		train, test, err := tbl.Split(0.75)
		require.NoError(t, err)
		require.Equal(t, 3, train.NumRows())
		require.Equal(t, 1, test.NumRows())

		y, err := test.Numeric("y")
		require.NoError(t, err)
		require.Equal(t, []float64{4}, y)
	})

	t.Run("full fraction keeps everything in train", func(t *testing.T) {
		train, test, err := tbl.Split(1)
		require.NoError(t, err)
		require.Equal(t, 4, train.NumRows())
		require.Equal(t, 0, test.NumRows())
	})

	t.Run("rejects fractions outside the unit interval", func(t *testing.T) {
		_, _, err := tbl.Split(1.5)
		require.Error(t, err)
	})
}

func TestTable_DropNA(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.AddNumeric("y", []float64{1, math.NaN(), 3, 4}))
	require.NoError(t, tbl.AddNumeric("x", []float64{1, 2, math.NaN(), 4}))
	require.NoError(t, tbl.AddCategorical("g", []string{"a", "b", "c", "d"}))

	t.Run("drops rows with missing values in the named columns", func(t *testing.T) {
		out, dropped, err := tbl.DropNA([]string{"y", "x"})
		require.NoError(t, err)
		require.Equal(t, 2, dropped)
		require.Equal(t, 2, out.NumRows())

		y, err := out.Numeric("y")
		require.NoError(t, err)
		require.Equal(t, []float64{1, 4}, y)
	})

	t.Run("only the named columns are inspected", func(t *testing.T) {
		out, dropped, err := tbl.DropNA([]string{"y"})
		require.NoError(t, err)
		require.Equal(t, 1, dropped)
		require.Equal(t, 3, out.NumRows())
	})

	t.Run("unknown and categorical columns are ignored", func(t *testing.T) {
		out, dropped, err := tbl.DropNA([]string{"g", "missing"})
		require.NoError(t, err)
		require.Equal(t, 0, dropped)
		require.Equal(t, 4, out.NumRows())
	})
}

func TestTable_Clone(t *testing.T) {
	tbl := sampleTable(t)
	cp := tbl.Clone()

	vals, err := cp.Numeric("x")
	require.NoError(t, err)
	vals[0] = -1

	orig, err := tbl.Numeric("x")
	require.NoError(t, err)
	require.Equal(t, 10.0, orig[0])
}
