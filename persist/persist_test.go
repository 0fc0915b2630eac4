package persist

import (
	"bytes"
	"io"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tsfit/tsfit/dataset"
	"github.com/tsfit/tsfit/format"
	"github.com/tsfit/tsfit/regression"
	"github.com/tsfit/tsfit/uncertainty"
)

// trainedRecord fits y = 3 + 2*x1 - x2 with a categorical day-of-week
// term and returns the record plus a future table to score.
func trainedRecord(t *testing.T, fitOpts ...regression.FitOption) (*regression.TrainingRecord, *dataset.Table) {
	t.Helper()
	rng := rand.New(rand.NewPCG(97, 0))
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

	n := 70
	x1 := make([]float64, n)
	x2 := make([]float64, n)
	dow := make([]string, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = rng.NormFloat64()
		x2[i] = rng.NormFloat64()
		dow[i] = days[i%len(days)]
		y[i] = 3 + 2*x1[i] - x2[i]
	}

	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("y", y))
	require.NoError(t, tbl.AddNumeric("x1", x1))
	require.NoError(t, tbl.AddNumeric("x2", x2))
	require.NoError(t, tbl.AddCategorical("dow", dow))

	rec, err := regression.Fit(tbl, "y ~ x1 + x2 + dow", regression.AlgorithmLinear, fitOpts...)
	require.NoError(t, err)

	future := dataset.New()
	require.NoError(t, future.AddNumeric("x1", []float64{0.5, -1.25, 2}))
	require.NoError(t, future.AddNumeric("x2", []float64{1, 0, -0.5}))
	require.NoError(t, future.AddCategorical("dow", []string{"Tue", "Sun", "Mon"}))

	return rec, future
}

// requireSamePredictions asserts both records score the table identically.
func requireSamePredictions(t *testing.T, want, got *regression.TrainingRecord, tbl *dataset.Table) {
	t.Helper()
	wp, _, err := want.Predict(tbl)
	require.NoError(t, err)
	gp, _, err := got.Predict(tbl)
	require.NoError(t, err)
	require.Len(t, gp, len(wp))
	for i := range wp {
		require.InDelta(t, wp[i], gp[i], 1e-12)
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	rec, future := trainedRecord(t,
		regression.WithNormalization(regression.NormalizeStatistical),
		regression.WithBounds(-100, 100))

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, rec))

	loaded, err := Load(&buf)
	require.NoError(t, err)

	require.Equal(t, rec.Algorithm, loaded.Algorithm)
	require.Equal(t, rec.ColNames, loaded.ColNames)
	require.Equal(t, rec.ResponseCol, loaded.ResponseCol)
	require.InDelta(t, rec.YMean, loaded.YMean, 1e-12)
	require.InDelta(t, rec.YStd, loaded.YStd, 1e-12)
	require.InDelta(t, rec.PEffective, loaded.PEffective, 1e-9)
	require.InDelta(t, rec.SigmaScaler, loaded.SigmaScaler, 1e-12)
	require.Equal(t, rec.Bounds, loaded.Bounds)
	require.Equal(t, rec.Model.Coefficients(), loaded.Model.Coefficients())
	require.InDelta(t, rec.Model.Intercept(), loaded.Model.Intercept(), 1e-12)

	requireSamePredictions(t, rec, loaded, future)

	// The training design and hat matrix are not retained.
	require.Nil(t, loaded.X)
	require.Nil(t, loaded.HatMatrix)
}

func TestSaveLoad_Compression(t *testing.T) {
	rec, future := trainedRecord(t)

	for _, c := range []format.CompressionType{
		format.CompressionNone,
		format.CompressionZstd,
		format.CompressionS2,
		format.CompressionLZ4,
	} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Save(&buf, rec, WithCompression(c)))
			require.Equal(t, byte(c), buf.Bytes()[5])

			loaded, err := Load(&buf)
			require.NoError(t, err)
			requireSamePredictions(t, rec, loaded, future)
		})
	}

	t.Run("unknown codec is rejected at save time", func(t *testing.T) {
		var buf bytes.Buffer
		err := Save(&buf, rec, WithCompression(format.CompressionType(0x99)))
		require.Error(t, err)
		require.Zero(t, buf.Len())
	})
}

func TestSaveLoad_Uncertainty(t *testing.T) {
	rng := rand.New(rand.NewPCG(11, 0))
	days := []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

	n := 210
	x1 := make([]float64, n)
	dow := make([]string, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = rng.NormFloat64()
		dow[i] = days[i%len(days)]
		y[i] = 3 + 2*x1[i] + rng.NormFloat64()
	}
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("y", y))
	require.NoError(t, tbl.AddNumeric("x1", x1))
	require.NoError(t, tbl.AddCategorical("dow", dow))

	rec, err := regression.Fit(tbl, "y ~ x1", regression.AlgorithmLinear,
		regression.WithUncertainty(&uncertainty.Spec{
			Method:              uncertainty.MethodSimpleConditionalResiduals,
			ConditionalCols:     []string{"dow"},
			Quantiles:           []float64{0.025, 0.975},
			SampleSizeThresh:    5,
			SmallSampleQuantile: 0.98,
		}))
	require.NoError(t, err)
	require.NotNil(t, rec.Uncertainty)

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, rec))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.NotNil(t, loaded.Uncertainty)
	require.True(t, loaded.Uncertainty.Fitted())

	want, err := rec.PredictWithUncertainty(tbl)
	require.NoError(t, err)
	got, err := loaded.PredictWithUncertainty(tbl)
	require.NoError(t, err)
	require.Len(t, got.Quantiles, len(want.Quantiles))
	for i := range want.Quantiles {
		require.InDelta(t, want.Values[i], got.Values[i], 1e-12)
		require.InDelta(t, want.Quantiles[i][0], got.Quantiles[i][0], 1e-12)
		require.InDelta(t, want.Quantiles[i][1], got.Quantiles[i][1], 1e-12)
	}
}

func TestSaveLoad_UndefinedScalers(t *testing.T) {
	// Three observations against three design columns: the variance
	// scaler is undefined and must survive the trip as NaN.
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("y", []float64{1, 2, 4}))
	require.NoError(t, tbl.AddNumeric("x1", []float64{1, 2, 3}))
	require.NoError(t, tbl.AddNumeric("x2", []float64{2, 1, 5}))

	rec, err := regression.Fit(tbl, "y ~ x1 + x2", regression.AlgorithmLinear)
	require.NoError(t, err)
	require.True(t, math.IsNaN(rec.SigmaScaler))

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, rec))
	loaded, err := Load(&buf)
	require.NoError(t, err)
	require.True(t, math.IsNaN(loaded.SigmaScaler))
	require.InDelta(t, rec.PEffective, loaded.PEffective, 1e-9)
}

func TestSave_TreeEnsemble(t *testing.T) {
	rng := rand.New(rand.NewPCG(5, 0))
	n := 60
	x1 := make([]float64, n)
	y := make([]float64, n)
	for i := 0; i < n; i++ {
		x1[i] = rng.NormFloat64()
		y[i] = x1[i] * x1[i]
	}
	tbl := dataset.New()
	require.NoError(t, tbl.AddNumeric("y", y))
	require.NoError(t, tbl.AddNumeric("x1", x1))

	rec, err := regression.Fit(tbl, "y ~ x1", regression.AlgorithmRandomForest,
		regression.WithAlgorithmOptions(&regression.ForestOptions{
			Trees: 5, MaxDepth: 4, MinSamplesLeaf: 2, Seed: 1,
		}))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.ErrorIs(t, Save(&buf, rec), ErrNotSerializable)
}

func TestLoad_Errors(t *testing.T) {
	rec, _ := trainedRecord(t)
	var good bytes.Buffer
	require.NoError(t, Save(&good, rec))

	t.Run("wrong magic", func(t *testing.T) {
		raw := append([]byte(nil), good.Bytes()...)
		copy(raw, "NOPE")
		_, err := Load(bytes.NewReader(raw))
		require.ErrorIs(t, err, ErrBadMagic)
	})

	t.Run("unsupported version", func(t *testing.T) {
		raw := append([]byte(nil), good.Bytes()...)
		raw[4] = 99
		_, err := Load(bytes.NewReader(raw))
		require.ErrorIs(t, err, ErrBadVersion)
	})

	t.Run("unknown codec byte", func(t *testing.T) {
		raw := append([]byte(nil), good.Bytes()...)
		raw[5] = 0x99
		_, err := Load(bytes.NewReader(raw))
		require.Error(t, err)
	})

	t.Run("truncated header", func(t *testing.T) {
		_, err := Load(bytes.NewReader(good.Bytes()[:6]))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("truncated payload", func(t *testing.T) {
		raw := good.Bytes()
		_, err := Load(bytes.NewReader(raw[:len(raw)-3]))
		require.ErrorIs(t, err, io.ErrUnexpectedEOF)
	})

	t.Run("corrupt payload", func(t *testing.T) {
		raw := append([]byte(nil), good.Bytes()...)
		for i := 10; i < len(raw); i++ {
			raw[i] ^= 0xFF
		}
		_, err := Load(bytes.NewReader(raw))
		require.Error(t, err)
	})
}
