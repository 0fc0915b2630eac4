package regression

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAlgorithm_StringRoundTrip(t *testing.T) {
	algos := []Algorithm{
		AlgorithmLinear, AlgorithmRidge, AlgorithmLasso, AlgorithmLassoLars,
		AlgorithmLars, AlgorithmElasticNet, AlgorithmSGD, AlgorithmRandomForest,
		AlgorithmGradientBoosting, AlgorithmHistGradientBoosting,
		AlgorithmQuantileRegression, AlgorithmOLS, AlgorithmWLS, AlgorithmGLS,
		AlgorithmGLM,
	}
	for _, a := range algos {
		got, err := ParseAlgorithm(a.String())
		require.NoError(t, err, a.String())
		require.Equal(t, a, got)
	}

	_, err := ParseAlgorithm("not_an_algorithm")
	require.ErrorIs(t, err, ErrAlgorithmNotFound)

	require.Equal(t, "algorithm(0)", Algorithm(0).String())
}

func TestFitAlgorithm_AllLinearAlgorithms(t *testing.T) {
	x, y := designMatrix(200, 3)

	// Every linear-family and shrinkage algorithm must produce a model
	// whose predictions track y = 10 + 2*x1 + 4*x2 on the clean design.
	cases := []struct {
		algo   Algorithm
		params any
		tol    float64
	}{
		{AlgorithmLinear, nil, 1e-6},
		{AlgorithmOLS, &LeastSquaresOptions{ComputeStats: true}, 1e-6},
		{AlgorithmWLS, nil, 1e-6},
		{AlgorithmGLS, nil, 1e-6},
		{AlgorithmRidge, &RidgeOptions{Penalty: 1e-8}, 1e-4},
		{AlgorithmLasso, &ElasticNetOptions{Lambda: 1e-8, L1Ratio: 1, Iterations: 5000, Tolerance: 1e-12, FitIntercept: true}, 1e-3},
		{AlgorithmElasticNet, &ElasticNetOptions{Lambda: 1e-8, L1Ratio: 0.5, Iterations: 5000, Tolerance: 1e-12, FitIntercept: true}, 1e-3},
		{AlgorithmLars, nil, 1e-4},
		{AlgorithmLassoLars, &LarsOptions{Lambda: 1e-10, FitIntercept: true}, 1e-3},
		{AlgorithmQuantileRegression, nil, 1e-4},
	}

	for _, tc := range cases {
		t.Run(tc.algo.String(), func(t *testing.T) {
			m, err := FitAlgorithm(x, y, tc.algo, nil, tc.params)
			require.NoError(t, err)

			pred := m.Predict(x)
			for i := range y {
				require.InDelta(t, y[i], pred[i], tc.tol)
			}
		})
	}
}

func TestFitAlgorithm_TreeEnsembles(t *testing.T) {
	x, y := designMatrix(300, 5)

	cases := []struct {
		algo   Algorithm
		params any
	}{
		{AlgorithmRandomForest, &ForestOptions{Trees: 30, MaxDepth: 10, MinSamplesLeaf: 2, Seed: 1}},
		{AlgorithmGradientBoosting, &BoostOptions{Trees: 100, LearningRate: 0.1, MaxDepth: 3, MinSamplesLeaf: 1, Subsample: 1, Seed: 1}},
		{AlgorithmHistGradientBoosting, &HistBoostOptions{Trees: 100, LearningRate: 0.1, MaxDepth: 4, MinSamplesLeaf: 2, MaxBins: 64}},
	}

	for _, tc := range cases {
		t.Run(tc.algo.String(), func(t *testing.T) {
			m, err := FitAlgorithm(x, y, tc.algo, nil, tc.params)
			require.NoError(t, err)
			require.Nil(t, m.Coefficients())

			// Tree ensembles approximate; just demand a sane training fit.
			pred := m.Predict(x)
			var sse, sst float64
			for i := range y {
				sse += (y[i] - pred[i]) * (y[i] - pred[i])
				sst += (y[i] - 10) * (y[i] - 10)
			}
			require.Less(t, sse, sst)
		})
	}
}

func TestFitAlgorithm_Weights(t *testing.T) {
	x, y := designMatrix(50, 7)
	w := make([]float64, 50)
	for i := range w {
		w[i] = 1
	}

	t.Run("weight-capable algorithms accept weights", func(t *testing.T) {
		for _, algo := range []Algorithm{AlgorithmLinear, AlgorithmRidge, AlgorithmWLS, AlgorithmGLS} {
			_, err := FitAlgorithm(x, y, algo, w, nil)
			require.NoError(t, err, algo.String())
			require.True(t, WeightsAllowed(algo))
		}
	})

	t.Run("weight-free algorithms reject weights", func(t *testing.T) {
		for _, algo := range []Algorithm{AlgorithmLasso, AlgorithmElasticNet, AlgorithmLars, AlgorithmLassoLars, AlgorithmQuantileRegression} {
			_, err := FitAlgorithm(x, y, algo, w, nil)
			require.ErrorIs(t, err, ErrWeightsNotSupported, algo.String())
			require.False(t, WeightsAllowed(algo))
		}
	})
}

func TestFitAlgorithm_Errors(t *testing.T) {
	x, y := designMatrix(20, 9)

	t.Run("unknown algorithm", func(t *testing.T) {
		_, err := FitAlgorithm(x, y, Algorithm(200), nil, nil)
		require.ErrorIs(t, err, ErrAlgorithmNotFound)
	})

	t.Run("wrong options type", func(t *testing.T) {
		_, err := FitAlgorithm(x, y, AlgorithmRidge, nil, &LarsOptions{})
		require.ErrorIs(t, err, ErrBadAlgorithmOptions)
	})
}

func TestIsLinearFamily(t *testing.T) {
	for _, algo := range []Algorithm{AlgorithmLinear, AlgorithmOLS, AlgorithmWLS, AlgorithmGLS, AlgorithmRidge} {
		require.True(t, IsLinearFamily(algo), algo.String())
	}
	for _, algo := range []Algorithm{AlgorithmLasso, AlgorithmSGD, AlgorithmRandomForest, AlgorithmGLM} {
		require.False(t, IsLinearFamily(algo), algo.String())
	}
}
