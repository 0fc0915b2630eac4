package regression

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/internal/linmodel"
	"github.com/tsfit/tsfit/internal/tree"
)

// Algorithm identifies a fitting algorithm.
type Algorithm uint8

const (
	// AlgorithmLinear is unpenalized least squares.
	AlgorithmLinear Algorithm = iota + 1
	// AlgorithmRidge is L2-penalized least squares.
	AlgorithmRidge
	// AlgorithmLasso is L1-penalized least squares by coordinate descent.
	AlgorithmLasso
	// AlgorithmLassoLars is the lasso fitted along the LARS path.
	AlgorithmLassoLars
	// AlgorithmLars is least-angle regression.
	AlgorithmLars
	// AlgorithmElasticNet mixes L1 and L2 penalties.
	AlgorithmElasticNet
	// AlgorithmSGD is linear regression by stochastic gradient descent.
	AlgorithmSGD
	// AlgorithmRandomForest is a bagged ensemble of regression trees.
	AlgorithmRandomForest
	// AlgorithmGradientBoosting is a stagewise boosted tree ensemble.
	AlgorithmGradientBoosting
	// AlgorithmHistGradientBoosting is boosting on histogram-binned
	// features.
	AlgorithmHistGradientBoosting
	// AlgorithmQuantileRegression minimizes the pinball loss.
	AlgorithmQuantileRegression
	// AlgorithmOLS is ordinary least squares with inference statistics.
	AlgorithmOLS
	// AlgorithmWLS is weighted least squares.
	AlgorithmWLS
	// AlgorithmGLS is generalized least squares.
	AlgorithmGLS
	// AlgorithmGLM is a generalized linear model, Gamma family by default.
	AlgorithmGLM
)

var algorithmNames = map[Algorithm]string{
	AlgorithmLinear:               "linear",
	AlgorithmRidge:                "ridge",
	AlgorithmLasso:                "lasso",
	AlgorithmLassoLars:            "lasso_lars",
	AlgorithmLars:                 "lars",
	AlgorithmElasticNet:           "elastic_net",
	AlgorithmSGD:                  "sgd",
	AlgorithmRandomForest:         "random_forest",
	AlgorithmGradientBoosting:     "gradient_boosting",
	AlgorithmHistGradientBoosting: "hist_gradient_boosting",
	AlgorithmQuantileRegression:   "quantile_regression",
	AlgorithmOLS:                  "ols",
	AlgorithmWLS:                  "wls",
	AlgorithmGLS:                  "gls",
	AlgorithmGLM:                  "glm",
}

// String returns the algorithm identifier.
func (a Algorithm) String() string {
	if s, ok := algorithmNames[a]; ok {
		return s
	}

	return fmt.Sprintf("algorithm(%d)", a)
}

// ParseAlgorithm maps an algorithm identifier back to its value.
func ParseAlgorithm(s string) (Algorithm, error) {
	for a, name := range algorithmNames {
		if name == s {
			return a, nil
		}
	}

	return 0, fmt.Errorf("%w: %q", ErrAlgorithmNotFound, s)
}

var (
	// ErrAlgorithmNotFound is returned for unknown algorithm identifiers.
	ErrAlgorithmNotFound = errors.New("fit algorithm requested was not found")
	// ErrWeightsNotSupported is returned when per-row weights are supplied
	// to an algorithm that cannot honor them.
	ErrWeightsNotSupported = errors.New("sample weights are not supported by this algorithm")
	// ErrBadAlgorithmOptions is returned when the supplied options value
	// has the wrong type for the algorithm.
	ErrBadAlgorithmOptions = errors.New("unexpected algorithm options type")
)

// Model is the uniform fitted-model capability every algorithm returns.
// Coefficients is nil for tree ensembles, which have no linear
// decomposition.
type Model interface {
	Predict(x *mat.Dense) []float64
	Coefficients() []float64
	Intercept() float64
}

// Exported aliases for the per-algorithm option types, so callers can
// configure fits without reaching into internal packages.
type (
	// LeastSquaresOptions configures linear, OLS, WLS and GLS fits.
	LeastSquaresOptions = linmodel.LeastSquaresOptions
	// RidgeOptions configures ridge fits.
	RidgeOptions = linmodel.RidgeOptions
	// ElasticNetOptions configures lasso and elastic-net fits.
	ElasticNetOptions = linmodel.ElasticNetOptions
	// LarsOptions configures LARS and lasso-LARS fits.
	LarsOptions = linmodel.LarsOptions
	// SGDOptions configures SGD fits.
	SGDOptions = linmodel.SGDOptions
	// QuantileOptions configures quantile-regression fits.
	QuantileOptions = linmodel.QuantileOptions
	// GLMOptions configures GLM fits.
	GLMOptions = linmodel.GLMOptions
	// ForestOptions configures random-forest fits.
	ForestOptions = tree.ForestOptions
	// BoostOptions configures gradient-boosting fits.
	BoostOptions = tree.BoostOptions
	// HistBoostOptions configures histogram-gradient-boosting fits.
	HistBoostOptions = tree.HistBoostOptions
)

// fitFunc fits one algorithm. params carries the algorithm's option
// struct, or nil for defaults.
type fitFunc func(x *mat.Dense, y, weights []float64, params any) (Model, error)

// fitters is the fixed dispatch table. Every Algorithm value has exactly
// one entry; an identifier missing here is unknown, not unimplemented.
var fitters = map[Algorithm]fitFunc{
	AlgorithmLinear:               fitLeastSquares,
	AlgorithmOLS:                  fitLeastSquares,
	AlgorithmWLS:                  fitLeastSquares,
	AlgorithmGLS:                  fitGLS,
	AlgorithmRidge:                fitRidge,
	AlgorithmLasso:                fitLasso,
	AlgorithmElasticNet:           fitElasticNet,
	AlgorithmLars:                 fitLars,
	AlgorithmLassoLars:            fitLassoLars,
	AlgorithmSGD:                  fitSGD,
	AlgorithmQuantileRegression:   fitQuantile,
	AlgorithmGLM:                  fitGLM,
	AlgorithmRandomForest:         fitForest,
	AlgorithmGradientBoosting:     fitBoosted,
	AlgorithmHistGradientBoosting: fitHistBoosted,
}

// weightsAllowed lists the algorithms that honor per-row sample weights.
var weightsAllowed = map[Algorithm]bool{
	AlgorithmLinear:               true,
	AlgorithmOLS:                  true,
	AlgorithmWLS:                  true,
	AlgorithmGLS:                  true,
	AlgorithmRidge:                true,
	AlgorithmSGD:                  true,
	AlgorithmGLM:                  true,
	AlgorithmRandomForest:         true,
	AlgorithmGradientBoosting:     true,
	AlgorithmHistGradientBoosting: true,
}

// FitAlgorithm dispatches a fit to the requested algorithm. weights may be
// nil; supplying them to an algorithm that cannot honor them is an error,
// never a silent drop. params is the algorithm's option struct (e.g.
// *RidgeOptions for AlgorithmRidge) or nil for defaults.
func FitAlgorithm(x *mat.Dense, y []float64, algo Algorithm, weights []float64, params any) (Model, error) {
	fit, ok := fitters[algo]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrAlgorithmNotFound, algo.String())
	}
	if weights != nil && !weightsAllowed[algo] {
		return nil, fmt.Errorf("%w: %s", ErrWeightsNotSupported, algo)
	}

	return fit(x, y, weights, params)
}

// WeightsAllowed reports whether the algorithm honors per-row weights.
func WeightsAllowed(algo Algorithm) bool { return weightsAllowed[algo] }

// optionsAs asserts the algorithm options type, tolerating nil.
func optionsAs[T any](params any) (*T, error) {
	if params == nil {
		return nil, nil
	}
	opts, ok := params.(*T)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrBadAlgorithmOptions, params)
	}

	return opts, nil
}

func fitLeastSquares(x *mat.Dense, y, weights []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.LeastSquaresOptions](params)
	if err != nil {
		return nil, err
	}
	if weights != nil {
		return linmodel.FitWLS(x, y, weights, opts)
	}

	return linmodel.FitOLS(x, y, opts)
}

func fitGLS(x *mat.Dense, y, weights []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.LeastSquaresOptions](params)
	if err != nil {
		return nil, err
	}

	// With no covariance structure supplied, GLS reduces to OLS; weights
	// act as a diagonal inverse covariance.
	return linmodel.FitGLS(x, y, weights, opts)
}

func fitRidge(x *mat.Dense, y, weights []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.RidgeOptions](params)
	if err != nil {
		return nil, err
	}

	return linmodel.FitRidge(x, y, weights, opts)
}

func fitLasso(x *mat.Dense, y, _ []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.ElasticNetOptions](params)
	if err != nil {
		return nil, err
	}

	return linmodel.FitLasso(x, y, opts)
}

func fitElasticNet(x *mat.Dense, y, _ []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.ElasticNetOptions](params)
	if err != nil {
		return nil, err
	}

	return linmodel.FitElasticNet(x, y, opts)
}

func fitLars(x *mat.Dense, y, _ []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.LarsOptions](params)
	if err != nil {
		return nil, err
	}

	return linmodel.FitLars(x, y, opts)
}

func fitLassoLars(x *mat.Dense, y, _ []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.LarsOptions](params)
	if err != nil {
		return nil, err
	}

	return linmodel.FitLassoLars(x, y, opts)
}

func fitSGD(x *mat.Dense, y, weights []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.SGDOptions](params)
	if err != nil {
		return nil, err
	}

	return linmodel.FitSGD(x, y, weights, opts)
}

func fitQuantile(x *mat.Dense, y, _ []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.QuantileOptions](params)
	if err != nil {
		return nil, err
	}

	return linmodel.FitQuantile(x, y, opts)
}

func fitGLM(x *mat.Dense, y, weights []float64, params any) (Model, error) {
	opts, err := optionsAs[linmodel.GLMOptions](params)
	if err != nil {
		return nil, err
	}

	return linmodel.FitGLM(x, y, weights, opts)
}

func fitForest(x *mat.Dense, y, weights []float64, params any) (Model, error) {
	opts, err := optionsAs[tree.ForestOptions](params)
	if err != nil {
		return nil, err
	}

	return tree.FitForest(x, y, weights, opts)
}

func fitBoosted(x *mat.Dense, y, weights []float64, params any) (Model, error) {
	opts, err := optionsAs[tree.BoostOptions](params)
	if err != nil {
		return nil, err
	}

	return tree.FitBoosted(x, y, weights, opts)
}

func fitHistBoosted(x *mat.Dense, y, weights []float64, params any) (Model, error) {
	opts, err := optionsAs[tree.HistBoostOptions](params)
	if err != nil {
		return nil, err
	}

	return tree.FitHistBoosted(x, y, weights, opts)
}

// IsLinearFamily reports whether the algorithm produces a hat matrix, so
// effective degrees of freedom are well-defined.
func IsLinearFamily(algo Algorithm) bool {
	switch algo {
	case AlgorithmLinear, AlgorithmOLS, AlgorithmWLS, AlgorithmGLS, AlgorithmRidge:
		return true
	default:
		return false
	}
}
