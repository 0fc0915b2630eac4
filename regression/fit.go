// Package regression fits regression models for time-series forecasting:
// it builds a design matrix from a model formula, dispatches the fit to
// one of the supported algorithms, tracks effective degrees of freedom
// for linear-family fits, and packages the result into a replayable
// training record with optional prediction intervals.
package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tsfit/tsfit/dataset"
	"github.com/tsfit/tsfit/formula"
	"github.com/tsfit/tsfit/internal/options"
	"github.com/tsfit/tsfit/uncertainty"
)

var (
	// ErrTooFewRows is returned when fewer than 3 usable rows remain
	// after dropping missing values.
	ErrTooFewRows = errors.New("model training requires at least 3 observations")
	// ErrNegativeWeights is returned when the weight column holds a
	// negative value.
	ErrNegativeWeights = errors.New("weights can not be negative")
)

// fitConfig collects the optional fit parameters.
type fitConfig struct {
	weightCol       string
	uncertaintySpec *uncertainty.Spec
	normalize       NormalizeMethod
	removeIntercept bool
	bounds          *Bounds
	algoParams      any
}

// FitOption configures a Fit call.
type FitOption = options.Option[*fitConfig]

// WithWeightColumn selects a numeric column as per-row sample weights.
func WithWeightColumn(name string) FitOption {
	return options.NoError(func(c *fitConfig) { c.weightCol = name })
}

// WithUncertainty fits a conditional-residuals interval model on the
// training residuals. A nil spec uses the defaults.
func WithUncertainty(spec *uncertainty.Spec) FitOption {
	return options.New(func(c *fitConfig) error {
		validated, err := spec.Validate()
		if err != nil {
			return err
		}
		c.uncertaintySpec = validated

		return nil
	})
}

// WithNormalization applies the column normalization policy to the design
// matrix before fitting.
func WithNormalization(m NormalizeMethod) FitOption {
	return options.New(func(c *fitConfig) error {
		if _, ok := normalizeNames[m]; !ok {
			return fmt.Errorf("unknown normalization method %d", m)
		}
		c.normalize = m

		return nil
	})
}

// WithRemoveIntercept drops the intercept column from the design matrix
// before fitting.
func WithRemoveIntercept() FitOption {
	return options.NoError(func(c *fitConfig) { c.removeIntercept = true })
}

// WithBounds clips predictions (including in-sample fitted values) into
// [min, max].
func WithBounds(min, max float64) FitOption {
	return options.New(func(c *fitConfig) error {
		if min > max {
			return fmt.Errorf("bounds min %v exceeds max %v", min, max)
		}
		c.bounds = &Bounds{Min: min, Max: max}

		return nil
	})
}

// WithAlgorithmOptions passes the algorithm-specific option struct, e.g.
// *RidgeOptions for AlgorithmRidge.
func WithAlgorithmOptions(params any) FitOption {
	return options.NoError(func(c *fitConfig) { c.algoParams = params })
}

// Fit builds the design matrix for the formula on t, fits the requested
// algorithm, and returns the training record. Rows with missing values in
// any referenced column are dropped with a warning; fewer than 3 usable
// rows is an error.
func Fit(t *dataset.Table, formulaStr string, algo Algorithm, opts ...FitOption) (*TrainingRecord, error) {
	cfg := &fitConfig{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	f, err := formula.Parse(formulaStr)
	if err != nil {
		return nil, err
	}
	if _, ok := fitters[algo]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrAlgorithmNotFound, algo.String())
	}

	var warnings []string

	// Drop rows unusable by the fit; the uncertainty conditioning columns
	// must survive the same filter so residual rows stay aligned.
	needed := append([]string{f.Response}, f.Terms...)
	if cfg.weightCol != "" {
		needed = append(needed, cfg.weightCol)
	}
	if cfg.uncertaintySpec != nil {
		needed = append(needed, cfg.uncertaintySpec.ConditionalCols...)
	}
	clean, dropped, err := t.DropNA(needed)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		warnings = append(warnings, fmt.Sprintf("dropped %d rows with missing values", dropped))
	}
	n := clean.NumRows()
	if n < 3 {
		return nil, ErrTooFewRows
	}

	var weights []float64
	if cfg.weightCol != "" {
		weights, err = clean.Numeric(cfg.weightCol)
		if err != nil {
			return nil, err
		}
		for _, w := range weights {
			if w < 0 {
				return nil, ErrNegativeWeights
			}
		}
		if !weightsAllowed[algo] {
			return nil, fmt.Errorf("%w: %s", ErrWeightsNotSupported, algo)
		}
	}

	dm, err := formula.Build(f, clean)
	if err != nil {
		return nil, err
	}

	removedIntercept := ""
	if cfg.removeIntercept {
		if j := dm.InterceptCol(); j >= 0 {
			removedIntercept = dm.ColNames[j]
			dm = dm.DropCol(j)
		}
	}

	norm := fitNormalization(dm.X, cfg.normalize, dm.InterceptCol())
	if err := norm.Apply(dm.X); err != nil {
		return nil, err
	}

	model, err := FitAlgorithm(dm.X, dm.Y, algo, weights, cfg.algoParams)
	if err != nil {
		return nil, err
	}

	rec := &TrainingRecord{
		Algorithm:        algo,
		Model:            model,
		Info:             dm.Info,
		X:                dm.X,
		ColNames:         dm.ColNames,
		Y:                dm.Y,
		YMean:            stat.Mean(dm.Y, nil),
		YStd:             popStdDev(dm.Y),
		ResponseCol:      f.Response,
		WeightCol:        cfg.weightCol,
		Normalization:    norm,
		RemovedIntercept: removedIntercept,
		PEffective:       math.NaN(),
		SigmaScaler:      math.NaN(),
		Bounds:           cfg.bounds,
	}

	if IsLinearFamily(algo) {
		if err := rec.computeEffectiveDF(cfg); err != nil {
			return nil, err
		}
		if math.IsNaN(rec.SigmaScaler) {
			warnings = append(warnings,
				"zero residual degrees of freedom, variance scaling left undefined")
		}
	}

	rec.FittedValues = model.Predict(dm.X)
	if cfg.bounds != nil {
		for i, v := range rec.FittedValues {
			rec.FittedValues[i] = cfg.bounds.Clip(v)
		}
	}

	if cfg.uncertaintySpec != nil {
		um, uerr := uncertainty.New(cfg.uncertaintySpec)
		if uerr != nil {
			return nil, uerr
		}
		scale := rec.residualScale()
		residuals := make([]float64, n)
		for i := range residuals {
			residuals[i] = (dm.Y[i] - rec.FittedValues[i]) * scale
		}
		if uerr := um.Fit(clean, residuals); uerr != nil {
			return nil, uerr
		}
		rec.Uncertainty = um
	}

	rec.Summary = newSummary(algo, dm.ColNames, model, n, rec.PEffective)
	rec.Warnings = warnings

	return rec, nil
}

// computeEffectiveDF fills the hat-matrix bookkeeping for linear-family
// fits. Ridge fits take the hat matrix on centered columns, with one
// extra effective parameter for the intercept the centering absorbs.
func (r *TrainingRecord) computeEffectiveDF(cfg *fitConfig) error {
	n := len(r.Y)
	if r.Algorithm == AlgorithmRidge {
		penalty := 1.0
		if opts, ok := cfg.algoParams.(*RidgeOptions); ok && opts != nil {
			penalty = opts.Penalty
		}
		r.RidgePenalty = penalty

		xc, means := centerColumns(r.X)
		h, pe, err := effectiveParams(xc, penalty)
		if err != nil {
			return err
		}
		if interceptIndex(r.ColNames) >= 0 {
			pe++
		}
		r.HatMatrix = h
		r.PEffective = pe
		r.XMean = means
	} else {
		h, pe, err := effectiveParams(r.X, 0)
		if err != nil {
			return err
		}
		r.HatMatrix = h
		r.PEffective = pe
	}
	r.SigmaScaler = sigmaScaler(n, r.PEffective)

	return nil
}

func interceptIndex(colNames []string) int {
	for j, name := range colNames {
		if name == formula.InterceptName {
			return j
		}
	}

	return -1
}

// popStdDev is the population (divide-by-n) standard deviation.
func popStdDev(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	mean := stat.Mean(vals, nil)
	var ss float64
	for _, v := range vals {
		d := v - mean
		ss += d * d
	}

	return math.Sqrt(ss / float64(len(vals)))
}
