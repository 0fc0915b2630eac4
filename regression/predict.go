package regression

import (
	"errors"

	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/dataset"
)

// ErrNoUncertainty is returned by the uncertainty-aware predict when the
// record was fitted without an uncertainty spec.
var ErrNoUncertainty = errors.New("record has no fitted uncertainty model")

// PredictionResult is the output of the uncertainty-aware predict.
type PredictionResult struct {
	// Values are the point predictions, clipped to the record's bounds.
	Values []float64
	// Quantiles has one row per prediction and one column per configured
	// quantile level.
	Quantiles [][]float64
	// ResidualStd is the per-row residual standard deviation estimate.
	ResidualStd []float64
	// X is the design matrix the predictions were computed from.
	X *mat.Dense
}

// Predict replays the stored design-matrix transform on t and returns the
// point predictions together with the design matrix used. The table must
// reproduce the training columns exactly; unseen categorical levels are an
// error. Predicting on the training table reproduces the stored in-sample
// fitted values.
func (r *TrainingRecord) Predict(t *dataset.Table) ([]float64, *mat.Dense, error) {
	x, err := r.designFor(t)
	if err != nil {
		return nil, nil, err
	}

	preds := r.Model.Predict(x)
	if r.Bounds != nil {
		for i, v := range preds {
			preds[i] = r.Bounds.Clip(v)
		}
	}

	return preds, x, nil
}

// PredictWithUncertainty predicts like Predict and additionally attaches
// the fitted uncertainty model's quantile intervals and residual-std
// estimates.
func (r *TrainingRecord) PredictWithUncertainty(t *dataset.Table) (*PredictionResult, error) {
	if r.Uncertainty == nil {
		return nil, ErrNoUncertainty
	}

	preds, x, err := r.Predict(t)
	if err != nil {
		return nil, err
	}
	up, err := r.Uncertainty.Predict(t, preds)
	if err != nil {
		return nil, err
	}

	return &PredictionResult{
		Values:      preds,
		Quantiles:   up.Quantiles,
		ResidualStd: up.Std,
		X:           x,
	}, nil
}

// designFor replays the design-matrix, intercept-removal, and
// normalization transforms on a prediction table.
func (r *TrainingRecord) designFor(t *dataset.Table) (*mat.Dense, error) {
	dm, err := r.Info.Apply(t)
	if err != nil {
		return nil, err
	}
	if r.RemovedIntercept != "" {
		for j, name := range dm.ColNames {
			if name == r.RemovedIntercept {
				dm = dm.DropCol(j)
				break
			}
		}
	}
	if err := r.Normalization.Apply(dm.X); err != nil {
		return nil, err
	}

	return dm.X, nil
}
