package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/formula"
	"github.com/tsfit/tsfit/uncertainty"
)

// Bounds restricts predictions to an admissible value range. Use the
// infinities for one-sided bounds.
type Bounds struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Clip forces v into [Min, Max].
func (b *Bounds) Clip(v float64) float64 {
	if b == nil {
		return v
	}
	if v < b.Min {
		return b.Min
	}
	if v > b.Max {
		return b.Max
	}

	return v
}

// TrainingRecord is the immutable result of a fit: the fitted model, the
// replayable design-matrix and normalization transforms, the residual
// bookkeeping needed for uncertainty intervals, and the in-sample fitted
// values. Produced once by Fit and consumed read-only afterwards.
type TrainingRecord struct {
	// Algorithm is the algorithm the model was fitted with.
	Algorithm Algorithm
	// Model is the fitted model handle.
	Model Model
	// Info replays the design-matrix transform on new tables.
	Info *formula.DesignInfo
	// X is the training design matrix after intercept removal and
	// normalization, exactly as the model saw it.
	X *mat.Dense
	// ColNames are X's column names.
	ColNames []string
	// Y is the training response.
	Y []float64
	// YMean and YStd are the response's mean and population standard
	// deviation.
	YMean float64
	YStd  float64
	// ResponseCol is the response column name.
	ResponseCol string
	// WeightCol names the per-row weight column, empty when unweighted.
	WeightCol string
	// Normalization is the fitted column transform, nil when none.
	Normalization *Normalization
	// RemovedIntercept names the intercept column dropped before fitting,
	// empty when nothing was dropped.
	RemovedIntercept string
	// RidgePenalty is the L2 penalty used for the hat matrix, zero for
	// unpenalized fits.
	RidgePenalty float64
	// HatMatrix and PEffective are the effective-degrees-of-freedom
	// bookkeeping; nil and NaN for algorithms without a hat matrix.
	HatMatrix  *mat.Dense
	PEffective float64
	// SigmaScaler is sqrt((n-1)/(n-p_effective)), NaN when undefined.
	SigmaScaler float64
	// XMean holds the column means used to center X for the ridge hat
	// matrix, nil otherwise.
	XMean []float64
	// FittedValues are the in-sample predictions, after clipping.
	FittedValues []float64
	// Bounds are the admissible prediction bounds, nil when unbounded.
	Bounds *Bounds
	// Uncertainty is the fitted interval model, nil when not requested.
	Uncertainty *uncertainty.ConditionalResiduals
	// Summary is a human-readable fit summary.
	Summary *ModelSummary
	// Warnings collects the non-fatal conditions hit during the fit.
	Warnings []string
}

// NumObservations returns the training sample size.
func (r *TrainingRecord) NumObservations() int { return len(r.Y) }

// HasEffectiveDF reports whether the effective-parameter bookkeeping is
// defined for this record.
func (r *TrainingRecord) HasEffectiveDF() bool {
	return r.HatMatrix != nil && !math.IsNaN(r.PEffective)
}

// residualScale returns the sigma scaler, treating the undefined case as
// an identity scaling.
func (r *TrainingRecord) residualScale() float64 {
	if math.IsNaN(r.SigmaScaler) || r.SigmaScaler == 0 {
		return 1
	}

	return r.SigmaScaler
}
