// Package tsfit fits regression models for time-series forecasting.
//
// The workflow runs through four layers:
//
//   - dataset: in-memory tables of numeric and categorical columns
//   - formula: Wilkinson-style formula parsing and design-matrix
//     construction with a replayable transform descriptor
//   - regression: algorithm dispatch (least squares through gradient
//     boosting), effective degrees of freedom, fit/predict/evaluation
//     orchestration
//   - uncertainty and breakdown: conditional-residual prediction
//     intervals and regex-grouped prediction decomposition
//
// Fitted records save to a compact compressed envelope via the persist
// package.
//
// # Basic Usage
//
// Fitting a model and predicting with intervals:
//
//	tbl := dataset.New()
//	_ = tbl.AddNumeric("y", ys)
//	_ = tbl.AddNumeric("x1", x1s)
//
//	rec, err := regression.Fit(tbl, "y ~ x1", regression.AlgorithmRidge,
//		regression.WithUncertainty(nil))
//	if err != nil {
//		return err
//	}
//	res, err := rec.PredictWithUncertainty(futureTbl)
//
// All fitting is deterministic for a given seed, single-threaded, and
// free of shared mutable state; every record is independent of every
// other.
package tsfit

// Version is the current library version.
const Version = "0.3.1"
