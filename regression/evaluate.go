package regression

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/tsfit/tsfit/dataset"
)

// ErrBadTrainingFraction is returned when the training fraction is
// outside (0, 1].
var ErrBadTrainingFraction = errors.New("training fraction must be in (0, 1]")

// Evaluation holds held-out error metrics. It is nil (not zero-valued)
// when evaluation was skipped because the whole table was used for
// training, so "skipped" stays distinguishable from "empty test set".
type Evaluation struct {
	// MAE is the mean absolute error on the held-out rows.
	MAE float64
	// RMSE is the root-mean-square error on the held-out rows.
	RMSE float64
	// Correlation is the Pearson correlation between held-out actuals and
	// predictions, NaN when either side is constant.
	Correlation float64
	// NumTestRows is the held-out sample size.
	NumTestRows int
}

// FitWithEvaluation splits t into a training prefix and test suffix by
// trainFrac, fits on the training split, and computes error metrics on
// the held-out split. A fraction of 1 trains on everything and returns a
// nil Evaluation.
func FitWithEvaluation(t *dataset.Table, formulaStr string, algo Algorithm, trainFrac float64, opts ...FitOption) (*TrainingRecord, *Evaluation, error) {
	if trainFrac <= 0 || trainFrac > 1 {
		return nil, nil, fmt.Errorf("%w: %v", ErrBadTrainingFraction, trainFrac)
	}

	if trainFrac == 1 {
		rec, err := Fit(t, formulaStr, algo, opts...)

		return rec, nil, err
	}

	train, test, err := t.Split(trainFrac)
	if err != nil {
		return nil, nil, err
	}

	rec, err := Fit(train, formulaStr, algo, opts...)
	if err != nil {
		return nil, nil, err
	}

	// Missing values in the held-out rows are dropped the same way the
	// fit drops them, keeping actuals aligned with predictions.
	needed := append([]string{rec.ResponseCol}, rec.Info.TermColumns()...)
	testClean, _, err := test.DropNA(needed)
	if err != nil {
		return nil, nil, err
	}

	eval := &Evaluation{NumTestRows: testClean.NumRows()}
	if eval.NumTestRows > 0 {
		preds, _, perr := rec.Predict(testClean)
		if perr != nil {
			return nil, nil, perr
		}
		actual, aerr := testClean.Numeric(rec.ResponseCol)
		if aerr != nil {
			return nil, nil, aerr
		}

		var absSum, sqSum float64
		for i, p := range preds {
			d := p - actual[i]
			absSum += math.Abs(d)
			sqSum += d * d
		}
		n := float64(len(preds))
		eval.MAE = absSum / n
		eval.RMSE = math.Sqrt(sqSum / n)
		eval.Correlation = stat.Correlation(actual, preds, nil)
	}

	return rec, eval, nil
}
