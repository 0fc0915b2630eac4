// Package breakdown decomposes a linear model's predictions into named
// additive components for explainability. Design columns are claimed by
// ordered regex groups; each group's contribution is the row-wise sum of
// column value times fitted coefficient, and the per-row contributions
// always sum back to the raw prediction.
package breakdown

import (
	"errors"
	"fmt"
	"math"
	"regexp"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/tsfit/tsfit/formula"
	"github.com/tsfit/tsfit/regression"
)

const (
	// InterceptGroup is the name of the implicit intercept singleton
	// group.
	InterceptGroup = "Intercept"
	// DefaultRemainderName collects the columns no pattern claimed.
	DefaultRemainderName = "OTHER"
)

// Denominator identifiers accepted by Options.
const (
	// DenominatorNone applies no scaling.
	DenominatorNone = ""
	// DenominatorAbsYMean divides every contribution by the absolute
	// training response mean.
	DenominatorAbsYMean = "abs_y_mean"
)

var (
	// ErrNoCoefficients is returned for models without a linear
	// coefficient decomposition, such as tree ensembles.
	ErrNoCoefficients = errors.New("model does not expose coefficients")
	// ErrZeroDenominator is returned when the scaling denominator
	// evaluates to zero.
	ErrZeroDenominator = errors.New("breakdown denominator is zero")
)

// notImplementedDenominator formats the error for unknown denominator
// identifiers.
func notImplementedDenominator(name string) error {
	return fmt.Errorf("%s is not an admissible denominator", name)
}

// Group pairs a component name with the regex claiming its columns.
type Group struct {
	// Name labels the component in the result.
	Name string
	// Pattern is the regex matched against design-column names.
	Pattern string
}

// Options configures a decomposition.
type Options struct {
	// Center subtracts each group's mean contribution, moving the removed
	// means into the intercept group so the row sums are preserved.
	Center bool
	// Denominator scales all contributions; see the Denominator
	// constants.
	Denominator string
	// RemainderName labels the group of unclaimed columns. Empty uses
	// DefaultRemainderName.
	RemainderName string
}

// Result is a fitted decomposition.
type Result struct {
	// Names lists the group names in evaluation order: intercept first,
	// then the configured groups, then the remainder.
	Names []string
	// Contributions maps each group name to its per-row contribution
	// series.
	Contributions map[string][]float64
	// Columns maps each group name to the design columns it claimed.
	Columns map[string][]string
}

// Sum returns the per-row total across all groups. Without centering or
// scaling this equals the raw model prediction.
func (r *Result) Sum() []float64 {
	var out []float64
	for _, name := range r.Names {
		c := r.Contributions[name]
		if out == nil {
			out = make([]float64, len(c))
		}
		for i, v := range c {
			out[i] += v
		}
	}

	return out
}

// Decompose partitions the prediction on x into named groups. Patterns
// claim columns first-match-wins in the given order; a column never
// belongs to two groups, and unclaimed columns land in the remainder
// group. The intercept (the intercept design column plus the model's own
// intercept term) is always its own singleton group.
func Decompose(rec *regression.TrainingRecord, x *mat.Dense, groups []Group, opts *Options) (*Result, error) {
	if opts == nil {
		opts = &Options{}
	}
	switch opts.Denominator {
	case DenominatorNone, DenominatorAbsYMean:
	default:
		return nil, notImplementedDenominator(opts.Denominator)
	}

	coef := rec.Model.Coefficients()
	if len(coef) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCoefficients, rec.Algorithm)
	}
	n, p := x.Dims()
	if p != len(coef) {
		return nil, fmt.Errorf("design matrix has %d columns, model has %d coefficients", p, len(coef))
	}

	remainder := opts.RemainderName
	if remainder == "" {
		remainder = DefaultRemainderName
	}

	// First-match-wins column claiming over the not-yet-claimed pool.
	assign := make([]int, p) // group index per column, -1 = remainder
	for j := range assign {
		assign[j] = -1
	}
	colsOf := make(map[string][]string)
	for gi, g := range groups {
		re, err := regexp.Compile(g.Pattern)
		if err != nil {
			return nil, fmt.Errorf("group %q: %w", g.Name, err)
		}
		for j, name := range rec.ColNames {
			if assign[j] != -1 || name == formula.InterceptName {
				continue
			}
			if re.MatchString(name) {
				assign[j] = gi
				colsOf[g.Name] = append(colsOf[g.Name], name)
			}
		}
	}

	names := make([]string, 0, len(groups)+2)
	names = append(names, InterceptGroup)
	for _, g := range groups {
		names = append(names, g.Name)
	}
	names = append(names, remainder)

	contrib := make(map[string][]float64, len(names))
	for _, name := range names {
		contrib[name] = make([]float64, n)
	}

	// Intercept group: the intercept column's contribution plus the
	// model's separately estimated intercept.
	intercept := contrib[InterceptGroup]
	for i := range intercept {
		intercept[i] = rec.Model.Intercept()
	}
	for j, name := range rec.ColNames {
		var target []float64
		switch {
		case name == formula.InterceptName:
			target = intercept
		case assign[j] >= 0:
			target = contrib[groups[assign[j]].Name]
		default:
			target = contrib[remainder]
			colsOf[remainder] = append(colsOf[remainder], name)
		}
		for i := 0; i < n; i++ {
			target[i] += x.At(i, j) * coef[j]
		}
	}

	if opts.Center {
		// Removed group means accumulate in the intercept so each row
		// still sums to the raw prediction.
		for _, name := range names[1:] {
			c := contrib[name]
			mean := stat.Mean(c, nil)
			for i := range c {
				c[i] -= mean
			}
			for i := range intercept {
				intercept[i] += mean
			}
		}
	}

	if opts.Denominator == DenominatorAbsYMean {
		denom := math.Abs(rec.YMean)
		if denom == 0 {
			return nil, ErrZeroDenominator
		}
		for _, name := range names {
			c := contrib[name]
			for i := range c {
				c[i] /= denom
			}
		}
	}

	return &Result{
		Names:         names,
		Contributions: contrib,
		Columns:       colsOf,
	}, nil
}
