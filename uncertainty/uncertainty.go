// Package uncertainty fits residual-quantile models for prediction
// intervals. The supported method partitions training residuals by the
// distinct combinations of conditioning column values and fits a normal
// distribution per group, with a pooled fallback for sparse groups and for
// combinations never seen during training.
package uncertainty

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/tsfit/tsfit/dataset"
	"github.com/tsfit/tsfit/internal/collision"
	"github.com/tsfit/tsfit/internal/hash"
)

// Method identifies an uncertainty-estimation method.
type Method uint8

// MethodSimpleConditionalResiduals is the only implemented method:
// per-group normal fits on conditional residuals.
const MethodSimpleConditionalResiduals Method = 1

var methodNames = map[Method]string{
	MethodSimpleConditionalResiduals: "simple_conditional_residuals",
}

// String returns the method name.
func (m Method) String() string {
	if s, ok := methodNames[m]; ok {
		return s
	}

	return fmt.Sprintf("method(%d)", m)
}

// ParseMethod maps a method name back to its value. Unknown names return
// the not-implemented error naming the method.
func ParseMethod(s string) (Method, error) {
	for m, name := range methodNames {
		if name == s {
			return m, nil
		}
	}

	return 0, notImplemented(s)
}

var (
	// ErrAlreadyFitted is returned when Fit is called twice; a fitted
	// model never transitions back.
	ErrAlreadyFitted = errors.New("uncertainty model already fitted")
	// ErrNotFitted is returned when Predict is called before Fit.
	ErrNotFitted = errors.New("uncertainty model not fitted")
	// ErrKeyCollision is returned when two distinct conditioning
	// combinations hash to the same group key.
	ErrKeyCollision = collision.ErrKeyCollision
)

func notImplemented(method string) error {
	return fmt.Errorf("uncertainty method: %s is not implemented", method)
}

// Spec configures a conditional-residuals model.
type Spec struct {
	// Method selects the estimation method.
	Method Method
	// ConditionalCols are the columns whose value combinations partition
	// the residuals. Empty means a single unconditional group.
	ConditionalCols []string
	// Quantiles are the interval levels to report, each in (0, 1).
	Quantiles []float64
	// SampleSizeThresh is the smallest group size fitted directly; smaller
	// groups fall back to the small-sample policy.
	SampleSizeThresh int
	// SmallSampleQuantile picks the std assigned to small groups: the
	// quantile, over the directly fitted groups, of their stds.
	SmallSampleQuantile float64
}

// DefaultSpec returns the default conditional-residuals configuration: a
// central 95% interval with a group-size threshold of 5.
func DefaultSpec() *Spec {
	return &Spec{
		Method:              MethodSimpleConditionalResiduals,
		Quantiles:           []float64{0.025, 0.975},
		SampleSizeThresh:    5,
		SmallSampleQuantile: 0.98,
	}
}

// Validate checks the spec and fills a nil receiver with defaults.
func (s *Spec) Validate() (*Spec, error) {
	if s == nil {
		return DefaultSpec(), nil
	}
	if _, ok := methodNames[s.Method]; !ok {
		return nil, notImplemented(s.Method.String())
	}
	if len(s.Quantiles) == 0 {
		s.Quantiles = []float64{0.025, 0.975}
	}
	for _, q := range s.Quantiles {
		if q <= 0 || q >= 1 {
			return nil, fmt.Errorf("quantile %v outside (0, 1)", q)
		}
	}
	if s.SampleSizeThresh <= 0 {
		s.SampleSizeThresh = 5
	}
	if s.SmallSampleQuantile <= 0 || s.SmallSampleQuantile > 1 {
		return nil, fmt.Errorf("small-sample quantile %v outside (0, 1]", s.SmallSampleQuantile)
	}

	return s, nil
}

// GroupStats are the fitted residual statistics of one conditioning group.
type GroupStats struct {
	// Mean and Std are the group's residual mean and standard deviation.
	Mean float64
	Std  float64
	// N is the group's training sample size.
	N int
	// Small reports whether the std came from the small-sample fallback
	// rather than a direct fit.
	Small bool
}

// ConditionalResiduals is a fitted conditional-residuals model. It is
// fit-once: a second Fit call fails, and the fitted state is never
// mutated by Predict.
type ConditionalResiduals struct {
	spec    *Spec
	groups  map[uint64]GroupStats
	tracker *collision.Tracker
	pooled  GroupStats
	fitted  bool
}

// New validates the spec and returns an unfitted model.
func New(spec *Spec) (*ConditionalResiduals, error) {
	spec, err := spec.Validate()
	if err != nil {
		return nil, err
	}

	return &ConditionalResiduals{spec: spec}, nil
}

// Spec returns the validated configuration the model was created with.
func (c *ConditionalResiduals) Spec() *Spec { return c.spec }

// Fitted reports whether the model has been fitted.
func (c *ConditionalResiduals) Fitted() bool { return c.fitted }

// Fit partitions the residuals by the conditioning columns of t and fits
// per-group normal statistics. Groups smaller than the sample-size
// threshold get the small-sample std instead of their own, and a pooled
// entry over all residuals serves combinations never seen here.
func (c *ConditionalResiduals) Fit(t *dataset.Table, residuals []float64) error {
	if c.fitted {
		return ErrAlreadyFitted
	}
	n := len(residuals)
	if t != nil && t.NumRows() != n {
		return dataset.ErrLengthMismatch
	}

	tracker := collision.NewTracker()
	keys, err := groupKeys(t, c.spec.ConditionalCols, n, tracker)
	if err != nil {
		return err
	}

	byGroup := make(map[uint64][]float64)
	for i, k := range keys {
		byGroup[k] = append(byGroup[k], residuals[i])
	}

	c.pooled = normalFit(residuals)
	c.groups = make(map[uint64]GroupStats, len(byGroup))
	c.tracker = tracker

	// Direct fits first; their stds feed the small-sample fallback.
	var smallKeys []uint64
	var largeStds []float64
	for k, res := range byGroup {
		if len(res) >= c.spec.SampleSizeThresh {
			g := normalFit(res)
			c.groups[k] = g
			largeStds = append(largeStds, g.Std)
		} else {
			smallKeys = append(smallKeys, k)
		}
	}

	fallbackStd := c.pooled.Std
	if len(largeStds) > 0 {
		sort.Float64s(largeStds)
		fallbackStd = stat.Quantile(c.spec.SmallSampleQuantile, stat.Empirical, largeStds, nil)
	}
	for _, k := range smallKeys {
		g := normalFit(byGroup[k])
		g.Std = fallbackStd
		g.Small = true
		c.groups[k] = g
	}

	c.fitted = true

	return nil
}

// Prediction holds per-row interval output.
type Prediction struct {
	// Quantiles has one row per input row and one column per spec
	// quantile: the point prediction shifted by the group's residual
	// distribution at that quantile.
	Quantiles [][]float64
	// Std is the per-row residual standard deviation estimate.
	Std []float64
}

// Predict looks up each row's conditioning group and emits the requested
// residual quantiles around the point predictions. Rows whose combination
// was never seen in training use the pooled statistics.
func (c *ConditionalResiduals) Predict(t *dataset.Table, preds []float64) (*Prediction, error) {
	if !c.fitted {
		return nil, ErrNotFitted
	}
	n := len(preds)
	if t != nil && t.NumRows() != n {
		return nil, dataset.ErrLengthMismatch
	}

	keys, err := groupKeys(t, c.spec.ConditionalCols, n, nil)
	if err != nil {
		return nil, err
	}

	norm := distuv.Normal{Mu: 0, Sigma: 1}
	z := make([]float64, len(c.spec.Quantiles))
	for i, q := range c.spec.Quantiles {
		z[i] = norm.Quantile(q)
	}

	out := &Prediction{
		Quantiles: make([][]float64, n),
		Std:       make([]float64, n),
	}
	for i := 0; i < n; i++ {
		g, ok := c.groups[keys[i]]
		if !ok {
			g = c.pooled
		}
		row := make([]float64, len(z))
		for j, zq := range z {
			row[j] = preds[i] + g.Mean + zq*g.Std
		}
		out.Quantiles[i] = row
		out.Std[i] = g.Std
	}

	return out, nil
}

// groupKeys hashes each row's conditioning values into a group key. A
// non-nil tracker detects hash collisions via the canonical string form;
// prediction passes nil since unseen keys just fall back to the pooled
// statistics. With no conditioning columns every row maps to the same
// key.
func groupKeys(t *dataset.Table, cols []string, n int, tracker *collision.Tracker) ([]uint64, error) {
	keys := make([]uint64, n)
	if len(cols) == 0 {
		return keys, nil
	}

	vals := make([][]string, len(cols))
	for j, name := range cols {
		col, err := t.Col(name)
		if err != nil {
			return nil, fmt.Errorf("conditioning column %q: %w", name, err)
		}
		switch col.Kind {
		case dataset.Categorical:
			vals[j] = col.Levels
		case dataset.Numeric:
			s := make([]string, n)
			for i, v := range col.Values {
				s[i] = strconv.FormatFloat(v, 'g', -1, 64)
			}
			vals[j] = s
		}
	}

	row := make([]string, len(cols))
	for i := 0; i < n; i++ {
		for j := range cols {
			row[j] = vals[j][i]
		}
		k := hash.GroupKey(row)
		if tracker != nil {
			if err := tracker.Track(k, hash.Canonical(row)); err != nil {
				return nil, err
			}
		}
		keys[i] = k
	}

	return keys, nil
}

// normalFit returns the mean and sample standard deviation of residuals.
func normalFit(residuals []float64) GroupStats {
	mean := stat.Mean(residuals, nil)
	std := 0.0
	if len(residuals) > 1 {
		std = stat.StdDev(residuals, nil)
	}
	if math.IsNaN(std) {
		std = 0
	}

	return GroupStats{Mean: mean, Std: std, N: len(residuals)}
}
