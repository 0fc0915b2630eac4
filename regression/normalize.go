package regression

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// NormalizeMethod identifies a feature-normalization policy.
type NormalizeMethod uint8

const (
	// NormalizeNone leaves the design matrix untouched.
	NormalizeNone NormalizeMethod = iota
	// NormalizeZeroToOne maps each column onto [0, 1].
	NormalizeZeroToOne
	// NormalizeStatistical centers each column by its mean and divides by
	// its standard deviation.
	NormalizeStatistical
	// NormalizeMinusHalfToHalf maps each column onto [-0.5, 0.5].
	NormalizeMinusHalfToHalf
	// NormalizeZeroAtOrigin shifts each column so its first row is zero,
	// scaled by the column range.
	NormalizeZeroAtOrigin
)

var normalizeNames = map[NormalizeMethod]string{
	NormalizeNone:            "none",
	NormalizeZeroToOne:       "zero_to_one",
	NormalizeStatistical:     "statistical",
	NormalizeMinusHalfToHalf: "minus_half_to_half",
	NormalizeZeroAtOrigin:    "zero_at_origin",
}

// String returns the policy name.
func (m NormalizeMethod) String() string {
	if s, ok := normalizeNames[m]; ok {
		return s
	}

	return fmt.Sprintf("normalize(%d)", m)
}

// ParseNormalizeMethod maps a policy name back to its value.
func ParseNormalizeMethod(s string) (NormalizeMethod, error) {
	for m, name := range normalizeNames {
		if name == s {
			return m, nil
		}
	}

	return 0, fmt.Errorf("unknown normalization method %q", s)
}

// ColumnScale is the fitted affine transform of one design column:
// x' = (x - Shift) / Scale.
type ColumnScale struct {
	Shift float64 `json:"shift"`
	Scale float64 `json:"scale"`
}

// Normalization is a fitted column-wise normalization, replayable on new
// design matrices. Constant columns keep a unit scale so they pass
// through shifted but never divided by zero; the intercept column is
// always left untouched.
type Normalization struct {
	Method NormalizeMethod `json:"method"`
	Cols   []ColumnScale   `json:"cols"`
}

// fitNormalization learns the per-column transform on the training design
// matrix. interceptCol is the intercept column index, or -1.
func fitNormalization(x *mat.Dense, method NormalizeMethod, interceptCol int) *Normalization {
	n, p := x.Dims()
	norm := &Normalization{Method: method, Cols: make([]ColumnScale, p)}

	col := make([]float64, n)
	for j := 0; j < p; j++ {
		norm.Cols[j] = ColumnScale{Shift: 0, Scale: 1}
		if method == NormalizeNone || j == interceptCol {
			continue
		}
		mat.Col(col, j, x)

		mn, mx := col[0], col[0]
		for _, v := range col {
			if v < mn {
				mn = v
			}
			if v > mx {
				mx = v
			}
		}
		rng := mx - mn

		var cs ColumnScale
		switch method {
		case NormalizeZeroToOne:
			cs = ColumnScale{Shift: mn, Scale: rng}
		case NormalizeStatistical:
			cs = ColumnScale{Shift: stat.Mean(col, nil), Scale: stat.StdDev(col, nil)}
		case NormalizeMinusHalfToHalf:
			cs = ColumnScale{Shift: (mn + mx) / 2, Scale: rng}
		case NormalizeZeroAtOrigin:
			cs = ColumnScale{Shift: col[0], Scale: rng}
		}
		if cs.Scale == 0 {
			cs.Scale = 1
		}
		norm.Cols[j] = cs
	}

	return norm
}

// Apply replays the transform on a design matrix in place. The matrix
// must have the same column layout as at fit time.
func (norm *Normalization) Apply(x *mat.Dense) error {
	if norm == nil || norm.Method == NormalizeNone {
		return nil
	}
	n, p := x.Dims()
	if p != len(norm.Cols) {
		return fmt.Errorf("normalization fitted on %d columns, matrix has %d", len(norm.Cols), p)
	}
	for j := 0; j < p; j++ {
		cs := norm.Cols[j]
		if cs.Shift == 0 && cs.Scale == 1 {
			continue
		}
		for i := 0; i < n; i++ {
			x.Set(i, j, (x.At(i, j)-cs.Shift)/cs.Scale)
		}
	}

	return nil
}
