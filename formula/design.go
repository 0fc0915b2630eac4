package formula

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/dataset"
)

// InterceptName is the design-column name of the intercept term.
const InterceptName = "(Intercept)"

// ErrUnseenLevel is returned when future data contains a categorical level
// that was not present during training. Unseen levels are a caller error;
// they are never silently coerced to a reference level.
var ErrUnseenLevel = errors.New("categorical level not seen during training")

// TermEncoding records how one formula term maps to design columns.
type TermEncoding struct {
	// Column is the source column name in the input table.
	Column string
	// Kind is the source column kind.
	Kind dataset.Kind
	// Levels are the encoded categorical levels, one indicator column each.
	// Empty for numeric terms.
	Levels []string
	// Reference is the dropped reference level for treatment coding,
	// or empty when every level is encoded.
	Reference string
}

// DesignInfo is the replayable descriptor of a design-matrix transform.
// It is created once per fit and reused read-only at predict time; applying
// it to the training table reproduces the training design matrix exactly.
type DesignInfo struct {
	// Response is the response column name.
	Response string
	// Intercept reports whether the design matrix has an intercept column.
	Intercept bool
	// Terms are the per-term encodings, in formula order.
	Terms []TermEncoding
	// ColNames are the design-matrix column names, in matrix order.
	ColNames []string
}

// DesignMatrix is a fixed numeric feature matrix with its response vector
// and the descriptor needed to rebuild the same columns from new data.
type DesignMatrix struct {
	// X is the n x p feature matrix.
	X *mat.Dense
	// Y is the response vector, nil when the source table had no
	// response column (prediction on future data).
	Y []float64
	// ColNames are the column names of X.
	ColNames []string
	// Info is the replayable transform descriptor.
	Info *DesignInfo
}

// Build constructs the design matrix for a formula on training data.
//
// Categorical terms are treatment coded: with an intercept, the first
// sorted level of every categorical term is the reference and is dropped;
// without an intercept, the first categorical term keeps all of its levels
// so that the column space still spans the constant vector.
func Build(f *Formula, t *dataset.Table) (*DesignMatrix, error) {
	info := &DesignInfo{
		Response:  f.Response,
		Intercept: f.Intercept,
	}

	fullCodingUsed := f.Intercept
	for _, term := range f.Terms {
		col, err := t.Col(term)
		if err != nil {
			return nil, err
		}

		enc := TermEncoding{Column: term, Kind: col.Kind}
		if col.Kind == dataset.Categorical {
			levels := distinctSorted(col.Levels)
			if len(levels) == 0 {
				return nil, fmt.Errorf("categorical column %q has no data", term)
			}
			if fullCodingUsed {
				enc.Reference = levels[0]
				enc.Levels = levels[1:]
			} else {
				// first categorical term in a no-intercept model
				enc.Levels = levels
				fullCodingUsed = true
			}
		}
		info.Terms = append(info.Terms, enc)
	}

	info.ColNames = designColNames(info)

	return info.Apply(t)
}

// Apply replays the recorded transform on a table, producing a design
// matrix with identical columns and level coding as at fit time. The
// response column is optional; Y is nil when it is absent.
func (info *DesignInfo) Apply(t *dataset.Table) (*DesignMatrix, error) {
	n := t.NumRows()
	p := len(info.ColNames)
	x := mat.NewDense(n, p, nil)

	j := 0
	if info.Intercept {
		for i := 0; i < n; i++ {
			x.Set(i, 0, 1)
		}
		j = 1
	}

	for _, enc := range info.Terms {
		switch enc.Kind {
		case dataset.Numeric:
			vals, err := t.Numeric(enc.Column)
			if err != nil {
				return nil, err
			}
			x.SetCol(j, vals)
			j++
		case dataset.Categorical:
			levels, err := t.Categorical(enc.Column)
			if err != nil {
				return nil, err
			}
			known := make(map[string]int, len(enc.Levels))
			for k, lvl := range enc.Levels {
				known[lvl] = k
			}
			for i, lvl := range levels {
				k, ok := known[lvl]
				if !ok {
					if lvl == enc.Reference {
						continue // reference level encodes as all zeros
					}

					return nil, fmt.Errorf("%w: column %q level %q", ErrUnseenLevel, enc.Column, lvl)
				}
				x.Set(i, j+k, 1)
			}
			j += len(enc.Levels)
		}
	}

	dm := &DesignMatrix{
		X:        x,
		ColNames: info.ColNames,
		Info:     info,
	}

	if t.Has(info.Response) {
		y, err := t.Numeric(info.Response)
		if err != nil {
			return nil, err
		}
		dm.Y = y
	}

	return dm, nil
}

// TermColumns returns the source-table column names the design matrix is
// built from, in term order, excluding the response.
func (info *DesignInfo) TermColumns() []string {
	cols := make([]string, 0, len(info.Terms))
	for _, enc := range info.Terms {
		cols = append(cols, enc.Column)
	}

	return cols
}

// InterceptCol returns the index of the intercept column: the explicit
// intercept when present, otherwise the first design column that is
// constant one over all rows, otherwise -1.
func (dm *DesignMatrix) InterceptCol() int {
	for j, name := range dm.ColNames {
		if name == InterceptName {
			return j
		}
	}

	n, p := dm.X.Dims()
	if n == 0 {
		return -1
	}
	for j := 0; j < p; j++ {
		constant := true
		for i := 0; i < n; i++ {
			if dm.X.At(i, j) != 1 {
				constant = false
				break
			}
		}
		if constant {
			return j
		}
	}

	return -1
}

// DropCol returns a copy of the design matrix without column j. The
// transform descriptor is shared; only the materialized matrix changes.
func (dm *DesignMatrix) DropCol(j int) *DesignMatrix {
	n, p := dm.X.Dims()
	if j < 0 || j >= p {
		return dm
	}

	x := mat.NewDense(n, p-1, nil)
	names := make([]string, 0, p-1)
	jj := 0
	for k := 0; k < p; k++ {
		if k == j {
			continue
		}
		col := make([]float64, n)
		mat.Col(col, k, dm.X)
		x.SetCol(jj, col)
		names = append(names, dm.ColNames[k])
		jj++
	}

	return &DesignMatrix{X: x, Y: dm.Y, ColNames: names, Info: dm.Info}
}

func designColNames(info *DesignInfo) []string {
	var names []string
	if info.Intercept {
		names = append(names, InterceptName)
	}
	for _, enc := range info.Terms {
		if enc.Kind == dataset.Numeric {
			names = append(names, enc.Column)
			continue
		}
		for _, lvl := range enc.Levels {
			names = append(names, fmt.Sprintf("%s[%s]", enc.Column, lvl))
		}
	}

	return names
}

func distinctSorted(levels []string) []string {
	seen := make(map[string]struct{}, len(levels))
	out := make([]string, 0, len(levels))
	for _, lvl := range levels {
		if _, ok := seen[lvl]; ok {
			continue
		}
		seen[lvl] = struct{}{}
		out = append(out, lvl)
	}
	sort.Strings(out)

	return out
}
