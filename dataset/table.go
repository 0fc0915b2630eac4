// Package dataset provides an ordered in-memory table of named numeric
// and categorical columns, the input type for model fitting. NaN marks a
// missing numeric value; categorical levels are never missing.
package dataset

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrColumnNotFound is returned when a referenced column does not exist.
	ErrColumnNotFound = errors.New("column not found")
	// ErrLengthMismatch is returned when columns of different lengths are combined.
	ErrLengthMismatch = errors.New("column length mismatch")
	// ErrDuplicateColumn is returned when a column name is added twice.
	ErrDuplicateColumn = errors.New("duplicate column")
)

// Kind discriminates numeric and categorical columns.
type Kind int

const (
	// Numeric columns hold float64 values; NaN marks a missing value.
	Numeric Kind = iota
	// Categorical columns hold string levels; there is no missing marker,
	// an empty string is a legitimate level.
	Categorical
)

// Column is a single named column of a Table. Exactly one of Values and
// Levels is populated, according to Kind.
type Column struct {
	Name   string
	Kind   Kind
	Values []float64
	Levels []string
}

// Len returns the number of rows in the column.
func (c *Column) Len() int {
	if c.Kind == Numeric {
		return len(c.Values)
	}

	return len(c.Levels)
}

// Table is an ordered collection of equally sized columns. It is the
// in-memory tabular input to model fitting and prediction. A Table is not
// safe for concurrent mutation; fitted models never retain a reference to
// the tables they were built from.
type Table struct {
	cols  []*Column
	index map[string]int
	nrows int
}

// New creates an empty table.
func New() *Table {
	return &Table{index: make(map[string]int)}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return t.nrows }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.cols) }

// ColNames returns the column names in insertion order.
func (t *Table) ColNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.Name
	}

	return names
}

// AddNumeric appends a numeric column. The first column added fixes the
// table's row count; every later column must match it.
func (t *Table) AddNumeric(name string, values []float64) error {
	return t.add(&Column{Name: name, Kind: Numeric, Values: values})
}

// AddCategorical appends a categorical column.
func (t *Table) AddCategorical(name string, levels []string) error {
	return t.add(&Column{Name: name, Kind: Categorical, Levels: levels})
}

func (t *Table) add(c *Column) error {
	if _, ok := t.index[c.Name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
	}
	if len(t.cols) == 0 {
		t.nrows = c.Len()
	} else if c.Len() != t.nrows {
		return fmt.Errorf("%w: column %q has %d rows, table has %d",
			ErrLengthMismatch, c.Name, c.Len(), t.nrows)
	}

	t.index[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)

	return nil
}

// Col returns the column with the given name.
func (t *Table) Col(name string) (*Column, error) {
	i, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}

	return t.cols[i], nil
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Numeric returns the values of a numeric column.
func (t *Table) Numeric(name string) ([]float64, error) {
	c, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Numeric {
		return nil, fmt.Errorf("column %q is categorical, expected numeric", name)
	}

	return c.Values, nil
}

// Categorical returns the levels of a categorical column.
func (t *Table) Categorical(name string) ([]string, error) {
	c, err := t.Col(name)
	if err != nil {
		return nil, err
	}
	if c.Kind != Categorical {
		return nil, fmt.Errorf("column %q is numeric, expected categorical", name)
	}

	return c.Levels, nil
}

// Select returns a new table restricted to rows, in the given order.
// Row indices may repeat; out-of-range indices are an error.
func (t *Table) Select(rows []int) (*Table, error) {
	out := New()
	for _, c := range t.cols {
		switch c.Kind {
		case Numeric:
			vals := make([]float64, len(rows))
			for i, r := range rows {
				if r < 0 || r >= t.nrows {
					return nil, fmt.Errorf("row index %d out of range [0,%d)", r, t.nrows)
				}
				vals[i] = c.Values[r]
			}
			if err := out.AddNumeric(c.Name, vals); err != nil {
				return nil, err
			}
		case Categorical:
			lvls := make([]string, len(rows))
			for i, r := range rows {
				if r < 0 || r >= t.nrows {
					return nil, fmt.Errorf("row index %d out of range [0,%d)", r, t.nrows)
				}
				lvls[i] = c.Levels[r]
			}
			if err := out.AddCategorical(c.Name, lvls); err != nil {
				return nil, err
			}
		}
	}
	if len(t.cols) == 0 {
		out.nrows = len(rows)
	}

	return out, nil
}

// Slice returns the subtable of rows [from, to).
func (t *Table) Slice(from, to int) (*Table, error) {
	if from < 0 || to > t.nrows || from > to {
		return nil, fmt.Errorf("invalid slice bounds [%d,%d) for %d rows", from, to, t.nrows)
	}

	rows := make([]int, 0, to-from)
	for r := from; r < to; r++ {
		rows = append(rows, r)
	}

	return t.Select(rows)
}

// Split partitions the table into a training prefix of
// round(frac * rows) rows and the remaining test suffix.
func (t *Table) Split(frac float64) (train, test *Table, err error) {
	if frac < 0 || frac > 1 {
		return nil, nil, fmt.Errorf("training fraction %v outside [0, 1]", frac)
	}

	cut := int(math.Round(frac * float64(t.nrows)))
	train, err = t.Slice(0, cut)
	if err != nil {
		return nil, nil, err
	}
	test, err = t.Slice(cut, t.nrows)
	if err != nil {
		return nil, nil, err
	}

	return train, test, nil
}

// DropNA removes rows where any of the given numeric columns is NaN.
// Columns that do not exist or are categorical are ignored, since
// categorical levels have no missing marker. It returns the filtered
// table and the number of rows removed.
func (t *Table) DropNA(cols []string) (*Table, int, error) {
	keep := make([]int, 0, t.nrows)
rowLoop:
	for r := 0; r < t.nrows; r++ {
		for _, name := range cols {
			i, ok := t.index[name]
			if !ok {
				continue
			}
			c := t.cols[i]
			if c.Kind == Numeric && math.IsNaN(c.Values[r]) {
				continue rowLoop
			}
		}
		keep = append(keep, r)
	}

	out, err := t.Select(keep)
	if err != nil {
		return nil, 0, err
	}

	return out, t.nrows - len(keep), nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := New()
	for _, c := range t.cols {
		switch c.Kind {
		case Numeric:
			_ = out.AddNumeric(c.Name, slices.Clone(c.Values))
		case Categorical:
			_ = out.AddCategorical(c.Name, slices.Clone(c.Levels))
		}
	}
	out.nrows = t.nrows

	return out
}
