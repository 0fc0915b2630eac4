package regression

import (
	"fmt"
	"math"
	"strings"
)

// ModelSummary is a human-readable account of one fit.
type ModelSummary struct {
	// Algorithm is the fitted algorithm's identifier.
	Algorithm string
	// NumObservations and NumFeatures are the design-matrix dimensions.
	NumObservations int
	NumFeatures     int
	// PEffective is the effective parameter count, NaN when undefined.
	PEffective float64
	// Coefficients pairs design-column names with fitted coefficients;
	// empty for tree ensembles.
	Coefficients []Coefficient
	// Intercept is the separately estimated intercept, when the model
	// keeps one outside the coefficient vector.
	Intercept float64
}

// Coefficient is one named fitted coefficient.
type Coefficient struct {
	Name  string
	Value float64
}

// newSummary assembles the summary from a fitted record's parts.
func newSummary(algo Algorithm, colNames []string, model Model, n int, pEffective float64) *ModelSummary {
	s := &ModelSummary{
		Algorithm:       algo.String(),
		NumObservations: n,
		NumFeatures:     len(colNames),
		PEffective:      pEffective,
		Intercept:       model.Intercept(),
	}
	coef := model.Coefficients()
	for j, name := range colNames {
		if j >= len(coef) {
			break
		}
		s.Coefficients = append(s.Coefficients, Coefficient{Name: name, Value: coef[j]})
	}

	return s
}

// String renders the summary as an aligned table.
func (s *ModelSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "algorithm: %s\n", s.Algorithm)
	fmt.Fprintf(&b, "observations: %d, features: %d\n", s.NumObservations, s.NumFeatures)
	if !math.IsNaN(s.PEffective) {
		fmt.Fprintf(&b, "effective parameters: %.4f\n", s.PEffective)
	}
	if len(s.Coefficients) > 0 {
		width := 0
		for _, c := range s.Coefficients {
			if len(c.Name) > width {
				width = len(c.Name)
			}
		}
		for _, c := range s.Coefficients {
			fmt.Fprintf(&b, "  %-*s % .6f\n", width, c.Name, c.Value)
		}
	}
	if s.Intercept != 0 {
		fmt.Fprintf(&b, "  intercept % .6f\n", s.Intercept)
	}

	return b.String()
}
