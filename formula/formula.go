// Package formula builds numeric design matrices from Wilkinson-style model
// formulas and tabular data.
//
// The supported grammar is the additive subset used by the fitting layer:
//
//	y ~ x1 + x2 + categ
//	y ~ x1 + categ - 1
//	y ~ 0 + x1
//
// Numeric columns map to a single design column. Categorical columns expand
// to treatment-coded indicator columns, with the first level (in sorted
// order) acting as the reference when the model has an intercept. The
// encoding chosen at fit time is recorded in a DesignInfo so the exact same
// columns can be reproduced for future data.
package formula

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyFormula is returned when the formula has no response or no terms.
	ErrEmptyFormula = errors.New("formula must have a response and at least one term")
	// ErrBadFormula is returned on malformed formula strings.
	ErrBadFormula = errors.New("malformed formula")
)

// Formula is a parsed model formula.
type Formula struct {
	// Response is the left-hand-side column name.
	Response string
	// Terms are the right-hand-side column names, in formula order.
	Terms []string
	// Intercept reports whether the model includes an intercept column.
	// It defaults to true; "- 1" or "+ 0" on the right-hand side drops it.
	Intercept bool
}

// Parse parses a formula string of the form "y ~ x1 + x2 - 1".
func Parse(s string) (*Formula, error) {
	parts := strings.Split(s, "~")
	if len(parts) != 2 {
		return nil, fmt.Errorf("%w: expected a single ~ in %q", ErrBadFormula, s)
	}

	response := strings.TrimSpace(parts[0])
	if response == "" {
		return nil, ErrEmptyFormula
	}

	f := &Formula{Response: response, Intercept: true}

	rhs := strings.TrimSpace(parts[1])
	if rhs == "" {
		return nil, ErrEmptyFormula
	}

	// Normalize "a+b-1" into signed tokens.
	rhs = strings.ReplaceAll(rhs, "-", "+-")
	for _, tok := range strings.Split(rhs, "+") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}

		negate := strings.HasPrefix(tok, "-")
		tok = strings.TrimSpace(strings.TrimPrefix(tok, "-"))

		switch tok {
		case "1":
			f.Intercept = !negate
		case "0":
			if negate {
				return nil, fmt.Errorf("%w: \"- 0\" is not a valid term", ErrBadFormula)
			}
			f.Intercept = false
		default:
			if negate {
				return nil, fmt.Errorf("%w: term removal %q is not supported", ErrBadFormula, tok)
			}
			if !validIdent(tok) {
				return nil, fmt.Errorf("%w: invalid term %q", ErrBadFormula, tok)
			}
			f.Terms = append(f.Terms, tok)
		}
	}

	if len(f.Terms) == 0 {
		return nil, ErrEmptyFormula
	}

	return f, nil
}

func validIdent(s string) bool {
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_', r == '.':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}

	return s != ""
}

// String reassembles the formula in canonical form.
func (f *Formula) String() string {
	var b strings.Builder
	b.WriteString(f.Response)
	b.WriteString(" ~ ")
	b.WriteString(strings.Join(f.Terms, " + "))
	if !f.Intercept {
		b.WriteString(" - 1")
	}

	return b.String()
}
