package linmodel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// GLMFamily selects the response distribution for the GLM fitter.
type GLMFamily uint8

const (
	// GLMGaussian uses the identity link; it reduces to least squares.
	GLMGaussian GLMFamily = iota
	// GLMGamma uses the inverse power link, for positive skewed responses.
	GLMGamma
	// GLMPoisson uses the log link, for count responses.
	GLMPoisson
)

var glmFamilyNames = map[GLMFamily]string{
	GLMGaussian: "gaussian",
	GLMGamma:    "gamma",
	GLMPoisson:  "poisson",
}

// String returns the family name.
func (f GLMFamily) String() string {
	if s, ok := glmFamilyNames[f]; ok {
		return s
	}

	return fmt.Sprintf("family(%d)", f)
}

// ParseGLMFamily maps a family name back to its value.
func ParseGLMFamily(s string) (GLMFamily, error) {
	for f, name := range glmFamilyNames {
		if name == s {
			return f, nil
		}
	}

	return 0, fmt.Errorf("unknown glm family %q", s)
}

// GLMOptions configures the generalized linear model fitter.
type GLMOptions struct {
	// Family selects the response distribution and its canonical link.
	Family GLMFamily
	// Iterations caps the number of scoring rounds.
	Iterations int
	// Tolerance stops iteration when the largest coefficient update falls
	// below it.
	Tolerance float64
}

var (
	// ErrNonPositiveResponse is returned when a family requiring positive
	// responses sees a zero or negative value.
	ErrNonPositiveResponse = errors.New("response values must be positive for this family")
	// ErrGLMDiverged is returned when the scoring iterations produce a
	// non-finite linear predictor.
	ErrGLMDiverged = errors.New("glm fit diverged")
)

// DefaultGLMOptions returns the default GLM configuration, a Gamma family
// with the inverse power link.
func DefaultGLMOptions() *GLMOptions {
	return &GLMOptions{
		Family:     GLMGamma,
		Iterations: 100,
		Tolerance:  1e-8,
	}
}

// Validate checks the options and fills a nil receiver with defaults.
func (o *GLMOptions) Validate() (*GLMOptions, error) {
	if o == nil {
		return DefaultGLMOptions(), nil
	}
	if _, ok := glmFamilyNames[o.Family]; !ok {
		return nil, fmt.Errorf("unknown glm family %d", o.Family)
	}
	if o.Iterations <= 0 {
		return nil, ErrNegativeIterations
	}
	if o.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}

	return o, nil
}

// GLMModel is a generalized linear model fitted by iteratively reweighted
// least squares. Predictions are on the response scale, with the inverse
// link applied.
type GLMModel struct {
	coefModel

	// Family is the fitted response family.
	Family GLMFamily
	// Converged reports whether the scoring tolerance was reached.
	Converged bool
}

// Predict returns response-scale predictions, applying the family's
// inverse link to the linear predictor.
func (m *GLMModel) Predict(x *mat.Dense) []float64 {
	eta := m.coefModel.Predict(x)
	for i, v := range eta {
		eta[i] = glmInvLink(m.Family, v)
	}

	return eta
}

// FitGLM fits a generalized linear model by Fisher scoring. The design
// matrix is taken as-is, so an intercept column must be part of it if
// wanted. Sample weights scale each observation's contribution; nil means
// uniform.
func FitGLM(x *mat.Dense, y, weights []float64, opts *GLMOptions) (*GLMModel, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	n, p, err := checkDims(x, y, weights)
	if err != nil {
		return nil, err
	}
	if opts.Family == GLMGamma || opts.Family == GLMPoisson {
		for _, v := range y {
			if v <= 0 {
				return nil, ErrNonPositiveResponse
			}
		}
	}

	// Initialize the linear predictor from the response itself.
	eta := make([]float64, n)
	for i := 0; i < n; i++ {
		eta[i] = glmLink(opts.Family, y[i])
	}

	coef := make([]float64, p)
	mu := make([]float64, n)
	z := make([]float64, n)
	w := make([]float64, n)
	converged := false
	for it := 0; it < opts.Iterations; it++ {
		for i := 0; i < n; i++ {
			mu[i] = glmInvLink(opts.Family, eta[i])
			d := glmLinkDeriv(opts.Family, mu[i])
			// Working response and weight for the scoring step.
			z[i] = eta[i] + (y[i]-mu[i])*d
			w[i] = 1 / (d * d * glmVariance(opts.Family, mu[i]))
			if weights != nil {
				w[i] *= weights[i]
			}
			if !isFinite(z[i]) || !isFinite(w[i]) || w[i] <= 0 {
				return nil, ErrGLMDiverged
			}
		}

		next, serr := solveWeighted(x, z, w, 0)
		if serr != nil {
			return nil, serr
		}

		maxDelta := 0.0
		for j := 0; j < p; j++ {
			if d := math.Abs(next[j] - coef[j]); d > maxDelta {
				maxDelta = d
			}
		}
		coef = next
		for i := 0; i < n; i++ {
			var s float64
			for j := 0; j < p; j++ {
				s += coef[j] * x.At(i, j)
			}
			eta[i] = s
			if !isFinite(s) {
				return nil, ErrGLMDiverged
			}
		}
		if maxDelta < opts.Tolerance {
			converged = true
			break
		}
	}

	return &GLMModel{
		coefModel: coefModel{coef: coef, intercept: 0},
		Family:    opts.Family,
		Converged: converged,
	}, nil
}

func glmLink(f GLMFamily, mu float64) float64 {
	switch f {
	case GLMGamma:
		return 1 / mu
	case GLMPoisson:
		return math.Log(mu)
	default:
		return mu
	}
}

func glmInvLink(f GLMFamily, eta float64) float64 {
	switch f {
	case GLMGamma:
		return 1 / eta
	case GLMPoisson:
		return math.Exp(eta)
	default:
		return eta
	}
}

// glmLinkDeriv returns d(eta)/d(mu) at mu.
func glmLinkDeriv(f GLMFamily, mu float64) float64 {
	switch f {
	case GLMGamma:
		return -1 / (mu * mu)
	case GLMPoisson:
		return 1 / mu
	default:
		return 1
	}
}

func glmVariance(f GLMFamily, mu float64) float64 {
	switch f {
	case GLMGamma:
		return mu * mu
	case GLMPoisson:
		return mu
	default:
		return 1
	}
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
