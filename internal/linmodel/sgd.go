package linmodel

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// SGDPenalty selects the regularization term for the SGD fitter.
type SGDPenalty uint8

const (
	// SGDPenaltyNone disables regularization.
	SGDPenaltyNone SGDPenalty = iota
	// SGDPenaltyL2 applies squared-norm regularization.
	SGDPenaltyL2
	// SGDPenaltyL1 applies absolute-norm regularization.
	SGDPenaltyL1
	// SGDPenaltyElasticNet mixes the two.
	SGDPenaltyElasticNet
)

var sgdPenaltyNames = map[SGDPenalty]string{
	SGDPenaltyNone:       "none",
	SGDPenaltyL2:         "l2",
	SGDPenaltyL1:         "l1",
	SGDPenaltyElasticNet: "elasticnet",
}

// String returns the penalty name.
func (p SGDPenalty) String() string {
	if s, ok := sgdPenaltyNames[p]; ok {
		return s
	}

	return fmt.Sprintf("penalty(%d)", p)
}

// ParseSGDPenalty maps a penalty name back to its value.
func ParseSGDPenalty(s string) (SGDPenalty, error) {
	for p, name := range sgdPenaltyNames {
		if name == s {
			return p, nil
		}
	}

	return 0, fmt.Errorf("unknown sgd penalty %q", s)
}

// SGDOptions configures the stochastic gradient descent fitter.
type SGDOptions struct {
	// Penalty selects the regularization term.
	Penalty SGDPenalty
	// Alpha is the regularization strength.
	Alpha float64
	// L1Ratio mixes L1 and L2 when Penalty is SGDPenaltyElasticNet.
	L1Ratio float64
	// Eta0 is the initial learning rate.
	Eta0 float64
	// PowerT is the inverse-scaling exponent: the step at update t is
	// Eta0 / t^PowerT.
	PowerT float64
	// Epochs is the number of full passes over the data.
	Epochs int
	// Tolerance stops training when an epoch's mean squared loss improves
	// by less than it.
	Tolerance float64
	// Seed drives the per-epoch shuffle, making the fit deterministic.
	Seed uint64
	// FitIntercept learns a separate intercept term.
	FitIntercept bool
}

var (
	// ErrNegativeAlpha is returned for negative regularization strengths.
	ErrNegativeAlpha = errors.New("alpha must be non-negative")
	// ErrBadLearningRate is returned for non-positive initial learning rates.
	ErrBadLearningRate = errors.New("eta0 must be positive")
	// ErrBadEpochs is returned for non-positive epoch counts.
	ErrBadEpochs = errors.New("epochs must be positive")
)

// DefaultSGDOptions returns the default SGD configuration.
func DefaultSGDOptions() *SGDOptions {
	return &SGDOptions{
		Penalty:      SGDPenaltyL2,
		Alpha:        1e-4,
		L1Ratio:      0.15,
		Eta0:         0.01,
		PowerT:       0.25,
		Epochs:       1000,
		Tolerance:    1e-3,
		Seed:         1,
		FitIntercept: true,
	}
}

// Validate checks the options and fills a nil receiver with defaults.
func (o *SGDOptions) Validate() (*SGDOptions, error) {
	if o == nil {
		return DefaultSGDOptions(), nil
	}
	if o.Alpha < 0 {
		return nil, ErrNegativeAlpha
	}
	if o.L1Ratio < 0 || o.L1Ratio > 1 {
		return nil, ErrBadL1Ratio
	}
	if o.Eta0 <= 0 {
		return nil, ErrBadLearningRate
	}
	if o.Epochs <= 0 {
		return nil, ErrBadEpochs
	}
	if o.Tolerance < 0 {
		return nil, ErrNegativeTolerance
	}

	return o, nil
}

// SGDModel is a linear model fitted by stochastic gradient descent on the
// squared loss.
type SGDModel struct {
	coefModel

	// Epochs is the number of passes actually run before the tolerance
	// criterion stopped training.
	Epochs int
}

// FitSGD fits a linear model by per-sample stochastic gradient descent
// with an inverse-scaling learning rate. Sample order is reshuffled every
// epoch from the seeded generator, so the fit is reproducible for a given
// seed. Sample weights scale each sample's gradient; nil means uniform.
func FitSGD(x *mat.Dense, y, weights []float64, opts *SGDOptions) (*SGDModel, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	n, p, err := checkDims(x, y, weights)
	if err != nil {
		return nil, err
	}

	l1, l2 := 0.0, 0.0
	switch opts.Penalty {
	case SGDPenaltyL1:
		l1 = opts.Alpha
	case SGDPenaltyL2:
		l2 = opts.Alpha
	case SGDPenaltyElasticNet:
		l1 = opts.Alpha * opts.L1Ratio
		l2 = opts.Alpha * (1 - opts.L1Ratio)
	case SGDPenaltyNone:
	}

	coef := make([]float64, p)
	intercept := 0.0

	rng := rand.New(rand.NewPCG(opts.Seed, 0))
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}

	t := 0
	prevLoss := math.Inf(1)
	epochs := 0
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		epochs++
		rng.Shuffle(n, func(i, j int) { order[i], order[j] = order[j], order[i] })

		var loss float64
		for _, i := range order {
			t++
			eta := opts.Eta0 / math.Pow(float64(t), opts.PowerT)

			pred := intercept
			for j := 0; j < p; j++ {
				pred += coef[j] * x.At(i, j)
			}
			errI := pred - y[i]
			w := 1.0
			if weights != nil {
				w = weights[i]
			}
			loss += w * errI * errI

			for j := 0; j < p; j++ {
				g := w*errI*x.At(i, j) + l2*coef[j]
				if l1 > 0 {
					g += l1 * sign(coef[j])
				}
				coef[j] -= eta * g
			}
			if opts.FitIntercept {
				intercept -= eta * w * errI
			}
		}

		loss /= float64(n)
		if prevLoss-loss < opts.Tolerance {
			break
		}
		prevLoss = loss
	}

	return &SGDModel{
		coefModel: coefModel{coef: coef, intercept: intercept},
		Epochs:    epochs,
	}, nil
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
