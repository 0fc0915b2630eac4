package tree

import (
	"errors"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/internal/pool"
)

// BoostOptions configures the gradient-boosting fitter.
type BoostOptions struct {
	// Trees is the number of boosting rounds.
	Trees int
	// LearningRate shrinks each tree's contribution.
	LearningRate float64
	// MaxDepth limits each tree's depth; boosting wants shallow trees.
	MaxDepth int
	// MinSamplesLeaf is the smallest sample count allowed in a leaf.
	MinSamplesLeaf int
	// Subsample draws this fraction of the rows, without replacement, for
	// each round. 1 uses every row.
	Subsample float64
	// Seed drives the row subsampling.
	Seed uint64
}

var (
	// ErrBadLearningRate is returned for non-positive learning rates.
	ErrBadLearningRate = errors.New("learning rate must be positive")
	// ErrBadSubsample is returned when the subsample fraction is outside
	// (0, 1].
	ErrBadSubsample = errors.New("subsample must be in (0, 1]")
)

// DefaultBoostOptions returns the default gradient-boosting configuration.
func DefaultBoostOptions() *BoostOptions {
	return &BoostOptions{
		Trees:          100,
		LearningRate:   0.1,
		MaxDepth:       3,
		MinSamplesLeaf: 1,
		Subsample:      1,
		Seed:           1,
	}
}

// Validate checks the options and fills a nil receiver with defaults.
func (o *BoostOptions) Validate() (*BoostOptions, error) {
	if o == nil {
		return DefaultBoostOptions(), nil
	}
	if o.Trees <= 0 {
		return nil, ErrBadTreeCount
	}
	if o.LearningRate <= 0 {
		return nil, ErrBadLearningRate
	}
	if o.MaxDepth <= 0 {
		return nil, ErrBadDepth
	}
	if o.MinSamplesLeaf <= 0 {
		return nil, ErrBadLeafSize
	}
	if o.Subsample <= 0 || o.Subsample > 1 {
		return nil, ErrBadSubsample
	}

	return o, nil
}

// Boosted is a fitted gradient-boosted ensemble: a base prediction plus
// shrunken trees fitted stagewise to the running residuals.
type Boosted struct {
	base         float64
	learningRate float64
	trees        []*Tree
}

// FitBoosted fits a gradient-boosted regression ensemble with squared
// loss. Each round grows a shallow tree on the current residuals and adds
// it with the learning-rate shrinkage. Sample weights scale each
// observation's contribution; nil means uniform.
func FitBoosted(x *mat.Dense, y, weights []float64, opts *BoostOptions) (*Boosted, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	n, _ := x.Dims()
	if n == 0 {
		return nil, ErrNoData
	}
	if len(y) != n || (weights != nil && len(weights) != n) {
		return nil, ErrDimensionMismatch
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	base := weightedMean(y, weights, idx)

	treeOpts := &TreeOptions{
		MaxDepth:       opts.MaxDepth,
		MinSamplesLeaf: opts.MinSamplesLeaf,
	}
	rng := rand.New(rand.NewPCG(opts.Seed, 0))

	resid := make([]float64, n)
	for i := range resid {
		resid[i] = y[i] - base
	}

	b := &Boosted{
		base:         base,
		learningRate: opts.LearningRate,
		trees:        make([]*Tree, 0, opts.Trees),
	}
	roundW := make([]float64, n)
	scratch, release := pool.GetFloat64Slice(n)
	defer release()
	for t := 0; t < opts.Trees; t++ {
		for i := range roundW {
			roundW[i] = sampleWeight(weights, i)
		}
		if opts.Subsample < 1 {
			// Zero out the rows left outside the round's draw.
			keep := int(opts.Subsample * float64(n))
			if keep < 1 {
				keep = 1
			}
			perm := rng.Perm(n)
			for _, i := range perm[keep:] {
				roundW[i] = 0
			}
		}

		tr, terr := FitTree(x, resid, roundW, treeOpts, rng)
		if terr != nil {
			return nil, terr
		}
		b.trees = append(b.trees, tr)

		tr.predictInto(x, scratch)
		for i, v := range scratch {
			resid[i] -= opts.LearningRate * v
		}
	}

	return b, nil
}

// Predict returns the per-row base-plus-trees prediction.
func (b *Boosted) Predict(x *mat.Dense) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	for i := range out {
		out[i] = b.base
	}
	scratch, release := pool.GetFloat64Slice(n)
	defer release()
	for _, tr := range b.trees {
		tr.predictInto(x, scratch)
		for i, v := range scratch {
			out[i] += b.learningRate * v
		}
	}

	return out
}

// Coefficients returns nil: boosted predictions have no linear
// decomposition.
func (b *Boosted) Coefficients() []float64 { return nil }

// Intercept returns zero for the same reason.
func (b *Boosted) Intercept() float64 { return 0 }
