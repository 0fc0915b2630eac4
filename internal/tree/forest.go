package tree

import (
	"errors"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"

	"github.com/tsfit/tsfit/internal/pool"
)

// ForestOptions configures the random-forest fitter.
type ForestOptions struct {
	// Trees is the ensemble size.
	Trees int
	// MaxDepth limits each tree's depth.
	MaxDepth int
	// MinSamplesLeaf is the smallest sample count allowed in a leaf.
	MinSamplesLeaf int
	// MaxFeatures caps how many features each split considers. Zero uses
	// a third of the features, the usual regression default.
	MaxFeatures int
	// Seed drives the bootstrap and feature subsampling.
	Seed uint64
}

// ErrBadTreeCount is returned for non-positive ensemble sizes.
var ErrBadTreeCount = errors.New("tree count must be positive")

// DefaultForestOptions returns the default random-forest configuration.
func DefaultForestOptions() *ForestOptions {
	return &ForestOptions{
		Trees:          100,
		MaxDepth:       16,
		MinSamplesLeaf: 1,
		MaxFeatures:    0,
		Seed:           1,
	}
}

// Validate checks the options and fills a nil receiver with defaults.
func (o *ForestOptions) Validate() (*ForestOptions, error) {
	if o == nil {
		return DefaultForestOptions(), nil
	}
	if o.Trees <= 0 {
		return nil, ErrBadTreeCount
	}
	if o.MaxDepth <= 0 {
		return nil, ErrBadDepth
	}
	if o.MinSamplesLeaf <= 0 {
		return nil, ErrBadLeafSize
	}
	if o.MaxFeatures < 0 {
		return nil, errors.New("max features must be non-negative")
	}

	return o, nil
}

// Forest is a fitted random forest of regression trees; predictions are
// the plain average across trees.
type Forest struct {
	trees []*Tree
}

// FitForest fits a random forest. Each tree trains on a bootstrap
// resample of the rows, expressed as integer sample weights so the tree
// fitter sees the full matrix. Explicit sample weights multiply the
// bootstrap counts.
func FitForest(x *mat.Dense, y, weights []float64, opts *ForestOptions) (*Forest, error) {
	opts, err := opts.Validate()
	if err != nil {
		return nil, err
	}
	n, p := x.Dims()
	if n == 0 {
		return nil, ErrNoData
	}
	if len(y) != n || (weights != nil && len(weights) != n) {
		return nil, ErrDimensionMismatch
	}

	maxFeatures := opts.MaxFeatures
	if maxFeatures == 0 {
		maxFeatures = (p + 2) / 3
	}
	treeOpts := &TreeOptions{
		MaxDepth:       opts.MaxDepth,
		MinSamplesLeaf: opts.MinSamplesLeaf,
		MaxFeatures:    maxFeatures,
	}

	rng := rand.New(rand.NewPCG(opts.Seed, 0))
	f := &Forest{trees: make([]*Tree, 0, opts.Trees)}
	boot := make([]float64, n)
	for t := 0; t < opts.Trees; t++ {
		for i := range boot {
			boot[i] = 0
		}
		for i := 0; i < n; i++ {
			boot[rng.IntN(n)]++
		}
		if weights != nil {
			for i := range boot {
				boot[i] *= weights[i]
			}
		}

		tr, terr := FitTree(x, y, boot, treeOpts, rng)
		if terr != nil {
			return nil, terr
		}
		f.trees = append(f.trees, tr)
	}

	return f, nil
}

// Predict returns the per-row average prediction across the ensemble.
func (f *Forest) Predict(x *mat.Dense) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	scratch, release := pool.GetFloat64Slice(n)
	defer release()

	for _, tr := range f.trees {
		tr.predictInto(x, scratch)
		for i, v := range scratch {
			out[i] += v
		}
	}
	inv := 1 / float64(len(f.trees))
	for i := range out {
		out[i] *= inv
	}

	return out
}

// Coefficients returns nil: forest predictions have no linear
// decomposition.
func (f *Forest) Coefficients() []float64 { return nil }

// Intercept returns zero for the same reason.
func (f *Forest) Intercept() float64 { return 0 }
