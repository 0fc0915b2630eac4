// Package tree implements regression trees and the ensemble fitters built
// on them: random forests, gradient boosting, and histogram-based gradient
// boosting. All fitters are deterministic for a given seed.
package tree

import (
	"errors"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/mat"
)

var (
	// ErrNoData is returned when the training set is empty.
	ErrNoData = errors.New("no training data")
	// ErrDimensionMismatch is returned when the response or weight length
	// does not match the design matrix.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrBadDepth is returned for non-positive depth limits.
	ErrBadDepth = errors.New("max depth must be positive")
	// ErrBadLeafSize is returned for non-positive leaf-size limits.
	ErrBadLeafSize = errors.New("min samples leaf must be positive")
)

// TreeOptions configures a single regression tree.
type TreeOptions struct {
	// MaxDepth limits the tree depth; the root is depth zero.
	MaxDepth int
	// MinSamplesLeaf is the smallest sample count allowed in a leaf.
	MinSamplesLeaf int
	// MaxFeatures caps how many features are considered per split. Zero
	// means all of them.
	MaxFeatures int
}

// DefaultTreeOptions returns the default single-tree configuration.
func DefaultTreeOptions() *TreeOptions {
	return &TreeOptions{
		MaxDepth:       8,
		MinSamplesLeaf: 1,
		MaxFeatures:    0,
	}
}

// Validate checks the options and fills a nil receiver with defaults.
func (o *TreeOptions) Validate() (*TreeOptions, error) {
	if o == nil {
		return DefaultTreeOptions(), nil
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

// node is one split or leaf in a fitted tree.
type node struct {
	feature   int
	threshold float64
	left      *node
	right     *node
	value     float64
	leaf      bool
}

// Tree is a fitted regression tree splitting on weighted variance
// reduction.
type Tree struct {
	root *node
	opts *TreeOptions
}

// FitTree grows a regression tree on x and y. Sample weights scale each
// observation's contribution to leaf means and split scores; nil means
// uniform. The rng drives feature subsampling and may be nil when
// MaxFeatures is zero.
func FitTree(x *mat.Dense, y, weights []float64, opts *TreeOptions, rng *rand.Rand) (*Tree, error) {
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
	t := &Tree{opts: opts}
	t.root = t.grow(x, y, weights, idx, 0, rng)

	return t, nil
}

// Predict returns one prediction per row of x.
func (t *Tree) Predict(x *mat.Dense) []float64 {
	n, _ := x.Dims()
	out := make([]float64, n)
	t.predictInto(x, out)

	return out
}

// predictInto writes one prediction per row of x into out, which the
// ensemble fitters feed from a pooled scratch slice.
func (t *Tree) predictInto(x *mat.Dense, out []float64) {
	for i := range out {
		out[i] = t.predictRow(x, i)
	}
}

// Coefficients returns nil: tree predictions have no linear decomposition.
func (t *Tree) Coefficients() []float64 { return nil }

// Intercept returns zero for the same reason.
func (t *Tree) Intercept() float64 { return 0 }

func (t *Tree) predictRow(x *mat.Dense, i int) float64 {
	nd := t.root
	for !nd.leaf {
		if x.At(i, nd.feature) <= nd.threshold {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}

	return nd.value
}

func (t *Tree) grow(x *mat.Dense, y, w []float64, idx []int, depth int, rng *rand.Rand) *node {
	mean := weightedMean(y, w, idx)
	if depth >= t.opts.MaxDepth || len(idx) < 2*t.opts.MinSamplesLeaf {
		return &node{leaf: true, value: mean}
	}

	feat, thresh, ok := t.bestSplit(x, y, w, idx, rng)
	if !ok {
		return &node{leaf: true, value: mean}
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if x.At(i, feat) <= thresh {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feat,
		threshold: thresh,
		left:      t.grow(x, y, w, left, depth+1, rng),
		right:     t.grow(x, y, w, right, depth+1, rng),
	}
}

// bestSplit scans candidate features for the threshold with the lowest
// weighted sum of squared errors across the two children.
func (t *Tree) bestSplit(x *mat.Dense, y, w []float64, idx []int, rng *rand.Rand) (feat int, thresh float64, ok bool) {
	_, p := x.Dims()
	feats := candidateFeatures(p, t.opts.MaxFeatures, rng)

	bestScore := math.Inf(1)
	order := make([]int, len(idx))
	for _, f := range feats {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool {
			return x.At(order[a], f) < x.At(order[b], f)
		})

		// Running weighted sums from the left; the remainder is the right
		// child.
		var wTot, wyTot, wyyTot float64
		for _, i := range order {
			wi := sampleWeight(w, i)
			wTot += wi
			wyTot += wi * y[i]
			wyyTot += wi * y[i] * y[i]
		}

		var wL, wyL, wyyL float64
		for k := 0; k < len(order)-1; k++ {
			i := order[k]
			wi := sampleWeight(w, i)
			wL += wi
			wyL += wi * y[i]
			wyyL += wi * y[i] * y[i]

			if k+1 < t.opts.MinSamplesLeaf || len(order)-k-1 < t.opts.MinSamplesLeaf {
				continue
			}
			v := x.At(i, f)
			next := x.At(order[k+1], f)
			if v == next {
				continue
			}
			wR := wTot - wL
			if wL <= 0 || wR <= 0 {
				continue
			}
			// SSE = sum(w y²) - (sum(w y))² / sum(w), per child.
			score := (wyyL - wyL*wyL/wL) +
				((wyyTot - wyyL) - (wyTot-wyL)*(wyTot-wyL)/wR)
			if score < bestScore {
				bestScore = score
				feat = f
				thresh = (v + next) / 2
				ok = true
			}
		}
	}

	return feat, thresh, ok
}

func candidateFeatures(p, maxFeatures int, rng *rand.Rand) []int {
	feats := make([]int, p)
	for j := range feats {
		feats[j] = j
	}
	if maxFeatures == 0 || maxFeatures >= p || rng == nil {
		return feats
	}
	rng.Shuffle(p, func(i, j int) { feats[i], feats[j] = feats[j], feats[i] })
	feats = feats[:maxFeatures]
	sort.Ints(feats)

	return feats
}

func weightedMean(y, w []float64, idx []int) float64 {
	var sum, wSum float64
	for _, i := range idx {
		wi := sampleWeight(w, i)
		sum += wi * y[i]
		wSum += wi
	}
	if wSum == 0 {
		return 0
	}

	return sum / wSum
}

func sampleWeight(w []float64, i int) float64 {
	if w == nil {
		return 1
	}

	return w[i]
}
