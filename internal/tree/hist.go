package tree

import (
	"errors"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// HistBoostOptions configures the histogram-based gradient-boosting
// fitter.
type HistBoostOptions struct {
	// Trees is the number of boosting rounds.
	Trees int
	// LearningRate shrinks each tree's contribution.
	LearningRate float64
	// MaxDepth limits each tree's depth.
	MaxDepth int
	// MinSamplesLeaf is the smallest sample count allowed in a leaf.
	MinSamplesLeaf int
	// MaxBins caps the number of histogram bins per feature, at most 256.
	MaxBins int
}

// ErrBadBins is returned when the bin count is outside [2, 256].
var ErrBadBins = errors.New("max bins must be in [2, 256]")

// DefaultHistBoostOptions returns the default histogram-boosting
// configuration.
func DefaultHistBoostOptions() *HistBoostOptions {
	return &HistBoostOptions{
		Trees:          100,
		LearningRate:   0.1,
		MaxDepth:       6,
		MinSamplesLeaf: 20,
		MaxBins:        256,
	}
}

// Validate checks the options and fills a nil receiver with defaults.
func (o *HistBoostOptions) Validate() (*HistBoostOptions, error) {
	if o == nil {
		return DefaultHistBoostOptions(), nil
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
	if o.MaxBins < 2 || o.MaxBins > 256 {
		return nil, ErrBadBins
	}

	return o, nil
}

// HistBoosted is a gradient-boosted ensemble trained on binned features.
// The per-feature bin edges learned at fit time map raw values to bins at
// prediction time, so the fitted trees split on bin indices only.
type HistBoosted struct {
	base         float64
	learningRate float64
	edges        [][]float64
	trees        []*histNode
}

// histNode is one split or leaf in a binned tree; splits compare the bin
// index of a feature against a bin threshold.
type histNode struct {
	feature int
	bin     uint8
	left    *histNode
	right   *histNode
	value   float64
	leaf    bool
}

// FitHistBoosted fits a histogram-based gradient-boosted ensemble with
// squared loss. Features are quantile-binned once up front; every split
// search then scans per-bin accumulated sums instead of sorted raw values.
// Sample weights scale each observation's contribution; nil means uniform.
func FitHistBoosted(x *mat.Dense, y, weights []float64, opts *HistBoostOptions) (*HistBoosted, error) {
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

	edges, binned := binFeatures(x, opts.MaxBins)

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	base := weightedMean(y, weights, idx)

	resid := make([]float64, n)
	for i := range resid {
		resid[i] = y[i] - base
	}

	h := &HistBoosted{
		base:         base,
		learningRate: opts.LearningRate,
		edges:        edges,
		trees:        make([]*histNode, 0, opts.Trees),
	}
	g := &histGrower{
		binned: binned,
		w:      weights,
		opts:   opts,
		p:      p,
	}
	for t := 0; t < opts.Trees; t++ {
		root := g.grow(resid, idx, 0)
		h.trees = append(h.trees, root)

		for i := 0; i < n; i++ {
			resid[i] -= opts.LearningRate * predictBinned(root, binned, i)
		}
	}

	return h, nil
}

// Predict bins each row with the fitted edges and runs it through the
// ensemble.
func (h *HistBoosted) Predict(x *mat.Dense) []float64 {
	n, p := x.Dims()
	out := make([]float64, n)
	row := make([]uint8, p)
	for i := 0; i < n; i++ {
		for j := 0; j < p; j++ {
			row[j] = binValue(h.edges[j], x.At(i, j))
		}
		v := h.base
		for _, root := range h.trees {
			nd := root
			for !nd.leaf {
				if row[nd.feature] <= nd.bin {
					nd = nd.left
				} else {
					nd = nd.right
				}
			}
			v += h.learningRate * nd.value
		}
		out[i] = v
	}

	return out
}

// Coefficients returns nil: boosted predictions have no linear
// decomposition.
func (h *HistBoosted) Coefficients() []float64 { return nil }

// Intercept returns zero for the same reason.
func (h *HistBoosted) Intercept() float64 { return 0 }

// histGrower carries the fit-wide state shared across rounds.
type histGrower struct {
	binned [][]uint8
	w      []float64
	opts   *HistBoostOptions
	p      int
}

func (g *histGrower) grow(resid []float64, idx []int, depth int) *histNode {
	mean := weightedMean(resid, g.w, idx)
	if depth >= g.opts.MaxDepth || len(idx) < 2*g.opts.MinSamplesLeaf {
		return &histNode{leaf: true, value: mean}
	}

	feat, bin, ok := g.bestSplit(resid, idx)
	if !ok {
		return &histNode{leaf: true, value: mean}
	}

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if g.binned[feat][i] <= bin {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < g.opts.MinSamplesLeaf || len(right) < g.opts.MinSamplesLeaf {
		return &histNode{leaf: true, value: mean}
	}

	return &histNode{
		feature: feat,
		bin:     bin,
		left:    g.grow(resid, left, depth+1),
		right:   g.grow(resid, right, depth+1),
	}
}

// bestSplit accumulates per-bin weight and residual sums for each feature
// and scans the bin boundaries for the lowest two-child weighted SSE.
func (g *histGrower) bestSplit(resid []float64, idx []int) (feat int, bin uint8, ok bool) {
	bins := g.opts.MaxBins
	wSum := make([]float64, bins)
	wySum := make([]float64, bins)
	wyySum := make([]float64, bins)
	cnt := make([]int, bins)

	bestScore := math.Inf(1)
	for f := 0; f < g.p; f++ {
		for b := 0; b < bins; b++ {
			wSum[b], wySum[b], wyySum[b], cnt[b] = 0, 0, 0, 0
		}
		var wTot, wyTot, wyyTot float64
		for _, i := range idx {
			b := g.binned[f][i]
			wi := sampleWeight(g.w, i)
			wSum[b] += wi
			wySum[b] += wi * resid[i]
			wyySum[b] += wi * resid[i] * resid[i]
			cnt[b]++
			wTot += wi
			wyTot += wi * resid[i]
			wyyTot += wi * resid[i] * resid[i]
		}

		var wL, wyL, wyyL float64
		nL := 0
		for b := 0; b < bins-1; b++ {
			wL += wSum[b]
			wyL += wySum[b]
			wyyL += wyySum[b]
			nL += cnt[b]
			if nL < g.opts.MinSamplesLeaf || len(idx)-nL < g.opts.MinSamplesLeaf {
				continue
			}
			wR := wTot - wL
			if wL <= 0 || wR <= 0 {
				continue
			}
			score := (wyyL - wyL*wyL/wL) +
				((wyyTot - wyyL) - (wyTot-wyL)*(wyTot-wyL)/wR)
			if score < bestScore {
				bestScore = score
				feat = f
				bin = uint8(b)
				ok = true
			}
		}
	}

	return feat, bin, ok
}

func predictBinned(root *histNode, binned [][]uint8, i int) float64 {
	nd := root
	for !nd.leaf {
		if binned[nd.feature][i] <= nd.bin {
			nd = nd.left
		} else {
			nd = nd.right
		}
	}

	return nd.value
}

// binFeatures quantile-bins each feature into at most maxBins bins and
// returns the upper edges plus the per-feature binned columns.
func binFeatures(x *mat.Dense, maxBins int) (edges [][]float64, binned [][]uint8) {
	n, p := x.Dims()
	edges = make([][]float64, p)
	binned = make([][]uint8, p)

	vals := make([]float64, n)
	for j := 0; j < p; j++ {
		for i := 0; i < n; i++ {
			vals[i] = x.At(i, j)
		}
		sorted := append([]float64(nil), vals...)
		sort.Float64s(sorted)

		// Distinct quantile cut points; ties collapse bins.
		e := make([]float64, 0, maxBins-1)
		for b := 1; b < maxBins; b++ {
			q := sorted[(b*n)/maxBins]
			if len(e) == 0 || q > e[len(e)-1] {
				e = append(e, q)
			}
		}
		edges[j] = e

		col := make([]uint8, n)
		for i := 0; i < n; i++ {
			col[i] = binValue(e, vals[i])
		}
		binned[j] = col
	}

	return edges, binned
}

// binValue returns the bin index of v: the count of edges strictly below
// it.
func binValue(edges []float64, v float64) uint8 {
	lo, hi := 0, len(edges)
	for lo < hi {
		mid := (lo + hi) / 2
		if edges[mid] < v {
			lo = mid + 1
		} else {
			hi = mid
		}
	}

	return uint8(lo)
}
