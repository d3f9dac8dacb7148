package model

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// TreeNode is one node of a fitted regression tree. Children are indices
// into RegressionTree.Nodes; leaves have Left == Right == -1.
type TreeNode struct {
	Feature   int
	Threshold float64 // x <= Threshold => left
	Left      int
	Right     int
	Value     float64 // mean target of the samples reaching the node
	N         int
}

func (n TreeNode) leaf() bool { return n.Left < 0 }

// RegressionTree is a CART tree minimizing squared error.
type RegressionTree struct {
	MaxDepth        int // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit int
	MinSamplesLeaf  int

	Nodes []TreeNode
}

// TreeOption functional config
type TreeOption func(*RegressionTree)

func WithMaxDepth(d int) TreeOption { return func(t *RegressionTree) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) TreeOption {
	return func(t *RegressionTree) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) TreeOption {
	return func(t *RegressionTree) { t.MinSamplesLeaf = n }
}

func NewRegressionTree(opts ...TreeOption) *RegressionTree {
	t := &RegressionTree{MinSamplesSplit: 2, MinSamplesLeaf: 1}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Fit grows the tree on X (n x p) and y.
func (t *RegressionTree) Fit(X [][]float64, y []float64) error {
	if err := checkXY("dtree", X, y); err != nil {
		return err
	}
	return t.fitSorted(X, y, presort(X))
}

func checkXY(prefix string, X [][]float64, y []float64) error {
	if len(X) == 0 {
		return fmt.Errorf("%s: empty X", prefix)
	}
	if len(y) != len(X) {
		return fmt.Errorf("%s: X and y length mismatch", prefix)
	}
	p := len(X[0])
	if p == 0 {
		return fmt.Errorf("%s: no features", prefix)
	}
	for i := range X {
		if len(X[i]) != p {
			return fmt.Errorf("%s: inconsistent number of features in X rows", prefix)
		}
	}
	return nil
}

// presort returns, per feature, the row indices ordered by that feature's
// value. NaNs sort last.
func presort(X [][]float64) [][]int {
	p := len(X[0])
	sorted := make([][]int, p)
	var wg sync.WaitGroup
	for f := 0; f < p; f++ {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			idx := make([]int, len(X))
			for i := range idx {
				idx[i] = i
			}
			sort.SliceStable(idx, func(a, b int) bool {
				va, vb := X[idx[a]][f], X[idx[b]][f]
				if math.IsNaN(vb) {
					return !math.IsNaN(va)
				}
				return va < vb
			})
			sorted[f] = idx
		}(f)
	}
	wg.Wait()
	return sorted
}

type treeBuilder struct {
	X        [][]float64
	y        []float64
	goesLeft []bool
}

func (t *RegressionTree) fitSorted(X [][]float64, y []float64, sorted [][]int) error {
	if len(sorted) != len(X[0]) {
		return errors.New("dtree: presorted index does not match X")
	}
	t.Nodes = t.Nodes[:0]
	b := &treeBuilder{X: X, y: y, goesLeft: make([]bool, len(X))}
	t.build(b, sorted, 0)
	return nil
}

// splitResult holds the best split found on a single feature.
type splitResult struct {
	gain      float64
	feature   int
	pos       int // rows sorted[feature][:pos] go left
	threshold float64
}

func (t *RegressionTree) build(b *treeBuilder, sorted [][]int, depth int) int {
	rows := sorted[0]
	n := len(rows)
	sum := 0.0
	for _, r := range rows {
		sum += b.y[r]
	}
	id := len(t.Nodes)
	t.Nodes = append(t.Nodes, TreeNode{Feature: -1, Left: -1, Right: -1, Value: sum / float64(n), N: n})

	if t.MaxDepth > 0 && depth >= t.MaxDepth {
		return id
	}
	if n < t.MinSamplesSplit || n < 2*max(t.MinSamplesLeaf, 1) {
		return id
	}

	// Parallel search for the best split for each feature.
	results := make(chan splitResult, len(sorted))
	var wg sync.WaitGroup
	for f := range sorted {
		wg.Add(1)
		go func(f int) {
			defer wg.Done()
			results <- t.bestSplitForFeature(b, sorted[f], f, sum)
		}(f)
	}
	wg.Wait()
	close(results)

	best := splitResult{feature: -1}
	for r := range results {
		if r.feature < 0 {
			continue
		}
		// ties go to the lowest feature index so fits are deterministic
		if best.feature < 0 || r.gain > best.gain || (r.gain == best.gain && r.feature < best.feature) {
			best = r
		}
	}
	if best.feature < 0 || best.gain <= 1e-12 {
		return id
	}

	order := sorted[best.feature]
	for k, r := range order {
		b.goesLeft[r] = k < best.pos
	}
	left := make([][]int, len(sorted))
	right := make([][]int, len(sorted))
	for f, idx := range sorted {
		l := make([]int, 0, best.pos)
		r := make([]int, 0, n-best.pos)
		for _, row := range idx {
			if b.goesLeft[row] {
				l = append(l, row)
			} else {
				r = append(r, row)
			}
		}
		left[f], right[f] = l, r
	}

	l := t.build(b, left, depth+1)
	r := t.build(b, right, depth+1)
	node := &t.Nodes[id]
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Left = l
	node.Right = r
	return id
}

// bestSplitForFeature scans the rows in feature order with running sums;
// the gain is the reduction in squared error.
func (t *RegressionTree) bestSplitForFeature(b *treeBuilder, rows []int, f int, sum float64) splitResult {
	result := splitResult{feature: -1}
	n := len(rows)
	minLeaf := max(t.MinSamplesLeaf, 1)
	parent := sum * sum / float64(n)

	sumL := 0.0
	for s := 1; s < n; s++ {
		sumL += b.y[rows[s-1]]
		prev, cur := b.X[rows[s-1]][f], b.X[rows[s]][f]
		if math.IsNaN(cur) {
			break
		}
		if cur == prev || s < minLeaf || n-s < minLeaf {
			continue
		}
		sumR := sum - sumL
		gain := sumL*sumL/float64(s) + sumR*sumR/float64(n-s) - parent
		if result.feature < 0 || gain > result.gain {
			thr := (prev + cur) / 2
			if thr >= cur {
				thr = prev
			}
			result = splitResult{gain: gain, feature: f, pos: s, threshold: thr}
		}
	}
	return result
}

// Predict returns the leaf value for each row.
func (t *RegressionTree) Predict(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = t.predictOne(x)
	}
	return out
}

func (t *RegressionTree) predictOne(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	node := t.Nodes[0]
	for !node.leaf() {
		val := x[node.Feature]
		next := node.Right
		if math.IsNaN(val) {
			// missing: choose branch with more samples
			if t.Nodes[node.Left].N >= t.Nodes[node.Right].N {
				next = node.Left
			}
		} else if val <= node.Threshold {
			next = node.Left
		}
		node = t.Nodes[next]
	}
	return node.Value
}

// Depth returns the depth of the fitted tree.
func (t *RegressionTree) Depth() int {
	if len(t.Nodes) == 0 {
		return 0
	}
	var walk func(id int) int
	walk = func(id int) int {
		n := t.Nodes[id]
		if n.leaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}
