package model

import (
	"errors"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// ---------------------------
// Types & options
// ---------------------------

// DecisionTreeClassifier is a weighted CART-style classifier.
type DecisionTreeClassifier struct {
	// Hyperparameters / options
	MaxDepth            int     // maximum depth (root depth = 0). 0 => no limit
	MinSamplesSplit     int     // minimum samples to attempt a split
	MinSamplesLeaf      int     // minimum samples required in each leaf
	Criterion           string  // "gini" (default) or "entropy"
	MaxFeatures         int     // 0 => all features, -1 => sqrt(p), >0 => that many per split
	ClassWeight         string  // "balanced" or ""
	MinImpurityDecrease float64 // minimal impurity decrease to accept a split
	RandomState         int64   // seed for feature subsampling

	// Fitted state
	Tree   *Node
	Labels []int // sorted class labels; Node.Value is aligned with it
}

// Node is a node of a fitted tree.
type Node struct {
	Leaf        bool
	Feature     int
	Threshold   float64 // numeric: x <= Threshold goes left
	Categorical bool    // equality split: x == Threshold goes left
	MissingLeft bool    // NaN goes left
	Left        *Node
	Right       *Node

	Samples  int
	Weight   float64
	Impurity float64
	Value    []float64 // weighted class distribution
}

// Option functional config
type Option func(*DecisionTreeClassifier)

func WithMaxDepth(d int) Option { return func(t *DecisionTreeClassifier) { t.MaxDepth = d } }
func WithMinSamplesSplit(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesSplit = n }
}
func WithMinSamplesLeaf(n int) Option {
	return func(t *DecisionTreeClassifier) { t.MinSamplesLeaf = n }
}
func WithCriterion(c string) Option { return func(t *DecisionTreeClassifier) { t.Criterion = c } }
func WithMaxFeatures(k int) Option  { return func(t *DecisionTreeClassifier) { t.MaxFeatures = k } }
func WithClassWeight(cw string) Option {
	return func(t *DecisionTreeClassifier) { t.ClassWeight = cw }
}
func WithMinImpurityDecrease(v float64) Option {
	return func(t *DecisionTreeClassifier) { t.MinImpurityDecrease = v }
}
func WithRandomState(seed int64) Option {
	return func(t *DecisionTreeClassifier) { t.RandomState = seed }
}

// NewDecisionTreeClassifier returns a classifier with sensible defaults.
func NewDecisionTreeClassifier(opts ...Option) *DecisionTreeClassifier {
	d := &DecisionTreeClassifier{
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Criterion:       "gini",
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// unfitted returns a copy of the hyperparameters with a new seed.
func (t *DecisionTreeClassifier) unfitted(seed int64) *DecisionTreeClassifier {
	c := *t
	c.Tree, c.Labels = nil, nil
	c.RandomState = seed
	return &c
}

// Root returns the fitted root node, nil before Fit.
func (t *DecisionTreeClassifier) Root() *Node { return t.Tree }

// Classes returns the class labels Node.Value is aligned with.
func (t *DecisionTreeClassifier) Classes() []int { return t.Labels }

// ---------------------------
// Public API: Fit / Predict / PredictProba
// ---------------------------

// Fit trains the tree with unit sample weights.
// Missing values must be math.NaN(). Integer-coded categorical features with
// few distinct values are also tried as equality splits.
func (t *DecisionTreeClassifier) Fit(X [][]float64, y []int) error {
	return t.FitWeighted(X, y, nil)
}

// FitWeighted trains the tree with per-sample weights. Rows with weight <= 0 are ignored.
func (t *DecisionTreeClassifier) FitWeighted(X [][]float64, y []int, w []float64) error {
	p, err := validate(X, y, w)
	if err != nil {
		return errors.New("dtree: " + err.Error())
	}
	if t.ClassWeight == "balanced" {
		w = balancedSampleWeights(y, w)
	}

	t.Labels = sortedClasses(y)
	b := &treeBuilder{
		t:        t,
		X:        X,
		ci:       make([]int, len(y)),
		w:        make([]float64, len(y)),
		p:        p,
		k:        len(t.Labels),
		nFeat:    t.featuresPerSplit(p),
		rnd:      rand.New(rand.NewSource(t.RandomState)),
		entropy:  t.Criterion == "entropy",
		minLeaf:  max(t.MinSamplesLeaf, 1),
		minSplit: max(t.MinSamplesSplit, 2),
	}
	idx := make([]int, 0, len(y))
	for i, lab := range y {
		b.ci[i] = sort.SearchInts(t.Labels, lab)
		b.w[i] = 1
		if w != nil {
			b.w[i] = w[i]
		}
		if b.w[i] > 0 {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 {
		return errors.New("dtree: all sample weights are zero")
	}
	t.Tree = b.build(idx, 0)
	return nil
}

// Predict returns the class with the highest weighted share in the reached leaf.
func (t *DecisionTreeClassifier) Predict(X [][]float64) []int {
	out := make([]int, len(X))
	for i := range X {
		v := t.leaf(X[i]).Value
		out[i] = t.Labels[argmax(v)]
	}
	return out
}

// PredictProba returns p(y=1) for each row in X.
func (t *DecisionTreeClassifier) PredictProba(X [][]float64) []float64 {
	pos := sort.SearchInts(t.Labels, 1)
	hasPos := pos < len(t.Labels) && t.Labels[pos] == 1
	out := make([]float64, len(X))
	if !hasPos {
		return out
	}
	for i := range X {
		out[i] = t.leaf(X[i]).Value[pos]
	}
	return out
}

func (t *DecisionTreeClassifier) leaf(x []float64) *Node {
	node := t.Tree
	for !node.Leaf {
		if node.goesLeft(x[node.Feature]) {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node
}

func (n *Node) goesLeft(v float64) bool {
	switch {
	case math.IsNaN(v):
		return n.MissingLeft
	case n.Categorical:
		return v == n.Threshold
	default:
		return v <= n.Threshold
	}
}

func (t *DecisionTreeClassifier) featuresPerSplit(p int) int {
	switch {
	case t.MaxFeatures == -1:
		return max(int(math.Sqrt(float64(p))), 1)
	case t.MaxFeatures > 0 && t.MaxFeatures < p:
		return t.MaxFeatures
	default:
		return p
	}
}

// ---------------------------
// Internal builders & helpers
// ---------------------------

// parallelSplitMin is the node size from which features are searched concurrently.
const parallelSplitMin = 4096

// maxCategories bounds the distinct values of a feature tried as equality splits.
const maxCategories = 30

type treeBuilder struct {
	t        *DecisionTreeClassifier
	X        [][]float64
	ci       []int // class index per row
	w        []float64
	p, k     int
	nFeat    int
	rnd      *rand.Rand
	entropy  bool
	minLeaf  int
	minSplit int
}

// splitResult holds the best split found for one feature.
type splitResult struct {
	gain        float64
	feature     int
	threshold   float64
	categorical bool
	missingLeft bool
}

// pair is a feature value and its row index.
type pair struct {
	v float64
	i int
}

func (b *treeBuilder) build(idx []int, depth int) *Node {
	counts := make([]float64, b.k)
	for _, i := range idx {
		counts[b.ci[i]] += b.w[i]
	}
	total := sum(counts)
	node := &Node{
		Leaf:     true,
		Samples:  len(idx),
		Weight:   total,
		Impurity: b.impurity(counts),
		Value:    normalize(counts),
	}
	if isPure(counts) || len(idx) < b.minSplit || len(idx) < 2*b.minLeaf {
		return node
	}
	if b.t.MaxDepth > 0 && depth >= b.t.MaxDepth {
		return node
	}

	feats := b.sampleFeatures()
	results := make([]splitResult, len(feats))
	if len(idx) >= parallelSplitMin && len(feats) > 1 {
		var wg sync.WaitGroup
		for n, f := range feats {
			wg.Add(1)
			go func(n, f int) {
				defer wg.Done()
				results[n] = b.bestSplit(idx, f, counts, node.Impurity)
			}(n, f)
		}
		wg.Wait()
	} else {
		for n, f := range feats {
			results[n] = b.bestSplit(idx, f, counts, node.Impurity)
		}
	}

	best := splitResult{feature: -1}
	for _, r := range results {
		if r.feature >= 0 && r.gain > best.gain {
			best = r
		}
	}
	if best.feature == -1 || best.gain <= b.t.MinImpurityDecrease || best.gain <= 1e-12 {
		return node
	}

	node.Leaf = false
	node.Feature = best.feature
	node.Threshold = best.threshold
	node.Categorical = best.categorical
	node.MissingLeft = best.missingLeft

	left := make([]int, 0, len(idx))
	right := make([]int, 0, len(idx))
	for _, i := range idx {
		if node.goesLeft(b.X[i][best.feature]) {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	node.Left = b.build(left, depth+1)
	node.Right = b.build(right, depth+1)
	return node
}

func (b *treeBuilder) sampleFeatures() []int {
	feats := make([]int, b.p)
	for j := range feats {
		feats[j] = j
	}
	if b.nFeat >= b.p {
		return feats
	}
	for i := 0; i < b.nFeat; i++ {
		j := i + b.rnd.Intn(b.p-i)
		feats[i], feats[j] = feats[j], feats[i]
	}
	return feats[:b.nFeat]
}

// bestSplit sweeps the sorted values of feature f once, keeping running weighted
// class totals on the left side. NaN rows are tried on both sides.
func (b *treeBuilder) bestSplit(idx []int, f int, parent []float64, parentImp float64) splitResult {
	result := splitResult{feature: -1}
	total := sum(parent)

	valid := make([]pair, 0, len(idx))
	nan := make([]float64, b.k)
	nanN := 0
	for _, i := range idx {
		v := b.X[i][f]
		if math.IsNaN(v) {
			nan[b.ci[i]] += b.w[i]
			nanN++
			continue
		}
		valid = append(valid, pair{v, i})
	}
	if len(valid) < 2 {
		return result
	}
	sort.Slice(valid, func(a, c int) bool { return valid[a].v < valid[c].v })

	validTot := make([]float64, b.k)
	for n := range parent {
		validTot[n] = parent[n] - nan[n]
	}

	left := make([]float64, b.k)
	right := make([]float64, b.k)
	lbuf := make([]float64, b.k)
	rbuf := make([]float64, b.k)

	try := func(thr float64, categorical bool, leftN int) {
		rightN := len(valid) - leftN
		for n := range left {
			right[n] = validTot[n] - left[n]
		}
		for _, nanLeft := range [2]bool{true, false} {
			if nanN == 0 && !nanLeft {
				break
			}
			ln, rn := leftN, rightN
			copy(lbuf, left)
			copy(rbuf, right)
			if nanN > 0 {
				if nanLeft {
					ln += nanN
					addTo(lbuf, nan)
				} else {
					rn += nanN
					addTo(rbuf, nan)
				}
			}
			if ln < b.minLeaf || rn < b.minLeaf {
				continue
			}
			wl, wr := sum(lbuf), sum(rbuf)
			if wl <= 0 || wr <= 0 {
				continue
			}
			gain := parentImp - (wl/total)*b.impurity(lbuf) - (wr/total)*b.impurity(rbuf)
			if gain > result.gain {
				missingLeft := nanLeft
				if nanN == 0 {
					missingLeft = wl >= wr
				}
				result = splitResult{gain: gain, feature: f, threshold: thr, categorical: categorical, missingLeft: missingLeft}
			}
		}
	}

	// numeric thresholds between distinct neighbours
	for s := 0; s < len(valid)-1; s++ {
		left[b.ci[valid[s].i]] += b.w[valid[s].i]
		a, c := valid[s].v, valid[s+1].v
		if a == c {
			continue
		}
		thr := a + (c-a)/2
		if thr >= c {
			thr = a
		}
		try(thr, false, s+1)
	}

	// equality splits on integer-coded features with few values
	if cats := distinctIntLike(valid); len(cats) > 2 {
		for _, uv := range cats {
			for n := range left {
				left[n] = 0
			}
			leftN := 0
			for _, pv := range valid {
				if pv.v == uv {
					left[b.ci[pv.i]] += b.w[pv.i]
					leftN++
				}
			}
			try(uv, true, leftN)
		}
	}
	return result
}

func (b *treeBuilder) impurity(counts []float64) float64 {
	if b.entropy {
		return entropy(counts)
	}
	return gini(counts)
}

// distinctIntLike returns the distinct values of sorted pairs when all are
// integer-like and there are at most maxCategories of them.
func distinctIntLike(sorted []pair) []float64 {
	out := make([]float64, 0, maxCategories)
	for n, p := range sorted {
		if n > 0 && p.v == sorted[n-1].v {
			continue
		}
		if !almostInt(p.v) || len(out) == maxCategories {
			return nil
		}
		out = append(out, p.v)
	}
	return out
}

// ---------------------------
// Utilities: impurity & misc
// ---------------------------

func almostInt(v float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return false
	}
	_, frac := math.Modf(math.Abs(v))
	return frac < 1e-9 || frac > 1-1e-9
}

func gini(counts []float64) float64 {
	n := sum(counts)
	if n <= 0 {
		return 0
	}
	res := 1.0
	for _, c := range counts {
		p := c / n
		res -= p * p
	}
	return res
}

func entropy(counts []float64) float64 {
	n := sum(counts)
	if n <= 0 {
		return 0
	}
	res := 0.0
	for _, c := range counts {
		if c <= 0 {
			continue
		}
		p := c / n
		res -= p * math.Log2(p)
	}
	return res
}

func isPure(counts []float64) bool {
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

func normalize(counts []float64) []float64 {
	n := sum(counts)
	p := make([]float64, len(counts))
	if n <= 0 {
		return p
	}
	for i, c := range counts {
		p[i] = c / n
	}
	return p
}

func sum(x []float64) float64 {
	s := 0.0
	for _, v := range x {
		s += v
	}
	return s
}

func addTo(dst, src []float64) {
	for i, v := range src {
		dst[i] += v
	}
}

func argmax(arr []float64) int {
	best := 0
	for i := 1; i < len(arr); i++ {
		if arr[i] > arr[best] {
			best = i
		}
	}
	return best
}
