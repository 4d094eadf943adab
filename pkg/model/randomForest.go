package model

import (
	"errors"
	"math/rand"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// RandomForest for classification
type RandomForest struct {
	// Hyperparameters / options
	NEstimators     int
	Criterion       string
	MaxDepth        int
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // same convention as DecisionTreeClassifier, -1 => sqrt
	ClassWeight     string
	Bootstrap       bool
	RandomState     int64

	// Fitted state
	Trees []*DecisionTreeClassifier
}

// RandomForestOption functional config for RandomForest
type RandomForestOption func(*RandomForest)

func WithNEstimators(n int) RandomForestOption { return func(rf *RandomForest) { rf.NEstimators = n } }
func WithBootstrap(b bool) RandomForestOption  { return func(rf *RandomForest) { rf.Bootstrap = b } }
func WithForestClassWeight(cw string) RandomForestOption {
	return func(rf *RandomForest) { rf.ClassWeight = cw }
}
func WithForestMaxDepth(d int) RandomForestOption { return func(rf *RandomForest) { rf.MaxDepth = d } }
func WithForestRandomState(seed int64) RandomForestOption {
	return func(rf *RandomForest) { rf.RandomState = seed }
}

// NewRandomForest initializes the forest with sensible defaults.
func NewRandomForest(opts ...RandomForestOption) *RandomForest {
	rf := &RandomForest{
		NEstimators:     100,
		Criterion:       "gini",
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     -1,
		Bootstrap:       true,
		RandomState:     time.Now().UnixNano(),
	}
	for _, o := range opts {
		o(rf)
	}
	return rf
}

func (rf *RandomForest) Fit(X [][]float64, y []int) error {
	return rf.FitWeighted(X, y, nil)
}

// FitWeighted trains the trees concurrently. Tree i draws its bootstrap sample
// from seed RandomState+i, and the draw counts become its sample weights.
func (rf *RandomForest) FitWeighted(X [][]float64, y []int, w []float64) error {
	if _, err := validate(X, y, w); err != nil {
		return errors.New("randomforest: " + err.Error())
	}
	if rf.NEstimators <= 0 {
		return errors.New("randomforest: NEstimators must be positive")
	}
	if rf.ClassWeight == "balanced" {
		w = balancedSampleWeights(y, w)
	}

	template := &DecisionTreeClassifier{
		Criterion:       rf.Criterion,
		MaxDepth:        rf.MaxDepth,
		MinSamplesSplit: rf.MinSamplesSplit,
		MinSamplesLeaf:  rf.MinSamplesLeaf,
		MaxFeatures:     rf.MaxFeatures,
	}
	trees, err := fitEnsemble(template, rf.NEstimators, rf.RandomState, rf.Bootstrap, X, y, w)
	if err != nil {
		return err
	}
	rf.Trees = trees
	return nil
}

// PredictProba averages p(y=1) over the trees.
func (rf *RandomForest) PredictProba(X [][]float64) []float64 {
	return averageProba(rf.Trees, X)
}

func (rf *RandomForest) Predict(X [][]float64) []int {
	return threshold(rf.PredictProba(X))
}

// fitEnsemble fits n unfitted copies of template with an errgroup bounded by GOMAXPROCS.
func fitEnsemble(template *DecisionTreeClassifier, n int, seed int64, bootstrap bool, X [][]float64, y []int, w []float64) ([]*DecisionTreeClassifier, error) {
	trees := make([]*DecisionTreeClassifier, n)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			treeSeed := seed + int64(i)
			sw := w
			if bootstrap {
				sw = bootstrapWeights(rand.New(rand.NewSource(treeSeed)), len(X), w)
			}
			tree := template.unfitted(treeSeed)
			if err := tree.FitWeighted(X, y, sw); err != nil {
				return err
			}
			trees[i] = tree
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return trees, nil
}

// bootstrapWeights draws n indices with replacement and returns the draw counts,
// scaled by w when given.
func bootstrapWeights(rnd *rand.Rand, n int, w []float64) []float64 {
	counts := make([]float64, n)
	for j := 0; j < n; j++ {
		counts[rnd.Intn(n)]++
	}
	if w != nil {
		for j := range counts {
			counts[j] *= w[j]
		}
	}
	return counts
}

func averageProba(trees []*DecisionTreeClassifier, X [][]float64) []float64 {
	out := make([]float64, len(X))
	if len(trees) == 0 {
		return out
	}
	for _, t := range trees {
		for i, p := range t.PredictProba(X) {
			out[i] += p
		}
	}
	for i := range out {
		out[i] /= float64(len(trees))
	}
	return out
}
