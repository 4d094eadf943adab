package model

import (
	"errors"
	"time"
)

// Bagging averages trees fit on bootstrap samples of the training set.
type Bagging struct {
	Base        *DecisionTreeClassifier
	NEstimators int
	Bootstrap   bool
	RandomState int64

	Trees []*DecisionTreeClassifier
}

// NewBagging returns a bagging ensemble over copies of base (a default tree when nil).
func NewBagging(base *DecisionTreeClassifier, n int) *Bagging {
	if base == nil {
		base = NewDecisionTreeClassifier()
	}
	return &Bagging{Base: base, NEstimators: n, Bootstrap: true, RandomState: time.Now().UnixNano()}
}

func (b *Bagging) Fit(X [][]float64, y []int) error {
	return b.FitWeighted(X, y, nil)
}

func (b *Bagging) FitWeighted(X [][]float64, y []int, w []float64) error {
	if _, err := validate(X, y, w); err != nil {
		return errors.New("bagging: " + err.Error())
	}
	if b.NEstimators <= 0 {
		return errors.New("bagging: NEstimators must be positive")
	}
	trees, err := fitEnsemble(b.Base, b.NEstimators, b.RandomState, b.Bootstrap, X, y, w)
	if err != nil {
		return err
	}
	b.Trees = trees
	return nil
}

func (b *Bagging) PredictProba(X [][]float64) []float64 {
	return averageProba(b.Trees, X)
}

func (b *Bagging) Predict(X [][]float64) []int {
	return threshold(b.PredictProba(X))
}
