package model

import (
	"errors"
	"fmt"
	"math"
	"time"

	"frauddetect/pkg/optim"
)

// AdaBoost is the SAMME boosting algorithm over decision trees.
type AdaBoost struct {
	Base         *DecisionTreeClassifier
	NEstimators  int
	LearningRate float64
	RandomState  int64

	Trees  []*DecisionTreeClassifier
	Alphas []float64
}

// NewAdaBoost returns a booster over copies of base (a depth-1 stump when nil).
func NewAdaBoost(base *DecisionTreeClassifier, n int) *AdaBoost {
	if base == nil {
		base = NewDecisionTreeClassifier(WithMaxDepth(1))
	}
	return &AdaBoost{Base: base, NEstimators: n, LearningRate: 1, RandomState: time.Now().UnixNano()}
}

func (a *AdaBoost) Fit(X [][]float64, y []int) error {
	return a.FitWeighted(X, y, nil)
}

// FitWeighted boosts sequentially. A learner with zero weighted error ends
// training; a learner no better than chance is discarded and ends training,
// which is an error if it is the first one.
func (a *AdaBoost) FitWeighted(X [][]float64, y []int, w []float64) error {
	if _, err := validate(X, y, w); err != nil {
		return errors.New("adaboost: " + err.Error())
	}
	if a.NEstimators <= 0 {
		return errors.New("adaboost: NEstimators must be positive")
	}
	n := len(X)
	sw := make([]float64, n)
	for i := range sw {
		sw[i] = 1 / float64(n)
		if w != nil {
			sw[i] = w[i]
		}
	}
	normalizeInPlace(sw)

	a.Trees, a.Alphas = nil, nil
	for m := 0; m < a.NEstimators; m++ {
		tree := a.Base.unfitted(a.RandomState + int64(m))
		if err := tree.FitWeighted(X, y, sw); err != nil {
			return err
		}
		pred := tree.Predict(X)
		errW := 0.0
		for i := range pred {
			if pred[i] != y[i] {
				errW += sw[i]
			}
		}
		if errW <= 0 {
			a.Trees = append(a.Trees, tree)
			a.Alphas = append(a.Alphas, 1)
			return nil
		}
		if errW >= 0.5 {
			if m == 0 {
				return fmt.Errorf("adaboost: first learner has weighted error %.4f, no better than chance", errW)
			}
			return nil
		}
		alpha := a.LearningRate * math.Log((1-errW)/errW)
		a.Trees = append(a.Trees, tree)
		a.Alphas = append(a.Alphas, alpha)

		for i := range pred {
			if pred[i] != y[i] {
				sw[i] *= math.Exp(alpha)
			}
		}
		normalizeInPlace(sw)
	}
	return nil
}

// decision returns the normalized weighted vote in [-1, 1]; positive favours class 1.
func (a *AdaBoost) decision(X [][]float64) []float64 {
	out := make([]float64, len(X))
	total := sum(a.Alphas)
	if total == 0 {
		return out
	}
	for m, tree := range a.Trees {
		for i, p := range tree.Predict(X) {
			if p == 1 {
				out[i] += a.Alphas[m]
			} else {
				out[i] -= a.Alphas[m]
			}
		}
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

// PredictProba maps the vote s to sigmoid(s), the two-class softmax of (-s/2, s/2).
func (a *AdaBoost) PredictProba(X [][]float64) []float64 {
	d := a.decision(X)
	for i, s := range d {
		d[i] = optim.Sigmoid(s)
	}
	return d
}

func (a *AdaBoost) Predict(X [][]float64) []int {
	d := a.decision(X)
	out := make([]int, len(d))
	for i, s := range d {
		if s > 0 {
			out[i] = 1
		}
	}
	return out
}

func normalizeInPlace(w []float64) {
	s := sum(w)
	if s <= 0 {
		return
	}
	for i := range w {
		w[i] /= s
	}
}
