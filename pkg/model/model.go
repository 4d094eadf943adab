package model

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
)

// Classifier is a binary classifier over dense rows. Labels are 0/1.
type Classifier interface {
	Fit(X [][]float64, y []int) error
	Predict(X [][]float64) []int
	PredictProba(X [][]float64) []float64 // returns p(y=1)
}

// WeightedFitter is a Classifier that accepts per-sample weights.
type WeightedFitter interface {
	Classifier
	FitWeighted(X [][]float64, y []int, w []float64) error
}

var errEmptyX = errors.New("empty X")

// validate checks shape agreement and returns the feature count.
func validate(X [][]float64, y []int, w []float64) (int, error) {
	if len(X) == 0 {
		return 0, errEmptyX
	}
	if len(y) != len(X) {
		return 0, fmt.Errorf("X has %d rows but y has %d labels", len(X), len(y))
	}
	if w != nil && len(w) != len(X) {
		return 0, fmt.Errorf("X has %d rows but w has %d weights", len(X), len(w))
	}
	p := len(X[0])
	for i, row := range X {
		if len(row) != p {
			return 0, fmt.Errorf("row %d has %d features, want %d", i, len(row), p)
		}
	}
	return p, nil
}

// BalancedClassWeights returns n / (k * n_c) for every class c present in y.
func BalancedClassWeights(y []int) map[int]float64 {
	counts := map[int]int{}
	for _, v := range y {
		counts[v]++
	}
	out := make(map[int]float64, len(counts))
	k := float64(len(counts))
	for c, nc := range counts {
		out[c] = float64(len(y)) / (k * float64(nc))
	}
	return out
}

// balancedSampleWeights multiplies w (nil means all ones) by the balanced class weight of each row.
func balancedSampleWeights(y []int, w []float64) []float64 {
	cw := BalancedClassWeights(y)
	out := make([]float64, len(y))
	for i, v := range y {
		out[i] = cw[v]
		if w != nil {
			out[i] *= w[i]
		}
	}
	return out
}

func sortedClasses(y []int) []int {
	seen := map[int]struct{}{}
	out := []int{}
	for _, v := range y {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Ints(out)
	return out
}

// threshold turns probabilities into labels with p > 0.5 => 1.
func threshold(proba []float64) []int {
	out := make([]int, len(proba))
	for i, p := range proba {
		if p > 0.5 {
			out[i] = 1
		}
	}
	return out
}

// parallelRows runs fn over row blocks, one block per available CPU.
func parallelRows(n int, fn func(start, end int)) {
	if n == 0 {
		return
	}
	workers := runtime.GOMAXPROCS(0)
	rowsPerWorker := (n + workers - 1) / workers
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rowsPerWorker
		end := min(start+rowsPerWorker, n)
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}
	wg.Wait()
}
