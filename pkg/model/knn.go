package model

import (
	"errors"
	"math"
	"sort"
)

// KNN classifies 0/1 labels by the K nearest training rows.
type KNN struct {
	K       int
	Weights string // "distance" (default) or "uniform"

	X [][]float64
	Y []int
}

// NewKNN creates and returns a new KNN model.
func NewKNN(k int, weights string) *KNN {
	if weights == "" {
		weights = "distance"
	}
	return &KNN{K: k, Weights: weights}
}

// Fit stores the training data and labels.
func (m *KNN) Fit(X [][]float64, y []int) error {
	if _, err := validate(X, y, nil); err != nil {
		return errors.New("knn: " + err.Error())
	}
	if m.K <= 0 {
		return errors.New("knn: K must be positive")
	}
	if m.Weights != "distance" && m.Weights != "uniform" {
		return errors.New("knn: unknown weights " + m.Weights)
	}
	m.X = X
	m.Y = y
	return nil
}

// PredictProba returns the weighted share of positive neighbours for each row,
// computed in parallel row blocks.
func (m *KNN) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	parallelRows(len(X), func(s, e int) {
		for i := s; i < e; i++ {
			out[i] = m.probaSingle(X[i])
		}
	})
	return out
}

func (m *KNN) Predict(X [][]float64) []int {
	return threshold(m.PredictProba(X))
}

type neighbour struct {
	d float64 // squared distance
	y int
}

// probaSingle keeps a small sorted slice of the K nearest neighbours.
func (m *KNN) probaSingle(xi []float64) float64 {
	k := min(m.K, len(m.X))
	nbrs := make([]neighbour, 0, k+1)
	for j, xj := range m.X {
		d := euclidSquared(xi, xj)
		if len(nbrs) == k && d >= nbrs[k-1].d {
			continue
		}
		pos := sort.Search(len(nbrs), func(a int) bool { return nbrs[a].d > d })
		nbrs = append(nbrs, neighbour{})
		copy(nbrs[pos+1:], nbrs[pos:])
		nbrs[pos] = neighbour{d: d, y: m.Y[j]}
		if len(nbrs) > k {
			nbrs = nbrs[:k]
		}
	}
	if len(nbrs) == 0 {
		return 0
	}

	if m.Weights == "distance" {
		// exact matches take all the weight
		if nbrs[0].d == 0 {
			pos, n := 0, 0
			for _, nb := range nbrs {
				if nb.d == 0 {
					n++
					pos += nb.y
				}
			}
			return float64(pos) / float64(n)
		}
		pos, tot := 0.0, 0.0
		for _, nb := range nbrs {
			w := 1 / math.Sqrt(nb.d)
			tot += w
			if nb.y == 1 {
				pos += w
			}
		}
		return pos / tot
	}

	pos := 0
	for _, nb := range nbrs {
		pos += nb.y
	}
	return float64(pos) / float64(len(nbrs))
}

// euclidSquared computes the squared Euclidean distance between two vectors.
// NaN coordinates are skipped.
func euclidSquared(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		d := a[i] - b[i]
		if math.IsNaN(d) {
			continue
		}
		sum += d * d
	}
	return sum
}
