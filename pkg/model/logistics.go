package model

import (
	"errors"
	"math"

	"frauddetect/pkg/data"
	"frauddetect/pkg/optim"
)

// LogisticRegression is an L2-regularized binary logistic model trained with gradient descent.
// The objective is mean(sampleWeight * logloss) + ||W||^2 / (2*C*n), which has the same
// minimizer as the summed form with penalty ||W||^2 / (2*C).
type LogisticRegression struct {
	W []float64 // weights
	B float64   // bias

	C           float64 // inverse regularization strength, <= 0 disables the penalty
	Lr          float64
	MaxIter     int
	BatchSize   int     // 0 => full batch
	Tol         float64 // stop when the gradient norm falls below Tol
	ClassWeight string  // "balanced" or ""
}

// LogisticOption functional config for LogisticRegression
type LogisticOption func(*LogisticRegression)

func WithC(c float64) LogisticOption             { return func(m *LogisticRegression) { m.C = c } }
func WithLearningRate(lr float64) LogisticOption { return func(m *LogisticRegression) { m.Lr = lr } }
func WithMaxIter(n int) LogisticOption           { return func(m *LogisticRegression) { m.MaxIter = n } }
func WithBatchSize(n int) LogisticOption         { return func(m *LogisticRegression) { m.BatchSize = n } }
func WithLogisticClassWeight(cw string) LogisticOption {
	return func(m *LogisticRegression) { m.ClassWeight = cw }
}

// NewLogisticRegression returns a balanced model with MaxIter 1000 and C = 1.
func NewLogisticRegression(opts ...LogisticOption) *LogisticRegression {
	m := &LogisticRegression{
		C:           1,
		Lr:          0.5,
		MaxIter:     1000,
		Tol:         1e-4,
		ClassWeight: "balanced",
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// PredictProba returns p(y=1) for each row, computed in parallel row blocks.
func (m *LogisticRegression) PredictProba(X [][]float64) []float64 {
	out := make([]float64, len(X))
	parallelRows(len(X), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = optim.Sigmoid(m.logit(X[i]))
		}
	})
	return out
}

// Predict returns 1 where p(y=1) > 0.5.
func (m *LogisticRegression) Predict(X [][]float64) []int {
	return threshold(m.PredictProba(X))
}

func (m *LogisticRegression) Fit(X [][]float64, y []int) error {
	return m.FitWeighted(X, y, nil)
}

// FitWeighted trains from zero weights with (mini-)batch gradient descent.
func (m *LogisticRegression) FitWeighted(X [][]float64, y []int, w []float64) error {
	p, err := validate(X, y, w)
	if err != nil {
		return errors.New("logistic: " + err.Error())
	}
	if m.ClassWeight == "balanced" {
		w = balancedSampleWeights(y, w)
	}
	yf := make([]float64, len(y))
	for i, v := range y {
		yf[i] = float64(v)
	}

	m.W = make([]float64, p)
	m.B = 0
	opt := optim.NewSGD(m.Lr)
	batches := data.Batches(len(X), m.BatchSize)
	n := float64(len(X))

	gW := make([]float64, p)
	for it := 0; it < m.MaxIter; it++ {
		norm := 0.0
		for _, span := range batches {
			bx, by := X[span[0]:span[1]], yf[span[0]:span[1]]
			var bw []float64
			if w != nil {
				bw = w[span[0]:span[1]]
			}
			_, dz := optim.BCE(by, m.PredictProba(bx), bw)

			for j := range gW {
				gW[j] = 0
			}
			gb := 0.0
			for i, row := range bx {
				d := dz[i]
				for j, xij := range row {
					gW[j] += d * xij
				}
				gb += d
			}
			if m.C > 0 {
				for j := range gW {
					gW[j] += m.W[j] / (m.C * n)
				}
			}
			opt.Step(m.W, gW)
			m.B -= m.Lr * gb

			norm = gb * gb
			for _, g := range gW {
				norm += g * g
			}
		}
		if math.Sqrt(norm) < m.Tol {
			break
		}
	}
	return nil
}

func (m *LogisticRegression) logit(row []float64) float64 {
	z := m.B
	for j, v := range row {
		z += m.W[j] * v
	}
	return z
}
