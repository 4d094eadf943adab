package optim

import "math"

const eps = 1e-12

func Sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

// BCE is the sample-weighted binary cross-entropy averaged over n rows.
// grad[i] is the derivative of the loss with respect to the logit of row i.
// A nil w weights every row by 1.
func BCE(yTrue, yPred, w []float64) (float64, []float64) {
	n := len(yTrue)
	if n == 0 {
		return 0, nil
	}
	s := 0.0
	grad := make([]float64, n)
	for i := 0; i < n; i++ {
		wi := 1.0
		if w != nil {
			wi = w[i]
		}
		p := math.Min(math.Max(yPred[i], eps), 1-eps)
		y := yTrue[i]
		s += -wi * (y*math.Log(p) + (1-y)*math.Log(1-p))
		grad[i] = wi * (yPred[i] - y) / float64(n)
	}
	return s / float64(n), grad
}
