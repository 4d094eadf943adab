package optim

// SGD is plain gradient descent with a fixed learning rate.
type SGD struct{ LearningRate float64 }

func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

// Step updates weights in place.
func (o *SGD) Step(weights, grads []float64) {
	for i := range weights {
		weights[i] -= o.LearningRate * grads[i]
	}
}
