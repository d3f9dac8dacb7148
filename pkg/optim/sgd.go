package optim

// Optimizer updates a parameter block in place from its gradient. param
// identifies the block so stateful optimizers can keep per-block moments.
type Optimizer interface {
	Step(param int, weights, grads []float64)
}

// Stochastic Gradient Descent optimizer with learning rate
type SGD struct{ LearningRate float64 }

func NewSGD(lr float64) *SGD { return &SGD{LearningRate: lr} }

func (o *SGD) Step(_ int, weights, grads []float64) {
	for i := range weights {
		weights[i] -= o.LearningRate * grads[i]
	}
}
