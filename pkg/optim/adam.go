package optim

import "math"

// Adam keeps bias-corrected first and second moment estimates per block.
type Adam struct {
	LearningRate float64
	Beta1        float64
	Beta2        float64
	Epsilon      float64

	m, v map[int][]float64
	t    map[int]int
}

func NewAdam(lr float64) *Adam {
	return &Adam{
		LearningRate: lr,
		Beta1:        0.9,
		Beta2:        0.999,
		Epsilon:      1e-7,
		m:            map[int][]float64{},
		v:            map[int][]float64{},
		t:            map[int]int{},
	}
}

func (o *Adam) Step(param int, weights, grads []float64) {
	m, ok := o.m[param]
	if !ok {
		m = make([]float64, len(weights))
		o.m[param] = m
		o.v[param] = make([]float64, len(weights))
	}
	v := o.v[param]
	o.t[param]++
	t := float64(o.t[param])
	lr := o.LearningRate * math.Sqrt(1-math.Pow(o.Beta2, t)) / (1 - math.Pow(o.Beta1, t))
	for i, g := range grads {
		m[i] = o.Beta1*m[i] + (1-o.Beta1)*g
		v[i] = o.Beta2*v[i] + (1-o.Beta2)*g*g
		weights[i] -= lr * m[i] / (math.Sqrt(v[i]) + o.Epsilon)
	}
}
