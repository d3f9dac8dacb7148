package NeuralNetwork

import "math"

func Sigmoid(x float64) float64 { return 1.0 / (1.0 + math.Exp(-x)) }

func SigmoidPrime(x float64) float64 { s := Sigmoid(x); return s * (1 - s) }

func ReLU(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func ReLUPrime(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func Tanh(x float64) float64 { return math.Tanh(x) }

func TanhPrime(x float64) float64 { t := math.Tanh(x); return 1 - t*t }

// Activation pairs a function with its derivative, both taking the
// pre-activation value.
type Activation struct {
	Name  string
	F     func(float64) float64
	Prime func(float64) float64
}

var activations = map[string]Activation{
	"sigmoid": {"sigmoid", Sigmoid, SigmoidPrime},
	"relu":    {"relu", ReLU, ReLUPrime},
	"tanh":    {"tanh", Tanh, TanhPrime},
}

// Lookup returns the activation registered under name.
func Lookup(name string) (Activation, bool) {
	a, ok := activations[name]
	return a, ok
}
