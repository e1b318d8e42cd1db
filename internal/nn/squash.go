package nn

import "math"

// Logistic is the default squash, 1/(1+e^-x).
type Logistic struct{}

func (Logistic) Name() string { return "logistic" }

func (Logistic) Value(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Derivative is expressed through the function value: f(x)(1-f(x)).
func (l Logistic) Derivative(x float64) float64 {
	fx := l.Value(x)
	return fx * (1 - fx)
}

type Tanh struct{}

func (Tanh) Name() string { return "tanh" }

func (Tanh) Value(x float64) float64 { return math.Tanh(x) }

func (Tanh) Derivative(x float64) float64 {
	y := math.Tanh(x)
	return 1 - (y * y)
}

type Identity struct{}

func (Identity) Name() string { return "identity" }

func (Identity) Value(x float64) float64 { return x }

func (Identity) Derivative(float64) float64 { return 1 }

// HardLimit steps from 0 to 1 at x > 0. Its derivative is taken as 1 so that
// error still flows through the unit.
type HardLimit struct{}

func (HardLimit) Name() string { return "hlim" }

func (HardLimit) Value(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}

func (HardLimit) Derivative(float64) float64 { return 1 }

type ReLU struct{}

func (ReLU) Name() string { return "relu" }

func (ReLU) Value(x float64) float64 {
	if x > 0 {
		return x
	}
	return 0
}

func (ReLU) Derivative(x float64) float64 {
	if x > 0 {
		return 1
	}
	return 0
}
