package neat

import (
	"fmt"
	"math"
)

// ActivationType defines the type for activation functions.
type ActivationType func(z float64) float64

// ActivationFunctions maps function names to the actual activation functions.
// This allows configuration to specify activations by name.
var ActivationFunctions = map[string]ActivationType{
	"sigmoid":  Sigmoid,
	"tanh":     Tanh,
	"sin":      Sine,
	"gauss":    Gauss,
	"relu":     ReLU,
	"elu":      ELU,
	"lelu":     LeakyReLU,
	"selu":     SELU,
	"softplus": Softplus,
	"identity": Identity,
	"clamped":  Clamped,
	"inv":      Inv,
	"log":      Log,
	"exp":      Exp,
	"abs":      Absolute,
	"hat":      Hat,
	"square":   Square,
	"cube":     Cube,
}

// GetActivation retrieves an activation function by name.
func GetActivation(name string) (ActivationType, error) {
	if fn, ok := ActivationFunctions[name]; ok {
		return fn, nil
	}
	return nil, fmt.Errorf("unknown activation function: %s", name)
}

// Sigmoid is the logistic function with a steepness of 5, clamped against overflow.
func Sigmoid(z float64) float64 {
	z = clamp(5.0*z, -60.0, 60.0)
	return 1.0 / (1.0 + math.Exp(-z))
}

func Tanh(z float64) float64 {
	return math.Tanh(clamp(2.5*z, -60.0, 60.0))
}

func Sine(z float64) float64 {
	return math.Sin(clamp(5.0*z, -60.0, 60.0))
}

func Gauss(z float64) float64 {
	z = clamp(z, -3.4, 3.4)
	return math.Exp(-5.0 * z * z)
}

func ReLU(z float64) float64 {
	return math.Max(0, z)
}

func ELU(z float64) float64 {
	if z > 0 {
		return z
	}
	return math.Exp(z) - 1
}

func LeakyReLU(z float64) float64 {
	if z > 0 {
		return z
	}
	return 0.005 * z
}

func SELU(z float64) float64 {
	const lam = 1.0507009873554804934193349852946
	const alpha = 1.6732632423543772848170429916717
	if z > 0 {
		return lam * z
	}
	return lam * alpha * (math.Exp(z) - 1)
}

func Softplus(z float64) float64 {
	z = clamp(5.0*z, -60.0, 60.0)
	return 0.2 * math.Log(1+math.Exp(z))
}

func Identity(z float64) float64 {
	return z
}

// Clamped clamps output between -1 and 1.
func Clamped(z float64) float64 {
	return clamp(z, -1.0, 1.0)
}

// Inv returns 1/z, or 0 for z == 0.
func Inv(z float64) float64 {
	if z == 0.0 {
		return 0.0
	}
	return 1.0 / z
}

func Log(z float64) float64 {
	return math.Log(math.Max(1e-7, z))
}

func Exp(z float64) float64 {
	return math.Exp(clamp(z, -60.0, 60.0))
}

func Absolute(z float64) float64 {
	return math.Abs(z)
}

// Hat is a triangular pulse centered at 0.
func Hat(z float64) float64 {
	return math.Max(0.0, 1.0-math.Abs(z))
}

func Square(z float64) float64 {
	return z * z
}

func Cube(z float64) float64 {
	return z * z * z
}
