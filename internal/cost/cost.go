// Package cost holds the error measures a trainer can minimize.
package cost

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"
)

const (
	MSE          = "mse"
	CrossEntropy = "cross_entropy"
	Binary       = "binary"

	// Default is used when no cost is named.
	Default = MSE
)

// Function scores an output against its target. Both slices must have the
// same length.
type Function func(target, output []float64) float64

var (
	ErrCostExists   = errors.New("cost already registered")
	ErrCostNotFound = errors.New("cost not found")
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Function{}
)

func init() {
	MustRegister(MSE, MeanSquaredError)
	MustRegister(CrossEntropy, CrossEntropyError)
	MustRegister(Binary, BinaryError)
}

func Register(name string, fn Function) error {
	if name == "" {
		return errors.New("cost name is required")
	}
	if fn == nil {
		return errors.New("cost function is required")
	}

	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[name]; exists {
		return fmt.Errorf("%w: %s", ErrCostExists, name)
	}
	registry[name] = fn
	return nil
}

func MustRegister(name string, fn Function) {
	if err := Register(name, fn); err != nil {
		panic(err)
	}
}

// Get resolves a cost by name; the empty name selects Default.
func Get(name string) (Function, error) {
	if name == "" {
		name = Default
	}
	registryMu.RLock()
	defer registryMu.RUnlock()
	fn, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCostNotFound, name)
	}
	return fn, nil
}

// Names lists the registered costs in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MeanSquaredError is the mean of squared differences.
func MeanSquaredError(target, output []float64) float64 {
	if len(output) == 0 {
		return 0
	}
	diff := make([]float64, len(output))
	floats.SubTo(diff, target, output)
	return floats.Dot(diff, diff) / float64(len(output))
}

const crossEntropyEpsilon = 1e-15

// CrossEntropyError is the binary cross entropy summed over outputs.
func CrossEntropyError(target, output []float64) float64 {
	if len(target) != len(output) {
		panic("cost: slice lengths do not match")
	}
	sum := 0.0
	for i, t := range target {
		o := output[i]
		sum -= t*math.Log(o+crossEntropyEpsilon) + (1-t)*math.Log(1+crossEntropyEpsilon-o)
	}
	return sum
}

// BinaryError counts outputs that land in a different half-unit bucket than
// their target.
func BinaryError(target, output []float64) float64 {
	if len(target) != len(output) {
		panic("cost: slice lengths do not match")
	}
	misses := 0.0
	for i, t := range target {
		if math.Round(t*2) != math.Round(output[i]*2) {
			misses++
		}
	}
	return misses
}
