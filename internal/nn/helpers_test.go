package nn

import (
	"math"
	"testing"
)

const tolerance = 1e-12

// buildLayered wires consecutive layers all-to-all, the same shape the
// perceptron builder produces.
func buildLayered(t *testing.T, seed int64, sizes ...int) *Network {
	t.Helper()
	g := NewSeededGraph(seed)
	layers := make([]*Layer, len(sizes))
	for i, size := range sizes {
		layers[i] = g.NewLayer(size)
		if i > 0 {
			if _, err := layers[i-1].Project(layers[i], Unspecified); err != nil {
				t.Fatalf("project layer %d: %v", i-1, err)
			}
		}
	}
	net, err := NewNetwork(layers[0], layers[1:len(layers)-1], layers[len(layers)-1])
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	return net
}

func countProjected(net *Network) int {
	total := 0
	for _, entry := range net.Neurons() {
		total += len(entry.Neuron.Projected())
	}
	return total
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= tolerance
}
