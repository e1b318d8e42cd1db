package architect

import (
	"fmt"

	"synaptical/internal/nn"
)

// MinLayers is the smallest perceptron: input, one hidden layer, output.
const MinLayers = 3

// Perceptron builds a feed-forward network in g from layer sizes, connecting
// consecutive layers all-to-all.
func Perceptron(g *nn.Graph, sizes ...int) (*nn.Network, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: graph is required", nn.ErrInvalidArgument)
	}
	if len(sizes) < MinLayers {
		return nil, fmt.Errorf("%w: not enough layers (minimum %d), got %d", nn.ErrInvalidArgument, MinLayers, len(sizes))
	}
	for i, size := range sizes {
		if size <= 0 {
			return nil, fmt.Errorf("%w: layer %d size must be positive, got %d", nn.ErrInvalidArgument, i, size)
		}
	}

	input := g.NewLayer(sizes[0])
	previous := input
	hidden := make([]*nn.Layer, 0, len(sizes)-2)
	for _, size := range sizes[1 : len(sizes)-1] {
		layer := g.NewLayer(size)
		if _, err := previous.Project(layer, nn.AllToAll); err != nil {
			return nil, err
		}
		hidden = append(hidden, layer)
		previous = layer
	}
	output := g.NewLayer(sizes[len(sizes)-1])
	if _, err := previous.Project(output, nn.AllToAll); err != nil {
		return nil, err
	}

	return nn.NewNetwork(input, hidden, output)
}

// SeededPerceptron builds a perceptron in a fresh deterministic graph.
func SeededPerceptron(seed int64, sizes ...int) (*nn.Network, error) {
	return Perceptron(nn.NewSeededGraph(seed), sizes...)
}
