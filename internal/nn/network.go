package nn

import (
	"fmt"
	"strconv"
)

const (
	LayerTagInput  = "input"
	LayerTagOutput = "output"
)

// Network chains an input layer, hidden layers and an output layer of one
// graph into a single feed-forward / back-propagation unit.
type Network struct {
	graph     *Graph
	input     *Layer
	hidden    []*Layer
	output    *Layer
	optimized bool
}

// NewNetwork composes existing layers. All layers must share a graph.
func NewNetwork(input *Layer, hidden []*Layer, output *Layer) (*Network, error) {
	if input == nil || output == nil {
		return nil, fmt.Errorf("%w: input and output layers are required", ErrInvalidArgument)
	}
	for i, layer := range hidden {
		if layer == nil {
			return nil, fmt.Errorf("%w: hidden layer %d is nil", ErrInvalidArgument, i)
		}
		if layer.graph != input.graph {
			return nil, fmt.Errorf("%w: hidden layer %d belongs to another graph", ErrInvalidArgument, i)
		}
	}
	if output.graph != input.graph {
		return nil, fmt.Errorf("%w: output layer belongs to another graph", ErrInvalidArgument)
	}
	return &Network{
		graph:  input.graph,
		input:  input,
		hidden: append([]*Layer(nil), hidden...),
		output: output,
	}, nil
}

func (n *Network) inputLayer() *Layer { return n.input }

func (n *Network) Graph() *Graph { return n.graph }
func (n *Network) Input() *Layer { return n.input }
func (n *Network) Output() *Layer { return n.output }
func (n *Network) Hidden() []*Layer { return append([]*Layer(nil), n.hidden...) }

// Inputs is the size of the input layer.
func (n *Network) Inputs() int { return n.input.Size() }

// Outputs is the size of the output layer.
func (n *Network) Outputs() int { return n.output.Size() }

// Optimized reports whether the network was compiled into a fast path. It
// is never set by this package; every mutating call rejects it.
func (n *Network) Optimized() bool { return n.optimized }

// Activate runs a forward pass and returns the output layer activations.
func (n *Network) Activate(input []float64) ([]float64, error) {
	if err := n.Restore(); err != nil {
		return nil, err
	}
	if _, err := n.input.ActivateInput(input); err != nil {
		return nil, err
	}
	for _, layer := range n.hidden {
		layer.Activate()
	}
	return n.output.Activate(), nil
}

// Propagate runs a backward pass against target, the output layer first and
// the hidden layers in reverse order.
func (n *Network) Propagate(rate float64, target []float64) error {
	if err := n.Restore(); err != nil {
		return err
	}
	if err := n.output.PropagateTarget(rate, target); err != nil {
		return err
	}
	for i := len(n.hidden) - 1; i >= 0; i-- {
		n.hidden[i].Propagate(rate)
	}
	return nil
}

// Project wires the output layer onto target.
func (n *Network) Project(target Target, kind ConnectionType) (*LayerConnection, error) {
	if err := n.Restore(); err != nil {
		return nil, err
	}
	return n.output.Project(target, kind)
}

func (n *Network) ProjectWithWeight(target Target, kind ConnectionType, weight float64) (*LayerConnection, error) {
	if err := n.Restore(); err != nil {
		return nil, err
	}
	return n.output.ProjectWithWeight(target, kind, weight)
}

// Gate delegates to the output layer, which does not support gating.
func (n *Network) Gate(conn *LayerConnection, kind GateType) error {
	if err := n.Restore(); err != nil {
		return err
	}
	return n.output.Gate(conn, kind)
}

// Clear zeroes traces and error responsibilities of every neuron.
func (n *Network) Clear() error {
	if err := n.Restore(); err != nil {
		return err
	}
	for _, layer := range n.layers() {
		layer.Clear()
	}
	return nil
}

// Reset clears the network and draws fresh weights and biases.
func (n *Network) Reset() error {
	if err := n.Restore(); err != nil {
		return err
	}
	for _, layer := range n.layers() {
		layer.Reset()
	}
	return nil
}

// Restore fails when the network is optimized; there is no way back from
// the optimized form.
func (n *Network) Restore() error {
	if n.optimized {
		return fmt.Errorf("%w: network is optimized", ErrInvalidState)
	}
	return nil
}

func (n *Network) Optimize() error {
	return fmt.Errorf("%w: optimize", ErrUnsupported)
}

func (n *Network) Set(_ map[string]any) error {
	return fmt.Errorf("%w: network options", ErrUnsupported)
}

func (n *Network) ToDot() (string, error) {
	return "", fmt.Errorf("%w: dot export", ErrUnsupported)
}

// NetworkNeuron pairs a neuron with the tag of the layer it belongs to:
// "input", "output", or the decimal index of its hidden layer.
type NetworkNeuron struct {
	Neuron *Neuron
	Layer  string
}

// Neurons lists every neuron in traversal order: input, hidden layers in
// declaration order, then output.
func (n *Network) Neurons() []NetworkNeuron {
	var out []NetworkNeuron
	for _, neuron := range n.input.Neurons() {
		out = append(out, NetworkNeuron{Neuron: neuron, Layer: LayerTagInput})
	}
	for i, layer := range n.hidden {
		tag := strconv.Itoa(i)
		for _, neuron := range layer.Neurons() {
			out = append(out, NetworkNeuron{Neuron: neuron, Layer: tag})
		}
	}
	for _, neuron := range n.output.Neurons() {
		out = append(out, NetworkNeuron{Neuron: neuron, Layer: LayerTagOutput})
	}
	return out
}

func (n *Network) layers() []*Layer {
	out := make([]*Layer, 0, len(n.hidden)+2)
	out = append(out, n.input)
	out = append(out, n.hidden...)
	return append(out, n.output)
}
