package nn

import "fmt"

// ConnectionType is the topology used when projecting one layer onto another.
type ConnectionType int

const (
	// Unspecified lets the projection pick OneToOne for a layer onto itself
	// and AllToAll otherwise.
	Unspecified ConnectionType = iota
	AllToAll
	OneToOne
	AllToElse
)

func (t ConnectionType) String() string {
	switch t {
	case AllToAll:
		return "ALL TO ALL"
	case OneToOne:
		return "ONE TO ONE"
	case AllToElse:
		return "ALL TO ELSE"
	default:
		return "UNSPECIFIED"
	}
}

// GateType selects which side of a layer connection a layer would gate.
type GateType int

const (
	GateInput GateType = iota
	GateOutput
	GateOneToOne
)

// Target is something a layer can project onto: a *Layer, or a *Network
// whose input layer receives the projection.
type Target interface {
	inputLayer() *Layer
}

// Layer is an ordered group of neurons sharing one graph.
type Layer struct {
	graph       *Graph
	list        []NeuronID
	connectedTo []LayerConnectionID
}

// NewLayer adds size fresh neurons to the graph and groups them in a layer.
func (g *Graph) NewLayer(size int) *Layer {
	if size < 0 {
		size = 0
	}
	l := &Layer{graph: g, list: make([]NeuronID, 0, size)}
	for i := 0; i < size; i++ {
		l.list = append(l.list, g.NewNeuron().ID)
	}
	return l
}

func (l *Layer) inputLayer() *Layer { return l }

func (l *Layer) Graph() *Graph { return l.graph }

func (l *Layer) Size() int { return len(l.list) }

// Neuron returns the i-th neuron of the layer.
func (l *Layer) Neuron(i int) *Neuron {
	return l.graph.n(l.list[i])
}

func (l *Layer) Neurons() []*Neuron {
	out := make([]*Neuron, len(l.list))
	for i, id := range l.list {
		out[i] = l.graph.n(id)
	}
	return out
}

// Add appends a neuron of the same graph to the layer.
func (l *Layer) Add(n *Neuron) error {
	if n == nil {
		return fmt.Errorf("%w: nil neuron", ErrInvalidArgument)
	}
	if n.graph != l.graph {
		return fmt.Errorf("%w: neuron %d belongs to another graph", ErrInvalidArgument, n.ID)
	}
	l.list = append(l.list, n.ID)
	return nil
}

// Activate activates every neuron as a hidden or output unit.
func (l *Layer) Activate() []float64 {
	out := make([]float64, len(l.list))
	for i, id := range l.list {
		out[i] = l.graph.n(id).Activate()
	}
	return out
}

// ActivateInput feeds one value to each neuron as an input unit.
func (l *Layer) ActivateInput(input []float64) ([]float64, error) {
	if len(input) != len(l.list) {
		return nil, fmt.Errorf("%w: input size %d does not match layer size %d", ErrInvalidArgument, len(input), len(l.list))
	}
	out := make([]float64, len(l.list))
	for i, id := range l.list {
		out[i] = l.graph.n(id).ActivateInput(input[i])
	}
	return out, nil
}

// Propagate back-propagates every neuron as a hidden unit.
func (l *Layer) Propagate(rate float64) {
	for _, id := range l.list {
		l.graph.n(id).Propagate(rate)
	}
}

// PropagateTarget back-propagates every neuron against its target value.
func (l *Layer) PropagateTarget(rate float64, target []float64) error {
	if len(target) != len(l.list) {
		return fmt.Errorf("%w: target size %d does not match layer size %d", ErrInvalidArgument, len(target), len(l.list))
	}
	for i, id := range l.list {
		l.graph.n(id).PropagateTarget(rate, target[i])
	}
	return nil
}

// Project wires this layer onto target with random weights.
func (l *Layer) Project(target Target, kind ConnectionType) (*LayerConnection, error) {
	return l.project(target, kind, 0, false)
}

// ProjectWithWeight wires this layer onto target with every connection
// carrying weight.
func (l *Layer) ProjectWithWeight(target Target, kind ConnectionType, weight float64) (*LayerConnection, error) {
	return l.project(target, kind, weight, true)
}

func (l *Layer) project(target Target, kind ConnectionType, weight float64, hasWeight bool) (*LayerConnection, error) {
	if target == nil {
		return nil, fmt.Errorf("%w: projection target is required", ErrInvalidArgument)
	}
	to := target.inputLayer()
	if to == nil {
		return nil, fmt.Errorf("%w: projection target has no input layer", ErrInvalidArgument)
	}
	if to.graph != l.graph {
		return nil, fmt.Errorf("%w: layers belong to different graphs", ErrInvalidArgument)
	}
	if existing, ok := l.Connected(to); ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateTopology, existing)
	}
	return newLayerConnection(l, to, kind, weight, hasWeight)
}

// Gate is not supported at layer granularity; gate individual connections
// with Neuron.Gate instead.
func (l *Layer) Gate(_ *LayerConnection, kind GateType) error {
	return fmt.Errorf("%w: layer gate (type %d)", ErrUnsupported, kind)
}

// Set is not supported.
func (l *Layer) Set(_ map[string]any) error {
	return fmt.Errorf("%w: layer options", ErrUnsupported)
}

// SelfConnected reports whether every neuron of the layer is self-connected.
func (l *Layer) SelfConnected() bool {
	for _, id := range l.list {
		if !l.graph.n(id).SelfConnected() {
			return false
		}
	}
	return true
}

// Connected infers the topology linking this layer to other by counting
// realized projections: AllToAll when every pair is projected, OneToOne when
// every positional pair is. ok is false when neither holds.
func (l *Layer) Connected(other *Layer) (ConnectionType, bool) {
	if other == nil || len(l.list) == 0 || len(other.list) == 0 {
		return Unspecified, false
	}
	g := l.graph

	count := 0
	for _, from := range l.list {
		for _, to := range other.list {
			if kind, _ := g.n(from).Connected(g.n(to)); kind == KindProjected {
				count++
			}
		}
	}
	if count == len(l.list)*len(other.list) {
		return AllToAll, true
	}

	count = 0
	for i, from := range l.list {
		if i >= len(other.list) {
			break
		}
		if kind, _ := g.n(from).Connected(g.n(other.list[i])); kind == KindProjected {
			count++
		}
	}
	if count == len(l.list) {
		return OneToOne, true
	}
	return Unspecified, false
}

// ConnectedTo lists the layer connections projected from this layer.
func (l *Layer) ConnectedTo() []*LayerConnection {
	out := make([]*LayerConnection, len(l.connectedTo))
	for i, id := range l.connectedTo {
		out[i] = l.graph.layerConns[id]
	}
	return out
}

func (l *Layer) Clear() {
	for _, id := range l.list {
		l.graph.n(id).Clear()
	}
}

func (l *Layer) Reset() {
	for _, id := range l.list {
		l.graph.n(id).Reset()
	}
}
