package nn

import (
	"math/rand"
	"time"
)

// NeuronID indexes a neuron inside its Graph.
type NeuronID int

// ConnectionID indexes a connection inside its Graph.
type ConnectionID int

// LayerConnectionID indexes a layer connection inside its Graph.
type LayerConnectionID int

// NoNeuron marks an absent neuron reference, e.g. an ungated connection.
const NoNeuron NeuronID = -1

// Graph is the arena that owns every neuron, connection and layer connection
// of one network. Ids are positions in the arena and are never reused.
type Graph struct {
	neurons     []*Neuron
	connections []*Connection
	layerConns  []*LayerConnection
	rng         *rand.Rand
}

// NewGraph creates an empty graph drawing random weights from rng. A nil rng
// is replaced by a time-seeded source.
func NewGraph(rng *rand.Rand) *Graph {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Graph{rng: rng}
}

// NewSeededGraph creates an empty graph with a deterministic random source.
func NewSeededGraph(seed int64) *Graph {
	return NewGraph(rand.New(rand.NewSource(seed)))
}

// Neuron returns the neuron with the given id, or nil if it does not exist.
func (g *Graph) Neuron(id NeuronID) *Neuron {
	if id < 0 || int(id) >= len(g.neurons) {
		return nil
	}
	return g.neurons[id]
}

// Connection returns the connection with the given id, or nil if it does not exist.
func (g *Graph) Connection(id ConnectionID) *Connection {
	if id < 0 || int(id) >= len(g.connections) {
		return nil
	}
	return g.connections[id]
}

// LayerConnection returns the layer connection with the given id, or nil.
func (g *Graph) LayerConnection(id LayerConnectionID) *LayerConnection {
	if id < 0 || int(id) >= len(g.layerConns) {
		return nil
	}
	return g.layerConns[id]
}

// Quantity reports how many neurons and connections the graph holds.
// Self-connections are counted because every neuron owns one.
type Quantity struct {
	Neurons     int
	Connections int
}

func (g *Graph) Quantity() Quantity {
	return Quantity{Neurons: len(g.neurons), Connections: len(g.connections)}
}

// randomWeight draws from [-0.1, 0.1).
func (g *Graph) randomWeight() float64 {
	return g.rng.Float64()*0.2 - 0.1
}

func (g *Graph) n(id NeuronID) *Neuron {
	return g.neurons[id]
}

func (g *Graph) c(id ConnectionID) *Connection {
	return g.connections[id]
}
