package nn

import (
	"fmt"
	"sort"
)

// ConnectionKind classifies how a neuron relates to a connection.
type ConnectionKind int

const (
	KindNone ConnectionKind = iota
	KindSelf
	KindInputs
	KindProjected
	KindGated
)

func (k ConnectionKind) String() string {
	switch k {
	case KindSelf:
		return "selfconnection"
	case KindInputs:
		return "inputs"
	case KindProjected:
		return "projected"
	case KindGated:
		return "gated"
	default:
		return "none"
	}
}

// ErrorState holds the error responsibilities computed by Propagate.
type ErrorState struct {
	Responsibility float64
	Projected      float64
	Gated          float64
}

// Neuron is a single unit of a Graph. It keeps its incoming, outgoing and
// gated connections by id, plus the eligibility and extended traces used to
// learn gated and self-recurrent weights online.
type Neuron struct {
	ID    NeuronID
	graph *Graph

	inputs         []ConnectionID
	projected      []ConnectionID
	gated          []ConnectionID
	selfconnection ConnectionID

	bias       float64
	state      float64
	old        float64
	activation float64
	derivative float64
	squash     Squash
	err        ErrorState

	eligibility map[ConnectionID]float64
	// extended[gatedNeuron][input] for every neuron this one gates into.
	extended      map[NeuronID]map[ConnectionID]float64
	extendedOrder []NeuronID
	influences    map[NeuronID][]ConnectionID
	neighbors     map[NeuronID]struct{}
}

// NewNeuron adds a neuron with a random bias, the default squash and a
// disabled self-connection.
func (g *Graph) NewNeuron() *Neuron {
	squash, err := GetSquash(DefaultSquash)
	if err != nil {
		panic(err)
	}
	n := &Neuron{
		ID:          NeuronID(len(g.neurons)),
		graph:       g,
		squash:      squash,
		eligibility: make(map[ConnectionID]float64),
		extended:    make(map[NeuronID]map[ConnectionID]float64),
		influences:  make(map[NeuronID][]ConnectionID),
		neighbors:   make(map[NeuronID]struct{}),
	}
	g.neurons = append(g.neurons, n)
	n.selfconnection = g.newConnection(n.ID, n.ID, 0, true).ID
	n.bias = g.randomWeight()
	return n
}

func (n *Neuron) Bias() float64 { return n.bias }
func (n *Neuron) State() float64 { return n.state }
func (n *Neuron) Old() float64 { return n.old }
func (n *Neuron) Activation() float64 { return n.activation }
func (n *Neuron) Derivative() float64 { return n.derivative }
func (n *Neuron) ErrorState() ErrorState { return n.err }
func (n *Neuron) Squash() Squash { return n.squash }
func (n *Neuron) Graph() *Graph { return n.graph }
func (n *Neuron) SelfConnection() *Connection { return n.graph.c(n.selfconnection) }

// SetSquash replaces the activation function. A nil squash is ignored.
func (n *Neuron) SetSquash(s Squash) {
	if s != nil {
		n.squash = s
	}
}

func (n *Neuron) Inputs() []ConnectionID { return append([]ConnectionID(nil), n.inputs...) }
func (n *Neuron) Projected() []ConnectionID { return append([]ConnectionID(nil), n.projected...) }
func (n *Neuron) Gated() []ConnectionID { return append([]ConnectionID(nil), n.gated...) }

// Eligibility returns the eligibility trace kept for an incoming connection.
func (n *Neuron) Eligibility(id ConnectionID) float64 {
	return n.eligibility[id]
}

// Extended returns the extended trace of an incoming connection with respect
// to a neuron this one gates. ok is false when no such trace exists.
func (n *Neuron) Extended(gated NeuronID, input ConnectionID) (value float64, ok bool) {
	xtrace, ok := n.extended[gated]
	if !ok {
		return 0, false
	}
	value, ok = xtrace[input]
	return value, ok
}

// Neighbors lists the neurons this one projects to or gates into.
func (n *Neuron) Neighbors() []NeuronID {
	out := make([]NeuronID, 0, len(n.neighbors))
	for id := range n.neighbors {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ActivateInput sets the activation of an input unit directly. Input units
// do not learn, so the bias and derivative are zeroed.
func (n *Neuron) ActivateInput(input float64) float64 {
	n.activation = input
	n.derivative = 0
	n.bias = 0
	return n.activation
}

// Activate computes the new state from the incoming activations, updates the
// eligibility and extended traces, and pushes the activation into the gain of
// every connection this neuron gates.
func (n *Neuron) Activate() float64 {
	g := n.graph
	self := g.c(n.selfconnection)

	n.old = n.state
	n.state = self.Gain*self.Weight*n.old + n.bias
	for _, id := range n.inputs {
		conn := g.c(id)
		n.state += g.n(conn.From).activation * conn.Weight * conn.Gain
	}

	n.activation = n.squash.Value(n.state)
	n.derivative = n.squash.Derivative(n.state)

	influences := make(map[NeuronID]float64, len(n.extendedOrder))
	for _, id := range n.extendedOrder {
		influences[id] = n.influence(id)
	}

	for _, id := range n.inputs {
		conn := g.c(id)
		n.eligibility[id] = self.Gain*self.Weight*n.eligibility[id] +
			conn.Gain*g.n(conn.From).activation

		for _, gatedID := range n.extendedOrder {
			gatedSelf := g.c(g.n(gatedID).selfconnection)
			xtrace := n.extended[gatedID]
			xtrace[id] = gatedSelf.Gain*gatedSelf.Weight*xtrace[id] +
				n.derivative*n.eligibility[id]*influences[gatedID]
		}
	}

	for _, id := range n.gated {
		g.c(id).Gain = n.activation
	}

	return n.activation
}

// PropagateTarget back-propagates an output unit against its target value.
func (n *Neuron) PropagateTarget(rate, target float64) {
	n.err.Projected = target - n.activation
	n.err.Responsibility = n.err.Projected
	n.learn(rate)
}

// Propagate back-propagates a hidden unit using the responsibilities of the
// neurons it projects to and of the neurons it gates.
func (n *Neuron) Propagate(rate float64) {
	g := n.graph

	sum := 0.0
	for _, id := range n.projected {
		conn := g.c(id)
		sum += g.n(conn.To).err.Responsibility * conn.Gain * conn.Weight
	}
	n.err.Projected = n.derivative * sum

	sum = 0
	for _, gatedID := range n.extendedOrder {
		sum += g.n(gatedID).err.Responsibility * n.influence(gatedID)
	}
	n.err.Gated = n.derivative * sum

	n.err.Responsibility = n.err.Projected + n.err.Gated
	n.learn(rate)
}

func (n *Neuron) learn(rate float64) {
	g := n.graph
	for _, id := range n.inputs {
		gradient := n.err.Projected * n.eligibility[id]
		for _, gatedID := range n.extendedOrder {
			gradient += g.n(gatedID).err.Responsibility * n.extended[gatedID][id]
		}
		g.c(id).Weight += rate * gradient
	}
	n.bias += rate * n.err.Responsibility
}

// influence measures how strongly this neuron's activation drives the state
// of a neuron it gates.
func (n *Neuron) influence(gatedID NeuronID) float64 {
	g := n.graph
	gated := g.n(gatedID)

	influence := 0.0
	if g.c(gated.selfconnection).Gater == n.ID {
		influence = gated.old
	}
	for _, id := range n.influences[gatedID] {
		conn := g.c(id)
		influence += conn.Weight * g.n(conn.From).activation
	}
	return influence
}

// Project connects this neuron to other with a random weight. Projecting onto
// itself enables the self-connection instead. An existing projection is
// returned unchanged.
func (n *Neuron) Project(other *Neuron) *Connection {
	return n.project(other, 0, false)
}

// ProjectWithWeight is Project with an explicit weight. An existing
// projection gets its weight overwritten.
func (n *Neuron) ProjectWithWeight(other *Neuron, weight float64) *Connection {
	return n.project(other, weight, true)
}

func (n *Neuron) project(other *Neuron, weight float64, hasWeight bool) *Connection {
	n.mustShareGraph(other)
	g := n.graph

	if other == n {
		self := g.c(n.selfconnection)
		self.Weight = 1
		return self
	}

	if kind, existing := n.Connected(other); kind == KindProjected {
		if hasWeight {
			existing.Weight = weight
		}
		return existing
	}

	conn := g.newConnection(n.ID, other.ID, weight, hasWeight)
	n.projected = append(n.projected, conn.ID)
	n.neighbors[other.ID] = struct{}{}
	other.inputs = append(other.inputs, conn.ID)
	other.eligibility[conn.ID] = 0
	for _, xtrace := range other.extended {
		xtrace[conn.ID] = 0
	}
	return conn
}

// Gate makes this neuron the modulator of conn: from now on conn.Gain follows
// this neuron's activation.
func (n *Neuron) Gate(conn *Connection) {
	if conn == nil {
		panic("nn: gate of nil connection")
	}
	g := n.graph
	if g.Connection(conn.ID) != conn {
		panic(fmt.Sprintf("nn: connection %d does not belong to the graph of neuron %d", conn.ID, n.ID))
	}

	n.gated = append(n.gated, conn.ID)

	target := conn.To
	if _, ok := n.extended[target]; !ok {
		n.neighbors[target] = struct{}{}
		xtrace := make(map[ConnectionID]float64, len(n.inputs))
		for _, id := range n.inputs {
			xtrace[id] = 0
		}
		n.extended[target] = xtrace
		n.extendedOrder = append(n.extendedOrder, target)
	}

	n.influences[target] = append(n.influences[target], conn.ID)
	conn.Gater = n.ID
}

// SelfConnected reports whether the self-connection carries a non-zero weight.
func (n *Neuron) SelfConnected() bool {
	return n.graph.c(n.selfconnection).Weight != 0
}

// Connected reports how this neuron is linked to other. Projected connections
// are checked before inputs so a pair linked both ways reports KindProjected.
func (n *Neuron) Connected(other *Neuron) (ConnectionKind, *Connection) {
	g := n.graph
	if other == n {
		if !n.SelfConnected() {
			return KindNone, nil
		}
		return KindSelf, g.c(n.selfconnection)
	}

	partitions := []struct {
		kind ConnectionKind
		ids  []ConnectionID
	}{
		{KindProjected, n.projected},
		{KindInputs, n.inputs},
		{KindGated, n.gated},
	}
	for _, p := range partitions {
		for _, id := range p.ids {
			conn := g.c(id)
			if conn.To == other.ID || conn.From == other.ID {
				return p.kind, conn
			}
		}
	}
	return KindNone, nil
}

// Clear zeroes traces and error responsibilities, keeping weights, bias and
// the last activation.
func (n *Neuron) Clear() {
	for id := range n.eligibility {
		n.eligibility[id] = 0
	}
	for _, xtrace := range n.extended {
		for id := range xtrace {
			xtrace[id] = 0
		}
	}
	n.err = ErrorState{}
}

// Reset clears the neuron, draws fresh weights for every connection in its
// partitions and a fresh bias, and zeroes its state.
func (n *Neuron) Reset() {
	n.Clear()
	g := n.graph
	for _, ids := range [][]ConnectionID{n.inputs, n.projected, n.gated} {
		for _, id := range ids {
			g.c(id).Weight = g.randomWeight()
		}
	}
	n.bias = g.randomWeight()
	n.old, n.state, n.activation = 0, 0, 0
}

// Optimize is not supported; neurons always run through the interpreted path.
func (n *Neuron) Optimize() error {
	return fmt.Errorf("%w: neuron optimization", ErrUnsupported)
}

func (n *Neuron) mustShareGraph(other *Neuron) {
	if other == nil {
		panic("nn: nil neuron")
	}
	if other.graph != n.graph {
		panic(fmt.Sprintf("nn: neurons %d and %d belong to different graphs", n.ID, other.ID))
	}
}
