package nn

// Connection is a weighted edge between two neurons of the same graph. Gain
// is rewritten by the gating neuron, if any, every time it activates.
type Connection struct {
	ID     ConnectionID
	From   NeuronID
	To     NeuronID
	Weight float64
	Gain   float64
	Gater  NeuronID
}

// Gated reports whether a neuron modulates this connection.
func (c *Connection) Gated() bool {
	return c.Gater != NoNeuron
}

// newConnection registers a connection in the arena. Wiring it into neuron
// partitions is the caller's job.
func (g *Graph) newConnection(from, to NeuronID, weight float64, hasWeight bool) *Connection {
	if !hasWeight {
		weight = g.randomWeight()
	}
	conn := &Connection{
		ID:     ConnectionID(len(g.connections)),
		From:   from,
		To:     to,
		Weight: weight,
		Gain:   1,
		Gater:  NoNeuron,
	}
	g.connections = append(g.connections, conn)
	return conn
}
