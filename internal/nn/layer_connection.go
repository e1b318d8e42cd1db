package nn

import "fmt"

// LayerConnection records the neuron-level connections created by one
// Layer.Project call.
type LayerConnection struct {
	ID             LayerConnectionID
	From           *Layer
	To             *Layer
	Type           ConnectionType
	SelfConnection bool

	connections map[ConnectionID]*Connection
	list        []ConnectionID
}

func newLayerConnection(from, to *Layer, kind ConnectionType, weight float64, hasWeight bool) (*LayerConnection, error) {
	if kind == Unspecified {
		if from == to {
			kind = OneToOne
		} else {
			kind = AllToAll
		}
	}

	switch kind {
	case AllToAll, AllToElse:
	case OneToOne:
		if from.Size() != to.Size() {
			return nil, fmt.Errorf("%w: one to one projection needs equal sizes, got %d and %d", ErrInvalidArgument, from.Size(), to.Size())
		}
	default:
		return nil, fmt.Errorf("%w: unknown connection type %d", ErrInvalidArgument, kind)
	}

	g := from.graph
	lc := &LayerConnection{
		ID:             LayerConnectionID(len(g.layerConns)),
		From:           from,
		To:             to,
		Type:           kind,
		SelfConnection: from == to,
		connections:    make(map[ConnectionID]*Connection),
	}

	if kind == OneToOne {
		for i, fromID := range from.list {
			lc.add(g.n(fromID).project(g.n(to.list[i]), weight, hasWeight))
		}
	} else {
		for _, fromID := range from.list {
			for _, toID := range to.list {
				if kind == AllToElse && fromID == toID {
					continue
				}
				lc.add(g.n(fromID).project(g.n(toID), weight, hasWeight))
			}
		}
	}

	g.layerConns = append(g.layerConns, lc)
	from.connectedTo = append(from.connectedTo, lc.ID)
	return lc, nil
}

func (lc *LayerConnection) add(conn *Connection) {
	lc.connections[conn.ID] = conn
	lc.list = append(lc.list, conn.ID)
}

// Size is the number of neuron connections created.
func (lc *LayerConnection) Size() int { return len(lc.list) }

// Connections returns the created connections in creation order.
func (lc *LayerConnection) Connections() []*Connection {
	out := make([]*Connection, len(lc.list))
	for i, id := range lc.list {
		out[i] = lc.connections[id]
	}
	return out
}

// Connection looks up one of the created connections by id.
func (lc *LayerConnection) Connection(id ConnectionID) (*Connection, bool) {
	conn, ok := lc.connections[id]
	return conn, ok
}
