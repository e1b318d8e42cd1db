package nn

import (
	"fmt"
	"math/rand"
	"sort"
	"strconv"

	"synaptical/internal/model"
)

// Export flattens a network into its serialized record. Connections leaving
// the network, for instance onto another network sharing the graph, are not
// exported; a gater outside the network is dropped.
func Export(net *Network) (model.Network, error) {
	if net == nil {
		return model.Network{}, fmt.Errorf("%w: network is required", ErrInvalidArgument)
	}
	if err := net.Restore(); err != nil {
		return model.Network{}, err
	}

	list := net.Neurons()
	index := make(map[NeuronID]int, len(list))
	record := model.Network{
		VersionedRecord: model.VersionedRecord{SchemaVersion: SupportedSchemaVersion, CodecVersion: SupportedCodecVersion},
		Neurons:         make([]model.Neuron, 0, len(list)),
	}
	for i, entry := range list {
		n := entry.Neuron
		index[n.ID] = i
		record.Neurons = append(record.Neurons, model.Neuron{
			State:      n.state,
			Old:        n.old,
			Activation: n.activation,
			Bias:       n.bias,
			Layer:      entry.Layer,
			Squash:     n.squash.Name(),
		})
	}

	gaterIndex := func(conn *Connection) *int {
		if !conn.Gated() {
			return nil
		}
		idx, ok := index[conn.Gater]
		if !ok {
			return nil
		}
		return &idx
	}

	g := net.graph
	for _, entry := range list {
		n := entry.Neuron
		for _, id := range n.projected {
			conn := g.c(id)
			to, ok := index[conn.To]
			if !ok {
				continue
			}
			record.Connections = append(record.Connections, model.Connection{
				From:   index[conn.From],
				To:     to,
				Weight: conn.Weight,
				Gater:  gaterIndex(conn),
			})
		}
		if n.SelfConnected() {
			self := g.c(n.selfconnection)
			record.Connections = append(record.Connections, model.Connection{
				From:   index[n.ID],
				To:     index[n.ID],
				Weight: self.Weight,
				Gater:  gaterIndex(self),
			})
		}
	}
	return record, nil
}

// Import rebuilds a network in a fresh graph. The record is validated in
// full before anything is created. rng seeds the new graph; nil selects a
// time-based seed.
func Import(record model.Network, rng *rand.Rand) (*Network, error) {
	hiddenTags, err := validateRecord(record)
	if err != nil {
		return nil, err
	}

	g := NewGraph(rng)
	input := g.NewLayer(0)
	output := g.NewLayer(0)
	hidden := make([]*Layer, len(hiddenTags))
	hiddenByTag := make(map[int]*Layer, len(hiddenTags))
	for i, tag := range hiddenTags {
		hidden[i] = g.NewLayer(0)
		hiddenByTag[tag] = hidden[i]
	}

	neurons := make([]*Neuron, len(record.Neurons))
	for i, cfg := range record.Neurons {
		squash, err := GetSquash(cfg.Squash)
		if err != nil {
			return nil, err
		}
		n := g.NewNeuron()
		n.state = cfg.State
		n.old = cfg.Old
		n.activation = cfg.Activation
		n.bias = cfg.Bias
		n.squash = squash
		neurons[i] = n

		var layer *Layer
		switch cfg.Layer {
		case LayerTagInput:
			layer = input
		case LayerTagOutput:
			layer = output
		default:
			tag, _ := strconv.Atoi(cfg.Layer)
			layer = hiddenByTag[tag]
		}
		if err := layer.Add(n); err != nil {
			return nil, err
		}
	}

	for _, cfg := range record.Connections {
		from, to := neurons[cfg.From], neurons[cfg.To]
		var conn *Connection
		if from == to {
			conn = from.SelfConnection()
			conn.Weight = cfg.Weight
		} else {
			conn = from.ProjectWithWeight(to, cfg.Weight)
		}
		if cfg.Gater != nil {
			neurons[*cfg.Gater].Gate(conn)
		}
	}

	return NewNetwork(input, hidden, output)
}

func validateRecord(record model.Network) ([]int, error) {
	var hasInput, hasOutput bool
	seen := make(map[int]struct{})
	for i, cfg := range record.Neurons {
		switch cfg.Layer {
		case LayerTagInput:
			hasInput = true
		case LayerTagOutput:
			hasOutput = true
		default:
			tag, err := strconv.Atoi(cfg.Layer)
			if err != nil || tag < 0 {
				return nil, fmt.Errorf("%w: neuron %d has unknown layer %q", ErrInvalidArgument, i, cfg.Layer)
			}
			seen[tag] = struct{}{}
		}
		if _, err := GetSquash(cfg.Squash); err != nil {
			return nil, fmt.Errorf("%w: neuron %d: %v", ErrInvalidArgument, i, err)
		}
	}
	if !hasInput || !hasOutput {
		return nil, fmt.Errorf("%w: record needs input and output neurons", ErrInvalidArgument)
	}

	count := len(record.Neurons)
	for i, cfg := range record.Connections {
		if cfg.From < 0 || cfg.From >= count || cfg.To < 0 || cfg.To >= count {
			return nil, fmt.Errorf("%w: connection %d references missing neuron", ErrInvalidArgument, i)
		}
		if cfg.Gater != nil && (*cfg.Gater < 0 || *cfg.Gater >= count) {
			return nil, fmt.Errorf("%w: connection %d references missing gater", ErrInvalidArgument, i)
		}
	}

	tags := make([]int, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Ints(tags)
	return tags, nil
}
