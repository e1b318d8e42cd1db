package nn

import (
	"encoding/json"
	"errors"
	"testing"

	"synaptical/internal/model"
)

func TestExportPerceptronShape(t *testing.T) {
	net := buildLayered(t, 1, 1, 3, 2)

	record, err := Export(net)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(record.Neurons) != 6 {
		t.Fatalf("unexpected neuron records: %d", len(record.Neurons))
	}
	if len(record.Connections) != 9 {
		t.Fatalf("unexpected connection records: %d", len(record.Connections))
	}
	if record.SchemaVersion != SupportedSchemaVersion || record.CodecVersion != SupportedCodecVersion {
		t.Fatalf("unexpected versions: %+v", record.VersionedRecord)
	}
	if record.Neurons[0].Layer != LayerTagInput || record.Neurons[1].Layer != "0" || record.Neurons[5].Layer != LayerTagOutput {
		t.Fatalf("unexpected layer tags: %+v", record.Neurons)
	}
	for _, n := range record.Neurons {
		if n.Squash != DefaultSquash {
			t.Fatalf("unexpected squash: %s", n.Squash)
		}
	}
}

func TestExportNilNetwork(t *testing.T) {
	if _, err := Export(nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got: %v", err)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	net := buildLayered(t, 9, 2, 3, 2, 1)
	input := []float64{0.25, 0.75}
	if _, err := net.Activate(input); err != nil {
		t.Fatalf("activate: %v", err)
	}

	record, err := Export(net)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	data, err := json.Marshal(record)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded model.Network
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	restored, err := Import(decoded, nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if len(restored.Neurons()) != len(net.Neurons()) || countProjected(restored) != countProjected(net) {
		t.Fatal("round trip changed the topology")
	}
	if len(restored.Hidden()) != 2 {
		t.Fatalf("unexpected hidden layers: %d", len(restored.Hidden()))
	}

	again, err := Export(restored)
	if err != nil {
		t.Fatalf("export restored: %v", err)
	}
	for i := range record.Neurons {
		if record.Neurons[i] != again.Neurons[i] {
			t.Fatalf("neuron %d differs: %+v != %+v", i, record.Neurons[i], again.Neurons[i])
		}
	}
	for i := range record.Connections {
		a, b := record.Connections[i], again.Connections[i]
		if a.From != b.From || a.To != b.To || a.Weight != b.Weight || a.Gater != nil || b.Gater != nil {
			t.Fatalf("connection %d differs: %+v != %+v", i, a, b)
		}
	}

	want, err := net.Activate(input)
	if err != nil {
		t.Fatalf("activate original: %v", err)
	}
	got, err := restored.Activate(input)
	if err != nil {
		t.Fatalf("activate restored: %v", err)
	}
	if want[0] != got[0] {
		t.Fatalf("restored output differs: %v != %v", got, want)
	}
}

func TestExportImportGatesAndSelfConnections(t *testing.T) {
	g := NewSeededGraph(4)
	in, hidden, out := g.NewLayer(1), g.NewLayer(2), g.NewLayer(1)
	if _, err := in.Project(hidden, Unspecified); err != nil {
		t.Fatalf("project: %v", err)
	}
	lc, err := hidden.Project(out, Unspecified)
	if err != nil {
		t.Fatalf("project: %v", err)
	}
	if _, err := hidden.Project(hidden, Unspecified); err != nil {
		t.Fatalf("self project: %v", err)
	}
	hidden.Neuron(0).Gate(lc.Connections()[1])
	hidden.Neuron(1).Gate(hidden.Neuron(0).SelfConnection())
	hidden.Neuron(1).SetSquash(Tanh{})

	net, err := NewNetwork(in, []*Layer{hidden}, out)
	if err != nil {
		t.Fatalf("new network: %v", err)
	}
	record, err := Export(net)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	// 1x2 + 2x1 projections plus two self-connections.
	if len(record.Connections) != 6 {
		t.Fatalf("unexpected connection records: %d", len(record.Connections))
	}

	selfRecords, gated := 0, 0
	for _, c := range record.Connections {
		if c.From == c.To {
			selfRecords++
			if c.Weight != 1 {
				t.Fatalf("unexpected self weight: %f", c.Weight)
			}
		}
		if c.Gater != nil {
			gated++
		}
	}
	if selfRecords != 2 || gated != 2 {
		t.Fatalf("unexpected records: self=%d gated=%d", selfRecords, gated)
	}

	restored, err := Import(record, nil)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	rh := restored.Hidden()[0]
	if !rh.SelfConnected() {
		t.Fatal("self-connections lost")
	}
	if rh.Neuron(0).SelfConnection().Gater != rh.Neuron(1).ID {
		t.Fatal("self-connection gater lost")
	}
	if len(rh.Neuron(0).Gated()) != 1 {
		t.Fatal("gated connection lost")
	}
	if rh.Neuron(1).Squash().Name() != "tanh" {
		t.Fatalf("squash lost: %s", rh.Neuron(1).Squash().Name())
	}
}

func TestImportRejectsInvalidRecords(t *testing.T) {
	gater := 7
	tests := []struct {
		name   string
		record model.Network
	}{
		{
			name:   "missing output",
			record: model.Network{Neurons: []model.Neuron{{Layer: LayerTagInput}}},
		},
		{
			name: "unknown layer",
			record: model.Network{Neurons: []model.Neuron{
				{Layer: LayerTagInput}, {Layer: "middle"}, {Layer: LayerTagOutput},
			}},
		},
		{
			name: "unknown squash",
			record: model.Network{Neurons: []model.Neuron{
				{Layer: LayerTagInput}, {Layer: LayerTagOutput, Squash: "softsign"},
			}},
		},
		{
			name: "dangling connection",
			record: model.Network{
				Neurons:     []model.Neuron{{Layer: LayerTagInput}, {Layer: LayerTagOutput}},
				Connections: []model.Connection{{From: 0, To: 2}},
			},
		},
		{
			name: "dangling gater",
			record: model.Network{
				Neurons:     []model.Neuron{{Layer: LayerTagInput}, {Layer: LayerTagOutput}},
				Connections: []model.Connection{{From: 0, To: 1, Gater: &gater}},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Import(tc.record, nil); !errors.Is(err, ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got: %v", err)
			}
		})
	}
}
