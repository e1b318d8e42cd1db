package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"synaptical/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeNetwork(n model.Network) ([]byte, error) {
	return json.Marshal(n)
}

func DecodeNetwork(data []byte) (model.Network, error) {
	var network model.Network
	if err := json.Unmarshal(data, &network); err != nil {
		return model.Network{}, err
	}
	if err := checkVersion(network.VersionedRecord); err != nil {
		return model.Network{}, err
	}
	return network, nil
}

func EncodeRun(r model.TrainingRun) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.TrainingRun, error) {
	var run model.TrainingRun
	if err := json.Unmarshal(data, &run); err != nil {
		return model.TrainingRun{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.TrainingRun{}, err
	}
	return run, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return fmt.Errorf("%w: schema=%d codec=%d", ErrVersionMismatch, v.SchemaVersion, v.CodecVersion)
	}
	return nil
}

func cloneNetwork(n model.Network) model.Network {
	out := n
	out.Neurons = append([]model.Neuron(nil), n.Neurons...)
	out.Connections = nil
	for _, c := range n.Connections {
		if c.Gater != nil {
			gater := *c.Gater
			c.Gater = &gater
		}
		out.Connections = append(out.Connections, c)
	}
	return out
}
