package model

import "time"

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// Network is the flat serialized form of a network: one record per neuron in
// traversal order and one record per realized connection.
type Network struct {
	VersionedRecord
	ID          string       `json:"id,omitempty"`
	Neurons     []Neuron     `json:"neurons"`
	Connections []Connection `json:"connections"`
}

type Neuron struct {
	State      float64 `json:"state"`
	Old        float64 `json:"old"`
	Activation float64 `json:"activation"`
	Bias       float64 `json:"bias"`
	Layer      string  `json:"layer"`
	Squash     string  `json:"squash"`
}

// Connection indexes into Network.Neurons. Gater is nil for ungated
// connections; From == To encodes a self-connection.
type Connection struct {
	From   int     `json:"from"`
	To     int     `json:"to"`
	Weight float64 `json:"weight"`
	Gater  *int    `json:"gater"`
}

// TrainingRun summarizes one trainer invocation against a stored network.
type TrainingRun struct {
	VersionedRecord
	ID         string        `json:"id"`
	NetworkID  string        `json:"network_id"`
	Dataset    string        `json:"dataset"`
	Cost       string        `json:"cost"`
	Rate       float64       `json:"rate"`
	Error      float64       `json:"error"`
	Iterations int           `json:"iterations"`
	Elapsed    time.Duration `json:"elapsed"`
	CreatedAt  time.Time     `json:"created_at"`
}
