// Package synaptical is the public entry point: it builds perceptrons, trains
// them against named truth tables or custom sets, and keeps the results in a
// store.
package synaptical

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"synaptical/internal/architect"
	"synaptical/internal/config"
	"synaptical/internal/cost"
	"synaptical/internal/dataset"
	"synaptical/internal/logging"
	"synaptical/internal/model"
	"synaptical/internal/nn"
	"synaptical/internal/storage"
	"synaptical/internal/trainer"
)

const defaultDBPath = "synaptical.db"

var ErrNetworkNotFound = errors.New("network not found")

type (
	Sample  = dataset.Sample
	Dataset = dataset.Set
)

type Options struct {
	StoreKind string
	DBPath    string
}

type Client struct {
	store storage.Store

	mu          sync.Mutex
	initialized bool
}

type CrossValidate struct {
	TestSize  float64
	TestError float64
}

// TrainRequest describes one training run. When NetworkID names a stored
// network, training continues from it and Layers, Squash and Seed are
// ignored; otherwise a new perceptron is built.
type TrainRequest struct {
	NetworkID string
	Layers    []int
	Squash    string
	Seed      int64

	// Dataset names a built-in truth table; Samples takes precedence when set.
	Dataset string
	Samples Dataset

	Rate         float64
	RateSchedule []float64
	Iterations   int
	Error        float64
	Cost         string
	LogEvery     int
	Shuffle      bool

	CrossValidate *CrossValidate

	// Save persists the trained network and a run record.
	Save bool
}

type TrainSummary struct {
	NetworkID  string
	RunID      string
	Error      float64
	Iterations int
	Elapsed    time.Duration

	// Outputs holds the trained network's answer for every training sample.
	Outputs [][]float64
}

type NetworkItem struct {
	ID          string
	Layers      []int
	Connections int
	Runs        int
}

type NetworkDetail struct {
	NetworkItem
	Squashes map[string]int
	Gated    int
	History  []model.TrainingRun
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}
	return &Client{store: store}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	_, err := c.ensureStore(ctx)
	return err
}

// RequestFromConfig maps loaded settings onto a training request.
func RequestFromConfig(cfg config.Config) TrainRequest {
	req := TrainRequest{
		Layers:       append([]int(nil), cfg.Layers...),
		Squash:       cfg.Squash,
		Seed:         cfg.Seed,
		Dataset:      cfg.Dataset,
		Rate:         cfg.Rate,
		RateSchedule: append([]float64(nil), cfg.RateSchedule...),
		Iterations:   cfg.Iterations,
		Error:        cfg.Error,
		Cost:         cfg.Cost,
		LogEvery:     cfg.LogEvery,
		Shuffle:      cfg.Shuffle,
	}
	if cfg.CrossValidate.TestSize > 0 {
		req.CrossValidate = &CrossValidate{
			TestSize:  cfg.CrossValidate.TestSize,
			TestError: cfg.CrossValidate.TestError,
		}
	}
	return req
}

func (c *Client) Train(ctx context.Context, req TrainRequest) (TrainSummary, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return TrainSummary{}, err
	}

	set := req.Samples
	if len(set) == 0 {
		name := req.Dataset
		if name == "" {
			name = "xor"
		}
		if set, err = dataset.Get(name); err != nil {
			return TrainSummary{}, err
		}
	}
	costFn, err := cost.Get(req.Cost)
	if err != nil {
		return TrainSummary{}, err
	}

	networkID := req.NetworkID
	var net *nn.Network
	if networkID != "" {
		if net, err = c.load(ctx, store, networkID); err != nil {
			return TrainSummary{}, err
		}
	} else {
		if net, err = buildPerceptron(req); err != nil {
			return TrainSummary{}, err
		}
		networkID = storage.NewID()
	}

	cfg := trainer.Config{
		Rate:       req.Rate,
		Iterations: req.Iterations,
		Error:      req.Error,
		Cost:       costFn,
		LogEvery:   req.LogEvery,
		Shuffle:    req.Shuffle,
	}
	if cfg.Rate == 0 {
		cfg.Rate = trainer.DefaultRate
	}
	if cfg.Iterations == 0 {
		cfg.Iterations = trainer.DefaultIterations
	}
	if len(req.RateSchedule) > 0 {
		cfg.Schedule = trainer.BucketRate{Rates: req.RateSchedule, Iterations: cfg.Iterations}
	}
	if req.CrossValidate != nil {
		cfg.CrossValidate = &trainer.CrossValidate{TestSize: req.CrossValidate.TestSize, TestError: req.CrossValidate.TestError}
	}
	if req.Shuffle && req.Seed != 0 {
		cfg.Rand = rand.New(rand.NewSource(req.Seed))
	}

	tr, err := trainer.New(net, cfg)
	if err != nil {
		return TrainSummary{}, err
	}
	result, err := tr.Train(ctx, set)
	if err != nil {
		return TrainSummary{}, err
	}

	summary := TrainSummary{
		NetworkID:  networkID,
		Error:      result.Error,
		Iterations: result.Iterations,
		Elapsed:    result.Time,
	}
	for _, sample := range set {
		out, err := net.Activate(sample.Input)
		if err != nil {
			return TrainSummary{}, err
		}
		summary.Outputs = append(summary.Outputs, out)
	}

	if !req.Save && req.NetworkID == "" {
		return summary, nil
	}

	record, err := nn.Export(net)
	if err != nil {
		return TrainSummary{}, err
	}
	record.ID = networkID
	if err := store.SaveNetwork(ctx, record); err != nil {
		return TrainSummary{}, err
	}

	costName := req.Cost
	if costName == "" {
		costName = cost.Default
	}
	datasetName := req.Dataset
	if len(req.Samples) > 0 {
		datasetName = "custom"
	}
	run := model.TrainingRun{
		VersionedRecord: model.VersionedRecord{SchemaVersion: storage.CurrentSchemaVersion, CodecVersion: storage.CurrentCodecVersion},
		ID:              storage.NewID(),
		NetworkID:       networkID,
		Dataset:         datasetName,
		Cost:            costName,
		Rate:            cfg.Rate,
		Error:           result.Error,
		Iterations:      result.Iterations,
		Elapsed:         result.Time,
		CreatedAt:       time.Now().UTC(),
	}
	if err := store.SaveRun(ctx, run); err != nil {
		return TrainSummary{}, err
	}
	summary.RunID = run.ID
	logging.Infof("saved network %s with run %s", networkID, run.ID)
	return summary, nil
}

// Activate feeds input through a stored network. The stored record is not
// updated.
func (c *Client) Activate(ctx context.Context, networkID string, input []float64) ([]float64, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	net, err := c.load(ctx, store, networkID)
	if err != nil {
		return nil, err
	}
	return net.Activate(input)
}

func (c *Client) Networks(ctx context.Context) ([]NetworkItem, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	ids, err := store.ListNetworks(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]NetworkItem, 0, len(ids))
	for _, id := range ids {
		detail, err := c.Inspect(ctx, id)
		if err != nil {
			return nil, err
		}
		items = append(items, detail.NetworkItem)
	}
	return items, nil
}

func (c *Client) Inspect(ctx context.Context, networkID string) (NetworkDetail, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return NetworkDetail{}, err
	}
	record, err := c.record(ctx, store, networkID)
	if err != nil {
		return NetworkDetail{}, err
	}
	net, err := nn.Import(record, nil)
	if err != nil {
		return NetworkDetail{}, err
	}
	runs, err := store.ListRuns(ctx, networkID)
	if err != nil {
		return NetworkDetail{}, err
	}

	detail := NetworkDetail{
		NetworkItem: NetworkItem{
			ID:          networkID,
			Layers:      layerSizes(net),
			Connections: len(record.Connections),
			Runs:        len(runs),
		},
		Squashes: make(map[string]int),
		History:  runs,
	}
	for _, n := range record.Neurons {
		detail.Squashes[n.Squash]++
	}
	for _, conn := range record.Connections {
		if conn.Gater != nil {
			detail.Gated++
		}
	}
	return detail, nil
}

// ExportNetwork returns the stored network as versioned JSON.
func (c *Client) ExportNetwork(ctx context.Context, networkID string) ([]byte, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return nil, err
	}
	record, err := c.record(ctx, store, networkID)
	if err != nil {
		return nil, err
	}
	return storage.EncodeNetwork(record)
}

// ImportNetwork validates and stores a JSON network, keeping its id when it
// has one.
func (c *Client) ImportNetwork(ctx context.Context, data []byte) (string, error) {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return "", err
	}
	record, err := storage.DecodeNetwork(data)
	if err != nil {
		return "", err
	}
	if _, err := nn.Import(record, nil); err != nil {
		return "", err
	}
	if record.ID == "" {
		record.ID = storage.NewID()
	}
	if err := store.SaveNetwork(ctx, record); err != nil {
		return "", err
	}
	return record.ID, nil
}

func (c *Client) DeleteNetwork(ctx context.Context, networkID string) error {
	store, err := c.ensureStore(ctx)
	if err != nil {
		return err
	}
	return store.DeleteNetwork(ctx, networkID)
}

func (c *Client) ensureStore(ctx context.Context) (storage.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.initialized {
		if err := c.store.Init(ctx); err != nil {
			return nil, err
		}
		c.initialized = true
	}
	return c.store, nil
}

func (c *Client) record(ctx context.Context, store storage.Store, networkID string) (model.Network, error) {
	record, ok, err := store.GetNetwork(ctx, networkID)
	if err != nil {
		return model.Network{}, err
	}
	if !ok {
		return model.Network{}, fmt.Errorf("%w: %s", ErrNetworkNotFound, networkID)
	}
	return record, nil
}

func (c *Client) load(ctx context.Context, store storage.Store, networkID string) (*nn.Network, error) {
	record, err := c.record(ctx, store, networkID)
	if err != nil {
		return nil, err
	}
	return nn.Import(record, nil)
}

func buildPerceptron(req TrainRequest) (*nn.Network, error) {
	layers := req.Layers
	if len(layers) == 0 {
		layers = config.Default().Layers
	}
	squash, err := nn.GetSquash(req.Squash)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", nn.ErrInvalidArgument, err)
	}

	var g *nn.Graph
	if req.Seed != 0 {
		g = nn.NewSeededGraph(req.Seed)
	} else {
		g = nn.NewGraph(nil)
	}
	net, err := architect.Perceptron(g, layers...)
	if err != nil {
		return nil, err
	}
	for _, entry := range net.Neurons() {
		entry.Neuron.SetSquash(squash)
	}
	return net, nil
}

func layerSizes(net *nn.Network) []int {
	sizes := []int{net.Inputs()}
	for _, layer := range net.Hidden() {
		sizes = append(sizes, layer.Size())
	}
	return append(sizes, net.Outputs())
}
