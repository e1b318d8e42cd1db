package synaptical

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synaptical/internal/config"
	"synaptical/internal/nn"
)

func newClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory"})
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestClientTrainSaveAndActivate(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	summary, err := client.Train(ctx, TrainRequest{
		Layers:     []int{2, 3, 1},
		Seed:       7,
		Dataset:    "or",
		Rate:       0.3,
		Iterations: 3000,
		Save:       true,
	})
	require.NoError(t, err)
	require.NotEmpty(t, summary.NetworkID)
	require.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.Outputs, 4)

	out, err := client.Activate(ctx, summary.NetworkID, []float64{1, 0})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.InDelta(t, summary.Outputs[2][0], out[0], 1e-12)

	items, err := client.Networks(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, summary.NetworkID, items[0].ID)
	assert.Equal(t, []int{2, 3, 1}, items[0].Layers)
	assert.Equal(t, 9, items[0].Connections)
	assert.Equal(t, 1, items[0].Runs)
}

func TestClientTrainWithoutSaveKeepsStoreEmpty(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	summary, err := client.Train(ctx, TrainRequest{Seed: 1, Iterations: 10})
	require.NoError(t, err)
	assert.Empty(t, summary.RunID)
	assert.Equal(t, 10, summary.Iterations)

	items, err := client.Networks(ctx)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClientContinueTraining(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	first, err := client.Train(ctx, TrainRequest{Seed: 3, Dataset: "and", Iterations: 50, Save: true})
	require.NoError(t, err)
	second, err := client.Train(ctx, TrainRequest{NetworkID: first.NetworkID, Dataset: "and", Iterations: 50})
	require.NoError(t, err)
	assert.Equal(t, first.NetworkID, second.NetworkID)
	assert.NotEqual(t, first.RunID, second.RunID)

	detail, err := client.Inspect(ctx, first.NetworkID)
	require.NoError(t, err)
	require.Len(t, detail.History, 2)
	assert.Equal(t, "and", detail.History[0].Dataset)
	assert.Equal(t, "mse", detail.History[0].Cost)
	assert.Equal(t, 6, detail.Squashes["logistic"])
	assert.Zero(t, detail.Gated)
}

func TestClientSquashAndCustomSamples(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	samples := Dataset{
		{Input: []float64{0}, Output: []float64{0.5}},
		{Input: []float64{1}, Output: []float64{-0.5}},
	}
	summary, err := client.Train(ctx, TrainRequest{
		Layers:     []int{1, 2, 1},
		Squash:     "tanh",
		Seed:       5,
		Samples:    samples,
		Iterations: 20,
		Save:       true,
	})
	require.NoError(t, err)

	detail, err := client.Inspect(ctx, summary.NetworkID)
	require.NoError(t, err)
	assert.Equal(t, 4, detail.Squashes["tanh"])
	assert.Equal(t, "custom", detail.History[0].Dataset)
}

func TestClientExportImport(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	summary, err := client.Train(ctx, TrainRequest{Seed: 9, Iterations: 100, Save: true})
	require.NoError(t, err)
	want, err := client.Activate(ctx, summary.NetworkID, []float64{0, 1})
	require.NoError(t, err)

	data, err := client.ExportNetwork(ctx, summary.NetworkID)
	require.NoError(t, err)
	require.NoError(t, client.DeleteNetwork(ctx, summary.NetworkID))
	_, err = client.Activate(ctx, summary.NetworkID, []float64{0, 1})
	assert.ErrorIs(t, err, ErrNetworkNotFound)

	id, err := client.ImportNetwork(ctx, data)
	require.NoError(t, err)
	assert.Equal(t, summary.NetworkID, id)
	got, err := client.Activate(ctx, id, []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = client.ImportNetwork(ctx, []byte(`{"schema_version":1,"codec_version":1,"neurons":[{"layer":"input"}]}`))
	assert.ErrorIs(t, err, nn.ErrInvalidArgument)
}

func TestClientRejectsInvalidRequests(t *testing.T) {
	ctx := context.Background()
	client := newClient(t)

	_, err := client.Train(ctx, TrainRequest{Layers: []int{2, 1}})
	assert.ErrorIs(t, err, nn.ErrInvalidArgument)
	_, err = client.Train(ctx, TrainRequest{Squash: "softsign"})
	assert.ErrorIs(t, err, nn.ErrInvalidArgument)
	_, err = client.Train(ctx, TrainRequest{Cost: "hinge"})
	assert.Error(t, err)
	_, err = client.Train(ctx, TrainRequest{Dataset: "xnor"})
	assert.Error(t, err)
	_, err = client.Train(ctx, TrainRequest{NetworkID: "missing"})
	assert.ErrorIs(t, err, ErrNetworkNotFound)
	_, err = client.Inspect(ctx, "missing")
	assert.ErrorIs(t, err, ErrNetworkNotFound)
}

func TestRequestFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.RateSchedule = []float64{0.4, 0.2}
	cfg.CrossValidate.TestSize = 0.25

	req := RequestFromConfig(cfg)
	assert.Equal(t, []int{2, 3, 1}, req.Layers)
	assert.Equal(t, []float64{0.4, 0.2}, req.RateSchedule)
	assert.Equal(t, "xor", req.Dataset)
	require.NotNil(t, req.CrossValidate)
	assert.Equal(t, 0.25, req.CrossValidate.TestSize)

	cfg.RateSchedule[0] = 9
	assert.Equal(t, 0.4, req.RateSchedule[0])
}
