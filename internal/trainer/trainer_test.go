package trainer

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"synaptical/internal/architect"
	"synaptical/internal/cost"
	"synaptical/internal/dataset"
	"synaptical/internal/nn"
)

func perceptron(t *testing.T, seed int64, sizes ...int) *nn.Network {
	t.Helper()
	net, err := architect.SeededPerceptron(seed, sizes...)
	require.NoError(t, err)
	return net
}

func truthTable(t *testing.T, name string) dataset.Set {
	t.Helper()
	set, err := dataset.Get(name)
	require.NoError(t, err)
	return set
}

func TestTrainLogicGates(t *testing.T) {
	// A mean squared error of 0.001 over four rows bounds every row within
	// sqrt(0.004) of its target.
	cfg := Config{Rate: 0.3, Iterations: 50000, Error: 0.001}

	for _, name := range []string{"xor", "and", "or"} {
		t.Run(name, func(t *testing.T) {
			set := truthTable(t, name)

			// Some initializations settle in a local minimum; one of a few
			// seeds is enough.
			for seed := int64(1); seed <= 5; seed++ {
				net := perceptron(t, seed, 2, 3, 1)
				tr, err := New(net, cfg)
				require.NoError(t, err)

				result, err := tr.Train(context.Background(), set)
				require.NoError(t, err)
				if result.Error > cfg.Error {
					continue
				}

				assert.Less(t, result.Iterations, cfg.Iterations)
				assert.Positive(t, result.Time)
				for _, sample := range set {
					out, err := net.Activate(sample.Input)
					require.NoError(t, err)
					assert.InDelta(t, sample.Output[0], out[0], 0.1, "input %v", sample.Input)
				}
				return
			}
			t.Fatalf("%s did not converge for any seed", name)
		})
	}
}

func TestTrainStopsAtIterationLimit(t *testing.T) {
	net := perceptron(t, 1, 2, 3, 1)
	tr, err := New(net, Config{Rate: 0.1, Iterations: 10})
	require.NoError(t, err)

	result, err := tr.Train(context.Background(), truthTable(t, "xor"))
	require.NoError(t, err)
	assert.Equal(t, 10, result.Iterations)
	assert.Positive(t, result.Error)
}

func TestTrainDeterministic(t *testing.T) {
	run := func() Result {
		tr, err := New(perceptron(t, 42, 2, 3, 1), Config{Rate: 0.3, Iterations: 200})
		require.NoError(t, err)
		result, err := tr.Train(context.Background(), truthTable(t, "or"))
		require.NoError(t, err)
		return result
	}
	first, second := run(), run()
	assert.Equal(t, first.Error, second.Error)
	assert.Equal(t, first.Iterations, second.Iterations)
}

func TestTrainCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := New(perceptron(t, 1, 2, 3, 1), DefaultConfig())
	require.NoError(t, err)
	result, err := tr.Train(ctx, truthTable(t, "xor"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.Iterations)
}

func TestTrainScheduleSeesIterationAndLastError(t *testing.T) {
	var iterations []int
	var errs []float64
	schedule := RateFunc(func(iteration int, lastError float64) float64 {
		iterations = append(iterations, iteration)
		errs = append(errs, lastError)
		return 0.2
	})

	var reported []Progress
	tr, err := New(perceptron(t, 3, 2, 3, 1), Config{
		Schedule:   schedule,
		Iterations: 3,
		LogEvery:   1,
		OnProgress: func(p Progress) bool {
			reported = append(reported, p)
			return false
		},
	})
	require.NoError(t, err)

	_, err = tr.Train(context.Background(), truthTable(t, "and"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, iterations)
	require.Len(t, reported, 3)
	assert.Zero(t, errs[0])
	assert.Equal(t, reported[0].Error, errs[1])
	assert.Equal(t, reported[1].Error, errs[2])
	assert.Equal(t, 0.2, reported[2].Rate)
}

func TestTrainProgressCanStop(t *testing.T) {
	tr, err := New(perceptron(t, 3, 2, 3, 1), Config{
		Rate:       0.2,
		Iterations: 100,
		LogEvery:   5,
		OnProgress: func(p Progress) bool { return p.Iterations >= 10 },
	})
	require.NoError(t, err)

	result, err := tr.Train(context.Background(), truthTable(t, "and"))
	require.NoError(t, err)
	assert.Equal(t, 10, result.Iterations)
}

func TestTrainCrossValidation(t *testing.T) {
	net := perceptron(t, 5, 2, 3, 1)
	tr, err := New(net, Config{
		Rate:          0.2,
		Iterations:    50,
		CrossValidate: &CrossValidate{TestSize: 0.25, TestError: 0},
	})
	require.NoError(t, err)

	set := truthTable(t, "xor")
	result, err := tr.Train(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, 50, result.Iterations)

	// The reported error comes from the held-out last sample only.
	tested, err := tr.Test(set[3:])
	require.NoError(t, err)
	assert.InDelta(t, tested.Error, result.Error, 1e-12)
}

func TestTrainCrossValidationNeedsTestSamples(t *testing.T) {
	tr, err := New(perceptron(t, 5, 2, 3, 1), Config{
		Rate:          0.2,
		Iterations:    5,
		CrossValidate: &CrossValidate{TestSize: 0.1},
	})
	require.NoError(t, err)

	_, err = tr.Train(context.Background(), truthTable(t, "xor")[:1])
	assert.ErrorIs(t, err, nn.ErrInvalidArgument)
}

func TestTrainShuffleKeepsCallerOrder(t *testing.T) {
	set := truthTable(t, "xor")
	before := set.Clone()

	tr, err := New(perceptron(t, 2, 2, 3, 1), Config{
		Rate:       0.2,
		Iterations: 20,
		Shuffle:    true,
		Rand:       rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	_, err = tr.Train(context.Background(), set)
	require.NoError(t, err)
	assert.Equal(t, before, set)
}

func TestTrainRejectsMismatchedSamples(t *testing.T) {
	net := perceptron(t, 1, 2, 3, 1)
	tr, err := New(net, DefaultConfig())
	require.NoError(t, err)

	_, err = tr.Train(context.Background(), dataset.Set{{Input: []float64{1}, Output: []float64{0}}})
	assert.ErrorIs(t, err, nn.ErrInvalidArgument)
	_, err = tr.Train(context.Background(), nil)
	assert.ErrorIs(t, err, nn.ErrInvalidArgument)
}

func TestNewValidation(t *testing.T) {
	net := perceptron(t, 1, 2, 3, 1)
	tests := []struct {
		name string
		net  *nn.Network
		cfg  Config
	}{
		{name: "nil network", cfg: DefaultConfig()},
		{name: "zero iterations", net: net, cfg: Config{Rate: 0.1}},
		{name: "zero rate", net: net, cfg: Config{Iterations: 1}},
		{name: "negative error", net: net, cfg: Config{Rate: 0.1, Iterations: 1, Error: -1}},
		{name: "bad test size", net: net, cfg: Config{Rate: 0.1, Iterations: 1, CrossValidate: &CrossValidate{TestSize: 1}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.net, tc.cfg)
			assert.True(t, errors.Is(err, nn.ErrInvalidArgument), "got: %v", err)
		})
	}
}

func TestTestUsesConfiguredCost(t *testing.T) {
	net := perceptron(t, 1, 2, 3, 1)
	tr, err := New(net, Config{Rate: 0.1, Iterations: 1, Cost: cost.BinaryError})
	require.NoError(t, err)

	set := truthTable(t, "and")
	result, err := tr.Test(set)
	require.NoError(t, err)

	misses := 0.0
	for _, sample := range set {
		out, err := net.Activate(sample.Input)
		require.NoError(t, err)
		if math.Round(out[0]*2) != math.Round(sample.Output[0]*2) {
			misses++
		}
	}
	assert.InDelta(t, misses/float64(len(set)), result.Error, 1e-12)
}

func TestBucketRate(t *testing.T) {
	b := BucketRate{Rates: []float64{0.5, 0.3, 0.1}, Iterations: 9}
	assert.Equal(t, 0.5, b.Rate(1, 0))
	assert.Equal(t, 0.3, b.Rate(3, 0))
	assert.Equal(t, 0.1, b.Rate(6, 0))
	assert.Equal(t, 0.1, b.Rate(9, 0))
	assert.Equal(t, 0.5, BucketRate{Rates: []float64{0.5, 0.3}, Iterations: 1}.Rate(1, 0))
	assert.Zero(t, BucketRate{}.Rate(1, 0))
	assert.Equal(t, 0.7, ConstantRate(0.7).Rate(100, 1))
}
