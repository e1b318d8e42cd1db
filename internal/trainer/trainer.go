// Package trainer drives a network through repeated activate/propagate
// passes over a training set until its error or iteration budget is met.
package trainer

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"synaptical/internal/cost"
	"synaptical/internal/dataset"
	"synaptical/internal/logging"
	"synaptical/internal/nn"
)

const (
	DefaultRate       = 0.2
	DefaultIterations = 100000
	DefaultError      = 0.005
)

// CrossValidate trains on the leading part of the set and measures the error
// on the trailing TestSize fraction. Training stops once that error reaches
// TestError.
type CrossValidate struct {
	TestSize  float64
	TestError float64
}

// Progress is reported to OnProgress every LogEvery iterations.
type Progress struct {
	Iterations int
	Error      float64
	Rate       float64
}

type Config struct {
	Rate       float64
	Iterations int

	// Schedule overrides Rate when set.
	Schedule RateSchedule

	// Error is the target mean error per sample.
	Error float64

	// Cost defaults to mean squared error.
	Cost cost.Function

	CrossValidate *CrossValidate

	// Shuffle reorders the training samples before every iteration using Rand.
	Shuffle bool
	Rand    *rand.Rand

	LogEvery int

	// OnProgress may stop training early by returning true.
	OnProgress func(Progress) bool
}

func DefaultConfig() Config {
	return Config{
		Rate:       DefaultRate,
		Iterations: DefaultIterations,
		Error:      DefaultError,
	}
}

// Result summarizes a training or test pass.
type Result struct {
	Error      float64
	Iterations int
	Time       time.Duration
}

type Trainer struct {
	network  *nn.Network
	cfg      Config
	schedule RateSchedule
	cost     cost.Function
}

func New(network *nn.Network, cfg Config) (*Trainer, error) {
	if network == nil {
		return nil, fmt.Errorf("%w: network is required", nn.ErrInvalidArgument)
	}
	if cfg.Iterations <= 0 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", nn.ErrInvalidArgument, cfg.Iterations)
	}
	if cfg.Error < 0 {
		return nil, fmt.Errorf("%w: error must not be negative, got %g", nn.ErrInvalidArgument, cfg.Error)
	}
	schedule := cfg.Schedule
	if schedule == nil {
		if cfg.Rate <= 0 {
			return nil, fmt.Errorf("%w: rate must be positive, got %g", nn.ErrInvalidArgument, cfg.Rate)
		}
		schedule = ConstantRate(cfg.Rate)
	}
	if cv := cfg.CrossValidate; cv != nil && (cv.TestSize <= 0 || cv.TestSize >= 1) {
		return nil, fmt.Errorf("%w: cross validation test size must be in (0, 1), got %g", nn.ErrInvalidArgument, cv.TestSize)
	}
	costFn := cfg.Cost
	if costFn == nil {
		costFn = cost.MeanSquaredError
	}
	if cfg.Shuffle && cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Trainer{network: network, cfg: cfg, schedule: schedule, cost: costFn}, nil
}

func (t *Trainer) Network() *nn.Network { return t.network }

// Train runs iterations over set until the mean error drops to the configured
// target, the iteration budget is spent, OnProgress asks to stop, or ctx is
// done. ctx is checked between iterations; on cancellation the partial result
// is returned together with ctx.Err().
func (t *Trainer) Train(ctx context.Context, set dataset.Set) (Result, error) {
	if err := t.checkSet(set); err != nil {
		return Result{}, err
	}

	trainSet, testSet := set, dataset.Set(nil)
	if cv := t.cfg.CrossValidate; cv != nil {
		numTrain := int(math.Ceil((1 - cv.TestSize) * float64(len(set))))
		trainSet, testSet = set[:numTrain], set[numTrain:]
		if len(testSet) == 0 {
			return Result{}, fmt.Errorf("%w: cross validation leaves no test samples out of %d", nn.ErrInvalidArgument, len(set))
		}
	}
	if t.cfg.Shuffle {
		trainSet = trainSet.Clone()
	}

	start := time.Now()
	result := Result{Error: 1}
	lastError := 0.0
	for result.Iterations < t.cfg.Iterations && result.Error > t.cfg.Error {
		if cv := t.cfg.CrossValidate; cv != nil && result.Iterations > 0 && result.Error <= cv.TestError {
			break
		}
		if err := ctx.Err(); err != nil {
			result.Time = time.Since(start)
			return result, err
		}

		result.Iterations++
		rate := t.schedule.Rate(result.Iterations, lastError)
		if t.cfg.Shuffle {
			t.cfg.Rand.Shuffle(len(trainSet), func(i, j int) {
				trainSet[i], trainSet[j] = trainSet[j], trainSet[i]
			})
		}

		sum, err := t.trainSet(trainSet, rate)
		if err != nil {
			result.Time = time.Since(start)
			return result, err
		}
		if testSet != nil {
			tested, err := t.Test(testSet)
			if err != nil {
				result.Time = time.Since(start)
				return result, err
			}
			result.Error = tested.Error
		} else {
			result.Error = sum / float64(len(trainSet))
		}
		lastError = result.Error

		if t.cfg.LogEvery > 0 && result.Iterations%t.cfg.LogEvery == 0 {
			logging.Debugf("iteration %d: error %.6f rate %g", result.Iterations, result.Error, rate)
			if t.cfg.OnProgress != nil && t.cfg.OnProgress(Progress{Iterations: result.Iterations, Error: result.Error, Rate: rate}) {
				break
			}
		}
	}

	result.Time = time.Since(start)
	logging.Infof("training finished after %d iterations: error %.6f in %s", result.Iterations, result.Error, result.Time)
	return result, nil
}

func (t *Trainer) trainSet(set dataset.Set, rate float64) (float64, error) {
	sum := 0.0
	for _, sample := range set {
		output, err := t.network.Activate(sample.Input)
		if err != nil {
			return 0, err
		}
		if err := t.network.Propagate(rate, sample.Output); err != nil {
			return 0, err
		}
		sum += t.cost(sample.Output, output)
	}
	return sum, nil
}

// Test activates the network on every sample without learning and reports
// the mean cost.
func (t *Trainer) Test(set dataset.Set) (Result, error) {
	if err := t.checkSet(set); err != nil {
		return Result{}, err
	}

	start := time.Now()
	sum := 0.0
	for _, sample := range set {
		output, err := t.network.Activate(sample.Input)
		if err != nil {
			return Result{}, err
		}
		sum += t.cost(sample.Output, output)
	}
	return Result{Error: sum / float64(len(set)), Time: time.Since(start)}, nil
}

func (t *Trainer) checkSet(set dataset.Set) error {
	if len(set) == 0 {
		return fmt.Errorf("%w: empty training set", nn.ErrInvalidArgument)
	}
	inputs, outputs := t.network.Inputs(), t.network.Outputs()
	for i, sample := range set {
		if len(sample.Input) != inputs || len(sample.Output) != outputs {
			return fmt.Errorf("%w: sample %d has shape %d->%d, network expects %d->%d",
				nn.ErrInvalidArgument, i, len(sample.Input), len(sample.Output), inputs, outputs)
		}
	}
	return nil
}
