package trainer

// RateSchedule picks the learning rate for an iteration. iteration starts at
// 1; lastError is the error of the previous iteration, 0 on the first.
type RateSchedule interface {
	Rate(iteration int, lastError float64) float64
}

// ConstantRate uses the same rate for every iteration.
type ConstantRate float64

func (r ConstantRate) Rate(int, float64) float64 { return float64(r) }

// BucketRate splits Iterations into len(Rates) equal buckets and uses one
// rate per bucket. Iterations past the last bucket keep the last rate.
type BucketRate struct {
	Rates      []float64
	Iterations int
}

func (b BucketRate) Rate(iteration int, _ float64) float64 {
	if len(b.Rates) == 0 {
		return 0
	}
	size := b.Iterations / len(b.Rates)
	if size <= 0 {
		return b.Rates[0]
	}
	bucket := iteration / size
	if bucket >= len(b.Rates) {
		bucket = len(b.Rates) - 1
	}
	return b.Rates[bucket]
}

// RateFunc adapts a plain function into a RateSchedule.
type RateFunc func(iteration int, lastError float64) float64

func (f RateFunc) Rate(iteration int, lastError float64) float64 { return f(iteration, lastError) }
