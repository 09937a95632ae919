// Package skill turns centipawn losses into a rating and the rating into a
// search depth for the opponent.
package skill

import (
	"math"
	"sync"
)

const (
	DefaultRating = 1200
	MinRating     = 400
	MaxRating     = 2800

	ratingScale    = 323422.0
	ratingExponent = -1.2305
)

// EstimateRating maps an average centipawn loss to a rating with the power law
// rating = 323422 * acpl^-1.2305, truncated and clamped to [MinRating, MaxRating].
func EstimateRating(acpl float64) int {
	if acpl <= 0 || math.IsNaN(acpl) {
		return MaxRating
	}
	r := ratingScale * math.Pow(acpl, ratingExponent)
	if r > MaxRating {
		return MaxRating
	}
	if r < MinRating {
		return MinRating
	}
	return int(r)
}

// Estimator accumulates losses. Window 0 averages every sample; a positive
// window averages only the trailing samples.
type Estimator struct {
	mu      sync.RWMutex
	window  int
	samples []int
	running []float64
	total   int
}

func NewEstimator(window int) *Estimator {
	if window < 0 {
		window = 0
	}
	return &Estimator{window: window}
}

func (e *Estimator) Update(loss int) {
	if loss < 0 {
		loss = 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.samples = append(e.samples, loss)
	e.total += loss
	e.running = append(e.running, float64(e.total)/float64(len(e.samples)))
}

func (e *Estimator) Count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.samples)
}

// ACPL is the average over the configured window, 0 with no samples.
func (e *Estimator) ACPL() float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.acplLocked()
}

func (e *Estimator) acplLocked() float64 {
	n := len(e.samples)
	if n == 0 {
		return 0
	}
	if e.window == 0 || e.window >= n {
		return float64(e.total) / float64(n)
	}
	sum := 0
	for _, l := range e.samples[n-e.window:] {
		sum += l
	}
	return float64(sum) / float64(e.window)
}

func (e *Estimator) Estimate() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if len(e.samples) == 0 {
		return DefaultRating
	}
	return EstimateRating(e.acplLocked())
}

// RunningACPL is the cumulative average after each sample.
func (e *Estimator) RunningACPL() []float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]float64(nil), e.running...)
}

func (e *Estimator) Losses() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]int(nil), e.samples...)
}
