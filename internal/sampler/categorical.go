package sampler

import (
	"errors"
	"math"
)

// ErrInvalidWeights is returned when weights cannot form a distribution.
var ErrInvalidWeights = errors.New("weights must be nonnegative and sum to a positive number")

// Categorical is a discrete distribution over indexes 0..n-1.
type Categorical struct {
	probs []float64
	cum   []float64
}

// NewCategorical re-normalizes weights into a distribution.
func NewCategorical(weights []float64) (Categorical, error) {
	total := 0.0
	for _, w := range weights {
		if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
			return Categorical{}, ErrInvalidWeights
		}
		total += w
	}
	if total <= 0 {
		return Categorical{}, ErrInvalidWeights
	}
	probs := make([]float64, len(weights))
	cum := make([]float64, len(weights))
	acc := 0.0
	for i, w := range weights {
		probs[i] = w / total
		acc += probs[i]
		cum[i] = acc
	}
	return Categorical{probs: probs, cum: cum}, nil
}

// Len returns the number of categories.
func (c Categorical) Len() int {
	return len(c.probs)
}

// Probabilities returns a copy of the normalized probabilities.
func (c Categorical) Probabilities() []float64 {
	out := make([]float64, len(c.probs))
	copy(out, c.probs)
	return out
}

// Sample draws one index. Exactly one uniform value is consumed.
func (c Categorical) Sample(s *Sampler) int {
	r := s.Float64()
	last := 0
	for i, acc := range c.cum {
		if c.probs[i] == 0 {
			continue
		}
		last = i
		if r < acc {
			return i
		}
	}
	// Rounding can leave the final cumulative value just below 1.
	return last
}
