// Package sampler provides the seeded random source and the distributions
// drawn by the simulation.
package sampler

import (
	"math"
	"math/rand"
)

// poissonChunk bounds the mean handled by one Knuth draw; exp(-mean) stays
// far from underflow below it.
const poissonChunk = 30.0

// Sampler owns the single random source of a run. It is not safe for
// concurrent use: draw order is part of the result.
type Sampler struct {
	rnd *rand.Rand
}

// New returns a Sampler seeded with seed.
func New(seed int64) *Sampler {
	return &Sampler{rnd: rand.New(rand.NewSource(seed))}
}

// Float64 returns a uniform value in [0, 1).
func (s *Sampler) Float64() float64 {
	return s.rnd.Float64()
}

// Bernoulli returns true with probability p.
func (s *Sampler) Bernoulli(p float64) bool {
	return s.rnd.Float64() < p
}

// Exponential draws from an exponential distribution with the given rate
// (mean 1/rate). The result is always > 0.
func (s *Sampler) Exponential(rate float64) float64 {
	return s.rnd.ExpFloat64() / rate
}

// LogNormal draws exp(mu + sigma*Z) with Z standard normal.
func (s *Sampler) LogNormal(mu, sigma float64) float64 {
	return math.Exp(mu + sigma*s.rnd.NormFloat64())
}

// Poisson draws a Poisson-distributed count with the given mean.
// Large means are split into chunks and summed.
func (s *Sampler) Poisson(mean float64) int {
	if mean <= 0 || math.IsNaN(mean) {
		return 0
	}
	total := 0
	for mean > poissonChunk {
		total += s.knuth(poissonChunk)
		mean -= poissonChunk
	}
	return total + s.knuth(mean)
}

func (s *Sampler) knuth(mean float64) int {
	if mean <= 0 {
		return 0
	}
	l := math.Exp(-mean)
	k := 0
	p := 1.0
	for p > l {
		k++
		p *= s.rnd.Float64()
	}
	return k - 1
}
