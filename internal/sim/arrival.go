package sim

import (
	"math"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
	"github.com/sparshmallow/appointmentscheduling/internal/sampler"
)

// ArrivalWeeks draws n exponential inter-arrival times at lambda per week,
// accumulates them and buckets each arrival into week ceil(t). Weeks beyond
// the int range saturate at math.MaxInt.
func ArrivalWeeks(s *sampler.Sampler, n int, lambda float64) []int {
	weeks := make([]int, n)
	t := 0.0
	for i := range weeks {
		t += s.Exponential(lambda)
		weeks[i] = weekOf(t)
	}
	return weeks
}

func weekOf(t float64) int {
	c := math.Ceil(t)
	switch {
	case !(c < math.MaxInt):
		return math.MaxInt
	case c < 1:
		return 1
	}
	return int(c)
}

// AssignPopulations draws a population for each of n patients independently
// from the normalized population weights.
func AssignPopulations(s *sampler.Sampler, n int, populations []model.PopulationWeight) ([]string, error) {
	weights := make([]float64, len(populations))
	for i, p := range populations {
		weights[i] = p.Weight
	}
	dist, err := sampler.NewCategorical(weights)
	if err != nil {
		return nil, &ValidationError{Reason: "Population weights must sum to > 0."}
	}
	out := make([]string, n)
	for i := range out {
		out[i] = populations[dist.Sample(s)].Name
	}
	return out, nil
}
