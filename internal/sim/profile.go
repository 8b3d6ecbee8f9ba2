package sim

import (
	"fmt"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
	"github.com/sparshmallow/appointmentscheduling/internal/sampler"
)

// Profile is a population's parameters with its method and visit-category
// distributions normalized and ready to sample.
type Profile struct {
	Name       string
	Methods    []model.MethodProfile
	Visits     []model.VisitCategoryProfile
	methodDist sampler.Categorical
	visitDist  sampler.Categorical
}

// NewProfile normalizes the method likelihoods and visit-category
// probabilities of params.
func NewProfile(name string, params model.PopulationParams) (*Profile, error) {
	methodWeights := make([]float64, len(params.Methods))
	for i, m := range params.Methods {
		methodWeights[i] = m.Likelihood
	}
	methodDist, err := sampler.NewCategorical(methodWeights)
	if err != nil {
		return nil, fmt.Errorf("%s methods: %w", name, err)
	}
	visitWeights := make([]float64, len(params.VisitCategories))
	for i, v := range params.VisitCategories {
		visitWeights[i] = v.Prob
	}
	visitDist, err := sampler.NewCategorical(visitWeights)
	if err != nil {
		return nil, fmt.Errorf("%s visit categories: %w", name, err)
	}
	return &Profile{
		Name:       name,
		Methods:    params.Methods,
		Visits:     params.VisitCategories,
		methodDist: methodDist,
		visitDist:  visitDist,
	}, nil
}

// MethodProbabilities returns the normalized method distribution.
func (p *Profile) MethodProbabilities() []float64 {
	return p.methodDist.Probabilities()
}

// VisitProbabilities returns the normalized visit-category distribution.
func (p *Profile) VisitProbabilities() []float64 {
	return p.visitDist.Probabilities()
}

// Lookups holds the global method and visit-category tables.
type Lookups struct {
	TouchpointsByMethod        map[string]float64
	AllocatedMinutesByCategory map[string]float64
}

func compileProfiles(cfg model.Config) (map[string]*Profile, error) {
	profiles := make(map[string]*Profile, len(cfg.PopulationParams))
	for _, name := range paramOrder(cfg) {
		profile, err := NewProfile(name, cfg.PopulationParams[name])
		if err != nil {
			return nil, &ValidationError{Reason: err.Error()}
		}
		profiles[name] = profile
	}
	return profiles, nil
}
