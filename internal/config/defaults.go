package config

import (
	"fmt"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

// Defaults for the global run settings.
const (
	DefaultNPatients     = 2000
	DefaultSeed          = 7
	DefaultMaxAttempts   = 5
	DefaultLambdaPerWeek = 40.0
)

// DefaultConfig returns a fresh copy of the default scenario: four equally
// weighted populations, five outreach methods and six visit categories.
func DefaultConfig() model.Config {
	return model.Config{
		NPatients:     DefaultNPatients,
		Seed:          DefaultSeed,
		MaxAttempts:   DefaultMaxAttempts,
		LambdaPerWeek: DefaultLambdaPerWeek,
		Populations: []model.PopulationWeight{
			{Name: "Population 1", Weight: 0.25},
			{Name: "Population 2", Weight: 0.25},
			{Name: "Population 3", Weight: 0.25},
			{Name: "Population 4", Weight: 0.25},
		},
		TouchpointsByMethod: map[string]float64{
			"Method 1": 2.0,
			"Method 2": 3.0,
			"Method 3": 1.0,
			"Method 4": 4.0,
			"Method 5": 2.0,
		},
		AllocatedMinutesByCategory: map[string]float64{
			"VisitCat 1": 15,
			"VisitCat 2": 20,
			"VisitCat 3": 30,
			"VisitCat 4": 40,
			"VisitCat 5": 60,
			"VisitCat 6": 10,
		},
		PopulationParams: map[string]model.PopulationParams{
			"Population 1": {
				Methods: []model.MethodProfile{
					{Method: "Method 1", Likelihood: 0.2, PSchedule: 0.8, PComplete: 0.85, Mu: 1.0, Sigma: 0.5, Mu2: 1.2, Sigma2: 0.55},
					{Method: "Method 2", Likelihood: 0.2, PSchedule: 0.75, PComplete: 0.8, Mu: 1.1, Sigma: 0.5, Mu2: 1.3, Sigma2: 0.6},
					{Method: "Method 3", Likelihood: 0.2, PSchedule: 0.7, PComplete: 0.75, Mu: 1.0, Sigma: 0.45, Mu2: 1.1, Sigma2: 0.55},
					{Method: "Method 4", Likelihood: 0.2, PSchedule: 0.65, PComplete: 0.7, Mu: 1.2, Sigma: 0.55, Mu2: 1.35, Sigma2: 0.65},
					{Method: "Method 5", Likelihood: 0.2, PSchedule: 0.78, PComplete: 0.82, Mu: 1.05, Sigma: 0.5, Mu2: 1.25, Sigma2: 0.6},
				},
				VisitCategories: visitCategories(0.2, 0.2, 0.2, 0.2, 0.1, 0.1),
			},
			"Population 2": {
				Methods: []model.MethodProfile{
					{Method: "Method 1", Likelihood: 0.25, PSchedule: 0.75, PComplete: 0.8, Mu: 1.1, Sigma: 0.55, Mu2: 1.3, Sigma2: 0.65},
					{Method: "Method 2", Likelihood: 0.15, PSchedule: 0.7, PComplete: 0.75, Mu: 1.2, Sigma: 0.55, Mu2: 1.4, Sigma2: 0.7},
					{Method: "Method 3", Likelihood: 0.2, PSchedule: 0.78, PComplete: 0.82, Mu: 1.0, Sigma: 0.5, Mu2: 1.2, Sigma2: 0.6},
					{Method: "Method 4", Likelihood: 0.2, PSchedule: 0.6, PComplete: 0.68, Mu: 1.3, Sigma: 0.6, Mu2: 1.45, Sigma2: 0.75},
					{Method: "Method 5", Likelihood: 0.2, PSchedule: 0.72, PComplete: 0.76, Mu: 1.15, Sigma: 0.55, Mu2: 1.35, Sigma2: 0.7},
				},
				VisitCategories: visitCategories(0.15, 0.25, 0.2, 0.15, 0.15, 0.1),
			},
			"Population 3": {
				Methods: []model.MethodProfile{
					{Method: "Method 1", Likelihood: 0.2, PSchedule: 0.7, PComplete: 0.75, Mu: 1.2, Sigma: 0.6, Mu2: 1.35, Sigma2: 0.7},
					{Method: "Method 2", Likelihood: 0.2, PSchedule: 0.68, PComplete: 0.72, Mu: 1.25, Sigma: 0.6, Mu2: 1.4, Sigma2: 0.75},
					{Method: "Method 3", Likelihood: 0.2, PSchedule: 0.8, PComplete: 0.84, Mu: 1.05, Sigma: 0.5, Mu2: 1.2, Sigma2: 0.6},
					{Method: "Method 4", Likelihood: 0.2, PSchedule: 0.58, PComplete: 0.65, Mu: 1.35, Sigma: 0.65, Mu2: 1.5, Sigma2: 0.8},
					{Method: "Method 5", Likelihood: 0.2, PSchedule: 0.74, PComplete: 0.78, Mu: 1.15, Sigma: 0.55, Mu2: 1.3, Sigma2: 0.65},
				},
				VisitCategories: visitCategories(0.25, 0.15, 0.25, 0.1, 0.15, 0.1),
			},
			"Population 4": {
				Methods: []model.MethodProfile{
					{Method: "Method 1", Likelihood: 0.15, PSchedule: 0.65, PComplete: 0.7, Mu: 1.3, Sigma: 0.65, Mu2: 1.45, Sigma2: 0.8},
					{Method: "Method 2", Likelihood: 0.25, PSchedule: 0.7, PComplete: 0.74, Mu: 1.25, Sigma: 0.6, Mu2: 1.4, Sigma2: 0.75},
					{Method: "Method 3", Likelihood: 0.2, PSchedule: 0.78, PComplete: 0.82, Mu: 1.1, Sigma: 0.55, Mu2: 1.25, Sigma2: 0.65},
					{Method: "Method 4", Likelihood: 0.2, PSchedule: 0.55, PComplete: 0.62, Mu: 1.4, Sigma: 0.7, Mu2: 1.55, Sigma2: 0.85},
					{Method: "Method 5", Likelihood: 0.2, PSchedule: 0.72, PComplete: 0.75, Mu: 1.2, Sigma: 0.6, Mu2: 1.35, Sigma2: 0.75},
				},
				VisitCategories: visitCategories(0.1, 0.2, 0.2, 0.2, 0.2, 0.1),
			},
		},
	}
}

func visitCategories(probs ...float64) []model.VisitCategoryProfile {
	out := make([]model.VisitCategoryProfile, len(probs))
	for i, p := range probs {
		out[i] = model.VisitCategoryProfile{Category: fmt.Sprintf("VisitCat %d", i+1), Prob: p}
	}
	return out
}
