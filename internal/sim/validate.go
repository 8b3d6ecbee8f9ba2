// Package sim runs the appointment scheduling Monte Carlo simulation.
package sim

import (
	"fmt"
	"math"
	"sort"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

// MinLambdaPerWeek is the smallest accepted arrival rate. Below it the
// cumulative arrival time of a large run no longer fits a week number.
const MinLambdaPerWeek = 1e-6

// ValidationError reports a configuration that cannot be simulated.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// Validate checks cfg before any random draw happens.
func Validate(cfg model.Config) error {
	if cfg.NPatients <= 0 {
		return invalid("n_patients must be > 0.")
	}
	if cfg.Seed <= 0 {
		return invalid("seed must be > 0.")
	}
	if cfg.MaxAttempts <= 0 {
		return invalid("max_attempts must be > 0.")
	}
	if !(cfg.LambdaPerWeek > 0) || math.IsInf(cfg.LambdaPerWeek, 0) {
		return invalid("lambda_per_week must be > 0.")
	}
	if cfg.LambdaPerWeek < MinLambdaPerWeek {
		return invalid("lambda_per_week must be >= %g.", MinLambdaPerWeek)
	}

	totalWeight := 0.0
	for _, pop := range cfg.Populations {
		if pop.Weight < 0 || math.IsNaN(pop.Weight) {
			return invalid("Population weights must be nonnegative.")
		}
		if math.IsInf(pop.Weight, 0) {
			return invalid("Population weights must be finite.")
		}
		totalWeight += pop.Weight
	}
	if !(totalWeight > 0) {
		return invalid("Population weights must sum to > 0.")
	}

	for _, name := range paramOrder(cfg) {
		params := cfg.PopulationParams[name]
		methodSum := 0.0
		for _, m := range params.Methods {
			methodSum += m.Likelihood
		}
		visitSum := 0.0
		for _, v := range params.VisitCategories {
			visitSum += v.Prob
		}
		if !(methodSum > 0) {
			return invalid("%s: method likelihoods must sum > 0.", name)
		}
		if !(visitSum > 0) {
			return invalid("%s: visit category probs must sum > 0.", name)
		}
	}

	for _, pop := range cfg.Populations {
		if pop.Weight == 0 {
			continue
		}
		if _, ok := cfg.PopulationParams[pop.Name]; !ok {
			return invalid("%s: no population parameters configured.", pop.Name)
		}
	}
	for _, name := range paramOrder(cfg) {
		if err := validateProfiles(cfg, name, cfg.PopulationParams[name]); err != nil {
			return err
		}
	}
	return nil
}

func validateProfiles(cfg model.Config, name string, params model.PopulationParams) error {
	for _, m := range params.Methods {
		if m.Likelihood < 0 || !finite(m.Likelihood) {
			return invalid("%s: %s likelihood must be >= 0.", name, m.Method)
		}
		if !inUnit(m.PSchedule) {
			return invalid("%s: %s p_schedule must be in [0, 1].", name, m.Method)
		}
		if !inUnit(m.PComplete) {
			return invalid("%s: %s p_complete must be in [0, 1].", name, m.Method)
		}
		if m.Sigma < 0 || m.Sigma2 < 0 || !finite(m.Sigma) || !finite(m.Sigma2) {
			return invalid("%s: %s sigma and sigma2 must be >= 0.", name, m.Method)
		}
		if !finite(m.Mu) || !finite(m.Mu2) {
			return invalid("%s: %s mu and mu2 must be numbers.", name, m.Method)
		}
		if m.Likelihood > 0 && !finite(cfg.TouchpointsByMethod[m.Method]) {
			return invalid("average touchpoints for %s must be a number.", m.Method)
		}
	}
	for _, v := range params.VisitCategories {
		if v.Prob < 0 || !finite(v.Prob) {
			return invalid("%s: %s prob must be >= 0.", name, v.Category)
		}
		if v.Prob == 0 {
			continue
		}
		minutes, ok := cfg.AllocatedMinutesByCategory[v.Category]
		if !ok {
			return invalid("%s: no allocated minutes configured for %s.", name, v.Category)
		}
		if !finite(minutes) {
			return invalid("allocated minutes for %s must be a number.", v.Category)
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func inUnit(p float64) bool {
	return p >= 0 && p <= 1
}

// paramOrder lists population parameter names with configured populations
// first, in population order, followed by any remaining names sorted.
func paramOrder(cfg model.Config) []string {
	seen := make(map[string]struct{}, len(cfg.PopulationParams))
	names := make([]string, 0, len(cfg.PopulationParams))
	for _, pop := range cfg.Populations {
		if _, ok := cfg.PopulationParams[pop.Name]; !ok {
			continue
		}
		if _, dup := seen[pop.Name]; dup {
			continue
		}
		seen[pop.Name] = struct{}{}
		names = append(names, pop.Name)
	}
	var rest []string
	for name := range cfg.PopulationParams {
		if _, ok := seen[name]; !ok {
			rest = append(rest, name)
		}
	}
	sort.Strings(rest)
	return append(names, rest...)
}
