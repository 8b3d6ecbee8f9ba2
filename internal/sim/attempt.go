package sim

import (
	"github.com/sparshmallow/appointmentscheduling/internal/model"
	"github.com/sparshmallow/appointmentscheduling/internal/sampler"
)

// attemptsHint caps the up-front allocation; most patients finish early.
const attemptsHint = 8

// SimulatePatient runs the bounded attempt loop for one patient. It stops
// after the first scheduled and completed attempt or after maxAttempts.
func SimulatePatient(s *sampler.Sampler, profile *Profile, lookups Lookups, maxAttempts int) []model.Attempt {
	attempts := make([]model.Attempt, 0, min(maxAttempts, attemptsHint))
	for n := 1; n <= maxAttempts; n++ {
		attempt := simulateAttempt(s, profile, lookups, n)
		attempts = append(attempts, attempt)
		if attempt.Succeeded() {
			break
		}
	}
	return attempts
}

func simulateAttempt(s *sampler.Sampler, profile *Profile, lookups Lookups, number int) model.Attempt {
	method := profile.Methods[profile.methodDist.Sample(s)]
	visit := profile.Visits[profile.visitDist.Sample(s)]

	attempt := model.Attempt{
		Number:        number,
		Method:        method.Method,
		VisitCategory: visit.Category,
		Touchpoints:   drawTouchpoints(s, lookups.TouchpointsByMethod[method.Method]),
		Completion:    model.CompletionNotApplicable,
	}

	attempt.Scheduled = s.Bernoulli(method.PSchedule)
	if !attempt.Scheduled {
		return attempt
	}

	attempt.TimeToSchedule = model.Some(s.LogNormal(method.Mu, method.Sigma))
	attempt.AllocatedMinutes = model.Some(lookups.AllocatedMinutesByCategory[visit.Category])
	if !s.Bernoulli(method.PComplete) {
		attempt.Completion = model.CompletionNo
		return attempt
	}
	attempt.Completion = model.CompletionYes
	attempt.TimeToCompletion = model.Some(s.LogNormal(method.Mu2, method.Sigma2))
	return attempt
}

// drawTouchpoints returns 0 for a nonpositive mean, otherwise one guaranteed
// first contact plus a Poisson draw for the rest.
func drawTouchpoints(s *sampler.Sampler, mean float64) int {
	if !(mean > 0) {
		return 0
	}
	rest := mean - 1
	if rest < 0 {
		rest = 0
	}
	return 1 + s.Poisson(rest)
}
