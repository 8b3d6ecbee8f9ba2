package sim

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sparshmallow/appointmentscheduling/internal/config"
	"github.com/sparshmallow/appointmentscheduling/internal/model"
	"github.com/sparshmallow/appointmentscheduling/internal/sampler"
)

func singlePopulationConfig(pSchedule, pComplete, touchpoints float64) model.Config {
	return model.Config{
		NPatients:     1,
		Seed:          7,
		MaxAttempts:   1,
		LambdaPerWeek: 40,
		Populations:   []model.PopulationWeight{{Name: "Only", Weight: 1}},
		TouchpointsByMethod: map[string]float64{
			"Call": touchpoints,
		},
		AllocatedMinutesByCategory: map[string]float64{"Short": 20},
		PopulationParams: map[string]model.PopulationParams{
			"Only": {
				Methods: []model.MethodProfile{
					{Method: "Call", Likelihood: 1, PSchedule: pSchedule, PComplete: pComplete, Mu: 1, Sigma: 0.5, Mu2: 1, Sigma2: 0.5},
				},
				VisitCategories: []model.VisitCategoryProfile{{Category: "Short", Prob: 1}},
			},
		},
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.Config)
		reason string
	}{
		{"n_patients", func(c *model.Config) { c.NPatients = 0 }, "n_patients must be > 0."},
		{"seed", func(c *model.Config) { c.Seed = 0 }, "seed must be > 0."},
		{"max_attempts", func(c *model.Config) { c.MaxAttempts = 0 }, "max_attempts must be > 0."},
		{"lambda", func(c *model.Config) { c.LambdaPerWeek = 0 }, "lambda_per_week must be > 0."},
		{"negative weight", func(c *model.Config) { c.Populations[0].Weight = -1 }, "Population weights must be nonnegative."},
		{"zero weights", func(c *model.Config) {
			for i := range c.Populations {
				c.Populations[i].Weight = 0
			}
		}, "Population weights must sum to > 0."},
		{"method likelihoods", func(c *model.Config) {
			params := c.PopulationParams["Population 1"]
			for i := range params.Methods {
				params.Methods[i].Likelihood = 0
			}
		}, "Population 1: method likelihoods must sum > 0."},
		{"visit probs", func(c *model.Config) {
			params := c.PopulationParams["Population 2"]
			for i := range params.VisitCategories {
				params.VisitCategories[i].Prob = 0
			}
		}, "Population 2: visit category probs must sum > 0."},
		{"missing params", func(c *model.Config) { delete(c.PopulationParams, "Population 3") }, "Population 3: no population parameters configured."},
		{"p_schedule range", func(c *model.Config) { c.PopulationParams["Population 1"].Methods[0].PSchedule = 1.5 }, "Population 1: Method 1 p_schedule must be in [0, 1]."},
		{"missing minutes", func(c *model.Config) { delete(c.AllocatedMinutesByCategory, "VisitCat 6") }, "Population 1: no allocated minutes configured for VisitCat 6."},
		{"tiny lambda", func(c *model.Config) { c.LambdaPerWeek = 1e-20 }, "lambda_per_week must be >= 1e-06."},
		{"infinite weight", func(c *model.Config) { c.Populations[1].Weight = math.Inf(1) }, "Population weights must be finite."},
		{"infinite minutes", func(c *model.Config) { c.AllocatedMinutesByCategory["VisitCat 6"] = math.Inf(1) }, "allocated minutes for VisitCat 6 must be a number."},
		{"infinite mu", func(c *model.Config) { c.PopulationParams["Population 1"].Methods[0].Mu = math.Inf(-1) }, "Population 1: Method 1 mu and mu2 must be numbers."},
		{"infinite touchpoints", func(c *model.Config) { c.TouchpointsByMethod["Method 1"] = math.Inf(1) }, "average touchpoints for Method 1 must be a number."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tc.mutate(&cfg)
			err := Validate(cfg)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.reason, verr.Reason)

			_, err = Run(cfg)
			require.Error(t, err)
		})
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	require.NoError(t, Validate(config.DefaultConfig()))
}

func TestZeroWeightPopulationNeedsNoParams(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Populations[3].Weight = 0
	delete(cfg.PopulationParams, "Population 4")
	require.NoError(t, Validate(cfg))

	table, err := Run(cfg)
	require.NoError(t, err)
	for _, r := range table.Records {
		assert.NotEqual(t, "Population 4", r.Population)
	}
}

func TestArrivalWeeksMonotonic(t *testing.T) {
	weeks := ArrivalWeeks(sampler.New(3), 500, 40)
	require.Len(t, weeks, 500)
	for i, w := range weeks {
		assert.GreaterOrEqual(t, w, 1)
		if i > 0 {
			assert.GreaterOrEqual(t, w, weeks[i-1])
		}
	}
	// 500 arrivals at 40 per week land in roughly 12 to 13 weeks.
	assert.InDelta(t, 13, weeks[len(weeks)-1], 3)
}

func TestArrivalWeeksSaturate(t *testing.T) {
	weeks := ArrivalWeeks(sampler.New(7), 5, 1e-20)
	for _, w := range weeks {
		assert.Equal(t, math.MaxInt, w)
	}

	assert.Equal(t, 1, weekOf(0.3))
	assert.Equal(t, 2, weekOf(2))
	assert.Equal(t, 3, weekOf(2.1))
	assert.Equal(t, math.MaxInt, weekOf(1e30))
}

func TestProfileNormalizesProbabilities(t *testing.T) {
	profile, err := NewProfile("P", model.PopulationParams{
		Methods: []model.MethodProfile{
			{Method: "A", Likelihood: 2},
			{Method: "B", Likelihood: 6},
		},
		VisitCategories: []model.VisitCategoryProfile{
			{Category: "X", Prob: 1},
			{Category: "Y", Prob: 1},
		},
	})
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.25, 0.75}, profile.MethodProbabilities(), 1e-12)
	assert.InDeltaSlice(t, []float64{0.5, 0.5}, profile.VisitProbabilities(), 1e-12)
}

func TestConcreteSingleAttemptScenario(t *testing.T) {
	table, err := Run(singlePopulationConfig(1, 1, 3))
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())

	r := table.Records[0]
	assert.Equal(t, 1, r.PatientID)
	assert.Equal(t, "Only", r.Population)
	assert.Equal(t, 1, r.NumAttempts)
	assert.True(t, r.Completed)
	assert.Equal(t, "Y", r.CompletedFlag())
	assert.GreaterOrEqual(t, r.TotalTouchpoints, 1)
	assert.Equal(t, 20.0, r.TotalAllocatedMinutes)
	assert.GreaterOrEqual(t, r.Week, 1)
	assert.Greater(t, r.TotalTime, 0.0)

	a := r.Attempts[0]
	assert.True(t, a.Scheduled)
	assert.Equal(t, model.CompletionYes, a.Completion)
	assert.True(t, a.TimeToSchedule.Valid)
	assert.True(t, a.TimeToCompletion.Valid)
}

func TestSingleAttemptFollowsDrawOrder(t *testing.T) {
	table, err := Run(singlePopulationConfig(1, 1, 3))
	require.NoError(t, err)
	r := table.Records[0]
	a := r.Attempts[0]

	s := sampler.New(7)
	arrival := s.Exponential(40)
	s.Float64() // population
	s.Float64() // method
	s.Float64() // visit category
	touchpoints := 1 + s.Poisson(2)
	require.True(t, s.Bernoulli(1))
	toSchedule := s.LogNormal(1, 0.5)
	require.True(t, s.Bernoulli(1))
	toComplete := s.LogNormal(1, 0.5)

	assert.Equal(t, int(math.Ceil(arrival)), r.Week)
	assert.Equal(t, touchpoints, a.Touchpoints)
	assert.Equal(t, toSchedule, a.TimeToSchedule.Value)
	assert.Equal(t, toComplete, a.TimeToCompletion.Value)
	assert.Equal(t, toSchedule+toComplete, r.TotalTime)
}

func TestHugeMaxAttemptsStopsAtFirstSuccess(t *testing.T) {
	cfg := singlePopulationConfig(1, 1, 3)
	cfg.MaxAttempts = math.MaxInt
	table, err := Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, table.Records[0].NumAttempts)
}

func TestNeverScheduledUsesAllAttempts(t *testing.T) {
	cfg := singlePopulationConfig(0, 1, 2)
	cfg.NPatients = 20
	cfg.MaxAttempts = 4
	table, err := Run(cfg)
	require.NoError(t, err)
	for _, r := range table.Records {
		assert.Equal(t, 4, r.NumAttempts)
		assert.False(t, r.Completed)
		assert.Equal(t, 0.0, r.TotalTime)
		assert.Equal(t, 0.0, r.TotalAllocatedMinutes)
		for _, a := range r.Attempts {
			assert.False(t, a.Scheduled)
			assert.Equal(t, model.CompletionNotApplicable, a.Completion)
			assert.False(t, a.TimeToSchedule.Valid)
			assert.False(t, a.AllocatedMinutes.Valid)
			assert.False(t, a.TimeToCompletion.Valid)
		}
	}
}

func TestScheduledButNeverCompleted(t *testing.T) {
	cfg := singlePopulationConfig(1, 0, 2)
	cfg.NPatients = 10
	cfg.MaxAttempts = 3
	table, err := Run(cfg)
	require.NoError(t, err)
	for _, r := range table.Records {
		assert.Equal(t, 3, r.NumAttempts)
		assert.False(t, r.Completed)
		assert.Equal(t, 60.0, r.TotalAllocatedMinutes)
		for _, a := range r.Attempts {
			assert.Equal(t, model.CompletionNo, a.Completion)
			assert.True(t, a.TimeToSchedule.Valid)
			assert.False(t, a.TimeToCompletion.Valid)
		}
	}
}

func TestTouchpointsZeroAndPositiveMeans(t *testing.T) {
	s := sampler.New(11)
	for i := 0; i < 200; i++ {
		assert.Equal(t, 0, drawTouchpoints(s, 0))
		assert.Equal(t, 0, drawTouchpoints(s, -2))
		assert.Equal(t, 1, drawTouchpoints(s, 0.5))
		assert.GreaterOrEqual(t, drawTouchpoints(s, 3), 1)
	}
}

func TestDefaultRunInvariants(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NPatients = 400
	table, err := Run(cfg)
	require.NoError(t, err)
	require.Equal(t, 400, table.Len())

	methods := map[string]bool{}
	for name := range cfg.TouchpointsByMethod {
		methods[name] = true
	}
	for i, r := range table.Records {
		assert.Equal(t, i+1, r.PatientID)
		require.GreaterOrEqual(t, r.NumAttempts, 1)
		require.LessOrEqual(t, r.NumAttempts, cfg.MaxAttempts)
		assert.Len(t, r.Attempts, r.NumAttempts)

		var touch int
		var minutes, total float64
		for j, a := range r.Attempts {
			assert.Equal(t, j+1, a.Number)
			assert.True(t, methods[a.Method], "unexpected method %s", a.Method)
			if j < len(r.Attempts)-1 {
				assert.False(t, a.Succeeded(), "only the last attempt may succeed")
			}
			touch += a.Touchpoints
			minutes += model.SumPresent(a.AllocatedMinutes)
			total += model.SumPresent(a.TimeToSchedule, a.TimeToCompletion)
		}
		assert.Equal(t, touch, r.TotalTouchpoints)
		assert.InDelta(t, minutes, r.TotalAllocatedMinutes, 1e-9)
		assert.InDelta(t, total, r.TotalTime, 1e-9)
		if r.NumAttempts < cfg.MaxAttempts {
			assert.True(t, r.Completed)
		}
		assert.Equal(t, r.Attempts[len(r.Attempts)-1].Succeeded(), r.Completed)
	}
}

func TestRunDeterministic(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.NPatients = 150
	a, err := Run(cfg)
	require.NoError(t, err)
	b, err := Run(cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	s := sampler.New(cfg.Seed)
	weeks := ArrivalWeeks(s, cfg.NPatients, cfg.LambdaPerWeek)
	pops, err := AssignPopulations(s, cfg.NPatients, cfg.Populations)
	require.NoError(t, err)
	profiles, err := compileProfiles(cfg)
	require.NoError(t, err)
	lookups := Lookups{
		TouchpointsByMethod:        cfg.TouchpointsByMethod,
		AllocatedMinutesByCategory: cfg.AllocatedMinutesByCategory,
	}
	for i, r := range a.Records {
		assert.Equal(t, weeks[i], r.Week)
		assert.Equal(t, pops[i], r.Population)
		assert.Equal(t, SimulatePatient(s, profiles[pops[i]], lookups, cfg.MaxAttempts), r.Attempts)
	}

	cfg.Seed = 8
	c, err := Run(cfg)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestBuildRecordTotals(t *testing.T) {
	record := BuildRecord(model.Patient{
		Index:       4,
		Population:  "P",
		ArrivalWeek: 2,
		Attempts: []model.Attempt{
			{Number: 1, Touchpoints: 2, Scheduled: true, Completion: model.CompletionNo, TimeToSchedule: model.Some(1.5), AllocatedMinutes: model.Some(30)},
			{Number: 2, Touchpoints: 1, Scheduled: true, Completion: model.CompletionYes, TimeToSchedule: model.Some(2), AllocatedMinutes: model.Some(15), TimeToCompletion: model.Some(4)},
		},
	})
	assert.Equal(t, 5, record.PatientID)
	assert.Equal(t, 2, record.NumAttempts)
	assert.Equal(t, 3, record.TotalTouchpoints)
	assert.InDelta(t, 7.5, record.TotalTime, 1e-12)
	assert.InDelta(t, 45.0, record.TotalAllocatedMinutes, 1e-12)
	assert.True(t, record.Completed)
}
