// Package model defines shared data structures.
package model

import (
	"time"
)

// Config describes one simulation run: global settings, the population mix,
// per-population method and visit-category profiles, and the global lookups.
type Config struct {
	NPatients     int     `json:"n_patients"`
	Seed          int64   `json:"seed"`
	MaxAttempts   int     `json:"max_attempts"`
	LambdaPerWeek float64 `json:"lambda_per_week"`

	// Populations is ordered; the order fixes the categorical draw layout.
	Populations []PopulationWeight `json:"populations"`

	TouchpointsByMethod        map[string]float64          `json:"avg_touchpoints_by_method"`
	AllocatedMinutesByCategory map[string]float64          `json:"allocated_minutes_by_visit_category"`
	PopulationParams           map[string]PopulationParams `json:"population_params"`
}

// PopulationWeight is the relative share of patients drawn into a population.
type PopulationWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}

// PopulationParams holds the method and visit-category distributions of one population.
type PopulationParams struct {
	Methods         []MethodProfile        `json:"methods"`
	VisitCategories []VisitCategoryProfile `json:"visit_categories"`
}

// MethodProfile describes one scheduling method within a population.
// Mu/Sigma and Mu2/Sigma2 are log-space parameters of the lognormal
// time-to-schedule and time-to-completion distributions.
type MethodProfile struct {
	Method     string  `json:"method"`
	Likelihood float64 `json:"likelihood"`
	PSchedule  float64 `json:"p_schedule"`
	PComplete  float64 `json:"p_complete"`
	Mu         float64 `json:"mu"`
	Sigma      float64 `json:"sigma"`
	Mu2        float64 `json:"mu2"`
	Sigma2     float64 `json:"sigma2"`
}

// VisitCategoryProfile is the selection probability of one visit category.
type VisitCategoryProfile struct {
	Category string  `json:"category"`
	Prob     float64 `json:"prob"`
}

// Clone returns a deep copy of the configuration.
func (c Config) Clone() Config {
	out := c
	out.Populations = append([]PopulationWeight(nil), c.Populations...)
	out.TouchpointsByMethod = cloneFloatMap(c.TouchpointsByMethod)
	out.AllocatedMinutesByCategory = cloneFloatMap(c.AllocatedMinutesByCategory)
	if c.PopulationParams != nil {
		out.PopulationParams = make(map[string]PopulationParams, len(c.PopulationParams))
		for name, params := range c.PopulationParams {
			out.PopulationParams[name] = PopulationParams{
				Methods:         append([]MethodProfile(nil), params.Methods...),
				VisitCategories: append([]VisitCategoryProfile(nil), params.VisitCategories...),
			}
		}
	}
	return out
}

func cloneFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Completion is the tri-state completion outcome of an attempt.
type Completion int

const (
	// CompletionNotApplicable marks an attempt that was never scheduled.
	CompletionNotApplicable Completion = iota
	CompletionNo
	CompletionYes
)

// String renders the completion as it appears in the wide table.
func (c Completion) String() string {
	switch c {
	case CompletionYes:
		return "Y"
	case CompletionNo:
		return "N"
	default:
		return ""
	}
}

// Attempt is one try at scheduling and completing an appointment.
type Attempt struct {
	Number           int
	Method           string
	VisitCategory    string
	Touchpoints      int
	Scheduled        bool
	Completion       Completion
	TimeToSchedule   OptFloat
	AllocatedMinutes OptFloat
	TimeToCompletion OptFloat
}

// Succeeded reports whether the attempt was scheduled and completed.
func (a Attempt) Succeeded() bool {
	return a.Scheduled && a.Completion == CompletionYes
}

// Patient is one simulated patient and its attempt sequence.
type Patient struct {
	Index       int
	Population  string
	ArrivalWeek int
	Attempts    []Attempt
}

// PatientRecord is the flattened per-patient row of the result table.
// Attempts stay normalized here; the wide layout is produced on export.
type PatientRecord struct {
	PatientID             int
	Population            string
	Week                  int
	NumAttempts           int
	TotalTime             float64
	TotalAllocatedMinutes float64
	TotalTouchpoints      int
	Completed             bool
	Attempts              []Attempt
}

// CompletedFlag renders the overall completion flag.
func (r PatientRecord) CompletedFlag() string {
	if r.Completed {
		return "Y"
	}
	return "N"
}

// ResultTable is the ordered collection of patient records of one run.
type ResultTable struct {
	Records []PatientRecord
}

// Len returns the number of records.
func (t ResultTable) Len() int {
	return len(t.Records)
}

// MaxAttempts returns the largest attempt count across all records.
func (t ResultTable) MaxAttempts() int {
	maxAttempts := 0
	for _, r := range t.Records {
		if r.NumAttempts > maxAttempts {
			maxAttempts = r.NumAttempts
		}
	}
	return maxAttempts
}

// Head returns a table holding at most the first n records.
func (t ResultTable) Head(n int) ResultTable {
	if n < 0 || n >= len(t.Records) {
		return t
	}
	return ResultTable{Records: t.Records[:n]}
}

// Summary is the overall and per-population report of a result table.
type Summary struct {
	CompletedRate  float64             `json:"completed_rate"`
	AvgTouchpoints float64             `json:"avg_touchpoints"`
	AvgTotalTime   float64             `json:"avg_total_time"`
	ByPopulation   []PopulationSummary `json:"by_population"`
}

// PopulationSummary is one per-population row of the summary.
type PopulationSummary struct {
	Population     string  `json:"population"`
	CompletionRate float64 `json:"completion_rate"`
	AvgTouchpoints float64 `json:"avg_touchpoints"`
	AvgTotalTime   float64 `json:"avg_total_time"`
	N              int     `json:"n"`
}

// RunInfo is the archive listing entry for a saved run.
type RunInfo struct {
	ID        int64
	Key       string
	CreatedAt time.Time
	Summary   Summary
}

// Run is a fully loaded archived run.
type Run struct {
	RunInfo
	Config  Config
	CSVText string
}
