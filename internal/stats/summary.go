package stats

import (
	"errors"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

// ErrEmptyTable is returned when summarizing a table without records.
var ErrEmptyTable = errors.New("result table is empty")

// Summarize computes the overall completion rate and means, and the same
// figures per population. Population rows follow first appearance in the
// table.
func Summarize(table model.ResultTable) (model.Summary, error) {
	if table.Len() == 0 {
		return model.Summary{}, ErrEmptyTable
	}

	type acc struct {
		completed   int
		touchpoints int
		totalTime   float64
		n           int
	}
	var order []string
	groups := map[string]*acc{}
	var overall acc
	for _, r := range table.Records {
		g, ok := groups[r.Population]
		if !ok {
			g = &acc{}
			groups[r.Population] = g
			order = append(order, r.Population)
		}
		for _, a := range []*acc{g, &overall} {
			a.n++
			a.touchpoints += r.TotalTouchpoints
			a.totalTime += r.TotalTime
			if r.Completed {
				a.completed++
			}
		}
	}

	n := float64(overall.n)
	summary := model.Summary{
		CompletedRate:  float64(overall.completed) / n,
		AvgTouchpoints: float64(overall.touchpoints) / n,
		AvgTotalTime:   overall.totalTime / n,
		ByPopulation:   make([]model.PopulationSummary, 0, len(order)),
	}
	for _, name := range order {
		g := groups[name]
		gn := float64(g.n)
		summary.ByPopulation = append(summary.ByPopulation, model.PopulationSummary{
			Population:     name,
			CompletionRate: float64(g.completed) / gn,
			AvgTouchpoints: float64(g.touchpoints) / gn,
			AvgTotalTime:   g.totalTime / gn,
			N:              g.n,
		})
	}
	return summary, nil
}

// Patients returns the number of patients covered by a summary.
func Patients(summary model.Summary) int {
	total := 0
	for _, p := range summary.ByPopulation {
		total += p.N
	}
	return total
}
