package stats

import (
	"sort"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

// MethodStat aggregates every attempt made through one outreach method.
type MethodStat struct {
	Method      string
	Attempts    int
	Scheduled   int
	Completed   int
	Touchpoints int
}

// ScheduleRate is the share of attempts that were scheduled.
func (m MethodStat) ScheduleRate() float64 {
	if m.Attempts == 0 {
		return 0
	}
	return float64(m.Scheduled) / float64(m.Attempts)
}

// CompletionRate is the share of scheduled attempts that were completed.
func (m MethodStat) CompletionRate() float64 {
	if m.Scheduled == 0 {
		return 0
	}
	return float64(m.Completed) / float64(m.Scheduled)
}

// MethodBreakdown returns per-method attempt counts, most used first.
func MethodBreakdown(table model.ResultTable) []MethodStat {
	byMethod := map[string]*MethodStat{}
	for _, r := range table.Records {
		for _, a := range r.Attempts {
			m, ok := byMethod[a.Method]
			if !ok {
				m = &MethodStat{Method: a.Method}
				byMethod[a.Method] = m
			}
			m.Attempts++
			m.Touchpoints += a.Touchpoints
			if a.Scheduled {
				m.Scheduled++
			}
			if a.Completion == model.CompletionYes {
				m.Completed++
			}
		}
	}
	out := make([]MethodStat, 0, len(byMethod))
	for _, m := range byMethod {
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Attempts == out[j].Attempts {
			return out[i].Method < out[j].Method
		}
		return out[i].Attempts > out[j].Attempts
	})
	return out
}
