package sim

import "github.com/sparshmallow/appointmentscheduling/internal/model"

// BuildRecord folds a patient's attempts into one result row.
func BuildRecord(p model.Patient) model.PatientRecord {
	record := model.PatientRecord{
		PatientID:   p.Index + 1,
		Population:  p.Population,
		Week:        p.ArrivalWeek,
		NumAttempts: len(p.Attempts),
		Attempts:    p.Attempts,
	}
	for _, a := range p.Attempts {
		record.TotalTime += model.SumPresent(a.TimeToSchedule, a.TimeToCompletion)
		record.TotalAllocatedMinutes += model.SumPresent(a.AllocatedMinutes)
		record.TotalTouchpoints += a.Touchpoints
		if a.Completion == model.CompletionYes {
			record.Completed = true
		}
	}
	return record
}
