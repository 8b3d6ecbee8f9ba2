package export

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MarshalSummary renders a summary as indented JSON using the archive's
// field names.
func MarshalSummary(summary model.Summary) ([]byte, error) {
	return json.MarshalIndent(summary, "", "  ")
}

// RunDocument is the JSON shape printed for a completed or archived run.
type RunDocument struct {
	RunID   int64            `json:"run_id,omitempty"`
	RunKey  string           `json:"run_key,omitempty"`
	Summary model.Summary    `json:"summary"`
	Preview []map[string]any `json:"preview"`
	Config  *model.Config    `json:"config,omitempty"`
}

// PreviewRows returns the first n records in the wide column layout, with
// absent values as nulls.
func PreviewRows(table model.ResultTable, n int) []map[string]any {
	head := table.Head(n)
	maxAttempts := head.MaxAttempts()
	header := Header(maxAttempts)
	rows := make([]map[string]any, 0, head.Len())
	for _, r := range head.Records {
		row := make(map[string]any, len(header))
		row[header[0]] = r.PatientID
		row[header[1]] = r.Population
		row[header[2]] = r.Week
		row[header[3]] = r.NumAttempts
		row[header[4]] = r.TotalTime
		row[header[5]] = r.TotalAllocatedMinutes
		row[header[6]] = r.TotalTouchpoints
		row[header[7]] = r.CompletedFlag()
		for k, a := range r.Attempts {
			suffix := attemptSuffix(k + 1)
			row["Scheduling Method"+suffix] = a.Method
			row["Visit Category"+suffix] = a.VisitCategory
			row["Touchpoints"+suffix] = a.Touchpoints
			row["Success (Y/N)"+suffix] = yesNo(a.Scheduled)
			row["Time to Schedule (Days)"+suffix] = optValue(a.TimeToSchedule)
			row["Allocated Appt. Time (min)"+suffix] = optValue(a.AllocatedMinutes)
			row["Completion (Y/N)"+suffix] = completionValue(a.Completion)
			row["Time to Completion"+suffix] = optValue(a.TimeToCompletion)
		}
		rows = append(rows, row)
	}
	return rows
}

// MarshalRun renders a run document as indented JSON.
func MarshalRun(doc RunDocument) ([]byte, error) {
	return json.MarshalIndent(doc, "", "  ")
}

func optValue(v model.OptFloat) any {
	if !v.Valid {
		return nil
	}
	return v.Value
}

func completionValue(c model.Completion) any {
	if c == model.CompletionNotApplicable {
		return nil
	}
	return c.String()
}
