// Package stats summarizes result tables and renders them as text.
package stats

import (
	"fmt"
	"io"
	"strconv"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

// RenderSummary prints the overall figures of a run.
func RenderSummary(w io.Writer, summary model.Summary) error {
	if _, err := fmt.Fprintln(w, "Summary"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Patients: %d\n", Patients(summary)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Completion rate: %.2f%%\n", summary.CompletedRate*100); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg touchpoints: %.2f\n", summary.AvgTouchpoints); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Avg total time (days): %.2f\n", summary.AvgTotalTime); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return nil
}

// PopulationRows formats the per-population summary as table cells.
func PopulationRows(summary model.Summary) ([]string, [][]string) {
	headers := []string{"Population", "Completion", "Avg Touchpoints", "Avg Total Time", "N"}
	rows := make([][]string, 0, len(summary.ByPopulation))
	for _, p := range summary.ByPopulation {
		rows = append(rows, []string{
			p.Population,
			fmt.Sprintf("%.2f%%", p.CompletionRate*100),
			fmt.Sprintf("%.2f", p.AvgTouchpoints),
			fmt.Sprintf("%.2f", p.AvgTotalTime),
			strconv.Itoa(p.N),
		})
	}
	return headers, rows
}

// RenderPopulationTable prints the per-population summary.
func RenderPopulationTable(w io.Writer, summary model.Summary) error {
	if _, err := fmt.Fprintln(w, "By Population"); err != nil {
		return err
	}
	headers, rows := PopulationRows(summary)
	return writeTable(w, headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}

// PreviewRows formats the first n records as compact table cells.
func PreviewRows(table model.ResultTable, n int) ([]string, [][]string) {
	headers := []string{"Patient #", "Population", "Week", "Attempts", "Tot. Time", "Tot. Allocated", "Touchpoints", "Completed", "Last Method"}
	head := table.Head(n)
	rows := make([][]string, 0, head.Len())
	for _, r := range head.Records {
		last := ""
		if len(r.Attempts) > 0 {
			last = r.Attempts[len(r.Attempts)-1].Method
		}
		rows = append(rows, []string{
			strconv.Itoa(r.PatientID),
			r.Population,
			strconv.Itoa(r.Week),
			strconv.Itoa(r.NumAttempts),
			fmt.Sprintf("%.2f", r.TotalTime),
			fmt.Sprintf("%.0f", r.TotalAllocatedMinutes),
			strconv.Itoa(r.TotalTouchpoints),
			r.CompletedFlag(),
			last,
		})
	}
	return headers, rows
}

// RenderPreview prints the first n records.
func RenderPreview(w io.Writer, table model.ResultTable, n int) error {
	if table.Len() == 0 {
		_, err := fmt.Fprintln(w, "No patients found.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Preview (first %d of %d)\n", min(n, table.Len()), table.Len()); err != nil {
		return err
	}
	headers, rows := PreviewRows(table, n)
	return writeTable(w, headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true, 5: true, 6: true})
}

// RenderMethodTable prints per-method attempt outcomes.
func RenderMethodTable(w io.Writer, methods []MethodStat) error {
	if len(methods) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "By Method"); err != nil {
		return err
	}
	headers := []string{"Method", "Attempts", "Scheduled", "Completed", "Avg Touchpoints"}
	rows := make([][]string, 0, len(methods))
	for _, m := range methods {
		rows = append(rows, []string{
			m.Method,
			strconv.Itoa(m.Attempts),
			fmt.Sprintf("%.2f%%", m.ScheduleRate()*100),
			fmt.Sprintf("%.2f%%", m.CompletionRate()*100),
			fmt.Sprintf("%.2f", float64(m.Touchpoints)/float64(m.Attempts)),
		})
	}
	return writeTable(w, headers, rows, map[int]bool{1: true, 2: true, 3: true, 4: true})
}

// RenderRuns prints the archive listing.
func RenderRuns(w io.Writer, runs []model.RunInfo) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	headers := []string{"ID", "Key", "Created", "Patients", "Completion", "Avg Touchpoints", "Avg Total Time"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		key := r.Key
		if len(key) > 8 {
			key = key[:8]
		}
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			key,
			r.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
			strconv.Itoa(Patients(r.Summary)),
			fmt.Sprintf("%.2f%%", r.Summary.CompletedRate*100),
			fmt.Sprintf("%.2f", r.Summary.AvgTouchpoints),
			fmt.Sprintf("%.2f", r.Summary.AvgTotalTime),
		})
	}
	return writeTable(w, headers, rows, map[int]bool{0: true, 3: true, 4: true, 5: true, 6: true})
}

func writeTable(w io.Writer, headers []string, rows [][]string, rightAlign map[int]bool) error {
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}
