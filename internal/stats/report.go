package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/sparshmallow/appointmentscheduling/internal/export"
	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

// RunSource loads archived runs.
type RunSource interface {
	GetRun(ctx context.Context, id int64) (model.Run, error)
}

// Report is an archived run with its result table parsed back from CSV.
type Report struct {
	Run     model.Run
	Table   model.ResultTable
	Methods []MethodStat
}

// BuildReport loads a run and prepares it for rendering.
func BuildReport(ctx context.Context, src RunSource, id int64) (Report, error) {
	run, err := src.GetRun(ctx, id)
	if err != nil {
		return Report{}, err
	}
	table, err := export.DecodeCSV(run.CSVText)
	if err != nil {
		return Report{}, fmt.Errorf("failed to parse run %d csv: %w", id, err)
	}
	return NewReport(run, table), nil
}

// NewReport wraps a freshly simulated or loaded run.
func NewReport(run model.Run, table model.ResultTable) Report {
	return Report{Run: run, Table: table, Methods: MethodBreakdown(table)}
}

// ReportOptions controls RenderReport.
type ReportOptions struct {
	PreviewRows int
	TrendWindow int
	Width       int
	ForceColor  bool
}

// RenderReport prints the summary, charts and preview of a report.
func RenderReport(w io.Writer, report Report, opts ReportOptions) error {
	summary := report.Run.Summary
	if report.Run.ID > 0 {
		if _, err := fmt.Fprintf(w, "Run %d (%s)\n", report.Run.ID, report.Run.CreatedAt.UTC().Format("2006-01-02 15:04:05")); err != nil {
			return err
		}
	}
	if err := RenderSummary(w, summary); err != nil {
		return err
	}
	if err := RenderPopulationTable(w, summary); err != nil {
		return err
	}
	if weakest := LowestCompletion(summary, 1); len(weakest) == 1 && len(summary.ByPopulation) > 1 {
		if _, err := fmt.Fprintf(w, "Lowest completion: %s (%.2f%%)\n\n", weakest[0].Population, weakest[0].CompletionRate*100); err != nil {
			return err
		}
	}
	if err := RenderPopulationBars(w, summary, opts.Width, opts.ForceColor); err != nil {
		return err
	}
	if err := RenderMethodTable(w, report.Methods); err != nil {
		return err
	}
	if err := RenderTrend(w, report.Table, opts.TrendWindow); err != nil {
		return err
	}
	if opts.PreviewRows > 0 {
		return RenderPreview(w, report.Table, opts.PreviewRows)
	}
	return nil
}
