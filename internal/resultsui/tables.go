package resultsui

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
	"github.com/sparshmallow/appointmentscheduling/internal/stats"
)

func newTable(columns []table.Column, rows []table.Row) *table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(1),
	)
	t.SetStyles(tableStyles())
	return &t
}

func tableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	return styles
}

// columnsFor sizes each column to its widest cell.
func columnsFor(headers []string, rows [][]string) []table.Column {
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		width := lipgloss.Width(h)
		for _, row := range rows {
			if i < len(row) {
				width = max(width, lipgloss.Width(row[i]))
			}
		}
		columns[i] = table.Column{Title: h, Width: width}
	}
	return columns
}

func toRows(rows [][]string) []table.Row {
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row(r)
	}
	return out
}

func populationTableData(summary model.Summary) ([]table.Column, []table.Row) {
	headers, rows := stats.PopulationRows(summary)
	return columnsFor(headers, rows), toRows(rows)
}

func methodTableData(methods []stats.MethodStat) ([]table.Column, []table.Row) {
	headers := []string{"Method", "Attempts", "Scheduled", "Completed", "Touchpoints"}
	rows := make([][]string, 0, len(methods))
	for _, m := range methods {
		rows = append(rows, []string{
			m.Method,
			strconv.Itoa(m.Attempts),
			fmt.Sprintf("%.2f%%", m.ScheduleRate()*100),
			fmt.Sprintf("%.2f%%", m.CompletionRate()*100),
			strconv.Itoa(m.Touchpoints),
		})
	}
	return columnsFor(headers, rows), toRows(rows)
}

// patientTableData lists every record, or only those of population when set.
func patientTableData(tbl model.ResultTable, population string) ([]table.Column, []table.Row) {
	filtered := model.ResultTable{}
	for _, r := range tbl.Records {
		if population == "" || r.Population == population {
			filtered.Records = append(filtered.Records, r)
		}
	}
	headers, rows := stats.PreviewRows(filtered, filtered.Len())
	return columnsFor(headers, rows), toRows(rows)
}
