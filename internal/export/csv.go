// Package export converts result tables to and from their wide CSV layout.
package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

var fixedColumns = []string{
	"Patient #",
	"Population",
	"Week",
	"num_attempts",
	"Tot. Time",
	"Tot. Allocated Time",
	"Tot. Touchpoints",
	"Appt Completed",
}

var attemptColumns = []string{
	"Scheduling Method",
	"Visit Category",
	"Touchpoints",
	"Success (Y/N)",
	"Time to Schedule (Days)",
	"Allocated Appt. Time (min)",
	"Completion (Y/N)",
	"Time to Completion",
}

// ErrMalformedCSV is returned when a CSV document does not follow the
// result table layout.
var ErrMalformedCSV = errors.New("malformed result csv")

// FileName is the download name of an archived run's CSV.
func FileName(runID int64) string {
	return fmt.Sprintf("appt_sim_run_%d.csv", runID)
}

// Header returns the column names for a table whose longest attempt
// sequence is maxAttempts.
func Header(maxAttempts int) []string {
	header := make([]string, 0, len(fixedColumns)+maxAttempts*len(attemptColumns))
	header = append(header, fixedColumns...)
	for k := 1; k <= maxAttempts; k++ {
		suffix := attemptSuffix(k)
		for _, col := range attemptColumns {
			header = append(header, col+suffix)
		}
	}
	return header
}

func attemptSuffix(k int) string {
	if k == 1 {
		return ""
	}
	return " " + strconv.Itoa(k)
}

// WriteCSV writes the header and one row per patient. Cells of attempts a
// patient never made, and absent values, are left empty.
func WriteCSV(w io.Writer, table model.ResultTable) error {
	maxAttempts := table.MaxAttempts()
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(maxAttempts)); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range table.Records {
		if err := cw.Write(recordRow(r, maxAttempts)); err != nil {
			return fmt.Errorf("failed to write csv row %d: %w", r.PatientID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// EncodeCSV renders table as a CSV string.
func EncodeCSV(table model.ResultTable) (string, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, table); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func recordRow(r model.PatientRecord, maxAttempts int) []string {
	row := make([]string, 0, len(fixedColumns)+maxAttempts*len(attemptColumns))
	row = append(row,
		strconv.Itoa(r.PatientID),
		r.Population,
		strconv.Itoa(r.Week),
		strconv.Itoa(r.NumAttempts),
		formatFloat(r.TotalTime),
		formatFloat(r.TotalAllocatedMinutes),
		strconv.Itoa(r.TotalTouchpoints),
		r.CompletedFlag(),
	)
	for k := 0; k < maxAttempts; k++ {
		if k >= len(r.Attempts) {
			row = append(row, make([]string, len(attemptColumns))...)
			continue
		}
		a := r.Attempts[k]
		row = append(row,
			a.Method,
			a.VisitCategory,
			strconv.Itoa(a.Touchpoints),
			yesNo(a.Scheduled),
			a.TimeToSchedule.String(),
			a.AllocatedMinutes.String(),
			a.Completion.String(),
			a.TimeToCompletion.String(),
		)
	}
	return row
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func yesNo(v bool) string {
	if v {
		return "Y"
	}
	return "N"
}

// ReadCSV parses a document written by WriteCSV.
func ReadCSV(r io.Reader) (model.ResultTable, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return model.ResultTable{}, fmt.Errorf("%w: missing header", ErrMalformedCSV)
		}
		return model.ResultTable{}, fmt.Errorf("failed to read csv header: %w", err)
	}
	maxAttempts, err := attemptsInHeader(header)
	if err != nil {
		return model.ResultTable{}, err
	}

	var records []model.PatientRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return model.ResultTable{}, fmt.Errorf("failed to read csv row: %w", err)
		}
		record, err := parseRow(row, maxAttempts)
		if err != nil {
			return model.ResultTable{}, fmt.Errorf("row %d: %w", len(records)+1, err)
		}
		records = append(records, record)
	}
	return model.ResultTable{Records: records}, nil
}

// DecodeCSV parses a CSV string.
func DecodeCSV(text string) (model.ResultTable, error) {
	return ReadCSV(strings.NewReader(text))
}

func attemptsInHeader(header []string) (int, error) {
	extra := len(header) - len(fixedColumns)
	if extra < 0 || extra%len(attemptColumns) != 0 {
		return 0, fmt.Errorf("%w: unexpected column count %d", ErrMalformedCSV, len(header))
	}
	maxAttempts := extra / len(attemptColumns)
	expected := Header(maxAttempts)
	for i, name := range header {
		if name != expected[i] {
			return 0, fmt.Errorf("%w: column %d is %q, want %q", ErrMalformedCSV, i+1, name, expected[i])
		}
	}
	return maxAttempts, nil
}

func parseRow(row []string, maxAttempts int) (model.PatientRecord, error) {
	var p cellParser
	record := model.PatientRecord{
		PatientID:             p.int(row[0]),
		Population:            row[1],
		Week:                  p.int(row[2]),
		NumAttempts:           p.int(row[3]),
		TotalTime:             p.float(row[4]),
		TotalAllocatedMinutes: p.float(row[5]),
		TotalTouchpoints:      p.int(row[6]),
		Completed:             p.flag(row[7]),
	}
	for k := 0; k < maxAttempts; k++ {
		cells := row[len(fixedColumns)+k*len(attemptColumns):][:len(attemptColumns)]
		if cells[0] == "" {
			break
		}
		record.Attempts = append(record.Attempts, model.Attempt{
			Number:           k + 1,
			Method:           cells[0],
			VisitCategory:    cells[1],
			Touchpoints:      p.int(cells[2]),
			Scheduled:        p.flag(cells[3]),
			TimeToSchedule:   p.optFloat(cells[4]),
			AllocatedMinutes: p.optFloat(cells[5]),
			Completion:       p.completion(cells[6]),
			TimeToCompletion: p.optFloat(cells[7]),
		})
	}
	if p.err != nil {
		return model.PatientRecord{}, p.err
	}
	if len(record.Attempts) != record.NumAttempts {
		return model.PatientRecord{}, fmt.Errorf("%w: num_attempts %d but %d attempts present", ErrMalformedCSV, record.NumAttempts, len(record.Attempts))
	}
	return record, nil
}

// cellParser keeps the first conversion error so a row can be parsed
// without checking every cell.
type cellParser struct {
	err error
}

func (p *cellParser) fail(kind, value string) {
	if p.err == nil {
		p.err = fmt.Errorf("%w: invalid %s %q", ErrMalformedCSV, kind, value)
	}
}

func (p *cellParser) int(value string) int {
	v, err := strconv.Atoi(value)
	if err != nil {
		p.fail("integer", value)
	}
	return v
}

func (p *cellParser) float(value string) float64 {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		p.fail("number", value)
	}
	return v
}

func (p *cellParser) optFloat(value string) model.OptFloat {
	if value == "" {
		return model.None()
	}
	return model.Some(p.float(value))
}

func (p *cellParser) flag(value string) bool {
	switch value {
	case "Y":
		return true
	case "N":
		return false
	}
	p.fail("flag", value)
	return false
}

func (p *cellParser) completion(value string) model.Completion {
	switch value {
	case "":
		return model.CompletionNotApplicable
	case "Y":
		return model.CompletionYes
	case "N":
		return model.CompletionNo
	}
	p.fail("completion", value)
	return model.CompletionNotApplicable
}
