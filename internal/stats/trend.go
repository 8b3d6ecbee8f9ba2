package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

const sparkChars = " .:-=+*#%@"

// WeekPoint is the completion rate of patients arriving in one week.
type WeekPoint struct {
	Week           int
	Patients       int
	CompletionRate float64
}

// WeeklyCompletion groups records by arrival week in ascending week order.
func WeeklyCompletion(table model.ResultTable) []WeekPoint {
	type acc struct{ n, completed int }
	byWeek := map[int]*acc{}
	for _, r := range table.Records {
		a, ok := byWeek[r.Week]
		if !ok {
			a = &acc{}
			byWeek[r.Week] = a
		}
		a.n++
		if r.Completed {
			a.completed++
		}
	}
	points := make([]WeekPoint, 0, len(byWeek))
	for week, a := range byWeek {
		points = append(points, WeekPoint{
			Week:           week,
			Patients:       a.n,
			CompletionRate: float64(a.completed) / float64(a.n),
		})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Week < points[j].Week })
	return points
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		den := float64(i + 1)
		if i >= window {
			sum -= values[i-window]
			den = float64(window)
		}
		out[i] = sum / den
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal, maxVal := values[0], values[0]
	for _, v := range values[1:] {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if maxVal-minVal < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		idx = max(0, min(idx, len(sparkChars)-1))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderTrend prints the weekly completion rate as a smoothed sparkline.
func RenderTrend(w io.Writer, table model.ResultTable, window int) error {
	points := WeeklyCompletion(table)
	if len(points) == 0 {
		return nil
	}
	rates := make([]float64, len(points))
	for i, p := range points {
		rates[i] = p.CompletionRate * 100
	}
	smoothed := MovingAverage(rates, window)
	minVal, maxVal := smoothed[0], smoothed[0]
	for _, v := range smoothed {
		minVal = math.Min(minVal, v)
		maxVal = math.Max(maxVal, v)
	}
	if _, err := fmt.Fprintf(w, "Completion by arrival week (weeks %d-%d, window %d)\n", points[0].Week, points[len(points)-1].Week, max(window, 1)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[%s] min=%.1f%% max=%.1f%%\n\n", Sparkline(smoothed), minVal, maxVal); err != nil {
		return err
	}
	return nil
}

// HistoryPoint is one population's completion rate in an archived run.
type HistoryPoint struct {
	RunID          int64
	CompletionRate float64
	N              int
}

// RenderHistory prints a population's completion rate across runs.
func RenderHistory(w io.Writer, population string, points []HistoryPoint) error {
	if len(points) == 0 {
		_, err := fmt.Fprintf(w, "No runs found for %s.\n", population)
		return err
	}
	rates := make([]float64, len(points))
	rows := make([][]string, 0, len(points))
	for i, p := range points {
		rates[i] = p.CompletionRate * 100
		rows = append(rows, []string{
			fmt.Sprintf("%d", p.RunID),
			fmt.Sprintf("%.2f%%", p.CompletionRate*100),
			fmt.Sprintf("%d", p.N),
		})
	}
	if _, err := fmt.Fprintf(w, "%s across %d runs [%s]\n", population, len(points), Sparkline(rates)); err != nil {
		return err
	}
	return writeTable(w, []string{"Run", "Completion", "N"}, rows, map[int]bool{0: true, 1: true, 2: true})
}
