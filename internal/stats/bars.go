package stats

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/term"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
)

const (
	barFull             = "█"
	minBarWidth         = 10
	terminalWidthBackup = 80
	colorReset          = "\x1b[0m"
)

var colorPalette = []string{
	"\x1b[36m",
	"\x1b[35m",
	"\x1b[33m",
	"\x1b[32m",
	"\x1b[34m",
}

// RenderPopulationBars prints horizontal bar charts of completion rate,
// average touchpoints and average total time per population. A width of 0
// sizes the charts to the terminal.
func RenderPopulationBars(w io.Writer, summary model.Summary, totalWidth int, forceColor bool) error {
	if len(summary.ByPopulation) == 0 {
		return nil
	}
	if totalWidth <= 0 {
		totalWidth = terminalWidth()
	}
	labels := make([]string, len(summary.ByPopulation))
	rates := make([]float64, len(summary.ByPopulation))
	touches := make([]float64, len(summary.ByPopulation))
	times := make([]float64, len(summary.ByPopulation))
	for i, p := range summary.ByPopulation {
		labels[i] = p.Population
		rates[i] = p.CompletionRate * 100
		touches[i] = p.AvgTouchpoints
		times[i] = p.AvgTotalTime
	}
	useColor := shouldUseColor(w, forceColor)
	charts := []barChart{
		{title: "Completion by population", values: rates, scale: 100, format: "%6.2f%%"},
		{title: "Avg touchpoints by population", values: touches, format: "%7.2f"},
		{title: "Avg total time (days) by population", values: times, format: "%7.2f"},
	}
	for _, chart := range charts {
		if err := chart.render(w, labels, totalWidth, useColor); err != nil {
			return err
		}
	}
	return nil
}

type barChart struct {
	title  string
	values []float64
	// scale is the value of a full bar; 0 scales to the largest value.
	scale  float64
	format string
}

func (c barChart) render(w io.Writer, labels []string, totalWidth int, useColor bool) error {
	labelWidth := 0
	for _, l := range labels {
		labelWidth = max(labelWidth, runewidth.StringWidth(l))
	}
	barWidth := BarWidthFor(totalWidth, labelWidth)
	scale := c.scale
	if scale <= 0 {
		for _, v := range c.values {
			scale = max(scale, v)
		}
	}

	if _, err := fmt.Fprintln(w, c.title); err != nil {
		return err
	}
	for i, v := range c.values {
		filled := 0
		if scale > 0 {
			filled = int(v/scale*float64(barWidth) + 0.5)
		}
		filled = max(0, min(filled, barWidth))
		bar := strings.Repeat(barFull, filled)
		if useColor && filled > 0 {
			bar = colorPalette[i%len(colorPalette)] + bar + colorReset
		}
		line := fmt.Sprintf("%s │%s%s│ "+c.format,
			runewidth.FillRight(labels[i], labelWidth),
			bar,
			strings.Repeat(" ", barWidth-filled),
			v)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// BarWidthFor computes the bar length that fits a line of totalWidth after
// the label and percentage columns.
func BarWidthFor(totalWidth, labelWidth int) int {
	// label + " │" + bar + "│ " + "100.00%"
	width := totalWidth - labelWidth - 4 - 7
	if width < minBarWidth {
		return minBarWidth
	}
	return width
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
