// Package resultsui provides the Bubble Tea results viewer.
package resultsui

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sparshmallow/appointmentscheduling/internal/model"
	"github.com/sparshmallow/appointmentscheduling/internal/stats"
)

const (
	tabSummary = iota
	tabPopulations
	tabMethods
	tabPatients
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#3A8CC8"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle   = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea results viewer.
type Model struct {
	report stats.Report
	title  string

	tabs      []string
	activeTab int
	summaryVP viewport.Model
	tables    map[int]*table.Model

	width  int
	height int

	filterMode  bool
	filterInput textinput.Model
	population  string
	errMsg      string
}

// NewModel constructs a results viewer for report.
func NewModel(report stats.Report) *Model {
	m := &Model{
		report: report,
		title:  reportTitle(report.Run),
		tabs:   []string{"Summary", "Populations", "Methods", "Patients"},
		tables: map[int]*table.Model{},
	}
	m.summaryVP = viewport.New(0, 0)
	m.filterInput = textinput.New()
	m.filterInput.Prompt = "Population: "
	m.filterInput.Placeholder = "empty for all"
	m.filterInput.Cursor.SetMode(cursor.CursorBlink)
	m.rebuildTables()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || (!m.filterMode && msg.String() == "q") {
			return m, tea.Quit
		}
		if m.filterMode {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "/":
			m.filterMode = true
			m.filterInput.SetValue(m.population)
			return m, m.filterInput.Focus()
		case "g", "home":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoTop()
			} else {
				m.summaryVP.GotoTop()
			}
			return m, nil
		case "G", "end":
			if t, ok := m.tables[m.activeTab]; ok {
				t.GotoBottom()
			} else {
				m.summaryVP.GotoBottom()
			}
			return m, nil
		}
		var cmd tea.Cmd
		if t, ok := m.tables[m.activeTab]; ok {
			*t, cmd = t.Update(msg)
			return m, cmd
		}
		m.summaryVP, cmd = m.summaryVP.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

// Population returns the active patient filter, empty for all.
func (m *Model) Population() string {
	return m.population
}

func (m *Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterInput.Blur()
		return m, nil
	case tea.KeyEnter:
		value := strings.TrimSpace(m.filterInput.Value())
		if value != "" && !m.hasPopulation(value) {
			m.errMsg = fmt.Sprintf("unknown population %q", value)
			return m, nil
		}
		m.errMsg = ""
		m.population = value
		m.filterMode = false
		m.filterInput.Blur()
		m.rebuildTables()
		m.updateLayout()
		return m, nil
	}
	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

func (m *Model) hasPopulation(name string) bool {
	for _, p := range m.report.Run.Summary.ByPopulation {
		if p.Population == name {
			return true
		}
	}
	return false
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := (m.activeTab + delta + count) % count
	if t, ok := m.tables[m.activeTab]; ok {
		t.Blur()
	}
	m.activeTab = next
	if t, ok := m.tables[m.activeTab]; ok {
		t.Focus()
	}
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := max(lipgloss.Height(activeNavStyle.Render("X")), 1)
	headerHeight = tabsHeight + 1
	footerHeight = 1
	if m.errMsg != "" || m.filterMode {
		footerHeight++
	}
	bodyHeight = max(m.height-headerHeight-footerHeight, 1)
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.summaryVP.Width = m.width
	m.summaryVP.Height = bodyHeight
	m.summaryVP.SetContent(renderSummary(m.report, m.width))
	for _, t := range m.tables {
		t.SetWidth(m.width)
		t.SetHeight(max(bodyHeight-1, 1))
	}
	m.filterInput.Width = max(10, m.width-lipgloss.Width(m.filterInput.Prompt)-2)
}

func (m *Model) rebuildTables() {
	popCols, popRows := populationTableData(m.report.Run.Summary)
	methodCols, methodRows := methodTableData(m.report.Methods)
	patientCols, patientRows := patientTableData(m.report.Table, m.population)
	m.tables[tabPopulations] = newTable(popCols, popRows)
	m.tables[tabMethods] = newTable(methodCols, methodRows)
	m.tables[tabPatients] = newTable(patientCols, patientRows)
	if t, ok := m.tables[m.activeTab]; ok {
		t.Focus()
	}
}

func (m *Model) renderTabs() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) renderHeader() string {
	line := m.title
	if m.population != "" {
		line += "  population=" + m.population
	}
	return padLines(m.renderTabs(), m.width) + "\n" + headerStyle.Render(truncateLine(line, m.width))
}

func (m *Model) renderBody() string {
	if t, ok := m.tables[m.activeTab]; ok {
		if len(t.Rows()) == 0 {
			return "No rows."
		}
		return tableMutedStyle.Render(t.View())
	}
	return m.summaryVP.View()
}

func (m *Model) renderFooter() string {
	help := headerStyle.Render("Nav: left/right  Scroll: up/down/pgup/pgdn  Top/Bottom: g/G  Filter: /  Quit: q")
	if m.filterMode {
		return m.filterInput.View() + "\n" + headerStyle.Render("enter: apply  esc: cancel")
	}
	if m.errMsg != "" {
		return help + "\n" + errorStyle.Render(m.errMsg)
	}
	return help
}

func reportTitle(run model.Run) string {
	if run.ID > 0 {
		return fmt.Sprintf("Run %d  seed=%d  patients=%d", run.ID, run.Config.Seed, run.Config.NPatients)
	}
	return fmt.Sprintf("Unsaved run  seed=%d  patients=%d", run.Config.Seed, run.Config.NPatients)
}

func renderSummary(report stats.Report, width int) string {
	summary := report.Run.Summary
	cards := []string{
		metricCard("Patients", fmt.Sprintf("%d", stats.Patients(summary))),
		metricCard("Completion", fmt.Sprintf("%.1f%%", summary.CompletedRate*100)),
		metricCard("Avg Touchpoints", fmt.Sprintf("%.2f", summary.AvgTouchpoints)),
		metricCard("Avg Total Time", fmt.Sprintf("%.2f d", summary.AvgTotalTime)),
	}
	var top string
	if width < 80 {
		top = strings.Join(cards, "\n")
	} else {
		top = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := stats.RenderPopulationBars(&buf, summary, width, true); err != nil {
		return fmt.Sprintf("Failed to render chart: %v", err)
	}
	if err := stats.RenderTrend(&buf, report.Table, 3); err != nil {
		return fmt.Sprintf("Failed to render trend: %v", err)
	}
	return strings.TrimRight(top+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}
