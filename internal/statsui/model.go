// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/mindful/internal/model"
	"github.com/verte-zerg/mindful/internal/stats"
)

const (
	tabOverview = iota
	tabByMonth
)

// Periods are the windows cycled with [ and ].
var Periods = []string{stats.PeriodAll, "1M", "3M", "6M", "12M"}

const (
	colorText   = lipgloss.Color("#F0F0F0")
	colorDim    = lipgloss.Color("#B0B0B0")
	colorMuted  = lipgloss.Color("#7A7A7A")
	colorBorder = lipgloss.Color("#4A4A4A")
	colorAccent = lipgloss.Color("#7FB3A6")
	colorError  = lipgloss.Color("#FF4D4F")
)

var (
	tabStyle         = lipgloss.NewStyle().Padding(0, 1).Border(lipgloss.RoundedBorder(), true)
	activeTabStyle   = tabStyle.Foreground(colorText).Bold(true).BorderForeground(colorAccent)
	inactiveTabStyle = tabStyle.Foreground(colorDim).BorderForeground(colorBorder)
	hintStyle        = lipgloss.NewStyle().Foreground(colorMuted)
	errorStyle       = lipgloss.NewStyle().Foreground(colorError)
	cardStyle        = tabStyle.BorderForeground(colorBorder)
	cardLabelStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	cardValueStyle   = lipgloss.NewStyle().Foreground(colorText).Bold(true)
	tableStyle       = lipgloss.NewStyle().Foreground(colorDim)
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	ctx    context.Context
	source stats.LogSource
	cfg    model.StatsConfig

	result stats.Result
	errMsg string

	tabs       []string
	activeTab  int
	overview   viewport.Model
	monthTable table.Model

	width  int
	height int

	filterMode   bool
	filterInputs []textinput.Model
	filterIndex  int
	filterError  string
}

// NewModel constructs a stats UI model.
func NewModel(ctx context.Context, source stats.LogSource, cfg model.StatsConfig) *Model {
	if strings.TrimSpace(cfg.Period) == "" {
		cfg.Period = stats.PeriodAll
	}
	m := &Model{
		ctx:      ctx,
		source:   source,
		cfg:      cfg,
		tabs:     []string{"Overview", "By Month"},
		overview: viewport.New(0, 0),
	}
	m.monthTable = table.New(table.WithStyles(monthTableStyles()))
	m.initInputs()
	m.refreshReport()
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
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.renderOverviewContent()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.filterMode {
			return m, m.updateFilter(msg)
		}
		return m, m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return tea.Quit
	case "left", "h":
		m.switchTab(-1)
		return tea.ClearScreen
	case "right", "l", "tab":
		m.switchTab(1)
		return tea.ClearScreen
	case "[":
		m.cyclePeriod(-1)
	case "]":
		m.cyclePeriod(1)
	case "/":
		m.filterMode = true
		m.filterError = ""
		m.syncInputs()
		return m.focusInput(0)
	case "g", "home":
		m.jump(true)
	case "G", "end":
		m.jump(false)
	default:
		var cmd tea.Cmd
		if m.activeTab == tabByMonth {
			m.monthTable, cmd = m.monthTable.Update(msg)
		} else {
			m.overview, cmd = m.overview.Update(msg)
		}
		return cmd
	}
	return nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layout()
	return strings.Join([]string{
		frame(m.renderHeader(), m.width, headerHeight),
		frame(m.renderBody(), m.width, bodyHeight),
		frame(m.renderFooter(), m.width, footerHeight),
	}, "\n")
}

func (m *Model) initInputs() {
	m.filterInputs = []textinput.Model{
		newFilterInput("Period (ALL or <n>M): "),
		newFilterInput("Locale: "),
	}
	m.syncInputs()
}

func newFilterInput(prompt string) textinput.Model {
	input := textinput.New()
	input.Prompt = prompt
	input.Cursor.SetMode(cursor.CursorBlink)
	return input
}

func (m *Model) syncInputs() {
	m.filterInputs[0].SetValue(m.cfg.Period)
	m.filterInputs[1].SetValue(m.cfg.Locale)
}

// layout splits the window into tabs plus settings line, body and footer.
func (m *Model) layout() (header, body, footer int) {
	header = lipgloss.Height(activeTabStyle.Render("X")) + 1
	footer = 1
	if m.errMsg != "" && !m.filterMode {
		footer = 2
	}
	body = max(1, m.height-header-footer)
	return header, body, footer
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, body, _ := m.layout()
	m.overview.Width, m.overview.Height = m.width, body
	m.monthTable.SetWidth(m.width)
	m.monthTable.SetHeight(max(1, body-1))
	for i := range m.filterInputs {
		m.filterInputs[i].Width = max(10, m.width-lipgloss.Width(m.filterInputs[i].Prompt)-2)
	}
}

func (m *Model) switchTab(delta int) {
	m.activeTab = wrapIndex(m.activeTab+delta, len(m.tabs))
	if m.activeTab == tabByMonth {
		m.monthTable.Focus()
		return
	}
	m.monthTable.Blur()
}

func (m *Model) jump(top bool) {
	switch {
	case m.activeTab == tabByMonth && top:
		m.monthTable.GotoTop()
	case m.activeTab == tabByMonth:
		m.monthTable.GotoBottom()
	case top:
		m.overview.GotoTop()
	default:
		m.overview.GotoBottom()
	}
}

func (m *Model) cyclePeriod(delta int) {
	current := 0
	for i, p := range Periods {
		if strings.EqualFold(p, m.cfg.Period) {
			current = i
			break
		}
	}
	m.cfg.Period = Periods[wrapIndex(current+delta, len(Periods))]
	m.syncInputs()
	m.refreshReport()
}

func (m *Model) updateFilter(msg tea.KeyMsg) tea.Cmd {
	switch msg.Type {
	case tea.KeyEsc:
		m.filterMode = false
		m.filterError = ""
		return nil
	case tea.KeyEnter:
		if err := m.applyFilter(); err != nil {
			m.filterError = err.Error()
			return nil
		}
		m.filterMode = false
		m.filterError = ""
		m.refreshReport()
		m.resize()
		return nil
	case tea.KeyTab:
		return m.focusInput(m.filterIndex + 1)
	case tea.KeyShiftTab:
		return m.focusInput(m.filterIndex - 1)
	}
	var cmd tea.Cmd
	m.filterInputs[m.filterIndex], cmd = m.filterInputs[m.filterIndex].Update(msg)
	return cmd
}

func (m *Model) focusInput(idx int) tea.Cmd {
	m.filterIndex = wrapIndex(idx, len(m.filterInputs))
	var cmd tea.Cmd
	for i := range m.filterInputs {
		if i != m.filterIndex {
			m.filterInputs[i].Blur()
			continue
		}
		cmd = m.filterInputs[i].Focus()
	}
	return cmd
}

func (m *Model) applyFilter() error {
	period := strings.ToUpper(strings.TrimSpace(m.filterInputs[0].Value()))
	if period == "" {
		period = stats.PeriodAll
	}
	if _, err := stats.ParsePeriod(period); err != nil {
		return err
	}
	m.cfg.Period = period
	m.cfg.Locale = strings.TrimSpace(m.filterInputs[1].Value())
	return nil
}

func (m *Model) refreshReport() {
	result, err := stats.BuildReport(m.ctx, m.source, m.cfg)
	if err != nil {
		m.errMsg = err.Error()
		m.overview.SetContent("Failed to load stats.")
		m.monthTable.SetRows(nil)
		return
	}
	m.errMsg = ""
	m.result = result

	cols, rows := monthTableData(result)
	m.monthTable.SetRows(nil)
	m.monthTable.SetColumns(cols)
	m.monthTable.SetRows(rows)
	m.monthTable.GotoTop()
	m.renderOverviewContent()
}

func (m *Model) renderOverviewContent() {
	if m.errMsg != "" {
		return
	}
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.overview.SetContent(renderOverview(m.result, width))
}

func (m *Model) renderHeader() string {
	tabs := make([]string, len(m.tabs))
	for i, name := range m.tabs {
		style := inactiveTabStyle
		if i == m.activeTab {
			style = activeTabStyle
		}
		tabs[i] = style.Render(name)
	}
	locale := m.cfg.Locale
	if locale == "" {
		locale = "default"
	}
	settings := runewidth.Truncate(fmt.Sprintf("Settings: period=%s  locale=%s", m.cfg.Period, locale), m.width, "...")
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + "\n" + hintStyle.Render(settings)
}

func (m *Model) renderFooter() string {
	if m.filterMode {
		return hintStyle.Render("tab/shift+tab: next field  enter: apply  esc: cancel")
	}
	help := hintStyle.Render("Nav: left/right  Scroll: up/down  Period: [/]  Settings: /  Quit: q")
	if m.errMsg == "" {
		return help
	}
	return help + "\n" + errorStyle.Render(m.errMsg)
}

func (m *Model) renderBody() string {
	switch {
	case m.filterMode:
		lines := []string{"Settings (enter to apply, esc to cancel)"}
		for _, input := range m.filterInputs {
			lines = append(lines, input.View())
		}
		if m.filterError != "" {
			lines = append(lines, errorStyle.Render(m.filterError))
		}
		return strings.Join(lines, "\n")
	case m.activeTab == tabByMonth && len(m.result.ByPeriod) == 0:
		return "No sessions found."
	case m.activeTab == tabByMonth:
		return tableStyle.Render(m.monthTable.View())
	}
	return m.overview.View()
}

func renderOverview(res stats.Result, width int) string {
	if res.Summary.TotalSessions == 0 {
		return "No sessions found."
	}
	cards := []string{
		metricCard("Sessions", strconv.Itoa(res.Summary.TotalSessions)),
		metricCard("Total", fmt.Sprintf("%d min", res.Summary.TotalTimeMinutes)),
		metricCard("Avg session", fmt.Sprintf("%.1f min", res.Summary.AverageSessionDuration)),
	}
	summary := strings.Join(cards, "\n")
	if width >= 60 {
		summary = lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	}
	var buf bytes.Buffer
	if err := stats.RenderChart(&buf, "Minutes per Month", res.Chart, width, true); err != nil {
		return summary + "\n\n" + fmt.Sprintf("Failed to render chart: %v", err)
	}
	return strings.TrimRight(summary+"\n\n"+buf.String(), "\n")
}

func metricCard(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func monthTableData(res stats.Result) ([]table.Column, []table.Row) {
	columns := []table.Column{
		{Title: "Month", Width: 8},
		{Title: "Label", Width: 9},
		{Title: "Sessions", Width: 8},
		{Title: "Minutes", Width: 8},
	}
	rows := make([]table.Row, len(res.ByPeriod))
	for i, p := range res.ByPeriod {
		label := ""
		if i < len(res.Chart.Labels) {
			label = res.Chart.Labels[i]
		}
		rows[i] = table.Row{p.Period, label, strconv.Itoa(p.TotalSessions), strconv.Itoa(p.TotalMinutes)}
	}
	return columns, rows
}

func monthTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorBorder).
		Foreground(colorAccent).
		Bold(true).
		Padding(0, 1, 0, 0)
	styles.Cell = styles.Cell.Padding(0, 1, 0, 0)
	styles.Selected = styles.Cell.Foreground(colorText).Bold(true)
	return styles
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}

// frame pads each line to width and clips or fills the block to height lines.
func frame(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	var b strings.Builder
	for i := 0; i < height; i++ {
		if i > 0 {
			b.WriteByte('\n')
		}
		line := ""
		if i < len(lines) {
			line = lines[i]
		}
		b.WriteString(line)
		if gap := width - lipgloss.Width(line); gap > 0 {
			b.WriteString(strings.Repeat(" ", gap))
		}
	}
	return b.String()
}
