package models

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petereon/fix-stl/internal/operations"
	"github.com/petereon/fix-stl/internal/tui/styles"
)

// Batch report filters.
const (
	filterFailed = iota
	filterErrored
	filterRepaired
	filterAll
)

// ReportModel displays the result of a single repair or a batch.
type ReportModel struct {
	result       OperationDoneMsg
	reportType   string // "repair", "batch"
	width        int
	height       int
	viewportTop  int
	viewportSize int
	cursor       int
	filter       int
	reportDir    string

	statusText  string
	statusErr   bool
	statusToken int
	statusShow  bool
}

// NewReportModel creates a report for a finished run.
func NewReportModel(result OperationDoneMsg, width, height int) ReportModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	m := ReportModel{
		result:     result,
		reportType: "repair",
		width:      width,
		height:     height,
		reportDir:  "reports",
	}

	if b := result.Batch; b != nil {
		m.reportType = "batch"
		switch {
		case len(b.Failed) > 0:
			m.filter = filterFailed
		case len(b.Errored) > 0:
			m.filter = filterErrored
		default:
			m.filter = filterRepaired
		}
	}
	m.viewportSize = calculateViewportSize(height, m.reportType)

	return m
}

// WithReportDir sets where "s" writes saved reports.
func (m ReportModel) WithReportDir(dir string) ReportModel {
	m.reportDir = dir
	return m
}

func calculateViewportSize(height int, reportType string) int {
	offset := 20
	if reportType == "batch" {
		// Title, status, summary table, filters and help.
		offset = 30
	}

	if size := height - offset; size >= 5 {
		return size
	}
	return 5
}

func (m ReportModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state
func (m ReportModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewportSize = calculateViewportSize(m.height, m.reportType)
		styles.AdaptToTerminal(m.width, m.height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
			m.updateViewport()

		case "down", "j":
			if m.cursor < len(m.filtered())-1 {
				m.cursor++
			}
			m.updateViewport()

		case "1", "2", "3", "4":
			if m.reportType == "batch" {
				m.filter = int(msg.String()[0] - '1')
				m.cursor = 0
				m.viewportTop = 0
			}

		case "o":
			if path := m.revealTarget(); path != "" {
				return m, func() tea.Msg {
					return RevealRequestMsg{Path: path}
				}
			}

		case "s":
			return m, func() tea.Msg {
				path, err := m.saveReport()
				if err != nil {
					return ReportSaveMsg{Error: err}
				}
				return ReportSaveMsg{Path: path}
			}

		case "enter", "esc":
			return m, func() tea.Msg {
				return BackToMenuMsg{}
			}

		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case ReportSaveMsg:
		if msg.Error != nil {
			return m.flash(fmt.Sprintf("%s Error saving report: %v", styles.IconCross, msg.Error), true)
		}
		return m.flash(fmt.Sprintf("%s Report saved to: %s", styles.IconCheck, styles.RenderHyperlink(msg.Path, msg.Path)), false)

	case RevealResultMsg:
		if msg.Err != nil {
			return m.flash(fmt.Sprintf("%s %v", styles.IconCross, msg.Err), true)
		}
		return m.flash(fmt.Sprintf("%s Revealed %s", styles.IconCheck, filepath.Base(msg.Path)), false)

	case ReportStatusTimeoutMsg:
		if msg.Token == m.statusToken {
			m.statusShow = false
		}
		return m, nil
	}

	return m, nil
}

// flash shows a status line for three seconds.
func (m ReportModel) flash(text string, isErr bool) (tea.Model, tea.Cmd) {
	m.statusText = text
	m.statusErr = isErr
	m.statusShow = true
	m.statusToken++
	token := m.statusToken
	return m, tea.Tick(3*time.Second, func(time.Time) tea.Msg {
		return ReportStatusTimeoutMsg{Token: token}
	})
}

// revealTarget is the file "o" shows in the file manager: the output when
// one was written, otherwise the input.
func (m ReportModel) revealTarget() string {
	if m.reportType == "batch" {
		items := m.filtered()
		if m.cursor < 0 || m.cursor >= len(items) {
			return ""
		}
		r := items[m.cursor]
		if r.Response != nil && r.Response.OutputPath != nil {
			return *r.Response.OutputPath
		}
		return r.FilePath
	}

	if resp := m.result.Response; resp != nil && resp.OutputPath != nil {
		return *resp.OutputPath
	}
	return ""
}

func (m ReportModel) filtered() []operations.Result {
	b := m.result.Batch
	if b == nil {
		return nil
	}

	switch m.filter {
	case filterFailed:
		return b.Failed
	case filterErrored:
		return b.Errored
	case filterRepaired:
		return b.Repaired
	default:
		all := make([]operations.Result, 0, b.Total)
		all = append(all, b.Errored...)
		all = append(all, b.Failed...)
		all = append(all, b.Repaired...)
		return all
	}
}

func (m *ReportModel) updateViewport() {
	if m.cursor < m.viewportTop {
		m.viewportTop = m.cursor
	}
	if m.cursor >= m.viewportTop+m.viewportSize {
		m.viewportTop = m.cursor - m.viewportSize + 1
	}
}

// View renders the report
func (m ReportModel) View() string {
	if m.reportType == "batch" {
		return m.renderBatchReport()
	}
	return m.renderRepairReport()
}

func (m ReportModel) renderRepairReport() string {
	title := styles.RenderTitle(styles.IconMesh + " Repair Report")

	resp := m.result.Response
	var status string
	var color lipgloss.AdaptiveColor
	switch {
	case m.result.Err != nil:
		status = styles.IconCross + "  " + m.result.Err.Error()
		color = styles.ColorError
	case resp != nil && resp.Success:
		status = styles.IconCheck + "  " + resp.Message
		color = styles.ColorSuccess
	case resp != nil:
		status = styles.IconCross + "  " + resp.Message
		color = styles.ColorError
	default:
		status = "No result available"
		color = styles.ColorMuted
	}
	statusBox := styles.StatusBox(color, m.width-8, status)

	rows := [][]string{{"Input", m.result.Input}}
	if resp != nil && resp.OutputPath != nil {
		rows = append(rows, []string{"Output", styles.RenderHyperlink(*resp.OutputPath, *resp.OutputPath)})
	}
	detailsBox := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorPrimary).
		Padding(1, 2).
		Width(m.width - 8).
		Render(styles.RenderTable([]string{"Field", "Value"}, rows))

	bindings := []string{}
	if m.revealTarget() != "" {
		bindings = append(bindings, styles.RenderKeyBinding("o", "show in folder"))
	}
	bindings = append(bindings,
		styles.RenderKeyBinding("s", "save report"),
		styles.RenderKeyBinding("enter", "menu"),
		styles.RenderKeyBinding("q", "quit"),
	)

	parts := []string{title, "", statusBox, "", detailsBox}
	if line := m.renderStatusLine(); line != "" {
		parts = append(parts, "", line)
	}
	parts = append(parts, styles.HelpBar(m.width-8, bindings...))

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m ReportModel) renderBatchReport() string {
	b := m.result.Batch
	title := styles.RenderTitle("📦 Batch Report")

	var statusText string
	var statusColor lipgloss.AdaptiveColor
	if b.OK() {
		statusText = fmt.Sprintf("%s  All meshes repaired (%d/%d)", styles.IconCheck, len(b.Repaired), b.Total)
		statusColor = styles.ColorSuccess
	} else {
		statusText = fmt.Sprintf("%s  %d/%d repaired, %d failed, %d errored",
			styles.IconCross, len(b.Repaired), b.Total, len(b.Failed), len(b.Errored))
		statusColor = styles.ColorError
	}
	statusBox := styles.StatusBox(statusColor, m.width-8, statusText)

	summaryBox := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(styles.ColorPrimary).
		Padding(1, 2).
		Width(m.width - 8).
		Render(styles.RenderTable(
			[]string{"Metric", "Value"},
			[][]string{
				{"Total Files", fmt.Sprintf("%d", b.Total)},
				{"Repaired", fmt.Sprintf("%d", len(b.Repaired))},
				{"Failed", fmt.Sprintf("%d", len(b.Failed))},
				{"Errored", fmt.Sprintf("%d", len(b.Errored))},
				{"Duration", b.Duration.Round(time.Millisecond).String()},
			},
		))

	items := m.filtered()
	var lines []string
	end := min(m.viewportTop+m.viewportSize, len(items))
	for i := m.viewportTop; i < end; i++ {
		line := m.formatBatchItem(items[i])
		if i == m.cursor {
			line = styles.IconArrow + " " + line
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	if len(items) == 0 {
		lines = append(lines, styles.MutedStyle.Render("No items to display"))
	}
	if m.viewportTop > 0 {
		lines = append([]string{styles.MutedStyle.Render("↑ more ↑")}, lines...)
	}
	if end < len(items) {
		lines = append(lines, styles.MutedStyle.Render("↓ more ↓"))
	}

	listBox := styles.BorderStyle.
		Width(m.width - 8).
		Height(m.viewportSize + 2).
		Render(strings.Join(lines, "\n"))

	helpBox := styles.HelpBar(m.width-8,
		styles.RenderKeyBinding("1-4", "filter"),
		styles.RenderKeyBinding("↑/↓", "select"),
		styles.RenderKeyBinding("o", "show in folder"),
		styles.RenderKeyBinding("s", "save report"),
		styles.RenderKeyBinding("enter", "menu"),
	)

	parts := []string{title, "", statusBox, "", summaryBox, m.renderBatchFilters(), listBox}
	if line := m.renderStatusLine(); line != "" {
		parts = append(parts, "", line)
	}
	parts = append(parts, helpBox)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m ReportModel) renderBatchFilters() string {
	tabs := []string{"1: Failed", "2: Errored", "3: Repaired", "4: All"}

	var rendered []string
	for i, tab := range tabs {
		if i == m.filter {
			rendered = append(rendered, styles.SelectedListItemStyle.Render(tab))
		} else {
			rendered = append(rendered, styles.MutedStyle.Render(tab))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m ReportModel) formatBatchItem(r operations.Result) string {
	name := styles.RenderHyperlink(r.FilePath, filepath.Base(r.FilePath))

	switch {
	case r.Error != nil:
		return styles.ErroredStyle.Render(fmt.Sprintf("%s %s: %v", styles.IconWarning, name, r.Error))
	case r.Response == nil:
		return styles.ErroredStyle.Render(fmt.Sprintf("%s %s: no response", styles.IconWarning, name))
	case r.Response.Success:
		out := ""
		if r.Response.OutputPath != nil {
			out = " → " + filepath.Base(*r.Response.OutputPath)
		}
		return styles.RepairedStyle.Render(fmt.Sprintf("%s %s%s", styles.IconCheck, name, out))
	default:
		return styles.FailedStyle.Render(fmt.Sprintf("%s %s: %s", styles.IconCross, name, r.Response.Message))
	}
}

func (m ReportModel) renderStatusLine() string {
	if !m.statusShow {
		return ""
	}
	if m.statusErr {
		return styles.ErrorStyle.Render(m.statusText)
	}
	return styles.SuccessStyle.Render(m.statusText)
}

// savedReport is the JSON layout of a saved report.
type savedReport struct {
	Input    string                  `json:"input"`
	Response *operations.Response    `json:"response,omitempty"`
	Batch    *operations.BatchResult `json:"batch,omitempty"`
	Error    string                  `json:"error,omitempty"`
	SavedAt  time.Time               `json:"saved_at"`
}

func (m ReportModel) saveReport() (string, error) {
	if err := os.MkdirAll(m.reportDir, 0755); err != nil {
		return "", err
	}

	now := time.Now()
	report := savedReport{
		Input:    m.result.Input,
		Response: m.result.Response,
		Batch:    m.result.Batch,
		SavedAt:  now,
	}
	if m.result.Err != nil {
		report.Error = m.result.Err.Error()
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", err
	}

	path := filepath.Join(m.reportDir, fmt.Sprintf("%s-%s.json", m.reportType, now.Format("20060102-150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}

	if abs, err := filepath.Abs(path); err == nil {
		return abs, nil
	}
	return path, nil
}

// ReportSaveMsg is sent when a report is saved
type ReportSaveMsg struct {
	Path  string
	Error error
}

// ReportStatusTimeoutMsg hides the status line after a delay.
type ReportStatusTimeoutMsg struct {
	Token int
}

// RevealRequestMsg asks the app to show Path in the file manager.
type RevealRequestMsg struct {
	Path string
}

// RevealResultMsg reports the outcome of a RevealRequestMsg.
type RevealResultMsg struct {
	Path string
	Err  error
}
