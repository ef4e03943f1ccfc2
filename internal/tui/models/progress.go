package models

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petereon/fix-stl/internal/operations"
	"github.com/petereon/fix-stl/internal/tui/styles"
)

var spinnerFrames = []rune(styles.IconSpinner)

// ProgressModel shows a running repair. Multi-file runs get a progress bar.
type ProgressModel struct {
	operation   string
	filePath    string
	current     int
	total       int
	currentFile string
	startTime   time.Time
	width       int
	height      int
	spinner     int
	done        bool
	canceling   bool
	result      OperationDoneMsg
	progress    progress.Model
}

// NewProgressModel creates a new progress model
func NewProgressModel(operation string, filePath string, total int, width, height int) ProgressModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	p := progress.New(
		progress.WithDefaultGradient(),
		progress.WithWidth(width-20),
		progress.WithoutPercentage(),
	)

	return ProgressModel{
		operation: operation,
		filePath:  filePath,
		total:     total,
		startTime: time.Now(),
		width:     width,
		height:    height,
		progress:  p,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return m.tick()
}

// Update handles messages and updates the model state
func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		styles.AdaptToTerminal(m.width, m.height)
		return m, nil

	case tea.KeyMsg:
		if m.done {
			switch msg.String() {
			case "enter":
				result := m.result
				return m, func() tea.Msg {
					return ViewReportMsg{Result: result}
				}
			case "esc":
				return m, func() tea.Msg {
					return BackToMenuMsg{}
				}
			case "ctrl+c", "q":
				return m, tea.Quit
			}
		} else if msg.String() == "ctrl+c" && !m.canceling {
			m.canceling = true
			return m, func() tea.Msg {
				return OperationCancelMsg{}
			}
		}

	case TickMsg:
		if !m.done {
			m.spinner = (m.spinner + 1) % len(spinnerFrames)
			return m, m.tick()
		}

	case ProgressUpdateMsg:
		m.current = msg.Current
		m.currentFile = msg.CurrentFile
		if m.total > 0 {
			return m, m.progress.SetPercent(float64(m.current) / float64(m.total))
		}
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case OperationDoneMsg:
		m.done = true
		m.result = msg
		if msg.Batch != nil {
			m.current = msg.Batch.Total
		}
		if m.total > 0 {
			return m, m.progress.SetPercent(1.0)
		}
		return m, nil
	}

	return m, nil
}

// View renders the progress display
func (m ProgressModel) View() string {
	if m.done {
		return m.renderDone()
	}

	title := styles.RenderTitle(string(spinnerFrames[m.spinner]) + "  " + m.operation)

	statusText := "Running MeshFix..."
	switch {
	case m.canceling:
		statusText = styles.IconWarning + " Canceling: waiting for repairs already in MeshFix to finish"
	case m.currentFile != "":
		statusText = "🔧 Repairing: " + filepath.Base(m.currentFile)
	case m.filePath != "":
		statusText = "🔧 Repairing: " + m.filePath
	}

	statusBox := styles.StatusBox(styles.ColorInfo, m.width-4, statusText)

	var progressBox string
	if m.total > 1 {
		percentage := float64(m.current) / float64(m.total) * 100

		progressContent := lipgloss.JoinVertical(
			lipgloss.Left,
			fmt.Sprintf("Completed: %d / %d (%.0f%%)", m.current, m.total, percentage),
			"",
			m.progress.View(),
		)

		progressBox = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder()).
			BorderForeground(styles.ColorPrimary).
			Padding(1, 2).
			Width(m.width - 4).
			Render(progressContent)
	}

	timeBar := lipgloss.NewStyle().
		Foreground(styles.ColorMuted).
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(styles.ColorMuted).
		Padding(0, 1).
		Width(m.width - 4).
		Render("Elapsed: " + time.Since(m.startTime).Round(time.Second).String())

	helpBox := styles.HelpBar(m.width-4, styles.RenderKeyBinding("ctrl+c", "cancel"))

	parts := []string{title, "", statusBox}
	if progressBox != "" {
		parts = append(parts, "", progressBox)
	}
	parts = append(parts, "", timeBar, helpBox)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m ProgressModel) summary() (string, lipgloss.AdaptiveColor) {
	r := m.result
	switch {
	case r.Err != nil:
		return styles.IconCross + "  " + r.Err.Error(), styles.ColorError
	case r.Batch != nil:
		b := r.Batch
		text := fmt.Sprintf("Repaired %d of %d meshes", len(b.Repaired), b.Total)
		if !b.OK() {
			text += fmt.Sprintf("\n\n%d failed, %d errored", len(b.Failed), len(b.Errored))
			return styles.IconWarning + "  " + text, styles.ColorWarning
		}
		return styles.IconCheck + "  " + text, styles.ColorSuccess
	case r.Response != nil && r.Response.Success:
		return styles.IconCheck + "  " + r.Response.Message, styles.ColorSuccess
	case r.Response != nil:
		return styles.IconCross + "  " + r.Response.Message, styles.ColorError
	}
	return m.operation + " finished", styles.ColorInfo
}

func (m ProgressModel) renderDone() string {
	title := styles.RenderTitle(styles.IconCheck + "  " + m.operation + " finished")

	text, color := m.summary()
	summaryBox := styles.StatusBox(color, 60, text)

	timeBar := lipgloss.NewStyle().
		Foreground(styles.ColorMuted).
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(styles.ColorMuted).
		Padding(0, 1).
		Width(60).
		Render(
			lipgloss.JoinHorizontal(
				lipgloss.Left,
				"Completed in: ",
				lipgloss.NewStyle().Foreground(styles.ColorInfo).Render(time.Since(m.startTime).Round(time.Millisecond).String()),
			),
		)

	helpBox := styles.HelpBar(60,
		styles.RenderKeyBinding("enter", "view results"),
		styles.RenderKeyBinding("esc", "menu"),
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, title, "", summaryBox, "", timeBar, helpBox),
	)
}

// Done reports whether the operation has finished.
func (m ProgressModel) Done() bool {
	return m.done
}

// tick returns a command that triggers a spinner animation update
func (m ProgressModel) tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// TickMsg is sent periodically to update the spinner
type TickMsg time.Time

// ProgressUpdateMsg updates the progress display
type ProgressUpdateMsg struct {
	Current     int
	Total       int
	CurrentFile string
}

// OperationDoneMsg carries the outcome of a run. Exactly one of Response,
// Batch and Err is set.
type OperationDoneMsg struct {
	Input    string
	Response *operations.Response
	Batch    *operations.BatchResult
	Err      error
}

// OperationCancelMsg signals that the user wants to cancel
type OperationCancelMsg struct{}

// ViewReportMsg signals request to view the report
type ViewReportMsg struct {
	Result OperationDoneMsg
}

// ConvertBatchProgress converts batch progress to progress message
func ConvertBatchProgress(update operations.ProgressUpdate) ProgressUpdateMsg {
	return ProgressUpdateMsg{
		Current:     update.Completed,
		Total:       update.Total,
		CurrentFile: update.Current,
	}
}

// WaitForProgress delivers the next update from updates. It yields nil
// once the channel is closed, which ends the subscription.
func WaitForProgress(updates <-chan operations.ProgressUpdate) tea.Cmd {
	return func() tea.Msg {
		update, ok := <-updates
		if !ok {
			return nil
		}
		return ConvertBatchProgress(update)
	}
}
