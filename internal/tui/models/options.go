package models

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petereon/fix-stl/internal/meshfix"
	"github.com/petereon/fix-stl/internal/tui/styles"
)

const (
	optionsMinJobs = 1
	optionsMaxJobs = 64
)

// Rows of the options screen.
const (
	rowJoin = iota
	rowFormat
	rowSkip
	rowJobs
	rowStart
)

// OptionsModel lets the user adjust repair options before a run starts.
// The jobs row is shown only for multi-file runs.
type OptionsModel struct {
	options  meshfix.Options
	jobs     int
	batch    bool
	targets  []string
	selected int
	width    int
	height   int
}

// OptionsConfirmMsg starts the repair of Targets with the chosen options.
type OptionsConfirmMsg struct {
	Targets []string
	Options meshfix.PartialOptions
	Jobs    int
}

// NewOptionsModel prepares the options screen for targets. batch selects
// the multi-file layout.
func NewOptionsModel(targets []string, batch bool, jobs, width, height int) OptionsModel {
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}
	if jobs < optionsMinJobs {
		jobs = optionsMinJobs
	}

	return OptionsModel{
		options: meshfix.DefaultOptions(),
		jobs:    jobs,
		batch:   batch,
		targets: targets,
		width:   width,
		height:  height,
	}
}

func (m OptionsModel) rows() []int {
	if m.batch {
		return []int{rowJoin, rowFormat, rowSkip, rowJobs, rowStart}
	}
	return []int{rowJoin, rowFormat, rowSkip, rowStart}
}

func (m OptionsModel) currentRow() int {
	return m.rows()[m.selected]
}

// Batch reports whether the options are for a multi-file run.
func (m OptionsModel) Batch() bool {
	return m.batch
}

func (m OptionsModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m OptionsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		styles.AdaptToTerminal(m.width, m.height)
		return m, nil

	case tea.KeyMsg:
		last := len(m.rows()) - 1
		switch msg.String() {
		case "up", "k":
			m.selected--
			if m.selected < 0 {
				m.selected = last
			}
		case "down", "j":
			m.selected++
			if m.selected > last {
				m.selected = 0
			}
		case "left", "h", "-", "_":
			if m.currentRow() == rowJobs && m.jobs > optionsMinJobs {
				m.jobs--
			}
		case "right", "l", "+", "=":
			if m.currentRow() == rowJobs && m.jobs < optionsMaxJobs {
				m.jobs++
			}
		case " ":
			m.toggle()
		case "enter":
			if m.currentRow() == rowStart {
				return m, m.confirm()
			}
			m.toggle()
		case "s":
			return m, m.confirm()
		case "esc", "q":
			return m, func() tea.Msg {
				return BackToMenuMsg{}
			}
		}
	}

	return m, nil
}

func (m *OptionsModel) toggle() {
	switch m.currentRow() {
	case rowJoin:
		m.options.JoinMultipleComponents = !m.options.JoinMultipleComponents
	case rowFormat:
		m.options.STLOutput = !m.options.STLOutput
	case rowSkip:
		m.options.SkipIfFixed = !m.options.SkipIfFixed
	}
}

func (m OptionsModel) confirm() tea.Cmd {
	msg := OptionsConfirmMsg{
		Targets: m.targets,
		Options: m.Partial(),
		Jobs:    m.jobs,
	}
	return func() tea.Msg {
		return msg
	}
}

// Partial returns the chosen options in request form.
func (m OptionsModel) Partial() meshfix.PartialOptions {
	return meshfix.PartialOptions{
		JoinMultipleComponents: meshfix.Bool(m.options.JoinMultipleComponents),
		STLOutput:              meshfix.Bool(m.options.STLOutput),
		SkipIfFixed:            meshfix.Bool(m.options.SkipIfFixed),
	}
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func (m OptionsModel) label(row int) string {
	switch row {
	case rowJoin:
		return "Join components: " + onOff(m.options.JoinMultipleComponents)
	case rowFormat:
		if m.options.STLOutput {
			return "Output format: STL"
		}
		return "Output format: OFF"
	case rowSkip:
		return "Skip meshes that need no repair: " + onOff(m.options.SkipIfFixed)
	case rowJobs:
		return fmt.Sprintf("Workers: %d", m.jobs)
	default:
		return "Start repair"
	}
}

// View renders the options screen.
func (m OptionsModel) View() string {
	title := styles.RenderTitle("🛠 Repair Options")

	target := ""
	switch {
	case len(m.targets) == 1:
		target = m.targets[0]
	case len(m.targets) > 1:
		target = fmt.Sprintf("%d meshes", len(m.targets))
	}
	subtitle := styles.RenderSubtitle(target)

	var rendered string
	rows := m.rows()
	for i, row := range rows {
		if i == m.selected {
			rendered += styles.SelectedListItemStyle.Render(styles.IconArrow+" "+m.label(row)) + "\n"
		} else {
			rendered += styles.ListItemStyle.Render("  "+m.label(row)) + "\n"
		}
		if i < len(rows)-1 {
			rendered += "\n"
		}
	}

	extension := m.options.Extension()
	note := styles.MutedStyle.Render(fmt.Sprintf("Outputs are written next to each input as <name>_fixed.%s.", extension))
	if m.batch {
		note += "\n" + styles.MutedStyle.Render("Repairs in the native library run one at a time unless native_concurrency allows more.")
	}

	optionsBox := styles.BorderStyle.
		Width(70).
		Render(rendered + "\n" + note)

	bindings := []string{
		styles.RenderKeyBinding("↑/↓", "navigate"),
		styles.RenderKeyBinding("space", "toggle"),
	}
	if m.batch {
		bindings = append(bindings, styles.RenderKeyBinding("+/-", "workers"))
	}
	bindings = append(bindings,
		styles.RenderKeyBinding("s", "start"),
		styles.RenderKeyBinding("esc", "back"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		subtitle,
		"",
		optionsBox,
		"",
		styles.HelpBar(70, bindings...),
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}
