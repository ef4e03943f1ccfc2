package models

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petereon/fix-stl/internal/tui/styles"
)

// Menu actions.
const (
	ActionRepair      = "repair"
	ActionMultiRepair = "multi-repair"
	ActionBatch       = "batch"
	ActionQuit        = "quit"
)

// MenuOption represents a selectable option in the menu
type MenuOption struct {
	Label       string
	Description string
	Action      string
}

// MenuModel represents the main menu state
type MenuModel struct {
	options  []MenuOption
	selected int
	width    int
	height   int
	quitting bool
}

// NewMenuModel creates the main menu.
func NewMenuModel() MenuModel {
	return MenuModel{
		options: []MenuOption{
			{
				Label:       "Repair a mesh",
				Description: "Fix a single STL or OFF file with MeshFix",
				Action:      ActionRepair,
			},
			{
				Label:       "Repair selected meshes",
				Description: "Pick several files and repair them together",
				Action:      ActionMultiRepair,
			},
			{
				Label:       "Repair a directory",
				Description: "Find and repair every mesh below a folder",
				Action:      ActionBatch,
			},
			{
				Label:       "Quit",
				Description: "Exit fixstl",
				Action:      ActionQuit,
			},
		},
		width:  80,
		height: 24,
	}
}

func (m MenuModel) Init() tea.Cmd {
	return nil
}

// Update moves the selection with wrap-around and emits MenuSelectMsg on enter.
func (m MenuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		styles.AdaptToTerminal(m.width, m.height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.options) - 1
			}

		case "down", "j":
			m.selected++
			if m.selected >= len(m.options) {
				m.selected = 0
			}

		case "enter":
			action := m.SelectedAction()
			if action == ActionQuit {
				m.quitting = true
				return m, tea.Quit
			}
			return m, func() tea.Msg {
				return MenuSelectMsg{Action: action}
			}

		case "q", "esc", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the menu
func (m MenuModel) View() string {
	if m.quitting {
		return styles.RenderInfo("Goodbye!") + "\n"
	}

	title := styles.RenderTitle(styles.IconMesh + " fixstl")
	subtitle := styles.RenderSubtitle("Repair triangle meshes with MeshFix")

	var options string
	for i, opt := range m.options {
		if i == m.selected {
			options += styles.SelectedListItemStyle.Render(styles.IconArrow+" "+opt.Label) + "\n"
		} else {
			options += styles.ListItemStyle.Render("  "+opt.Label) + "\n"
		}
		options += styles.MutedStyle.Render("  "+opt.Description) + "\n"
		if i < len(m.options)-1 {
			options += "\n"
		}
	}

	menuBox := styles.BorderStyle.
		Width(50).
		Render(options)

	helpBox := styles.HelpBar(50,
		styles.RenderKeyBinding("↑/↓", "navigate"),
		styles.RenderKeyBinding("enter", "select"),
		styles.RenderKeyBinding("q", "quit"),
	)

	content := lipgloss.JoinVertical(
		lipgloss.Left,
		title,
		subtitle,
		"",
		menuBox,
		"",
		helpBox,
	)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		content,
	)
}

// SelectedAction returns the action of the currently selected option
func (m MenuModel) SelectedAction() string {
	if m.selected >= 0 && m.selected < len(m.options) {
		return m.options[m.selected].Action
	}
	return ""
}

// MenuSelectMsg is sent when a menu option is selected
type MenuSelectMsg struct {
	Action string
}

// Quitting returns true if the user wants to quit
func (m MenuModel) Quitting() bool {
	return m.quitting
}
