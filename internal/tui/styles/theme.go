package styles

import (
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Semantic Colors
var (
	ColorError   = lipgloss.AdaptiveColor{Light: "#D1495B", Dark: "#E06C75"} // Red
	ColorWarning = lipgloss.AdaptiveColor{Light: "#C18401", Dark: "#E5C07B"} // Amber
	ColorSuccess = lipgloss.AdaptiveColor{Light: "#50A14F", Dark: "#98C379"} // Green
	ColorInfo    = lipgloss.AdaptiveColor{Light: "#4078F2", Dark: "#61AFEF"} // Blue
	ColorPrimary = lipgloss.AdaptiveColor{Light: "#0997B3", Dark: "#56B6C2"} // Teal
	ColorMuted   = lipgloss.AdaptiveColor{Light: "#696C77", Dark: "#5C6370"} // Gray
)

// Base Styles
var (
	BaseStyle = lipgloss.NewStyle().
			Padding(0, 1)

	ErrorStyle = BaseStyle.
			Foreground(ColorError).
			Bold(true)

	WarningStyle = BaseStyle.
			Foreground(ColorWarning)

	SuccessStyle = BaseStyle.
			Foreground(ColorSuccess).
			Bold(true)

	InfoStyle = BaseStyle.
			Foreground(ColorInfo)

	MutedStyle = BaseStyle.
			Foreground(ColorMuted)
)

// Component Styles
var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary).
			MarginBottom(1).
			Padding(0, 1)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			MarginBottom(1).
			Padding(0, 1)

	// BorderStyle frames lists and option panels.
	BorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2)

	ListItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	SelectedListItemStyle = ListItemStyle.
				Foreground(ColorPrimary).
				Bold(true)

	KeyStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary).
			Bold(true)

	DescStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// HelpBarStyle is the rule-topped strip holding key bindings at the
	// bottom of every screen.
	HelpBarStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(ColorMuted).
			Padding(1, 2)

	// DialogBoxStyle is narrowed by AdaptToTerminal on small terminals.
	DialogBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(1, 2).
			Width(60)
)

// Table Styles
var (
	TableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary).
				BorderStyle(lipgloss.NormalBorder()).
				BorderBottom(true).
				BorderForeground(ColorMuted)

	TableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// Outcome Styles
var (
	RepairedStyle = SuccessStyle
	FailedStyle   = ErrorStyle
	ErroredStyle  = WarningStyle
)

// Icon strings (using Unicode symbols)
const (
	IconCheck   = "✓"
	IconCross   = "✗"
	IconWarning = "⚠"
	IconInfo    = "ℹ"
	IconArrow   = "→"
	IconBullet  = "•"
	IconMesh    = "◭"
	IconSpinner = "⣾⣽⣻⢿⡿⣟⣯⣷"
)

// StatusBox renders text in a rounded box tinted with color.
func StatusBox(color lipgloss.AdaptiveColor, width int, text string) string {
	return lipgloss.NewStyle().
		Foreground(color).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color).
		Padding(1, 2).
		Width(width).
		Render(text)
}

// HelpBar renders key bindings in the bottom help strip.
func HelpBar(width int, bindings ...string) string {
	return HelpBarStyle.Width(width).Render(strings.Join(bindings, "  "))
}

func RenderTitle(text string) string {
	return TitleStyle.Render(text)
}

func RenderSubtitle(text string) string {
	return SubtitleStyle.Render(text)
}

// RenderError renders an error message with icon
func RenderError(text string) string {
	return ErrorStyle.Render(IconCross + " " + text)
}

// RenderWarning renders a warning message with icon
func RenderWarning(text string) string {
	return WarningStyle.Render(IconWarning + " " + text)
}

// RenderSuccess renders a success message with icon
func RenderSuccess(text string) string {
	return SuccessStyle.Render(IconCheck + " " + text)
}

// RenderInfo renders an info message with icon
func RenderInfo(text string) string {
	return InfoStyle.Render(IconInfo + " " + text)
}

// RenderKeyBinding renders a keyboard shortcut
func RenderKeyBinding(key, desc string) string {
	return KeyStyle.Render(key) + " " + DescStyle.Render(desc)
}

// RenderTable renders a simple table with headers and rows
func RenderTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				if w := lipgloss.Width(cell); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	// Width includes padding.
	pad := TableCellStyle.GetHorizontalPadding()
	for i := range widths {
		widths[i] += pad
	}

	var headerCells []string
	for i, h := range headers {
		headerCells = append(headerCells, TableHeaderStyle.Width(widths[i]).Render(h))
	}
	header := lipgloss.JoinHorizontal(lipgloss.Top, headerCells...)

	rowStrs := []string{header}
	for _, row := range rows {
		var cells []string
		for i, cell := range row {
			if i < len(widths) {
				cells = append(cells, TableCellStyle.Width(widths[i]).Render(cell))
			}
		}
		rowStrs = append(rowStrs, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	return lipgloss.JoinVertical(lipgloss.Left, rowStrs...)
}

// RenderHyperlink wraps text in an OSC 8 link to the file at path.
// Terminals without link support show the text alone.
func RenderHyperlink(path, text string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return text
	}
	return ansi.SetHyperlink("file://"+filepath.ToSlash(abs)) + text + ansi.ResetHyperlink()
}

// AdaptToTerminal adjusts styles based on terminal width and height
func AdaptToTerminal(width, height int) {
	if width < 70 {
		DialogBoxStyle = DialogBoxStyle.Width(width - 10)
	}
}
