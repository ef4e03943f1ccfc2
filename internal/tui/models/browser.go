package models

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/petereon/fix-stl/internal/operations"
	"github.com/petereon/fix-stl/internal/tui/styles"
)

// FileItem represents a file or directory in the browser
type FileItem struct {
	Name     string
	Path     string
	IsDir    bool
	Size     int64
	Repaired bool // a *_fixed output from an earlier run
}

// BrowserModel lists directories and mesh files below a working directory.
type BrowserModel struct {
	currentDir    string
	items         []FileItem
	selected      int
	selectedFiles map[string]bool
	width         int
	height        int
	errorMsg      string
	showHidden    bool
	filterExts    []string
	mode          BrowserMode
	viewportTop   int
	viewportSize  int
}

// BrowserMode configures how selection behaves.
type BrowserMode int

const (
	// BrowserModeFile selects one mesh and navigates directories.
	BrowserModeFile BrowserMode = iota
	// BrowserModeBatch selects a directory to repair as a whole.
	BrowserModeBatch
	// BrowserModeMultiSelect collects several meshes.
	BrowserModeMultiSelect
)

// NewBrowserModel creates a new file browser starting at the given directory
func NewBrowserModel(startDir string, width, height int) BrowserModel {
	return newBrowserModel(startDir, BrowserModeFile, width, height)
}

// NewBatchBrowserModel creates a browser configured for directory selection.
func NewBatchBrowserModel(startDir string, width, height int) BrowserModel {
	return newBrowserModel(startDir, BrowserModeBatch, width, height)
}

// NewMultiSelectBrowserModel creates a browser configured for multiple file selection.
func NewMultiSelectBrowserModel(startDir string, width, height int) BrowserModel {
	return newBrowserModel(startDir, BrowserModeMultiSelect, width, height)
}

func newBrowserModel(startDir string, mode BrowserMode, width, height int) BrowserModel {
	if startDir == "" {
		startDir, _ = os.Getwd()
	}
	if width == 0 {
		width = 80
	}
	if height == 0 {
		height = 24
	}

	m := BrowserModel{
		currentDir:    startDir,
		selectedFiles: make(map[string]bool),
		width:         width,
		height:        height,
		filterExts:    operations.DefaultExtensions,
		mode:          mode,
		viewportSize:  browserViewport(height),
	}

	m.loadDirectory()
	return m
}

// browserViewport leaves room for the title, path, status and help rows.
func browserViewport(height int) int {
	if size := height - 15; size >= 5 {
		return size
	}
	return 5
}

func (m BrowserModel) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state
func (m BrowserModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewportSize = browserViewport(m.height)
		styles.AdaptToTerminal(m.width, m.height)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			m.selected--
			if m.selected < 0 {
				m.selected = len(m.items) - 1
			}
			m.updateViewport()

		case "down", "j":
			m.selected++
			if m.selected >= len(m.items) {
				m.selected = 0
			}
			m.updateViewport()

		case "enter":
			item, ok := m.current()
			if !ok {
				break
			}
			if item.IsDir {
				if m.mode == BrowserModeBatch && item.Name != ".." {
					return m, func() tea.Msg {
						return DirectorySelectMsg{Path: item.Path}
					}
				}
				m.enter(item.Path)
				break
			}
			if m.mode == BrowserModeMultiSelect {
				m.toggle(item)
				break
			}
			return m, func() tea.Msg {
				return FileSelectMsg{Path: item.Path}
			}

		case "right", "l":
			if item, ok := m.current(); ok && item.IsDir {
				m.enter(item.Path)
			}

		case "backspace", "h", "left":
			parent := filepath.Dir(m.currentDir)
			if parent != m.currentDir {
				m.enter(parent)
			}

		case " ":
			if m.mode != BrowserModeMultiSelect {
				break
			}
			if item, ok := m.current(); ok && !item.IsDir {
				m.toggle(item)
				if m.selected < len(m.items)-1 {
					m.selected++
				}
				m.updateViewport()
			}

		case "a":
			if m.mode == BrowserModeMultiSelect {
				for _, item := range m.items {
					if !item.IsDir {
						m.selectedFiles[item.Path] = true
					}
				}
			}

		case "A":
			m.selectedFiles = make(map[string]bool)

		case "s":
			if paths := m.SelectedFiles(); len(paths) > 0 {
				return m, func() tea.Msg {
					return MultiFileSelectMsg{Paths: paths}
				}
			}

		case ".":
			m.showHidden = !m.showHidden
			m.enter(m.currentDir)

		case "esc", "q":
			return m, func() tea.Msg {
				return BackToMenuMsg{}
			}

		case "ctrl+c":
			return m, tea.Quit
		}
	}

	return m, nil
}

func (m BrowserModel) current() (FileItem, bool) {
	if m.selected >= 0 && m.selected < len(m.items) {
		return m.items[m.selected], true
	}
	return FileItem{}, false
}

func (m *BrowserModel) enter(dir string) {
	m.currentDir = dir
	m.selected = 0
	m.viewportTop = 0
	m.loadDirectory()
}

func (m *BrowserModel) toggle(item FileItem) {
	if m.selectedFiles[item.Path] {
		delete(m.selectedFiles, item.Path)
	} else {
		m.selectedFiles[item.Path] = true
	}
}

// View renders the file browser
func (m BrowserModel) View() string {
	title := styles.RenderTitle("📂 " + m.titleText())

	pathBox := lipgloss.NewStyle().
		Foreground(styles.ColorInfo).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(styles.ColorMuted).
		Padding(0, 1).
		Width(m.width - 8).
		Render(m.currentDir)

	var errorDisplay string
	if m.errorMsg != "" {
		errorDisplay = lipgloss.NewStyle().
			Foreground(styles.ColorError).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(styles.ColorError).
			Padding(0, 1).
			Width(m.width - 8).
			Render(styles.IconCross + " " + m.errorMsg)
	}

	var itemsDisplay string
	visibleEnd := min(m.viewportTop+m.viewportSize, len(m.items))
	for i := m.viewportTop; i < visibleEnd; i++ {
		item := m.items[i]

		icon := styles.IconMesh
		if item.IsDir {
			icon = "📁"
		}

		checkbox := ""
		if m.mode == BrowserModeMultiSelect {
			switch {
			case m.selectedFiles[item.Path]:
				checkbox = "[✓] "
			case item.IsDir:
				checkbox = "    "
			default:
				checkbox = "[ ] "
			}
		}

		line := checkbox + icon + " " + item.Name
		if item.IsDir {
			line += "/"
		}
		if item.Repaired {
			line += styles.MutedStyle.Render("(repaired)")
		}

		if i == m.selected {
			itemsDisplay += styles.SelectedListItemStyle.Render(styles.IconArrow+" "+line) + "\n"
		} else {
			itemsDisplay += styles.ListItemStyle.Render("  "+line) + "\n"
		}
	}
	if len(m.items) == 0 && m.errorMsg == "" {
		itemsDisplay = styles.MutedStyle.Render("No meshes here")
	}

	fileListBox := styles.BorderStyle.
		Width(m.width - 8).
		Height(m.viewportSize + 2).
		Render(itemsDisplay)

	var scrollInfo string
	if len(m.items) > m.viewportSize {
		switch {
		case m.viewportTop > 0 && m.viewportTop+m.viewportSize < len(m.items):
			scrollInfo = styles.MutedStyle.Render("↑ more above and below ↓")
		case m.viewportTop > 0:
			scrollInfo = styles.MutedStyle.Render("↑ more above")
		default:
			scrollInfo = styles.MutedStyle.Render("↓ more below")
		}
	}

	statusParts := []string{
		"Showing: ",
		lipgloss.NewStyle().Foreground(styles.ColorInfo).Render(strings.Join(m.filterExts, ", ")),
		"  │  ",
		"Items: ",
		lipgloss.NewStyle().Foreground(styles.ColorInfo).Render(fmt.Sprintf("%d", len(m.items))),
	}
	if len(m.selectedFiles) > 0 {
		statusParts = append(statusParts,
			"  │  ",
			"Selected: ",
			lipgloss.NewStyle().Foreground(styles.ColorSuccess).Render(fmt.Sprintf("%d", len(m.selectedFiles))),
		)
	}

	filterInfo := lipgloss.NewStyle().
		Foreground(styles.ColorMuted).
		Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(styles.ColorMuted).
		Padding(0, 1).
		Width(m.width - 8).
		Render(lipgloss.JoinHorizontal(lipgloss.Left, statusParts...))

	helpBox := styles.HelpBarStyle.
		Padding(1, 1).
		Width(m.width - 8).
		Render(m.helpText())

	parts := []string{title, pathBox}
	if errorDisplay != "" {
		parts = append(parts, "", errorDisplay)
	}
	parts = append(parts, "", fileListBox)
	if scrollInfo != "" {
		parts = append(parts, scrollInfo)
	}
	parts = append(parts, filterInfo, helpBox)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Top,
		lipgloss.JoinVertical(lipgloss.Left, parts...),
	)
}

func (m BrowserModel) titleText() string {
	switch m.mode {
	case BrowserModeBatch:
		return "Choose a directory"
	case BrowserModeMultiSelect:
		return "Choose meshes"
	default:
		return "Choose a mesh"
	}
}

func (m BrowserModel) helpText() string {
	nav := styles.RenderKeyBinding("↑/↓/j/k", "navigate") + "  " +
		styles.RenderKeyBinding("backspace/h", "parent") + "  " +
		styles.RenderKeyBinding(".", "toggle hidden") + "  " +
		styles.RenderKeyBinding("esc", "back")

	var actions string
	switch m.mode {
	case BrowserModeBatch:
		actions = styles.RenderKeyBinding("enter", "repair dir") + "  " +
			styles.RenderKeyBinding("l/right", "open dir")
	case BrowserModeMultiSelect:
		actions = styles.RenderKeyBinding("space", "toggle") + "  " +
			styles.RenderKeyBinding("a", "select all") + "  " +
			styles.RenderKeyBinding("A", "clear") + "  " +
			styles.RenderKeyBinding("s", "repair selected")
	default:
		actions = styles.RenderKeyBinding("enter", "repair/open")
	}

	return nav + "\n" + actions
}

// loadDirectory lists subdirectories then matching mesh files, each sorted
// case-insensitively.
func (m *BrowserModel) loadDirectory() {
	m.items = []FileItem{}
	m.errorMsg = ""

	if m.currentDir != "/" && m.currentDir != filepath.VolumeName(m.currentDir)+string(filepath.Separator) {
		m.items = append(m.items, FileItem{
			Name:  "..",
			Path:  filepath.Dir(m.currentDir),
			IsDir: true,
		})
	}

	entries, err := os.ReadDir(m.currentDir)
	if err != nil {
		m.errorMsg = "Error reading directory: " + err.Error()
		return
	}

	var dirs, files []FileItem
	for _, entry := range entries {
		name := entry.Name()
		if !m.showHidden && strings.HasPrefix(name, ".") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		item := FileItem{
			Name:  name,
			Path:  filepath.Join(m.currentDir, name),
			IsDir: entry.IsDir(),
			Size:  info.Size(),
		}

		if entry.IsDir() {
			dirs = append(dirs, item)
		} else if m.matchesFilter(name) {
			item.Repaired = operations.IsRepairedOutput(name)
			files = append(files, item)
		}
	}

	byName := func(items []FileItem) func(i, j int) bool {
		return func(i, j int) bool {
			return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
		}
	}
	sort.Slice(dirs, byName(dirs))
	sort.Slice(files, byName(files))

	m.items = append(m.items, dirs...)
	m.items = append(m.items, files...)
}

func (m *BrowserModel) matchesFilter(filename string) bool {
	if len(m.filterExts) == 0 {
		return true
	}

	ext := strings.ToLower(filepath.Ext(filename))
	for _, filterExt := range m.filterExts {
		if ext == strings.ToLower(filterExt) {
			return true
		}
	}
	return false
}

// updateViewport adjusts the viewport to keep the selected item visible
func (m *BrowserModel) updateViewport() {
	if m.selected < m.viewportTop {
		m.viewportTop = m.selected
	}
	if m.selected >= m.viewportTop+m.viewportSize {
		m.viewportTop = m.selected - m.viewportSize + 1
	}
	if m.viewportTop < 0 {
		m.viewportTop = 0
	}
}

// SelectedPath returns the path of the currently selected item
func (m BrowserModel) SelectedPath() string {
	if item, ok := m.current(); ok {
		return item.Path
	}
	return ""
}

// SelectedFiles returns the marked files in path order.
func (m BrowserModel) SelectedFiles() []string {
	paths := make([]string, 0, len(m.selectedFiles))
	for path := range m.selectedFiles {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// FileSelectMsg is sent when a file is selected
type FileSelectMsg struct {
	Path string
}

// MultiFileSelectMsg is sent when multiple files are selected
type MultiFileSelectMsg struct {
	Paths []string
}

// DirectorySelectMsg is sent when a directory is selected for batch operations.
type DirectorySelectMsg struct {
	Path string
}

// BackToMenuMsg is sent when the user wants to go back to the menu
type BackToMenuMsg struct{}
