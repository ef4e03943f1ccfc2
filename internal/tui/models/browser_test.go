package models

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// createTestDirectory builds:
//
//	subdir/inner.stl
//	.hidden/
//	.secret.stl
//	a.stl  B.off  a_fixed.stl  notes.txt
func createTestDirectory(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	for _, sub := range []string{"subdir", ".hidden"} {
		if err := os.Mkdir(filepath.Join(dir, sub), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, name := range []string{"a.stl", "B.off", "a_fixed.stl", "notes.txt", ".secret.stl", filepath.Join("subdir", "inner.stl")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("solid x\nendsolid x\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func itemNames(items []FileItem) []string {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = item.Name
	}
	return names
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func indexOf(t *testing.T, m BrowserModel, name string) int {
	t.Helper()
	for i, item := range m.items {
		if item.Name == name {
			return i
		}
	}
	t.Fatalf("item %q not listed in %v", name, itemNames(m.items))
	return -1
}

func TestNewBrowserModel(t *testing.T) {
	tmpDir := t.TempDir()
	m := NewBrowserModel(tmpDir, 80, 24)

	if m.currentDir != tmpDir {
		t.Errorf("Expected currentDir to be %s, got %s", tmpDir, m.currentDir)
	}
	if m.selected != 0 {
		t.Error("Expected selected to be 0")
	}
	if !reflect.DeepEqual(m.filterExts, []string{".stl", ".off"}) {
		t.Errorf("Expected .stl and .off filters, got %v", m.filterExts)
	}
}

func TestNewBrowserModel_EmptyPath(t *testing.T) {
	m := NewBrowserModel("", 80, 24)

	cwd, _ := os.Getwd()
	if m.currentDir != cwd {
		t.Errorf("Expected currentDir to be %s, got %s", cwd, m.currentDir)
	}
}

func TestBrowserModel_loadDirectory(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewBrowserModel(tmpDir, 80, 24)

	want := []string{"..", "subdir", "a.stl", "a_fixed.stl", "B.off"}
	if got := itemNames(m.items); !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if !m.items[indexOf(t, m, "a_fixed.stl")].Repaired {
		t.Error("Expected a_fixed.stl to be marked as repaired")
	}
	if m.items[indexOf(t, m, "a.stl")].Repaired {
		t.Error("Expected a.stl not to be marked as repaired")
	}
}

func TestBrowserModel_Update_ToggleHidden(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewBrowserModel(tmpDir, 80, 24)

	updated, _ := m.Update(key("."))
	m = updated.(BrowserModel)

	if !m.showHidden {
		t.Fatal("Expected showHidden to be true")
	}
	names := strings.Join(itemNames(m.items), ",")
	if !strings.Contains(names, ".hidden") || !strings.Contains(names, ".secret.stl") {
		t.Errorf("Expected hidden entries, got %s", names)
	}
}

func TestBrowserModel_Update_Navigation(t *testing.T) {
	tmpDir := createTestDirectory(t)

	tests := []struct {
		name     string
		key      tea.KeyMsg
		initial  int
		expected int
	}{
		{"down", key("down"), 0, 1},
		{"j", key("j"), 0, 1},
		{"up", key("up"), 1, 0},
		{"k", key("k"), 1, 0},
		{"down wraps", key("down"), 4, 0},
		{"up wraps", key("up"), 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewBrowserModel(tmpDir, 80, 24)
			m.selected = tt.initial

			updated, _ := m.Update(tt.key)
			m = updated.(BrowserModel)

			if m.selected != tt.expected {
				t.Errorf("Expected selected to be %d, got %d", tt.expected, m.selected)
			}
		})
	}
}

func TestBrowserModel_Update_EnterDirectory(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewBrowserModel(tmpDir, 80, 24)
	m.selected = indexOf(t, m, "subdir")

	updated, cmd := m.Update(key("enter"))
	m = updated.(BrowserModel)

	if cmd != nil {
		t.Error("Expected no command when opening a directory")
	}
	if m.currentDir != filepath.Join(tmpDir, "subdir") {
		t.Errorf("Expected to be in subdir, got %s", m.currentDir)
	}
	if got := itemNames(m.items); !reflect.DeepEqual(got, []string{"..", "inner.stl"}) {
		t.Errorf("Unexpected listing %v", got)
	}
}

func TestBrowserModel_Update_SelectFile(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewBrowserModel(tmpDir, 80, 24)
	m.selected = indexOf(t, m, "a.stl")

	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("Expected a selection command")
	}

	msg, ok := cmd().(FileSelectMsg)
	if !ok {
		t.Fatal("Expected FileSelectMsg")
	}
	if msg.Path != filepath.Join(tmpDir, "a.stl") {
		t.Errorf("Expected a.stl, got %s", msg.Path)
	}
}

func TestBrowserModel_Update_BatchEnterDirectory(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewBatchBrowserModel(tmpDir, 80, 24)
	m.selected = indexOf(t, m, "subdir")

	_, cmd := m.Update(key("enter"))
	if cmd == nil {
		t.Fatal("Expected a selection command")
	}

	msg, ok := cmd().(DirectorySelectMsg)
	if !ok {
		t.Fatal("Expected DirectorySelectMsg")
	}
	if msg.Path != filepath.Join(tmpDir, "subdir") {
		t.Errorf("Expected subdir, got %s", msg.Path)
	}
}

func TestBrowserModel_Update_BatchParentEntryNavigates(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewBatchBrowserModel(filepath.Join(tmpDir, "subdir"), 80, 24)
	m.selected = indexOf(t, m, "..")

	updated, cmd := m.Update(key("enter"))
	m = updated.(BrowserModel)

	if cmd != nil {
		t.Error("Expected '..' to navigate rather than select")
	}
	if m.currentDir != tmpDir {
		t.Errorf("Expected %s, got %s", tmpDir, m.currentDir)
	}
}

func TestBrowserModel_Update_BatchOpenDirectory(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewBatchBrowserModel(tmpDir, 80, 24)
	m.selected = indexOf(t, m, "subdir")

	updated, _ := m.Update(key("l"))
	m = updated.(BrowserModel)

	if m.currentDir != filepath.Join(tmpDir, "subdir") {
		t.Errorf("Expected to be in subdir, got %s", m.currentDir)
	}
}

func TestBrowserModel_Update_Parent(t *testing.T) {
	for _, k := range []string{"backspace", "h"} {
		t.Run(k, func(t *testing.T) {
			tmpDir := createTestDirectory(t)
			m := NewBrowserModel(filepath.Join(tmpDir, "subdir"), 80, 24)

			updated, _ := m.Update(key(k))
			m = updated.(BrowserModel)

			if m.currentDir != tmpDir {
				t.Errorf("Expected %s, got %s", tmpDir, m.currentDir)
			}
		})
	}
}

func TestBrowserModel_MultiSelect(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewMultiSelectBrowserModel(tmpDir, 80, 24)
	m.selected = indexOf(t, m, "B.off")

	updated, _ := m.Update(key("space"))
	m = updated.(BrowserModel)
	m.selected = indexOf(t, m, "a.stl")
	updated, cmd := m.Update(key("enter"))
	m = updated.(BrowserModel)

	if cmd != nil {
		t.Error("Expected enter to toggle rather than select in multi-select mode")
	}

	_, cmd = m.Update(key("s"))
	if cmd == nil {
		t.Fatal("Expected submit command")
	}
	msg, ok := cmd().(MultiFileSelectMsg)
	if !ok {
		t.Fatal("Expected MultiFileSelectMsg")
	}

	want := []string{filepath.Join(tmpDir, "B.off"), filepath.Join(tmpDir, "a.stl")}
	if !reflect.DeepEqual(msg.Paths, want) {
		t.Errorf("Expected %v, got %v", want, msg.Paths)
	}
}

func TestBrowserModel_MultiSelect_AllAndClear(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewMultiSelectBrowserModel(tmpDir, 80, 24)

	updated, _ := m.Update(key("a"))
	m = updated.(BrowserModel)
	if got := len(m.SelectedFiles()); got != 3 {
		t.Errorf("Expected 3 selected files, got %d", got)
	}

	updated, _ = m.Update(key("A"))
	m = updated.(BrowserModel)
	if got := len(m.SelectedFiles()); got != 0 {
		t.Errorf("Expected selection cleared, got %d", got)
	}
}

func TestBrowserModel_SubmitWithoutSelection(t *testing.T) {
	m := NewMultiSelectBrowserModel(createTestDirectory(t), 80, 24)

	if _, cmd := m.Update(key("s")); cmd != nil {
		t.Error("Expected no command without a selection")
	}
}

func TestBrowserModel_SpaceIgnoredOutsideMultiSelect(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewBrowserModel(tmpDir, 80, 24)
	m.selected = indexOf(t, m, "a.stl")

	updated, _ := m.Update(key("space"))
	m = updated.(BrowserModel)

	if len(m.selectedFiles) != 0 {
		t.Error("Expected no selection in single-file mode")
	}
}

func TestBrowserModel_Update_BackToMenu(t *testing.T) {
	for _, k := range []string{"esc", "q"} {
		t.Run(k, func(t *testing.T) {
			m := NewBrowserModel(t.TempDir(), 80, 24)

			_, cmd := m.Update(key(k))
			if cmd == nil {
				t.Fatal("Expected command")
			}
			if _, ok := cmd().(BackToMenuMsg); !ok {
				t.Error("Expected BackToMenuMsg")
			}
		})
	}
}

func TestBrowserModel_Update_CtrlC(t *testing.T) {
	m := NewBrowserModel(t.TempDir(), 80, 24)

	_, cmd := m.Update(key("ctrl+c"))
	if cmd == nil {
		t.Fatal("Expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.QuitMsg")
	}
}

func TestBrowserModel_Update_WindowSize(t *testing.T) {
	m := NewBrowserModel(t.TempDir(), 80, 24)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = updated.(BrowserModel)

	if m.width != 120 || m.height != 40 {
		t.Errorf("Expected 120x40, got %dx%d", m.width, m.height)
	}
	if m.viewportSize != 25 {
		t.Errorf("Expected viewport 25, got %d", m.viewportSize)
	}
}

func TestBrowserModel_updateViewport(t *testing.T) {
	m := BrowserModel{viewportSize: 5}

	m.selected = 7
	m.updateViewport()
	if m.viewportTop != 3 {
		t.Errorf("Expected viewportTop 3, got %d", m.viewportTop)
	}

	m.selected = 1
	m.updateViewport()
	if m.viewportTop != 1 {
		t.Errorf("Expected viewportTop 1, got %d", m.viewportTop)
	}
}

func TestBrowserModel_SelectedPath_OutOfBounds(t *testing.T) {
	m := NewBrowserModel(t.TempDir(), 80, 24)
	m.selected = 999

	if path := m.SelectedPath(); path != "" {
		t.Errorf("Expected empty path, got %s", path)
	}
}

func TestBrowserModel_ReadError(t *testing.T) {
	m := NewBrowserModel(filepath.Join(t.TempDir(), "missing"), 80, 24)

	if !strings.Contains(m.errorMsg, "Error reading directory") {
		t.Errorf("Expected read error, got %q", m.errorMsg)
	}
	if !strings.Contains(ansi.Strip(m.View()), "Error reading directory") {
		t.Error("Expected error in view")
	}
}

func TestBrowserModel_View(t *testing.T) {
	tmpDir := createTestDirectory(t)
	m := NewMultiSelectBrowserModel(tmpDir, 100, 40)
	m.selected = indexOf(t, m, "a.stl")
	updated, _ := m.Update(key("space"))
	m = updated.(BrowserModel)

	view := ansi.Strip(m.View())

	for _, want := range []string{"Choose meshes", "[✓]", "a.stl", "(repaired)", ".stl, .off", "Selected: 1"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q", want)
		}
	}
	if strings.Contains(view, "notes.txt") {
		t.Error("Expected non-mesh files to be hidden")
	}
}

func TestBrowserModel_Init(t *testing.T) {
	if cmd := NewBrowserModel(t.TempDir(), 80, 24).Init(); cmd != nil {
		t.Error("Expected Init to return nil command")
	}
}
