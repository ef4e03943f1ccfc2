// Package tui is the interactive front end: pick meshes, choose repair
// options, watch progress and inspect the results.
package tui

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/petereon/fix-stl/internal/operations"
	"github.com/petereon/fix-stl/internal/tui/models"
)

// Services are the collaborators the TUI drives.
type Services struct {
	Repair *operations.RepairOperation
	// Reveal shows a file in the platform file manager.
	Reveal func(ctx context.Context, path string) error
	// Workers is the default worker count for multi-file runs.
	Workers int
}

// AppState represents the current state of the application
type AppState int

const (
	StateMenu AppState = iota
	StateBrowser
	StateOptions
	StateProgress
	StateReport
)

// App is the main TUI application coordinator
type App struct {
	svc           Services
	state         AppState
	menuModel     models.MenuModel
	browserModel  models.BrowserModel
	optionsModel  models.OptionsModel
	progressModel models.ProgressModel
	reportModel   models.ReportModel
	startDir      string
	width         int
	height        int

	ctx      context.Context
	shutdown context.CancelFunc
	// cancel stops the running operation; nil when idle.
	cancel  context.CancelFunc
	updates <-chan operations.ProgressUpdate
}

// NewApp creates a new TUI application
func NewApp(svc Services) App {
	ctx, cancel := context.WithCancel(context.Background())
	if svc.Workers < 1 {
		svc.Workers = 1
	}
	cwd, _ := os.Getwd()

	return App{
		svc:       svc,
		state:     StateMenu,
		menuModel: models.NewMenuModel(),
		startDir:  cwd,
		ctx:       ctx,
		shutdown:  cancel,
	}
}

func (a App) Init() tea.Cmd {
	return a.menuModel.Init()
}

// Update handles messages and updates the application state
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = size.Width
		a.height = size.Height
	}

	switch a.state {
	case StateMenu:
		return a.updateMenu(msg)
	case StateBrowser:
		return a.updateBrowser(msg)
	case StateOptions:
		return a.updateOptions(msg)
	case StateProgress:
		return a.updateProgress(msg)
	case StateReport:
		return a.updateReport(msg)
	}

	return a, nil
}

// View renders the current view based on state
func (a App) View() string {
	switch a.state {
	case StateMenu:
		return a.menuModel.View()
	case StateBrowser:
		return a.browserModel.View()
	case StateOptions:
		return a.optionsModel.View()
	case StateProgress:
		return a.progressModel.View()
	case StateReport:
		return a.reportModel.View()
	}

	return "Unknown state"
}

func (a App) toMenu() (tea.Model, tea.Cmd) {
	a.state = StateMenu
	return a, nil
}

func (a App) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(models.MenuSelectMsg); ok {
		switch msg.Action {
		case models.ActionRepair:
			a.browserModel = models.NewBrowserModel(a.startDir, a.width, a.height)
		case models.ActionMultiRepair:
			a.browserModel = models.NewMultiSelectBrowserModel(a.startDir, a.width, a.height)
		case models.ActionBatch:
			a.browserModel = models.NewBatchBrowserModel(a.startDir, a.width, a.height)
		default:
			return a, nil
		}
		a.state = StateBrowser
		return a, a.browserModel.Init()
	}

	m, cmd := a.menuModel.Update(msg)
	a.menuModel = m.(models.MenuModel)
	return a, cmd
}

func (a App) updateBrowser(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case models.FileSelectMsg:
		return a.showOptions([]string{msg.Path}, false)

	case models.MultiFileSelectMsg:
		return a.showOptions(msg.Paths, true)

	case models.DirectorySelectMsg:
		files, err := operations.FindFiles(msg.Path, operations.FindFilesOptions{Recursive: true, MaxDepth: -1})
		if err == nil && len(files) == 0 {
			err = fmt.Errorf("no meshes found in %s", msg.Path)
		}
		if err != nil {
			return a.showReport(models.OperationDoneMsg{Input: msg.Path, Err: err})
		}
		return a.showOptions(files, true)

	case models.BackToMenuMsg:
		return a.toMenu()
	}

	m, cmd := a.browserModel.Update(msg)
	a.browserModel = m.(models.BrowserModel)
	return a, cmd
}

func (a App) showOptions(targets []string, batch bool) (tea.Model, tea.Cmd) {
	a.optionsModel = models.NewOptionsModel(targets, batch, a.svc.Workers, a.width, a.height)
	a.state = StateOptions
	return a, a.optionsModel.Init()
}

func (a App) updateOptions(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case models.OptionsConfirmMsg:
		if a.optionsModel.Batch() {
			return a.startBatch(msg)
		}
		return a.startRepair(msg)

	case models.BackToMenuMsg:
		return a.toMenu()
	}

	m, cmd := a.optionsModel.Update(msg)
	a.optionsModel = m.(models.OptionsModel)
	return a, cmd
}

func (a App) updateProgress(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case models.OperationDoneMsg:
		a.finishRun()
		if msg.Batch == nil {
			return a.showReport(msg)
		}

	case models.ProgressUpdateMsg:
		m, cmd := a.progressModel.Update(msg)
		a.progressModel = m.(models.ProgressModel)
		if a.updates != nil {
			cmd = tea.Batch(cmd, models.WaitForProgress(a.updates))
		}
		return a, cmd

	case models.OperationCancelMsg:
		// Repairs already inside MeshFix finish; the done message follows.
		if a.cancel != nil {
			a.cancel()
		}
		return a, nil

	case models.ViewReportMsg:
		return a.showReport(msg.Result)

	case models.BackToMenuMsg:
		return a.toMenu()
	}

	m, cmd := a.progressModel.Update(msg)
	a.progressModel = m.(models.ProgressModel)
	return a, cmd
}

func (a *App) finishRun() {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.updates = nil
}

func (a App) showReport(result models.OperationDoneMsg) (tea.Model, tea.Cmd) {
	a.reportModel = models.NewReportModel(result, a.width, a.height)
	a.state = StateReport
	return a, a.reportModel.Init()
}

func (a App) updateReport(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case models.RevealRequestMsg:
		return a, a.reveal(msg.Path)

	case models.BackToMenuMsg:
		return a.toMenu()
	}

	m, cmd := a.reportModel.Update(msg)
	a.reportModel = m.(models.ReportModel)
	return a, cmd
}

func (a App) reveal(path string) tea.Cmd {
	reveal := a.svc.Reveal
	ctx := a.ctx
	return func() tea.Msg {
		if reveal == nil {
			return models.RevealResultMsg{Path: path, Err: fmt.Errorf("revealing files is not available")}
		}
		return models.RevealResultMsg{Path: path, Err: reveal(ctx, path)}
	}
}

// startRepair runs a single repair in the background.
func (a App) startRepair(msg models.OptionsConfirmMsg) (tea.Model, tea.Cmd) {
	input := msg.Targets[0]
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel

	a.progressModel = models.NewProgressModel("Repairing", input, 1, a.width, a.height)
	a.state = StateProgress

	op := a.svc.Repair
	options := msg.Options
	return a, tea.Batch(
		a.progressModel.Init(),
		func() tea.Msg {
			resp, err := op.Execute(ctx, operations.Request{InputPath: input, Options: &options})
			return models.OperationDoneMsg{Input: input, Response: resp, Err: err}
		},
	)
}

// startBatch runs a batch in the background and streams its progress.
func (a App) startBatch(msg models.OptionsConfirmMsg) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancel = cancel

	options := msg.Options
	config := operations.DefaultBatchConfig()
	config.NumWorkers = msg.Jobs
	config.Options = &options
	processor := operations.NewBatchProcessor(ctx, a.svc.Repair, config)
	a.updates = processor.ProgressChannel()

	label := fmt.Sprintf("%d meshes", len(msg.Targets))
	a.progressModel = models.NewProgressModel("Batch Repair", label, len(msg.Targets), a.width, a.height)
	a.state = StateProgress

	files := msg.Targets
	return a, tea.Batch(
		a.progressModel.Init(),
		models.WaitForProgress(a.updates),
		func() tea.Msg {
			start := time.Now()
			results := processor.Execute(files)
			batch := operations.AggregateResults(results, time.Since(start))
			return models.OperationDoneMsg{Input: label, Batch: &batch}
		},
	)
}

// Run starts the TUI application
func Run(svc Services) error {
	app := NewApp(svc)
	defer app.shutdown()

	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running program: %w", err)
	}

	return nil
}
