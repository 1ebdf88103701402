package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/config"
	"github.com/studyflow/studyflow/internal/export"
	"github.com/studyflow/studyflow/internal/logger"
	"github.com/studyflow/studyflow/internal/state"
	"github.com/studyflow/studyflow/internal/timer"
)

// App is the root Bubble Tea model.
type App struct {
	store   *state.Store
	cfg     *config.Config
	machine *timer.Machine
	width   int
	height  int

	authed        bool
	checkingAuth  bool
	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int

	login     loginModel
	dashboard dashboardModel
	timerView timerModel
	agenda    agendaModel
	sessions  sessionsModel
	notes     notesModel
	subjects  subjectsModel
	reports   reportsModel
	settings  settingsModel

	help      help.Model
	status    string
	statusErr bool
}

func NewApp(s *state.Store, cfg *config.Config) App {
	applyTheme(cfg.Theme)

	h := help.New()
	h.ShowAll = false

	m := timer.New(cfg.FocusMinutes, cfg.BreakMinutes)

	return App{
		store:        s,
		cfg:          cfg,
		machine:      m,
		checkingAuth: true,
		activeView:   viewDashboard,
		login:        newLoginModel(s),
		dashboard:    newDashboardModel(),
		timerView:    newTimerModel(s, m),
		agenda:       newAgendaModel(s),
		sessions:     newSessionsModel(s),
		notes:        newNotesModel(s),
		subjects:     newSubjectsModel(s),
		reports:      newReportsModel(s),
		settings:     newSettingsModel(s, cfg, m),
		help:         h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.checkAuth(),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a App) checkAuth() tea.Cmd {
	return func() tea.Msg {
		user, err := a.store.CheckAuth(context.Background())
		return authCheckedMsg{user: user, err: err}
	}
}

// refreshData pulls every collection from the backend, falling back to
// the offline cache per collection.
func (a App) refreshData() tea.Cmd {
	return func() tea.Msg {
		warnings := a.store.RefreshAll(context.Background())
		return dataRefreshedMsg{snapshot: a.store.Snapshot(), warnings: warnings}
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.login.setSize(msg.Width, msg.Height)
		contentHeight := a.height - 4 // header + footer
		a.dashboard.setSize(a.width, contentHeight)
		a.timerView.setSize(a.width, contentHeight)
		a.agenda.setSize(a.width, contentHeight)
		a.sessions.setSize(a.width, contentHeight)
		a.notes.setSize(a.width, contentHeight)
		a.subjects.setSize(a.width, contentHeight)
		a.reports.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		return a, nil

	case authCheckedMsg:
		a.checkingAuth = false
		if msg.user != nil {
			a.authed = true
			return a, a.refreshData()
		}
		var cmd tea.Cmd
		a.login, cmd = a.login.activate()
		return a, cmd

	case loggedInMsg:
		a.authed = true
		a.status = fmt.Sprintf("Bem-vindo, %s!", msg.user.FullName)
		a.statusErr = false
		return a, a.refreshData()

	case loggedOutMsg:
		a.authed = false
		a.activeView = viewDashboard
		a.status = "Logged out"
		a.statusErr = false
		var cmd tea.Cmd
		a.login, cmd = a.login.activate()
		return a, cmd

	case dataRefreshedMsg:
		a.dashboard.setData(msg.snapshot)
		a.timerView.setData(msg.snapshot)
		a.agenda.setData(msg.snapshot)
		a.sessions.setData(msg.snapshot)
		a.notes.setData(msg.snapshot)
		a.subjects.setData(msg.snapshot)
		a.reports.setData(msg.snapshot)
		if len(msg.warnings) > 0 {
			a.status = msg.warnings[0]
			a.statusErr = true
		}
		return a, nil

	case tickMsg:
		cmds = append(cmds, tickCmd())
		var cmd tea.Cmd
		a.timerView, cmd = a.timerView.update(msg)
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		return a, tea.Batch(cmds...)

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		if msg.isError {
			logger.Warn("status", logger.F("text", msg.text))
		}
		return a, nil

	case sessionSavedMsg:
		if msg.err != nil {
			a.status = fmt.Sprintf("Erro ao salvar sessão: %v", msg.err)
			a.statusErr = true
			return a, nil
		}
		a.status = "Sessão de estudo criada com sucesso"
		a.statusErr = false
		return a, a.refreshData()

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	case tea.KeyMsg:
		if !a.authed {
			if key.Matches(msg, keys.Quit) && !a.login.formActive() {
				return a, tea.Quit
			}
			var cmd tea.Cmd
			a.login, cmd = a.login.update(msg)
			return a, cmd
		}

		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// Forms and search capture keys before global bindings.
		if a.isCapturing() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Refresh):
			a.status = "Refreshing..."
			a.statusErr = false
			return a, a.refreshData()
		case key.Matches(msg, keys.Tab):
			a.activeView = (a.activeView + 1) % viewCount
			return a, a.enterView()
		case key.Matches(msg, keys.PrevTab):
			a.activeView = (a.activeView + viewCount - 1) % viewCount
			return a, a.enterView()
		}
	}

	if !a.authed {
		var cmd tea.Cmd
		a.login, cmd = a.login.update(msg)
		return a, cmd
	}
	return a.updateActiveView(msg)
}

// enterView runs whatever a screen needs when it becomes active.
func (a App) enterView() tea.Cmd {
	if a.activeView == viewReports {
		return a.reports.load()
	}
	return nil
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case viewTimer:
		a.timerView, cmd = a.timerView.update(msg)
	case viewAgenda:
		a.agenda, cmd = a.agenda.update(msg)
	case viewSessions:
		a.sessions, cmd = a.sessions.update(msg)
	case viewNotes:
		a.notes, cmd = a.notes.update(msg)
	case viewSubjects:
		a.subjects, cmd = a.subjects.update(msg)
	case viewReports:
		a.reports, cmd = a.reports.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isCapturing() bool {
	switch a.activeView {
	case viewTimer:
		return a.timerView.formActive
	case viewAgenda:
		return a.agenda.formActive
	case viewSessions:
		return a.sessions.formActive
	case viewNotes:
		return a.notes.capturing()
	case viewSubjects:
		return a.subjects.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	if a.checkingAuth {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center,
			mutedStyle.Render("Connecting..."))
	}

	if !a.authed {
		return a.login.view()
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewDashboard:
		content = a.dashboard.view()
	case viewTimer:
		content = a.timerView.view()
	case viewAgenda:
		content = a.agenda.view()
	case viewSessions:
		content = a.sessions.view()
	case viewNotes:
		content = a.notes.view()
	case viewSubjects:
		content = a.subjects.view()
	case viewReports:
		content = a.reports.view()
	case viewSettings:
		content = a.settings.view()
	}

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := a.height - headerHeight - footerHeight
	if contentHeight < 1 {
		contentHeight = 1
	}

	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("StudyFlow")
	gap := a.width - lipgloss.Width(title) - lipgloss.Width(tabRow) - 4
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		if a.statusErr {
			status = errorStyle.Render(" " + a.status)
		} else {
			status = mutedStyle.Render(" " + a.status)
		}
	}

	// Countdown indicator so the timer stays visible from any screen.
	timerInfo := ""
	if a.machine.Running() {
		label := formatCountdown(a.machine.Remaining())
		if a.machine.Phase() == timer.PhaseBreak {
			timerInfo = warningStyle.Render(" ☕ " + label)
		} else {
			timerInfo = successStyle.Render(" ● " + label)
		}
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := a.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	formats := []string{"CSV", "JSON"}
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range formats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < 1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back):
		a.exportPicking = false
	}
	return a, nil
}

func (a App) doExport(format int) tea.Cmd {
	return func() tea.Msg {
		snap := a.store.Snapshot()

		home, _ := os.UserHomeDir()
		dateStr := time.Now().Format("2006-01-02")

		var path string
		if format == 0 {
			path = filepath.Join(home, fmt.Sprintf("studyflow-export-%s.csv", dateStr))
			if err := export.ToCSV(snap.Sessions, snap.Subjects, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		} else {
			path = filepath.Join(home, fmt.Sprintf("studyflow-export-%s.json", dateStr))
			if err := export.ToJSON(snap.Sessions, snap.Subjects, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
