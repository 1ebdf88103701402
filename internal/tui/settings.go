package tui

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/config"
	"github.com/studyflow/studyflow/internal/state"
	"github.com/studyflow/studyflow/internal/timer"
)

// settingsModel edits user preferences and applies them to the running
// timer and theme on save.
type settingsModel struct {
	store   *state.Store
	cfg     *config.Config
	machine *timer.Machine
	width   int
	height  int

	formActive bool
	form       *huh.Form

	focusMin  *string
	breakMin  *string
	theme     *string
	serverURL *string
}

func newSettingsModel(s *state.Store, cfg *config.Config, m *timer.Machine) settingsModel {
	f, b, t, u := "", "", "", ""
	return settingsModel{
		store:     s,
		cfg:       cfg,
		machine:   m,
		focusMin:  &f,
		breakMin:  &b,
		theme:     &t,
		serverURL: &u,
	}
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Enter), key.Matches(keyMsg, keys.Edit):
		return s.showForm()
	}
	if keyMsg.String() == "l" {
		return s, s.logout()
	}
	return s, nil
}

func (s settingsModel) logout() tea.Cmd {
	return func() tea.Msg {
		if err := s.store.Logout(context.Background()); err != nil {
			return statusMsg{text: fmt.Sprintf("Erro ao sair: %v", err), isError: true}
		}
		return loggedOutMsg{}
	}
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.focusMin = strconv.Itoa(s.cfg.FocusMinutes)
	*s.breakMin = strconv.Itoa(s.cfg.BreakMinutes)
	*s.theme = s.cfg.Theme
	*s.serverURL = s.cfg.ServerURL

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Foco (min)").Value(s.focusMin),
			huh.NewInput().Title("Intervalo (min)").Value(s.breakMin),
			huh.NewSelect[string]().Title("Tema").
				Options(
					huh.NewOption("Escuro", "dark"),
					huh.NewOption("Claro", "light"),
				).Value(s.theme),
		).Title("Pomodoro"),
		huh.NewGroup(
			huh.NewInput().Title("Servidor").Value(s.serverURL),
		).Title("Conexão"),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.formActive = false
		return s, s.save()
	}

	return s, cmd
}

func (s settingsModel) save() tea.Cmd {
	if v, err := strconv.Atoi(*s.focusMin); err == nil && v > 0 {
		s.cfg.FocusMinutes = v
	}
	if v, err := strconv.Atoi(*s.breakMin); err == nil && v > 0 {
		s.cfg.BreakMinutes = v
	}
	if *s.theme == "light" || *s.theme == "dark" {
		s.cfg.Theme = *s.theme
	}
	if *s.serverURL != "" {
		s.cfg.ServerURL = *s.serverURL
	}

	s.machine.SetDurations(s.cfg.FocusMinutes, s.cfg.BreakMinutes)
	applyTheme(s.cfg.Theme)

	if err := s.cfg.Save(); err != nil {
		return statusCmd(fmt.Sprintf("Erro ao salvar configurações: %v", err), true)
	}
	return statusCmd("Configurações salvas", false)
}

func (s settingsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Configurações")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	title := titleStyle.Render("Configurações")

	row := func(label, value string) string {
		l := lipgloss.NewStyle().Width(20).Render(label)
		return fmt.Sprintf("  %s %s", l, highlightStyle.Render(value))
	}

	themeName := "Escuro"
	if s.cfg.Theme == "light" {
		themeName = "Claro"
	}

	rows := []string{
		title,
		"",
		row("Foco", fmt.Sprintf("%d min", s.cfg.FocusMinutes)),
		row("Intervalo", fmt.Sprintf("%d min", s.cfg.BreakMinutes)),
		row("Tema", themeName),
		row("Servidor", s.cfg.ServerURL),
		"",
		mutedStyle.Render("  enter: edit  l: logout"),
	}

	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
