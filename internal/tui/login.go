package tui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/state"
)

type loginFailedMsg struct {
	err error
}

// loginModel is the full-screen login form shown until the backend
// confirms a session.
type loginModel struct {
	store  *state.Store
	width  int
	height int

	form    *huh.Form
	busy    bool
	errText string

	username *string
	password *string
}

func newLoginModel(s *state.Store) loginModel {
	u, p := "", ""
	return loginModel{
		store:    s,
		username: &u,
		password: &p,
	}
}

func (l *loginModel) setSize(w, h int) {
	l.width = w
	l.height = h
}

func (l loginModel) formActive() bool {
	return l.form != nil && !l.busy
}

func (l loginModel) activate() (loginModel, tea.Cmd) {
	*l.username = ""
	*l.password = ""
	l.busy = false

	l.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Usuário").Value(l.username),
			huh.NewInput().Title("Senha").EchoMode(huh.EchoModePassword).Value(l.password),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return l, l.form.Init()
}

func (l loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	if failed, ok := msg.(loginFailedMsg); ok {
		l.errText = failed.err.Error()
		return l.activate()
	}
	if l.busy || l.form == nil {
		return l, nil
	}

	form, cmd := l.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		l.form = f
	}

	if l.form.State == huh.StateCompleted {
		if strings.TrimSpace(*l.username) == "" || *l.password == "" {
			l.errText = "Usuário e senha são obrigatórios"
			return l.activate()
		}
		l.busy = true
		l.errText = ""
		return l, l.doLogin(*l.username, *l.password)
	}

	return l, cmd
}

func (l loginModel) doLogin(username, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := l.store.Login(context.Background(), username, password)
		if err != nil {
			return loginFailedMsg{err: err}
		}
		return loggedInMsg{user: user}
	}
}

func (l loginModel) view() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("StudyFlow")
	subtitle := mutedStyle.Render("Organize seus estudos")

	var body string
	switch {
	case l.busy:
		body = mutedStyle.Render("Entrando...")
	case l.form != nil:
		body = l.form.View()
	}

	var rows []string
	rows = append(rows, title, subtitle, "")
	if l.errText != "" {
		rows = append(rows, errorStyle.Render(l.errText), "")
	}
	rows = append(rows, body)

	box := activePanelStyle.Width(44).Render(
		lipgloss.JoinVertical(lipgloss.Left, rows...),
	)

	return lipgloss.Place(l.width, l.height, lipgloss.Center, lipgloss.Center, box)
}
