package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/state"
)

var subjectColors = []string{"#4A90E2", "#2EC4B6", "#FF6B6B", "#F39C12", "#2ECC71", "#E74C3C", "#9B59B6", "#3498DB"}

// subjectsModel manages the subject list. Creation goes through the
// backend; edits and deletes are local only until the server grows the
// matching endpoints.
type subjectsModel struct {
	store  *state.Store
	width  int
	height int

	snap       state.Snapshot
	cursor     int
	confirming bool

	formActive bool
	form       *huh.Form
	editing    bool
	editingID  int64

	formName  *string
	formColor *string
}

func newSubjectsModel(s *state.Store) subjectsModel {
	name, color := "", subjectColors[0]
	return subjectsModel{
		store:     s,
		formName:  &name,
		formColor: &color,
	}
}

func (m *subjectsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

func (m *subjectsModel) setData(snap state.Snapshot) {
	m.snap = snap
	if m.cursor >= len(snap.Subjects) {
		m.cursor = max(0, len(snap.Subjects)-1)
	}
}

func (m subjectsModel) update(msg tea.Msg) (subjectsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if m.confirming {
		switch keyMsg.String() {
		case "y", "Y":
			m.confirming = false
			if m.cursor < len(m.snap.Subjects) {
				m.store.DeleteSubjectLocal(m.snap.Subjects[m.cursor].ID)
				m.snap = m.store.Snapshot()
				if m.cursor >= len(m.snap.Subjects) {
					m.cursor = max(0, len(m.snap.Subjects)-1)
				}
				return m, statusCmd("Disciplina removida localmente", false)
			}
		default:
			m.confirming = false
		}
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if m.cursor < len(m.snap.Subjects)-1 {
			m.cursor++
		}
	case key.Matches(keyMsg, keys.New):
		return m.showForm(false)
	case key.Matches(keyMsg, keys.Edit):
		if len(m.snap.Subjects) > 0 {
			return m.showForm(true)
		}
	case key.Matches(keyMsg, keys.Delete):
		if len(m.snap.Subjects) > 0 {
			m.confirming = true
		}
	}
	return m, nil
}

func (m subjectsModel) showForm(edit bool) (subjectsModel, tea.Cmd) {
	m.editing = edit
	if edit {
		sub := m.snap.Subjects[m.cursor]
		m.editingID = sub.ID
		*m.formName = sub.Name
		*m.formColor = sub.Color
	} else {
		*m.formName = ""
		*m.formColor = subjectColors[0]
	}

	colorOptions := make([]huh.Option[string], len(subjectColors))
	for i, c := range subjectColors {
		colorOptions[i] = huh.NewOption(fmt.Sprintf("● %s", c), c)
	}

	m.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Nome da disciplina").Value(m.formName),
			huh.NewSelect[string]().Title("Cor").Options(colorOptions...).Value(m.formColor),
		),
	).WithShowHelp(true).WithShowErrors(true)

	m.formActive = true
	return m, m.form.Init()
}

func (m subjectsModel) updateForm(msg tea.Msg) (subjectsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			m.formActive = false
			m.form = nil
			return m, nil
		}
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		m.formActive = false
		name := strings.TrimSpace(*m.formName)
		if name == "" {
			return m, statusCmd("Nome da disciplina é obrigatório", true)
		}
		if m.editing {
			if err := m.store.UpdateSubjectLocal(m.editingID, name, *m.formColor); err != nil {
				return m, statusCmd(fmt.Sprintf("Erro: %v", err), true)
			}
			m.snap = m.store.Snapshot()
			return m, statusCmd("Disciplina atualizada localmente", false)
		}
		return m, m.create(name, *m.formColor)
	}

	return m, cmd
}

func (m subjectsModel) create(name, color string) tea.Cmd {
	return func() tea.Msg {
		if err := m.store.CreateSubject(context.Background(), name, color); err != nil {
			return statusMsg{text: fmt.Sprintf("Erro: %v", err), isError: true}
		}
		return dataRefreshedMsg{snapshot: m.store.Snapshot()}
	}
}

func (m subjectsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		title := titleStyle.Render("Nova disciplina")
		if m.editing {
			title = titleStyle.Render("Editar disciplina")
		}
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", m.form.View()),
		)
	}

	title := titleStyle.Render("Disciplinas")

	if len(m.snap.Subjects) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			mutedStyle.Render("Nenhuma disciplina. Pressione n para criar."),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, "")

	for i, sub := range m.snap.Subjects {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(sub.Color)).Render("●")
		minutes := 0
		for _, sess := range m.snap.Sessions {
			if sess.SubjectID == sub.ID {
				minutes += sess.DurationMinutes
			}
		}
		rows = append(rows, fmt.Sprintf("%s%s %s  %s",
			cursor, dot, style.Render(padRight(sub.Name, 28)),
			mutedStyle.Render(formatMinutes(minutes))))
	}

	rows = append(rows, "")
	if m.confirming {
		rows = append(rows, warningStyle.Render("  Remover esta disciplina da lista local? y: sim  esc: não"))
	} else {
		rows = append(rows, mutedStyle.Render("  n: new  e: edit (local)  d: delete (local)"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
