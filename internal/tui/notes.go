package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/model"
	"github.com/studyflow/studyflow/internal/state"
	"github.com/studyflow/studyflow/internal/view"
)

// notesModel lists notes with live search and the new-note form.
type notesModel struct {
	store  *state.Store
	width  int
	height int

	snap      state.Snapshot
	cursor    int
	search    string
	searching bool
	reading   bool

	formActive bool
	form       *huh.Form

	formSubject *string
	formTitle   *string
	formContent *string
}

func newNotesModel(s *state.Store) notesModel {
	sub, title, content := "", "", ""
	return notesModel{
		store:       s,
		formSubject: &sub,
		formTitle:   &title,
		formContent: &content,
	}
}

func (n *notesModel) setSize(w, h int) {
	n.width = w
	n.height = h
}

func (n *notesModel) setData(snap state.Snapshot) {
	n.snap = snap
	if n.cursor >= len(n.rows()) {
		n.cursor = max(0, len(n.rows())-1)
	}
}

func (n notesModel) capturing() bool {
	return n.formActive || n.searching
}

func (n notesModel) rows() []view.NoteRow {
	return view.NoteRows(n.snap.Notes, n.snap.Subjects, n.search)
}

func (n notesModel) update(msg tea.Msg) (notesModel, tea.Cmd) {
	if n.formActive && n.form != nil {
		return n.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return n, nil
	}

	if n.searching {
		switch keyMsg.String() {
		case "esc":
			n.searching = false
			n.search = ""
		case "enter":
			n.searching = false
		case "backspace":
			if len(n.search) > 0 {
				n.search = n.search[:len(n.search)-1]
			}
		default:
			if len(keyMsg.Runes) > 0 {
				n.search += string(keyMsg.Runes)
			}
		}
		n.cursor = 0
		return n, nil
	}

	if n.reading {
		if keyMsg.String() == "esc" || keyMsg.String() == "enter" {
			n.reading = false
		}
		return n, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if n.cursor > 0 {
			n.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if n.cursor < len(n.rows())-1 {
			n.cursor++
		}
	case key.Matches(keyMsg, keys.Search):
		n.searching = true
		n.search = ""
		n.cursor = 0
	case key.Matches(keyMsg, keys.Enter):
		if len(n.rows()) > 0 {
			n.reading = true
		}
	case key.Matches(keyMsg, keys.Edit):
		return n, statusCmd(notImplementedNotice, false)
	case key.Matches(keyMsg, keys.New):
		return n.showForm()
	}
	return n, nil
}

func (n notesModel) showForm() (notesModel, tea.Cmd) {
	if len(n.snap.Subjects) == 0 {
		return n, statusCmd("Crie uma disciplina antes de anotar", true)
	}

	*n.formSubject = strconv.FormatInt(n.snap.Subjects[0].ID, 10)
	*n.formTitle = ""
	*n.formContent = ""

	subjectOptions := make([]huh.Option[string], len(n.snap.Subjects))
	for i, sub := range n.snap.Subjects {
		subjectOptions[i] = huh.NewOption(sub.Name, strconv.FormatInt(sub.ID, 10))
	}

	n.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Disciplina").Options(subjectOptions...).Value(n.formSubject),
			huh.NewInput().Title("Título").Value(n.formTitle),
			huh.NewText().Title("Conteúdo").Value(n.formContent),
		),
	).WithShowHelp(true).WithShowErrors(true)

	n.formActive = true
	return n, n.form.Init()
}

func (n notesModel) updateForm(msg tea.Msg) (notesModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			n.formActive = false
			n.form = nil
			return n, nil
		}
	}

	form, cmd := n.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		n.form = f
	}

	if n.form.State == huh.StateCompleted {
		n.formActive = false
		subjectID, _ := strconv.ParseInt(*n.formSubject, 10, 64)
		note := model.Note{
			SubjectID: subjectID,
			Title:     strings.TrimSpace(*n.formTitle),
			Content:   *n.formContent,
		}
		return n, n.create(note)
	}

	return n, cmd
}

func (n notesModel) create(note model.Note) tea.Cmd {
	return func() tea.Msg {
		if err := n.store.CreateNote(context.Background(), note); err != nil {
			return statusMsg{text: fmt.Sprintf("Erro: %v", err), isError: true}
		}
		return dataRefreshedMsg{snapshot: n.store.Snapshot()}
	}
}

func (n notesModel) view() string {
	w := n.width - 4

	if n.formActive && n.form != nil {
		title := titleStyle.Render("Nova anotação")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", n.form.View()),
		)
	}

	rows := n.rows()

	if n.reading && n.cursor < len(rows) {
		return n.renderDetail(rows[n.cursor], w)
	}

	header := titleStyle.Render("Anotações")
	if n.searching || n.search != "" {
		header = lipgloss.JoinHorizontal(lipgloss.Bottom,
			header, "  ", mutedStyle.Render("/"), highlightStyle.Render(n.search))
		if n.searching {
			header += highlightStyle.Render("▌")
		}
	}

	var lines []string
	lines = append(lines, header, "")

	if len(rows) == 0 {
		if n.search != "" {
			lines = append(lines, mutedStyle.Render("  Nenhuma anotação encontrada"))
		} else {
			lines = append(lines, mutedStyle.Render("  Nenhuma anotação. Pressione n para criar."))
		}
	}

	for i, row := range rows {
		cursor := "  "
		style := normalItemStyle
		if i == n.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := mutedStyle.Render("●")
		if row.SubjectColor != "" {
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color(row.SubjectColor)).Render("●")
		}
		preview := row.Note.Content
		if runes := []rune(preview); len(runes) > 40 {
			preview = string(runes[:40]) + "…"
		}
		preview = strings.ReplaceAll(preview, "\n", " ")
		lines = append(lines, fmt.Sprintf("%s%s %s  %s",
			cursor, dot, style.Render(padRight(row.Note.Title, 28)), mutedStyle.Render(preview)))
	}

	lines = append(lines, "")
	lines = append(lines, mutedStyle.Render("  n: new  /: search  enter: read  e: edit"))

	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

func (n notesModel) renderDetail(row view.NoteRow, w int) string {
	title := titleStyle.Render(row.Note.Title)
	meta := mutedStyle.Render(fmt.Sprintf("%s · %s", row.SubjectLabel, row.Note.UpdatedAt))

	return activePanelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			title,
			meta,
			"",
			normalItemStyle.Render(row.Note.Content),
			"",
			mutedStyle.Render("esc: back"),
		),
	)
}
