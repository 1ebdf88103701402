package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/model"
	"github.com/studyflow/studyflow/internal/state"
	"github.com/studyflow/studyflow/internal/view"
)

// sessionsModel lists study sessions with a subject filter and the
// manual entry form.
type sessionsModel struct {
	store  *state.Store
	width  int
	height int

	snap       state.Snapshot
	cursor     int
	filterIdx  int // 0 = all subjects, otherwise snap.Subjects[filterIdx-1]
	confirming bool

	formActive bool
	form       *huh.Form

	formSubject   *string
	formDuration  *string
	formDate      *string
	formTechnique *string
	formNotes     *string
}

func newSessionsModel(s *state.Store) sessionsModel {
	sub, dur, date, tech, notes := "", "", "", "", ""
	return sessionsModel{
		store:         s,
		formSubject:   &sub,
		formDuration:  &dur,
		formDate:      &date,
		formTechnique: &tech,
		formNotes:     &notes,
	}
}

func (s *sessionsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s *sessionsModel) setData(snap state.Snapshot) {
	s.snap = snap
	if s.filterIdx > len(snap.Subjects) {
		s.filterIdx = 0
	}
	if s.cursor >= len(s.rows()) {
		s.cursor = max(0, len(s.rows())-1)
	}
}

func (s sessionsModel) filterSubjectID() int64 {
	if s.filterIdx == 0 || s.filterIdx > len(s.snap.Subjects) {
		return 0
	}
	return s.snap.Subjects[s.filterIdx-1].ID
}

func (s sessionsModel) rows() []view.SessionRow {
	return view.SessionRows(s.snap.Sessions, s.snap.Subjects, s.filterSubjectID())
}

func (s sessionsModel) update(msg tea.Msg) (sessionsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return s, nil
	}

	if s.confirming {
		switch keyMsg.String() {
		case "y", "Y":
			s.confirming = false
			rows := s.rows()
			if s.cursor < len(rows) {
				s.store.DeleteSessionLocal(rows[s.cursor].Session.ID)
				s.snap = s.store.Snapshot()
				if s.cursor >= len(s.rows()) {
					s.cursor = max(0, len(s.rows())-1)
				}
				return s, statusCmd("Sessão removida localmente", false)
			}
		default:
			s.confirming = false
		}
		return s, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if s.cursor < len(s.rows())-1 {
			s.cursor++
		}
	case key.Matches(keyMsg, keys.Left):
		s.filterIdx--
		if s.filterIdx < 0 {
			s.filterIdx = len(s.snap.Subjects)
		}
		s.cursor = 0
	case key.Matches(keyMsg, keys.Right):
		s.filterIdx++
		if s.filterIdx > len(s.snap.Subjects) {
			s.filterIdx = 0
		}
		s.cursor = 0
	case key.Matches(keyMsg, keys.Delete):
		if len(s.rows()) > 0 {
			s.confirming = true
		}
	case key.Matches(keyMsg, keys.New):
		return s.showForm()
	}
	return s, nil
}

func (s sessionsModel) showForm() (sessionsModel, tea.Cmd) {
	if len(s.snap.Subjects) == 0 {
		return s, statusCmd("Crie uma disciplina antes de registrar sessões", true)
	}

	*s.formSubject = strconv.FormatInt(s.snap.Subjects[0].ID, 10)
	*s.formDuration = "30"
	*s.formDate = time.Now().Format(model.DateLayout)
	*s.formTechnique = model.TechniqueManual
	*s.formNotes = ""

	subjectOptions := make([]huh.Option[string], len(s.snap.Subjects))
	for i, sub := range s.snap.Subjects {
		subjectOptions[i] = huh.NewOption(sub.Name, strconv.FormatInt(sub.ID, 10))
	}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Disciplina").Options(subjectOptions...).Value(s.formSubject),
			huh.NewInput().Title("Duração (min)").Value(s.formDuration),
			huh.NewInput().Title("Data (AAAA-MM-DD)").Value(s.formDate),
			huh.NewSelect[string]().Title("Técnica").
				Options(
					huh.NewOption("Manual", model.TechniqueManual),
					huh.NewOption("Pomodoro", model.TechniquePomodoro),
				).Value(s.formTechnique),
			huh.NewInput().Title("Anotações").Value(s.formNotes),
		),
	).WithShowHelp(true).WithShowErrors(true)

	s.formActive = true
	return s, s.form.Init()
}

func (s sessionsModel) updateForm(msg tea.Msg) (sessionsModel, tea.Cmd) {
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
		subjectID, _ := strconv.ParseInt(*s.formSubject, 10, 64)
		duration, _ := strconv.Atoi(*s.formDuration)
		sess := model.StudySession{
			SubjectID:       subjectID,
			DurationMinutes: duration,
			Date:            strings.TrimSpace(*s.formDate),
			Technique:       *s.formTechnique,
			Notes:           strings.TrimSpace(*s.formNotes),
		}
		return s, s.create(sess)
	}

	return s, cmd
}

func (s sessionsModel) create(sess model.StudySession) tea.Cmd {
	return func() tea.Msg {
		if err := s.store.CreateSession(context.Background(), sess); err != nil {
			return statusMsg{text: fmt.Sprintf("Erro: %v", err), isError: true}
		}
		return dataRefreshedMsg{snapshot: s.store.Snapshot()}
	}
}

func (s sessionsModel) view() string {
	w := s.width - 4

	if s.formActive && s.form != nil {
		title := titleStyle.Render("Nova sessão")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	filterLabel := "Todas"
	if id := s.filterSubjectID(); id != 0 {
		filterLabel = s.snap.Subjects[s.filterIdx-1].Name
	}
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Sessões"), "  ",
		mutedStyle.Render("filtro: "), highlightStyle.Render(filterLabel),
	)

	rows := s.rows()

	var lines []string
	lines = append(lines, header, "")

	if len(rows) == 0 {
		lines = append(lines, mutedStyle.Render("  Nenhuma sessão. Pressione n para registrar."))
	} else {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %-12s %-24s %10s  %-10s", "Data", "Disciplina", "Duração", "Técnica")))
	}

	visible := s.height - 10
	if visible < 5 {
		visible = 5
	}
	for i, row := range rows {
		if i >= visible {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  ... e mais %d", len(rows)-visible)))
			break
		}
		cursor := "  "
		style := normalItemStyle
		if i == s.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := mutedStyle.Render("●")
		if row.SubjectColor != "" {
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color(row.SubjectColor)).Render("●")
		}
		lines = append(lines, fmt.Sprintf("%s%-12s %s %s %10s  %s",
			cursor, row.Session.Date, dot,
			style.Render(padRight(row.SubjectLabel, 22)),
			formatMinutes(row.Session.DurationMinutes),
			mutedStyle.Render(row.Session.Technique)))
	}

	lines = append(lines, "")
	if s.confirming {
		lines = append(lines, warningStyle.Render("  Remover esta sessão da lista local? y: sim  esc: não"))
	} else {
		lines = append(lines, mutedStyle.Render("  n: new  d: delete (local)  ←/→: filter  ↑/↓: select"))
	}

	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}

// padRight pads by rendered cell width so accented names stay aligned.
func padRight(s string, n int) string {
	w := lipgloss.Width(s)
	if w >= n {
		return s
	}
	return s + strings.Repeat(" ", n-w)
}
