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

// agendaModel shows the 7-day schedule grid and the new-item form.
type agendaModel struct {
	store  *state.Store
	width  int
	height int

	snap       state.Snapshot
	weekOffset int // weeks from the current one, negative = past
	cursor     int // index into the flattened week item list

	formActive bool
	form       *huh.Form

	formSubject  *string
	formTitle    *string
	formDate     *string
	formTime     *string
	formDuration *string
}

func newAgendaModel(s *state.Store) agendaModel {
	sub, title, date, tm, dur := "", "", "", "", ""
	return agendaModel{
		store:        s,
		formSubject:  &sub,
		formTitle:    &title,
		formDate:     &date,
		formTime:     &tm,
		formDuration: &dur,
	}
}

func (a *agendaModel) setSize(w, h int) {
	a.width = w
	a.height = h
}

func (a *agendaModel) setData(snap state.Snapshot) {
	a.snap = snap
	if a.cursor >= len(a.weekItems()) {
		a.cursor = max(0, len(a.weekItems())-1)
	}
}

func (a agendaModel) refWeek() time.Time {
	return time.Now().AddDate(0, 0, 7*a.weekOffset)
}

// weekItems flattens the current week's grid into cursor order.
func (a agendaModel) weekItems() []model.ScheduleItem {
	week := view.AgendaWeek(a.snap.Schedule, a.refWeek(), time.Now())
	var items []model.ScheduleItem
	for _, day := range week {
		items = append(items, day.Items...)
	}
	return items
}

func (a agendaModel) update(msg tea.Msg) (agendaModel, tea.Cmd) {
	if a.formActive && a.form != nil {
		return a.updateForm(msg)
	}

	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return a, nil
	}

	switch {
	case key.Matches(keyMsg, keys.Left):
		a.weekOffset--
		a.cursor = 0
	case key.Matches(keyMsg, keys.Right):
		a.weekOffset++
		a.cursor = 0
	case key.Matches(keyMsg, keys.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(keyMsg, keys.Down):
		if a.cursor < len(a.weekItems())-1 {
			a.cursor++
		}
	case key.Matches(keyMsg, keys.Toggle):
		items := a.weekItems()
		if a.cursor < len(items) {
			return a, a.toggle(items[a.cursor].ID)
		}
	case key.Matches(keyMsg, keys.New):
		return a.showForm()
	}
	return a, nil
}

func (a agendaModel) toggle(id int64) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.ToggleScheduleItem(context.Background(), id); err != nil {
			return statusMsg{text: fmt.Sprintf("Erro: %v", err), isError: true}
		}
		return dataRefreshedMsg{snapshot: a.store.Snapshot()}
	}
}

func (a agendaModel) showForm() (agendaModel, tea.Cmd) {
	if len(a.snap.Subjects) == 0 {
		return a, statusCmd("Crie uma disciplina antes de agendar", true)
	}

	*a.formSubject = strconv.FormatInt(a.snap.Subjects[0].ID, 10)
	*a.formTitle = ""
	*a.formDate = time.Now().Format(model.DateLayout)
	*a.formTime = "08:00"
	*a.formDuration = "60"

	subjectOptions := make([]huh.Option[string], len(a.snap.Subjects))
	for i, sub := range a.snap.Subjects {
		subjectOptions[i] = huh.NewOption(sub.Name, strconv.FormatInt(sub.ID, 10))
	}

	a.form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Disciplina").Options(subjectOptions...).Value(a.formSubject),
			huh.NewInput().Title("Título").Value(a.formTitle),
			huh.NewInput().Title("Data (AAAA-MM-DD)").Value(a.formDate),
			huh.NewInput().Title("Hora (HH:MM)").Value(a.formTime),
			huh.NewInput().Title("Duração (min)").Value(a.formDuration),
		),
	).WithShowHelp(true).WithShowErrors(true)

	a.formActive = true
	return a, a.form.Init()
}

func (a agendaModel) updateForm(msg tea.Msg) (agendaModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			a.formActive = false
			a.form = nil
			return a, nil
		}
	}

	form, cmd := a.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.form = f
	}

	if a.form.State == huh.StateCompleted {
		a.formActive = false
		subjectID, _ := strconv.ParseInt(*a.formSubject, 10, 64)
		duration, _ := strconv.Atoi(*a.formDuration)
		item := model.ScheduleItem{
			SubjectID:       subjectID,
			Title:           strings.TrimSpace(*a.formTitle),
			Date:            strings.TrimSpace(*a.formDate),
			Time:            strings.TrimSpace(*a.formTime),
			DurationMinutes: duration,
		}
		return a, a.create(item)
	}

	return a, cmd
}

func (a agendaModel) create(item model.ScheduleItem) tea.Cmd {
	return func() tea.Msg {
		if err := a.store.CreateScheduleItem(context.Background(), item); err != nil {
			return statusMsg{text: fmt.Sprintf("Erro: %v", err), isError: true}
		}
		return dataRefreshedMsg{snapshot: a.store.Snapshot()}
	}
}

func (a agendaModel) view() string {
	w := a.width - 4

	if a.formActive && a.form != nil {
		title := titleStyle.Render("Novo agendamento")
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", a.form.View()),
		)
	}

	week := view.AgendaWeek(a.snap.Schedule, a.refWeek(), time.Now())
	idx := view.SubjectIndex(a.snap.Subjects)

	start := week[0].Date
	end := week[6].Date
	label := fmt.Sprintf("%s — %s", start.Format("Jan 02"), end.Format("Jan 02, 2006"))
	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Agenda semanal"), "  ", mutedStyle.Render(label),
	)

	var rows []string
	rows = append(rows, header, "")

	flat := 0
	for _, day := range week {
		dayName := day.Date.Format("Mon 02")
		if day.IsToday {
			rows = append(rows, highlightStyle.Bold(true).Render(dayName+" (hoje)"))
		} else {
			rows = append(rows, titleStyle.Render(dayName))
		}
		if len(day.Items) == 0 {
			rows = append(rows, mutedStyle.Render("    —"))
		}
		for _, item := range day.Items {
			cursor := "  "
			style := normalItemStyle
			if flat == a.cursor {
				cursor = "> "
				style = selectedItemStyle
			}
			flat++
			mark := mutedStyle.Render("[ ]")
			if item.Completed {
				mark = successStyle.Render("[x]")
			}
			dot := subjectDot(idx, item.SubjectID)
			rows = append(rows, fmt.Sprintf("  %s%s %s %s %s  %s",
				cursor, mark, mutedStyle.Render(item.Time), dot,
				style.Render(item.Title), mutedStyle.Render(formatMinutes(item.DurationMinutes))))
		}
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  c: toggle done  ←/→: week  ↑/↓: item"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
