package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/model"
	"github.com/studyflow/studyflow/internal/state"
	"github.com/studyflow/studyflow/internal/timer"
)

// timerModel drives the Pomodoro countdown. The machine itself lives on
// the App so the footer can show the countdown from any screen.
type timerModel struct {
	store   *state.Store
	machine *timer.Machine
	width   int
	height  int

	snap          state.Snapshot
	subjectCursor int

	formActive bool // no forms on this screen, kept for the capture check
}

func newTimerModel(s *state.Store, m *timer.Machine) timerModel {
	return timerModel{store: s, machine: m}
}

func (t *timerModel) setSize(w, h int) {
	t.width = w
	t.height = h
}

func (t *timerModel) setData(snap state.Snapshot) {
	t.snap = snap
	if t.subjectCursor >= len(snap.Subjects) {
		t.subjectCursor = max(0, len(snap.Subjects)-1)
	}
}

func (t timerModel) selectedSubject() (model.Subject, bool) {
	if t.subjectCursor < len(t.snap.Subjects) {
		return t.snap.Subjects[t.subjectCursor], true
	}
	return model.Subject{}, false
}

func (t timerModel) update(msg tea.Msg) (timerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if !t.machine.Running() {
			return t, nil
		}
		completion, done := t.machine.Tick()
		if !done {
			return t, nil
		}
		if completion.RecordSession {
			sub, ok := t.selectedSubject()
			if !ok {
				return t, statusCmd("Selecione uma disciplina", true)
			}
			return t, tea.Batch(
				t.saveSession(sub.ID, completion.DurationMinutes),
				statusCmd("Foco concluído! Hora do intervalo", false),
			)
		}
		return t, statusCmd("Intervalo concluído! Pronto para focar", false)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Start):
			if t.machine.Running() {
				return t, nil
			}
			if _, ok := t.selectedSubject(); !ok {
				return t, statusCmd("Selecione uma disciplina antes de iniciar", true)
			}
			t.machine.Start()
			return t, nil
		case key.Matches(msg, keys.Pause):
			if t.machine.Running() {
				t.machine.Pause()
				return t, nil
			}
			if _, ok := t.selectedSubject(); !ok {
				return t, statusCmd("Selecione uma disciplina antes de iniciar", true)
			}
			t.machine.Start()
			return t, nil
		case key.Matches(msg, keys.Reset):
			t.machine.Reset()
			return t, nil
		case key.Matches(msg, keys.Up):
			if t.subjectCursor > 0 && !t.machine.Running() {
				t.subjectCursor--
			}
		case key.Matches(msg, keys.Down):
			if t.subjectCursor < len(t.snap.Subjects)-1 && !t.machine.Running() {
				t.subjectCursor++
			}
		}
	}
	return t, nil
}

func (t timerModel) saveSession(subjectID int64, minutes int) tea.Cmd {
	return func() tea.Msg {
		err := t.store.CreateSession(context.Background(), model.StudySession{
			SubjectID:       subjectID,
			DurationMinutes: minutes,
			Date:            time.Now().Format(model.DateLayout),
			Technique:       model.TechniquePomodoro,
		})
		return sessionSavedMsg{err: err}
	}
}

func (t timerModel) view() string {
	w := t.width - 4

	phaseLabel := accentStyle.Bold(true).Render("FOCO")
	if t.machine.Phase() == timer.PhaseBreak {
		phaseLabel = successStyle.Bold(true).Render("INTERVALO")
	}

	countdown := formatCountdown(t.machine.Remaining())
	display := timerStyle.Width(w - 6).Render(countdown)
	if t.machine.Running() {
		display = timerRunningStyle.Width(w - 6).Render(countdown)
	} else if t.machine.Remaining() > 0 && t.machine.Progress() > 0 {
		display = timerPausedStyle.Width(w - 6).Render(countdown)
	}

	bar := t.renderProgressBar(w - 10)
	subjects := t.renderSubjectPicker()

	var controls string
	if t.machine.Running() {
		controls = mutedStyle.Render("space: pause  r: reset")
	} else {
		controls = mutedStyle.Render("s: start  space: resume  r: reset  ↑/↓: subject")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Pomodoro"),
		"",
		phaseLabel,
		display,
		"",
		bar,
		"",
		subjects,
		"",
		controls,
	)

	return panelStyle.Width(w).Render(content)
}

func (t timerModel) renderProgressBar(width int) string {
	if width < 10 {
		width = 10
	}
	filled := int(t.machine.Progress() * float64(width))
	if filled > width {
		filled = width
	}
	barStyle := accentStyle
	if t.machine.Phase() == timer.PhaseBreak {
		barStyle = successStyle
	}
	return barStyle.Render(strings.Repeat("█", filled)) +
		mutedStyle.Render(strings.Repeat("░", width-filled))
}

func (t timerModel) renderSubjectPicker() string {
	if len(t.snap.Subjects) == 0 {
		return mutedStyle.Render("Nenhuma disciplina. Crie uma na aba Subjects.")
	}

	var rows []string
	rows = append(rows, mutedStyle.Render("Disciplina:"))
	for i, sub := range t.snap.Subjects {
		cursor := "  "
		style := normalItemStyle
		if i == t.subjectCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(sub.Color)).Render("●")
		rows = append(rows, fmt.Sprintf("%s%s %s", cursor, dot, style.Render(sub.Name)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
