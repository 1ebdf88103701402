package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/state"
	"github.com/studyflow/studyflow/internal/view"
)

// dashboardModel is a pure projection of the store snapshot. It holds
// no mutable state beyond the data it renders.
type dashboardModel struct {
	width  int
	height int

	snap state.Snapshot
}

func newDashboardModel() dashboardModel {
	return dashboardModel{}
}

func (d *dashboardModel) setSize(w, h int) {
	d.width = w
	d.height = h
}

func (d *dashboardModel) setData(snap state.Snapshot) {
	d.snap = snap
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	return d, nil
}

func (d dashboardModel) view() string {
	today := time.Now()
	summary := view.BuildSummary(d.snap.Sessions, today)

	cards := d.renderCards(summary)
	agenda := d.renderTodayAgenda(today)
	recent := d.renderRecentSessions()

	return lipgloss.JoinVertical(lipgloss.Left, cards, agenda, recent)
}

func (d dashboardModel) renderCards(s view.Summary) string {
	cardWidth := (d.width - 12) / 4
	if cardWidth < 14 {
		cardWidth = 14
	}

	card := func(label, value string) string {
		return panelStyle.Width(cardWidth).Render(
			lipgloss.JoinVertical(lipgloss.Left,
				mutedStyle.Render(label),
				titleStyle.Render(value),
			),
		)
	}

	streak := fmt.Sprintf("%d dias", s.StreakDays)
	if s.StreakDays == 1 {
		streak = "1 dia"
	}

	return lipgloss.JoinHorizontal(lipgloss.Top,
		card("Hoje", formatMinutes(s.TodayMinutes)),
		card("Esta semana", formatMinutes(s.WeekMinutes)),
		card("Disciplinas ativas", fmt.Sprintf("%d", s.ActiveSubjects)),
		card("Sequência", streak),
	)
}

func (d dashboardModel) renderTodayAgenda(today time.Time) string {
	w := d.width - 4
	title := titleStyle.Render("Agenda de hoje")

	idx := view.SubjectIndex(d.snap.Subjects)
	todayStr := today.Format("2006-01-02")

	var rows []string
	rows = append(rows, title, "")

	count := 0
	for _, item := range d.snap.Schedule {
		if item.Date != todayStr {
			continue
		}
		count++
		mark := mutedStyle.Render("[ ]")
		if item.Completed {
			mark = successStyle.Render("[x]")
		}
		label := view.SubjectLabel(idx, item.SubjectID)
		dot := subjectDot(idx, item.SubjectID)
		rows = append(rows, fmt.Sprintf("  %s %s %s %s  %s",
			mark, mutedStyle.Render(item.Time), dot, label, item.Title))
	}
	if count == 0 {
		rows = append(rows, mutedStyle.Render("  Nenhum item agendado para hoje"))
	}

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (d dashboardModel) renderRecentSessions() string {
	w := d.width - 4
	title := titleStyle.Render("Sessões recentes")

	rows := view.SessionRows(d.snap.Sessions, d.snap.Subjects, 0)
	limit := 5
	if len(rows) < limit {
		limit = len(rows)
	}

	var lines []string
	lines = append(lines, title, "")

	if limit == 0 {
		lines = append(lines, mutedStyle.Render("  Nenhuma sessão registrada"))
	}
	for _, row := range rows[:limit] {
		technique := mutedStyle.Render(row.Session.Technique)
		lines = append(lines, fmt.Sprintf("  %s  %-24s %8s  %s",
			mutedStyle.Render(row.Session.Date),
			row.SubjectLabel,
			formatMinutes(row.Session.DurationMinutes),
			technique))
	}

	return panelStyle.Width(w).Render(strings.Join(lines, "\n"))
}
