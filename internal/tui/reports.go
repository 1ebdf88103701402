package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/model"
	"github.com/studyflow/studyflow/internal/state"
	"github.com/studyflow/studyflow/internal/view"
)

type reportMode int

const (
	reportWeekly reportMode = iota
	reportDaily
	reportSubjects
)

var reportModeNames = map[reportMode]string{
	reportWeekly:   "Semana",
	reportDaily:    "30 dias",
	reportSubjects: "Por disciplina",
}

// reportsModel renders study-time charts. The weekly mode also pulls
// the server aggregate so totals match what the backend reports.
type reportsModel struct {
	store  *state.Store
	width  int
	height int

	snap       state.Snapshot
	mode       reportMode
	weekOffset int // weeks back from the current one

	stats *model.WeeklyStats

	chart barchart.Model
}

func newReportsModel(s *state.Store) reportsModel {
	return reportsModel{
		store: s,
		chart: barchart.New(60, 12),
	}
}

func (r *reportsModel) setSize(w, h int) {
	r.width = w
	r.height = h
	r.buildChart()
}

func (r *reportsModel) setData(snap state.Snapshot) {
	r.snap = snap
	r.buildChart()
}

func (r reportsModel) refTime() time.Time {
	return time.Now().AddDate(0, 0, -7*r.weekOffset)
}

// load fetches the backend weekly aggregate for the visible week.
func (r reportsModel) load() tea.Cmd {
	weekStart := view.WeekStart(r.refTime()).Format(model.DateLayout)
	return func() tea.Msg {
		stats, err := r.store.WeeklyStats(context.Background(), weekStart)
		return weeklyStatsMsg{stats: stats, err: err}
	}
}

func (r reportsModel) update(msg tea.Msg) (reportsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case weeklyStatsMsg:
		if msg.err == nil {
			r.stats = msg.stats
		}
		return r, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			r.weekOffset++
			r.buildChart()
			return r, r.load()
		case key.Matches(msg, keys.Right):
			if r.weekOffset > 0 {
				r.weekOffset--
			}
			r.buildChart()
			return r, r.load()
		case key.Matches(msg, keys.Enter):
			r.mode = (r.mode + 1) % 3
			r.weekOffset = 0
			r.buildChart()
			return r, r.load()
		}
	}
	return r, nil
}

func (r reportsModel) points() []view.ChartPoint {
	switch r.mode {
	case reportDaily:
		return view.DailyChart(r.snap.Sessions, time.Now(), 30)
	case reportSubjects:
		return view.SubjectChart(r.snap.Sessions, r.snap.Subjects)
	default:
		return view.WeeklyChart(r.snap.Sessions, r.refTime())
	}
}

func (r *reportsModel) buildChart() {
	chartWidth := r.width - 8
	if chartWidth < 20 {
		chartWidth = 20
	}
	chartHeight := 12
	if r.height > 30 {
		chartHeight = 16
	}

	r.chart = barchart.New(chartWidth, chartHeight)

	var bars []barchart.BarData
	for _, p := range r.points() {
		color := p.Color
		if color == "" {
			color = string(colorPrimary)
		}
		bars = append(bars, barchart.BarData{
			Label: p.Label,
			Values: []barchart.BarValue{{
				Name:  p.Label,
				Value: p.Hours,
				Style: lipgloss.NewStyle().Foreground(lipgloss.Color(color)),
			}},
		})
	}

	r.chart.PushAll(bars)
	r.chart.Draw()
}

func (r reportsModel) view() string {
	w := r.width - 4

	var tabs []string
	for mode := reportWeekly; mode <= reportSubjects; mode++ {
		name := reportModeNames[mode]
		if mode == r.mode {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}
	modeTabs := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	var dateLabel string
	if r.mode == reportWeekly {
		start := view.WeekStart(r.refTime())
		end := start.AddDate(0, 0, 6)
		dateLabel = mutedStyle.Render(fmt.Sprintf("%s — %s", start.Format("Jan 02"), end.Format("Jan 02, 2006")))
	}

	header := lipgloss.JoinHorizontal(lipgloss.Bottom,
		titleStyle.Render("Relatórios"), "  ", modeTabs, "  ", dateLabel,
	)

	chartView := r.chart.View()
	summary := r.renderSummary()

	nav := mutedStyle.Render("  enter: mode  ←/→: week")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			header, "", chartView, "", summary, "", nav,
		),
	)
}

func (r reportsModel) renderSummary() string {
	if r.mode != reportWeekly || r.stats == nil {
		return ""
	}

	var rows []string
	rows = append(rows, titleStyle.Render(fmt.Sprintf("Total: %.2fh", r.stats.TotalHours)))

	for _, s := range r.stats.BySubject {
		dot := mutedStyle.Render("●")
		if s.Color != "" {
			dot = lipgloss.NewStyle().Foreground(lipgloss.Color(s.Color)).Render("●")
		}
		rows = append(rows, fmt.Sprintf("  %s %-24s %s",
			dot, s.Name, mutedStyle.Render(formatMinutes(s.TotalMinutes))))
	}

	return strings.Join(rows, "\n")
}
