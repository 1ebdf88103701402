package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/studyflow/studyflow/internal/model"
	"github.com/studyflow/studyflow/internal/state"
)

// viewState represents the currently active screen.
type viewState int

const (
	viewDashboard viewState = iota
	viewTimer
	viewAgenda
	viewSessions
	viewNotes
	viewSubjects
	viewReports
	viewSettings

	viewCount
)

var viewNames = []string{
	"Dashboard", "Timer", "Agenda", "Sessions", "Notes", "Subjects", "Reports", "Settings",
}

// notImplementedNotice is shown for operations the backend does not
// support yet (note editing, server-side update/delete).
const notImplementedNotice = "Not implemented yet"

// --- Messages ---

type tickMsg time.Time

type statusMsg struct {
	text    string
	isError bool
}

// authCheckedMsg carries the current-user result at startup.
type authCheckedMsg struct {
	user *model.User
	err  error
}

type loggedInMsg struct {
	user *model.User
}

type loggedOutMsg struct{}

// dataRefreshedMsg is emitted after a refresh cycle with a fresh
// snapshot and any per-collection fallback warnings.
type dataRefreshedMsg struct {
	snapshot state.Snapshot
	warnings []string
}

// sessionSavedMsg reports the outcome of recording a completed focus
// period.
type sessionSavedMsg struct {
	err error
}

type weeklyStatsMsg struct {
	stats *model.WeeklyStats
	err   error
}

type exportDoneMsg struct {
	path string
}

// --- Helpers ---

func formatCountdown(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

func formatMinutes(minutes int) string {
	h := minutes / 60
	m := minutes % 60
	if h == 0 {
		return fmt.Sprintf("%dmin", m)
	}
	return fmt.Sprintf("%dh%02dmin", h, m)
}

func statusCmd(text string, isError bool) func() tea.Msg {
	return func() tea.Msg { return statusMsg{text: text, isError: isError} }
}

// subjectDot renders a colored bullet for a subject, gray when the
// subject no longer exists.
func subjectDot(idx map[int64]model.Subject, subjectID int64) string {
	if sub, ok := idx[subjectID]; ok && sub.Color != "" {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(sub.Color)).Render("●")
	}
	return mutedStyle.Render("●")
}
