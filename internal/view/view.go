// Package view derives renderable structures from application state.
// Every function here is a pure projection: the reference date is a
// parameter, nothing reads the clock, and equal inputs produce equal
// outputs, so re-rendering with unchanged state is byte-identical.
package view

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/studyflow/studyflow/internal/model"
)

// SubjectRemovedLabel is shown when an entity references a subject that
// no longer exists in the subject collection.
const SubjectRemovedLabel = "Disciplina removida"

// Summary is the dashboard's aggregate header.
type Summary struct {
	TodayMinutes   int
	WeekMinutes    int
	ActiveSubjects int // distinct subjects studied in the trailing 7 days
	StreakDays     int
}

// SubjectIndex builds an ID lookup for resolving references.
func SubjectIndex(subjects []model.Subject) map[int64]model.Subject {
	idx := make(map[int64]model.Subject, len(subjects))
	for _, s := range subjects {
		idx[s.ID] = s
	}
	return idx
}

// SubjectLabel resolves a reference, falling back to SubjectRemovedLabel
// for dangling or absent references.
func SubjectLabel(idx map[int64]model.Subject, subjectID int64) string {
	if s, ok := idx[subjectID]; ok {
		return s.Name
	}
	return SubjectRemovedLabel
}

// dayOf strips t to its calendar date at UTC midnight. Session dates
// parse to UTC midnight, so every comparison in this package goes
// through here to stay zone-independent.
func dayOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// WeekStart returns the Sunday beginning the week containing t.
func WeekStart(t time.Time) time.Time {
	day := dayOf(t)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

func sessionDate(s model.StudySession) (time.Time, bool) {
	d, err := time.Parse(model.DateLayout, s.Date)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// BuildSummary computes the dashboard aggregates for the given today.
func BuildSummary(sessions []model.StudySession, today time.Time) Summary {
	day := dayOf(today)
	weekStart := WeekStart(day)
	weekEnd := weekStart.AddDate(0, 0, 7)
	sevenDaysAgo := day.AddDate(0, 0, -6)

	var sum Summary
	subjectsSeen := make(map[int64]bool)
	for _, s := range sessions {
		d, ok := sessionDate(s)
		if !ok {
			continue
		}
		if d.Equal(day) {
			sum.TodayMinutes += s.DurationMinutes
		}
		if !d.Before(weekStart) && d.Before(weekEnd) {
			sum.WeekMinutes += s.DurationMinutes
		}
		if !d.Before(sevenDaysAgo) && !d.After(day) {
			subjectsSeen[s.SubjectID] = true
		}
	}
	sum.ActiveSubjects = len(subjectsSeen)
	sum.StreakDays = Streak(sessions, day)
	return sum
}

// Streak counts consecutive calendar days, walking backward from today,
// for which at least one session exists. It stops at the first gap.
func Streak(sessions []model.StudySession, today time.Time) int {
	days := make(map[string]bool, len(sessions))
	for _, s := range sessions {
		days[s.Date] = true
	}

	day := dayOf(today)
	streak := 0
	for days[day.Format(model.DateLayout)] {
		streak++
		day = day.AddDate(0, 0, -1)
	}
	return streak
}

// roundHours converts minutes to hours rounded to one decimal place.
func roundHours(minutes int) float64 {
	return math.Round(float64(minutes)/60*10) / 10
}

// ChartPoint is one bar of a chart dataset.
type ChartPoint struct {
	Label string
	Hours float64
	Color string
}

// WeeklyChart buckets session minutes by day-of-week for the week
// containing ref (week start = Sunday).
func WeeklyChart(sessions []model.StudySession, ref time.Time) []ChartPoint {
	start := WeekStart(ref)
	minutes := make([]int, 7)
	for _, s := range sessions {
		d, ok := sessionDate(s)
		if !ok {
			continue
		}
		offset := int(d.Sub(start).Hours() / 24)
		if offset >= 0 && offset < 7 {
			minutes[offset] += s.DurationMinutes
		}
	}

	points := make([]ChartPoint, 7)
	for i := 0; i < 7; i++ {
		points[i] = ChartPoint{
			Label: start.AddDate(0, 0, i).Format("Mon"),
			Hours: roundHours(minutes[i]),
		}
	}
	return points
}

// DailyChart buckets session minutes by calendar day over the trailing
// window ending at today, oldest day first.
func DailyChart(sessions []model.StudySession, today time.Time, days int) []ChartPoint {
	day := dayOf(today)
	start := day.AddDate(0, 0, -(days - 1))

	minutes := make(map[string]int, days)
	for _, s := range sessions {
		d, ok := sessionDate(s)
		if !ok {
			continue
		}
		if !d.Before(start) && !d.After(day) {
			minutes[s.Date] += s.DurationMinutes
		}
	}

	points := make([]ChartPoint, 0, days)
	for d := start; !d.After(day); d = d.AddDate(0, 0, 1) {
		points = append(points, ChartPoint{
			Label: d.Format("02"),
			Hours: roundHours(minutes[d.Format(model.DateLayout)]),
		})
	}
	return points
}

// SubjectChart breaks total session hours down per subject, largest
// first. Sessions whose subject no longer exists group under the
// removed-subject label.
func SubjectChart(sessions []model.StudySession, subjects []model.Subject) []ChartPoint {
	idx := SubjectIndex(subjects)
	minutes := make(map[string]int)
	colors := make(map[string]string)
	for _, s := range sessions {
		label := SubjectLabel(idx, s.SubjectID)
		minutes[label] += s.DurationMinutes
		if sub, ok := idx[s.SubjectID]; ok {
			colors[label] = sub.Color
		}
	}

	points := make([]ChartPoint, 0, len(minutes))
	for label, m := range minutes {
		points = append(points, ChartPoint{Label: label, Hours: roundHours(m), Color: colors[label]})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Hours != points[j].Hours {
			return points[i].Hours > points[j].Hours
		}
		return points[i].Label < points[j].Label
	})
	return points
}

// AgendaDay is one column of the weekly agenda grid.
type AgendaDay struct {
	Date    time.Time
	IsToday bool
	Items   []model.ScheduleItem
}

// AgendaWeek lays schedule items onto the 7-day grid of the week
// containing ref. Items within a day are ordered by time.
func AgendaWeek(items []model.ScheduleItem, ref, today time.Time) []AgendaDay {
	start := WeekStart(ref)
	todayStr := today.Format(model.DateLayout)

	week := make([]AgendaDay, 7)
	for i := range week {
		d := start.AddDate(0, 0, i)
		week[i] = AgendaDay{Date: d, IsToday: d.Format(model.DateLayout) == todayStr}
	}
	for _, item := range items {
		d, err := time.Parse(model.DateLayout, item.Date)
		if err != nil {
			continue
		}
		offset := int(d.Sub(start).Hours() / 24)
		if offset >= 0 && offset < 7 {
			week[offset].Items = append(week[offset].Items, item)
		}
	}
	for i := range week {
		items := week[i].Items
		sort.SliceStable(items, func(a, b int) bool { return items[a].Time < items[b].Time })
	}
	return week
}

// SessionRow is a display row for the session list.
type SessionRow struct {
	Session      model.StudySession
	SubjectLabel string
	SubjectColor string
}

// SessionRows projects the session list through the subject index and an
// optional subject filter, preserving backend order.
func SessionRows(sessions []model.StudySession, subjects []model.Subject, subjectID int64) []SessionRow {
	idx := SubjectIndex(subjects)
	rows := make([]SessionRow, 0, len(sessions))
	for _, s := range sessions {
		if subjectID != 0 && s.SubjectID != subjectID {
			continue
		}
		row := SessionRow{Session: s, SubjectLabel: SubjectLabel(idx, s.SubjectID)}
		if sub, ok := idx[s.SubjectID]; ok {
			row.SubjectColor = sub.Color
		}
		rows = append(rows, row)
	}
	return rows
}

// NoteRow is a display row for the note list.
type NoteRow struct {
	Note         model.Note
	SubjectLabel string
	SubjectColor string
}

// NoteRows filters notes by a case-insensitive search over title and
// content, preserving backend order.
func NoteRows(notes []model.Note, subjects []model.Subject, search string) []NoteRow {
	idx := SubjectIndex(subjects)
	needle := strings.ToLower(strings.TrimSpace(search))

	rows := make([]NoteRow, 0, len(notes))
	for _, n := range notes {
		if needle != "" &&
			!strings.Contains(strings.ToLower(n.Title), needle) &&
			!strings.Contains(strings.ToLower(n.Content), needle) {
			continue
		}
		row := NoteRow{Note: n, SubjectLabel: SubjectLabel(idx, n.SubjectID)}
		if sub, ok := idx[n.SubjectID]; ok {
			row.SubjectColor = sub.Color
		}
		rows = append(rows, row)
	}
	return rows
}
