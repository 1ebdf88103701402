package model

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for wall-clock times.
const TimeLayout = "15:04"

// Technique values accepted for study sessions.
const (
	TechniquePomodoro = "pomodoro"
	TechniqueManual   = "manual"
)

// User is the authenticated account returned by the backend.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// IsAdmin reports whether the user may call the admin endpoints.
func (u User) IsAdmin() bool { return u.Role == "admin" }

// Subject is a user-defined study category with a display color.
type Subject struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// StudySession is a logged block of study time, either timer-generated
// or manually entered. SubjectName/SubjectColor are filled by the list
// endpoint's join and may be empty when the subject was deleted.
type StudySession struct {
	ID              int64  `json:"id"`
	SubjectID       int64  `json:"subject_id"`
	DurationMinutes int    `json:"duration_minutes"`
	Date            string `json:"date"`
	StartTime       string `json:"start_time,omitempty"`
	EndTime         string `json:"end_time,omitempty"`
	Notes           string `json:"notes,omitempty"`
	Technique       string `json:"technique"`
	SubjectName     string `json:"subject_name,omitempty"`
	SubjectColor    string `json:"subject_color,omitempty"`
}

// ScheduleItem is a planned future session.
type ScheduleItem struct {
	ID              int64  `json:"id"`
	SubjectID       int64  `json:"subject_id"`
	Title           string `json:"title"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	DurationMinutes int    `json:"duration_minutes"`
	Completed       bool   `json:"completed"`
	SubjectName     string `json:"subject_name,omitempty"`
	SubjectColor    string `json:"subject_color,omitempty"`
}

// Note is a free-text annotation attached to a subject.
type Note struct {
	ID           int64  `json:"id"`
	SubjectID    int64  `json:"subject_id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	CreatedAt    string `json:"created_at,omitempty"`
	UpdatedAt    string `json:"updated_at,omitempty"`
	SubjectName  string `json:"subject_name,omitempty"`
	SubjectColor string `json:"subject_color,omitempty"`
}

// SubjectStat aggregates study minutes for one subject.
type SubjectStat struct {
	Name         string `json:"name"`
	Color        string `json:"color"`
	TotalMinutes int    `json:"total_minutes"`
}

// DailyStat aggregates study minutes for one calendar day.
type DailyStat struct {
	Date         string `json:"date"`
	TotalMinutes int    `json:"total_minutes"`
	SessionCount int    `json:"session_count"`
}

// WeeklyStats is the aggregate returned by the weekly stats endpoint.
type WeeklyStats struct {
	TotalHours float64       `json:"total_hours"`
	BySubject  []SubjectStat `json:"by_subject"`
	Daily      []DailyStat   `json:"daily"`
}
