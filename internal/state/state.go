// Package state holds the client's cached copy of the backend's
// collections and runs the refresh cycle. The backend is the source of
// truth: every successful fetch replaces a collection wholesale, and
// local-only edits survive just until the next refresh.
package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/studyflow/studyflow/internal/api"
	"github.com/studyflow/studyflow/internal/cache"
	"github.com/studyflow/studyflow/internal/logger"
	"github.com/studyflow/studyflow/internal/model"
)

// ErrNotAuthenticated means there is no current backend session.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrValidation marks a locally rejected input; no network call was made.
var ErrValidation = errors.New("validation failed")

// Gateway is the slice of the API client the store depends on.
type Gateway interface {
	CurrentUser(ctx context.Context) (*model.User, error)
	Login(ctx context.Context, username, password string) (*model.User, error)
	Logout(ctx context.Context) error
	ListSubjects(ctx context.Context) ([]model.Subject, error)
	CreateSubject(ctx context.Context, name, color string) (*model.Subject, error)
	ListSessions(ctx context.Context, f api.SessionFilter) ([]model.StudySession, error)
	CreateSession(ctx context.Context, s model.StudySession) (int64, error)
	ListSchedule(ctx context.Context, f api.ScheduleFilter) ([]model.ScheduleItem, error)
	CreateScheduleItem(ctx context.Context, item model.ScheduleItem) (int64, error)
	UpdateScheduleStatus(ctx context.Context, id int64, completed bool) error
	ListNotes(ctx context.Context, subjectID int64) ([]model.Note, error)
	CreateNote(ctx context.Context, n model.Note) (int64, error)
	WeeklyStats(ctx context.Context, weekStart string) (*model.WeeklyStats, error)
}

// Snapshot is a point-in-time copy of every collection, safe to project
// from while refreshes run in the background.
type Snapshot struct {
	User     *model.User
	Subjects []model.Subject
	Sessions []model.StudySession
	Schedule []model.ScheduleItem
	Notes    []model.Note
}

// Store owns the in-memory collections. Mutations come from the gateway
// (refresh, create) or from the local-only deletes.
type Store struct {
	gw    Gateway
	cache *cache.Cache

	mu       sync.RWMutex
	user     *model.User
	subjects []model.Subject
	sessions []model.StudySession
	schedule []model.ScheduleItem
	notes    []model.Note
}

// New creates a store. The cache may be nil, which disables the offline
// fallback.
func New(gw Gateway, c *cache.Cache) *Store {
	return &Store{gw: gw, cache: c}
}

// Snapshot returns copies of all collections.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Subjects: append([]model.Subject(nil), s.subjects...),
		Sessions: append([]model.StudySession(nil), s.sessions...),
		Schedule: append([]model.ScheduleItem(nil), s.schedule...),
		Notes:    append([]model.Note(nil), s.notes...),
	}
	if s.user != nil {
		u := *s.user
		snap.User = &u
	}
	return snap
}

// --- Auth ---

// CheckAuth resolves the current user. ErrNotAuthenticated means the
// backend has no session for us and the login view should be shown.
func (s *Store) CheckAuth(ctx context.Context) (*model.User, error) {
	user, err := s.gw.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotAuthenticated
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// Login authenticates and stores the resulting user.
func (s *Store) Login(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrValidation)
	}
	user, err := s.gw.Login(ctx, username, password)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	logger.Info("logged in", logger.F("username", user.Username))
	return user, nil
}

// Logout ends the session and clears all local state and cache.
func (s *Store) Logout(ctx context.Context) error {
	err := s.gw.Logout(ctx)

	s.mu.Lock()
	s.user = nil
	s.subjects = nil
	s.sessions = nil
	s.schedule = nil
	s.notes = nil
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.Erase()
	}
	return err
}

// --- Refresh cycle ---

// RefreshAll fetches subjects, sessions, schedule, and notes in that
// order. A failed fetch falls back to the cached copy of that collection
// and contributes a user-visible warning; successful fetches replace the
// collection and rewrite its cache entry. There is no automatic retry.
func (s *Store) RefreshAll(ctx context.Context) []string {
	var warnings []string
	if err := s.RefreshSubjects(ctx); err != nil {
		warnings = append(warnings, "subjects unavailable, showing cached data")
	}
	if err := s.RefreshSessions(ctx); err != nil {
		warnings = append(warnings, "sessions unavailable, showing cached data")
	}
	if err := s.RefreshSchedule(ctx); err != nil {
		warnings = append(warnings, "schedule unavailable, showing cached data")
	}
	if err := s.RefreshNotes(ctx); err != nil {
		warnings = append(warnings, "notes unavailable, showing cached data")
	}
	return warnings
}

func (s *Store) RefreshSubjects(ctx context.Context) error {
	subjects, err := s.gw.ListSubjects(ctx)
	if err != nil {
		logger.Warn("refresh subjects failed", logger.F("error", err))
		s.fallbackSubjects()
		return err
	}
	s.mu.Lock()
	s.subjects = subjects
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.SaveSubjects(subjects)
	}
	return nil
}

func (s *Store) fallbackSubjects() {
	if s.cache == nil {
		return
	}
	if cached, err := s.cache.LoadSubjects(); err == nil && cached != nil {
		s.mu.Lock()
		s.subjects = cached
		s.mu.Unlock()
	}
}

func (s *Store) RefreshSessions(ctx context.Context) error {
	sessions, err := s.gw.ListSessions(ctx, api.SessionFilter{})
	if err != nil {
		logger.Warn("refresh sessions failed", logger.F("error", err))
		s.fallbackSessions()
		return err
	}
	s.mu.Lock()
	s.sessions = sessions
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.SaveSessions(sessions)
	}
	return nil
}

func (s *Store) fallbackSessions() {
	if s.cache == nil {
		return
	}
	if cached, err := s.cache.LoadSessions(); err == nil && cached != nil {
		s.mu.Lock()
		s.sessions = cached
		s.mu.Unlock()
	}
}

func (s *Store) RefreshSchedule(ctx context.Context) error {
	items, err := s.gw.ListSchedule(ctx, api.ScheduleFilter{})
	if err != nil {
		logger.Warn("refresh schedule failed", logger.F("error", err))
		s.fallbackSchedule()
		return err
	}
	s.mu.Lock()
	s.schedule = items
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.SaveSchedule(items)
	}
	return nil
}

func (s *Store) fallbackSchedule() {
	if s.cache == nil {
		return
	}
	if cached, err := s.cache.LoadSchedule(); err == nil && cached != nil {
		s.mu.Lock()
		s.schedule = cached
		s.mu.Unlock()
	}
}

func (s *Store) RefreshNotes(ctx context.Context) error {
	notes, err := s.gw.ListNotes(ctx, 0)
	if err != nil {
		logger.Warn("refresh notes failed", logger.F("error", err))
		s.fallbackNotes()
		return err
	}
	s.mu.Lock()
	s.notes = notes
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.SaveNotes(notes)
	}
	return nil
}

func (s *Store) fallbackNotes() {
	if s.cache == nil {
		return
	}
	if cached, err := s.cache.LoadNotes(); err == nil && cached != nil {
		s.mu.Lock()
		s.notes = cached
		s.mu.Unlock()
	}
}

// --- Create operations ---

// CreateSubject validates, creates, and appends the returned entity.
func (s *Store) CreateSubject(ctx context.Context, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: subject name is required", ErrValidation)
	}
	subject, err := s.gw.CreateSubject(ctx, name, color)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.subjects = append(s.subjects, *subject)
	subjects := append([]model.Subject(nil), s.subjects...)
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.SaveSubjects(subjects)
	}
	return nil
}

// CreateSession validates, creates, then re-fetches the session list.
// On validation failure nothing is sent and no collection changes.
func (s *Store) CreateSession(ctx context.Context, sess model.StudySession) error {
	if sess.SubjectID == 0 {
		return fmt.Errorf("%w: a subject is required", ErrValidation)
	}
	if sess.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of minutes", ErrValidation)
	}
	if _, err := time.Parse(model.DateLayout, sess.Date); err != nil {
		return fmt.Errorf("%w: date must be in YYYY-MM-DD form", ErrValidation)
	}
	if sess.Technique == "" {
		sess.Technique = model.TechniqueManual
	}

	if _, err := s.gw.CreateSession(ctx, sess); err != nil {
		return err
	}
	return s.RefreshSessions(ctx)
}

// CreateScheduleItem validates, creates, then re-fetches the schedule.
func (s *Store) CreateScheduleItem(ctx context.Context, item model.ScheduleItem) error {
	if item.SubjectID == 0 {
		return fmt.Errorf("%w: a subject is required", ErrValidation)
	}
	if strings.TrimSpace(item.Title) == "" {
		return fmt.Errorf("%w: a title is required", ErrValidation)
	}
	if item.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of minutes", ErrValidation)
	}
	if _, err := time.Parse(model.DateLayout, item.Date); err != nil {
		return fmt.Errorf("%w: date must be in YYYY-MM-DD form", ErrValidation)
	}
	if _, err := time.Parse(model.TimeLayout, item.Time); err != nil {
		return fmt.Errorf("%w: time must be in HH:MM form", ErrValidation)
	}

	if _, err := s.gw.CreateScheduleItem(ctx, item); err != nil {
		return err
	}
	return s.RefreshSchedule(ctx)
}

// CreateNote validates, creates, then re-fetches the note list.
func (s *Store) CreateNote(ctx context.Context, n model.Note) error {
	if n.SubjectID == 0 {
		return fmt.Errorf("%w: a subject is required", ErrValidation)
	}
	if strings.TrimSpace(n.Title) == "" {
		return fmt.Errorf("%w: a title is required", ErrValidation)
	}
	if strings.TrimSpace(n.Content) == "" {
		return fmt.Errorf("%w: content is required", ErrValidation)
	}

	if _, err := s.gw.CreateNote(ctx, n); err != nil {
		return err
	}
	return s.RefreshNotes(ctx)
}

// ToggleScheduleItem flips completion on the backend then re-fetches.
func (s *Store) ToggleScheduleItem(ctx context.Context, id int64) error {
	s.mu.RLock()
	var current, found = false, false
	for _, item := range s.schedule {
		if item.ID == id {
			current, found = item.Completed, true
			break
		}
	}
	s.mu.RUnlock()
	if !found {
		return fmt.Errorf("schedule item %d not found", id)
	}

	if err := s.gw.UpdateScheduleStatus(ctx, id, !current); err != nil {
		return err
	}
	return s.RefreshSchedule(ctx)
}

// --- Local-only deletes ---
// These mutate the cached copy only; the backend keeps the entity and the
// next full refresh restores it. No delete endpoint exists yet.

// DeleteSessionLocal removes a session from memory and cache.
func (s *Store) DeleteSessionLocal(id int64) {
	s.mu.Lock()
	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.sessions = kept
	sessions := append([]model.StudySession(nil), s.sessions...)
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.SaveSessions(sessions)
	}
}

// UpdateSubjectLocal is the optimistic name/color edit. The backend has
// no update endpoint, so the change lasts until the next full refresh.
func (s *Store) UpdateSubjectLocal(id int64, name, color string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: subject name is required", ErrValidation)
	}
	s.mu.Lock()
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			s.subjects[i].Name = name
			s.subjects[i].Color = color
			break
		}
	}
	subjects := append([]model.Subject(nil), s.subjects...)
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.SaveSubjects(subjects)
	}
	return nil
}

// DeleteSubjectLocal removes a subject from memory and cache. Sessions,
// notes, and schedule items that referenced it stay, with a dangling
// reference the views render as a removed subject.
func (s *Store) DeleteSubjectLocal(id int64) {
	s.mu.Lock()
	kept := s.subjects[:0]
	for _, sub := range s.subjects {
		if sub.ID != id {
			kept = append(kept, sub)
		}
	}
	s.subjects = kept
	subjects := append([]model.Subject(nil), s.subjects...)
	s.mu.Unlock()
	if s.cache != nil {
		s.cache.SaveSubjects(subjects)
	}
}

// WeeklyStats proxies the backend aggregate for the reports screen.
func (s *Store) WeeklyStats(ctx context.Context, weekStart string) (*model.WeeklyStats, error) {
	return s.gw.WeeklyStats(ctx, weekStart)
}
