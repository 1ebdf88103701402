package state

import (
	"context"
	"errors"
	"testing"

	"github.com/studyflow/studyflow/internal/api"
	"github.com/studyflow/studyflow/internal/cache"
	"github.com/studyflow/studyflow/internal/model"
)

// fakeGateway scripts backend behavior per method and counts calls.
type fakeGateway struct {
	user     *model.User
	subjects []model.Subject
	sessions []model.StudySession
	schedule []model.ScheduleItem
	notes    []model.Note
	stats    *model.WeeklyStats

	failSubjects bool
	failSessions bool
	failSchedule bool
	failNotes    bool

	createSessionCalls  int
	createScheduleCalls int
	createNoteCalls     int
	updateScheduleCalls int
	lastUpdateID        int64
	lastUpdateValue     bool
}

var errBackend = errors.New("backend down")

func (f *fakeGateway) CurrentUser(ctx context.Context) (*model.User, error) {
	return f.user, nil
}

func (f *fakeGateway) Login(ctx context.Context, username, password string) (*model.User, error) {
	if password != "ok" {
		return nil, &api.Error{Status: 401, Message: "Usuário ou senha inválidos"}
	}
	f.user = &model.User{ID: 1, Username: username, FullName: "Teste", Role: "user"}
	return f.user, nil
}

func (f *fakeGateway) Logout(ctx context.Context) error {
	f.user = nil
	return nil
}

func (f *fakeGateway) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	if f.failSubjects {
		return nil, errBackend
	}
	return f.subjects, nil
}

func (f *fakeGateway) CreateSubject(ctx context.Context, name, color string) (*model.Subject, error) {
	sub := model.Subject{ID: int64(len(f.subjects) + 1), Name: name, Color: color}
	f.subjects = append(f.subjects, sub)
	return &sub, nil
}

func (f *fakeGateway) ListSessions(ctx context.Context, _ api.SessionFilter) ([]model.StudySession, error) {
	if f.failSessions {
		return nil, errBackend
	}
	return f.sessions, nil
}

func (f *fakeGateway) CreateSession(ctx context.Context, s model.StudySession) (int64, error) {
	f.createSessionCalls++
	s.ID = int64(len(f.sessions) + 1)
	f.sessions = append(f.sessions, s)
	return s.ID, nil
}

func (f *fakeGateway) ListSchedule(ctx context.Context, _ api.ScheduleFilter) ([]model.ScheduleItem, error) {
	if f.failSchedule {
		return nil, errBackend
	}
	return f.schedule, nil
}

func (f *fakeGateway) CreateScheduleItem(ctx context.Context, item model.ScheduleItem) (int64, error) {
	f.createScheduleCalls++
	item.ID = int64(len(f.schedule) + 1)
	f.schedule = append(f.schedule, item)
	return item.ID, nil
}

func (f *fakeGateway) UpdateScheduleStatus(ctx context.Context, id int64, completed bool) error {
	f.updateScheduleCalls++
	f.lastUpdateID = id
	f.lastUpdateValue = completed
	for i := range f.schedule {
		if f.schedule[i].ID == id {
			f.schedule[i].Completed = completed
		}
	}
	return nil
}

func (f *fakeGateway) ListNotes(ctx context.Context, _ int64) ([]model.Note, error) {
	if f.failNotes {
		return nil, errBackend
	}
	return f.notes, nil
}

func (f *fakeGateway) CreateNote(ctx context.Context, n model.Note) (int64, error) {
	f.createNoteCalls++
	n.ID = int64(len(f.notes) + 1)
	f.notes = append(f.notes, n)
	return n.ID, nil
}

func (f *fakeGateway) WeeklyStats(ctx context.Context, weekStart string) (*model.WeeklyStats, error) {
	return f.stats, nil
}

func newTestStore(t *testing.T, gw *fakeGateway) *Store {
	t.Helper()
	return New(gw, cache.Open(t.TempDir()))
}

func TestCheckAuthNotAuthenticated(t *testing.T) {
	s := newTestStore(t, &fakeGateway{})
	_, err := s.CheckAuth(context.Background())
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("err = %v, want ErrNotAuthenticated", err)
	}
}

func TestLoginValidation(t *testing.T) {
	s := newTestStore(t, &fakeGateway{})
	if _, err := s.Login(context.Background(), "  ", "x"); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank username err = %v", err)
	}
	if _, err := s.Login(context.Background(), "lucas", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank password err = %v", err)
	}
}

func TestLoginStoresUser(t *testing.T) {
	s := newTestStore(t, &fakeGateway{})
	user, err := s.Login(context.Background(), "lucas", "ok")
	if err != nil {
		t.Fatal(err)
	}
	if user.Username != "lucas" {
		t.Fatalf("username = %q", user.Username)
	}
	if snap := s.Snapshot(); snap.User == nil || snap.User.Username != "lucas" {
		t.Fatal("snapshot should carry the user")
	}
}

func TestRefreshAllReplacesCollections(t *testing.T) {
	gw := &fakeGateway{
		subjects: []model.Subject{{ID: 1, Name: "Cálculo"}},
		sessions: []model.StudySession{{ID: 1, SubjectID: 1, Date: "2025-03-12", DurationMinutes: 30}},
	}
	s := newTestStore(t, gw)

	if warnings := s.RefreshAll(context.Background()); len(warnings) != 0 {
		t.Fatalf("warnings = %v", warnings)
	}
	snap := s.Snapshot()
	if len(snap.Subjects) != 1 || len(snap.Sessions) != 1 {
		t.Fatalf("snapshot = %+v", snap)
	}

	// A second refresh replaces rather than appends.
	gw.subjects = []model.Subject{{ID: 2, Name: "Física"}}
	s.RefreshAll(context.Background())
	snap = s.Snapshot()
	if len(snap.Subjects) != 1 || snap.Subjects[0].ID != 2 {
		t.Fatalf("subjects after second refresh = %+v", snap.Subjects)
	}
}

func TestRefreshFallsBackToCache(t *testing.T) {
	gw := &fakeGateway{subjects: []model.Subject{{ID: 1, Name: "Cálculo"}}}
	s := newTestStore(t, gw)
	s.RefreshAll(context.Background()) // primes the cache

	gw.failSubjects = true
	gw.subjects = nil
	warnings := s.RefreshAll(context.Background())
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want one", warnings)
	}
	snap := s.Snapshot()
	if len(snap.Subjects) != 1 || snap.Subjects[0].Name != "Cálculo" {
		t.Fatalf("cached subjects not restored: %+v", snap.Subjects)
	}
}

func TestCreateSessionValidatesBeforeNetwork(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestStore(t, gw)
	ctx := context.Background()

	cases := []model.StudySession{
		{SubjectID: 0, DurationMinutes: 30, Date: "2025-03-12"},
		{SubjectID: 1, DurationMinutes: 0, Date: "2025-03-12"},
		{SubjectID: 1, DurationMinutes: -5, Date: "2025-03-12"},
		{SubjectID: 1, DurationMinutes: 30, Date: "12/03/2025"},
	}
	for i, sess := range cases {
		if err := s.CreateSession(ctx, sess); !errors.Is(err, ErrValidation) {
			t.Errorf("case %d: err = %v, want ErrValidation", i, err)
		}
	}
	if gw.createSessionCalls != 0 {
		t.Fatalf("gateway called %d times for invalid input", gw.createSessionCalls)
	}
}

func TestCreateSessionDefaultsTechniqueAndRefetches(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestStore(t, gw)

	err := s.CreateSession(context.Background(), model.StudySession{
		SubjectID: 1, DurationMinutes: 30, Date: "2025-03-12",
	})
	if err != nil {
		t.Fatal(err)
	}
	if gw.createSessionCalls != 1 {
		t.Fatalf("create calls = %d", gw.createSessionCalls)
	}
	snap := s.Snapshot()
	if len(snap.Sessions) != 1 {
		t.Fatalf("sessions = %+v", snap.Sessions)
	}
	if snap.Sessions[0].Technique != model.TechniqueManual {
		t.Fatalf("technique = %q, want manual default", snap.Sessions[0].Technique)
	}
}

func TestCreateScheduleItemValidation(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestStore(t, gw)
	ctx := context.Background()

	base := model.ScheduleItem{SubjectID: 1, Title: "Revisão", Date: "2025-03-12", Time: "08:00", DurationMinutes: 60}

	bad := base
	bad.Title = "   "
	if err := s.CreateScheduleItem(ctx, bad); !errors.Is(err, ErrValidation) {
		t.Errorf("blank title err = %v", err)
	}
	bad = base
	bad.Time = "8am"
	if err := s.CreateScheduleItem(ctx, bad); !errors.Is(err, ErrValidation) {
		t.Errorf("bad time err = %v", err)
	}
	if gw.createScheduleCalls != 0 {
		t.Fatal("gateway should not be called for invalid input")
	}

	if err := s.CreateScheduleItem(ctx, base); err != nil {
		t.Fatal(err)
	}
	if len(s.Snapshot().Schedule) != 1 {
		t.Fatal("schedule not refetched after create")
	}
}

func TestCreateNoteValidation(t *testing.T) {
	gw := &fakeGateway{}
	s := newTestStore(t, gw)
	ctx := context.Background()

	if err := s.CreateNote(ctx, model.Note{SubjectID: 1, Title: "t"}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty content err = %v", err)
	}
	if err := s.CreateNote(ctx, model.Note{SubjectID: 1, Title: "Derivadas", Content: "Regra da cadeia"}); err != nil {
		t.Fatal(err)
	}
	if gw.createNoteCalls != 1 || len(s.Snapshot().Notes) != 1 {
		t.Fatal("note not created and refetched")
	}
}

func TestToggleScheduleItemFlips(t *testing.T) {
	gw := &fakeGateway{
		schedule: []model.ScheduleItem{{ID: 7, SubjectID: 1, Title: "Revisão", Completed: false}},
	}
	s := newTestStore(t, gw)
	ctx := context.Background()
	s.RefreshAll(ctx)

	if err := s.ToggleScheduleItem(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if gw.lastUpdateID != 7 || gw.lastUpdateValue != true {
		t.Fatalf("update call = (%d, %v)", gw.lastUpdateID, gw.lastUpdateValue)
	}
	snap := s.Snapshot()
	if !snap.Schedule[0].Completed {
		t.Fatal("item should be completed after refetch")
	}

	// Toggling again flips it back.
	if err := s.ToggleScheduleItem(ctx, 7); err != nil {
		t.Fatal(err)
	}
	if gw.lastUpdateValue != false {
		t.Fatal("second toggle should send false")
	}

	if err := s.ToggleScheduleItem(ctx, 99); err == nil {
		t.Fatal("unknown item should error")
	}
}

func TestLocalDeletesSurviveOnlyUntilRefresh(t *testing.T) {
	gw := &fakeGateway{
		subjects: []model.Subject{{ID: 1, Name: "Cálculo"}, {ID: 2, Name: "Física"}},
		sessions: []model.StudySession{{ID: 1, SubjectID: 1, Date: "2025-03-12", DurationMinutes: 30}},
	}
	s := newTestStore(t, gw)
	ctx := context.Background()
	s.RefreshAll(ctx)

	s.DeleteSubjectLocal(1)
	s.DeleteSessionLocal(1)
	snap := s.Snapshot()
	if len(snap.Subjects) != 1 || snap.Subjects[0].ID != 2 {
		t.Fatalf("subjects = %+v", snap.Subjects)
	}
	if len(snap.Sessions) != 0 {
		t.Fatalf("sessions = %+v", snap.Sessions)
	}

	// The backend still has them, so a refresh restores both.
	s.RefreshAll(ctx)
	snap = s.Snapshot()
	if len(snap.Subjects) != 2 || len(snap.Sessions) != 1 {
		t.Fatal("refresh should restore server state")
	}
}

func TestUpdateSubjectLocal(t *testing.T) {
	gw := &fakeGateway{subjects: []model.Subject{{ID: 1, Name: "Cálculo", Color: "#4A90E2"}}}
	s := newTestStore(t, gw)
	ctx := context.Background()
	s.RefreshAll(ctx)

	if err := s.UpdateSubjectLocal(1, " ", "#fff"); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name err = %v", err)
	}
	if err := s.UpdateSubjectLocal(1, "Cálculo II", "#FF6B6B"); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.Subjects[0].Name != "Cálculo II" || snap.Subjects[0].Color != "#FF6B6B" {
		t.Fatalf("subject = %+v", snap.Subjects[0])
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	gw := &fakeGateway{subjects: []model.Subject{{ID: 1, Name: "Cálculo"}}}
	s := newTestStore(t, gw)
	ctx := context.Background()
	s.Login(ctx, "lucas", "ok")
	s.RefreshAll(ctx)

	if err := s.Logout(ctx); err != nil {
		t.Fatal(err)
	}
	snap := s.Snapshot()
	if snap.User != nil || len(snap.Subjects) != 0 {
		t.Fatalf("snapshot after logout = %+v", snap)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	gw := &fakeGateway{subjects: []model.Subject{{ID: 1, Name: "Cálculo"}}}
	s := newTestStore(t, gw)
	s.RefreshAll(context.Background())

	snap := s.Snapshot()
	snap.Subjects[0].Name = "mutated"
	if s.Snapshot().Subjects[0].Name != "Cálculo" {
		t.Fatal("snapshot mutation leaked into the store")
	}
}
