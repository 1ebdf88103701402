package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/studyflow/studyflow/internal/model"
)

type testEnv struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	srv, err := New(":memory:")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(func() {
		ts.Close()
		srv.Close()
	})
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testEnv{t: t, base: ts.URL, client: &http.Client{Jar: jar}}
}

// request sends a JSON request and decodes the JSON response into out
// (which may be nil). It returns the status code.
func (e *testEnv) request(method, path string, body, out any) int {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			e.t.Fatalf("encode body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.base+path, &buf)
	if err != nil {
		e.t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := e.client.Do(req)
	if err != nil {
		e.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			e.t.Fatalf("decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) login(username, password string) {
	e.t.Helper()
	code := e.request(http.MethodPost, "/api/login",
		map[string]string{"username": username, "password": password}, nil)
	if code != http.StatusOK {
		e.t.Fatalf("login %s: status %d", username, code)
	}
}

func errorMessage(t *testing.T, body map[string]any) string {
	t.Helper()
	msg, ok := body["error"].(string)
	if !ok {
		t.Fatalf("response has no error field: %v", body)
	}
	return msg
}

func TestLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]any
	code := env.request(http.MethodPost, "/api/login",
		map[string]string{"username": "lucas.mendes", "password": "wrong"}, &body)
	if code != http.StatusUnauthorized {
		t.Fatalf("bad password: status %d, want 401", code)
	}
	if msg := errorMessage(t, body); msg != "Invalid credentials" {
		t.Fatalf("bad password error = %q", msg)
	}

	code = env.request(http.MethodPost, "/api/login",
		map[string]string{"username": "lucas.mendes"}, &body)
	if code != http.StatusBadRequest {
		t.Fatalf("missing password: status %d, want 400", code)
	}

	var login struct {
		Success bool       `json:"success"`
		User    model.User `json:"user"`
	}
	code = env.request(http.MethodPost, "/api/login",
		map[string]string{"username": "lucas.mendes", "password": "lucas123"}, &login)
	if code != http.StatusOK {
		t.Fatalf("login: status %d", code)
	}
	if !login.Success || login.User.FullName != "Lucas Mendes" || login.User.Role != "user" {
		t.Fatalf("unexpected login payload: %+v", login)
	}

	var current struct {
		User *model.User `json:"user"`
	}
	code = env.request(http.MethodGet, "/api/current-user", nil, &current)
	if code != http.StatusOK {
		t.Fatalf("current-user: status %d", code)
	}
	if current.User == nil || current.User.Username != "lucas.mendes" {
		t.Fatalf("current-user = %+v", current.User)
	}

	if code := env.request(http.MethodPost, "/api/logout", nil, nil); code != http.StatusOK {
		t.Fatalf("logout: status %d", code)
	}
	current.User = nil
	env.request(http.MethodGet, "/api/current-user", nil, &current)
	if current.User != nil {
		t.Fatalf("user still reported after logout: %+v", current.User)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	var body map[string]any
	code := env.request(http.MethodGet, "/api/subjects", nil, &body)
	if code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", code)
	}
	if msg := errorMessage(t, body); msg != "Authentication required" {
		t.Fatalf("error = %q", msg)
	}
}

func TestSubjectCreateAndList(t *testing.T) {
	env := newTestEnv(t)
	env.login("lucas.mendes", "lucas123")

	var body map[string]any
	code := env.request(http.MethodPost, "/api/subjects", map[string]string{"name": ""}, &body)
	if code != http.StatusBadRequest {
		t.Fatalf("blank name: status %d", code)
	}
	if msg := errorMessage(t, body); msg != "Nome da disciplina é obrigatório" {
		t.Fatalf("blank name error = %q", msg)
	}

	var created model.Subject
	code = env.request(http.MethodPost, "/api/subjects",
		map[string]string{"name": "Matemática"}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	if created.ID == 0 || created.Color != "#4A90E2" {
		t.Fatalf("created subject = %+v, want default color", created)
	}

	env.request(http.MethodPost, "/api/subjects",
		map[string]string{"name": "Física", "color": "#FF6B6B"}, nil)

	var subjects []model.Subject
	env.request(http.MethodGet, "/api/subjects", nil, &subjects)
	if len(subjects) != 2 {
		t.Fatalf("len(subjects) = %d", len(subjects))
	}
	// Ordered by name.
	if subjects[0].Name != "Física" || subjects[1].Name != "Matemática" {
		t.Fatalf("unexpected order: %v, %v", subjects[0].Name, subjects[1].Name)
	}
}

func TestSubjectsAreScopedPerUser(t *testing.T) {
	env := newTestEnv(t)
	env.login("lucas.mendes", "lucas123")
	env.request(http.MethodPost, "/api/subjects", map[string]string{"name": "História"}, nil)

	env.login("ana.beatriz", "ana123")
	var subjects []model.Subject
	env.request(http.MethodGet, "/api/subjects", nil, &subjects)
	if len(subjects) != 0 {
		t.Fatalf("ana sees %d subjects belonging to lucas", len(subjects))
	}
}

func TestSessionCreateValidationAndList(t *testing.T) {
	env := newTestEnv(t)
	env.login("lucas.mendes", "lucas123")

	var subject model.Subject
	env.request(http.MethodPost, "/api/subjects", map[string]string{"name": "Química"}, &subject)

	cases := []struct {
		body map[string]any
		want string
	}{
		{map[string]any{"duration_minutes": 50, "date": "2025-03-10"}, "Campo subject_id é obrigatório"},
		{map[string]any{"subject_id": subject.ID, "date": "2025-03-10"}, "Campo duration_minutes é obrigatório"},
		{map[string]any{"subject_id": subject.ID, "duration_minutes": 50}, "Campo date é obrigatório"},
	}
	for _, tc := range cases {
		var body map[string]any
		code := env.request(http.MethodPost, "/api/study-sessions", tc.body, &body)
		if code != http.StatusBadRequest {
			t.Fatalf("body %v: status %d", tc.body, code)
		}
		if msg := errorMessage(t, body); msg != tc.want {
			t.Fatalf("body %v: error = %q, want %q", tc.body, msg, tc.want)
		}
	}

	var created struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	code := env.request(http.MethodPost, "/api/study-sessions", map[string]any{
		"subject_id": subject.ID, "duration_minutes": 50, "date": "2025-03-10",
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	if created.Message != "Sessão de estudo criada com sucesso" {
		t.Fatalf("message = %q", created.Message)
	}
	env.request(http.MethodPost, "/api/study-sessions", map[string]any{
		"subject_id": subject.ID, "duration_minutes": 30, "date": "2025-03-12",
		"technique": "active_recall",
	}, nil)

	var sessions []model.StudySession
	env.request(http.MethodGet, "/api/study-sessions", nil, &sessions)
	if len(sessions) != 2 {
		t.Fatalf("len(sessions) = %d", len(sessions))
	}
	// date DESC, so the newer session comes first.
	if sessions[0].Date != "2025-03-12" || sessions[1].Date != "2025-03-10" {
		t.Fatalf("unexpected order: %s, %s", sessions[0].Date, sessions[1].Date)
	}
	if sessions[0].SubjectName != "Química" || sessions[0].SubjectColor != "#4A90E2" {
		t.Fatalf("subject join missing: %+v", sessions[0])
	}
	// Empty technique defaults to pomodoro.
	if sessions[1].Technique != model.TechniquePomodoro {
		t.Fatalf("technique = %q", sessions[1].Technique)
	}

	var filtered []model.StudySession
	env.request(http.MethodGet, "/api/study-sessions?start_date=2025-03-11&end_date=2025-03-13", nil, &filtered)
	if len(filtered) != 1 || filtered[0].Date != "2025-03-12" {
		t.Fatalf("date filter returned %+v", filtered)
	}

	filtered = nil
	env.request(http.MethodGet, fmt.Sprintf("/api/study-sessions?subject_id=%d", subject.ID+99), nil, &filtered)
	if len(filtered) != 0 {
		t.Fatalf("subject filter returned %d sessions", len(filtered))
	}
}

func TestScheduleLifecycle(t *testing.T) {
	env := newTestEnv(t)
	env.login("lucas.mendes", "lucas123")

	var subject model.Subject
	env.request(http.MethodPost, "/api/subjects", map[string]string{"name": "Biologia"}, &subject)

	var body map[string]any
	code := env.request(http.MethodPost, "/api/schedule", map[string]any{
		"subject_id": subject.ID, "title": "Revisão", "date": "2025-03-10", "time": "14:00",
	}, &body)
	if code != http.StatusBadRequest {
		t.Fatalf("missing duration: status %d", code)
	}
	if msg := errorMessage(t, body); msg != "Campo duration_minutes é obrigatório" {
		t.Fatalf("error = %q", msg)
	}

	var created struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	code = env.request(http.MethodPost, "/api/schedule", map[string]any{
		"subject_id": subject.ID, "title": "Revisão", "date": "2025-03-10",
		"time": "14:00", "duration_minutes": 60,
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	if created.Message != "Item agendado com sucesso" {
		t.Fatalf("message = %q", created.Message)
	}

	var items []model.ScheduleItem
	env.request(http.MethodGet, "/api/schedule?week_start=2025-03-09", nil, &items)
	if len(items) != 1 || items[0].Completed {
		t.Fatalf("week filter returned %+v", items)
	}
	if items[0].SubjectName != "Biologia" {
		t.Fatalf("subject join missing: %+v", items[0])
	}

	items = nil
	env.request(http.MethodGet, "/api/schedule?week_start=2025-03-16", nil, &items)
	if len(items) != 0 {
		t.Fatalf("next week should be empty, got %+v", items)
	}

	var updated map[string]string
	code = env.request(http.MethodPut, fmt.Sprintf("/api/schedule/%d", created.ID),
		map[string]bool{"completed": true}, &updated)
	if code != http.StatusOK {
		t.Fatalf("update: status %d", code)
	}
	if updated["message"] != "Status atualizado com sucesso" {
		t.Fatalf("message = %q", updated["message"])
	}

	items = nil
	env.request(http.MethodGet, "/api/schedule?date=2025-03-10", nil, &items)
	if len(items) != 1 || !items[0].Completed {
		t.Fatalf("completed flag not persisted: %+v", items)
	}

	code = env.request(http.MethodPut, "/api/schedule/9999", map[string]bool{"completed": true}, nil)
	if code != http.StatusNotFound {
		t.Fatalf("missing item: status %d, want 404", code)
	}
}

func TestNotes(t *testing.T) {
	env := newTestEnv(t)
	env.login("lucas.mendes", "lucas123")

	var first, second model.Subject
	env.request(http.MethodPost, "/api/subjects", map[string]string{"name": "Inglês"}, &first)
	env.request(http.MethodPost, "/api/subjects", map[string]string{"name": "Geografia"}, &second)

	var body map[string]any
	code := env.request(http.MethodPost, "/api/notes",
		map[string]any{"subject_id": first.ID, "title": "Phrasal verbs"}, &body)
	if code != http.StatusBadRequest {
		t.Fatalf("missing content: status %d", code)
	}
	if msg := errorMessage(t, body); msg != "Campo content é obrigatório" {
		t.Fatalf("error = %q", msg)
	}

	var created struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	code = env.request(http.MethodPost, "/api/notes", map[string]any{
		"subject_id": first.ID, "title": "Phrasal verbs", "content": "get up, give in",
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	if created.Message != "Anotação criada com sucesso" {
		t.Fatalf("message = %q", created.Message)
	}
	env.request(http.MethodPost, "/api/notes", map[string]any{
		"subject_id": second.ID, "title": "Climas", "content": "tropical, temperado",
	}, nil)

	var notes []model.Note
	env.request(http.MethodGet, "/api/notes", nil, &notes)
	if len(notes) != 2 {
		t.Fatalf("len(notes) = %d", len(notes))
	}

	notes = nil
	env.request(http.MethodGet, fmt.Sprintf("/api/notes?subject_id=%d", second.ID), nil, &notes)
	if len(notes) != 1 || notes[0].Title != "Climas" {
		t.Fatalf("subject filter returned %+v", notes)
	}
	if notes[0].SubjectName != "Geografia" {
		t.Fatalf("subject join missing: %+v", notes[0])
	}
}

func TestWeeklyStats(t *testing.T) {
	env := newTestEnv(t)
	env.login("lucas.mendes", "lucas123")

	var subject model.Subject
	env.request(http.MethodPost, "/api/subjects", map[string]string{"name": "Redação"}, &subject)
	for _, s := range []struct {
		minutes int
		date    string
	}{
		{50, "2025-03-09"},
		{25, "2025-03-09"},
		{60, "2025-03-12"},
		{90, "2025-03-16"}, // next week, excluded
	} {
		env.request(http.MethodPost, "/api/study-sessions", map[string]any{
			"subject_id": subject.ID, "duration_minutes": s.minutes, "date": s.date,
		}, nil)
	}

	// Another user's sessions must not leak into the stats.
	env.login("ana.beatriz", "ana123")
	var other model.Subject
	env.request(http.MethodPost, "/api/subjects", map[string]string{"name": "Redação"}, &other)
	env.request(http.MethodPost, "/api/study-sessions", map[string]any{
		"subject_id": other.ID, "duration_minutes": 120, "date": "2025-03-10",
	}, nil)
	env.login("lucas.mendes", "lucas123")

	var stats model.WeeklyStats
	code := env.request(http.MethodGet, "/api/stats/weekly?week_start=2025-03-09", nil, &stats)
	if code != http.StatusOK {
		t.Fatalf("stats: status %d", code)
	}
	// 135 minutes rounded to hundredths of an hour.
	if stats.TotalHours != 2.25 {
		t.Fatalf("TotalHours = %v, want 2.25", stats.TotalHours)
	}
	if len(stats.BySubject) != 1 || stats.BySubject[0].TotalMinutes != 135 {
		t.Fatalf("BySubject = %+v", stats.BySubject)
	}
	if len(stats.Daily) != 2 {
		t.Fatalf("Daily = %+v", stats.Daily)
	}
	if stats.Daily[0].Date != "2025-03-09" || stats.Daily[0].TotalMinutes != 75 || stats.Daily[0].SessionCount != 2 {
		t.Fatalf("Daily[0] = %+v", stats.Daily[0])
	}

	code = env.request(http.MethodGet, "/api/stats/weekly?week_start=bogus", nil, nil)
	if code != http.StatusBadRequest {
		t.Fatalf("bad week_start: status %d", code)
	}
}

func TestPomodoroEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.login("lucas.mendes", "lucas123")

	var subject model.Subject
	env.request(http.MethodPost, "/api/subjects", map[string]string{"name": "Programação"}, &subject)

	var created struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	code := env.request(http.MethodPost, "/api/pomodoro-sessions",
		map[string]any{"subject_id": subject.ID}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create: status %d", code)
	}
	if created.Message != "Sessão Pomodoro salva com sucesso" {
		t.Fatalf("message = %q", created.Message)
	}

	var sessions []model.StudySession
	env.request(http.MethodGet, "/api/study-sessions", nil, &sessions)
	if len(sessions) != 1 {
		t.Fatalf("len(sessions) = %d", len(sessions))
	}
	got := sessions[0]
	if got.DurationMinutes != 25 {
		t.Fatalf("DurationMinutes = %d, want default 25", got.DurationMinutes)
	}
	if got.Technique != model.TechniquePomodoro {
		t.Fatalf("Technique = %q", got.Technique)
	}
	if got.Date != time.Now().Format(model.DateLayout) {
		t.Fatalf("Date = %q, want today", got.Date)
	}
	if got.Notes != "Sessão Pomodoro - 25 minutos" {
		t.Fatalf("Notes = %q", got.Notes)
	}
}

func TestAdminUserManagement(t *testing.T) {
	env := newTestEnv(t)

	env.login("lucas.mendes", "lucas123")
	var body map[string]any
	code := env.request(http.MethodGet, "/api/admin/users", nil, &body)
	if code != http.StatusForbidden {
		t.Fatalf("non-admin: status %d, want 403", code)
	}
	if msg := errorMessage(t, body); msg != "Admin access required" {
		t.Fatalf("error = %q", msg)
	}

	env.login("admin", "admin123")
	var users []adminUser
	env.request(http.MethodGet, "/api/admin/users", nil, &users)
	if len(users) != 3 {
		t.Fatalf("len(users) = %d, want the seeded accounts", len(users))
	}

	code = env.request(http.MethodPost, "/api/admin/users", map[string]string{
		"username": "lucas.mendes", "password": "x", "full_name": "Duplicado",
	}, &body)
	if code != http.StatusBadRequest {
		t.Fatalf("duplicate username: status %d", code)
	}
	if msg := errorMessage(t, body); msg != "Username already exists" {
		t.Fatalf("error = %q", msg)
	}

	var created struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	}
	code = env.request(http.MethodPost, "/api/admin/users", map[string]string{
		"username": "joao.silva", "password": "joao123", "full_name": "João Silva",
	}, &created)
	if code != http.StatusCreated {
		t.Fatalf("create user: status %d", code)
	}
	if created.Role != "user" {
		t.Fatalf("role = %q, want default user", created.Role)
	}

	code = env.request(http.MethodPut, fmt.Sprintf("/api/admin/users/%d", created.ID),
		map[string]string{"username": "joao.silva", "full_name": "João da Silva", "role": "admin"}, nil)
	if code != http.StatusOK {
		t.Fatalf("update user: status %d", code)
	}

	// The new credentials must actually work.
	other := newTestEnvClient(t, env.base)
	other.login("joao.silva", "joao123")

	var adminID int64
	for _, u := range users {
		if u.Username == "admin" {
			adminID = u.ID
		}
	}
	code = env.request(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", adminID), nil, &body)
	if code != http.StatusBadRequest {
		t.Fatalf("self delete: status %d", code)
	}
	if msg := errorMessage(t, body); msg != "Cannot delete your own account" {
		t.Fatalf("error = %q", msg)
	}

	code = env.request(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", created.ID), nil, nil)
	if code != http.StatusOK {
		t.Fatalf("delete user: status %d", code)
	}
	code = env.request(http.MethodDelete, fmt.Sprintf("/api/admin/users/%d", created.ID), nil, nil)
	if code != http.StatusNotFound {
		t.Fatalf("delete missing user: status %d, want 404", code)
	}
}

// newTestEnvClient returns a second client, with its own cookie jar,
// against an already running server.
func newTestEnvClient(t *testing.T, base string) *testEnv {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	return &testEnv{t: t, base: base, client: &http.Client{Jar: jar}}
}
