package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/studyflow/studyflow/internal/model"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(srv.URL)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestLoginSendsCredentialsAndKeepsCookie(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["username"] != "lucas.mendes" || body["password"] != "lucas123" {
			t.Errorf("credentials = %v", body)
		}
		http.SetCookie(w, &http.Cookie{Name: "studyflow_session", Value: "tok-123", Path: "/"})
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"user":    model.User{ID: 2, Username: "lucas.mendes", FullName: "Lucas Mendes", Role: "user"},
		})
	})
	mux.HandleFunc("GET /api/current-user", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("studyflow_session")
		if err != nil || ck.Value != "tok-123" {
			json.NewEncoder(w).Encode(map[string]any{"user": nil})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"user": model.User{ID: 2, Username: "lucas.mendes", FullName: "Lucas Mendes", Role: "user"},
		})
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	user, err := c.Login(ctx, "lucas.mendes", "lucas123")
	if err != nil {
		t.Fatal(err)
	}
	if user.FullName != "Lucas Mendes" {
		t.Fatalf("user = %+v", user)
	}
	if c.SessionToken() != "tok-123" {
		t.Fatalf("session token = %q", c.SessionToken())
	}

	// The cookie rides along on the next request.
	current, err := c.CurrentUser(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if current == nil || current.ID != 2 {
		t.Fatalf("current user = %+v", current)
	}
}

func TestSetSessionTokenResumesSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/current-user", func(w http.ResponseWriter, r *http.Request) {
		ck, err := r.Cookie("studyflow_session")
		if err != nil || ck.Value != "saved-tok" {
			json.NewEncoder(w).Encode(map[string]any{"user": nil})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"user": model.User{ID: 1, Username: "admin"}})
	})

	c := newTestClient(t, mux)
	c.SetSessionToken("saved-tok")

	user, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user == nil || user.Username != "admin" {
		t.Fatalf("user = %+v", user)
	}
}

func TestErrorDecoding(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/login", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "Usuário ou senha inválidos"})
	})

	c := newTestClient(t, mux)
	_, err := c.Login(context.Background(), "x", "y")
	if err == nil {
		t.Fatal("expected error")
	}

	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("err type = %T", err)
	}
	if apiErr.Status != 401 || apiErr.Message != "Usuário ou senha inválidos" {
		t.Fatalf("apiErr = %+v", apiErr)
	}
	if !IsAuthError(err) {
		t.Fatal("IsAuthError should report 401")
	}
}

func TestSessionFilterQuery(t *testing.T) {
	var gotQuery string
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/study-sessions", func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		json.NewEncoder(w).Encode([]model.StudySession{})
	})

	c := newTestClient(t, mux)
	ctx := context.Background()

	if _, err := c.ListSessions(ctx, SessionFilter{}); err != nil {
		t.Fatal(err)
	}
	if gotQuery != "" {
		t.Fatalf("empty filter query = %q", gotQuery)
	}

	_, err := c.ListSessions(ctx, SessionFilter{StartDate: "2025-03-09", EndDate: "2025-03-15", SubjectID: 3})
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery != "end_date=2025-03-15&start_date=2025-03-09&subject_id=3" {
		t.Fatalf("query = %q", gotQuery)
	}
}

func TestCreateSessionPostsSnakeCase(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/study-sessions", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["subject_id"] != float64(3) || body["duration_minutes"] != float64(50) {
			t.Errorf("body = %v", body)
		}
		if body["technique"] != "pomodoro" {
			t.Errorf("technique = %v", body["technique"])
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{"id": 11, "message": "Sessão de estudo criada com sucesso"})
	})

	c := newTestClient(t, mux)
	id, err := c.CreateSession(context.Background(), model.StudySession{
		SubjectID:       3,
		DurationMinutes: 50,
		Date:            "2025-03-12",
		Technique:       model.TechniquePomodoro,
	})
	if err != nil {
		t.Fatal(err)
	}
	if id != 11 {
		t.Fatalf("id = %d", id)
	}
}

func TestUpdateScheduleStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("PUT /api/schedule/7", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		json.NewDecoder(r.Body).Decode(&body)
		if !body["completed"] {
			t.Errorf("body = %v", body)
		}
		json.NewEncoder(w).Encode(map[string]string{"message": "Status atualizado com sucesso"})
	})

	c := newTestClient(t, mux)
	if err := c.UpdateScheduleStatus(context.Background(), 7, true); err != nil {
		t.Fatal(err)
	}
}

func TestWeeklyStats(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/stats/weekly", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("week_start"); got != "2025-03-09" {
			t.Errorf("week_start = %q", got)
		}
		json.NewEncoder(w).Encode(model.WeeklyStats{
			TotalHours: 7.5,
			BySubject:  []model.SubjectStat{{Name: "Cálculo", Color: "#4A90E2", TotalMinutes: 450}},
			Daily:      []model.DailyStat{{Date: "2025-03-10", TotalMinutes: 450, SessionCount: 3}},
		})
	})

	c := newTestClient(t, mux)
	stats, err := c.WeeklyStats(context.Background(), "2025-03-09")
	if err != nil {
		t.Fatal(err)
	}
	if stats.TotalHours != 7.5 || len(stats.BySubject) != 1 || len(stats.Daily) != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestCurrentUserNullMeansLoggedOut(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/current-user", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"user": nil})
	})

	c := newTestClient(t, mux)
	user, err := c.CurrentUser(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if user != nil {
		t.Fatalf("user = %+v, want nil", user)
	}
}
