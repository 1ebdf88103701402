// Package api is the HTTP gateway to the StudyFlow backend. It wraps one
// http.Client with a cookie jar for session auth, serializes JSON bodies,
// and surfaces non-2xx responses as *Error. It does not retry, cache, or
// deduplicate requests.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/studyflow/studyflow/internal/logger"
	"github.com/studyflow/studyflow/internal/model"
)

// Error is a non-2xx response from the backend.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

// IsAuthError reports whether err is a 401 from the backend.
func IsAuthError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// Client talks to the backend REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a gateway client for the given base URL. The cookie
// jar carries the backend's session cookie across requests.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}, nil
}

// sessionCookie must match the cookie name the backend sets on login.
const sessionCookie = "studyflow_session"

// SessionToken returns the current session cookie value, or "" when the
// client has no session.
func (c *Client) SessionToken() string {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return ""
	}
	for _, ck := range c.httpClient.Jar.Cookies(u) {
		if ck.Name == sessionCookie {
			return ck.Value
		}
	}
	return ""
}

// SetSessionToken injects a previously saved session cookie so the
// client resumes an existing server session.
func (c *Client) SetSessionToken(token string) {
	if token == "" {
		return
	}
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return
	}
	c.httpClient.Jar.SetCookies(u, []*http.Cookie{{
		Name:  sessionCookie,
		Value: token,
		Path:  "/",
	}})
}

// do performs one request. in may be nil, a structured value (marshaled
// to JSON), or pre-encoded json.RawMessage bytes; both body paths produce
// identical requests. A non-nil out receives the decoded 2xx body.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	var body io.Reader
	if in != nil {
		switch v := in.(type) {
		case json.RawMessage:
			body = bytes.NewReader(v)
		case []byte:
			body = bytes.NewReader(v)
		default:
			data, err := json.Marshal(v)
			if err != nil {
				return fmt.Errorf("encode request body: %w", err)
			}
			body = bytes.NewReader(data)
		}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.Error("request failed", logger.F("method", method), logger.F("path", path), logger.F("error", err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
			apiErr.Message = payload.Error
		}
		logger.Warn("request rejected",
			logger.F("method", method), logger.F("path", path),
			logger.F("status", resp.StatusCode), logger.F("message", apiErr.Message))
		return apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response body: %w", err)
		}
	}
	return nil
}

// --- Auth ---

// CurrentUser returns the session's user, or nil when not logged in.
func (c *Client) CurrentUser(ctx context.Context) (*model.User, error) {
	var resp struct {
		User *model.User `json:"user"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/current-user", nil, nil, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Login authenticates and establishes the session cookie.
func (c *Client) Login(ctx context.Context, username, password string) (*model.User, error) {
	var resp struct {
		User *model.User `json:"user"`
	}
	in := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/login", nil, in, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Logout ends the session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/logout", nil, nil, nil)
}

// --- Subjects ---

func (c *Client) ListSubjects(ctx context.Context) ([]model.Subject, error) {
	var subjects []model.Subject
	if err := c.do(ctx, http.MethodGet, "/api/subjects", nil, nil, &subjects); err != nil {
		return nil, err
	}
	return subjects, nil
}

// CreateSubject returns the created subject with its server-assigned ID.
func (c *Client) CreateSubject(ctx context.Context, name, color string) (*model.Subject, error) {
	in := map[string]string{"name": name, "color": color}
	var subject model.Subject
	if err := c.do(ctx, http.MethodPost, "/api/subjects", nil, in, &subject); err != nil {
		return nil, err
	}
	return &subject, nil
}

// --- Study sessions ---

// SessionFilter narrows the session list. Zero values are omitted.
type SessionFilter struct {
	StartDate string
	EndDate   string
	SubjectID int64
}

func (f SessionFilter) query() url.Values {
	q := url.Values{}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.SubjectID != 0 {
		q.Set("subject_id", fmt.Sprint(f.SubjectID))
	}
	return q
}

func (c *Client) ListSessions(ctx context.Context, f SessionFilter) ([]model.StudySession, error) {
	var sessions []model.StudySession
	if err := c.do(ctx, http.MethodGet, "/api/study-sessions", f.query(), nil, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (c *Client) CreateSession(ctx context.Context, s model.StudySession) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/study-sessions", nil, s, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// --- Schedule ---

// ScheduleFilter narrows the schedule list. Zero values are omitted.
type ScheduleFilter struct {
	Date      string
	WeekStart string
}

func (f ScheduleFilter) query() url.Values {
	q := url.Values{}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	if f.WeekStart != "" {
		q.Set("week_start", f.WeekStart)
	}
	return q
}

func (c *Client) ListSchedule(ctx context.Context, f ScheduleFilter) ([]model.ScheduleItem, error) {
	var items []model.ScheduleItem
	if err := c.do(ctx, http.MethodGet, "/api/schedule", f.query(), nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (c *Client) CreateScheduleItem(ctx context.Context, item model.ScheduleItem) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/schedule", nil, item, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// UpdateScheduleStatus marks a schedule item completed (or not).
func (c *Client) UpdateScheduleStatus(ctx context.Context, id int64, completed bool) error {
	in := map[string]bool{"completed": completed}
	return c.do(ctx, http.MethodPut, fmt.Sprintf("/api/schedule/%d", id), nil, in, nil)
}

// --- Notes ---

func (c *Client) ListNotes(ctx context.Context, subjectID int64) ([]model.Note, error) {
	q := url.Values{}
	if subjectID != 0 {
		q.Set("subject_id", fmt.Sprint(subjectID))
	}
	var notes []model.Note
	if err := c.do(ctx, http.MethodGet, "/api/notes", q, nil, &notes); err != nil {
		return nil, err
	}
	return notes, nil
}

func (c *Client) CreateNote(ctx context.Context, n model.Note) (int64, error) {
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/notes", nil, n, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}

// --- Stats ---

// WeeklyStats returns aggregates for the week beginning weekStart.
func (c *Client) WeeklyStats(ctx context.Context, weekStart string) (*model.WeeklyStats, error) {
	q := url.Values{}
	if weekStart != "" {
		q.Set("week_start", weekStart)
	}
	var stats model.WeeklyStats
	if err := c.do(ctx, http.MethodGet, "/api/stats/weekly", q, nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

// --- Pomodoro ---

// CreatePomodoroSession records a completed pomodoro directly. Declared by
// the backend; the timer flow records through CreateSession instead.
func (c *Client) CreatePomodoroSession(ctx context.Context, subjectID int64, durationMinutes int, startTime, endTime string) (int64, error) {
	in := map[string]any{
		"subject_id":       subjectID,
		"duration_minutes": durationMinutes,
		"start_time":       startTime,
		"end_time":         endTime,
	}
	var resp struct {
		ID int64 `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/pomodoro-sessions", nil, in, &resp); err != nil {
		return 0, err
	}
	return resp.ID, nil
}
