package server

import (
	"database/sql"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/studyflow/studyflow/internal/logger"
	"github.com/studyflow/studyflow/internal/model"
)

const defaultSubjectColor = "#4A90E2"

// --- Subjects ---

func (s *Server) handleListSubjects(c echo.Context) error {
	user := currentUser(c)
	rows, err := s.db.Query(
		`SELECT id, name, color FROM subjects WHERE user_id = ? ORDER BY name`, user.ID)
	if err != nil {
		logger.Error("list subjects failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		var sub model.Subject
		if err := rows.Scan(&sub.ID, &sub.Name, &sub.Color); err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
		subjects = append(subjects, sub)
	}
	return c.JSON(http.StatusOK, subjects)
}

func (s *Server) handleCreateSubject(c echo.Context) error {
	var req model.Subject
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.Name == "" {
		return errJSON(c, http.StatusBadRequest, "Nome da disciplina é obrigatório")
	}
	if req.Color == "" {
		req.Color = defaultSubjectColor
	}

	res, err := s.db.Exec(
		`INSERT INTO subjects (user_id, name, color) VALUES (?, ?, ?)`,
		currentUser(c).ID, req.Name, req.Color)
	if err != nil {
		logger.Error("create subject failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	id, _ := res.LastInsertId()
	return c.JSON(http.StatusCreated, model.Subject{ID: id, Name: req.Name, Color: req.Color})
}

// --- Study sessions ---

func (s *Server) handleListSessions(c echo.Context) error {
	query := `
		SELECT ss.id, ss.subject_id, ss.duration_minutes, ss.date,
		       COALESCE(ss.start_time, ''), COALESCE(ss.end_time, ''),
		       ss.notes, ss.technique,
		       COALESCE(sub.name, ''), COALESCE(sub.color, '')
		FROM study_sessions ss
		LEFT JOIN subjects sub ON ss.subject_id = sub.id
		WHERE ss.user_id = ?`
	args := []any{currentUser(c).ID}

	if v := c.QueryParam("start_date"); v != "" {
		query += ` AND ss.date >= ?`
		args = append(args, v)
	}
	if v := c.QueryParam("end_date"); v != "" {
		query += ` AND ss.date <= ?`
		args = append(args, v)
	}
	if v := c.QueryParam("subject_id"); v != "" {
		query += ` AND ss.subject_id = ?`
		args = append(args, v)
	}
	query += ` ORDER BY ss.date DESC, ss.start_time DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		logger.Error("list sessions failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer rows.Close()

	sessions := []model.StudySession{}
	for rows.Next() {
		var sess model.StudySession
		if err := rows.Scan(&sess.ID, &sess.SubjectID, &sess.DurationMinutes, &sess.Date,
			&sess.StartTime, &sess.EndTime, &sess.Notes, &sess.Technique,
			&sess.SubjectName, &sess.SubjectColor); err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
		sessions = append(sessions, sess)
	}
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) handleCreateSession(c echo.Context) error {
	var req model.StudySession
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.SubjectID == 0 {
		return errJSON(c, http.StatusBadRequest, "Campo subject_id é obrigatório")
	}
	if req.DurationMinutes == 0 {
		return errJSON(c, http.StatusBadRequest, "Campo duration_minutes é obrigatório")
	}
	if req.Date == "" {
		return errJSON(c, http.StatusBadRequest, "Campo date é obrigatório")
	}
	if req.Technique == "" {
		req.Technique = model.TechniquePomodoro
	}

	res, err := s.db.Exec(`
		INSERT INTO study_sessions (user_id, subject_id, duration_minutes, date, start_time, end_time, notes, technique)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		currentUser(c).ID, req.SubjectID, req.DurationMinutes, req.Date,
		req.StartTime, req.EndTime, req.Notes, req.Technique)
	if err != nil {
		logger.Error("create session failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	id, _ := res.LastInsertId()
	return c.JSON(http.StatusCreated, map[string]any{
		"id": id, "message": "Sessão de estudo criada com sucesso",
	})
}

// --- Schedule ---

func (s *Server) handleListSchedule(c echo.Context) error {
	query := `
		SELECT sch.id, sch.subject_id, sch.title, sch.date, sch.time,
		       sch.duration_minutes, sch.completed,
		       COALESCE(sub.name, ''), COALESCE(sub.color, '')
		FROM schedule sch
		LEFT JOIN subjects sub ON sch.subject_id = sub.id
		WHERE sch.user_id = ?`
	args := []any{currentUser(c).ID}

	if v := c.QueryParam("date"); v != "" {
		query += ` AND sch.date = ?`
		args = append(args, v)
	}
	if v := c.QueryParam("week_start"); v != "" {
		start, err := time.Parse(model.DateLayout, v)
		if err != nil {
			return errJSON(c, http.StatusBadRequest, "invalid week_start")
		}
		query += ` AND sch.date >= ? AND sch.date < ?`
		args = append(args, v, start.AddDate(0, 0, 7).Format(model.DateLayout))
	}
	query += ` ORDER BY sch.date, sch.time`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		logger.Error("list schedule failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer rows.Close()

	items := []model.ScheduleItem{}
	for rows.Next() {
		var item model.ScheduleItem
		var completed int
		if err := rows.Scan(&item.ID, &item.SubjectID, &item.Title, &item.Date, &item.Time,
			&item.DurationMinutes, &completed, &item.SubjectName, &item.SubjectColor); err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
		item.Completed = completed == 1
		items = append(items, item)
	}
	return c.JSON(http.StatusOK, items)
}

func (s *Server) handleCreateScheduleItem(c echo.Context) error {
	var req model.ScheduleItem
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}
	switch {
	case req.SubjectID == 0:
		return errJSON(c, http.StatusBadRequest, "Campo subject_id é obrigatório")
	case req.Title == "":
		return errJSON(c, http.StatusBadRequest, "Campo title é obrigatório")
	case req.Date == "":
		return errJSON(c, http.StatusBadRequest, "Campo date é obrigatório")
	case req.Time == "":
		return errJSON(c, http.StatusBadRequest, "Campo time é obrigatório")
	case req.DurationMinutes == 0:
		return errJSON(c, http.StatusBadRequest, "Campo duration_minutes é obrigatório")
	}

	res, err := s.db.Exec(`
		INSERT INTO schedule (user_id, subject_id, title, date, time, duration_minutes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		currentUser(c).ID, req.SubjectID, req.Title, req.Date, req.Time, req.DurationMinutes)
	if err != nil {
		logger.Error("create schedule item failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	id, _ := res.LastInsertId()
	return c.JSON(http.StatusCreated, map[string]any{
		"id": id, "message": "Item agendado com sucesso",
	})
}

func (s *Server) handleUpdateSchedule(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}

	var req struct {
		Completed bool `json:"completed"`
	}
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}

	res, err := s.db.Exec(
		`UPDATE schedule SET completed = ? WHERE id = ? AND user_id = ?`,
		boolToInt(req.Completed), id, currentUser(c).ID)
	if err != nil {
		logger.Error("update schedule failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errJSON(c, http.StatusNotFound, "schedule item not found")
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "Status atualizado com sucesso"})
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// --- Notes ---

func (s *Server) handleListNotes(c echo.Context) error {
	query := `
		SELECT n.id, n.subject_id, n.title, n.content, n.created_at, n.updated_at,
		       COALESCE(sub.name, ''), COALESCE(sub.color, '')
		FROM notes n
		LEFT JOIN subjects sub ON n.subject_id = sub.id
		WHERE n.user_id = ?`
	args := []any{currentUser(c).ID}

	if v := c.QueryParam("subject_id"); v != "" {
		query += ` AND n.subject_id = ?`
		args = append(args, v)
	}
	query += ` ORDER BY n.updated_at DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		logger.Error("list notes failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer rows.Close()

	notes := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.SubjectID, &n.Title, &n.Content,
			&n.CreatedAt, &n.UpdatedAt, &n.SubjectName, &n.SubjectColor); err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
		notes = append(notes, n)
	}
	return c.JSON(http.StatusOK, notes)
}

func (s *Server) handleCreateNote(c echo.Context) error {
	var req model.Note
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}
	switch {
	case req.SubjectID == 0:
		return errJSON(c, http.StatusBadRequest, "Campo subject_id é obrigatório")
	case req.Title == "":
		return errJSON(c, http.StatusBadRequest, "Campo title é obrigatório")
	case req.Content == "":
		return errJSON(c, http.StatusBadRequest, "Campo content é obrigatório")
	}

	res, err := s.db.Exec(
		`INSERT INTO notes (user_id, subject_id, title, content) VALUES (?, ?, ?, ?)`,
		currentUser(c).ID, req.SubjectID, req.Title, req.Content)
	if err != nil {
		logger.Error("create note failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	id, _ := res.LastInsertId()
	return c.JSON(http.StatusCreated, map[string]any{
		"id": id, "message": "Anotação criada com sucesso",
	})
}

// --- Stats ---

func (s *Server) handleWeeklyStats(c echo.Context) error {
	user := currentUser(c)
	weekStart := c.QueryParam("week_start")
	if weekStart == "" {
		weekStart = time.Now().Format(model.DateLayout)
	}
	start, err := time.Parse(model.DateLayout, weekStart)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid week_start")
	}
	weekEnd := start.AddDate(0, 0, 7).Format(model.DateLayout)

	var totalMinutes sql.NullInt64
	err = s.db.QueryRow(`
		SELECT SUM(duration_minutes) FROM study_sessions
		WHERE user_id = ? AND date >= ? AND date < ?`,
		user.ID, weekStart, weekEnd,
	).Scan(&totalMinutes)
	if err != nil {
		logger.Error("weekly total failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}

	bySubject := []model.SubjectStat{}
	rows, err := s.db.Query(`
		SELECT sub.name, sub.color, SUM(ss.duration_minutes)
		FROM study_sessions ss
		JOIN subjects sub ON ss.subject_id = sub.id
		WHERE ss.user_id = ? AND ss.date >= ? AND ss.date < ?
		GROUP BY ss.subject_id, sub.name, sub.color
		ORDER BY SUM(ss.duration_minutes) DESC`,
		user.ID, weekStart, weekEnd)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer rows.Close()
	for rows.Next() {
		var stat model.SubjectStat
		if err := rows.Scan(&stat.Name, &stat.Color, &stat.TotalMinutes); err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
		bySubject = append(bySubject, stat)
	}

	daily := []model.DailyStat{}
	drows, err := s.db.Query(`
		SELECT date, SUM(duration_minutes), COUNT(*)
		FROM study_sessions
		WHERE user_id = ? AND date >= ? AND date < ?
		GROUP BY date ORDER BY date`,
		user.ID, weekStart, weekEnd)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer drows.Close()
	for drows.Next() {
		var stat model.DailyStat
		if err := drows.Scan(&stat.Date, &stat.TotalMinutes, &stat.SessionCount); err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
		daily = append(daily, stat)
	}

	totalHours := math.Round(float64(totalMinutes.Int64)/60*100) / 100
	return c.JSON(http.StatusOK, model.WeeklyStats{
		TotalHours: totalHours,
		BySubject:  bySubject,
		Daily:      daily,
	})
}

// --- Pomodoro ---

// handleCreatePomodoro records a completed pomodoro as a study session
// dated today.
func (s *Server) handleCreatePomodoro(c echo.Context) error {
	var req struct {
		SubjectID       int64  `json:"subject_id"`
		DurationMinutes int    `json:"duration_minutes"`
		StartTime       string `json:"start_time"`
		EndTime         string `json:"end_time"`
	}
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.DurationMinutes <= 0 {
		req.DurationMinutes = 25
	}

	res, err := s.db.Exec(`
		INSERT INTO study_sessions (user_id, subject_id, duration_minutes, date, start_time, end_time, notes, technique)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		currentUser(c).ID, req.SubjectID, req.DurationMinutes,
		time.Now().Format(model.DateLayout), req.StartTime, req.EndTime,
		fmt.Sprintf("Sessão Pomodoro - %d minutos", req.DurationMinutes),
		model.TechniquePomodoro)
	if err != nil {
		logger.Error("create pomodoro failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	id, _ := res.LastInsertId()
	return c.JSON(http.StatusCreated, map[string]any{
		"id": id, "message": "Sessão Pomodoro salva com sucesso",
	})
}
