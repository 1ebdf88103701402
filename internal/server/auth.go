package server

import (
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyflow/studyflow/internal/logger"
	"github.com/studyflow/studyflow/internal/model"
)

const (
	sessionCookie = "studyflow_session"
	sessionTTL    = 30 * 24 * time.Hour
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.Username == "" || req.Password == "" {
		return errJSON(c, http.StatusBadRequest, "Username and password required")
	}

	var user model.User
	var hash string
	err := s.db.QueryRow(
		`SELECT id, username, password_hash, full_name, role FROM users WHERE username = ?`,
		req.Username,
	).Scan(&user.ID, &user.Username, &hash, &user.FullName, &user.Role)
	if errors.Is(err, sql.ErrNoRows) {
		return errJSON(c, http.StatusUnauthorized, "Invalid credentials")
	}
	if err != nil {
		logger.Error("login query failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)) != nil {
		return errJSON(c, http.StatusUnauthorized, "Invalid credentials")
	}

	token := uuid.NewString()
	expires := time.Now().Add(sessionTTL)
	if _, err := s.db.Exec(
		`INSERT INTO auth_sessions (token, user_id, expires_at) VALUES (?, ?, ?)`,
		token, user.ID, expires.UTC().Format(time.RFC3339),
	); err != nil {
		logger.Error("create session failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}

	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	logger.Info("user logged in", logger.F("username", user.Username))

	return c.JSON(http.StatusOK, map[string]any{"success": true, "user": user})
}

func (s *Server) handleLogout(c echo.Context) error {
	if cookie, err := c.Cookie(sessionCookie); err == nil {
		s.db.Exec(`DELETE FROM auth_sessions WHERE token = ?`, cookie.Value)
	}
	c.SetCookie(&http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

// handleCurrentUser reports the session's user, or user:null when there
// is no valid session. Absence of a user is not an error here.
func (s *Server) handleCurrentUser(c echo.Context) error {
	user, ok := s.sessionUser(c)
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"user": nil})
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}

// sessionUser resolves the session cookie to a user.
func (s *Server) sessionUser(c echo.Context) (*model.User, bool) {
	cookie, err := c.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		return nil, false
	}

	var user model.User
	var expiresStr string
	err = s.db.QueryRow(`
		SELECT u.id, u.username, u.full_name, u.role, a.expires_at
		FROM auth_sessions a JOIN users u ON u.id = a.user_id
		WHERE a.token = ?`, cookie.Value,
	).Scan(&user.ID, &user.Username, &user.FullName, &user.Role, &expiresStr)
	if err != nil {
		return nil, false
	}

	expires, err := time.Parse(time.RFC3339, expiresStr)
	if err != nil || time.Now().After(expires) {
		s.db.Exec(`DELETE FROM auth_sessions WHERE token = ?`, cookie.Value)
		return nil, false
	}
	return &user, true
}

// sessionMiddleware rejects requests without a valid session.
func (s *Server) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := s.sessionUser(c)
		if !ok {
			return errJSON(c, http.StatusUnauthorized, "Authentication required")
		}
		c.Set("user", user)
		return next(c)
	}
}

// adminMiddleware additionally requires the admin role.
func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !currentUser(c).IsAdmin() {
			return errJSON(c, http.StatusForbidden, "Admin access required")
		}
		return next(c)
	}
}

// currentUser returns the authenticated user set by sessionMiddleware.
func currentUser(c echo.Context) *model.User {
	return c.Get("user").(*model.User)
}
