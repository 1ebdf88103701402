package server

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/studyflow/studyflow/internal/logger"
)

type adminUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FullName  string `json:"full_name"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

type userRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

func validRole(role string) bool { return role == "user" || role == "admin" }

func (s *Server) handleListUsers(c echo.Context) error {
	rows, err := s.db.Query(
		`SELECT id, username, full_name, role, created_at FROM users ORDER BY created_at DESC`)
	if err != nil {
		logger.Error("list users failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	defer rows.Close()

	users := []adminUser{}
	for rows.Next() {
		var u adminUser
		if err := rows.Scan(&u.ID, &u.Username, &u.FullName, &u.Role, &u.CreatedAt); err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, users)
}

func (s *Server) handleCreateUser(c echo.Context) error {
	var req userRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.Username == "" || req.Password == "" || req.FullName == "" {
		return errJSON(c, http.StatusBadRequest, "Username, password and full_name are required")
	}
	if req.Role == "" {
		req.Role = "user"
	}
	if !validRole(req.Role) {
		return errJSON(c, http.StatusBadRequest, "Role must be user or admin")
	}

	var existing int64
	err := s.db.QueryRow(`SELECT id FROM users WHERE username = ?`, req.Username).Scan(&existing)
	if err == nil {
		return errJSON(c, http.StatusBadRequest, "Username already exists")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	res, err := s.db.Exec(
		`INSERT INTO users (username, password_hash, full_name, role) VALUES (?, ?, ?, ?)`,
		req.Username, string(hash), req.FullName, req.Role)
	if err != nil {
		logger.Error("create user failed", logger.F("error", err))
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}
	id, _ := res.LastInsertId()

	return c.JSON(http.StatusCreated, map[string]any{
		"id": id, "username": req.Username, "full_name": req.FullName, "role": req.Role,
		"message": "User created successfully",
	})
}

func (s *Server) handleUpdateUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}

	var req userRequest
	if err := c.Bind(&req); err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid request")
	}
	if req.Username == "" || req.FullName == "" || req.Role == "" {
		return errJSON(c, http.StatusBadRequest, "Username, full_name and role are required")
	}
	if !validRole(req.Role) {
		return errJSON(c, http.StatusBadRequest, "Role must be user or admin")
	}

	var existing int64
	if err := s.db.QueryRow(`SELECT id FROM users WHERE id = ?`, id).Scan(&existing); err != nil {
		return errJSON(c, http.StatusNotFound, "User not found")
	}
	err = s.db.QueryRow(`SELECT id FROM users WHERE username = ? AND id != ?`, req.Username, id).Scan(&existing)
	if err == nil {
		return errJSON(c, http.StatusBadRequest, "Username already exists")
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return errJSON(c, http.StatusInternalServerError, "internal error")
	}

	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
		_, err = s.db.Exec(
			`UPDATE users SET username = ?, full_name = ?, role = ?, password_hash = ? WHERE id = ?`,
			req.Username, req.FullName, req.Role, string(hash), id)
		if err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
	} else {
		_, err = s.db.Exec(
			`UPDATE users SET username = ?, full_name = ?, role = ? WHERE id = ?`,
			req.Username, req.FullName, req.Role, id)
		if err != nil {
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"id": id, "username": req.Username, "full_name": req.FullName, "role": req.Role,
		"message": "User updated successfully",
	})
}

func (s *Server) handleDeleteUser(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errJSON(c, http.StatusBadRequest, "invalid id")
	}
	if id == currentUser(c).ID {
		return errJSON(c, http.StatusBadRequest, "Cannot delete your own account")
	}

	var existing int64
	if err := s.db.QueryRow(`SELECT id FROM users WHERE id = ?`, id).Scan(&existing); err != nil {
		return errJSON(c, http.StatusNotFound, "User not found")
	}

	// Remove the user's data before the account itself.
	for _, stmt := range []string{
		`DELETE FROM study_sessions WHERE user_id = ?`,
		`DELETE FROM schedule WHERE user_id = ?`,
		`DELETE FROM notes WHERE user_id = ?`,
		`DELETE FROM subjects WHERE user_id = ?`,
		`DELETE FROM auth_sessions WHERE user_id = ?`,
		`DELETE FROM users WHERE id = ?`,
	} {
		if _, err := s.db.Exec(stmt, id); err != nil {
			logger.Error("delete user failed", logger.F("error", err))
			return errJSON(c, http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
