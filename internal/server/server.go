// Package server is the development backend: it implements the REST
// surface the client consumes, over a local sqlite database, so the app
// can run and be integration-tested without a deployed backend.
package server

import (
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	_ "modernc.org/sqlite"

	"github.com/studyflow/studyflow/internal/logger"
)

// Server hosts the REST API.
type Server struct {
	db   *sql.DB
	echo *echo.Echo
}

// New opens (or creates) the sqlite database at dbPath, migrates it, and
// wires the routes.
func New(dbPath string) (*Server, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	s := &Server{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if err := s.seedUsers(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed users: %w", err)
	}

	s.setupEcho()
	return s, nil
}

// DefaultDBPath returns ~/.config/studyflow/server.db.
func DefaultDBPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studyflow", "server.db"), nil
}

func (s *Server) setupEcho() {
	e := echo.New()
	e.HideBanner = true

	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			logger.Info("http",
				logger.F("method", c.Request().Method),
				logger.F("uri", c.Request().RequestURI),
				logger.F("status", c.Response().Status),
				logger.F("duration", time.Since(start).String()))
			return err
		}
	})
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowCredentials: true,
	}))

	api := e.Group("/api")

	// Public
	api.POST("/login", s.handleLogin)
	api.POST("/logout", s.handleLogout)
	api.GET("/current-user", s.handleCurrentUser)

	// Session-authenticated
	auth := api.Group("", s.sessionMiddleware)
	auth.GET("/subjects", s.handleListSubjects)
	auth.POST("/subjects", s.handleCreateSubject)
	auth.GET("/study-sessions", s.handleListSessions)
	auth.POST("/study-sessions", s.handleCreateSession)
	auth.GET("/schedule", s.handleListSchedule)
	auth.POST("/schedule", s.handleCreateScheduleItem)
	auth.PUT("/schedule/:id", s.handleUpdateSchedule)
	auth.GET("/notes", s.handleListNotes)
	auth.POST("/notes", s.handleCreateNote)
	auth.GET("/stats/weekly", s.handleWeeklyStats)
	auth.POST("/pomodoro-sessions", s.handleCreatePomodoro)

	// Admin-only
	admin := auth.Group("/admin", s.adminMiddleware)
	admin.GET("/users", s.handleListUsers)
	admin.POST("/users", s.handleCreateUser)
	admin.PUT("/users/:id", s.handleUpdateUser)
	admin.DELETE("/users/:id", s.handleDeleteUser)

	s.echo = e
}

// Router returns the HTTP handler, for tests and embedding.
func (s *Server) Router() http.Handler { return s.echo }

// Start serves on addr until failure.
func (s *Server) Start(addr string) error { return s.echo.Start(addr) }

// Close closes the database.
func (s *Server) Close() error { return s.db.Close() }

func errJSON(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]string{"error": msg})
}
