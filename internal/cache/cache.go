// Package cache is the offline fallback store. Collections fetched from
// the backend are mirrored here so the client can show something when a
// later fetch fails. The backend stays the source of truth; the cache is
// never written back to it.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"github.com/studyflow/studyflow/internal/model"
)

// Collection keys. These match the storage keys the web client used.
const (
	KeySubjects = "studyflow_subjects"
	KeySessions = "studyflow_sessions"
	KeySchedule = "studyflow_schedule"
	KeyNotes    = "studyflow_notes"
	KeySettings = "studyflow_settings"
)

// Cache is a diskv-backed key → JSON document store.
type Cache struct {
	d *diskv.Diskv
}

// DefaultBasePath returns ~/.config/studyflow/cache.
func DefaultBasePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studyflow", "cache"), nil
}

// Open creates a cache rooted at basePath.
func Open(basePath string) *Cache {
	return &Cache{d: diskv.New(diskv.Options{
		BasePath:     basePath,
		Transform:    func(key string) []string { return nil },
		CacheSizeMax: 1024 * 1024,
	})}
}

func (c *Cache) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := c.d.Write(key, data); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (c *Cache) read(key string, v any) error {
	data, err := c.d.Read(key)
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

// Missing reports whether err means the key was never cached.
func Missing(err error) bool {
	return err != nil && (os.IsNotExist(err) || strings.Contains(err.Error(), "no such file"))
}

func (c *Cache) SaveSubjects(subjects []model.Subject) error {
	return c.write(KeySubjects, subjects)
}

// LoadSubjects returns the cached subjects, or nil when never cached.
func (c *Cache) LoadSubjects() ([]model.Subject, error) {
	var subjects []model.Subject
	if err := c.read(KeySubjects, &subjects); err != nil {
		if Missing(err) {
			return nil, nil
		}
		return nil, err
	}
	return subjects, nil
}

func (c *Cache) SaveSessions(sessions []model.StudySession) error {
	return c.write(KeySessions, sessions)
}

func (c *Cache) LoadSessions() ([]model.StudySession, error) {
	var sessions []model.StudySession
	if err := c.read(KeySessions, &sessions); err != nil {
		if Missing(err) {
			return nil, nil
		}
		return nil, err
	}
	return sessions, nil
}

func (c *Cache) SaveSchedule(items []model.ScheduleItem) error {
	return c.write(KeySchedule, items)
}

func (c *Cache) LoadSchedule() ([]model.ScheduleItem, error) {
	var items []model.ScheduleItem
	if err := c.read(KeySchedule, &items); err != nil {
		if Missing(err) {
			return nil, nil
		}
		return nil, err
	}
	return items, nil
}

func (c *Cache) SaveNotes(notes []model.Note) error {
	return c.write(KeyNotes, notes)
}

func (c *Cache) LoadNotes() ([]model.Note, error) {
	var notes []model.Note
	if err := c.read(KeyNotes, &notes); err != nil {
		if Missing(err) {
			return nil, nil
		}
		return nil, err
	}
	return notes, nil
}

// Erase drops every cached collection. Used on logout.
func (c *Cache) Erase() {
	for _, key := range []string{KeySubjects, KeySessions, KeySchedule, KeyNotes, KeySettings} {
		c.d.Erase(key)
	}
}
