// Package config holds device-local settings. Settings are keyed per
// machine profile, not per backend account, and persist independently of
// the backend.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Default timer durations in minutes.
const (
	DefaultFocusMinutes = 25
	DefaultBreakMinutes = 5
)

// Config holds user preferences.
type Config struct {
	ServerURL    string `yaml:"server_url"`
	FocusMinutes int    `yaml:"focus_minutes"`
	BreakMinutes int    `yaml:"break_minutes"`
	Theme        string `yaml:"theme"` // "light" or "dark"

	LogLevel   string `yaml:"log_level"`
	LogFile    string `yaml:"log_file"`
	LogConsole bool   `yaml:"log_console"`
}

// DefaultConfig returns default settings.
func DefaultConfig() *Config {
	dir, _ := os.UserConfigDir()
	logPath := ""
	if dir != "" {
		logPath = filepath.Join(dir, "studyflow", "logs", "studyflow.log")
	}
	return &Config{
		ServerURL:    getEnv("STUDYFLOW_SERVER_URL", "http://localhost:5000"),
		FocusMinutes: DefaultFocusMinutes,
		BreakMinutes: DefaultBreakMinutes,
		Theme:        "dark",
		LogLevel:     getEnv("STUDYFLOW_LOG_LEVEL", "INFO"),
		LogFile:      getEnv("STUDYFLOW_LOG_FILE", logPath),
		LogConsole:   getEnv("STUDYFLOW_LOG_CONSOLE", "false") == "true",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// Path returns the config file location.
func Path() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "studyflow", "config.yaml"), nil
}

// Load reads the config file, returning defaults when it does not exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from an explicit path.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.normalize()
	return cfg, nil
}

// Save writes the config to its default location.
func (c *Config) Save() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to an explicit path.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// normalize clamps invalid values back to defaults.
func (c *Config) normalize() {
	if c.FocusMinutes <= 0 {
		c.FocusMinutes = DefaultFocusMinutes
	}
	if c.BreakMinutes <= 0 {
		c.BreakMinutes = DefaultBreakMinutes
	}
	if c.Theme != "light" && c.Theme != "dark" {
		c.Theme = "dark"
	}
}
