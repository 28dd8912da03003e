package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v3"
)

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// CaptureConfig controls the headless-browser social card capture.
type CaptureConfig struct {
	// Enabled turns on capture after each scheduled feed refresh.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// URL is the calendar page to screenshot. If empty, the server's own
	// embedded page at http://<listen>/ is used.
	URL string `yaml:"url" json:"url"`
	// OutputPath is where the PNG card is written and served from.
	OutputPath string `yaml:"output_path" json:"output_path"`
	Width      int    `yaml:"width" json:"width"`
	Height     int    `yaml:"height" json:"height"`
}

// Config is the top-level application configuration. Values come from a
// YAML file; SHEET_ID / SHEET_GID / LISTEN environment variables override
// the file so a hosting environment can inject the feed identifiers.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen" json:"listen" env:"LISTEN"`

	// Timezone is the IANA timezone used for "today" highlighting and the
	// ICS export (e.g. "Asia/Colombo").
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart controls the first column of the month grid. Supported
	// values are "sunday" (default, matching the public site) and "monday".
	WeekStart string `yaml:"week_start" json:"week_start"`

	// RefreshCron schedules background feed refreshes (e.g. "*/30 * * * *").
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// SheetID identifies the Google Sheets document the events feed is
	// exported from. There is no default: a missing sheet ID is a
	// configuration error surfaced when a load is attempted.
	SheetID string `yaml:"sheet_id" json:"sheet_id" env:"SHEET_ID"`

	// SheetGID selects the sub-sheet within the document.
	SheetGID string `yaml:"sheet_gid" json:"sheet_gid" env:"SHEET_GID"`

	// HorizonDays bounds how far ahead recurring events are expanded in
	// the ICS export.
	HorizonDays int `yaml:"horizon_days" json:"horizon_days"`

	// Capture configures the social preview card screenshot.
	Capture CaptureConfig `yaml:"capture" json:"capture"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:      "127.0.0.1:8080",
		Timezone:    "Asia/Colombo",
		WeekStart:   "sunday",
		RefreshCron: "*/30 * * * *",
		SheetGID:    "0",
		HorizonDays: 90,
		Capture: CaptureConfig{
			Enabled:    false,
			OutputPath: "./cache/card.png",
			Width:      1200,
			Height:     630,
		},
		BasicAuth: nil,
	}
}

// Normalize fills in missing/zero values with defaults so that partially
// filled configs still behave correctly. SheetID is deliberately left
// alone: it has no sensible default.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Asia/Colombo"
	}
	switch c.WeekStart {
	case "sunday", "monday":
		// ok
	default:
		c.WeekStart = "sunday"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/30 * * * *"
	}
	if c.SheetGID == "" {
		c.SheetGID = "0"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 90
	}
	if c.Capture.OutputPath == "" {
		c.Capture.OutputPath = "./cache/card.png"
	}
	if c.Capture.Width <= 0 {
		c.Capture.Width = 1200
	}
	if c.Capture.Height <= 0 {
		c.Capture.Height = 630
	}
}

// Load loads configuration from the given YAML path and applies
// environment overrides.
//
// Behavior:
//   - If the file does not exist: write a default config with 0600 perms
//     and continue with the defaults.
//   - If the file exists: read YAML and unmarshal into Config.
//   - Environment variables (SHEET_ID, SHEET_GID, LISTEN) override file
//     values in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	var cfg *Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		// First run: create a default config file. A save failure is
		// returned alongside the usable defaults so the caller can decide.
		cfg = DefaultConfig()
		if saveErr := Save(path, cfg); saveErr != nil {
			return cfg, saveErr
		}
	} else {
		cfg = &Config{}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return cfg, nil
}

// Save writes the given configuration to the specified path atomically
// (temp file + rename) with 0600 permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".kandycal-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}

// Save is a convenience method delegating to the package-level Save.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
