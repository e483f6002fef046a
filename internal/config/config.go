package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"coursecal/internal/timeline"
)

// ICSConfig describes a personal ICS subscription.
type ICSConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url" validate:"required,url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the HTTP API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// LogConfig selects the log encoder and threshold.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" validate:"oneof=debug info warn error DEBUG INFO WARN ERROR"`
	Format string `yaml:"format" json:"format" validate:"oneof=json console"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for serve mode.
	Listen string `yaml:"listen" json:"listen" validate:"required,hostname_port"`

	// Timezone is the IANA zone whose wall clock views are computed in.
	Timezone string `yaml:"timezone" json:"timezone" validate:"required,timezone"`

	// RefreshCron is the cron schedule on which serve mode reloads the
	// snapshot and personal feeds.
	RefreshCron string `yaml:"refresh" json:"refresh" validate:"required"`

	// SnapshotPath is the provider snapshot (lessons + assessments).
	SnapshotPath string `yaml:"snapshot_path" json:"snapshot_path" validate:"required"`

	// PersonalPath is the personal-event store file.
	PersonalPath string `yaml:"personal_path" json:"personal_path" validate:"required"`

	// CacheDir holds the ICS HTTP cache.
	CacheDir string `yaml:"cache_dir" json:"cache_dir" validate:"required"`

	// DefaultView is the granularity used when a request names none.
	DefaultView string `yaml:"default_view" json:"default_view" validate:"oneof=month week day agenda"`

	// Filters are the categories shown by default.
	Filters timeline.CategoryConfig `yaml:"filters" json:"filters"`

	// HideCancelled removes cancelled lessons from timelines.
	HideCancelled bool `yaml:"hide_cancelled" json:"hide_cancelled"`

	// MaxOccurrencesPerTemplate caps a single template's expansion.
	MaxOccurrencesPerTemplate int `yaml:"max_occurrences_per_template" json:"max_occurrences_per_template" validate:"gt=0"`

	// UpcomingDays is the dashboard's deadline lookahead.
	UpcomingDays int `yaml:"upcoming_days" json:"upcoming_days" validate:"gt=0,lte=366"`

	// ICS is the list of subscribed personal ICS feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics" validate:"dive"`

	Log LogConfig `yaml:"log" json:"log"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:                    "127.0.0.1:8080",
		Timezone:                  "Europe/Amsterdam",
		RefreshCron:               "*/15 * * * *",
		SnapshotPath:              "./var/snapshot.yaml",
		PersonalPath:              "./var/personal.yaml",
		CacheDir:                  "./var/ics-cache",
		DefaultView:               "month",
		Filters:                   timeline.AllCategories(),
		MaxOccurrencesPerTemplate: 5000,
		UpcomingDays:              14,
		ICS:                       []ICSConfig{},
		Log:                       LogConfig{Level: "info", Format: "json"},
		BasicAuth:                 nil,
	}
}

// Normalize fills in missing/zero values with defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if c.Listen == "" {
		c.Listen = def.Listen
	}
	if c.Timezone == "" {
		c.Timezone = def.Timezone
	}
	if c.RefreshCron == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = def.SnapshotPath
	}
	if c.PersonalPath == "" {
		c.PersonalPath = def.PersonalPath
	}
	if c.CacheDir == "" {
		c.CacheDir = def.CacheDir
	}
	switch c.DefaultView {
	case "month", "week", "day", "agenda":
	default:
		c.DefaultView = def.DefaultView
	}
	// A config without any filter enabled is treated as unset.
	if c.Filters == (timeline.CategoryConfig{}) {
		c.Filters = def.Filters
	}
	if c.MaxOccurrencesPerTemplate <= 0 {
		c.MaxOccurrencesPerTemplate = def.MaxOccurrencesPerTemplate
	}
	if c.UpcomingDays <= 0 {
		c.UpcomingDays = def.UpcomingDays
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Log.Format
	}
}

// Validate checks field constraints after normalization.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Location resolves Timezone, falling back to time.Local.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil || c.Timezone == "" {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist, a default config is written with 0600
//     permissions and returned.
//   - Otherwise the YAML is decoded, normalized and validated.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600
// permissions, creating the parent directory (0700) if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return WriteFileAtomic(path, data, ".coursecal-config-*.tmp")
}

// WriteFileAtomic writes data next to path under a temporary name, syncs
// it, sets 0600 and renames it over path.
func WriteFileAtomic(path string, data []byte, pattern string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
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

// Save is a convenience method on Config that delegates to the
// package-level Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
