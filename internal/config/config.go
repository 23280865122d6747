package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/AdguardTeam/golibs/timeutil"
	"github.com/google/renameio"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	appLog "schoolclock/internal/log"
)

const (
	defaultListen          = "127.0.0.1:8080"
	defaultTimezone        = "America/Los_Angeles"
	defaultDocument        = "context.json"
	defaultRefresh         = "*/15 * * * *"
	defaultLogLevel        = "info"
	defaultCacheDir        = "./var/ics-cache"
	defaultFetchTimeout    = 15 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// HolidayConfig describes a calendar merged into the document as overrides.
// Exactly one of Path and URL must be set.
type HolidayConfig struct {
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	URL  string `yaml:"url,omitempty" json:"url,omitempty"`
	// Schedule is the schedule id all-day events select. Empty means no
	// schedule at all.
	Schedule string `yaml:"schedule,omitempty" json:"schedule,omitempty"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone used when the document names none or an
	// invalid one.
	Timezone string `yaml:"timezone" json:"timezone"`

	// Document is the path of the context document, JSON or YAML.
	Document string `yaml:"document" json:"document"`

	// Division is the division selected when a request names none.
	Division string `yaml:"division,omitempty" json:"division,omitempty"`

	// RefreshCron is a standard five-field cron spec for periodic reloads
	// of the document and holiday feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// Watch reloads the document as soon as it changes on disk.
	Watch bool `yaml:"watch" json:"watch"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	// Holidays are merged into the document on every load.
	Holidays []HolidayConfig `yaml:"holidays" json:"holidays"`

	// CacheDir keeps the last good body of every holiday feed.
	CacheDir string `yaml:"cache_dir" json:"cache_dir"`

	FetchTimeout    timeutil.Duration `yaml:"fetch_timeout" json:"fetch_timeout"`
	ShutdownTimeout timeutil.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all endpoints
	// except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:          defaultListen,
		Timezone:        defaultTimezone,
		Document:        defaultDocument,
		RefreshCron:     defaultRefresh,
		Watch:           true,
		LogLevel:        defaultLogLevel,
		Holidays:        []HolidayConfig{},
		CacheDir:        defaultCacheDir,
		FetchTimeout:    timeutil.Duration{Duration: defaultFetchTimeout},
		ShutdownTimeout: timeutil.Duration{Duration: defaultShutdownTimeout},
	}
}

// Normalize fills in missing values so that partially written configs still
// behave.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	if c.Timezone == "" {
		c.Timezone = defaultTimezone
	}
	if c.Document == "" {
		c.Document = defaultDocument
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefresh
	}
	if _, ok := appLog.ParseLevel(c.LogLevel); !ok {
		c.LogLevel = defaultLogLevel
	}
	if c.Holidays == nil {
		c.Holidays = []HolidayConfig{}
	}
	if c.CacheDir == "" {
		c.CacheDir = defaultCacheDir
	}
	if c.FetchTimeout.Duration <= 0 {
		c.FetchTimeout.Duration = defaultFetchTimeout
	}
	if c.ShutdownTimeout.Duration <= 0 {
		c.ShutdownTimeout.Duration = defaultShutdownTimeout
	}
}

// Validate reports settings Normalize cannot repair.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("refresh %q: %w", c.RefreshCron, err)
	}
	for i, h := range c.Holidays {
		if (h.Path == "") == (h.URL == "") {
			return fmt.Errorf("holidays[%d]: exactly one of path and url must be set", i)
		}
	}
	if c.BasicAuth != nil && c.BasicAuth.Username == "" {
		return errors.New("basic_auth: username is empty")
	}
	return nil
}

// Location returns the fallback zone. It falls back to time.Local when
// Timezone does not load.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Load loads configuration from the given YAML path.
//
// If the file does not exist, a default config is written there with 0600
// permissions and returned.
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
			appLog.Info("default config written", "path", path)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save normalizes cfg and writes it to path atomically with 0600
// permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	return renameio.WriteFile(path, data, 0o600)
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
