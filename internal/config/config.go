package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DowntimeConfig describes a single downtime ICS feed (factory maintenance,
// cleaning, holidays) overlaid on the board as blocked time.
type DowntimeConfig struct {
	// URL is the ICS subscription endpoint.
	URL string `yaml:"url" json:"url"`
	// ID is an internal identifier used for de-dup and logging.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label shown on the board.
	Name string `yaml:"name" json:"name"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the board.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for the board and API.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA timezone the plant schedules in (e.g. "Europe/Madrid").
	Timezone string `yaml:"timezone" json:"timezone"`

	// BackendURL is the base URL of the Logipack backend REST API.
	BackendURL string `yaml:"backend_url" json:"backend_url"`

	// ExecutionURL is the execution-view page opened after arming a plan.
	ExecutionURL string `yaml:"execution_url" json:"execution_url"`

	// RefreshCron is a cron-style schedule (e.g. "*/15 * * * *") for the
	// periodic planning refresh and snapshot capture.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// DayStartHour / DayEndHour bound the visible hour columns, inclusive.
	DayStartHour int `yaml:"day_start_hour" json:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour" json:"day_end_hour"`

	// MaxLanes is the number of event rows visible per cell before the
	// overflow badge appears.
	MaxLanes int `yaml:"max_lanes" json:"max_lanes"`

	// DataDir is the base directory for the HTTP fetch cache, the armed
	// execution marker and the board snapshot.
	DataDir string `yaml:"data_dir" json:"data_dir"`

	// Downtime is the list of downtime ICS feeds.
	Downtime []DowntimeConfig `yaml:"downtime" json:"downtime"`

	// BasicAuth, if non-nil, enables HTTP Basic Authentication on all
	// endpoints except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:       "127.0.0.1:8080",
		Timezone:     "Europe/Madrid",
		BackendURL:   "http://127.0.0.1:3001/api",
		ExecutionURL: "http://127.0.0.1:3000/execution",
		RefreshCron:  "*/15 * * * *",
		DayStartHour: 6,
		DayEndHour:   17,
		MaxLanes:     4,
		DataDir:      "/var/lib/planboard",
		Downtime:     []DowntimeConfig{},
		BasicAuth:    nil,
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs (e.g., older versions) still behave correctly.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = "127.0.0.1:8080"
	}
	if c.Timezone == "" {
		c.Timezone = "Europe/Madrid"
	}
	if c.BackendURL == "" {
		c.BackendURL = "http://127.0.0.1:3001/api"
	}
	if c.ExecutionURL == "" {
		c.ExecutionURL = "http://127.0.0.1:3000/execution"
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		c.DayStartHour = 6
	}
	// End hour must stay within the day and after the start.
	if c.DayEndHour <= c.DayStartHour || c.DayEndHour > 23 {
		c.DayEndHour = 17
		if c.DayEndHour <= c.DayStartHour {
			c.DayEndHour = 23
		}
	}
	if c.MaxLanes <= 0 {
		c.MaxLanes = 4
	}
	if c.DataDir == "" {
		c.DataDir = "/var/lib/planboard"
	}
	if c.Downtime == nil {
		c.Downtime = []DowntimeConfig{}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
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

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".planboard-config-*.tmp")
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

	// Flush and close before chmod/rename.
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

	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}
