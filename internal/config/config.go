package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Trigger selects and tunes the progress gating policy.
type Trigger struct {
	Mode            string  `toml:"mode"`
	IntervalSeconds float64 `toml:"interval_seconds"`
	Threshold       float64 `toml:"threshold"`
}

// Interval returns the configured interval as a duration.
func (t Trigger) Interval() time.Duration {
	return time.Duration(t.IntervalSeconds * float64(time.Second))
}

// Notifications contains settings shared by every backend.
type Notifications struct {
	RequestTimeout int    `toml:"request_timeout"`
	Placeholder    string `toml:"placeholder"`
	Host           string `toml:"host"`
}

// Timeout returns the per-request timeout as a duration.
func (n Notifications) Timeout() time.Duration {
	return time.Duration(n.RequestTimeout) * time.Second
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
	Compress   bool   `toml:"compress"`
}

// History controls the delivery journal.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Metrics controls the Prometheus endpoint exposed by long-running commands.
type Metrics struct {
	Bind string `toml:"bind"`
}

// Backend kinds understood by the backend builder.
const (
	KindSlack = "slack"
	KindBark  = "bark"
	KindNtfy  = "ntfy"
	KindMail  = "mail"
)

// Backend is one entry of the [[backends]] array. Array order is dispatch order.
type Backend struct {
	Name     string `toml:"name"`
	Kind     string `toml:"kind"`
	Disabled bool   `toml:"disabled"`
	BaseURL  string `toml:"base_url"`

	// slack
	Token   string `toml:"token"`
	Channel string `toml:"channel"`

	// bark and mail
	APIKey string `toml:"api_key"`

	// bark extras
	Sound    string `toml:"sound"`
	Icon     string `toml:"icon"`
	Group    string `toml:"group"`
	Level    string `toml:"level"`
	URL      string `toml:"url"`
	Badge    int    `toml:"badge"`
	AutoCopy *bool  `toml:"auto_copy"`
	Copy     string `toml:"copy"`

	// ntfy
	Topic string `toml:"topic"`

	// mail
	From string   `toml:"from"`
	To   []string `toml:"to"`
}

// Config encapsulates all configuration values for oven.
//
// Configuration sections:
//   - Paths: state and log directories
//   - Trigger: progress gating mode, interval, and threshold
//   - Notifications: request timeout, placeholder marker, host label
//   - Logging: log format, level, and file rotation
//   - History: SQLite delivery journal
//   - Metrics: Prometheus bind address
//   - Backends: ordered notification backends
type Config struct {
	Paths         Paths         `toml:"paths"`
	Trigger       Trigger       `toml:"trigger"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	History       History       `toml:"history"`
	Metrics       Metrics       `toml:"metrics"`
	Backends      []Backend     `toml:"backends"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("oven.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryPath returns the journal database location.
func (c *Config) HistoryPath() string {
	if strings.TrimSpace(c.History.Path) != "" {
		return c.History.Path
	}
	return filepath.Join(c.Paths.StateDir, "history.db")
}

// ActiveBackends returns enabled backend entries in configuration order.
func (c *Config) ActiveBackends() []Backend {
	out := make([]Backend, 0, len(c.Backends))
	for _, b := range c.Backends {
		if b.Disabled {
			continue
		}
		out = append(out, b)
	}
	return out
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// SampleConfig returns the embedded sample configuration.
func SampleConfig() string {
	return sampleConfig
}
