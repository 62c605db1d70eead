// Package config handles pubcat configuration: a global YAML file plus
// environment overrides (optionally read from a .env file).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the directory name under XDG_CONFIG_HOME and XDG_CACHE_HOME.
	AppDir = "pubcat"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// DBFile is the snapshot cache database name.
	DBFile = "pubcat.db"

	// DefaultSource is the bibliography fetched when nothing else is configured.
	DefaultSource = "https://raw.githubusercontent.com/ayesha305/Publications/refs/heads/main/publication.bib"

	DefaultTimeoutSeconds    = 30
	DefaultRateLimit         = 2.0
	DefaultRetries           = 3
	DefaultSSHConnectTimeout = 10

	// MaxRetries bounds http.retries.
	MaxRetries = 10
)

// Environment variables that override the config file.
const (
	EnvSource   = "PUBCAT_SOURCE"
	EnvCacheDir = "PUBCAT_CACHE_DIR"
	EnvLogLevel = "PUBCAT_LOG_LEVEL"
)

// ValidLogLevels lists the accepted log_level values.
var ValidLogLevels = []string{"debug", "info", "warn", "error"}

// HTTPConfig tunes the HTTP document source.
type HTTPConfig struct {
	TimeoutSeconds int     `yaml:"timeout_seconds,omitempty" json:"timeout_seconds"`
	RateLimit      float64 `yaml:"rate_limit,omitempty" json:"rate_limit"` // requests per second
	Retries        int     `yaml:"retries,omitempty" json:"retries"`
}

// SSHConfig tunes the SSH document source.
type SSHConfig struct {
	ConnectTimeout int `yaml:"connect_timeout,omitempty" json:"connect_timeout"` // seconds
}

// Config represents configuration stored in ~/.config/pubcat/config.yml.
type Config struct {
	Source   string            `yaml:"source,omitempty"`
	CacheDir string            `yaml:"cache_dir,omitempty"`
	LogLevel string            `yaml:"log_level,omitempty"`
	Labels   map[string]string `yaml:"labels,omitempty"` // category -> section label
	Order    []string          `yaml:"order,omitempty"`  // section priority list
	HTTP     HTTPConfig        `yaml:"http,omitempty"`
	SSH      SSHConfig         `yaml:"ssh,omitempty"`
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// configCache caches the loaded config.
var configCache *Config

// Path returns the path to the config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pubcat/config.yml.
func Path() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppDir, ConfigFile)
}

// DefaultCacheDir returns $XDG_CACHE_HOME/pubcat, falling back to ~/.cache/pubcat.
func DefaultCacheDir() string {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), AppDir)
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, AppDir)
}

// Load reads the config file (if any), loads .env from the working
// directory, applies environment overrides, and fills defaults.
// A missing config file is not an error.
func Load() (*Config, error) {
	if configCache != nil {
		return configCache, nil
	}

	// .env is optional; variables already set in the environment win.
	_ = godotenv.Load()

	cfg, err := LoadFile(Path())
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configCache = cfg
	return cfg, nil
}

// ResetCache clears the cached config.
// Useful for testing.
func ResetCache() {
	configCache = nil
}

// LoadFile parses a config file without applying env or defaults.
// Returns an empty config if the file doesn't exist.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return &Config{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return &cfg, nil
}

// ApplyEnv overrides fields from PUBCAT_* environment variables.
func (c *Config) ApplyEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvSource)); v != "" {
		c.Source = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCacheDir)); v != "" {
		c.CacheDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.Source == "" {
		c.Source = DefaultSource
	}
	if c.CacheDir == "" {
		c.CacheDir = DefaultCacheDir()
	}
	c.CacheDir = ExpandTilde(c.CacheDir)
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.HTTP.TimeoutSeconds <= 0 {
		c.HTTP.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.HTTP.RateLimit <= 0 {
		c.HTTP.RateLimit = DefaultRateLimit
	}
	if c.HTTP.Retries < 0 {
		c.HTTP.Retries = -1 // no retries
	} else if c.HTTP.Retries == 0 {
		c.HTTP.Retries = DefaultRetries
	}
	if c.SSH.ConnectTimeout <= 0 {
		c.SSH.ConnectTimeout = DefaultSSHConnectTimeout
	}
}

// Validate checks values that defaults cannot repair.
func (c *Config) Validate() error {
	valid := false
	for _, l := range ValidLogLevels {
		if c.LogLevel == l {
			valid = true
			break
		}
	}
	if !valid {
		return fmt.Errorf("%w: log_level %q (valid: %v)", ErrInvalidConfig, c.LogLevel, ValidLogLevels)
	}

	if c.HTTP.Retries > MaxRetries {
		return fmt.Errorf("%w: http.retries %d exceeds %d", ErrInvalidConfig, c.HTTP.Retries, MaxRetries)
	}

	for i, cat := range c.Order {
		if strings.TrimSpace(cat) == "" {
			return fmt.Errorf("%w: order[%d] is empty", ErrInvalidConfig, i)
		}
	}

	return nil
}

// DBPath returns the path to the snapshot cache database.
func (c *Config) DBPath() string {
	return filepath.Join(c.CacheDir, DBFile)
}

// ExpandTilde expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandTilde(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
