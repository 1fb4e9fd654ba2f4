package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"tyredash/internal/annotations"
	"tyredash/internal/models"
)

const (
	// DirName is the per-user configuration directory under $HOME
	DirName  = ".tyredash"
	FileName = "config.yaml"

	DefaultServerURL = "http://localhost:3000"
	DefaultTimeout   = 30 * time.Second
)

// Environment overrides, applied after the file
const (
	EnvConfigPath         = "TYREDASH_CONFIG_PATH"
	EnvServerURL          = "TYREDASH_SERVER_URL"
	EnvServerTimeout      = "TYREDASH_SERVER_TIMEOUT"
	EnvLogLevel           = "TYREDASH_LOG_LEVEL"
	EnvAnnotationsBackend = "TYREDASH_ANNOTATIONS_BACKEND"
)

// ErrUnknownKey is returned by Get and Set for keys that do not exist
var ErrUnknownKey = errors.New("unknown configuration key")

// Config represents the application configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Annotations AnnotationsConfig `yaml:"annotations"`
	Dashboard   DashboardConfig   `yaml:"dashboard"`
	Log         LogConfig         `yaml:"log"`

	// Profile is filled at login and used when the backend cannot say who we are
	Profile ProfileConfig `yaml:"profile,omitempty"`

	// Directory the config was loaded for; relative paths resolve against it
	dir string
}

type ServerConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type AnnotationsConfig struct {
	// Backend is one of file, sqlite or memory
	Backend string `yaml:"backend"`
	Path    string `yaml:"path,omitempty"`
}

type DashboardConfig struct {
	RankedLimit   int `yaml:"ranked_limit"`
	RecentLimit   int `yaml:"recent_limit"`
	ActivityLimit int `yaml:"activity_limit"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file,omitempty"`
}

type ProfileConfig struct {
	UserID    string `yaml:"user_id,omitempty"`
	Email     string `yaml:"email,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Role      string `yaml:"role,omitempty"`
	AvatarURL string `yaml:"avatar_url,omitempty"`
	CreatedAt string `yaml:"created_at,omitempty"`
	LastLogin string `yaml:"last_login,omitempty"`
}

// Default returns the configuration used when no file exists
func Default(dir string) *Config {
	return &Config{
		Server: ServerConfig{
			URL:     DefaultServerURL,
			Timeout: DefaultTimeout,
		},
		Annotations: AnnotationsConfig{
			Backend: annotations.KindFile,
		},
		Dashboard: DashboardConfig{
			RankedLimit:   7,
			RecentLimit:   5,
			ActivityLimit: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		dir: dir,
	}
}

// GetGlobalConfigDir returns ~/.tyredash
func GetGlobalConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("error getting home directory: %w", err)
	}
	return filepath.Join(home, DirName), nil
}

// GetGlobalConfigPath returns the config file path, honouring TYREDASH_CONFIG_PATH
func GetGlobalConfigPath() (string, error) {
	if path := os.Getenv(EnvConfigPath); path != "" {
		return path, nil
	}
	dir, err := GetGlobalConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// LoadGlobalConfig loads the user's configuration with environment overrides
func LoadGlobalConfig() (*Config, error) {
	path, err := GetGlobalConfigPath()
	if err != nil {
		return nil, err
	}
	return Load(path)
}

// SaveGlobalConfig writes cfg to the user's config file
func SaveGlobalConfig(cfg *Config) error {
	path, err := GetGlobalConfigPath()
	if err != nil {
		return err
	}
	return cfg.Save(path)
}

// Load reads path over the defaults, then applies environment overrides. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default(filepath.Dir(path))

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if url := os.Getenv(EnvServerURL); url != "" {
		c.Server.URL = url
	}
	if raw := os.Getenv(EnvServerTimeout); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvServerTimeout, err)
		}
		c.Server.Timeout = d
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Log.Level = level
	}
	if backend := os.Getenv(EnvAnnotationsBackend); backend != "" {
		c.Annotations.Backend = backend
	}
	return nil
}

// Validate checks values a user may have mistyped
func (c *Config) Validate() error {
	switch c.Annotations.Backend {
	case annotations.KindFile, annotations.KindSQLite, annotations.KindMemory:
	default:
		return fmt.Errorf("invalid annotations backend %q (want file, sqlite or memory)", c.Annotations.Backend)
	}
	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	if c.Server.Timeout < 0 {
		return fmt.Errorf("invalid server timeout %s", c.Server.Timeout)
	}
	return nil
}

// Save writes the configuration through a temporary file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Dir is the directory holding the config file, token and annotations
func (c *Config) Dir() string {
	return c.dir
}

// AnnotationsPath returns where pins and touches are stored
func (c *Config) AnnotationsPath() string {
	if p := c.Annotations.Path; p != "" {
		if filepath.IsAbs(p) || c.dir == "" {
			return p
		}
		return filepath.Join(c.dir, p)
	}
	if c.Annotations.Backend == annotations.KindSQLite {
		return filepath.Join(c.dir, "annotations.db")
	}
	return filepath.Join(c.dir, "annotations.json")
}

// LogPath returns the log file path, or "" when logging to stderr
func (c *Config) LogPath() string {
	if p := c.Log.File; p != "" && !filepath.IsAbs(p) && c.dir != "" {
		return filepath.Join(c.dir, p)
	}
	return c.Log.File
}

// ProfileUser returns the saved profile, or nil when nothing was saved
func (c *Config) ProfileUser() *models.User {
	p := c.Profile
	if p.Email == "" && p.Name == "" && p.UserID == "" {
		return nil
	}
	return &models.User{
		ID:        p.UserID,
		Email:     p.Email,
		Name:      p.Name,
		Role:      p.Role,
		AvatarURL: p.AvatarURL,
		CreatedAt: timestampOrZero(p.CreatedAt),
		LastLogin: timestampOrZero(p.LastLogin),
	}
}

// SetProfile records u as the saved profile
func (c *Config) SetProfile(u models.User) {
	c.Profile = ProfileConfig{
		UserID:    u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		AvatarURL: u.AvatarURL,
		CreatedAt: rawString(u.CreatedAt),
		LastLogin: rawString(u.LastLogin),
	}
	if c.Profile.Name == "" {
		c.Profile.Name = u.FullName
	}
}

// ClearProfile forgets the saved profile
func (c *Config) ClearProfile() {
	c.Profile = ProfileConfig{}
}

func timestampOrZero(s string) models.Timestamp {
	if s == "" {
		return models.Timestamp{}
	}
	return models.NewTimestamp(s)
}

func rawString(ts models.Timestamp) string {
	if ts.IsZero() {
		return ""
	}
	return fmt.Sprint(ts.Raw())
}

type field struct {
	get func(c *Config) string
	set func(c *Config, v string) error
}

func intField(ptr func(c *Config) *int) field {
	return field{
		get: func(c *Config) string { return strconv.Itoa(*ptr(c)) },
		set: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return fmt.Errorf("want a positive integer, got %q", v)
			}
			*ptr(c) = n
			return nil
		},
	}
}

func stringField(ptr func(c *Config) *string) field {
	return field{
		get: func(c *Config) string { return *ptr(c) },
		set: func(c *Config, v string) error {
			*ptr(c) = strings.TrimSpace(v)
			return nil
		},
	}
}

var fields = map[string]field{
	"server.url": stringField(func(c *Config) *string { return &c.Server.URL }),
	"server.timeout": {
		get: func(c *Config) string { return c.Server.Timeout.String() },
		set: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			c.Server.Timeout = d
			return nil
		},
	},
	"annotations.backend":      stringField(func(c *Config) *string { return &c.Annotations.Backend }),
	"annotations.path":         stringField(func(c *Config) *string { return &c.Annotations.Path }),
	"dashboard.ranked_limit":   intField(func(c *Config) *int { return &c.Dashboard.RankedLimit }),
	"dashboard.recent_limit":   intField(func(c *Config) *int { return &c.Dashboard.RecentLimit }),
	"dashboard.activity_limit": intField(func(c *Config) *int { return &c.Dashboard.ActivityLimit }),
	"log.level":                stringField(func(c *Config) *string { return &c.Log.Level }),
	"log.file":                 stringField(func(c *Config) *string { return &c.Log.File }),
}

// Keys lists the settable configuration keys
func Keys() []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value of a dotted key such as "server.url"
func (c *Config) Get(key string) (string, error) {
	f, ok := fields[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return f.get(c), nil
}

// Set updates a dotted key and validates the result. On error c is unchanged.
func (c *Config) Set(key, value string) error {
	f, ok := fields[key]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}

	next := *c
	if err := f.set(&next, value); err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
