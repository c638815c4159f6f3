// Package config resolves tada settings from defaults, the config file,
// environment variables and flags, in that order.
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

	"github.com/BurntSushi/toml"

	"github.com/Makepad-fr/tada/internal/api"
)

const (
	configDirName  = ".tada"
	configFileName = "config.toml"
)

// Source is where a value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceFile    Source = "file"
	SourceEnv     Source = "env"
	SourceFlag    Source = "flag"
)

// Config holds every user-tunable setting.
type Config struct {
	APIURL   string   `toml:"api_url"`
	UserID   int      `toml:"user_id,omitempty"`
	Timeout  Duration `toml:"timeout,omitempty"`
	Theme    string   `toml:"theme"`
	LogLevel string   `toml:"log_level"`
	LogFile  string   `toml:"log_file,omitempty"`

	// Sources records the origin of each key. Not persisted.
	Sources map[string]Source `toml:"-"`
}

// Duration is a time.Duration written as "5s" in TOML.
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Keys lists the settable keys in display order.
var Keys = []string{"api_url", "user_id", "timeout", "theme", "log_level", "log_file"}

// Default returns the built-in settings. The user id has no default; the
// collection owner must be chosen explicitly.
func Default() *Config {
	cfg := &Config{
		APIURL:   api.DefaultBaseURL,
		Theme:    "classic",
		LogLevel: "warn",
		Sources:  map[string]Source{},
	}
	for _, k := range Keys {
		cfg.Sources[k] = SourceDefault
	}
	return cfg
}

// Path is the config file location: $TADA_CONFIG or ~/.tada/config.toml.
func Path() (string, error) {
	if p := strings.TrimSpace(os.Getenv("TADA_CONFIG")); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home: %w", err)
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// Load reads path (Path() when empty) over the defaults, then applies the
// environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := Path()
		if err != nil {
			return nil, err
		}
		path = p
	}
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	if err := cfg.loadEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path over the defaults without applying the environment.
// `tada config set` edits this view so env values never leak into the file.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	var fc Config
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}
	for _, k := range Keys {
		if !md.IsDefined(k) {
			continue
		}
		switch k {
		case "api_url":
			c.APIURL = fc.APIURL
		case "user_id":
			c.UserID = fc.UserID
		case "timeout":
			c.Timeout = fc.Timeout
		case "theme":
			c.Theme = fc.Theme
		case "log_level":
			c.LogLevel = fc.LogLevel
		case "log_file":
			c.LogFile = fc.LogFile
		}
		c.Sources[k] = SourceFile
	}
	return nil
}

var envKeys = map[string]string{
	"TADA_API_URL":   "api_url",
	"TADA_USER_ID":   "user_id",
	"TADA_TIMEOUT":   "timeout",
	"TADA_THEME":     "theme",
	"TADA_LOG_LEVEL": "log_level",
	"TADA_LOG_FILE":  "log_file",
}

func (c *Config) loadEnv() error {
	names := make([]string, 0, len(envKeys))
	for n := range envKeys {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		v := strings.TrimSpace(os.Getenv(n))
		if v == "" {
			continue
		}
		if err := c.set(envKeys[n], v, SourceEnv); err != nil {
			return fmt.Errorf("%s: %w", n, err)
		}
	}
	return nil
}

// Override applies a flag value.
func (c *Config) Override(key, value string) error {
	return c.set(key, value, SourceFlag)
}

// Set assigns key from its string form, as `tada config set` does.
func (c *Config) Set(key, value string) error {
	return c.set(key, value, SourceFile)
}

func (c *Config) set(key, value string, src Source) error {
	value = strings.TrimSpace(value)
	switch key {
	case "api_url":
		c.APIURL = value
	case "user_id":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("user_id must be a positive integer, got %q", value)
		}
		c.UserID = n
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = Duration(d)
	case "theme":
		c.Theme = strings.ToLower(value)
	case "log_level":
		c.LogLevel = strings.ToLower(value)
	case "log_file":
		c.LogFile = value
	default:
		return fmt.Errorf("unknown config key %q (want one of %s)", key, strings.Join(Keys, ", "))
	}
	if c.Sources == nil {
		c.Sources = map[string]Source{}
	}
	c.Sources[key] = src
	return nil
}

// Get renders key as a string.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api_url":
		return c.APIURL, nil
	case "user_id":
		if c.UserID == 0 {
			return "", nil
		}
		return strconv.Itoa(c.UserID), nil
	case "timeout":
		if c.Timeout == 0 {
			return "", nil
		}
		return time.Duration(c.Timeout).String(), nil
	case "theme":
		return c.Theme, nil
	case "log_level":
		return c.LogLevel, nil
	case "log_file":
		return c.LogFile, nil
	}
	return "", fmt.Errorf("unknown config key %q", key)
}

// RequireUser fails when no collection owner is configured.
func (c *Config) RequireUser() error {
	if c.UserID <= 0 {
		return errors.New("no user id configured. Set TADA_USER_ID or run `tada config set user_id <id>`")
	}
	return nil
}

// Save writes cfg to path with owner-only permissions.
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := Path()
		if err != nil {
			return err
		}
		path = p
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	var b strings.Builder
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}
