// Package config provides configuration loading for companion using TOML.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// HTTP fetching settings
type Fetcher struct {
	UserAgent      string `toml:"userAgent"`
	TimeoutSeconds int    `toml:"timeoutSeconds"`
	ChromePath     string `toml:"chromePath"`
	Render         bool   `toml:"render"` // always load pages in headless Chrome
}

// Receiving tool settings
type Transport struct {
	Ports     []int `toml:"ports"`
	TimeoutMs int   `toml:"timeoutMs"` // per port
}

// Judges settings
type Judges struct {
	Disabled []string `toml:"disabled"` // parser names, case-insensitive
}

// History settings
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"` // empty = history.db next to the config file
}

// Log settings
type Log struct {
	Release bool `toml:"release"` // JSON production logger
	Debug   bool `toml:"debug"`
	Silent  bool `toml:"silent"`
}

// Config is the main configuration struct
type Config struct {
	Fetcher   Fetcher   `toml:"fetcher"`
	Transport Transport `toml:"transport"`
	Judges    Judges    `toml:"judges"`
	History   History   `toml:"history"`
	Log       Log       `toml:"log"`
}

// DefaultPorts are the localhost ports receiving tools conventionally listen on.
var DefaultPorts = []int{1327, 4244, 6174, 10042, 10043, 10045, 27121}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Fetcher: Fetcher{
			UserAgent:      "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			TimeoutSeconds: 30,
		},
		Transport: Transport{
			Ports:     append([]int(nil), DefaultPorts...),
			TimeoutMs: 2000,
		},
		History: History{
			Enabled: true,
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "companion"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// HistoryPath returns the sqlite file history is kept in.
func (c *Config) HistoryPath() (string, error) {
	if c.History.Path != "" {
		return c.History.Path, nil
	}
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "history.db"), nil
}

// Load loads configuration, layering the file at path on top of defaults.
// An empty path means the user's config file, which may be absent; an
// explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return cfg, nil // Return defaults if we can't determine path
		}
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		path = p
	}

	user, md, err := loadFromTOML(path)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	return merge(cfg, user, md), nil
}

// loadFromTOML loads a TOML config file and returns the config with the
// metadata recording which keys were present.
func loadFromTOML(path string) (*Config, toml.MetaData, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, md, fmt.Errorf("parsing config TOML: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, md, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return &cfg, md, nil
}

// merge layers user config on top of defaults. Strings, numbers and lists
// override when non-zero; booleans override when the key was written.
func merge(defaults, user *Config, md toml.MetaData) *Config {
	result := *defaults

	// Fetcher
	if user.Fetcher.UserAgent != "" {
		result.Fetcher.UserAgent = user.Fetcher.UserAgent
	}
	if user.Fetcher.TimeoutSeconds != 0 {
		result.Fetcher.TimeoutSeconds = user.Fetcher.TimeoutSeconds
	}
	if user.Fetcher.ChromePath != "" {
		result.Fetcher.ChromePath = user.Fetcher.ChromePath
	}
	mergeBool(md, &result.Fetcher.Render, user.Fetcher.Render, "fetcher", "render")

	// Transport
	if len(user.Transport.Ports) > 0 {
		result.Transport.Ports = user.Transport.Ports
	}
	if user.Transport.TimeoutMs != 0 {
		result.Transport.TimeoutMs = user.Transport.TimeoutMs
	}

	// Judges
	if len(user.Judges.Disabled) > 0 {
		result.Judges.Disabled = user.Judges.Disabled
	}

	// History
	mergeBool(md, &result.History.Enabled, user.History.Enabled, "history", "enabled")
	if user.History.Path != "" {
		result.History.Path = user.History.Path
	}

	// Log
	mergeBool(md, &result.Log.Release, user.Log.Release, "log", "release")
	mergeBool(md, &result.Log.Debug, user.Log.Debug, "log", "debug")
	mergeBool(md, &result.Log.Silent, user.Log.Silent, "log", "silent")

	return &result
}

func mergeBool(md toml.MetaData, dst *bool, src bool, key ...string) {
	if md.IsDefined(key...) {
		*dst = src
	}
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for -init-config to generate a user config file.
func DefaultTOML() string {
	return `# companion configuration
# Save to ~/.config/companion/config.toml and customize
# Only include settings you want to change from defaults

# Page fetching settings
[fetcher]
userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
timeoutSeconds = 30
chromePath = ""               # Path to Chrome/Chromium (empty = auto-detect)
render = false                # Always load pages in headless Chrome

# Receiving tools (editor plugins, test runners) listening on localhost
[transport]
ports = [1327, 4244, 6174, 10042, 10043, 10045, 27121]
timeoutMs = 2000              # Per port

# Judges
[judges]
disabled = []                 # e.g. ["Luogu"]

# Extracted task history
[history]
enabled = true
path = ""                     # Empty = ~/.config/companion/history.db

# Logging
[log]
release = false               # JSON output
debug = false
silent = false
`
}
