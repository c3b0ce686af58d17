package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

// ErrNoConfig is returned by ResolveConfigPath when no config file exists
// in any of the searched locations.
var ErrNoConfig = errors.New("no config file found")

type Config struct {
	Dataset   Dataset   `yaml:"dataset"`
	Dashboard Dashboard `yaml:"dashboard"`
	Server    Server    `yaml:"server"`
	Output    Output    `yaml:"output"`
	Logging   Logging   `yaml:"logging"`
}

// Dataset selects the order data. An empty Path and DSN use the bundled
// sample file.
type Dataset struct {
	Path     string `yaml:"path"`
	Encoding string `yaml:"encoding"`
	DSN      string `yaml:"dsn"`
	Table    string `yaml:"table"`
}

type Dashboard struct {
	TopN         int     `yaml:"top_n"`
	HotThreshold float64 `yaml:"hot_threshold"`
	Intro        string  `yaml:"intro"`
}

type Server struct {
	Port              int `yaml:"port"`
	SessionTTLMinutes int `yaml:"session_ttl_minutes"`
}

type Output struct {
	Dir string `yaml:"dir"`
}

type Logging struct {
	Level string `yaml:"level"`
	Mode  string `yaml:"mode"`
}

// ConfigDir returns the XDG config directory for storedash.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "storedash")
}

// DataDir returns the XDG data directory for storedash.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "storedash")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/storedash/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf("%w; searched:\n  %s\n  ./config.yaml", ErrNoConfig, xdgConfig)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// LoadOrDefault resolves and loads the config file. When no file exists
// and none was requested explicitly, the built-in defaults are returned
// with an empty path.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := ResolveConfigPath(explicit)
	if errors.Is(err, ErrNoConfig) {
		cfg, err := parse(nil)
		return cfg, "", err
	}
	if err != nil {
		return nil, "", err
	}
	cfg, err := Load(path)
	return cfg, path, err
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Dataset:   Dataset{Encoding: "iso-8859-1", Table: "orders"},
		Dashboard: Dashboard{TopN: 10, HotThreshold: 100000},
		Server:    Server{Port: 8501, SessionTTLMinutes: 120},
		Logging:   Logging{Level: "info", Mode: "dev"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Dataset.Encoding) {
	case "", "iso-8859-1", "latin1", "latin-1", "windows-1252", "cp1252", "utf-8", "utf8", "auto":
	default:
		return fmt.Errorf("dataset.encoding: unsupported encoding %q", c.Dataset.Encoding)
	}
	if c.Dashboard.TopN <= 0 {
		return fmt.Errorf("dashboard.top_n must be positive, got %d", c.Dashboard.TopN)
	}
	if c.Dashboard.HotThreshold < 0 {
		return fmt.Errorf("dashboard.hot_threshold must not be negative, got %v", c.Dashboard.HotThreshold)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	return nil
}

// SessionTTL returns how long an idle feedback session is kept.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Server.SessionTTLMinutes) * time.Minute
}

// GetOutputDir returns the effective export directory from config or the
// XDG default.
func (c *Config) GetOutputDir() string {
	if c.Output.Dir != "" {
		return c.Output.Dir
	}
	return filepath.Join(DataDir(), "exports")
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
