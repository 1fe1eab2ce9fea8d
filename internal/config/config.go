// Package config handles loading and managing strend configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/wesm/strend/internal/fileutil"
)

// APIConfig holds Shodan API settings.
type APIConfig struct {
	Endpoint       string  `toml:"endpoint"`        // Trends API base URL
	InfoEndpoint   string  `toml:"info_endpoint"`   // REST API base URL for key validation
	TimeoutSeconds int     `toml:"timeout_seconds"` // Per-request timeout
	RateLimitQPS   float64 `toml:"rate_limit_qps"`  // Request pacing, 0 disables
	KeyDir         string  `toml:"key_dir"`         // Overrides the api_key directory lookup
}

// ExportConfig holds CSV export settings.
type ExportConfig struct {
	Path string `toml:"path"`
}

// UIConfig holds dashboard settings.
type UIConfig struct {
	TickMillis     int `toml:"tick_millis"`      // Result poll and animation interval
	LogExpiryTicks int `toml:"log_expiry_ticks"` // Ticks before the status line clears
}

// Config represents the strend configuration.
type Config struct {
	API    APIConfig    `toml:"api"`
	Export ExportConfig `toml:"export"`
	UI     UIConfig     `toml:"ui"`

	// Computed paths (not from config file)
	HomeDir string `toml:"-"`
}

// DefaultHome returns the default strend home directory.
// Respects STREND_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("STREND_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".strend"
	}
	return filepath.Join(home, ".strend")
}

// NewDefaultConfig returns a configuration with default values rooted at
// homeDir, or DefaultHome() when homeDir is empty.
func NewDefaultConfig(homeDir string) *Config {
	if homeDir == "" {
		homeDir = DefaultHome()
	}
	return &Config{
		HomeDir: homeDir,
		API: APIConfig{
			Endpoint:       "https://trends.shodan.io",
			InfoEndpoint:   "https://api.shodan.io",
			TimeoutSeconds: 90,
			RateLimitQPS:   1,
		},
		Export: ExportConfig{
			Path: "./data.csv",
		},
		UI: UIConfig{
			TickMillis:     250,
			LogExpiryTicks: 40,
		},
	}
}

// Load reads the configuration. An explicit path must exist; otherwise
// <homeDir>/config.toml is read if present. homeDir defaults to
// DefaultHome(), or to the directory of an explicit path.
func Load(path, homeDir string) (*Config, error) {
	explicit := path != ""
	homeDir = expandPath(homeDir)
	path = expandPath(path)

	if homeDir == "" {
		if explicit {
			homeDir = filepath.Dir(path)
		} else {
			homeDir = DefaultHome()
		}
	}
	if !explicit {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := NewDefaultConfig(homeDir)

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		// Config file is optional - use defaults if not present
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, decodeError(path, err)
	}

	cfg.API.KeyDir = expandPath(cfg.API.KeyDir)
	cfg.Export.Path = expandPath(cfg.Export.Path)
	if cfg.UI.TickMillis <= 0 {
		cfg.UI.TickMillis = 250
	}
	if cfg.UI.LogExpiryTicks <= 0 {
		cfg.UI.LogExpiryTicks = 40
	}
	if cfg.API.TimeoutSeconds <= 0 {
		cfg.API.TimeoutSeconds = 90
	}
	return cfg, nil
}

// decodeError adds a hint for Windows paths written with backslashes in
// double-quoted TOML strings.
func decodeError(path string, err error) error {
	msg := err.Error()
	if strings.Contains(msg, "invalid escape") || strings.Contains(msg, "hexadecimal digits") {
		return fmt.Errorf("decode config %s: %w (hint: use forward slashes or single quotes for paths)", path, err)
	}
	return fmt.Errorf("decode config %s: %w", path, err)
}

// ConfigFilePath returns the config file location under HomeDir.
func (c *Config) ConfigFilePath() string {
	return filepath.Join(c.HomeDir, "config.toml")
}

// EnsureHomeDir creates the home directory with owner-only permissions if
// it does not exist yet.
func (c *Config) EnsureHomeDir() error {
	return fileutil.SecureMkdirAll(c.HomeDir, 0o700)
}

// LogPath returns the dashboard log file location.
func (c *Config) LogPath() string {
	return filepath.Join(c.HomeDir, "strend.log")
}

// Timeout returns the API request timeout.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.API.TimeoutSeconds) * time.Second
}

// TickInterval returns the dashboard tick interval.
func (c *Config) TickInterval() time.Duration {
	return time.Duration(c.UI.TickMillis) * time.Millisecond
}

// expandPath expands ~ to the user's home directory.
func expandPath(path string) string {
	if path == "" {
		return path
	}
	if path == "~" || strings.HasPrefix(path, "~/") || strings.HasPrefix(path, `~\`) {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
