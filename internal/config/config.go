// Package config handles loading and managing leaddesk configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// DataConfig holds data storage configuration.
type DataConfig struct {
	DataDir     string `toml:"data_dir"`
	DatabaseURL string `toml:"database_url"`
}

// ServerConfig holds HTTP API server configuration.
type ServerConfig struct {
	APIPort         int      `toml:"api_port"`     // HTTP server port (default: 8080)
	BindAddr        string   `toml:"bind_addr"`    // Bind address (default: 127.0.0.1)
	APIKey          string   `toml:"api_key"`      // API authentication key
	AllowInsecure   bool     `toml:"allow_insecure"`
	CORSOrigins     []string `toml:"cors_origins"` // Allowed origins; empty disables CORS
	CORSCredentials bool     `toml:"cors_credentials"`
	CORSMaxAge      int      `toml:"cors_max_age"`
	RateLimitRPS    float64  `toml:"rate_limit_rps"`
	RateLimitBurst  int      `toml:"rate_limit_burst"`
	MaxConnections  int      `toml:"max_connections"` // Concurrent connection cap; 0 is unlimited
}

// IsLoopback reports whether BindAddr only accepts local connections.
func (s ServerConfig) IsLoopback() bool {
	addr := s.BindAddr
	if addr == "" || addr == "localhost" {
		return true
	}
	ip := net.ParseIP(addr)
	return ip != nil && ip.IsLoopback()
}

// ValidateSecure refuses to expose the API on a non-loopback address
// without an API key, unless allow_insecure is set.
func (s ServerConfig) ValidateSecure() error {
	if s.IsLoopback() || s.APIKey != "" || s.AllowInsecure {
		return nil
	}
	return fmt.Errorf("refusing to bind to %s without an API key\n\n"+
		"Options:\n"+
		"  1. Set [server] api_key in config.toml\n"+
		"  2. Bind to loopback: [server] bind_addr = \"127.0.0.1\"\n"+
		"  3. For trusted networks: add 'allow_insecure = true' to [server]", s.BindAddr)
}

// RemoteConfig points the CLI and TUI at a remote leaddesk server.
type RemoteConfig struct {
	URL            string `toml:"url"`
	APIKey         string `toml:"api_key"`
	AllowInsecure  bool   `toml:"allow_insecure"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Timeout returns the request timeout, zero meaning the client default.
func (r RemoteConfig) Timeout() time.Duration {
	return time.Duration(r.TimeoutSeconds) * time.Second
}

// ListViewConfig holds list view defaults.
type ListViewConfig struct {
	PageSizes     []int  `toml:"page_sizes"`
	DefaultLimit  int    `toml:"default_limit"`
	SearchDelayMS int    `toml:"search_delay_ms"`
	SortBy        string `toml:"sort_by"`
	SortDir       string `toml:"sort_dir"`
}

// SearchDelay returns the search debounce delay.
func (l ListViewConfig) SearchDelay() time.Duration {
	return time.Duration(l.SearchDelayMS) * time.Millisecond
}

// ExportConfig holds export thresholds and output settings.
type ExportConfig struct {
	Dir                string `toml:"dir"`
	Format             string `toml:"format"`
	SelectionThreshold int    `toml:"selection_threshold"`
	FilteredThreshold  int    `toml:"filtered_threshold"`
	MaxRecords         int    `toml:"max_records"`
	PageSize           int    `toml:"page_size"`
	Concurrency        int    `toml:"concurrency"`
}

// ScheduledExport exports a saved view on a cron schedule.
type ScheduledExport struct {
	Name     string `toml:"name"`     // Unique name, also the file name prefix
	View     string `toml:"view"`     // View query string, e.g. "status=new&owner=alice"
	Schedule string `toml:"schedule"` // Cron expression (e.g., "0 7 * * 1-5")
	Format   string `toml:"format"`   // csv or excel; defaults to [export] format
	Enabled  bool   `toml:"enabled"`
}

// Config represents the leaddesk configuration.
type Config struct {
	Data             DataConfig        `toml:"data"`
	Server           ServerConfig      `toml:"server"`
	Remote           RemoteConfig      `toml:"remote"`
	ListView         ListViewConfig    `toml:"listview"`
	Export           ExportConfig      `toml:"export"`
	ScheduledExports []ScheduledExport `toml:"scheduled_exports"`

	// Computed paths (not from config file)
	HomeDir    string `toml:"-"`
	configPath string
}

// DefaultHome returns the default leaddesk home directory.
// Respects LEADDESK_HOME environment variable.
func DefaultHome() string {
	if h := os.Getenv("LEADDESK_HOME"); h != "" {
		return expandPath(h)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".leaddesk"
	}
	return filepath.Join(home, ".leaddesk")
}

// NewDefaultConfig returns a configuration with default values rooted at
// DefaultHome.
func NewDefaultConfig() *Config {
	return newDefaultConfig(DefaultHome())
}

func newDefaultConfig(homeDir string) *Config {
	return &Config{
		HomeDir: homeDir,
		Data: DataConfig{
			DataDir: homeDir,
		},
		Server: ServerConfig{
			APIPort:        8080,
			BindAddr:       "127.0.0.1",
			RateLimitRPS:   10,
			RateLimitBurst: 20,
			MaxConnections: 64,
		},
		ListView: ListViewConfig{
			PageSizes:     []int{10, 20, 25, 50},
			DefaultLimit:  20,
			SearchDelayMS: 300,
			SortBy:        "createdAt",
			SortDir:       "desc",
		},
		Export: ExportConfig{
			Format:             "csv",
			SelectionThreshold: 100,
			FilteredThreshold:  500,
			MaxRecords:         10000,
			PageSize:           100,
			Concurrency:        4,
		},
		ScheduledExports: []ScheduledExport{},
	}
}

// Load reads the configuration from the specified file.
// If path is empty, uses config.toml in homeDir, or in DefaultHome when
// homeDir is also empty. An explicit path must exist; the default one is
// optional. With an explicit path, relative paths in the file resolve
// against the file's directory.
func Load(path, homeDir string) (*Config, error) {
	explicit := path != ""
	if homeDir != "" {
		homeDir = expandPath(homeDir)
	} else if explicit {
		path = expandPath(path)
		homeDir = filepath.Dir(path)
	} else {
		homeDir = DefaultHome()
	}
	if !explicit {
		path = filepath.Join(homeDir, "config.toml")
	}

	cfg := newDefaultConfig(homeDir)
	cfg.configPath = path

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("stat config: %w", err)
		}
		if explicit {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("decode config %s: %w%s", path, err, backslashHint(err))
	}

	// Expand ~ in paths, then anchor relative ones to the config directory.
	cfg.Data.DataDir = resolvePath(cfg.Data.DataDir, homeDir, explicit)
	cfg.Export.Dir = resolvePath(cfg.Export.Dir, homeDir, explicit)

	return cfg, nil
}

func resolvePath(p, base string, anchor bool) string {
	p = expandPath(p)
	if anchor && p != "" && !filepath.IsAbs(p) {
		return filepath.Join(base, p)
	}
	return p
}

// backslashHint explains the usual cause of TOML escape errors: Windows
// paths in double-quoted strings.
func backslashHint(err error) string {
	msg := err.Error()
	if !strings.Contains(msg, "invalid escape") && !strings.Contains(msg, "hexadecimal digits") {
		return ""
	}
	return "\n\nhint: backslashes in double-quoted TOML strings are escape sequences. " +
		"Use forward slashes (\"C:/Users/me/leaddesk\") or single quotes ('C:\\Users\\me\\leaddesk')."
}

// ConfigFilePath returns the path the configuration was loaded from, or
// would have been loaded from when no file exists.
func (c *Config) ConfigFilePath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return filepath.Join(c.HomeDir, "config.toml")
}

// DatabaseDSN returns the database URL or the path to the SQLite database.
func (c *Config) DatabaseDSN() string {
	if c.Data.DatabaseURL != "" {
		return c.Data.DatabaseURL
	}
	return filepath.Join(c.Data.DataDir, "leaddesk.db")
}

// ExportsDir returns the directory export files are written to.
func (c *Config) ExportsDir() string {
	if c.Export.Dir != "" {
		return c.Export.Dir
	}
	return filepath.Join(c.Data.DataDir, "exports")
}

// IsRemote reports whether a remote server is configured.
func (c *Config) IsRemote() bool {
	return c.Remote.URL != ""
}

// EnabledScheduledExports returns scheduled exports that are enabled and
// have a schedule.
func (c *Config) EnabledScheduledExports() []ScheduledExport {
	var out []ScheduledExport
	for _, e := range c.ScheduledExports {
		if e.Enabled && e.Schedule != "" {
			out = append(out, e)
		}
	}
	return out
}

// GetScheduledExport returns a copy of the scheduled export with the given
// name, or nil.
func (c *Config) GetScheduledExport(name string) *ScheduledExport {
	for _, e := range c.ScheduledExports {
		if e.Name == name {
			return &e
		}
	}
	return nil
}

// Validate checks scheduled export definitions.
func (c *Config) Validate() error {
	seen := make(map[string]bool)
	for i, e := range c.ScheduledExports {
		if e.Name == "" {
			return fmt.Errorf("scheduled_exports[%d]: name is required", i)
		}
		if seen[e.Name] {
			return fmt.Errorf("scheduled_exports[%d]: duplicate name %q", i, e.Name)
		}
		seen[e.Name] = true
		switch strings.ToLower(e.Format) {
		case "", "csv", "excel", "xlsx":
		default:
			return fmt.Errorf("scheduled_exports[%d] %q: unknown format %q", i, e.Name, e.Format)
		}
	}
	return nil
}

// expandPath expands a leading ~ or ~/ to the user's home directory. On
// Windows, surrounding quotes left by CMD are stripped first.
func expandPath(path string) string {
	if runtime.GOOS == "windows" && len(path) >= 2 {
		first, last := path[0], path[len(path)-1]
		if (first == '\'' || first == '"') && first == last {
			path = path[1 : len(path)-1]
		}
	}
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
