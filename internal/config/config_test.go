package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LEADDESK_HOME", tmpDir)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if cfg.Data.DataDir != tmpDir {
		t.Errorf("Data.DataDir = %q, want %q", cfg.Data.DataDir, tmpDir)
	}
	if got, want := cfg.DatabaseDSN(), filepath.Join(tmpDir, "leaddesk.db"); got != want {
		t.Errorf("DatabaseDSN() = %q, want %q", got, want)
	}
	if got, want := cfg.ExportsDir(), filepath.Join(tmpDir, "exports"); got != want {
		t.Errorf("ExportsDir() = %q, want %q", got, want)
	}
	if cfg.Server.APIPort != 8080 || cfg.Server.BindAddr != "127.0.0.1" || cfg.Server.MaxConnections != 64 {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if cfg.IsRemote() {
		t.Error("IsRemote() = true with no [remote] url")
	}

	wantExport := ExportConfig{
		Format:             "csv",
		SelectionThreshold: 100,
		FilteredThreshold:  500,
		MaxRecords:         10000,
		PageSize:           100,
		Concurrency:        4,
	}
	if diff := cmp.Diff(wantExport, cfg.Export); diff != "" {
		t.Errorf("Export mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{10, 20, 25, 50}, cfg.ListView.PageSizes); diff != "" {
		t.Errorf("PageSizes mismatch (-want +got):\n%s", diff)
	}
	if cfg.ListView.SearchDelay() != 300*time.Millisecond {
		t.Errorf("SearchDelay() = %v", cfg.ListView.SearchDelay())
	}
}

func TestLoadAllSections(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LEADDESK_HOME", tmpDir)

	writeConfig(t, tmpDir, `
[server]
api_port = 9090
api_key = "test-secret-key"
cors_origins = ["https://crm.example.com"]

[remote]
url = "https://leads.example.com"
api_key = "remote-key"
timeout_seconds = 5

[listview]
page_sizes = [25, 100]
default_limit = 25
search_delay_ms = 150

[export]
selection_threshold = 50
max_records = 2000

[[scheduled_exports]]
name = "morning-new"
view = "status=new&owner=__unassigned__"
schedule = "0 7 * * 1-5"
format = "excel"
enabled = true

[[scheduled_exports]]
name = "weekly-closed"
view = "status=closed&range=last-7-days"
schedule = "0 8 * * 1"
enabled = false
`)

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.APIPort != 9090 || cfg.Server.APIKey != "test-secret-key" {
		t.Errorf("Server = %+v", cfg.Server)
	}
	if diff := cmp.Diff([]string{"https://crm.example.com"}, cfg.Server.CORSOrigins); diff != "" {
		t.Errorf("CORSOrigins mismatch (-want +got):\n%s", diff)
	}
	if !cfg.IsRemote() || cfg.Remote.Timeout() != 5*time.Second {
		t.Errorf("Remote = %+v", cfg.Remote)
	}
	if cfg.ListView.DefaultLimit != 25 || cfg.ListView.SearchDelay() != 150*time.Millisecond {
		t.Errorf("ListView = %+v", cfg.ListView)
	}
	// Unset keys keep their defaults.
	if cfg.Export.SelectionThreshold != 50 || cfg.Export.FilteredThreshold != 500 || cfg.Export.MaxRecords != 2000 {
		t.Errorf("Export = %+v", cfg.Export)
	}

	if len(cfg.ScheduledExports) != 2 {
		t.Fatalf("len(ScheduledExports) = %d, want 2", len(cfg.ScheduledExports))
	}
	enabled := cfg.EnabledScheduledExports()
	if len(enabled) != 1 || enabled[0].Name != "morning-new" {
		t.Errorf("EnabledScheduledExports() = %+v", enabled)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestGetScheduledExportReturnsCopy(t *testing.T) {
	cfg := &Config{ScheduledExports: []ScheduledExport{{Name: "daily", Schedule: "0 6 * * *"}}}

	got := cfg.GetScheduledExport("daily")
	if got == nil {
		t.Fatal("GetScheduledExport(daily) = nil")
	}
	got.Schedule = "mutated"
	if cfg.ScheduledExports[0].Schedule != "0 6 * * *" {
		t.Error("mutation leaked into config")
	}
	if cfg.GetScheduledExport("missing") != nil {
		t.Error("GetScheduledExport(missing) should be nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		exports []ScheduledExport
		wantErr string
	}{
		{"empty", nil, ""},
		{"missing name", []ScheduledExport{{Schedule: "@daily"}}, "name is required"},
		{"duplicate", []ScheduledExport{{Name: "a"}, {Name: "a"}}, "duplicate name"},
		{"bad format", []ScheduledExport{{Name: "a", Format: "pdf"}}, "unknown format"},
		{"xlsx ok", []ScheduledExport{{Name: "a", Format: "XLSX"}}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&Config{ScheduledExports: tt.exports}).Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateSecure(t *testing.T) {
	tests := []struct {
		name    string
		server  ServerConfig
		wantErr bool
	}{
		{"loopback without key", ServerConfig{BindAddr: "127.0.0.1"}, false},
		{"empty bind addr", ServerConfig{}, false},
		{"localhost", ServerConfig{BindAddr: "localhost"}, false},
		{"ipv6 loopback", ServerConfig{BindAddr: "::1"}, false},
		{"public without key", ServerConfig{BindAddr: "0.0.0.0"}, true},
		{"public with key", ServerConfig{BindAddr: "0.0.0.0", APIKey: "k"}, false},
		{"public allow insecure", ServerConfig{BindAddr: "0.0.0.0", AllowInsecure: true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.server.ValidateSecure()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSecure() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get user home dir: %v", err)
	}

	tests := []struct {
		name        string
		input       string
		expected    string
		unixOnly    bool
		windowsOnly bool
	}{
		{name: "empty string", input: "", expected: ""},
		{name: "just tilde", input: "~", expected: home},
		{name: "tilde with path", input: "~/foo", expected: filepath.Join(home, "foo")},
		{name: "tilde with trailing slash only", input: "~/", expected: home},
		{name: "tilde user notation not expanded", input: "~user", expected: "~user"},
		{name: "nested path after tilde", input: "~/foo/bar/baz", expected: filepath.Join(home, "foo/bar/baz")},
		{name: "relative path unchanged", input: "relative/path", expected: "relative/path"},
		{name: "absolute path unchanged", input: "/var/lib/leaddesk", expected: "/var/lib/leaddesk", unixOnly: true},
		{name: "tilde in middle not expanded", input: "/home/~user/foo", expected: "/home/~user/foo", unixOnly: true},
		{name: "double-quoted path", input: `"C:\Users\me\leaddesk"`, expected: `C:\Users\me\leaddesk`, windowsOnly: true},
		{name: "single char not stripped", input: "'", expected: "'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.unixOnly && runtime.GOOS == "windows" {
				t.Skip("skipping Unix-specific path test on Windows")
			}
			if tt.windowsOnly && runtime.GOOS != "windows" {
				t.Skip("skipping Windows-specific path test on non-Windows")
			}
			if got := expandPath(tt.input); got != tt.expected {
				t.Errorf("expandPath(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestLoadExplicitPathNotFound(t *testing.T) {
	_, err := Load("/nonexistent/path/config.toml", "")
	if err == nil {
		t.Fatal("Load with explicit nonexistent path should return error")
	}
	if got := err.Error(); !strings.Contains(got, "config file not found") {
		t.Errorf("error = %q, want it to contain %q", got, "config file not found")
	}
}

func TestLoadExplicitPathRelativePaths(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeConfig(t, tmpDir, `
[data]
data_dir = "data"

[export]
dir = "out"
`)

	cfg, err := Load(configPath, "")
	if err != nil {
		t.Fatalf("Load(%q) failed: %v", configPath, err)
	}

	if cfg.HomeDir != tmpDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, tmpDir)
	}
	if want := filepath.Join(tmpDir, "data"); cfg.Data.DataDir != want {
		t.Errorf("Data.DataDir = %q, want %q", cfg.Data.DataDir, want)
	}
	if want := filepath.Join(tmpDir, "out"); cfg.ExportsDir() != want {
		t.Errorf("ExportsDir() = %q, want %q", cfg.ExportsDir(), want)
	}
	if cfg.ConfigFilePath() != configPath {
		t.Errorf("ConfigFilePath() = %q, want %q", cfg.ConfigFilePath(), configPath)
	}
}

func TestLoadWithHomeDir(t *testing.T) {
	homeDir := t.TempDir()
	writeConfig(t, homeDir, "[server]\napi_port = 4242\n")

	cfg, err := Load("", homeDir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.HomeDir != homeDir {
		t.Errorf("HomeDir = %q, want %q", cfg.HomeDir, homeDir)
	}
	if cfg.Server.APIPort != 4242 {
		t.Errorf("Server.APIPort = %d, want 4242", cfg.Server.APIPort)
	}
	if want := filepath.Join(homeDir, "leaddesk.db"); cfg.DatabaseDSN() != want {
		t.Errorf("DatabaseDSN() = %q, want %q", cfg.DatabaseDSN(), want)
	}
}

func TestDefaultHomeExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Fatalf("failed to get user home dir: %v", err)
	}

	t.Setenv("LEADDESK_HOME", "~/.leaddesk")
	if got, want := DefaultHome(), filepath.Join(home, ".leaddesk"); got != want {
		t.Errorf("DefaultHome() = %q, want %q", got, want)
	}
}

func TestLoadBackslashErrorHint(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid escape", "[data]\ndata_dir = \"C:\\Games\\leaddesk\"\n"},
		{"unicode escape", "[data]\ndata_dir = \"C:\\Users\\me\\leaddesk\"\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			t.Setenv("LEADDESK_HOME", tmpDir)
			writeConfig(t, tmpDir, tt.content)

			_, err := Load("", "")
			if err == nil {
				t.Fatal("Load should fail on TOML backslash error")
			}
			for _, want := range []string{"hint:", "forward slashes", "single quotes"} {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("error should contain %q, got: %s", want, err)
				}
			}
		})
	}
}

func TestLoadIgnoresUnknownKeys(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LEADDESK_HOME", tmpDir)
	writeConfig(t, tmpDir, "[server]\napi_port = 9091\nmcp_enabled = true\n")

	cfg, err := Load("", "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.APIPort != 9091 {
		t.Errorf("Server.APIPort = %d, want 9091", cfg.Server.APIPort)
	}
}

func TestNewDefaultConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("LEADDESK_HOME", tmpDir)

	cfg := NewDefaultConfig()
	if cfg.HomeDir != tmpDir || cfg.Data.DataDir != tmpDir {
		t.Errorf("HomeDir/DataDir = %q/%q, want %q", cfg.HomeDir, cfg.Data.DataDir, tmpDir)
	}
	if cfg.ListView.DefaultLimit != 20 {
		t.Errorf("ListView.DefaultLimit = %d, want 20", cfg.ListView.DefaultLimit)
	}
}
