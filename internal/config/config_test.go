package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var envKeys = []string{
	"PLTERM_BASE_URL",
	"PLTERM_TIMEOUT",
	"PLTERM_EXPAND_OWNER",
	"PLTERM_LOG_LEVEL",
	"PLTERM_SCROLL_TOLERANCE",
	"PLTERM_CONFIG_PATH",
}

// isolate clears the environment and points the home directory at a temp dir.
func isolate(t *testing.T) string {
	t.Helper()

	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	dir := t.TempDir()
	t.Setenv("PLTERM_HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.BaseURL != "https://api2.ploomes.com" {
		t.Errorf("Expected default base url, got '%s'", config.BaseURL)
	}
	if config.Timeout != 30*time.Second {
		t.Errorf("Expected default timeout 30s, got %v", config.Timeout)
	}
	if config.ExpandOwner {
		t.Errorf("Expected owner expansion off by default")
	}
	if config.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got '%s'", config.LogLevel)
	}
	if config.ScrollTolerance != 1 {
		t.Errorf("Expected default scroll tolerance 1, got %d", config.ScrollTolerance)
	}
}

func TestLoadWithEnv(t *testing.T) {
	isolate(t)
	t.Setenv("PLTERM_BASE_URL", "http://localhost:9000")
	t.Setenv("PLTERM_TIMEOUT", "5s")
	t.Setenv("PLTERM_EXPAND_OWNER", "true")
	t.Setenv("PLTERM_LOG_LEVEL", "debug")
	t.Setenv("PLTERM_SCROLL_TOLERANCE", "3")

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.BaseURL != "http://localhost:9000" {
		t.Errorf("Expected base url from env, got '%s'", config.BaseURL)
	}
	if config.Timeout != 5*time.Second {
		t.Errorf("Expected timeout 5s, got %v", config.Timeout)
	}
	if !config.ExpandOwner {
		t.Errorf("Expected owner expansion on")
	}
	if config.LogLevel != "debug" {
		t.Errorf("Expected log level 'debug', got '%s'", config.LogLevel)
	}
	if config.ScrollTolerance != 3 {
		t.Errorf("Expected scroll tolerance 3, got %d", config.ScrollTolerance)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)

	content := "base_url: http://file.example\ntimeout: 12s\nexpand_owner: true\nlog_level: warn\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("PLTERM_LOG_LEVEL", "error")

	config, err := Load()
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if config.BaseURL != "http://file.example" {
		t.Errorf("Expected base url from file, got '%s'", config.BaseURL)
	}
	if config.Timeout != 12*time.Second {
		t.Errorf("Expected timeout 12s from file, got %v", config.Timeout)
	}
	if !config.ExpandOwner {
		t.Errorf("Expected owner expansion from file")
	}
	if config.LogLevel != "error" {
		t.Errorf("Expected env to override file log level, got '%s'", config.LogLevel)
	}
	if config.ScrollTolerance != 1 {
		t.Errorf("Expected untouched default scroll tolerance, got %d", config.ScrollTolerance)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("PLTERM_CONFIG_PATH", filepath.Join(dir, "missing.yaml"))

	if _, err := Load(); err == nil {
		t.Errorf("Expected error for missing explicit config file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("timeout: [oops"), 0600); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	t.Setenv("PLTERM_CONFIG_PATH", path)

	if _, err := Load(); err == nil {
		t.Errorf("Expected error for malformed config file")
	}
}

func TestValidate(t *testing.T) {
	valid := func() Config { return *GetDefaultConfig() }

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"plain http", func(c *Config) { c.BaseURL = "http://localhost" }, false},
		{"bad scheme", func(c *Config) { c.BaseURL = "ftp://x" }, true},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"negative tolerance", func(c *Config) { c.ScrollTolerance = -1 }, true},
		{"zero tolerance", func(c *Config) { c.ScrollTolerance = 0 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid()
			tt.mutate(&config)
			err := config.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestToClientConfig(t *testing.T) {
	config := GetDefaultConfig()
	config.Timeout = 7 * time.Second

	client := config.ToClientConfig(nil)
	if client.BaseURL != config.BaseURL {
		t.Errorf("Expected base url %s, got %s", config.BaseURL, client.BaseURL)
	}
	if client.Timeout != 7*time.Second {
		t.Errorf("Expected timeout 7s, got %v", client.Timeout)
	}
}

func TestHomeDir(t *testing.T) {
	t.Setenv("PLTERM_HOME", "/tmp/plterm-test")

	dir, err := HomeDir()
	if err != nil {
		t.Fatalf("HomeDir failed: %v", err)
	}
	if dir != "/tmp/plterm-test" {
		t.Errorf("Expected PLTERM_HOME to win, got %s", dir)
	}
}
