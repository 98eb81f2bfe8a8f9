package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"ploomesterm/internal/crm"
)

const appDirName = ".plterm"

type Config struct {
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	ExpandOwner     bool          `yaml:"expand_owner"`
	LogLevel        string        `yaml:"log_level"`
	ScrollTolerance int           `yaml:"scroll_tolerance"`
}

// Load builds the configuration from defaults, then the YAML file, then the environment.
func Load() (*Config, error) {
	config := GetDefaultConfig()

	path, explicit := ConfigPath()
	// The default file is optional, an explicit one is not.
	if err := config.LoadFile(path); err != nil && (explicit || !errors.Is(err, fs.ErrNotExist)) {
		return nil, err
	}

	config.applyEnv()

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFile overlays the keys present in the YAML file onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return nil
}

func (c *Config) applyEnv() {
	c.BaseURL = getEnvOrDefault("PLTERM_BASE_URL", c.BaseURL)
	c.Timeout = parseDurationOrDefault("PLTERM_TIMEOUT", c.Timeout)
	c.ExpandOwner = parseBoolOrDefault("PLTERM_EXPAND_OWNER", c.ExpandOwner)
	c.LogLevel = getEnvOrDefault("PLTERM_LOG_LEVEL", c.LogLevel)
	c.ScrollTolerance = parseIntOrDefault("PLTERM_SCROLL_TOLERANCE", c.ScrollTolerance)
}

func (c *Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("invalid base url: %q (must start with http:// or https://)", c.BaseURL)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got: %v", c.Timeout)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn or error)", c.LogLevel)
	}

	if c.ScrollTolerance < 0 {
		return fmt.Errorf("scroll tolerance must be non-negative, got: %d", c.ScrollTolerance)
	}

	return nil
}

func (c *Config) ToClientConfig(logger *zap.Logger) crm.Config {
	return crm.Config{
		BaseURL: c.BaseURL,
		Timeout: c.Timeout,
		Logger:  logger,
	}
}

func GetDefaultConfig() *Config {
	return &Config{
		BaseURL:         crm.DefaultBaseURL,
		Timeout:         crm.DefaultTimeout,
		ExpandOwner:     false,
		LogLevel:        "info",
		ScrollTolerance: 1,
	}
}

// HomeDir is where the session, log and config files live.
func HomeDir() (string, error) {
	if dir := os.Getenv("PLTERM_HOME"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, appDirName), nil
}

// ConfigPath reports the config file location and whether it was set explicitly.
func ConfigPath() (string, bool) {
	if path := os.Getenv("PLTERM_CONFIG_PATH"); path != "" {
		return path, true
	}

	dir, err := HomeDir()
	if err != nil {
		return "config.yaml", false
	}
	return filepath.Join(dir, "config.yaml"), false
}

func IsDebugEnabled() bool {
	return os.Getenv("PLTERM_DEBUG") == "true" || os.Getenv("PLTERM_DEBUG") == "1"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
