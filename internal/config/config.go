// Package config provides configuration loading and validation for the server and CLI.
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config represents the service configuration that can be loaded from a JSON file.
// All fields are optional; missing values fall back to the environment and then to defaults.
type Config struct {
	Port              int    `json:"port,omitempty"`                // HTTP listen port
	DatabaseURL       string `json:"database_url,omitempty"`        // PostgreSQL connection URL
	TemplateSourceURL string `json:"template_source_url,omitempty"` // Remote template listing (optional)
	TemplateTimeout   string `json:"template_timeout,omitempty"`    // Remote listing timeout, e.g. "5s"
	LogLevel          string `json:"log_level,omitempty"`           // debug, info, warn, error
	LogFormat         string `json:"log_format,omitempty"`          // json or console
	AllowedOrigin     string `json:"allowed_origin,omitempty"`      // CORS origin
}

// Defaults returns the built-in configuration values.
func Defaults() Config {
	return Config{
		Port:            8080,
		TemplateTimeout: "5s",
		LogLevel:        "info",
		LogFormat:       "json",
		AllowedOrigin:   "*",
	}
}

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// FromEnv builds a Config from environment variables. Unset variables leave fields empty.
func FromEnv() Config {
	cfg := Config{
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		TemplateSourceURL: os.Getenv("TEMPLATE_SOURCE_URL"),
		TemplateTimeout:   os.Getenv("TEMPLATE_TIMEOUT"),
		LogLevel:          os.Getenv("LOG_LEVEL"),
		LogFormat:         os.Getenv("LOG_FORMAT"),
		AllowedOrigin:     os.Getenv("ALLOWED_ORIGIN"),
	}
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		cfg.Port = port
	}
	return cfg
}

// Validate checks that the configuration has valid values.
// Required fields are checked by the commands that need them.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: 'port' must be between 0 and 65535, got %d", c.Port)
	}

	if c.TemplateSourceURL != "" {
		u, err := url.Parse(c.TemplateSourceURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("config error: 'template_source_url' is not a valid URL: %s", c.TemplateSourceURL)
		}
	}

	if c.TemplateTimeout != "" {
		if _, err := time.ParseDuration(c.TemplateTimeout); err != nil {
			return fmt.Errorf("config error: 'template_timeout' is not a duration: %s", c.TemplateTimeout)
		}
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config error: unknown 'log_level': %s", c.LogLevel)
	}

	switch c.LogFormat {
	case "", "json", "console":
	default:
		return fmt.Errorf("config error: unknown 'log_format': %s", c.LogFormat)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// Config file values are merged over the environment, then over Defaults().
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.TemplateSourceURL == "" {
		result.TemplateSourceURL = defaults.TemplateSourceURL
	}
	if result.TemplateTimeout == "" {
		result.TemplateTimeout = defaults.TemplateTimeout
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.AllowedOrigin == "" {
		result.AllowedOrigin = defaults.AllowedOrigin
	}

	return result
}

// TemplateTimeoutDuration parses TemplateTimeout, falling back to 5 seconds.
func (c *Config) TemplateTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.TemplateTimeout); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

// Resolve loads the optional config file and merges it over the environment and defaults.
func Resolve(path string) (Config, error) {
	env := FromEnv()
	base := env.MergeWithDefaults(Defaults())

	cfg := base
	if path != "" {
		fileCfg, err := LoadConfig(path)
		if err != nil {
			return Config{}, err
		}
		cfg = fileCfg.MergeWithDefaults(base)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
