// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete innerbook configuration.
type Config struct {
	Version string `toml:"version"`

	// API configuration (OpenAI-compatible chat endpoint)
	API APIConfig `toml:"api"`

	// Chat behavior configuration
	Chat ChatConfig `toml:"chat"`

	// Storage configuration
	Storage StorageConfig `toml:"storage"`

	// Remote report table configuration
	Remote RemoteConfig `toml:"remote"`
}

// APIConfig contains the chat completion endpoint configuration.
type APIConfig struct {
	// BaseURL is the OpenAI-compatible API base URL
	BaseURL string `toml:"base_url"`
	// Key is the API key
	Key string `toml:"key"`
	// Model is the model identifier sent with each request
	Model string `toml:"model"`
	// MaxTokens is the completion token budget (0 = provider default)
	MaxTokens int `toml:"max_tokens"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
}

// ChatConfig contains conversation behavior configuration.
type ChatConfig struct {
	// MockMode answers from the built-in scripted flow instead of the API
	MockMode bool `toml:"mock_mode"`
	// TypewriterIntervalMS is the reveal tick interval in milliseconds
	TypewriterIntervalMS int `toml:"typewriter_interval_ms"`
	// MaxRounds is the number of answered rounds that complete a report
	MaxRounds int `toml:"max_rounds"`
}

// StorageConfig contains local persistence configuration.
type StorageConfig struct {
	// DataDir is the directory holding reports.json and credentials.json
	// (empty = default ~/.innerbook)
	DataDir string `toml:"data_dir"`
}

// RemoteConfig contains the shared report table configuration.
type RemoteConfig struct {
	// DBPath is the SQLite database path (empty = default ~/.innerbook/remote.db)
	DBPath string `toml:"db_path"`
	// DetailCacheTTLSecs is the per-report read cache lifetime in seconds
	DetailCacheTTLSecs int `toml:"detail_cache_ttl_secs"`
	// ListCacheTTLSecs is the report listing cache lifetime in seconds
	ListCacheTTLSecs int `toml:"list_cache_ttl_secs"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		API: APIConfig{
			BaseURL:     "https://api.openai.com/v1",
			Key:         "",
			Model:       "gpt-4o-mini",
			MaxTokens:   0,
			TimeoutSecs: 120,
		},

		Chat: ChatConfig{
			MockMode:             false,
			TypewriterIntervalMS: 30,
			MaxRounds:            10,
		},

		Storage: StorageConfig{
			DataDir: "",
		},

		Remote: RemoteConfig{
			DBPath:             "",
			DetailCacheTTLSecs: 5,
			ListCacheTTLSecs:   300,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the innerbook configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".innerbook"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// DataDir resolves the effective data directory, creating it if needed.
func (c *Config) DataDir() (string, error) {
	dir := c.Storage.DataDir
	if dir == "" {
		var err error
		dir, err = ConfigDir()
		if err != nil {
			return "", err
		}
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("could not create data directory: %w", err)
	}
	return dir, nil
}

// RemoteDBPath resolves the effective remote database path.
func (c *Config) RemoteDBPath() (string, error) {
	if c.Remote.DBPath != "" {
		return c.Remote.DBPath, nil
	}
	dir, err := c.DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "remote.db"), nil
}

// ensureSecurePermissions checks and fixes permissions on the config file.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to
// defaults when no file exists. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, statErr := os.Stat(path); statErr != nil {
		cfg := Default()
		cfg.ApplyEnvOverrides()
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
		return cfg, nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
func LoadFromPath(path string) (*Config, error) {
	// SECURITY: Check and fix file permissions if needed
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML file: %w", err)
	}
	fillDefaults(cfg)
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = defaults.API.BaseURL
	}
	if cfg.API.Model == "" {
		cfg.API.Model = defaults.API.Model
	}
	if cfg.API.TimeoutSecs == 0 {
		cfg.API.TimeoutSecs = defaults.API.TimeoutSecs
	}

	if cfg.Chat.TypewriterIntervalMS == 0 {
		cfg.Chat.TypewriterIntervalMS = defaults.Chat.TypewriterIntervalMS
	}
	if cfg.Chat.MaxRounds == 0 {
		cfg.Chat.MaxRounds = defaults.Chat.MaxRounds
	}

	if cfg.Remote.DetailCacheTTLSecs == 0 {
		cfg.Remote.DetailCacheTTLSecs = defaults.Remote.DetailCacheTTLSecs
	}
	if cfg.Remote.ListCacheTTLSecs == 0 {
		cfg.Remote.ListCacheTTLSecs = defaults.Remote.ListCacheTTLSecs
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies INNERBOOK_* environment variables on top of
// the loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("INNERBOOK_API_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("INNERBOOK_API_KEY"); v != "" {
		c.API.Key = v
	}
	if v := os.Getenv("INNERBOOK_MODEL"); v != "" {
		c.API.Model = v
	}
	if v := os.Getenv("INNERBOOK_DATA_DIR"); v != "" {
		c.Storage.DataDir = v
	}
	if v := os.Getenv("INNERBOOK_MOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Chat.MockMode = b
		}
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	// SECURITY: Ensure permissions are correct even if file already existed
	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# innerbook configuration file")
	fmt.Fprintln(file, "# Generated by innerbook - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			errs = append(errs, ValidationError{
				Field:   "api.base_url",
				Message: fmt.Sprintf("invalid URL %q, must be http or https", c.API.BaseURL),
			})
		}
	}

	if c.API.MaxTokens < 0 {
		errs = append(errs, ValidationError{
			Field:   "api.max_tokens",
			Message: "must not be negative",
		})
	}

	if c.Chat.TypewriterIntervalMS < 0 {
		errs = append(errs, ValidationError{
			Field:   "chat.typewriter_interval_ms",
			Message: "must not be negative",
		})
	}

	if c.Chat.MaxRounds < 1 {
		errs = append(errs, ValidationError{
			Field:   "chat.max_rounds",
			Message: "must be at least 1",
		})
	}

	if c.Remote.DetailCacheTTLSecs < 0 || c.Remote.ListCacheTTLSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "remote",
			Message: "cache TTLs must not be negative",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
