// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/morganforge/finchat-tui/internal/util"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// CurrentVersion tracks the config schema.
	CurrentVersion = "1.0"

	// EnvDevelopment and EnvProduction are the recognized environments.
	EnvDevelopment = "dev"
	EnvProduction  = "production"

	// DefaultDevUserID is used when no user id is configured in dev.
	DefaultDevUserID = "dev-user"

	configDirName = ".finchat"
	tomlFileName  = "config.toml"
	jsonFileName  = "config.json"
)

// =============================================================================
// CONFIG TYPES
// =============================================================================

// ServerConfig locates the backend.
type ServerConfig struct {
	WSURL                string  `toml:"ws_url" json:"ws_url"`
	APIBaseURL           string  `toml:"api_base_url" json:"api_base_url"`
	HandshakeTimeoutSecs int     `toml:"handshake_timeout_secs" json:"handshake_timeout_secs"`
	PingIntervalSecs     int     `toml:"ping_interval_secs" json:"ping_interval_secs"`
	SendRatePerSec       float64 `toml:"send_rate_per_sec" json:"send_rate_per_sec"`
}

// UIConfig controls presentation.
type UIConfig struct {
	Theme        string `toml:"theme" json:"theme"` // auto, dark, light
	ShowProgress bool   `toml:"show_progress" json:"show_progress"`
	CompactMode  bool   `toml:"compact_mode" json:"compact_mode"`
}

// Config is the full finchat configuration.
type Config struct {
	Version     string       `toml:"version" json:"version"`
	Environment string       `toml:"environment" json:"environment"`
	UserID      string       `toml:"user_id" json:"user_id"`
	Server      ServerConfig `toml:"server" json:"server"`
	UI          UIConfig     `toml:"ui" json:"ui"`
}

// DefaultConfig returns a config pointed at a local backend.
func DefaultConfig() *Config {
	return &Config{
		Version:     CurrentVersion,
		Environment: EnvDevelopment,
		UserID:      DefaultDevUserID,
		Server: ServerConfig{
			WSURL:                "ws://localhost:8000/ws",
			APIBaseURL:           "http://localhost:8000/api",
			HandshakeTimeoutSecs: 10,
			PingIntervalSecs:     30,
			SendRatePerSec:       0, // unlimited
		},
		UI: UIConfig{
			Theme:        "auto",
			ShowProgress: true,
		},
	}
}

// HandshakeTimeout returns the dial timeout as a duration.
func (c *Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.Server.HandshakeTimeoutSecs) * time.Second
}

// PingInterval returns the keep-alive interval as a duration.
func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Server.PingIntervalSecs) * time.Second
}

// =============================================================================
// PATHS
// =============================================================================

// Dir returns the config directory, ~/.finchat.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// TOMLPath returns the path of the TOML config file.
func TOMLPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, tomlFileName), nil
}

// JSONPath returns the path of the JSON config file.
func JSONPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, jsonFileName), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config, preferring TOML over JSON and falling back to
// defaults when neither file exists. Environment overrides are applied and
// the result validated.
func Load() (*Config, error) {
	cfg := DefaultConfig()

	if path, err := TOMLPath(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			loaded, loadErr := LoadTOML(path)
			if loadErr != nil {
				return nil, loadErr
			}
			cfg = loaded
		} else if jsonPath, jerr := JSONPath(); jerr == nil {
			if _, statErr := os.Stat(jsonPath); statErr == nil {
				loaded, loadErr := LoadJSON(jsonPath)
				if loadErr != nil {
					return nil, loadErr
				}
				cfg = loaded
			}
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML reads a TOML config file.
func LoadTOML(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// LoadJSON reads a JSON config file.
func LoadJSON(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// fillDefaults backfills zero-valued fields so partial files stay valid.
func (c *Config) fillDefaults() {
	def := DefaultConfig()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Environment == "" {
		c.Environment = def.Environment
	}
	if c.UserID == "" && c.Environment == EnvDevelopment {
		c.UserID = DefaultDevUserID
	}
	if c.Server.WSURL == "" {
		c.Server.WSURL = def.Server.WSURL
	}
	if c.Server.APIBaseURL == "" {
		c.Server.APIBaseURL = def.Server.APIBaseURL
	}
	if c.Server.HandshakeTimeoutSecs <= 0 {
		c.Server.HandshakeTimeoutSecs = def.Server.HandshakeTimeoutSecs
	}
	if c.Server.PingIntervalSecs <= 0 {
		c.Server.PingIntervalSecs = def.Server.PingIntervalSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides lets FINCHAT_* variables win over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("FINCHAT_WS_URL"); v != "" {
		c.Server.WSURL = v
	}
	if v := os.Getenv("FINCHAT_API_BASE_URL"); v != "" {
		c.Server.APIBaseURL = v
	}
	if v := os.Getenv("FINCHAT_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("FINCHAT_USER_ID"); v != "" {
		c.UserID = v
	}
	if v := os.Getenv("FINCHAT_THEME"); v != "" {
		c.UI.Theme = v
	}
	if v := os.Getenv("FINCHAT_SEND_RATE"); v != "" {
		if rate, err := strconv.ParseFloat(v, 64); err == nil && rate >= 0 {
			c.Server.SendRatePerSec = rate
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError reports one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks the config for usable values.
func (c *Config) Validate() error {
	if u, err := url.Parse(c.Server.WSURL); err != nil || (u.Scheme != "ws" && u.Scheme != "wss") || u.Host == "" {
		return &ValidationError{Field: "server.ws_url", Message: "must be a ws:// or wss:// URL"}
	}
	if u, err := url.Parse(c.Server.APIBaseURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return &ValidationError{Field: "server.api_base_url", Message: "must be an http:// or https:// URL"}
	}
	if c.Environment != EnvDevelopment && c.Environment != EnvProduction {
		return &ValidationError{Field: "environment", Message: "must be dev or production"}
	}
	if c.Environment == EnvProduction && c.UserID == "" {
		return &ValidationError{Field: "user_id", Message: "required in production"}
	}
	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		return &ValidationError{Field: "ui.theme", Message: "must be auto, dark, or light"}
	}
	if c.Server.SendRatePerSec < 0 {
		return &ValidationError{Field: "server.send_rate_per_sec", Message: "must not be negative"}
	}
	return nil
}

// =============================================================================
// SAVING
// =============================================================================

// SaveJSON writes the config as JSON, atomically.
func (c *Config) SaveJSON(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return util.AtomicWriteFile(path, append(data, '\n'), 0o644)
}

// SaveTOML writes the config as TOML, atomically.
func (c *Config) SaveTOML(path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(c); err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0o644)
}

// IsDev reports whether the client runs against a development backend.
func (c *Config) IsDev() bool {
	return strings.EqualFold(c.Environment, EnvDevelopment)
}
