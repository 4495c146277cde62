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
	"time"

	"github.com/BurntSushi/toml"
)

// DefaultSystemPrompt is the assistant persona used when no prompt is
// configured. Dagan answers questions about Togolese administrative
// procedures in French.
const DefaultSystemPrompt = "Tu es Dagan, un assistant IA spécialisé dans l'aide aux démarches administratives togolaises. " +
	"Ta source de référence principale est le site https://service-public.gouv.tg/. " +
	"Tu dois fournir des informations exhaustives incluant les heures d'ouverture et les contacts des services administratifs concernés quand c'est pertinent. " +
	"Si tu ne trouves pas une information, sois honnête et dis-le clairement. " +
	"Reformule les informations administratives complexes en langage simple et compréhensible."

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete dagan configuration.
type Config struct {
	// Version of the config schema.
	Version string `toml:"version"`

	// Backend holds chat endpoint settings for the TUI.
	Backend BackendConfig `toml:"backend"`

	// Server holds proxy settings for serve mode.
	Server ServerConfig `toml:"server"`

	// Storage holds conversation persistence settings.
	Storage StorageConfig `toml:"storage"`

	// UI holds terminal interface settings.
	UI UIConfig `toml:"ui"`
}

// BackendConfig contains chat backend endpoint configuration.
type BackendConfig struct {
	// URL is the chat endpoint the TUI sends questions to.
	URL string `toml:"url"`
	// Model is an optional model override forwarded to the backend.
	Model string `toml:"model"`
	// SystemPrompt is the assistant persona sent with every request.
	SystemPrompt string `toml:"system_prompt"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs"`
}

// ServerConfig contains proxy server (serve mode) configuration.
type ServerConfig struct {
	// Addr is the listen address for serve mode.
	Addr string `toml:"addr"`
	// APIKey is the upstream OpenAI API key. Usually set via the
	// OPENAI_API_KEY environment variable rather than on disk.
	APIKey string `toml:"api_key"`
	// Model is the upstream model used when a request does not name one.
	Model string `toml:"model"`
	// UpstreamURL overrides the OpenAI-compatible completion endpoint.
	// Empty means the openai-go default.
	UpstreamURL string `toml:"upstream_url"`
	// RateLimitRPS is the sustained request rate allowed per client.
	RateLimitRPS float64 `toml:"rate_limit_rps"`
	// RateLimitBurst is the burst size allowed per client.
	RateLimitBurst int `toml:"rate_limit_burst"`
	// AllowedOrigin is the CORS origin echoed on responses ("*" allows any).
	AllowedOrigin string `toml:"allowed_origin"`
}

// StorageConfig contains conversation persistence configuration.
type StorageConfig struct {
	// Backend selects the persistence engine: "file" or "sqlite".
	Backend string `toml:"backend"`
	// Dir is the data directory (empty = ~/.dagan).
	Dir string `toml:"dir"`
}

// UIConfig contains terminal UI configuration.
type UIConfig struct {
	// Theme is the UI theme: "dark", "light", "auto"
	Theme string `toml:"theme"`
	// Markdown renders assistant answers through the markdown renderer.
	Markdown bool `toml:"markdown"`
	// RevealIntervalMs is the delay between typing-reveal steps.
	RevealIntervalMs int `toml:"reveal_interval_ms"`
	// SuggestedQuestions are shown when the conversation is empty.
	SuggestedQuestions []string `toml:"suggested_questions"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Backend: BackendConfig{
			URL:          "http://127.0.0.1:8787/chat",
			Model:        "",
			SystemPrompt: DefaultSystemPrompt,
			TimeoutSecs:  60,
		},

		Server: ServerConfig{
			Addr:           "127.0.0.1:8787",
			APIKey:         "",
			Model:          "gpt-4o-mini",
			RateLimitRPS:   1,
			RateLimitBurst: 5,
			AllowedOrigin:  "*",
		},

		Storage: StorageConfig{
			Backend: "file",
			Dir:     "",
		},

		UI: UIConfig{
			Theme:            "auto",
			Markdown:         true,
			RevealIntervalMs: 50,
			SuggestedQuestions: []string{
				"Comment obtenir un passeport togolais ?",
				"Quelles sont les démarches pour créer une entreprise ?",
				"Comment renouveler ma carte d'identité ?",
				"Où demander un acte de naissance ?",
			},
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the dagan configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".dagan"), nil
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

// DataDir resolves the storage directory, creating it if needed.
func (c *Config) DataDir() (string, error) {
	dir := c.Storage.Dir
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

// ensureSecurePermissions checks and fixes permissions on config files.
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

// Load loads configuration from ~/.dagan/config.toml, falling back to
// defaults when the file is absent. Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all systems.
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
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
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# dagan configuration file")
	fmt.Fprintln(file, "# Generated by dagan - edit with care")
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

	if c.Backend.URL != "" {
		u, err := url.Parse(c.Backend.URL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "backend.url",
				Message: fmt.Sprintf("invalid URL '%s', must be absolute (http://host/path)", c.Backend.URL),
			})
		}
	}

	if c.Server.UpstreamURL != "" {
		u, err := url.Parse(c.Server.UpstreamURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, ValidationError{
				Field:   "server.upstream_url",
				Message: fmt.Sprintf("invalid URL '%s', must be absolute (http://host/path)", c.Server.UpstreamURL),
			})
		}
	}

	if c.Backend.TimeoutSecs < 1 || c.Backend.TimeoutSecs > 600 {
		errs = append(errs, ValidationError{
			Field:   "backend.timeout_secs",
			Message: fmt.Sprintf("must be 1-600 seconds, got %d", c.Backend.TimeoutSecs),
		})
	}

	validBackends := map[string]bool{"file": true, "sqlite": true}
	if !validBackends[strings.ToLower(c.Storage.Backend)] {
		errs = append(errs, ValidationError{
			Field:   "storage.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: file, sqlite", c.Storage.Backend),
		})
	}

	if c.Server.RateLimitRPS < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_rps",
			Message: "rate cannot be negative",
		})
	}
	if c.Server.RateLimitBurst < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.rate_limit_burst",
			Message: "burst cannot be negative",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if c.UI.RevealIntervalMs < 0 || c.UI.RevealIntervalMs > 1000 {
		errs = append(errs, ValidationError{
			Field:   "ui.reveal_interval_ms",
			Message: fmt.Sprintf("must be 0-1000 milliseconds, got %d", c.UI.RevealIntervalMs),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with built-in defaults after a file load.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}
	if c.Backend.URL == "" {
		c.Backend.URL = defaults.Backend.URL
	}
	if c.Backend.SystemPrompt == "" {
		c.Backend.SystemPrompt = defaults.Backend.SystemPrompt
	}
	if c.Backend.TimeoutSecs == 0 {
		c.Backend.TimeoutSecs = defaults.Backend.TimeoutSecs
	}
	if c.Server.Addr == "" {
		c.Server.Addr = defaults.Server.Addr
	}
	if c.Server.Model == "" {
		c.Server.Model = defaults.Server.Model
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = defaults.Server.RateLimitRPS
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = defaults.Server.RateLimitBurst
	}
	if c.Server.AllowedOrigin == "" {
		c.Server.AllowedOrigin = defaults.Server.AllowedOrigin
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = defaults.Storage.Backend
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.RevealIntervalMs == 0 {
		c.UI.RevealIntervalMs = defaults.UI.RevealIntervalMs
	}
	if c.UI.SuggestedQuestions == nil {
		c.UI.SuggestedQuestions = defaults.UI.SuggestedQuestions
	}
}

// RevealInterval returns the typing-reveal step delay as a duration.
func (c *Config) RevealInterval() time.Duration {
	return time.Duration(c.UI.RevealIntervalMs) * time.Millisecond
}

// BackendTimeout returns the per-request backend timeout as a duration.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.Backend.TimeoutSecs) * time.Second
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - DAGAN_BACKEND_URL: overrides backend.url
//   - DAGAN_MODEL: overrides backend.model and server.model
//   - DAGAN_SYSTEM_PROMPT: overrides backend.system_prompt
//   - DAGAN_ADDR: overrides server.addr
//   - DAGAN_STORAGE: overrides storage.backend
//   - DAGAN_THEME: overrides ui.theme
//   - DAGAN_TIMEOUT_SECS: overrides backend.timeout_secs
//   - DAGAN_UPSTREAM_URL: overrides server.upstream_url
//   - OPENAI_API_KEY: overrides server.api_key
func (c *Config) ApplyEnvOverrides() {
	if u := os.Getenv("DAGAN_BACKEND_URL"); u != "" {
		c.Backend.URL = u
	}

	if model := os.Getenv("DAGAN_MODEL"); model != "" {
		c.Backend.Model = model
		c.Server.Model = model
	}

	if prompt := os.Getenv("DAGAN_SYSTEM_PROMPT"); prompt != "" {
		c.Backend.SystemPrompt = prompt
	}

	if addr := os.Getenv("DAGAN_ADDR"); addr != "" {
		c.Server.Addr = addr
	}

	if storage := os.Getenv("DAGAN_STORAGE"); storage != "" {
		c.Storage.Backend = storage
	}

	if theme := os.Getenv("DAGAN_THEME"); theme != "" {
		c.UI.Theme = theme
	}

	if secs := os.Getenv("DAGAN_TIMEOUT_SECS"); secs != "" {
		if n, err := strconv.Atoi(secs); err == nil {
			c.Backend.TimeoutSecs = n
		}
	}

	if u := os.Getenv("DAGAN_UPSTREAM_URL"); u != "" {
		c.Server.UpstreamURL = u
	}

	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.Server.APIKey = key
	}
}
