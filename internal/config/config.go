// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading and management for gpt-cli.
//
// Configuration is read once at startup from a TOML file with environment
// variable overrides applied last, then passed explicitly into the chat loop.
//
// File location: ~/.gpt-cli/config.toml (built-in defaults when absent).
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config represents the complete gpt-cli configuration.
type Config struct {
	// APIKey is the bearer token for the chat completions API.
	// Usually supplied via the OPENAI_API_KEY environment variable.
	APIKey string `toml:"api_key"`

	// BaseURL is the API base URL. Any OpenAI-compatible endpoint works.
	BaseURL string `toml:"base_url"`

	// DefaultModel is the model a new session starts with.
	DefaultModel string `toml:"default_model"`

	// SystemPrompt seeds new sessions. Empty means no system message.
	SystemPrompt string `toml:"system_prompt"`

	// SaveDir is where /save and /load resolve relative filenames.
	// Empty means <config dir>/chats.
	SaveDir string `toml:"save_dir"`

	// ClearOnStart clears the terminal before the first prompt.
	ClearOnStart bool `toml:"clear_on_start"`

	// PlainOutput disables markdown rendering of replies.
	PlainOutput bool `toml:"plain_output"`
}

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		BaseURL:      "https://api.openai.com/v1",
		DefaultModel: "gpt-4o-mini",
		SystemPrompt: "You are a helpful assistant. Keep your answers concise when possible.",
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the gpt-cli configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".gpt-cli"), nil
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

// ChatDir returns the directory for saved chats, honoring SaveDir.
func (c *Config) ChatDir() (string, error) {
	if c.SaveDir != "" {
		return c.SaveDir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "chats"), nil
}

// ensureSecurePermissions tightens config file permissions.
// SECURITY: The config file may hold the API key; keep it 0600.
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
// LOAD
// =============================================================================

// Load reads configuration from the config file, falling back to defaults,
// then applies environment overrides. Validation is the caller's step so
// flag overrides can land first.
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
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		// Permissions might not be fixable on all filesystems; keep loading.
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variables over file/default values.
func (c *Config) ApplyEnvOverrides() {
	// OPENAI_API_KEY
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.APIKey = key
	}

	// GPTCLI_BASE_URL
	if url := os.Getenv("GPTCLI_BASE_URL"); url != "" {
		c.BaseURL = url
	}

	// GPTCLI_MODEL
	if model := os.Getenv("GPTCLI_MODEL"); model != "" {
		c.DefaultModel = model
	}

	// GPTCLI_SYSTEM_PROMPT
	if prompt, ok := os.LookupEnv("GPTCLI_SYSTEM_PROMPT"); ok {
		c.SystemPrompt = prompt
	}

	// GPTCLI_SAVE_DIR
	if dir := os.Getenv("GPTCLI_SAVE_DIR"); dir != "" {
		c.SaveDir = dir
	}

	// GPTCLI_CLEAR_ON_START
	if clear := os.Getenv("GPTCLI_CLEAR_ON_START"); clear != "" {
		c.ClearOnStart = clear == "1" || strings.EqualFold(clear, "true")
	}

	// GPTCLI_PLAIN / NO_COLOR both force plain output
	if plain := os.Getenv("GPTCLI_PLAIN"); plain != "" {
		c.PlainOutput = plain == "1" || strings.EqualFold(plain, "true")
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ErrMissingAPIKey is the fatal startup error for an absent credential.
var ErrMissingAPIKey = errors.New(
	"API key is required: set OPENAI_API_KEY or api_key in ~/.gpt-cli/config.toml")

// Validate checks that the configuration can start a session.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if c.BaseURL == "" {
		return errors.New("base_url must not be empty")
	}
	if c.DefaultModel == "" {
		return errors.New("default_model must not be empty")
	}
	return nil
}
