// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// =============================================================================
// DEFAULTS TESTS
// =============================================================================

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	if cfg.DefaultModel != "gpt-4o-mini" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.SystemPrompt == "" {
		t.Error("SystemPrompt should have a default")
	}
	if cfg.APIKey != "" {
		t.Error("APIKey should default to empty")
	}
}

// =============================================================================
// TOML LOADING TESTS
// =============================================================================

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
api_key = "sk-from-file"
default_model = "gpt-4o"
system_prompt = "Answer in haiku."
clear_on_start = true
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	if cfg.APIKey != "sk-from-file" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.DefaultModel != "gpt-4o" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.SystemPrompt != "Answer in haiku." {
		t.Errorf("SystemPrompt = %q", cfg.SystemPrompt)
	}
	if !cfg.ClearOnStart {
		t.Error("ClearOnStart should be true")
	}
	// Unset fields keep defaults
	if cfg.BaseURL != "https://api.openai.com/v1" {
		t.Errorf("BaseURL = %q, want default", cfg.BaseURL)
	}
}

func TestLoadTOML_Invalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("api_key = [broken"), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err == nil {
		t.Error("LoadTOML should fail on invalid TOML")
	}
}

func TestLoadTOML_FixesPermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(`api_key = "sk-x"`), 0644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		t.Fatalf("LoadTOML failed: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("perm = %o, want 0600 after load", info.Mode().Perm())
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDE TESTS
// =============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-from-env")
	t.Setenv("GPTCLI_MODEL", "gpt-4.1")
	t.Setenv("GPTCLI_BASE_URL", "http://localhost:8080/v1")
	t.Setenv("GPTCLI_SYSTEM_PROMPT", "")
	t.Setenv("GPTCLI_CLEAR_ON_START", "true")

	cfg := Default()
	cfg.APIKey = "sk-from-file"
	cfg.ApplyEnvOverrides()

	if cfg.APIKey != "sk-from-env" {
		t.Errorf("APIKey = %q, env should win over file", cfg.APIKey)
	}
	if cfg.DefaultModel != "gpt-4.1" {
		t.Errorf("DefaultModel = %q", cfg.DefaultModel)
	}
	if cfg.BaseURL != "http://localhost:8080/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
	// Explicitly empty GPTCLI_SYSTEM_PROMPT clears the default prompt
	if cfg.SystemPrompt != "" {
		t.Errorf("SystemPrompt = %q, want cleared", cfg.SystemPrompt)
	}
	if !cfg.ClearOnStart {
		t.Error("ClearOnStart should be true")
	}
}

func TestApplyEnvOverrides_UnsetKeepsValues(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-keep"
	model := cfg.DefaultModel

	// Ensure the variables are absent for this test
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GPTCLI_MODEL", "")
	os.Unsetenv("OPENAI_API_KEY")
	os.Unsetenv("GPTCLI_MODEL")

	cfg.ApplyEnvOverrides()

	if cfg.APIKey != "sk-keep" {
		t.Errorf("APIKey = %q, want unchanged", cfg.APIKey)
	}
	if cfg.DefaultModel != model {
		t.Errorf("DefaultModel = %q, want unchanged", cfg.DefaultModel)
	}
}

// =============================================================================
// VALIDATION TESTS
// =============================================================================

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-ok"

	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate failed on good config: %v", err)
	}
}

func TestValidate_MissingAPIKey(t *testing.T) {
	cfg := Default()

	err := cfg.Validate()
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}

	cfg.APIKey = "   "
	if err := cfg.Validate(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("whitespace key should fail validation, got %v", err)
	}
}

func TestValidate_EmptyFields(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "sk-ok"
	cfg.DefaultModel = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail on empty model")
	}

	cfg = Default()
	cfg.APIKey = "sk-ok"
	cfg.BaseURL = ""
	if err := cfg.Validate(); err == nil {
		t.Error("Validate should fail on empty base URL")
	}
}

// =============================================================================
// CHAT DIR TESTS
// =============================================================================

func TestChatDir_HonorsSaveDir(t *testing.T) {
	cfg := Default()
	cfg.SaveDir = "/custom/chats"

	dir, err := cfg.ChatDir()
	if err != nil {
		t.Fatalf("ChatDir failed: %v", err)
	}
	if dir != "/custom/chats" {
		t.Errorf("ChatDir = %q", dir)
	}
}

func TestChatDir_Default(t *testing.T) {
	cfg := Default()

	dir, err := cfg.ChatDir()
	if err != nil {
		t.Fatalf("ChatDir failed: %v", err)
	}
	if filepath.Base(dir) != "chats" {
		t.Errorf("ChatDir = %q, want .../chats", dir)
	}
}
