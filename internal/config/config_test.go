// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
	if cfg.Chat.TypewriterIntervalMS != 30 {
		t.Errorf("typewriter interval = %d, want 30", cfg.Chat.TypewriterIntervalMS)
	}
	if cfg.Chat.MaxRounds != 10 {
		t.Errorf("max rounds = %d, want 10", cfg.Chat.MaxRounds)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	content := `
version = "1.0.0"

[api]
base_url = "https://llm.example.com/v1"
key = "sk-test"
model = "test-model"

[chat]
mock_mode = true
max_rounds = 5

[storage]
data_dir = "` + dir + `"
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	if cfg.API.BaseURL != "https://llm.example.com/v1" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if !cfg.Chat.MockMode {
		t.Error("mock_mode should be true")
	}
	if cfg.Chat.MaxRounds != 5 {
		t.Errorf("max_rounds = %d, want 5", cfg.Chat.MaxRounds)
	}
	// Unset fields fall back to defaults.
	if cfg.Chat.TypewriterIntervalMS != 30 {
		t.Errorf("typewriter interval = %d, want default 30", cfg.Chat.TypewriterIntervalMS)
	}
	if cfg.Remote.DetailCacheTTLSecs != 5 {
		t.Errorf("detail cache ttl = %d, want default 5", cfg.Remote.DetailCacheTTLSecs)
	}
}

func TestLoadFixesInsecurePermissions(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("version = \"1.0.0\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromPath(path); err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("permissions = %o, want 0600", mode)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := Default()
	cfg.API.BaseURL = "not a url"
	cfg.Chat.MaxRounds = 0

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	msg := err.Error()
	if !strings.Contains(msg, "api.base_url") {
		t.Errorf("missing base_url error: %v", msg)
	}
	if !strings.Contains(msg, "chat.max_rounds") {
		t.Errorf("missing max_rounds error: %v", msg)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("INNERBOOK_API_KEY", "sk-from-env")
	t.Setenv("INNERBOOK_MODEL", "env-model")
	t.Setenv("INNERBOOK_MOCK", "true")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.API.Key != "sk-from-env" {
		t.Errorf("key = %q", cfg.API.Key)
	}
	if cfg.API.Model != "env-model" {
		t.Errorf("model = %q", cfg.API.Model)
	}
	if !cfg.Chat.MockMode {
		t.Error("mock mode should be on from env")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")

	cfg := Default()
	cfg.API.Key = "sk-roundtrip"
	cfg.Chat.MaxRounds = 7

	if err := SaveToPath(cfg, path); err != nil {
		t.Fatalf("SaveToPath: %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		t.Errorf("saved permissions = %o, want 0600", mode)
	}

	loaded, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if loaded.API.Key != "sk-roundtrip" || loaded.Chat.MaxRounds != 7 {
		t.Errorf("round trip lost values: %+v", loaded)
	}
}
