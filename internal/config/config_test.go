package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// =============================================================================
// UNIFIED CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"BOOTHBOT_BOT_ID", "BOOTHBOT_DB", "BOOTHBOT_CATALOG", "BOOTHBOT_LOG_LEVEL", "BOOTHBOT_DEBUG"} {
		t.Setenv(key, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Name != "boothbot" {
		t.Errorf("expected Name=boothbot, got %s", cfg.Name)
	}
	if cfg.Matching.ExactLimit != 5 {
		t.Errorf("expected ExactLimit=5, got %d", cfg.Matching.ExactLimit)
	}
	if cfg.Matching.FallbackLimit != 3 {
		t.Errorf("expected FallbackLimit=3, got %d", cfg.Matching.FallbackLimit)
	}
	if cfg.Matching.Cutoff != 0.6 {
		t.Errorf("expected Cutoff=0.6, got %v", cfg.Matching.Cutoff)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "boothbot.yaml")

	cfg := DefaultConfig()
	cfg.Bot.ID = "U123"
	cfg.Database.Path = "/tmp/spring.db"
	cfg.Matching.Cutoff = 0.75

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Bot.ID != "U123" {
		t.Errorf("expected Bot.ID=U123, got %s", loaded.Bot.ID)
	}
	if loaded.Database.Path != "/tmp/spring.db" {
		t.Errorf("expected Database.Path=/tmp/spring.db, got %s", loaded.Database.Path)
	}
	if loaded.Matching.Cutoff != 0.75 {
		t.Errorf("expected Cutoff=0.75, got %v", loaded.Matching.Cutoff)
	}
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Database.Path != DefaultConfig().Database.Path {
		t.Errorf("expected default database path, got %s", cfg.Database.Path)
	}
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "partial.yaml")
	if err := os.WriteFile(path, []byte("bot:\n  id: UBOT\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Bot.ID != "UBOT" {
		t.Errorf("expected Bot.ID=UBOT, got %s", cfg.Bot.ID)
	}
	if cfg.Bot.Handle != "@booth_bot" {
		t.Errorf("expected default handle, got %s", cfg.Bot.Handle)
	}
	if cfg.Matching.ExactLimit != 5 {
		t.Errorf("expected default ExactLimit, got %d", cfg.Matching.ExactLimit)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("bot: [unterminated"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty db path", func(c *Config) { c.Database.Path = "" }},
		{"zero exact limit", func(c *Config) { c.Matching.ExactLimit = 0 }},
		{"zero fallback limit", func(c *Config) { c.Matching.FallbackLimit = 0 }},
		{"zero suggestions", func(c *Config) { c.Matching.MaxSuggestions = 0 }},
		{"cutoff above one", func(c *Config) { c.Matching.Cutoff = 1.5 }},
		{"zero cutoff", func(c *Config) { c.Matching.Cutoff = 0 }},
		{"negative cutoff", func(c *Config) { c.Matching.Cutoff = -0.2 }},
		{"bad poll delay", func(c *Config) { c.Bot.PollDelay = "soon" }},
		{"watch without path", func(c *Config) { c.Catalog.Watch = true }},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}

func TestConfig_Helpers(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.GetPollDelay() != time.Second {
		t.Errorf("expected 1s poll delay, got %v", cfg.GetPollDelay())
	}
	cfg.Bot.PollDelay = "garbage"
	if cfg.GetPollDelay() != time.Second {
		t.Error("GetPollDelay should fall back to 1s")
	}
}

func TestConfig_CutoffOfOneIsValid(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Matching.Cutoff = 1
	if err := cfg.Validate(); err != nil {
		t.Errorf("cutoff 1 should be valid: %v", err)
	}
}
