package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all boothbot configuration.
type Config struct {
	Name string `yaml:"name"`

	// Bot identity and transport settings
	Bot BotConfig `yaml:"bot"`

	// SQLite course table
	Database DatabaseConfig `yaml:"database"`

	// Lookup limits and fuzzy matching
	Matching MatchingConfig `yaml:"matching"`

	// Course catalog import
	Catalog CatalogConfig `yaml:"catalog"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BotConfig configures how the bot is addressed and how it polls.
type BotConfig struct {
	ID        string `yaml:"id"`         // mention token is <@ID>; empty accepts every message
	Handle    string `yaml:"handle"`     // shown in help text, e.g. @booth_bot
	Owner     string `yaml:"owner"`      // credited in help text
	PollDelay string `yaml:"poll_delay"` // delay between reads
}

// DatabaseConfig configures the SQLite file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// MatchingConfig configures the lookup cascade.
type MatchingConfig struct {
	ExactLimit     int     `yaml:"exact_limit"`     // rows returned by an exact match
	FallbackLimit  int     `yaml:"fallback_limit"`  // rows returned by the word-wise match
	MaxSuggestions int     `yaml:"max_suggestions"` // close matches offered
	Cutoff         float64 `yaml:"cutoff"`          // minimum similarity ratio, (0, 1]
}

// CatalogConfig configures the YAML course catalog.
type CatalogConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "boothbot",

		Bot: BotConfig{
			Handle:    "@booth_bot",
			Owner:     "@nstornetta",
			PollDelay: "1s",
		},

		Database: DatabaseConfig{
			Path: "data/booth_classes.db",
		},

		Matching: MatchingConfig{
			ExactLimit:     5,
			FallbackLimit:  3,
			MaxSuggestions: 3,
			Cutoff:         0.6,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file.
// A missing file yields the defaults (plus environment overrides).
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if id := os.Getenv("BOOTHBOT_BOT_ID"); id != "" {
		c.Bot.ID = id
	}
	if path := os.Getenv("BOOTHBOT_DB"); path != "" {
		c.Database.Path = path
	}
	if path := os.Getenv("BOOTHBOT_CATALOG"); path != "" {
		c.Catalog.Path = path
	}
	if level := os.Getenv("BOOTHBOT_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if v := os.Getenv("BOOTHBOT_DEBUG"); v != "" {
		if debug, err := strconv.ParseBool(v); err == nil {
			c.Logging.DebugMode = debug
		}
	}
}

// GetPollDelay returns the poll delay as a duration.
func (c *Config) GetPollDelay() time.Duration {
	d, err := time.ParseDuration(c.Bot.PollDelay)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Database.Path == "" {
		return fmt.Errorf("database path not configured (set database.path or BOOTHBOT_DB)")
	}
	if c.Matching.ExactLimit <= 0 {
		return fmt.Errorf("matching.exact_limit must be positive, got %d", c.Matching.ExactLimit)
	}
	if c.Matching.FallbackLimit <= 0 {
		return fmt.Errorf("matching.fallback_limit must be positive, got %d", c.Matching.FallbackLimit)
	}
	if c.Matching.MaxSuggestions <= 0 {
		return fmt.Errorf("matching.max_suggestions must be positive, got %d", c.Matching.MaxSuggestions)
	}
	if c.Matching.Cutoff <= 0 || c.Matching.Cutoff > 1 {
		return fmt.Errorf("matching.cutoff must be within (0, 1], got %v", c.Matching.Cutoff)
	}
	if _, err := time.ParseDuration(c.Bot.PollDelay); err != nil {
		return fmt.Errorf("invalid bot.poll_delay %q: %w", c.Bot.PollDelay, err)
	}
	if c.Catalog.Watch && c.Catalog.Path == "" {
		return fmt.Errorf("catalog.watch requires catalog.path")
	}
	return c.Logging.Validate()
}
