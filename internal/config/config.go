// Package config loads optional user settings from a TOML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/logger"
)

const (
	EnvPromptURL    = "JOTLIT_PROMPT_URL"
	EnvDictationCmd = "JOTLIT_DICTATION_CMD"
	EnvTimerMinutes = "JOTLIT_TIMER_MINUTES"
)

// Duration is a time.Duration written as "30s" or "5m" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	TimerMinutes     int      `toml:"timer_minutes"`
	AutoSaveInterval Duration `toml:"autosave_interval"`

	Prompt        Prompt        `toml:"prompt"`
	Dictation     Dictation     `toml:"dictation"`
	Notifications Notifications `toml:"notifications"`
}

type Prompt struct {
	URL     string   `toml:"url"`
	Timeout Duration `toml:"timeout"`
	// Fallbacks replaces the built-in fallback prompts when non-empty.
	Fallbacks []string `toml:"fallbacks,omitempty"`
}

type Dictation struct {
	// Command is a speech-to-text program that prints transcript lines on stdout.
	Command string `toml:"command"`
}

type Notifications struct {
	Enabled bool `toml:"enabled"`
}

func Default() Config {
	return Config{
		TimerMinutes:     constants.DefaultTimerMinutes,
		AutoSaveInterval: Duration{constants.DefaultAutoSaveInterval},
		Prompt: Prompt{
			URL:     constants.DefaultPromptURL,
			Timeout: Duration{constants.DefaultPromptTimeout},
		},
		Notifications: Notifications{Enabled: true},
	}
}

// Load reads path over the defaults. A missing file is not an error.
// Environment overrides are applied last, then the result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case err == nil:
			md, err := toml.Decode(string(raw), &cfg)
			if err != nil {
				return Config{}, fmt.Errorf("failed to parse settings %s: %w", path, err)
			}
			if undecoded := md.Undecoded(); len(undecoded) > 0 {
				logger.Warn("Ignoring unknown settings", "path", path, "keys", undecoded)
			}
		case errors.Is(err, os.ErrNotExist):
			logger.Debug("No settings file, using defaults", "path", path)
		default:
			return Config{}, fmt.Errorf("failed to read settings %s: %w", path, err)
		}
	}

	if err := cfg.FromENV(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromENV overrides fields from JOTLIT_* variables that are set.
func (c *Config) FromENV() error {
	if v, ok := os.LookupEnv(EnvPromptURL); ok {
		c.Prompt.URL = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvDictationCmd); ok {
		c.Dictation.Command = strings.TrimSpace(v)
	}
	if v, ok := os.LookupEnv(EnvTimerMinutes); ok && strings.TrimSpace(v) != "" {
		minutes, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s must be a whole number of minutes: %w", EnvTimerMinutes, err)
		}
		c.TimerMinutes = minutes
	}
	return nil
}

// Validate clamps the timer into its supported range and rejects
// non-positive intervals.
func (c *Config) Validate() error {
	if c.TimerMinutes < constants.MinTimerMinutes {
		c.TimerMinutes = constants.MinTimerMinutes
	}
	if c.TimerMinutes > constants.MaxTimerMinutes {
		c.TimerMinutes = constants.MaxTimerMinutes
	}
	if c.AutoSaveInterval.Duration <= 0 {
		return fmt.Errorf("autosave_interval must be positive, got %s", c.AutoSaveInterval)
	}
	if c.Prompt.Timeout.Duration <= 0 {
		return fmt.Errorf("prompt.timeout must be positive, got %s", c.Prompt.Timeout)
	}
	if c.Prompt.URL == "" {
		c.Prompt.URL = constants.DefaultPromptURL
	}
	return nil
}

// Write saves cfg to path, creating parent directories. An existing file is
// only replaced when force is set.
func Write(path string, cfg Config, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("settings already exist at %s: %w", path, os.ErrExist)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create settings file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		return fmt.Errorf("failed to write settings: %w", err)
	}
	return nil
}
