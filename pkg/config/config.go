// Package config provides configuration file support for pomd.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pomd-project/pomd/pkg/errclass"
	"github.com/pomd-project/pomd/pkg/logging"
	"github.com/pomd-project/pomd/pkg/model"
)

// FileName is the config file name inside the pomd config directory.
const FileName = "config.yaml"

// Config represents the pomd configuration.
type Config struct {
	Timer   TimerConfig   `yaml:"timer"`
	Status  StatusConfig  `yaml:"status"`
	Hooks   []HookConfig  `yaml:"hooks,omitempty"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// TimerConfig configures session durations and the work/break cadence.
type TimerConfig struct {
	WorkMinutes       int  `yaml:"work_minutes"`
	ShortBreakMinutes int  `yaml:"short_break_minutes"`
	LongBreakMinutes  int  `yaml:"long_break_minutes"`
	LongBreakInterval int  `yaml:"long_break_interval"`
	StrictMode        bool `yaml:"strict_mode"`
	// Autostart begins the next session immediately when one ends instead
	// of waiting for an explicit start.
	AutostartWork   bool `yaml:"autostart_work"`
	AutostartBreaks bool `yaml:"autostart_breaks"`
}

// SessionSeconds returns the configured duration for a session type.
func (t TimerConfig) SessionSeconds(typ model.SessionType) int {
	switch typ {
	case model.SessionShortBreak:
		return t.ShortBreakMinutes * 60
	case model.SessionLongBreak:
		return t.LongBreakMinutes * 60
	default:
		return t.WorkMinutes * 60
	}
}

// StatusConfig configures the status file and its refresh signal.
type StatusConfig struct {
	Enabled bool `yaml:"enabled"`
	// SignalCommand is run (via sh -c) after status writes to nudge a
	// status-bar renderer, e.g. "pkill -RTMIN+8 waybar".
	SignalCommand     string `yaml:"signal_command,omitempty"`
	SignalMinInterval string `yaml:"signal_min_interval"`
}

// MinInterval parses the signal throttle interval.
func (s StatusConfig) MinInterval() (time.Duration, error) {
	return time.ParseDuration(s.SignalMinInterval)
}

// HookConfig configures one event hook. Exactly one of Command or URL must
// be set. Empty Events means all session events.
type HookConfig struct {
	Events  []string `yaml:"events,omitempty"`
	Command string   `yaml:"command,omitempty"`
	URL     string   `yaml:"url,omitempty"`
	Timeout string   `yaml:"timeout,omitempty"`
}

// HistoryConfig configures session history retention.
type HistoryConfig struct {
	KeepMinSessions int    `yaml:"keep_min_sessions"`
	KeepMinAge      string `yaml:"keep_min_age"`
}

// MinAge parses the retention age floor.
func (h HistoryConfig) MinAge() (time.Duration, error) {
	return time.ParseDuration(h.KeepMinAge)
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration: the classic 25/5/15 cadence
// with a long break every fourth work session.
func Default() *Config {
	return &Config{
		Timer: TimerConfig{
			WorkMinutes:       25,
			ShortBreakMinutes: 5,
			LongBreakMinutes:  15,
			LongBreakInterval: 4,
		},
		Status: StatusConfig{
			Enabled:           true,
			SignalMinInterval: "3s",
		},
		History: HistoryConfig{
			KeepMinSessions: 500,
			KeepMinAge:      "720h",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads config.yaml from configDir. A missing file yields defaults;
// fields absent from the file keep their default values.
func Load(configDir string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Join(configDir, FileName))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errclass.ErrConfigInvalid.WithMessagef("parse config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes configuration to configDir/config.yaml.
func Save(configDir string, cfg *Config) error {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, FileName), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Validate rejects configurations the daemon cannot run with.
func (c *Config) Validate() error {
	t := c.Timer
	if t.WorkMinutes < 1 || t.ShortBreakMinutes < 1 || t.LongBreakMinutes < 1 {
		return errclass.ErrConfigInvalid.WithMessage("timer durations must be at least 1 minute")
	}
	if t.LongBreakInterval < 1 {
		return errclass.ErrConfigInvalid.WithMessagef("long_break_interval %d below 1", t.LongBreakInterval)
	}
	if _, err := c.Status.MinInterval(); err != nil {
		return errclass.ErrConfigInvalid.WithMessagef("signal_min_interval: %v", err)
	}
	if _, err := c.History.MinAge(); err != nil {
		return errclass.ErrConfigInvalid.WithMessagef("keep_min_age: %v", err)
	}
	if c.History.KeepMinSessions < 0 {
		return errclass.ErrConfigInvalid.WithMessage("keep_min_sessions must not be negative")
	}
	for i, h := range c.Hooks {
		if (h.Command == "") == (h.URL == "") {
			return errclass.ErrConfigInvalid.WithMessagef("hook %d: exactly one of command or url required", i)
		}
		if h.Timeout != "" {
			if _, err := time.ParseDuration(h.Timeout); err != nil {
				return errclass.ErrConfigInvalid.WithMessagef("hook %d timeout: %v", i, err)
			}
		}
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return errclass.ErrConfigInvalid.WithMessagef("logging level: %v", err)
	}
	return nil
}
