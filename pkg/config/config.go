// Playtime Tracker
// Copyright (c) 2026 The Zaparoo Project Contributors.
// SPDX-License-Identifier: GPL-3.0-or-later
//
// This file is part of Playtime Tracker.
//
// Playtime Tracker is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// Playtime Tracker is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with Playtime Tracker.  If not, see <http://www.gnu.org/licenses/>.

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/helpers/syncutil"
	"github.com/google/uuid"
	toml "github.com/pelletier/go-toml/v2"
	"github.com/rs/zerolog/log"
)

const (
	SchemaVersion = 1
	CfgEnv        = "PLAYTIME_CFG"

	// PlaceholderProgram is written to a freshly created config so the
	// operator has an example entry to replace.
	PlaceholderProgram = "example_program"

	DefaultPollInterval = time.Second
	MinPollInterval     = 100 * time.Millisecond
)

var (
	// ErrCreatedDefault is returned when no config existed and a default
	// one was written. The operator needs to edit it and run again.
	ErrCreatedDefault = errors.New("created default config")
	// ErrNoTrackedPrograms is returned when the tracked list is empty.
	ErrNoTrackedPrograms = errors.New("no programs to track")
	// ErrInvalidConfig wraps any config file content that can't be used.
	ErrInvalidConfig = errors.New("invalid config")
)

type Values struct {
	Tracked      []string `toml:"tracked,multiline"`
	Service      Service  `toml:"service,omitempty"`
	ConfigSchema int      `toml:"config_schema"`
	DebugLogging bool     `toml:"debug_logging"`
}

type Service struct {
	PollInterval      string `toml:"poll_interval,omitempty"`
	DeviceID          string `toml:"device_id"`
	ErrorReportingDSN string `toml:"error_reporting_dsn,omitempty"`
	ErrorReporting    bool   `toml:"error_reporting"`
}

var BaseDefaults = Values{
	ConfigSchema: SchemaVersion,
	Tracked:      []string{PlaceholderProgram},
	Service: Service{
		PollInterval: DefaultPollInterval.String(),
	},
}

type Instance struct {
	cfgPath      string
	vals         Values
	defaults     Values
	pollInterval time.Duration
	mu           syncutil.RWMutex
}

// ResolvePath returns the config file location, honouring the CfgEnv
// override.
func ResolvePath(configDir string) string {
	if p := os.Getenv(CfgEnv); p != "" {
		return p
	}
	return filepath.Join(configDir, CfgFile)
}

// NewConfig loads the config file from configDir, creating a default one if
// it doesn't exist yet. A newly created config is never loaded: the caller
// gets ErrCreatedDefault and should exit so the operator can edit it. An
// empty tracked list returns the loaded config along with
// ErrNoTrackedPrograms.
//
//nolint:gocritic // config struct copied for immutability
func NewConfig(configDir string, defaults Values) (*Instance, error) {
	cfgPath := ResolvePath(configDir)
	log.Debug().Msgf("config path: %s", cfgPath)

	cfg := Instance{
		cfgPath:  cfgPath,
		vals:     defaults,
		defaults: defaults,
	}

	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		log.Info().Msg("saving new default config to disk")

		err := os.MkdirAll(filepath.Dir(cfgPath), 0o750)
		if err != nil {
			return nil, fmt.Errorf("failed to create config directory: %w", err)
		}

		err = cfg.Save()
		if err != nil {
			return nil, err
		}
		return nil, ErrCreatedDefault
	}

	err := cfg.Load()
	if err != nil {
		return nil, err
	}

	if len(cfg.TrackedPrograms()) == 0 {
		return &cfg, ErrNoTrackedPrograms
	}

	return &cfg, nil
}

func (c *Instance) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	data, err := os.ReadFile(c.cfgPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	// Start with defaults, then unmarshal file values on top. The tracked
	// list is the exception: a file without one means nothing to track.
	newVals := c.defaults
	newVals.Tracked = nil
	err = toml.Unmarshal(data, &newVals)
	if err != nil {
		return fmt.Errorf("%w: failed to unmarshal config: %w", ErrInvalidConfig, err)
	}

	if newVals.ConfigSchema != SchemaVersion {
		log.Error().Msgf(
			"schema version mismatch: got %d, expecting %d",
			newVals.ConfigSchema,
			SchemaVersion,
		)
		return fmt.Errorf("%w: schema version mismatch", ErrInvalidConfig)
	}

	interval := DefaultPollInterval
	if newVals.Service.PollInterval != "" {
		interval, err = time.ParseDuration(newVals.Service.PollInterval)
		if err != nil {
			return fmt.Errorf("%w: poll_interval: %w", ErrInvalidConfig, err)
		}
		if interval < MinPollInterval {
			return fmt.Errorf("%w: poll_interval must be at least %s", ErrInvalidConfig, MinPollInterval)
		}
	}

	newVals.Tracked = NormalizeTracked(newVals.Tracked)
	c.vals = newVals
	c.pollInterval = interval

	return nil
}

func (c *Instance) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cfgPath == "" {
		return errors.New("config path not set")
	}

	c.vals.ConfigSchema = SchemaVersion

	if c.vals.Service.DeviceID == "" {
		newID := uuid.New().String()
		c.vals.Service.DeviceID = newID
		log.Info().Msgf("generated new device id: %s", newID)
	}

	data, err := toml.Marshal(&c.vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(c.cfgPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// WriteValues saves vals as a config file at path, creating its directory.
//
//nolint:gocritic // config struct copied for immutability
func WriteValues(path string, vals Values) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	cfg := Instance{cfgPath: path, vals: vals}
	return cfg.Save()
}

// NormalizeTracked trims names, drops blanks and removes duplicates while
// keeping the original order.
func NormalizeTracked(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

func (c *Instance) Path() string {
	return c.cfgPath
}

// TrackedPrograms returns a copy of the tracked program names.
func (c *Instance) TrackedPrograms() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.vals.Tracked))
	copy(out, c.vals.Tracked)
	return out
}

func (c *Instance) PollInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pollInterval <= 0 {
		return DefaultPollInterval
	}
	return c.pollInterval
}

func (c *Instance) DebugLogging() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.DebugLogging
}

func (c *Instance) SetDebugLogging(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vals.DebugLogging = enabled
}

func (c *Instance) DeviceID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.DeviceID
}

// ErrorReporting reports whether opt-in error reporting is enabled. It is
// only considered on when a DSN is also configured.
func (c *Instance) ErrorReporting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.ErrorReporting && c.vals.Service.ErrorReportingDSN != ""
}

func (c *Instance) ErrorReportingDSN() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.vals.Service.ErrorReportingDSN
}
