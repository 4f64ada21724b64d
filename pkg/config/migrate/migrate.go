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

// Package migrate converts the config.yaml file used by earlier releases of
// the tracker into the current TOML config.
package migrate

import (
	"fmt"
	"os"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"gopkg.in/yaml.v3"
)

type legacyConfig struct {
	Tracked []string `yaml:"tracked"`
}

// Required returns true if a legacy YAML config exists and no TOML config
// has been created yet.
func Required(yamlPath, tomlPath string) bool {
	if _, err := os.Stat(yamlPath); err != nil {
		return false
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return false
	}
	return true
}

// YamlToToml reads a legacy YAML config and returns the equivalent values,
// starting from config.BaseDefaults.
func YamlToToml(yamlPath string) (config.Values, error) {
	vals := config.BaseDefaults
	vals.Tracked = nil

	data, err := os.ReadFile(yamlPath) //nolint:gosec // G304: path is from the config dir
	if err != nil {
		return vals, fmt.Errorf("failed to read legacy config: %w", err)
	}

	var legacy legacyConfig
	if err := yaml.Unmarshal(data, &legacy); err != nil {
		return vals, fmt.Errorf("%w: failed to parse legacy config: %w", config.ErrInvalidConfig, err)
	}

	vals.Tracked = config.NormalizeTracked(legacy.Tracked)
	return vals, nil
}

// Run migrates yamlPath to tomlPath. The legacy file is left in place.
func Run(yamlPath, tomlPath string) error {
	vals, err := YamlToToml(yamlPath)
	if err != nil {
		return err
	}

	if err := config.WriteValues(tomlPath, vals); err != nil {
		return fmt.Errorf("failed to write migrated config: %w", err)
	}
	return nil
}
