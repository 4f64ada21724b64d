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

package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/adrg/xdg"
)

// ConfigDir is where config.toml lives.
func ConfigDir() string {
	return filepath.Join(xdg.ConfigHome, config.AppName)
}

// DataDir is where the session database lives.
func DataDir() string {
	return filepath.Join(xdg.DataHome, config.AppName)
}

// LogDir is where rotating log files are written.
func LogDir() string {
	return filepath.Join(os.TempDir(), config.AppName)
}

// LegacyConfigPath is where releases before the TOML config kept their
// config.yaml.
func LegacyConfigPath(configDir string) string {
	return filepath.Join(configDir, config.LegacyCfgFile)
}

// EnsureDirectories creates the config, data and log directories.
func EnsureDirectories(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// LegacyDBPath is the sqlite file used by releases that kept the database
// directly in the data home.
func LegacyDBPath() string {
	return filepath.Join(xdg.DataHome, config.AppName+".sqlite")
}
