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

package migrate

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestYamlToToml(t *testing.T) {
	t.Parallel()

	t.Run("tracked list is migrated", func(t *testing.T) {
		t.Parallel()

		yamlContent := `
tracked:
    - "game"
    - "emulator"
    - "game"
`
		yamlPath := filepath.Join(t.TempDir(), config.LegacyCfgFile)
		require.NoError(t, os.WriteFile(yamlPath, []byte(yamlContent), 0o600))

		vals, err := YamlToToml(yamlPath)

		require.NoError(t, err)
		assert.Equal(t, []string{"game", "emulator"}, vals.Tracked)
		assert.Equal(t, config.SchemaVersion, vals.ConfigSchema)
		assert.Equal(t, config.DefaultPollInterval.String(), vals.Service.PollInterval)
	})

	t.Run("empty list stays empty", func(t *testing.T) {
		t.Parallel()

		yamlPath := filepath.Join(t.TempDir(), config.LegacyCfgFile)
		require.NoError(t, os.WriteFile(yamlPath, []byte("tracked: []\n"), 0o600))

		vals, err := YamlToToml(yamlPath)

		require.NoError(t, err)
		assert.Empty(t, vals.Tracked)
	})

	t.Run("invalid yaml is rejected", func(t *testing.T) {
		t.Parallel()

		yamlPath := filepath.Join(t.TempDir(), config.LegacyCfgFile)
		require.NoError(t, os.WriteFile(yamlPath, []byte("tracked: [unclosed\n"), 0o600))

		_, err := YamlToToml(yamlPath)

		require.ErrorIs(t, err, config.ErrInvalidConfig)
	})
}

func TestRun(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	yamlPath := filepath.Join(dir, config.LegacyCfgFile)
	tomlPath := filepath.Join(dir, config.CfgFile)
	require.NoError(t, os.WriteFile(yamlPath, []byte("tracked:\n  - game\n"), 0o600))

	require.NoError(t, Run(yamlPath, tomlPath))

	cfg, err := config.NewConfig(dir, config.BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, []string{"game"}, cfg.TrackedPrograms())

	// legacy file is kept
	_, err = os.Stat(yamlPath)
	assert.NoError(t, err)
}

func TestRequired(t *testing.T) {
	t.Parallel()

	t.Run("returns true when yaml exists and toml does not", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		yamlPath := filepath.Join(tmpDir, config.LegacyCfgFile)
		tomlPath := filepath.Join(tmpDir, config.CfgFile)
		require.NoError(t, os.WriteFile(yamlPath, []byte("tracked: []"), 0o600))

		assert.True(t, Required(yamlPath, tomlPath))
	})

	t.Run("returns false when both exist", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		yamlPath := filepath.Join(tmpDir, config.LegacyCfgFile)
		tomlPath := filepath.Join(tmpDir, config.CfgFile)
		require.NoError(t, os.WriteFile(yamlPath, []byte("tracked: []"), 0o600))
		require.NoError(t, os.WriteFile(tomlPath, []byte("config_schema = 1"), 0o600))

		assert.False(t, Required(yamlPath, tomlPath))
	})

	t.Run("returns false when yaml does not exist", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()

		assert.False(t, Required(
			filepath.Join(tmpDir, config.LegacyCfgFile),
			filepath.Join(tmpDir, config.CfgFile),
		))
	})
}
