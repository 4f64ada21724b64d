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
	"os"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureDirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dirs := []string{
		filepath.Join(root, "config", "nested"),
		filepath.Join(root, "data"),
	}

	require.NoError(t, EnsureDirectories(dirs...))
	// running again is fine
	require.NoError(t, EnsureDirectories(dirs...))

	for _, dir := range dirs {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestEnsureDirectories_FileInTheWay(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	blocker := filepath.Join(root, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := EnsureDirectories(filepath.Join(blocker, "child"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create directory")
}

func TestPaths(t *testing.T) {
	t.Parallel()

	assert.Equal(t, config.AppName, filepath.Base(ConfigDir()))
	assert.Equal(t, config.AppName, filepath.Base(DataDir()))
	assert.Equal(t, config.AppName, filepath.Base(LogDir()))
	assert.Equal(t, "/cfg/config.yaml", filepath.ToSlash(LegacyConfigPath("/cfg")))
	assert.Equal(t, config.AppName+".sqlite", filepath.Base(LegacyDBPath()))
	assert.NotEqual(t, filepath.Join(DataDir(), config.SessionDbFile), LegacyDBPath())
}
