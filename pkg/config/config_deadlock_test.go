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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestInstance_ConcurrentAccess reloads the config while readers use it.
// With -tags=deadlock, go-deadlock panics on lock misuse.
func TestInstance_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	vals := BaseDefaults
	vals.Tracked = []string{"game", "emulator"}
	require.NoError(t, WriteValues(filepath.Join(dir, CfgFile), vals))

	cfg, err := NewConfig(dir, BaseDefaults)
	require.NoError(t, err)

	done := make(chan struct{})
	for range 10 {
		go func() {
			for range 100 {
				_ = cfg.TrackedPrograms()
				_ = cfg.PollInterval()
				_ = cfg.DebugLogging()
				_ = cfg.ErrorReporting()
			}
			done <- struct{}{}
		}()
	}
	for range 20 {
		require.NoError(t, cfg.Load())
	}

	for range 10 {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("concurrent access deadlocked")
		}
	}
}
