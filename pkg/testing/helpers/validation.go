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
	"testing"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	"github.com/stretchr/testify/require"
)

// AssertValidSession checks the fields every stored session must have.
func AssertValidSession(t *testing.T, s database.Session) {
	t.Helper()

	require.NotZero(t, s.ID, "Session.ID must be set")
	require.NotEmpty(t, s.Program, "Session.Program is required")
	require.Positive(t, s.PID, "Session.PID must be positive")
	require.False(t, s.StartedAt.IsZero(), "Session.StartedAt must be set")
	if s.EndedAt != nil {
		require.False(t, s.EndedAt.Before(s.StartedAt),
			"Session.EndedAt must not be before StartedAt")
	}
}

// AssertAtMostOneOpenPerPID fails if any pid has more than one open session.
func AssertAtMostOneOpenPerPID(t *testing.T, sessions []database.Session) {
	t.Helper()

	open := make(map[int]int64)
	for _, s := range sessions {
		if s.EndedAt != nil {
			continue
		}
		if prev, ok := open[s.PID]; ok {
			require.Failf(t, "multiple open sessions",
				"pid %d has open sessions %d and %d", s.PID, prev, s.ID)
		}
		open[s.PID] = s.ID
	}
}
