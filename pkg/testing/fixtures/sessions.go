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

// Package fixtures holds sample session histories for tests.
package fixtures

import (
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
)

// Base is the start of every fixture history.
var Base = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return Base.Add(d)
}

func ended(d time.Duration) *time.Time {
	t := at(d)
	return &t
}

// Sessions is a history covering two programs, a reused pid and a session
// still in progress.
var Sessions = struct {
	Totals     []database.ProgramTotal
	Collection []database.Session
	Open       database.Session
}{
	Collection: []database.Session{
		{ID: 1, Program: "emulator", PID: 300, StartedAt: at(0), EndedAt: ended(45 * time.Minute)},
		{ID: 2, Program: "game", PID: 100, StartedAt: at(10 * time.Minute), EndedAt: ended(71*time.Minute + time.Second)},
		{ID: 3, Program: "game", PID: 100, StartedAt: at(2 * time.Hour), EndedAt: ended(2*time.Hour + 30*time.Second)},
		{ID: 4, Program: "emulator", PID: 301, StartedAt: at(3 * time.Hour), EndedAt: ended(4 * time.Hour)},
		{ID: 5, Program: "game", PID: 102, StartedAt: at(5 * time.Hour)},
	},
	Open: database.Session{ID: 5, Program: "game", PID: 102, StartedAt: at(5 * time.Hour)},
	Totals: []database.ProgramTotal{
		{Program: "emulator", TotalSeconds: 45*60 + 3600},
		{Program: "game", TotalSeconds: 61*60 + 1 + 30},
	},
}
