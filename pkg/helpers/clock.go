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

import "time"

// MinReliableYear is the earliest year accepted as a set system clock.
// Devices without an RTC often boot at the unix epoch until NTP syncs.
const MinReliableYear = 2024

// IsClockReliable reports whether t looks like it came from a set clock.
// Sessions recorded before the clock is set get 1970 timestamps, though
// their durations stay correct.
func IsClockReliable(t time.Time) bool {
	return t.Year() >= MinReliableYear
}
