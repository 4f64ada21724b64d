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

// Package proctracker reports when watched processes exit. On Linux it
// uses pidfd_open (5.3+) and falls back to kill(pid, 0) probes. Elsewhere
// tracking is a no-op and callers rely on polling alone.
package proctracker

import (
	"errors"
	"time"
)

// ErrProcessNotFound is returned when a process doesn't exist.
var ErrProcessNotFound = errors.New("process not found")

// DefaultPollInterval is how often the fallback probes a process.
const DefaultPollInterval = time.Second

// ExitCallback is called from a tracker goroutine when a process exits.
type ExitCallback func(pid int)

// Option configures a Tracker.
type Option func(*Tracker)

// WithPollInterval sets the fallback probe interval.
func WithPollInterval(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.pollInterval = d
		}
	}
}

// Tracked returns the pids currently being watched.
func (t *Tracker) Tracked() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	pids := make([]int, 0, len(t.tracked))
	for pid := range t.tracked {
		pids = append(pids, pid)
	}
	return pids
}
