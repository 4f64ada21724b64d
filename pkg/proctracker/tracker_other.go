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

//go:build !linux

package proctracker

import (
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/helpers/syncutil"
)

// Tracker is a no-op outside Linux; exits are only seen by polling.
type Tracker struct {
	tracked      map[int]ExitCallback
	pollInterval time.Duration
	mu           syncutil.Mutex
}

func New(opts ...Option) *Tracker {
	t := &Tracker{
		tracked:      make(map[int]ExitCallback),
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Tracker) Track(pid int, callback ExitCallback) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracked[pid] = callback
	return nil
}

func (t *Tracker) Untrack(pid int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.tracked, pid)
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.tracked = make(map[int]ExitCallback)
}
