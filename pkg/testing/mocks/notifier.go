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

package mocks

import (
	"fmt"

	"github.com/ZaparooProject/playtime-tracker/pkg/helpers/syncutil"
	"github.com/ZaparooProject/playtime-tracker/pkg/proctracker"
	"github.com/stretchr/testify/mock"
)

// MockExitNotifier is a mock of the daemon's exit notifier. Callbacks
// passed to Track are kept so tests can fire them with Exit.
type MockExitNotifier struct {
	mock.Mock
	callbacks map[int]proctracker.ExitCallback
	mu        syncutil.Mutex
}

func (m *MockExitNotifier) Track(pid int, callback proctracker.ExitCallback) error {
	args := m.Called(pid, callback)
	if err := args.Error(0); err != nil {
		return fmt.Errorf("mock track failed: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.callbacks == nil {
		m.callbacks = make(map[int]proctracker.ExitCallback)
	}
	m.callbacks[pid] = callback
	return nil
}

func (m *MockExitNotifier) Untrack(pid int) {
	m.Called(pid)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.callbacks, pid)
}

func (m *MockExitNotifier) Stop() {
	m.Called()
}

// Exit fires the callback registered for pid, if any.
func (m *MockExitNotifier) Exit(pid int) {
	m.mu.Lock()
	cb := m.callbacks[pid]
	delete(m.callbacks, pid)
	m.mu.Unlock()
	if cb != nil {
		cb(pid)
	}
}
