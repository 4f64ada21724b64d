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

// Package mocks provides testify mocks for the process side of the daemon.
package mocks

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/procscanner"
	"github.com/stretchr/testify/mock"
)

// MockSource is a mock implementation of procscanner.Source.
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Snapshot(ctx context.Context) ([]procscanner.Observation, error) {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock snapshot failed: %w", err)
	}
	if obs, ok := args.Get(0).([]procscanner.Observation); ok {
		return obs, nil
	}
	return nil, nil
}

func (m *MockSource) StartTime(ctx context.Context, pid int) (time.Time, error) {
	args := m.Called(ctx, pid)
	if err := args.Error(1); err != nil {
		return time.Time{}, fmt.Errorf("mock start time failed: %w", err)
	}
	if t, ok := args.Get(0).(time.Time); ok {
		return t, nil
	}
	return time.Time{}, nil
}
