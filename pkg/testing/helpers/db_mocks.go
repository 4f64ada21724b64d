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

// Package helpers provides testing utilities for the session store and the
// process snapshot source.
//
// It includes testify mocks of the store interfaces, an in-memory store with
// failure injection, a real sqlite store in a temp dir and an afero backed
// /proc builder.
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//		store := helpers.NewMockSessionStore()
//		store.On("OpenSession", mock.Anything, "game", 42, mock.Anything).
//			Return(int64(1), nil)
//
//		err := MyFunction(store)
//
//		require.NoError(t, err)
//		store.AssertExpectations(t)
//	}
package helpers

import (
	"context"
	"fmt"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	"github.com/stretchr/testify/mock"
)

// MockSessionStore is a mock implementation of database.SessionStore using
// testify/mock.
type MockSessionStore struct {
	mock.Mock
}

var _ database.SessionStore = (*MockSessionStore)(nil)

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{}
}

func (m *MockSessionStore) OpenSession(
	ctx context.Context,
	program string,
	pid int,
	startedAt time.Time,
) (int64, error) {
	args := m.Called(ctx, program, pid, startedAt)
	if err := args.Error(1); err != nil {
		return 0, fmt.Errorf("mock SessionStore open session failed: %w", err)
	}
	id, _ := args.Get(0).(int64)
	return id, nil
}

func (m *MockSessionStore) CloseSession(ctx context.Context, pid int, endedAt time.Time) (bool, error) {
	args := m.Called(ctx, pid, endedAt)
	if err := args.Error(1); err != nil {
		return false, fmt.Errorf("mock SessionStore close session failed: %w", err)
	}
	return args.Bool(0), nil
}

func (m *MockSessionStore) CloseSessionByID(ctx context.Context, id int64, endedAt time.Time) (bool, error) {
	args := m.Called(ctx, id, endedAt)
	if err := args.Error(1); err != nil {
		return false, fmt.Errorf("mock SessionStore close session by id failed: %w", err)
	}
	return args.Bool(0), nil
}

func (m *MockSessionStore) OpenSessions(ctx context.Context) ([]database.Session, error) {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock SessionStore open sessions failed: %w", err)
	}
	if sessions, ok := args.Get(0).([]database.Session); ok {
		return sessions, nil
	}
	return nil, nil
}

// MockReportStore is a mock implementation of database.ReportStore using
// testify/mock.
type MockReportStore struct {
	mock.Mock
}

var _ database.ReportStore = (*MockReportStore)(nil)

func NewMockReportStore() *MockReportStore {
	return &MockReportStore{}
}

func (m *MockReportStore) AggregateTotals(ctx context.Context) ([]database.ProgramTotal, error) {
	args := m.Called(ctx)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock ReportStore aggregate totals failed: %w", err)
	}
	if totals, ok := args.Get(0).([]database.ProgramTotal); ok {
		return totals, nil
	}
	return nil, nil
}

func (m *MockReportStore) Sessions(ctx context.Context, program string, limit int) ([]database.Session, error) {
	args := m.Called(ctx, program, limit)
	if err := args.Error(1); err != nil {
		return nil, fmt.Errorf("mock ReportStore sessions failed: %w", err)
	}
	if sessions, ok := args.Get(0).([]database.Session); ok {
		return sessions, nil
	}
	return nil, nil
}
