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

package database

import (
	"context"
	"fmt"
	"time"
)

// TimeLayout is how session timestamps are stored. Values are always UTC so
// lexical order matches chronological order.
const TimeLayout = "2006-01-02T15:04:05Z"

// SessionStore is the persistence boundary used by the session tracker.
// Implementations must make each call a single atomic row operation.
type SessionStore interface {
	OpenSession(ctx context.Context, program string, pid int, startedAt time.Time) (int64, error)
	// CloseSession ends the most recent open session for pid. It reports
	// false, and no error, when there was nothing to close.
	CloseSession(ctx context.Context, pid int, endedAt time.Time) (bool, error)
	CloseSessionByID(ctx context.Context, id int64, endedAt time.Time) (bool, error)
	OpenSessions(ctx context.Context) ([]Session, error)
}

// ReportStore is the read side used by the report command.
type ReportStore interface {
	AggregateTotals(ctx context.Context) ([]ProgramTotal, error)
	Sessions(ctx context.Context, program string, limit int) ([]Session, error)
}

/*
 * Structs for SQL records
 */

// Session is one contiguous run of a tracked program. EndedAt is nil while
// the session is open.
type Session struct {
	StartedAt time.Time  `json:"startedAt"`
	EndedAt   *time.Time `json:"endedAt,omitempty"`
	Program   string     `json:"program"`
	ID        int64      `json:"id"`
	PID       int        `json:"pid"`
}

// Open reports whether the session has no end time yet.
func (s *Session) Open() bool {
	return s.EndedAt == nil
}

// Duration is the closed session length, or zero while open.
func (s *Session) Duration() time.Duration {
	if s.EndedAt == nil {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}

// ProgramTotal is the summed closed-session time of one program.
type ProgramTotal struct {
	Program      string `json:"program"`
	TotalSeconds int64  `json:"totalSeconds"`
}

// FormatTime converts t to the stored representation, truncated to whole
// seconds.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime reads a stored timestamp. RFC 3339 values with other offsets,
// as written by earlier releases, are accepted too.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
