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
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	"github.com/ZaparooProject/playtime-tracker/pkg/helpers/syncutil"
)

// StoreOp names a MemoryStore write for fault injection.
type StoreOp string

const (
	OpOpen      StoreOp = "open"
	OpClose     StoreOp = "close"
	OpCloseByID StoreOp = "close_by_id"
)

// FaultFunc returns a non-nil error to make a write fail. key is the pid for
// OpOpen and OpClose, and the session id for OpCloseByID.
type FaultFunc func(op StoreOp, key int64) error

// MemoryStore is an in-memory session store with the same row semantics as
// sessiondb, timestamps truncated to whole seconds.
type MemoryStore struct {
	fault    FaultFunc
	sessions []database.Session
	nextID   int64
	mu       syncutil.Mutex
}

var (
	_ database.SessionStore = (*MemoryStore)(nil)
	_ database.ReportStore  = (*MemoryStore)(nil)
)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{nextID: 1}
}

// SetFault installs f, or removes fault injection when f is nil.
func (s *MemoryStore) SetFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

func (s *MemoryStore) injected(op StoreOp, key int64) error {
	if s.fault == nil {
		return nil
	}
	return s.fault(op, key)
}

// Seed inserts rows as they are, assigning ids when missing.
func (s *MemoryStore) Seed(sessions ...database.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range sessions {
		if sess.ID == 0 {
			sess.ID = s.nextID
		}
		if sess.ID >= s.nextID {
			s.nextID = sess.ID + 1
		}
		s.sessions = append(s.sessions, sess)
	}
}

// All returns every row ordered by id.
func (s *MemoryStore) All() []database.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, copySession(sess))
	}
	slices.SortFunc(out, func(a, b database.Session) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

func (s *MemoryStore) OpenSession(
	_ context.Context,
	program string,
	pid int,
	startedAt time.Time,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpOpen, int64(pid)); err != nil {
		return 0, err
	}
	id := s.nextID
	s.nextID++
	s.sessions = append(s.sessions, database.Session{
		ID:        id,
		Program:   program,
		PID:       pid,
		StartedAt: startedAt.UTC().Truncate(time.Second),
	})
	return id, nil
}

func (s *MemoryStore) CloseSession(_ context.Context, pid int, endedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpClose, int64(pid)); err != nil {
		return false, err
	}

	idx := -1
	for i, sess := range s.sessions {
		if sess.PID != pid || sess.EndedAt != nil {
			continue
		}
		if idx < 0 || newer(sess, s.sessions[idx]) {
			idx = i
		}
	}
	if idx < 0 {
		return false, nil
	}
	end := endedAt.UTC().Truncate(time.Second)
	s.sessions[idx].EndedAt = &end
	return true, nil
}

func (s *MemoryStore) CloseSessionByID(_ context.Context, id int64, endedAt time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.injected(OpCloseByID, id); err != nil {
		return false, err
	}
	for i, sess := range s.sessions {
		if sess.ID == id && sess.EndedAt == nil {
			end := endedAt.UTC().Truncate(time.Second)
			s.sessions[i].EndedAt = &end
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) OpenSessions(_ context.Context) ([]database.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Session, 0)
	for _, sess := range s.sessions {
		if sess.EndedAt == nil {
			out = append(out, copySession(sess))
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) AggregateTotals(_ context.Context) ([]database.ProgramTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	totals := make(map[string]int64)
	for _, sess := range s.sessions {
		if sess.EndedAt == nil {
			continue
		}
		totals[sess.Program] += sess.EndedAt.Unix() - sess.StartedAt.Unix()
	}
	out := make([]database.ProgramTotal, 0, len(totals))
	for program, secs := range totals {
		out = append(out, database.ProgramTotal{Program: program, TotalSeconds: secs})
	}
	slices.SortFunc(out, func(a, b database.ProgramTotal) int { return cmp.Compare(a.Program, b.Program) })
	return out, nil
}

func (s *MemoryStore) Sessions(_ context.Context, program string, limit int) ([]database.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]database.Session, 0)
	for _, sess := range s.sessions {
		if program == "" || sess.Program == program {
			out = append(out, copySession(sess))
		}
	}
	sortNewestFirst(out)
	if limit < len(out) {
		out = out[:max(limit, 0)]
	}
	return out, nil
}

func newer(a, b database.Session) bool {
	if !a.StartedAt.Equal(b.StartedAt) {
		return a.StartedAt.After(b.StartedAt)
	}
	return a.ID > b.ID
}

func sortNewestFirst(sessions []database.Session) {
	slices.SortFunc(sessions, func(a, b database.Session) int {
		switch {
		case newer(a, b):
			return -1
		case newer(b, a):
			return 1
		default:
			return 0
		}
	})
}

func copySession(s database.Session) database.Session {
	if s.EndedAt != nil {
		end := *s.EndedAt
		s.EndedAt = &end
	}
	return s
}
