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

// Package tracker turns process snapshots into persisted sessions. It owns
// the table of open sessions and is driven by one goroutine, one tick at a
// time.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	"github.com/ZaparooProject/playtime-tracker/pkg/procscanner"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// StartTimeFunc reports when the OS started a process.
type StartTimeFunc func(ctx context.Context, pid int) (time.Time, error)

// startTimeSlack absorbs second precision in stored start times.
const startTimeSlack = time.Second

type openSession struct {
	startedAt time.Time
	// pendingEnd is set once a close has been attempted and failed, so the
	// retry keeps the original end time.
	pendingEnd *time.Time
	program    string
	id         int64
}

// Result summarises the store writes made by one call.
type Result struct {
	Opened  []int
	Closed  []int
	Adopted []int
	Failed  int
}

// Changed reports whether any session was opened, closed or adopted.
func (r Result) Changed() bool {
	return len(r.Opened) > 0 || len(r.Closed) > 0 || len(r.Adopted) > 0
}

// Tracker is the session state machine. It is not safe for concurrent use.
type Tracker struct {
	store database.SessionStore
	clock clockwork.Clock
	open  map[int]*openSession
	// orphans holds sessions Reconcile failed to close. Their pids get no
	// new session until the close goes through.
	orphans []database.Session
}

// New creates a tracker writing to store. A nil clock uses the real clock.
func New(store database.SessionStore, clock clockwork.Clock) *Tracker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Tracker{
		store: store,
		clock: clock,
		open:  make(map[int]*openSession),
	}
}

// Tick reconciles one snapshot against the open session table. Every write
// in a tick uses the same timestamp. Opens are written before closes. A
// failed write is retried on the next tick; the returned error joins every
// failure of this tick.
func (t *Tracker) Tick(ctx context.Context, observations []procscanner.Observation) (Result, error) {
	now := t.clock.Now()
	var res Result
	var errs []error

	t.retryOrphans(ctx, &res, &errs)
	blocked := make(map[int]struct{}, len(t.orphans))
	for _, o := range t.orphans {
		blocked[o.PID] = struct{}{}
	}

	observed := make(map[int]struct{}, len(observations))
	for _, obs := range observations {
		if _, dup := observed[obs.PID]; dup {
			continue
		}
		observed[obs.PID] = struct{}{}

		if s, ok := t.open[obs.PID]; ok {
			if s.pendingEnd != nil {
				log.Debug().Int("pid", obs.PID).Str("program", s.program).
					Msg("process seen again, dropping pending close")
				s.pendingEnd = nil
			}
			continue
		}
		if _, ok := blocked[obs.PID]; ok {
			log.Debug().Int("pid", obs.PID).Str("program", obs.Name).
				Msg("orphaned session for pid still open, not starting a new one")
			continue
		}

		id, err := t.store.OpenSession(ctx, obs.Name, obs.PID, now)
		if err != nil {
			res.Failed++
			errs = append(errs, fmt.Errorf("open session for pid %d: %w", obs.PID, err))
			log.Warn().Err(err).Int("pid", obs.PID).Str("program", obs.Name).
				Msg("failed to open session, will retry")
			continue
		}

		t.open[obs.PID] = &openSession{id: id, program: obs.Name, startedAt: now}
		res.Opened = append(res.Opened, obs.PID)
		log.Info().Int("pid", obs.PID).Str("program", obs.Name).Msg("session started")
	}

	for _, pid := range t.sortedPids() {
		if _, ok := observed[pid]; ok {
			continue
		}
		if t.closeSession(ctx, pid, now, &res, &errs) {
			res.Closed = append(res.Closed, pid)
		}
	}

	return res, errors.Join(errs...)
}

// closeSession writes the end of pid's session. On failure the session stays
// in the table with its end time pinned.
func (t *Tracker) closeSession(
	ctx context.Context,
	pid int,
	now time.Time,
	res *Result,
	errs *[]error,
) bool {
	s := t.open[pid]
	end := now
	if s.pendingEnd != nil {
		end = *s.pendingEnd
	}

	closed, err := t.store.CloseSession(ctx, pid, end)
	if err != nil {
		s.pendingEnd = &end
		res.Failed++
		*errs = append(*errs, fmt.Errorf("close session for pid %d: %w", pid, err))
		log.Warn().Err(err).Int("pid", pid).Str("program", s.program).
			Msg("failed to close session, will retry")
		return false
	}

	delete(t.open, pid)
	if !closed {
		log.Warn().Int("pid", pid).Str("program", s.program).
			Msg("no open session in store for exited process")
	}
	log.Info().Int("pid", pid).Str("program", s.program).
		Dur("duration", end.Sub(s.startedAt)).Msg("session ended")
	return true
}

// CloseAll ends every session in the table at the current time. Used on
// shutdown so time played up to now is recorded. Orphans still waiting for
// their close are retried too. Sessions that fail to close stay open in the
// store and are handled by Reconcile on next start.
func (t *Tracker) CloseAll(ctx context.Context) (Result, error) {
	now := t.clock.Now()
	var res Result
	var errs []error
	t.retryOrphans(ctx, &res, &errs)
	for _, pid := range t.sortedPids() {
		if t.closeSession(ctx, pid, now, &res, &errs) {
			res.Closed = append(res.Closed, pid)
		}
	}
	return res, errors.Join(errs...)
}

// Reconcile resolves sessions left open by an earlier run. It must be called
// before the first Tick. An orphan is adopted, keeping its start time, when
// its pid is running the same program and the process is not younger than
// the session. Only the newest orphan of a pid can be adopted. Every other
// orphan is closed with a zero duration.
func (t *Tracker) Reconcile(
	ctx context.Context,
	orphans []database.Session,
	observations []procscanner.Observation,
	startTime StartTimeFunc,
) (Result, error) {
	var res Result
	var errs []error

	observed := make(map[int]string, len(observations))
	for _, obs := range observations {
		if _, dup := observed[obs.PID]; !dup {
			observed[obs.PID] = obs.Name
		}
	}

	sorted := slices.Clone(orphans)
	slices.SortStableFunc(sorted, func(a, b database.Session) int {
		if c := b.StartedAt.Compare(a.StartedAt); c != 0 {
			return c
		}
		switch {
		case a.ID > b.ID:
			return -1
		case a.ID < b.ID:
			return 1
		default:
			return 0
		}
	})

	for _, orphan := range sorted {
		if t.adoptable(ctx, orphan, observed, startTime) {
			t.open[orphan.PID] = &openSession{
				id:        orphan.ID,
				program:   orphan.Program,
				startedAt: orphan.StartedAt,
			}
			res.Adopted = append(res.Adopted, orphan.PID)
			log.Info().Int("pid", orphan.PID).Str("program", orphan.Program).
				Time("started", orphan.StartedAt).Msg("resumed session from previous run")
			continue
		}

		if !t.closeOrphan(ctx, orphan, &res, &errs) {
			t.orphans = append(t.orphans, orphan)
		}
	}

	return res, errors.Join(errs...)
}

// closeOrphan ends orphan with a zero duration. It returns false when the
// write failed.
func (t *Tracker) closeOrphan(
	ctx context.Context,
	orphan database.Session,
	res *Result,
	errs *[]error,
) bool {
	closed, err := t.store.CloseSessionByID(ctx, orphan.ID, orphan.StartedAt)
	if err != nil {
		res.Failed++
		*errs = append(*errs, fmt.Errorf("close orphaned session %d: %w", orphan.ID, err))
		log.Warn().Err(err).Int64("id", orphan.ID).Int("pid", orphan.PID).
			Msg("failed to close orphaned session, will retry")
		return false
	}
	if closed {
		res.Closed = append(res.Closed, orphan.PID)
		log.Info().Int64("id", orphan.ID).Int("pid", orphan.PID).Str("program", orphan.Program).
			Msg("closed orphaned session from previous run")
	}
	return true
}

func (t *Tracker) retryOrphans(ctx context.Context, res *Result, errs *[]error) {
	if len(t.orphans) == 0 {
		return
	}
	remaining := t.orphans[:0]
	for _, orphan := range t.orphans {
		if !t.closeOrphan(ctx, orphan, res, errs) {
			remaining = append(remaining, orphan)
		}
	}
	t.orphans = remaining
}

func (t *Tracker) adoptable(
	ctx context.Context,
	orphan database.Session,
	observed map[int]string,
	startTime StartTimeFunc,
) bool {
	name, ok := observed[orphan.PID]
	if !ok || name != orphan.Program {
		return false
	}
	if _, taken := t.open[orphan.PID]; taken {
		return false
	}
	if startTime == nil {
		return true
	}

	started, err := startTime(ctx, orphan.PID)
	if err != nil {
		log.Debug().Err(err).Int("pid", orphan.PID).
			Msg("unknown process start time, assuming same process")
		return true
	}
	return !started.After(orphan.StartedAt.Add(startTimeSlack))
}

// Open returns a copy of the open session table ordered by pid.
func (t *Tracker) Open() []database.Session {
	sessions := make([]database.Session, 0, len(t.open))
	for _, pid := range t.sortedPids() {
		s := t.open[pid]
		sessions = append(sessions, database.Session{
			ID:        s.id,
			Program:   s.program,
			PID:       pid,
			StartedAt: s.startedAt,
		})
	}
	return sessions
}

// PIDs returns the pids with open sessions, ascending.
func (t *Tracker) PIDs() []int {
	return t.sortedPids()
}

func (t *Tracker) sortedPids() []int {
	pids := make([]int, 0, len(t.open))
	for pid := range t.open {
		pids = append(pids, pid)
	}
	slices.Sort(pids)
	return pids
}
