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

// Package daemon runs the polling loop that feeds process snapshots to the
// session tracker.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	"github.com/ZaparooProject/playtime-tracker/pkg/procscanner"
	"github.com/ZaparooProject/playtime-tracker/pkg/proctracker"
	"github.com/ZaparooProject/playtime-tracker/pkg/service/tracker"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// shutdownTimeout bounds the final close of open sessions.
	shutdownTimeout = 5 * time.Second

	// a failing source or store logs at most errLogBurst ticks per
	// errLogInterval
	errLogInterval = time.Minute
	errLogBurst    = 5
)

var (
	ErrNoStore  = errors.New("daemon requires a session store")
	ErrNoSource = errors.New("daemon requires a snapshot source")
)

// ExitNotifier wakes the loop early when a watched process exits.
type ExitNotifier interface {
	Track(pid int, callback proctracker.ExitCallback) error
	Untrack(pid int)
	Stop()
}

type Options struct {
	Store    database.SessionStore
	Source   procscanner.Source
	Clock    clockwork.Clock
	Notifier ExitNotifier
	// OnTick is called after every tick with its outcome.
	OnTick   func(res tracker.Result, err error)
	Interval time.Duration
}

type Daemon struct {
	store    database.SessionStore
	source   procscanner.Source
	clock    clockwork.Clock
	notifier ExitNotifier
	onTick   func(tracker.Result, error)
	tracker  *tracker.Tracker
	watched  map[int]struct{}
	wake     chan struct{}
	errLog   *rate.Limiter
	interval time.Duration
	// failing ticks not logged since the last logged one
	suppressed int
}

func New(opts Options) (*Daemon, error) {
	if opts.Store == nil {
		return nil, ErrNoStore
	}
	if opts.Source == nil {
		return nil, ErrNoSource
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Interval <= 0 {
		opts.Interval = config.DefaultPollInterval
	}

	return &Daemon{
		store:    opts.Store,
		source:   opts.Source,
		clock:    opts.Clock,
		notifier: opts.Notifier,
		onTick:   opts.OnTick,
		tracker:  tracker.New(opts.Store, opts.Clock),
		watched:  make(map[int]struct{}),
		wake:     make(chan struct{}, 1),
		errLog:   rate.NewLimiter(rate.Every(errLogInterval/errLogBurst), errLogBurst),
		interval: opts.Interval,
	}, nil
}

// Run resolves sessions left open by a previous run, then polls until ctx is
// cancelled. Per-tick errors are logged and never stop the loop. On exit the
// remaining open sessions are closed.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.reconcile(ctx); err != nil {
		return err
	}

	ticker := d.clock.NewTicker(d.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", d.interval).Msg("session tracking started")
	for {
		d.tick(ctx)

		select {
		case <-ctx.Done():
			d.shutdown(ctx)
			return nil
		case <-ticker.Chan():
		case <-d.wake:
			log.Debug().Msg("woken by process exit")
		}
	}
}

func (d *Daemon) reconcile(ctx context.Context) error {
	orphans, err := d.store.OpenSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to read open sessions: %w", err)
	}
	if len(orphans) == 0 {
		return nil
	}

	observations, err := d.source.Snapshot(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to take process snapshot, closing all orphaned sessions")
		observations = nil
	}

	res, err := d.tracker.Reconcile(context.WithoutCancel(ctx), orphans, observations, d.source.StartTime)
	if err != nil {
		log.Error().Err(err).Msg("failed to reconcile sessions from previous run")
	}
	log.Info().
		Int("orphans", len(orphans)).
		Int("adopted", len(res.Adopted)).
		Int("closed", len(res.Closed)).
		Msg("reconciled sessions from previous run")
	d.syncNotifier()
	return nil
}

func (d *Daemon) tick(ctx context.Context) {
	observations, err := d.source.Snapshot(ctx)
	if err != nil {
		if ctx.Err() == nil {
			d.tickError(zerolog.WarnLevel, err, 0, "failed to take process snapshot, skipping tick")
		}
		d.report(tracker.Result{}, err)
		return
	}

	// an in-flight write completes even if shutdown starts
	res, err := d.tracker.Tick(context.WithoutCancel(ctx), observations)
	if err != nil {
		d.tickError(zerolog.ErrorLevel, err, res.Failed, "tick finished with errors")
	}
	d.syncNotifier()
	d.report(res, err)
}

// tickError logs a failed tick unless too many have been logged recently.
func (d *Daemon) tickError(level zerolog.Level, err error, failed int, msg string) {
	if !d.errLog.Allow() {
		d.suppressed++
		return
	}

	ev := log.WithLevel(level).Err(err)
	if failed > 0 {
		ev = ev.Int("failed", failed)
	}
	if d.suppressed > 0 {
		ev = ev.Int("suppressed", d.suppressed)
		d.suppressed = 0
	}
	ev.Msg(msg)
}

func (d *Daemon) report(res tracker.Result, err error) {
	if d.onTick != nil {
		d.onTick(res, err)
	}
}

func (d *Daemon) shutdown(ctx context.Context) {
	log.Info().Msg("stopping session tracking")

	closeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if res, err := d.tracker.CloseAll(closeCtx); err != nil {
		log.Error().Err(err).Msg("failed to close open sessions on shutdown")
	} else if len(res.Closed) > 0 {
		log.Info().Int("closed", len(res.Closed)).Msg("closed open sessions on shutdown")
	}

	if d.notifier != nil {
		d.notifier.Stop()
	}
}

// syncNotifier matches the set of watched pids to the open session table.
func (d *Daemon) syncNotifier() {
	if d.notifier == nil {
		return
	}

	open := make(map[int]struct{})
	for _, pid := range d.tracker.PIDs() {
		open[pid] = struct{}{}
		if _, ok := d.watched[pid]; ok {
			continue
		}
		// a pid that is already gone is closed by the next regular tick
		err := d.notifier.Track(pid, d.onExit)
		switch {
		case errors.Is(err, proctracker.ErrProcessNotFound):
		case err != nil:
			log.Debug().Err(err).Int("pid", pid).Msg("failed to watch process exit")
		default:
			d.watched[pid] = struct{}{}
		}
	}

	for pid := range d.watched {
		if _, ok := open[pid]; !ok {
			d.notifier.Untrack(pid)
			delete(d.watched, pid)
		}
	}
}

func (d *Daemon) onExit(pid int) {
	log.Debug().Int("pid", pid).Msg("tracked process exited")
	d.wakeUp()
}

func (d *Daemon) wakeUp() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

// OpenSessions returns the sessions the daemon currently tracks. Only safe
// to call from OnTick or after Run returns.
func (d *Daemon) OpenSessions() []database.Session {
	return d.tracker.Open()
}
