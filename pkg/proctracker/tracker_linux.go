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

//go:build linux

package proctracker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/helpers/syncutil"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// pidfd poll timeout, bounds how long Untrack and Stop wait on a watcher.
const pidfdPollTimeoutMs = 100

// Tracker watches processes and calls a callback once each exits.
type Tracker struct {
	ctx          context.Context
	tracked      map[int]*trackedProcess
	cancel       context.CancelFunc
	wg           sync.WaitGroup
	pollInterval time.Duration
	mu           syncutil.Mutex
	usePidfd     bool
}

type trackedProcess struct {
	callback ExitCallback
	cancel   context.CancelFunc
	pid      int
	pidfd    int
}

// New creates a tracker, detecting pidfd_open support once.
func New(opts ...Option) *Tracker {
	ctx, cancel := context.WithCancel(context.Background())
	t := &Tracker{
		ctx:          ctx,
		cancel:       cancel,
		tracked:      make(map[int]*trackedProcess),
		pollInterval: DefaultPollInterval,
		usePidfd:     checkPidfdSupport(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.usePidfd {
		log.Debug().Msg("proctracker: using pidfd_open for exit notifications")
	} else {
		log.Debug().Msg("proctracker: pidfd_open unavailable, using kill(0) probes")
	}
	return t
}

// Track starts watching pid. Tracking a pid twice is a no-op.
func (t *Tracker) Track(pid int, callback ExitCallback) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ctx.Err() != nil {
		return errors.New("tracker stopped")
	}
	if _, exists := t.tracked[pid]; exists {
		return nil
	}

	if err := unix.Kill(pid, 0); err != nil {
		if errors.Is(err, unix.ESRCH) {
			return ErrProcessNotFound
		}
		// EPERM still means the process exists
		if !errors.Is(err, unix.EPERM) {
			return fmt.Errorf("check process %d: %w", pid, err)
		}
	}

	tp := &trackedProcess{pid: pid, pidfd: -1, callback: callback}
	if t.usePidfd {
		fd, err := unix.PidfdOpen(pid, 0)
		switch {
		case errors.Is(err, unix.ESRCH):
			return ErrProcessNotFound
		case err != nil:
			log.Debug().Err(err).Int("pid", pid).Msg("pidfd_open failed, probing instead")
		default:
			tp.pidfd = fd
		}
	}

	var ctx context.Context
	ctx, tp.cancel = context.WithCancel(t.ctx)
	t.tracked[pid] = tp

	t.wg.Go(func() {
		if tp.pidfd >= 0 {
			t.waitPidfd(ctx, tp)
		} else {
			t.waitProbe(ctx, tp)
		}
	})

	return nil
}

// Untrack stops watching pid without calling its callback.
func (t *Tracker) Untrack(pid int) {
	t.mu.Lock()
	tp, exists := t.tracked[pid]
	if exists {
		delete(t.tracked, pid)
	}
	t.mu.Unlock()

	if exists {
		tp.cancel()
	}
}

// Stop cancels every watcher and waits for them to return.
func (t *Tracker) Stop() {
	t.mu.Lock()
	t.cancel()
	t.tracked = make(map[int]*trackedProcess)
	t.mu.Unlock()

	t.wg.Wait()
}

// The watcher goroutine owns the pidfd and closes it on return.
func (t *Tracker) waitPidfd(ctx context.Context, tp *trackedProcess) {
	defer func() { _ = unix.Close(tp.pidfd) }()

	fds := []unix.PollFd{
		{Fd: int32(tp.pidfd), Events: unix.POLLIN}, //nolint:gosec // pidfd is always small
	}
	for ctx.Err() == nil {
		n, err := unix.Poll(fds, pidfdPollTimeoutMs)
		if err != nil {
			if errors.Is(err, unix.EINTR) {
				continue
			}
			log.Warn().Err(err).Int("pid", tp.pid).Msg("poll error on pidfd")
			return
		}
		if n > 0 && fds[0].Revents&unix.POLLIN != 0 {
			t.exited(tp)
			return
		}
	}
}

func (t *Tracker) waitProbe(ctx context.Context, tp *trackedProcess) {
	ticker := time.NewTicker(t.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := unix.Kill(tp.pid, 0)
			if errors.Is(err, unix.ESRCH) {
				t.exited(tp)
				return
			}
			if err != nil && !errors.Is(err, unix.EPERM) {
				log.Warn().Err(err).Int("pid", tp.pid).Msg("kill(0) error")
			}
		}
	}
}

func (t *Tracker) exited(tp *trackedProcess) {
	t.mu.Lock()
	current, exists := t.tracked[tp.pid]
	if !exists || current != tp {
		t.mu.Unlock()
		return
	}
	delete(t.tracked, tp.pid)
	t.mu.Unlock()
	tp.cancel()

	log.Debug().Int("pid", tp.pid).Msg("tracked process exited")
	if tp.callback != nil {
		tp.callback(tp.pid)
	}
}

func checkPidfdSupport() bool {
	fd, err := unix.PidfdOpen(unix.Getpid(), 0)
	if err != nil {
		return false
	}
	_ = unix.Close(fd)
	return true
}
