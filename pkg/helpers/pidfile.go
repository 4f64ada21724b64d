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
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

// ErrAlreadyRunning is returned by AcquirePidFile when the pid file names
// a live process other than this one.
var ErrAlreadyRunning = errors.New("daemon already running")

// PidFile marks a running daemon so a second one doesn't write the same
// session store.
type PidFile struct {
	path string
}

// PidFilePath returns the pid file location inside dir.
func PidFilePath(dir string) string {
	return filepath.Join(dir, config.PidFile)
}

// ReadPid returns the pid stored in the file at path. A missing file
// returns 0 and no error.
func ReadPid(path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is built from the log dir
	if os.IsNotExist(err) {
		return 0, nil
	} else if err != nil {
		return 0, fmt.Errorf("error reading pid file: %w", err)
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("error parsing pid: %w", err)
	}
	return pid, nil
}

// AcquirePidFile writes the current pid into dir. A stale file left by a
// daemon that didn't exit cleanly is replaced.
func AcquirePidFile(ctx context.Context, dir string) (*PidFile, error) {
	path := PidFilePath(dir)

	pid, err := ReadPid(path)
	if err != nil {
		log.Warn().Err(err).Msg("ignoring unreadable pid file")
		pid = 0
	}

	if pid > 0 && pid != os.Getpid() {
		exists, err := process.PidExistsWithContext(ctx, int32(pid)) //nolint:gosec // G115: pids fit in int32
		if err != nil {
			log.Warn().Err(err).Int("pid", pid).Msg("failed to check pid file owner")
		} else if exists {
			return nil, fmt.Errorf("%w: pid %d", ErrAlreadyRunning, pid)
		}
		log.Info().Int("pid", pid).Msg("replacing stale pid file")
	}

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create pid file directory: %w", err)
	}
	err = os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o600)
	if err != nil {
		return nil, fmt.Errorf("error writing pid file: %w", err)
	}

	return &PidFile{path: path}, nil
}

// Release removes the pid file if it still belongs to this process.
func (p *PidFile) Release() error {
	pid, err := ReadPid(p.path)
	if err != nil {
		return err
	}
	if pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("error removing pid file: %w", err)
	}
	return nil
}

func (p *PidFile) Path() string {
	return p.path
}
