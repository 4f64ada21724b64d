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

package procscanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// DefaultProcPath is where procfs is mounted.
const DefaultProcPath = "/proc"

// ProcFS reads process names from a procfs tree.
type ProcFS struct {
	fs       afero.Fs
	matcher  Matcher
	procPath string
}

var _ Source = (*ProcFS)(nil)

// ProcFSOption configures a ProcFS.
type ProcFSOption func(*ProcFS)

// WithFs reads procfs through fs (for testing).
func WithFs(fs afero.Fs) ProcFSOption {
	return func(p *ProcFS) {
		p.fs = fs
	}
}

// WithProcPath sets a custom /proc path (for testing).
func WithProcPath(path string) ProcFSOption {
	return func(p *ProcFS) {
		p.procPath = path
	}
}

// NewProcFS creates a procfs snapshot source.
func NewProcFS(m Matcher, opts ...ProcFSOption) *ProcFS {
	p := &ProcFS{
		fs:       afero.NewOsFs(),
		matcher:  m,
		procPath: DefaultProcPath,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Snapshot implements Source.
func (p *ProcFS) Snapshot(ctx context.Context) ([]Observation, error) {
	procs, err := p.readProcesses(ctx)
	if err != nil {
		return nil, err
	}
	return observe(procs, p.matcher), nil
}

// StartTime implements Source.
func (*ProcFS) StartTime(ctx context.Context, pid int) (time.Time, error) {
	return processStartTime(ctx, pid)
}

func (p *ProcFS) readProcesses(ctx context.Context) ([]ProcessInfo, error) {
	entries, err := afero.ReadDir(p.fs, p.procPath)
	if err != nil {
		return nil, fmt.Errorf("read proc directory: %w", err)
	}

	processes := make([]ProcessInfo, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("process scan cancelled: %w", err)
		}
		if !entry.IsDir() {
			continue
		}

		pid, err := strconv.Atoi(entry.Name())
		if err != nil || pid <= 0 {
			continue
		}

		proc, ok := p.readProcessInfo(pid)
		if !ok {
			continue
		}
		processes = append(processes, proc)
	}

	return processes, nil
}

// readProcessInfo reads comm and cmdline for a process. Processes that exit
// mid-read or are not ours to inspect are skipped.
func (p *ProcFS) readProcessInfo(pid int) (ProcessInfo, bool) {
	pidStr := strconv.Itoa(pid)

	commData, err := afero.ReadFile(p.fs, filepath.Join(p.procPath, pidStr, "comm"))
	if err != nil {
		if !isGoneOrDenied(err) {
			log.Debug().Err(err).Int("pid", pid).Msg("failed to read process comm")
		}
		return ProcessInfo{}, false
	}

	// kernel threads and zombies have an empty cmdline
	cmdlineData, _ := afero.ReadFile(p.fs, filepath.Join(p.procPath, pidStr, "cmdline"))

	return ProcessInfo{
		PID:     pid,
		Comm:    strings.TrimRight(string(commData), "\n"),
		Cmdline: string(cmdlineData),
	}, true
}

func isGoneOrDenied(err error) bool {
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.ESRCH)
}
