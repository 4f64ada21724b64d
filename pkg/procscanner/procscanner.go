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

// Package procscanner takes snapshots of running processes and reports the
// ones whose names are in the tracked set.
package procscanner

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// ProcessInfo is what the scanner knows about a running process.
type ProcessInfo struct {
	Comm string
	// Cmdline is the raw argument vector, NUL separated.
	Cmdline string
	PID     int
}

// Observation is a running process that matched a tracked program. Name is
// the tracked name, not necessarily the raw process name.
type Observation struct {
	Name string
	PID  int
}

// Source produces snapshots of tracked processes.
type Source interface {
	// Snapshot returns one observation per matching live pid, in no
	// particular order. Processes that vanish while being read are skipped.
	Snapshot(ctx context.Context) ([]Observation, error)
	// StartTime returns when the OS started pid.
	StartTime(ctx context.Context, pid int) (time.Time, error)
}

// Matcher decides whether a process belongs to the tracked set.
type Matcher interface {
	// Match returns the tracked name the process matched.
	Match(proc ProcessInfo) (string, bool)
}

// MatcherFunc is a function adapter for Matcher.
type MatcherFunc func(proc ProcessInfo) (string, bool)

// Match implements Matcher.
func (f MatcherFunc) Match(proc ProcessInfo) (string, bool) {
	return f(proc)
}

func observe(procs []ProcessInfo, m Matcher) []Observation {
	obs := make([]Observation, 0)
	seen := make(map[int]struct{}, len(procs))
	for _, proc := range procs {
		if _, ok := seen[proc.PID]; ok {
			continue
		}
		name, ok := m.Match(proc)
		if !ok {
			continue
		}
		seen[proc.PID] = struct{}{}
		obs = append(obs, Observation{PID: proc.PID, Name: name})
	}
	return obs
}

// processStartTime asks the OS for the creation time of pid.
func processStartTime(ctx context.Context, pid int) (time.Time, error) {
	p, err := process.NewProcessWithContext(ctx, int32(pid)) //nolint:gosec // pids fit in int32
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	ms, err := p.CreateTimeWithContext(ctx)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get start time of process %d: %w", pid, err)
	}
	return time.UnixMilli(ms).UTC(), nil
}
