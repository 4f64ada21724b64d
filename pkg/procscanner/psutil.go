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
	"fmt"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// PsUtil takes snapshots through gopsutil. It works on every OS gopsutil
// supports and is the default outside Linux.
type PsUtil struct {
	matcher Matcher
}

var _ Source = (*PsUtil)(nil)

// NewPsUtil creates a gopsutil snapshot source.
func NewPsUtil(m Matcher) *PsUtil {
	return &PsUtil{matcher: m}
}

// Snapshot implements Source.
func (s *PsUtil) Snapshot(ctx context.Context) ([]Observation, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list processes: %w", err)
	}

	infos := make([]ProcessInfo, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || name == "" {
			continue
		}
		info := ProcessInfo{PID: int(p.Pid), Comm: name}
		if args, err := p.CmdlineSliceWithContext(ctx); err == nil {
			info.Cmdline = strings.Join(args, "\x00")
		}
		infos = append(infos, info)
	}

	return observe(infos, s.matcher), nil
}

// StartTime implements Source.
func (*PsUtil) StartTime(ctx context.Context, pid int) (time.Time, error) {
	return processStartTime(ctx, pid)
}
