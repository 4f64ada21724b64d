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
	"path/filepath"
	"runtime"
	"strings"
)

// CommMaxLen is the longest comm the Linux kernel keeps (TASK_COMM_LEN - 1).
// Longer names are truncated to this length.
const CommMaxLen = 15

// NameMatcher matches processes against a list of program names.
type NameMatcher struct {
	names map[string]string
	fold  bool
}

// NewNameMatcher creates a case-sensitive matcher. A process matches when
// its comm equals a name, or when comm was truncated by the kernel and the
// base name of argv[0] equals the name.
func NewNameMatcher(names []string) *NameMatcher {
	return newNameMatcher(names, false)
}

// NewFoldNameMatcher creates a matcher for Windows style names: comparison
// ignores case and a trailing ".exe".
func NewFoldNameMatcher(names []string) *NameMatcher {
	return newNameMatcher(names, true)
}

// NewPlatformMatcher picks the matcher that fits the running OS.
func NewPlatformMatcher(names []string) *NameMatcher {
	return newNameMatcher(names, runtime.GOOS == "windows")
}

func newNameMatcher(names []string, fold bool) *NameMatcher {
	m := &NameMatcher{
		names: make(map[string]string, len(names)),
		fold:  fold,
	}
	for _, name := range names {
		key := m.normalize(name)
		if key == "" {
			continue
		}
		if _, ok := m.names[key]; !ok {
			m.names[key] = name
		}
	}
	return m
}

func (m *NameMatcher) normalize(s string) string {
	if !m.fold {
		return s
	}
	s = strings.ToLower(s)
	return strings.TrimSuffix(s, ".exe")
}

// Match implements Matcher.
func (m *NameMatcher) Match(proc ProcessInfo) (string, bool) {
	comm := m.normalize(proc.Comm)
	if comm == "" {
		return "", false
	}
	if name, ok := m.names[comm]; ok {
		return name, true
	}
	if len(proc.Comm) < CommMaxLen {
		return "", false
	}

	arg0 := m.normalize(argv0Base(proc.Cmdline))
	if !strings.HasPrefix(arg0, comm) {
		return "", false
	}
	name, ok := m.names[arg0]
	return name, ok
}

func argv0Base(cmdline string) string {
	arg0, _, _ := strings.Cut(cmdline, "\x00")
	if arg0 == "" {
		return ""
	}
	// argv[0] may use either separator regardless of host OS
	if i := strings.LastIndexAny(arg0, `/\`); i >= 0 {
		return arg0[i+1:]
	}
	return filepath.Base(arg0)
}
