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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameMatcher_Match(t *testing.T) {
	t.Parallel()

	m := NewNameMatcher([]string{"game", "averylongprogramname", "Editor"})

	tests := []struct {
		name     string
		proc     ProcessInfo
		want     string
		wantBool bool
	}{
		{
			name:     "exact comm",
			proc:     ProcessInfo{Comm: "game"},
			want:     "game",
			wantBool: true,
		},
		{
			name: "case sensitive",
			proc: ProcessInfo{Comm: "GAME"},
		},
		{
			name: "prefix is not a match",
			proc: ProcessInfo{Comm: "gam"},
		},
		{
			name:     "truncated comm resolved from argv0",
			proc:     ProcessInfo{Comm: "averylongprogra", Cmdline: "/usr/bin/averylongprogramname\x00"},
			want:     "averylongprogramname",
			wantBool: true,
		},
		{
			name: "truncated comm with different argv0",
			proc: ProcessInfo{Comm: "averylongprogra", Cmdline: "/usr/bin/averylongprogramother\x00"},
		},
		{
			name: "argv0 ignored when comm not truncated",
			proc: ProcessInfo{Comm: "sh", Cmdline: "/usr/bin/game\x00"},
		},
		{
			name: "truncated comm without cmdline",
			proc: ProcessInfo{Comm: "averylongprogra"},
		},
		{
			name: "empty comm",
			proc: ProcessInfo{Comm: ""},
		},
		{
			name:     "tracked name keeps its case",
			proc:     ProcessInfo{Comm: "Editor"},
			want:     "Editor",
			wantBool: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := m.Match(tt.proc)
			assert.Equal(t, tt.wantBool, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFoldNameMatcher_Match(t *testing.T) {
	t.Parallel()

	m := NewFoldNameMatcher([]string{"Game"})

	got, ok := m.Match(ProcessInfo{Comm: "GAME.EXE"})
	assert.True(t, ok)
	assert.Equal(t, "Game", got)

	got, ok = m.Match(ProcessInfo{Comm: "game"})
	assert.True(t, ok)
	assert.Equal(t, "Game", got)

	_, ok = m.Match(ProcessInfo{Comm: "game.com"})
	assert.False(t, ok)
}

func TestFoldNameMatcher_WindowsArgv0(t *testing.T) {
	t.Parallel()

	m := NewFoldNameMatcher([]string{"averylongprogramname.exe"})
	got, ok := m.Match(ProcessInfo{
		Comm:    "averylongprogra",
		Cmdline: `C:\Games\AVeryLongProgramName.exe` + "\x00",
	})
	assert.True(t, ok)
	assert.Equal(t, "averylongprogramname.exe", got)
}

func TestNameMatcher_IgnoresBlankNames(t *testing.T) {
	t.Parallel()

	m := NewNameMatcher([]string{"", "game"})
	_, ok := m.Match(ProcessInfo{Comm: ""})
	assert.False(t, ok)
	assert.Len(t, m.names, 1)
}

func TestMatcherFunc(t *testing.T) {
	t.Parallel()

	var m Matcher = MatcherFunc(func(proc ProcessInfo) (string, bool) {
		return "x", proc.PID == 7
	})
	_, ok := m.Match(ProcessInfo{PID: 7})
	assert.True(t, ok)
	_, ok = m.Match(ProcessInfo{PID: 8})
	assert.False(t, ok)
}

func TestArgv0Base(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "game", argv0Base("/usr/bin/game\x00-x\x00"))
	assert.Equal(t, "game.exe", argv0Base(`C:\bin\game.exe`))
	assert.Equal(t, "game", argv0Base("game"))
	assert.Empty(t, argv0Base(""))
	assert.Empty(t, argv0Base("\x00arg"))
}
