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
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeProc(t *testing.T, fs afero.Fs, pid int, comm, cmdline string) {
	t.Helper()
	dir := filepath.Join(DefaultProcPath, strconv.Itoa(pid))
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "comm"), []byte(comm+"\n"), 0o644))
	if cmdline != "" {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "cmdline"), []byte(cmdline), 0o644))
	}
}

func sortObs(obs []Observation) []Observation {
	sort.Slice(obs, func(i, j int) bool { return obs[i].PID < obs[j].PID })
	return obs
}

func TestProcFS_Snapshot(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeProc(t, fs, 100, "game", "/usr/bin/game\x00--fullscreen\x00")
	writeProc(t, fs, 101, "bash", "/bin/bash\x00")
	writeProc(t, fs, 102, "editor", "editor\x00")
	writeProc(t, fs, 103, "game", "")

	src := NewProcFS(NewNameMatcher([]string{"game", "editor"}), WithFs(fs))
	obs, err := src.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Observation{
		{PID: 100, Name: "game"},
		{PID: 102, Name: "editor"},
		{PID: 103, Name: "game"},
	}, sortObs(obs))
}

func TestProcFS_Snapshot_SkipsNonProcessEntries(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeProc(t, fs, 100, "game", "")
	require.NoError(t, fs.MkdirAll(filepath.Join(DefaultProcPath, "self"), 0o755))
	require.NoError(t, fs.MkdirAll(filepath.Join(DefaultProcPath, "sys"), 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(DefaultProcPath, "uptime"), []byte("1 2"), 0o644))

	src := NewProcFS(NewNameMatcher([]string{"game"}), WithFs(fs))
	obs, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Observation{{PID: 100, Name: "game"}}, obs)
}

func TestProcFS_Snapshot_VanishedProcess(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeProc(t, fs, 100, "game", "")
	// directory listed but comm already gone
	require.NoError(t, fs.MkdirAll(filepath.Join(DefaultProcPath, "200"), 0o755))

	src := NewProcFS(NewNameMatcher([]string{"game"}), WithFs(fs))
	obs, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Observation{{PID: 100, Name: "game"}}, obs)
}

// failingOpenFs fails Open for chosen paths with a fixed error.
type failingOpenFs struct {
	afero.Fs
	errs map[string]error
}

func (f failingOpenFs) Open(name string) (afero.File, error) {
	if err, ok := f.errs[name]; ok {
		return nil, &fs.PathError{Op: "open", Path: name, Err: err}
	}
	return f.Fs.Open(name) //nolint:wrapcheck // passthrough
}

func TestProcFS_Snapshot_SkipsDeniedAndExited(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err  error
		name string
	}{
		{name: "permission denied", err: fs.ErrPermission},
		{name: "EACCES", err: syscall.EACCES},
		{name: "no such process", err: syscall.ESRCH},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mem := afero.NewMemMapFs()
			writeProc(t, mem, 100, "game", "")
			writeProc(t, mem, 200, "game", "")
			procFs := failingOpenFs{
				Fs: mem,
				errs: map[string]error{
					filepath.Join(DefaultProcPath, "200", "comm"): tt.err,
				},
			}

			src := NewProcFS(NewNameMatcher([]string{"game"}), WithFs(procFs))
			obs, err := src.Snapshot(context.Background())
			require.NoError(t, err)
			assert.Equal(t, []Observation{{PID: 100, Name: "game"}}, obs)
		})
	}
}

func TestProcFS_Snapshot_MissingProcDir(t *testing.T) {
	t.Parallel()

	src := NewProcFS(NewNameMatcher([]string{"game"}), WithFs(afero.NewMemMapFs()))
	_, err := src.Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read proc directory")
}

func TestProcFS_Snapshot_CustomProcPath(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	dir := filepath.Join("/host/proc", "55")
	require.NoError(t, fs.MkdirAll(dir, 0o755))
	require.NoError(t, afero.WriteFile(fs, filepath.Join(dir, "comm"), []byte("game\n"), 0o644))

	src := NewProcFS(NewNameMatcher([]string{"game"}), WithFs(fs), WithProcPath("/host/proc"))
	obs, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Observation{{PID: 55, Name: "game"}}, obs)
}

func TestProcFS_Snapshot_Cancelled(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	writeProc(t, fs, 100, "game", "")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewProcFS(NewNameMatcher([]string{"game"}), WithFs(fs))
	_, err := src.Snapshot(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcFS_Snapshot_TruncatedComm(t *testing.T) {
	t.Parallel()

	long := "averylongprogramname"
	fs := afero.NewMemMapFs()
	writeProc(t, fs, 100, long[:CommMaxLen], "/opt/games/"+long+"\x00-v\x00")

	src := NewProcFS(NewNameMatcher([]string{long}), WithFs(fs))
	obs, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Observation{{PID: 100, Name: long}}, obs)
}

func TestProcFS_StartTime_Self(t *testing.T) {
	t.Parallel()

	src := NewProcFS(NewNameMatcher(nil))
	started, err := src.StartTime(context.Background(), os.Getpid())
	require.NoError(t, err)
	assert.False(t, started.After(time.Now().Add(time.Second)))
	assert.Equal(t, time.UTC, started.Location())
}

func TestPsUtil_Snapshot_FindsSelf(t *testing.T) {
	t.Parallel()

	exe, err := os.Executable()
	require.NoError(t, err)

	self := os.Getpid()
	src := NewPsUtil(MatcherFunc(func(proc ProcessInfo) (string, bool) {
		return filepath.Base(exe), proc.PID == self
	}))

	obs, err := src.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Contains(t, obs, Observation{PID: self, Name: filepath.Base(exe)})
}

func TestPsUtil_StartTime_Missing(t *testing.T) {
	t.Parallel()

	src := NewPsUtil(NewNameMatcher(nil))
	_, err := src.StartTime(context.Background(), 999999999)
	require.Error(t, err)
}

func TestObserve_DeduplicatesPids(t *testing.T) {
	t.Parallel()

	m := NewNameMatcher([]string{"game"})
	obs := observe([]ProcessInfo{
		{PID: 1, Comm: "game"},
		{PID: 1, Comm: "game"},
		{PID: 2, Comm: "other"},
	}, m)
	assert.Equal(t, []Observation{{PID: 1, Name: "game"}}, obs)
}

func TestNewDefault(t *testing.T) {
	t.Parallel()
	assert.NotNil(t, NewDefault([]string{"game"}))
}
