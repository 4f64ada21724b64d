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

package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/ZaparooProject/playtime-tracker/pkg/database/sessiondb"
	"github.com/ZaparooProject/playtime-tracker/pkg/helpers"
	"github.com/ZaparooProject/playtime-tracker/pkg/procscanner"
	"github.com/ZaparooProject/playtime-tracker/pkg/service/tracker"
	testhelpers "github.com/ZaparooProject/playtime-tracker/pkg/testing/helpers"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2026, 2, 1, 20, 0, 0, 0, time.UTC)

// syncBuffer is written by the daemon's log output from several goroutines.
type syncBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p) //nolint:wrapcheck // bytes.Buffer never fails
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type testEnv struct {
	env    Env
	stdout *syncBuffer
	stderr *syncBuffer
	proc   *testhelpers.FSHelper
	clock  *clockwork.FakeClock
}

// newTestEnv points every directory at a temp dir. Tests using it can't
// run in parallel since logging and the config env override are global.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	t.Setenv(config.CfgEnv, "")

	root := t.TempDir()
	te := &testEnv{
		stdout: &syncBuffer{},
		stderr: &syncBuffer{},
		proc:   testhelpers.NewMemoryFS(),
		clock:  clockwork.NewFakeClockAt(t0),
	}
	te.env = Env{
		Stdout: te.stdout,
		Stderr: te.stderr,
		Clock:  te.clock,
		NewSource: func(names []string) procscanner.Source {
			return te.proc.ProcSource(names)
		},
		ConfigDir:    filepath.Join(root, "config"),
		DataDir:      filepath.Join(root, "data"),
		LogDir:       filepath.Join(root, "log"),
		LegacyDBPath: filepath.Join(root, "legacy", "playtime-tracker.sqlite"),
	}
	return te
}

func (te *testEnv) run(args ...string) int {
	return Execute(context.Background(), te.env, args)
}

func (te *testEnv) writeConfig(t *testing.T, tracked ...string) {
	t.Helper()
	vals := config.BaseDefaults
	vals.Tracked = tracked
	require.NoError(t, config.WriteValues(config.ResolvePath(te.env.ConfigDir), vals))
}

func seedClosedSession(t *testing.T, path, program string, pid int, dur time.Duration) {
	t.Helper()
	ctx := context.Background()
	db, err := sessiondb.OpenSessionDB(ctx, path)
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	_, err = db.OpenSession(ctx, program, pid, t0)
	require.NoError(t, err)
	closed, err := db.CloseSession(ctx, pid, t0.Add(dur))
	require.NoError(t, err)
	require.True(t, closed)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitOK, ExitCode(errFirstRun))
	assert.Equal(t, ExitStorageError, ExitCode(exitError(ExitStorageError, assert.AnError)))
	assert.Equal(t, ExitConfigError, ExitCode(assert.AnError))

	err := exitError(ExitReportError, assert.AnError)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, assert.AnError.Error(), err.Error())
	assert.Equal(t, "exit status 0", errFirstRun.Error())
}

func TestExecute_FirstRunCreatesConfig(t *testing.T) {
	te := newTestEnv(t)

	code := te.run()

	assert.Equal(t, ExitOK, code)
	path := config.ResolvePath(te.env.ConfigDir)
	assert.Equal(t, "Created default config at "+path+"\n", te.stdout.String())
	assert.FileExists(t, path)

	cfg, err := config.NewConfig(te.env.ConfigDir, config.BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, []string{config.PlaceholderProgram}, cfg.TrackedPrograms())
}

func TestExecute_FirstRunReport(t *testing.T) {
	te := newTestEnv(t)

	code := te.run("report")

	assert.Equal(t, ExitOK, code)
	assert.Contains(t, te.stdout.String(), "Created default config at")
	assert.NotContains(t, te.stdout.String(), "Playtime report:")
}

func TestExecute_NoTrackedPrograms(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t)

	code := te.run()

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, MsgNoPrograms, te.stdout.String())
	assert.NoFileExists(t, sessiondb.DefaultPath(te.env.DataDir))
}

func TestExecute_InvalidConfig(t *testing.T) {
	te := newTestEnv(t)
	path := config.ResolvePath(te.env.ConfigDir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("tracked = [unclosed"), 0o600))

	code := te.run()

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, te.stderr.String(), "Error: failed to load config")
}

func TestExecute_InvalidLegacyConfig(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, os.MkdirAll(te.env.ConfigDir, 0o750))
	legacy := helpers.LegacyConfigPath(te.env.ConfigDir)
	require.NoError(t, os.WriteFile(legacy, []byte("tracked: [a, b"), 0o600))

	code := te.run("report")

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, te.stderr.String(), "failed to migrate legacy config")
}

func TestExecute_LegacyConfigMigrated(t *testing.T) {
	te := newTestEnv(t)
	require.NoError(t, os.MkdirAll(te.env.ConfigDir, 0o750))
	legacy := helpers.LegacyConfigPath(te.env.ConfigDir)
	require.NoError(t, os.WriteFile(legacy, []byte("tracked:\n  - game\n  - emulator\n"), 0o600))

	code := te.run("report")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Playtime report:\n", te.stdout.String())

	cfg, err := config.NewConfig(te.env.ConfigDir, config.BaseDefaults)
	require.NoError(t, err)
	assert.Equal(t, []string{"game", "emulator"}, cfg.TrackedPrograms())
	assert.FileExists(t, legacy)
}

func TestExecute_ReportEmptyStore(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")

	code := te.run("report")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Playtime report:\n", te.stdout.String())
	assert.Empty(t, te.stderr.String(), "report mode logs only to the log file")
}

func TestExecute_ReportTotals(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")
	seedClosedSession(t, sessiondb.DefaultPath(te.env.DataDir), "game", 100, 3661*time.Second)

	code := te.run("report")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Playtime report:\n- game: 1h 1m 1s\n", te.stdout.String())
}

func TestExecute_ReportWithEmptyTrackedList(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t)
	seedClosedSession(t, sessiondb.DefaultPath(te.env.DataDir), "old_game", 7, 90*time.Second)

	code := te.run("report")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Playtime report:\n- old_game: 0h 1m 30s\n", te.stdout.String())
}

func TestExecute_ReportCSVSessions(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")
	seedClosedSession(t, sessiondb.DefaultPath(te.env.DataDir), "game", 100, time.Minute)

	code := te.run("report", "--format", "csv", "--sessions", "5", "--program", "game")

	assert.Equal(t, ExitOK, code)
	out := te.stdout.String()
	assert.Contains(t, out, "program,started,ended,id,pid,duration_seconds\n")
	assert.Contains(t, out, "game,2026-02-01T20:00:00Z,2026-02-01T20:01:00Z,1,100,60\n")
}

func TestExecute_ReportFlagErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown format", args: []string{"report", "--format", "xml"}},
		{name: "negative sessions", args: []string{"report", "--sessions", "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			te := newTestEnv(t)
			te.writeConfig(t, "game")

			code := te.run(tt.args...)

			assert.Equal(t, ExitReportError, code)
			assert.Contains(t, te.stderr.String(), "Error:")
			assert.Empty(t, te.stdout.String())
		})
	}
}

func TestExecute_StorageError(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")

	// a regular file where the database directory should be
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	code := te.run("report", "--db", filepath.Join(blocker, "playtime.db"))

	assert.Equal(t, ExitStorageError, code)
	assert.Contains(t, te.stderr.String(), "failed to open session database")
}

func TestExecute_DBFlag(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")
	custom := filepath.Join(t.TempDir(), "custom.db")
	seedClosedSession(t, custom, "game", 1, 2*time.Hour)

	code := te.run("report", "--db", custom)

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Playtime report:\n- game: 2h 0m 0s\n", te.stdout.String())
	assert.NoFileExists(t, sessiondb.DefaultPath(te.env.DataDir))
}

func TestExecute_LegacyDBUsedInPlace(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")
	seedClosedSession(t, te.env.LegacyDBPath, "game", 1, 5*time.Second)

	code := te.run("report")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Playtime report:\n- game: 0h 0m 5s\n", te.stdout.String())
	assert.NoFileExists(t, sessiondb.DefaultPath(te.env.DataDir))
}

func TestExecute_DefaultDBPreferredOverLegacy(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")
	seedClosedSession(t, te.env.LegacyDBPath, "legacy", 1, 5*time.Second)
	seedClosedSession(t, sessiondb.DefaultPath(te.env.DataDir), "current", 2, 6*time.Second)

	code := te.run("report")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Playtime report:\n- current: 0h 0m 6s\n", te.stdout.String())
}

func TestExecute_Version(t *testing.T) {
	te := newTestEnv(t)

	code := te.run("--version")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, config.AppName+" "+config.AppVersion+"\n", te.stdout.String())
	assert.NoFileExists(t, config.ResolvePath(te.env.ConfigDir))
}

func TestExecute_UnknownArguments(t *testing.T) {
	te := newTestEnv(t)

	code := te.run("bogus")

	assert.Equal(t, ExitConfigError, code)
	assert.Contains(t, te.stderr.String(), "Error:")
}

func TestExecute_DaemonAlreadyRunning(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")
	require.NoError(t, os.MkdirAll(te.env.LogDir, 0o750))
	pidPath := helpers.PidFilePath(te.env.LogDir)
	require.NoError(t, os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getppid())), 0o600))

	code := te.run()

	assert.Equal(t, ExitStorageError, code)
	assert.Contains(t, te.stderr.String(), helpers.ErrAlreadyRunning.Error())
	assert.NoFileExists(t, sessiondb.DefaultPath(te.env.DataDir))
}

func TestExecute_DaemonRecordsSession(t *testing.T) {
	te := newTestEnv(t)
	te.writeConfig(t, "game")
	require.NoError(t, te.proc.AddProcess(4242, "game", "/usr/bin/game"))
	require.NoError(t, te.proc.AddProcess(4243, "editor", "/usr/bin/editor"))

	ticks := make(chan tracker.Result, 16)
	te.env.OnTick = func(res tracker.Result, _ error) {
		select {
		case ticks <- res:
		default:
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan int, 1)
	go func() {
		done <- Execute(ctx, te.env, nil)
	}()

	select {
	case res := <-ticks:
		assert.Len(t, res.Opened, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon never ticked")
	}
	assert.FileExists(t, helpers.PidFilePath(te.env.LogDir))

	te.clock.Advance(90 * time.Second)
	cancel()

	select {
	case code := <-done:
		assert.Equal(t, ExitOK, code)
	case <-time.After(10 * time.Second):
		t.Fatal("daemon didn't stop")
	}
	assert.NoFileExists(t, helpers.PidFilePath(te.env.LogDir))
	assert.Contains(t, te.stderr.String(), "tracking programs: game")

	report := newTestEnv(t)
	report.env.ConfigDir = te.env.ConfigDir
	report.env.DataDir = te.env.DataDir
	code := report.run("report", "--sessions", "1")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "Playtime report:\n- game: 0h 1m 30s\n\nRecent sessions:\n"+
		"- game [pid 4242] 2026-02-01T20:00:00Z to 2026-02-01T20:01:30Z (0h 1m 30s)\n",
		report.stdout.String())
}
