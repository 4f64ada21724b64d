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

// Package cli builds the playtime command line: the tracking daemon as the
// root command and a report subcommand.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZaparooProject/playtime-tracker/internal/telemetry"
	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/ZaparooProject/playtime-tracker/pkg/config/migrate"
	"github.com/ZaparooProject/playtime-tracker/pkg/database/sessiondb"
	"github.com/ZaparooProject/playtime-tracker/pkg/helpers"
	"github.com/ZaparooProject/playtime-tracker/pkg/procscanner"
	"github.com/ZaparooProject/playtime-tracker/pkg/proctracker"
	"github.com/ZaparooProject/playtime-tracker/pkg/report"
	"github.com/ZaparooProject/playtime-tracker/pkg/service/daemon"
	"github.com/ZaparooProject/playtime-tracker/pkg/service/tracker"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const (
	MsgCreatedDefault = "Created default config at %s\n"
	MsgNoPrograms     = "No programs to track in config. Please add them.\n"
)

// Env holds everything a command touches outside the process, so tests
// can point it at temp dirs and fakes.
type Env struct {
	Stdout io.Writer
	Stderr io.Writer
	Clock  clockwork.Clock
	// NewSource builds the snapshot source for the tracked program names.
	NewSource func(names []string) procscanner.Source
	// NewNotifier returns the exit notifier, nil to rely on polling only.
	NewNotifier func() daemon.ExitNotifier
	// OnTick is passed through to the daemon.
	OnTick    func(tracker.Result, error)
	ConfigDir string
	DataDir   string
	LogDir    string
	// LegacyDBPath is used in place when the default store doesn't exist
	// yet and this file does.
	LegacyDBPath string
}

// DefaultEnv returns the environment used by the real binary.
func DefaultEnv() Env {
	return Env{
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		Clock:     clockwork.NewRealClock(),
		NewSource: procscanner.NewDefault,
		NewNotifier: func() daemon.ExitNotifier {
			return proctracker.New()
		},
		ConfigDir:    helpers.ConfigDir(),
		DataDir:      helpers.DataDir(),
		LogDir:       helpers.LogDir(),
		LegacyDBPath: helpers.LegacyDBPath(),
	}
}

type globalFlags struct {
	dbPath string
	debug  bool
}

type reportFlags struct {
	format   string
	program  string
	sessions int
}

type command struct {
	env   *Env
	flags *globalFlags
}

// Execute runs the command line in args and returns the process exit
// code. Errors are printed to env.Stderr.
//
//nolint:gocritic // env is copied so commands can't change the caller's
func Execute(ctx context.Context, env Env, args []string) int {
	root := NewRootCommand(&env)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	code := ExitCode(err)
	if code != ExitOK {
		_, _ = fmt.Fprintf(env.Stderr, "Error: %v\n", err)
	}
	return code
}

// NewRootCommand builds the command tree. The root command runs the
// daemon.
func NewRootCommand(env *Env) *cobra.Command {
	flags := &globalFlags{}
	c := command{env: env, flags: flags}

	root := &cobra.Command{
		Use:   "playtime",
		Short: "Track how long selected programs run",
		Long: `Playtime Tracker watches for the programs listed in its config and
records a session each time one of them runs. Run without arguments to
start the tracking daemon.

Examples:
  playtime                       # start tracking
  playtime report                # print total playtime per program
  playtime report --sessions 10  # also list the 10 latest sessions`,
		Version:       config.AppVersion,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runDaemon(cmd.Context())
		},
	}
	root.SetOut(env.Stdout)
	root.SetErr(env.Stderr)
	root.SetVersionTemplate(config.AppName + " {{.Version}}\n")

	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "force debug logging")
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "path to the session database")

	root.AddCommand(c.newReportCommand())
	return root
}

func (c command) newReportCommand() *cobra.Command {
	rf := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print accumulated playtime per program",
		Long: `Print the total time each program has run, summed over finished
sessions. Sessions still in progress are not counted.

Examples:
  playtime report
  playtime report --format csv
  playtime report --sessions 5 --program retroarch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runReport(cmd.Context(), rf)
		},
	}

	cmd.Flags().StringVar(&rf.format, "format", string(report.FormatText), "output format: text or csv")
	cmd.Flags().IntVar(&rf.sessions, "sessions", 0, "also list the latest N sessions")
	cmd.Flags().StringVar(&rf.program, "program", "", "only list sessions of this program")

	return cmd
}

// errFirstRun stops a command without an error once the operator has been
// told what to do.
var errFirstRun = exitError(ExitOK, nil)

// setup prepares directories, logging and the config. Messages for the two
// first-run conditions are printed here and errFirstRun returned.
func (c command) setup(mode string, logToStderr bool) (*config.Instance, error) {
	env := c.env

	if err := helpers.EnsureDirectories(env.ConfigDir, env.LogDir); err != nil {
		return nil, exitError(ExitConfigError, err)
	}

	var writers []io.Writer
	if logToStderr {
		writers = append(writers, zerolog.ConsoleWriter{Out: env.Stderr})
	}
	if err := helpers.InitLogging(env.LogDir, writers); err != nil {
		return nil, exitError(ExitConfigError, fmt.Errorf("failed to initialize logging: %w", err))
	}
	helpers.SetLogLevel(c.flags.debug)

	if err := migrateLegacyConfig(env.ConfigDir); err != nil {
		return nil, exitError(ExitConfigError, err)
	}

	cfg, err := config.NewConfig(env.ConfigDir, config.BaseDefaults)
	switch {
	case errors.Is(err, config.ErrCreatedDefault):
		_, _ = fmt.Fprintf(env.Stdout, MsgCreatedDefault, config.ResolvePath(env.ConfigDir))
		return nil, errFirstRun
	case errors.Is(err, config.ErrNoTrackedPrograms):
		if mode == modeDaemon {
			_, _ = fmt.Fprint(env.Stdout, MsgNoPrograms)
			return nil, errFirstRun
		}
	case err != nil:
		return nil, exitError(ExitConfigError, fmt.Errorf("failed to load config: %w", err))
	}

	helpers.SetLogLevel(c.flags.debug || cfg.DebugLogging())

	if err := telemetry.Init(telemetry.Options{
		Enabled:    cfg.ErrorReporting(),
		DSN:        cfg.ErrorReportingDSN(),
		DeviceID:   cfg.DeviceID(),
		AppVersion: config.AppVersion,
		Mode:       mode,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to initialize error reporting")
	}

	return cfg, nil
}

// migrateLegacyConfig converts a config.yaml left by an earlier release,
// looking next to the resolved config path first.
func migrateLegacyConfig(configDir string) error {
	tomlPath := config.ResolvePath(configDir)
	candidates := []string{helpers.LegacyConfigPath(filepath.Dir(tomlPath))}
	if p := helpers.LegacyConfigPath(configDir); p != candidates[0] {
		candidates = append(candidates, p)
	}

	for _, yamlPath := range candidates {
		if !migrate.Required(yamlPath, tomlPath) {
			continue
		}
		log.Info().Msgf("migrating legacy config %s to %s", yamlPath, tomlPath)
		if err := migrate.Run(yamlPath, tomlPath); err != nil {
			return fmt.Errorf("failed to migrate legacy config: %w", err)
		}
		return nil
	}
	return nil
}

// dbPath picks the session database: the --db flag, else the default path,
// else a legacy database if only that one exists.
func (c command) dbPath() string {
	if c.flags.dbPath != "" {
		return c.flags.dbPath
	}

	path := sessiondb.DefaultPath(c.env.DataDir)
	if c.env.LegacyDBPath == "" {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	if _, err := os.Stat(c.env.LegacyDBPath); err == nil {
		log.Info().Msgf("using legacy session database: %s", c.env.LegacyDBPath)
		return c.env.LegacyDBPath
	}
	return path
}

func (c command) openStore(ctx context.Context) (*sessiondb.SessionDB, error) {
	path := c.dbPath()
	db, err := sessiondb.OpenSessionDB(ctx, path)
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to open session database")
		return nil, exitError(ExitStorageError, fmt.Errorf("failed to open session database: %w", err))
	}
	return db, nil
}

func closeStore(db *sessiondb.SessionDB) {
	if err := db.Close(); err != nil {
		log.Warn().Err(err).Msg("failed to close session database")
	}
}

func joinNames(names []string) string {
	return strings.Join(names, ", ")
}
