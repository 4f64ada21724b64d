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
	"context"
	"errors"
	"fmt"

	"github.com/ZaparooProject/playtime-tracker/internal/telemetry"
	"github.com/ZaparooProject/playtime-tracker/pkg/helpers"
	"github.com/ZaparooProject/playtime-tracker/pkg/service/daemon"
	"github.com/rs/zerolog/log"
)

const modeDaemon = "daemon"

// runDaemon tracks sessions until ctx is cancelled.
func (c command) runDaemon(ctx context.Context) error {
	cfg, err := c.setup(modeDaemon, true)
	if err != nil {
		return err
	}
	defer telemetry.Close()

	pidFile, err := helpers.AcquirePidFile(ctx, c.env.LogDir)
	if errors.Is(err, helpers.ErrAlreadyRunning) {
		return exitError(ExitStorageError, err)
	} else if err != nil {
		log.Warn().Err(err).Msg("failed to write pid file")
	} else {
		defer func() {
			if err := pidFile.Release(); err != nil {
				log.Warn().Err(err).Msg("failed to remove pid file")
			}
		}()
	}

	if !helpers.IsClockReliable(c.env.Clock.Now()) {
		log.Warn().Msg("system clock looks unset, session timestamps will be wrong until it syncs")
	}

	db, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(db)

	if err := cfg.WatchChanges(ctx, func() {
		log.Warn().Msgf("config file %s changed, restart to apply", cfg.Path())
	}); err != nil {
		log.Warn().Err(err).Msg("failed to watch config file")
	}

	tracked := cfg.TrackedPrograms()
	opts := daemon.Options{
		Store:    db,
		Source:   c.env.NewSource(tracked),
		Clock:    c.env.Clock,
		OnTick:   c.env.OnTick,
		Interval: cfg.PollInterval(),
	}
	if c.env.NewNotifier != nil {
		if n := c.env.NewNotifier(); n != nil {
			opts.Notifier = n
		}
	}

	d, err := daemon.New(opts)
	if err != nil {
		return exitError(ExitStorageError, err)
	}

	log.Info().
		Str("db", db.GetDBPath()).
		Msgf("tracking programs: %s", joinNames(tracked))

	if err := d.Run(ctx); err != nil {
		log.Error().Err(err).Msg("session tracking stopped")
		return exitError(ExitStorageError, fmt.Errorf("session tracking stopped: %w", err))
	}
	return nil
}
