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

// Command testscanner takes one process snapshot for the names given on
// the command line and prints what matched, to check matching rules on a
// real system without touching the session database.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	"github.com/ZaparooProject/playtime-tracker/pkg/procscanner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const snapshotTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func run(names []string) error {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	if len(names) == 0 {
		return fmt.Errorf("usage: %s <program>...", os.Args[0])
	}

	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	source := procscanner.NewDefault(names)
	observations, err := source.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("snapshot failed: %w", err)
	}

	if len(observations) == 0 {
		_, _ = fmt.Println("no tracked programs running")
		return nil
	}

	for _, obs := range observations {
		started := "unknown"
		if t, err := source.StartTime(ctx, obs.PID); err != nil {
			log.Debug().Err(err).Int("pid", obs.PID).Msg("failed to read start time")
		} else {
			started = database.FormatTime(t)
		}
		_, _ = fmt.Printf("%d\t%s\t%s\n", obs.PID, obs.Name, started)
	}
	return nil
}
