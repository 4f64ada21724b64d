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
	"github.com/ZaparooProject/playtime-tracker/pkg/report"
	"github.com/rs/zerolog/log"
)

const modeReport = "report"

var errNegativeSessions = errors.New("--sessions must not be negative")

func (c command) runReport(ctx context.Context, rf *reportFlags) error {
	format, err := report.ParseFormat(rf.format)
	if err != nil {
		return exitError(ExitReportError, err)
	}
	if rf.sessions < 0 {
		return exitError(ExitReportError, errNegativeSessions)
	}

	if _, err := c.setup(modeReport, false); err != nil {
		return err
	}
	defer telemetry.Close()

	db, err := c.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(db)

	err = report.Generate(ctx, db, c.env.Stdout, report.Options{
		Format:   format,
		Program:  rf.program,
		Sessions: rf.sessions,
	})
	if err != nil {
		log.Error().Err(err).Msg("failed to generate report")
		return exitError(ExitReportError, fmt.Errorf("failed to generate report: %w", err))
	}
	return nil
}
