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

package report

import (
	"fmt"
	"io"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	"github.com/gocarina/gocsv"
)

type totalRow struct {
	Program      string `csv:"program"`
	TotalSeconds int64  `csv:"total_seconds"`
	Hours        int64  `csv:"hours"`
	Minutes      int64  `csv:"minutes"`
	Seconds      int64  `csv:"seconds"`
}

type sessionRow struct {
	Program         string `csv:"program"`
	Started         string `csv:"started"`
	Ended           string `csv:"ended"`
	ID              int64  `csv:"id"`
	PID             int    `csv:"pid"`
	DurationSeconds int64  `csv:"duration_seconds"`
}

func writeTotalsCSV(w io.Writer, totals []database.ProgramTotal) error {
	rows := make([]*totalRow, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, &totalRow{
			Program:      t.Program,
			TotalSeconds: t.TotalSeconds,
			Hours:        t.TotalSeconds / 3600,
			Minutes:      (t.TotalSeconds % 3600) / 60,
			Seconds:      t.TotalSeconds % 60,
		})
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv report: %w", err)
	}
	return nil
}

func writeSessionsCSV(w io.Writer, sessions []database.Session) error {
	rows := make([]*sessionRow, 0, len(sessions))
	for _, s := range sessions {
		row := &sessionRow{
			ID:      s.ID,
			Program: s.Program,
			PID:     s.PID,
			Started: database.FormatTime(s.StartedAt),
		}
		if s.EndedAt != nil {
			row.Ended = database.FormatTime(*s.EndedAt)
			row.DurationSeconds = s.EndedAt.Unix() - s.StartedAt.Unix()
		}
		rows = append(rows, row)
	}
	if err := gocsv.Marshal(&rows, w); err != nil {
		return fmt.Errorf("failed to write csv sessions: %w", err)
	}
	return nil
}
