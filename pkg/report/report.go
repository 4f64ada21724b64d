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

// Package report renders accumulated playtime per program.
package report

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
)

type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
)

const heading = "Playtime report:"

var ErrUnknownFormat = errors.New("unknown report format")

// Options controls what Generate prints.
type Options struct {
	Format Format
	// Program limits the session list to one program.
	Program string
	// Sessions is how many recent sessions to list, 0 for none.
	Sessions int
}

// ParseFormat validates a format name, empty meaning text.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatText:
		return FormatText, nil
	case FormatCSV:
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// FormatDuration renders whole seconds as "<h>h <m>m <s>s".
func FormatDuration(secs int64) string {
	sign := ""
	if secs < 0 {
		sign = "-"
		secs = -secs
	}
	return fmt.Sprintf("%s%dh %dm %ds", sign, secs/3600, (secs%3600)/60, secs%60)
}

// Generate reads totals from store and writes the report to w. In CSV
// format a session listing replaces the totals table so the output stays a
// single table.
func Generate(ctx context.Context, store database.ReportStore, w io.Writer, opts Options) error {
	format, err := ParseFormat(string(opts.Format))
	if err != nil {
		return err
	}

	var sessions []database.Session
	if opts.Sessions > 0 {
		sessions, err = store.Sessions(ctx, opts.Program, opts.Sessions)
		if err != nil {
			return fmt.Errorf("failed to read sessions: %w", err)
		}
	}

	if format == FormatCSV && opts.Sessions > 0 {
		return writeSessionsCSV(w, sessions)
	}

	totals, err := store.AggregateTotals(ctx)
	if err != nil {
		return fmt.Errorf("failed to read playtime totals: %w", err)
	}

	if format == FormatCSV {
		return writeTotalsCSV(w, totals)
	}
	return writeText(w, totals, sessions, opts.Sessions > 0)
}

func writeText(w io.Writer, totals []database.ProgramTotal, sessions []database.Session, listSessions bool) error {
	var sb strings.Builder
	sb.WriteString(heading + "\n")
	for _, t := range totals {
		fmt.Fprintf(&sb, "- %s: %s\n", t.Program, FormatDuration(t.TotalSeconds))
	}

	if listSessions {
		sb.WriteString("\nRecent sessions:\n")
		for _, s := range sessions {
			fmt.Fprintf(&sb, "- %s [pid %d] %s to %s\n",
				s.Program, s.PID, database.FormatTime(s.StartedAt), sessionEnd(s))
		}
	}

	if _, err := io.WriteString(w, sb.String()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

func sessionEnd(s database.Session) string {
	if s.EndedAt == nil {
		return "open"
	}
	secs := s.EndedAt.Unix() - s.StartedAt.Unix()
	return fmt.Sprintf("%s (%s)", database.FormatTime(*s.EndedAt), FormatDuration(secs))
}
