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

package sessiondb

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	"github.com/rs/zerolog/log"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func sqlMigrateUp(db *sql.DB) error {
	if err := database.MigrateUp(db, migrationFiles, "migrations"); err != nil {
		return fmt.Errorf("failed to run session database migrations: %w", err)
	}
	return nil
}

func closeStmt(stmt *sql.Stmt) {
	if closeErr := stmt.Close(); closeErr != nil {
		log.Warn().Err(closeErr).Msg("failed to close sql statement")
	}
}

func sqlOpenSession(
	ctx context.Context,
	db *sql.DB,
	program string,
	pid int,
	startedAt time.Time,
) (int64, error) {
	stmt, err := db.PrepareContext(ctx, `
		insert into sessions(path, pid, started) values (?, ?, ?);
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare session insert statement: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx, program, pid, database.FormatTime(startedAt))
	if err != nil {
		return 0, fmt.Errorf("failed to execute session insert: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get session id: %w", err)
	}
	return id, nil
}

// Only the newest open row for the pid is closed, so a stale orphan from an
// earlier run with a recycled pid is left for reconciliation.
func sqlCloseSession(ctx context.Context, db *sql.DB, pid int, endedAt time.Time) (bool, error) {
	stmt, err := db.PrepareContext(ctx, `
		update sessions set ended = ?
		where id = (
			select id from sessions
			where pid = ? and ended is null
			order by started desc, id desc
			limit 1
		);
	`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare session close statement: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx, database.FormatTime(endedAt), pid)
	if err != nil {
		return false, fmt.Errorf("failed to execute session close: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func sqlCloseSessionByID(ctx context.Context, db *sql.DB, id int64, endedAt time.Time) (bool, error) {
	stmt, err := db.PrepareContext(ctx, `
		update sessions set ended = ? where id = ? and ended is null;
	`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare session close statement: %w", err)
	}
	defer closeStmt(stmt)

	res, err := stmt.ExecContext(ctx, database.FormatTime(endedAt), id)
	if err != nil {
		return false, fmt.Errorf("failed to execute session close: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows > 0, nil
}

func sqlOpenSessions(ctx context.Context, db *sql.DB) ([]database.Session, error) {
	rows, err := db.QueryContext(ctx, `
		select id, path, pid, started, ended
		from sessions
		where ended is null
		order by started desc, id desc;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query open sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()

	return scanSessions(rows)
}

// Rows whose timestamps sqlite cannot parse contribute NULL and are skipped
// by SUM.
func sqlAggregateTotals(ctx context.Context, db *sql.DB) ([]database.ProgramTotal, error) {
	rows, err := db.QueryContext(ctx, `
		select path, coalesce(sum(
			cast(strftime('%s', ended) as integer) -
			cast(strftime('%s', started) as integer)
		), 0) as total
		from sessions
		where ended is not null
		group by path
		order by path;
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query playtime totals: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()

	totals := make([]database.ProgramTotal, 0)
	for rows.Next() {
		var t database.ProgramTotal
		if err := rows.Scan(&t.Program, &t.TotalSeconds); err != nil {
			return nil, fmt.Errorf("failed to scan playtime total: %w", err)
		}
		totals = append(totals, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate playtime totals: %w", err)
	}
	return totals, nil
}

func sqlSessions(ctx context.Context, db *sql.DB, program string, limit int) ([]database.Session, error) {
	if limit <= 0 {
		return []database.Session{}, nil
	}

	rows, err := db.QueryContext(ctx, `
		select id, path, pid, started, ended
		from sessions
		where (? = '' or path = ?)
		order by started desc, id desc
		limit ?;
	`, program, program, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("failed to close sql rows")
		}
	}()

	return scanSessions(rows)
}

func scanSessions(rows *sql.Rows) ([]database.Session, error) {
	list := make([]database.Session, 0)
	for rows.Next() {
		var (
			s       database.Session
			started string
			ended   sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.Program, &s.PID, &started, &ended); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}

		startedAt, err := database.ParseTime(started)
		if err != nil {
			log.Warn().Err(err).Int64("id", s.ID).Msg("skipping session with bad start time")
			continue
		}
		s.StartedAt = startedAt

		if ended.Valid {
			endedAt, err := database.ParseTime(ended.String)
			if err != nil {
				log.Warn().Err(err).Int64("id", s.ID).Msg("skipping session with bad end time")
				continue
			}
			s.EndedAt = &endedAt
		}

		list = append(list, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return list, nil
}
