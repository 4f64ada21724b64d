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

// Package sessiondb is the sqlite-backed session store.
package sessiondb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/ZaparooProject/playtime-tracker/pkg/database"
	_ "github.com/mattn/go-sqlite3"
)

var ErrNullSQL = errors.New("SessionDB is not connected")

// WAL lets a report run read while the daemon writes.
const sqliteConnParams = "?_journal_mode=WAL&_synchronous=FULL&_busy_timeout=5000"

type SessionDB struct {
	sql  *sql.DB
	path string
}

var (
	_ database.SessionStore = (*SessionDB)(nil)
	_ database.ReportStore  = (*SessionDB)(nil)
)

// DefaultPath is the database location inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, config.SessionDbFile)
}

// OpenSessionDB opens (creating if needed) the database at path and brings
// the schema up to date.
func OpenSessionDB(ctx context.Context, path string) (*SessionDB, error) {
	db := &SessionDB{path: path}
	if err := db.Open(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (db *SessionDB) Open(ctx context.Context) error {
	if _, err := os.Stat(db.path); err != nil {
		mkdirErr := os.MkdirAll(filepath.Dir(db.path), 0o750)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory for database: %w", mkdirErr)
		}
	}

	sqlInstance, err := sql.Open("sqlite3", db.path+sqliteConnParams)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	db.sql = sqlInstance

	if err := db.sql.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	return db.MigrateUp()
}

func (db *SessionDB) GetDBPath() string {
	return db.path
}

func (db *SessionDB) MigrateUp() error {
	if db.sql == nil {
		return ErrNullSQL
	}
	return sqlMigrateUp(db.sql)
}

func (db *SessionDB) Close() error {
	if db.sql == nil {
		return nil
	}
	err := db.sql.Close()
	if err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

// SetSQLForTesting allows injection of a sql.DB instance for testing purposes.
func (db *SessionDB) SetSQLForTesting(sqlDB *sql.DB) {
	db.sql = sqlDB
}

// OpenSession inserts a new open session and returns its id.
func (db *SessionDB) OpenSession(
	ctx context.Context,
	program string,
	pid int,
	startedAt time.Time,
) (int64, error) {
	if db.sql == nil {
		return 0, ErrNullSQL
	}
	return sqlOpenSession(ctx, db.sql, program, pid, startedAt)
}

// CloseSession sets the end time of the most recent open session for pid.
// Returns false if pid had no open session.
func (db *SessionDB) CloseSession(ctx context.Context, pid int, endedAt time.Time) (bool, error) {
	if db.sql == nil {
		return false, ErrNullSQL
	}
	return sqlCloseSession(ctx, db.sql, pid, endedAt)
}

// CloseSessionByID ends a specific session if it is still open.
func (db *SessionDB) CloseSessionByID(ctx context.Context, id int64, endedAt time.Time) (bool, error) {
	if db.sql == nil {
		return false, ErrNullSQL
	}
	return sqlCloseSessionByID(ctx, db.sql, id, endedAt)
}

// OpenSessions returns every session without an end time, newest first.
func (db *SessionDB) OpenSessions(ctx context.Context) ([]database.Session, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlOpenSessions(ctx, db.sql)
}

// AggregateTotals sums closed session time per program.
func (db *SessionDB) AggregateTotals(ctx context.Context) ([]database.ProgramTotal, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlAggregateTotals(ctx, db.sql)
}

// Sessions returns up to limit recent sessions, optionally for one program.
func (db *SessionDB) Sessions(ctx context.Context, program string, limit int) ([]database.Session, error) {
	if db.sql == nil {
		return nil, ErrNullSQL
	}
	return sqlSessions(ctx, db.sql, program, limit)
}
