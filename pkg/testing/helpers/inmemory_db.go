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

package helpers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ZaparooProject/playtime-tracker/pkg/database/sessiondb"
)

// NewInMemorySessionDB opens a real sqlite session store in a temp dir. The
// store is closed when the test ends.
func NewInMemorySessionDB(t *testing.T) *sessiondb.SessionDB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "sessiondb_test.db")
	db, err := sessiondb.OpenSessionDB(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("Failed to open test session database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close SessionDB: %v", err)
		}
	})

	return db
}
