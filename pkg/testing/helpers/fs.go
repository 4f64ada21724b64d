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
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ZaparooProject/playtime-tracker/pkg/config"
	"github.com/ZaparooProject/playtime-tracker/pkg/procscanner"
	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// FSHelper provides utilities for filesystem mocking in tests
type FSHelper struct {
	Fs       afero.Fs
	ProcPath string
}

// NewMemoryFS creates a new in-memory filesystem for testing
func NewMemoryFS() *FSHelper {
	return &FSHelper{
		Fs:       afero.NewMemMapFs(),
		ProcPath: procscanner.DefaultProcPath,
	}
}

// CreateConfigFile writes vals as a TOML config file.
func (h *FSHelper) CreateConfigFile(path string, vals config.Values) error {
	data, err := toml.Marshal(&vals)
	if err != nil {
		return fmt.Errorf("failed to marshal config to TOML: %w", err)
	}

	if err := h.Fs.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for config file: %w", err)
	}

	if err := afero.WriteFile(h.Fs, path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// AddProcess creates /proc/<pid>/comm and cmdline. The kernel truncation of
// long comm values is applied.
func (h *FSHelper) AddProcess(pid int, comm string, argv ...string) error {
	dir := filepath.Join(h.ProcPath, strconv.Itoa(pid))
	if err := h.Fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create proc dir: %w", err)
	}

	if len(comm) > procscanner.CommMaxLen {
		comm = comm[:procscanner.CommMaxLen]
	}
	if err := afero.WriteFile(h.Fs, filepath.Join(dir, "comm"), []byte(comm+"\n"), 0o644); err != nil {
		return fmt.Errorf("failed to write comm: %w", err)
	}

	var cmdline string
	if len(argv) > 0 {
		cmdline = strings.Join(argv, "\x00") + "\x00"
	}
	if err := afero.WriteFile(h.Fs, filepath.Join(dir, "cmdline"), []byte(cmdline), 0o644); err != nil {
		return fmt.Errorf("failed to write cmdline: %w", err)
	}
	return nil
}

// RemoveProcess deletes a process from the fake /proc.
func (h *FSHelper) RemoveProcess(pid int) error {
	if err := h.Fs.RemoveAll(filepath.Join(h.ProcPath, strconv.Itoa(pid))); err != nil {
		return fmt.Errorf("failed to remove proc dir: %w", err)
	}
	return nil
}

// ProcSource returns a procfs snapshot source reading this filesystem.
func (h *FSHelper) ProcSource(tracked []string) *procscanner.ProcFS {
	return procscanner.NewProcFS(
		procscanner.NewNameMatcher(tracked),
		procscanner.WithFs(h.Fs),
		procscanner.WithProcPath(h.ProcPath),
	)
}

// FileExists checks if a file exists in the filesystem
func (h *FSHelper) FileExists(path string) bool {
	exists, err := afero.Exists(h.Fs, path)
	return err == nil && exists
}
