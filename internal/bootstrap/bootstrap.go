// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
)

// WorkspaceConfig describes the directory layout of a curation workspace.
type WorkspaceConfig struct {
	// Root is the workspace directory. Relative Dirs resolve against it.
	// Defaults to the working directory.
	Root string

	// RawDir receives the raw commit-chronicle parquet shards.
	RawDir string

	// OutputDir receives stage outputs and caches.
	OutputDir string

	// Dirs are extra directories to create, relative to OutputDir unless
	// absolute (split, JSON and report directories).
	Dirs []string
}

// WorkspaceInfo reports what InitWorkspace did.
type WorkspaceInfo struct {
	Root    string   `json:"root"`
	Created []string `json:"created,omitempty"`
	Existed []string `json:"existed,omitempty"`
	RawDir  string   `json:"raw_dir"`

	// RawFiles counts parquet files already present in RawDir.
	RawFiles int `json:"raw_files"`
}

// InitWorkspace creates the workspace directories. It is idempotent: existing
// directories and their contents are left alone.
func InitWorkspace(config WorkspaceConfig, logger *slog.Logger) (*WorkspaceInfo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.RawDir == "" || config.OutputDir == "" {
		return nil, fmt.Errorf("raw and output directories are required")
	}
	if config.Root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		config.Root = cwd
	}

	info := &WorkspaceInfo{
		Root:   config.Root,
		RawDir: resolve(config.Root, config.RawDir),
	}
	output := resolve(config.Root, config.OutputDir)

	dirs := []string{info.RawDir, output}
	for _, d := range config.Dirs {
		if d != "" {
			dirs = append(dirs, resolve(output, d))
		}
	}
	slices.Sort(dirs)
	dirs = slices.Compact(dirs)

	logger.Info("bootstrap.workspace.init.start", "root", config.Root, "dirs", len(dirs))
	for _, dir := range dirs {
		existed, err := ensureDir(dir)
		if err != nil {
			return nil, err
		}
		if existed {
			info.Existed = append(info.Existed, dir)
		} else {
			info.Created = append(info.Created, dir)
			logger.Debug("bootstrap.dir.created", "path", dir)
		}
	}

	n, err := countParquet(info.RawDir)
	if err != nil {
		return nil, err
	}
	info.RawFiles = n

	logger.Info("bootstrap.workspace.init.success",
		"root", config.Root,
		"created", len(info.Created),
		"raw_files", info.RawFiles,
	)
	return info, nil
}

func resolve(base, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

func ensureDir(dir string) (existed bool, err error) {
	st, err := os.Stat(dir)
	switch {
	case err == nil && st.IsDir():
		return true, nil
	case err == nil:
		return false, fmt.Errorf("%s exists and is not a directory", dir)
	case !os.IsNotExist(err):
		return false, fmt.Errorf("stat %s: %w", dir, err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return false, fmt.Errorf("create %s: %w", dir, err)
	}
	return false, nil
}

func countParquet(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", dir, err)
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".parquet" {
			n++
		}
	}
	return n, nil
}
