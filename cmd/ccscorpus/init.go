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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccscorpus/internal/bootstrap"
	"github.com/kraklabs/ccscorpus/internal/errors"
	"github.com/kraklabs/ccscorpus/internal/output"
	"github.com/kraklabs/ccscorpus/internal/ui"
)

// initResult is the --json form of the init command.
type initResult struct {
	ConfigPath string `json:"config_path"`
	*bootstrap.WorkspaceInfo
}

// runInit executes the 'init' command: it writes a default ccscorpus.yaml
// and creates the raw, output and per-stage directories.
func runInit(args []string, configPath string, globals GlobalFlags) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing configuration")
	rawDir := fs.String("raw-dir", "", "Directory holding the raw commit parquet shards")
	outputDir := fs.String("output-dir", "", "Directory for stage outputs and caches")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus init [options]

Description:
  Create ccscorpus.yaml with default paths and thresholds, then create the
  directory layout it names. Existing directories are left untouched.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus init
  ccscorpus init --raw-dir /data/commit-chronicle --output-dir /data/ccs
  ccscorpus --config conf/ccscorpus.yaml init --force
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	cwd, err := os.Getwd()
	if err != nil {
		errors.FatalError(errors.NewInternalError("Cannot get current directory", err.Error(), "", err), globals.JSON)
	}
	if configPath == "" {
		configPath = ConfigPath(cwd)
	}
	if _, err := os.Stat(configPath); err == nil && !*force {
		errors.FatalError(errors.NewConfigError(
			"Configuration already exists",
			configPath+" is present",
			"Use --force to overwrite it",
			nil,
		), globals.JSON)
	}

	cfg := DefaultConfig()
	if *rawDir != "" {
		cfg.Paths.RawDir = *rawDir
	}
	if *outputDir != "" {
		cfg.Paths.OutputDir = *outputDir
	}
	if err := cfg.Validate(); err != nil {
		errors.FatalError(errors.NewInputError("Invalid init options", err.Error(), "Check --raw-dir and --output-dir"), globals.JSON)
	}

	if err := SaveConfig(cfg, configPath); err != nil {
		errors.FatalError(errors.NewPermissionError("Cannot write configuration", err.Error(),
			"Check write permissions for "+filepath.Dir(configPath), err), globals.JSON)
	}

	logger := newLogger(globals)
	info, err := bootstrap.InitWorkspace(bootstrap.WorkspaceConfig{
		Root:      filepath.Dir(configPath),
		RawDir:    cfg.Paths.RawDir,
		OutputDir: cfg.Paths.OutputDir,
		Dirs:      []string{cfg.Paths.SplitDir, cfg.Paths.JSONDir, cfg.Paths.ReportDir},
	}, logger)
	if err != nil {
		errors.FatalError(errors.NewPermissionError("Cannot create workspace directories", err.Error(),
			"Check the paths in "+configPath, err), globals.JSON)
	}

	if globals.JSON {
		_ = output.JSON(initResult{ConfigPath: configPath, WorkspaceInfo: info})
		return
	}
	if globals.Quiet {
		return
	}
	ui.Successf("Created %s", configPath)
	for _, dir := range info.Created {
		ui.Successf("Created %s", ui.DimText(dir))
	}
	fmt.Fprintln(ui.Out)
	if info.RawFiles == 0 {
		ui.Infof("Next: copy the commit-chronicle parquet shards into %s", info.RawDir)
		ui.Info("Then run: ccscorpus run")
		return
	}
	ui.Infof("%d raw shards found. Next: ccscorpus run", info.RawFiles)
}
