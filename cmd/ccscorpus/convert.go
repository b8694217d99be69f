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
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccscorpus/internal/ui"
	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

// runConvert executes the 'convert' command.
func runConvert(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	input := fs.String("input", cfg.Output(cfg.Paths.SplitDir), "Parquet file or directory")
	outDir := fs.String("output-dir", cfg.Output(cfg.Paths.JSONDir), "Directory for the .json files")
	workers := fs.Int("workers", cfg.Pipeline.Workers, "Files converted in parallel")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus convert [options]

Description:
  Convert parquet files to JSON Lines, one object per commit. A directory is
  walked recursively and its layout is mirrored under --output-dir.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus convert
  ccscorpus convert --input output/ccs_commits.parquet --output-dir export
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageConvert))
	}
	res, err := pipeline.Convert(s.ctx, pipeline.ConvertConfig{
		Options:   s.opts,
		InputPath: *input,
		OutputDir: *outDir,
		Workers:   *workers,
	}, s.logger)
	if err != nil {
		s.fail(pipeline.StageConvert, err)
	}
	s.emit(res, func() { printConvert(res) })
}

func printConvert(res *pipeline.ConvertResult) {
	rows := make([][]string, 0, len(res.Files))
	for _, f := range res.Files {
		rows = append(rows, []string{f.Output, strconv.Itoa(f.Records)})
	}
	ui.Table([]string{"file", "records"}, rows)
	fmt.Fprintln(ui.Out)
	ui.Successf("Converted %d files, %d records", len(res.Files), res.Records)
}
