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

// runSplit executes the 'split' command.
func runSplit(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("split", flag.ExitOnError)
	input := fs.String("input", cfg.Output(cfg.Paths.Curated), "Curated dataset")
	outDir := fs.String("output-dir", cfg.Output(cfg.Paths.SplitDir), "Directory for the train/valid/test files")
	train := fs.Float64("train", cfg.Pipeline.TrainRatio, "Train fraction of the date-sorted commits")
	valid := fs.Float64("valid", cfg.Pipeline.ValidRatio, "Validation fraction; the rest is test")
	overwrite := fs.Bool("overwrite-input", cfg.Pipeline.OverwriteSplitInput, "Replace the input with the date-sorted commits of the shared repositories")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus split [options]

Description:
  Sort commits by date and cut them into train, valid and test partitions.
  Only repositories present in all three partitions are kept, so every
  partition covers the same projects.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus split
  ccscorpus split --train 0.7 --valid 0.15
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageSplit))
	}
	res, err := pipeline.Split(s.ctx, pipeline.SplitConfig{
		Options:        s.opts,
		InputPath:      *input,
		OutputDir:      *outDir,
		TrainRatio:     *train,
		ValidRatio:     *valid,
		OverwriteInput: *overwrite,
	}, s.logger)
	if err != nil {
		s.fail(pipeline.StageSplit, err)
	}
	s.emit(res, func() { printSplit(res) })
}

func printSplit(res *pipeline.SplitResult) {
	ui.Field("Run ID", ui.DimText(res.RunID))
	ui.Table([]string{"partition", "initial", "kept"}, [][]string{
		{"train", strconv.Itoa(res.Initial.Train), strconv.Itoa(res.Filtered.Train)},
		{"valid", strconv.Itoa(res.Initial.Valid), strconv.Itoa(res.Filtered.Valid)},
		{"test", strconv.Itoa(res.Initial.Test), strconv.Itoa(res.Filtered.Test)},
		{"total", strconv.Itoa(res.Initial.Total()), strconv.Itoa(res.Filtered.Total())},
	})
	fmt.Fprintln(ui.Out)
	r := res.Repos
	ui.Field("Repositories", r.Total)
	ui.Field("Shared by all", r.Common)
	ui.Field("Only in train", r.OnlyTrain)
	ui.Field("Only in valid", r.OnlyValid)
	ui.Field("Only in test", r.OnlyTest)
	ui.Field("Retention", ui.Percent(res.Retention))
	if res.Filtered.Total() == 0 {
		ui.Warning("No repository spans all three partitions; the split files are empty")
	}
	ui.Successf("Wrote %s", res.TrainPath)
	ui.Successf("Wrote %s", res.ValidPath)
	ui.Successf("Wrote %s", res.TestPath)
}
