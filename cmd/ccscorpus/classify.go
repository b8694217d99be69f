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

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccscorpus/internal/ui"
	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

// runClassify executes the 'classify' command, adding the is_ccs column.
func runClassify(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("classify", flag.ExitOnError)
	input := fs.String("input", cfg.Output(cfg.Paths.Harvested), "Dataset to classify")
	out := fs.String("output", "", "Output dataset (default: overwrite the input)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus classify [options]

Description:
  Tag each commit with is_ccs = 1 when its message header follows the
  Conventional Commits format, 0 otherwise. Empty messages count as invalid
  and are tagged 0.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus classify
  ccscorpus classify --input commits.parquet --output tagged.jsonl
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageClassify))
	}
	res, err := pipeline.Classify(s.ctx, pipeline.ClassifyConfig{
		Options:    s.opts,
		InputPath:  *input,
		OutputPath: *out,
	}, s.logger)
	if err != nil {
		s.fail(pipeline.StageClassify, err)
	}
	s.emit(res, func() { printClassify(res) })
}

func printClassify(res *pipeline.ClassifyResult) {
	ui.Field("Run ID", ui.DimText(res.RunID))
	ui.Field("Total", res.Total)
	ui.Field("Valid messages", res.Valid)
	ui.Field("Invalid messages", res.Invalid)
	ui.Field("Compliant", res.Compliant)
	ui.Field("Non-compliant", res.NonCompliant)
	ui.Field("Compliance rate", ui.Percent(res.ComplianceRate))
	ui.Successf("Wrote %s", res.OutputPath)
}
