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

// maxListedRepos bounds the repository table printed by extract.
const maxListedRepos = 20

// runExtract executes the 'extract' command.
func runExtract(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	input := fs.String("input", cfg.Output(cfg.Paths.TrueRepos), "Dataset from filter-repos")
	out := fs.String("output", cfg.Output(cfg.Paths.Curated), "Output dataset")
	minRate := fs.Float64("min-rate", cfg.Pipeline.MinRate, "Keep repositories whose compliance rate is strictly above this")
	analysis := fs.String("analysis", "", "Analysis JSON path (default: <output stem>_analysis.json)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus extract [options]

Description:
  Keep the compliant commits of repositories whose compliance rate is above
  --min-rate, and add commit_type and commit_scope parsed from each header.
  A summary of the qualifying repositories is written next to the output.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus extract
  ccscorpus extract --min-rate 0.9
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageExtract))
	}
	res, err := pipeline.Extract(s.ctx, pipeline.ExtractConfig{
		Options:      s.opts,
		InputPath:    *input,
		OutputPath:   *out,
		MinRate:      *minRate,
		AnalysisPath: *analysis,
	}, s.logger)
	if err != nil {
		s.fail(pipeline.StageExtract, err)
	}
	s.emit(res, func() { printExtract(res) })
}

func printExtract(res *pipeline.ExtractResult) {
	st := res.Statistics
	ui.Field("Run ID", ui.DimText(res.RunID))
	ui.Field("Minimum rate", "> "+ui.Percent(res.MinRate))
	ui.Field("Repositories", st.TotalRepos)
	ui.Field("Kept repositories", st.FilteredRepos)
	ui.Field("Removed repositories", st.RemovedRepos)
	ui.Field("Commits read", res.InputRecords)
	ui.Field("Extracted commits", st.CCSCommitsExtracted)
	if res.UntypedCommits > 0 {
		ui.Warningf("%d extracted commits have no parseable type", res.UntypedCommits)
	}

	if res.OutputPath == "" {
		ui.Warning("No repository qualified; nothing written")
		return
	}
	repos := res.Repos
	if len(repos) > maxListedRepos {
		repos = repos[:maxListedRepos]
	}
	fmt.Fprintln(ui.Out)
	ui.SubHeader(fmt.Sprintf("Qualifying repositories (%d of %d shown):", len(repos), len(res.Repos)))
	ui.Table([]string{"repo", "commits", "ccs", "ccs_rate"}, repoRows(repos))
	fmt.Fprintln(ui.Out)
	ui.Successf("Wrote %s", res.AnalysisPath)
	ui.Successf("Wrote %s", res.OutputPath)
}
