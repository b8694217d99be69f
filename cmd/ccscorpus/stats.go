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

// runStats executes the 'stats' command.
func runStats(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	input := fs.String("input", cfg.Output(cfg.Paths.Curated), "Curated dataset with commit_type and commit_scope")
	outDir := fs.String("output-dir", cfg.Output(cfg.Paths.ReportDir), "Directory for the report and CSV files")
	top := fs.Int("top", cfg.Pipeline.StatsTopN, "Scopes listed in the report")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus stats [options]

Description:
  Write a text report and CSV files with the language distribution by
  repository and by commit, the commit type distribution and the scope
  distribution. Requires the columns written by 'ccscorpus extract'.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus stats
  ccscorpus stats --top 50
  ccscorpus --json stats | jq '.types[:5]'
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageStats))
	}
	res, err := pipeline.Stats(s.ctx, pipeline.StatsConfig{
		Options:   s.opts,
		InputPath: *input,
		OutputDir: *outDir,
		TopN:      *top,
	}, s.logger)
	if err != nil {
		s.fail(pipeline.StageStats, err)
	}
	s.emit(res, func() { printStats(res) })
}

// statsPreview bounds the rows printed per distribution; the files hold all.
const statsPreview = 10

func printStats(res *pipeline.StatsResult) {
	ui.Field("Run ID", ui.DimText(res.RunID))
	ui.Field("Commits", res.TotalRecords)
	ui.Field("Repositories", res.TotalRepos)
	ui.Field("With type", res.TypedRecords)
	ui.Field("With scope", res.ScopedRecords)

	printCounts("Commit types:", res.Types)
	printCounts("Languages by commit:", res.CommitLanguages)

	fmt.Fprintln(ui.Out)
	ui.Successf("Wrote %s", res.ReportPath)
	for _, p := range res.CSVPaths {
		ui.Successf("Wrote %s", p)
	}
}

func printCounts(title string, counts []pipeline.Count) {
	if len(counts) > statsPreview {
		counts = counts[:statsPreview]
	}
	rows := make([][]string, 0, len(counts))
	for _, c := range counts {
		row := []string{c.Name, fmt.Sprint(c.Count)}
		if c.Percentage > 0 {
			row = append(row, fmt.Sprintf("%.2f%%", c.Percentage))
		}
		rows = append(rows, row)
	}
	fmt.Fprintln(ui.Out)
	ui.SubHeader(title)
	ui.Table([]string{"name", "count", "share"}, rows)
}
