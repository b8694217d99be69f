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

// runFilterRepos executes the 'filter-repos' command.
func runFilterRepos(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("filter-repos", flag.ExitOnError)
	input := fs.String("input", cfg.Output(cfg.Paths.Harvested), "Classified dataset")
	out := fs.String("output", cfg.Output(cfg.Paths.TrueRepos), "Output dataset")
	analysis := fs.String("analysis", "", "Write the per-repository analysis JSON to this path")
	top := fs.Int("top", cfg.Pipeline.TopRepos, "Number of top repositories to show")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus filter-repos [options]

Description:
  Compute per-repository compliance and keep every commit of repositories
  with at least one compliant commit. Requires the is_ccs column written by
  'ccscorpus classify'.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus filter-repos
  ccscorpus filter-repos --analysis output/repo_analysis.json --top 20
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageFilterRepos))
	}
	res, err := pipeline.FilterRepos(s.ctx, pipeline.FilterConfig{
		Options:      s.opts,
		InputPath:    *input,
		OutputPath:   *out,
		AnalysisPath: *analysis,
		TopN:         *top,
	}, s.logger)
	if err != nil {
		s.fail(pipeline.StageFilterRepos, err)
	}
	s.emit(res, func() { printFilter(res) })
}

func printFilter(res *pipeline.FilterResult) {
	st := res.Statistics
	ui.Field("Run ID", ui.DimText(res.RunID))
	ui.Field("Records", st.TotalRecords)
	ui.Field("Repositories", st.TotalRepos)
	ui.Field("Kept repositories", st.TrueCCSRepos)
	ui.Field("Dropped repositories", st.FalseCCSRepos)
	ui.Field("Kept records", st.FilteredRecords)
	ui.Field("Removed records", st.RemovedRecords)
	if len(res.Top) > 0 {
		fmt.Fprintln(ui.Out)
		ui.SubHeader(fmt.Sprintf("Top %d repositories by compliance rate:", len(res.Top)))
		ui.Table([]string{"repo", "commits", "ccs", "ccs_rate"}, repoRows(res.Top))
	}
	fmt.Fprintln(ui.Out)
	if res.AnalysisPath != "" {
		ui.Successf("Wrote %s", res.AnalysisPath)
	}
	ui.Successf("Wrote %s", res.OutputPath)
}

func repoRows(repos []pipeline.RepoStats) [][]string {
	rows := make([][]string, 0, len(repos))
	for _, r := range repos {
		rows = append(rows, []string{
			r.Repo,
			strconv.Itoa(r.TotalCommits),
			strconv.Itoa(r.CCSCommits),
			ui.Percent(r.CCSRate),
		})
	}
	return rows
}
