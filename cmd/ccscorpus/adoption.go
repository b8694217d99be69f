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

// runAdoption executes the 'adoption' command.
func runAdoption(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("adoption", flag.ExitOnError)
	input := fs.String("input", cfg.Output(cfg.Paths.Curated), "Dataset from extract")
	out := fs.String("output", "", "Output dataset (default: overwrite the input)")
	cachePath := fs.String("cache", cfg.Output(cfg.Paths.AdoptionCache), "Adoption date cache")
	keyword := fs.String("keyword", cfg.Pipeline.Keyword, "Keyword whose first appearance marks adoption")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus adoption [options]

Description:
  Find when each repository adopted the convention: the earliest commit that
  added a line mentioning the keyword to any file that mentions it now. Drop
  commits made before that date. Repositories whose adoption cannot be
  determined keep all their commits. Dates are cached per repository and the
  cache is saved after every repository, so interrupted runs resume.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus adoption
  ccscorpus adoption --output output/ccs_commits_adopted.parquet
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageAdoption))
	}
	res, err := pipeline.Adoption(s.ctx, pipeline.AdoptionConfig{
		Options:    s.opts,
		InputPath:  *input,
		OutputPath: *out,
		CachePath:  *cachePath,
		Keyword:    *keyword,
		Tracer:     newGitHubClient(cfg, s.logger),
	}, s.logger)
	if res != nil && (err == nil || res.Interrupted) {
		s.emit(res, func() { printAdoption(res, *cachePath) })
	}
	if err != nil {
		s.fail(pipeline.StageAdoption, err)
	}
}

func printAdoption(res *pipeline.AdoptionResult, cachePath string) {
	ui.Field("Run ID", ui.DimText(res.RunID))
	ui.Field("Repositories", res.Repos)
	ui.Field("From cache", res.CacheHits)
	ui.Field("Traced", res.Resolved)
	ui.Field("No adoption found", res.NoAdoption)
	if len(res.FailedRepos) > 0 {
		ui.Warningf("%d repositories could not be traced and keep all commits", len(res.FailedRepos))
	}
	if res.Interrupted {
		if cachePath == "" {
			ui.Warning("Interrupted; adoption dates saved, dataset unchanged")
			return
		}
		ui.Warningf("Interrupted; adoption dates saved to %s, dataset unchanged", cachePath)
		return
	}
	ui.Field("Records", res.TotalRecords)
	ui.Field("Kept", res.KeptRecords)
	ui.Field("Before adoption", res.BeforeAdoption)
	ui.Field("Invalid", res.InvalidRecords)
	ui.Successf("Wrote %s", res.OutputPath)
}
