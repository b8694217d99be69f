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
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccscorpus/internal/ui"
	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

// runHarvest executes the 'harvest' command. It reads every raw parquet
// shard, asks GitHub whether each repository references the keyword, and
// keeps the commits of repositories that do.
func runHarvest(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("harvest", flag.ExitOnError)
	input := fs.String("input", cfg.Paths.RawDir, "Directory of raw commit parquet shards")
	out := fs.String("output", cfg.Output(cfg.Paths.Harvested), "Output dataset (.parquet or .jsonl)")
	cachePath := fs.String("cache", cfg.Output(cfg.Paths.VerdictCache), "Repository verdict cache")
	keyword := fs.String("keyword", cfg.Pipeline.Keyword, "Keyword searched in repository code")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus harvest [options]

Description:
  Read the raw parquet shards and keep the commits of repositories whose code
  mentions the keyword (default: conventionalcommits.org). Verdicts are cached
  per repository and saved after every shard, so an interrupted run resumes
  where it stopped. On interrupt the commits kept so far are written.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus harvest
  GITHUB_TOKEN=ghp_... ccscorpus harvest --input /data/raw
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageHarvest))
	}
	res, err := pipeline.Harvest(s.ctx, pipeline.HarvestConfig{
		Options:    s.opts,
		InputDir:   *input,
		OutputPath: *out,
		CachePath:  *cachePath,
		Keyword:    *keyword,
		Checker:    newGitHubClient(cfg, s.logger),
	}, s.logger)
	if res != nil && (err == nil || res.Interrupted) {
		s.emit(res, func() { printHarvest(res) })
	}
	if err != nil {
		s.fail(pipeline.StageHarvest, err)
	}
}

func printHarvest(res *pipeline.HarvestResult) {
	ui.Field("Run ID", ui.DimText(res.RunID))
	ui.Field("Files", res.Files)
	ui.Field("Records read", res.TotalRecords)
	ui.Field("Records kept", res.ProcessedRecords)
	ui.Field("Records skipped", res.SkippedRecords)
	ui.Field("Repositories", res.UniqueRepos)
	ui.Field("From cache", res.CachedRepos)
	ui.Field("Conventional", fmt.Sprintf("%d (%s)", res.ConventionalRepos, ui.Percent(res.AdoptionRate)))
	ui.Field("Duration", res.Duration.Round(time.Millisecond))
	for _, f := range res.FailedFiles {
		ui.Warningf("Could not read %s", f)
	}
	if res.Interrupted {
		if res.OutputPath == "" {
			ui.Warning("Interrupted before any commit was kept")
			return
		}
		ui.Warningf("Interrupted; partial output written to %s", res.OutputPath)
		return
	}
	ui.Successf("Wrote %s", res.OutputPath)
}
