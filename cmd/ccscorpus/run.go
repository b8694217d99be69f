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
	"slices"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccscorpus/internal/errors"
	"github.com/kraklabs/ccscorpus/internal/ui"
	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

// runPipeline executes the 'run' command: every stage in order, each one
// reading the file the previous one wrote.
func runPipeline(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("run", flag.ExitOnError)
	skip := fs.StringSlice("skip", cfg.Pipeline.Skip, "Stages to skip; their outputs must already exist ("+strings.Join(pipeline.Stages, ", ")+")")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus run [options]

Description:
  Run harvest, classify, filter-repos, extract, adoption, split, convert and
  stats in order with the paths and thresholds of ccscorpus.yaml. All stages
  share one run ID. The run stops at the first failing stage; because caches
  are saved as they fill, re-running after an interrupt skips finished API
  work.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus run
  ccscorpus run --skip harvest,adoption
  ccscorpus --json --metrics-addr :9090 run > run.json
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	for _, stage := range *skip {
		if !slices.Contains(pipeline.Stages, stage) {
			errors.FatalError(errors.NewInputError("Unknown stage "+stage, "",
				"Valid stages: "+strings.Join(pipeline.Stages, ", ")), globals.JSON)
		}
	}

	s := newSession(globals)
	defer s.cancel()

	runCfg := newRunConfig(cfg, s)
	for _, stage := range *skip {
		runCfg.Skip[stage] = true
	}

	if !globals.Quiet {
		ui.Header("Curating Conventional Commits dataset")
	}
	res, err := pipeline.Run(s.ctx, runCfg, s.logger)
	s.emit(res, func() { printRun(res, runCfg.Skip) })
	if err != nil {
		s.fail(failedStage(res, runCfg.Skip), err)
	}
}

// newRunConfig chains the stage paths from the configuration.
func newRunConfig(cfg *Config, s *session) pipeline.RunConfig {
	client := newGitHubClient(cfg, s.logger)
	p := cfg.Pipeline
	harvested := cfg.Output(cfg.Paths.Harvested)
	trueRepos := cfg.Output(cfg.Paths.TrueRepos)
	curated := cfg.Output(cfg.Paths.Curated)
	splitDir := cfg.Output(cfg.Paths.SplitDir)

	return pipeline.RunConfig{
		Options: s.opts,
		Harvest: pipeline.HarvestConfig{
			InputDir:   cfg.Paths.RawDir,
			OutputPath: harvested,
			CachePath:  cfg.Output(cfg.Paths.VerdictCache),
			Keyword:    p.Keyword,
			Checker:    client,
		},
		Classify: pipeline.ClassifyConfig{InputPath: harvested},
		Filter: pipeline.FilterConfig{
			InputPath:  harvested,
			OutputPath: trueRepos,
			TopN:       p.TopRepos,
		},
		Extract: pipeline.ExtractConfig{
			InputPath:  trueRepos,
			OutputPath: curated,
			MinRate:    p.MinRate,
		},
		Adoption: pipeline.AdoptionConfig{
			InputPath: curated,
			CachePath: cfg.Output(cfg.Paths.AdoptionCache),
			Keyword:   p.Keyword,
			Tracer:    client,
		},
		Split: pipeline.SplitConfig{
			InputPath:      curated,
			OutputDir:      splitDir,
			TrainRatio:     p.TrainRatio,
			ValidRatio:     p.ValidRatio,
			OverwriteInput: p.OverwriteSplitInput,
		},
		Convert: pipeline.ConvertConfig{
			InputPath: splitDir,
			OutputDir: cfg.Output(cfg.Paths.JSONDir),
			Workers:   p.Workers,
		},
		Stats: pipeline.StatsConfig{
			InputPath: curated,
			OutputDir: cfg.Output(cfg.Paths.ReportDir),
			TopN:      p.StatsTopN,
		},
		Skip: make(map[string]bool),
	}
}

// failedStage is the first stage that neither completed nor was skipped.
func failedStage(res *pipeline.RunResult, skip map[string]bool) string {
	for _, stage := range pipeline.Stages {
		if skip[stage] || (res != nil && slices.Contains(res.Completed, stage)) {
			continue
		}
		return stage
	}
	return "run"
}

func printRun(res *pipeline.RunResult, skip map[string]bool) {
	if res == nil {
		return
	}
	section := func(stage string, print func()) {
		fmt.Fprintln(ui.Out)
		ui.SubHeader(stageDescription(stage))
		print()
	}
	if r := res.Harvest; r != nil {
		section(pipeline.StageHarvest, func() { printHarvest(r) })
	}
	if r := res.Classify; r != nil {
		section(pipeline.StageClassify, func() { printClassify(r) })
	}
	if r := res.Filter; r != nil {
		section(pipeline.StageFilterRepos, func() { printFilter(r) })
	}
	if r := res.Extract; r != nil {
		section(pipeline.StageExtract, func() { printExtract(r) })
	}
	if r := res.Adoption; r != nil {
		section(pipeline.StageAdoption, func() { printAdoption(r, "") })
	}
	if r := res.Split; r != nil {
		section(pipeline.StageSplit, func() { printSplit(r) })
	}
	if r := res.Convert; r != nil {
		section(pipeline.StageConvert, func() { printConvert(r) })
	}
	if r := res.Stats; r != nil {
		section(pipeline.StageStats, func() { printStats(r) })
	}

	fmt.Fprintln(ui.Out)
	for _, stage := range pipeline.Stages {
		if skip[stage] {
			ui.Infof("Skipped %s", stage)
		}
	}
	ui.Field("Run ID", ui.DimText(res.RunID))
	ui.Field("Completed", fmt.Sprintf("%d/%d stages", len(res.Completed), len(pipeline.Stages)))
	ui.Field("Duration", res.Duration.Round(time.Millisecond))
}
