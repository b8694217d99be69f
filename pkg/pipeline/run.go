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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Stages lists the curation stages in execution order.
var Stages = []string{
	StageHarvest, StageClassify, StageFilterRepos, StageExtract,
	StageAdoption, StageSplit, StageConvert, StageStats,
}

// RunConfig configures Run. Each stage config is used as is, except that
// its Options are replaced by the run's.
type RunConfig struct {
	Options

	Harvest  HarvestConfig
	Classify ClassifyConfig
	Filter   FilterConfig
	Extract  ExtractConfig
	Adoption AdoptionConfig
	Split    SplitConfig
	Convert  ConvertConfig
	Stats    StatsConfig

	// Skip names stages to leave out; their outputs must already exist.
	Skip map[string]bool
}

// RunResult collects the results of the stages that ran.
type RunResult struct {
	RunID    string          `json:"run_id"`
	Harvest  *HarvestResult  `json:"harvest,omitempty"`
	Classify *ClassifyResult `json:"classify,omitempty"`
	Filter   *FilterResult   `json:"filter_repos,omitempty"`
	Extract  *ExtractResult  `json:"extract,omitempty"`
	Adoption *AdoptionResult `json:"adoption,omitempty"`
	Split    *SplitResult    `json:"split,omitempty"`
	Convert  *ConvertResult  `json:"convert,omitempty"`
	Stats    *StatsResult    `json:"stats,omitempty"`

	// Completed lists the stages that finished, in order.
	Completed []string      `json:"completed"`
	Duration  time.Duration `json:"duration_ns"`
}

// Run executes the stages in order under one run id. It stops at the first
// failing stage and returns the results gathered so far with the error.
func Run(ctx context.Context, cfg RunConfig, logger *slog.Logger) (*RunResult, error) {
	start := time.Now()
	logger = loggerOrDefault(logger)
	opts := Options{RunID: cfg.runID(), Progress: cfg.Progress}
	res := &RunResult{RunID: opts.RunID}

	steps := []struct {
		name string
		run  func() error
	}{
		{StageHarvest, func() (err error) {
			c := cfg.Harvest
			c.Options = opts
			res.Harvest, err = Harvest(ctx, c, logger)
			return err
		}},
		{StageClassify, func() (err error) {
			c := cfg.Classify
			c.Options = opts
			res.Classify, err = Classify(ctx, c, logger)
			return err
		}},
		{StageFilterRepos, func() (err error) {
			c := cfg.Filter
			c.Options = opts
			res.Filter, err = FilterRepos(ctx, c, logger)
			return err
		}},
		{StageExtract, func() (err error) {
			c := cfg.Extract
			c.Options = opts
			res.Extract, err = Extract(ctx, c, logger)
			return err
		}},
		{StageAdoption, func() (err error) {
			c := cfg.Adoption
			c.Options = opts
			res.Adoption, err = Adoption(ctx, c, logger)
			return err
		}},
		{StageSplit, func() (err error) {
			c := cfg.Split
			c.Options = opts
			res.Split, err = Split(ctx, c, logger)
			return err
		}},
		{StageConvert, func() (err error) {
			c := cfg.Convert
			c.Options = opts
			res.Convert, err = Convert(ctx, c, logger)
			return err
		}},
		{StageStats, func() (err error) {
			c := cfg.Stats
			c.Options = opts
			res.Stats, err = Stats(ctx, c, logger)
			return err
		}},
	}

	logger.Info("run.start", "run_id", opts.RunID)
	for _, step := range steps {
		if cfg.Skip[step.name] {
			logger.Info("run.stage.skip", "stage", step.name)
			continue
		}
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, err
		}
		logger.Info("run.stage.start", "stage", step.name)
		if err := step.run(); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("stage %s: %w", step.name, err)
		}
		res.Completed = append(res.Completed, step.name)
	}
	res.Duration = time.Since(start)
	logger.Info("run.done", "run_id", opts.RunID, "stages", len(res.Completed), "duration", res.Duration.String())
	return res, nil
}
