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
	"math"
	"path/filepath"
	"sort"
	"time"

	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// Split file names inside SplitConfig.OutputDir.
const (
	TrainFile = "ccs_commits_train.parquet"
	ValidFile = "ccs_commits_valid.parquet"
	TestFile  = "ccs_commits_test.parquet"
)

// Default split ratios; the test split takes the remainder.
const (
	DefaultTrainRatio = 0.8
	DefaultValidRatio = 0.1
)

// SplitConfig configures Split.
type SplitConfig struct {
	Options

	InputPath string
	OutputDir string

	TrainRatio float64
	ValidRatio float64

	// OverwriteInput replaces the input with its common-repository subset,
	// sorted by date.
	OverwriteInput bool
}

// SplitSizes are the record counts of the three splits.
type SplitSizes struct {
	Train int `json:"train"`
	Valid int `json:"valid"`
	Test  int `json:"test"`
}

// Total returns the sum of the split sizes.
func (s SplitSizes) Total() int { return s.Train + s.Valid + s.Test }

// RepoDistribution counts repositories by the splits they appear in.
type RepoDistribution struct {
	OnlyTrain int `json:"only_train"`
	OnlyValid int `json:"only_valid"`
	OnlyTest  int `json:"only_test"`
	Common    int `json:"common"`
	Total     int `json:"total"`
}

// SplitResult summarizes a Split run.
type SplitResult struct {
	RunID     string           `json:"run_id"`
	Initial   SplitSizes       `json:"initial"`
	Filtered  SplitSizes       `json:"filtered"`
	Repos     RepoDistribution `json:"repos"`
	Retention float64          `json:"retention"`

	TrainPath string `json:"train_path"`
	ValidPath string `json:"valid_path"`
	TestPath  string `json:"test_path"`
}

// Split orders the records by commit date, cuts them into train, valid and
// test, and keeps only the repositories present in all three.
func Split(ctx context.Context, cfg SplitConfig, logger *slog.Logger) (*SplitResult, error) {
	defer observeStage(StageSplit, time.Now())
	logger = loggerOrDefault(logger).With("stage", StageSplit)

	if err := requireFile(cfg.InputPath); err != nil {
		return nil, err
	}
	train, valid := cfg.TrainRatio, cfg.ValidRatio
	if train == 0 && valid == 0 {
		train, valid = DefaultTrainRatio, DefaultValidRatio
	}
	if train <= 0 || valid < 0 || train+valid > 1 {
		return nil, fmt.Errorf("%w: train %v and valid %v must be positive and sum to at most 1", ErrInvalidConfig, train, valid)
	}

	commits, err := dataset.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read split input: %w", err)
	}
	recordRead(StageSplit, len(commits))
	if len(commits) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrNoRecords, cfg.InputPath)
	}

	sorted, err := sortByDate(commits)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(sorted)
	trainEnd := int(math.Floor(float64(n) * train))
	validEnd := int(math.Floor(float64(n) * (train + valid)))
	parts := [3][]dataset.Commit{sorted[:trainEnd], sorted[trainEnd:validEnd], sorted[validEnd:]}

	res := &SplitResult{
		RunID:   cfg.runID(),
		Initial: SplitSizes{Train: len(parts[0]), Valid: len(parts[1]), Test: len(parts[2])},
	}

	sets := [3]map[string]struct{}{
		dataset.RepoSet(parts[0]),
		dataset.RepoSet(parts[1]),
		dataset.RepoSet(parts[2]),
	}
	common := make(map[string]struct{})
	all := make(map[string]struct{})
	for _, set := range sets {
		for repo := range set {
			all[repo] = struct{}{}
		}
	}
	for repo := range all {
		_, inTrain := sets[0][repo]
		_, inValid := sets[1][repo]
		_, inTest := sets[2][repo]
		switch {
		case inTrain && inValid && inTest:
			common[repo] = struct{}{}
		case inTrain && !inValid && !inTest:
			res.Repos.OnlyTrain++
		case inValid && !inTrain && !inTest:
			res.Repos.OnlyValid++
		case inTest && !inTrain && !inValid:
			res.Repos.OnlyTest++
		}
	}
	res.Repos.Common = len(common)
	res.Repos.Total = len(all)
	if len(common) == 0 {
		logger.Warn("split.no_common_repos", "repos", len(all))
	}

	for i := range parts {
		parts[i] = dataset.FilterRepos(parts[i], common)
	}
	res.Filtered = SplitSizes{Train: len(parts[0]), Valid: len(parts[1]), Test: len(parts[2])}
	res.Retention = ratio(res.Filtered.Total(), n)
	recordDropped(StageSplit, "repo", n-res.Filtered.Total())

	paths := [3]string{
		filepath.Join(cfg.OutputDir, TrainFile),
		filepath.Join(cfg.OutputDir, ValidFile),
		filepath.Join(cfg.OutputDir, TestFile),
	}
	for i, path := range paths {
		if err := dataset.WriteParquet(path, parts[i]); err != nil {
			return nil, fmt.Errorf("write split %s: %w", filepath.Base(path), err)
		}
		recordWritten(StageSplit, len(parts[i]))
	}
	res.TrainPath, res.ValidPath, res.TestPath = paths[0], paths[1], paths[2]

	if cfg.OverwriteInput {
		subset := dataset.FilterRepos(sorted, common)
		if err := dataset.WriteFile(cfg.InputPath, subset); err != nil {
			return nil, fmt.Errorf("overwrite split input: %w", err)
		}
		logger.Info("split.input.overwritten", "path", cfg.InputPath, "records", len(subset))
	}

	logger.Info("split.done",
		"train", res.Filtered.Train,
		"valid", res.Filtered.Valid,
		"test", res.Filtered.Test,
		"common_repos", res.Repos.Common,
		"retention", fmt.Sprintf("%.2f%%", res.Retention*100),
	)
	return res, nil
}

// sortByDate returns the commits ordered by date, ties in input order.
func sortByDate(commits []dataset.Commit) ([]dataset.Commit, error) {
	times := make([]time.Time, len(commits))
	for i := range commits {
		t, ok := commits[i].Time()
		if !ok {
			return nil, fmt.Errorf("%w: %q (%s %s)", ErrInvalidDate, commits[i].Date, commits[i].Repo, commits[i].Hash)
		}
		times[i] = t
	}
	idx := make([]int, len(commits))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return times[idx[a]].Before(times[idx[b]]) })

	sorted := make([]dataset.Commit, len(commits))
	for i, j := range idx {
		sorted[i] = commits[j]
	}
	return sorted, nil
}
