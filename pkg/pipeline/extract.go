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
	"path/filepath"
	"time"

	"github.com/kraklabs/ccscorpus/internal/output"
	"github.com/kraklabs/ccscorpus/pkg/ccs"
	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// DefaultMinRate is the default Extract compliance threshold.
const DefaultMinRate = 0.8

// ExtractConfig configures Extract.
type ExtractConfig struct {
	Options

	InputPath  string
	OutputPath string

	// MinRate is the exclusive lower bound on repository compliance
	// (default DefaultMinRate). Must be in [0, 1).
	MinRate float64

	// AnalysisPath defaults to <output stem>_analysis.json next to the
	// output file.
	AnalysisPath string
}

// ExtractStatistics is the statistics block of the Extract analysis.
type ExtractStatistics struct {
	TotalRepos          int `json:"total_repos"`
	FilteredRepos       int `json:"filtered_repos"`
	RemovedRepos        int `json:"removed_repos"`
	TotalCommits        int `json:"total_commits"`
	CCSCommitsExtracted int `json:"ccs_commits_extracted"`
}

// ExtractResult summarizes an Extract run.
type ExtractResult struct {
	RunID      string            `json:"run_id"`
	MinRate    float64           `json:"min_ccs_rate"`
	Statistics ExtractStatistics `json:"statistics"`

	// InputRecords counts the commits read. Statistics.TotalCommits counts
	// the commits written, as the analysis file reports it.
	InputRecords int `json:"input_records"`

	// Repos holds the qualifying repositories by rate descending.
	Repos []RepoStats `json:"repos"`

	// UntypedCommits counts extracted commits whose header yielded no type.
	UntypedCommits int `json:"untyped_commits"`

	OutputPath   string `json:"output_path,omitempty"`
	AnalysisPath string `json:"analysis_path,omitempty"`
}

type extractCriteria struct {
	MinCCSRate  float64 `json:"min_ccs_rate"`
	Description string  `json:"description"`
}

type extractAnalysis struct {
	RunID          string               `json:"run_id"`
	Timestamp      string               `json:"timestamp"`
	FilterCriteria extractCriteria      `json:"filter_criteria"`
	Statistics     ExtractStatistics    `json:"statistics"`
	HighRateRepos  map[string]RepoStats `json:"high_rate_repos"`
}

// Extract keeps the compliant commits of repositories whose compliance rate
// exceeds MinRate and fills commit_type and commit_scope. Nothing is written
// when no repository qualifies.
func Extract(ctx context.Context, cfg ExtractConfig, logger *slog.Logger) (*ExtractResult, error) {
	defer observeStage(StageExtract, time.Now())
	logger = loggerOrDefault(logger).With("stage", StageExtract)

	if err := requireFile(cfg.InputPath); err != nil {
		return nil, err
	}
	minRate := cfg.MinRate
	if minRate == 0 {
		minRate = DefaultMinRate
	}
	if minRate < 0 || minRate >= 1 {
		return nil, fmt.Errorf("%w: min rate %v outside [0, 1)", ErrInvalidConfig, minRate)
	}

	commits, err := dataset.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read extract input: %w", err)
	}
	recordRead(StageExtract, len(commits))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats, err := repoStats(commits)
	if err != nil {
		return nil, err
	}

	res := &ExtractResult{RunID: cfg.runID(), MinRate: minRate, InputRecords: len(commits)}
	keep := make(map[string]struct{})
	for _, s := range stats {
		if s.CCSRate > minRate {
			keep[s.Repo] = struct{}{}
			res.Repos = append(res.Repos, s)
		}
	}
	res.Repos = rankByRate(res.Repos)

	var extracted []dataset.Commit
	for i := range commits {
		c := commits[i]
		if _, ok := keep[c.Repo]; !ok || !c.Compliant() {
			continue
		}
		if h, ok := ccs.ParseHeader(c.Message); ok {
			c.CommitType = dataset.StringPtr(h.Type)
			c.CommitScope = dataset.StringPtr(h.Scope)
		} else {
			c.CommitType, c.CommitScope = nil, nil
			res.UntypedCommits++
		}
		extracted = append(extracted, c)
	}

	res.Statistics = ExtractStatistics{
		TotalRepos:          len(stats),
		FilteredRepos:       len(keep),
		RemovedRepos:        len(stats) - len(keep),
		TotalCommits:        len(extracted),
		CCSCommitsExtracted: len(extracted),
	}
	recordDropped(StageExtract, "rate", len(commits)-len(extracted))

	if len(keep) == 0 || len(extracted) == 0 {
		logger.Warn("extract.empty", "min_rate", minRate, "repos", len(stats))
		return res, fmt.Errorf("%w: no repository has compliance above %.0f%%", ErrNoRecords, minRate*100)
	}

	if err := dataset.WriteFile(cfg.OutputPath, extracted); err != nil {
		return nil, fmt.Errorf("write extract output: %w", err)
	}
	res.OutputPath = cfg.OutputPath
	recordWritten(StageExtract, len(extracted))

	analysisPath := cfg.AnalysisPath
	if analysisPath == "" {
		analysisPath = filepath.Join(filepath.Dir(cfg.OutputPath), dataset.Stem(cfg.OutputPath)+"_analysis.json")
	}
	high := make(map[string]RepoStats, len(res.Repos))
	for _, s := range res.Repos {
		repo := s.Repo
		s.Repo = ""
		high[repo] = s
	}
	analysis := extractAnalysis{
		RunID:     res.RunID,
		Timestamp: now(),
		FilterCriteria: extractCriteria{
			MinCCSRate:  minRate,
			Description: fmt.Sprintf("Retained repositories with ccs_rate > %.0f%%", minRate*100),
		},
		Statistics:    res.Statistics,
		HighRateRepos: high,
	}
	if err := output.WriteFile(analysisPath, analysis); err != nil {
		return nil, fmt.Errorf("write extract analysis: %w", err)
	}
	res.AnalysisPath = analysisPath

	logger.Info("extract.done",
		"repos_kept", res.Statistics.FilteredRepos,
		"repos_removed", res.Statistics.RemovedRepos,
		"commits", res.Statistics.CCSCommitsExtracted,
		"untyped", res.UntypedCommits,
	)
	return res, nil
}
