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
	"sort"
	"time"

	"github.com/kraklabs/ccscorpus/internal/output"
	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// RepoStats counts the classified commits of one repository.
type RepoStats struct {
	Repo          string  `json:"repo,omitempty"`
	TotalCommits  int     `json:"total_commits"`
	CCSCommits    int     `json:"ccs_commits"`
	NonCCSCommits int     `json:"non_ccs_commits"`
	CCSRate       float64 `json:"ccs_rate"`
}

// RepoCompliance is the FilterRepos verdict for one repository.
type RepoCompliance struct {
	RepoStats
	IsTrueCCS bool `json:"is_true_ccs"`
}

// repoStats computes per-repository compliance in order of first
// appearance. Every commit must be classified.
func repoStats(commits []dataset.Commit) ([]RepoStats, error) {
	groups := dataset.GroupByRepo(commits)
	stats := make([]RepoStats, 0, len(groups))
	for _, g := range groups {
		s := RepoStats{Repo: g.Repo, TotalCommits: len(g.Indexes)}
		for _, i := range g.Indexes {
			c := &commits[i]
			if c.IsCCS == nil {
				return nil, fmt.Errorf("%w: is_CCS is null for %s %s (run classify first)", ErrMissingColumn, c.Repo, c.Hash)
			}
			if c.Compliant() {
				s.CCSCommits++
			}
		}
		s.NonCCSCommits = s.TotalCommits - s.CCSCommits
		s.CCSRate = ratio(s.CCSCommits, s.TotalCommits)
		stats = append(stats, s)
	}
	return stats, nil
}

// rankByRate orders stats by compliance rate descending, then name.
func rankByRate(stats []RepoStats) []RepoStats {
	ranked := append([]RepoStats(nil), stats...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CCSRate != ranked[j].CCSRate {
			return ranked[i].CCSRate > ranked[j].CCSRate
		}
		return ranked[i].Repo < ranked[j].Repo
	})
	return ranked
}

// FilterConfig configures FilterRepos.
type FilterConfig struct {
	Options

	InputPath  string
	OutputPath string

	// AnalysisPath receives the per-repository analysis when set.
	AnalysisPath string

	// TopN bounds Result.Top (default 10).
	TopN int
}

// FilterStatistics is the statistics block of the FilterRepos analysis.
type FilterStatistics struct {
	TotalRecords    int `json:"total_records"`
	TotalRepos      int `json:"total_repos"`
	TrueCCSRepos    int `json:"true_ccs_repos"`
	FalseCCSRepos   int `json:"false_ccs_repos"`
	FilteredRecords int `json:"filtered_records"`
	RemovedRecords  int `json:"removed_records"`
}

// FilterResult summarizes a FilterRepos run.
type FilterResult struct {
	RunID      string           `json:"run_id"`
	Statistics FilterStatistics `json:"statistics"`

	// Repos holds every repository in order of first appearance.
	Repos []RepoCompliance `json:"repos"`

	// Top holds the TopN kept repositories by compliance rate.
	Top []RepoStats `json:"top"`

	// Dropped lists the repositories without a compliant commit, sorted.
	Dropped []string `json:"dropped"`

	OutputPath   string `json:"output_path"`
	AnalysisPath string `json:"analysis_path,omitempty"`
}

type filterAnalysis struct {
	RunID       string                    `json:"run_id"`
	Timestamp   string                    `json:"timestamp"`
	Statistics  FilterStatistics          `json:"statistics"`
	RepoDetails map[string]RepoCompliance `json:"repo_details"`
}

// FilterRepos drops the repositories without a single compliant commit.
func FilterRepos(ctx context.Context, cfg FilterConfig, logger *slog.Logger) (*FilterResult, error) {
	defer observeStage(StageFilterRepos, time.Now())
	logger = loggerOrDefault(logger).With("stage", StageFilterRepos)

	if err := requireFile(cfg.InputPath); err != nil {
		return nil, err
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = 10
	}

	commits, err := dataset.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read filter input: %w", err)
	}
	recordRead(StageFilterRepos, len(commits))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	stats, err := repoStats(commits)
	if err != nil {
		return nil, err
	}

	res := &FilterResult{RunID: cfg.runID(), OutputPath: cfg.OutputPath}
	keep := make(map[string]struct{})
	var kept []RepoStats
	for _, s := range stats {
		rc := RepoCompliance{RepoStats: s, IsTrueCCS: s.CCSCommits > 0}
		res.Repos = append(res.Repos, rc)
		if rc.IsTrueCCS {
			keep[s.Repo] = struct{}{}
			kept = append(kept, s)
		} else {
			res.Dropped = append(res.Dropped, s.Repo)
		}
	}
	sort.Strings(res.Dropped)

	filtered := dataset.FilterRepos(commits, keep)
	res.Statistics = FilterStatistics{
		TotalRecords:    len(commits),
		TotalRepos:      len(stats),
		TrueCCSRepos:    len(keep),
		FalseCCSRepos:   len(stats) - len(keep),
		FilteredRecords: len(filtered),
		RemovedRecords:  len(commits) - len(filtered),
	}
	res.Top = rankByRate(kept)
	if len(res.Top) > topN {
		res.Top = res.Top[:topN]
	}

	if err := dataset.WriteFile(cfg.OutputPath, filtered); err != nil {
		return nil, fmt.Errorf("write filter output: %w", err)
	}
	recordWritten(StageFilterRepos, len(filtered))
	recordDropped(StageFilterRepos, "repo", res.Statistics.RemovedRecords)

	if cfg.AnalysisPath != "" {
		details := make(map[string]RepoCompliance, len(res.Repos))
		for _, rc := range res.Repos {
			repo := rc.Repo
			rc.Repo = ""
			details[repo] = rc
		}
		analysis := filterAnalysis{
			RunID:       res.RunID,
			Timestamp:   now(),
			Statistics:  res.Statistics,
			RepoDetails: details,
		}
		if err := output.WriteFile(cfg.AnalysisPath, analysis); err != nil {
			return nil, fmt.Errorf("write filter analysis: %w", err)
		}
		res.AnalysisPath = cfg.AnalysisPath
	}

	logger.Info("filter.done",
		"repos", res.Statistics.TotalRepos,
		"true_ccs_repos", res.Statistics.TrueCCSRepos,
		"records_kept", res.Statistics.FilteredRecords,
		"records_removed", res.Statistics.RemovedRecords,
	)
	return res, nil
}
