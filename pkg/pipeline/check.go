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

	"github.com/kraklabs/ccscorpus/internal/output"
	"github.com/kraklabs/ccscorpus/pkg/cache"
	"github.com/kraklabs/ccscorpus/pkg/ccs"
)

// CheckConfig configures CheckRepos.
type CheckConfig struct {
	Options

	// Repos to check, owner/name.
	Repos []string

	// Keyword marks adopting repositories (default: ccs.Keyword).
	Keyword string

	// OutputPath receives the results file when set.
	OutputPath string

	// Checker answers repository and code-search queries.
	Checker RepoChecker
}

// CheckResult is the outcome of a batch keyword check. It is also the
// layout of the results file.
type CheckResult struct {
	RunID             string          `json:"run_id"`
	Method            string          `json:"method"`
	Keyword           string          `json:"keyword"`
	Timestamp         string          `json:"timestamp"`
	TotalRepos        int             `json:"total_repos"`
	ConventionalRepos int             `json:"conventional_repos"`
	Results           map[string]bool `json:"results"`

	// Order is the check order, for display.
	Order []string `json:"-"`
}

// CheckRepos checks each repository for the keyword. Failures count as
// negative.
func CheckRepos(ctx context.Context, cfg CheckConfig, logger *slog.Logger) (*CheckResult, error) {
	defer observeStage(StageCheck, time.Now())
	logger = loggerOrDefault(logger).With("stage", StageCheck)

	if cfg.Checker == nil {
		return nil, fmt.Errorf("%w: check needs a repository checker", ErrInvalidConfig)
	}
	if len(cfg.Repos) == 0 {
		return nil, fmt.Errorf("%w: no repositories given", ErrNoInput)
	}
	keyword := cfg.Keyword
	if keyword == "" {
		keyword = ccs.Keyword
	}

	res := &CheckResult{
		RunID:   cfg.runID(),
		Method:  cache.VerdictMethod,
		Keyword: keyword,
		Results: make(map[string]bool, len(cfg.Repos)),
	}
	progress := cfg.progress()
	progress.Start("checking repositories", int64(len(cfg.Repos)))
	defer progress.Finish()

	for i, repo := range cfg.Repos {
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		ok, err := checkRepository(ctx, cfg.Checker, keyword, repo)
		if err != nil {
			if isCanceled(err) {
				return res, err
			}
			logger.Warn("check.repo.error", "repo", repo, "err", err)
			ok = false
		}
		if _, dup := res.Results[repo]; !dup {
			res.Order = append(res.Order, repo)
		}
		res.Results[repo] = ok
		recordVerdict(ok)
		progress.Add(1)
		logger.Info("check.repo", "index", i+1, "of", len(cfg.Repos), "repo", repo, "conventional", ok)
	}

	res.TotalRepos = len(res.Results)
	for _, ok := range res.Results {
		if ok {
			res.ConventionalRepos++
		}
	}
	res.Timestamp = now()

	if cfg.OutputPath != "" {
		if err := output.WriteFile(cfg.OutputPath, res); err != nil {
			return res, fmt.Errorf("write check results: %w", err)
		}
	}
	return res, nil
}
