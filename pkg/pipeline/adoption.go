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
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/ccscorpus/pkg/cache"
	"github.com/kraklabs/ccscorpus/pkg/ccs"
	"github.com/kraklabs/ccscorpus/pkg/dataset"
	"github.com/kraklabs/ccscorpus/pkg/github"
)

// AdoptionConfig configures Adoption.
type AdoptionConfig struct {
	Options

	InputPath string

	// OutputPath defaults to InputPath.
	OutputPath string

	// CachePath is the adoption cache file.
	CachePath string

	// Keyword marks adopting repositories (default: ccs.Keyword).
	Keyword string

	// Tracer answers the search, history and diff queries.
	Tracer HistoryTracer
}

// AdoptionResult summarizes an Adoption run.
type AdoptionResult struct {
	RunID string `json:"run_id"`

	Repos       int      `json:"repos"`
	CacheHits   int      `json:"cache_hits"`
	Resolved    int      `json:"resolved"`
	NoAdoption  int      `json:"no_adoption"`
	FailedRepos []string `json:"failed_repos,omitempty"`

	TotalRecords   int `json:"total_records"`
	KeptRecords    int `json:"kept_records"`
	BeforeAdoption int `json:"before_adoption"`
	InvalidRecords int `json:"invalid_records"`

	OutputPath  string `json:"output_path,omitempty"`
	Interrupted bool   `json:"interrupted,omitempty"`
}

// Adoption drops the commits each repository made before it adopted the
// convention.
//
// Adoption dates are taken from the cache when present and traced through
// the API otherwise; the cache is saved after every traced repository. A
// repository whose trace fails is logged and keeps all of its commits for
// this run. On cancellation the cache is saved and nothing is written.
func Adoption(ctx context.Context, cfg AdoptionConfig, logger *slog.Logger) (*AdoptionResult, error) {
	defer observeStage(StageAdoption, time.Now())
	logger = loggerOrDefault(logger).With("stage", StageAdoption)

	if cfg.Tracer == nil {
		return nil, fmt.Errorf("%w: adoption needs a history tracer", ErrInvalidConfig)
	}
	if err := requireFile(cfg.InputPath); err != nil {
		return nil, err
	}
	out := cfg.OutputPath
	if out == "" {
		out = cfg.InputPath
	}
	keyword := cfg.Keyword
	if keyword == "" {
		keyword = ccs.Keyword
	}

	commits, err := dataset.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read adoption input: %w", err)
	}
	recordRead(StageAdoption, len(commits))

	adoptions, err := cache.LoadAdoption(cfg.CachePath, logger)
	if err != nil {
		return nil, err
	}

	byRepo := make(map[string][]int)
	res := &AdoptionResult{RunID: cfg.runID(), TotalRecords: len(commits)}
	for i := range commits {
		repo := strings.TrimSpace(commits[i].Repo)
		if repo == "" {
			res.InvalidRecords++
			continue
		}
		byRepo[repo] = append(byRepo[repo], i)
	}
	repos := make([]string, 0, len(byRepo))
	for repo := range byRepo {
		repos = append(repos, repo)
	}
	sort.Strings(repos)
	res.Repos = len(repos)

	tracer := &adoptionTracer{tracer: cfg.Tracer, keyword: keyword, logger: logger}
	dates := make(map[string]time.Time, len(repos))
	progress := cfg.progress()
	logger.Info("adoption.start", "repos", len(repos), "cache", cfg.CachePath, "cached_repos", adoptions.Len())
	progress.Start("tracing adoption", int64(len(repos)))

	for _, repo := range repos {
		if ctx.Err() != nil {
			break
		}
		progress.Add(1)

		if d, ok := adoptions.AdoptionDate(repo); ok {
			recordCacheLookup("adoption", true)
			res.CacheHits++
			dates[repo] = d
			continue
		}
		recordCacheLookup("adoption", false)

		date, err := tracer.resolve(ctx, repo)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("adoption.repo.error", "repo", repo, "err", err)
			res.FailedRepos = append(res.FailedRepos, repo)
			recordAdoption("error")
			continue
		}

		res.Resolved++
		adoptions.SetAdoption(repo, date, len(byRepo[repo]))
		if date != nil {
			dates[repo] = *date
			recordAdoption("found")
			logger.Info("adoption.repo.found", "repo", repo, "date", date.Format(cache.TimestampLayout))
		} else {
			res.NoAdoption++
			recordAdoption("none")
			logger.Info("adoption.repo.none", "repo", repo)
		}
		if err := adoptions.Save(); err != nil {
			logger.Warn("adoption.cache.save.error", "err", err)
		}
	}
	progress.Finish()

	if err := ctx.Err(); err != nil {
		res.Interrupted = true
		if err := adoptions.Save(); err != nil {
			logger.Warn("adoption.cache.save.error", "err", err)
		}
		logger.Warn("adoption.interrupted", "resolved", res.Resolved)
		return res, err
	}

	kept := make([]dataset.Commit, 0, len(commits))
	for _, repo := range repos {
		adopted, hasDate := dates[repo]
		n := 0
		for _, i := range byRepo[repo] {
			t, ok := commits[i].Time()
			if !ok {
				res.InvalidRecords++
				continue
			}
			if hasDate && t.Before(adopted) {
				res.BeforeAdoption++
				continue
			}
			kept = append(kept, commits[i])
			n++
		}
		adoptions.SetCounts(repo, len(byRepo[repo]), n)
	}
	res.KeptRecords = len(kept)
	recordDropped(StageAdoption, "before_adoption", res.BeforeAdoption)
	recordDropped(StageAdoption, "invalid", res.InvalidRecords)

	if err := adoptions.Save(); err != nil {
		logger.Warn("adoption.cache.save.error", "err", err)
	}
	if err := dataset.WriteFile(out, kept); err != nil {
		return nil, fmt.Errorf("write adoption output: %w", err)
	}
	res.OutputPath = out
	recordWritten(StageAdoption, len(kept))

	logger.Info("adoption.done",
		"repos", res.Repos,
		"cache_hits", res.CacheHits,
		"resolved", res.Resolved,
		"kept", res.KeptRecords,
		"before_adoption", res.BeforeAdoption,
		"invalid", res.InvalidRecords,
	)
	return res, nil
}

// adoptionTracer finds the commit that introduced the keyword.
type adoptionTracer struct {
	tracer  HistoryTracer
	keyword string
	logger  *slog.Logger
}

// resolve returns the earliest introduction date over every file that
// mentions the keyword, or nil when no file does.
func (a *adoptionTracer) resolve(ctx context.Context, repo string) (*time.Time, error) {
	found, err := a.tracer.SearchCode(ctx, a.keyword, repo, 0)
	if errors.Is(err, github.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var earliest *time.Time
	for _, path := range found.Paths() {
		d, err := a.tracePath(ctx, repo, path)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Warn("adoption.path.error", "repo", repo, "path", path, "err", err)
			continue
		}
		if d != nil && (earliest == nil || d.Before(*earliest)) {
			earliest = d
		}
	}
	return earliest, nil
}

// tracePath walks the history of path oldest-first and returns the date of
// the first commit whose diff adds a keyword line. Without such a commit it
// falls back to the oldest commit. nil when the path has no history.
func (a *adoptionTracer) tracePath(ctx context.Context, repo, path string) (*time.Time, error) {
	history, err := a.tracer.ListCommitsForPath(ctx, repo, path)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}

	for i := len(history) - 1; i >= 0; i-- {
		ref := history[i]
		diff, err := a.tracer.CommitDiff(ctx, repo, ref.SHA)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			a.logger.Debug("adoption.diff.error", "repo", repo, "sha", ref.SHA, "err", err)
			continue
		}
		if ccs.AddsLineContaining(diff, a.keyword) {
			d := ref.Date
			return &d, nil
		}
	}
	oldest := history[len(history)-1].Date
	return &oldest, nil
}
