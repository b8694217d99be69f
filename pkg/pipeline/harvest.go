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
	"path/filepath"
	"time"

	"github.com/kraklabs/ccscorpus/pkg/cache"
	"github.com/kraklabs/ccscorpus/pkg/ccs"
	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// HarvestConfig configures Harvest.
type HarvestConfig struct {
	Options

	// InputDir holds the raw commit-chronicle *.parquet files.
	InputDir string

	// OutputPath receives the retained records.
	OutputPath string

	// CachePath is the verdict cache file.
	CachePath string

	// Keyword marks adopting repositories (default: ccs.Keyword).
	Keyword string

	// Checker answers repository and code-search queries.
	Checker RepoChecker
}

// HarvestResult summarizes a Harvest run.
type HarvestResult struct {
	RunID             string        `json:"run_id"`
	Files             int           `json:"files"`
	FailedFiles       []string      `json:"failed_files,omitempty"`
	TotalRecords      int           `json:"total_records"`
	ProcessedRecords  int           `json:"processed_records"`
	SkippedRecords    int           `json:"skipped_records"`
	UniqueRepos       int           `json:"unique_repos"`
	CachedRepos       int           `json:"cached_repos"`
	ConventionalRepos int           `json:"conventional_repos"`
	AdoptionRate      float64       `json:"adoption_rate"`
	OutputPath        string        `json:"output_path,omitempty"`
	Interrupted       bool          `json:"interrupted,omitempty"`
	Duration          time.Duration `json:"duration_ns"`
}

// Harvest keeps the records of repositories that mention the keyword.
//
// Records with a blank repository or a blank message (after falling back to
// original_message) are skipped. Verdicts come from the cache when known and
// from the API otherwise; API failures count as a negative verdict. The
// cache is saved after every input file. A file that cannot be read is
// logged and skipped.
func Harvest(ctx context.Context, cfg HarvestConfig, logger *slog.Logger) (*HarvestResult, error) {
	start := time.Now()
	defer observeStage(StageHarvest, start)
	logger = loggerOrDefault(logger).With("stage", StageHarvest)

	if cfg.Checker == nil {
		return nil, fmt.Errorf("%w: harvest needs a repository checker", ErrInvalidConfig)
	}
	keyword := cfg.Keyword
	if keyword == "" {
		keyword = ccs.Keyword
	}

	files, err := dataset.ListFiles(cfg.InputDir, ".parquet", false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInput, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no .parquet files in %s", ErrNoInput, cfg.InputDir)
	}

	verdicts, err := cache.LoadVerdicts(cfg.CachePath, keyword, logger)
	if err != nil {
		return nil, err
	}

	res := &HarvestResult{RunID: cfg.runID(), Files: len(files)}
	checker := &verdictChecker{checker: cfg.Checker, cache: verdicts, keyword: keyword, logger: logger}
	seen := make(map[string]struct{})
	var kept []dataset.Commit
	progress := cfg.progress()

	logger.Info("harvest.start", "files", len(files), "cache", cfg.CachePath, "cached_repos", verdicts.Len())

files:
	for idx, path := range files {
		if ctx.Err() != nil {
			res.Interrupted = true
			break
		}
		logger.Info("harvest.file.start", "file", filepath.Base(path), "index", idx+1, "of", len(files))

		raw, err := dataset.ReadRawParquet(path)
		if err != nil {
			logger.Warn("harvest.file.error", "file", path, "err", err)
			res.FailedFiles = append(res.FailedFiles, path)
			continue
		}
		recordRead(StageHarvest, len(raw))

		progress.Start(filepath.Base(path), int64(len(raw)))
		for i := range raw {
			r := &raw[i]
			res.TotalRecords++
			progress.Add(1)

			if !ccs.IsValidMessage(r.Repo) || !ccs.IsValidMessage(r.EffectiveMessage()) {
				res.SkippedRecords++
				recordDropped(StageHarvest, "blank", 1)
				continue
			}
			seen[r.Repo] = struct{}{}

			ok, err := checker.check(ctx, r.Repo)
			if err != nil {
				progress.Finish()
				res.Interrupted = true
				break files
			}
			if !ok {
				res.SkippedRecords++
				recordDropped(StageHarvest, "repo", 1)
				continue
			}
			res.ProcessedRecords++
			kept = append(kept, r.ToCommit())
		}
		progress.Finish()

		if err := verdicts.Save(); err != nil {
			logger.Warn("harvest.cache.save.error", "err", err)
		}
		logger.Info("harvest.file.done", "file", filepath.Base(path), "retained_total", len(kept))
	}

	res.UniqueRepos = len(seen)
	res.CachedRepos = verdicts.Len()
	res.ConventionalRepos = verdicts.Conventional()
	res.AdoptionRate = ratio(res.ConventionalRepos, res.CachedRepos)

	if res.Interrupted {
		if err := verdicts.Save(); err != nil {
			logger.Warn("harvest.cache.save.error", "err", err)
		}
		if len(kept) > 0 {
			if err := dataset.WriteFile(cfg.OutputPath, kept); err != nil {
				return res, fmt.Errorf("write partial harvest: %w", err)
			}
			res.OutputPath = cfg.OutputPath
			recordWritten(StageHarvest, len(kept))
			logger.Warn("harvest.interrupted.partial", "records", len(kept), "output", cfg.OutputPath)
		}
		res.Duration = time.Since(start)
		return res, ctx.Err()
	}

	if len(kept) == 0 {
		logger.Warn("harvest.empty", "records", res.TotalRecords)
		res.Duration = time.Since(start)
		return res, fmt.Errorf("%w: no records of keyword repositories", ErrNoRecords)
	}

	if err := dataset.WriteFile(cfg.OutputPath, kept); err != nil {
		return res, fmt.Errorf("write harvest output: %w", err)
	}
	res.OutputPath = cfg.OutputPath
	recordWritten(StageHarvest, len(kept))
	res.Duration = time.Since(start)

	logger.Info("harvest.done",
		"records", res.TotalRecords,
		"retained", res.ProcessedRecords,
		"skipped", res.SkippedRecords,
		"conventional_repos", res.ConventionalRepos,
		"duration", res.Duration.String(),
	)
	return res, nil
}

// verdictChecker resolves keyword verdicts through the cache.
type verdictChecker struct {
	checker RepoChecker
	cache   *cache.VerdictCache
	keyword string
	logger  *slog.Logger
}

// check returns the verdict for repo. The only error it returns is a
// context error; API failures become negative, cached verdicts.
func (v *verdictChecker) check(ctx context.Context, repo string) (bool, error) {
	if ok, hit := v.cache.Get(repo); hit {
		recordCacheLookup("verdict", true)
		return ok, nil
	}
	recordCacheLookup("verdict", false)

	ok, err := checkRepository(ctx, v.checker, v.keyword, repo)
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	if err != nil {
		v.logger.Warn("harvest.repo.error", "repo", repo, "err", err)
		ok = false
	}
	v.cache.Set(repo, ok)
	recordVerdict(ok)
	v.logger.Debug("harvest.repo.verdict", "repo", repo, "conventional", ok)
	return ok, nil
}

// checkRepository reports whether repo exists and mentions keyword.
func checkRepository(ctx context.Context, checker RepoChecker, keyword, repo string) (bool, error) {
	exists, err := checker.RepoExists(ctx, repo)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	res, err := checker.SearchCode(ctx, keyword, repo, 1)
	if err != nil {
		return false, err
	}
	return res.TotalCount > 0, nil
}

// isCanceled reports whether err stems from context cancellation.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
