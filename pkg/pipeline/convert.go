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
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// DefaultConvertWorkers bounds concurrent conversions.
const DefaultConvertWorkers = 4

// ConvertConfig configures Convert.
type ConvertConfig struct {
	Options

	// InputPath is a Parquet file or a directory searched recursively.
	InputPath string

	OutputDir string

	// Workers bounds concurrent conversions (default DefaultConvertWorkers).
	Workers int
}

// ConvertedFile is one converted file.
type ConvertedFile struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Records int    `json:"records"`
}

// ConvertResult summarizes a Convert run.
type ConvertResult struct {
	RunID   string          `json:"run_id"`
	Files   []ConvertedFile `json:"files"`
	Records int             `json:"records"`
}

// Convert writes every Parquet input as JSON Lines <name>.json in
// OutputDir. Directory inputs keep their relative layout.
func Convert(ctx context.Context, cfg ConvertConfig, logger *slog.Logger) (*ConvertResult, error) {
	defer observeStage(StageConvert, time.Now())
	logger = loggerOrDefault(logger).With("stage", StageConvert)

	info, err := os.Stat(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNoInput, cfg.InputPath, err)
	}

	type job struct{ in, out string }
	var jobs []job
	if info.IsDir() {
		files, err := dataset.ListFiles(cfg.InputPath, ".parquet", true)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoInput, err)
		}
		for _, f := range files {
			rel, err := filepath.Rel(cfg.InputPath, f)
			if err != nil {
				return nil, fmt.Errorf("relative path of %s: %w", f, err)
			}
			jobs = append(jobs, job{in: f, out: filepath.Join(cfg.OutputDir, filepath.Dir(rel), dataset.Stem(f)+".json")})
		}
	} else {
		jobs = append(jobs, job{in: cfg.InputPath, out: filepath.Join(cfg.OutputDir, dataset.Stem(cfg.InputPath)+".json")})
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("%w: no .parquet files under %s", ErrNoInput, cfg.InputPath)
	}

	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultConvertWorkers
	}

	res := &ConvertResult{RunID: cfg.runID()}
	var mu sync.Mutex
	progress := cfg.progress()
	progress.Start("converting", int64(len(jobs)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			commits, err := dataset.ReadParquet(j.in)
			if err != nil {
				return fmt.Errorf("read %s: %w", j.in, err)
			}
			recordRead(StageConvert, len(commits))
			if err := dataset.WriteJSONL(j.out, commits); err != nil {
				return fmt.Errorf("write %s: %w", j.out, err)
			}
			recordWritten(StageConvert, len(commits))
			logger.Info("convert.file", "input", j.in, "output", j.out, "records", len(commits))

			mu.Lock()
			res.Files = append(res.Files, ConvertedFile{Input: j.in, Output: j.out, Records: len(commits)})
			res.Records += len(commits)
			mu.Unlock()
			progress.Add(1)
			return nil
		})
	}
	err = g.Wait()
	progress.Finish()
	if err != nil {
		return nil, err
	}

	sort.Slice(res.Files, func(a, b int) bool { return res.Files[a].Input < res.Files[b].Input })
	logger.Info("convert.done", "files", len(res.Files), "records", res.Records)
	return res, nil
}
