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
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/kraklabs/ccscorpus/pkg/github"
)

// Stage names, used in logs, metrics and results.
const (
	StageHarvest     = "harvest"
	StageClassify    = "classify"
	StageFilterRepos = "filter-repos"
	StageExtract     = "extract"
	StageAdoption    = "adoption"
	StageSplit       = "split"
	StageConvert     = "convert"
	StageStats       = "stats"
	StageCheck       = "check"
)

// TimestampLayout is the layout of timestamps in analysis files.
const TimestampLayout = "2006-01-02 15:04:05"

var (
	// ErrNoInput is returned when the input file or directory is missing or
	// holds no dataset files.
	ErrNoInput = errors.New("no input data")

	// ErrNoRecords is returned when a stage has nothing to write.
	ErrNoRecords = errors.New("no records qualified")

	// ErrMissingColumn is returned when the input lacks a column computed by
	// an earlier stage.
	ErrMissingColumn = errors.New("required column missing")

	// ErrInvalidDate is returned when a commit date cannot be parsed where
	// every date is required.
	ErrInvalidDate = errors.New("invalid commit date")

	// ErrInvalidConfig is returned for out-of-range stage settings.
	ErrInvalidConfig = errors.New("invalid stage configuration")
)

// RepoChecker answers the keyword verdict queries of Harvest and CheckRepos.
// *github.Client implements it.
type RepoChecker interface {
	RepoExists(ctx context.Context, repo string) (bool, error)
	SearchCode(ctx context.Context, keyword, repo string, perPage int) (*github.CodeSearchResult, error)
}

// HistoryTracer answers the history queries of Adoption. *github.Client
// implements it.
type HistoryTracer interface {
	SearchCode(ctx context.Context, keyword, repo string, perPage int) (*github.CodeSearchResult, error)
	ListCommitsForPath(ctx context.Context, repo, path string) ([]github.CommitRef, error)
	CommitDiff(ctx context.Context, repo, sha string) (string, error)
}

// Progress receives item-level progress of long-running loops.
type Progress interface {
	Start(description string, total int64)
	Add(n int64)
	Finish()
}

type nopProgress struct{}

func (nopProgress) Start(string, int64) {}
func (nopProgress) Add(int64)           {}
func (nopProgress) Finish()             {}

// Options are shared by every stage config.
type Options struct {
	// RunID tags results and analysis files. A random UUID when empty.
	RunID string

	// Progress receives per-record progress (optional).
	Progress Progress
}

func (o Options) runID() string {
	if o.RunID != "" {
		return o.RunID
	}
	return uuid.NewString()
}

func (o Options) progress() Progress {
	if o.Progress == nil {
		return nopProgress{}
	}
	return o.Progress
}

func loggerOrDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger.With("component", "pipeline")
}

// requireFile returns ErrNoInput when path does not name a regular file.
func requireFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrNoInput, path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", ErrNoInput, path)
	}
	return nil
}

// ratio returns num/den, 0 when den is 0.
func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

func now() string {
	return time.Now().Format(TimestampLayout)
}
