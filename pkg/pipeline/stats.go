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
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// DefaultTopN bounds the scope section of the text report.
const DefaultTopN = 30

// Stats output file names inside StatsConfig.OutputDir.
const (
	ReportFile            = "ccs_statistics_report.txt"
	RepoLanguageCSVFile   = "repo_language_statistics.csv"
	CommitLanguageCSVFile = "commit_language_statistics.csv"
	CommitTypeCSVFile     = "commit_type_statistics.csv"
	CommitScopeCSVFile    = "commit_scope_statistics.csv"
)

// noneLabel stands in for missing types and scopes.
const noneLabel = "None"

var statsRequiredColumns = []string{"language", "repo", "commit_type", "commit_scope"}

// StatsConfig configures Stats.
type StatsConfig struct {
	Options

	InputPath string

	// OutputDir defaults to the input's directory.
	OutputDir string

	// TopN bounds the scope section of the report (default DefaultTopN).
	TopN int
}

// Count is one row of a distribution.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`

	// Percentage of all records, rounded to two decimals. Only set for the
	// type and scope distributions.
	Percentage float64 `json:"percentage,omitempty"`
}

// StatsResult holds the distributions computed by Stats.
type StatsResult struct {
	RunID        string `json:"run_id"`
	TotalRecords int    `json:"total_records"`
	TotalRepos   int    `json:"total_repos"`
	TopN         int    `json:"top_n"`

	RepoLanguages   []Count `json:"repo_languages"`
	CommitLanguages []Count `json:"commit_languages"`
	Types           []Count `json:"types"`
	Scopes          []Count `json:"scopes"`

	TypedRecords  int `json:"typed_records"`
	ScopedRecords int `json:"scoped_records"`

	ReportPath string   `json:"report_path"`
	CSVPaths   []string `json:"csv_paths"`
}

// Stats computes the language, type and scope distributions of a curated
// file and writes the text report and CSV tables.
func Stats(ctx context.Context, cfg StatsConfig, logger *slog.Logger) (*StatsResult, error) {
	defer observeStage(StageStats, time.Now())
	logger = loggerOrDefault(logger).With("stage", StageStats)

	if err := requireFile(cfg.InputPath); err != nil {
		return nil, err
	}
	if err := requireStatsColumns(cfg.InputPath); err != nil {
		return nil, err
	}
	outDir := cfg.OutputDir
	if outDir == "" {
		outDir = filepath.Dir(cfg.InputPath)
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	commits, err := dataset.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read stats input: %w", err)
	}
	recordRead(StageStats, len(commits))
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := computeStats(commits)
	res.RunID = cfg.runID()
	res.TopN = topN

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("create stats dir: %w", err)
	}
	res.ReportPath = filepath.Join(outDir, ReportFile)
	if err := os.WriteFile(res.ReportPath, []byte(renderReport(res)), 0o644); err != nil {
		return nil, fmt.Errorf("write stats report: %w", err)
	}
	paths, err := writeStatsCSVs(outDir, res)
	if err != nil {
		return nil, err
	}
	res.CSVPaths = paths

	logger.Info("stats.done",
		"records", res.TotalRecords,
		"repos", res.TotalRepos,
		"languages", len(res.CommitLanguages),
		"types", len(res.Types),
		"scopes", len(res.Scopes),
		"report", res.ReportPath,
	)
	return res, nil
}

// requireStatsColumns checks Parquet inputs for the enrichment columns.
// JSON Lines inputs carry every field.
func requireStatsColumns(path string) error {
	format, err := dataset.FormatOf(path)
	if err != nil {
		return err
	}
	if format != dataset.FormatParquet {
		return nil
	}
	var missing []string
	for _, col := range statsRequiredColumns {
		ok, err := dataset.HasParquetColumn(path, col)
		if err != nil {
			return fmt.Errorf("inspect %s: %w", path, err)
		}
		if !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s lacks %s", ErrMissingColumn, path, strings.Join(missing, ", "))
	}
	return nil
}

// computeStats builds every distribution of commits.
func computeStats(commits []dataset.Commit) *StatsResult {
	res := &StatsResult{TotalRecords: len(commits)}

	repoLang := make(map[string]int)
	seenPair := make(map[[2]string]struct{})
	commitLang := make(map[string]int)
	types := make(map[string]int)
	scopes := make(map[string]int)
	repos := make(map[string]struct{})

	for i := range commits {
		c := &commits[i]
		repos[c.Repo] = struct{}{}

		// Unknown languages are left out of both language tables.
		if lang := c.Language; lang != "" {
			pair := [2]string{c.Repo, lang}
			if _, ok := seenPair[pair]; !ok {
				seenPair[pair] = struct{}{}
				repoLang[lang]++
			}
			commitLang[lang]++
		}

		if c.CommitType != nil {
			res.TypedRecords++
		}
		types[labelOf(dataset.Deref(c.CommitType))]++
		if c.CommitScope != nil {
			res.ScopedRecords++
		}
		scopes[labelOf(dataset.Deref(c.CommitScope))]++
	}

	res.TotalRepos = len(repos)
	res.RepoLanguages = sortCounts(repoLang, 0)
	res.CommitLanguages = sortCounts(commitLang, 0)
	res.Types = sortCounts(types, len(commits))
	res.Scopes = sortCounts(scopes, len(commits))
	return res
}

// sortCounts orders a distribution by count descending, then name. When
// total is positive each row carries its rounded percentage.
func sortCounts(m map[string]int, total int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		c := Count{Name: name, Count: n}
		if total > 0 {
			c.Percentage = math.Round(float64(n)/float64(total)*10000) / 100
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func labelOf(s string) string {
	if s == "" {
		return noneLabel
	}
	return s
}
