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
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ccscorpus/internal/output"
	ccstest "github.com/kraklabs/ccscorpus/internal/testing"
	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// commitsOf builds classified commits of repo with increasing dates.
func commitsOf(repo string, messages map[string]bool, order ...string) []dataset.Commit {
	out := make([]dataset.Commit, 0, len(order))
	for i, msg := range order {
		date := fmt.Sprintf("%02d.03.2023 10:00:00", i+1)
		out = append(out, ccstest.Classified(ccstest.NewCommit(repo, date, msg), messages[msg]))
	}
	return out
}

func TestClassify(t *testing.T) {
	dir := t.TempDir()
	path := ccstest.WriteParquet(t, dir, "harvest.parquet",
		ccstest.NewCommit("octo/a", "01.01.2023 10:00:00", "feat: add a"),
		ccstest.NewCommit("octo/a", "02.01.2023 10:00:00", "fix(core)!: drop b\n\nbody"),
		ccstest.NewCommit("octo/a", "03.01.2023 10:00:00", "update stuff"),
		ccstest.NewCommit("octo/a", "04.01.2023 10:00:00", ""),
		ccstest.NewCommit("octo/a", "05.01.2023 10:00:00", "   "),
	)

	res, err := Classify(context.Background(), ClassifyConfig{InputPath: path}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, 5, res.Total)
	assert.Equal(t, 3, res.Valid)
	assert.Equal(t, 2, res.Invalid)
	assert.Equal(t, 2, res.Compliant)
	assert.Equal(t, 1, res.NonCompliant)
	assert.InDelta(t, 2.0/3.0, res.ComplianceRate, 1e-9)
	assert.Equal(t, path, res.OutputPath, "output defaults to the input")

	got := ccstest.ReadParquet(t, path)
	assert.Equal(t, []int32{1, 1, 0, 0, 0}, compliance(got))
}

func TestClassifyJSONLOutput(t *testing.T) {
	dir := t.TempDir()
	in := ccstest.WriteParquet(t, dir, "in.parquet", ccstest.NewCommit("octo/a", "01.01.2023 10:00:00", "chore: x"))
	out := filepath.Join(dir, "out.jsonl")

	_, err := Classify(context.Background(), ClassifyConfig{InputPath: in, OutputPath: out}, quietLogger())
	require.NoError(t, err)

	got, err := dataset.ReadJSONL(out)
	require.NoError(t, err)
	assert.Equal(t, []int32{1}, compliance(got))
}

func TestClassifyMissingInput(t *testing.T) {
	_, err := Classify(context.Background(), ClassifyConfig{InputPath: filepath.Join(t.TempDir(), "nope.parquet")}, quietLogger())
	assert.ErrorIs(t, err, ErrNoInput)
}

func filterFixture() []dataset.Commit {
	var all []dataset.Commit
	all = append(all, commitsOf("octo/a", map[string]bool{"feat: a1": true, "fix: a2": true}, "feat: a1", "fix: a2", "wip")...)
	all = append(all, commitsOf("octo/b", nil, "update", "more")...)
	all = append(all, commitsOf("octo/c", map[string]bool{"docs: c1": true}, "docs: c1")...)
	return all
}

func TestFilterRepos(t *testing.T) {
	dir := t.TempDir()
	in := ccstest.WriteParquet(t, dir, "classified.parquet", filterFixture()...)
	cfg := FilterConfig{
		InputPath:    in,
		OutputPath:   filepath.Join(dir, "filtered.parquet"),
		AnalysisPath: filepath.Join(dir, "filter_analysis.json"),
	}

	res, err := FilterRepos(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, FilterStatistics{
		TotalRecords:    6,
		TotalRepos:      3,
		TrueCCSRepos:    2,
		FalseCCSRepos:   1,
		FilteredRecords: 4,
		RemovedRecords:  2,
	}, res.Statistics)
	assert.Equal(t, []string{"octo/b"}, res.Dropped)
	require.Len(t, res.Top, 2)
	assert.Equal(t, "octo/c", res.Top[0].Repo)
	assert.Equal(t, "octo/a", res.Top[1].Repo)
	assert.InDelta(t, 2.0/3.0, res.Top[1].CCSRate, 1e-9)

	out := ccstest.ReadParquet(t, cfg.OutputPath)
	assert.Equal(t, []string{"octo/a", "octo/a", "octo/a", "octo/c"}, ccstest.Repos(out))

	var analysis map[string]any
	require.NoError(t, output.ReadFile(cfg.AnalysisPath, &analysis))
	details := analysis["repo_details"].(map[string]any)
	b := details["octo/b"].(map[string]any)
	assert.Equal(t, false, b["is_true_ccs"])
	assert.EqualValues(t, 2, b["non_ccs_commits"])
	assert.NotContains(t, b, "repo")
}

func TestFilterReposRequiresClassification(t *testing.T) {
	dir := t.TempDir()
	in := ccstest.WriteParquet(t, dir, "raw.parquet", ccstest.NewCommit("octo/a", "01.01.2023 10:00:00", "feat: x"))

	_, err := FilterRepos(context.Background(), FilterConfig{InputPath: in, OutputPath: filepath.Join(dir, "out.parquet")}, quietLogger())
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestExtract(t *testing.T) {
	all := filterFixture()
	all = append(all, commitsOf("octo/d", map[string]bool{
		"feat(api): x": true, "fix: y": true, "docs(): z": true, "release 1.0": true, "Feat(UI)!: w": true,
	}, "feat(api): x", "fix: y", "docs(): z", "release 1.0", "Feat(UI)!: w")...)
	all = append(all, commitsOf("octo/e", map[string]bool{
		"feat: 1": true, "feat: 2": true, "feat: 3": true, "feat: 4": true,
	}, "feat: 1", "feat: 2", "feat: 3", "feat: 4", "oops")...)

	dir := t.TempDir()
	in := ccstest.WriteParquet(t, dir, "filtered.parquet", all...)
	cfg := ExtractConfig{InputPath: in, OutputPath: filepath.Join(dir, "ccs_commits.parquet")}

	res, err := Extract(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, ExtractStatistics{
		TotalRepos:          5,
		FilteredRepos:       2,
		RemovedRepos:        3,
		TotalCommits:        6,
		CCSCommitsExtracted: 6,
	}, res.Statistics)
	assert.Equal(t, 16, res.InputRecords)
	assert.Equal(t, 1, res.UntypedCommits)
	assert.Equal(t, DefaultMinRate, res.MinRate)
	assert.Equal(t, filepath.Join(dir, "ccs_commits_analysis.json"), res.AnalysisPath)

	out := ccstest.ReadParquet(t, cfg.OutputPath)
	require.Len(t, out, 6)
	type header struct{ typ, scope string }
	var got []header
	for _, c := range out {
		got = append(got, header{dataset.Deref(c.CommitType), dataset.Deref(c.CommitScope)})
	}
	assert.Equal(t, []header{
		{"docs", ""},
		{"feat", "api"},
		{"fix", ""},
		{"docs", ""},
		{"", ""},
		{"feat", "UI"},
	}, got)
	assert.Nil(t, out[3].CommitScope, "empty scope is stored as null")

	var analysis map[string]any
	require.NoError(t, output.ReadFile(res.AnalysisPath, &analysis))
	criteria := analysis["filter_criteria"].(map[string]any)
	assert.Equal(t, "Retained repositories with ccs_rate > 80%", criteria["description"])
	high := analysis["high_rate_repos"].(map[string]any)
	assert.Contains(t, high, "octo/c")
	assert.Contains(t, high, "octo/d")
	assert.NotContains(t, high, "octo/e", "rate equal to the threshold is excluded")
	stats := analysis["statistics"].(map[string]any)
	assert.EqualValues(t, 6, stats["total_commits"], "counts the extracted commits")
}

func TestExtractNothingQualifies(t *testing.T) {
	dir := t.TempDir()
	in := ccstest.WriteParquet(t, dir, "in.parquet", commitsOf("octo/a", map[string]bool{"feat: a": true}, "feat: a", "nope")...)
	out := filepath.Join(dir, "out.parquet")

	_, err := Extract(context.Background(), ExtractConfig{InputPath: in, OutputPath: out}, quietLogger())
	require.ErrorIs(t, err, ErrNoRecords)
	assert.NoFileExists(t, out)
	assert.NoFileExists(t, filepath.Join(dir, "out_analysis.json"))
}

func TestExtractRejectsBadRate(t *testing.T) {
	dir := t.TempDir()
	in := ccstest.WriteParquet(t, dir, "in.parquet", commitsOf("octo/a", map[string]bool{"feat: a": true}, "feat: a")...)

	for _, rate := range []float64{-0.1, 1, 1.5} {
		_, err := Extract(context.Background(), ExtractConfig{InputPath: in, OutputPath: filepath.Join(dir, "o.parquet"), MinRate: rate}, quietLogger())
		assert.ErrorIs(t, err, ErrInvalidConfig, "rate %v", rate)
	}
}
