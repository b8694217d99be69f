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
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccstest "github.com/kraklabs/ccscorpus/internal/testing"
	"github.com/kraklabs/ccscorpus/pkg/cache"
	"github.com/kraklabs/ccscorpus/pkg/github"
)

const keywordDiff = "diff --git a/README.md b/README.md\n+++ b/README.md\n@@ -1 +1,2 @@\n # Project\n+Commits follow https://www.conventionalcommits.org/\n"

func TestAdoption(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/conv", "README.md", "docs/CONTRIBUTING.md")
	gh.AddHistory("octo/conv", "README.md",
		ccstest.StubCommit{SHA: "r3", Date: time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
		ccstest.StubCommit{SHA: "r2", Date: time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)},
		ccstest.StubCommit{SHA: "r1", Date: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
	)
	gh.AddDiff("octo/conv", "r1", "+# Project\n")
	gh.AddDiff("octo/conv", "r2", keywordDiff)
	gh.AddDiff("octo/conv", "r3", keywordDiff)
	gh.AddHistory("octo/conv", "docs/CONTRIBUTING.md",
		ccstest.StubCommit{SHA: "c1", Date: time.Date(2023, 1, 15, 12, 0, 0, 0, time.UTC)},
	)
	gh.AddDiff("octo/conv", "c1", "+Please write good messages\n")
	gh.AddRepo("octo/none")

	dir := t.TempDir()
	cachePath := filepath.Join(dir, "adoption_cache.json")
	pre, err := cache.LoadAdoption(cachePath, quietLogger())
	require.NoError(t, err)
	adopted := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	pre.SetAdoption("octo/cached", &adopted, 2)
	require.NoError(t, pre.Save())

	in := ccstest.WriteParquet(t, dir, "ccs_commits.parquet",
		ccstest.NewCommit("octo/conv", "10.01.2023 10:00:00", "feat: early"),
		ccstest.NewCommit("octo/none", "01.01.2020 00:00:00", "feat: any"),
		ccstest.NewCommit("octo/conv", "15.01.2023 12:00:00", "feat: at adoption"),
		ccstest.NewCommit("octo/cached", "31.05.2023 23:59:59", "feat: too early"),
		ccstest.NewCommit("octo/conv", "20.02.2023 10:00:00", "feat: later"),
		ccstest.NewCommit("octo/conv", "bad-date", "feat: broken"),
		ccstest.NewCommit("octo/cached", "01.06.2023 00:00:00", "feat: on time"),
		ccstest.NewCommit("", "01.06.2023 00:00:00", "feat: orphan"),
	)

	res, err := Adoption(context.Background(), AdoptionConfig{
		InputPath: in,
		CachePath: cachePath,
		Tracer:    newStubClient(gh),
	}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, 3, res.Repos)
	assert.Equal(t, 1, res.CacheHits)
	assert.Equal(t, 2, res.Resolved)
	assert.Equal(t, 1, res.NoAdoption)
	assert.Empty(t, res.FailedRepos)
	assert.Equal(t, 8, res.TotalRecords)
	assert.Equal(t, 4, res.KeptRecords)
	assert.Equal(t, 2, res.BeforeAdoption)
	assert.Equal(t, 2, res.InvalidRecords)
	assert.Equal(t, in, res.OutputPath, "output defaults to the input")

	out := ccstest.ReadParquet(t, in)
	var messages []string
	for _, c := range out {
		messages = append(messages, c.Message)
	}
	assert.Equal(t, []string{"feat: on time", "feat: at adoption", "feat: later", "feat: any"}, messages)

	for _, r := range gh.Requests() {
		assert.NotContains(t, r, "cached", "cached adoption dates are not traced")
	}

	after, err := cache.LoadAdoption(cachePath, quietLogger())
	require.NoError(t, err)
	conv, ok := after.Get("octo/conv")
	require.True(t, ok)
	require.NotNil(t, conv.AdoptionDate)
	assert.Equal(t, "2023-01-15 12:00:00", *conv.AdoptionDate, "earliest path wins, oldest commit is the fallback")
	assert.Equal(t, 4, conv.OriginalCount)
	assert.Equal(t, 2, conv.KeptCount)
	assert.Equal(t, 2, conv.FilteredCount)
	none, ok := after.Get("octo/none")
	require.True(t, ok)
	assert.Nil(t, none.AdoptionDate)
	_, ok = after.AdoptionDate("octo/none")
	assert.False(t, ok)
}

// fakeTracer is a scripted HistoryTracer.
type fakeTracer struct {
	search func(repo string) (*github.CodeSearchResult, error)
}

func (f *fakeTracer) SearchCode(_ context.Context, _, repo string, _ int) (*github.CodeSearchResult, error) {
	return f.search(repo)
}

func (f *fakeTracer) ListCommitsForPath(context.Context, string, string) ([]github.CommitRef, error) {
	return nil, nil
}

func (f *fakeTracer) CommitDiff(context.Context, string, string) (string, error) {
	return "", nil
}

func TestAdoptionTraceFailureKeepsCommits(t *testing.T) {
	dir := t.TempDir()
	in := ccstest.WriteParquet(t, dir, "in.parquet",
		ccstest.NewCommit("octo/flaky", "01.01.2023 10:00:00", "feat: a"),
		ccstest.NewCommit("octo/gone", "01.01.2023 10:00:00", "feat: b"),
	)
	out := filepath.Join(dir, "out.parquet")
	cachePath := filepath.Join(dir, "cache.json")
	tracer := &fakeTracer{search: func(repo string) (*github.CodeSearchResult, error) {
		if repo == "octo/gone" {
			return nil, github.ErrNotFound
		}
		return nil, errors.New("search unavailable")
	}}

	res, err := Adoption(context.Background(), AdoptionConfig{InputPath: in, OutputPath: out, CachePath: cachePath, Tracer: tracer}, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, []string{"octo/flaky"}, res.FailedRepos)
	assert.Equal(t, 1, res.NoAdoption)
	assert.Equal(t, 2, res.KeptRecords)

	after, err := cache.LoadAdoption(cachePath, quietLogger())
	require.NoError(t, err)
	entry, ok := after.Get("octo/flaky")
	assert.True(t, ok, "counts are recorded")
	assert.Nil(t, entry.AdoptionDate)
}

func TestAdoptionInterrupt(t *testing.T) {
	dir := t.TempDir()
	in := ccstest.WriteParquet(t, dir, "in.parquet",
		ccstest.NewCommit("octo/a", "01.01.2023 10:00:00", "feat: a"),
		ccstest.NewCommit("octo/b", "01.01.2023 10:00:00", "feat: b"),
	)
	out := filepath.Join(dir, "out.parquet")
	cachePath := filepath.Join(dir, "cache.json")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	tracer := &fakeTracer{search: func(repo string) (*github.CodeSearchResult, error) {
		if strings.HasSuffix(repo, "/b") {
			cancel()
			return nil, ctx.Err()
		}
		return &github.CodeSearchResult{}, nil
	}}

	res, err := Adoption(ctx, AdoptionConfig{InputPath: in, OutputPath: out, CachePath: cachePath, Tracer: tracer}, quietLogger())
	require.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Interrupted)
	assert.NoFileExists(t, out)

	after, err := cache.LoadAdoption(cachePath, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, after.Len())
	_, ok := after.Get("octo/a")
	assert.True(t, ok)
}
