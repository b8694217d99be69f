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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccstest "github.com/kraklabs/ccscorpus/internal/testing"
	"github.com/kraklabs/ccscorpus/pkg/cache"
	"github.com/kraklabs/ccscorpus/pkg/ccs"
)

func TestHarvest(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/conv", "README.md")
	gh.AddRepo("octo/plain")

	in := t.TempDir()
	blank := ccstest.NewCommit("octo/conv", "03.01.2023 10:00:00", "")
	fallback := ccstest.NewCommit("octo/conv", "04.01.2023 10:00:00", "")
	fallback.OriginalMessage = "feat: keep me"
	ccstest.WriteParquet(t, in, "a.parquet",
		ccstest.NewCommit("octo/conv", "01.01.2023 10:00:00", "feat: one"),
		ccstest.NewCommit("octo/plain", "01.01.2023 11:00:00", "fix: two"),
		blank,
		fallback,
	)
	ccstest.WriteParquet(t, in, "b.parquet",
		ccstest.NewCommit("ghost/missing", "02.01.2023 10:00:00", "chore: three"),
		ccstest.NewCommit("octo/conv", "02.01.2023 12:00:00", "docs: four"),
	)

	work := t.TempDir()
	cfg := HarvestConfig{
		InputDir:   in,
		OutputPath: filepath.Join(work, "harvest.parquet"),
		CachePath:  filepath.Join(work, "repo_cache.json"),
		Checker:    newStubClient(gh),
	}

	res, err := Harvest(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Files)
	assert.Empty(t, res.FailedFiles)
	assert.Equal(t, 6, res.TotalRecords)
	assert.Equal(t, 3, res.ProcessedRecords)
	assert.Equal(t, 3, res.SkippedRecords)
	assert.Equal(t, 3, res.UniqueRepos)
	assert.Equal(t, 1, res.ConventionalRepos)
	assert.InDelta(t, 1.0/3.0, res.AdoptionRate, 1e-9)
	assert.NotEmpty(t, res.RunID)

	out := ccstest.ReadParquet(t, cfg.OutputPath)
	assert.Equal(t, []string{"octo/conv", "octo/conv", "octo/conv"}, ccstest.Repos(out))
	assert.Equal(t, "", out[1].Message, "records are kept unchanged")
	assert.Nil(t, out[0].IsCCS)

	verdicts, err := cache.LoadVerdicts(cfg.CachePath, ccs.Keyword, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, verdicts.Conventional())
	v, ok := verdicts.Get("octo/conv")
	assert.True(t, ok)
	assert.True(t, v)
	assert.Equal(t, 3, verdicts.Len())

	before := len(gh.Requests())
	_, err = Harvest(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, before, len(gh.Requests()), "second run must be served from the cache")
}

func TestHarvestErrorsAreNegativeVerdicts(t *testing.T) {
	in := t.TempDir()
	ccstest.WriteParquet(t, in, "a.parquet",
		ccstest.NewCommit("octo/flaky", "01.01.2023 10:00:00", "feat: x"),
		ccstest.NewCommit("octo/conv", "01.01.2023 11:00:00", "feat: y"),
	)
	checker := &fakeChecker{
		hits: map[string]int{"octo/conv": 2},
		errs: map[string]error{"octo/flaky": errors.New("boom")},
	}
	work := t.TempDir()
	cfg := HarvestConfig{
		InputDir:   in,
		OutputPath: filepath.Join(work, "out.parquet"),
		CachePath:  filepath.Join(work, "cache.json"),
		Checker:    checker,
	}

	res, err := Harvest(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.Equal(t, 1, res.ProcessedRecords)

	verdicts, err := cache.LoadVerdicts(cfg.CachePath, ccs.Keyword, quietLogger())
	require.NoError(t, err)
	v, ok := verdicts.Get("octo/flaky")
	assert.True(t, ok)
	assert.False(t, v)
}

func TestHarvestNoRecords(t *testing.T) {
	in := t.TempDir()
	ccstest.WriteParquet(t, in, "a.parquet", ccstest.NewCommit("octo/plain", "01.01.2023 10:00:00", "feat: x"))
	out := filepath.Join(t.TempDir(), "out.parquet")

	_, err := Harvest(context.Background(), HarvestConfig{
		InputDir:   in,
		OutputPath: out,
		CachePath:  filepath.Join(t.TempDir(), "cache.json"),
		Checker:    &fakeChecker{},
	}, quietLogger())
	require.ErrorIs(t, err, ErrNoRecords)
	assert.NoFileExists(t, out)
}

func TestHarvestInterruptWritesPartialOutput(t *testing.T) {
	in := t.TempDir()
	ccstest.WriteParquet(t, in, "a.parquet",
		ccstest.NewCommit("octo/conv", "01.01.2023 10:00:00", "feat: a"),
		ccstest.NewCommit("octo/conv", "01.01.2023 11:00:00", "feat: b"),
		ccstest.NewCommit("octo/late", "01.01.2023 12:00:00", "feat: c"),
	)
	ccstest.WriteParquet(t, in, "b.parquet", ccstest.NewCommit("octo/conv", "02.01.2023 10:00:00", "feat: d"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	checker := &fakeChecker{
		hits: map[string]int{"octo/conv": 1, "octo/late": 1},
		hook: func(repo string) error {
			if repo == "octo/late" {
				cancel()
				return ctx.Err()
			}
			return nil
		},
	}
	work := t.TempDir()
	cfg := HarvestConfig{
		InputDir:   in,
		OutputPath: filepath.Join(work, "out.parquet"),
		CachePath:  filepath.Join(work, "cache.json"),
		Checker:    checker,
	}

	res, err := Harvest(ctx, cfg, quietLogger())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.True(t, res.Interrupted)
	assert.Equal(t, cfg.OutputPath, res.OutputPath)

	out := ccstest.ReadParquet(t, cfg.OutputPath)
	assert.Len(t, out, 2)

	verdicts, err := cache.LoadVerdicts(cfg.CachePath, ccs.Keyword, quietLogger())
	require.NoError(t, err)
	_, ok := verdicts.Get("octo/late")
	assert.False(t, ok, "interrupted lookups are not cached")
	v, ok := verdicts.Get("octo/conv")
	assert.True(t, ok)
	assert.True(t, v)
}

func TestHarvestRequiresInput(t *testing.T) {
	_, err := Harvest(context.Background(), HarvestConfig{InputDir: t.TempDir(), Checker: &fakeChecker{}}, quietLogger())
	assert.ErrorIs(t, err, ErrNoInput)

	_, err = Harvest(context.Background(), HarvestConfig{InputDir: t.TempDir()}, quietLogger())
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestCheckRepos(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/conv", "CONTRIBUTING.md")
	gh.AddRepo("octo/plain")

	out := filepath.Join(t.TempDir(), "check.json")
	res, err := CheckRepos(context.Background(), CheckConfig{
		Repos:      []string{"octo/conv", "octo/plain", "ghost/missing"},
		OutputPath: out,
		Checker:    newStubClient(gh),
	}, quietLogger())
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{"octo/conv": true, "octo/plain": false, "ghost/missing": false}, res.Results)
	assert.Equal(t, []string{"octo/conv", "octo/plain", "ghost/missing"}, res.Order)
	assert.Equal(t, 3, res.TotalRepos)
	assert.Equal(t, 1, res.ConventionalRepos)
	assert.Equal(t, cache.VerdictMethod, res.Method)
	assert.Equal(t, ccs.Keyword, res.Keyword)
	assert.FileExists(t, out)
	assert.Equal(t, 2, gh.CountRequests("/search/code"), "missing repos are not searched")
}

func TestCheckReposEmpty(t *testing.T) {
	_, err := CheckRepos(context.Background(), CheckConfig{Checker: &fakeChecker{}}, quietLogger())
	assert.ErrorIs(t, err, ErrNoInput)
}
