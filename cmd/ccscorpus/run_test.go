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

package main

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

func TestNewRunConfigChainsStagePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Paths.OutputDir = "/work/out"
	cfg.Pipeline.MinRate = 0.85
	s := &session{
		ctx:    context.Background(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		opts:   pipeline.Options{RunID: "run-7"},
	}

	rc := newRunConfig(cfg, s)

	assert.Equal(t, "run-7", rc.RunID)
	assert.Equal(t, cfg.Paths.RawDir, rc.Harvest.InputDir)
	assert.Equal(t, rc.Harvest.OutputPath, rc.Classify.InputPath)
	assert.Empty(t, rc.Classify.OutputPath, "classify rewrites its input")
	assert.Equal(t, rc.Harvest.OutputPath, rc.Filter.InputPath)
	assert.Equal(t, rc.Filter.OutputPath, rc.Extract.InputPath)
	assert.Equal(t, rc.Extract.OutputPath, rc.Adoption.InputPath)
	assert.Equal(t, rc.Extract.OutputPath, rc.Split.InputPath)
	assert.Equal(t, rc.Split.OutputDir, rc.Convert.InputPath)
	assert.Equal(t, rc.Extract.OutputPath, rc.Stats.InputPath)
	assert.True(t, rc.Split.OverwriteInput, "stats read the split subset")
	assert.Equal(t, filepath.Join("/work/out", "ccs_commits.parquet"), rc.Extract.OutputPath)
	assert.Equal(t, 0.85, rc.Extract.MinRate)
	assert.NotNil(t, rc.Harvest.Checker)
	assert.Same(t, rc.Harvest.Checker, rc.Adoption.Tracer, "one client shares the rate limit")
	assert.NotNil(t, rc.Skip)
}

func TestFailedStage(t *testing.T) {
	tests := []struct {
		name string
		res  *pipeline.RunResult
		skip map[string]bool
		want string
	}{
		{"nothing ran", &pipeline.RunResult{}, nil, pipeline.StageHarvest},
		{"skipped first", &pipeline.RunResult{}, map[string]bool{pipeline.StageHarvest: true}, pipeline.StageClassify},
		{"midway", &pipeline.RunResult{Completed: []string{pipeline.StageHarvest, pipeline.StageClassify}}, nil, pipeline.StageFilterRepos},
		{"all done", &pipeline.RunResult{Completed: pipeline.Stages}, nil, "run"},
		{"nil result", nil, nil, pipeline.StageHarvest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, failedStage(tt.res, tt.skip))
		})
	}
}
