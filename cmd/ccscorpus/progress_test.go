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
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

func TestNewProgressConfig(t *testing.T) {
	tests := []struct {
		name            string
		globals         GlobalFlags
		expectedNoColor bool
	}{
		{"default flags", GlobalFlags{}, false},
		{"quiet mode", GlobalFlags{Quiet: true}, false},
		{"JSON mode (quiet auto-set)", GlobalFlags{JSON: true, Quiet: true}, false},
		{"debug does not affect progress", GlobalFlags{Debug: true}, false},
		{"noColor flag propagates to config", GlobalFlags{NoColor: true}, true},
		{"all flags combined", GlobalFlags{JSON: true, Quiet: true, NoColor: true, Debug: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewProgressConfig(tt.globals)
			// stderr is not a TTY under go test.
			assert.False(t, cfg.Enabled)
			assert.Equal(t, tt.expectedNoColor, cfg.NoColor)
			assert.Equal(t, os.Stderr, cfg.Writer)
		})
	}
}

func TestNewProgressBar(t *testing.T) {
	t.Run("disabled config returns nil", func(t *testing.T) {
		assert.Nil(t, NewProgressBar(ProgressConfig{Enabled: false}, 100, "Test"))
	})

	t.Run("enabled config returns a usable bar", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewProgressBar(ProgressConfig{Enabled: true, Writer: &buf}, 100, "Test")
		require.NotNil(t, bar)
		_ = bar.Set(50)
		_ = bar.Finish()
	})

	t.Run("zero total creates valid bar", func(t *testing.T) {
		var buf bytes.Buffer
		bar := NewProgressBar(ProgressConfig{Enabled: true, Writer: &buf}, 0, "Empty")
		require.NotNil(t, bar)
		_ = bar.Finish()
	})
}

func TestNewSpinner(t *testing.T) {
	assert.Nil(t, NewSpinner(ProgressConfig{Enabled: false}, "Test"))

	var buf bytes.Buffer
	spinner := NewSpinner(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true}, "Test")
	require.NotNil(t, spinner)
	_ = spinner.Add(1)
	_ = spinner.Finish()
}

func TestStageProgress(t *testing.T) {
	assert.Nil(t, newStageProgress(ProgressConfig{Enabled: false}), "disabled progress leaves stages on their no-op")

	var buf bytes.Buffer
	p := newStageProgress(ProgressConfig{Enabled: true, Writer: &buf, NoColor: true})
	require.NotNil(t, p)
	bp := p.(*barProgress)

	p.Start("train-00000.parquet", 10)
	first := bp.bar
	require.NotNil(t, first)
	p.Add(4)
	assert.Equal(t, int64(4), first.State().CurrentNum)

	p.Start("train-00001.parquet", 5)
	assert.NotSame(t, first, bp.bar, "a new Start replaces the bar")

	p.Start("unknown total", 0)
	require.NotNil(t, bp.bar, "unknown totals get a spinner")

	p.Finish()
	assert.Nil(t, bp.bar)
	p.Add(1)
	p.Finish()
}

func TestStageDescription(t *testing.T) {
	tests := []struct {
		stage    string
		expected string
	}{
		{pipeline.StageHarvest, "Harvesting commits"},
		{pipeline.StageFilterRepos, "Filtering repositories"},
		{pipeline.StageAdoption, "Filtering by adoption date"},
		{pipeline.StageCheck, "Checking repositories"},
		{"custom", "custom"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			assert.Equal(t, tt.expected, stageDescription(tt.stage))
		})
	}

	for _, stage := range pipeline.Stages {
		assert.NotEqual(t, stage, stageDescription(stage), "every stage has a description")
	}
}
