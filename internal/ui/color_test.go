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

package ui

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

// capture disables colors and redirects Out for the duration of the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	origOut, origNoColor := Out, color.NoColor
	Out, color.NoColor = &buf, true
	t.Cleanup(func() { Out, color.NoColor = origOut, origNoColor })
	return &buf
}

func TestInitColors(t *testing.T) {
	original := color.NoColor
	defer func() { color.NoColor = original }()

	tests := []struct {
		name     string
		noColor  bool
		expected bool
	}{
		{"colors enabled when noColor is false", false, false},
		{"colors disabled when noColor is true", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			InitColors(tt.noColor)
			assert.Equal(t, tt.expected, color.NoColor)
		})
	}
}

func TestInlineHelpers(t *testing.T) {
	capture(t)

	assert.Equal(t, "Run ID:", Label("Run ID:"))
	assert.Equal(t, "output/ccs_commits.parquet", DimText("output/ccs_commits.parquet"))
	assert.Equal(t, "42", CountText(42))
	assert.Equal(t, "-1", CountText(-1))
	assert.Equal(t, "", Label(""))
}

func TestMessageFunctions(t *testing.T) {
	tests := []struct {
		name  string
		print func()
		want  string
	}{
		{"Success", func() { Success("done") }, "✓ done\n"},
		{"Successf", func() { Successf("wrote %d commits", 3) }, "✓ wrote 3 commits\n"},
		{"Warning", func() { Warning("careful") }, "⚠ careful\n"},
		{"Warningf", func() { Warningf("%d failed", 2) }, "⚠ 2 failed\n"},
		{"Error", func() { Error("broken") }, "✗ broken\n"},
		{"Errorf", func() { Errorf("%s broken", "x") }, "✗ x broken\n"},
		{"Info", func() { Info("reading") }, "ℹ reading\n"},
		{"Infof", func() { Infof("reading %s", "a.parquet") }, "ℹ reading a.parquet\n"},
		{"Header", func() { Header("Split") }, "Split\n=====\n"},
		{"SubHeader", func() { SubHeader("Types:") }, "Types:\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := capture(t)
			tt.print()
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestHeaderUnderlinesRunes(t *testing.T) {
	buf := capture(t)
	Header("Übersicht")
	assert.Equal(t, "Übersicht\n=========\n", buf.String())
}

func TestColorVariablesInitialized(t *testing.T) {
	for name, c := range map[string]*color.Color{
		"Red": Red, "Yellow": Yellow, "Green": Green, "Cyan": Cyan, "Bold": Bold, "Dim": Dim,
	} {
		assert.NotNil(t, c, name)
	}
}
