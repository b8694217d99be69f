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

package ccs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsCompliant(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    bool
	}{
		{"simple type", "feat: add parser", true},
		{"with scope", "fix(parser): handle nil", true},
		{"mixed case type", "Fix(Parser): handle nil", true},
		{"breaking without scope", "feat!: drop v1 api", true},
		{"breaking with scope", "feat(api)!: drop v1 api", true},
		{"body ignored", "docs: update readme\n\nLonger body without header shape", true},
		{"leading whitespace trimmed", "   chore: bump deps", true},
		{"nested parens in scope", "fix(api(v2)): retry", true},
		{"unbalanced scope still matches lazily", "feat(a(b): x", true},
		{"no-break space after colon", "feat:\u00a0add parser", true},
		{"ideographic space after colon", "fix(ui):\u3000align", true},
		{"no space after colon", "feat:add parser", false},
		{"empty description", "feat: ", false},
		{"empty scope", "feat(): add", false},
		{"digits in type", "feat1: add", false},
		{"space before scope", "feat (api): add", false},
		{"free text", "Update README.md", false},
		{"merge commit", "Merge pull request #12 from octo/feature", false},
		{"header on second line", "wip\nfeat: add", false},
		{"empty", "", false},
		{"whitespace only", " \n\t ", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsCompliant(tt.message))
		})
	}
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		name    string
		message string
		want    Header
		wantOK  bool
	}{
		{
			name:    "simple type",
			message: "feat: add parser",
			want:    Header{Type: "feat", Description: "add parser"},
			wantOK:  true,
		},
		{
			name:    "type is lowercased, scope kept verbatim",
			message: "Feat(Parser): add x",
			want:    Header{Type: "feat", Scope: "Parser", Description: "add x"},
			wantOK:  true,
		},
		{
			name:    "nested scope",
			message: "fix(api(v2)): retry on 502",
			want:    Header{Type: "fix", Scope: "api(v2)", Description: "retry on 502"},
			wantOK:  true,
		},
		{
			name:    "breaking with scope",
			message: "refactor(core)!: rename Client",
			want:    Header{Type: "refactor", Scope: "core", Breaking: true, Description: "rename Client"},
			wantOK:  true,
		},
		{
			name:    "breaking without scope",
			message: "feat!: drop v1",
			want:    Header{Type: "feat", Breaking: true, Description: "drop v1"},
			wantOK:  true,
		},
		{
			name:    "whitespace between scope and colon",
			message: "test(db) : cover migrations",
			want:    Header{Type: "test", Scope: "db", Description: "cover migrations"},
			wantOK:  true,
		},
		{
			name:    "no space after colon is accepted",
			message: "chore:bump",
			want:    Header{Type: "chore", Description: "bump"},
			wantOK:  true,
		},
		{
			name:    "empty scope",
			message: "ci(): pin runner",
			want:    Header{Type: "ci", Description: "pin runner"},
			wantOK:  true,
		},
		{
			name:    "only first line is parsed",
			message: "docs(readme): typo\n\nfeat(x): not this one",
			want:    Header{Type: "docs", Scope: "readme", Description: "typo"},
			wantOK:  true,
		},
		{name: "unbalanced scope", message: "feat(a(b): x"},
		{name: "scope without colon", message: "feat(api) add"},
		{name: "space before scope", message: "feat (api): add"},
		{name: "free text", message: "Bump version"},
		{name: "empty", message: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseHeader(tt.message)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAddsLineContainingKeyword(t *testing.T) {
	tests := []struct {
		name string
		diff string
		want bool
	}{
		{
			name: "added line",
			diff: "diff --git a/README.md b/README.md\n+++ b/README.md\n@@ -1,2 +1,3 @@\n+We follow https://www.conventionalcommits.org/en/v1.0.0/\n",
			want: true,
		},
		{
			name: "file header only",
			diff: "+++ b/docs/conventionalcommits.org.md\n+hello\n",
			want: false,
		},
		{
			name: "removed line",
			diff: "-See conventionalcommits.org\n",
			want: false,
		},
		{
			name: "context line",
			diff: " See conventionalcommits.org\n+unrelated\n",
			want: false,
		},
		{name: "empty diff", diff: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AddsLineContaining(tt.diff, Keyword))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "feat: x", FirstLine("  feat: x  \nbody"))
	assert.Equal(t, "", FirstLine(""))
}

func TestAddsLineContaining(t *testing.T) {
	diff := "+++ b/CONTRIBUTING.md\n+Use semantic-release\n-old marker\n"
	assert.True(t, AddsLineContaining(diff, "semantic-release"))
	assert.False(t, AddsLineContaining(diff, "CONTRIBUTING"))
	assert.False(t, AddsLineContaining(diff, "marker"))
}
