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

package testing

import (
	"path/filepath"
	"testing"

	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// NewCommit builds a commit with a hash derived from repo and date.
func NewCommit(repo, date, message string) dataset.Commit {
	return dataset.Commit{
		Date:            date,
		Hash:            repo + "@" + date,
		Message:         message,
		OriginalMessage: message,
		Language:        "Go",
		License:         "mit",
		Repo:            repo,
	}
}

// Classified returns c with its compliance verdict set.
func Classified(c dataset.Commit, compliant bool) dataset.Commit {
	c.SetCompliant(compliant)
	return c
}

// WriteParquet writes commits to dir/name and returns the path.
func WriteParquet(t *testing.T, dir, name string, commits ...dataset.Commit) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := dataset.WriteParquet(path, commits); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}

// ReadParquet reads a pipeline Parquet file.
func ReadParquet(t *testing.T, path string) []dataset.Commit {
	t.Helper()

	commits, err := dataset.ReadParquet(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return commits
}

// Repos returns the repository of every commit, in order.
func Repos(commits []dataset.Commit) []string {
	out := make([]string, len(commits))
	for i := range commits {
		out[i] = commits[i].Repo
	}
	return out
}
