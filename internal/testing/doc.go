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

// Package testing provides test helpers for ccscorpus packages.
//
// # GitHub Stub
//
// NewGitHubStub starts an httptest server that answers the GitHub endpoints
// the pipeline calls. Seed it with repositories, code-search hits, per-path
// commit histories and diffs:
//
//	func TestAdoption(t *testing.T) {
//	    gh := ccstest.NewGitHubStub(t)
//	    gh.AddRepo("octo/api", "README.md")
//	    gh.AddHistory("octo/api", "README.md",
//	        ccstest.StubCommit{SHA: "c2", Date: day(2023, 5, 1)},
//	        ccstest.StubCommit{SHA: "c1", Date: day(2022, 1, 1)},
//	    )
//	    gh.AddDiff("octo/api", "c2", "+See conventionalcommits.org\n")
//
//	    client := github.New(github.Config{BaseURL: gh.URL(), RateLimit: 1000})
//	    // ...
//	}
//
// Failures can be injected with FailNext to exercise retry paths.
//
// # Dataset Fixtures
//
// NewCommit builds a Commit with the fields most tests care about, and
// WriteParquet / ReadParquet wrap the dataset package with t.Fatalf error
// handling:
//
//	path := ccstest.WriteParquet(t, t.TempDir(), "in.parquet",
//	    ccstest.NewCommit("octo/api", "01.01.2023 10:00:00", "feat: x"),
//	)
package testing
