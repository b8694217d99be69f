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

// Package bootstrap prepares a curation workspace.
//
// InitWorkspace creates the raw-data directory, the output directory and the
// per-stage output directories named in ccscorpus.yaml:
//
//	info, err := bootstrap.InitWorkspace(bootstrap.WorkspaceConfig{
//	    RawDir:    "commit-chronicle-data/data",
//	    OutputDir: "output",
//	    Dirs:      []string{"ccs_commits_dataset", "analyze_report"},
//	}, logger)
//	if err != nil {
//	    return err
//	}
//	fmt.Printf("%d raw shards ready in %s\n", info.RawFiles, info.RawDir)
//
// # Idempotency
//
// Running InitWorkspace again is safe. Existing directories are reported in
// WorkspaceInfo.Existed and never emptied.
package bootstrap
