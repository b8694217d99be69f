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

package dataset

// RepoGroup is the set of commit indexes belonging to one repository.
type RepoGroup struct {
	Repo    string
	Indexes []int
}

// GroupByRepo groups commit indexes by repository, in order of first
// appearance.
func GroupByRepo(commits []Commit) []RepoGroup {
	pos := make(map[string]int)
	var groups []RepoGroup
	for i := range commits {
		repo := commits[i].Repo
		g, ok := pos[repo]
		if !ok {
			g = len(groups)
			pos[repo] = g
			groups = append(groups, RepoGroup{Repo: repo})
		}
		groups[g].Indexes = append(groups[g].Indexes, i)
	}
	return groups
}

// RepoSet returns the distinct repositories as a set.
func RepoSet(commits []Commit) map[string]struct{} {
	set := make(map[string]struct{})
	for i := range commits {
		set[commits[i].Repo] = struct{}{}
	}
	return set
}

// FilterRepos returns the commits whose repository is in keep, preserving
// order.
func FilterRepos(commits []Commit, keep map[string]struct{}) []Commit {
	out := make([]Commit, 0, len(commits))
	for i := range commits {
		if _, ok := keep[commits[i].Repo]; ok {
			out = append(out, commits[i])
		}
	}
	return out
}
