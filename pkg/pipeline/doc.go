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

// Package pipeline implements the stages that turn the commit-chronicle
// corpus into the curated Conventional Commits dataset.
//
// Stages run in this order, each reading the previous stage's file:
//
//	Harvest      raw corpus -> commits of repositories mentioning the keyword
//	Classify     adds is_CCS per commit
//	FilterRepos  drops repositories without a single compliant commit
//	Extract      keeps compliant commits of high-compliance repositories and
//	             fills commit_type / commit_scope
//	Adoption     drops commits older than the repository's adoption date
//	Split        chronological train / valid / test split over common repos
//	Convert      Parquet -> JSON Lines release files
//	Stats        language, type and scope distributions
//
// Every stage is a function of a context, a stage config and a logger that
// returns a result summary. Stages are idempotent given their inputs; the
// GitHub-backed stages keep their API results in the caches of package
// cache so reruns only query what is still unknown.
//
// Cancelling the context stops a stage at the next record or repository.
// Harvest writes the records gathered so far; Adoption saves its cache.
// Both return the context error alongside the partial result.
package pipeline
