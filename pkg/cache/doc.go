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

// Package cache persists GitHub API results between pipeline runs.
//
// VerdictCache remembers, per repository, whether the repository mentions
// the adoption keyword. AdoptionCache remembers the date a repository
// adopted the convention together with the per-repository filter counts of
// the last run.
//
// Both are plain JSON files rewritten in full on every Save, through a temp
// file and rename. A missing file loads as an empty cache; a file that does
// not parse is logged and replaced on the next Save.
package cache
