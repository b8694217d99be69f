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

// Package dataset reads and writes the tabular commit files the curation
// pipeline passes between stages.
//
// Two on-disk formats are supported:
//
//   - Parquet (.parquet), via github.com/xitongsys/parquet-go. This is the
//     format every stage reads and writes.
//   - JSON Lines (.json, .jsonl), one commit object per line. This is the
//     release format produced by the convert stage.
//
// # Schemas
//
// RawCommit is the upstream commit-chronicle layout. Commit is the pipeline
// layout: the raw columns plus the enrichment columns is_CCS, commit_type
// and commit_scope. All files written by the pipeline use the Commit layout,
// so any stage can consume any earlier stage's output; enrichment columns a
// stage has not computed yet are written as nulls.
//
// # Atomic writes
//
// Writers never leave a half-written file at the destination path. Data is
// written to "<path>.tmp" and renamed into place, the same pattern the
// ingestion checkpoints use. Stages that overwrite their input rely on this.
package dataset
