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

// Package ccs classifies commit messages against the Conventional Commits
// specification (CCS).
//
// The package is pure string logic with no I/O. It answers three questions
// the curation pipeline asks over and over:
//
//   - Is this commit message compliant? See IsCompliant.
//   - What are its type and scope? See ParseHeader.
//   - Does a diff add a line mentioning the specification? See
//     AddsLineContaining with Keyword.
//
// Only the first line of a message (the header) is ever inspected. A
// compliant header has the shape
//
//	type[(scope)][!]: description
//
// where type is one or more ASCII letters (any case), the optional scope is
// any parenthesised text, "!" marks a breaking change, and at least one
// whitespace character separates the colon from a non-empty description.
//
// # Example
//
//	if ccs.IsCompliant(msg) {
//	    h, _ := ccs.ParseHeader(msg)
//	    fmt.Println(h.Type, h.Scope) // "feat", "parser"
//	}
//
// IsCompliant and ParseHeader are intentionally not identical: ParseHeader
// is more lenient about the whitespace after the colon and stricter about
// balanced parentheses in the scope. The pipeline only extracts fields from
// commits that IsCompliant accepted, so a header may be compliant and still
// yield no type (for example "feat(a(b): x").
package ccs
