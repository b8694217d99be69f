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

import (
	"strings"
	"time"
)

// DateLayout is the layout of the commit date column ("31.12.2023 23:59:59").
const DateLayout = "02.01.2006 15:04:05"

// Mod is a single file modification of a commit.
type Mod struct {
	ChangeType string `json:"change_type"`
	OldPath    string `json:"old_path"`
	NewPath    string `json:"new_path"`
	Diff       string `json:"diff"`
}

// RawCommit is a record of the upstream commit-chronicle corpus.
type RawCommit struct {
	Author          int64  `json:"author"`
	Date            string `json:"date"`
	Timezone        int64  `json:"timezone"`
	Hash            string `json:"hash"`
	Message         string `json:"message"`
	Mods            []Mod  `json:"mods"`
	Language        string `json:"language"`
	License         string `json:"license"`
	Repo            string `json:"repo"`
	OriginalMessage string `json:"original_message"`
}

// Commit is a record of the curated dataset. The enrichment fields are nil
// until the stage that computes them has run.
type Commit struct {
	Author          int64  `json:"author"`
	Date            string `json:"date"`
	Timezone        int64  `json:"timezone"`
	Hash            string `json:"hash"`
	Message         string `json:"message"`
	Mods            []Mod  `json:"mods"`
	Language        string `json:"language"`
	License         string `json:"license"`
	Repo            string `json:"repo"`
	OriginalMessage string `json:"original_message"`

	// IsCCS is 1 for compliant messages and 0 otherwise.
	IsCCS *int32 `json:"is_CCS"`

	// CommitType is the lowercased header type ("feat").
	CommitType *string `json:"commit_type"`

	// CommitScope is the header scope, nil when absent or empty.
	CommitScope *string `json:"commit_scope"`
}

// ToCommit converts a raw record into the pipeline layout with empty
// enrichment fields.
func (r RawCommit) ToCommit() Commit {
	return Commit{
		Author:          r.Author,
		Date:            r.Date,
		Timezone:        r.Timezone,
		Hash:            r.Hash,
		Message:         r.Message,
		Mods:            r.Mods,
		Language:        r.Language,
		License:         r.License,
		Repo:            r.Repo,
		OriginalMessage: r.OriginalMessage,
	}
}

// EffectiveMessage returns the message, falling back to the original
// message when the processed one is blank.
func (r RawCommit) EffectiveMessage() string {
	if strings.TrimSpace(r.Message) != "" {
		return r.Message
	}
	return r.OriginalMessage
}

// Compliant reports whether the commit has been classified as compliant.
func (c *Commit) Compliant() bool {
	return c.IsCCS != nil && *c.IsCCS == 1
}

// SetCompliant records the classification verdict.
func (c *Commit) SetCompliant(ok bool) {
	var v int32
	if ok {
		v = 1
	}
	c.IsCCS = &v
}

// Time parses the commit date. ok is false when the date is missing or
// malformed.
func (c *Commit) Time() (time.Time, bool) {
	t, err := ParseDate(c.Date)
	return t, err == nil
}

// ParseDate parses a commit date in DateLayout.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// StringPtr returns nil for the empty string, a pointer to s otherwise.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed-to string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
