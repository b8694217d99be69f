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
	"regexp"
	"strings"
	"unicode"
)

// Keyword is the marker a repository uses to declare that it follows the
// specification, usually as a link in README or CONTRIBUTING files.
const Keyword = "conventionalcommits.org"

// space matches Unicode whitespace; RE2's \s is ASCII only.
const space = `[\s\p{Z}]`

var (
	compliantPattern = regexp.MustCompile(`(?i)^([a-zA-Z]+)(\(.+?\))?!?:` + space + `.+`)
	simplePattern    = regexp.MustCompile(`^([a-zA-Z]+)(!?):` + space + `*(.+)`)
	scopedPrefix     = regexp.MustCompile(`^([a-zA-Z]+)\(`)
)

// Header holds the structured fields of a commit header.
type Header struct {
	// Type is the lowercased commit type ("feat", "fix", ...).
	Type string

	// Scope is the text between the parentheses, verbatim. Empty when the
	// header has no scope or an empty "()" scope.
	Scope string

	// Breaking is set when "!" precedes the colon.
	Breaking bool

	// Description is the text after the colon, trimmed.
	Description string
}

// IsValidMessage reports whether s carries any non-whitespace content.
func IsValidMessage(s string) bool {
	return strings.TrimSpace(s) != ""
}

// FirstLine returns the trimmed first line of a commit message.
func FirstLine(message string) string {
	line, _, _ := strings.Cut(message, "\n")
	return strings.TrimSpace(line)
}

// IsCompliant reports whether the first line of message follows the
// type[(scope)][!]: description shape.
func IsCompliant(message string) bool {
	if !IsValidMessage(message) {
		return false
	}
	return compliantPattern.MatchString(FirstLine(message))
}

// ParseHeader extracts type and scope from the first line of message.
//
// Scopes are matched with a nesting-aware scan, so "fix(api(v2)): x" yields
// scope "api(v2)". The second return value is false when no type could be
// extracted.
func ParseHeader(message string) (Header, bool) {
	if !IsValidMessage(message) {
		return Header{}, false
	}
	line := FirstLine(message)

	if m := scopedPrefix.FindStringSubmatch(line); m != nil {
		return parseScoped(line, m[1])
	}

	m := simplePattern.FindStringSubmatch(line)
	if m == nil {
		return Header{}, false
	}
	return Header{
		Type:        strings.ToLower(m[1]),
		Breaking:    m[2] == "!",
		Description: strings.TrimSpace(m[3]),
	}, true
}

// parseScoped handles headers starting with "type(". A header with an
// opening paren never falls back to the unscoped form.
func parseScoped(line, rawType string) (Header, bool) {
	start := len(rawType) + 1
	depth := 1
	end := -1
	for i := start; i < len(line); i++ {
		switch line[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 {
			end = i
			break
		}
	}
	if end < 0 {
		return Header{}, false
	}

	rest := strings.TrimLeftFunc(line[end+1:], unicode.IsSpace)
	h := Header{
		Type:  strings.ToLower(rawType),
		Scope: line[start:end],
	}
	switch {
	case strings.HasPrefix(rest, "!:"):
		h.Breaking = true
		h.Description = strings.TrimSpace(rest[2:])
	case strings.HasPrefix(rest, ":"):
		h.Description = strings.TrimSpace(rest[1:])
	default:
		return Header{}, false
	}
	return h, true
}

// AddsLineContaining reports whether a unified diff adds a line containing
// needle. File headers ("+++ b/path") are not added lines.
func AddsLineContaining(diff, needle string) bool {
	for _, line := range strings.Split(diff, "\n") {
		if strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "+++") && strings.Contains(line, needle) {
			return true
		}
	}
	return false
}
