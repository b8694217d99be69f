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

package pipeline

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// renderReport formats the plain-text statistics report.
func renderReport(res *StatsResult) string {
	var b strings.Builder
	rule := func(ch string, n int) { b.WriteString(strings.Repeat(ch, n) + "\n") }

	rule("=", 80)
	b.WriteString("CCS Commits Dataset Statistical Report\n")
	rule("=", 80)
	b.WriteString("\n")

	b.WriteString("Analysis 1: Language distribution across repositories\n")
	rule("-", 80)
	fmt.Fprintf(&b, "Total CCS-compliant repositories: %s\n", thousands(res.TotalRepos))
	fmt.Fprintf(&b, "Number of unique languages: %d\n\n", len(res.RepoLanguages))
	fmt.Fprintf(&b, "%-20s %-15s\n", "Language", "Repo Count")
	rule("-", 40)
	for _, c := range res.RepoLanguages {
		fmt.Fprintf(&b, "%-20s %-15d\n", c.Name, c.Count)
	}

	b.WriteString("\n\nAnalysis 2: Language distribution across commits\n")
	rule("-", 80)
	fmt.Fprintf(&b, "Total CCS-compliant commits: %s\n", thousands(res.TotalRecords))
	fmt.Fprintf(&b, "Number of unique languages: %d\n\n", len(res.CommitLanguages))
	fmt.Fprintf(&b, "%-20s %-15s\n", "Language", "Commit Count")
	rule("-", 40)
	for _, c := range res.CommitLanguages {
		fmt.Fprintf(&b, "%-20s %-15d\n", c.Name, c.Count)
	}

	b.WriteString("\n\nAnalysis 3: Distribution of commit 'types'\n")
	rule("-", 80)
	fmt.Fprintf(&b, "Number of unique types: %d\n\n", len(res.Types))
	fmt.Fprintf(&b, "%-20s %-15s\n", "Type", "Commit Count")
	rule("-", 40)
	for _, c := range res.Types {
		fmt.Fprintf(&b, "%-20s %-15d\n", c.Name, c.Count)
	}

	b.WriteString("\n\nAnalysis 4: Distribution of commit 'scopes'\n")
	rule("-", 80)
	fmt.Fprintf(&b, "Number of unique scopes: %d\n\n", len(res.Scopes))
	top := min(res.TopN, len(res.Scopes))
	fmt.Fprintf(&b, "Scope Distribution (Top %d):\n", top)
	fmt.Fprintf(&b, "%-40s %-15s\n", "Scope", "Commit Count")
	rule("-", 60)
	for _, c := range res.Scopes[:top] {
		fmt.Fprintf(&b, "%-40s %-15d\n", c.Name, c.Count)
	}
	return b.String()
}

// writeStatsCSVs writes the four distribution tables and returns their
// paths.
func writeStatsCSVs(dir string, res *StatsResult) ([]string, error) {
	tables := []struct {
		name    string
		header  []string
		rows    []Count
		percent bool
	}{
		{RepoLanguageCSVFile, []string{"language", "repo_count"}, res.RepoLanguages, false},
		{CommitLanguageCSVFile, []string{"language", "commit_count"}, res.CommitLanguages, false},
		{CommitTypeCSVFile, []string{"type", "count", "percentage"}, res.Types, true},
		{CommitScopeCSVFile, []string{"scope", "count", "percentage"}, res.Scopes, true},
	}

	paths := make([]string, 0, len(tables))
	for _, t := range tables {
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write(t.header); err != nil {
			return nil, err
		}
		for _, c := range t.rows {
			rec := []string{c.Name, strconv.Itoa(c.Count)}
			if t.percent {
				rec = append(rec, formatPercent(c.Percentage))
			}
			if err := w.Write(rec); err != nil {
				return nil, err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, fmt.Errorf("encode %s: %w", t.name, err)
		}

		path := filepath.Join(dir, t.name)
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", t.name, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// formatPercent renders a percentage with the shortest exact decimal and
// at least one fractional digit ("50.0", "33.33").
func formatPercent(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// thousands formats n with comma group separators.
func thousands(n int) string {
	s := strconv.Itoa(n)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}
