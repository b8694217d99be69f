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

package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"
)

// Field prints an indented "label: value" line with the label padded so
// consecutive fields line up.
//
// Example output: "  Total records:      1204"
func Field(label string, value any) {
	fmt.Fprintf(Out, "  %s %v\n", Label(fmt.Sprintf("%-20s", label+":")), value)
}

// Percent formats a 0..1 ratio as a percentage with two decimals.
func Percent(ratio float64) string {
	return fmt.Sprintf("%.2f%%", ratio*100)
}

// Table prints rows under a header line, columns aligned with two spaces of
// padding. Rows shorter than the header are padded with empty cells.
func Table(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	tw := tabwriter.NewWriter(Out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  "+strings.Join(headers, "\t"))
	for _, row := range rows {
		cells := make([]string, len(headers))
		copy(cells, row)
		fmt.Fprintln(tw, "  "+strings.Join(cells, "\t"))
	}
	_ = tw.Flush()
}
