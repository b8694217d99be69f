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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestField(t *testing.T) {
	buf := capture(t)
	Field("Total records", 1204)
	assert.Equal(t, "  Total records:       1204\n", buf.String())
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "80.00%", Percent(0.8))
	assert.Equal(t, "0.00%", Percent(0))
	assert.Equal(t, "33.33%", Percent(1.0/3))
}

func TestTable(t *testing.T) {
	buf := capture(t)
	Table([]string{"repo", "ccs_rate"}, [][]string{
		{"octo/a", "100.00%"},
		{"octo/longer-name", "85.00%"},
		{"octo/short"},
	})
	assert.Equal(t,
		"  repo              ccs_rate\n"+
			"  octo/a            100.00%\n"+
			"  octo/longer-name  85.00%\n"+
			"  octo/short        \n",
		buf.String())
}

func TestTableWithoutHeaders(t *testing.T) {
	buf := capture(t)
	Table(nil, [][]string{{"x"}})
	assert.Empty(t, buf.String())
}
