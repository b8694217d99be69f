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

package output

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestJSONTo verifies indentation and that text is not HTML-escaped.
func TestJSONTo(t *testing.T) {
	var buf bytes.Buffer

	data := map[string]any{
		"message": "feat(ui): <Button> & für",
		"count":   42,
	}
	require.NoError(t, JSONTo(&buf, data))

	out := buf.String()
	assert.Contains(t, out, "  \"count\": 42")
	assert.Contains(t, out, `"feat(ui): <Button> & für"`)
	assert.True(t, strings.HasSuffix(out, "}\n"))
}

// TestJSONErrorTo verifies the error envelope.
func TestJSONErrorTo(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONErrorTo(&buf, errors.New("input file not found")))
	assert.Contains(t, buf.String(), `"error": "input file not found"`)
	assert.NotContains(t, buf.String(), `"code"`)
}

// TestWriteFile verifies atomic writes create parents and leave no temp file.
func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cache.json")

	type entry struct {
		Repo string  `json:"repo"`
		Date *string `json:"adoption_date"`
	}
	require.NoError(t, WriteFile(path, []entry{{Repo: "octo/api"}}))

	_, err := os.Stat(path + ".tmp")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	var got []entry
	require.NoError(t, ReadFile(path, &got))
	assert.Equal(t, []entry{{Repo: "octo/api"}}, got)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"adoption_date": null`)
}

// TestReadFileErrors distinguishes missing from corrupt files.
func TestReadFileErrors(t *testing.T) {
	dir := t.TempDir()

	var v map[string]any
	err := ReadFile(filepath.Join(dir, "missing.json"), &v)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	corrupt := filepath.Join(dir, "corrupt.json")
	require.NoError(t, os.WriteFile(corrupt, []byte("{not json"), 0o644))
	err = ReadFile(corrupt, &v)
	require.Error(t, err)
	assert.False(t, errors.Is(err, fs.ErrNotExist))
}
