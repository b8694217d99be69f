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

// Package output provides JSON encoding for ccscorpus results.
//
// Stage results are printed with JSON when --json is set, errors go to
// stderr with JSONError, and the cache and analysis files every stage writes
// go through WriteFile so a crash never leaves a truncated file behind.
//
//	res, err := pipeline.Classify(ctx, cfg, logger)
//	if err != nil {
//	    errors.FatalError(err, true)
//	}
//	if err := output.JSON(res); err != nil {
//	    errors.FatalError(err, true)
//	}
package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// JSON writes data to stdout as indented JSON.
func JSON(data any) error {
	return JSONTo(os.Stdout, data)
}

// JSONTo writes data to w as indented JSON followed by a newline. HTML
// characters are not escaped.
func JSONTo(w io.Writer, data any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("JSON encoding failed: %w", err)
	}
	return nil
}

// ErrorJSON is the machine-readable form of a failure.
type ErrorJSON struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// JSONError writes err to stderr as JSON.
func JSONError(err error) error {
	return JSONErrorTo(os.Stderr, err)
}

// JSONErrorTo writes err to w as JSON.
func JSONErrorTo(w io.Writer, err error) error {
	return JSONTo(w, ErrorJSON{Error: err.Error()})
}

// WriteFile writes data as indented JSON to path atomically: the bytes go to
// "<path>.tmp" first and are renamed into place. Parent directories are
// created.
func WriteFile(path string, data any) error {
	var buf bytes.Buffer
	if err := JSONTo(&buf, data); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory for %s: %w", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// ReadFile decodes the JSON file at path into target. A missing file is
// reported with an error satisfying errors.Is(err, fs.ErrNotExist).
func ReadFile(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
