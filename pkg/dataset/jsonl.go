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
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
)

// ReadJSONL reads one Commit per line. Blank lines are ignored.
func ReadJSONL(path string) ([]Commit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open jsonl %s: %w", path, err)
	}
	defer f.Close()

	dec := json.NewDecoder(bufio.NewReader(f))
	var out []Commit
	for {
		var c Commit
		err := dec.Decode(&c)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode jsonl %s record %d: %w", path, len(out)+1, err)
		}
		out = append(out, c)
	}
}

// WriteJSONL writes commits as JSON Lines atomically. Non-ASCII text is
// written as UTF-8 and HTML characters are not escaped.
func WriteJSONL(path string, commits []Commit) error {
	return writeAtomic(path, func(tmp string) error {
		f, err := os.Create(tmp)
		if err != nil {
			return fmt.Errorf("create jsonl %s: %w", tmp, err)
		}
		if err := EncodeJSONL(f, commits); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	})
}

// EncodeJSONL streams commits to w, one object per line.
func EncodeJSONL(w io.Writer, commits []Commit) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for i := range commits {
		if err := enc.Encode(&commits[i]); err != nil {
			return fmt.Errorf("encode record %d: %w", i, err)
		}
	}
	return bw.Flush()
}
