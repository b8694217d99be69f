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

package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/kraklabs/ccscorpus/internal/output"
)

// VerdictMethod tags verdict files produced by keyword search.
const VerdictMethod = "keyword_search"

// TimestampLayout is the layout of the timestamps written into cache files.
const TimestampLayout = "2006-01-02 15:04:05"

type verdictFile struct {
	Method            string          `json:"method"`
	Keyword           string          `json:"keyword"`
	Timestamp         string          `json:"timestamp"`
	TotalRepos        int             `json:"total_repos"`
	ConventionalRepos int             `json:"conventional_repos"`
	Cache             map[string]bool `json:"cache"`
}

// VerdictCache maps repositories to their keyword verdict. It is safe for
// concurrent use.
type VerdictCache struct {
	path    string
	keyword string

	mu      sync.Mutex
	entries map[string]bool
}

// LoadVerdicts opens the verdict cache at path. Both the current
// {method, keyword, cache, ...} layout and the legacy flat {repo: bool}
// layout are accepted.
func LoadVerdicts(path, keyword string, logger *slog.Logger) (*VerdictCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &VerdictCache{path: path, keyword: keyword, entries: make(map[string]bool)}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Info("cache.verdict.new", "path", path)
		return c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read verdict cache: %w", err)
	}

	entries, format, err := decodeVerdicts(data)
	if err != nil {
		logger.Warn("cache.verdict.corrupt", "path", path, "err", err)
		return c, nil
	}
	c.entries = entries
	logger.Info("cache.verdict.loaded", "path", path, "repos", len(entries), "format", format)
	return c, nil
}

func decodeVerdicts(data []byte) (map[string]bool, string, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, "", err
	}
	if _, ok := probe["cache"]; ok {
		var f verdictFile
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, "", err
		}
		if f.Cache == nil {
			f.Cache = make(map[string]bool)
		}
		method := f.Method
		if method == "" {
			method = "unknown"
		}
		return f.Cache, method, nil
	}

	legacy := make(map[string]bool, len(probe))
	if err := json.Unmarshal(data, &legacy); err != nil {
		return nil, "", err
	}
	return legacy, "legacy", nil
}

// Get returns the cached verdict for repo.
func (c *VerdictCache) Get(repo string) (verdict, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	verdict, ok = c.entries[repo]
	return verdict, ok
}

// Set records the verdict for repo.
func (c *VerdictCache) Set(repo string, verdict bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[repo] = verdict
}

// Len is the number of cached repositories.
func (c *VerdictCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Conventional counts the repositories with a positive verdict.
func (c *VerdictCache) Conventional() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, v := range c.entries {
		if v {
			n++
		}
	}
	return n
}

// Save writes the cache to its file.
func (c *VerdictCache) Save() error {
	c.mu.Lock()
	f := verdictFile{
		Method:    VerdictMethod,
		Keyword:   c.keyword,
		Timestamp: time.Now().Format(TimestampLayout),
		Cache:     make(map[string]bool, len(c.entries)),
	}
	for repo, v := range c.entries {
		f.Cache[repo] = v
		if v {
			f.ConventionalRepos++
		}
	}
	f.TotalRepos = len(f.Cache)
	c.mu.Unlock()

	if err := output.WriteFile(c.path, f); err != nil {
		return fmt.Errorf("save verdict cache: %w", err)
	}
	return nil
}
