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
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"
	"time"

	"github.com/kraklabs/ccscorpus/internal/output"
)

// AdoptionMethod tags adoption files produced by diff tracing.
const AdoptionMethod = "diff_deep_trace"

// RepoAdoption is the cached adoption record of one repository.
type RepoAdoption struct {
	// AdoptionDate in TimestampLayout, nil when no adoption was found.
	AdoptionDate *string `json:"adoption_date"`

	OriginalCount int `json:"original_count"`
	KeptCount     int `json:"kept_count"`
	FilteredCount int `json:"filtered_count"`
}

// Date parses AdoptionDate. ok is false when it is nil or malformed.
func (r RepoAdoption) Date() (time.Time, bool) {
	if r.AdoptionDate == nil || *r.AdoptionDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimestampLayout, *r.AdoptionDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

type adoptionFile struct {
	Method      string                  `json:"method"`
	LastUpdate  string                  `json:"last_update"`
	RepoDetails map[string]RepoAdoption `json:"repo_details"`
}

// AdoptionCache maps repositories to adoption records. It is safe for
// concurrent use.
type AdoptionCache struct {
	path string

	mu      sync.Mutex
	entries map[string]RepoAdoption
}

// LoadAdoption opens the adoption cache at path.
func LoadAdoption(path string, logger *slog.Logger) (*AdoptionCache, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &AdoptionCache{path: path, entries: make(map[string]RepoAdoption)}

	var f adoptionFile
	err := output.ReadFile(path, &f)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.Info("cache.adoption.new", "path", path)
		return c, nil
	case err != nil && errors.Is(err, fs.ErrPermission):
		return nil, fmt.Errorf("read adoption cache: %w", err)
	case err != nil:
		logger.Warn("cache.adoption.corrupt", "path", path, "err", err)
		return c, nil
	}

	if f.RepoDetails != nil {
		c.entries = f.RepoDetails
	}
	logger.Info("cache.adoption.loaded", "path", path, "repos", len(c.entries), "method", f.Method)
	return c, nil
}

// Get returns the record for repo.
func (c *AdoptionCache) Get(repo string) (RepoAdoption, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[repo]
	return r, ok
}

// AdoptionDate returns the cached adoption date of repo. ok is false for
// unknown repositories and for a null date, which is resolved again.
func (c *AdoptionCache) AdoptionDate(repo string) (time.Time, bool) {
	r, ok := c.Get(repo)
	if !ok {
		return time.Time{}, false
	}
	return r.Date()
}

// SetAdoption records a freshly resolved adoption date (nil for none) and
// resets the counts.
func (c *AdoptionCache) SetAdoption(repo string, date *time.Time, originalCount int) {
	r := RepoAdoption{OriginalCount: originalCount}
	if date != nil {
		s := date.UTC().Format(TimestampLayout)
		r.AdoptionDate = &s
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[repo] = r
}

// SetCounts records the filter outcome for repo, keeping its date.
func (c *AdoptionCache) SetCounts(repo string, original, kept int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.entries[repo]
	r.OriginalCount = original
	r.KeptCount = kept
	r.FilteredCount = original - kept
	c.entries[repo] = r
}

// Len is the number of cached repositories.
func (c *AdoptionCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Save writes the cache to its file.
func (c *AdoptionCache) Save() error {
	c.mu.Lock()
	f := adoptionFile{
		Method:      AdoptionMethod,
		LastUpdate:  time.Now().Format(TimestampLayout),
		RepoDetails: make(map[string]RepoAdoption, len(c.entries)),
	}
	for repo, r := range c.entries {
		f.RepoDetails[repo] = r
	}
	c.mu.Unlock()

	if err := output.WriteFile(c.path, f); err != nil {
		return fmt.Errorf("save adoption cache: %w", err)
	}
	return nil
}
