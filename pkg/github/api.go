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

package github

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// commitsPerPage is the page size for commit listings, the API maximum.
const commitsPerPage = 100

// CodeSearchItem is one hit of a code search.
type CodeSearchItem struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	SHA     string `json:"sha"`
	HTMLURL string `json:"html_url"`
}

// CodeSearchResult is the response of GET /search/code.
type CodeSearchResult struct {
	TotalCount        int              `json:"total_count"`
	IncompleteResults bool             `json:"incomplete_results"`
	Items             []CodeSearchItem `json:"items"`
}

// Paths returns the distinct paths of the hits in response order.
func (r *CodeSearchResult) Paths() []string {
	seen := make(map[string]struct{}, len(r.Items))
	var paths []string
	for _, it := range r.Items {
		if _, ok := seen[it.Path]; ok {
			continue
		}
		seen[it.Path] = struct{}{}
		paths = append(paths, it.Path)
	}
	return paths
}

// CommitRef is a commit as returned by the commit listing endpoint.
type CommitRef struct {
	SHA string

	// Date is the author date.
	Date time.Time
}

type apiCommit struct {
	SHA    string `json:"sha"`
	Commit struct {
		Author struct {
			Date time.Time `json:"date"`
		} `json:"author"`
	} `json:"commit"`
}

// RepoExists reports whether owner/name resolves to a repository.
func (c *Client) RepoExists(ctx context.Context, repo string) (bool, error) {
	if err := validateRepo(repo); err != nil {
		return false, err
	}
	var meta struct {
		FullName string `json:"full_name"`
	}
	err := c.getJSON(ctx, "/repos/"+repo, nil, &meta)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get repository %s: %w", repo, err)
	}
	return true, nil
}

// SearchCode searches repo for keyword.
func (c *Client) SearchCode(ctx context.Context, keyword, repo string, perPage int) (*CodeSearchResult, error) {
	if err := validateRepo(repo); err != nil {
		return nil, err
	}
	q := url.Values{}
	q.Set("q", keyword+" repo:"+repo)
	if perPage > 0 {
		q.Set("per_page", strconv.Itoa(perPage))
	}

	var res CodeSearchResult
	if err := c.getJSON(ctx, "/search/code", q, &res); err != nil {
		return nil, fmt.Errorf("search %q in %s: %w", keyword, repo, err)
	}
	return &res, nil
}

// ListCommitsForPath returns every commit touching path, newest first.
func (c *Client) ListCommitsForPath(ctx context.Context, repo, path string) ([]CommitRef, error) {
	if err := validateRepo(repo); err != nil {
		return nil, err
	}
	var out []CommitRef
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("path", path)
		q.Set("per_page", strconv.Itoa(commitsPerPage))
		q.Set("page", strconv.Itoa(page))

		var batch []apiCommit
		if err := c.getJSON(ctx, "/repos/"+repo+"/commits", q, &batch); err != nil {
			return nil, fmt.Errorf("list commits of %s in %s (page %d): %w", path, repo, page, err)
		}
		for _, ac := range batch {
			out = append(out, CommitRef{SHA: ac.SHA, Date: ac.Commit.Author.Date.UTC()})
		}
		if len(batch) < commitsPerPage {
			return out, nil
		}
	}
}

// CommitDiff returns the unified diff of a commit.
func (c *Client) CommitDiff(ctx context.Context, repo, sha string) (string, error) {
	if err := validateRepo(repo); err != nil {
		return "", err
	}
	body, err := c.do(ctx, request{
		path:   "/repos/" + repo + "/commits/" + url.PathEscape(sha),
		accept: acceptDiff,
	})
	if err != nil {
		return "", fmt.Errorf("get diff %s@%s: %w", repo, sha, err)
	}
	return string(body), nil
}

func validateRepo(repo string) error {
	owner, name, ok := strings.Cut(repo, "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return fmt.Errorf("%w: %q", ErrInvalidRepo, repo)
	}
	return nil
}
