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

package testing

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// StubCommit is a commit in a stubbed path history.
type StubCommit struct {
	SHA  string
	Date time.Time
}

type stubFailure struct {
	remaining int
	status    int
	header    http.Header
}

// GitHubStub is an in-process fake of the GitHub REST endpoints used by the
// pipeline.
type GitHubStub struct {
	server *httptest.Server

	mu       sync.Mutex
	repos    map[string]bool
	search   map[string][]string
	history  map[string][]StubCommit
	diffs    map[string]string
	failures map[string]*stubFailure
	requests []string
}

// NewGitHubStub starts a stub server that is closed when the test ends.
func NewGitHubStub(t *testing.T) *GitHubStub {
	t.Helper()

	s := &GitHubStub{
		repos:    make(map[string]bool),
		search:   make(map[string][]string),
		history:  make(map[string][]StubCommit),
		diffs:    make(map[string]string),
		failures: make(map[string]*stubFailure),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.server.Close)
	return s
}

// URL is the base URL to configure the client with.
func (s *GitHubStub) URL() string {
	return s.server.URL
}

// AddRepo registers an existing repository. keywordPaths are the files the
// code search reports as containing the keyword.
func (s *GitHubStub) AddRepo(repo string, keywordPaths ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.repos[repo] = true
	if len(keywordPaths) > 0 {
		s.search[repo] = append(s.search[repo], keywordPaths...)
	}
}

// AddHistory sets the commit history of path, newest first.
func (s *GitHubStub) AddHistory(repo, path string, commits ...StubCommit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history[repo+"\x00"+path] = commits
}

// AddDiff sets the diff returned for a commit.
func (s *GitHubStub) AddDiff(repo, sha, diff string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.diffs[repo+"@"+sha] = diff
}

// FailNext makes the next n requests to urlPath answer with status and the
// given headers.
func (s *GitHubStub) FailNext(urlPath string, n, status int, header http.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[urlPath] = &stubFailure{remaining: n, status: status, header: header}
}

// Requests returns the request paths (with query) received so far.
func (s *GitHubStub) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// CountRequests returns how many received paths start with prefix.
func (s *GitHubStub) CountRequests(prefix string) int {
	n := 0
	for _, r := range s.Requests() {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (s *GitHubStub) handle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.requests = append(s.requests, r.URL.RequestURI())
	if f, ok := s.failures[r.URL.Path]; ok && f.remaining > 0 {
		f.remaining--
		s.mu.Unlock()
		for k, vs := range f.header {
			for _, v := range vs {
				w.Header().Add(k, v)
			}
		}
		http.Error(w, `{"message":"injected failure"}`, f.status)
		return
	}
	s.mu.Unlock()

	if r.URL.Path == "/search/code" {
		s.handleSearch(w, r)
		return
	}

	parts := strings.Split(strings.TrimPrefix(r.URL.Path, "/repos/"), "/")
	if !strings.HasPrefix(r.URL.Path, "/repos/") || len(parts) < 2 {
		http.NotFound(w, r)
		return
	}
	repo := parts[0] + "/" + parts[1]

	s.mu.Lock()
	exists := s.repos[repo]
	s.mu.Unlock()
	if !exists {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
		return
	}

	switch {
	case len(parts) == 2:
		writeJSON(w, http.StatusOK, map[string]string{"full_name": repo})
	case len(parts) == 3 && parts[2] == "commits":
		s.handleCommits(w, r, repo)
	case len(parts) == 4 && parts[2] == "commits":
		s.handleDiff(w, r, repo, parts[3])
	default:
		http.NotFound(w, r)
	}
}

func (s *GitHubStub) handleSearch(w http.ResponseWriter, r *http.Request) {
	var repo string
	for _, field := range strings.Fields(r.URL.Query().Get("q")) {
		if after, ok := strings.CutPrefix(field, "repo:"); ok {
			repo = after
		}
	}

	s.mu.Lock()
	paths := s.search[repo]
	s.mu.Unlock()

	items := make([]map[string]string, 0, len(paths))
	for _, p := range paths {
		items = append(items, map[string]string{"path": p, "name": p[strings.LastIndex(p, "/")+1:]})
	}
	if perPage, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && perPage < len(items) {
		items = items[:perPage]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_count":        len(paths),
		"incomplete_results": false,
		"items":              items,
	})
}

func (s *GitHubStub) handleCommits(w http.ResponseWriter, r *http.Request, repo string) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	if perPage < 1 {
		perPage = 30
	}

	s.mu.Lock()
	all := s.history[repo+"\x00"+q.Get("path")]
	s.mu.Unlock()

	start := min((page-1)*perPage, len(all))
	end := min(start+perPage, len(all))
	out := make([]map[string]any, 0, end-start)
	for _, c := range all[start:end] {
		out = append(out, map[string]any{
			"sha": c.SHA,
			"commit": map[string]any{
				"author": map[string]string{"date": c.Date.UTC().Format(time.RFC3339)},
			},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *GitHubStub) handleDiff(w http.ResponseWriter, r *http.Request, repo, sha string) {
	s.mu.Lock()
	diff, ok := s.diffs[repo+"@"+sha]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "No commit found"})
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(diff))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
