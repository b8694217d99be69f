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
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ccstest "github.com/kraklabs/ccscorpus/internal/testing"
)

func newTestClient(baseURL string) *Client {
	return New(Config{
		BaseURL:          baseURL,
		Token:            "t0k",
		RateLimit:        1000,
		RateBurst:        10,
		MaxRetries:       2,
		RetryBackoff:     time.Millisecond,
		MinRateLimitWait: time.Millisecond,
		ResetSlack:       time.Millisecond,
	})
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestRepoExists(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api")
	client := newTestClient(gh.URL())
	ctx := context.Background()

	ok, err := client.RepoExists(ctx, "octo/api")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.RepoExists(ctx, "octo/gone")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.RepoExists(ctx, "not-a-repo")
	assert.ErrorIs(t, err, ErrInvalidRepo)
}

func TestSearchCode(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api", "README.md", "CONTRIBUTING.md", "README.md")
	client := newTestClient(gh.URL())

	res, err := client.SearchCode(context.Background(), "conventionalcommits.org", "octo/api", 0)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)
	assert.Equal(t, []string{"README.md", "CONTRIBUTING.md"}, res.Paths())

	res, err = client.SearchCode(context.Background(), "conventionalcommits.org", "octo/api", 1)
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalCount)
	assert.Len(t, res.Items, 1)
}

func TestListCommitsForPathPaginates(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api")

	var history []ccstest.StubCommit
	for i := 0; i < 150; i++ {
		history = append(history, ccstest.StubCommit{
			SHA:  "sha" + strconv.Itoa(i),
			Date: day(2023, 1, 1).Add(-time.Duration(i) * time.Hour),
		})
	}
	gh.AddHistory("octo/api", "README.md", history...)
	client := newTestClient(gh.URL())

	commits, err := client.ListCommitsForPath(context.Background(), "octo/api", "README.md")
	require.NoError(t, err)
	require.Len(t, commits, 150)
	assert.Equal(t, "sha0", commits[0].SHA)
	assert.Equal(t, "sha149", commits[149].SHA)
	assert.True(t, commits[149].Date.Equal(day(2023, 1, 1).Add(-149*time.Hour)))
	assert.Equal(t, 2, gh.CountRequests("/repos/octo/api/commits?"))
}

func TestCommitDiff(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api")
	gh.AddDiff("octo/api", "abc", "+++ b/README.md\n+conventionalcommits.org\n")
	client := newTestClient(gh.URL())

	diff, err := client.CommitDiff(context.Background(), "octo/api", "abc")
	require.NoError(t, err)
	assert.Contains(t, diff, "+conventionalcommits.org")

	_, err = client.CommitDiff(context.Background(), "octo/api", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetryOnServerError(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api")
	gh.FailNext("/repos/octo/api", 2, http.StatusBadGateway, nil)
	client := newTestClient(gh.URL())

	ok, err := client.RepoExists(context.Background(), "octo/api")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, gh.CountRequests("/repos/octo/api"))
}

func TestRetryBudgetExhausted(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api")
	gh.FailNext("/repos/octo/api", 10, http.StatusInternalServerError, nil)
	client := newTestClient(gh.URL())

	_, err := client.RepoExists(context.Background(), "octo/api")
	require.Error(t, err)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, 3, gh.CountRequests("/repos/octo/api"))
}

func TestRateLimitWaitDoesNotSpendRetries(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api")
	header := http.Header{}
	header.Set("X-RateLimit-Remaining", "0")
	header.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))
	gh.FailNext("/repos/octo/api", 5, http.StatusForbidden, header)
	client := newTestClient(gh.URL())

	ok, err := client.RepoExists(context.Background(), "octo/api")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 6, gh.CountRequests("/repos/octo/api"))
}

func TestForbiddenWithoutRateLimitFailsFast(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api")
	gh.FailNext("/repos/octo/api", 5, http.StatusForbidden, nil)
	client := newTestClient(gh.URL())

	_, err := client.RepoExists(context.Background(), "octo/api")
	require.Error(t, err)
	assert.Equal(t, 1, gh.CountRequests("/repos/octo/api"))
}

func TestContextCancelStopsWaiting(t *testing.T) {
	gh := ccstest.NewGitHubStub(t)
	gh.AddRepo("octo/api")
	header := http.Header{}
	header.Set("Retry-After", "3600")
	gh.FailNext("/repos/octo/api", 1, http.StatusTooManyRequests, header)
	client := newTestClient(gh.URL())

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := client.RepoExists(ctx, "octo/api")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimitWait(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	c := New(Config{MinRateLimitWait: 2 * time.Second, ResetSlack: time.Second})
	c.now = func() time.Time { return now }

	hdr := func(kv ...string) http.Header {
		h := http.Header{}
		for i := 0; i+1 < len(kv); i += 2 {
			h.Set(kv[i], kv[i+1])
		}
		return h
	}
	reset := func(d time.Duration) string { return strconv.FormatInt(now.Add(d).Unix(), 10) }

	tests := []struct {
		name    string
		status  int
		header  http.Header
		want    time.Duration
		limited bool
	}{
		{"future reset", http.StatusForbidden, hdr("X-RateLimit-Reset", reset(30*time.Second)), 31 * time.Second, true},
		{"exhausted, past reset", http.StatusForbidden, hdr("X-RateLimit-Remaining", "0", "X-RateLimit-Reset", reset(-time.Minute)), 2 * time.Second, true},
		{"retry-after", http.StatusTooManyRequests, hdr("Retry-After", "7"), 7 * time.Second, true},
		{"plain forbidden", http.StatusForbidden, hdr(), 0, false},
		{"server error", http.StatusBadGateway, hdr("X-RateLimit-Remaining", "0"), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, limited := c.rateLimitWait(&HTTPError{StatusCode: tt.status, Header: tt.header})
			assert.Equal(t, tt.limited, limited)
			assert.Equal(t, tt.want, got)
		})
	}
}
