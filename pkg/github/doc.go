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

// Package github is a small GitHub REST v3 client for the calls the curation
// pipeline makes: repository existence, code search, per-path commit history
// and commit diffs.
//
// All requests go through one rate limiter (golang.org/x/time/rate). Primary
// rate-limit responses (403/429 with an exhausted X-RateLimit-Remaining or a
// future X-RateLimit-Reset) wait for the reset and are retried without
// spending the retry budget. Server errors and transport failures are retried
// with exponential backoff. A 404 maps to ErrNotFound.
//
// Example:
//
//	client := github.New(github.Config{Token: os.Getenv("GITHUB_TOKEN")})
//	res, err := client.SearchCode(ctx, ccs.Keyword, "octo/api", 1)
//	if err != nil {
//	    return err
//	}
//	fmt.Println(res.TotalCount > 0)
package github
