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

package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccscorpus/internal/errors"
	"github.com/kraklabs/ccscorpus/internal/ui"
	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

// runCheck executes the 'check' command for ad-hoc repository verdicts.
func runCheck(args []string, configPath string, globals GlobalFlags) {
	cfg := mustLoadConfig(configPath, globals)

	fs := flag.NewFlagSet("check", flag.ExitOnError)
	reposFile := fs.String("repos-file", "", "File with one owner/name per line (# starts a comment)")
	out := fs.String("output", "", "Write the results JSON to this path")
	keyword := fs.String("keyword", cfg.Pipeline.Keyword, "Keyword searched in repository code")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: ccscorpus check [options] <owner/name>...

Description:
  Ask GitHub whether each repository exists and mentions the keyword in its
  code. Failed lookups count as negative. The cache is not consulted.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  ccscorpus check angular/angular octo/hello
  ccscorpus check --repos-file repos.txt --output test_keyword_results.json
`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	repos := fs.Args()
	if *reposFile != "" {
		fromFile, err := readRepoList(*reposFile)
		if err != nil {
			errors.FatalError(errors.NewNotFoundError("Cannot read repository list", err.Error(),
				"Check the --repos-file path"), globals.JSON)
		}
		repos = append(repos, fromFile...)
	}
	if len(repos) == 0 {
		fs.Usage()
		os.Exit(errors.ExitInput)
	}

	s := newSession(globals)
	defer s.cancel()

	if !globals.Quiet {
		ui.Header(stageDescription(pipeline.StageCheck))
	}
	res, err := pipeline.CheckRepos(s.ctx, pipeline.CheckConfig{
		Options:    s.opts,
		Repos:      repos,
		Keyword:    *keyword,
		OutputPath: *out,
		Checker:    newGitHubClient(cfg, s.logger),
	}, s.logger)
	if err != nil {
		s.fail(pipeline.StageCheck, err)
	}
	s.emit(res, func() { printCheck(res, *out) })
}

// readRepoList reads owner/name lines, skipping blanks and comments.
func readRepoList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var repos []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = strings.TrimSpace(line[:i])
		}
		if line != "" {
			repos = append(repos, line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return repos, nil
}

func printCheck(res *pipeline.CheckResult, out string) {
	for _, repo := range res.Order {
		if res.Results[repo] {
			ui.Successf("%s mentions %s", repo, res.Keyword)
		} else {
			ui.Errorf("%s does not mention %s", repo, res.Keyword)
		}
	}
	fmt.Fprintln(ui.Out)
	ui.Field("Checked", res.TotalRepos)
	ui.Field("Conventional", res.ConventionalRepos)
	if out != "" {
		ui.Successf("Wrote %s", out)
	}
}
