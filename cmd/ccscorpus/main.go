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

// Package main implements the ccscorpus CLI, which curates a Conventional
// Commits dataset from raw commit-chronicle parquet shards.
//
// Usage:
//
//	ccscorpus init                 Create ccscorpus.yaml and the directory layout
//	ccscorpus harvest              Keep commits of repositories that reference the keyword
//	ccscorpus classify             Tag each commit as compliant or not
//	ccscorpus filter-repos         Keep repositories with at least one compliant commit
//	ccscorpus extract              Keep compliant commits of high-rate repositories
//	ccscorpus adoption             Drop commits older than each repository's adoption
//	ccscorpus split                Time-ordered train/valid/test split
//	ccscorpus convert              Parquet to JSON Lines
//	ccscorpus stats                Text report and CSV distributions
//	ccscorpus check <repo>...      Keyword verdicts for single repositories
//	ccscorpus run                  All stages in order
package main

import (
	"fmt"
	"os"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/kraklabs/ccscorpus/internal/ui"
)

// Version information (set via ldflags during build)
var (
	version = "dev"     // Version string
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// GlobalFlags are the flags accepted before the command name.
type GlobalFlags struct {
	// JSON prints results as JSON on stdout and implies Quiet.
	JSON bool

	// Quiet suppresses human-readable output, progress and info logs.
	Quiet bool

	// NoColor disables colored output.
	NoColor bool

	// Debug enables debug logging.
	Debug bool

	// MetricsAddr serves Prometheus metrics when set.
	MetricsAddr string
}

// commands lists the subcommands in help order.
var commands = []struct{ name, summary string }{
	{"init", "Create ccscorpus.yaml and the directory layout"},
	{"harvest", "Keep commits of repositories that reference the keyword"},
	{"classify", "Tag each commit as Conventional Commits compliant or not"},
	{"filter-repos", "Keep repositories with at least one compliant commit"},
	{"extract", "Keep compliant commits of repositories above the rate threshold"},
	{"adoption", "Drop commits made before each repository adopted the convention"},
	{"split", "Split by time into train/valid/test over shared repositories"},
	{"convert", "Convert parquet files to JSON Lines"},
	{"stats", "Write the statistics report and CSV distributions"},
	{"check", "Check single repositories for the keyword"},
	{"run", "Run every stage in order"},
}

// commandList renders commands as the indented help table.
func commandList() string {
	var b strings.Builder
	for _, c := range commands {
		fmt.Fprintf(&b, "  %-13s %s\n", c.name, c.summary)
	}
	return b.String()
}

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version and exit")
		configPath  = flag.String("config", "", "Path to ccscorpus.yaml (default: ./ccscorpus.yaml)")
		jsonOut     = flag.Bool("json", false, "Print results as JSON")
		quiet       = flag.BoolP("quiet", "q", false, "Suppress progress and informational output")
		noColor     = flag.Bool("no-color", false, "Disable colored output")
		debug       = flag.Bool("debug", false, "Enable debug logging")
		metricsAddr = flag.String("metrics-addr", "", "HTTP listen address for Prometheus metrics (empty to disable)")
	)
	flag.CommandLine.SetInterspersed(false)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `ccscorpus - Conventional Commits dataset curation

ccscorpus turns raw commit-chronicle parquet shards into a curated dataset of
Conventional Commits: it keeps repositories that declare the convention,
keeps only compliant commits made after the convention was adopted, splits
the result by time and reports on what it contains.

Usage:
  ccscorpus [global options] <command> [options]

Commands:
%s
Global Options:
`, commandList())
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Environment Variables:
  GITHUB_TOKEN         GitHub API token (also read from .env)
  CCS_GITHUB_BASE_URL  GitHub API base URL (default: https://api.github.com)
  NO_COLOR             Disable colored output

Getting Started:
  1. Create the workspace:      ccscorpus init
  2. Put raw shards in:         commit-chronicle-data/data/
  3. Run the whole pipeline:    ccscorpus run

For detailed command help: ccscorpus <command> --help

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("ccscorpus version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
		os.Exit(0)
	}

	globals := GlobalFlags{
		JSON:        *jsonOut,
		Quiet:       *quiet || *jsonOut,
		NoColor:     *noColor || os.Getenv("NO_COLOR") != "",
		Debug:       *debug,
		MetricsAddr: *metricsAddr,
	}
	ui.InitColors(globals.NoColor)

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	command := args[0]
	cmdArgs := args[1:]

	switch command {
	case "init":
		runInit(cmdArgs, *configPath, globals)
	case "harvest":
		runHarvest(cmdArgs, *configPath, globals)
	case "classify":
		runClassify(cmdArgs, *configPath, globals)
	case "filter-repos":
		runFilterRepos(cmdArgs, *configPath, globals)
	case "extract":
		runExtract(cmdArgs, *configPath, globals)
	case "adoption":
		runAdoption(cmdArgs, *configPath, globals)
	case "split":
		runSplit(cmdArgs, *configPath, globals)
	case "convert":
		runConvert(cmdArgs, *configPath, globals)
	case "stats":
		runStats(cmdArgs, *configPath, globals)
	case "check":
		runCheck(cmdArgs, *configPath, globals)
	case "run":
		runPipeline(cmdArgs, *configPath, globals)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		flag.Usage()
		os.Exit(1)
	}
}
