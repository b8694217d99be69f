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
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kraklabs/ccscorpus/internal/errors"
	"github.com/kraklabs/ccscorpus/internal/output"
	"github.com/kraklabs/ccscorpus/pkg/github"
	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

// session is the runtime shared by every stage command once its flags are
// parsed.
type session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  *slog.Logger
	globals GlobalFlags
	opts    pipeline.Options
}

// mustLoadConfig loads the configuration or exits with a config error.
func mustLoadConfig(configPath string, globals GlobalFlags) *Config {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		errors.FatalError(errors.NewConfigError(
			"Cannot load configuration",
			err.Error(),
			"Fix the file or regenerate it with: ccscorpus init --force",
			err,
		), globals.JSON)
	}
	return cfg
}

// newSession sets up logging, the optional metrics endpoint and signal
// handling. The caller must defer s.cancel().
func newSession(globals GlobalFlags) *session {
	logger := newLogger(globals)
	slog.SetDefault(logger)

	if globals.MetricsAddr != "" {
		startMetricsServer(globals.MetricsAddr, logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			logger.Info("shutdown.signal", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return &session{
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		globals: globals,
		opts:    pipeline.Options{Progress: newStageProgress(NewProgressConfig(globals))},
	}
}

// newLogger returns the stderr text logger. Stdout is reserved for results.
func newLogger(globals GlobalFlags) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case globals.Debug:
		level = slog.LevelDebug
	case globals.Quiet:
		level = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func startMetricsServer(addr string, logger *slog.Logger) {
	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux}
		logger.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("metrics.http.error", "err", err)
		}
	}()
}

// newGitHubClient builds the API client from the github section.
func newGitHubClient(cfg *Config, logger *slog.Logger) *github.Client {
	if cfg.GitHub.Token == "" {
		logger.Warn("github.token.missing", "hint", "set GITHUB_TOKEN to raise the API rate limit")
	}
	return github.New(github.Config{
		BaseURL:    cfg.GitHub.BaseURL,
		Token:      cfg.GitHub.Token,
		RateLimit:  cfg.GitHub.RateLimit,
		MaxRetries: cfg.GitHub.MaxRetries,
		Timeout:    cfg.GitHub.Timeout,
		Logger:     logger,
	})
}

// emit prints v as JSON in --json mode, otherwise calls human.
func (s *session) emit(v any, human func()) {
	if s.globals.JSON {
		if err := output.JSON(v); err != nil {
			errors.FatalError(errors.NewInternalError("Cannot encode result", err.Error(), "", err), true)
		}
		return
	}
	if !s.globals.Quiet {
		human()
	}
}

// fail maps a stage error to a UserError and exits.
func (s *session) fail(stage string, err error) {
	s.cancel()
	errors.FatalError(stageError(stage, err), s.globals.JSON)
}

// stageError classifies a pipeline error by exit code.
func stageError(stage string, err error) *errors.UserError {
	var ue *errors.UserError
	if stderrors.As(err, &ue) {
		return ue
	}

	cause := err.Error()
	var httpErr *github.HTTPError
	var netErr net.Error
	switch {
	case stderrors.Is(err, context.Canceled):
		return errors.NewInterruptedError(
			fmt.Sprintf("%s interrupted", stage),
			"Re-run the command; cached API results are reused",
			err,
		)
	case stderrors.Is(err, pipeline.ErrNoInput):
		return errors.NewNotFoundError(fmt.Sprintf("No input data for %s", stage), cause, previousStageFix(stage))
	case stderrors.Is(err, pipeline.ErrMissingColumn):
		return errors.NewDatasetError("Input lacks a required column", cause, previousStageFix(stage), err)
	case stderrors.Is(err, pipeline.ErrInvalidDate):
		return errors.NewDatasetError("Input holds an unparseable commit date", cause,
			"Commit dates must use the DD.MM.YYYY HH:MM:SS layout", err)
	case stderrors.Is(err, pipeline.ErrNoRecords):
		return errors.NewDatasetError("No records qualified", cause,
			"Check the input data and the thresholds in ccscorpus.yaml", err)
	case stderrors.Is(err, pipeline.ErrInvalidConfig):
		return errors.NewConfigError(fmt.Sprintf("Invalid %s settings", stage), cause,
			"Fix the value in ccscorpus.yaml or on the command line", err)
	case stderrors.Is(err, github.ErrInvalidRepo):
		return errors.NewInputError("Invalid repository name", cause, "Use the owner/name form, e.g. octo/hello")
	case stderrors.As(err, &httpErr), stderrors.Is(err, github.ErrNotFound), stderrors.As(err, &netErr):
		return errors.NewNetworkError("GitHub API request failed", cause,
			"Check GITHUB_TOKEN and network access, then re-run", err)
	case stderrors.Is(err, fs.ErrPermission):
		return errors.NewPermissionError("Permission denied", cause, "Check the permissions of the configured paths", err)
	default:
		return errors.NewInternalError(fmt.Sprintf("%s failed", stage), cause,
			"Re-run with --debug and report the log", err)
	}
}

// previousStageFix names the command that produces a stage's input.
func previousStageFix(stage string) string {
	switch stage {
	case pipeline.StageHarvest:
		return "Place the raw commit parquet files in paths.raw_dir"
	case pipeline.StageClassify:
		return "Run: ccscorpus harvest"
	case pipeline.StageFilterRepos:
		return "Run: ccscorpus classify"
	case pipeline.StageExtract:
		return "Run: ccscorpus filter-repos"
	case pipeline.StageAdoption, pipeline.StageSplit, pipeline.StageStats:
		return "Run: ccscorpus extract"
	case pipeline.StageConvert:
		return "Run: ccscorpus split"
	case pipeline.StageCheck:
		return "Pass repositories as arguments or with --repos-file"
	default:
		return "Run the earlier pipeline stages first"
	}
}
