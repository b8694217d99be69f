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
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kraklabs/ccscorpus/pkg/ccs"
	"github.com/kraklabs/ccscorpus/pkg/github"
	"github.com/kraklabs/ccscorpus/pkg/pipeline"
)

// DefaultConfigFile is looked up in the working directory when --config is
// not given.
const DefaultConfigFile = "ccscorpus.yaml"

const configVersion = "1"

// Environment variables that override the file.
const (
	envToken   = "GITHUB_TOKEN"
	envBaseURL = "CCS_GITHUB_BASE_URL"
)

// Config is the ccscorpus.yaml layout.
type Config struct {
	Version  string         `yaml:"version"`
	Paths    PathsConfig    `yaml:"paths"`
	GitHub   GitHubConfig   `yaml:"github"`
	Pipeline PipelineConfig `yaml:"pipeline"`
}

// PathsConfig names every file the stages hand to each other. Relative file
// names other than RawDir and OutputDir resolve against OutputDir.
type PathsConfig struct {
	RawDir        string `yaml:"raw_dir"`
	OutputDir     string `yaml:"output_dir"`
	Harvested     string `yaml:"harvested"`
	VerdictCache  string `yaml:"verdict_cache"`
	TrueRepos     string `yaml:"true_repos"`
	Curated       string `yaml:"curated"`
	AdoptionCache string `yaml:"adoption_cache"`
	SplitDir      string `yaml:"split_dir"`
	JSONDir       string `yaml:"json_dir"`
	ReportDir     string `yaml:"report_dir"`
}

// GitHubConfig configures the API client. The token is normally supplied via
// GITHUB_TOKEN or a .env file next to the config.
type GitHubConfig struct {
	BaseURL    string        `yaml:"base_url"`
	Token      string        `yaml:"token,omitempty"`
	RateLimit  float64       `yaml:"rate_limit"`
	MaxRetries int           `yaml:"max_retries"`
	Timeout    time.Duration `yaml:"timeout"`
}

// PipelineConfig holds the stage thresholds.
type PipelineConfig struct {
	Keyword    string   `yaml:"keyword"`
	TopRepos   int      `yaml:"top_repos"`
	MinRate    float64  `yaml:"min_rate"`
	TrainRatio float64  `yaml:"train_ratio"`
	ValidRatio float64  `yaml:"valid_ratio"`
	Workers    int      `yaml:"workers"`
	StatsTopN  int      `yaml:"stats_top_n"`
	Skip       []string `yaml:"skip,omitempty"`

	// OverwriteSplitInput replaces the curated file with the commits of the
	// repositories kept by split, so stats describe the split dataset.
	OverwriteSplitInput bool `yaml:"overwrite_split_input"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Version: configVersion,
		Paths: PathsConfig{
			RawDir:        "commit-chronicle-data/data",
			OutputDir:     "output",
			Harvested:     "commits_by_repo.parquet",
			VerdictCache:  "repo_cache_keyword.json",
			TrueRepos:     "commits_true_ccs_repos.parquet",
			Curated:       "ccs_commits.parquet",
			AdoptionCache: "ccs_adoption_metadata.json",
			SplitDir:      "ccs_commits_dataset",
			JSONDir:       "ccs_commits_dataset_json",
			ReportDir:     "analyze_report",
		},
		GitHub: GitHubConfig{
			BaseURL:    github.DefaultBaseURL,
			RateLimit:  1,
			MaxRetries: 3,
			Timeout:    30 * time.Second,
		},
		Pipeline: PipelineConfig{
			Keyword:    ccs.Keyword,
			TopRepos:   10,
			MinRate:    pipeline.DefaultMinRate,
			TrainRatio: pipeline.DefaultTrainRatio,
			ValidRatio: pipeline.DefaultValidRatio,
			Workers:    pipeline.DefaultConvertWorkers,
			StatsTopN:  pipeline.DefaultTopN,

			OverwriteSplitInput: true,
		},
	}
}

// ConfigPath returns the default config location inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, DefaultConfigFile)
}

// LoadConfig reads the config at configPath (default ./ccscorpus.yaml), then
// applies .env and environment overrides. A missing default file yields
// DefaultConfig; a missing explicit file is an error. Directories in an
// explicit file are relative to that file.
func LoadConfig(configPath string) (*Config, error) {
	explicit := configPath != ""
	if !explicit {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("get working directory: %w", err)
		}
		configPath = ConfigPath(cwd)
	}

	if err := loadDotEnv(filepath.Join(filepath.Dir(configPath), ".env")); err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", configPath, err)
		}
	case stderrors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read %s: %w", configPath, err)
	}

	if explicit {
		cfg.rebase(filepath.Dir(configPath))
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", configPath, err)
	}
	return cfg, nil
}

// loadDotEnv exports the variables of an optional .env file. Variables
// already set in the environment win.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !stderrors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(envToken); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv(envBaseURL); v != "" {
		c.GitHub.BaseURL = v
	}
}

// Validate checks value ranges. Stage code re-checks the thresholds it owns.
func (c *Config) Validate() error {
	p := c.Pipeline
	switch {
	case c.Paths.OutputDir == "":
		return stderrors.New("paths.output_dir is required")
	case p.Keyword == "":
		return stderrors.New("pipeline.keyword is required")
	case p.MinRate < 0 || p.MinRate >= 1:
		return fmt.Errorf("pipeline.min_rate %v outside [0, 1)", p.MinRate)
	case p.TrainRatio <= 0 || p.ValidRatio < 0 || p.TrainRatio+p.ValidRatio > 1:
		return fmt.Errorf("pipeline.train_ratio %v and valid_ratio %v must be positive and sum to at most 1", p.TrainRatio, p.ValidRatio)
	case p.TopRepos < 0 || p.StatsTopN < 0 || p.Workers < 0:
		return stderrors.New("pipeline.top_repos, stats_top_n and workers must not be negative")
	case c.GitHub.RateLimit <= 0:
		return fmt.Errorf("github.rate_limit %v must be positive", c.GitHub.RateLimit)
	}
	for _, stage := range p.Skip {
		if !slices.Contains(pipeline.Stages, stage) {
			return fmt.Errorf("pipeline.skip: unknown stage %q", stage)
		}
	}
	return nil
}

// rebase makes relative RawDir and OutputDir relative to dir, so a config
// passed with --config works from any working directory.
func (c *Config) rebase(dir string) {
	if dir == "." || dir == "" {
		return
	}
	for _, p := range []*string{&c.Paths.RawDir, &c.Paths.OutputDir} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}

// Output resolves a path from PathsConfig against OutputDir.
func (c *Config) Output(name string) string {
	if name == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.Paths.OutputDir, name)
}

// SaveConfig writes cfg as YAML. The token is never written.
func SaveConfig(cfg *Config, path string) error {
	clean := *cfg
	clean.GitHub.Token = ""

	data, err := yaml.Marshal(&clean)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	header := []byte("# ccscorpus configuration. GITHUB_TOKEN is read from the environment or .env.\n")
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config dir: %w", err)
		}
	}
	if err := os.WriteFile(path, append(header, data...), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
