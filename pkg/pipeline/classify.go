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

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kraklabs/ccscorpus/pkg/ccs"
	"github.com/kraklabs/ccscorpus/pkg/dataset"
)

// ClassifyConfig configures Classify.
type ClassifyConfig struct {
	Options

	InputPath string

	// OutputPath defaults to InputPath.
	OutputPath string
}

// ClassifyResult summarizes a Classify run.
type ClassifyResult struct {
	RunID          string  `json:"run_id"`
	Total          int     `json:"total"`
	Valid          int     `json:"valid"`
	Invalid        int     `json:"invalid"`
	Compliant      int     `json:"compliant"`
	NonCompliant   int     `json:"non_compliant"`
	ComplianceRate float64 `json:"compliance_rate"`
	OutputPath     string  `json:"output_path"`
}

// Classify sets is_CCS on every record. Blank messages are counted as
// invalid and classified 0.
func Classify(ctx context.Context, cfg ClassifyConfig, logger *slog.Logger) (*ClassifyResult, error) {
	defer observeStage(StageClassify, time.Now())
	logger = loggerOrDefault(logger).With("stage", StageClassify)

	if err := requireFile(cfg.InputPath); err != nil {
		return nil, err
	}
	out := cfg.OutputPath
	if out == "" {
		out = cfg.InputPath
	}

	commits, err := dataset.ReadFile(cfg.InputPath)
	if err != nil {
		return nil, fmt.Errorf("read classify input: %w", err)
	}
	recordRead(StageClassify, len(commits))
	logger.Info("classify.start", "input", cfg.InputPath, "records", len(commits))

	res := &ClassifyResult{RunID: cfg.runID(), Total: len(commits), OutputPath: out}
	progress := cfg.progress()
	progress.Start("classifying", int64(len(commits)))
	for i := range commits {
		if i%10000 == 0 && ctx.Err() != nil {
			progress.Finish()
			return nil, ctx.Err()
		}
		c := &commits[i]
		if !ccs.IsValidMessage(c.Message) {
			res.Invalid++
			c.SetCompliant(false)
			progress.Add(1)
			continue
		}
		res.Valid++
		ok := ccs.IsCompliant(c.Message)
		if ok {
			res.Compliant++
		} else {
			res.NonCompliant++
		}
		c.SetCompliant(ok)
		progress.Add(1)
	}
	progress.Finish()
	res.ComplianceRate = ratio(res.Compliant, res.Valid)

	if err := dataset.WriteFile(out, commits); err != nil {
		return nil, fmt.Errorf("write classify output: %w", err)
	}
	recordWritten(StageClassify, len(commits))

	logger.Info("classify.done",
		"total", res.Total,
		"valid", res.Valid,
		"compliant", res.Compliant,
		"rate", fmt.Sprintf("%.2f%%", res.ComplianceRate*100),
		"output", out,
	)
	return res, nil
}
