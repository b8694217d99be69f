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

// Package errors provides structured error handling for the ccscorpus CLI.
//
// UserError carries what went wrong, why it happened, and how to fix it,
// together with a semantic exit code. Commands build one at the point of
// failure and hand it to FatalError:
//
//	if err != nil {
//	    errors.FatalError(errors.NewDatasetError(
//	        "Cannot read commits",
//	        "output/commits_by_repo.parquet is not a parquet file",
//	        "Re-run: ccscorpus harvest",
//	        err,
//	    ), globals.JSON)
//	}
//
// Format renders the colored terminal form:
//
//	Error: Cannot read commits
//	Cause: output/commits_by_repo.parquet is not a parquet file
//	Fix:   Re-run: ccscorpus harvest
//
// and ToJSON the machine-readable one used with --json:
//
//	{
//	  "error": "Cannot read commits",
//	  "cause": "output/commits_by_repo.parquet is not a parquet file",
//	  "fix": "Re-run: ccscorpus harvest",
//	  "exit_code": 2
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Successful execution
//   - ExitConfig (1): Configuration errors (missing/invalid ccscorpus.yaml, bad thresholds)
//   - ExitDataset (2): Dataset errors (unreadable file, missing column, bad date, nothing qualified)
//   - ExitNetwork (3): GitHub API errors (connection failed, retries exhausted)
//   - ExitInput (4): Invalid user input (bad arguments)
//   - ExitPermission (5): Permission denied (file access)
//   - ExitNotFound (6): Input file or directory not found
//   - ExitInternal (10): Internal errors (bugs)
//   - ExitInterrupted (130): Stopped by SIGINT/SIGTERM after saving partial state
package errors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/kraklabs/ccscorpus/internal/output"
)

// Exit codes for different error categories.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitConfig indicates configuration errors.
	ExitConfig = 1

	// ExitDataset indicates a dataset that cannot be read, lacks a column, or
	// yields no records.
	ExitDataset = 2

	// ExitNetwork indicates GitHub API or transport errors.
	ExitNetwork = 3

	// ExitInput indicates invalid user input (bad arguments, validation errors).
	ExitInput = 4

	// ExitPermission indicates permission denied errors.
	ExitPermission = 5

	// ExitNotFound indicates a missing input file or directory.
	ExitNotFound = 6

	// ExitInternal indicates internal errors.
	// Exit code 10 signals "this is a bug that should be reported".
	ExitInternal = 10

	// ExitInterrupted follows the shell convention 128+SIGINT.
	ExitInterrupted = 130
)

// UserError represents an error with structured context for end users:
//   - Message: What went wrong
//   - Cause: Why it happened
//   - Fix: How to fix it
//
// It optionally wraps an underlying error so errors.Is/As keep working.
type UserError struct {
	// Message describes what went wrong in user-friendly language.
	Message string

	// Cause explains why the error occurred.
	Cause string

	// Fix provides an actionable suggestion.
	Fix string

	// ExitCode is the process exit code for this error.
	ExitCode int

	// Err is the underlying error (optional).
	Err error
}

// Error implements the error interface.
func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Err
}

func newUserError(code int, msg, cause, fix string, err error) *UserError {
	return &UserError{
		Message:  msg,
		Cause:    cause,
		Fix:      fix,
		ExitCode: code,
		Err:      err,
	}
}

// NewConfigError creates a configuration error with exit code ExitConfig.
//
// Example:
//
//	return NewConfigError(
//	    "Cannot load configuration",
//	    "ccscorpus.yaml: line 4: cannot unmarshal !!str into float64",
//	    "Fix the file or regenerate it with: ccscorpus init --force",
//	    err,
//	)
func NewConfigError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitConfig, msg, cause, fix, err)
}

// NewDatasetError creates a dataset error with exit code ExitDataset.
//
// Use this when an input file exists but its contents cannot serve the
// command: unreadable parquet, a column from an earlier stage is missing,
// dates do not parse, or no record qualified.
func NewDatasetError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitDataset, msg, cause, fix, err)
}

// NewNetworkError creates a network error with exit code ExitNetwork.
//
// Example:
//
//	return NewNetworkError(
//	    "GitHub API request failed",
//	    "GET /search/code: 502 Bad Gateway after 3 retries",
//	    "Try again later; cached verdicts are kept",
//	    err,
//	)
func NewNetworkError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitNetwork, msg, cause, fix, err)
}

// NewInputError creates an input validation error with exit code ExitInput.
// Input errors do not wrap an underlying error.
func NewInputError(msg, cause, fix string) *UserError {
	return newUserError(ExitInput, msg, cause, fix, nil)
}

// NewPermissionError creates a permission denied error with exit code ExitPermission.
func NewPermissionError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitPermission, msg, cause, fix, err)
}

// NewNotFoundError creates a not found error with exit code ExitNotFound.
//
// Example:
//
//	return NewNotFoundError(
//	    "No input data",
//	    "output/ccs_commits.parquet does not exist",
//	    "Run: ccscorpus extract",
//	)
func NewNotFoundError(msg, cause, fix string) *UserError {
	return newUserError(ExitNotFound, msg, cause, fix, nil)
}

// NewInternalError creates an internal error with exit code ExitInternal.
func NewInternalError(msg, cause, fix string, err error) *UserError {
	return newUserError(ExitInternal, msg, cause, fix, err)
}

// NewInterruptedError creates an error with exit code ExitInterrupted for a
// command stopped by a signal.
func NewInterruptedError(msg, fix string, err error) *UserError {
	return newUserError(ExitInterrupted, msg, "Received an interrupt signal", fix, err)
}

// Color definitions for error formatting.
var (
	colorError = color.New(color.FgRed, color.Bold)
	colorCause = color.New(color.FgYellow)
	colorFix   = color.New(color.FgGreen)
)

// Format returns a formatted error message for terminal display.
//
// Color output respects the NO_COLOR environment variable and can be
// disabled with noColor. Empty Cause or Fix fields are omitted.
//
// Format temporarily modifies the global color.NoColor state and restores it
// afterwards.
func (e *UserError) Format(noColor bool) string {
	originalNoColor := color.NoColor
	defer func() { color.NoColor = originalNoColor }()

	if noColor || os.Getenv("NO_COLOR") != "" {
		color.NoColor = true
	}

	var out strings.Builder
	out.WriteString(colorError.Sprint("Error: "))
	out.WriteString(e.Message)
	out.WriteString("\n")

	if e.Cause != "" {
		out.WriteString(colorCause.Sprint("Cause: "))
		out.WriteString(e.Cause)
		out.WriteString("\n")
	}

	if e.Fix != "" {
		out.WriteString(colorFix.Sprint("Fix:   "))
		out.WriteString(e.Fix)
		out.WriteString("\n")
	}

	return out.String()
}

// ErrorJSON represents error information in JSON format.
type ErrorJSON struct {
	Error    string `json:"error"`
	Cause    string `json:"cause,omitempty"`
	Fix      string `json:"fix,omitempty"`
	ExitCode int    `json:"exit_code"`
}

// ToJSON converts the UserError to a JSON-serializable structure.
func (e *UserError) ToJSON() ErrorJSON {
	return ErrorJSON{
		Error:    e.Message,
		Cause:    e.Cause,
		Fix:      e.Fix,
		ExitCode: e.ExitCode,
	}
}

// FatalError prints the error and exits with the appropriate code.
//
// A UserError is rendered with Format, or ToJSON in JSON mode. Any other
// error prints a plain message, or an output.ErrorJSON envelope in JSON
// mode, and exits with ExitInternal. FatalError never
// returns for a non-nil error.
func FatalError(err error, jsonOutput bool) {
	if err == nil {
		return
	}

	if ue, ok := err.(*UserError); ok {
		if jsonOutput {
			enc := json.NewEncoder(os.Stderr)
			enc.SetIndent("", "  ")
			_ = enc.Encode(ue.ToJSON())
		} else {
			fmt.Fprint(os.Stderr, ue.Format(false))
		}
		os.Exit(ue.ExitCode)
	}

	if jsonOutput {
		_ = output.JSONError(err)
	} else {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(ExitInternal)
}
