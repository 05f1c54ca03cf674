// Copyright (C) 2025 Dyne.org foundation
// designed, written and maintained by Denis Roio <jaromil@dyne.org>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package runner executes external command-line programs and captures their output.
package runner

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"

	apperrors "statelydb-mcp/internal/errors"
)

// DefaultTimeout bounds a single command when the caller sets none.
const DefaultTimeout = 2 * time.Minute

// waitDelay caps how long output pipes are drained after the process is killed.
const waitDelay = 2 * time.Second

// Command describes one invocation of an external program.
type Command struct {
	Name    string
	Args    []string
	Dir     string
	Env     []string
	Timeout time.Duration
}

// String renders the command line for logs and error messages.
func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result is the captured output of a program that ran to completion.
// A non-zero ExitCode is data, not an error.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Duration time.Duration
}

// Err reports a non-zero exit as an error for callers that treat it as fatal.
func (r Result) Err() error {
	if r.ExitCode == 0 {
		return nil
	}
	return fmt.Errorf("exit status %d", r.ExitCode)
}

// Runner runs external programs.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// ExecutionError reports a program that could not be started or did not finish.
// Stdout and Stderr hold whatever was captured before the failure.
type ExecutionError struct {
	Command string
	Stdout  string
	Stderr  string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("command failed: %s: %v", e.Command, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// PartialStdout extracts captured stdout from an error chain, if any.
func PartialStdout(err error) string {
	var execErr *ExecutionError
	if stderrors.As(err, &execErr) {
		return execErr.Stdout
	}
	return ""
}

// ExecRunner runs programs on the host with os/exec.
type ExecRunner struct {
	// Timeout applies to commands that carry no timeout of their own.
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewExecRunner returns a host runner with the given default timeout.
func NewExecRunner(timeout time.Duration, logger zerolog.Logger) *ExecRunner {
	return &ExecRunner{Timeout: timeout, Logger: logger}
}

// Run starts the program, waits for it and captures both output streams.
func (r *ExecRunner) Run(ctx context.Context, c Command) (Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = r.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	cmd.WaitDelay = waitDelay
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.Logger.Debug().Str("command", c.String()).Str("dir", c.Dir).Dur("timeout", timeout).Msg("running command")
	start := time.Now()
	err := cmd.Run()
	result := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		if ctxErr == context.DeadlineExceeded {
			ctxErr = fmt.Errorf("command timed out after %s", timeout)
		} else {
			ctxErr = fmt.Errorf("command canceled")
		}
		return result, r.fail(c, result, ctxErr)
	}

	if err != nil {
		var exitErr *exec.ExitError
		if stderrors.As(err, &exitErr) && exitErr.Exited() {
			result.ExitCode = exitErr.ExitCode()
			r.Logger.Debug().Str("command", c.String()).Int("exit_code", result.ExitCode).Dur("duration", result.Duration).Msg("command exited")
			return result, nil
		}
		return result, r.fail(c, result, err)
	}

	r.Logger.Debug().Str("command", c.String()).Dur("duration", result.Duration).Msg("command finished")
	return result, nil
}

func (r *ExecRunner) fail(c Command, result Result, err error) error {
	r.Logger.Debug().Err(err).Str("command", c.String()).Msg("command did not complete")
	return apperrors.Wrap(apperrors.CodeExecution, "failed to execute "+c.Name, &ExecutionError{
		Command: c.String(),
		Stdout:  result.Stdout,
		Stderr:  result.Stderr,
		Err:     err,
	})
}
