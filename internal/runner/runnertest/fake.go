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

// Package runnertest provides a scripted runner for tests that must not spawn real programs.
package runnertest

import (
	"context"
	"strings"
	"sync"

	"statelydb-mcp/internal/runner"
)

// Step answers one command. Returning a non-nil error simulates a spawn failure.
type Step func(cmd runner.Command) (runner.Result, error)

// Fake is a runner.Runner that dispatches on the command line prefix.
type Fake struct {
	mu       sync.Mutex
	steps    []scripted
	fallback Step
	calls    []runner.Command
}

type scripted struct {
	prefix string
	step   Step
}

// New returns a fake whose unmatched commands succeed with empty output.
func New() *Fake {
	return &Fake{}
}

// On registers a step for commands whose "name args..." line starts with prefix.
// Later registrations win over earlier ones for the same prefix.
func (f *Fake) On(prefix string, step Step) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.steps = append([]scripted{{prefix: prefix, step: step}}, f.steps...)
	return f
}

// Otherwise sets the step used when nothing matches.
func (f *Fake) Otherwise(step Step) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fallback = step
	return f
}

// Run records the call and runs the first matching step.
func (f *Fake) Run(ctx context.Context, cmd runner.Command) (runner.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, cmd)
	step := f.fallback
	line := cmd.String()
	for _, s := range f.steps {
		if strings.HasPrefix(line, s.prefix) {
			step = s.step
			break
		}
	}
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return runner.Result{}, err
	}
	if step == nil {
		return runner.Result{}, nil
	}
	return step(cmd)
}

// Calls returns the commands seen so far, in order.
func (f *Fake) Calls() []runner.Command {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]runner.Command(nil), f.calls...)
}

// CallLines returns Calls rendered as command lines.
func (f *Fake) CallLines() []string {
	calls := f.Calls()
	lines := make([]string, len(calls))
	for i, c := range calls {
		lines[i] = c.String()
	}
	return lines
}

// Stdout answers with the given stdout and a zero exit code.
func Stdout(out string) Step {
	return func(runner.Command) (runner.Result, error) {
		return runner.Result{Stdout: out}, nil
	}
}

// Output answers with the given streams and exit code.
func Output(stdout, stderr string, exitCode int) Step {
	return func(runner.Command) (runner.Result, error) {
		return runner.Result{Stdout: stdout, Stderr: stderr, ExitCode: exitCode}, nil
	}
}

// Fail simulates a program that could not be run, with partial stdout.
func Fail(stdout string, err error) Step {
	return func(cmd runner.Command) (runner.Result, error) {
		return runner.Result{Stdout: stdout}, &runner.ExecutionError{
			Command: cmd.String(),
			Stdout:  stdout,
			Err:     err,
		}
	}
}
