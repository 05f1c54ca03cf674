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

// Package classify turns the stately CLI's human-readable output into verdicts.
//
// Every marker the bridge depends on lives in this file, so a change in the
// CLI's wording touches one place.
package classify

import (
	"fmt"
	"regexp"
	"strings"

	"statelydb-mcp/internal/runner"
)

const (
	// SchemaValidMarker is printed by "stately schema validate" on success.
	SchemaValidMarker = "Schema is valid"
	// DryRunMarker is printed by "stately schema put --dry-run" when nothing was published.
	DryRunMarker = "Dry Run: Schema was not published."
	// FailureGlyph marks per-item errors in the CLI's migration report.
	FailureGlyph = "✘"
	// UserIDMarker is printed by "stately whoami" for an authenticated user.
	UserIDMarker = "Stately UserID"
)

// ActivationURLPattern matches the device activation URL printed by "stately login".
var ActivationURLPattern = regexp.MustCompile(`(?i)(https://oauth\.stately\.cloud/activate\?user_code=[\w-]+)`)

// Verdict is the outcome of classifying one command's output.
type Verdict struct {
	OK      bool
	Message string
	// URL is set by the login classifier when an activation URL was found.
	URL string
}

// IsError mirrors the envelope's error flag.
func (v Verdict) IsError() bool {
	return !v.OK
}

// Classifier decides success for one operation. It never fails.
type Classifier interface {
	Classify(res runner.Result) Verdict
}

// Func adapts a function to Classifier.
type Func func(res runner.Result) Verdict

// Classify calls f.
func (f Func) Classify(res runner.Result) Verdict {
	return f(res)
}

// Set holds one classifier per operation, sharing an output filter.
type Set struct {
	Filter OutputFilterConfig
}

// NewSet returns classifiers that sanitize output with filter.
func NewSet(filter OutputFilterConfig) *Set {
	return &Set{Filter: filter}
}

func (s *Set) clean(res runner.Result) (string, string) {
	return s.Filter.Clean(res.Stdout), s.Filter.Clean(res.Stderr)
}

func (s *Set) echo(text string) string {
	return s.Filter.Apply(text)
}

// errorText is the echoed stderr, or the exit status when a failed command
// printed nothing there.
func (s *Set) errorText(res runner.Result, stderr string) string {
	if stderr == "" && res.ExitCode != 0 {
		return res.Err().Error()
	}
	return s.echo(stderr)
}

// ValidateSchema succeeds when stdout carries the "Schema is valid" marker
// and the command exited zero.
func (s *Set) ValidateSchema() Classifier {
	return Func(func(res runner.Result) Verdict {
		stdout, stderr := s.clean(res)
		if res.ExitCode == 0 && strings.Contains(stdout, SchemaValidMarker) {
			return Verdict{OK: true, Message: "Schema is valid."}
		}
		return Verdict{Message: fmt.Sprintf("Schema is invalid. Error: %s\nOutput: %s", s.errorText(res, stderr), s.echo(stdout))}
	})
}

// ValidateMigrations succeeds on a clean dry run with no per-item failure glyph.
func (s *Set) ValidateMigrations() Classifier {
	return Func(func(res runner.Result) Verdict {
		stdout, stderr := s.clean(res)
		if res.ExitCode == 0 && strings.Contains(stdout, DryRunMarker) && !strings.Contains(stdout, FailureGlyph) {
			return Verdict{OK: true, Message: "Migrations are valid."}
		}
		return Verdict{Message: fmt.Sprintf("Migrations are invalid. Error: %s Output: %s", s.errorText(res, stderr), s.echo(stdout))}
	})
}

// AttemptLogin succeeds when stdout contains an activation URL.
func (s *Set) AttemptLogin() Classifier {
	return Func(func(res runner.Result) Verdict {
		stdout, stderr := s.clean(res)
		if m := ActivationURLPattern.FindStringSubmatch(stdout); res.ExitCode == 0 && len(m) > 1 && m[1] != "" {
			return Verdict{
				OK:      true,
				URL:     m[1],
				Message: "Please visit this URL to complete the authentication process: " + m[1],
			}
		}
		msg := "Login URL not found in output. Full output: " + s.echo(stdout)
		if stderr != "" || res.ExitCode != 0 {
			msg += "\nError: " + s.errorText(res, stderr)
		}
		return Verdict{Message: msg}
	})
}

// VerifyLogin succeeds when whoami exits zero and reports a Stately user id.
func (s *Set) VerifyLogin() Classifier {
	return Func(func(res runner.Result) Verdict {
		stdout, _ := s.clean(res)
		if res.ExitCode == 0 && strings.Contains(stdout, UserIDMarker) {
			return Verdict{OK: true, Message: "You are logged in. Details: " + s.echo(stdout)}
		}
		return Verdict{Message: "You are not logged in."}
	})
}

// SchemaPut succeeds when the publish command exited zero and wrote nothing
// to stderr. Escape sequences alone on stderr still count as output.
func (s *Set) SchemaPut() Classifier {
	return Func(func(res runner.Result) Verdict {
		stdout, stderr := s.clean(res)
		if res.ExitCode == 0 && res.Stderr == "" {
			return Verdict{OK: true, Message: "Schema published successfully: " + s.echo(stdout)}
		}
		return Verdict{Message: fmt.Sprintf("Failed to publish schema: %s %s", s.errorText(res, stderr), s.echo(stdout))}
	})
}
