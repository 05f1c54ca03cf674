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

package tools

import (
	"fmt"
	"strings"

	"statelydb-mcp/internal/runner"
)

// ContentTypeText is the only content block type the bridge produces.
const ContentTypeText = "text"

// Content is one block of a response.
type Content struct {
	Type string
	Text string
}

// Envelope is the uniform result of every tool invocation.
type Envelope struct {
	Content []Content
	IsError bool
}

// TextResult returns a successful single-block envelope.
func TextResult(text string) Envelope {
	return Envelope{Content: []Content{{Type: ContentTypeText, Text: text}}}
}

// ErrorResult returns a failed single-block envelope.
func ErrorResult(text string) Envelope {
	env := TextResult(text)
	env.IsError = true
	return env
}

// Text joins all text blocks.
func (e Envelope) Text() string {
	parts := make([]string, 0, len(e.Content))
	for _, c := range e.Content {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n")
}

// Failure converts an error from any stage into an error envelope, appending
// stdout captured before the failure when there is any.
func Failure(action string, err error) Envelope {
	text := fmt.Sprintf("Failed to %s: %v", action, err)
	if stdout := runner.PartialStdout(err); stdout != "" {
		text += "\n\nCommand output: " + stdout
	}
	return ErrorResult(text)
}
