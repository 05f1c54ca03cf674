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
	"context"
	"fmt"

	"statelydb-mcp/internal/collect"
	"statelydb-mcp/internal/runner"
)

const goModInitFailed = "Failed to initialize Go module. Make sure Go is installed and available in your PATH."

func (b *Bridge) schemaGenerate(ctx context.Context, args map[string]interface{}) Envelope {
	schemaID := stringArg(args, "schemaId")
	language := stringArg(args, "language")

	prefix := otherOutputPrefix
	if language == "go" {
		// Go package names must be alphanumeric.
		prefix = goOutputPrefix
	}
	ws, err := b.workspaces.ProvisionOutput(prefix)
	if err != nil {
		return Failure("generate schema", err)
	}
	defer b.workspaces.Dispose(ws)

	if language == "go" {
		if err := b.initGoModule(ctx, ws.Path); err != nil {
			b.logger.Error().Err(err).Str("dir", ws.Path).Msg("failed to initialize Go module")
			return ErrorResult(fmt.Sprintf("%s\n\n%v", goModInitFailed, err))
		}
	}

	res, err := b.stately(ctx, ToolSchemaGenerate, "", "schema", "generate", "-s", schemaID, "-l", language, ws.Path)
	if err == nil && res.Err() != nil {
		err = &runner.ExecutionError{
			Command: fmt.Sprintf("%s schema generate -s %s -l %s %s", b.opts.CLI, schemaID, language, ws.Path),
			Stdout:  res.Stdout,
			Stderr:  res.Stderr,
			Err:     fmt.Errorf("%w: %s", res.Err(), res.Stderr),
		}
	}
	if err != nil {
		return Failure("generate schema", err)
	}

	files, err := collect.Collect(ws.Path, b.opts.Collect)
	if err != nil {
		return Failure("generate schema", err)
	}
	if generatedCount(files, language) == 0 {
		return ErrorResult(NoFilesGenerated)
	}
	return TextResult(collect.Render(language, files))
}

// initGoModule makes the output directory an importable module before generation.
func (b *Bridge) initGoModule(ctx context.Context, dir string) error {
	res, err := b.runner.Run(ctx, runner.Command{
		Name:    b.opts.GoBinary,
		Args:    []string{"mod", "init", b.opts.GoModulePath},
		Dir:     dir,
		Timeout: b.opts.Timeouts.TimeoutForTool(ToolSchemaGenerate),
	})
	if err != nil {
		return NewToolExecutionError(ToolSchemaGenerate, "go mod init", err)
	}
	if exitErr := res.Err(); exitErr != nil {
		return NewToolExecutionError(ToolSchemaGenerate, "go mod init", fmt.Errorf("%w: %s", exitErr, res.Stderr))
	}
	return nil
}

// generatedCount ignores the go.mod written by initGoModule.
func generatedCount(files []collect.File, language string) int {
	n := 0
	for _, f := range files {
		if language == "go" && f.Path == goModFile {
			continue
		}
		n++
	}
	return n
}
