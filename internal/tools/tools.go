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
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Registry holds all available tools in registration order.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	order  []string
	logger zerolog.Logger
}

// NewEmptyRegistry creates a registry with no tools.
func NewEmptyRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// RegisterTool adds a tool. Names are unique for the life of the registry.
func (r *Registry) RegisterTool(tool Tool) error {
	if tool == nil || tool.Name() == "" {
		return fmt.Errorf("tool must have a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, tool.Name())
	}
	r.tools[tool.Name()] = tool
	r.order = append(r.order, tool.Name())
	return nil
}

// GetToolNames returns the tool names in registration order.
func (r *Registry) GetToolNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// GetTools returns the tools in registration order.
func (r *Registry) GetTools() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Execute validates args and runs the named tool. It always returns an envelope.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]interface{}) Envelope {
	if ctx == nil {
		ctx = context.Background()
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	tool, ok := r.getTool(name)
	if !ok {
		names := r.GetToolNames()
		sort.Strings(names)
		r.logger.Warn().Str("tool", name).Msg("unknown tool requested")
		return ErrorResult(fmt.Sprintf("Error: %v: '%s'. Available tools: %v", ErrToolNotFound, name, names))
	}

	if err := tool.Validate(args); err != nil {
		argErr := NewArgumentError(name, err)
		r.logger.Info().Err(argErr).Str("tool", name).Msg("rejected tool call")
		return ErrorResult(fmt.Sprintf("Error: %v", argErr))
	}

	start := time.Now()
	r.logger.Info().Str("tool", name).Msg("tool call started")
	env := tool.Execute(ctx, args)
	r.logger.Info().
		Str("tool", name).
		Bool("is_error", env.IsError).
		Dur("duration", time.Since(start)).
		Msg("tool call finished")
	return env
}

// getTool safely retrieves a tool definition.
func (r *Registry) getTool(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tool, ok := r.tools[name]
	return tool, ok
}
