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

// Package server exposes the tool registry over the Model Context Protocol.
package server

import (
	"context"

	"github.com/rs/zerolog"
	mcp "trpc.group/trpc-go/trpc-mcp-go"

	"statelydb-mcp/internal/tools"
)

// Name is the MCP server name announced to clients.
const Name = "statelydb-mcp-server"

// Server serves a tool registry over stdio.
type Server struct {
	stdio    *mcp.StdioServer
	registry *tools.Registry
	logger   zerolog.Logger
}

// New builds a stdio MCP server and registers every tool in registry.
func New(registry *tools.Registry, version string, logger zerolog.Logger) *Server {
	stdio := mcp.NewStdioServer(Name, version)
	for _, tool := range registry.GetTools() {
		stdio.RegisterTool(Definition(tool), Handler(registry, tool.Name()))
	}
	return &Server{stdio: stdio, registry: registry, logger: logger}
}

// Start serves requests on stdin/stdout until the client disconnects.
func (s *Server) Start() error {
	s.logger.Info().Strs("tools", s.registry.GetToolNames()).Msg("serving MCP over stdio")
	return s.stdio.Start()
}

// Definition converts a tool's declared params to an MCP tool definition.
func Definition(tool tools.Tool) *mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(tool.Description())}
	for _, p := range tool.Params() {
		propOpts := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			propOpts = append(propOpts, mcp.Required())
		}
		if len(p.Enum) > 0 {
			propOpts = append(propOpts, mcp.Enum(p.Enum...))
		}
		opts = append(opts, mcp.WithString(p.Name, propOpts...))
	}
	return mcp.NewTool(tool.Name(), opts...)
}

// Handler adapts a registry tool to an MCP call handler. Tool failures are
// reported in the result, never as protocol errors.
func Handler(registry *tools.Registry, name string) func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args map[string]interface{}
		if req != nil {
			args = req.Params.Arguments
		}
		return Result(registry.Execute(ctx, name, args)), nil
	}
}

// Result converts an envelope to an MCP result.
func Result(env tools.Envelope) *mcp.CallToolResult {
	content := make([]mcp.Content, 0, len(env.Content))
	for _, c := range env.Content {
		content = append(content, mcp.NewTextContent(c.Text))
	}
	return &mcp.CallToolResult{
		Content: content,
		IsError: env.IsError,
	}
}
