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

import "context"

// HandlerFunc runs a tool. Every failure is reported inside the envelope.
type HandlerFunc func(ctx context.Context, args map[string]interface{}) Envelope

// Param declares one input field of a tool.
type Param struct {
	Name        string
	Description string
	Required    bool
	// Enum restricts a string field to the listed values.
	Enum []string
}

// Tool represents a callable tool with validation and execution hooks.
type Tool interface {
	Name() string
	Description() string
	Params() []Param
	Execute(ctx context.Context, args map[string]interface{}) Envelope
	Validate(args map[string]interface{}) error
}

// ToolDefinition provides a default implementation of Tool.
type ToolDefinition struct {
	NameValue        string
	DescriptionValue string
	ParamsValue      []Param
	ExecuteFunc      HandlerFunc
	ValidateFunc     ValidationRule
}

func (t *ToolDefinition) Name() string {
	return t.NameValue
}

func (t *ToolDefinition) Description() string {
	return t.DescriptionValue
}

func (t *ToolDefinition) Params() []Param {
	return t.ParamsValue
}

func (t *ToolDefinition) Execute(ctx context.Context, args map[string]interface{}) Envelope {
	if t.ExecuteFunc == nil {
		return TextResult("")
	}
	return t.ExecuteFunc(ctx, args)
}

func (t *ToolDefinition) Validate(args map[string]interface{}) error {
	if t.ValidateFunc == nil {
		return nil
	}
	return t.ValidateFunc(args)
}

// Schema renders the params as a JSON-schema object.
func Schema(t Tool) map[string]interface{} {
	properties := map[string]interface{}{}
	required := []string{}
	for _, p := range t.Params() {
		prop := map[string]interface{}{
			"type":        "string",
			"description": p.Description,
		}
		if len(p.Enum) > 0 {
			prop["enum"] = append([]string{}, p.Enum...)
		}
		properties[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	schema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}
