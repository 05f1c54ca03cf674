package tools

import (
	"errors"
	"testing"

	apperrors "statelydb-mcp/internal/errors"
)

func TestToolExecutionError(t *testing.T) {
	baseErr := errors.New("exit status 1")

	tests := []struct {
		name     string
		err      *apperrors.Error
		expected string
	}{
		{
			name:     "with operation",
			err:      NewToolExecutionError(ToolSchemaGenerate, "go mod init", baseErr),
			expected: "tool statelydb-schema-generate failed during go mod init: exit status 1",
		},
		{
			name:     "without operation",
			err:      NewToolExecutionError(ToolSchemaPut, "", baseErr),
			expected: "tool statelydb-schema-put failed: exit status 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, tt.err.Error())
			}
			if !errors.Is(tt.err, baseErr) {
				t.Error("expected error to unwrap to base error")
			}
			if tt.err.Code != apperrors.CodeExecution {
				t.Errorf("expected execution code, got %s", tt.err.Code)
			}
		})
	}
}

func TestArgumentError(t *testing.T) {
	err := NewArgumentError(ToolSchemaPut, errors.New("missing 'schemaId'"))
	if !errors.Is(err, ErrInvalidArguments) {
		t.Error("expected error to wrap ErrInvalidArguments")
	}
	if !apperrors.Is(err, apperrors.CodeInvalidArgument) {
		t.Errorf("expected invalid argument code, got %s", apperrors.CodeOf(err))
	}
	expected := "invalid arguments for tool statelydb-schema-put: invalid tool arguments: missing 'schemaId'"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestErrorConstants(t *testing.T) {
	tests := []struct {
		name string
		err  error
		msg  string
	}{
		{name: "ErrToolNotFound", err: ErrToolNotFound, msg: "tool not found"},
		{name: "ErrInvalidArguments", err: ErrInvalidArguments, msg: "invalid tool arguments"},
		{name: "ErrDuplicateTool", err: ErrDuplicateTool, msg: "tool already registered"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.msg {
				t.Errorf("expected %q, got %q", tt.msg, tt.err.Error())
			}
		})
	}
}
