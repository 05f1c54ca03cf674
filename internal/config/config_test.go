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


package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apperrors "statelydb-mcp/internal/errors"
	"statelydb-mcp/internal/runner/runnertest"
	"statelydb-mcp/internal/tools"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "statelydb-mcp.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"STATELY_CLI", "STATELYDB_MCP_GO_BIN", "STATELYDB_MCP_TEMP_DIR", "STATELYDB_MCP_TIMEOUT_SECONDS"} {
		t.Setenv(key, "")
	}
}

func TestMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CLI != tools.DefaultCLI {
		t.Fatalf("expected default cli %q, got %q", tools.DefaultCLI, cfg.CLI)
	}
	if cfg.GoModulePath != tools.DefaultGoModulePath {
		t.Fatalf("expected default module path, got %q", cfg.GoModulePath)
	}
	if cfg.ToolTimeouts.DefaultSeconds != 120 {
		t.Fatalf("expected 120s default timeout, got %d", cfg.ToolTimeouts.DefaultSeconds)
	}
	if cfg.ToolTimeouts.PerToolSeconds[tools.ToolAttemptLogin] != 300 {
		t.Fatalf("expected 300s login timeout, got %d", cfg.ToolTimeouts.PerToolSeconds[tools.ToolAttemptLogin])
	}
}

func TestFileValues(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, `
cli: /opt/stately/bin/stately
go_module_path: example.com/schema
tool_timeouts:
  default_seconds: 30
  per_tool_seconds:
    statelydb-schema-generate: 90
collector:
  max_file_size_bytes: 1024
  exclude:
    - "**/*.map"
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CLI != "/opt/stately/bin/stately" {
		t.Fatalf("expected cli from file, got %q", cfg.CLI)
	}
	if cfg.GoBinary != tools.DefaultGoBinary {
		t.Fatalf("expected default go binary, got %q", cfg.GoBinary)
	}
	opts := cfg.ToolsOptions()
	if opts.GoModulePath != "example.com/schema" {
		t.Fatalf("expected module path from file, got %q", opts.GoModulePath)
	}
	if opts.Collect.MaxFileSizeBytes != 1024 || len(opts.Collect.Exclude) != 1 {
		t.Fatalf("unexpected collector options: %+v", opts.Collect)
	}
	if got := opts.Timeouts.TimeoutForTool(tools.ToolSchemaGenerate); got != 90*time.Second {
		t.Fatalf("expected 90s generate timeout, got %s", got)
	}
	if got := opts.Timeouts.TimeoutForTool(tools.ToolVerifyLogin); got != 30*time.Second {
		t.Fatalf("expected 30s default timeout, got %s", got)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "cli: file-stately\ngo_binary: file-go\n")
	t.Setenv("STATELY_CLI", "env-stately")
	t.Setenv("STATELYDB_MCP_GO_BIN", "env-go")
	t.Setenv("STATELYDB_MCP_TEMP_DIR", "/var/tmp")
	t.Setenv("STATELYDB_MCP_TIMEOUT_SECONDS", "45")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CLI != "env-stately" {
		t.Fatalf("expected env cli to override file, got %s", cfg.CLI)
	}
	if cfg.GoBinary != "env-go" {
		t.Fatalf("expected env go binary to override file, got %s", cfg.GoBinary)
	}
	if cfg.TempDir != "/var/tmp" {
		t.Fatalf("expected env temp dir, got %s", cfg.TempDir)
	}
	if cfg.ToolTimeouts.DefaultSeconds != 45 {
		t.Fatalf("expected env timeout, got %d", cfg.ToolTimeouts.DefaultSeconds)
	}
}

func TestInvalidTimeoutEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("STATELYDB_MCP_TIMEOUT_SECONDS", "soon")

	_, err := LoadConfig("")
	if err == nil {
		t.Fatal("expected error for non-numeric timeout")
	}
	if !apperrors.Is(err, apperrors.CodeConfig) {
		t.Fatalf("expected config error code, got %v", err)
	}
}

func TestUnknownFieldRejected(t *testing.T) {
	clearEnv(t)
	path := writeTempConfig(t, "cli: stately\napi_key: nope\n")

	_, err := LoadConfig(path)
	if err == nil {
		t.Fatal("expected error for unknown field")
	}
	if !strings.Contains(err.Error(), "api_key") {
		t.Fatalf("expected error to name the field, got %v", err)
	}
}

func TestEmptyFile(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(writeTempConfig(t, ""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.CLI != tools.DefaultCLI {
		t.Fatalf("expected defaults for empty file, got %q", cfg.CLI)
	}
}

func TestToolTimeoutsConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ToolTimeouts.DefaultSeconds = 0
	cfg.ToolTimeouts.PerToolSeconds = map[string]int{
		tools.ToolSchemaPut:      15,
		tools.ToolValidateSchema: -1,
	}

	timeouts := cfg.ToolTimeoutsConfig()
	if timeouts.Default != 0 {
		t.Fatalf("expected zero default, got %s", timeouts.Default)
	}
	if timeouts.PerTool[tools.ToolSchemaPut] != 15*time.Second {
		t.Fatalf("expected 15s for schema put, got %s", timeouts.PerTool[tools.ToolSchemaPut])
	}
	if _, ok := timeouts.PerTool[tools.ToolValidateSchema]; ok {
		t.Fatal("expected negative timeout to be dropped")
	}
}

func TestValidateWarnings(t *testing.T) {
	registry := tools.NewRegistry(tools.NewBridge(runnertest.New(), tools.DefaultOptions(), zerolog.Nop()), zerolog.Nop())

	cfg := DefaultConfig()
	if warnings := cfg.Validate(registry); len(warnings) != 0 {
		t.Fatalf("expected no warnings for defaults, got %+v", warnings)
	}

	cfg.ToolTimeouts.PerToolSeconds["statelydb-unknown"] = 10
	cfg.TempDir = filepath.Join(t.TempDir(), "missing")
	cfg.Collector.Exclude = []string{"[unclosed"}

	fields := make(map[string]bool)
	for _, w := range cfg.Validate(registry) {
		fields[w.Field] = true
	}
	for _, want := range []string{"tool_timeouts.per_tool_seconds", "temp_dir", "collector.exclude"} {
		if !fields[want] {
			t.Fatalf("expected warning for %s, got %v", want, fields)
		}
	}
}

func TestYAMLRoundTripsThroughLoad(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	cfg.CLI = "/usr/local/bin/stately"

	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	loaded, err := LoadConfig(writeTempConfig(t, out))
	if err != nil {
		t.Fatalf("rendered config should load: %v", err)
	}
	if loaded.CLI != cfg.CLI {
		t.Fatalf("expected %q, got %q", cfg.CLI, loaded.CLI)
	}
}
