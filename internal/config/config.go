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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"statelydb-mcp/internal/classify"
	"statelydb-mcp/internal/collect"
	apperrors "statelydb-mcp/internal/errors"
	"statelydb-mcp/internal/tools"
)

// DefaultPath is the config file read when no --config flag is given.
const DefaultPath = "statelydb-mcp.yaml"

// Config represents the application configuration
type Config struct {
	CLI               string            `yaml:"cli"`
	GoBinary          string            `yaml:"go_binary"`
	GoModulePath      string            `yaml:"go_module_path"`
	TempDir           string            `yaml:"temp_dir,omitempty"`
	ToolTimeouts      ToolTimeouts      `yaml:"tool_timeouts"`
	ToolOutputFilters ToolOutputFilters `yaml:"tool_output_filters"`
	Collector         CollectorSettings `yaml:"collector"`
}

// ToolTimeouts configures external command timeouts per tool.
type ToolTimeouts struct {
	DefaultSeconds int            `yaml:"default_seconds"`
	PerToolSeconds map[string]int `yaml:"per_tool_seconds,omitempty"`
}

// ToolOutputFilters configures sanitization of CLI output echoed back to the agent.
type ToolOutputFilters struct {
	MaxChars     int  `yaml:"max_chars"`
	StripANSI    bool `yaml:"strip_ansi"`
	StripControl bool `yaml:"strip_control"`
}

// CollectorSettings bounds the harvesting of generated files.
type CollectorSettings struct {
	MaxFileSizeBytes int64    `yaml:"max_file_size_bytes"`
	Exclude          []string `yaml:"exclude,omitempty"`
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	timeouts := tools.DefaultTimeoutConfig()
	perTool := make(map[string]int, len(timeouts.PerTool))
	for name, d := range timeouts.PerTool {
		perTool[name] = int(d.Seconds())
	}
	filters := classify.DefaultOutputFilterConfig()
	return &Config{
		CLI:          tools.DefaultCLI,
		GoBinary:     tools.DefaultGoBinary,
		GoModulePath: tools.DefaultGoModulePath,
		ToolTimeouts: ToolTimeouts{
			DefaultSeconds: int(timeouts.Default.Seconds()),
			PerToolSeconds: perTool,
		},
		ToolOutputFilters: ToolOutputFilters{
			MaxChars:     filters.MaxChars,
			StripANSI:    filters.StripANSI,
			StripControl: filters.StripControl,
		},
		Collector: CollectorSettings{
			MaxFileSizeBytes: collect.DefaultMaxFileSizeBytes,
		},
	}
}

// LoadConfig loads configuration from a YAML file and applies env overrides.
// A missing file is not an error; defaults are used instead.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := decodeStrict(data, config); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeConfig, fmt.Sprintf("invalid config file %s", path), err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, apperrors.Wrap(apperrors.CodeConfig, "failed to read config file", err)
		}
	}

	if err := applyEnv(config); err != nil {
		return nil, err
	}

	// Set defaults for any values the file blanked out
	if config.CLI == "" {
		config.CLI = tools.DefaultCLI
	}
	if config.GoBinary == "" {
		config.GoBinary = tools.DefaultGoBinary
	}
	if config.GoModulePath == "" {
		config.GoModulePath = tools.DefaultGoModulePath
	}

	return config, nil
}

func decodeStrict(data []byte, out *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func applyEnv(config *Config) error {
	if val := os.Getenv("STATELY_CLI"); val != "" {
		config.CLI = val
	}
	if val := os.Getenv("STATELYDB_MCP_GO_BIN"); val != "" {
		config.GoBinary = val
	}
	if val := os.Getenv("STATELYDB_MCP_TEMP_DIR"); val != "" {
		config.TempDir = val
	}
	if val := os.Getenv("STATELYDB_MCP_TIMEOUT_SECONDS"); val != "" {
		seconds, err := strconv.Atoi(val)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeConfig, "STATELYDB_MCP_TIMEOUT_SECONDS must be an integer", err)
		}
		config.ToolTimeouts.DefaultSeconds = seconds
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Config) YAML() (string, error) {
	out, err := yaml.Marshal(c)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// ToolTimeoutsConfig returns timeout configuration for tools.
func (c *Config) ToolTimeoutsConfig() tools.TimeoutConfig {
	perTool := make(map[string]time.Duration, len(c.ToolTimeouts.PerToolSeconds))
	for name, seconds := range c.ToolTimeouts.PerToolSeconds {
		if seconds <= 0 {
			continue
		}
		perTool[name] = time.Duration(seconds) * time.Second
	}

	var defaultTimeout time.Duration
	if c.ToolTimeouts.DefaultSeconds > 0 {
		defaultTimeout = time.Duration(c.ToolTimeouts.DefaultSeconds) * time.Second
	}

	return tools.TimeoutConfig{
		Default: defaultTimeout,
		PerTool: perTool,
	}
}

// ToolOutputFiltersConfig returns output filter configuration for classifiers.
func (c *Config) ToolOutputFiltersConfig() classify.OutputFilterConfig {
	return classify.OutputFilterConfig{
		MaxChars:     c.ToolOutputFilters.MaxChars,
		StripANSI:    c.ToolOutputFilters.StripANSI,
		StripControl: c.ToolOutputFilters.StripControl,
	}
}

// CollectOptions returns the file collector bounds.
func (c *Config) CollectOptions() collect.Options {
	return collect.Options{
		MaxFileSizeBytes: c.Collector.MaxFileSizeBytes,
		Exclude:          append([]string{}, c.Collector.Exclude...),
	}
}

// ToolsOptions assembles the dispatcher settings.
func (c *Config) ToolsOptions() tools.Options {
	return tools.Options{
		CLI:          c.CLI,
		GoBinary:     c.GoBinary,
		GoModulePath: c.GoModulePath,
		TempDir:      c.TempDir,
		Timeouts:     c.ToolTimeoutsConfig(),
		Filters:      c.ToolOutputFiltersConfig(),
		Collect:      c.CollectOptions(),
	}
}

// ValidationWarning represents a non-fatal configuration issue
type ValidationWarning struct {
	Field   string
	Message string
}

// Validate checks the configuration for common issues and returns warnings
func (c *Config) Validate(registry *tools.Registry) []ValidationWarning {
	var warnings []ValidationWarning

	if c.ToolTimeouts.DefaultSeconds < 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "tool_timeouts.default_seconds",
			Message: fmt.Sprintf("default_seconds %d is negative, using built-in default", c.ToolTimeouts.DefaultSeconds),
		})
	}

	if registry != nil {
		registered := make(map[string]bool)
		for _, name := range registry.GetToolNames() {
			registered[name] = true
		}
		for name, seconds := range c.ToolTimeouts.PerToolSeconds {
			if !registered[name] {
				warnings = append(warnings, ValidationWarning{
					Field:   "tool_timeouts.per_tool_seconds",
					Message: fmt.Sprintf("tool %q is not registered", name),
				})
			}
			if seconds <= 0 {
				warnings = append(warnings, ValidationWarning{
					Field:   "tool_timeouts.per_tool_seconds",
					Message: fmt.Sprintf("timeout for %q must be positive, ignoring", name),
				})
			}
		}
	}

	if c.TempDir != "" {
		if info, err := os.Stat(c.TempDir); err != nil || !info.IsDir() {
			warnings = append(warnings, ValidationWarning{
				Field:   "temp_dir",
				Message: fmt.Sprintf("temp_dir %q is not an existing directory", c.TempDir),
			})
		}
	}

	if c.Collector.MaxFileSizeBytes <= 0 {
		warnings = append(warnings, ValidationWarning{
			Field:   "collector.max_file_size_bytes",
			Message: "max_file_size_bytes should be positive, using default",
		})
	}

	for _, pattern := range c.Collector.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			warnings = append(warnings, ValidationWarning{
				Field:   "collector.exclude",
				Message: fmt.Sprintf("invalid glob %q", pattern),
			})
		}
	}

	return warnings
}
