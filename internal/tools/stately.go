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
	"regexp"

	"github.com/rs/zerolog"

	"statelydb-mcp/internal/classify"
	"statelydb-mcp/internal/collect"
	"statelydb-mcp/internal/runner"
	"statelydb-mcp/internal/workspace"
)

// Tool names exposed to agents.
const (
	ToolValidateSchema     = "statelydb-validate-schema"
	ToolValidateMigrations = "statelydb-validate-migrations"
	ToolAttemptLogin       = "statelydb-attempt-login"
	ToolVerifyLogin        = "statelydb-verify-login"
	ToolSchemaPut          = "statelydb-schema-put"
	ToolSchemaGenerate     = "statelydb-schema-generate"
)

// Defaults for the external programs.
const (
	DefaultCLI          = "stately"
	DefaultGoBinary     = "go"
	DefaultGoModulePath = "github.com/stately/schema"
)

const (
	// SchemaFileName is the file the schema text is written to inside a workspace.
	SchemaFileName = "schema.ts"

	// NoFilesGenerated is reported when generation leaves the output directory empty.
	NoFilesGenerated = "No files were generated."

	goOutputPrefix    = "statelygo"
	otherOutputPrefix = "stately-gen-"
	goModFile         = "go.mod"
)

// Languages accepted by schema-generate.
var Languages = []string{"typescript", "python", "ruby", "go"}

// schemaIDPattern keeps the id a single argv token that cannot be read as a flag.
var schemaIDPattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9._-]*$`)

// Options configures the bridge to the stately CLI.
type Options struct {
	CLI          string
	GoBinary     string
	GoModulePath string
	TempDir      string
	Timeouts     TimeoutConfig
	Filters      classify.OutputFilterConfig
	Collect      collect.Options
}

// DefaultOptions returns the options used when no config file is present.
func DefaultOptions() Options {
	return Options{
		CLI:          DefaultCLI,
		GoBinary:     DefaultGoBinary,
		GoModulePath: DefaultGoModulePath,
		Timeouts:     DefaultTimeoutConfig(),
		Filters:      classify.DefaultOutputFilterConfig(),
	}
}

// Bridge wires tool calls to the stately CLI.
type Bridge struct {
	opts        Options
	runner      runner.Runner
	workspaces  *workspace.Manager
	classifiers *classify.Set
	logger      zerolog.Logger
}

// NewBridge builds a bridge that runs programs through r.
func NewBridge(r runner.Runner, opts Options, logger zerolog.Logger) *Bridge {
	if opts.CLI == "" {
		opts.CLI = DefaultCLI
	}
	if opts.GoBinary == "" {
		opts.GoBinary = DefaultGoBinary
	}
	if opts.GoModulePath == "" {
		opts.GoModulePath = DefaultGoModulePath
	}
	return &Bridge{
		opts:   opts,
		runner: r,
		workspaces: workspace.NewManager(r, workspace.Options{
			CLI:         opts.CLI,
			Root:        opts.TempDir,
			InitTimeout: opts.Timeouts.TimeoutForTool(""),
			Logger:      logger,
		}),
		classifiers: classify.NewSet(opts.Filters),
		logger:      logger,
	}
}

// NewRegistry creates a registry holding the StatelyDB tools.
func NewRegistry(b *Bridge, logger zerolog.Logger) *Registry {
	r := NewEmptyRegistry(logger)
	for _, tool := range b.Tools() {
		if err := r.RegisterTool(tool); err != nil {
			panic(err)
		}
	}
	return r
}

var (
	schemaParam = Param{
		Name:        "schema",
		Description: "The schema definition to validate",
		Required:    true,
	}
	schemaIDParam = Param{
		Name:        "schemaId",
		Description: "The schema ID",
		Required:    true,
	}
)

func define(name, description string, params []Param, handler HandlerFunc, rules ...ValidationRule) *ToolDefinition {
	rules = append([]ValidationRule{RejectUnknownArgs(params)}, rules...)
	return &ToolDefinition{
		NameValue:        name,
		DescriptionValue: description,
		ParamsValue:      params,
		ExecuteFunc:      handler,
		ValidateFunc:     ChainValidation(rules...),
	}
}

var (
	// empty schema text is left for the CLI to reject
	requireSchema   = RequireStringTypeArg("schema", "missing or invalid 'schema' parameter")
	requireSchemaID = ChainValidation(
		RequireStringArg("schemaId", "missing or invalid 'schemaId' parameter"),
		RequirePatternArg("schemaId", schemaIDPattern, "invalid 'schemaId' parameter: use letters, digits, '.', '_' or '-'"),
	)
)

// Tools returns the six StatelyDB tool definitions.
func (b *Bridge) Tools() []Tool {
	publishSchema := schemaParam
	publishSchema.Description = "The schema definition to publish"

	return []Tool{
		define(ToolValidateSchema,
			"Validate a StatelyDB elastic schema definition.",
			[]Param{schemaParam},
			b.validateSchema,
			requireSchema),
		define(ToolValidateMigrations,
			"Validate schema migrations inside of a StatelyDB elastic schema definition.",
			[]Param{schemaParam, schemaIDParam},
			b.validateMigrations,
			requireSchema, requireSchemaID),
		define(ToolAttemptLogin,
			"Initiate StatelyDB login process and get an authorization URL",
			nil,
			b.attemptLogin),
		define(ToolVerifyLogin,
			"Verify if the user is logged in to StatelyDB. This command can also tell you what organizations, stores, and schemas you have access to.",
			nil,
			b.verifyLogin),
		define(ToolSchemaPut,
			"Publish an elastic schema version definition to StatelyDB",
			[]Param{publishSchema, schemaIDParam},
			b.schemaPut,
			requireSchema, requireSchemaID),
		define(ToolSchemaGenerate,
			"Generate client code from a published StatelyDB schema version definition. Supported languages: TypeScript, Python, Ruby, Go.",
			[]Param{schemaIDParam, {
				Name:        "language",
				Description: "The language to generate code for",
				Required:    true,
				Enum:        Languages,
			}},
			b.schemaGenerate,
			requireSchemaID, RequireEnumArg("language", Languages...)),
	}
}

// stately runs the CLI with the timeout configured for tool.
func (b *Bridge) stately(ctx context.Context, tool, dir string, args ...string) (runner.Result, error) {
	return b.runner.Run(ctx, runner.Command{
		Name:    b.opts.CLI,
		Args:    args,
		Dir:     dir,
		Timeout: b.opts.Timeouts.TimeoutForTool(tool),
	})
}

// withSchemaWorkspace provisions a workspace, writes the schema into it and
// runs fn. The workspace is removed before withSchemaWorkspace returns.
func (b *Bridge) withSchemaWorkspace(ctx context.Context, schema string, fn func(ws *workspace.Workspace, schemaFile string) (runner.Result, error)) (runner.Result, error) {
	ws, err := b.workspaces.Provision(ctx)
	if err != nil {
		return runner.Result{}, err
	}
	defer b.workspaces.Dispose(ws)

	schemaFile, err := ws.WriteFile(SchemaFileName, schema)
	if err != nil {
		return runner.Result{}, err
	}
	return fn(ws, schemaFile)
}

func verdictEnvelope(v classify.Verdict) Envelope {
	if v.OK {
		return TextResult(v.Message)
	}
	return ErrorResult(v.Message)
}

func (b *Bridge) validateSchema(ctx context.Context, args map[string]interface{}) Envelope {
	res, err := b.withSchemaWorkspace(ctx, stringArg(args, "schema"), func(ws *workspace.Workspace, schemaFile string) (runner.Result, error) {
		return b.stately(ctx, ToolValidateSchema, ws.Path, "schema", "validate", schemaFile)
	})
	if err != nil {
		return Failure("validate schema", err)
	}
	return verdictEnvelope(b.classifiers.ValidateSchema().Classify(res))
}

func (b *Bridge) validateMigrations(ctx context.Context, args map[string]interface{}) Envelope {
	schemaID := stringArg(args, "schemaId")
	res, err := b.withSchemaWorkspace(ctx, stringArg(args, "schema"), func(ws *workspace.Workspace, schemaFile string) (runner.Result, error) {
		return b.stately(ctx, ToolValidateMigrations, ws.Path, "schema", "put", "-s", schemaID, schemaFile, "--dry-run")
	})
	if err != nil {
		return Failure("validate migrations", err)
	}
	return verdictEnvelope(b.classifiers.ValidateMigrations().Classify(res))
}

func (b *Bridge) attemptLogin(ctx context.Context, _ map[string]interface{}) Envelope {
	res, err := b.stately(ctx, ToolAttemptLogin, "", "login")
	if err != nil {
		return Failure("initiate login", err)
	}
	return verdictEnvelope(b.classifiers.AttemptLogin().Classify(res))
}

func (b *Bridge) verifyLogin(ctx context.Context, _ map[string]interface{}) Envelope {
	res, err := b.stately(ctx, ToolVerifyLogin, "", "whoami")
	if err != nil {
		return Failure("verify login", err)
	}
	return verdictEnvelope(b.classifiers.VerifyLogin().Classify(res))
}

func (b *Bridge) schemaPut(ctx context.Context, args map[string]interface{}) Envelope {
	schemaID := stringArg(args, "schemaId")
	res, err := b.withSchemaWorkspace(ctx, stringArg(args, "schema"), func(ws *workspace.Workspace, schemaFile string) (runner.Result, error) {
		return b.stately(ctx, ToolSchemaPut, ws.Path, "schema", "put", "-s", schemaID, schemaFile)
	})
	if err != nil {
		return Failure("publish schema", err)
	}
	return verdictEnvelope(b.classifiers.SchemaPut().Classify(res))
}
