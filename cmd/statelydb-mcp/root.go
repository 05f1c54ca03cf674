package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"statelydb-mcp/internal/config"
	"statelydb-mcp/internal/runner"
	"statelydb-mcp/internal/server"
	"statelydb-mcp/internal/tools"
)

type rootOptions struct {
	configPath string
	debug      bool
	logFile    string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "statelydb-mcp",
		Short:         "MCP server exposing StatelyDB schema tools",
		Version:       version(),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to the YAML config file")
	cmd.PersistentFlags().BoolVarP(&opts.debug, "debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.logFile, "log-file", "", "Log file path (logs go to stderr by default)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Serve the tools over stdio (default)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(opts)
			},
		},
		newToolsCmd(opts),
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.LoadConfig(opts.configPath)
				if err != nil {
					return err
				}
				out, err := cfg.YAML()
				if err != nil {
					return err
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), out)
				return err
			},
		},
	)

	return cmd
}

func newToolsCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "List the registered tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(opts.configPath)
			if err != nil {
				return err
			}
			registry := buildRegistry(cfg, zerolog.Nop())
			if asJSON {
				return printToolsJSON(cmd.OutOrStdout(), registry)
			}
			return printTools(cmd.OutOrStdout(), registry)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print tool definitions with input schemas as JSON")
	return cmd
}

func runServe(opts *rootOptions) error {
	logger, closer, err := initLogger(opts.debug, opts.logFile)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", opts.configPath).Msg("failed to load config")
		return err
	}

	registry := buildRegistry(cfg, logger)
	for _, w := range cfg.Validate(registry) {
		logger.Warn().Str("field", w.Field).Msg(w.Message)
	}

	logger.Info().Str("version", version()).Str("cli", cfg.CLI).Msg("statelydb-mcp starting")
	if err := server.New(registry, version(), logger).Start(); err != nil {
		logger.Error().Err(err).Msg("server stopped")
		return err
	}
	return nil
}

func buildRegistry(cfg *config.Config, logger zerolog.Logger) *tools.Registry {
	execRunner := runner.NewExecRunner(cfg.ToolTimeoutsConfig().Default, logger)
	bridge := tools.NewBridge(execRunner, cfg.ToolsOptions(), logger)
	return tools.NewRegistry(bridge, logger)
}

func printTools(w io.Writer, registry *tools.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, tool := range registry.GetTools() {
		fmt.Fprintf(tw, "%s\t%s\n", tool.Name(), tool.Description())
	}
	return tw.Flush()
}

type toolListing struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func printToolsJSON(w io.Writer, registry *tools.Registry) error {
	var listing []toolListing
	for _, tool := range registry.GetTools() {
		listing = append(listing, toolListing{
			Name:        tool.Name(),
			Description: tool.Description(),
			InputSchema: tools.Schema(tool),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(listing)
}

func version() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}
