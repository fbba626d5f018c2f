// Package cli implements the crudgen command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/matthewbaird/crudgen/internal/config"
	"github.com/matthewbaird/crudgen/internal/logging"
	"github.com/matthewbaird/crudgen/internal/pipeline"
)

// NewRootCmd builds the top-level crudgen command.
func NewRootCmd(version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "crudgen",
		Short: "Generate a NestJS backend, a React admin frontend and a shared Zod contract from a Prisma schema",
		Long: `crudgen reads a Prisma schema and writes three projects:

  app-backend   NestJS CRUD modules over Prisma with soft delete
  app-frontend  React + HeroUI list, form and page per model
  shared        Zod schemas both sides validate with

Every model must declare createdAt, updatedAt and deletedAt.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("config", "", "config file (default: "+config.FileName+" next to the schema)")
	root.PersistentFlags().String("log-level", "", "diagnostic log level: debug, info, warn or error")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newDriftCmd())
	root.AddCommand(newVersionCmd(version))
	return root
}

func newVersionCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Println("crudgen " + version)
		},
	}
}

// loadConfig loads --config, else the config file next to schemaPath, else
// the defaults. --log-level wins over the file and the environment.
func loadConfig(cmd *cobra.Command, schemaPath string) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" && schemaPath != "" {
		path = config.Discover(schemaPath)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if out, err := cmd.Flags().GetString("out"); err == nil && out != "" {
		cfg.Out = out
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logging.New(logging.Config{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	return log, nil
}

// runOptions maps the configuration onto the options of one run.
func runOptions(cfg *config.Config, schemaPath string, target pipeline.Target) pipeline.Options {
	return pipeline.Options{
		SchemaPath:  schemaPath,
		Target:      target,
		BackendDir:  cfg.BackendRoot(),
		FrontendDir: cfg.FrontendRoot(),
		SharedDir:   cfg.SharedRoot(),
		SkipInstall: cfg.SkipInstall,
		SkipFormat:  cfg.SkipFormat,
		Labels:      cfg.Labels,
	}
}
