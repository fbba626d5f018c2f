package cli

import (
	"fmt"
	"sync"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/crudgen/internal/manifest"
	"github.com/matthewbaird/crudgen/internal/output"
	"github.com/matthewbaird/crudgen/internal/pipeline"
	"github.com/matthewbaird/crudgen/internal/progress"
	"github.com/matthewbaird/crudgen/internal/toolchain"
)

func newGenerateCmd() *cobra.Command {
	var (
		target      string
		skipInstall bool
		skipFormat  bool
		dryRun      bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "generate <schema>",
		Short: "Generate the backend, frontend and shared contract",
		Example: `  crudgen generate prisma/schema.prisma
  crudgen generate prisma/schema.prisma --target back --out ./generated
  crudgen generate prisma/schema.prisma --dry-run`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaPath := args[0]
			cfg, err := loadConfig(cmd, schemaPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("skip-install") {
				cfg.SkipInstall = skipInstall
			}
			if cmd.Flags().Changed("skip-format") {
				cfg.SkipFormat = skipFormat
			}

			t, err := resolveTarget(cmd, target)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			stdout := cmd.OutOrStdout()

			bus := progress.New(256, log)
			bus.Subscribe("console", &progress.Console{W: stdout, Verbose: verbose || dryRun})
			bus.Subscribe("log", &progress.LogConsumer{Log: log})
			bus.Start(ctx)
			stopBus := sync.OnceFunc(bus.Stop)
			defer stopBus()

			tc := toolchain.New(cfg, log)
			if verbose {
				tc.Stdout = stdout
				tc.Stderr = cmd.ErrOrStderr()
			}

			runCfg := pipeline.Config{Scaffolder: tc, Progress: bus, Log: log}
			if dryRun {
				runCfg.FS = output.NewMemory()
			} else {
				runCfg.FS = output.Disk{}
				store := manifest.NewLazy(cfg.ManifestPath())
				defer store.Close()
				runCfg.Manifest = store
			}

			opts := runOptions(cfg, schemaPath, t)
			opts.DryRun = dryRun
			res, err := pipeline.NewRunner(runCfg).Run(ctx, opts)
			stopBus()
			if err != nil {
				return err
			}

			if dryRun {
				fmt.Fprintf(stdout, "Dry run: %d files rendered for %d models, nothing written.\n", res.Written, len(res.Model.Entities))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", "", "projects to generate: front, back or both (prompts when omitted on a terminal)")
	cmd.Flags().StringP("out", "o", "", "output root (default from config)")
	cmd.Flags().BoolVar(&skipInstall, "skip-install", false, "skip dependency installation")
	cmd.Flags().BoolVar(&skipFormat, "skip-format", false, "skip the formatter")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "render without touching the file system")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "list written files and show tool output")
	return cmd
}

// resolveTarget uses --target when given, prompts on a terminal and
// otherwise generates both projects.
func resolveTarget(cmd *cobra.Command, flag string) (pipeline.Target, error) {
	if cmd.Flags().Changed("target") {
		return pipeline.ParseTarget(flag)
	}
	if interactive(cmd.InOrStdin()) {
		return promptTarget(cmd.InOrStdin(), cmd.OutOrStdout())
	}
	return pipeline.TargetBoth, nil
}
