package cli

import (
	"github.com/spf13/cobra"

	"github.com/matthewbaird/crudgen/internal/manifest"
	"github.com/matthewbaird/crudgen/internal/output"
	"github.com/matthewbaird/crudgen/internal/pipeline"
	"github.com/matthewbaird/crudgen/internal/progress"
	"github.com/matthewbaird/crudgen/internal/server"
	"github.com/matthewbaird/crudgen/internal/toolchain"
)

func newServeCmd() *cobra.Command {
	var (
		addr   string
		target string
	)

	cmd := &cobra.Command{
		Use:   "serve <schema>",
		Short: "Serve previews of the generated code and trigger generations over HTTP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaPath := args[0]
			cfg, err := loadConfig(cmd, schemaPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			t, err := pipeline.ParseTarget(target)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			ctx := cmd.Context()
			bus := progress.New(256, log)
			bus.Subscribe("log", &progress.LogConsumer{Log: log})
			bus.Start(ctx)
			defer bus.Stop()

			store := manifest.NewLazy(cfg.ManifestPath())
			defer store.Close()

			runner := pipeline.NewRunner(pipeline.Config{
				Scaffolder: toolchain.New(cfg, log),
				FS:         output.Disk{},
				Manifest:   store,
				Progress:   bus,
				Log:        log,
			})

			cmd.Printf("Serving %s on http://%s\n", schemaPath, cfg.Server.Addr)
			return server.New(server.Config{
				Addr:      cfg.Server.Addr,
				Options:   runOptions(cfg, schemaPath, t),
				Generator: runner,
				Events:    bus,
				Log:       log,
			}).Run(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	cmd.Flags().StringP("out", "o", "", "output root for triggered generations (default from config)")
	cmd.Flags().StringVarP(&target, "target", "t", "both", "default target of previews and generations")
	return cmd
}
