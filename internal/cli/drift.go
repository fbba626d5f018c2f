package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matthewbaird/crudgen/internal/emit"
	"github.com/matthewbaird/crudgen/internal/manifest"
)

// ErrDrift is returned by drift when generated files changed since the
// last run.
var ErrDrift = errors.New("generated files drifted from the last run")

func newDriftCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Report generated files changed or removed since the last successful run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, "")
			if err != nil {
				return err
			}
			path := cfg.ManifestPath()
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("no manifest at %s, run generate first: %w", path, err)
			}

			ctx := cmd.Context()
			store, err := manifest.Open(ctx, path)
			if err != nil {
				return err
			}
			defer store.Close()

			rep, err := manifest.Check(ctx, store, map[emit.Root]string{
				emit.RootBackend:  cfg.BackendRoot(),
				emit.RootFrontend: cfg.FrontendRoot(),
				emit.RootShared:   cfg.SharedRoot(),
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format != "" {
				if err := encode(out, format, rep); err != nil {
					return err
				}
			} else {
				fmt.Fprintf(out, "Run %s: checked %d files\n", rep.Run.ID, rep.Checked)
				for _, d := range rep.Drift {
					fmt.Fprintf(out, "  %-8s %s/%s\n", d.Kind, d.Root, d.Path)
				}
			}
			if !rep.Clean() {
				return fmt.Errorf("%w: %d files", ErrDrift, len(rep.Drift))
			}
			return nil
		},
	}

	cmd.Flags().StringP("out", "o", "", "output root (default from config)")
	cmd.Flags().StringVarP(&format, "format", "f", "", "print the report as json or yaml")
	return cmd
}
