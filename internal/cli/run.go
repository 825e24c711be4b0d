package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRunCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Poll the catalog and send notifications until interrupted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			cfg, err := load()
			if err != nil {
				return err
			}
			if err = cfg.RequireSink(); err != nil {
				return err
			}

			// Set up the logger based on the environment.
			logger := setupLogger(cfg.Env, os.Stdout)

			a, err := newApp(ctx, logger, cfg)
			if err != nil {
				return fmt.Errorf("failed to init application: %w", err)
			}

			logger.InfoContext(ctx, "Application started. Press Ctrl+C to stop.",
				"interval", cfg.FetchInterval, "tracked_fields", cfg.TrackedFields.String())

			a.run(ctx)

			logger.InfoContext(ctx, "Application stopped gracefully.")

			return nil
		},
	}
}
