// Package cli wires the application together behind the heidi command line.
package cli

import (
	"context"

	"github.com/Houeta/heidi/internal/config"
	"github.com/spf13/cobra"
)

// NewRootCmd builds the heidi command tree.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "heidi",
		Short: "Heidi watches the shop catalog and announces new and changed items.",
		Long: `Heidi polls the shop catalog API, compares every listing with the last snapshot,
and posts notifications about new items and price, stock or description changes
to Slack and Telegram subscribers.`,
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (optional, environment variables take precedence)")

	load := func() (*config.Config, error) {
		return config.Load(cfgFile)
	}

	rootCmd.AddCommand(
		newRunCmd(load),
		newPreviewCmd(load),
		newPingCmd(load),
	)

	return rootCmd
}

// Execute runs the root command. Commands observe ctx for shutdown.
func Execute(ctx context.Context) error {
	return NewRootCmd().ExecuteContext(ctx)
}

type configLoader func() (*config.Config, error)
