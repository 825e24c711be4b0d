package cli

import (
	"errors"
	"fmt"

	"github.com/Houeta/heidi/internal/notifier/slack"
	"github.com/spf13/cobra"
)

var errSlackDisabled = errors.New("slack is not configured: set HEIDI_SLACK_TOKEN and HEIDI_SLACK_CHANNEL")

func newPingCmd(load configLoader) *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Post a test message to the Slack channel and delete it again",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			if !cfg.SlackEnabled() {
				return errSlackDisabled
			}

			logger := setupLogger(cfg.Env, cmd.ErrOrStderr())

			n, err := slack.New(logger, cfg.Slack.Token, cfg.Slack.Channel)
			if err != nil {
				return err
			}
			if err = n.Ping(cmd.Context()); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Slack channel %s is reachable.\n", n.ChannelID())

			return nil
		},
	}
}
