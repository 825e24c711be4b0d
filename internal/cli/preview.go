package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/Houeta/heidi/internal/catalog"
	"github.com/Houeta/heidi/internal/models"
	"github.com/Houeta/heidi/internal/notifier/slack"
	"github.com/Houeta/heidi/internal/services/renderer"
	"github.com/spf13/cobra"
)

const (
	formatText = "text"
	formatJSON = "json"
)

var errUnknownFormat = errors.New("unknown output format")

func newPreviewCmd(load configLoader) *cobra.Command {
	var (
		limit  int
		id     string
		format string
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render new-item notifications for live catalog entries without posting them",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != formatText && format != formatJSON {
				return fmt.Errorf("%w: %q", errUnknownFormat, format)
			}

			cfg, err := load()
			if err != nil {
				return err
			}

			logger := setupLogger(cfg.Env, cmd.ErrOrStderr())
			client := catalog.NewClient(logger, cfg.Catalog.URL, cfg.Catalog.APIKey, cfg.Catalog.Timeout)

			entries, err := client.FetchEntries(cmd.Context())
			if err != nil {
				return err
			}

			r := renderer.New(cfg.ShopURL, renderer.WithChannelMention(false))
			out := cmd.OutOrStdout()
			shown := 0
			for _, entry := range entries {
				if id != "" && string(entry.ID) != id {
					continue
				}
				if limit > 0 && shown >= limit {
					break
				}

				payload, err := r.Render(models.NewEntry{Entry: entry})
				if err != nil {
					return err
				}
				if err = printPayload(out, format, payload); err != nil {
					return err
				}
				shown++
			}

			if shown == 0 {
				fmt.Fprintln(out, "No matching catalog entries.")
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 3, "maximum number of entries to render (0 for all)")
	cmd.Flags().StringVar(&id, "id", "", "render only the entry with this id")
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "output format: text or json (Slack blocks)")

	return cmd
}

func printPayload(w io.Writer, format string, payload models.NotificationPayload) error {
	if format == formatJSON {
		data, err := json.MarshalIndent(map[string]any{
			"text":   payload.Summary,
			"blocks": slack.Blocks(payload),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode payload: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}

	fmt.Fprintf(w, "=== %s\n", payload.Summary)
	for _, block := range payload.Blocks {
		switch b := block.(type) {
		case models.TextBlock:
			fmt.Fprintf(w, "%s\n\n", b.Markup)
		case models.ImageBlock:
			fmt.Fprintf(w, "[image: %s]\n\n", b.URL)
		}
	}
	return nil
}
