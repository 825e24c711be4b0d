// Package slack delivers notification payloads to a Slack channel.
package slack

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Houeta/heidi/internal/models"
	slackapi "github.com/slack-go/slack"
)

const (
	pingText = "Heidi ping: checking channel access."
	// DefaultAltText describes images whose entry has no name.
	DefaultAltText = "Catalog item image"
)

// ErrInvalidChannel is returned when the channel setting is neither an ID nor an archives URL.
var ErrInvalidChannel = errors.New("invalid slack channel")

var (
	archivesRe  = regexp.MustCompile(`(?i)/archives/([A-Z0-9]+)`)
	channelIDRe = regexp.MustCompile(`^[A-Z0-9]+$`)
)

// Client is the subset of the Slack Web API used by the notifier.
type Client interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slackapi.MsgOption) (string, string, error)
	DeleteMessageContext(ctx context.Context, channel, messageTimestamp string) (string, string, error)
}

type Notifier struct {
	log       *slog.Logger
	api       Client
	channelID string
}

// New creates a Notifier for the given bot token and channel setting.
func New(log *slog.Logger, token, channel string, opts ...slackapi.Option) (*Notifier, error) {
	const opn = "slack.New"

	channelID, err := ParseChannelID(channel)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}

	return NewWithClient(log, slackapi.New(token, opts...), channelID), nil
}

func NewWithClient(log *slog.Logger, api Client, channelID string) *Notifier {
	return &Notifier{log: log, api: api, channelID: channelID}
}

// ChannelID returns the resolved target channel.
func (n *Notifier) ChannelID() string {
	return n.channelID
}

// Notify posts the payload with link and media unfurling disabled.
func (n *Notifier) Notify(ctx context.Context, payload models.NotificationPayload) error {
	const opn = "slack.Notify"
	log := n.log.With("op", opn)

	channel, ts, err := n.api.PostMessageContext(ctx, n.channelID,
		slackapi.MsgOptionText(payload.Summary, false),
		slackapi.MsgOptionBlocks(Blocks(payload)...),
		slackapi.MsgOptionDisableLinkUnfurl(),
		slackapi.MsgOptionDisableMediaUnfurl(),
	)
	if err != nil {
		return fmt.Errorf("%s: failed to post message: %w", opn, err)
	}

	log.InfoContext(ctx, "Notification posted", "channel", channel, "ts", ts)

	return nil
}

// Ping posts a message and deletes it again to verify the token and channel.
func (n *Notifier) Ping(ctx context.Context) error {
	const opn = "slack.Ping"
	log := n.log.With("op", opn)

	channel, ts, err := n.api.PostMessageContext(ctx, n.channelID, slackapi.MsgOptionText(pingText, false))
	if err != nil {
		return fmt.Errorf("%s: failed to post ping: %w", opn, err)
	}

	if _, _, err = n.api.DeleteMessageContext(ctx, channel, ts); err != nil {
		return fmt.Errorf("%s: failed to delete ping %s: %w", opn, ts, err)
	}

	log.InfoContext(ctx, "Slack ping succeeded", "channel", channel)

	return nil
}

// Blocks converts payload blocks to Slack layout blocks.
func Blocks(payload models.NotificationPayload) []slackapi.Block {
	blocks := make([]slackapi.Block, 0, len(payload.Blocks))
	for _, b := range payload.Blocks {
		switch block := b.(type) {
		case models.TextBlock:
			text := slackapi.NewTextBlockObject(slackapi.MarkdownType, block.Markup, false, false)
			blocks = append(blocks, slackapi.NewSectionBlock(text, nil, nil))
		case models.ImageBlock:
			alt := strings.TrimSpace(block.AltText)
			if alt == "" {
				alt = DefaultAltText
			}
			blocks = append(blocks, slackapi.NewImageBlock(block.URL, alt, "", nil))
		}
	}
	return blocks
}

// ParseChannelID accepts a bare channel ID or a Slack archives URL.
func ParseChannelID(channel string) (string, error) {
	channel = strings.TrimSpace(channel)
	if m := archivesRe.FindStringSubmatch(channel); m != nil {
		return strings.ToUpper(m[1]), nil
	}
	if channelIDRe.MatchString(channel) {
		return channel, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChannel, channel)
}
