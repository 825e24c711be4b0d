package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/heidi/internal/models"
	"github.com/Houeta/heidi/internal/repository"
	"gopkg.in/telebot.v4"
)

const buyButton = "Buy now!"

// Bot contains the bot API instance and other information.
type Bot struct {
	bot  API
	log  *slog.Logger
	repo repository.SubscriptionRepository
}

func NewBot(log *slog.Logger, token string, poller time.Duration, repo repository.SubscriptionRepository) (*Bot, error) {
	bot, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", bot.Me.Username)

	botInstance := &Bot{bot: bot, log: log, repo: repo}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// Notify sends the payload to every subscribed chat. Telegram gets the plain summary,
// the image when there is one, and a purchase button.
func (b *Bot) Notify(ctx context.Context, payload models.NotificationPayload) error {
	const opn = "bot.Notify"
	log := b.log.With("op", opn)

	chats, err := b.repo.GetSubscribedChats(ctx)
	if err != nil {
		return fmt.Errorf("%s: failed to get subscribed chats: %w", opn, err)
	}

	what, opts := message(payload)

	var errs []error
	for _, chatID := range chats {
		if _, err = b.bot.Send(telebot.ChatID(chatID), what, opts); err != nil {
			log.ErrorContext(ctx, "failed to send notification", "chat_id", chatID, "error", err)
			errs = append(errs, fmt.Errorf("chat %d: %w", chatID, err))
		}
	}

	log.InfoContext(ctx, "Notification sent to subscribers", "chats", len(chats), "failed", len(errs))

	if err = errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	return nil
}

func message(payload models.NotificationPayload) (any, *telebot.SendOptions) {
	opts := &telebot.SendOptions{DisableWebPagePreview: true}
	if payload.LinkURL != "" {
		markup := &telebot.ReplyMarkup{}
		markup.Inline(markup.Row(markup.URL(buyButton, payload.LinkURL)))
		opts.ReplyMarkup = markup
	}

	if img, ok := payload.Image(); ok {
		return &telebot.Photo{File: telebot.FromURL(img.URL), Caption: payload.Summary}, opts
	}

	return payload.Summary, opts
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	// Public routes.
	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/subscribe", b.subscribeHandler)
	b.bot.Handle("/unsubscribe", b.unsubscribeHandler)
}
