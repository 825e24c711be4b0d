package bot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Houeta/heidi/internal/repository"
	"gopkg.in/telebot.v4"
)

const (
	handlerTimeout = 5 * time.Second

	greetingText    = "Hello! I'm Heidi. I watch the shop and tell you when something new shows up or changes.\n\n/subscribe - get notified in this chat\n/unsubscribe - stop notifications"
	subscribedText  = "Subscribed! You'll hear from me when the shop changes."
	unsubscribeText = "Unsubscribed. I'll keep quiet here."
	notSubscribed   = "This chat isn't subscribed. Use /subscribe to get notifications."
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "username", ctx.Sender().Username)

	if err := ctx.Send(greetingText); err != nil {
		return fmt.Errorf("failed to send greeting message: %w", err)
	}

	return nil
}

// subscribeHandler process command /subscribe.
func (b *Bot) subscribeHandler(ctx telebot.Context) error {
	reqCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	chatID := ctx.Chat().ID
	if err := b.repo.SubscribeChat(reqCtx, chatID); err != nil {
		b.log.Error("failed to subscribe chat", "chat_id", chatID, "error", err)
		return ctx.Send("Sorry, I couldn't subscribe this chat. Try again later.")
	}

	b.log.Info("Chat subscribed", "chat_id", chatID)

	if err := ctx.Send(subscribedText); err != nil {
		return fmt.Errorf("failed to send subscribe confirmation: %w", err)
	}

	return nil
}

// unsubscribeHandler process command /unsubscribe.
func (b *Bot) unsubscribeHandler(ctx telebot.Context) error {
	reqCtx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
	defer cancel()

	chatID := ctx.Chat().ID
	err := b.repo.UnsubscribeChat(reqCtx, chatID)
	if errors.Is(err, repository.ErrChatNotSubscribed) {
		return ctx.Send(notSubscribed)
	}
	if err != nil {
		b.log.Error("failed to unsubscribe chat", "chat_id", chatID, "error", err)
		return ctx.Send("Sorry, I couldn't unsubscribe this chat. Try again later.")
	}

	b.log.Info("Chat unsubscribed", "chat_id", chatID)

	if err = ctx.Send(unsubscribeText); err != nil {
		return fmt.Errorf("failed to send unsubscribe confirmation: %w", err)
	}

	return nil
}
