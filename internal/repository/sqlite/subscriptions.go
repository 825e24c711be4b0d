package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/Houeta/heidi/internal/repository"
)

const (
	subscribeQuery   = `INSERT INTO subscriptions (chat_id, subscribed_at) VALUES (?, ?) ON CONFLICT(chat_id) DO NOTHING`
	unsubscribeQuery = `DELETE FROM subscriptions WHERE chat_id = ?`
	subscribersQuery = `SELECT chat_id FROM subscriptions ORDER BY subscribed_at, chat_id`

	// subscribedAtLayout is fixed width so timestamps sort as text.
	subscribedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// SubscribeChat stores the chat so it receives notifications.
func (r *Repository) SubscribeChat(ctx context.Context, chatID int64) error {
	const opn = "repository.sqlite.SubscribeChat"

	res, err := r.db.ExecContext(ctx, subscribeQuery, chatID, time.Now().UTC().Format(subscribedAtLayout))
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		r.log.DebugContext(ctx, "Chat already subscribed", "op", opn, "chat_id", chatID)
	}

	return nil
}

// UnsubscribeChat removes the chat, returning repository.ErrChatNotSubscribed when it was not stored.
func (r *Repository) UnsubscribeChat(ctx context.Context, chatID int64) error {
	const opn = "repository.sqlite.UnsubscribeChat"

	res, err := r.db.ExecContext(ctx, unsubscribeQuery, chatID)
	if err != nil {
		return fmt.Errorf("%s: %w", opn, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get affected rows: %w", opn, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", opn, repository.ErrChatNotSubscribed)
	}

	return nil
}

// GetSubscribedChats returns every subscribed chat ID, oldest subscription first.
func (r *Repository) GetSubscribedChats(ctx context.Context) ([]int64, error) {
	const opn = "repository.sqlite.GetSubscribedChats"

	rows, err := r.db.QueryContext(ctx, subscribersQuery)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opn, err)
	}
	defer rows.Close()

	var chatIDs []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: failed to scan chat_id: %w", opn, err)
		}
		chatIDs = append(chatIDs, id)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows iteration error: %w", opn, err)
	}

	return chatIDs, nil
}
