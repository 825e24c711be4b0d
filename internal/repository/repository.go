package repository

import (
	"context"
	"errors"

	"github.com/Houeta/heidi/internal/models"
)

var (
	// ErrSnapshotNotFound is returned when no snapshot has been stored yet.
	ErrSnapshotNotFound = errors.New("snapshot not found")
	// ErrMalformedSnapshot is returned when the stored snapshot cannot be decoded.
	ErrMalformedSnapshot = errors.New("malformed snapshot")
	// ErrChatNotSubscribed is returned when unsubscribing a chat that has no subscription.
	ErrChatNotSubscribed = errors.New("chat is not subscribed")
)

// SnapshotRepository persists the last processed set of catalog entries.
type SnapshotRepository interface {
	// GetSnapshot returns the stored snapshot or ErrSnapshotNotFound.
	GetSnapshot(ctx context.Context) (*models.Snapshot, error)
	// SaveSnapshot replaces the stored snapshot as a whole.
	SaveSnapshot(ctx context.Context, snapshot *models.Snapshot) error
}

// SubscriptionRepository stores the Telegram chats that receive notifications.
type SubscriptionRepository interface {
	// SubscribeChat registers a chat. Subscribing twice keeps the original subscription.
	SubscribeChat(ctx context.Context, chatID int64) error
	// UnsubscribeChat removes a chat or returns ErrChatNotSubscribed.
	UnsubscribeChat(ctx context.Context, chatID int64) error
	// GetSubscribedChats lists chats in subscription order.
	GetSubscribedChats(ctx context.Context) ([]int64, error)
}
