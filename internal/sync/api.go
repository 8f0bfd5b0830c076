// Package sync keeps the console's chat list and the selected chat's
// message list current by fixed-interval polling against the backend,
// reconciling each fetch into local state without disturbing views
// that have not meaningfully changed.
package sync

import (
	"context"

	"github.com/opchat/opchat/internal/domain"
)

// ChatLister is the slice of the backend the chat synchronizer needs.
type ChatLister interface {
	ListChats(ctx context.Context) ([]*domain.Chat, error)
}

// MessageAPI is the slice of the backend the message synchronizer needs.
type MessageAPI interface {
	ListMessages(ctx context.Context, chatID string) ([]*domain.Message, error)
	MarkChatRead(ctx context.Context, chatID string) error
}
