package sync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/opchat/opchat/internal/backend"
	"github.com/opchat/opchat/internal/bus"
	"github.com/opchat/opchat/internal/domain"
	"go.uber.org/zap"
)

// ChatSynchronizer maintains the ordered chat list for the current
// operator. It owns the list exclusively: nothing else mutates it.
type ChatSynchronizer struct {
	api      ChatLister
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration

	mu         sync.RWMutex
	cancel     context.CancelFunc
	chats      []*domain.Chat
	selectedID string
	selected   *domain.Chat
}

// NewChatSynchronizer creates a chat synchronizer polling at the given
// interval.
func NewChatSynchronizer(api ChatLister, b *bus.Bus, logger *zap.Logger, interval time.Duration) *ChatSynchronizer {
	return &ChatSynchronizer{
		api:      api,
		bus:      b,
		logger:   logger,
		interval: interval,
	}
}

// Refresh fetches the chat list once, sorts it and swaps it in. If a
// chat is selected, the selected reference is repointed at the
// refreshed copy so fields like assigned user stay current without
// losing the selection.
func (s *ChatSynchronizer) Refresh(ctx context.Context) error {
	chats, err := s.api.ListChats(ctx)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.bus.Emit(bus.KindSessionExpired, nil)
		}
		return err
	}
	domain.SortChats(chats)

	s.mu.Lock()
	s.chats = chats
	if s.selectedID != "" {
		for _, c := range chats {
			if c.ID == s.selectedID {
				s.selected = c
				break
			}
		}
	}
	s.mu.Unlock()

	s.bus.Emit(bus.KindChatListUpdated, len(chats))
	return nil
}

// Start refreshes immediately and then keeps polling until Stop or
// context cancellation. A failed tick keeps the previous list; the
// next tick is the retry.
func (s *ChatSynchronizer) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		if err := s.Refresh(ctx); err != nil {
			s.logger.Error("initial chat refresh failed", zap.Error(err))
		}
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := s.Refresh(ctx); err != nil {
					s.logger.Error("chat refresh failed", zap.Error(err))
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop cancels the polling loop.
func (s *ChatSynchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Chats returns the current sorted chat list.
func (s *ChatSynchronizer) Chats() []*domain.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chats
}

// Select marks a chat as selected and returns it, or nil if unknown.
func (s *ChatSynchronizer) Select(id string) *domain.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedID = id
	s.selected = nil
	for _, c := range s.chats {
		if c.ID == id {
			s.selected = c
			break
		}
	}
	return s.selected
}

// Selected returns the currently selected chat, or nil.
func (s *ChatSynchronizer) Selected() *domain.Chat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}
