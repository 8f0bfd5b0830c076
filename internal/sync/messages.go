package sync

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/opchat/opchat/internal/backend"
	"github.com/opchat/opchat/internal/bus"
	"github.com/opchat/opchat/internal/domain"
	"go.uber.org/zap"
)

// MessageSynchronizer polls messages for the selected chat and
// reconciles each fetch into the held list. Selecting another chat
// cancels the running poll; a generation counter makes sure a late
// response for the previous chat cannot overwrite current state.
type MessageSynchronizer struct {
	api      MessageAPI
	bus      *bus.Bus
	logger   *zap.Logger
	interval time.Duration

	mu         sync.RWMutex
	chatID     string
	generation uint64
	msgs       []*domain.Message
	pending    []*domain.Message
	loading    bool
	cancel     context.CancelFunc
}

// NewMessageSynchronizer creates a message synchronizer polling at the
// given interval.
func NewMessageSynchronizer(api MessageAPI, b *bus.Bus, logger *zap.Logger, interval time.Duration) *MessageSynchronizer {
	return &MessageSynchronizer{
		api:      api,
		bus:      b,
		logger:   logger,
		interval: interval,
	}
}

// Select switches the synchronizer to the given chat: the previous
// chat's poll loop is cancelled, local state is reset, an initial
// fetch runs with the loading flag up, and polling begins.
func (s *MessageSynchronizer) Select(ctx context.Context, chatID string) {
	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.chatID = chatID
	s.msgs = nil
	s.pending = nil
	s.loading = true
	loopCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.bus.Emit(bus.KindMessageListUpdated, chatID)

	go s.loop(loopCtx, chatID, gen)
}

// Stop cancels the active poll loop, e.g. on teardown or logout.
func (s *MessageSynchronizer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *MessageSynchronizer) loop(ctx context.Context, chatID string, gen uint64) {
	s.fetch(ctx, chatID, gen, true)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.fetch(ctx, chatID, gen, false)
		case <-ctx.Done():
			return
		}
	}
}

// fetch runs one fetch → normalize → sort → reconcile pass.
func (s *MessageSynchronizer) fetch(ctx context.Context, chatID string, gen uint64, initial bool) {
	msgs, err := s.api.ListMessages(ctx, chatID)
	if err != nil {
		if errors.Is(err, backend.ErrUnauthorized) {
			s.bus.Emit(bus.KindSessionExpired, nil)
		}
		if initial {
			// Never leave the view stuck on loading.
			s.mu.Lock()
			if gen == s.generation {
				s.loading = false
			}
			s.mu.Unlock()
			s.bus.Emit(bus.KindMessageListUpdated, chatID)
			s.logger.Error("initial message fetch failed", zap.Error(err), zap.String("chat_id", chatID))
		} else {
			s.logger.Error("message poll failed", zap.Error(err), zap.String("chat_id", chatID))
		}
		return
	}
	sortAscending(msgs)

	s.mu.Lock()
	if gen != s.generation {
		// Late response for a chat that is no longer selected.
		s.mu.Unlock()
		return
	}
	merged, stillPending := mergePending(msgs, s.pending)
	changed := !MessagesEqual(s.msgs, merged)
	if changed {
		s.msgs = merged
	}
	s.pending = stillPending
	if initial {
		s.loading = false
	}
	s.mu.Unlock()

	if changed || initial {
		s.bus.Emit(bus.KindMessageListUpdated, chatID)
	}
	if initial {
		go s.markRead(chatID)
	}
}

// markRead tells the backend the chat was opened. Fire and forget:
// failure is logged, never surfaced.
func (s *MessageSynchronizer) markRead(chatID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.api.MarkChatRead(ctx, chatID); err != nil {
		s.logger.Error("mark chat read failed", zap.Error(err), zap.String("chat_id", chatID))
	}
}

// AppendPending adds an optimistic local send to the displayed list.
// It stays until a poll returns a message with the same id or it is
// resolved/removed by the outbox.
func (s *MessageSynchronizer) AppendPending(msg *domain.Message) {
	s.mu.Lock()
	if msg.ChatID != s.chatID {
		s.mu.Unlock()
		return
	}
	s.pending = append(s.pending, msg)
	next := append(slices.Clone(s.msgs), msg)
	sortAscending(next)
	s.msgs = next
	chatID := s.chatID
	s.mu.Unlock()

	s.bus.Emit(bus.KindMessageListUpdated, chatID)
}

// ResolvePending swaps an optimistic entry for the server's copy once
// the send is acknowledged.
func (s *MessageSynchronizer) ResolvePending(clientID string, server *domain.Message) {
	s.mu.Lock()
	replaced := false
	for i, p := range s.pending {
		if p.ID == clientID {
			s.pending[i] = server
			replaced = true
			break
		}
	}
	if replaced {
		for i, m := range s.msgs {
			if m.ID == clientID {
				next := slices.Clone(s.msgs)
				next[i] = server
				sortAscending(next)
				s.msgs = next
				break
			}
		}
	}
	chatID := s.chatID
	s.mu.Unlock()

	if replaced {
		s.bus.Emit(bus.KindMessageListUpdated, chatID)
	}
}

// RemovePending drops an optimistic entry whose send failed.
func (s *MessageSynchronizer) RemovePending(clientID string) {
	s.mu.Lock()
	removed := false
	s.pending = slices.DeleteFunc(slices.Clone(s.pending), func(m *domain.Message) bool {
		return m.ID == clientID
	})
	next := slices.DeleteFunc(slices.Clone(s.msgs), func(m *domain.Message) bool {
		if m.ID == clientID {
			removed = true
			return true
		}
		return false
	})
	if removed {
		s.msgs = next
	}
	chatID := s.chatID
	s.mu.Unlock()

	if removed {
		s.bus.Emit(bus.KindMessageListUpdated, chatID)
	}
}

// Messages returns the held message list. The slice is replaced
// wholesale on change, so callers may compare references to skip
// re-derivation.
func (s *MessageSynchronizer) Messages() []*domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.msgs
}

// Loading reports whether the initial fetch for the selected chat is
// still in flight.
func (s *MessageSynchronizer) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// ChatID returns the id of the selected chat, or "".
func (s *MessageSynchronizer) ChatID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.chatID
}
