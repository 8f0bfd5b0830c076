package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/opchat/opchat/internal/bus"
	"github.com/opchat/opchat/internal/domain"
	"github.com/opchat/opchat/internal/store"
	"go.uber.org/zap"
)

// ErrInsufficientData means the chat is missing the organization phone
// or remote id a send needs. Detected locally, before any network call.
var ErrInsufficientData = errors.New("chat is missing send routing data")

// TextSender is the backend surface the sender needs.
type TextSender interface {
	SendText(ctx context.Context, orgPhoneID, remoteID, text string) (*domain.Message, error)
}

// Display receives optimistic updates for the message list on screen.
// *sync.MessageSynchronizer satisfies it.
type Display interface {
	AppendPending(msg *domain.Message)
	ResolvePending(clientID string, server *domain.Message)
	RemovePending(clientID string)
}

// Sender drains the outbox and sends queued texts through the backend.
type Sender struct {
	db      *store.DB
	api     TextSender
	display Display
	bus     *bus.Bus
	logger  *zap.Logger
	cancel  context.CancelFunc
}

// NewSender creates a new outbox sender.
func NewSender(db *store.DB, api TextSender, display Display, b *bus.Bus, logger *zap.Logger) *Sender {
	return &Sender{
		db:      db,
		api:     api,
		display: display,
		bus:     b,
		logger:  logger,
	}
}

// Queue validates and enqueues an outgoing text, returning the client
// message id. The optimistic copy is handed to the display before the
// entry ever reaches the network. A chat without routing data is
// rejected with ErrInsufficientData and nothing is queued.
func (s *Sender) Queue(chat *domain.Chat, text string, sender *domain.User) (string, error) {
	if chat == nil || chat.OrgPhoneID == "" || chat.RemoteID == "" {
		return "", ErrInsufficientData
	}

	clientID := uuid.NewString()
	now := time.Now().UnixMilli()

	if err := s.db.QueueOutbox(&store.OutboxEntry{
		ClientMsgID: clientID,
		ChatID:      chat.ID,
		OrgPhoneID:  chat.OrgPhoneID,
		RemoteID:    chat.RemoteID,
		Body:        text,
	}); err != nil {
		return "", err
	}

	if s.display != nil {
		s.display.AppendPending(&domain.Message{
			ID:        clientID,
			ChatID:    chat.ID,
			Content:   text,
			Timestamp: now,
			FromMe:    true,
			Sender:    sender,
		})
	}
	return clientID, nil
}

// Start begins polling the outbox for pending messages.
func (s *Sender) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	go s.loop(ctx)
}

// Stop stops the sender loop.
func (s *Sender) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

func (s *Sender) loop(ctx context.Context) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.processPending(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (s *Sender) processPending(ctx context.Context) {
	pending, err := s.db.PendingOutbox()
	if err != nil {
		s.logger.Error("failed to read outbox", zap.Error(err))
		return
	}

	for _, entry := range pending {
		if err := s.db.MarkOutboxSending(entry.ClientMsgID); err != nil {
			s.logger.Error("failed to mark sending", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			continue
		}

		server, err := s.api.SendText(ctx, entry.OrgPhoneID, entry.RemoteID, entry.Body)
		if err != nil {
			s.logger.Error("failed to send message", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
			_ = s.db.MarkOutboxFailed(entry.ClientMsgID, err.Error())
			if s.display != nil {
				s.display.RemovePending(entry.ClientMsgID)
			}
			s.bus.Emit(bus.KindMessageSendFailed, map[string]string{
				"client_msg_id": entry.ClientMsgID,
				"chat_id":       entry.ChatID,
				"error":         err.Error(),
			})
			continue
		}

		if err := s.db.MarkOutboxSent(entry.ClientMsgID, server.ID); err != nil {
			s.logger.Error("failed to mark sent", zap.Error(err), zap.String("client_msg_id", entry.ClientMsgID))
		}
		if s.display != nil {
			s.display.ResolvePending(entry.ClientMsgID, server)
		}

		s.logger.Info("message sent", zap.String("client_msg_id", entry.ClientMsgID), zap.String("server_msg_id", server.ID))
		s.bus.Emit(bus.KindMessageSendAck, map[string]string{
			"client_msg_id": entry.ClientMsgID,
			"server_msg_id": server.ID,
		})
	}
}
