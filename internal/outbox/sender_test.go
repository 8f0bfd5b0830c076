package outbox

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/opchat/opchat/internal/bus"
	"github.com/opchat/opchat/internal/domain"
	"github.com/opchat/opchat/internal/store"
	"go.uber.org/zap"
)

// mockAPI records calls and returns configurable results.
type mockAPI struct {
	calls []sendCall
	err   error
}

type sendCall struct {
	OrgPhoneID string
	RemoteID   string
	Text       string
}

func (m *mockAPI) SendText(_ context.Context, orgPhoneID, remoteID, text string) (*domain.Message, error) {
	m.calls = append(m.calls, sendCall{OrgPhoneID: orgPhoneID, RemoteID: remoteID, Text: text})
	if m.err != nil {
		return nil, m.err
	}
	return &domain.Message{ID: "server-1", Content: text, FromMe: true}, nil
}

// mockDisplay records optimistic list operations.
type mockDisplay struct {
	appended []*domain.Message
	resolved []string
	removed  []string
}

func (m *mockDisplay) AppendPending(msg *domain.Message) { m.appended = append(m.appended, msg) }
func (m *mockDisplay) ResolvePending(clientID string, _ *domain.Message) {
	m.resolved = append(m.resolved, clientID)
}
func (m *mockDisplay) RemovePending(clientID string) { m.removed = append(m.removed, clientID) }

func testDB(t *testing.T) *store.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	db, err := store.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testChat() *domain.Chat {
	return &domain.Chat{ID: "c1", OrgPhoneID: "phone-1", RemoteID: "555@remote"}
}

func TestQueueRejectsMissingRoutingData(t *testing.T) {
	db := testDB(t)
	mock := &mockAPI{}
	s := NewSender(db, mock, &mockDisplay{}, bus.New(), zap.NewNop())

	cases := []*domain.Chat{
		nil,
		{ID: "c1", RemoteID: "555@remote"},
		{ID: "c1", OrgPhoneID: "phone-1"},
	}
	for _, chat := range cases {
		if _, err := s.Queue(chat, "hello", nil); !errors.Is(err, ErrInsufficientData) {
			t.Errorf("Queue(%+v) err = %v, want ErrInsufficientData", chat, err)
		}
	}

	// Nothing may reach the network or the outbox.
	if len(mock.calls) != 0 {
		t.Errorf("got %d send calls, want 0", len(mock.calls))
	}
	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending entries, want 0", len(pending))
	}
}

func TestQueueAppendsOptimisticMessage(t *testing.T) {
	db := testDB(t)
	display := &mockDisplay{}
	s := NewSender(db, &mockAPI{}, display, bus.New(), zap.NewNop())

	clientID, err := s.Queue(testChat(), "hello", &domain.User{ID: "op1"})
	if err != nil {
		t.Fatal(err)
	}

	if len(display.appended) != 1 {
		t.Fatalf("got %d optimistic appends, want 1", len(display.appended))
	}
	opt := display.appended[0]
	if opt.ID != clientID || opt.ChatID != "c1" || opt.Content != "hello" || !opt.FromMe {
		t.Errorf("optimistic message = %+v", opt)
	}
	if opt.Sender == nil || opt.Sender.ID != "op1" {
		t.Errorf("optimistic sender = %+v, want op1", opt.Sender)
	}
}

func TestSenderProcessesPendingMessages(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	mock := &mockAPI{}
	display := &mockDisplay{}
	s := NewSender(db, mock, display, b, zap.NewNop())

	ch, unsub := b.Subscribe(bus.KindMessageSendAck, 10)
	defer unsub()

	clientID, err := s.Queue(testChat(), "hello", nil)
	if err != nil {
		t.Fatal(err)
	}

	s.Start(context.Background())
	defer s.Stop()

	select {
	case <-ch:
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for send_ack event")
	}

	if len(mock.calls) != 1 {
		t.Fatalf("got %d send calls, want 1", len(mock.calls))
	}
	if mock.calls[0].OrgPhoneID != "phone-1" || mock.calls[0].RemoteID != "555@remote" || mock.calls[0].Text != "hello" {
		t.Errorf("call = %+v", mock.calls[0])
	}

	if len(display.resolved) != 1 || display.resolved[0] != clientID {
		t.Errorf("resolved = %v, want [%s]", display.resolved, clientID)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending, want 0 after send", len(pending))
	}
}

func TestSenderHandlesFailure(t *testing.T) {
	db := testDB(t)
	b := bus.New()
	mock := &mockAPI{err: fmt.Errorf("network error")}
	display := &mockDisplay{}
	s := NewSender(db, mock, display, b, zap.NewNop())

	ch, unsub := b.Subscribe(bus.KindMessageSendFailed, 10)
	defer unsub()

	clientID, err := s.Queue(testChat(), "hello", nil)
	if err != nil {
		t.Fatal(err)
	}

	s.Start(context.Background())
	defer s.Stop()

	select {
	case evt := <-ch:
		payload, ok := evt.Payload.(map[string]string)
		if !ok || payload["client_msg_id"] != clientID {
			t.Errorf("failure payload = %+v", evt.Payload)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for send_failed event")
	}

	// The optimistic copy must be withdrawn on failure.
	if len(display.removed) != 1 || display.removed[0] != clientID {
		t.Errorf("removed = %v, want [%s]", display.removed, clientID)
	}

	pending, err := db.PendingOutbox()
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 0 {
		t.Errorf("got %d pending, want 0 (should be marked failed)", len(pending))
	}
}
