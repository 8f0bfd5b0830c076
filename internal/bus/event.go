package bus

import "time"

// Event kinds published by the console. Subscribers filter by prefix,
// e.g. "chat." receives every chat event.
const (
	KindChatListUpdated    = "chat.list_updated"
	KindMessageListUpdated = "message.list_updated"
	KindMessageSendFailed  = "message.send_failed"
	KindMessageSendAck     = "message.send_ack"
	KindStatusChanged      = "session.status_changed"
	KindSessionExpired     = "session.expired"
	KindAlert              = "alert.user"
)

// Event is a domain event published on the bus.
type Event struct {
	ID        string
	Kind      string
	Timestamp time.Time
	Payload   any
}
