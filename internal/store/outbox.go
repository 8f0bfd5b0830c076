package store

import "time"

// OutboxEntry is a pending outgoing text message. The org phone and
// remote ids are captured at queue time so the sender can validate them
// before touching the network.
type OutboxEntry struct {
	ID           int64
	ClientMsgID  string
	ChatID       string
	OrgPhoneID   string
	RemoteID     string
	Body         string
	Status       string // queued, sending, sent, failed
	ErrorMessage string
	ServerMsgID  string
}

// QueueOutbox adds a message to the send outbox.
func (db *DB) QueueOutbox(e *OutboxEntry) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`
		INSERT INTO outbox (client_msg_id, chat_id, org_phone_id, remote_id, body, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, 'queued', ?, ?)`,
		e.ClientMsgID, e.ChatID, e.OrgPhoneID, e.RemoteID, e.Body, now, now)
	return err
}

// MarkOutboxSending updates an outbox entry to 'sending' status.
func (db *DB) MarkOutboxSending(clientMsgID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'sending', updated_at = ? WHERE client_msg_id = ?`, now, clientMsgID)
	return err
}

// MarkOutboxSent updates an outbox entry to 'sent' with the server message ID.
func (db *DB) MarkOutboxSent(clientMsgID, serverMsgID string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'sent', server_msg_id = ?, updated_at = ? WHERE client_msg_id = ?`, serverMsgID, now, clientMsgID)
	return err
}

// MarkOutboxFailed updates an outbox entry to 'failed' with an error message.
func (db *DB) MarkOutboxFailed(clientMsgID, errMsg string) error {
	now := time.Now().UnixMilli()
	_, err := db.Exec(`UPDATE outbox SET status = 'failed', error_message = ?, updated_at = ? WHERE client_msg_id = ?`, errMsg, now, clientMsgID)
	return err
}

// PendingOutbox returns outbox entries that are still queued.
func (db *DB) PendingOutbox() ([]OutboxEntry, error) {
	rows, err := db.Query(`
		SELECT id, client_msg_id, chat_id, org_phone_id, remote_id, body, status, error_message, server_msg_id
		FROM outbox WHERE status = 'queued' ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		if err := rows.Scan(&e.ID, &e.ClientMsgID, &e.ChatID, &e.OrgPhoneID, &e.RemoteID, &e.Body, &e.Status, &e.ErrorMessage, &e.ServerMsgID); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
