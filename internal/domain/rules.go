package domain

import (
	"sort"
	"strings"
)

// ActivityTime resolves when a chat last saw activity, in unix
// milliseconds. Fallback order: last message timestamp, the chat's
// last_message_at field, creation time, zero.
func (c *Chat) ActivityTime() int64 {
	if c.LastMessage != nil && c.LastMessage.Timestamp > 0 {
		return c.LastMessage.Timestamp
	}
	if c.LastMessageAt > 0 {
		return c.LastMessageAt
	}
	if c.CreatedAt > 0 {
		return c.CreatedAt
	}
	return 0
}

// AwaitingReply reports whether the chat has unread messages and its
// newest message came from the remote party. Such chats sort ahead of
// everything else.
func (c *Chat) AwaitingReply() bool {
	return c.UnreadCount > 0 && c.LastMessage != nil && !c.LastMessage.FromMe
}

// SortChats orders a chat list for display: chats awaiting a reply
// first, then the rest, each partition by descending activity time.
// The sort is stable so ties keep fetch order.
func SortChats(chats []*Chat) {
	sort.SliceStable(chats, func(i, j int) bool {
		a, b := chats[i], chats[j]
		if a.AwaitingReply() != b.AwaitingReply() {
			return a.AwaitingReply()
		}
		return a.ActivityTime() > b.ActivityTime()
	})
}

// CanWrite decides whether the given operator may send into the chat.
// An unassigned chat is open to everyone. An assigned chat is open only
// to its assignee; an unknown operator is denied.
func CanWrite(chat *Chat, user *User) bool {
	if chat == nil {
		return false
	}
	if chat.AssignedUser == nil {
		return true
	}
	return user != nil && chat.AssignedUser.ID == user.ID
}

// MediaLabel derives a short human-readable label for an attachment
// from its MIME type, falling back to the filename.
func MediaLabel(m *Media) string {
	if m == nil {
		return ""
	}
	switch {
	case strings.HasPrefix(m.MimeType, "image/"):
		return "Image"
	case strings.HasPrefix(m.MimeType, "video/"):
		return "Video"
	case strings.HasPrefix(m.MimeType, "audio/"):
		return "Audio"
	case m.Filename != "":
		return m.Filename
	default:
		return "File"
	}
}

// Preview returns what a message should look like when summarized in a
// single line, e.g. in a quote or a chat list row.
func Preview(m *Message) string {
	if m == nil {
		return ""
	}
	if m.Content != "" {
		return m.Content
	}
	return MediaLabel(m.Media)
}
