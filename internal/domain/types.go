package domain

// User is an operator account on the backend.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrgPhone is an outbound-capable messaging identity owned by the
// organization. Every chat is bound to exactly one of these.
type OrgPhone struct {
	ID        string `json:"id"`
	Number    string `json:"number"`
	Connected bool   `json:"connected"`
}

// LastMessage is the summary of a chat's most recent message, as
// embedded in chat list responses.
type LastMessage struct {
	Content   string `json:"content"`
	Timestamp int64  `json:"timestamp"`
	FromMe    bool   `json:"fromMe"`
}

// Chat is a conversation thread with one remote party.
type Chat struct {
	ID            string       `json:"id"`
	Name          string       `json:"name"`
	RemoteID      string       `json:"remoteJid"`
	AssignedUser  *User        `json:"assignedUser"`
	LastMessage   *LastMessage `json:"lastMessage"`
	LastMessageAt int64        `json:"lastMessageAt"`
	UnreadCount   int          `json:"unreadCount"`
	OrgPhoneID    string       `json:"organizationPhoneId"`
	CreatedAt     int64        `json:"createdAt"`
}

// Media describes an attachment carried by a message.
type Media struct {
	Path     string `json:"path"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename"`
}

// Message is a single message within a chat. ID is stable across
// re-fetches. ExternalID is the cross-system identifier other messages
// use to quote this one.
type Message struct {
	ID         string `json:"id"`
	ChatID     string `json:"chatId"`
	ExternalID string `json:"externalId"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
	FromMe     bool   `json:"fromMe"`
	Sender     *User  `json:"sender"`
	QuotedID   string `json:"quotedMessageId"`
	QuotedText string `json:"quotedText"`
	Media      *Media `json:"media"`
}
