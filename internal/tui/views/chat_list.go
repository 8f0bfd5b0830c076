package views

import (
	"fmt"
	"time"

	"github.com/opchat/opchat/internal/domain"
	"github.com/rivo/tview"
)

// ChatList is the main chat list view (K9s-inspired table).
type ChatList struct {
	*tview.Table
	chats      []*domain.Chat
	selectedFn func() (int, int)
}

// NewChatList creates a new chat list table.
func NewChatList() *ChatList {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false)
	table.SetBorder(true).SetTitle(" Chats ")

	cl := &ChatList{Table: table}
	cl.selectedFn = table.GetSelection
	return cl
}

// Update refreshes the chat list with new data. The slice arrives
// already ordered: chats awaiting a reply first, newest activity next.
func (cl *ChatList) Update(chats []*domain.Chat) {
	cl.chats = chats
	cl.Clear()

	cl.SetCell(0, 0, tview.NewTableCell("  Name").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 1, tview.NewTableCell(" Last Message").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))
	cl.SetCell(0, 2, tview.NewTableCell(" Time").SetSelectable(false).SetTextColor(tview.Styles.SecondaryTextColor))

	for i, chat := range chats {
		row := i + 1
		name := chat.Name
		if name == "" {
			name = chat.RemoteID
		}
		if chat.UnreadCount > 0 {
			name = fmt.Sprintf("%s (%d)", name, chat.UnreadCount)
		}

		marker := "  "
		if chat.AwaitingReply() {
			marker = "[red]![-] "
		}

		preview := ""
		if chat.LastMessage != nil {
			preview = chat.LastMessage.Content
		}

		cl.SetCell(row, 0, tview.NewTableCell(marker+name).SetMaxWidth(30).SetExpansion(1))
		cl.SetCell(row, 1, tview.NewTableCell(" "+preview).SetMaxWidth(40).SetExpansion(2))
		cl.SetCell(row, 2, tview.NewTableCell(" "+formatTimestamp(chat.ActivityTime())).SetMaxWidth(12))
	}
}

// SelectedChat returns the id of the currently selected chat.
func (cl *ChatList) SelectedChat() string {
	row, _ := cl.selectedFn()
	idx := row - 1 // account for header
	if idx >= 0 && idx < len(cl.chats) {
		return cl.chats[idx].ID
	}
	return ""
}

func formatTimestamp(ms int64) string {
	if ms == 0 {
		return ""
	}
	t := time.UnixMilli(ms)
	now := time.Now()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	return t.Format("01/02")
}
