package views

import (
	"fmt"
	"time"

	"github.com/opchat/opchat/internal/domain"
	"github.com/opchat/opchat/internal/view"
	"github.com/rivo/tview"
)

// Thread displays the messages of a single chat, grouped by calendar
// day with sender headers collapsed for consecutive messages.
type Thread struct {
	*tview.TextView
	chatName string
	lastMsgs []*domain.Message
}

// NewThread creates a new message thread view.
func NewThread() *Thread {
	tv := tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	tv.SetBorder(true).SetTitle(" Messages ")

	return &Thread{TextView: tv}
}

// SetChatName updates the title with the chat name.
func (t *Thread) SetChatName(name string) {
	t.chatName = name
	t.SetTitle(fmt.Sprintf(" %s ", name))
}

// ShowLoading renders the initial-load placeholder.
func (t *Thread) ShowLoading() {
	t.Clear()
	t.lastMsgs = nil
	_, _ = fmt.Fprint(t, "\n  [::d]Loading messages...[-:-:-]")
}

// Update re-renders the thread. The synchronizer replaces the slice
// wholesale on change, so an identical reference means nothing to do.
func (t *Thread) Update(msgs []*domain.Message) {
	if len(msgs) > 0 && len(t.lastMsgs) > 0 && &msgs[0] == &t.lastMsgs[0] && len(msgs) == len(t.lastMsgs) {
		return
	}
	t.lastMsgs = msgs
	t.Clear()

	quotes := view.NewQuoteResolver(msgs)
	for _, group := range view.GroupByDate(msgs, time.Now()) {
		_, _ = fmt.Fprintf(t, "[::d]--- %s ---[-:-:-]\n\n", group.Label)
		for i, m := range group.Messages {
			if view.ShowSenderInfo(group.Messages, i) {
				_, _ = fmt.Fprintf(t, "[::b]%s[-:-:-] [::d]%s[-:-:-]\n", senderName(m), time.UnixMilli(m.Timestamp).Format("15:04"))
			}
			if quoted := quotes.Resolve(m); quoted != "" {
				_, _ = fmt.Fprintf(t, "  [::d]> %s[-:-:-]\n", tview.Escape(quoted))
			}
			if m.Media != nil {
				_, _ = fmt.Fprintf(t, "  [yellow][%s][-]", domain.MediaLabel(m.Media))
				if m.Content != "" {
					_, _ = fmt.Fprintf(t, " %s", tview.Escape(m.Content))
				}
				_, _ = fmt.Fprint(t, "\n")
			} else {
				_, _ = fmt.Fprintf(t, "  %s\n", tview.Escape(m.Content))
			}
		}
		_, _ = fmt.Fprint(t, "\n")
	}

	t.ScrollToEnd()
}

func senderName(m *domain.Message) string {
	if !m.FromMe {
		return "Customer"
	}
	if m.Sender != nil && m.Sender.Name != "" {
		return m.Sender.Name
	}
	return "You"
}
