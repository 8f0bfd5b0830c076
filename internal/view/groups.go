// Package view derives display-ready structures from a message list
// without mutating it. Everything here is pure: derivations are
// recomputed when the underlying list changes and never on a timer.
package view

import (
	"time"

	"github.com/opchat/opchat/internal/domain"
)

// Group is a run of messages sharing a calendar day.
type Group struct {
	Label    string
	Date     time.Time
	Messages []*domain.Message
}

// senderGapMs is the pause after which a consecutive message from the
// same operator gets its own sender header again.
const senderGapMs = 5 * 60 * 1000

// GroupByDate splits an ascending message list into calendar-day
// groups labeled relative to now: "Today", "Yesterday", "2 January"
// within the current year, "2 January 2006" otherwise. Group order
// follows the input, which is chronological.
func GroupByDate(msgs []*domain.Message, now time.Time) []Group {
	var groups []Group
	for _, m := range msgs {
		day := dateOf(time.UnixMilli(m.Timestamp).In(now.Location()))
		if n := len(groups); n > 0 && groups[n-1].Date.Equal(day) {
			groups[n-1].Messages = append(groups[n-1].Messages, m)
			continue
		}
		groups = append(groups, Group{
			Label:    dayLabel(day, now),
			Date:     day,
			Messages: []*domain.Message{m},
		})
	}
	return groups
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func dayLabel(day, now time.Time) string {
	today := dateOf(now)
	switch {
	case day.Equal(today):
		return "Today"
	case day.Equal(today.AddDate(0, 0, -1)):
		return "Yesterday"
	case day.Year() == today.Year():
		return day.Format("2 January")
	default:
		return day.Format("2 January 2006")
	}
}

// ShowSenderInfo decides whether the message at index i of a date
// group carries its own sender header, or visually clusters with the
// previous message. A header is shown on the first message of the
// group, on any authorship flip, on an operator change between two
// self-authored messages, and after a long pause.
func ShowSenderInfo(group []*domain.Message, i int) bool {
	if i <= 0 {
		return true
	}
	m, prev := group[i], group[i-1]
	if m.FromMe != prev.FromMe {
		return true
	}
	if m.FromMe && senderID(m) != senderID(prev) {
		return true
	}
	return m.Timestamp-prev.Timestamp > senderGapMs
}

func senderID(m *domain.Message) string {
	if m.Sender == nil {
		return ""
	}
	return m.Sender.ID
}
