package view

import "github.com/opchat/opchat/internal/domain"

// QuoteResolver resolves quoted-message references against one
// message list. Build a new resolver whenever the list changes; the
// external-id index is built once, on first use, so constructing one
// per render of an unchanged list costs nothing.
type QuoteResolver struct {
	msgs       []*domain.Message
	byExternal map[string]*domain.Message
}

// NewQuoteResolver creates a resolver over the given list.
func NewQuoteResolver(msgs []*domain.Message) *QuoteResolver {
	return &QuoteResolver{msgs: msgs}
}

// Resolve returns the human-readable quoted content for a message: the
// explicit quoted text when present, otherwise a summary of the
// referenced message found by external id, otherwise "".
func (r *QuoteResolver) Resolve(m *domain.Message) string {
	if m.QuotedText != "" {
		return m.QuotedText
	}
	if m.QuotedID == "" {
		return ""
	}

	if r.byExternal == nil {
		r.byExternal = make(map[string]*domain.Message, len(r.msgs))
		for _, msg := range r.msgs {
			if msg.ExternalID != "" {
				r.byExternal[msg.ExternalID] = msg
			}
		}
	}

	target, ok := r.byExternal[m.QuotedID]
	if !ok {
		return ""
	}
	return domain.Preview(target)
}
